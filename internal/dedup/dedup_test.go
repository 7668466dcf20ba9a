package dedup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeLedger struct {
	seen map[string]bool
	err  error
}

func (f *fakeLedger) HasMessage(ctx context.Context, ref string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.seen[ref], nil
}

func TestAlreadyProcessed(t *testing.T) {
	g := New(&fakeLedger{seen: map[string]bool{"m-1": true}}, discardLogger())

	seen, err := g.AlreadyProcessed(context.Background(), "m-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !seen {
		t.Error("expected m-1 to be seen")
	}

	seen, err = g.AlreadyProcessed(context.Background(), "m-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen {
		t.Error("expected m-2 to be unseen")
	}
}

func TestAlreadyProcessed_StoreError(t *testing.T) {
	g := New(&fakeLedger{err: errors.New("db down")}, discardLogger())

	if _, err := g.AlreadyProcessed(context.Background(), "m-1"); err == nil {
		t.Fatal("expected store error to propagate")
	}
}

func TestWindow_DuplicateWithinWindow(t *testing.T) {
	g := New(&fakeLedger{}, discardLogger())
	now := time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)

	g.Remember("casey", "ran 3 miles", "2025-07-10", now)

	tests := []struct {
		name string
		user string
		text string
		date string
		at   time.Time
		want bool
	}{
		{"same everything 30m later", "casey", "ran 3 miles", "2025-07-10", now.Add(30 * time.Minute), true},
		{"just inside the window", "casey", "ran 3 miles", "2025-07-10", now.Add(59 * time.Minute), true},
		{"expired after 61m", "casey", "ran 3 miles", "2025-07-10", now.Add(61 * time.Minute), false},
		{"different user", "sam", "ran 3 miles", "2025-07-10", now.Add(time.Minute), false},
		{"different text", "casey", "ran 4 miles", "2025-07-10", now.Add(time.Minute), false},
		{"different date", "casey", "ran 3 miles", "2025-07-09", now.Add(time.Minute), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.RecentDuplicate(tt.user, tt.text, tt.date, tt.at); got != tt.want {
				t.Errorf("RecentDuplicate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWindow_PruneDropsOnlyExpired(t *testing.T) {
	w := NewWindow(time.Hour)
	base := time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)

	w.Add("casey", "old", "2025-07-10", base)
	w.Add("casey", "new", "2025-07-10", base.Add(45*time.Minute))

	// 70 minutes after base: first entry expired, second still live.
	at := base.Add(70 * time.Minute)
	if w.Contains("casey", "old", "2025-07-10", at) {
		t.Error("expired entry still present")
	}
	if !w.Contains("casey", "new", "2025-07-10", at) {
		t.Error("live entry pruned")
	}
}
