//go:build integration

package store

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/lakeshore-ultimate/tally/internal/activity"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func TestIntegration_InsertAndLookup(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	ref := "itest-" + uuid.New().String()[:8]

	id, err := s.Insert(ctx, activity.Record{
		UserID:     "itest-casey",
		Date:       "2025-07-10",
		MessageRef: ref,
		Type:       activity.TypeWorkout,
		Points:     3,
	})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if id == uuid.Nil {
		t.Fatal("expected assigned id")
	}

	seen, err := s.HasMessage(ctx, ref)
	if err != nil {
		t.Fatalf("HasMessage failed: %v", err)
	}
	if !seen {
		t.Error("expected inserted message to be seen")
	}

	seen, err = s.HasMessage(ctx, ref+"-missing")
	if err != nil {
		t.Fatalf("HasMessage failed: %v", err)
	}
	if seen {
		t.Error("expected unknown message to be unseen")
	}
}

func TestIntegration_SumPoints(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	user := "itest-" + uuid.New().String()[:8]

	for _, pts := range []int{3, 2} {
		if _, err := s.Insert(ctx, activity.Record{
			UserID:     user,
			Date:       "2025-07-10",
			MessageRef: "itest-" + uuid.New().String()[:8],
			Type:       activity.TypeWorkout,
			Points:     pts,
		}); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	sum, err := s.SumPoints(ctx, activity.TypeWorkout, "2025-07-10", user)
	if err != nil {
		t.Fatalf("SumPoints failed: %v", err)
	}
	if sum != 5 {
		t.Errorf("sum = %d, want 5", sum)
	}

	// Other cells of the (user, date, type) space stay at zero.
	sum, err = s.SumPoints(ctx, activity.TypeWatching, "2025-07-10", user)
	if err != nil {
		t.Fatalf("SumPoints failed: %v", err)
	}
	if sum != 0 {
		t.Errorf("sum for other type = %d, want 0", sum)
	}
}
