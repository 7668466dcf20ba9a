package normalize

import (
	"testing"
	"time"

	"github.com/lakeshore-ultimate/tally/internal/activity"
)

func chicago(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

func TestMessage_MentionRewriting(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		mentions []activity.Mention
		want     string
	}{
		{
			name:     "plain encoding",
			content:  "dinner with <@1001>",
			mentions: []activity.Mention{{ID: "1001", Handle: "sam"}},
			want:     "dinner with @sam",
		},
		{
			name:     "nickname encoding",
			content:  "dinner with <@!1001>",
			mentions: []activity.Mention{{ID: "1001", Handle: "sam"}},
			want:     "dinner with @sam",
		},
		{
			name:     "both encodings of the same user",
			content:  "<@1001> and <@!1001> were there",
			mentions: []activity.Mention{{ID: "1001", Handle: "sam"}},
			want:     "@sam and @sam were there",
		},
		{
			name:    "multiple users all occurrences",
			content: "game night with <@1001> and <@!2002>, thanks <@1001>",
			mentions: []activity.Mention{
				{ID: "1001", Handle: "sam"},
				{ID: "2002", Handle: "alex"},
			},
			want: "game night with @sam and @alex, thanks @sam",
		},
		{
			name:     "no mentions is a no-op",
			content:  "ran 3 miles",
			mentions: nil,
			want:     "ran 3 miles",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := Message(activity.Message{
				Content:  tt.content,
				Mentions: tt.mentions,
			}, time.UTC)
			if msg.Content != tt.want {
				t.Errorf("Content = %q, want %q", msg.Content, tt.want)
			}
		})
	}
}

func TestMessage_PassesThroughAuthorAndTimestamp(t *testing.T) {
	loc := chicago(t)
	ts := time.Date(2025, 7, 10, 3, 30, 0, 0, time.UTC)

	msg := Message(activity.Message{
		Ref:       "m-1",
		Author:    "casey",
		Content:   "PT",
		Timestamp: ts,
	}, loc)

	if msg.Author != "casey" {
		t.Errorf("Author = %q, want casey", msg.Author)
	}
	if !msg.Timestamp.Equal(ts) {
		t.Errorf("Timestamp changed instant: %v vs %v", msg.Timestamp, ts)
	}
	if msg.Timestamp.Location() != loc {
		t.Errorf("Timestamp zone = %v, want %v", msg.Timestamp.Location(), loc)
	}
}

func TestDate_ResolvesInFixedZone(t *testing.T) {
	loc := chicago(t)

	// 03:30 UTC on July 10 is still July 9 in Chicago.
	msg := Message(activity.Message{
		Timestamp: time.Date(2025, 7, 10, 3, 30, 0, 0, time.UTC),
	}, loc)

	if got := Date(msg); got != "2025-07-09" {
		t.Errorf("Date = %q, want 2025-07-09", got)
	}
}
