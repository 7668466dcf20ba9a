// Package dedup keeps the pipeline from double-counting: an exact replay
// guard keyed by message reference, and a short near-duplicate window that
// catches the same activity posted twice in quick succession.
package dedup

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultWindow is the near-duplicate suppression interval.
const DefaultWindow = 60 * time.Minute

// Ledger is the slice of the store the replay guard needs.
type Ledger interface {
	HasMessage(ctx context.Context, messageRef string) (bool, error)
}

type Guard struct {
	ledger Ledger
	window *Window
	logger *slog.Logger
}

func New(ledger Ledger, logger *slog.Logger) *Guard {
	return &Guard{
		ledger: ledger,
		window: NewWindow(DefaultWindow),
		logger: logger,
	}
}

// AlreadyProcessed reports whether a record set was ever persisted for this
// message reference. A hit means the whole message is skipped: no
// classifier call, no writes. This is what makes history replay idempotent.
func (g *Guard) AlreadyProcessed(ctx context.Context, messageRef string) (bool, error) {
	seen, err := g.ledger.HasMessage(ctx, messageRef)
	if err != nil {
		return false, err
	}
	if seen {
		g.logger.Info("message already processed, skipping", "message_ref", messageRef)
	}
	return seen, nil
}

// RecentDuplicate reports whether the same user already logged an activity
// with identical normalized text and the same resolved date inside the
// window. Applied to classifier output before persistence; a hit collapses
// the candidate to a none/"duplicate" record.
func (g *Guard) RecentDuplicate(user, text, date string, now time.Time) bool {
	return g.window.Contains(user, text, date, now)
}

// Remember notes a persisted real activity for the near-duplicate window.
func (g *Guard) Remember(user, text, date string, now time.Time) {
	g.window.Add(user, text, date, now)
}

// Window is an in-memory sliding record of recent (user, text, date)
// activity posts. Entries expire after the TTL; pruning happens on access.
type Window struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries []entry
}

type entry struct {
	user, text, date string
	at               time.Time
}

func NewWindow(ttl time.Duration) *Window {
	return &Window{ttl: ttl}
}

func (w *Window) Add(user, text, date string, now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prune(now)
	w.entries = append(w.entries, entry{user: user, text: text, date: date, at: now})
}

func (w *Window) Contains(user, text, date string, now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prune(now)
	for _, e := range w.entries {
		if e.user == user && e.text == text && e.date == date {
			return true
		}
	}
	return false
}

// prune drops expired entries. Caller holds the lock. Entries are appended
// in time order, so the survivors are a suffix.
func (w *Window) prune(now time.Time) {
	cutoff := now.Add(-w.ttl)
	i := 0
	for ; i < len(w.entries); i++ {
		if w.entries[i].at.After(cutoff) {
			break
		}
	}
	if i > 0 {
		w.entries = append(w.entries[:0], w.entries[i:]...)
	}
}
