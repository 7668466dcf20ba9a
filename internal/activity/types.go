// Package activity defines the domain types shared across the pipeline:
// the closed set of activity kinds, the classifier's candidate output,
// and the persisted ledger record.
package activity

import (
	"time"

	"github.com/google/uuid"
)

// Type is the closed set of loggable activity kinds.
type Type string

const (
	// TypeNone marks a message the classifier examined and found no
	// loggable activity in. It is still persisted (zero points) so the
	// message is never reprocessed.
	TypeNone     Type = "none"
	TypeThrowing Type = "throwing"
	TypeWorkout  Type = "workout"
	TypeWatching Type = "watching"
	TypeBonding  Type = "bonding"
)

// Known reports whether t is one of the enumerated types. The classifier
// should never return anything else, but an unknown type is tolerated
// downstream (zero points, no cap) rather than rejected.
func (t Type) Known() bool {
	switch t {
	case TypeNone, TypeThrowing, TypeWorkout, TypeWatching, TypeBonding:
		return true
	}
	return false
}

// Candidate is one detected activity within a message, as returned by the
// classifier. Ephemeral; consumed immediately by the recorder.
type Candidate struct {
	Type   Type   `json:"activity_type"`
	UserID string `json:"user_id"`
	Date   string `json:"date"` // calendar date, YYYY-MM-DD
	Reason string `json:"reason"`
}

// Record is a persisted ledger entry. Points is the post-cap allocation,
// possibly zero. Records are never mutated or deleted after insert.
type Record struct {
	ID         uuid.UUID
	UserID     string
	Date       string // calendar date, YYYY-MM-DD
	MessageRef string
	Type       Type
	Points     int
}

// Message is an inbound chat message after normalization: mentions are
// rewritten to @handle form and the timestamp carries the fixed zone used
// for date resolution.
type Message struct {
	Ref       string
	Author    string
	Channel   string
	Content   string
	Timestamp time.Time
	Mentions  []Mention
}

// Mention is one participant referenced in a message, with the stable
// handle the platform resolved it to.
type Mention struct {
	ID     string
	Handle string
}
