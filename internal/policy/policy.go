// Package policy holds the points schedule for the challenge. The switches
// are exhaustive over the activity types so adding a kind is a
// compile-visible change here rather than a silent zero.
package policy

import "github.com/lakeshore-ultimate/tally/internal/activity"

// Unlimited is returned by DailyCap for types with no per-day ceiling.
const Unlimited = -1

// BasePoints returns the per-occurrence point value for an activity type.
// Throwing is per 15-minute block, bonding per participant present; the
// classifier already expands those into one candidate per unit, so the
// value here is flat. Unknown types are worth nothing.
func BasePoints(t activity.Type) int {
	switch t {
	case activity.TypeWorkout:
		return 3
	case activity.TypeThrowing:
		return 2
	case activity.TypeWatching:
		return 2
	case activity.TypeBonding:
		return 2
	case activity.TypeNone:
		return 0
	}
	return 0
}

// DailyCap returns the maximum cumulative points a user may earn per day
// for an activity type, or Unlimited when no cap applies.
func DailyCap(t activity.Type) int {
	switch t {
	case activity.TypeWorkout:
		return 6
	case activity.TypeWatching:
		return 2
	case activity.TypeThrowing, activity.TypeBonding, activity.TypeNone:
		return Unlimited
	}
	return Unlimited
}
