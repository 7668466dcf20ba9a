package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/lakeshore-ultimate/tally/internal/activity"
)

// Insert appends one record to the ledger and returns its assigned ID.
func (s *Store) Insert(ctx context.Context, rec activity.Record) (uuid.UUID, error) {
	id := rec.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO activities (id, user_id, date, message_ref, activity_type, points)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		id, rec.UserID, rec.Date, rec.MessageRef, string(rec.Type), rec.Points,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert activity: %w", err)
	}
	return id, nil
}

// HasMessage reports whether any record exists for the message reference.
// This is the exact replay guard: one hit means the message was fully
// processed and must be skipped.
func (s *Store) HasMessage(ctx context.Context, messageRef string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM activities WHERE message_ref = $1)`,
		messageRef,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("lookup message %s: %w", messageRef, err)
	}
	return exists, nil
}

// SumPoints returns the cumulative points already recorded for one
// (user, date, type) cell — the unit the daily cap operates on.
func (s *Store) SumPoints(ctx context.Context, t activity.Type, date, userID string) (int, error) {
	var sum int
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(points), 0) FROM activities
		WHERE activity_type = $1 AND date = $2 AND user_id = $3`,
		string(t), date, userID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum points for %s/%s/%s: %w", userID, date, t, err)
	}
	return sum, nil
}

// UserTotal is one leaderboard row.
type UserTotal struct {
	UserID string
	Points int
}

// Totals returns every user's summed points, descending, ties broken by
// ascending user id so the order is deterministic.
func (s *Store) Totals(ctx context.Context) ([]UserTotal, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT user_id, SUM(points) FROM activities
		GROUP BY user_id
		ORDER BY SUM(points) DESC, user_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query totals: %w", err)
	}
	defer rows.Close()

	var totals []UserTotal
	for rows.Next() {
		var t UserTotal
		if err := rows.Scan(&t.UserID, &t.Points); err != nil {
			return nil, fmt.Errorf("scan total: %w", err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// All returns the full ledger in insertion order, for the raw dump paths.
func (s *Store) All(ctx context.Context) ([]activity.Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, date, message_ref, activity_type, points
		FROM activities ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	var recs []activity.Record
	for rows.Next() {
		var rec activity.Record
		var typ string
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Date, &rec.MessageRef, &typ, &rec.Points); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		rec.Type = activity.Type(typ)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
