// Package report renders the leaderboard. Read-only over the ledger; runs
// outside the recorder's critical section.
package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/lakeshore-ultimate/tally/internal/store"
)

// Ledger is the aggregation surface the reporter reads.
type Ledger interface {
	Totals(ctx context.Context) ([]store.UserTotal, error)
}

type Reporter struct {
	ledger Ledger
}

func New(ledger Ledger) *Reporter {
	return &Reporter{ledger: ledger}
}

// Standings returns every user's total, highest first. Ties are broken by
// ascending user id in the query, so the order is deterministic.
func (r *Reporter) Standings(ctx context.Context) ([]store.UserTotal, error) {
	return r.ledger.Totals(ctx)
}

// Table renders the standings as a markdown table, or a short notice when
// the ledger is empty.
func (r *Reporter) Table(ctx context.Context) (string, error) {
	totals, err := r.Standings(ctx)
	if err != nil {
		return "", fmt.Errorf("aggregate standings: %w", err)
	}
	return FormatTable(totals), nil
}

// FormatTable renders totals as a markdown table.
func FormatTable(totals []store.UserTotal) string {
	if len(totals) == 0 {
		return "No activities logged yet."
	}

	var sb strings.Builder
	sb.WriteString("| User ID | Points |\n")
	sb.WriteString("|---------|--------|\n")
	for _, t := range totals {
		fmt.Fprintf(&sb, "| %s | %d |\n", t.UserID, t.Points)
	}
	return sb.String()
}
