// Package leaderboard contains the derived ranked view over player
// ledgers. Entries have no independent storage or lifecycle; they are
// recomputed from a full ledger scan on every query and rank is always
// positional.
package leaderboard

import (
	"context"
	"sort"
)

// Limits for the number of returned entries.
const (
	// DefaultLimit is used when the caller does not specify one.
	DefaultLimit = 50

	// MaxLimit caps a single query.
	MaxLimit = 200
)

// ClampLimit clamps a requested entry count to [1, MaxLimit], substituting
// DefaultLimit for zero or negative values.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Entry is one row of the leaderboard view.
type Entry struct {
	// PlayerID identifies the player.
	PlayerID string `json:"player_id"`

	// DisplayName is the name to render.
	DisplayName string `json:"display_name"`

	// TotalPoints is the resolved canonical point total.
	TotalPoints int64 `json:"total_points"`

	// StreakDays is the current consecutive-day streak.
	StreakDays int `json:"streak_days"`
}

// Less is the deterministic leaderboard order: total points descending,
// then streak days descending, then display name ascending. Exact ties
// therefore always sort the same way.
func Less(a, b Entry) bool {
	if a.TotalPoints != b.TotalPoints {
		return a.TotalPoints > b.TotalPoints
	}
	if a.StreakDays != b.StreakDays {
		return a.StreakDays > b.StreakDays
	}
	return a.DisplayName < b.DisplayName
}

// Sort orders entries in place by the leaderboard order.
func Sort(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return Less(entries[i], entries[j])
	})
}

// Top sorts entries and returns at most limit of them. Limit is assumed
// to be clamped already.
func Top(entries []Entry, limit int) []Entry {
	Sort(entries)
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// Cache is an optional best-effort store for computed leaderboards. A
// failing or absent cache never affects correctness: callers fall
// through to the full scan.
type Cache interface {
	// GetTop returns cached entries (already sorted) truncated to limit,
	// plus the size of the full cached population, or an error on miss
	// or cache failure.
	GetTop(ctx context.Context, limit int) ([]Entry, int, error)

	// PutTop stores a freshly computed leaderboard.
	PutTop(ctx context.Context, entries []Entry) error

	// Invalidate drops the cached leaderboard.
	Invalidate(ctx context.Context) error
}
