package redis

import (
	"context"

	"github.com/quizhub/daily-quiz-hub/internal/domain/leaderboard"
)

// LeaderboardCache implements leaderboard.Cache on Redis. The full sorted
// leaderboard is stored as one JSON document under a short TTL; GetTop
// slices the cached entries to the requested limit.
type LeaderboardCache struct {
	cache *Cache
}

// NewLeaderboardCache creates a new LeaderboardCache.
func NewLeaderboardCache(cache *Cache) *LeaderboardCache {
	return &LeaderboardCache{cache: cache}
}

// GetTop returns the cached leaderboard truncated to limit, plus the
// full population size. The cache holds the full sorted population, so a
// cached list shorter than limit simply means there are fewer players
// than requested.
func (c *LeaderboardCache) GetTop(ctx context.Context, limit int) ([]leaderboard.Entry, int, error) {
	var entries []leaderboard.Entry
	if err := c.cache.Get(ctx, LeaderboardKey(), &entries); err != nil {
		return nil, 0, err
	}
	total := len(entries)
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, total, nil
}

// PutTop stores the full sorted leaderboard.
func (c *LeaderboardCache) PutTop(ctx context.Context, entries []leaderboard.Entry) error {
	return c.cache.Set(ctx, LeaderboardKey(), entries, TTLLeaderboard)
}

// Invalidate drops the cached leaderboard.
func (c *LeaderboardCache) Invalidate(ctx context.Context) error {
	return c.cache.Delete(ctx, LeaderboardKey())
}
