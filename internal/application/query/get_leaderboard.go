// Package query contains read operations following CQRS pattern.
// Queries never modify state through the primary write path; the
// leaderboard's wallet backfill is the one sanctioned side effect and it
// is best effort.
package query

import (
	"context"
	"sync"
	"time"

	"github.com/quizhub/daily-quiz-hub/internal/domain/leaderboard"
	"github.com/quizhub/daily-quiz-hub/internal/domain/player"
	"github.com/quizhub/daily-quiz-hub/internal/domain/shared"
	"github.com/quizhub/daily-quiz-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Ranks every player by resolved point total over a full ledger scan.
// Players whose canonical total is missing get it repaired from the
// legacy wallet field while the scan is in flight.
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboardQuery contains the leaderboard request parameters.
type GetLeaderboardQuery struct {
	// Limit is the number of entries to return. Zero or negative values
	// use the default; values above the maximum are clamped down.
	Limit int
}

// LeaderboardEntryDTO is one leaderboard row as returned to callers.
type LeaderboardEntryDTO struct {
	// Rank is the 1-based position.
	Rank int `json:"rank"`

	// PlayerID is the player's ID.
	PlayerID string `json:"player_id"`

	// DisplayName is the name to render.
	DisplayName string `json:"display_name"`

	// TotalPoints is the resolved point total.
	TotalPoints int64 `json:"total_points"`

	// StreakDays is the current streak.
	StreakDays int `json:"streak_days"`
}

// GetLeaderboardResult contains the computed leaderboard.
type GetLeaderboardResult struct {
	// Entries are the ranked rows, best first.
	Entries []LeaderboardEntryDTO `json:"entries"`

	// TotalPlayers is the number of ledgers scanned.
	TotalPlayers int `json:"total_players"`

	// FromCache reports that the result was served from the cache.
	FromCache bool `json:"from_cache"`

	// GeneratedAt is when the result was computed.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetLeaderboardHandler handles leaderboard queries.
type GetLeaderboardHandler struct {
	ledgerRepo player.LedgerRepository
	cache      leaderboard.Cache
	publisher  shared.EventPublisher
	log        *logger.Logger
}

// NewGetLeaderboardHandler creates a new GetLeaderboardHandler. Cache and
// publisher may be nil.
func NewGetLeaderboardHandler(
	ledgerRepo player.LedgerRepository,
	cache leaderboard.Cache,
	publisher shared.EventPublisher,
	log *logger.Logger,
) *GetLeaderboardHandler {
	return &GetLeaderboardHandler{
		ledgerRepo: ledgerRepo,
		cache:      cache,
		publisher:  publisher,
		log:        log.With(logger.Component("get_leaderboard")),
	}
}

// Handle executes the leaderboard query.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, query GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	limit := leaderboard.ClampLimit(query.Limit)

	if cached, ok := h.tryCache(ctx, limit); ok {
		return cached, nil
	}

	ledgers, err := h.ledgerRepo.ListLedgers(ctx)
	if err != nil {
		h.log.Error("ledger scan failed", logger.Err(err))
		return nil, shared.WrapError("query", "GetLeaderboard", shared.ErrServiceUnavailable, "failed to scan ledgers", err)
	}

	entries, backfills := h.resolveEntries(ledgers)
	h.runBackfills(ctx, backfills)

	top := leaderboard.Top(entries, limit)

	result := &GetLeaderboardResult{
		Entries:      toDTOs(top),
		TotalPlayers: len(ledgers),
		GeneratedAt:  time.Now().UTC(),
	}

	// Cache the full sorted population so later queries with any limit
	// can be served from it.
	h.storeInCache(ctx, entries)

	if h.publisher != nil {
		_ = h.publisher.Publish(shared.NewLeaderboardRefreshedEvent(len(ledgers), len(top)))
	}

	return result, nil
}

// resolveEntries converts ledgers to leaderboard entries, collecting the
// players whose canonical total needs a wallet backfill.
func (h *GetLeaderboardHandler) resolveEntries(ledgers []*player.Ledger) ([]leaderboard.Entry, []leaderboard.Entry) {
	entries := make([]leaderboard.Entry, 0, len(ledgers))
	backfills := make([]leaderboard.Entry, 0)

	for _, l := range ledgers {
		points := player.ResolveLeaderboardPoints(l)
		entry := leaderboard.Entry{
			PlayerID:    l.PlayerID,
			DisplayName: l.MergedDisplayName("", l.PlayerID),
			TotalPoints: points.TotalPoints,
			StreakDays:  l.StreakDays,
		}
		entries = append(entries, entry)
		if points.BackfilledFromWallet {
			backfills = append(backfills, entry)
		}
	}

	return entries, backfills
}

// runBackfills repairs canonical totals from wallet values. Every write
// is awaited before the response is built so the repaired rows are
// durable by the time they are served; individual failures are logged
// and ignored, the response uses the resolved value either way.
func (h *GetLeaderboardHandler) runBackfills(ctx context.Context, backfills []leaderboard.Entry) {
	if len(backfills) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, entry := range backfills {
		wg.Add(1)
		go func(e leaderboard.Entry) {
			defer wg.Done()
			if err := h.ledgerRepo.BackfillTotalPoints(ctx, e.PlayerID, e.TotalPoints); err != nil {
				h.log.Warn("wallet backfill failed",
					logger.Err(err), logger.PlayerID(e.PlayerID), logger.Points(e.TotalPoints))
				return
			}
			if h.publisher != nil {
				_ = h.publisher.Publish(shared.NewPointsBackfilledEvent(e.PlayerID, e.TotalPoints))
			}
		}(entry)
	}
	wg.Wait()
}

// tryCache serves the query from the cache when possible.
func (h *GetLeaderboardHandler) tryCache(ctx context.Context, limit int) (*GetLeaderboardResult, bool) {
	if h.cache == nil {
		return nil, false
	}

	entries, totalPlayers, err := h.cache.GetTop(ctx, limit)
	if err != nil || len(entries) == 0 {
		return nil, false
	}

	return &GetLeaderboardResult{
		Entries:      toDTOs(entries),
		TotalPlayers: totalPlayers,
		FromCache:    true,
		GeneratedAt:  time.Now().UTC(),
	}, true
}

// storeInCache writes a freshly computed leaderboard through to the cache.
func (h *GetLeaderboardHandler) storeInCache(ctx context.Context, entries []leaderboard.Entry) {
	if h.cache == nil {
		return
	}
	if err := h.cache.PutTop(ctx, entries); err != nil {
		h.log.Warn("leaderboard cache write failed", logger.Err(err))
	}
}

func toDTOs(entries []leaderboard.Entry) []LeaderboardEntryDTO {
	dtos := make([]LeaderboardEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = LeaderboardEntryDTO{
			Rank:        i + 1,
			PlayerID:    e.PlayerID,
			DisplayName: e.DisplayName,
			TotalPoints: e.TotalPoints,
			StreakDays:  e.StreakDays,
		}
	}
	return dtos
}
