package query

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizhub/daily-quiz-hub/internal/domain/leaderboard"
	"github.com/quizhub/daily-quiz-hub/internal/domain/player"
	"github.com/quizhub/daily-quiz-hub/internal/domain/shared"
	"github.com/quizhub/daily-quiz-hub/pkg/logger"
)

// stubLedgerRepo serves a fixed ledger list and records backfill calls.
type stubLedgerRepo struct {
	mu        sync.Mutex
	ledgers   []*player.Ledger
	listErr   error
	backfills map[string]int64
	backErr   error
}

func newStubLedgerRepo(ledgers ...*player.Ledger) *stubLedgerRepo {
	return &stubLedgerRepo{ledgers: ledgers, backfills: make(map[string]int64)}
}

func (r *stubLedgerRepo) GetLedger(_ context.Context, playerID string) (*player.Ledger, error) {
	for _, l := range r.ledgers {
		if l.PlayerID == playerID {
			return l, nil
		}
	}
	return nil, shared.ErrPlayerNotFound
}

func (r *stubLedgerRepo) RecordCompletion(_ context.Context, _ player.CompletionRequest) (*player.RecordOutcome, error) {
	return nil, errors.New("not implemented")
}

func (r *stubLedgerRepo) ListLedgers(_ context.Context) ([]*player.Ledger, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.ledgers, nil
}

func (r *stubLedgerRepo) BackfillTotalPoints(_ context.Context, playerID string, totalPoints int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.backErr != nil {
		return r.backErr
	}
	r.backfills[playerID] = totalPoints
	return nil
}

func (r *stubLedgerRepo) backfilled(playerID string) (int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.backfills[playerID]
	return v, ok
}

// stubCache is an in-memory leaderboard cache.
type stubCache struct {
	entries []leaderboard.Entry
	getErr  error
	puts    int
}

func (c *stubCache) GetTop(_ context.Context, limit int) ([]leaderboard.Entry, int, error) {
	if c.getErr != nil {
		return nil, 0, c.getErr
	}
	total := len(c.entries)
	if len(c.entries) > limit {
		return c.entries[:limit], total, nil
	}
	return c.entries, total, nil
}

func (c *stubCache) PutTop(_ context.Context, entries []leaderboard.Entry) error {
	c.entries = entries
	c.puts++
	return nil
}

func (c *stubCache) Invalidate(_ context.Context) error {
	c.entries = nil
	return nil
}

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard, Level: logger.LevelError})
}

func numberLedger(id, name string, points int64, streak int) *player.Ledger {
	return &player.Ledger{
		PlayerID:    id,
		DisplayName: name,
		TotalPoints: player.PointNumber(points),
		Wallet:      player.PointNumber(points),
		StreakDays:  streak,
	}
}

func TestGetLeaderboard_TieBrokenByStreak(t *testing.T) {
	repo := newStubLedgerRepo(
		numberLedger("p-a", "A", 50, 3),
		numberLedger("p-b", "B", 50, 5),
		numberLedger("p-c", "C", 10, 9),
	)
	handler := NewGetLeaderboardHandler(repo, nil, nil, quietLogger())

	result, err := handler.Handle(context.Background(), GetLeaderboardQuery{Limit: 2})

	require.NoError(t, err)
	require.Len(t, result.Entries, 2)
	assert.Equal(t, "B", result.Entries[0].DisplayName)
	assert.Equal(t, 1, result.Entries[0].Rank)
	assert.Equal(t, "A", result.Entries[1].DisplayName)
	assert.Equal(t, 2, result.Entries[1].Rank)
	assert.Equal(t, 3, result.TotalPlayers)
	assert.False(t, result.FromCache)
}

func TestGetLeaderboard_WalletBackfill(t *testing.T) {
	legacy := &player.Ledger{
		PlayerID:    "p-legacy",
		DisplayName: "Legacy",
		Wallet:      player.PointString(75),
		StreakDays:  2,
	}
	repo := newStubLedgerRepo(legacy, numberLedger("p-new", "New", 100, 1))
	handler := NewGetLeaderboardHandler(repo, nil, nil, quietLogger())

	result, err := handler.Handle(context.Background(), GetLeaderboardQuery{})

	require.NoError(t, err)
	require.Len(t, result.Entries, 2)
	assert.Equal(t, int64(100), result.Entries[0].TotalPoints)
	assert.Equal(t, int64(75), result.Entries[1].TotalPoints)

	// The repair is awaited before Handle returns.
	points, ok := repo.backfilled("p-legacy")
	assert.True(t, ok)
	assert.Equal(t, int64(75), points)
	_, ok = repo.backfilled("p-new")
	assert.False(t, ok)
}

func TestGetLeaderboard_BackfillFailureIsTransparent(t *testing.T) {
	legacy := &player.Ledger{
		PlayerID: "p-legacy",
		Wallet:   player.PointString(75),
	}
	repo := newStubLedgerRepo(legacy)
	repo.backErr = errors.New("write refused")
	handler := NewGetLeaderboardHandler(repo, nil, nil, quietLogger())

	result, err := handler.Handle(context.Background(), GetLeaderboardQuery{})

	require.NoError(t, err)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, int64(75), result.Entries[0].TotalPoints)
}

func TestGetLeaderboard_LimitClamping(t *testing.T) {
	ledgers := make([]*player.Ledger, 0, 60)
	for i := 0; i < 60; i++ {
		ledgers = append(ledgers, numberLedger(
			string(rune('a'+i%26))+"-id", "player", int64(i), 0))
	}
	repo := newStubLedgerRepo(ledgers...)
	handler := NewGetLeaderboardHandler(repo, nil, nil, quietLogger())

	result, err := handler.Handle(context.Background(), GetLeaderboardQuery{})
	require.NoError(t, err)
	assert.Len(t, result.Entries, leaderboard.DefaultLimit)

	result, err = handler.Handle(context.Background(), GetLeaderboardQuery{Limit: 5})
	require.NoError(t, err)
	assert.Len(t, result.Entries, 5)
}

func TestGetLeaderboard_CacheHitSkipsScan(t *testing.T) {
	repo := newStubLedgerRepo()
	repo.listErr = errors.New("scan should not run")
	cache := &stubCache{entries: []leaderboard.Entry{
		{PlayerID: "p-1", DisplayName: "cached", TotalPoints: 12, StreakDays: 1},
	}}
	handler := NewGetLeaderboardHandler(repo, cache, nil, quietLogger())

	result, err := handler.Handle(context.Background(), GetLeaderboardQuery{Limit: 10})

	require.NoError(t, err)
	assert.True(t, result.FromCache)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "cached", result.Entries[0].DisplayName)
}

func TestGetLeaderboard_CacheHitReportsFullPopulation(t *testing.T) {
	// total_players must not depend on whether the result came from the
	// cache or a scan.
	ledgers := []*player.Ledger{
		numberLedger("p-1", "amy", 30, 1),
		numberLedger("p-2", "bob", 20, 1),
		numberLedger("p-3", "cat", 10, 1),
	}
	repo := newStubLedgerRepo(ledgers...)
	cache := &stubCache{}
	handler := NewGetLeaderboardHandler(repo, cache, nil, quietLogger())

	scanned, err := handler.Handle(context.Background(), GetLeaderboardQuery{Limit: 2})
	require.NoError(t, err)
	require.False(t, scanned.FromCache)

	cached, err := handler.Handle(context.Background(), GetLeaderboardQuery{Limit: 2})
	require.NoError(t, err)
	require.True(t, cached.FromCache)

	assert.Len(t, cached.Entries, 2)
	assert.Equal(t, scanned.TotalPlayers, cached.TotalPlayers)
	assert.Equal(t, 3, cached.TotalPlayers)
}

func TestGetLeaderboard_CacheMissFallsThroughAndWrites(t *testing.T) {
	repo := newStubLedgerRepo(numberLedger("p-1", "solo", 5, 1))
	cache := &stubCache{getErr: errors.New("miss")}
	handler := NewGetLeaderboardHandler(repo, cache, nil, quietLogger())

	result, err := handler.Handle(context.Background(), GetLeaderboardQuery{})

	require.NoError(t, err)
	assert.False(t, result.FromCache)
	assert.Equal(t, 1, cache.puts)
}

func TestGetLeaderboard_ScanFailure(t *testing.T) {
	repo := newStubLedgerRepo()
	repo.listErr = errors.New("connection reset")
	handler := NewGetLeaderboardHandler(repo, nil, nil, quietLogger())

	_, err := handler.Handle(context.Background(), GetLeaderboardQuery{})

	assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
}

func TestGetLeaderboard_PublishesEvents(t *testing.T) {
	legacy := &player.Ledger{PlayerID: "p-legacy", Wallet: player.PointString(75)}
	repo := newStubLedgerRepo(legacy)
	pub := &capturingPublisher{}
	handler := NewGetLeaderboardHandler(repo, nil, pub, quietLogger())

	_, err := handler.Handle(context.Background(), GetLeaderboardQuery{})

	require.NoError(t, err)
	types := pub.typesSeen()
	assert.Contains(t, types, shared.EventPointsBackfilled)
	assert.Contains(t, types, shared.EventLeaderboardRefreshed)
}

// capturingPublisher records published events for assertions.
type capturingPublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *capturingPublisher) Publish(event shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) typesSeen() []shared.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]shared.EventType, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.EventType())
	}
	return types
}
