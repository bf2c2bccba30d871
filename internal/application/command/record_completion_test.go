package command

import (
	"context"
	"io"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizhub/daily-quiz-hub/internal/domain/completion"
	"github.com/quizhub/daily-quiz-hub/internal/domain/player"
	"github.com/quizhub/daily-quiz-hub/internal/domain/shared"
	"github.com/quizhub/daily-quiz-hub/pkg/datekey"
	"github.com/quizhub/daily-quiz-hub/pkg/logger"
)

// memoryLedgerRepo applies completion decisions against in-memory maps.
// It runs the same decision code as the real store, minus transactions.
type memoryLedgerRepo struct {
	ledgers     map[string]*player.Ledger
	completions map[string]*completion.Completion
	now         time.Time
}

func newMemoryLedgerRepo(now time.Time) *memoryLedgerRepo {
	return &memoryLedgerRepo{
		ledgers:     make(map[string]*player.Ledger),
		completions: make(map[string]*completion.Completion),
		now:         now,
	}
}

func completionKey(playerID, dateKey string) string {
	return playerID + "|" + dateKey
}

func (r *memoryLedgerRepo) GetLedger(_ context.Context, playerID string) (*player.Ledger, error) {
	l, ok := r.ledgers[playerID]
	if !ok {
		return nil, shared.ErrPlayerNotFound
	}
	return l, nil
}

func (r *memoryLedgerRepo) RecordCompletion(_ context.Context, req player.CompletionRequest) (*player.RecordOutcome, error) {
	existing := r.completions[completionKey(req.PlayerID, req.DateKey)]
	decision, err := player.DecideCompletion(existing, r.ledgers[req.PlayerID], req, r.now)
	if err != nil {
		return nil, err
	}
	if !decision.AlreadyCompleted {
		r.completions[completionKey(req.PlayerID, req.DateKey)] = decision.Completion
		r.ledgers[req.PlayerID] = decision.Ledger
	}
	return decision.Outcome(), nil
}

func (r *memoryLedgerRepo) ListLedgers(_ context.Context) ([]*player.Ledger, error) {
	out := make([]*player.Ledger, 0, len(r.ledgers))
	for _, l := range r.ledgers {
		out = append(out, l)
	}
	return out, nil
}

func (r *memoryLedgerRepo) BackfillTotalPoints(_ context.Context, playerID string, totalPoints int64) error {
	l, ok := r.ledgers[playerID]
	if !ok {
		return shared.ErrPlayerNotFound
	}
	if !l.TotalPoints.IsSet() || !l.TotalPoints.IsNumber() {
		l.TotalPoints = player.PointNumber(totalPoints)
	}
	return nil
}

// capturingPublisher records every published event.
type capturingPublisher struct {
	events []shared.Event
}

func (p *capturingPublisher) Publish(event shared.Event) error {
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) typesSeen() []shared.EventType {
	types := make([]shared.EventType, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.EventType())
	}
	return types
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard, Level: logger.LevelError})
}

func newTestHandler(now time.Time) (*RecordCompletionHandler, *memoryLedgerRepo, *capturingPublisher) {
	repo := newMemoryLedgerRepo(now)
	pub := &capturingPublisher{}
	return NewRecordCompletionHandler(repo, pub, testLogger()), repo, pub
}

func TestRecordCompletion_FreshPlayer(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	handler, _, pub := newTestHandler(now)

	result, err := handler.Handle(context.Background(), RecordCompletionCommand{
		PlayerID:      "player-1",
		DisplayName:   "Alice",
		PointsAwarded: 10,
		DateKey:       "2026-02-10",
	})

	require.NoError(t, err)
	assert.False(t, result.AlreadyCompleted)
	assert.Equal(t, int64(10), result.PointsAwarded)
	assert.Equal(t, int64(10), result.TotalPoints)
	assert.Equal(t, 1, result.StreakDays)
	assert.False(t, result.StreakExtended)

	assert.Equal(t,
		[]shared.EventType{shared.EventCompletionRecorded, shared.EventStreakReset},
		pub.typesSeen())
}

func TestRecordCompletion_RetryIsReadOnly(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	handler, repo, pub := newTestHandler(now)

	_, err := handler.Handle(context.Background(), RecordCompletionCommand{
		PlayerID:      "player-1",
		PointsAwarded: 10,
		DateKey:       "2026-02-10",
	})
	require.NoError(t, err)

	// Same day again with a different point value; nothing may change.
	result, err := handler.Handle(context.Background(), RecordCompletionCommand{
		PlayerID:      "player-1",
		PointsAwarded: 999,
		DateKey:       "2026-02-10",
	})

	require.NoError(t, err)
	assert.True(t, result.AlreadyCompleted)
	assert.Equal(t, int64(0), result.PointsAwarded)
	assert.Equal(t, int64(10), result.TotalPoints)
	assert.Equal(t, 1, result.StreakDays)

	stored := repo.completions[completionKey("player-1", "2026-02-10")]
	require.NotNil(t, stored)
	assert.Equal(t, int64(10), stored.PointsAwarded)

	assert.Equal(t, shared.EventCompletionReplayed, pub.events[len(pub.events)-1].EventType())
}

func TestRecordCompletion_ConsecutiveDayExtendsStreak(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	handler, _, pub := newTestHandler(now)

	_, err := handler.Handle(context.Background(), RecordCompletionCommand{
		PlayerID: "player-1", PointsAwarded: 10, DateKey: "2026-02-09",
	})
	require.NoError(t, err)

	result, err := handler.Handle(context.Background(), RecordCompletionCommand{
		PlayerID: "player-1", PointsAwarded: 5, DateKey: "2026-02-10",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(15), result.TotalPoints)
	assert.Equal(t, 2, result.StreakDays)
	assert.True(t, result.StreakExtended)
	assert.Equal(t, 1, result.PreviousStreak)

	last := pub.events[len(pub.events)-1]
	assert.Equal(t, shared.EventStreakExtended, last.EventType())
}

func TestRecordCompletion_GapResetsStreak(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	handler, _, _ := newTestHandler(now)

	_, err := handler.Handle(context.Background(), RecordCompletionCommand{
		PlayerID: "player-1", PointsAwarded: 10, DateKey: "2026-02-07",
	})
	require.NoError(t, err)

	result, err := handler.Handle(context.Background(), RecordCompletionCommand{
		PlayerID: "player-1", PointsAwarded: 5, DateKey: "2026-02-10",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(15), result.TotalPoints)
	assert.Equal(t, 1, result.StreakDays)
	assert.False(t, result.StreakExtended)
	assert.Equal(t, 1, result.PreviousStreak)
}

func TestRecordCompletion_ClampsMalformedPoints(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		points   float64
		expected int64
	}{
		{"negative clamps to zero", -25, 0},
		{"fraction truncates", 7.9, 7},
		{"zero stays zero", 0, 0},
		{"huge value caps instead of rejecting", 1e300, math.MaxInt64},
		{"positive infinity caps instead of rejecting", math.Inf(1), math.MaxInt64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _, _ := newTestHandler(now)

			result, err := handler.Handle(context.Background(), RecordCompletionCommand{
				PlayerID: "player-1", PointsAwarded: tt.points, DateKey: "2026-02-10",
			})

			require.NoError(t, err)
			assert.Equal(t, tt.expected, result.PointsAwarded)
			assert.Equal(t, tt.expected, result.TotalPoints)
			assert.Equal(t, 1, result.StreakDays)
		})
	}
}

func TestRecordCompletion_DefaultsToToday(t *testing.T) {
	handler, _, _ := newTestHandler(time.Now())

	result, err := handler.Handle(context.Background(), RecordCompletionCommand{
		PlayerID: "player-1", PointsAwarded: 3,
	})

	require.NoError(t, err)
	assert.Equal(t, datekey.Today(), result.DateKey)
}

func TestRecordCompletion_Validation(t *testing.T) {
	handler, _, pub := newTestHandler(time.Now())

	_, err := handler.Handle(context.Background(), RecordCompletionCommand{
		PointsAwarded: 3, DateKey: "2026-02-10",
	})
	assert.ErrorIs(t, err, shared.ErrInvalidPlayerID)

	_, err = handler.Handle(context.Background(), RecordCompletionCommand{
		PlayerID: "player-1", PointsAwarded: 3, DateKey: "not-a-date",
	})
	assert.ErrorIs(t, err, shared.ErrInvalidDateKey)

	assert.Empty(t, pub.events)
}
