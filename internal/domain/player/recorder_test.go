package player

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizhub/daily-quiz-hub/internal/domain/completion"
	"github.com/quizhub/daily-quiz-hub/internal/domain/shared"
)

var testNow = time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

func TestClampPoints(t *testing.T) {
	assert.Equal(t, int64(10), ClampPoints(10))
	assert.Equal(t, int64(10), ClampPoints(10.9))
	assert.Equal(t, int64(0), ClampPoints(0))
	assert.Equal(t, int64(0), ClampPoints(-5))
	assert.Equal(t, int64(0), ClampPoints(-0.5))
	assert.Equal(t, int64(0), ClampPoints(math.NaN()))
}

func TestClampPoints_HugeValuesStayNonNegative(t *testing.T) {
	// Values at or beyond the int64 range must cap, never go negative.
	assert.Equal(t, int64(math.MaxInt64), ClampPoints(1e300))
	assert.Equal(t, int64(math.MaxInt64), ClampPoints(math.Inf(1)))
	assert.Equal(t, int64(math.MaxInt64), ClampPoints(math.MaxInt64))
	assert.Equal(t, int64(0), ClampPoints(math.Inf(-1)))

	// A capped award still passes request validation.
	req := CompletionRequest{PlayerID: "p1", DateKey: "2026-02-10", PointsAwarded: ClampPoints(1e300)}
	require.NoError(t, req.Validate())
}

func TestDecideCompletion_FreshPlayer(t *testing.T) {
	req := CompletionRequest{PlayerID: "p1", DateKey: "2026-02-10", DisplayName: "p1", PointsAwarded: 10}

	d, err := DecideCompletion(nil, nil, req, testNow)
	require.NoError(t, err)

	assert.False(t, d.AlreadyCompleted)
	assert.Equal(t, int64(10), d.TotalPoints)
	assert.Equal(t, 1, d.StreakDays)
	assert.False(t, d.StreakExtended)

	require.NotNil(t, d.Completion)
	assert.Equal(t, "p1", d.Completion.PlayerID)
	assert.Equal(t, "2026-02-10", d.Completion.DateKey)
	assert.Equal(t, int64(10), d.Completion.PointsAwarded)
	assert.Equal(t, testNow, d.Completion.CreatedAt)

	require.NotNil(t, d.Ledger)
	assert.Equal(t, "p1", d.Ledger.DisplayName)
	assert.Equal(t, 1, d.Ledger.StreakDays)
	assert.Equal(t, "2026-02-10", d.Ledger.LastCompletedDateKey)
	assert.Equal(t, testNow, d.Ledger.CreatedAt)

	total, ok := d.Ledger.TotalPoints.Coerce()
	require.True(t, ok)
	assert.Equal(t, int64(10), total)
	assert.True(t, d.Ledger.TotalPoints.IsNumber())

	// Absent wallet becomes a numeric string mirror.
	assert.False(t, d.Ledger.Wallet.IsNumber())
	wallet, ok := d.Ledger.Wallet.Coerce()
	require.True(t, ok)
	assert.Equal(t, int64(10), wallet)
}

func TestDecideCompletion_AlreadyCompletedIsReadOnly(t *testing.T) {
	existing, err := completion.New("p1", "2026-02-10", 10, testNow.Add(-time.Hour))
	require.NoError(t, err)
	current := &Ledger{
		PlayerID:             "p1",
		TotalPoints:          PointNumber(10),
		StreakDays:           1,
		LastCompletedDateKey: "2026-02-10",
	}

	// Any points awarded on the duplicate path are ignored.
	req := CompletionRequest{PlayerID: "p1", DateKey: "2026-02-10", DisplayName: "p1", PointsAwarded: 999}
	d, err := DecideCompletion(existing, current, req, testNow)
	require.NoError(t, err)

	assert.True(t, d.AlreadyCompleted)
	assert.Nil(t, d.Ledger)
	assert.Equal(t, existing, d.Completion)
	assert.Equal(t, int64(10), d.TotalPoints)
	assert.Equal(t, 1, d.StreakDays)
}

func TestDecideCompletion_StreakContinuity(t *testing.T) {
	current := &Ledger{
		PlayerID:             "p1",
		DisplayName:          "p1",
		TotalPoints:          PointNumber(100),
		Wallet:               PointNumber(100),
		StreakDays:           4,
		LastCompletedDateKey: "2026-02-09",
		CreatedAt:            testNow.Add(-96 * time.Hour),
	}

	req := CompletionRequest{PlayerID: "p1", DateKey: "2026-02-10", DisplayName: "p1", PointsAwarded: 5}
	d, err := DecideCompletion(nil, current, req, testNow)
	require.NoError(t, err)

	assert.Equal(t, 5, d.StreakDays)
	assert.Equal(t, int64(105), d.TotalPoints)
	assert.True(t, d.StreakExtended)
	assert.Equal(t, current.CreatedAt, d.Ledger.CreatedAt)
	assert.Equal(t, testNow, d.Ledger.UpdatedAt)
	assert.True(t, d.Ledger.Wallet.IsNumber())
}

func TestDecideCompletion_StreakReset(t *testing.T) {
	current := &Ledger{
		PlayerID:             "p1",
		TotalPoints:          PointNumber(200),
		StreakDays:           4,
		LastCompletedDateKey: "2026-02-08",
	}

	req := CompletionRequest{PlayerID: "p1", DateKey: "2026-02-10", PointsAwarded: 5}
	d, err := DecideCompletion(nil, current, req, testNow)
	require.NoError(t, err)

	assert.Equal(t, 1, d.StreakDays)
	assert.Equal(t, int64(205), d.TotalPoints)
	assert.False(t, d.StreakExtended)
}

func TestDecideCompletion_WalletOnlyLedger(t *testing.T) {
	// A pre-migration record whose only point source is the string wallet.
	current := &Ledger{
		PlayerID: "p1",
		Wallet:   PointString(50),
	}

	req := CompletionRequest{PlayerID: "p1", DateKey: "2026-02-10", PointsAwarded: 10}
	d, err := DecideCompletion(nil, current, req, testNow)
	require.NoError(t, err)

	assert.Equal(t, int64(60), d.TotalPoints)
	assert.True(t, d.Ledger.TotalPoints.IsNumber())
	// The wallet mirror stays a string.
	assert.False(t, d.Ledger.Wallet.IsNumber())
	wallet, ok := d.Ledger.Wallet.Coerce()
	require.True(t, ok)
	assert.Equal(t, int64(60), wallet)
}

func TestDecideCompletion_DisplayNameMerge(t *testing.T) {
	tests := []struct {
		name      string
		ledger    *Ledger
		requested string
		want      string
	}{
		{"stored username wins", &Ledger{Username: "legacy", DisplayName: "old"}, "new", "legacy"},
		{"requested name next", &Ledger{DisplayName: "old"}, "new", "new"},
		{"stored display name next", &Ledger{DisplayName: "old"}, "", "old"},
		{"player id last", nil, "", "p1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := CompletionRequest{PlayerID: "p1", DateKey: "2026-02-10", DisplayName: tt.requested}
			d, err := DecideCompletion(nil, tt.ledger, req, testNow)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Ledger.DisplayName)
		})
	}
}

func TestDecideCompletion_Validation(t *testing.T) {
	_, err := DecideCompletion(nil, nil, CompletionRequest{DateKey: "2026-02-10"}, testNow)
	assert.ErrorIs(t, err, shared.ErrInvalidID)

	_, err = DecideCompletion(nil, nil, CompletionRequest{PlayerID: "p1", DateKey: "2026-2-10"}, testNow)
	assert.ErrorIs(t, err, shared.ErrInvalidFormat)
}
