// Package completion contains the daily completion record: durable proof
// that a player finished a day's quiz. A completion is keyed by
// (playerID, dateKey), is immutable once written, and its mere existence
// is the idempotency guard for point awards.
package completion

import (
	"time"

	"github.com/quizhub/daily-quiz-hub/internal/domain/shared"
	"github.com/quizhub/daily-quiz-hub/pkg/datekey"
)

// Completion is the per-(player, day) completion record.
type Completion struct {
	// PlayerID is the owning player.
	PlayerID string

	// DateKey is the calendar day ("YYYY-MM-DD") the completion belongs to.
	DateKey string

	// PointsAwarded is the quiz score applied to the ledger for this day.
	// Non-negative; recorded once and never changed.
	PointsAwarded int64

	// CreatedAt is when the completion was committed.
	CreatedAt time.Time
}

// New creates a validated completion record.
func New(playerID, dateKey string, pointsAwarded int64, createdAt time.Time) (*Completion, error) {
	if playerID == "" {
		return nil, shared.ErrInvalidPlayerID
	}
	if !datekey.IsValid(dateKey) {
		return nil, shared.ErrInvalidDateKey
	}
	if pointsAwarded < 0 {
		pointsAwarded = 0
	}

	return &Completion{
		PlayerID:      playerID,
		DateKey:       dateKey,
		PointsAwarded: pointsAwarded,
		CreatedAt:     createdAt,
	}, nil
}
