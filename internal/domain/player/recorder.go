package player

import (
	"math"
	"time"

	"github.com/quizhub/daily-quiz-hub/internal/domain/completion"
	"github.com/quizhub/daily-quiz-hub/internal/domain/shared"
	"github.com/quizhub/daily-quiz-hub/pkg/datekey"
)

// ClampPoints floors an untrusted point award to a non-negative integer.
// Malformed numeric input is clamped, not rejected.
func ClampPoints(raw float64) int64 {
	if math.IsNaN(raw) || raw <= 0 {
		return 0
	}
	// Converting a float at or beyond the int64 range is
	// implementation-defined, so cap before converting.
	if raw >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(math.Floor(raw))
}

// CompletionRequest is the validated input to a completion decision.
// PointsAwarded must already be clamped.
type CompletionRequest struct {
	PlayerID      string
	DateKey       string
	DisplayName   string
	PointsAwarded int64
}

// Validate checks the request invariants shared by every store
// implementation.
func (r CompletionRequest) Validate() error {
	if r.PlayerID == "" {
		return shared.ErrInvalidPlayerID
	}
	if !datekey.IsValid(r.DateKey) {
		return shared.ErrInvalidDateKey
	}
	if r.PointsAwarded < 0 {
		return shared.NewDomainError("player", "RecordCompletion", shared.ErrValueOutOfRange, "points awarded must be clamped before the decision")
	}
	return nil
}

// Decision is the outcome of applying a completion request to the current
// (completion, ledger) state. It is computed by pure code so the
// transactional store and test fakes share one source of truth.
type Decision struct {
	// AlreadyCompleted is true when a completion for (player, dateKey)
	// already exists. The decision is then read-only: Ledger is nil and
	// no writes may happen.
	AlreadyCompleted bool

	// Completion is the existing record on the read-only path, or the
	// new record to write.
	Completion *completion.Completion

	// Ledger is the merged post-state to persist. Nil on the read-only
	// path.
	Ledger *Ledger

	// TotalPoints and StreakDays are the totals to report to the caller:
	// the stored ones when already completed, the new ones otherwise.
	TotalPoints int64
	StreakDays  int

	// StreakExtended is true when the completion continued a streak
	// rather than starting one.
	StreakExtended bool

	// PreviousStreak is the streak before this completion applied. Zero
	// for fresh players and on the read-only path.
	PreviousStreak int
}

// DecideCompletion computes what a completion attempt does given the
// current state of the two keys it spans. Implementations call it inside
// their transaction after reading both records; a nil current ledger
// means a fresh player with zero totals.
func DecideCompletion(existing *completion.Completion, current *Ledger, req CompletionRequest, now time.Time) (*Decision, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if existing != nil {
		streak := 0
		if current != nil {
			streak = current.StreakDays
		}
		return &Decision{
			AlreadyCompleted: true,
			Completion:       existing,
			TotalPoints:      ResolvePoints(current),
			StreakDays:       streak,
		}, nil
	}

	rec, err := completion.New(req.PlayerID, req.DateKey, req.PointsAwarded, now)
	if err != nil {
		return nil, err
	}

	nextStreak := NextStreak(current, req.DateKey)
	nextTotal := ResolvePoints(current) + req.PointsAwarded
	previousStreak := 0
	if current != nil {
		previousStreak = current.StreakDays
	}

	next := &Ledger{PlayerID: req.PlayerID, CreatedAt: now}
	if current != nil {
		*next = *current
		if next.CreatedAt.IsZero() {
			next.CreatedAt = now
		}
	}
	next.DisplayName = current.MergedDisplayName(req.DisplayName, req.PlayerID)
	next.TotalPoints = PointNumber(nextTotal)
	next.Wallet = next.Wallet.Mirror(nextTotal)
	next.StreakDays = nextStreak
	next.LastCompletedDateKey = req.DateKey
	next.UpdatedAt = now

	return &Decision{
		Completion:     rec,
		Ledger:         next,
		TotalPoints:    nextTotal,
		StreakDays:     nextStreak,
		StreakExtended: nextStreak > 1,
		PreviousStreak: previousStreak,
	}, nil
}
