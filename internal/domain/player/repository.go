package player

import (
	"context"

	"github.com/quizhub/daily-quiz-hub/internal/domain/completion"
)

// RecordOutcome is the externally visible result of recording a completion.
type RecordOutcome struct {
	// AlreadyCompleted reports whether the (player, dateKey) completion
	// existed before this call.
	AlreadyCompleted bool

	// Completion is the stored completion record.
	Completion *completion.Completion

	// TotalPoints and StreakDays are the ledger totals after the call
	// (unchanged stored totals on the duplicate path).
	TotalPoints int64
	StreakDays  int

	// StreakExtended is true when a freshly recorded completion
	// continued an existing streak.
	StreakExtended bool

	// PreviousStreak is the streak before the completion applied. Zero
	// on the duplicate path.
	PreviousStreak int
}

// Outcome converts a decision into its externally visible result.
func (d *Decision) Outcome() *RecordOutcome {
	return &RecordOutcome{
		AlreadyCompleted: d.AlreadyCompleted,
		Completion:       d.Completion,
		TotalPoints:      d.TotalPoints,
		StreakDays:       d.StreakDays,
		StreakExtended:   d.StreakExtended,
		PreviousStreak:   d.PreviousStreak,
	}
}

// LedgerRepository is the transactional store boundary for the ledger core.
//
// RecordCompletion must run as one atomic transaction spanning the
// completion key and the ledger key: both are observed together or not at
// all, and two racing calls for the same (player, dateKey) are serialized
// by the store so exactly one observes "absent". Implementations retry
// store-level conflicts internally and surface only exhausted retries.
type LedgerRepository interface {
	// GetLedger returns a player's ledger, or shared.ErrPlayerNotFound.
	GetLedger(ctx context.Context, playerID string) (*Ledger, error)

	// RecordCompletion applies DecideCompletion atomically against the
	// stored state and persists the result.
	RecordCompletion(ctx context.Context, req CompletionRequest) (*RecordOutcome, error)

	// ListLedgers returns every ledger record. The scan is a
	// non-transactional snapshot; it may interleave with concurrent
	// commits.
	ListLedgers(ctx context.Context) ([]*Ledger, error)

	// BackfillTotalPoints writes the canonical total for a player whose
	// canonical field is missing or blank. Best-effort repair: it must
	// not overwrite an existing numeric canonical value.
	BackfillTotalPoints(ctx context.Context, playerID string, totalPoints int64) error
}
