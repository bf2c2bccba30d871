package query

import (
	"context"
	"time"

	"github.com/quizhub/daily-quiz-hub/internal/domain/player"
	"github.com/quizhub/daily-quiz-hub/internal/domain/shared"
	"github.com/quizhub/daily-quiz-hub/pkg/datekey"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROGRESS QUERY
// Returns a single player's ledger view: resolved point total, streak and
// whether today's quiz is already done.
// ══════════════════════════════════════════════════════════════════════════════

// GetProgressQuery identifies the player to look up.
type GetProgressQuery struct {
	// PlayerID is the player's ID.
	PlayerID string
}

// GetProgressResult is a player's current progress.
type GetProgressResult struct {
	// PlayerID is the player's ID.
	PlayerID string `json:"player_id"`

	// DisplayName is the name to render.
	DisplayName string `json:"display_name"`

	// TotalPoints is the resolved point total.
	TotalPoints int64 `json:"total_points"`

	// StreakDays is the current streak.
	StreakDays int `json:"streak_days"`

	// LastCompletedDateKey is the most recent completed day, empty when
	// the player has never completed a quiz.
	LastCompletedDateKey string `json:"last_completed_date,omitempty"`

	// CompletedToday reports whether today's quiz is already recorded.
	CompletedToday bool `json:"completed_today"`

	// MemberSince is when the ledger was created.
	MemberSince time.Time `json:"member_since"`
}

// GetProgressHandler handles player progress lookups.
type GetProgressHandler struct {
	ledgerRepo player.LedgerRepository
}

// NewGetProgressHandler creates a new GetProgressHandler.
func NewGetProgressHandler(ledgerRepo player.LedgerRepository) *GetProgressHandler {
	return &GetProgressHandler{ledgerRepo: ledgerRepo}
}

// Handle executes the progress query. Unknown players get
// shared.ErrPlayerNotFound.
func (h *GetProgressHandler) Handle(ctx context.Context, query GetProgressQuery) (*GetProgressResult, error) {
	if query.PlayerID == "" {
		return nil, shared.ErrInvalidPlayerID
	}

	ledger, err := h.ledgerRepo.GetLedger(ctx, query.PlayerID)
	if err != nil {
		return nil, err
	}

	return &GetProgressResult{
		PlayerID:             ledger.PlayerID,
		DisplayName:          ledger.MergedDisplayName("", ledger.PlayerID),
		TotalPoints:          player.ResolvePoints(ledger),
		StreakDays:           ledger.StreakDays,
		LastCompletedDateKey: ledger.LastCompletedDateKey,
		CompletedToday:       ledger.LastCompletedDateKey != "" && ledger.LastCompletedDateKey == datekey.Today(),
		MemberSince:          ledger.CreatedAt,
	}, nil
}
