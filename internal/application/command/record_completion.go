// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"fmt"
	"time"

	"github.com/quizhub/daily-quiz-hub/internal/domain/player"
	"github.com/quizhub/daily-quiz-hub/internal/domain/shared"
	"github.com/quizhub/daily-quiz-hub/pkg/datekey"
	"github.com/quizhub/daily-quiz-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD COMPLETION COMMAND
// Records a player's daily quiz completion: awards points exactly once per
// calendar day, advances or resets the streak, and mirrors the new total
// into both point fields. Safe to submit repeatedly for the same day.
// ══════════════════════════════════════════════════════════════════════════════

// RecordCompletionCommand contains the data to record a daily completion.
type RecordCompletionCommand struct {
	// PlayerID is the ID of the player completing the quiz.
	PlayerID string

	// DisplayName is the name the player submitted with this completion.
	// Optional; stored names take precedence.
	DisplayName string

	// PointsAwarded is the raw point value for this completion. Negative
	// and non-finite values are treated as zero, fractions are truncated.
	PointsAwarded float64

	// DateKey is the calendar day being recorded (defaults to today).
	DateKey string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c RecordCompletionCommand) Validate() error {
	if c.PlayerID == "" {
		return fmt.Errorf("record_completion: %w: player_id is required", shared.ErrInvalidPlayerID)
	}
	if c.DateKey != "" && !datekey.IsValid(c.DateKey) {
		return fmt.Errorf("record_completion: %w: %q", shared.ErrInvalidDateKey, c.DateKey)
	}
	return nil
}

// RecordCompletionResult contains the result of recording a completion.
type RecordCompletionResult struct {
	// PlayerID is the ID of the player.
	PlayerID string `json:"player_id"`

	// DateKey is the calendar day that was recorded.
	DateKey string `json:"date_key"`

	// AlreadyCompleted reports that the day was recorded before and this
	// submission changed nothing.
	AlreadyCompleted bool `json:"already_completed"`

	// PointsAwarded is the clamped point value stored for the day. Zero
	// when the day was already completed.
	PointsAwarded int64 `json:"points_awarded"`

	// TotalPoints is the player's point total after this submission.
	TotalPoints int64 `json:"total_points"`

	// StreakDays is the player's streak after this submission.
	StreakDays int `json:"streak_days"`

	// StreakExtended reports that the streak grew past one day.
	StreakExtended bool `json:"streak_extended"`

	// PreviousStreak is the streak before this submission applied.
	PreviousStreak int `json:"previous_streak"`

	// RecordedAt is when the submission was processed.
	RecordedAt time.Time `json:"recorded_at"`
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RecordCompletionHandler handles the RecordCompletionCommand.
type RecordCompletionHandler struct {
	ledgerRepo     player.LedgerRepository
	eventPublisher shared.EventPublisher
	log            *logger.Logger
}

// NewRecordCompletionHandler creates a new RecordCompletionHandler.
func NewRecordCompletionHandler(
	ledgerRepo player.LedgerRepository,
	eventPublisher shared.EventPublisher,
	log *logger.Logger,
) *RecordCompletionHandler {
	return &RecordCompletionHandler{
		ledgerRepo:     ledgerRepo,
		eventPublisher: eventPublisher,
		log:            log.With(logger.Component("record_completion")),
	}
}

// Handle executes the record completion command.
func (h *RecordCompletionHandler) Handle(ctx context.Context, cmd RecordCompletionCommand) (*RecordCompletionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	dateKey := cmd.DateKey
	if dateKey == "" {
		dateKey = datekey.Today()
	}

	req := player.CompletionRequest{
		PlayerID:      cmd.PlayerID,
		DateKey:       dateKey,
		DisplayName:   cmd.DisplayName,
		PointsAwarded: player.ClampPoints(cmd.PointsAwarded),
	}

	outcome, err := h.ledgerRepo.RecordCompletion(ctx, req)
	if err != nil {
		h.log.Error("failed to record completion", logger.Err(err),
			logger.PlayerID(cmd.PlayerID), logger.DateKey(dateKey))
		return nil, fmt.Errorf("record_completion: %w", err)
	}

	now := time.Now().UTC()
	result := &RecordCompletionResult{
		PlayerID:         cmd.PlayerID,
		DateKey:          dateKey,
		AlreadyCompleted: outcome.AlreadyCompleted,
		TotalPoints:      outcome.TotalPoints,
		StreakDays:       outcome.StreakDays,
		StreakExtended:   outcome.StreakExtended,
		PreviousStreak:   outcome.PreviousStreak,
		RecordedAt:       now,
	}
	if !outcome.AlreadyCompleted && outcome.Completion != nil {
		result.PointsAwarded = outcome.Completion.PointsAwarded
	}

	h.publishEvents(cmd, result)

	h.log.Info("completion recorded",
		logger.PlayerID(cmd.PlayerID),
		logger.DateKey(dateKey),
		logger.Points(result.TotalPoints),
		logger.StreakDays(result.StreakDays),
		logger.Bool("already_completed", result.AlreadyCompleted))

	return result, nil
}

// publishEvents emits domain events for a processed submission. Publish
// failures are ignored; event delivery is best effort.
func (h *RecordCompletionHandler) publishEvents(cmd RecordCompletionCommand, result *RecordCompletionResult) {
	if h.eventPublisher == nil {
		return
	}

	if result.AlreadyCompleted {
		event := shared.NewCompletionReplayedEvent(result.PlayerID, result.DateKey)
		if cmd.CorrelationID != "" {
			event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		}
		_ = h.eventPublisher.Publish(event)
		return
	}

	recorded := shared.NewCompletionRecordedEvent(
		result.PlayerID, result.DateKey, result.PointsAwarded,
		result.TotalPoints, result.StreakDays,
	)
	if cmd.CorrelationID != "" {
		recorded.BaseEvent = recorded.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(recorded)

	if result.StreakExtended {
		_ = h.eventPublisher.Publish(shared.NewStreakExtendedEvent(result.PlayerID, result.DateKey, result.StreakDays))
	} else if result.StreakDays == 1 {
		_ = h.eventPublisher.Publish(shared.NewStreakResetEvent(result.PlayerID, result.DateKey, result.PreviousStreak))
	}
}
