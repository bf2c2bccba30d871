// Package eventhandler contains domain event handlers.
package eventhandler

import (
	"context"
	"time"

	"github.com/quizhub/daily-quiz-hub/internal/domain/leaderboard"
	"github.com/quizhub/daily-quiz-hub/internal/domain/shared"
	"github.com/quizhub/daily-quiz-hub/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON COMPLETION RECORDED HANDLER
// Drops the cached leaderboard whenever a completion commits, so the next
// leaderboard query recomputes rankings with the new totals. Cache
// invalidation is best effort; a stale cache expires on its own TTL.
// ═══════════════════════════════════════════════════════════════════════════

// OnCompletionRecordedHandler invalidates the leaderboard cache on new
// completions.
type OnCompletionRecordedHandler struct {
	cache   leaderboard.Cache
	log     *logger.Logger
	timeout time.Duration
}

// NewOnCompletionRecordedHandler creates a new handler. Cache may be nil,
// in which case the handler is a no-op.
func NewOnCompletionRecordedHandler(cache leaderboard.Cache, log *logger.Logger) *OnCompletionRecordedHandler {
	return &OnCompletionRecordedHandler{
		cache:   cache,
		log:     log.With(logger.Component("on_completion_recorded")),
		timeout: 2 * time.Second,
	}
}

// Handle implements shared.EventHandler.
func (h *OnCompletionRecordedHandler) Handle(event shared.Event) error {
	if h.cache == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	if err := h.cache.Invalidate(ctx); err != nil {
		h.log.Warn("leaderboard cache invalidation failed",
			logger.Err(err), logger.String("aggregate_id", event.AggregateID()))
	}
	return nil
}

// EventType returns the event type this handler reacts to.
func (h *OnCompletionRecordedHandler) EventType() shared.EventType {
	return shared.EventCompletionRecorded
}
