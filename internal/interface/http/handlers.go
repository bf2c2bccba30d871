package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/quizhub/daily-quiz-hub/internal/application/command"
	"github.com/quizhub/daily-quiz-hub/internal/application/query"
	"github.com/quizhub/daily-quiz-hub/internal/domain/shared"
	"github.com/quizhub/daily-quiz-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not_found", "The requested resource does not exist")
		return
	}

	info := map[string]interface{}{
		"name":        "Daily Quiz Hub API",
		"version":     "v1",
		"description": "REST API for daily quiz completions, streaks, and the leaderboard",
		"endpoints": map[string]string{
			"health":      "/health",
			"completions": "/api/v1/completions",
			"leaderboard": "/api/v1/leaderboard",
			"progress":    "/api/v1/players/{id}/progress",
		},
	}

	writeJSON(w, r, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		if err := s.deps.HealthChecker.Check(r.Context()); err != nil {
			writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"reason": err.Error(),
			})
			return
		}
	}

	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": "v1",
	})
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		if err := s.deps.HealthChecker.Check(r.Context()); err != nil {
			writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": err.Error(),
			})
			return
		}
	}

	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// recordCompletionRequest is the JSON body for POST /api/v1/completions.
type recordCompletionRequest struct {
	DisplayName string  `json:"display_name,omitempty"`
	Points      float64 `json:"points"`
	DateKey     string  `json:"date_key,omitempty"`
}

// handleRecordCompletion handles POST /api/v1/completions
func (s *Server) handleRecordCompletion(w http.ResponseWriter, r *http.Request) {
	if s.deps.RecordCompletionHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Completion handler not configured")
		return
	}

	identity, err := s.deps.IdentityResolver.Resolve(r)
	if err != nil {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Could not resolve player identity")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "Could not read request body")
		return
	}

	var req recordCompletionRequest
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_json", "Request body is not valid JSON")
			return
		}
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = identity.DisplayName
	}

	cmd := command.RecordCompletionCommand{
		PlayerID:      identity.PlayerID,
		DisplayName:   displayName,
		PointsAwarded: req.Points,
		DateKey:       req.DateKey,
		CorrelationID: getRequestID(r.Context()),
	}

	result, err := s.deps.RecordCompletionHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeCommandError(w, r, err)
		return
	}

	status := http.StatusCreated
	if result.AlreadyCompleted {
		// Retried submissions are acknowledged without a second award.
		status = http.StatusOK
	}

	writeJSON(w, r, status, result)
}

// writeCommandError maps domain errors to HTTP status codes.
func (s *Server) writeCommandError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, shared.ErrInvalidPlayerID), errors.Is(err, shared.ErrInvalidDateKey), shared.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, shared.ErrConcurrentModification):
		writeJSONError(w, http.StatusConflict, "conflict", "Completion could not be recorded due to concurrent updates, please retry")
	default:
		s.logger.Error("command failed",
			logger.Err(err),
			logger.String("path", r.URL.Path),
			logger.String("request_id", getRequestID(r.Context())),
		)
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetLeaderboard handles GET /api/v1/leaderboard
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetLeaderboardHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Leaderboard handler not configured")
		return
	}

	q := query.GetLeaderboardQuery{
		Limit: getQueryParamInt(r, "limit", 0),
	}

	result, err := s.deps.GetLeaderboardHandler.Handle(r.Context(), q)
	if err != nil {
		s.logger.Error("failed to get leaderboard",
			logger.Err(err),
			logger.String("request_id", getRequestID(r.Context())),
		)
		writeJSONError(w, http.StatusServiceUnavailable, "leaderboard_unavailable", "Failed to get leaderboard")
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetProgress handles GET /api/v1/players/{id}/progress
func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetProgressHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Progress handler not configured")
		return
	}

	playerID := r.PathValue("id")

	result, err := s.deps.GetProgressHandler.Handle(r.Context(), query.GetProgressQuery{PlayerID: playerID})
	if err != nil {
		switch {
		case shared.IsNotFound(err):
			writeJSONError(w, http.StatusNotFound, "player_not_found", "No progress recorded for this player")
		case errors.Is(err, shared.ErrInvalidPlayerID):
			writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		default:
			s.logger.Error("failed to get progress",
				logger.Err(err),
				logger.PlayerID(playerID),
				logger.String("request_id", getRequestID(r.Context())),
			)
			writeJSONError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
		}
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}
