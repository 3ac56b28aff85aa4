// Package http implements the REST API of EduPulse Insights.
package http

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/edupulse-hub/edupulse-insights/internal/application/command"
	"github.com/edupulse-hub/edupulse-insights/internal/application/query"
	"github.com/edupulse-hub/edupulse-insights/internal/domain/shared"
	"github.com/edupulse-hub/edupulse-insights/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":        "EduPulse Insights API",
		"version":     "v1",
		"description": "Performance prediction and gamification scoring engine",
		"endpoints": map[string]string{
			"health":      "/health",
			"prediction":  "/api/v1/students/{id}/prediction",
			"stats":       "/api/v1/users/{id}/stats",
			"leaderboard": "/api/v1/leaderboard",
			"badges":      "/api/v1/badges",
			"events":      "/api/v1/events",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": "v1",
	})
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// PREDICTION HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// handleGetPrediction handles GET /api/v1/students/{id}/prediction
func (s *Server) handleGetPrediction(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if userID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Student ID is required")
		return
	}

	if s.deps.GetPredictionHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Prediction handler not configured")
		return
	}

	q := query.GetPredictionQuery{
		UserID:  userID,
		Subject: getQueryParam(r, "subject", ""),
	}

	result, err := s.deps.GetPredictionHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeQueryError(w, err, "failed to compute prediction", userID)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// USER STATS HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// handleGetUserStats handles GET /api/v1/users/{id}/stats
func (s *Server) handleGetUserStats(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if userID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "User ID is required")
		return
	}

	if s.deps.GetUserStatsHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Stats handler not configured")
		return
	}

	result, err := s.deps.GetUserStatsHandler.Handle(r.Context(), query.GetUserStatsQuery{UserID: userID})
	if err != nil {
		s.writeQueryError(w, err, "failed to get user stats", userID)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// handleGetLeaderboard handles GET /api/v1/leaderboard?type=&limit=
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetLeaderboardHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Leaderboard handler not configured")
		return
	}

	limit, err := getQueryParamInt(r, "limit", 0)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	q := query.GetLeaderboardQuery{
		Type:  getQueryParam(r, "type", ""),
		Limit: limit,
	}

	result, err := s.deps.GetLeaderboardHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeQueryError(w, err, "failed to get leaderboard", "")
		return
	}

	meta := &ResponseMeta{
		TotalCount: result.TotalParticipants,
		FromCache:  result.FromCache,
	}
	writeJSONWithMeta(w, r, http.StatusOK, result, meta)
}

// ══════════════════════════════════════════════════════════════════════════════
// BADGES HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// handleListBadges handles GET /api/v1/badges
func (s *Server) handleListBadges(w http.ResponseWriter, r *http.Request) {
	if s.deps.ListBadgesHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Badges handler not configured")
		return
	}

	result, err := s.deps.ListBadgesHandler.Handle(r.Context())
	if err != nil {
		s.writeQueryError(w, err, "failed to list badges", "")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// EVENT INGESTION HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// EventRequest is the POST /api/v1/events payload.
type EventRequest struct {
	// UserID is the learner the event belongs to.
	UserID string `json:"userId"`

	// Type is "submission" or "login".
	Type string `json:"type"`

	// Subject applies to submissions; blank maps to "General".
	Subject string `json:"subject,omitempty"`

	// Score is the graded result for submissions, when present.
	Score *float64 `json:"score,omitempty"`

	// Points overrides the default credit when positive.
	Points int `json:"points,omitempty"`

	// Timestamp is when the event happened (defaults to now).
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// handlePostEvent handles POST /api/v1/events. Requires a valid API key.
func (s *Server) handlePostEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1MB limit
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to read request body")
		return
	}
	defer r.Body.Close()

	var req EventRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	var timestamp time.Time
	if req.Timestamp != nil {
		timestamp = *req.Timestamp
	}
	correlationID := getRequestID(r.Context())

	switch req.Type {
	case "submission":
		if s.deps.RecordSubmissionHandler == nil {
			writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Submission handler not configured")
			return
		}
		result, err := s.deps.RecordSubmissionHandler.Handle(r.Context(), command.RecordSubmissionCommand{
			UserID:        req.UserID,
			Subject:       req.Subject,
			Score:         req.Score,
			Points:        req.Points,
			Timestamp:     timestamp,
			CorrelationID: correlationID,
		})
		if err != nil {
			s.writeCommandError(w, err, "failed to record submission", req.UserID)
			return
		}
		writeJSON(w, http.StatusCreated, result)

	case "login":
		if s.deps.RecordLoginHandler == nil {
			writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Login handler not configured")
			return
		}
		result, err := s.deps.RecordLoginHandler.Handle(r.Context(), command.RecordLoginCommand{
			UserID:        req.UserID,
			Points:        req.Points,
			Timestamp:     timestamp,
			CorrelationID: correlationID,
		})
		if err != nil {
			s.writeCommandError(w, err, "failed to record login", req.UserID)
			return
		}
		writeJSON(w, http.StatusCreated, result)

	default:
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Event type must be \"submission\" or \"login\"")
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// writeQueryError maps read-side errors onto HTTP statuses.
func (s *Server) writeQueryError(w http.ResponseWriter, err error, msg, userID string) {
	switch {
	case shared.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		s.logger.Error(msg, logger.Err(err), logger.String("user_id", userID))
		writeJSONError(w, http.StatusInternalServerError, "internal_error", msg)
	}
}

// writeCommandError maps write-side errors onto HTTP statuses. Exhausted
// optimistic retries surface as 409 so callers know to retry.
func (s *Server) writeCommandError(w http.ResponseWriter, err error, msg, userID string) {
	switch {
	case shared.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case shared.IsRetryable(err):
		writeJSONError(w, http.StatusConflict, "conflict", "Concurrent update, please retry")
	default:
		s.logger.Error(msg, logger.Err(err), logger.String("user_id", userID))
		writeJSONError(w, http.StatusInternalServerError, "internal_error", msg)
	}
}
