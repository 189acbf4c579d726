package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aikidslabs/ai-kids-hub/internal/application/command"
	"github.com/aikidslabs/ai-kids-hub/internal/application/query"
	"github.com/aikidslabs/ai-kids-hub/internal/application/saga"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/learner"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":        "AI Kids Hub API",
		"version":     "v1",
		"description": "REST API for AI Kids Hub - AI literacy for curious kids",
		"endpoints": map[string]string{
			"health":        "/health",
			"catalog":       "/api/v1/catalog",
			"badges":        "/api/v1/badges",
			"profile":       "/api/v1/learners/{id}/profile",
			"profile_card":  "/api/v1/learners/{id}/profile-card",
			"progress":      "/api/v1/learners/{id}/progress",
			"notifications": "/api/v1/learners/{id}/notifications",
			"tutor":         "/api/v1/learners/{id}/tutor",
			"trailers":      "/api/v1/learners/{id}/trailers",
			"parent":        "/api/v1/learners/{id}/parent/overview",
			"stats":         "/api/v1/stats",
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

	// Default health response
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

// handleMetrics handles the metrics endpoint.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	metrics := map[string]interface{}{
		"uptime_seconds": s.Uptime().Seconds(),
		"running":        s.IsRunning(),
	}

	writeJSON(w, http.StatusOK, metrics)
}

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleBrowseCatalog handles GET /api/v1/catalog
func (s *Server) handleBrowseCatalog(w http.ResponseWriter, r *http.Request) {
	if s.deps.BrowseCatalogHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Catalog handler not configured")
		return
	}

	q := query.BrowseCatalogQuery{
		LearnerID: getQueryParam(r, "learner", ""),
		Search:    getQueryParam(r, "q", ""),
		AgeRating: getQueryParam(r, "age", ""),
		Type:      getQueryParam(r, "type", ""),
	}

	result, err := s.deps.BrowseCatalogHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err, "Failed to browse catalog")
		return
	}

	meta := &ResponseMeta{
		TotalCount: result.TotalItems,
	}

	writeJSONWithMeta(w, r, http.StatusOK, result, meta)
}

// handleGetItem handles GET /api/v1/catalog/items/{id}
func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	itemID := r.PathValue("id")
	if itemID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Item ID is required")
		return
	}

	if s.deps.GetItemHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Item handler not configured")
		return
	}

	q := query.GetItemQuery{
		ItemID:    itemID,
		LearnerID: getQueryParam(r, "learner", ""),
	}

	result, err := s.deps.GetItemHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err, "Failed to get item")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleListBadges handles GET /api/v1/badges
// The badge catalog is static; which badges a learner holds lives in the
// profile response.
func (s *Server) handleListBadges(w http.ResponseWriter, r *http.Request) {
	badges := learner.Badges()
	writeJSONWithMeta(w, r, http.StatusOK, badges, &ResponseMeta{TotalCount: len(badges)})
}

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE & PROGRESS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetProfile handles GET /api/v1/learners/{id}/profile
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	learnerID := r.PathValue("id")
	if learnerID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Learner ID is required")
		return
	}

	if s.deps.GetProfileHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Profile handler not configured")
		return
	}

	q := query.GetProfileQuery{
		LearnerID:       learnerID,
		IncludeProgress: getQueryParamBool(r, "include_progress"),
	}

	result, err := s.deps.GetProfileHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err, "Failed to get profile")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// updateProgressRequest is the body of POST /api/v1/learners/{id}/progress.
type updateProgressRequest struct {
	ItemID string `json:"item_id"`
	Value  int    `json:"value"`
}

// awardsResponse is the wire shape of an achievement run.
type awardsResponse struct {
	XPAwarded int             `json:"xp_awarded"`
	NewTotal  int             `json:"new_total"`
	LeveledUp bool            `json:"leveled_up"`
	NewLevel  int             `json:"new_level"`
	Badges    []learner.Badge `json:"badges,omitempty"`
}

func toAwardsResponse(r *saga.AchievementResult) *awardsResponse {
	if r == nil {
		return nil
	}
	return &awardsResponse{
		XPAwarded: r.XPAwarded,
		NewTotal:  r.NewTotal,
		LeveledUp: r.LeveledUp,
		NewLevel:  r.NewLevel,
		Badges:    r.Badges,
	}
}

// updateProgressResponse is the wire shape of a progress update.
type updateProgressResponse struct {
	ItemID        string          `json:"item_id"`
	OldValue      int             `json:"old_value"`
	NewValue      int             `json:"new_value"`
	Changed       bool            `json:"changed"`
	JustCompleted bool            `json:"just_completed"`
	Awards        *awardsResponse `json:"awards,omitempty"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// handleUpdateProgress handles POST /api/v1/learners/{id}/progress
func (s *Server) handleUpdateProgress(w http.ResponseWriter, r *http.Request) {
	learnerID := r.PathValue("id")
	if learnerID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Learner ID is required")
		return
	}

	if s.deps.UpdateProgressHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Progress handler not configured")
		return
	}

	var req updateProgressRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	cmd := command.UpdateProgressCommand{
		LearnerID:     learnerID,
		ItemID:        req.ItemID,
		Value:         req.Value,
		CorrelationID: getRequestID(r.Context()),
	}

	result, err := s.deps.UpdateProgressHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err, "Failed to update progress")
		return
	}

	writeJSON(w, http.StatusOK, updateProgressResponse{
		ItemID:        result.ItemID,
		OldValue:      result.OldValue,
		NewValue:      result.NewValue,
		Changed:       result.Changed,
		JustCompleted: result.JustCompleted,
		Awards:        toAwardsResponse(result.Achievements),
		UpdatedAt:     result.UpdatedAt,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetNotifications handles GET /api/v1/learners/{id}/notifications
func (s *Server) handleGetNotifications(w http.ResponseWriter, r *http.Request) {
	learnerID := r.PathValue("id")
	if learnerID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Learner ID is required")
		return
	}

	if s.deps.GetNotificationsHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Notifications handler not configured")
		return
	}

	result, err := s.deps.GetNotificationsHandler.Handle(r.Context(), query.GetNotificationsQuery{LearnerID: learnerID})
	if err != nil {
		s.writeDomainError(w, r, err, "Failed to get notifications")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleDismissNotification handles DELETE /api/v1/learners/{id}/notifications/{notification_id}
func (s *Server) handleDismissNotification(w http.ResponseWriter, r *http.Request) {
	learnerID := r.PathValue("id")
	notificationID := r.PathValue("notification_id")
	if learnerID == "" || notificationID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Learner ID and notification ID are required")
		return
	}

	if s.deps.DismissNotificationHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Dismiss handler not configured")
		return
	}

	cmd := command.DismissNotificationCommand{
		LearnerID:      learnerID,
		NotificationID: notificationID,
	}

	err := s.deps.DismissNotificationHandler.Handle(r.Context(), cmd)
	// An already-expired toast is gone either way; the client outcome
	// is identical to a successful dismissal.
	if err != nil && !errors.Is(err, shared.ErrNotificationNotFound) {
		s.writeDomainError(w, r, err, "Failed to dismiss notification")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ══════════════════════════════════════════════════════════════════════════════
// TUTOR HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// askTutorRequest is the body of POST /api/v1/learners/{id}/tutor.
// askTutorResponse is the wire shape of a tutor exchange.
type askTutorResponse struct {
	Answer           string          `json:"answer"`
	Audience         string          `json:"audience"`
	Degraded         bool            `json:"degraded"`
	FirstInteraction bool            `json:"first_interaction"`
	Awards           *awardsResponse `json:"awards,omitempty"`
	AnsweredAt       time.Time       `json:"answered_at"`
}

type askTutorRequest struct {
	Question string `json:"question"`
	Audience string `json:"audience,omitempty"`
}

// handleAskTutor handles POST /api/v1/learners/{id}/tutor
func (s *Server) handleAskTutor(w http.ResponseWriter, r *http.Request) {
	learnerID := r.PathValue("id")
	if learnerID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Learner ID is required")
		return
	}

	if s.deps.AskTutorHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Tutor handler not configured")
		return
	}

	var req askTutorRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	cmd := command.AskTutorCommand{
		LearnerID:     learnerID,
		Question:      req.Question,
		Audience:      req.Audience,
		CorrelationID: getRequestID(r.Context()),
	}

	result, err := s.deps.AskTutorHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err, "Failed to ask tutor")
		return
	}

	writeJSON(w, http.StatusOK, askTutorResponse{
		Answer:           result.Answer,
		Audience:         result.Audience,
		Degraded:         result.Degraded,
		FirstInteraction: result.FirstInteraction,
		Awards:           toAwardsResponse(result.Achievements),
		AnsweredAt:       result.AnsweredAt,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// TRAILER HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// startTrailerRequest is the body of POST /api/v1/learners/{id}/trailers.
// An empty item_id requests the hub-wide season trailer.
type startTrailerRequest struct {
	ItemID string `json:"item_id,omitempty"`
}

// handleStartTrailer handles POST /api/v1/learners/{id}/trailers
func (s *Server) handleStartTrailer(w http.ResponseWriter, r *http.Request) {
	learnerID := r.PathValue("id")
	if learnerID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Learner ID is required")
		return
	}

	if s.deps.StartTrailerHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Trailer handler not configured")
		return
	}

	var req startTrailerRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	cmd := command.StartTrailerCommand{
		LearnerID:     learnerID,
		ItemID:        req.ItemID,
		CorrelationID: getRequestID(r.Context()),
	}

	result, err := s.deps.StartTrailerHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err, "Failed to start trailer")
		return
	}

	writeJSON(w, http.StatusAccepted, result.Task)
}

// handleListTrailers handles GET /api/v1/learners/{id}/trailers
func (s *Server) handleListTrailers(w http.ResponseWriter, r *http.Request) {
	learnerID := r.PathValue("id")
	if learnerID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Learner ID is required")
		return
	}

	if s.deps.Tasks == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Task manager not configured")
		return
	}

	tasks := s.deps.Tasks.List(learnerID)

	meta := &ResponseMeta{
		TotalCount: len(tasks),
	}

	writeJSONWithMeta(w, r, http.StatusOK, tasks, meta)
}

// handleGetTrailer handles GET /api/v1/trailers/{task_id}
func (s *Server) handleGetTrailer(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("task_id")
	if taskID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Task ID is required")
		return
	}

	if s.deps.Tasks == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Task manager not configured")
		return
	}

	t, err := s.deps.Tasks.Get(taskID)
	if err != nil {
		s.writeDomainError(w, r, err, "Failed to get trailer task")
		return
	}

	writeJSON(w, http.StatusOK, t)
}

// handleCancelTrailer handles DELETE /api/v1/trailers/{task_id}
func (s *Server) handleCancelTrailer(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("task_id")
	if taskID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Task ID is required")
		return
	}

	if s.deps.Tasks == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Task manager not configured")
		return
	}

	if err := s.deps.Tasks.Cancel(taskID); err != nil {
		s.writeDomainError(w, r, err, "Failed to cancel trailer task")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ══════════════════════════════════════════════════════════════════════════════
// PARENT GATE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// setParentPINRequest is the body of PUT /api/v1/learners/{id}/parent/pin.
type setParentPINRequest struct {
	PIN        string `json:"pin"`
	CurrentPIN string `json:"current_pin,omitempty"`
}

// handleSetParentPIN handles PUT /api/v1/learners/{id}/parent/pin
func (s *Server) handleSetParentPIN(w http.ResponseWriter, r *http.Request) {
	learnerID := r.PathValue("id")
	if learnerID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Learner ID is required")
		return
	}

	if s.deps.SetParentPINHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Parent gate handler not configured")
		return
	}

	var req setParentPINRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	cmd := command.SetParentPINCommand{
		LearnerID:  learnerID,
		PIN:        req.PIN,
		CurrentPIN: req.CurrentPIN,
	}

	if err := s.deps.SetParentPINHandler.Handle(r.Context(), cmd); err != nil {
		s.writeDomainError(w, r, err, "Failed to set parent PIN")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// verifyParentRequest is the body of POST /api/v1/learners/{id}/parent/verify.
type verifyParentRequest struct {
	PIN string `json:"pin"`
}

// verifyParentResponse carries the gate session token for the dashboard.
type verifyParentResponse struct {
	Verified  bool   `json:"verified"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// handleVerifyParent handles POST /api/v1/learners/{id}/parent/verify
func (s *Server) handleVerifyParent(w http.ResponseWriter, r *http.Request) {
	learnerID := r.PathValue("id")
	if learnerID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Learner ID is required")
		return
	}

	if s.deps.VerifyParentHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Parent gate handler not configured")
		return
	}

	var req verifyParentRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	cmd := command.VerifyParentCommand{
		LearnerID:     learnerID,
		PIN:           req.PIN,
		CorrelationID: getRequestID(r.Context()),
	}

	result, err := s.deps.VerifyParentHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err, "Failed to verify parent PIN")
		return
	}

	token, expiresAt := s.gate.Mint(learnerID)
	writeJSON(w, http.StatusOK, verifyParentResponse{
		Verified:  result.Verified,
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	})
}

// handleParentOverview handles GET /api/v1/learners/{id}/parent/overview
func (s *Server) handleParentOverview(w http.ResponseWriter, r *http.Request) {
	learnerID := r.PathValue("id")
	if learnerID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Learner ID is required")
		return
	}

	token := r.Header.Get("X-Parent-Token")
	if !s.gate.Valid(token, learnerID) {
		writeJSONError(w, http.StatusUnauthorized, "parent_gate_required", "A valid parent gate token is required")
		return
	}

	if s.deps.ParentOverviewHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Parent overview handler not configured")
		return
	}

	q := query.ParentOverviewQuery{
		LearnerID:       learnerID,
		TranscriptLimit: getQueryParamInt(r, "transcript_limit", 10),
	}

	result, err := s.deps.ParentOverviewHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err, "Failed to build parent overview")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE CARD HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetProfileCard handles GET /api/v1/learners/{id}/profile-card.
// It serves the denormalized card the dispatcher keeps current, so the
// header chip never pays for a full profile recomputation.
func (s *Server) handleGetProfileCard(w http.ResponseWriter, r *http.Request) {
	learnerID := r.PathValue("id")
	if learnerID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Learner ID is required")
		return
	}

	if s.deps.ProfileCards == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Profile card view not configured")
		return
	}

	card, err := s.deps.ProfileCards.GetByLearnerID(r.Context(), learnerID)
	if err != nil {
		writeJSONError(w, http.StatusNotFound, "not_found", "Profile card not found")
		return
	}

	writeJSON(w, http.StatusOK, card)
}

// handleListProfileCards handles GET /api/v1/profile-cards, the
// household leaderboard: every card ordered by XP.
func (s *Server) handleListProfileCards(w http.ResponseWriter, r *http.Request) {
	if s.deps.ProfileCards == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Profile card view not configured")
		return
	}

	cards, err := s.deps.ProfileCards.GetAll(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err, "Failed to list profile cards")
		return
	}

	writeJSON(w, http.StatusOK, cards)
}

// ══════════════════════════════════════════════════════════════════════════════
// STATS HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// handleGetStats handles GET /api/v1/stats
func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]interface{}{
		"server": map[string]interface{}{
			"uptime":  s.Uptime().String(),
			"running": s.IsRunning(),
		},
	}

	// Add catalog stats if handler is available
	if s.deps.BrowseCatalogHandler != nil {
		result, err := s.deps.BrowseCatalogHandler.Handle(r.Context(), query.BrowseCatalogQuery{})
		if err == nil {
			stats["catalog"] = map[string]interface{}{
				"seasons":     len(result.Rows),
				"total_items": result.TotalItems,
			}
		}
	}

	if s.deps.Scheduler != nil {
		block := map[string]interface{}{
			"running": s.deps.Scheduler.IsRunning(),
			"jobs":    s.deps.Scheduler.Jobs(),
		}
		if m := s.deps.Scheduler.Metrics(); m != nil {
			block["metrics"] = m.Snapshot()
		}
		stats["scheduler"] = block
	}

	if s.deps.Dispatcher != nil {
		block := map[string]interface{}{
			"metrics": s.deps.Dispatcher.Metrics().Snapshot(),
		}
		if dlq := s.deps.Dispatcher.DeadLetters(); dlq != nil {
			block["dead_letters"] = dlq.Size()
		}
		stats["dispatcher"] = block
	}

	writeJSON(w, http.StatusOK, stats)
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST DECODING & ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// decodeBody decodes a JSON request body, writing a 400 on failure.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return false
	}
	return true
}

// writeDomainError maps a domain error onto an HTTP status and error code.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, shared.ErrParentPINMismatch):
		writeJSONError(w, http.StatusForbidden, "pin_mismatch", "Parent PIN does not match")
	case errors.Is(err, shared.ErrParentPINNotSet):
		writeJSONError(w, http.StatusConflict, "pin_not_set", "Parent PIN has not been set")
	case errors.Is(err, shared.ErrTaskAlreadyDone):
		writeJSONError(w, http.StatusConflict, "task_finished", "Trailer task already finished")
	case shared.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case shared.IsExternalService(err):
		s.logger.Warn("upstream failure", "path", r.URL.Path, "error", err)
		writeJSONError(w, http.StatusBadGateway, "upstream_error", fallback)
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err, "request_id", getRequestID(r.Context()))
		writeJSONError(w, http.StatusInternalServerError, "internal_error", fallback)
	}
}
