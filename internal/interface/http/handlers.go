package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/temahub/topic-allocation-hub/internal/application/command"
	"github.com/temahub/topic-allocation-hub/internal/application/query"
	"github.com/temahub/topic-allocation-hub/internal/domain/shared"
	"github.com/temahub/topic-allocation-hub/internal/domain/topic"
	"github.com/temahub/topic-allocation-hub/internal/infrastructure/importer"
	"github.com/temahub/topic-allocation-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not_found", "Endpoint not found")
		return
	}

	info := map[string]interface{}{
		"name":        "Topic Allocation Hub API",
		"version":     "v1",
		"description": "REST API for coursework and thesis topic allocation",
		"endpoints": map[string]string{
			"health":          "/health",
			"topics":          "/api/v1/topics",
			"reserve":         "/api/v1/topics/{id}/reserve",
			"cancel":          "/api/v1/topics/{id}/cancel",
			"assign":          "/api/v1/topics/{id}/assign",
			"distribute":      "/api/v1/distribute",
			"reservations":    "/api/v1/reservations",
			"import_students": "/api/v1/import/students",
			"import_topics":   "/api/v1/import/topics",
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

// ══════════════════════════════════════════════════════════════════════════════
// TOPIC LISTING
// ══════════════════════════════════════════════════════════════════════════════

// handleListTopics handles GET /api/v1/topics.
// Query parameters: status (free|reserved|assigned), work_type_id, group_id.
func (s *Server) handleListTopics(w http.ResponseWriter, r *http.Request) {
	q := query.ListTopicsQuery{}

	if raw := r.URL.Query().Get("status"); raw != "" {
		st := topic.Status(raw)
		if !st.IsValid() {
			writeJSONError(w, http.StatusBadRequest, "invalid_status", "status must be one of: free, reserved, assigned")
			return
		}
		q.Status = &st
	}
	if raw := r.URL.Query().Get("work_type_id"); raw != "" {
		q.WorkTypeID = &raw
	}
	if raw := r.URL.Query().Get("group_id"); raw != "" {
		q.GroupID = &raw
	}

	topics, err := s.deps.ListTopicsHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"topics": topics,
		"count":  len(topics),
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// RESERVATION COMMANDS
// ══════════════════════════════════════════════════════════════════════════════

// reserveRequest is the body of POST /api/v1/topics/{id}/reserve.
type reserveRequest struct {
	GroupID string `json:"group_id"`
	UserID  string `json:"user_id"`
}

// handleReserveTopic handles POST /api/v1/topics/{id}/reserve.
func (s *Server) handleReserveTopic(w http.ResponseWriter, r *http.Request) {
	topicID := r.PathValue("id")

	var req reserveRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.GroupID == "" || req.UserID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "group_id and user_id are required")
		return
	}

	result, err := s.deps.ReserveTopicHandler.Handle(r.Context(), command.ReserveTopicCommand{
		TopicID: topicID,
		GroupID: req.GroupID,
		UserID:  req.UserID,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.logger.Info("topic reserved",
		logger.TopicID(topicID),
		logger.ReservationID(result.ReservationID),
		logger.UserID(req.UserID),
	)

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"reservation_id": result.ReservationID,
		"topic_id":       topicID,
		"reserved_at":    result.ReservedAt.Format(time.RFC3339),
		"expires_at":     result.ExpiresAt.Format(time.RFC3339),
	})
}

// cancelRequest is the body of POST /api/v1/topics/{id}/cancel.
type cancelRequest struct {
	UserID string `json:"user_id"`
}

// handleCancelReservation handles POST /api/v1/topics/{id}/cancel.
func (s *Server) handleCancelReservation(w http.ResponseWriter, r *http.Request) {
	topicID := r.PathValue("id")

	var req cancelRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.UserID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "user_id is required")
		return
	}

	err := s.deps.CancelReservationHandler.Handle(r.Context(), command.CancelReservationCommand{
		TopicID: topicID,
		UserID:  req.UserID,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.logger.Info("reservation cancelled",
		logger.TopicID(topicID),
		logger.UserID(req.UserID),
	)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"topic_id": topicID,
		"status":   "free",
	})
}

// assignRequest is the body of POST /api/v1/topics/{id}/assign.
type assignRequest struct {
	StudentID string `json:"student_id"`
	UserID    string `json:"user_id"`
}

// handleAssignTopic handles POST /api/v1/topics/{id}/assign.
func (s *Server) handleAssignTopic(w http.ResponseWriter, r *http.Request) {
	topicID := r.PathValue("id")

	var req assignRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.StudentID == "" || req.UserID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "student_id and user_id are required")
		return
	}

	err := s.deps.AssignTopicHandler.Handle(r.Context(), command.AssignTopicCommand{
		TopicID:   topicID,
		StudentID: req.StudentID,
		UserID:    req.UserID,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.logger.Info("topic assigned",
		logger.TopicID(topicID),
		logger.StudentID(req.StudentID),
		logger.UserID(req.UserID),
	)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"topic_id":   topicID,
		"student_id": req.StudentID,
		"status":     "assigned",
	})
}

// distributeRequest is the body of POST /api/v1/distribute.
type distributeRequest struct {
	GroupID    string `json:"group_id"`
	WorkTypeID string `json:"work_type_id"`
}

// handleDistributeTopics handles POST /api/v1/distribute.
func (s *Server) handleDistributeTopics(w http.ResponseWriter, r *http.Request) {
	var req distributeRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.GroupID == "" || req.WorkTypeID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "group_id and work_type_id are required")
		return
	}

	result, err := s.deps.DistributeTopicsHandler.Handle(r.Context(), command.DistributeTopicsCommand{
		GroupID:    req.GroupID,
		WorkTypeID: req.WorkTypeID,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.logger.Info("topics distributed",
		logger.GroupID(req.GroupID),
		logger.WorkTypeID(req.WorkTypeID),
		logger.Int("assigned", result.Assigned),
	)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"assigned": result.Assigned,
		"pairs":    result.Pairs,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// RESERVATION LISTING
// ══════════════════════════════════════════════════════════════════════════════

// handleGetActiveReservations handles GET /api/v1/reservations?user_id=...
func (s *Server) handleGetActiveReservations(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "user_id query parameter is required")
		return
	}

	holds, err := s.deps.GetActiveReservationsHandler.Handle(r.Context(), query.GetActiveReservationsQuery{
		UserID: userID,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reservations": holds,
		"count":        len(holds),
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// BULK IMPORT
// ══════════════════════════════════════════════════════════════════════════════

// importStudentsRequest is the body of POST /api/v1/import/students.
type importStudentsRequest struct {
	Rows []importer.StudentRow `json:"rows"`
}

// handleImportStudents handles POST /api/v1/import/students.
func (s *Server) handleImportStudents(w http.ResponseWriter, r *http.Request) {
	if s.deps.Importer == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "import_unavailable", "Import is not configured")
		return
	}

	var req importStudentsRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if len(req.Rows) == 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "rows are required")
		return
	}

	stats, err := s.deps.Importer.ImportStudents(r.Context(), req.Rows)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.logger.Info("students imported",
		logger.Int("created", stats.Created),
		logger.Int("skipped", stats.Skipped),
	)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"created": stats.Created,
		"skipped": stats.Skipped,
	})
}

// importTopicsRequest is the body of POST /api/v1/import/topics.
type importTopicsRequest struct {
	Rows []importer.TopicRow `json:"rows"`
}

// handleImportTopics handles POST /api/v1/import/topics.
func (s *Server) handleImportTopics(w http.ResponseWriter, r *http.Request) {
	if s.deps.Importer == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "import_unavailable", "Import is not configured")
		return
	}

	var req importTopicsRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if len(req.Rows) == 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "rows are required")
		return
	}

	stats, err := s.deps.Importer.ImportTopics(r.Context(), req.Rows)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.logger.Info("topics imported",
		logger.Int("created", stats.Created),
		logger.Int("skipped", stats.Skipped),
	)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"created": stats.Created,
		"skipped": stats.Skipped,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST / ERROR HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// decodeBody reads and decodes a JSON request body. On failure it writes
// a 400 response and returns false.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to read request body")
		return false
	}
	if len(body) == 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Request body is required")
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "Request body is not valid JSON")
		return false
	}
	return true
}

// writeDomainError maps domain errors to HTTP status codes.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case shared.IsConflict(err):
		writeJSONError(w, http.StatusConflict, "conflict", err.Error())
	case shared.IsForbidden(err):
		writeJSONError(w, http.StatusForbidden, "forbidden", err.Error())
	case shared.IsExpired(err):
		writeJSONError(w, http.StatusBadRequest, "reservation_expired", err.Error())
	case shared.IsInvalidState(err):
		writeJSONError(w, http.StatusBadRequest, "invalid_state", err.Error())
	case shared.IsInsufficient(err):
		writeJSONError(w, http.StatusBadRequest, "not_enough_topics", err.Error())
	case errors.Is(err, shared.ErrInvalidInput) || errors.Is(err, shared.ErrValidation):
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		s.logger.Error("request failed",
			logger.String("path", r.URL.Path),
			logger.Err(err),
			logger.String("request_id", getRequestID(r.Context())),
		)
		writeJSONError(w, http.StatusInternalServerError, "internal_server_error", "An unexpected error occurred")
	}
}
