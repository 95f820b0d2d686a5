package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/innovacall/review-portal/internal/locking"
	"github.com/innovacall/review-portal/internal/models"
	"github.com/innovacall/review-portal/internal/review"
	"github.com/innovacall/review-portal/internal/scoring"
	"github.com/innovacall/review-portal/internal/storage"
	"github.com/innovacall/review-portal/internal/workflow"
)

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// respondServiceError maps workflow errors to HTTP status codes
func respondServiceError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, review.ErrForbidden), errors.Is(err, review.ErrNotAssignedReviewer):
		respondError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, workflow.ErrInvalidDecision),
		errors.Is(err, review.ErrMissingDocuments),
		errors.Is(err, review.ErrCallClosed),
		errors.Is(err, review.ErrConflictOfInterest),
		errors.Is(err, review.ErrNoAggregateScore),
		errors.Is(err, scoring.ErrMissingRubric),
		errors.Is(err, scoring.ErrUnknownCriterion),
		errors.Is(err, scoring.ErrZeroWeightRubric):
		respondError(w, http.StatusUnprocessableEntity, "validation_error", err.Error())
	case errors.Is(err, workflow.ErrInvalidTransition):
		respondError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, storage.ErrConflict), errors.Is(err, locking.ErrLockNotAcquired):
		respondError(w, http.StatusConflict, "conflict", "concurrent modification, retry the request")
	default:
		slog.Error("operation failed", "op", op, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "operation failed")
	}
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.healthRegistry.Healthy(r.Context()) {
		respondError(w, http.StatusServiceUnavailable, "not_ready", "service not ready")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

// Project handlers

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req review.CreateProjectInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.CallID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "call_id is required")
		return
	}
	if req.CategoryID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "category_id is required")
		return
	}
	if req.Title == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "title is required")
		return
	}

	p, err := s.reviews.CreateProject(r.Context(), CallerFromContext(r.Context()), req)
	if err != nil {
		respondServiceError(w, err, "create project")
		return
	}

	respondJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "project id is required")
		return
	}

	p, err := s.reviews.GetProject(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "get project")
		return
	}

	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	filters := models.ListFilters{
		CallID:     r.URL.Query().Get("call_id"),
		CategoryID: r.URL.Query().Get("category_id"),
		Status:     models.ProjectStatus(r.URL.Query().Get("status")),
		ReviewerID: r.URL.Query().Get("reviewer_id"),
		Limit:      50, // default
		Offset:     0,
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filters.Limit = limit
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filters.Offset = offset
		}
	}

	projects, err := s.reviews.ListProjects(r.Context(), filters)
	if err != nil {
		respondServiceError(w, err, "list projects")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"projects": projects,
		"total":    len(projects),
	})
}

func (s *Server) handleSubmitProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "project id is required")
		return
	}

	status, err := s.reviews.Submit(r.Context(), CallerFromContext(r.Context()), id)
	if err != nil {
		respondServiceError(w, err, "submit project")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": status,
	})
}

func (s *Server) handleAssignReviewers(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "project id is required")
		return
	}

	var req struct {
		ReviewerIDs []string `json:"reviewer_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if len(req.ReviewerIDs) == 0 {
		respondError(w, http.StatusBadRequest, "validation_error", "reviewer_ids is required")
		return
	}

	if err := s.reviews.AssignReviewers(r.Context(), CallerFromContext(r.Context()), id, req.ReviewerIDs); err != nil {
		respondServiceError(w, err, "assign reviewers")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "reviewers assigned",
	})
}

func (s *Server) handleFinalDecision(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "project id is required")
		return
	}

	status, err := s.reviews.FinalDecision(r.Context(), CallerFromContext(r.Context()), id)
	if err != nil {
		respondServiceError(w, err, "final decision")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": status,
	})
}
