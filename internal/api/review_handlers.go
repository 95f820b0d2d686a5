package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/innovacall/review-portal/internal/models"
	"github.com/innovacall/review-portal/internal/workflow"
)

// Review handlers

func (s *Server) handleSubmitReview(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	if projectID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "project id is required")
		return
	}

	var req models.SubmitReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if len(req.Scores) == 0 {
		respondError(w, http.StatusBadRequest, "validation_error", "scores is required")
		return
	}

	resp, err := s.reviews.SubmitReview(r.Context(), CallerFromContext(r.Context()), projectID, req)
	if err != nil {
		respondServiceError(w, err, "submit review")
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetProjectReviews(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	if projectID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "project id is required")
		return
	}

	reviews, err := s.reviews.GetProjectReviews(r.Context(), CallerFromContext(r.Context()), projectID)
	if err != nil {
		respondServiceError(w, err, "get project reviews")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"reviews": reviews,
		"total":   len(reviews),
	})
}

func (s *Server) handleGetQuorum(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	if projectID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "project id is required")
		return
	}

	quorum, err := s.reviews.ProjectQuorum(r.Context(), projectID)
	if err != nil {
		respondServiceError(w, err, "get quorum")
		return
	}

	respondJSON(w, http.StatusOK, quorum)
}

func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	reviewID := chi.URLParam(r, "id")
	if reviewID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "review id is required")
		return
	}

	if err := s.reviews.DeleteReview(r.Context(), CallerFromContext(r.Context()), reviewID); err != nil {
		respondServiceError(w, err, "delete review")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "review deleted",
	})
}

// Correction handlers

func (s *Server) handlePrecorrectionDecision(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	if projectID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "project id is required")
		return
	}

	var in workflow.PrecorrectionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	status, err := s.reviews.RecordPrecorrectionDecision(r.Context(), CallerFromContext(r.Context()), projectID, in)
	if err != nil {
		respondServiceError(w, err, "precorrection decision")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": status,
	})
}

func (s *Server) handleStartCorrection(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	if projectID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "project id is required")
		return
	}

	status, err := s.reviews.StartCorrection(r.Context(), CallerFromContext(r.Context()), projectID)
	if err != nil {
		respondServiceError(w, err, "start correction")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": status,
	})
}

func (s *Server) handleResubmitCorrection(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	if projectID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "project id is required")
		return
	}

	var req struct {
		Documents []models.Document `json:"documents"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	status, err := s.reviews.ResubmitCorrection(r.Context(), CallerFromContext(r.Context()), projectID, req.Documents)
	if err != nil {
		respondServiceError(w, err, "resubmit correction")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": status,
	})
}

// Rubric handlers

func (s *Server) handleListRubrics(w http.ResponseWriter, r *http.Request) {
	rubrics := s.rubricLoader.List()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"rubrics": rubrics,
		"total":   len(rubrics),
	})
}

func (s *Server) handleGetRubric(w http.ResponseWriter, r *http.Request) {
	categoryID := chi.URLParam(r, "category")
	if categoryID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "category is required")
		return
	}

	rubric := s.rubricLoader.Get(categoryID)
	if rubric == nil {
		respondError(w, http.StatusNotFound, "not_found", "no rubric for category")
		return
	}

	respondJSON(w, http.StatusOK, rubric)
}
