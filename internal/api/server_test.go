package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innovacall/review-portal/internal/config"
	"github.com/innovacall/review-portal/internal/events"
	"github.com/innovacall/review-portal/internal/health"
	"github.com/innovacall/review-portal/internal/locking"
	"github.com/innovacall/review-portal/internal/models"
	"github.com/innovacall/review-portal/internal/review"
	"github.com/innovacall/review-portal/internal/rubric"
	"github.com/innovacall/review-portal/internal/storage"
)

func testServer(t *testing.T) (*Server, *storage.MemoryRepository) {
	t.Helper()

	repo := storage.NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.CreateCall(ctx, &models.Call{
		ID:       "call-1",
		Status:   models.CallActive,
		Deadline: time.Now().Add(24 * time.Hour),
	}))
	require.NoError(t, repo.CreateCategory(ctx, &models.Category{
		ID:          "technology",
		CallID:      "call-1",
		MinReviews:  2,
		CutoffScore: 5.0,
		Rubric: &models.Rubric{
			ID:         "tech-v1",
			CategoryID: "technology",
			Sections: []models.Section{
				{
					ID:     "only",
					Weight: 100,
					Criteria: []models.Criterion{
						{ID: "c1", MaxScore: 10},
					},
				},
			},
		},
	}))

	repo.PutCaller(&models.Caller{ID: "presenter-1", Name: "presenter", ApiKey: "pk_presenter", Role: models.RolePresenter, IsActive: true})
	repo.PutCaller(&models.Caller{ID: "admin-1", Name: "admin", ApiKey: "pk_admin", Role: models.RoleAdmin, IsActive: true})
	repo.PutCaller(&models.Caller{ID: "reviewer-1", Name: "reviewer", ApiKey: "pk_reviewer", Role: models.RoleReviewer, IsActive: true})
	repo.PutCaller(&models.Caller{ID: "inactive-1", Name: "inactive", ApiKey: "pk_inactive", Role: models.RoleAdmin, IsActive: false})

	svc := review.NewService(repo, locking.NewLocalLocker(), events.NewLocalBus(), models.ReviewPolicy{AllowStaffReview: true})

	server := NewServer(config.ServerConfig{Host: "127.0.0.1", Port: 8080}, svc, rubric.NewLoader(), health.NewRegistry(), events.NewLocalBus(), repo)
	return server, repo
}

func doRequest(t *testing.T, server *Server, method, path, apiKey string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.True(t, envelope.Success, "body: %s", rec.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func TestHealthEndpointIsPublic(t *testing.T) {
	server, _ := testServer(t)

	rec := doRequest(t, server, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, server, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthenticationRequired(t *testing.T) {
	server, _ := testServer(t)

	rec := doRequest(t, server, http.MethodGet, "/api/v1/projects", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, server, http.MethodGet, "/api/v1/projects", "pk_unknown", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, server, http.MethodGet, "/api/v1/projects", "pk_inactive", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, server, http.MethodGet, "/api/v1/projects", "pk_presenter", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestXAPIKeyHeader(t *testing.T) {
	server, _ := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
	req.Header.Set("X-API-Key", "pk_presenter")

	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProjectLifecycleOverHTTP(t *testing.T) {
	server, _ := testServer(t)

	// Create
	rec := doRequest(t, server, http.MethodPost, "/api/v1/projects", "pk_presenter", map[string]interface{}{
		"call_id":     "call-1",
		"category_id": "technology",
		"title":       "Smart Irrigation",
		"documents":   []map[string]string{{"name": "pitch.pdf", "requirement_type": "pitch"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var project models.Project
	decodeData(t, rec, &project)
	assert.Equal(t, models.StatusDraft, project.Status)
	assert.Equal(t, "presenter-1", project.PresenterID)

	// Submit
	rec = doRequest(t, server, http.MethodPost, "/api/v1/projects/"+project.ID+"/submit", "pk_presenter", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Assign reviewers (admin)
	rec = doRequest(t, server, http.MethodPost, "/api/v1/projects/"+project.ID+"/reviewers", "pk_admin", map[string]interface{}{
		"reviewer_ids": []string{"reviewer-1"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Review submission by the assigned reviewer
	rec = doRequest(t, server, http.MethodPost, "/api/v1/projects/"+project.ID+"/reviews", "pk_reviewer", map[string]interface{}{
		"scores":   map[string]float64{"c1": 8},
		"is_draft": false,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var reviewResp models.SubmitReviewResponse
	decodeData(t, rec, &reviewResp)
	assert.InDelta(t, 8.0, reviewResp.ReviewScore, 1e-9)
	assert.Equal(t, models.Quorum{Completed: 1, Required: 2, Satisfied: false}, reviewResp.Quorum)

	// Quorum endpoint agrees
	rec = doRequest(t, server, http.MethodGet, "/api/v1/projects/"+project.ID+"/quorum", "pk_presenter", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var quorum models.Quorum
	decodeData(t, rec, &quorum)
	assert.Equal(t, 1, quorum.Completed)
}

func TestRoleGatesOverHTTP(t *testing.T) {
	server, _ := testServer(t)

	// Reviewers cannot assign reviewers
	rec := doRequest(t, server, http.MethodPost, "/api/v1/projects/some-id/reviewers", "pk_reviewer", map[string]interface{}{
		"reviewer_ids": []string{"reviewer-1"},
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Presenters cannot issue final decisions
	rec = doRequest(t, server, http.MethodPost, "/api/v1/projects/some-id/decision", "pk_presenter", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Reviewers cannot delete reviews
	rec = doRequest(t, server, http.MethodDelete, "/api/v1/reviews/some-id", "pk_reviewer", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestErrorStatusMapping(t *testing.T) {
	server, _ := testServer(t)

	// Unknown project -> 404
	rec := doRequest(t, server, http.MethodGet, "/api/v1/projects/nope", "pk_presenter", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Reviewer role creating a project -> 403
	rec = doRequest(t, server, http.MethodPost, "/api/v1/projects", "pk_reviewer", map[string]interface{}{
		"call_id":     "call-1",
		"category_id": "technology",
		"title":       "Nope",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Invalid JSON body -> 400
	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects", bytes.NewBufferString("{"))
	req.Header.Set("Authorization", "Bearer pk_presenter")
	badRec := httptest.NewRecorder()
	server.Router().ServeHTTP(badRec, req)
	assert.Equal(t, http.StatusBadRequest, badRec.Code)
}

func TestRubricEndpoints(t *testing.T) {
	server, _ := testServer(t)

	rec := doRequest(t, server, http.MethodGet, "/api/v1/rubrics", "pk_presenter", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, server, http.MethodGet, "/api/v1/rubrics/unknown", "pk_presenter", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
