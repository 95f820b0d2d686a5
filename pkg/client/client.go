package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is a Go SDK for the review-portal API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new review-portal client
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Document represents an uploaded project document
type Document struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	RequirementType string    `json:"requirement_type"`
	Corrected       bool      `json:"corrected,omitempty"`
	UploadedBy      string    `json:"uploaded_by,omitempty"`
	UploadedAt      time.Time `json:"uploaded_at"`
}

// Project represents a project response
type Project struct {
	ID           string     `json:"id"`
	CallID       string     `json:"call_id"`
	CategoryID   string     `json:"category_id"`
	Title        string     `json:"title"`
	PresenterID  string     `json:"presenter_id"`
	Participants []string   `json:"participants,omitempty"`
	Status       string     `json:"status"`
	Score        *float64   `json:"score,omitempty"`
	Reviewers    []string   `json:"reviewers,omitempty"`
	Documents    []Document `json:"documents,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	SubmittedAt  *time.Time `json:"submitted_at,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// CreateProjectRequest represents a project creation request
type CreateProjectRequest struct {
	CallID       string     `json:"call_id"`
	CategoryID   string     `json:"category_id"`
	Title        string     `json:"title"`
	Participants []string   `json:"participants,omitempty"`
	Documents    []Document `json:"documents,omitempty"`
}

// Review represents one reviewer's saved review of a project
type Review struct {
	ID                  string             `json:"id"`
	ProjectID           string             `json:"project_id"`
	ReviewerID          string             `json:"reviewer_id"`
	Scores              map[string]float64 `json:"scores"`
	Comments            map[string]string  `json:"comments,omitempty"`
	GeneralObservations string             `json:"general_observations,omitempty"`
	IsDraft             bool               `json:"is_draft"`
	Score               float64            `json:"score"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

// Quorum is the review-completion state of a project
type Quorum struct {
	Completed int  `json:"completed"`
	Required  int  `json:"required"`
	Satisfied bool `json:"satisfied"`
}

// SubmitReviewRequest is the payload for saving a review
type SubmitReviewRequest struct {
	Scores              map[string]float64 `json:"scores"`
	Comments            map[string]string  `json:"comments,omitempty"`
	GeneralObservations string             `json:"general_observations,omitempty"`
	IsDraft             bool               `json:"is_draft"`
}

// SubmitReviewResponse is returned after saving a review
type SubmitReviewResponse struct {
	ReviewID      string  `json:"review_id"`
	ReviewScore   float64 `json:"review_score"`
	ProjectStatus string  `json:"project_status"`
	Quorum        Quorum  `json:"quorum"`
}

// Rubric is the weighted scoring hierarchy assigned to a category
type Rubric struct {
	ID         string    `json:"id"`
	CategoryID string    `json:"category_id"`
	Name       string    `json:"name"`
	Sections   []Section `json:"sections"`
}

// Section groups related criteria under a single weight
type Section struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	Weight   float64     `json:"weight"`
	Criteria []Criterion `json:"criteria"`
}

// Criterion is a single scored item with its discrete levels
type Criterion struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	MaxScore float64 `json:"max_score"`
	Levels   []Level `json:"levels"`
}

// Level pairs a selectable score with its description
type Level struct {
	Score       float64 `json:"score"`
	Description string  `json:"description"`
}

// ListOptions contains options for listing projects
type ListOptions struct {
	CallID     string
	CategoryID string
	Status     string
	ReviewerID string
	Limit      int
	Offset     int
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateProject creates a new project
func (c *Client) CreateProject(ctx context.Context, req CreateProjectRequest) (*Project, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var project Project
	if err := c.call(ctx, "POST", "/api/v1/projects", bytes.NewReader(body), &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// GetProject retrieves a project by ID
func (c *Client) GetProject(ctx context.Context, id string) (*Project, error) {
	var project Project
	if err := c.call(ctx, "GET", fmt.Sprintf("/api/v1/projects/%s", id), nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// ListProjects retrieves a list of projects
func (c *Client) ListProjects(ctx context.Context, opts ListOptions) ([]*Project, error) {
	path := "/api/v1/projects?"
	if opts.CallID != "" {
		path += fmt.Sprintf("call_id=%s&", opts.CallID)
	}
	if opts.CategoryID != "" {
		path += fmt.Sprintf("category_id=%s&", opts.CategoryID)
	}
	if opts.Status != "" {
		path += fmt.Sprintf("status=%s&", opts.Status)
	}
	if opts.ReviewerID != "" {
		path += fmt.Sprintf("reviewer_id=%s&", opts.ReviewerID)
	}
	if opts.Limit > 0 {
		path += fmt.Sprintf("limit=%d&", opts.Limit)
	}
	if opts.Offset > 0 {
		path += fmt.Sprintf("offset=%d&", opts.Offset)
	}

	var result struct {
		Projects []*Project `json:"projects"`
		Total    int        `json:"total"`
	}
	if err := c.call(ctx, "GET", path, nil, &result); err != nil {
		return nil, err
	}
	return result.Projects, nil
}

// SubmitProject submits a draft project for review
func (c *Client) SubmitProject(ctx context.Context, id string) (string, error) {
	var result struct {
		Status string `json:"status"`
	}
	if err := c.call(ctx, "POST", fmt.Sprintf("/api/v1/projects/%s/submit", id), nil, &result); err != nil {
		return "", err
	}
	return result.Status, nil
}

// AssignReviewers replaces the reviewer set on a project
func (c *Client) AssignReviewers(ctx context.Context, id string, reviewerIDs []string) error {
	body, err := json.Marshal(map[string][]string{"reviewer_ids": reviewerIDs})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	return c.call(ctx, "POST", fmt.Sprintf("/api/v1/projects/%s/reviewers", id), bytes.NewReader(body), nil)
}

// SubmitReview creates or updates the caller's review of a project
func (c *Client) SubmitReview(ctx context.Context, projectID string, req SubmitReviewRequest) (*SubmitReviewResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var resp SubmitReviewResponse
	if err := c.call(ctx, "POST", fmt.Sprintf("/api/v1/projects/%s/reviews", projectID), bytes.NewReader(body), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetProjectReviews retrieves the reviews of a project
func (c *Client) GetProjectReviews(ctx context.Context, projectID string) ([]*Review, error) {
	var result struct {
		Reviews []*Review `json:"reviews"`
		Total   int       `json:"total"`
	}
	if err := c.call(ctx, "GET", fmt.Sprintf("/api/v1/projects/%s/reviews", projectID), nil, &result); err != nil {
		return nil, err
	}
	return result.Reviews, nil
}

// GetQuorum retrieves the review quorum state of a project
func (c *Client) GetQuorum(ctx context.Context, projectID string) (*Quorum, error) {
	var quorum Quorum
	if err := c.call(ctx, "GET", fmt.Sprintf("/api/v1/projects/%s/quorum", projectID), nil, &quorum); err != nil {
		return nil, err
	}
	return &quorum, nil
}

// DeleteReview removes a review, recomputing the project's quorum
func (c *Client) DeleteReview(ctx context.Context, reviewID string) error {
	return c.call(ctx, "DELETE", fmt.Sprintf("/api/v1/reviews/%s", reviewID), nil, nil)
}

// PrecorrectionRequest represents a pre-correction decision
type PrecorrectionRequest struct {
	Decision     string   `json:"decision"`
	Observations string   `json:"observations,omitempty"`
	Fields       []string `json:"fields,omitempty"`
	Documents    []string `json:"documents,omitempty"`
}

// PrecorrectionDecision records a reviewer's pre-correction decision
func (c *Client) PrecorrectionDecision(ctx context.Context, projectID string, req PrecorrectionRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var result struct {
		Status string `json:"status"`
	}
	if err := c.call(ctx, "POST", fmt.Sprintf("/api/v1/projects/%s/precorrection", projectID), bytes.NewReader(body), &result); err != nil {
		return "", err
	}
	return result.Status, nil
}

// StartCorrection marks a requested correction as in progress
func (c *Client) StartCorrection(ctx context.Context, projectID string) (string, error) {
	var result struct {
		Status string `json:"status"`
	}
	if err := c.call(ctx, "POST", fmt.Sprintf("/api/v1/projects/%s/correction/start", projectID), nil, &result); err != nil {
		return "", err
	}
	return result.Status, nil
}

// ResubmitCorrection uploads corrected documents and resubmits the project
func (c *Client) ResubmitCorrection(ctx context.Context, projectID string, docs []Document) (string, error) {
	body, err := json.Marshal(map[string][]Document{"documents": docs})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var result struct {
		Status string `json:"status"`
	}
	if err := c.call(ctx, "POST", fmt.Sprintf("/api/v1/projects/%s/correction", projectID), bytes.NewReader(body), &result); err != nil {
		return "", err
	}
	return result.Status, nil
}

// FinalDecision applies the cutoff to a fully reviewed project
func (c *Client) FinalDecision(ctx context.Context, projectID string) (string, error) {
	var result struct {
		Status string `json:"status"`
	}
	if err := c.call(ctx, "POST", fmt.Sprintf("/api/v1/projects/%s/decision", projectID), nil, &result); err != nil {
		return "", err
	}
	return result.Status, nil
}

// ListRubrics retrieves all loaded rubrics
func (c *Client) ListRubrics(ctx context.Context) ([]*Rubric, error) {
	var result struct {
		Rubrics []*Rubric `json:"rubrics"`
		Total   int       `json:"total"`
	}
	if err := c.call(ctx, "GET", "/api/v1/rubrics", nil, &result); err != nil {
		return nil, err
	}
	return result.Rubrics, nil
}

// GetRubric retrieves the rubric assigned to a category
func (c *Client) GetRubric(ctx context.Context, categoryID string) (*Rubric, error) {
	var rubric Rubric
	if err := c.call(ctx, "GET", fmt.Sprintf("/api/v1/rubrics/%s", categoryID), nil, &rubric); err != nil {
		return nil, err
	}
	return &rubric, nil
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	_, err := c.doRequest(ctx, "GET", "/health", nil)
	return err
}

// call performs a request and decodes the envelope into out (may be nil)
func (c *Client) call(ctx context.Context, method, path string, body io.Reader, out interface{}) error {
	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(resp, &envelope); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !envelope.Success {
		if envelope.Error != nil {
			return fmt.Errorf("API error: %s - %s", envelope.Error.Code, envelope.Error.Message)
		}
		return fmt.Errorf("API error: request failed")
	}

	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("failed to unmarshal response data: %w", err)
		}
	}
	return nil
}

// doRequest performs an HTTP request
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}
