package models

import (
	"time"
)

// Review holds one reviewer's scores for one project.
// The (ProjectID, ReviewerID) pair is unique.
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

// Finalized reports whether the review counts toward the project quorum
func (r *Review) Finalized() bool {
	return !r.IsDraft
}

// ReviewPolicy holds call-level settings that govern who may review.
// Passed explicitly into the review service, never read from globals.
type ReviewPolicy struct {
	// AllowStaffReview lets admins and coordinators save reviews for
	// projects they were not assigned to; finalizing one adds them to
	// the project's reviewer set.
	AllowStaffReview bool `json:"allow_staff_review"`
}

// Quorum is the derived review-completion state of a project
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
	ReviewID      string        `json:"review_id"`
	ReviewScore   float64       `json:"review_score"`
	ProjectStatus ProjectStatus `json:"project_status"`
	Quorum        Quorum        `json:"quorum"`
}
