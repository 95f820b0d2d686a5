package models

import (
	"time"
)

// ProjectStatus represents the lifecycle state of a project
type ProjectStatus string

const (
	StatusDraft                ProjectStatus = "draft"
	StatusSubmitted            ProjectStatus = "submitted"
	StatusReviewing            ProjectStatus = "reviewing"
	StatusNeedsCorrection      ProjectStatus = "needs_correction"
	StatusCorrectionInProgress ProjectStatus = "correction_in_progress"
	StatusCorrectionSubmitted  ProjectStatus = "correction_submitted"
	StatusReviewed             ProjectStatus = "reviewed"
	StatusApproved             ProjectStatus = "approved"
	StatusRejected             ProjectStatus = "rejected"
)

// IsTerminal returns true if the status is a final state
func (s ProjectStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// InCorrection returns true while the project is inside the correction sub-flow
func (s ProjectStatus) InCorrection() bool {
	return s == StatusNeedsCorrection || s == StatusCorrectionInProgress || s == StatusCorrectionSubmitted
}

// Reviewable returns true if reviewers may save scores against the project
func (s ProjectStatus) Reviewable() bool {
	return s == StatusReviewing || s == StatusCorrectionSubmitted
}

// Project represents a submitted innovation project inside a call
type Project struct {
	ID           string             `json:"id"`
	CallID       string             `json:"call_id"`
	CategoryID   string             `json:"category_id"`
	Title        string             `json:"title"`
	PresenterID  string             `json:"presenter_id"`
	Participants []string           `json:"participants,omitempty"`
	Status       ProjectStatus      `json:"status"`
	Score        *float64           `json:"score,omitempty"`
	Reviewers    []string           `json:"reviewers,omitempty"`
	Documents    []Document         `json:"documents,omitempty"`
	Correction   *CorrectionRequest `json:"correction,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	SubmittedAt  *time.Time         `json:"submitted_at,omitempty"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// Document is an opaque uploaded file reference tagged with the
// submission requirement it satisfies.
type Document struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	RequirementType string    `json:"requirement_type"`
	Corrected       bool      `json:"corrected,omitempty"`
	UploadedBy      string    `json:"uploaded_by,omitempty"`
	UploadedAt      time.Time `json:"uploaded_at"`
}

// CorrectionRequest records a precorrection decision asking the presenter
// to fix part of the submission.
type CorrectionRequest struct {
	Observations string     `json:"observations"`
	RequestedBy  string     `json:"requested_by"`
	RequestedAt  time.Time  `json:"requested_at"`
	SubmittedAt  *time.Time `json:"submitted_at,omitempty"`
	Fields       []string   `json:"fields,omitempty"`
	Documents    []string   `json:"documents,omitempty"`
}

// HasReviewer checks membership in the assigned reviewer set
func (p *Project) HasReviewer(userID string) bool {
	for _, id := range p.Reviewers {
		if id == userID {
			return true
		}
	}
	return false
}

// HasParticipant returns true if the user presents or collaborates on the project
func (p *Project) HasParticipant(userID string) bool {
	if p.PresenterID == userID {
		return true
	}
	for _, id := range p.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

// MissingDocumentTypes returns the required types with no uploaded document
func (p *Project) MissingDocumentTypes(required []string) []string {
	present := make(map[string]bool, len(p.Documents))
	for _, d := range p.Documents {
		present[d.RequirementType] = true
	}

	var missing []string
	for _, t := range required {
		if !present[t] {
			missing = append(missing, t)
		}
	}
	return missing
}

// ListFilters defines filters for listing projects
type ListFilters struct {
	CallID     string
	CategoryID string
	Status     ProjectStatus
	ReviewerID string
	Limit      int
	Offset     int
}

// StatusEvent is published whenever a project changes status
type StatusEvent struct {
	ProjectID string        `json:"project_id"`
	From      ProjectStatus `json:"from"`
	To        ProjectStatus `json:"to"`
	Score     *float64      `json:"score,omitempty"`
	At        time.Time     `json:"at"`
}
