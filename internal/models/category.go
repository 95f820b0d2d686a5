package models

import (
	"time"
)

// CallStatus represents the lifecycle state of a call
type CallStatus string

const (
	CallDraft  CallStatus = "draft"
	CallActive CallStatus = "active"
	CallClosed CallStatus = "closed"
)

// Call is a time-boxed competition holding categories
type Call struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Status    CallStatus `json:"status"`
	Deadline  time.Time  `json:"deadline"`
	CreatedAt time.Time  `json:"created_at"`
}

// PastDeadline checks if the submission window has elapsed
func (c *Call) PastDeadline() bool {
	return time.Now().After(c.Deadline)
}

// Category is a competition track within a call. It carries the scoring
// rubric, the review quorum size, the approval cutoff and the document
// types a submission must include.
type Category struct {
	ID                    string   `json:"id"`
	CallID                string   `json:"call_id"`
	Name                  string   `json:"name"`
	MinReviews            int      `json:"min_reviews"`
	CutoffScore           float64  `json:"cutoff_score"`
	RubricID              string   `json:"rubric_id,omitempty"`
	Rubric                *Rubric  `json:"rubric,omitempty"`
	RequiredDocumentTypes []string `json:"required_document_types,omitempty"`
}
