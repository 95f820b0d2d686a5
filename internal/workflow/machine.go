// Package workflow holds the project lifecycle state machine and the
// precorrection decision rules layered on top of it.
package workflow

import (
	"errors"
	"fmt"

	"github.com/innovacall/review-portal/internal/models"
)

// Common errors
var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidDecision   = errors.New("invalid precorrection decision")
)

// Event names a workflow occurrence that may move a project between statuses
type Event string

const (
	EventSubmit               Event = "submit"
	EventAssignReviewers      Event = "assign_reviewers"
	EventRequestCorrection    Event = "request_correction"
	EventStartCorrection      Event = "start_correction"
	EventResubmitCorrection   Event = "resubmit_correction"
	EventReviewFinalized      Event = "review_finalized"
	EventQuorumReached        Event = "quorum_reached"
	EventQuorumLost           Event = "quorum_lost"
	EventPrecorrectionReject  Event = "precorrection_reject"
	EventPrecorrectionApprove Event = "precorrection_approve"
	EventFinalApprove         Event = "final_approve"
	EventFinalReject          Event = "final_reject"
)

type transition struct {
	from []models.ProjectStatus
	to   models.ProjectStatus
}

// The transition table is the single source of truth for which statuses an
// event may fire from. Guards that need project data (documents present,
// observations non-empty, caller role) live in the review service; the table
// only constrains status shape.
var transitions = map[Event]transition{
	EventSubmit: {
		from: []models.ProjectStatus{models.StatusDraft},
		to:   models.StatusSubmitted,
	},
	EventAssignReviewers: {
		from: []models.ProjectStatus{models.StatusSubmitted, models.StatusReviewing},
		to:   models.StatusReviewing,
	},
	// Approving the precorrection gate keeps the project in scoring review.
	EventPrecorrectionApprove: {
		from: []models.ProjectStatus{models.StatusReviewing},
		to:   models.StatusReviewing,
	},
	EventRequestCorrection: {
		from: []models.ProjectStatus{models.StatusReviewing},
		to:   models.StatusNeedsCorrection,
	},
	EventPrecorrectionReject: {
		from: []models.ProjectStatus{models.StatusReviewing},
		to:   models.StatusRejected,
	},
	EventStartCorrection: {
		from: []models.ProjectStatus{models.StatusNeedsCorrection},
		to:   models.StatusCorrectionInProgress,
	},
	EventResubmitCorrection: {
		from: []models.ProjectStatus{models.StatusNeedsCorrection, models.StatusCorrectionInProgress},
		to:   models.StatusCorrectionSubmitted,
	},
	// Finalizing a review below quorum keeps (or puts back) the project in
	// reviewing; reaching quorum is applied as a separate event inside the
	// same transaction.
	EventReviewFinalized: {
		from: []models.ProjectStatus{models.StatusReviewing, models.StatusCorrectionSubmitted},
		to:   models.StatusReviewing,
	},
	EventQuorumReached: {
		from: []models.ProjectStatus{models.StatusReviewing},
		to:   models.StatusReviewed,
	},
	// Deleting a finalized review can drop a project back below quorum.
	EventQuorumLost: {
		from: []models.ProjectStatus{models.StatusReviewed},
		to:   models.StatusReviewing,
	},
	EventFinalApprove: {
		from: []models.ProjectStatus{models.StatusReviewed},
		to:   models.StatusApproved,
	},
	EventFinalReject: {
		from: []models.ProjectStatus{models.StatusReviewed},
		to:   models.StatusRejected,
	},
}

// Next returns the status the project moves to when ev fires from current.
// Returns ErrInvalidTransition when the event is not allowed from current.
func Next(current models.ProjectStatus, ev Event) (models.ProjectStatus, error) {
	t, ok := transitions[ev]
	if !ok {
		return current, fmt.Errorf("%w: unknown event %q", ErrInvalidTransition, ev)
	}

	for _, from := range t.from {
		if from == current {
			return t.to, nil
		}
	}

	return current, fmt.Errorf("%w: %q not allowed from %q", ErrInvalidTransition, ev, current)
}

// Allowed reports whether ev may fire from current
func Allowed(current models.ProjectStatus, ev Event) bool {
	_, err := Next(current, ev)
	return err == nil
}

// FinalDecisionEvent maps an aggregated score against the category cutoff
// to the admin final decision event.
func FinalDecisionEvent(score, cutoff float64) Event {
	if score >= cutoff {
		return EventFinalApprove
	}
	return EventFinalReject
}
