package review

import "errors"

// Common errors
var (
	// ErrNotAssignedReviewer signals a review save by someone outside the
	// project's reviewer set without a permitting policy
	ErrNotAssignedReviewer = errors.New("caller is not an assigned reviewer")

	// ErrForbidden signals a role-gated operation called by the wrong role
	ErrForbidden = errors.New("operation not permitted for caller role")

	// ErrMissingDocuments signals a submission without the required documents
	ErrMissingDocuments = errors.New("required documents missing")

	// ErrCallClosed signals a submission into a call past its deadline
	ErrCallClosed = errors.New("call is closed for submissions")

	// ErrConflictOfInterest signals a reviewer assignment that overlaps the
	// project's participants
	ErrConflictOfInterest = errors.New("reviewer participates in the project")

	// ErrNoAggregateScore signals a final decision on a project without an
	// aggregated score
	ErrNoAggregateScore = errors.New("project has no aggregated score")
)
