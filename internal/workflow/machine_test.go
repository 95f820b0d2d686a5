package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innovacall/review-portal/internal/models"
)

func TestNextHappyPath(t *testing.T) {
	steps := []struct {
		from models.ProjectStatus
		ev   Event
		to   models.ProjectStatus
	}{
		{models.StatusDraft, EventSubmit, models.StatusSubmitted},
		{models.StatusSubmitted, EventAssignReviewers, models.StatusReviewing},
		{models.StatusReviewing, EventPrecorrectionApprove, models.StatusReviewing},
		{models.StatusReviewing, EventReviewFinalized, models.StatusReviewing},
		{models.StatusReviewing, EventQuorumReached, models.StatusReviewed},
		{models.StatusReviewed, EventFinalApprove, models.StatusApproved},
	}

	for _, step := range steps {
		next, err := Next(step.from, step.ev)
		require.NoError(t, err, "event %s from %s", step.ev, step.from)
		assert.Equal(t, step.to, next)
	}
}

func TestNextCorrectionCycle(t *testing.T) {
	next, err := Next(models.StatusReviewing, EventRequestCorrection)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNeedsCorrection, next)

	next, err = Next(next, EventStartCorrection)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCorrectionInProgress, next)

	next, err = Next(next, EventResubmitCorrection)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCorrectionSubmitted, next)

	// Resubmitting straight from needs_correction is also allowed
	next, err = Next(models.StatusNeedsCorrection, EventResubmitCorrection)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCorrectionSubmitted, next)

	// A finalized review over the resubmission puts it back into scoring
	next, err = Next(models.StatusCorrectionSubmitted, EventReviewFinalized)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReviewing, next)
}

func TestNextQuorumRegression(t *testing.T) {
	next, err := Next(models.StatusReviewed, EventQuorumLost)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReviewing, next)
}

func TestNextRejectsInvalidTransitions(t *testing.T) {
	invalid := []struct {
		from models.ProjectStatus
		ev   Event
	}{
		{models.StatusDraft, EventQuorumReached},
		{models.StatusSubmitted, EventSubmit},
		{models.StatusReviewing, EventFinalApprove},
		{models.StatusReviewed, EventRequestCorrection},
		{models.StatusApproved, EventSubmit},
		{models.StatusRejected, EventReviewFinalized},
	}

	for _, c := range invalid {
		_, err := Next(c.from, c.ev)
		assert.ErrorIs(t, err, ErrInvalidTransition, "event %s from %s", c.ev, c.from)
	}
}

func TestNextUnknownEvent(t *testing.T) {
	_, err := Next(models.StatusDraft, Event("launch"))
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	events := []Event{
		EventSubmit, EventAssignReviewers, EventRequestCorrection,
		EventStartCorrection, EventResubmitCorrection, EventReviewFinalized,
		EventQuorumReached, EventQuorumLost, EventPrecorrectionReject,
		EventPrecorrectionApprove, EventFinalApprove, EventFinalReject,
	}

	for _, status := range []models.ProjectStatus{models.StatusApproved, models.StatusRejected} {
		require.True(t, status.IsTerminal())
		for _, ev := range events {
			assert.False(t, Allowed(status, ev), "event %s allowed from terminal %s", ev, status)
		}
	}
}

func TestFinalDecisionEvent(t *testing.T) {
	assert.Equal(t, EventFinalApprove, FinalDecisionEvent(6.0, 5.0))
	assert.Equal(t, EventFinalApprove, FinalDecisionEvent(5.0, 5.0)) // cutoff is inclusive
	assert.Equal(t, EventFinalReject, FinalDecisionEvent(4.9, 5.0))
}
