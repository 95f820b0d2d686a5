package review

import (
	"context"
	"fmt"
	"time"

	"github.com/innovacall/review-portal/internal/models"
	"github.com/innovacall/review-portal/internal/storage"
	"github.com/innovacall/review-portal/internal/workflow"
)

// RecordPrecorrectionDecision applies a reviewer's gate decision over a
// submission: approve keeps the project in review, correction stores the
// flagged fields/documents and asks the presenter to fix them, reject
// closes the project with the given observations.
func (s *Service) RecordPrecorrectionDecision(ctx context.Context, caller *models.Caller, projectID string, in workflow.PrecorrectionInput) (models.ProjectStatus, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}

	var status models.ProjectStatus

	err := s.withProjectLock(ctx, projectID, func(ctx context.Context, tx storage.Repository, changes *[]models.StatusEvent) error {
		p, err := tx.GetProject(ctx, projectID)
		if err != nil {
			return err
		}

		if !p.HasReviewer(caller.ID) && !caller.Role.IsStaff() {
			return fmt.Errorf("%w: precorrection decision requires an assigned reviewer or staff", ErrForbidden)
		}

		if err := applyTransition(p, in.Event(), changes); err != nil {
			return err
		}

		now := time.Now().UTC()
		if in.Decision != workflow.DecisionApprove {
			// Keeps the observations on record for rejects too
			p.Correction = in.CorrectionRequest(caller.ID, now)
		}

		p.UpdatedAt = now
		status = p.Status

		return tx.UpdateProject(ctx, p)
	})

	return status, err
}

// StartCorrection marks the presenter as working on the requested
// corrections.
func (s *Service) StartCorrection(ctx context.Context, caller *models.Caller, projectID string) (models.ProjectStatus, error) {
	var status models.ProjectStatus

	err := s.withProjectLock(ctx, projectID, func(ctx context.Context, tx storage.Repository, changes *[]models.StatusEvent) error {
		p, err := tx.GetProject(ctx, projectID)
		if err != nil {
			return err
		}

		if !p.HasParticipant(caller.ID) && !caller.Role.IsStaff() {
			return fmt.Errorf("%w: only participants may work on corrections", ErrForbidden)
		}

		if err := applyTransition(p, workflow.EventStartCorrection, changes); err != nil {
			return err
		}

		p.UpdatedAt = time.Now().UTC()
		status = p.Status

		return tx.UpdateProject(ctx, p)
	})

	return status, err
}

// ResubmitCorrection appends the corrected documents to the project and
// sends it back into review. Original documents are preserved.
func (s *Service) ResubmitCorrection(ctx context.Context, caller *models.Caller, projectID string, docs []models.Document) (models.ProjectStatus, error) {
	if len(docs) == 0 {
		return "", fmt.Errorf("%w: resubmission requires at least one corrected document", ErrMissingDocuments)
	}

	var status models.ProjectStatus

	err := s.withProjectLock(ctx, projectID, func(ctx context.Context, tx storage.Repository, changes *[]models.StatusEvent) error {
		p, err := tx.GetProject(ctx, projectID)
		if err != nil {
			return err
		}

		if !p.HasParticipant(caller.ID) && !caller.Role.IsStaff() {
			return fmt.Errorf("%w: only participants may resubmit corrections", ErrForbidden)
		}

		if err := applyTransition(p, workflow.EventResubmitCorrection, changes); err != nil {
			return err
		}

		now := time.Now().UTC()
		workflow.AppendCorrectedDocuments(p, stampDocuments(docs, caller.ID, now), now)

		p.UpdatedAt = now
		status = p.Status

		return tx.UpdateProject(ctx, p)
	})

	return status, err
}
