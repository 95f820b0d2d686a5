package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/innovacall/review-portal/internal/models"
	"github.com/innovacall/review-portal/internal/scoring"
	"github.com/innovacall/review-portal/internal/storage"
	"github.com/innovacall/review-portal/internal/workflow"
)

// SubmitReview saves the caller's review of the project, draft or final.
// Finalizing a review re-evaluates the quorum inside the same transaction:
// reaching it flips the project to reviewed and stores the aggregated
// score atomically with the review write.
func (s *Service) SubmitReview(ctx context.Context, caller *models.Caller, projectID string, req models.SubmitReviewRequest) (*models.SubmitReviewResponse, error) {
	var resp *models.SubmitReviewResponse

	err := s.withProjectLock(ctx, projectID, func(ctx context.Context, tx storage.Repository, changes *[]models.StatusEvent) error {
		p, err := tx.GetProject(ctx, projectID)
		if err != nil {
			return err
		}

		staffReview := caller.Role.IsStaff() && s.policy.AllowStaffReview
		if !p.HasReviewer(caller.ID) && !staffReview {
			return fmt.Errorf("%w: %s on project %s", ErrNotAssignedReviewer, caller.ID, projectID)
		}

		// Staff may still edit finalized reviews after the project
		// reached reviewed; everyone else only while reviewable.
		if !p.Status.Reviewable() && !(p.Status == models.StatusReviewed && caller.Role.IsStaff()) {
			return fmt.Errorf("%w: %q does not accept reviews in %q", workflow.ErrInvalidTransition, p.ID, p.Status)
		}

		category, err := tx.GetCategory(ctx, p.CategoryID)
		if err != nil {
			return err
		}
		if !category.Rubric.HasSections() {
			return fmt.Errorf("category %s: %w", category.ID, scoring.ErrMissingRubric)
		}

		reviewScore, err := scoring.ScoreReview(category.Rubric, req.Scores)
		if err != nil {
			return err
		}

		now := time.Now().UTC()

		rv, err := tx.GetProjectReview(ctx, projectID, caller.ID)
		switch {
		case err == nil:
			if rv.Finalized() && !caller.Role.IsStaff() {
				return fmt.Errorf("%w: finalized review may only be edited by staff", ErrForbidden)
			}
			rv.Scores = req.Scores
			rv.Comments = req.Comments
			rv.GeneralObservations = req.GeneralObservations
			rv.IsDraft = req.IsDraft
			rv.Score = reviewScore
			rv.UpdatedAt = now
			if err := tx.UpdateReview(ctx, rv); err != nil {
				return err
			}
		case errors.Is(err, storage.ErrNotFound):
			rv = &models.Review{
				ID:                  uuid.New().String(),
				ProjectID:           projectID,
				ReviewerID:          caller.ID,
				Scores:              req.Scores,
				Comments:            req.Comments,
				GeneralObservations: req.GeneralObservations,
				IsDraft:             req.IsDraft,
				Score:               reviewScore,
				CreatedAt:           now,
				UpdatedAt:           now,
			}
			if err := tx.CreateReview(ctx, rv); err != nil {
				return err
			}
		default:
			return err
		}

		quorum := models.Quorum{Required: category.MinReviews}

		if !req.IsDraft {
			// An unlisted staff reviewer who finalizes joins the
			// reviewer set as part of the same save.
			if !p.HasReviewer(caller.ID) {
				p.Reviewers = append(p.Reviewers, caller.ID)
			}

			if p.Status.Reviewable() {
				if err := applyTransition(p, workflow.EventReviewFinalized, changes); err != nil {
					return err
				}
			}

			reviews, err := tx.ListProjectReviews(ctx, projectID)
			if err != nil {
				return err
			}

			quorum = EvaluateQuorum(reviews, category.MinReviews)

			if quorum.Satisfied && p.Status == models.StatusReviewing {
				p.Score = scoring.ScoreProject(reviews)
				if err := applyTransition(p, workflow.EventQuorumReached, changes); err != nil {
					return err
				}
			} else if p.Status == models.StatusReviewed {
				// Staff edit of a finalized review after quorum:
				// keep the aggregate in step.
				p.Score = scoring.ScoreProject(reviews)
			}
		} else {
			reviews, err := tx.ListProjectReviews(ctx, projectID)
			if err != nil {
				return err
			}
			quorum = EvaluateQuorum(reviews, category.MinReviews)

			// A staff save can demote a finalized review back to draft
			// while the project is already reviewed. Regress the project
			// the same way a delete would.
			if p.Status == models.StatusReviewed {
				if quorum.Satisfied {
					p.Score = scoring.ScoreProject(reviews)
				} else {
					p.Score = nil
					if err := applyTransition(p, workflow.EventQuorumLost, changes); err != nil {
						return err
					}
				}
			}
		}

		p.UpdatedAt = now
		if err := tx.UpdateProject(ctx, p); err != nil {
			return err
		}

		resp = &models.SubmitReviewResponse{
			ReviewID:      rv.ID,
			ReviewScore:   rv.Score,
			ProjectStatus: p.Status,
			Quorum:        quorum,
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	slog.Info("review saved",
		"project_id", projectID,
		"reviewer", caller.ID,
		"draft", req.IsDraft,
		"status", resp.ProjectStatus,
	)

	return resp, nil
}

// GetProjectReviews lists all reviews saved against a project, with
// their per-criterion scores and comments.
func (s *Service) GetProjectReviews(ctx context.Context, caller *models.Caller, projectID string) ([]*models.Review, error) {
	if caller.Role == models.RoleGuest {
		return nil, fmt.Errorf("%w: guests cannot read reviews", ErrForbidden)
	}

	if _, err := s.repo.GetProject(ctx, projectID); err != nil {
		return nil, err
	}

	return s.repo.ListProjectReviews(ctx, projectID)
}

// DeleteReview removes a review. Dropping a finalized review below the
// quorum regresses the project from reviewed back to reviewing and
// clears its aggregated score.
func (s *Service) DeleteReview(ctx context.Context, caller *models.Caller, reviewID string) error {
	if !caller.Role.IsStaff() {
		return fmt.Errorf("%w: deleting reviews requires admin or coordinator", ErrForbidden)
	}

	rv, err := s.repo.GetReview(ctx, reviewID)
	if err != nil {
		return err
	}

	return s.withProjectLock(ctx, rv.ProjectID, func(ctx context.Context, tx storage.Repository, changes *[]models.StatusEvent) error {
		if err := tx.DeleteReview(ctx, reviewID); err != nil {
			return err
		}

		p, err := tx.GetProject(ctx, rv.ProjectID)
		if err != nil {
			return err
		}

		category, err := tx.GetCategory(ctx, p.CategoryID)
		if err != nil {
			return err
		}

		reviews, err := tx.ListProjectReviews(ctx, rv.ProjectID)
		if err != nil {
			return err
		}

		quorum := EvaluateQuorum(reviews, category.MinReviews)

		if p.Status == models.StatusReviewed {
			if quorum.Satisfied {
				p.Score = scoring.ScoreProject(reviews)
			} else {
				p.Score = nil
				if err := applyTransition(p, workflow.EventQuorumLost, changes); err != nil {
					return err
				}
			}
		}

		p.UpdatedAt = time.Now().UTC()
		return tx.UpdateProject(ctx, p)
	})
}
