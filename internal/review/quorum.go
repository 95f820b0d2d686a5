package review

import (
	"context"

	"github.com/innovacall/review-portal/internal/models"
)

// EvaluateQuorum derives the review-completion state from the
// authoritative review set. Counting is always recomputed from the
// records, never incrementally maintained, so it stays correct under
// concurrent saves and deletions.
func EvaluateQuorum(reviews []*models.Review, required int) models.Quorum {
	var completed int
	for _, r := range reviews {
		if r.Finalized() {
			completed++
		}
	}

	return models.Quorum{
		Completed: completed,
		Required:  required,
		Satisfied: completed >= required,
	}
}

// ProjectQuorum reports the current quorum state of a project
func (s *Service) ProjectQuorum(ctx context.Context, projectID string) (models.Quorum, error) {
	p, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return models.Quorum{}, err
	}

	category, err := s.repo.GetCategory(ctx, p.CategoryID)
	if err != nil {
		return models.Quorum{}, err
	}

	reviews, err := s.repo.ListProjectReviews(ctx, projectID)
	if err != nil {
		return models.Quorum{}, err
	}

	return EvaluateQuorum(reviews, category.MinReviews), nil
}
