// Package review orchestrates the project review workflow: review saves,
// quorum evaluation, the precorrection cycle and lifecycle decisions.
// Every mutating operation takes the project lock and runs in one
// storage transaction, so quorum evaluation and the resulting status and
// score writes are never torn apart by a concurrent writer.
package review

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/innovacall/review-portal/internal/events"
	"github.com/innovacall/review-portal/internal/locking"
	"github.com/innovacall/review-portal/internal/models"
	"github.com/innovacall/review-portal/internal/storage"
	"github.com/innovacall/review-portal/internal/workflow"
)

// Service implements the review workflow operations
type Service struct {
	repo        storage.Repository
	locks       locking.Locker
	bus         events.Bus
	policy      models.ReviewPolicy
	lockTimeout time.Duration
}

// NewService creates a review service. bus may be nil when no status feed
// is wanted (tests).
func NewService(repo storage.Repository, locks locking.Locker, bus events.Bus, policy models.ReviewPolicy) *Service {
	return &Service{
		repo:        repo,
		locks:       locks,
		bus:         bus,
		policy:      policy,
		lockTimeout: 5 * time.Second,
	}
}

// withProjectLock serializes the mutation against other writers of the
// same project, then runs fn inside one storage transaction. Status
// changes recorded by fn are published only after the commit.
func (s *Service) withProjectLock(ctx context.Context, projectID string, fn func(ctx context.Context, tx storage.Repository, changes *[]models.StatusEvent) error) error {
	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	release, err := s.locks.Acquire(lockCtx, projectID)
	if err != nil {
		return err
	}
	defer release()

	var changes []models.StatusEvent
	err = s.repo.WithinTx(ctx, func(ctx context.Context, tx storage.Repository) error {
		changes = changes[:0] // the transaction may retry
		return fn(ctx, tx, &changes)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, changes)
	return nil
}

func (s *Service) publish(ctx context.Context, changes []models.StatusEvent) {
	if s.bus == nil {
		return
	}
	for _, ev := range changes {
		if err := s.bus.PublishStatus(ctx, ev); err != nil {
			slog.Warn("failed to publish status event",
				"project_id", ev.ProjectID,
				"from", ev.From,
				"to", ev.To,
				"error", err,
			)
		}
	}
}

// applyTransition moves the project to the event's target status and
// records the change for post-commit publication.
func applyTransition(p *models.Project, ev workflow.Event, changes *[]models.StatusEvent) error {
	next, err := workflow.Next(p.Status, ev)
	if err != nil {
		return err
	}

	if next == p.Status {
		return nil
	}

	*changes = append(*changes, models.StatusEvent{
		ProjectID: p.ID,
		From:      p.Status,
		To:        next,
		Score:     p.Score,
		At:        time.Now().UTC(),
	})
	p.Status = next
	return nil
}

// CreateProjectInput carries a new draft submission
type CreateProjectInput struct {
	CallID       string            `json:"call_id"`
	CategoryID   string            `json:"category_id"`
	Title        string            `json:"title"`
	Participants []string          `json:"participants,omitempty"`
	Documents    []models.Document `json:"documents,omitempty"`
}

// CreateProject registers a draft project for the caller
func (s *Service) CreateProject(ctx context.Context, caller *models.Caller, in CreateProjectInput) (*models.Project, error) {
	if caller.Role == models.RoleGuest || caller.Role == models.RoleReviewer {
		return nil, fmt.Errorf("%w: role %s cannot create projects", ErrForbidden, caller.Role)
	}

	call, err := s.repo.GetCall(ctx, in.CallID)
	if err != nil {
		return nil, err
	}
	if call.Status != models.CallActive || call.PastDeadline() {
		return nil, fmt.Errorf("%w: call %s", ErrCallClosed, call.ID)
	}

	if _, err := s.repo.GetCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &models.Project{
		ID:           uuid.New().String(),
		CallID:       in.CallID,
		CategoryID:   in.CategoryID,
		Title:        in.Title,
		PresenterID:  caller.ID,
		Participants: in.Participants,
		Status:       models.StatusDraft,
		Documents:    stampDocuments(in.Documents, caller.ID, now),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.CreateProject(ctx, p); err != nil {
		return nil, err
	}

	slog.Info("project created", "project_id", p.ID, "call_id", p.CallID, "presenter", caller.ID)
	return p, nil
}

func stampDocuments(docs []models.Document, uploadedBy string, at time.Time) []models.Document {
	for i := range docs {
		if docs[i].ID == "" {
			docs[i].ID = uuid.New().String()
		}
		if docs[i].UploadedBy == "" {
			docs[i].UploadedBy = uploadedBy
		}
		if docs[i].UploadedAt.IsZero() {
			docs[i].UploadedAt = at
		}
	}
	return docs
}

// GetProject returns a project by id
func (s *Service) GetProject(ctx context.Context, id string) (*models.Project, error) {
	return s.repo.GetProject(ctx, id)
}

// ListProjects returns projects matching filters
func (s *Service) ListProjects(ctx context.Context, filters models.ListFilters) ([]*models.Project, error) {
	return s.repo.ListProjects(ctx, filters)
}

// Submit moves a draft project to submitted, guarded on the category's
// required document types all being present.
func (s *Service) Submit(ctx context.Context, caller *models.Caller, projectID string) (models.ProjectStatus, error) {
	var status models.ProjectStatus

	err := s.withProjectLock(ctx, projectID, func(ctx context.Context, tx storage.Repository, changes *[]models.StatusEvent) error {
		p, err := tx.GetProject(ctx, projectID)
		if err != nil {
			return err
		}

		if !p.HasParticipant(caller.ID) && !caller.Role.IsStaff() {
			return fmt.Errorf("%w: only participants may submit", ErrForbidden)
		}

		call, err := tx.GetCall(ctx, p.CallID)
		if err != nil {
			return err
		}
		if call.Status != models.CallActive || call.PastDeadline() {
			return fmt.Errorf("%w: call %s", ErrCallClosed, call.ID)
		}

		category, err := tx.GetCategory(ctx, p.CategoryID)
		if err != nil {
			return err
		}
		if missing := p.MissingDocumentTypes(category.RequiredDocumentTypes); len(missing) > 0 {
			return fmt.Errorf("%w: %v", ErrMissingDocuments, missing)
		}

		if err := applyTransition(p, workflow.EventSubmit, changes); err != nil {
			return err
		}

		now := time.Now().UTC()
		p.SubmittedAt = &now
		p.UpdatedAt = now
		status = p.Status

		return tx.UpdateProject(ctx, p)
	})

	return status, err
}

// AssignReviewers stores the project's reviewer set and moves it into
// reviewing. Reviewers who participate in the project are rejected.
func (s *Service) AssignReviewers(ctx context.Context, caller *models.Caller, projectID string, reviewerIDs []string) error {
	if !caller.Role.IsStaff() {
		return fmt.Errorf("%w: assigning reviewers requires admin or coordinator", ErrForbidden)
	}

	return s.withProjectLock(ctx, projectID, func(ctx context.Context, tx storage.Repository, changes *[]models.StatusEvent) error {
		p, err := tx.GetProject(ctx, projectID)
		if err != nil {
			return err
		}

		seen := make(map[string]bool, len(reviewerIDs))
		reviewers := make([]string, 0, len(reviewerIDs))
		for _, id := range reviewerIDs {
			if p.HasParticipant(id) {
				return fmt.Errorf("%w: %s", ErrConflictOfInterest, id)
			}
			if !seen[id] {
				seen[id] = true
				reviewers = append(reviewers, id)
			}
		}

		if err := applyTransition(p, workflow.EventAssignReviewers, changes); err != nil {
			return err
		}

		p.Reviewers = reviewers
		p.UpdatedAt = time.Now().UTC()

		return tx.UpdateProject(ctx, p)
	})
}

// FinalDecision applies the admin approve/reject decision against the
// category cutoff score.
func (s *Service) FinalDecision(ctx context.Context, caller *models.Caller, projectID string) (models.ProjectStatus, error) {
	if caller.Role != models.RoleAdmin {
		return "", fmt.Errorf("%w: final decision requires admin", ErrForbidden)
	}

	var status models.ProjectStatus

	err := s.withProjectLock(ctx, projectID, func(ctx context.Context, tx storage.Repository, changes *[]models.StatusEvent) error {
		p, err := tx.GetProject(ctx, projectID)
		if err != nil {
			return err
		}

		if p.Score == nil {
			return fmt.Errorf("%w: project %s", ErrNoAggregateScore, p.ID)
		}

		category, err := tx.GetCategory(ctx, p.CategoryID)
		if err != nil {
			return err
		}

		ev := workflow.FinalDecisionEvent(*p.Score, category.CutoffScore)
		if err := applyTransition(p, ev, changes); err != nil {
			return err
		}

		p.UpdatedAt = time.Now().UTC()
		status = p.Status

		return tx.UpdateProject(ctx, p)
	})

	return status, err
}
