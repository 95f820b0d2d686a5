package storage

import (
	"context"
	"errors"

	"github.com/innovacall/review-portal/internal/models"
)

// Common errors
var (
	// ErrNotFound signals a missing record
	ErrNotFound = errors.New("record not found")

	// ErrConflict signals a lost transactional race; callers may retry
	ErrConflict = errors.New("concurrent modification")
)

// Repository defines the interface for portal persistence
type Repository interface {
	// Projects
	CreateProject(ctx context.Context, p *models.Project) error
	GetProject(ctx context.Context, id string) (*models.Project, error)
	UpdateProject(ctx context.Context, p *models.Project) error
	ListProjects(ctx context.Context, filters models.ListFilters) ([]*models.Project, error)

	// Reviews
	CreateReview(ctx context.Context, r *models.Review) error
	GetReview(ctx context.Context, id string) (*models.Review, error)
	GetProjectReview(ctx context.Context, projectID, reviewerID string) (*models.Review, error)
	UpdateReview(ctx context.Context, r *models.Review) error
	DeleteReview(ctx context.Context, id string) error
	ListProjectReviews(ctx context.Context, projectID string) ([]*models.Review, error)

	// Calls and categories
	CreateCall(ctx context.Context, c *models.Call) error
	GetCall(ctx context.Context, id string) (*models.Call, error)
	UpdateCall(ctx context.Context, c *models.Call) error
	GetExpiredCalls(ctx context.Context) ([]*models.Call, error)
	CreateCategory(ctx context.Context, c *models.Category) error
	GetCategory(ctx context.Context, id string) (*models.Category, error)
	UpdateCategory(ctx context.Context, c *models.Category) error

	// API callers
	GetCallerByApiKey(ctx context.Context, apiKey string) (*models.Caller, error)
	UpdateCallerLastUsed(ctx context.Context, apiKey string) error

	// WithinTx runs fn against a repository bound to a single serializable
	// transaction. fn returning an error rolls everything back. A
	// serialization failure is retried once before surfacing ErrConflict.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Repository) error) error

	// Health
	Ping(ctx context.Context) error
	Close() error
}
