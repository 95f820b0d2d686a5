package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innovacall/review-portal/internal/models"
)

func seedProject(t *testing.T, repo *MemoryRepository, id string) *models.Project {
	t.Helper()

	p := &models.Project{
		ID:         id,
		CallID:     "call-1",
		CategoryID: "technology",
		Title:      "Project " + id,
		Status:     models.StatusDraft,
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, repo.CreateProject(context.Background(), p))
	return p
}

func TestMemoryWithinTxCommits(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	seedProject(t, repo, "p1")

	err := repo.WithinTx(ctx, func(ctx context.Context, tx Repository) error {
		p, err := tx.GetProject(ctx, "p1")
		if err != nil {
			return err
		}
		p.Status = models.StatusSubmitted
		return tx.UpdateProject(ctx, p)
	})
	require.NoError(t, err)

	p, err := repo.GetProject(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, p.Status)
}

func TestMemoryWithinTxRollsBackOnError(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	seedProject(t, repo, "p1")

	boom := errors.New("boom")
	err := repo.WithinTx(ctx, func(ctx context.Context, tx Repository) error {
		p, err := tx.GetProject(ctx, "p1")
		if err != nil {
			return err
		}
		p.Status = models.StatusSubmitted
		if err := tx.UpdateProject(ctx, p); err != nil {
			return err
		}
		if err := tx.CreateReview(ctx, &models.Review{ID: "r1", ProjectID: "p1", ReviewerID: "rev-1"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	// Neither write survived
	p, err := repo.GetProject(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, p.Status)

	_, err = repo.GetReview(ctx, "r1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryReviewUniquePerReviewer(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	seedProject(t, repo, "p1")

	require.NoError(t, repo.CreateReview(ctx, &models.Review{
		ID: "r1", ProjectID: "p1", ReviewerID: "rev-1",
	}))

	err := repo.CreateReview(ctx, &models.Review{
		ID: "r2", ProjectID: "p1", ReviewerID: "rev-1",
	})
	assert.ErrorIs(t, err, ErrConflict)

	// Same reviewer on another project is fine
	seedProject(t, repo, "p2")
	require.NoError(t, repo.CreateReview(ctx, &models.Review{
		ID: "r3", ProjectID: "p2", ReviewerID: "rev-1",
	}))
}

func TestMemoryGetReturnsCopies(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	seedProject(t, repo, "p1")

	p, err := repo.GetProject(ctx, "p1")
	require.NoError(t, err)

	// Mutating the returned value must not leak into the store
	p.Status = models.StatusApproved
	p.Reviewers = append(p.Reviewers, "rev-1")

	again, err := repo.GetProject(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, again.Status)
	assert.Empty(t, again.Reviewers)
}

func TestMemoryListProjectsFilters(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	a := seedProject(t, repo, "p1")
	a.Status = models.StatusReviewing
	a.Reviewers = []string{"rev-1"}
	require.NoError(t, repo.UpdateProject(ctx, a))

	seedProject(t, repo, "p2")

	byStatus, err := repo.ListProjects(ctx, models.ListFilters{Status: models.StatusReviewing})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "p1", byStatus[0].ID)

	byReviewer, err := repo.ListProjects(ctx, models.ListFilters{ReviewerID: "rev-1"})
	require.NoError(t, err)
	require.Len(t, byReviewer, 1)
	assert.Equal(t, "p1", byReviewer[0].ID)

	all, err := repo.ListProjects(ctx, models.ListFilters{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	limited, err := repo.ListProjects(ctx, models.ListFilters{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	past, err := repo.ListProjects(ctx, models.ListFilters{Offset: 5})
	require.NoError(t, err)
	assert.Empty(t, past)
}

func TestMemoryGetExpiredCalls(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.CreateCall(ctx, &models.Call{
		ID: "past", Status: models.CallActive, Deadline: time.Now().Add(-time.Hour),
	}))
	require.NoError(t, repo.CreateCall(ctx, &models.Call{
		ID: "future", Status: models.CallActive, Deadline: time.Now().Add(time.Hour),
	}))
	require.NoError(t, repo.CreateCall(ctx, &models.Call{
		ID: "closed", Status: models.CallClosed, Deadline: time.Now().Add(-time.Hour),
	}))

	expired, err := repo.GetExpiredCalls(ctx)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "past", expired[0].ID)
}

func TestMemoryCallerLookup(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	repo.PutCaller(&models.Caller{ID: "u1", ApiKey: "key-1", Role: models.RoleAdmin, IsActive: true})

	c, err := repo.GetCallerByApiKey(ctx, "key-1")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, models.RoleAdmin, c.Role)

	// Unknown key is not an error, just absent
	c, err = repo.GetCallerByApiKey(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, c)
}
