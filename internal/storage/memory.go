package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/innovacall/review-portal/internal/models"
)

// MemoryRepository is an in-memory Repository used in tests and local
// development. WithinTx copies the whole store, runs fn against the copy
// and swaps it in on success, which gives the same all-or-nothing
// semantics as the Postgres implementation.
type MemoryRepository struct {
	mu    sync.Mutex
	store *memStore
	inTx  bool
}

type memStore struct {
	projects   map[string]*models.Project
	reviews    map[string]*models.Review
	calls      map[string]*models.Call
	categories map[string]*models.Category
	callers    map[string]*models.Caller // keyed by api key
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{store: newMemStore()}
}

func newMemStore() *memStore {
	return &memStore{
		projects:   make(map[string]*models.Project),
		reviews:    make(map[string]*models.Review),
		calls:      make(map[string]*models.Call),
		categories: make(map[string]*models.Category),
		callers:    make(map[string]*models.Caller),
	}
}

func (s *memStore) clone() *memStore {
	c := newMemStore()
	for k, v := range s.projects {
		c.projects[k] = cloneProject(v)
	}
	for k, v := range s.reviews {
		c.reviews[k] = cloneReview(v)
	}
	for k, v := range s.calls {
		cp := *v
		c.calls[k] = &cp
	}
	for k, v := range s.categories {
		cp := *v
		c.categories[k] = &cp
	}
	for k, v := range s.callers {
		cp := *v
		c.callers[k] = &cp
	}
	return c
}

func cloneProject(p *models.Project) *models.Project {
	cp := *p
	cp.Participants = append([]string(nil), p.Participants...)
	cp.Reviewers = append([]string(nil), p.Reviewers...)
	cp.Documents = append([]models.Document(nil), p.Documents...)
	if p.Score != nil {
		score := *p.Score
		cp.Score = &score
	}
	if p.SubmittedAt != nil {
		t := *p.SubmittedAt
		cp.SubmittedAt = &t
	}
	if p.Correction != nil {
		cr := *p.Correction
		cr.Fields = append([]string(nil), p.Correction.Fields...)
		cr.Documents = append([]string(nil), p.Correction.Documents...)
		if p.Correction.SubmittedAt != nil {
			t := *p.Correction.SubmittedAt
			cr.SubmittedAt = &t
		}
		cp.Correction = &cr
	}
	return &cp
}

func cloneReview(r *models.Review) *models.Review {
	cp := *r
	cp.Scores = make(map[string]float64, len(r.Scores))
	for k, v := range r.Scores {
		cp.Scores[k] = v
	}
	if r.Comments != nil {
		cp.Comments = make(map[string]string, len(r.Comments))
		for k, v := range r.Comments {
			cp.Comments[k] = v
		}
	}
	return &cp
}

func (r *MemoryRepository) lock() func() {
	if r.inTx {
		return func() {}
	}
	r.mu.Lock()
	return r.mu.Unlock
}

// WithinTx runs fn against a copy of the store and commits it on success
func (r *MemoryRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Repository) error) error {
	if r.inTx {
		return fn(ctx, r)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	txRepo := &MemoryRepository{store: r.store.clone(), inTx: true}
	if err := fn(ctx, txRepo); err != nil {
		return err
	}

	r.store = txRepo.store
	return nil
}

// --- Projects ---

func (r *MemoryRepository) CreateProject(ctx context.Context, p *models.Project) error {
	defer r.lock()()
	if _, ok := r.store.projects[p.ID]; ok {
		return fmt.Errorf("project %s already exists: %w", p.ID, ErrConflict)
	}
	r.store.projects[p.ID] = cloneProject(p)
	return nil
}

func (r *MemoryRepository) GetProject(ctx context.Context, id string) (*models.Project, error) {
	defer r.lock()()
	p, ok := r.store.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	return cloneProject(p), nil
}

func (r *MemoryRepository) UpdateProject(ctx context.Context, p *models.Project) error {
	defer r.lock()()
	if _, ok := r.store.projects[p.ID]; !ok {
		return fmt.Errorf("project %s: %w", p.ID, ErrNotFound)
	}
	r.store.projects[p.ID] = cloneProject(p)
	return nil
}

func (r *MemoryRepository) ListProjects(ctx context.Context, filters models.ListFilters) ([]*models.Project, error) {
	defer r.lock()()

	var projects []*models.Project
	for _, p := range r.store.projects {
		if filters.CallID != "" && p.CallID != filters.CallID {
			continue
		}
		if filters.CategoryID != "" && p.CategoryID != filters.CategoryID {
			continue
		}
		if filters.Status != "" && p.Status != filters.Status {
			continue
		}
		if filters.ReviewerID != "" && !p.HasReviewer(filters.ReviewerID) {
			continue
		}
		projects = append(projects, cloneProject(p))
	}

	sort.Slice(projects, func(i, j int) bool {
		return projects[i].CreatedAt.After(projects[j].CreatedAt)
	})

	if filters.Offset > 0 {
		if filters.Offset >= len(projects) {
			return nil, nil
		}
		projects = projects[filters.Offset:]
	}
	if filters.Limit > 0 && filters.Limit < len(projects) {
		projects = projects[:filters.Limit]
	}

	return projects, nil
}

// --- Reviews ---

func (r *MemoryRepository) CreateReview(ctx context.Context, rv *models.Review) error {
	defer r.lock()()
	for _, existing := range r.store.reviews {
		if existing.ProjectID == rv.ProjectID && existing.ReviewerID == rv.ReviewerID {
			return fmt.Errorf("review for project %s by %s already exists: %w", rv.ProjectID, rv.ReviewerID, ErrConflict)
		}
	}
	r.store.reviews[rv.ID] = cloneReview(rv)
	return nil
}

func (r *MemoryRepository) GetReview(ctx context.Context, id string) (*models.Review, error) {
	defer r.lock()()
	rv, ok := r.store.reviews[id]
	if !ok {
		return nil, fmt.Errorf("review %s: %w", id, ErrNotFound)
	}
	return cloneReview(rv), nil
}

func (r *MemoryRepository) GetProjectReview(ctx context.Context, projectID, reviewerID string) (*models.Review, error) {
	defer r.lock()()
	for _, rv := range r.store.reviews {
		if rv.ProjectID == projectID && rv.ReviewerID == reviewerID {
			return cloneReview(rv), nil
		}
	}
	return nil, fmt.Errorf("review for project %s by %s: %w", projectID, reviewerID, ErrNotFound)
}

func (r *MemoryRepository) UpdateReview(ctx context.Context, rv *models.Review) error {
	defer r.lock()()
	if _, ok := r.store.reviews[rv.ID]; !ok {
		return fmt.Errorf("review %s: %w", rv.ID, ErrNotFound)
	}
	r.store.reviews[rv.ID] = cloneReview(rv)
	return nil
}

func (r *MemoryRepository) DeleteReview(ctx context.Context, id string) error {
	defer r.lock()()
	if _, ok := r.store.reviews[id]; !ok {
		return fmt.Errorf("review %s: %w", id, ErrNotFound)
	}
	delete(r.store.reviews, id)
	return nil
}

func (r *MemoryRepository) ListProjectReviews(ctx context.Context, projectID string) ([]*models.Review, error) {
	defer r.lock()()

	var reviews []*models.Review
	for _, rv := range r.store.reviews {
		if rv.ProjectID == projectID {
			reviews = append(reviews, cloneReview(rv))
		}
	}

	sort.Slice(reviews, func(i, j int) bool {
		return reviews[i].CreatedAt.Before(reviews[j].CreatedAt)
	})

	return reviews, nil
}

// --- Calls ---

func (r *MemoryRepository) CreateCall(ctx context.Context, c *models.Call) error {
	defer r.lock()()
	cp := *c
	r.store.calls[c.ID] = &cp
	return nil
}

func (r *MemoryRepository) GetCall(ctx context.Context, id string) (*models.Call, error) {
	defer r.lock()()
	c, ok := r.store.calls[id]
	if !ok {
		return nil, fmt.Errorf("call %s: %w", id, ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (r *MemoryRepository) UpdateCall(ctx context.Context, c *models.Call) error {
	defer r.lock()()
	if _, ok := r.store.calls[c.ID]; !ok {
		return fmt.Errorf("call %s: %w", c.ID, ErrNotFound)
	}
	cp := *c
	r.store.calls[c.ID] = &cp
	return nil
}

func (r *MemoryRepository) GetExpiredCalls(ctx context.Context) ([]*models.Call, error) {
	defer r.lock()()

	now := time.Now()
	var calls []*models.Call
	for _, c := range r.store.calls {
		if c.Status == models.CallActive && c.Deadline.Before(now) {
			cp := *c
			calls = append(calls, &cp)
		}
	}

	sort.Slice(calls, func(i, j int) bool {
		return calls[i].Deadline.Before(calls[j].Deadline)
	})

	return calls, nil
}

// --- Categories ---

func (r *MemoryRepository) CreateCategory(ctx context.Context, c *models.Category) error {
	defer r.lock()()
	cp := *c
	r.store.categories[c.ID] = &cp
	return nil
}

func (r *MemoryRepository) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	defer r.lock()()
	c, ok := r.store.categories[id]
	if !ok {
		return nil, fmt.Errorf("category %s: %w", id, ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (r *MemoryRepository) UpdateCategory(ctx context.Context, c *models.Category) error {
	defer r.lock()()
	if _, ok := r.store.categories[c.ID]; !ok {
		return fmt.Errorf("category %s: %w", c.ID, ErrNotFound)
	}
	cp := *c
	r.store.categories[c.ID] = &cp
	return nil
}

// --- API callers ---

// PutCaller registers a caller; test/dev helper, not part of Repository
func (r *MemoryRepository) PutCaller(c *models.Caller) {
	defer r.lock()()
	cp := *c
	r.store.callers[c.ApiKey] = &cp
}

func (r *MemoryRepository) GetCallerByApiKey(ctx context.Context, apiKey string) (*models.Caller, error) {
	defer r.lock()()
	c, ok := r.store.callers[apiKey]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *MemoryRepository) UpdateCallerLastUsed(ctx context.Context, apiKey string) error {
	defer r.lock()()
	if c, ok := r.store.callers[apiKey]; ok {
		now := time.Now()
		c.LastUsedAt = &now
	}
	return nil
}

// --- Health ---

func (r *MemoryRepository) Ping(ctx context.Context) error { return nil }

func (r *MemoryRepository) Close() error { return nil }
