package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/innovacall/review-portal/internal/models"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so every query
// method works identically inside and outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db   querier
	pool *pgxpool.Pool // nil when the repository is bound to a transaction
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	// Set pool configuration
	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	} else {
		poolConfig.MaxConns = 25 // default
	}

	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	} else {
		poolConfig.MinConns = 5 // default
	}

	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{db: pool, pool: pool}, nil
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	if r.pool == nil {
		return nil
	}
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	if r.pool != nil {
		r.pool.Close()
	}
	return nil
}

// WithinTx runs fn against a repository bound to one serializable
// transaction, retrying once on serialization failure.
func (r *PostgresRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Repository) error) error {
	if r.pool == nil {
		// Already inside a transaction; run against it directly
		return fn(ctx, r)
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		err := r.runTx(ctx, fn)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("%w: %v", ErrConflict, lastErr)
}

func (r *PostgresRepository) runTx(ctx context.Context, fn func(ctx context.Context, tx Repository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txRepo := &PostgresRepository{db: tx}
	if err := fn(ctx, txRepo); err != nil {
		tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// isRetryable reports serialization failures and deadlocks
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

// isUniqueViolation reports a unique-constraint violation
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// scanner is the shared surface of pgx.Row and pgx.Rows
type scanner interface {
	Scan(dest ...any) error
}

// --- Projects ---

const projectColumns = `id, call_id, category_id, title, presenter_id, participants, status, score, reviewers, documents, correction, created_at, submitted_at, updated_at`

// CreateProject creates a new project record
func (r *PostgresRepository) CreateProject(ctx context.Context, p *models.Project) error {
	participantsJSON, err := json.Marshal(p.Participants)
	if err != nil {
		return fmt.Errorf("failed to marshal participants: %w", err)
	}

	reviewersJSON, err := json.Marshal(p.Reviewers)
	if err != nil {
		return fmt.Errorf("failed to marshal reviewers: %w", err)
	}

	documentsJSON, err := json.Marshal(p.Documents)
	if err != nil {
		return fmt.Errorf("failed to marshal documents: %w", err)
	}

	correctionJSON, err := marshalNullable(p.Correction)
	if err != nil {
		return fmt.Errorf("failed to marshal correction: %w", err)
	}

	query := `
		INSERT INTO projects (` + projectColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err = r.db.Exec(ctx, query,
		p.ID,
		p.CallID,
		p.CategoryID,
		p.Title,
		p.PresenterID,
		participantsJSON,
		string(p.Status),
		nullFloat(p.Score),
		reviewersJSON,
		documentsJSON,
		correctionJSON,
		p.CreatedAt,
		nullTime(p.SubmittedAt),
		p.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

// GetProject retrieves a project by ID
func (r *PostgresRepository) GetProject(ctx context.Context, id string) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`

	p, err := scanProject(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return p, nil
}

// UpdateProject updates an existing project
func (r *PostgresRepository) UpdateProject(ctx context.Context, p *models.Project) error {
	participantsJSON, err := json.Marshal(p.Participants)
	if err != nil {
		return fmt.Errorf("failed to marshal participants: %w", err)
	}

	reviewersJSON, err := json.Marshal(p.Reviewers)
	if err != nil {
		return fmt.Errorf("failed to marshal reviewers: %w", err)
	}

	documentsJSON, err := json.Marshal(p.Documents)
	if err != nil {
		return fmt.Errorf("failed to marshal documents: %w", err)
	}

	correctionJSON, err := marshalNullable(p.Correction)
	if err != nil {
		return fmt.Errorf("failed to marshal correction: %w", err)
	}

	query := `
		UPDATE projects
		SET title = $2, participants = $3, status = $4, score = $5, reviewers = $6, documents = $7, correction = $8, submitted_at = $9, updated_at = $10
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query,
		p.ID,
		p.Title,
		participantsJSON,
		string(p.Status),
		nullFloat(p.Score),
		reviewersJSON,
		documentsJSON,
		correctionJSON,
		nullTime(p.SubmittedAt),
		p.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("project %s: %w", p.ID, ErrNotFound)
	}

	return nil
}

// ListProjects returns projects matching filters
func (r *PostgresRepository) ListProjects(ctx context.Context, filters models.ListFilters) ([]*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE 1=1`
	args := make([]any, 0)
	argNum := 1

	if filters.CallID != "" {
		query += fmt.Sprintf(" AND call_id = $%d", argNum)
		args = append(args, filters.CallID)
		argNum++
	}

	if filters.CategoryID != "" {
		query += fmt.Sprintf(" AND category_id = $%d", argNum)
		args = append(args, filters.CategoryID)
		argNum++
	}

	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, string(filters.Status))
		argNum++
	}

	if filters.ReviewerID != "" {
		query += fmt.Sprintf(" AND reviewers @> $%d", argNum)
		reviewerJSON, _ := json.Marshal([]string{filters.ReviewerID})
		args = append(args, reviewerJSON)
		argNum++
	}

	query += " ORDER BY created_at DESC"

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filters.Limit)
		argNum++
	}

	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, filters.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}

	return projects, nil
}

func scanProject(row scanner) (*models.Project, error) {
	var p models.Project
	var statusStr string
	var score sql.NullFloat64
	var submittedAt sql.NullTime
	var participantsJSON, reviewersJSON, documentsJSON, correctionJSON []byte

	err := row.Scan(
		&p.ID,
		&p.CallID,
		&p.CategoryID,
		&p.Title,
		&p.PresenterID,
		&participantsJSON,
		&statusStr,
		&score,
		&reviewersJSON,
		&documentsJSON,
		&correctionJSON,
		&p.CreatedAt,
		&submittedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Status = models.ProjectStatus(statusStr)

	if score.Valid {
		p.Score = &score.Float64
	}
	if submittedAt.Valid {
		p.SubmittedAt = &submittedAt.Time
	}

	if err := json.Unmarshal(participantsJSON, &p.Participants); err != nil {
		return nil, fmt.Errorf("failed to unmarshal participants: %w", err)
	}
	if err := json.Unmarshal(reviewersJSON, &p.Reviewers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reviewers: %w", err)
	}
	if err := json.Unmarshal(documentsJSON, &p.Documents); err != nil {
		return nil, fmt.Errorf("failed to unmarshal documents: %w", err)
	}
	if correctionJSON != nil {
		if err := json.Unmarshal(correctionJSON, &p.Correction); err != nil {
			return nil, fmt.Errorf("failed to unmarshal correction: %w", err)
		}
	}

	return &p, nil
}

// --- Reviews ---

const reviewColumns = `id, project_id, reviewer_id, scores, comments, general_observations, is_draft, score, created_at, updated_at`

// CreateReview creates a new review record
func (r *PostgresRepository) CreateReview(ctx context.Context, rv *models.Review) error {
	scoresJSON, err := json.Marshal(rv.Scores)
	if err != nil {
		return fmt.Errorf("failed to marshal scores: %w", err)
	}

	commentsJSON, err := json.Marshal(rv.Comments)
	if err != nil {
		return fmt.Errorf("failed to marshal comments: %w", err)
	}

	query := `
		INSERT INTO reviews (` + reviewColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = r.db.Exec(ctx, query,
		rv.ID,
		rv.ProjectID,
		rv.ReviewerID,
		scoresJSON,
		commentsJSON,
		nullString(rv.GeneralObservations),
		rv.IsDraft,
		rv.Score,
		rv.CreatedAt,
		rv.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("review for project %s by %s already exists: %w", rv.ProjectID, rv.ReviewerID, ErrConflict)
		}
		return fmt.Errorf("failed to create review: %w", err)
	}

	return nil
}

// GetReview retrieves a review by ID
func (r *PostgresRepository) GetReview(ctx context.Context, id string) (*models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`

	rv, err := scanReview(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("review %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	return rv, nil
}

// GetProjectReview retrieves the review a reviewer holds on a project
func (r *PostgresRepository) GetProjectReview(ctx context.Context, projectID, reviewerID string) (*models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE project_id = $1 AND reviewer_id = $2`

	rv, err := scanReview(r.db.QueryRow(ctx, query, projectID, reviewerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("review for project %s by %s: %w", projectID, reviewerID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	return rv, nil
}

// UpdateReview updates an existing review
func (r *PostgresRepository) UpdateReview(ctx context.Context, rv *models.Review) error {
	scoresJSON, err := json.Marshal(rv.Scores)
	if err != nil {
		return fmt.Errorf("failed to marshal scores: %w", err)
	}

	commentsJSON, err := json.Marshal(rv.Comments)
	if err != nil {
		return fmt.Errorf("failed to marshal comments: %w", err)
	}

	query := `
		UPDATE reviews
		SET scores = $2, comments = $3, general_observations = $4, is_draft = $5, score = $6, updated_at = $7
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query,
		rv.ID,
		scoresJSON,
		commentsJSON,
		nullString(rv.GeneralObservations),
		rv.IsDraft,
		rv.Score,
		rv.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("review %s: %w", rv.ID, ErrNotFound)
	}

	return nil
}

// DeleteReview deletes a review by ID
func (r *PostgresRepository) DeleteReview(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("review %s: %w", id, ErrNotFound)
	}

	return nil
}

// ListProjectReviews returns all reviews saved against a project
func (r *PostgresRepository) ListProjectReviews(ctx context.Context, projectID string) ([]*models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE project_id = $1 ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*models.Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}

	return reviews, nil
}

func scanReview(row scanner) (*models.Review, error) {
	var rv models.Review
	var observations sql.NullString
	var scoresJSON, commentsJSON []byte

	err := row.Scan(
		&rv.ID,
		&rv.ProjectID,
		&rv.ReviewerID,
		&scoresJSON,
		&commentsJSON,
		&observations,
		&rv.IsDraft,
		&rv.Score,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rv.GeneralObservations = observations.String

	if err := json.Unmarshal(scoresJSON, &rv.Scores); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scores: %w", err)
	}
	if commentsJSON != nil {
		if err := json.Unmarshal(commentsJSON, &rv.Comments); err != nil {
			return nil, fmt.Errorf("failed to unmarshal comments: %w", err)
		}
	}

	return &rv, nil
}

// --- Calls ---

// CreateCall creates a new call record
func (r *PostgresRepository) CreateCall(ctx context.Context, c *models.Call) error {
	query := `
		INSERT INTO calls (id, name, status, deadline, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Exec(ctx, query, c.ID, c.Name, string(c.Status), c.Deadline, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create call: %w", err)
	}

	return nil
}

// GetCall retrieves a call by ID
func (r *PostgresRepository) GetCall(ctx context.Context, id string) (*models.Call, error) {
	query := `SELECT id, name, status, deadline, created_at FROM calls WHERE id = $1`

	var c models.Call
	var statusStr string

	err := r.db.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &statusStr, &c.Deadline, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("call %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get call: %w", err)
	}

	c.Status = models.CallStatus(statusStr)
	return &c, nil
}

// UpdateCall updates an existing call
func (r *PostgresRepository) UpdateCall(ctx context.Context, c *models.Call) error {
	query := `UPDATE calls SET name = $2, status = $3, deadline = $4 WHERE id = $1`

	result, err := r.db.Exec(ctx, query, c.ID, c.Name, string(c.Status), c.Deadline)
	if err != nil {
		return fmt.Errorf("failed to update call: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("call %s: %w", c.ID, ErrNotFound)
	}

	return nil
}

// GetExpiredCalls returns active calls whose deadline has passed
func (r *PostgresRepository) GetExpiredCalls(ctx context.Context) ([]*models.Call, error) {
	query := `
		SELECT id, name, status, deadline, created_at
		FROM calls
		WHERE status = 'active'
		  AND deadline < NOW()
		ORDER BY deadline ASC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get expired calls: %w", err)
	}
	defer rows.Close()

	var calls []*models.Call
	for rows.Next() {
		var c models.Call
		var statusStr string

		if err := rows.Scan(&c.ID, &c.Name, &statusStr, &c.Deadline, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan call: %w", err)
		}

		c.Status = models.CallStatus(statusStr)
		calls = append(calls, &c)
	}

	return calls, rows.Err()
}

// --- Categories ---

// CreateCategory creates a new category record
func (r *PostgresRepository) CreateCategory(ctx context.Context, c *models.Category) error {
	rubricJSON, err := marshalNullable(c.Rubric)
	if err != nil {
		return fmt.Errorf("failed to marshal rubric: %w", err)
	}

	requiredJSON, err := json.Marshal(c.RequiredDocumentTypes)
	if err != nil {
		return fmt.Errorf("failed to marshal required document types: %w", err)
	}

	query := `
		INSERT INTO categories (id, call_id, name, min_reviews, cutoff_score, rubric_id, rubric, required_document_types)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = r.db.Exec(ctx, query,
		c.ID,
		c.CallID,
		c.Name,
		c.MinReviews,
		c.CutoffScore,
		nullString(c.RubricID),
		rubricJSON,
		requiredJSON,
	)

	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}

	return nil
}

// GetCategory retrieves a category by ID
func (r *PostgresRepository) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	query := `
		SELECT id, call_id, name, min_reviews, cutoff_score, rubric_id, rubric, required_document_types
		FROM categories
		WHERE id = $1
	`

	var c models.Category
	var rubricID sql.NullString
	var rubricJSON, requiredJSON []byte

	err := r.db.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.CallID,
		&c.Name,
		&c.MinReviews,
		&c.CutoffScore,
		&rubricID,
		&rubricJSON,
		&requiredJSON,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("category %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	c.RubricID = rubricID.String

	if rubricJSON != nil {
		if err := json.Unmarshal(rubricJSON, &c.Rubric); err != nil {
			return nil, fmt.Errorf("failed to unmarshal rubric: %w", err)
		}
	}
	if requiredJSON != nil {
		if err := json.Unmarshal(requiredJSON, &c.RequiredDocumentTypes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal required document types: %w", err)
		}
	}

	return &c, nil
}

// UpdateCategory updates an existing category
func (r *PostgresRepository) UpdateCategory(ctx context.Context, c *models.Category) error {
	rubricJSON, err := marshalNullable(c.Rubric)
	if err != nil {
		return fmt.Errorf("failed to marshal rubric: %w", err)
	}

	requiredJSON, err := json.Marshal(c.RequiredDocumentTypes)
	if err != nil {
		return fmt.Errorf("failed to marshal required document types: %w", err)
	}

	query := `
		UPDATE categories
		SET name = $2, min_reviews = $3, cutoff_score = $4, rubric_id = $5, rubric = $6, required_document_types = $7
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query,
		c.ID,
		c.Name,
		c.MinReviews,
		c.CutoffScore,
		nullString(c.RubricID),
		rubricJSON,
		requiredJSON,
	)

	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("category %s: %w", c.ID, ErrNotFound)
	}

	return nil
}

// --- API callers ---

// GetCallerByApiKey retrieves an API caller by its key
func (r *PostgresRepository) GetCallerByApiKey(ctx context.Context, apiKey string) (*models.Caller, error) {
	query := `
		SELECT id, name, api_key, role, is_active, created_at, last_used_at
		FROM api_callers
		WHERE api_key = $1
	`

	var c models.Caller
	var roleStr string
	var lastUsedAt sql.NullTime

	err := r.db.QueryRow(ctx, query, apiKey).Scan(
		&c.ID,
		&c.Name,
		&c.ApiKey,
		&roleStr,
		&c.IsActive,
		&c.CreatedAt,
		&lastUsedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get api caller: %w", err)
	}

	c.Role = models.Role(roleStr)
	if lastUsedAt.Valid {
		c.LastUsedAt = &lastUsedAt.Time
	}

	return &c, nil
}

// UpdateCallerLastUsed updates the last_used_at timestamp for a caller
func (r *PostgresRepository) UpdateCallerLastUsed(ctx context.Context, apiKey string) error {
	_, err := r.db.Exec(ctx, `UPDATE api_callers SET last_used_at = NOW() WHERE api_key = $1`, apiKey)
	if err != nil {
		return fmt.Errorf("failed to update caller last_used_at: %w", err)
	}

	return nil
}

// Helper functions for nullable values

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func marshalNullable(v any) ([]byte, error) {
	switch val := v.(type) {
	case *models.CorrectionRequest:
		if val == nil {
			return nil, nil
		}
	case *models.Rubric:
		if val == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}
