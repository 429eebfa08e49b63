package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/saasvalidator/page-service/internal/models"
)

// pqUniqueViolation is the PostgreSQL error code for unique constraint violations.
const pqUniqueViolation = "23505"

// pageColumns is the column list shared by all landing page queries.
const pageColumns = `id, owner_id, title, slug, content, status,
	views, conversions, analytics_updated_at, created_at, updated_at`

// pageRow is the flat scan target for landing_pages rows.
type pageRow struct {
	ID                 uuid.UUID     `db:"id"`
	OwnerID            uuid.UUID     `db:"owner_id"`
	Title              string        `db:"title"`
	Slug               string        `db:"slug"`
	Content            string        `db:"content"`
	Status             models.Status `db:"status"`
	Views              int64         `db:"views"`
	Conversions        int64         `db:"conversions"`
	AnalyticsUpdatedAt time.Time     `db:"analytics_updated_at"`
	CreatedAt          time.Time     `db:"created_at"`
	UpdatedAt          time.Time     `db:"updated_at"`
}

func (r *pageRow) toModel() *models.LandingPage {
	return &models.LandingPage{
		ID:      r.ID,
		OwnerID: r.OwnerID,
		Title:   r.Title,
		Slug:    r.Slug,
		Content: r.Content,
		Status:  r.Status,
		Analytics: models.Analytics{
			Views:       r.Views,
			Conversions: r.Conversions,
			LastUpdated: r.AnalyticsUpdatedAt,
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// PageRepository provides database operations for landing pages.
// Counter updates and status transitions are single conditional statements,
// so concurrent writers to the same row are serialized by the database.
type PageRepository struct {
	db *sqlx.DB
}

// NewPageRepository creates a new page repository.
func NewPageRepository(db *sqlx.DB) *PageRepository {
	return &PageRepository{db: db}
}

// Ping verifies the database connection.
func (r *PageRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Create inserts a new landing page. The partial unique index on
// (owner_id, slug) over non-archived rows backs slug uniqueness; a
// violation surfaces as models.ErrSlugConflict so the caller can
// re-run slug allocation.
func (r *PageRepository) Create(ctx context.Context, page *models.LandingPage) error {
	query := `
		INSERT INTO landing_pages (id, owner_id, title, slug, content, status,
			views, conversions, analytics_updated_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(
		ctx, query,
		page.ID, page.OwnerID, page.Title, page.Slug, page.Content, page.Status,
		page.Analytics.Views, page.Analytics.Conversions, page.Analytics.LastUpdated,
		page.CreatedAt, page.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return models.ErrSlugConflict
		}
		return fmt.Errorf("insert landing page: %w", err)
	}

	return nil
}

// GetByID retrieves a page by its id regardless of status.
func (r *PageRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.LandingPage, error) {
	row := &pageRow{}
	query := `SELECT ` + pageColumns + ` FROM landing_pages WHERE id = $1`

	if err := r.db.GetContext(ctx, row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("get landing page: %w", err)
	}

	return row.toModel(), nil
}

// GetBySlug retrieves a non-archived page for public lookup.
// Archived pages are invisible here so their slugs can be reclaimed.
func (r *PageRepository) GetBySlug(ctx context.Context, ownerID uuid.UUID, slug string) (*models.LandingPage, error) {
	row := &pageRow{}
	query := `
		SELECT ` + pageColumns + `
		FROM landing_pages
		WHERE owner_id = $1 AND slug = $2 AND status <> 'archived'
	`

	if err := r.db.GetContext(ctx, row, query, ownerID, slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("get landing page by slug: %w", err)
	}

	return row.toModel(), nil
}

// ListByOwner retrieves all of an owner's pages, newest first.
func (r *PageRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.LandingPage, error) {
	rows := []pageRow{}
	query := `
		SELECT ` + pageColumns + `
		FROM landing_pages
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`

	if err := r.db.SelectContext(ctx, &rows, query, ownerID); err != nil {
		return nil, fmt.Errorf("list landing pages: %w", err)
	}

	pages := make([]models.LandingPage, 0, len(rows))
	for i := range rows {
		pages = append(pages, *rows[i].toModel())
	}
	return pages, nil
}

// SlugExists reports whether the slug is taken by a non-archived page of
// the owner.
func (r *PageRepository) SlugExists(ctx context.Context, ownerID uuid.UUID, slug string) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM landing_pages
			WHERE owner_id = $1 AND slug = $2 AND status <> 'archived'
		)
	`

	if err := r.db.GetContext(ctx, &exists, query, ownerID, slug); err != nil {
		return false, fmt.Errorf("check slug existence: %w", err)
	}
	return exists, nil
}

// CountActiveByOwner returns the number of non-archived pages an owner has.
func (r *PageRepository) CountActiveByOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM landing_pages WHERE owner_id = $1 AND status <> 'archived'`

	if err := r.db.GetContext(ctx, &count, query, ownerID); err != nil {
		return 0, fmt.Errorf("count active pages: %w", err)
	}
	return count, nil
}

// UpdateTitle updates a page title for its owner.
func (r *PageRepository) UpdateTitle(ctx context.Context, ownerID, id uuid.UUID, title string) (*models.LandingPage, error) {
	row := &pageRow{}
	query := `
		UPDATE landing_pages
		SET title = $3, updated_at = now()
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + pageColumns

	err := r.db.QueryRowxContext(ctx, query, id, ownerID, title).StructScan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("update landing page title: %w", err)
	}

	return row.toModel(), nil
}

// UpdateStatus applies a status transition conditioned on the previously
// observed status. It returns false without error when the row was not in
// the expected state anymore, which the caller treats as a concurrent
// transition. A non-nil content is written together with the status; the
// generation pipeline is the only caller that supplies one.
func (r *PageRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	from, to models.Status,
	content *string,
) (bool, error) {
	var (
		result sql.Result
		err    error
	)

	if content != nil {
		query := `
			UPDATE landing_pages
			SET status = $3, content = $4, updated_at = now()
			WHERE id = $1 AND status = $2
		`
		result, err = r.db.ExecContext(ctx, query, id, from, to, *content)
	} else {
		query := `
			UPDATE landing_pages
			SET status = $3, updated_at = now()
			WHERE id = $1 AND status = $2
		`
		result, err = r.db.ExecContext(ctx, query, id, from, to)
	}
	if err != nil {
		return false, fmt.Errorf("update landing page status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return affected == 1, nil
}

// IncrementCounter bumps one analytics counter by exactly one using a
// server-side add, so concurrent events never lose updates. The analytics
// timestamp is clamped with GREATEST so out-of-order events cannot move it
// backward. Archived pages are excluded and reported as
// models.ErrPageNotAcceptingEvents.
func (r *PageRepository) IncrementCounter(
	ctx context.Context,
	id uuid.UUID,
	kind models.EventKind,
	at time.Time,
) (*models.Analytics, error) {
	var column string
	switch kind {
	case models.EventKindView:
		column = "views"
	case models.EventKindConversion:
		column = "conversions"
	default:
		return nil, fmt.Errorf("unknown event kind %q", kind)
	}

	snapshot := &models.Analytics{}
	query := `
		UPDATE landing_pages
		SET ` + column + ` = ` + column + ` + 1,
			analytics_updated_at = GREATEST(analytics_updated_at, $2),
			updated_at = now()
		WHERE id = $1 AND status <> 'archived'
		RETURNING views, conversions, analytics_updated_at
	`

	err := r.db.QueryRowxContext(ctx, query, id, at).StructScan(snapshot)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.classifyMissedIncrement(ctx, id)
		}
		return nil, fmt.Errorf("increment %s counter: %w", column, err)
	}

	return snapshot, nil
}

// classifyMissedIncrement distinguishes a missing page from an archived one
// after an increment matched no rows.
func (r *PageRepository) classifyMissedIncrement(ctx context.Context, id uuid.UUID) error {
	var status models.Status
	query := `SELECT status FROM landing_pages WHERE id = $1`

	err := r.db.GetContext(ctx, &status, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrNotFound
		}
		return fmt.Errorf("resolve page status: %w", err)
	}

	if status == models.StatusArchived {
		return models.ErrPageNotAcceptingEvents
	}
	return models.ErrNotFound
}
