package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linkhive/linkhive/internal"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/rs/zerolog/log"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type linkRow struct {
	ID            string         `db:"id"`
	OriginalURL   string         `db:"original_url"`
	ShortCode     string         `db:"short_code"`
	Description   sql.NullString `db:"description"`
	ClickCount    int64          `db:"click_count"`
	CreatedAt     Date           `db:"created_at"`
	CreatedBy     string         `db:"created_by"`
	CreatedByName string         `db:"created_by_name"`
	TenantID      string         `db:"tenant_id"`
}

var linkColumns = []any{
	"id", "original_url", "short_code", "description", "click_count",
	"created_at", "created_by", "created_by_name", "tenant_id",
}

type LinksRepo struct {
	db *sql.DB
}

func NewLinksRepo(db *sql.DB) *LinksRepo {
	return &LinksRepo{db: db}
}

// Create inserts the link. A unique-index violation on short_code is
// translated to internal.ErrShortCodeExists so the service can decide
// between conflict and retry.
func (r *LinksRepo) Create(ctx context.Context, link *internal.Link) error {
	executor := goqu.New("sqlite", r.db)

	log.Debug().Str("short_code", link.ShortCode).Str("url", link.OriginalURL).Msg("creating link")

	query := executor.Insert("links").
		Cols("id", "original_url", "short_code", "description", "click_count",
			"created_at", "created_by", "created_by_name", "tenant_id").
		Vals([]any{
			link.ID, link.OriginalURL, link.ShortCode, link.Description, link.ClickCount,
			Date(link.CreatedAt), link.CreatedBy, link.CreatedByName, link.TenantID,
		})

	if _, err := query.Executor().ExecContext(ctx); err != nil {
		if isUniqueViolation(err) {
			log.Debug().Str("short_code", link.ShortCode).Msg("short code collided at insert")
			return internal.ErrShortCodeExists
		}
		log.Error().Err(err).Str("short_code", link.ShortCode).Msg("failed to create link")
		return err
	}

	log.Info().Str("id", link.ID).Str("short_code", link.ShortCode).Msg("link created successfully")
	return nil
}

// GetByID fetches a link regardless of tenant; the service applies the
// tenant check so "wrong tenant" and "missing" produce the same error.
func (r *LinksRepo) GetByID(ctx context.Context, id string) (*internal.Link, error) {
	return r.getOne(ctx, goqu.Ex{"id": id})
}

// GetByCode fetches a link by its short code (exact match, tenant-agnostic).
func (r *LinksRepo) GetByCode(ctx context.Context, shortCode string) (*internal.Link, error) {
	return r.getOne(ctx, goqu.Ex{"short_code": shortCode})
}

func (r *LinksRepo) getOne(ctx context.Context, where goqu.Ex) (*internal.Link, error) {
	executor := goqu.New("sqlite", r.db)

	query := executor.From("links").Where(where).Select(linkColumns...)

	var row linkRow
	found, err := query.Executor().ScanStructContext(ctx, &row)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch link")
		return nil, err
	}
	if !found {
		return nil, internal.ErrLinkNotFound
	}

	return row.toDomain(), nil
}

// ListByTenant returns all links owned by the tenant, newest first.
func (r *LinksRepo) ListByTenant(ctx context.Context, tenantID string) ([]*internal.Link, error) {
	executor := goqu.New("sqlite", r.db)

	query := executor.From("links").
		Where(goqu.Ex{"tenant_id": tenantID}).
		Select(linkColumns...).
		Order(goqu.C("created_at").Desc(), goqu.C("id").Desc())

	var rows []linkRow
	if err := query.Executor().ScanStructsContext(ctx, &rows); err != nil {
		return nil, err
	}

	links := make([]*internal.Link, len(rows))
	for i, row := range rows {
		links[i] = row.toDomain()
	}
	return links, nil
}

// UpdateDescription persists a new description; nothing else is mutable.
func (r *LinksRepo) UpdateDescription(ctx context.Context, id, description string) error {
	executor := goqu.New("sqlite", r.db)

	query := executor.Update("links").
		Set(goqu.Record{"description": description}).
		Where(goqu.Ex{"id": id})

	result, err := query.Executor().ExecContext(ctx)
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("failed to update link")
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return internal.ErrLinkNotFound
	}
	return nil
}

// Delete removes the link; click rows cascade at the store level. Zero
// rows affected after a passing existence check is a consistency anomaly
// and is surfaced, not swallowed.
func (r *LinksRepo) Delete(ctx context.Context, id string) error {
	executor := goqu.New("sqlite", r.db)

	result, err := executor.Delete("links").Where(goqu.Ex{"id": id}).Executor().ExecContext(ctx)
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("failed to delete link")
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("delete of link %s affected no rows", id)
	}

	log.Info().Str("id", id).Msg("link deleted")
	return nil
}

// IncrementClickCount bumps the denormalized counter atomically in the
// store, never read-modify-write in application code.
func (r *LinksRepo) IncrementClickCount(ctx context.Context, id string) error {
	executor := goqu.New("sqlite", r.db)

	query := executor.Update("links").
		Set(goqu.Record{"click_count": goqu.L("click_count + 1")}).
		Where(goqu.Ex{"id": id})

	_, err := query.Executor().ExecContext(ctx)
	return err
}

func (r *linkRow) toDomain() *internal.Link {
	return &internal.Link{
		ID:            r.ID,
		OriginalURL:   r.OriginalURL,
		ShortCode:     r.ShortCode,
		Description:   r.Description.String,
		ClickCount:    r.ClickCount,
		CreatedAt:     r.CreatedAt.Time(),
		CreatedBy:     r.CreatedBy,
		CreatedByName: r.CreatedByName,
		TenantID:      r.TenantID,
	}
}

func isUniqueViolation(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	switch serr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}
