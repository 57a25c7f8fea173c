package repository

import (
	"context"
	"errors"

	"github.com/SergeiKhy/hashlink/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	shortCodeConstraint   = "links_short_code_key"
	originalURLConstraint = "links_original_url_key"

	pgUniqueViolation = "23505"
)

// LinkRepository stores links. Implementations enforce short code and URL
// uniqueness themselves; Insert never relies on a prior existence check.
type LinkRepository interface {
	FindByURL(ctx context.Context, originalURL string) (*models.Link, error)
	FindByCode(ctx context.Context, code string) (*models.Link, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	Insert(ctx context.Context, originalURL, code string) (*models.Link, error)
	IncrementClicks(ctx context.Context, code string) (bool, error)
	ListAll(ctx context.Context) ([]models.Link, error)
}

type linkRepository struct {
	db *PostgresDB
}

func NewLinkRepository(db *PostgresDB) LinkRepository {
	return &linkRepository{db: db}
}

const selectLink = `SELECT id, short_code, original_url, created_at, clicks FROM links`

func (r *linkRepository) FindByURL(ctx context.Context, originalURL string) (*models.Link, error) {
	return r.findOne(ctx, "find link by url", selectLink+` WHERE original_url = $1`, originalURL)
}

func (r *linkRepository) FindByCode(ctx context.Context, code string) (*models.Link, error) {
	return r.findOne(ctx, "find link by code", selectLink+` WHERE short_code = $1`, code)
}

func (r *linkRepository) findOne(ctx context.Context, op, query string, arg string) (*models.Link, error) {
	link := &models.Link{}
	err := r.db.Pool.QueryRow(ctx, query, arg).Scan(
		&link.ID,
		&link.ShortCode,
		&link.OriginalURL,
		&link.CreatedAt,
		&link.Clicks,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, storageError(op, err)
	}

	return link, nil
}

func (r *linkRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM links WHERE short_code = $1)`

	var exists bool
	if err := r.db.Pool.QueryRow(ctx, query, code).Scan(&exists); err != nil {
		return false, storageError("check short code", err)
	}

	return exists, nil
}

func (r *linkRepository) Insert(ctx context.Context, originalURL, code string) (*models.Link, error) {
	query := `
		INSERT INTO links (short_code, original_url)
		VALUES ($1, $2)
		RETURNING id, created_at, clicks
	`

	link := &models.Link{
		ShortCode:   code,
		OriginalURL: originalURL,
	}

	err := r.db.Pool.QueryRow(ctx, query, code, originalURL).Scan(
		&link.ID,
		&link.CreatedAt,
		&link.Clicks,
	)

	if err != nil {
		if mapped := uniqueViolation(err); mapped != nil {
			return nil, mapped
		}
		return nil, storageError("create link", err)
	}

	return link, nil
}

func (r *linkRepository) IncrementClicks(ctx context.Context, code string) (bool, error) {
	query := `UPDATE links SET clicks = clicks + 1 WHERE short_code = $1`

	result, err := r.db.Pool.Exec(ctx, query, code)
	if err != nil {
		return false, storageError("increment clicks", err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *linkRepository) ListAll(ctx context.Context) ([]models.Link, error) {
	rows, err := r.db.Pool.Query(ctx, selectLink+` ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, storageError("list links", err)
	}
	defer rows.Close()

	links := []models.Link{}
	for rows.Next() {
		var link models.Link
		if err := rows.Scan(&link.ID, &link.ShortCode, &link.OriginalURL, &link.CreatedAt, &link.Clicks); err != nil {
			return nil, storageError("scan link", err)
		}
		links = append(links, link)
	}

	if err := rows.Err(); err != nil {
		return nil, storageError("iterate links", err)
	}

	return links, nil
}

// uniqueViolation maps a postgres unique violation to ErrCodeExists or
// ErrURLExists and returns nil for anything else.
func uniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return nil
	}

	switch pgErr.ConstraintName {
	case shortCodeConstraint:
		return ErrCodeExists
	case originalURLConstraint:
		return ErrURLExists
	default:
		return nil
	}
}
