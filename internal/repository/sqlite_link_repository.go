package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/SergeiKhy/hashlink/internal/models"
)

type sqliteLinkRepository struct {
	db  *SQLiteDB
	now func() time.Time
}

// linkRow is the sqlite representation of a link; created_at is kept in
// unix microseconds.
type linkRow struct {
	ID          int64  `db:"id"`
	ShortCode   string `db:"short_code"`
	OriginalURL string `db:"original_url"`
	CreatedAt   int64  `db:"created_at"`
	Clicks      int64  `db:"clicks"`
}

func (r linkRow) toModel() models.Link {
	return models.Link{
		ID:          r.ID,
		ShortCode:   r.ShortCode,
		OriginalURL: r.OriginalURL,
		CreatedAt:   time.UnixMicro(r.CreatedAt).UTC(),
		Clicks:      r.Clicks,
	}
}

func NewSQLiteLinkRepository(db *SQLiteDB) LinkRepository {
	return &sqliteLinkRepository{db: db, now: time.Now}
}

const selectLinkRow = `SELECT id, short_code, original_url, created_at, clicks FROM links`

func (r *sqliteLinkRepository) FindByURL(ctx context.Context, originalURL string) (*models.Link, error) {
	return r.findOne(ctx, "find link by url", selectLinkRow+` WHERE original_url = ?`, originalURL)
}

func (r *sqliteLinkRepository) FindByCode(ctx context.Context, code string) (*models.Link, error) {
	return r.findOne(ctx, "find link by code", selectLinkRow+` WHERE short_code = ?`, code)
}

func (r *sqliteLinkRepository) findOne(ctx context.Context, op, query, arg string) (*models.Link, error) {
	var row linkRow
	if err := r.db.DB.GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, storageError(op, err)
	}

	link := row.toModel()
	return &link, nil
}

func (r *sqliteLinkRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.DB.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM links WHERE short_code = ?)`, code)
	if err != nil {
		return false, storageError("check short code", err)
	}
	return exists, nil
}

func (r *sqliteLinkRepository) Insert(ctx context.Context, originalURL, code string) (*models.Link, error) {
	row := linkRow{
		ShortCode:   code,
		OriginalURL: originalURL,
		CreatedAt:   r.now().UTC().UnixMicro(),
	}

	err := r.db.DB.QueryRowxContext(ctx,
		`INSERT INTO links (short_code, original_url, created_at, clicks) VALUES (?, ?, ?, 0) RETURNING id`,
		row.ShortCode, row.OriginalURL, row.CreatedAt,
	).Scan(&row.ID)
	if err != nil {
		if mapped := sqliteUniqueViolation(err); mapped != nil {
			return nil, mapped
		}
		return nil, storageError("create link", err)
	}

	link := row.toModel()
	return &link, nil
}

func (r *sqliteLinkRepository) IncrementClicks(ctx context.Context, code string) (bool, error) {
	result, err := r.db.DB.ExecContext(ctx, `UPDATE links SET clicks = clicks + 1 WHERE short_code = ?`, code)
	if err != nil {
		return false, storageError("increment clicks", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, storageError("increment clicks", err)
	}

	return affected > 0, nil
}

func (r *sqliteLinkRepository) ListAll(ctx context.Context) ([]models.Link, error) {
	var rows []linkRow
	if err := r.db.DB.SelectContext(ctx, &rows, selectLinkRow+` ORDER BY created_at DESC, id DESC`); err != nil {
		return nil, storageError("list links", err)
	}

	links := make([]models.Link, 0, len(rows))
	for _, row := range rows {
		links = append(links, row.toModel())
	}
	return links, nil
}

// sqliteUniqueViolation recognises "UNIQUE constraint failed: links.<column>"
// errors from both the modernc and libsql drivers.
func sqliteUniqueViolation(err error) error {
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return nil
	}

	switch {
	case strings.Contains(msg, "links.short_code"):
		return ErrCodeExists
	case strings.Contains(msg, "links.original_url"):
		return ErrURLExists
	default:
		return nil
	}
}
