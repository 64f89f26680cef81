package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

// Migrations holds the schema of the short_links table.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory of Migrations that contains the sql files.
const MigrationsDir = "migrations"

const uniqueViolationErrCode = "23505"

func isUniqueViolationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.SQLState() == uniqueViolationErrCode
}

const linkColumns = `id, short_code, original_url, owner_id, click_count, created_at, expires_at`

type linkDB struct {
	ID          int64          `db:"id"`
	ShortCode   string         `db:"short_code"`
	OriginalURL string         `db:"original_url"`
	OwnerID     sql.NullString `db:"owner_id"`
	ClickCount  int64          `db:"click_count"`
	CreatedAt   time.Time      `db:"created_at"`
	ExpiresAt   time.Time      `db:"expires_at"`
}

func (l *linkDB) toEntity() *entity.ShortLink {
	return &entity.ShortLink{
		ID:          l.ID,
		ShortCode:   l.ShortCode,
		OriginalURL: l.OriginalURL,
		Owner:       l.OwnerID.String,
		ClickCount:  l.ClickCount,
		CreatedAt:   l.CreatedAt,
		ExpiresAt:   l.ExpiresAt,
	}
}

func ownerID(owner string) sql.NullString {
	return sql.NullString{String: owner, Valid: owner != ""}
}

type LinkRepository struct {
	db *sqlx.DB
}

func NewLinkRepository(db *sqlx.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

func (r *LinkRepository) Exists(ctx context.Context, shortCode string) (bool, error) {
	const op = "adapter.repository.postgres.LinkRepository.Exists"
	const query = `SELECT EXISTS(SELECT 1 FROM short_links WHERE short_code = $1)`

	var exists bool

	if err := r.db.GetContext(ctx, &exists, query, shortCode); err != nil {
		return false, fmt.Errorf("%s: failed to check short_links table: %w", op, err)
	}

	return exists, nil
}

// Insert stores the link. Uniqueness of the short code is enforced by the
// table constraint, so of two racing inserts exactly one succeeds.
func (r *LinkRepository) Insert(ctx context.Context, link *entity.ShortLink) (*entity.ShortLink, error) {
	const op = "adapter.repository.postgres.LinkRepository.Insert"
	const query = `INSERT INTO short_links(short_code, original_url, owner_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + linkColumns

	var row linkDB

	err := r.db.GetContext(ctx, &row, query,
		link.ShortCode, link.OriginalURL, ownerID(link.Owner), link.CreatedAt, link.ExpiresAt)
	if err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrShortCodeExists)
		}

		return nil, fmt.Errorf("%s: failed to insert into short_links table: %w", op, err)
	}

	return row.toEntity(), nil
}

func (r *LinkRepository) Lookup(ctx context.Context, shortCode string) (*entity.ShortLink, error) {
	const op = "adapter.repository.postgres.LinkRepository.Lookup"
	const query = `SELECT ` + linkColumns + ` FROM short_links WHERE short_code = $1`

	var row linkDB

	if err := r.db.GetContext(ctx, &row, query, shortCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get row from short_links table: %w", op, err)
	}

	return row.toEntity(), nil
}

func (r *LinkRepository) IncrementClicks(ctx context.Context, shortCode string) error {
	const op = "adapter.repository.postgres.LinkRepository.IncrementClicks"
	const query = `UPDATE short_links SET click_count = click_count + 1 WHERE short_code = $1`

	res, err := r.db.ExecContext(ctx, query, shortCode)
	if err != nil {
		return fmt.Errorf("%s: failed to update short_links table: %w", op, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get number of affected rows: %w", op, err)
	}

	if rowsAffected != 1 {
		return fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
	}

	return nil
}

func (r *LinkRepository) ListByOwner(ctx context.Context, owner string, limit int) ([]*entity.ShortLink, error) {
	const op = "adapter.repository.postgres.LinkRepository.ListByOwner"
	const query = `SELECT ` + linkColumns + ` FROM short_links
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	var rows []linkDB

	if err := r.db.SelectContext(ctx, &rows, query, owner, limit); err != nil {
		return nil, fmt.Errorf("%s: failed to select from short_links table: %w", op, err)
	}

	links := make([]*entity.ShortLink, 0, len(rows))
	for i := range rows {
		links = append(links, rows[i].toEntity())
	}

	return links, nil
}
