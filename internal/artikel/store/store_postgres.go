package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"metrologi/internal/artikel/models"
	"metrologi/pkg/platform/sentinel"
)

const uniqueViolation = pq.ErrorCode("23505")

// PostgresStore persists articles in the artikel table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectColumns = `
	id, judul, slug, ringkasan, konten, gambar, penulis, status, published_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*models.Article, error) {
	var (
		a           models.Article
		status      string
		image       sql.NullString
		publishedAt sql.NullTime
	)
	if err := row.Scan(
		&a.ID, &a.Title, &a.Slug, &a.Excerpt, &a.Content, &image, &a.Author, &status,
		&publishedAt, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	a.Status = models.Status(status)
	if image.Valid {
		v := image.String
		a.ImageURL = &v
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		a.PublishedAt = &t
	}
	return &a, nil
}

func mapWriteError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s: %s", sentinel.ErrConflict, op, pqErr.Constraint)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func nullable[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}

func (s *PostgresStore) Create(ctx context.Context, a *models.Article) error {
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}
	query := `
		INSERT INTO artikel (judul, slug, ringkasan, konten, gambar, penulis, status, published_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, query,
		a.Title, a.Slug, a.Excerpt, a.Content, nullable(a.ImageURL), a.Author, string(a.Status),
		nullable(a.PublishedAt), a.CreatedAt, a.UpdatedAt,
	).Scan(&a.ID)
	if err != nil {
		return mapWriteError("insert artikel", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, a *models.Article) error {
	query := `
		UPDATE artikel
		SET judul = $2, slug = $3, ringkasan = $4, konten = $5, gambar = $6, penulis = $7,
		    status = $8, published_at = $9, updated_at = $10
		WHERE id = $1
		RETURNING created_at
	`
	err := s.db.QueryRowContext(ctx, query,
		a.ID, a.Title, a.Slug, a.Excerpt, a.Content, nullable(a.ImageURL), a.Author,
		string(a.Status), nullable(a.PublishedAt), a.UpdatedAt,
	).Scan(&a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return mapWriteError("update artikel", err)
	}
	return nil
}

// Execute loads the row FOR UPDATE, applies validate and mutate, and writes it
// back in one transaction.
func (s *PostgresStore) Execute(ctx context.Context, id int64, validate func(*models.Article) error, mutate func(*models.Article)) (*models.Article, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin artikel tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	a, err := scanArticle(tx.QueryRowContext(ctx, `SELECT`+selectColumns+` FROM artikel WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock artikel: %w", err)
	}
	if err := validate(a); err != nil {
		return nil, err
	}
	mutate(a)

	_, err = tx.ExecContext(ctx,
		`UPDATE artikel SET status = $2, published_at = $3, updated_at = $4 WHERE id = $1`,
		a.ID, string(a.Status), nullable(a.PublishedAt), a.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update artikel status: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit artikel tx: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM artikel WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete artikel: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete artikel rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*models.Article, error) {
	a, err := scanArticle(s.db.QueryRowContext(ctx, `SELECT`+selectColumns+` FROM artikel WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find artikel: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]models.Article, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list artikel: %v", sentinel.ErrUnavailable, err)
	}
	defer rows.Close()
	var out []models.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan artikel: %w", err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate artikel: %v", sentinel.ErrUnavailable, err)
	}
	return out, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]models.Article, error) {
	return s.list(ctx, `SELECT`+selectColumns+` FROM artikel ORDER BY created_at DESC, id DESC`)
}

func (s *PostgresStore) ListPublished(ctx context.Context, limit int) ([]models.Article, error) {
	return s.list(ctx, `SELECT`+selectColumns+` FROM artikel
		WHERE status = 'published'
		ORDER BY published_at DESC, id DESC
		LIMIT $1`, limit)
}
