package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"metrologi/internal/notifikasi/models"
	"metrologi/pkg/platform/sentinel"
)

// PostgresStore persists notifications in the notifikasi table. Partial
// unique indexes enforce one notification per request and kind, and one per
// business, kind and expiry date.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func nullableDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(models.ExpiryDateLayout)
}

func (s *PostgresStore) Create(ctx context.Context, n *models.Notification) error {
	createdAt := n.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	query := `
		INSERT INTO notifikasi (jenis, judul, pesan, pelaku_usaha_id, permohonan_id, tanggal_kedaluwarsa, dibaca, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT DO NOTHING
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, query,
		string(n.Kind), n.Title, n.Message, nullableID(n.PelakuUsahaID), nullableID(n.PermohonanID), nullableDate(n.ExpiryDate), n.Read, createdAt,
	).Scan(&n.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert notifikasi: %w", err)
	}
	n.CreatedAt = createdAt
	return nil
}

func (s *PostgresStore) List(ctx context.Context, unreadOnly bool, limit int) ([]models.Notification, error) {
	query := `
		SELECT id, jenis, judul, pesan, pelaku_usaha_id, permohonan_id, tanggal_kedaluwarsa, dibaca, created_at
		FROM notifikasi
		WHERE ($1 = false OR dibaca = false)
		ORDER BY created_at DESC, id DESC
	`
	args := []any{unreadOnly}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list notifikasi: %v", sentinel.ErrUnavailable, err)
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		var (
			n       models.Notification
			kind    string
			pelaku  sql.NullInt64
			request sql.NullInt64
			expiry  sql.NullTime
		)
		if err := rows.Scan(&n.ID, &kind, &n.Title, &n.Message, &pelaku, &request, &expiry, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notifikasi: %w", err)
		}
		n.Kind = models.Kind(kind)
		if pelaku.Valid {
			v := pelaku.Int64
			n.PelakuUsahaID = &v
		}
		if request.Valid {
			v := request.Int64
			n.PermohonanID = &v
		}
		if expiry.Valid {
			v := expiry.Time
			n.ExpiryDate = &v
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate notifikasi: %v", sentinel.ErrUnavailable, err)
	}
	return out, nil
}

func (s *PostgresStore) Summary(ctx context.Context) (models.Summary, error) {
	var sum models.Summary
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FILTER (WHERE dibaca = false), COUNT(*) FROM notifikasi`,
	).Scan(&sum.Unread, &sum.Total)
	if err != nil {
		return models.Summary{}, fmt.Errorf("count notifikasi: %w", err)
	}
	return sum, nil
}

func (s *PostgresStore) MarkRead(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE notifikasi SET dibaca = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark notifikasi read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark notifikasi rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) MarkAllRead(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE notifikasi SET dibaca = true WHERE dibaca = false`)
	if err != nil {
		return 0, fmt.Errorf("mark all notifikasi read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark all notifikasi rows affected: %w", err)
	}
	return int(n), nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notifikasi WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete notifikasi: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete notifikasi rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
