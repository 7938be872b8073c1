package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"metrologi/internal/pelakuusaha/models"
	"metrologi/pkg/platform/sentinel"
)

// PostgresStore persists businesses in the pelaku_usaha table. Instruments
// and per-class counts are JSONB columns.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectColumns = `
	id, nama_pemilik, jenis_lapak, lokasi, jenis_dagangan, uttp, jumlah, keterangan,
	tanggal_tera_ulang, masa_berlaku_tera, status_tera, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPelaku(row rowScanner) (*models.PelakuUsaha, error) {
	var (
		p         models.PelakuUsaha
		stall     string
		status    string
		uttpRaw   []byte
		countsRaw []byte
		lastTera  sql.NullTime
		expiry    sql.NullTime
	)
	if err := row.Scan(
		&p.ID, &p.OwnerName, &stall, &p.Location, &p.Goods, &uttpRaw, &countsRaw, &p.Note,
		&lastTera, &expiry, &status, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.StallKind = models.StallKind(stall)
	p.Status = models.CalibrationStatus(status)
	if err := json.Unmarshal(uttpRaw, &p.UTTP); err != nil {
		return nil, fmt.Errorf("row %d uttp: %w", p.ID, err)
	}
	if err := json.Unmarshal(countsRaw, &p.Counts); err != nil {
		return nil, fmt.Errorf("row %d jumlah: %w", p.ID, err)
	}
	if lastTera.Valid {
		t := lastTera.Time
		p.LastCalibration = &t
	}
	if expiry.Valid {
		t := expiry.Time
		p.CalibrationExpiry = &t
	}
	return &p, nil
}

func (s *PostgresStore) queryList(ctx context.Context, query string, args ...any) ([]models.PelakuUsaha, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list pelaku usaha: %v", sentinel.ErrUnavailable, err)
	}
	defer rows.Close()

	var out []models.PelakuUsaha
	for rows.Next() {
		p, err := scanPelaku(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pelaku usaha: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate pelaku usaha: %v", sentinel.ErrUnavailable, err)
	}
	return out, nil
}

// jsonbArgs encodes the JSONB columns as text; lib/pq would send []byte as bytea.
func jsonbArgs(p *models.PelakuUsaha) (string, string, error) {
	uttp := p.UTTP
	if uttp == nil {
		uttp = []models.UTTP{}
	}
	uttpRaw, err := json.Marshal(uttp)
	if err != nil {
		return "", "", fmt.Errorf("marshal uttp: %w", err)
	}
	countsRaw, err := json.Marshal(p.Counts)
	if err != nil {
		return "", "", fmt.Errorf("marshal jumlah: %w", err)
	}
	return string(uttpRaw), string(countsRaw), nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func (s *PostgresStore) Create(ctx context.Context, p *models.PelakuUsaha) error {
	uttpRaw, countsRaw, err := jsonbArgs(p)
	if err != nil {
		return err
	}
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	query := `
		INSERT INTO pelaku_usaha (
			nama_pemilik, jenis_lapak, lokasi, jenis_dagangan, uttp, jumlah, keterangan,
			tanggal_tera_ulang, masa_berlaku_tera, status_tera, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		RETURNING id
	`
	err = s.db.QueryRowContext(ctx, query,
		p.OwnerName, string(p.StallKind), p.Location, p.Goods, uttpRaw, countsRaw, p.Note,
		nullableTime(p.LastCalibration), nullableTime(p.CalibrationExpiry), string(p.Status), createdAt,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("insert pelaku usaha: %w", err)
	}
	p.CreatedAt = createdAt
	p.UpdatedAt = createdAt
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, p *models.PelakuUsaha) error {
	uttpRaw, countsRaw, err := jsonbArgs(p)
	if err != nil {
		return err
	}
	updatedAt := p.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	query := `
		UPDATE pelaku_usaha
		SET nama_pemilik = $2, jenis_lapak = $3, lokasi = $4, jenis_dagangan = $5, uttp = $6,
		    jumlah = $7, keterangan = $8, tanggal_tera_ulang = $9, masa_berlaku_tera = $10,
		    status_tera = $11, updated_at = $12
		WHERE id = $1
		RETURNING created_at
	`
	err = s.db.QueryRowContext(ctx, query,
		p.ID, p.OwnerName, string(p.StallKind), p.Location, p.Goods, uttpRaw, countsRaw, p.Note,
		nullableTime(p.LastCalibration), nullableTime(p.CalibrationExpiry), string(p.Status), updatedAt,
	).Scan(&p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update pelaku usaha: %w", err)
	}
	p.UpdatedAt = updatedAt
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pelaku_usaha WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete pelaku usaha: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete pelaku usaha rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*models.PelakuUsaha, error) {
	row := s.db.QueryRowContext(ctx, `SELECT`+selectColumns+` FROM pelaku_usaha WHERE id = $1`, id)
	p, err := scanPelaku(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find pelaku usaha: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]models.PelakuUsaha, error) {
	return s.queryList(ctx, `SELECT`+selectColumns+` FROM pelaku_usaha ORDER BY created_at DESC, id DESC`)
}

func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]models.PelakuUsaha, error) {
	return s.queryList(ctx,
		`SELECT`+selectColumns+` FROM pelaku_usaha ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
}

func (s *PostgresStore) ListExpiringBefore(ctx context.Context, cutoff time.Time) ([]models.PelakuUsaha, error) {
	return s.queryList(ctx,
		`SELECT`+selectColumns+` FROM pelaku_usaha
		 WHERE masa_berlaku_tera IS NOT NULL AND masa_berlaku_tera < $1
		 ORDER BY created_at DESC, id DESC`, cutoff)
}

func (s *PostgresStore) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count pelaku usaha: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM pelaku_usaha`)
}

func (s *PostgresStore) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM pelaku_usaha WHERE created_at >= $1`, since)
}

func (s *PostgresStore) CountUTTP(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT COALESCE(SUM(jsonb_array_length(uttp)), 0) FROM pelaku_usaha`)
}
