package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"metrologi/internal/permohonan/models"
	"metrologi/pkg/platform/sentinel"
)

// PostgresStore persists requests in the permohonan table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectColumns = `
	id, nama_pemohon, email, telepon, alamat, jenis_permohonan, jenis_alat,
	merek_alat, kapasitas, tahun_pembuatan, status, tanggal_permohonan,
	tanggal_diproses, catatan_admin, dokumen_pendukung`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*models.ServiceRequest, error) {
	var (
		r           models.ServiceRequest
		kind        string
		status      string
		year        sql.NullInt64
		processedAt sql.NullTime
		note        sql.NullString
		document    sql.NullString
	)
	if err := row.Scan(
		&r.ID, &r.ApplicantName, &r.Email, &r.Phone, &r.Address, &kind, &r.EquipmentType,
		&r.EquipmentBrand, &r.Capacity, &year, &status, &r.SubmittedAt,
		&processedAt, &note, &document,
	); err != nil {
		return nil, err
	}

	parsedKind, err := models.ParseKind(kind)
	if err != nil {
		return nil, fmt.Errorf("row %d: %w", r.ID, err)
	}
	parsedStatus, err := models.ParseStatus(status)
	if err != nil {
		return nil, fmt.Errorf("row %d: %w", r.ID, err)
	}
	r.Kind = parsedKind
	r.Status = parsedStatus
	if year.Valid {
		y := int(year.Int64)
		r.ManufactureYear = &y
	}
	if processedAt.Valid {
		t := processedAt.Time
		r.ProcessedAt = &t
	}
	if note.Valid {
		n := note.String
		r.AdminNote = &n
	}
	if document.Valid {
		d := document.String
		r.SupportingDocument = &d
	}
	return &r, nil
}

// Create inserts a submitted request. Used by seeding and tests; production
// rows arrive from the public submission form.
func (s *PostgresStore) Create(ctx context.Context, r *models.ServiceRequest) error {
	submittedAt := r.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = time.Now()
	}
	var year any
	if r.ManufactureYear != nil {
		year = *r.ManufactureYear
	}
	var document any
	if r.SupportingDocument != nil {
		document = *r.SupportingDocument
	}
	query := `
		INSERT INTO permohonan (
			nama_pemohon, email, telepon, alamat, jenis_permohonan, jenis_alat,
			merek_alat, kapasitas, tahun_pembuatan, status, tanggal_permohonan, dokumen_pendukung
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'pending', $10, $11)
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, query,
		r.ApplicantName, r.Email, r.Phone, r.Address, r.Kind.LegacyValue(), r.EquipmentType,
		r.EquipmentBrand, r.Capacity, year, submittedAt, document,
	).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("insert permohonan: %w", err)
	}
	r.Status = models.StatusPending
	r.SubmittedAt = submittedAt
	r.ProcessedAt = nil
	r.AdminNote = nil
	return nil
}

// List returns every request, newest submission first.
func (s *PostgresStore) List(ctx context.Context) ([]models.ServiceRequest, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT`+selectColumns+` FROM permohonan ORDER BY tanggal_permohonan DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("%w: list permohonan: %v", sentinel.ErrUnavailable, err)
	}
	defer rows.Close()

	var out []models.ServiceRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan permohonan: %w", err)
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate permohonan: %v", sentinel.ErrUnavailable, err)
	}
	return out, nil
}

// FindByID returns one request.
func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*models.ServiceRequest, error) {
	row := s.db.QueryRowContext(ctx, `SELECT`+selectColumns+` FROM permohonan WHERE id = $1`, id)
	r, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find permohonan: %w", err)
	}
	return r, nil
}

// Update applies status, processed_at and admin note in one statement. The
// WHERE clause encodes the lifecycle so terminal rows are never modified.
func (s *PostgresStore) Update(ctx context.Context, id int64, u models.ProcessUpdate) error {
	query := `
		UPDATE permohonan
		SET status = $2, tanggal_diproses = $3, catatan_admin = $4
		WHERE id = $1
		  AND (status = 'pending' OR (status = 'processing' AND $2 IN ('approved', 'rejected')))
	`
	res, err := s.db.ExecContext(ctx, query, id, string(u.Status), u.ProcessedAt, u.AdminNote)
	if err != nil {
		return fmt.Errorf("%w: update permohonan: %v", sentinel.ErrUnavailable, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update permohonan rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}

	var current string
	err = s.db.QueryRowContext(ctx, `SELECT status FROM permohonan WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check permohonan status: %w", err)
	}
	return fmt.Errorf("%w: request %d is %s", sentinel.ErrInvalidState, id, current)
}

// CountByKindSince counts requests of kind submitted at or after since.
func (s *PostgresStore) CountByKindSince(ctx context.Context, kind models.Kind, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM permohonan WHERE jenis_permohonan = $1 AND tanggal_permohonan >= $2`,
		kind.LegacyValue(), since,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count permohonan: %w", err)
	}
	return n, nil
}
