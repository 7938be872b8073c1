// Package service manages the business registry: CRUD, filtered listing,
// the flat instrument list and spreadsheet export.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"

	"metrologi/internal/audit"
	"metrologi/internal/pelakuusaha/export"
	"metrologi/internal/pelakuusaha/models"
	dErrors "metrologi/pkg/domain-errors"
	"metrologi/pkg/platform/sentinel"
	"metrologi/pkg/requestcontext"
)

// Store persists businesses.
type Store interface {
	Create(ctx context.Context, p *models.PelakuUsaha) error
	Update(ctx context.Context, p *models.PelakuUsaha) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*models.PelakuUsaha, error)
	List(ctx context.Context) ([]models.PelakuUsaha, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store          Store
	logger         *slog.Logger
	auditPublisher AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns businesses matching q, newest first.
func (s *Service) List(ctx context.Context, q models.Query) ([]models.PelakuUsaha, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	items, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load pelaku usaha")
	}
	return models.Filter(items, q), nil
}

func validateQuery(q models.Query) error {
	if q.StallKind != "" && q.StallKind != models.FilterAll && !models.StallKind(q.StallKind).IsValid() {
		return dErrors.New(dErrors.CodeValidation, "jenis_lapak filter must be semua, Kios, Los or PKL")
	}
	if q.Status != "" && q.Status != models.FilterAll && !models.CalibrationStatus(q.Status).IsValid() {
		return dErrors.New(dErrors.CodeValidation, "status filter must be semua or a known status")
	}
	return nil
}

// ListUTTP returns every registered instrument across all businesses.
func (s *Service) ListUTTP(ctx context.Context) ([]models.Equipment, error) {
	items, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load pelaku usaha")
	}
	return models.Flatten(items), nil
}

// Export writes the businesses matching q as an XLSX workbook.
func (s *Service) Export(ctx context.Context, q models.Query, w io.Writer) error {
	items, err := s.List(ctx, q)
	if err != nil {
		return err
	}
	if err := export.WriteXLSX(w, items); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to build export")
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*models.PelakuUsaha, error) {
	p, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	return p, nil
}

// Create registers a business. Status defaults to Aktif.
func (s *Service) Create(ctx context.Context, p *models.PelakuUsaha) (*models.PelakuUsaha, error) {
	if p.Status == "" {
		p.Status = models.StatusActive
	}
	if err := p.CheckInvariants(); err != nil {
		return nil, asValidation(err)
	}
	now := requestcontext.Now(ctx)
	p.ID = 0
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := s.store.Create(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save pelaku usaha")
	}
	s.logAudit(ctx, audit.ActionPelakuUsahaCreated, p.ID)
	return p, nil
}

// Update replaces the editable fields of business id.
func (s *Service) Update(ctx context.Context, id int64, p *models.PelakuUsaha) (*models.PelakuUsaha, error) {
	if p.Status == "" {
		p.Status = models.StatusActive
	}
	if err := p.CheckInvariants(); err != nil {
		return nil, asValidation(err)
	}
	p.ID = id
	p.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.Update(ctx, p); err != nil {
		return nil, translate(err)
	}
	s.logAudit(ctx, audit.ActionPelakuUsahaUpdated, id)
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return translate(err)
	}
	s.logAudit(ctx, audit.ActionPelakuUsahaDeleted, id)
	return nil
}

func translate(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "pelaku usaha not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "pelaku usaha store failure")
}

func asValidation(err error) error {
	if de, ok := dErrors.As(err); ok {
		return dErrors.New(dErrors.CodeValidation, de.Message)
	}
	return dErrors.Wrap(err, dErrors.CodeValidation, "invalid pelaku usaha")
}

func (s *Service) logAudit(ctx context.Context, action audit.Action, id int64) {
	requestID := requestcontext.RequestID(ctx)
	actor := requestcontext.AdminEmail(ctx)
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(action),
			"pelaku_usaha_id", id,
			"actor", actor,
			"request_id", requestID,
			"event", string(action),
			"log_type", "audit",
		)
	}
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:    action,
		Actor:     actor,
		Subject:   strconv.FormatInt(id, 10),
		RequestID: requestID,
		Timestamp: requestcontext.Now(ctx),
	}); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"request_id", requestID,
			"event", string(action),
			"error", err,
		)
	}
}
