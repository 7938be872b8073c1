// Package service manages the admin notification bell and creates
// notifications for new service requests and calibration expiry.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"metrologi/internal/notifikasi/metrics"
	"metrologi/internal/notifikasi/models"
	pelakumodels "metrologi/internal/pelakuusaha/models"
	permohonanmodels "metrologi/internal/permohonan/models"
	dErrors "metrologi/pkg/domain-errors"
	"metrologi/pkg/platform/sentinel"
	"metrologi/pkg/requestcontext"
)

// DefaultListLimit caps the bell dropdown.
const DefaultListLimit = 50

type Store interface {
	Create(ctx context.Context, n *models.Notification) error
	List(ctx context.Context, unreadOnly bool, limit int) ([]models.Notification, error)
	Summary(ctx context.Context) (models.Summary, error)
	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context) (int, error)
	Delete(ctx context.Context, id int64) error
}

type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) List(ctx context.Context, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}
	items, err := s.store.List(ctx, unreadOnly, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load notifications")
	}
	return items, nil
}

func (s *Service) Summary(ctx context.Context) (models.Summary, error) {
	sum, err := s.store.Summary(ctx)
	if err != nil {
		return models.Summary{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to count notifications")
	}
	return sum, nil
}

func (s *Service) MarkRead(ctx context.Context, id int64) error {
	if err := s.store.MarkRead(ctx, id); err != nil {
		return translate(err)
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context) (int, error) {
	n, err := s.store.MarkAllRead(ctx)
	if err != nil {
		return 0, translate(err)
	}
	return n, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return translate(err)
	}
	return nil
}

// NotifyNewRequest records a permohonan_baru notification for r. Repeats
// for the same request are ignored.
func (s *Service) NotifyNewRequest(ctx context.Context, r permohonanmodels.ServiceRequest) error {
	id := r.ID
	_, err := s.create(ctx, &models.Notification{
		Kind:         models.KindNewRequest,
		Title:        "Permohonan baru",
		Message:      fmt.Sprintf("%s mengajukan %s untuk %s", r.ApplicantName, r.Kind.Label(), r.EquipmentType),
		PermohonanID: &id,
		CreatedAt:    requestcontext.Now(ctx),
	})
	return err
}

// NotifyExpiry records a warning or expired notification for p's current
// calibration expiry. It reports whether a new notification was created.
func (s *Service) NotifyExpiry(ctx context.Context, p pelakumodels.PelakuUsaha, state pelakumodels.ExpiryState) (bool, error) {
	if p.CalibrationExpiry == nil {
		return false, nil
	}
	id := p.ID
	expiryDate := *p.CalibrationExpiry
	expiry := expiryDate.Format("02-01-2006")
	n := &models.Notification{PelakuUsahaID: &id, ExpiryDate: &expiryDate, CreatedAt: requestcontext.Now(ctx)}
	switch state {
	case pelakumodels.ExpiryWarning:
		n.Kind = models.KindExpiryWarning
		n.Title = "Masa berlaku tera segera habis"
		n.Message = fmt.Sprintf("Tera UTTP milik %s (%s) berakhir pada %s", p.OwnerName, p.Location, expiry)
	case pelakumodels.ExpiryPassed:
		n.Kind = models.KindExpired
		n.Title = "Masa berlaku tera habis"
		n.Message = fmt.Sprintf("Tera UTTP milik %s (%s) telah berakhir pada %s", p.OwnerName, p.Location, expiry)
	default:
		return false, nil
	}
	return s.create(ctx, n)
}

func (s *Service) create(ctx context.Context, n *models.Notification) (bool, error) {
	err := s.store.Create(ctx, n)
	switch {
	case err == nil:
		s.observe(n.Kind, "created")
		s.logger.InfoContext(ctx, "notification created",
			"request_id", requestcontext.RequestID(ctx),
			"kind", string(n.Kind),
			"notification_id", n.ID,
		)
		return true, nil
	case errors.Is(err, sentinel.ErrConflict):
		s.observe(n.Kind, "duplicate")
		return false, nil
	default:
		s.observe(n.Kind, "failed")
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save notification")
	}
}

func (s *Service) observe(kind models.Kind, outcome string) {
	if s.metrics != nil {
		s.metrics.IncrementCreated(string(kind), outcome)
	}
}

func translate(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "notification not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "notification store failure")
}
