// Package service exposes the permohonan lifecycle to transports: view
// queries over the controller snapshot, the process action, audit and
// new-request notifications.
package service

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"metrologi/internal/audit"
	"metrologi/internal/permohonan/controller"
	"metrologi/internal/permohonan/models"
	dErrors "metrologi/pkg/domain-errors"
	"metrologi/pkg/requestcontext"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// NewRequestNotifier is told about pending requests it has not seen before.
// Implementations must tolerate repeats.
type NewRequestNotifier interface {
	NotifyNewRequest(ctx context.Context, r models.ServiceRequest) error
}

// Service orchestrates the admin view of service requests.
type Service struct {
	lifecycle       *controller.Controller
	logger          *slog.Logger
	auditPublisher  AuditPublisher
	notifier        NewRequestNotifier
	defaultPageSize int

	mu       sync.Mutex
	lastSeen int64
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

func WithNewRequestNotifier(n NewRequestNotifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

func WithDefaultPageSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.defaultPageSize = size
		}
	}
}

// New constructs a Service.
func New(lifecycle *controller.Controller, opts ...Option) *Service {
	s := &Service{
		lifecycle:       lifecycle,
		logger:          slog.Default(),
		defaultPageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List derives one page of the filtered view. The first call loads the
// snapshot; a failed load still returns a (possibly empty) result with a notice.
func (s *Service) List(ctx context.Context, q models.Query, page, pageSize int) (*models.ListResult, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	if pageSize <= 0 {
		pageSize = s.defaultPageSize
	}
	if pageSize > MaxPageSize {
		return nil, dErrors.New(dErrors.CodeValidation, "page_size must be at most "+strconv.Itoa(MaxPageSize))
	}
	if !s.lifecycle.Loaded() {
		// failure is reported through the notice
		_, _ = s.load(ctx)
	}
	return &models.ListResult{
		Page:     s.lifecycle.View(q, pageSize, page),
		Stats:    s.lifecycle.Stats(),
		Notice:   s.lifecycle.Notice(),
		LoadedAt: s.lifecycle.LoadedAt(),
	}, nil
}

func validateQuery(q models.Query) error {
	if q.Status != "" && q.Status != models.FilterAll {
		if !models.Status(q.Status).IsValid() {
			return dErrors.New(dErrors.CodeValidation, "status filter must be all or a known status")
		}
	}
	if q.Kind != "" && q.Kind != models.FilterAll {
		if _, err := models.ParseKind(q.Kind); err != nil {
			return dErrors.New(dErrors.CodeValidation, "kind filter must be all or a known kind")
		}
	}
	return nil
}

// Refresh reloads the snapshot. On failure the error carries CodeUnavailable
// and the previous snapshot stays visible.
func (s *Service) Refresh(ctx context.Context) (models.Stats, error) {
	_, err := s.load(ctx)
	return s.lifecycle.Stats(), err
}

func (s *Service) load(ctx context.Context) ([]models.ServiceRequest, error) {
	items, err := s.lifecycle.LoadAll(ctx)
	if err != nil {
		return items, err
	}
	s.notifyNew(ctx, items)
	return items, nil
}

func (s *Service) notifyNew(ctx context.Context, items []models.ServiceRequest) {
	if s.notifier == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	maxID := s.lastSeen
	for _, r := range items {
		if r.ID <= s.lastSeen {
			continue
		}
		if r.ID > maxID {
			maxID = r.ID
		}
		if r.Status != models.StatusPending {
			continue
		}
		if err := s.notifier.NotifyNewRequest(ctx, r); err != nil {
			s.logger.WarnContext(ctx, "failed to notify new permohonan",
				"request_id", requestcontext.RequestID(ctx),
				"permohonan_id", r.ID,
				"error", err,
			)
			// retry on the next load
			return
		}
	}
	s.lastSeen = maxID
}

// Get returns one request from the snapshot.
func (s *Service) Get(ctx context.Context, id int64) (*models.ServiceRequest, error) {
	if !s.lifecycle.Loaded() {
		if _, err := s.load(ctx); err != nil {
			return nil, err
		}
	}
	r, ok := s.lifecycle.Find(id)
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "service request not found")
	}
	return &r, nil
}

// Process applies one admin action. The result carries the reloaded request,
// or only the applied values when the reload failed.
func (s *Service) Process(ctx context.Context, id int64, status models.Status, note string) (*models.ProcessResult, error) {
	result, err := s.lifecycle.Process(ctx, id, status, note)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeValidation) {
			return nil, err
		}
		s.logAudit(ctx, audit.ActionPermohonanFailed, id,
			"status", string(status),
			"reason", string(dErrors.CodeOf(err)),
		)
		return nil, err
	}

	s.logAudit(ctx, audit.ActionPermohonanProcessed, id, "status", string(status))
	return &result, nil
}

// Draft returns the retained values of the last failed process action.
func (s *Service) Draft(_ context.Context, id int64) (*models.Draft, error) {
	d, ok := s.lifecycle.Draft(id)
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "no draft for this service request")
	}
	return &d, nil
}

// DismissNotice clears the current failure notice.
func (s *Service) DismissNotice(_ context.Context) {
	s.lifecycle.DismissNotice()
}

func (s *Service) logAudit(ctx context.Context, action audit.Action, id int64, attributes ...any) {
	requestID := requestcontext.RequestID(ctx)
	actor := requestcontext.AdminEmail(ctx)
	subject := strconv.FormatInt(id, 10)
	args := append(attributes,
		"permohonan_id", id,
		"actor", actor,
		"request_id", requestID,
		"event", string(action),
		"log_type", "audit",
	)
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(action), args...)
	}
	if s.auditPublisher == nil {
		return
	}
	detail := make(map[string]string, len(attributes)/2)
	for i := 0; i+1 < len(attributes); i += 2 {
		key, _ := attributes[i].(string)
		val, _ := attributes[i+1].(string)
		detail[key] = val
	}
	if err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:    action,
		Actor:     actor,
		Subject:   subject,
		Decision:  detail["status"],
		Reason:    detail["reason"],
		RequestID: requestID,
		Detail:    detail,
		Timestamp: requestcontext.Now(ctx),
	}); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"request_id", requestID,
			"event", string(action),
			"error", err,
		)
	}
}
