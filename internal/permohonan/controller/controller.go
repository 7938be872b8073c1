// Package controller holds the service request lifecycle controller: the
// current snapshot of all requests, view derivation over it, and the single
// process action that mutates the store.
package controller

//go:generate mockgen -source=controller.go -destination=mocks/mocks.go -package=mocks Store

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"metrologi/internal/permohonan/metrics"
	"metrologi/internal/permohonan/models"
	"metrologi/internal/platform/tracing"
	dErrors "metrologi/pkg/domain-errors"
	"metrologi/pkg/platform/sentinel"
	"metrologi/pkg/requestcontext"
)

// Store is the request store the controller reads from and writes to.
type Store interface {
	List(ctx context.Context) ([]models.ServiceRequest, error)
	Update(ctx context.Context, id int64, update models.ProcessUpdate) error
}

const (
	noticeLoadFailed    = "failed to load service requests; showing the last loaded list"
	noticeProcessFailed = "failed to update the service request; your changes were kept for retry"
)

type snapshot struct {
	items    []models.ServiceRequest
	token    uint64
	loadedAt time.Time
}

// Controller owns the snapshot. Every load and process call takes a token from
// a monotonically increasing sequence; a load result is applied only if its
// token is newer than the snapshot's, so a slow response can never overwrite a
// fresher one.
type Controller struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer

	seq atomic.Uint64

	mu          sync.RWMutex
	current     snapshot
	loaded      bool
	notice      *models.Notice
	noticeToken uint64
	drafts      map[int64]models.Draft
}

type Option func(*Controller)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Controller) {
		c.tracer = t
	}
}

// New constructs a Controller with an empty snapshot.
func New(store Store, opts ...Option) *Controller {
	c := &Controller{
		store:  store,
		logger: slog.Default(),
		tracer: tracing.Tracer("permohonan"),
		drafts: make(map[int64]models.Draft),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoadAll fetches every request newest-first and replaces the snapshot
// wholesale. On failure the previous snapshot stays in place, a notice is
// recorded, and the previous items are returned together with the error.
func (c *Controller) LoadAll(ctx context.Context) ([]models.ServiceRequest, error) {
	token := c.seq.Add(1)
	start := time.Now()

	spanCtx, span := tracing.Start(ctx, c.tracer, "permohonan.load_all",
		attribute.Int64("permohonan.token", int64(token)))
	items, err := c.store.List(spanCtx)
	tracing.End(span, err)

	if err != nil {
		c.recordFailure(ctx, token, "load", noticeLoadFailed)
		c.observeLoad("failed", start)
		c.logger.WarnContext(ctx, "permohonan load failed",
			"request_id", requestcontext.RequestID(ctx),
			"token", token,
			"error", err,
		)
		return c.Items(), dErrors.Wrap(err, dErrors.CodeUnavailable, noticeLoadFailed)
	}

	if !c.apply(token, items, requestcontext.Now(ctx)) {
		c.observeLoad("stale", start)
		if c.metrics != nil {
			c.metrics.IncrementStaleDiscarded()
		}
		c.logger.InfoContext(ctx, "discarded stale permohonan load",
			"request_id", requestcontext.RequestID(ctx),
			"token", token,
		)
		return c.Items(), nil
	}

	c.observeLoad("applied", start)
	if c.metrics != nil {
		c.metrics.SetSnapshotSize(len(items))
	}
	return c.Items(), nil
}

func (c *Controller) apply(token uint64, items []models.ServiceRequest, now time.Time) bool {
	cloned := make([]models.ServiceRequest, len(items))
	for i, r := range items {
		cloned[i] = r.Clone()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if token <= c.current.token {
		return false
	}
	c.current = snapshot{items: cloned, token: token, loadedAt: now}
	c.loaded = true
	if c.noticeToken < token {
		c.notice = nil
	}
	return true
}

// recordFailure sets the notice unless a newer operation already succeeded.
func (c *Controller) recordFailure(ctx context.Context, token uint64, operation, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if token < c.current.token {
		return
	}
	c.notice = &models.Notice{Operation: operation, Message: message, At: requestcontext.Now(ctx)}
	c.noticeToken = token
}

// Process sends one status change for request id. The status is validated
// before any store call. On store failure the entered values are kept as a
// draft for retry; on success the draft is cleared and the snapshot reloaded.
// A failed reload is not an error: the result reports Reloaded false and the
// notice tells the admin to refresh.
// The current status is not re-checked here; the store refuses terminal rows.
func (c *Controller) Process(ctx context.Context, id int64, status models.Status, note string) (models.ProcessResult, error) {
	update, err := models.NewProcessUpdate(status, note, requestcontext.Now(ctx))
	if err != nil {
		return models.ProcessResult{}, err
	}

	token := c.seq.Add(1)
	spanCtx, span := tracing.Start(ctx, c.tracer, "permohonan.process",
		attribute.Int64("permohonan.id", id),
		attribute.String("permohonan.status", string(status)),
		attribute.Int64("permohonan.token", int64(token)))
	err = c.store.Update(spanCtx, id, update)
	tracing.End(span, err)

	if err != nil {
		c.saveDraft(models.Draft{
			RequestID: id,
			Status:    status,
			Note:      note,
			Error:     err.Error(),
			FailedAt:  update.ProcessedAt,
		})
		c.recordFailure(ctx, token, "process", noticeProcessFailed)
		c.incrementProcess(status, "failed")
		return models.ProcessResult{}, translateUpdateErr(err)
	}

	c.clearDraft(id)
	c.incrementProcess(status, "applied")

	result := models.ProcessResult{Applied: update}
	if _, err := c.LoadAll(ctx); err != nil {
		c.logger.WarnContext(ctx, "reload after process failed",
			"request_id", requestcontext.RequestID(ctx),
			"permohonan_id", id,
			"error", err,
		)
		return result, nil
	}
	result.Reloaded = true
	if r, ok := c.Find(id); ok {
		result.Request = &r
	}
	return result, nil
}

func translateUpdateErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "service request not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(err, dErrors.CodeConflict, "service request is already in a terminal status")
	default:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, noticeProcessFailed)
	}
}

// Items returns a copy of the current snapshot.
func (c *Controller) Items() []models.ServiceRequest {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.ServiceRequest, len(c.current.items))
	for i, r := range c.current.items {
		out[i] = r.Clone()
	}
	return out
}

// Loaded reports whether any load has succeeded yet.
func (c *Controller) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// LoadedAt is the request time of the applied snapshot.
func (c *Controller) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current.loadedAt
}

// View derives one filtered page from the snapshot.
func (c *Controller) View(q models.Query, pageSize, page int) models.Page {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return BuildPage(c.current.items, q, pageSize, page)
}

// Stats counts the snapshot per status.
func (c *Controller) Stats() models.Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ComputeStats(c.current.items)
}

// Find returns one request from the snapshot.
func (c *Controller) Find(id int64) (models.ServiceRequest, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, r := range c.current.items {
		if r.ID == id {
			return r.Clone(), true
		}
	}
	return models.ServiceRequest{}, false
}

// Notice returns the pending failure notice, if any.
func (c *Controller) Notice() *models.Notice {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.notice == nil {
		return nil
	}
	n := *c.notice
	return &n
}

// DismissNotice clears the failure notice.
func (c *Controller) DismissNotice() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notice = nil
}

// Draft returns the retained values of the last failed process action for id.
func (c *Controller) Draft(id int64) (models.Draft, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.drafts[id]
	return d, ok
}

func (c *Controller) saveDraft(d models.Draft) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drafts[d.RequestID] = d
}

func (c *Controller) clearDraft(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.drafts, id)
}

func (c *Controller) observeLoad(outcome string, start time.Time) {
	if c.metrics != nil {
		c.metrics.ObserveLoad(outcome, start)
	}
}

func (c *Controller) incrementProcess(status models.Status, outcome string) {
	if c.metrics != nil {
		c.metrics.IncrementProcess(string(status), outcome)
	}
}
