// Package scanner periodically checks calibration expiry dates and raises
// warning and expired notifications.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"metrologi/internal/audit"
	"metrologi/internal/notifikasi/metrics"
	pelakumodels "metrologi/internal/pelakuusaha/models"
	"metrologi/pkg/requestcontext"
)

// DefaultWarningWindow is how far ahead of expiry a warning is raised.
const DefaultWarningWindow = 30 * 24 * time.Hour

type BusinessSource interface {
	ListExpiringBefore(ctx context.Context, cutoff time.Time) ([]pelakumodels.PelakuUsaha, error)
}

type Notifier interface {
	NotifyExpiry(ctx context.Context, p pelakumodels.PelakuUsaha, state pelakumodels.ExpiryState) (bool, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Result summarises one scan.
type Result struct {
	Checked  int `json:"checked"`
	Warnings int `json:"warnings"`
	Expired  int `json:"expired"`
	Failed   int `json:"failed"`
}

// Created is the number of notifications the scan added.
func (r Result) Created() int {
	return r.Warnings + r.Expired
}

type Scanner struct {
	source         BusinessSource
	notifier       Notifier
	window         time.Duration
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher AuditPublisher
}

type Option func(*Scanner)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scanner) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Scanner) {
		s.auditPublisher = publisher
	}
}

// WithWarningWindow overrides DefaultWarningWindow. Non-positive values are ignored.
func WithWarningWindow(window time.Duration) Option {
	return func(s *Scanner) {
		if window > 0 {
			s.window = window
		}
	}
}

func New(source BusinessSource, notifier Notifier, opts ...Option) *Scanner {
	s := &Scanner{
		source:   source,
		notifier: notifier,
		window:   DefaultWarningWindow,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs a scan every interval until ctx is cancelled. A failing scan is
// logged and the loop continues.
func (s *Scanner) Start(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.ScanAt(ctx, time.Now()); err != nil {
				s.logger.ErrorContext(ctx, "expiry scan failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// ScanAt classifies every business whose calibration expires before
// now+window and notifies once per business and state. Exported for
// testability; the background loop passes wall-clock time.
func (s *Scanner) ScanAt(ctx context.Context, now time.Time) (Result, error) {
	start := time.Now()
	ctx = requestcontext.WithTime(ctx, now)

	candidates, err := s.source.ListExpiringBefore(ctx, now.Add(s.window))
	if err != nil {
		s.observe("failed", start)
		return Result{}, fmt.Errorf("list expiring businesses: %w", err)
	}

	var (
		res  Result
		errs []error
	)
	for _, p := range candidates {
		state := p.ExpiryStateAt(now, s.window)
		if state != pelakumodels.ExpiryWarning && state != pelakumodels.ExpiryPassed {
			continue
		}
		res.Checked++
		created, err := s.notifier.NotifyExpiry(ctx, p, state)
		if err != nil {
			res.Failed++
			errs = append(errs, fmt.Errorf("pelaku usaha %d: %w", p.ID, err))
			continue
		}
		if !created {
			continue
		}
		if state == pelakumodels.ExpiryWarning {
			res.Warnings++
		} else {
			res.Expired++
		}
	}

	outcome := "success"
	if len(errs) > 0 {
		outcome = "partial"
	}
	s.observe(outcome, start)
	s.logAudit(ctx, res, outcome)
	return res, errors.Join(errs...)
}

func (s *Scanner) observe(outcome string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveScan(outcome, start)
	}
}

func (s *Scanner) logAudit(ctx context.Context, res Result, outcome string) {
	action := audit.ActionExpiryScanCompleted
	s.logger.InfoContext(ctx, string(action),
		"checked", res.Checked,
		"warnings", res.Warnings,
		"expired", res.Expired,
		"failed", res.Failed,
		"event", string(action),
		"log_type", "audit",
	)
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:    action,
		Actor:     "scanner",
		Decision:  outcome,
		Timestamp: requestcontext.Now(ctx),
		Detail: map[string]string{
			"checked":  strconv.Itoa(res.Checked),
			"warnings": strconv.Itoa(res.Warnings),
			"expired":  strconv.Itoa(res.Expired),
			"failed":   strconv.Itoa(res.Failed),
		},
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "event", string(action), "error", err)
	}
}
