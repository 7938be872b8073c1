// Package service computes the admin dashboard counts.
package service

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"metrologi/internal/dashboard/models"
	pelakumodels "metrologi/internal/pelakuusaha/models"
	permohonanmodels "metrologi/internal/permohonan/models"
	dErrors "metrologi/pkg/domain-errors"
	"metrologi/pkg/requestcontext"
)

const summaryTimeout = 5 * time.Second

type BusinessStore interface {
	Count(ctx context.Context) (int, error)
	CountUTTP(ctx context.Context) (int, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int, error)
	Recent(ctx context.Context, limit int) ([]pelakumodels.PelakuUsaha, error)
}

type RequestStore interface {
	CountByKindSince(ctx context.Context, kind permohonanmodels.Kind, since time.Time) (int, error)
}

type Service struct {
	businesses BusinessStore
	requests   RequestStore
	logger     *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(businesses BusinessStore, requests RequestStore, opts ...Option) *Service {
	s := &Service{businesses: businesses, requests: requests, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summary runs the five dashboard queries in parallel. The first failure
// cancels the rest.
func (s *Service) Summary(ctx context.Context) (*models.Summary, error) {
	now := requestcontext.Now(ctx)
	since := models.MonthStart(now)

	ctx, cancel := context.WithTimeout(ctx, summaryTimeout)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	out := &models.Summary{GeneratedAt: now}
	g.Go(func() error {
		n, err := s.businesses.Count(ctx)
		out.TotalBusinesses = n
		return err
	})
	g.Go(func() error {
		n, err := s.businesses.CountUTTP(ctx)
		out.TotalUTTP = n
		return err
	})
	g.Go(func() error {
		n, err := s.requests.CountByKindSince(ctx, permohonanmodels.KindRecalibration, since)
		out.RecalibrationThisMonth = n
		return err
	})
	g.Go(func() error {
		n, err := s.businesses.CountCreatedSince(ctx, since)
		out.NewBusinessesThisMonth = n
		return err
	})
	g.Go(func() error {
		recent, err := s.businesses.Recent(ctx, models.RecentLimit)
		if err != nil {
			return err
		}
		out.Recent = make([]models.RecentBusiness, 0, len(recent))
		for _, p := range recent {
			out.Recent = append(out.Recent, models.NewRecentBusiness(p))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.WarnContext(ctx, "dashboard summary failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load dashboard")
	}
	return out, nil
}
