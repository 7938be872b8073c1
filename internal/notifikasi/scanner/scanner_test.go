package scanner_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"metrologi/internal/audit"
	"metrologi/internal/notifikasi/metrics"
	"metrologi/internal/notifikasi/models"
	"metrologi/internal/notifikasi/scanner"
	"metrologi/internal/notifikasi/service"
	notifstore "metrologi/internal/notifikasi/store"
	pelakumodels "metrologi/internal/pelakuusaha/models"
	pelakustore "metrologi/internal/pelakuusaha/store"
)

type ScannerSuite struct {
	suite.Suite
	businesses    *pelakustore.InMemory
	notifications *notifstore.InMemory
	audit         *audit.InMemoryStore
	scanner       *scanner.Scanner
	now           time.Time
}

func TestScannerSuite(t *testing.T) {
	suite.Run(t, new(ScannerSuite))
}

func (s *ScannerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.businesses = pelakustore.NewInMemory()
	s.notifications = notifstore.NewInMemory()
	s.audit = audit.NewInMemoryStore()
	s.now = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	svc := service.New(s.notifications, service.WithLogger(logger))
	s.scanner = scanner.New(s.businesses, svc,
		scanner.WithLogger(logger),
		scanner.WithWarningWindow(30*24*time.Hour),
		scanner.WithMetrics(metrics.NewWithRegistry(prometheus.NewRegistry())),
		scanner.WithAuditPublisher(audit.NewPublisher(s.audit)),
	)
}

func (s *ScannerSuite) addBusiness(name string, expiry *time.Time) int64 {
	p := &pelakumodels.PelakuUsaha{
		OwnerName:         name,
		StallKind:         pelakumodels.StallKios,
		Location:          "Pasar Baru",
		Status:            pelakumodels.StatusActive,
		CalibrationExpiry: expiry,
	}
	s.Require().NoError(s.businesses.Create(context.Background(), p))
	return p.ID
}

func (s *ScannerSuite) at(d time.Duration) *time.Time {
	t := s.now.Add(d)
	return &t
}

func (s *ScannerSuite) TestScanClassifiesAndDeduplicates() {
	warnID := s.addBusiness("Siti", s.at(10*24*time.Hour))
	expiredID := s.addBusiness("Budi", s.at(-24*time.Hour))
	s.addBusiness("Andi", s.at(90*24*time.Hour))
	s.addBusiness("Dewi", nil)

	res, err := s.scanner.ScanAt(context.Background(), s.now)
	s.Require().NoError(err)
	s.Equal(scanner.Result{Checked: 2, Warnings: 1, Expired: 1}, res)

	items, err := s.notifications.List(context.Background(), false, 0)
	s.Require().NoError(err)
	s.Require().Len(items, 2)
	byKind := map[models.Kind]int64{}
	for _, n := range items {
		s.Require().NotNil(n.PelakuUsahaID)
		byKind[n.Kind] = *n.PelakuUsahaID
	}
	s.Equal(warnID, byKind[models.KindExpiryWarning])
	s.Equal(expiredID, byKind[models.KindExpired])

	s.Run("a second scan creates nothing", func() {
		res, err := s.scanner.ScanAt(context.Background(), s.now.Add(time.Hour))
		s.Require().NoError(err)
		s.Equal(0, res.Created())
		s.Equal(2, res.Checked)
	})

	s.Run("a warning later becomes expired once", func() {
		res, err := s.scanner.ScanAt(context.Background(), s.now.Add(11*24*time.Hour))
		s.Require().NoError(err)
		s.Equal(scanner.Result{Checked: 2, Expired: 1}, res)
	})

	events, err := s.audit.ListRecent(context.Background(), 0)
	s.Require().NoError(err)
	s.Require().Len(events, 3)
	s.Equal(audit.ActionExpiryScanCompleted, events[0].Action)
	s.Equal("success", events[0].Decision)
}

func (s *ScannerSuite) TestRenewedCalibrationIsNotifiedAgain() {
	ctx := context.Background()
	id := s.addBusiness("Siti", s.at(10*24*time.Hour))

	res, err := s.scanner.ScanAt(ctx, s.now)
	s.Require().NoError(err)
	s.Equal(scanner.Result{Checked: 1, Warnings: 1}, res)

	p, err := s.businesses.FindByID(ctx, id)
	s.Require().NoError(err)
	renewed := p.CalibrationExpiry.AddDate(1, 0, 0)
	p.CalibrationExpiry = &renewed
	s.Require().NoError(s.businesses.Update(ctx, p))

	nextYear := s.now.AddDate(1, 0, 0)
	res, err = s.scanner.ScanAt(ctx, nextYear)
	s.Require().NoError(err)
	s.Equal(scanner.Result{Checked: 1, Warnings: 1}, res)

	res, err = s.scanner.ScanAt(ctx, renewed.Add(time.Hour))
	s.Require().NoError(err)
	s.Equal(scanner.Result{Checked: 1, Expired: 1}, res)

	items, err := s.notifications.List(ctx, false, 0)
	s.Require().NoError(err)
	s.Require().Len(items, 3)
	warnings := 0
	for _, n := range items {
		s.Require().NotNil(n.ExpiryDate)
		if n.Kind == models.KindExpiryWarning {
			warnings++
		}
	}
	s.Equal(2, warnings)
}

type failingSource struct{}

func (failingSource) ListExpiringBefore(context.Context, time.Time) ([]pelakumodels.PelakuUsaha, error) {
	return nil, errors.New("connection refused")
}

type failingNotifier struct{}

func (failingNotifier) NotifyExpiry(context.Context, pelakumodels.PelakuUsaha, pelakumodels.ExpiryState) (bool, error) {
	return false, errors.New("insert failed")
}

func TestScanFailures(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("source failure aborts the scan", func(t *testing.T) {
		sc := scanner.New(failingSource{}, failingNotifier{}, scanner.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
		_, err := sc.ScanAt(context.Background(), now)
		require.Error(t, err)
	})

	t.Run("notifier failures are counted and joined", func(t *testing.T) {
		businesses := pelakustore.NewInMemory()
		expiry := now.Add(-time.Hour)
		require.NoError(t, businesses.Create(context.Background(), &pelakumodels.PelakuUsaha{OwnerName: "Siti", CalibrationExpiry: &expiry}))

		sc := scanner.New(businesses, failingNotifier{}, scanner.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
		res, err := sc.ScanAt(context.Background(), now)
		require.Error(t, err)
		assert.Equal(t, 1, res.Failed)
		assert.Equal(t, 0, res.Created())
	})
}

func TestStartStopsOnCancel(t *testing.T) {
	sc := scanner.New(pelakustore.NewInMemory(), failingNotifier{}, scanner.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sc.Start(ctx, time.Millisecond) }()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("scanner did not stop")
	}
}
