package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"metrologi/internal/dashboard/service"
	pelakumodels "metrologi/internal/pelakuusaha/models"
	pelakustore "metrologi/internal/pelakuusaha/store"
	permohonanmodels "metrologi/internal/permohonan/models"
	permohonanstore "metrologi/internal/permohonan/store"
	dErrors "metrologi/pkg/domain-errors"
	"metrologi/pkg/requestcontext"
)

type DashboardSuite struct {
	suite.Suite
	businesses *pelakustore.InMemory
	requests   *permohonanstore.InMemory
	svc        *service.Service
	now        time.Time
}

func TestDashboardSuite(t *testing.T) {
	suite.Run(t, new(DashboardSuite))
}

func (s *DashboardSuite) SetupTest() {
	s.businesses = pelakustore.NewInMemory()
	s.requests = permohonanstore.NewInMemory()
	s.svc = service.New(s.businesses, s.requests, service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.now = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
}

func (s *DashboardSuite) addBusiness(name string, createdAt time.Time, uttp int) {
	p := &pelakumodels.PelakuUsaha{OwnerName: name, StallKind: pelakumodels.StallLos, CreatedAt: createdAt}
	for i := 0; i < uttp; i++ {
		p.UTTP = append(p.UTTP, pelakumodels.UTTP{Type: "Timbangan"})
	}
	s.Require().NoError(s.businesses.Create(context.Background(), p))
}

func (s *DashboardSuite) addRequest(kind permohonanmodels.Kind, submitted time.Time) {
	s.Require().NoError(s.requests.Create(context.Background(), &permohonanmodels.ServiceRequest{
		ApplicantName: "Budi",
		Kind:          kind,
		Status:        permohonanmodels.StatusPending,
		SubmittedAt:   submitted,
	}))
}

func (s *DashboardSuite) TestSummary() {
	lastMonth := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	s.addBusiness("Lama", lastMonth, 3)
	for i := 0; i < 6; i++ {
		s.addBusiness("Baru", s.now.Add(-time.Duration(i)*time.Hour), 1)
	}
	s.addRequest(permohonanmodels.KindRecalibration, s.now.Add(-time.Hour))
	s.addRequest(permohonanmodels.KindRecalibration, lastMonth)
	s.addRequest(permohonanmodels.KindNewCalibration, s.now.Add(-time.Hour))

	sum, err := s.svc.Summary(requestcontext.WithTime(context.Background(), s.now))
	s.Require().NoError(err)

	s.Equal(7, sum.TotalBusinesses)
	s.Equal(9, sum.TotalUTTP)
	s.Equal(1, sum.RecalibrationThisMonth)
	s.Equal(6, sum.NewBusinessesThisMonth)
	s.Len(sum.Recent, 5)
	s.Equal(1, sum.Recent[0].UTTPCount)
	s.Equal(s.now, sum.GeneratedAt)
}

func (s *DashboardSuite) TestEmpty() {
	sum, err := s.svc.Summary(requestcontext.WithTime(context.Background(), s.now))
	s.Require().NoError(err)
	s.Zero(sum.TotalBusinesses)
	s.NotNil(sum.Recent)
	s.Empty(sum.Recent)
}

type failingRequests struct{}

func (failingRequests) CountByKindSince(context.Context, permohonanmodels.Kind, time.Time) (int, error) {
	return 0, errors.New("connection refused")
}

func (s *DashboardSuite) TestAnyFailureIsUnavailable() {
	svc := service.New(s.businesses, failingRequests{}, service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	_, err := svc.Summary(context.Background())
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}
