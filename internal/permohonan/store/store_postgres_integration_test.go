//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"metrologi/internal/permohonan/models"
	"metrologi/internal/permohonan/store"
	"metrologi/pkg/platform/sentinel"
	"metrologi/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "notifikasi", "permohonan")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) insert(name string, kind models.Kind, at time.Time) *models.ServiceRequest {
	year := 2019
	r := &models.ServiceRequest{
		ApplicantName:   name,
		Email:           "pemohon@example.com",
		Phone:           "0812",
		Address:         "Jl. Pasar 1",
		Kind:            kind,
		EquipmentType:   "Timbangan Meja",
		EquipmentBrand:  "Camry",
		Capacity:        "15 kg",
		ManufactureYear: &year,
		SubmittedAt:     at,
	}
	s.Require().NoError(s.store.Create(context.Background(), r))
	return r
}

func (s *PostgresStoreSuite) TestRoundTripAndOrdering() {
	ctx := context.Background()
	base := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	first := s.insert("Budi Santoso", models.KindNewCalibration, base)
	second := s.insert("Siti Aminah", models.KindRecalibration, base.Add(time.Hour))

	rows, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(rows, 2)
	s.Equal(second.ID, rows[0].ID)
	s.Equal(first.ID, rows[1].ID)
	s.Equal(models.KindRecalibration, rows[0].Kind)
	s.Equal(2019, *rows[0].ManufactureYear)
	s.Nil(rows[0].ProcessedAt)
	s.NoError(rows[0].CheckInvariants())
}

func (s *PostgresStoreSuite) TestUpdateLifecycle() {
	ctx := context.Background()
	r := s.insert("Budi Santoso", models.KindNewCalibration, time.Now().UTC())
	now := time.Now().UTC().Truncate(time.Microsecond)

	s.Run("pending to processing", func() {
		err := s.store.Update(ctx, r.ID, models.ProcessUpdate{Status: models.StatusProcessing, ProcessedAt: now, AdminNote: "cek dokumen"})
		s.Require().NoError(err)
	})

	s.Run("processing cannot repeat processing", func() {
		err := s.store.Update(ctx, r.ID, models.ProcessUpdate{Status: models.StatusProcessing, ProcessedAt: now, AdminNote: "again"})
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)
	})

	s.Run("processing to approved", func() {
		err := s.store.Update(ctx, r.ID, models.ProcessUpdate{Status: models.StatusApproved, ProcessedAt: now, AdminNote: "OK, documents complete"})
		s.Require().NoError(err)

		found, err := s.store.FindByID(ctx, r.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, found.Status)
		s.Equal("OK, documents complete", *found.AdminNote)
		s.True(found.ProcessedAt.Equal(now))
	})

	s.Run("terminal rows are refused", func() {
		err := s.store.Update(ctx, r.ID, models.ProcessUpdate{Status: models.StatusRejected, ProcessedAt: now, AdminNote: "late"})
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)
	})

	s.Run("unknown id", func() {
		err := s.store.Update(ctx, r.ID+1000, models.ProcessUpdate{Status: models.StatusRejected, ProcessedAt: now, AdminNote: "x"})
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *PostgresStoreSuite) TestCountByKindSince() {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	s.insert("a", models.KindRecalibration, base.Add(-time.Hour))
	s.insert("b", models.KindRecalibration, base.Add(time.Hour))
	s.insert("c", models.KindNewCalibration, base.Add(time.Hour))

	n, err := s.store.CountByKindSince(context.Background(), models.KindRecalibration, base)
	s.Require().NoError(err)
	s.Equal(1, n)
}
