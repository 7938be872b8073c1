//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"metrologi/internal/notifikasi/models"
	"metrologi/internal/notifikasi/store"
	pelakumodels "metrologi/internal/pelakuusaha/models"
	pelakustore "metrologi/internal/pelakuusaha/store"
	"metrologi/pkg/platform/sentinel"
	"metrologi/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	pelaku   *pelakustore.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.pelaku = pelakustore.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "notifikasi", "pelaku_usaha"))
}

func (s *PostgresStoreSuite) TestDedupeAndReadState() {
	ctx := context.Background()
	p := &pelakumodels.PelakuUsaha{OwnerName: "Siti", StallKind: pelakumodels.StallKios, Status: pelakumodels.StatusActive}
	s.Require().NoError(s.pelaku.Create(ctx, p))

	n := &models.Notification{
		Kind:          models.KindExpiryWarning,
		Title:         "Tera segera habis",
		PelakuUsahaID: &p.ID,
		CreatedAt:     time.Now().UTC().Truncate(time.Microsecond),
	}
	s.Require().NoError(s.store.Create(ctx, n))
	s.NotZero(n.ID)

	dup := &models.Notification{Kind: models.KindExpiryWarning, Title: "again", PelakuUsahaID: &p.ID}
	s.ErrorIs(s.store.Create(ctx, dup), sentinel.ErrConflict)

	sum, err := s.store.Summary(ctx)
	s.Require().NoError(err)
	s.Equal(models.Summary{Unread: 1, Total: 1}, sum)

	s.Require().NoError(s.store.MarkRead(ctx, n.ID))
	unread, err := s.store.List(ctx, true, 10)
	s.Require().NoError(err)
	s.Empty(unread)

	all, err := s.store.List(ctx, false, 0)
	s.Require().NoError(err)
	s.Require().Len(all, 1)
	s.True(all[0].Read)
	s.Equal(p.ID, *all[0].PelakuUsahaID)

	s.Require().NoError(s.store.Delete(ctx, n.ID))
	s.ErrorIs(s.store.MarkRead(ctx, n.ID), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestExpiryNotificationsAreKeyedByExpiryDate() {
	ctx := context.Background()
	p := &pelakumodels.PelakuUsaha{OwnerName: "Budi", StallKind: pelakumodels.StallLos, Status: pelakumodels.StatusActive}
	s.Require().NoError(s.pelaku.Create(ctx, p))

	firstCycle := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	secondCycle := firstCycle.AddDate(1, 0, 0)

	first := &models.Notification{Kind: models.KindExpiryWarning, Title: "Tera segera habis", PelakuUsahaID: &p.ID, ExpiryDate: &firstCycle}
	s.Require().NoError(s.store.Create(ctx, first))

	dup := &models.Notification{Kind: models.KindExpiryWarning, Title: "again", PelakuUsahaID: &p.ID, ExpiryDate: &firstCycle}
	s.ErrorIs(s.store.Create(ctx, dup), sentinel.ErrConflict)

	renewed := &models.Notification{Kind: models.KindExpiryWarning, Title: "Tera segera habis", PelakuUsahaID: &p.ID, ExpiryDate: &secondCycle}
	s.Require().NoError(s.store.Create(ctx, renewed))

	all, err := s.store.List(ctx, false, 0)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	dates := []string{}
	for _, n := range all {
		s.Require().NotNil(n.ExpiryDate)
		dates = append(dates, n.ExpiryDate.Format(models.ExpiryDateLayout))
	}
	s.ElementsMatch([]string{"2024-07-01", "2025-07-01"}, dates)
}
