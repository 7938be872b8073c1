package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"metrologi/internal/audit"
	"metrologi/internal/permohonan/controller"
	"metrologi/internal/permohonan/models"
	"metrologi/internal/permohonan/service"
	"metrologi/internal/permohonan/store"
	dErrors "metrologi/pkg/domain-errors"
	"metrologi/pkg/requestcontext"
)

type flakyStore struct {
	*store.InMemory
	failList   bool
	failUpdate bool
}

func (f *flakyStore) List(ctx context.Context) ([]models.ServiceRequest, error) {
	if f.failList {
		return nil, errors.New("network unreachable")
	}
	return f.InMemory.List(ctx)
}

func (f *flakyStore) Update(ctx context.Context, id int64, u models.ProcessUpdate) error {
	if f.failUpdate {
		return errors.New("network unreachable")
	}
	return f.InMemory.Update(ctx, id, u)
}

type recordingNotifier struct {
	seen []int64
	err  error
}

func (n *recordingNotifier) NotifyNewRequest(_ context.Context, r models.ServiceRequest) error {
	if n.err != nil {
		return n.err
	}
	n.seen = append(n.seen, r.ID)
	return nil
}

type ServiceSuite struct {
	suite.Suite
	store    *flakyStore
	audit    *audit.InMemoryStore
	notifier *recordingNotifier
	svc      *service.Service
	ctx      context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.store = &flakyStore{InMemory: store.NewInMemory()}
	s.audit = audit.NewInMemoryStore()
	s.notifier = &recordingNotifier{}
	lifecycle := controller.New(s.store, controller.WithLogger(logger))
	s.svc = service.New(lifecycle,
		service.WithLogger(logger),
		service.WithAuditPublisher(audit.NewPublisher(s.audit)),
		service.WithNewRequestNotifier(s.notifier),
	)
	s.ctx = requestcontext.WithAdminEmail(context.Background(), "admin@metrologi.local")
}

func (s *ServiceSuite) seed(n int, name string) {
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	for i := range n {
		r := &models.ServiceRequest{
			ApplicantName: fmt.Sprintf("%s %d", name, i+1),
			Email:         "p@example.com",
			Kind:          models.KindRecalibration,
			EquipmentType: "Timbangan",
			SubmittedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		s.Require().NoError(s.store.Create(context.Background(), r))
	}
}

func (s *ServiceSuite) TestListLoadsLazilyWithDefaults() {
	s.seed(23, "Pemohon")

	res, err := s.svc.List(s.ctx, models.Query{}, 3, 0)
	s.Require().NoError(err)
	s.Equal(10, res.PageSize)
	s.Equal(3, res.TotalPages)
	s.Len(res.Items, 3)
	s.Equal(23, res.Stats.Pending)
	s.Nil(res.Notice)
}

func (s *ServiceSuite) TestListRejectsUnknownFilters() {
	_, err := s.svc.List(s.ctx, models.Query{Status: "done"}, 1, 10)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.svc.List(s.ctx, models.Query{Kind: "service"}, 1, 10)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.svc.List(s.ctx, models.Query{}, 1, service.MaxPageSize+1)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestRefreshFailureKeepsPreviousList() {
	s.seed(5, "Pemohon")
	_, err := s.svc.Refresh(s.ctx)
	s.Require().NoError(err)

	s.store.failList = true
	_, err = s.svc.Refresh(s.ctx)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))

	res, err := s.svc.List(s.ctx, models.Query{}, 1, 10)
	s.Require().NoError(err)
	s.Len(res.Items, 5)
	s.Require().NotNil(res.Notice)

	s.svc.DismissNotice(s.ctx)
	res, err = s.svc.List(s.ctx, models.Query{}, 1, 10)
	s.Require().NoError(err)
	s.Nil(res.Notice)
}

func (s *ServiceSuite) TestProcessEmitsAudit() {
	s.seed(1, "Budi")

	res, err := s.svc.Process(s.ctx, 1, models.StatusApproved, "OK, documents complete")
	s.Require().NoError(err)
	s.Require().NotNil(res)
	s.True(res.Reloaded)
	s.Require().NotNil(res.Request)
	s.Equal(models.StatusApproved, res.Request.Status)
	s.Equal("OK, documents complete", *res.Request.AdminNote)

	events, err := s.audit.ListRecent(s.ctx, 0)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(audit.ActionPermohonanProcessed, events[0].Action)
	s.Equal("1", events[0].Subject)
	s.Equal("admin@metrologi.local", events[0].Actor)
	s.Equal("approved", events[0].Decision)
}

func (s *ServiceSuite) TestProcessWithFailedReloadReportsAppliedValues() {
	s.seed(1, "Budi")
	_, err := s.svc.Refresh(s.ctx)
	s.Require().NoError(err)

	now := time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(s.ctx, now)
	s.store.failList = true

	res, err := s.svc.Process(ctx, 1, models.StatusApproved, "lengkap")
	s.Require().NoError(err)
	s.Require().NotNil(res)
	s.False(res.Reloaded)
	s.Nil(res.Request)
	s.Equal(models.ProcessUpdate{Status: models.StatusApproved, ProcessedAt: now, AdminNote: "lengkap"}, res.Applied)

	events, err := s.audit.ListRecent(s.ctx, 0)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(audit.ActionPermohonanProcessed, events[0].Action)
}

func (s *ServiceSuite) TestProcessFailureKeepsDraftAndAudits() {
	s.seed(1, "Budi")
	s.store.failUpdate = true

	_, err := s.svc.Process(s.ctx, 1, models.StatusRejected, "foto buram")
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))

	draft, err := s.svc.Draft(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal("foto buram", draft.Note)
	s.Equal(models.StatusRejected, draft.Status)

	events, err := s.audit.ListRecent(s.ctx, 0)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(audit.ActionPermohonanFailed, events[0].Action)
}

func (s *ServiceSuite) TestProcessValidationSkipsAudit() {
	_, err := s.svc.Process(s.ctx, 1, "", "x")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	events, err := s.audit.ListRecent(s.ctx, 0)
	s.Require().NoError(err)
	s.Empty(events)

	_, err = s.svc.Draft(s.ctx, 1)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestGetNotFound() {
	s.seed(2, "x")
	_, err := s.svc.Get(s.ctx, 99)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	r, err := s.svc.Get(s.ctx, 2)
	s.Require().NoError(err)
	s.Equal(int64(2), r.ID)
}

func (s *ServiceSuite) TestNewPendingRequestsAreNotifiedOnce() {
	s.seed(2, "first")
	_, err := s.svc.Refresh(s.ctx)
	s.Require().NoError(err)
	s.ElementsMatch([]int64{1, 2}, s.notifier.seen)

	_, err = s.svc.Process(s.ctx, 1, models.StatusProcessing, "cek")
	s.Require().NoError(err)
	s.seed(1, "second")
	_, err = s.svc.Refresh(s.ctx)
	s.Require().NoError(err)
	s.ElementsMatch([]int64{1, 2, 3}, s.notifier.seen)
}

func (s *ServiceSuite) TestNotifierFailureRetriesOnNextLoad() {
	s.seed(1, "x")
	s.notifier.err = errors.New("db down")
	_, err := s.svc.Refresh(s.ctx)
	s.Require().NoError(err)
	s.Empty(s.notifier.seen)

	s.notifier.err = nil
	_, err = s.svc.Refresh(s.ctx)
	s.Require().NoError(err)
	s.Equal([]int64{1}, s.notifier.seen)
}
