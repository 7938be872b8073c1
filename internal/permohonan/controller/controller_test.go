package controller_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"metrologi/internal/permohonan/controller"
	"metrologi/internal/permohonan/controller/mocks"
	"metrologi/internal/permohonan/models"
	"metrologi/internal/permohonan/store"
	dErrors "metrologi/pkg/domain-errors"
	"metrologi/pkg/platform/sentinel"
	"metrologi/pkg/testutil"
)

var errNetwork = errors.New("dial tcp: connection refused")

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seed(t *testing.T, s *store.InMemory, n int) []*models.ServiceRequest {
	t.Helper()
	base := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	out := make([]*models.ServiceRequest, n)
	for i := range out {
		r := &models.ServiceRequest{
			ApplicantName:  fmt.Sprintf("Pemohon %d", i+1),
			Email:          fmt.Sprintf("pemohon%d@example.com", i+1),
			Kind:           models.KindNewCalibration,
			EquipmentType:  "Timbangan",
			EquipmentBrand: "Camry",
			SubmittedAt:    base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, s.Create(context.Background(), r))
		out[i] = r
	}
	return out
}

func mustProcess(t *testing.T, c *controller.Controller, ctx context.Context, id int64, status models.Status, note string) models.ProcessResult {
	t.Helper()
	res, err := c.Process(ctx, id, status, note)
	require.NoError(t, err)
	return res
}

// ControllerSuite exercises the controller against a mocked store.
type ControllerSuite struct {
	suite.Suite
	ctrl  *gomock.Controller
	store *mocks.MockStore
	c     *controller.Controller
	ctx   context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockStore(s.ctrl)
	s.c = controller.New(s.store, controller.WithLogger(quietLogger()))
	s.ctx = context.Background()
}

func (s *ControllerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func fiveRequests() []models.ServiceRequest {
	out := make([]models.ServiceRequest, 5)
	for i := range out {
		out[i] = models.ServiceRequest{ID: int64(5 - i), ApplicantName: fmt.Sprintf("P%d", 5-i), Kind: models.KindRecalibration, Status: models.StatusPending}
	}
	return out
}

func (s *ControllerSuite) TestLoadFailureKeepsSnapshot() {
	s.store.EXPECT().List(gomock.Any()).Return(fiveRequests(), nil)
	s.store.EXPECT().List(gomock.Any()).Return(nil, errNetwork)

	items, err := s.c.LoadAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(items, 5)
	s.Nil(s.c.Notice())

	items, err = s.c.LoadAll(s.ctx)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	s.Len(items, 5, "previous list must stay visible")
	s.Len(s.c.Items(), 5)

	notice := s.c.Notice()
	s.Require().NotNil(notice)
	s.Equal("load", notice.Operation)
}

func (s *ControllerSuite) TestSuccessfulLoadClearsNotice() {
	s.store.EXPECT().List(gomock.Any()).Return(nil, errNetwork)
	s.store.EXPECT().List(gomock.Any()).Return(fiveRequests(), nil)

	_, err := s.c.LoadAll(s.ctx)
	s.Require().Error(err)
	s.NotNil(s.c.Notice())
	s.False(s.c.Loaded())

	_, err = s.c.LoadAll(s.ctx)
	s.Require().NoError(err)
	s.Nil(s.c.Notice())
	s.True(s.c.Loaded())
}

func (s *ControllerSuite) TestProcessValidation() {
	s.Run("missing status never reaches the store", func() {
		_, err := s.c.Process(s.ctx, 1, "", "note")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		_, hasDraft := s.c.Draft(1)
		s.False(hasDraft)
	})

	s.Run("pending is not a valid target", func() {
		_, err := s.c.Process(s.ctx, 1, models.StatusPending, "note")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ControllerSuite) TestProcessSendsAllFieldsThenReloads() {
	now := time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC)
	ctx := testutil.WithTime(testutil.NewRequest(s.T(), "POST", "/"), now).Context()

	gomock.InOrder(
		s.store.EXPECT().Update(gomock.Any(), int64(3), models.ProcessUpdate{
			Status:      models.StatusRejected,
			ProcessedAt: now,
			AdminNote:   "dokumen tidak lengkap",
		}).Return(nil),
		s.store.EXPECT().List(gomock.Any()).Return(fiveRequests(), nil),
	)

	res, err := s.c.Process(ctx, 3, models.StatusRejected, "dokumen tidak lengkap")
	s.Require().NoError(err)
	s.Len(s.c.Items(), 5)
	s.True(res.Reloaded)
	s.Equal(now, res.Applied.ProcessedAt)
	s.Require().NotNil(res.Request)
	s.Equal(int64(3), res.Request.ID)
}

func (s *ControllerSuite) TestProcessFailureRetainsDraft() {
	s.store.EXPECT().Update(gomock.Any(), int64(2), gomock.Any()).Return(errNetwork)

	_, err := s.c.Process(s.ctx, 2, models.StatusApproved, "lengkap")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))

	draft, ok := s.c.Draft(2)
	s.Require().True(ok)
	s.Equal(models.StatusApproved, draft.Status)
	s.Equal("lengkap", draft.Note)
	s.Require().NotNil(s.c.Notice())
	s.Equal("process", s.c.Notice().Operation)

	s.Run("successful retry clears the draft", func() {
		s.store.EXPECT().Update(gomock.Any(), int64(2), gomock.Any()).Return(nil)
		s.store.EXPECT().List(gomock.Any()).Return(fiveRequests(), nil)

		_, err := s.c.Process(s.ctx, 2, draft.Status, draft.Note)
		s.Require().NoError(err)
		_, ok := s.c.Draft(2)
		s.False(ok)
		s.Nil(s.c.Notice())
	})
}

func (s *ControllerSuite) TestProcessTranslatesStoreErrors() {
	s.store.EXPECT().Update(gomock.Any(), int64(8), gomock.Any()).Return(sentinel.ErrNotFound)
	_, err := s.c.Process(s.ctx, 8, models.StatusApproved, "")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	s.store.EXPECT().Update(gomock.Any(), int64(9), gomock.Any()).Return(fmt.Errorf("%w: approved", sentinel.ErrInvalidState))
	_, err = s.c.Process(s.ctx, 9, models.StatusRejected, "")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ControllerSuite) TestReloadFailureAfterProcessIsNotAnError() {
	s.store.EXPECT().Update(gomock.Any(), int64(1), gomock.Any()).Return(nil)
	s.store.EXPECT().List(gomock.Any()).Return(nil, errNetwork)

	res, err := s.c.Process(s.ctx, 1, models.StatusProcessing, "cek")
	s.Require().NoError(err)
	s.Require().NotNil(s.c.Notice())
	s.Equal("load", s.c.Notice().Operation)
	s.False(res.Reloaded)
	s.Nil(res.Request)
	s.Equal(models.StatusProcessing, res.Applied.Status)
	s.Equal("cek", res.Applied.AdminNote)
}

func (s *ControllerSuite) TestReloadFailureDoesNotReturnTheStaleRow() {
	s.store.EXPECT().List(gomock.Any()).Return(fiveRequests(), nil)
	_, err := s.c.LoadAll(s.ctx)
	s.Require().NoError(err)

	s.store.EXPECT().Update(gomock.Any(), int64(1), gomock.Any()).Return(nil)
	s.store.EXPECT().List(gomock.Any()).Return(nil, errNetwork)

	res, err := s.c.Process(s.ctx, 1, models.StatusApproved, "lengkap")
	s.Require().NoError(err)
	s.False(res.Reloaded)
	s.Nil(res.Request)
	s.Equal(models.StatusApproved, res.Applied.Status)

	stale, ok := s.c.Find(1)
	s.Require().True(ok)
	s.NotEqual(models.StatusApproved, stale.Status)
}

func TestScenarioProcessThenReload(t *testing.T) {
	ctx := context.Background()
	st := store.NewInMemory()
	seed(t, st, 1)
	c := controller.New(st, controller.WithLogger(quietLogger()))

	testutil.Given(t, "a loaded pending request", func(t *testing.T) {
		_, err := c.LoadAll(ctx)
		require.NoError(t, err)
		r, ok := c.Find(1)
		require.True(t, ok)
		require.Equal(t, models.StatusPending, r.Status)
	})

	before := time.Now()
	testutil.When(t, "the admin approves it with a note", func(t *testing.T) {
		mustProcess(t, c, ctx, 1, models.StatusApproved, "OK, documents complete")
	})

	testutil.Then(t, "the reloaded snapshot carries status, note and processed time", func(t *testing.T) {
		r, ok := c.Find(1)
		require.True(t, ok)
		assert.Equal(t, models.StatusApproved, r.Status)
		require.NotNil(t, r.AdminNote)
		assert.Equal(t, "OK, documents complete", *r.AdminNote)
		require.NotNil(t, r.ProcessedAt)
		assert.False(t, r.ProcessedAt.Before(before))
	})
}

func TestScenarioTerminalRequestsStayTerminal(t *testing.T) {
	ctx := context.Background()
	st := store.NewInMemory()
	seed(t, st, 2)
	c := controller.New(st, controller.WithLogger(quietLogger()))

	mustProcess(t, c, ctx, 1, models.StatusApproved, "ok")
	mustProcess(t, c, ctx, 2, models.StatusRejected, "no")

	for _, id := range []int64{1, 2} {
		for _, next := range models.ProcessTargets {
			_, err := c.Process(ctx, id, next, "again")
			assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict), "id=%d next=%s", id, next)
		}
	}

	r1, _ := c.Find(1)
	r2, _ := c.Find(2)
	assert.Equal(t, models.StatusApproved, r1.Status)
	assert.Equal(t, "ok", *r1.AdminNote)
	assert.Equal(t, models.StatusRejected, r2.Status)
}

func TestScenarioNonTerminalTransitions(t *testing.T) {
	ctx := context.Background()
	for _, from := range []models.Status{models.StatusPending, models.StatusProcessing} {
		for _, next := range models.ProcessTargets {
			if !from.CanTransitionTo(next) {
				continue
			}
			t.Run(fmt.Sprintf("%s to %s", from, next), func(t *testing.T) {
				st := store.NewInMemory()
				seed(t, st, 1)
				c := controller.New(st, controller.WithLogger(quietLogger()))
				if from == models.StatusProcessing {
					mustProcess(t, c, ctx, 1, models.StatusProcessing, "mulai")
				}

				mustProcess(t, c, ctx, 1, next, "catatan")
				r, ok := c.Find(1)
				require.True(t, ok)
				assert.Equal(t, next, r.Status)
				assert.Equal(t, "catatan", *r.AdminNote)
				assert.NoError(t, r.CheckInvariants())
			})
		}
	}
}

func TestScenarioPaginationOverSnapshot(t *testing.T) {
	st := store.NewInMemory()
	seed(t, st, 23)
	c := controller.New(st, controller.WithLogger(quietLogger()))
	_, err := c.LoadAll(context.Background())
	require.NoError(t, err)

	p1 := c.View(models.Query{Status: models.FilterAll, Kind: models.FilterAll}, 10, 1)
	p3 := c.View(models.Query{Status: models.FilterAll, Kind: models.FilterAll}, 10, 3)
	assert.Len(t, p1.Items, 10)
	assert.Len(t, p3.Items, 3)
	assert.Equal(t, 3, p1.TotalPages)
	assert.Equal(t, int64(23), p1.Items[0].ID, "newest first")
}

// gatedStore releases each List call only when the test says so.
type gatedStore struct {
	mu    sync.Mutex
	gates []chan []models.ServiceRequest
	calls chan int
}

func newGatedStore() *gatedStore {
	return &gatedStore{calls: make(chan int, 10)}
}

func (g *gatedStore) List(ctx context.Context) ([]models.ServiceRequest, error) {
	g.mu.Lock()
	gate := make(chan []models.ServiceRequest, 1)
	g.gates = append(g.gates, gate)
	n := len(g.gates)
	g.mu.Unlock()
	g.calls <- n
	return <-gate, nil
}

func (g *gatedStore) Update(context.Context, int64, models.ProcessUpdate) error {
	return nil
}

func (g *gatedStore) release(call int, items []models.ServiceRequest) {
	g.mu.Lock()
	gate := g.gates[call-1]
	g.mu.Unlock()
	gate <- items
}

func TestOutOfOrderLoadsKeepNewestSnapshot(t *testing.T) {
	ctx := context.Background()
	g := newGatedStore()
	c := controller.New(g, controller.WithLogger(quietLogger()))

	older := []models.ServiceRequest{{ID: 1, Status: models.StatusPending}}
	newer := []models.ServiceRequest{{ID: 1, Status: models.StatusApproved}, {ID: 2, Status: models.StatusPending}}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = c.LoadAll(ctx)
	}()
	first := <-g.calls

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = c.LoadAll(ctx)
	}()
	second := <-g.calls

	g.release(second, newer)
	require.Eventually(t, func() bool { return len(c.Items()) == 2 }, time.Second, 5*time.Millisecond)

	g.release(first, older)
	wg.Wait()

	items := c.Items()
	require.Len(t, items, 2, "stale response must be discarded")
	assert.Equal(t, models.StatusApproved, items[0].Status)
}
