package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"metrologi/internal/dashboard/handler/mocks"
	"metrologi/internal/dashboard/models"
	dErrors "metrologi/pkg/domain-errors"
	"metrologi/pkg/testutil"
)

func newRouter(t *testing.T) (*mocks.MockService, chi.Router) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	r := chi.NewRouter()
	New(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return svc, r
}

func TestHandleSummary(t *testing.T) {
	t.Run("returns counts", func(t *testing.T) {
		svc, router := newRouter(t)
		svc.EXPECT().Summary(gomock.Any()).Return(&models.Summary{
			TotalBusinesses: 12,
			TotalUTTP:       20,
			Recent:          []models.RecentBusiness{{ID: 1, OwnerName: "Siti", UTTPCount: 2}},
		}, nil)

		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/admin/dashboard"))
		testutil.AssertStatus(t, rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[models.Summary](t, rr)
		assert.Equal(t, 12, resp.TotalBusinesses)
		require.Len(t, resp.Recent, 1)
		assert.Equal(t, 2, resp.Recent[0].UTTPCount)
	})

	t.Run("store outage is 503", func(t *testing.T) {
		svc, router := newRouter(t)
		svc.EXPECT().Summary(gomock.Any()).Return(nil, dErrors.New(dErrors.CodeUnavailable, "failed to load dashboard"))

		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/admin/dashboard"))
		testutil.AssertStatusAndError(t, rr, http.StatusServiceUnavailable, string(dErrors.CodeUnavailable))
	})
}
