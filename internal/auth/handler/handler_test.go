package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"metrologi/internal/auth/handler/mocks"
	"metrologi/internal/auth/models"
	"metrologi/internal/platform/middleware"
	dErrors "metrologi/pkg/domain-errors"
	"metrologi/pkg/requestcontext"
	"metrologi/pkg/testutil"
)

type AuthHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
}

func TestAuthHandlerSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlerSuite))
}

func (s *AuthHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.T().Cleanup(ctrl.Finish)
	s.service = mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := New(s.service, logger)
	s.router = chi.NewRouter()
	h.Register(s.router)
	s.router.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(s.service, logger))
		h.RegisterProtected(r)
	})
}

func (s *AuthHandlerSuite) TestLogin() {
	s.Run("returns the token", func() {
		expires := time.Date(2024, 3, 1, 16, 0, 0, 0, time.UTC)
		s.service.EXPECT().Login(gomock.Any(), "admin@metrologi.local", "pw").Return(&models.LoginResult{
			AccessToken: "tok", TokenType: "Bearer", ExpiresAt: expires, Email: "admin@metrologi.local",
		}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/login",
			LoginRequest{Email: " admin@metrologi.local ", Password: "pw"}))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[models.LoginResult](s.T(), rr)
		s.Equal("tok", resp.AccessToken)
		s.Equal(expires, resp.ExpiresAt)
	})

	s.Run("missing password is rejected before the service", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/login",
			LoginRequest{Email: "admin@metrologi.local"}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("bad credentials are unauthorized", func() {
		s.service.EXPECT().Login(gomock.Any(), "admin@metrologi.local", "wrong").
			Return(nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password"))

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/login",
			LoginRequest{Email: "admin@metrologi.local", Password: "wrong"}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, string(dErrors.CodeUnauthorized))
	})
}

func (s *AuthHandlerSuite) TestSession() {
	s.Run("no token reports signed out", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/auth/session"))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[models.SessionInfo](s.T(), rr)
		s.False(resp.Authenticated)
	})

	s.Run("valid token reports the admin", func() {
		sessionID := uuid.New()
		s.service.EXPECT().ValidateSession(gomock.Any(), "tok").
			Return(&middleware.Principal{Email: "admin@metrologi.local", SessionID: sessionID}, nil)
		s.service.EXPECT().SessionInfo(gomock.Any()).DoAndReturn(func(ctx context.Context) (*models.SessionInfo, error) {
			s.Equal(sessionID, requestcontext.SessionID(ctx))
			return &models.SessionInfo{Authenticated: true, Email: "admin@metrologi.local"}, nil
		})

		req := testutil.NewRequest(s.T(), http.MethodGet, "/auth/session")
		req.Header.Set("Authorization", "Bearer tok")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[models.SessionInfo](s.T(), rr)
		s.True(resp.Authenticated)
	})
}

func (s *AuthHandlerSuite) TestLogout() {
	s.Run("requires a session", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, "/auth/logout"))
		testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
	})

	s.Run("signs out the caller", func() {
		sessionID := uuid.New()
		s.service.EXPECT().ValidateSession(gomock.Any(), "tok").
			Return(&middleware.Principal{Email: "admin@metrologi.local", SessionID: sessionID}, nil)
		s.service.EXPECT().SignOut(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
			s.Equal(sessionID, requestcontext.SessionID(ctx))
			s.Equal("admin@metrologi.local", requestcontext.AdminEmail(ctx))
			return nil
		})

		req := testutil.NewRequest(s.T(), http.MethodPost, "/auth/logout")
		req.Header.Set("Authorization", "Bearer tok")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
	})
}
