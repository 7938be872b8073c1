package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"metrologi/internal/auth/models"
	"metrologi/internal/platform/middleware"
	dErrors "metrologi/pkg/domain-errors"
	"metrologi/pkg/platform/httputil"
	"metrologi/pkg/requestcontext"
)

// Service defines the auth operations the handler needs.
type Service interface {
	Login(ctx context.Context, email, password string) (*models.LoginResult, error)
	ValidateSession(ctx context.Context, token string) (*middleware.Principal, error)
	SessionInfo(ctx context.Context) (*models.SessionInfo, error)
	SignOut(ctx context.Context) error
}

// Handler wires the admin sign-in endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the public endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
	r.Get("/auth/session", h.HandleSession)
}

// RegisterProtected mounts endpoints that require RequireSession.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Post("/auth/logout", h.HandleLogout)
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "password is required")
	}
	return nil
}

// HandleLogin handles POST /auth/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[LoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.logger.WarnContext(ctx, "admin login failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleSession handles GET /auth/session. It never fails on a bad token;
// it reports the caller as signed out instead.
func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token, ok := middleware.BearerToken(r)
	if !ok {
		httputil.WriteJSON(w, http.StatusOK, models.SessionInfo{})
		return
	}
	principal, err := h.service.ValidateSession(ctx, token)
	if err != nil {
		httputil.WriteJSON(w, http.StatusOK, models.SessionInfo{})
		return
	}

	info, err := h.service.SessionInfo(requestcontext.WithSessionID(ctx, principal.SessionID))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read session",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, info)
}

// HandleLogout handles POST /auth/logout.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.SignOut(ctx); err != nil {
		h.logger.WarnContext(ctx, "admin logout failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
