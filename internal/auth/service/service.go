// Package service signs the office administrator in and out and validates
// the sessions behind admin access tokens.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"metrologi/internal/audit"
	"metrologi/internal/auth/models"
	"metrologi/internal/auth/token"
	"metrologi/internal/platform/middleware"
	dErrors "metrologi/pkg/domain-errors"
	"metrologi/pkg/platform/sentinel"
	"metrologi/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks SessionStore,IdentityProvider

const DefaultSessionTTL = 8 * time.Hour

// SessionStore persists admin sessions.
type SessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Session, error)
	Execute(ctx context.Context, id uuid.UUID, validate func(*models.Session) error, mutate func(*models.Session)) (*models.Session, error)
}

// IdentityProvider checks admin credentials and returns the canonical email.
type IdentityProvider interface {
	Authenticate(ctx context.Context, email, password string) (string, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service manages admin sessions.
type Service struct {
	sessions       SessionStore
	identity       IdentityProvider
	tokens         *token.JWTService
	sessionTTL     time.Duration
	logger         *slog.Logger
	auditPublisher AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

func New(sessions SessionStore, identity IdentityProvider, tokens *token.JWTService, opts ...Option) (*Service, error) {
	if sessions == nil || identity == nil || tokens == nil {
		return nil, errors.New("sessions, identity and tokens are required")
	}
	s := &Service{
		sessions:   sessions,
		identity:   identity,
		tokens:     tokens,
		sessionTTL: DefaultSessionTTL,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Login authenticates the admin, opens a session and issues a token bound to it.
func (s *Service) Login(ctx context.Context, email, password string) (*models.LoginResult, error) {
	if email == "" || password == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email and password are required")
	}

	canonical, err := s.identity.Authenticate(ctx, email, password)
	if err != nil {
		s.logAudit(ctx, audit.ActionAdminLoginFailed, email, "")
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to authenticate")
	}

	now := requestcontext.Now(ctx)
	session, err := models.NewSession(canonical, s.sessionTTL, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create session")
	}
	session.ClientIP = requestcontext.ClientIP(ctx)
	session.UserAgent = requestcontext.UserAgent(ctx)

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save session")
	}

	accessToken, err := s.tokens.GenerateAccessToken(canonical, session.ID, now, session.ExpiresAt)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate access token")
	}

	s.logAudit(ctx, audit.ActionAdminLogin, canonical, session.ID.String())
	return &models.LoginResult{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresAt:   session.ExpiresAt,
		Email:       canonical,
	}, nil
}

// ValidateSession resolves a bearer token to the admin behind an active session.
func (s *Service) ValidateSession(ctx context.Context, accessToken string) (*middleware.Principal, error) {
	claims, err := s.tokens.ValidateToken(accessToken)
	if err != nil {
		return nil, err
	}
	sessionID, err := claims.SessionUUID()
	if err != nil {
		return nil, err
	}
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "session not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
	}
	if !session.IsActive(requestcontext.Now(ctx)) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "session is no longer active")
	}
	return &middleware.Principal{Email: session.Email, SessionID: session.ID}, nil
}

// IsAuthenticated reports whether ctx carries an active admin session.
func (s *Service) IsAuthenticated(ctx context.Context) bool {
	info, err := s.SessionInfo(ctx)
	return err == nil && info.Authenticated
}

// SessionInfo describes the session in ctx, if any.
func (s *Service) SessionInfo(ctx context.Context) (*models.SessionInfo, error) {
	sessionID := requestcontext.SessionID(ctx)
	if sessionID == uuid.Nil {
		return &models.SessionInfo{}, nil
	}
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return &models.SessionInfo{}, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
	}
	if !session.IsActive(requestcontext.Now(ctx)) {
		return &models.SessionInfo{}, nil
	}
	expiresAt := session.ExpiresAt
	return &models.SessionInfo{
		Authenticated: true,
		Email:         session.Email,
		ExpiresAt:     &expiresAt,
	}, nil
}

// SignOut revokes the session in ctx.
func (s *Service) SignOut(ctx context.Context) error {
	return s.Logout(ctx, requestcontext.SessionID(ctx))
}

// Logout revokes sessionID. Revoking an already revoked session succeeds.
func (s *Service) Logout(ctx context.Context, sessionID uuid.UUID) error {
	if sessionID == uuid.Nil {
		return dErrors.New(dErrors.CodeUnauthorized, "no active session")
	}
	now := requestcontext.Now(ctx)
	session, err := s.sessions.Execute(ctx, sessionID,
		func(sess *models.Session) error { return sess.CanRevoke() },
		func(sess *models.Session) { sess.ApplyRevocation(now) },
	)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "session not found")
		case dErrors.HasCode(err, dErrors.CodeInvariantViolation):
			return nil
		default:
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke session")
		}
	}
	s.logAudit(ctx, audit.ActionAdminLogout, session.Email, session.ID.String())
	return nil
}

func (s *Service) logAudit(ctx context.Context, action audit.Action, email, sessionID string) {
	requestID := requestcontext.RequestID(ctx)
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(action),
			"email", email,
			"session_id", sessionID,
			"client_ip", requestcontext.ClientIP(ctx),
			"request_id", requestID,
			"event", string(action),
			"log_type", "audit",
		)
	}
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:    action,
		Actor:     email,
		Subject:   sessionID,
		RequestID: requestID,
		Timestamp: requestcontext.Now(ctx),
	}); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"request_id", requestID,
			"event", string(action),
			"error", err,
		)
	}
}
