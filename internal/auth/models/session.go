package models

import (
	"time"

	"github.com/google/uuid"

	dErrors "metrologi/pkg/domain-errors"
)

// SessionStatus is the lifecycle state of an admin session.
type SessionStatus string

const (
	SessionStatusActive  SessionStatus = "active"
	SessionStatusRevoked SessionStatus = "revoked"
)

// Session is one signed-in admin.
//
// Invariants:
//   - ExpiresAt is after CreatedAt
//   - Status transitions: active -> revoked only
type Session struct {
	ID         uuid.UUID     `json:"id"`
	Email      string        `json:"email"`
	Status     SessionStatus `json:"status"`
	ClientIP   string        `json:"client_ip,omitempty"`
	UserAgent  string        `json:"user_agent,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	ExpiresAt  time.Time     `json:"expires_at"`
	LastSeenAt time.Time     `json:"last_seen_at"`
	RevokedAt  *time.Time    `json:"revoked_at,omitempty"`
}

// NewSession starts an active session lasting ttl.
func NewSession(email string, ttl time.Duration, now time.Time) (*Session, error) {
	if email == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "session email cannot be empty")
	}
	if ttl <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "session ttl must be positive")
	}
	return &Session{
		ID:         uuid.New(),
		Email:      email,
		Status:     SessionStatusActive,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
		LastSeenAt: now,
	}, nil
}

// IsActive reports whether the session may authorize requests at now.
func (s *Session) IsActive(now time.Time) bool {
	return s.Status == SessionStatusActive && now.Before(s.ExpiresAt)
}

// CanRevoke checks if the session can transition to revoked.
func (s *Session) CanRevoke() error {
	if s.Status == SessionStatusRevoked {
		return dErrors.New(dErrors.CodeInvariantViolation, "session is already revoked")
	}
	return nil
}

// ApplyRevocation marks the session revoked.
// Must only be called after CanRevoke returns nil.
func (s *Session) ApplyRevocation(now time.Time) {
	s.Status = SessionStatusRevoked
	s.RevokedAt = &now
}

// SessionInfo answers "is anyone signed in" for the admin surface.
type SessionInfo struct {
	Authenticated bool       `json:"authenticated"`
	Email         string     `json:"email,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// LoginResult is returned by a successful sign-in.
type LoginResult struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	Email       string    `json:"email"`
}
