// Package identity authenticates the office administrator.
package identity

import (
	"context"
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"

	dErrors "metrologi/pkg/domain-errors"
)

// StaticProvider authenticates a single configured admin against a bcrypt hash.
type StaticProvider struct {
	email        string
	passwordHash []byte
}

// NewStaticProvider builds a provider for email with the given bcrypt hash.
func NewStaticProvider(email, passwordHash string) *StaticProvider {
	return &StaticProvider{
		email:        strings.ToLower(strings.TrimSpace(email)),
		passwordHash: []byte(passwordHash),
	}
}

// HashPassword returns a bcrypt hash suitable for ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Authenticate returns the canonical admin email on success. Unknown emails
// and wrong passwords produce the same error.
func (p *StaticProvider) Authenticate(_ context.Context, email, password string) (string, error) {
	invalid := dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	if len(p.passwordHash) == 0 {
		return "", invalid
	}
	normalized := strings.ToLower(strings.TrimSpace(email))
	emailMatches := subtle.ConstantTimeCompare([]byte(normalized), []byte(p.email)) == 1
	passwordErr := bcrypt.CompareHashAndPassword(p.passwordHash, []byte(password))
	if !emailMatches || passwordErr != nil {
		return "", invalid
	}
	return p.email, nil
}
