// Package middleware holds HTTP middleware that depends on application services.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	dErrors "metrologi/pkg/domain-errors"
	"metrologi/pkg/platform/httputil"
	"metrologi/pkg/requestcontext"
)

// Principal is the admin identity behind a valid session.
type Principal struct {
	Email     string
	SessionID uuid.UUID
}

// SessionValidator resolves a bearer token to an active session.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (*Principal, error)
}

// BearerToken extracts the token from an Authorization header.
func BearerToken(r *http.Request) (string, bool) {
	const bearerPrefix = "Bearer "
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
	if !ok || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// RequireSession rejects requests without a valid token bound to an active
// session and stores the admin identity in the request context.
func RequireSession(validator SessionValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := BearerToken(r)
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing or invalid Authorization header"))
				return
			}

			principal, err := validator.ValidateSession(ctx, token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid session",
					"request_id", requestID,
					"error", err,
				)
				if !dErrors.HasCode(err, dErrors.CodeUnauthorized) {
					err = dErrors.New(dErrors.CodeUnauthorized, "invalid or expired session")
				}
				httputil.WriteError(w, err)
				return
			}

			ctx = requestcontext.WithAdminEmail(ctx, principal.Email)
			ctx = requestcontext.WithSessionID(ctx, principal.SessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
