package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestAccessors(t *testing.T) {
	t.Run("zero values when unset", func(t *testing.T) {
		ctx := context.Background()
		assert.Empty(t, AdminEmail(ctx))
		assert.Equal(t, uuid.Nil, SessionID(ctx))
		assert.Empty(t, RequestID(ctx))
		assert.Empty(t, ClientIP(ctx))
	})

	t.Run("pinned time is returned", func(t *testing.T) {
		fixed := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
		ctx := WithTime(context.Background(), fixed)
		assert.Equal(t, fixed, Now(ctx))
	})

	t.Run("session values round trip", func(t *testing.T) {
		sid := uuid.New()
		ctx := WithSessionID(WithAdminEmail(context.Background(), "admin@disperindag.go.id"), sid)
		assert.Equal(t, "admin@disperindag.go.id", AdminEmail(ctx))
		assert.Equal(t, sid, SessionID(ctx))
	})
}
