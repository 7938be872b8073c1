package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingSink struct {
	calls int
	err   error
}

func (s *countingSink) Write(context.Context, Event) error {
	s.calls++
	return s.err
}

func TestBreakerSink(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	next := &countingSink{err: errors.New("broker down")}
	b := NewBreakerSink(next, 2, time.Minute)
	b.now = func() time.Time { return now }
	ctx := context.Background()

	assert.Error(t, b.Write(ctx, Event{}))
	assert.False(t, b.IsOpen())
	assert.Error(t, b.Write(ctx, Event{}))
	assert.True(t, b.IsOpen())

	t.Run("open breaker skips the sink", func(t *testing.T) {
		assert.ErrorIs(t, b.Write(ctx, Event{}), ErrSinkOpen)
		assert.Equal(t, 2, next.calls)
	})

	t.Run("failed half-open attempt reopens", func(t *testing.T) {
		now = now.Add(time.Minute)
		assert.Error(t, b.Write(ctx, Event{}))
		assert.Equal(t, 3, next.calls)
		assert.True(t, b.IsOpen())
	})

	t.Run("successful half-open attempt closes", func(t *testing.T) {
		now = now.Add(time.Minute)
		next.err = nil
		assert.NoError(t, b.Write(ctx, Event{}))
		assert.False(t, b.IsOpen())
		assert.NoError(t, b.Write(ctx, Event{}))
		assert.Equal(t, 5, next.calls)
	})
}
