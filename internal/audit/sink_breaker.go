package audit

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSinkOpen is returned while the breaker is skipping a failing sink.
var ErrSinkOpen = errors.New("audit sink circuit open")

// BreakerSink stops calling a sink after threshold consecutive failures and
// retries it once cooldown has passed. Events written while open are
// dropped from the sink; the Store still has them.
type BreakerSink struct {
	next      Sink
	threshold int
	cooldown  time.Duration
	now       func() time.Time

	mu        sync.Mutex
	failures  int
	openUntil time.Time
}

func NewBreakerSink(next Sink, threshold int, cooldown time.Duration) *BreakerSink {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = time.Minute
	}
	return &BreakerSink{next: next, threshold: threshold, cooldown: cooldown, now: time.Now}
}

func (b *BreakerSink) Write(ctx context.Context, event Event) error {
	if !b.allow() {
		return ErrSinkOpen
	}
	err := b.next.Write(ctx, event)
	b.record(err)
	return err
}

// IsOpen reports whether writes are currently skipped.
func (b *BreakerSink) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures >= b.threshold && b.now().Before(b.openUntil)
}

func (b *BreakerSink) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failures < b.threshold {
		return true
	}
	// half-open: one attempt after cooldown
	return !b.now().Before(b.openUntil)
}

func (b *BreakerSink) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		b.failures = 0
		return
	}
	b.failures++
	if b.failures >= b.threshold {
		b.openUntil = b.now().Add(b.cooldown)
	}
}
