package audit

import (
	"context"
	"log/slog"
)

// Worker consumes audit events from a channel and persists them until the
// channel is closed.
type Worker struct {
	persist func(context.Context, Event) error
	inbox   <-chan Event
	logger  *slog.Logger
}

func NewWorker(persist func(context.Context, Event) error, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{persist: persist, inbox: inbox, logger: logger}
}

func (w *Worker) Run() {
	for event := range w.inbox {
		if err := w.persist(context.Background(), event); err != nil {
			w.logger.Error("failed to persist audit event",
				"action", event.Action,
				"error", err,
			)
		}
	}
}
