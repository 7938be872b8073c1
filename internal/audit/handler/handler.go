// Package handler exposes the recent audit trail to the admin.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"metrologi/internal/audit"
	dErrors "metrologi/pkg/domain-errors"
	"metrologi/pkg/platform/httputil"
	"metrologi/pkg/requestcontext"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

type Lister interface {
	List(ctx context.Context, limit int) ([]audit.Event, error)
}

type Handler struct {
	lister Lister
	logger *slog.Logger
}

func New(lister Lister, logger *slog.Logger) *Handler {
	return &Handler{lister: lister, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/audit", h.HandleList)
}

type ListResponse struct {
	Items []audit.Event `json:"items"`
	Count int           `json:"count"`
}

// HandleList handles GET /admin/audit?limit=N.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer"))
			return
		}
		limit = min(n, maxLimit)
	}
	events, err := h.lister.List(ctx, limit)
	if err != nil {
		h.logger.WarnContext(ctx, "audit list failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load audit trail"))
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Items: events, Count: len(events)})
}
