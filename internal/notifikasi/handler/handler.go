package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"metrologi/internal/notifikasi/models"
	dErrors "metrologi/pkg/domain-errors"
	"metrologi/pkg/platform/httputil"
	"metrologi/pkg/requestcontext"
)

// Service defines the notification operations the handler needs.
type Service interface {
	List(ctx context.Context, unreadOnly bool, limit int) ([]models.Notification, error)
	Summary(ctx context.Context) (models.Summary, error)
	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context) (int, error)
	Delete(ctx context.Context, id int64) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the notification endpoints. Callers guard r with the session middleware.
func (h *Handler) Register(r chi.Router) {
	r.Route("/admin/notifikasi", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Get("/summary", h.HandleSummary)
		r.Post("/read-all", h.HandleMarkAllRead)
		r.Post("/{id}/read", h.HandleMarkRead)
		r.Delete("/{id}", h.HandleDelete)
	})
}

type ListResponse struct {
	Items  []models.Notification `json:"items"`
	Unread int                   `json:"unread"`
	Total  int                   `json:"total"`
}

type MarkAllReadResponse struct {
	Updated int `json:"updated"`
}

// HandleList handles GET /admin/notifikasi?unread=true&limit=N.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	unreadOnly, limit, err := parseListQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	items, err := h.service.List(ctx, unreadOnly, limit)
	if err != nil {
		h.logFailure(ctx, "notification list failed", err)
		httputil.WriteError(w, err)
		return
	}
	sum, err := h.service.Summary(ctx)
	if err != nil {
		h.logFailure(ctx, "notification summary failed", err)
		httputil.WriteError(w, err)
		return
	}
	if items == nil {
		items = []models.Notification{}
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Items: items, Unread: sum.Unread, Total: sum.Total})
}

// HandleSummary handles GET /admin/notifikasi/summary.
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.service.Summary(r.Context())
	if err != nil {
		h.logFailure(r.Context(), "notification summary failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sum)
}

// HandleMarkRead handles POST /admin/notifikasi/{id}/read.
func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	h.withID(w, r, h.service.MarkRead)
}

// HandleDelete handles DELETE /admin/notifikasi/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	h.withID(w, r, h.service.Delete)
}

// HandleMarkAllRead handles POST /admin/notifikasi/read-all.
func (h *Handler) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.MarkAllRead(r.Context())
	if err != nil {
		h.logFailure(r.Context(), "mark all read failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MarkAllReadResponse{Updated: n})
}

func (h *Handler) withID(w http.ResponseWriter, r *http.Request, fn func(context.Context, int64) error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid notification id"))
		return
	}
	if err := fn(r.Context(), id); err != nil {
		h.logFailure(r.Context(), "notification update failed", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
}

func parseListQuery(r *http.Request) (bool, int, error) {
	q := r.URL.Query()
	unreadOnly := false
	if v := q.Get("unread"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, 0, dErrors.New(dErrors.CodeBadRequest, "unread must be a boolean")
		}
		unreadOnly = b
	}
	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return false, 0, dErrors.New(dErrors.CodeBadRequest, "limit must be a non-negative integer")
		}
		limit = n
	}
	return unreadOnly, limit, nil
}
