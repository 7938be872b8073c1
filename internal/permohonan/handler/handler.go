package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"metrologi/internal/permohonan/models"
	dErrors "metrologi/pkg/domain-errors"
	"metrologi/pkg/platform/httputil"
	"metrologi/pkg/requestcontext"
)

// Service defines the permohonan operations the handler needs.
type Service interface {
	List(ctx context.Context, q models.Query, page, pageSize int) (*models.ListResult, error)
	Refresh(ctx context.Context) (models.Stats, error)
	Get(ctx context.Context, id int64) (*models.ServiceRequest, error)
	Process(ctx context.Context, id int64, status models.Status, note string) (*models.ProcessResult, error)
	Draft(ctx context.Context, id int64) (*models.Draft, error)
	DismissNotice(ctx context.Context)
}

// Handler wires the admin permohonan endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a permohonan handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the endpoints on r. Callers guard r with the session middleware.
func (h *Handler) Register(r chi.Router) {
	r.Route("/admin/permohonan", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/refresh", h.HandleRefresh)
		r.Delete("/notice", h.HandleDismissNotice)
		r.Get("/{id}", h.HandleGet)
		r.Post("/{id}/process", h.HandleProcess)
		r.Get("/{id}/draft", h.HandleDraft)
	})
}

// HandleList handles GET /admin/permohonan.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	params, err := parseListParams(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.List(ctx, params.Query, params.Page, params.PageSize)
	if err != nil {
		h.logger.WarnContext(ctx, "permohonan list failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleRefresh handles POST /admin/permohonan/refresh.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := h.service.Refresh(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "permohonan refresh failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteJSON(w, httputil.StatusFor(dErrors.CodeOf(err)), RefreshResponse{
			Refreshed: false,
			Stats:     stats,
			Notice:    errorDescription(err),
		})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, RefreshResponse{Refreshed: true, Stats: stats})
}

// HandleDismissNotice handles DELETE /admin/permohonan/notice.
func (h *Handler) HandleDismissNotice(w http.ResponseWriter, r *http.Request) {
	h.service.DismissNotice(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// HandleGet handles GET /admin/permohonan/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, req)
}

// HandleProcess handles POST /admin/permohonan/{id}/process.
func (h *Handler) HandleProcess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := parseID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[ProcessRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Process(ctx, id, req.parsedStatus, req.Note)
	if err != nil {
		h.logger.WarnContext(ctx, "permohonan process failed",
			"request_id", requestID,
			"permohonan_id", id,
			"status", req.Status,
			"error", err,
		)
		draft, _ := h.service.Draft(ctx, id)
		code := dErrors.CodeOf(err)
		httputil.WriteJSON(w, httputil.StatusFor(code), ProcessErrorResponse{
			ErrorResponse: httputil.ErrorResponse{
				Error:            string(code),
				ErrorDescription: errorDescription(err),
			},
			Draft: draft,
		})
		return
	}

	h.logger.InfoContext(ctx, "permohonan processed",
		"request_id", requestID,
		"permohonan_id", id,
		"status", req.Status,
		"reloaded", result.Reloaded,
	)
	httputil.WriteJSON(w, http.StatusOK, ProcessResponse{
		Processed: true,
		Reloaded:  result.Reloaded,
		Applied:   result.Applied,
		Request:   result.Request,
	})
}

// HandleDraft handles GET /admin/permohonan/{id}/draft.
func (h *Handler) HandleDraft(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	draft, err := h.service.Draft(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, draft)
}

func parseID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid service request id")
	}
	return id, nil
}

func errorDescription(err error) string {
	if de, ok := dErrors.As(err); ok && de.Code != dErrors.CodeInternal {
		return de.Message
	}
	return ""
}
