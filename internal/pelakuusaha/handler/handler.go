package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"metrologi/internal/pelakuusaha/export"
	"metrologi/internal/pelakuusaha/models"
	dErrors "metrologi/pkg/domain-errors"
	"metrologi/pkg/platform/httputil"
	"metrologi/pkg/requestcontext"
)

// Service defines the registry operations the handler needs.
type Service interface {
	List(ctx context.Context, q models.Query) ([]models.PelakuUsaha, error)
	ListUTTP(ctx context.Context) ([]models.Equipment, error)
	Export(ctx context.Context, q models.Query, w io.Writer) error
	Get(ctx context.Context, id int64) (*models.PelakuUsaha, error)
	Create(ctx context.Context, p *models.PelakuUsaha) (*models.PelakuUsaha, error)
	Update(ctx context.Context, id int64, p *models.PelakuUsaha) (*models.PelakuUsaha, error)
	Delete(ctx context.Context, id int64) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the endpoints on r. Callers guard r with the session middleware.
func (h *Handler) Register(r chi.Router) {
	r.Route("/admin/pelaku-usaha", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Get("/export", h.HandleExport)
		r.Get("/uttp", h.HandleListUTTP)
		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
	})
}

// HandleList handles GET /admin/pelaku-usaha.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context(), parseQuery(r))
	if err != nil {
		h.logFailure(r.Context(), "pelaku usaha list failed", err)
		httputil.WriteError(w, err)
		return
	}
	resp := ListResponse{Items: make([]PelakuResponse, 0, len(items)), Count: len(items)}
	for _, p := range items {
		resp.Items = append(resp.Items, toResponse(p))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleExport handles GET /admin/pelaku-usaha/export. The workbook is built
// in memory so a failure can still produce a JSON error.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var buf bytes.Buffer
	if err := h.service.Export(ctx, parseQuery(r), &buf); err != nil {
		h.logFailure(ctx, "pelaku usaha export failed", err)
		httputil.WriteError(w, err)
		return
	}
	filename := fmt.Sprintf("pelaku-usaha-%s.xlsx", requestcontext.Now(ctx).Format("20060102"))
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// HandleListUTTP handles GET /admin/pelaku-usaha/uttp.
func (h *Handler) HandleListUTTP(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListUTTP(r.Context())
	if err != nil {
		h.logFailure(r.Context(), "uttp list failed", err)
		httputil.WriteError(w, err)
		return
	}
	if items == nil {
		items = []models.Equipment{}
	}
	httputil.WriteJSON(w, http.StatusOK, UTTPListResponse{Items: items, Count: len(items)})
}

// HandleGet handles GET /admin/pelaku-usaha/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(*p))
}

// HandleCreate handles POST /admin/pelaku-usaha.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[UpsertRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	created, err := h.service.Create(ctx, req.ToModel())
	if err != nil {
		h.logFailure(ctx, "pelaku usaha create failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toResponse(*created))
}

// HandleUpdate handles PUT /admin/pelaku-usaha/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := parseID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpsertRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	updated, err := h.service.Update(ctx, id, req.ToModel())
	if err != nil {
		h.logFailure(ctx, "pelaku usaha update failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(*updated))
}

// HandleDelete handles DELETE /admin/pelaku-usaha/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logFailure(r.Context(), "pelaku usaha delete failed", err)
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

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid pelaku usaha id")
	}
	return id, nil
}
