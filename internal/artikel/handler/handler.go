package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"metrologi/internal/artikel/models"
	"metrologi/internal/artikel/service"
	dErrors "metrologi/pkg/domain-errors"
	"metrologi/pkg/platform/httputil"
	"metrologi/pkg/platform/validation"
	"metrologi/pkg/requestcontext"
)

// Service defines the article operations the handler needs.
type Service interface {
	Latest(ctx context.Context) ([]models.Summary, error)
	GetPublished(ctx context.Context, id int64) (*models.Detail, error)
	List(ctx context.Context) ([]models.Article, error)
	Get(ctx context.Context, id int64) (*models.Article, error)
	Create(ctx context.Context, in service.Input) (*models.Article, error)
	Update(ctx context.Context, id int64, in service.Input) (*models.Article, error)
	Publish(ctx context.Context, id int64) (*models.Article, error)
	Unpublish(ctx context.Context, id int64) (*models.Article, error)
	Delete(ctx context.Context, id int64) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts the read-only landing page endpoints.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/artikel", h.HandleLatest)
	r.Get("/artikel/{id}", h.HandleGetPublished)
}

// Register mounts the admin endpoints. Callers guard r with the session middleware.
func (h *Handler) Register(r chi.Router) {
	r.Route("/admin/artikel", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
		r.Post("/{id}/publish", h.HandlePublish)
		r.Post("/{id}/unpublish", h.HandleUnpublish)
	})
}

// ArticleRequest is the body of POST and PUT /admin/artikel.
type ArticleRequest struct {
	Title    string `json:"judul" validate:"required,max=200"`
	Excerpt  string `json:"ringkasan" validate:"max=500"`
	Content  string `json:"konten" validate:"max=200000"`
	ImageURL string `json:"gambar" validate:"omitempty,url,max=1000"`
	Author   string `json:"penulis" validate:"max=100"`
}

func (r *ArticleRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Title = strings.TrimSpace(r.Title)
	r.Excerpt = strings.TrimSpace(r.Excerpt)
	r.ImageURL = strings.TrimSpace(r.ImageURL)
	r.Author = strings.TrimSpace(r.Author)
	return validation.Struct(r)
}

func (r *ArticleRequest) toInput() service.Input {
	in := service.Input{
		Title:   r.Title,
		Excerpt: r.Excerpt,
		Content: r.Content,
		Author:  r.Author,
	}
	if r.ImageURL != "" {
		image := r.ImageURL
		in.ImageURL = &image
	}
	return in
}

// ListResponse wraps article lists.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

func newList[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Count: len(items)}
}

// HandleLatest handles GET /artikel.
func (h *Handler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Latest(r.Context())
	if err != nil {
		h.logFailure(r.Context(), "latest articles failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newList(items))
}

// HandleGetPublished handles GET /artikel/{id}.
func (h *Handler) HandleGetPublished(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	detail, err := h.service.GetPublished(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, detail)
}

// HandleList handles GET /admin/artikel.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		h.logFailure(r.Context(), "article list failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newList(items))
}

// HandleGet handles GET /admin/artikel/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	h.withID(w, r, func(ctx context.Context, id int64) (any, error) {
		return h.service.Get(ctx, id)
	})
}

// HandleCreate handles POST /admin/artikel.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[ArticleRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	a, err := h.service.Create(ctx, req.toInput())
	if err != nil {
		h.logFailure(ctx, "article create failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, a)
}

// HandleUpdate handles PUT /admin/artikel/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := parseID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[ArticleRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	a, err := h.service.Update(ctx, id, req.toInput())
	if err != nil {
		h.logFailure(ctx, "article update failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, a)
}

// HandlePublish handles POST /admin/artikel/{id}/publish.
func (h *Handler) HandlePublish(w http.ResponseWriter, r *http.Request) {
	h.withID(w, r, func(ctx context.Context, id int64) (any, error) {
		return h.service.Publish(ctx, id)
	})
}

// HandleUnpublish handles POST /admin/artikel/{id}/unpublish.
func (h *Handler) HandleUnpublish(w http.ResponseWriter, r *http.Request) {
	h.withID(w, r, func(ctx context.Context, id int64) (any, error) {
		return h.service.Unpublish(ctx, id)
	})
}

// HandleDelete handles DELETE /admin/artikel/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logFailure(r.Context(), "article delete failed", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) withID(w http.ResponseWriter, r *http.Request, fn func(context.Context, int64) (any, error)) {
	id, err := parseID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := fn(r.Context(), id)
	if err != nil {
		h.logFailure(r.Context(), "article request failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
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
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid article id")
	}
	return id, nil
}
