// Package service publishes articles: the public landing feed and the admin
// editorial workflow.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"metrologi/internal/artikel/models"
	"metrologi/internal/audit"
	dErrors "metrologi/pkg/domain-errors"
	"metrologi/pkg/platform/sentinel"
	"metrologi/pkg/requestcontext"
)

// LatestLimit is how many articles the landing page shows.
const LatestLimit = 3

const maxSlugAttempts = 20

type Store interface {
	Create(ctx context.Context, a *models.Article) error
	Update(ctx context.Context, a *models.Article) error
	Execute(ctx context.Context, id int64, validate func(*models.Article) error, mutate func(*models.Article)) (*models.Article, error)
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*models.Article, error)
	List(ctx context.Context) ([]models.Article, error)
	ListPublished(ctx context.Context, limit int) ([]models.Article, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store          Store
	logger         *slog.Logger
	auditPublisher AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Input carries the editable fields of an article.
type Input struct {
	Title    string
	Excerpt  string
	Content  string
	ImageURL *string
	Author   string
}

// Latest returns the newest published articles for the landing page.
func (s *Service) Latest(ctx context.Context) ([]models.Summary, error) {
	items, err := s.store.ListPublished(ctx, LatestLimit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load articles")
	}
	out := make([]models.Summary, 0, len(items))
	for i := range items {
		out = append(out, items[i].Summary())
	}
	return out, nil
}

// GetPublished returns a published article with its reading time. Drafts are
// reported as not found.
func (s *Service) GetPublished(ctx context.Context, id int64) (*models.Detail, error) {
	a, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if a.Status != models.StatusPublished {
		return nil, dErrors.New(dErrors.CodeNotFound, "article not found")
	}
	return &models.Detail{Article: *a, ReadingMinutes: models.ReadingMinutes(a.Content)}, nil
}

// List returns every article for the admin list, newest first.
func (s *Service) List(ctx context.Context) ([]models.Article, error) {
	items, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load articles")
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*models.Article, error) {
	a, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	return a, nil
}

// Create stores a new draft. The slug comes from the title; a numeric suffix
// is added when it is taken.
func (s *Service) Create(ctx context.Context, in Input) (*models.Article, error) {
	now := requestcontext.Now(ctx)
	author := in.Author
	if author == "" {
		author = requestcontext.AdminEmail(ctx)
	}
	base := models.Slugify(in.Title)
	for attempt := 1; attempt <= maxSlugAttempts; attempt++ {
		slug := base
		if attempt > 1 {
			slug = base + "-" + strconv.Itoa(attempt)
		}
		a := &models.Article{
			Title:     in.Title,
			Slug:      slug,
			Excerpt:   in.Excerpt,
			Content:   in.Content,
			ImageURL:  in.ImageURL,
			Author:    author,
			Status:    models.StatusDraft,
			CreatedAt: now,
			UpdatedAt: now,
		}
		err := s.store.Create(ctx, a)
		if errors.Is(err, sentinel.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save article")
		}
		s.logAudit(ctx, audit.ActionArtikelCreated, a.ID, "")
		return a, nil
	}
	return nil, dErrors.New(dErrors.CodeConflict, "could not allocate a unique slug")
}

// Update edits the content fields. Slug and publication state are unchanged.
func (s *Service) Update(ctx context.Context, id int64, in Input) (*models.Article, error) {
	a, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	a.Title = in.Title
	a.Excerpt = in.Excerpt
	a.Content = in.Content
	a.ImageURL = in.ImageURL
	if in.Author != "" {
		a.Author = in.Author
	}
	if a.Status == models.StatusPublished && a.Content == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "a published article needs content")
	}
	a.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.Update(ctx, a); err != nil {
		return nil, translate(err)
	}
	s.logAudit(ctx, audit.ActionArtikelUpdated, id, "")
	return a, nil
}

// Publish makes a draft visible on the public portal.
func (s *Service) Publish(ctx context.Context, id int64) (*models.Article, error) {
	now := requestcontext.Now(ctx)
	a, err := s.store.Execute(ctx, id,
		func(a *models.Article) error { return a.CanPublish() },
		func(a *models.Article) { a.ApplyPublish(now) },
	)
	if err != nil {
		return nil, translate(err)
	}
	s.logAudit(ctx, audit.ActionArtikelPublished, id, string(models.StatusPublished))
	return a, nil
}

// Unpublish returns a published article to draft.
func (s *Service) Unpublish(ctx context.Context, id int64) (*models.Article, error) {
	now := requestcontext.Now(ctx)
	a, err := s.store.Execute(ctx, id,
		func(a *models.Article) error { return a.CanUnpublish() },
		func(a *models.Article) { a.ApplyUnpublish(now) },
	)
	if err != nil {
		return nil, translate(err)
	}
	s.logAudit(ctx, audit.ActionArtikelPublished, id, string(models.StatusDraft))
	return a, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return translate(err)
	}
	s.logAudit(ctx, audit.ActionArtikelDeleted, id, "")
	return nil
}

func translate(err error) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "article not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "article slug already exists")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "article store failure")
	}
}

func (s *Service) logAudit(ctx context.Context, action audit.Action, id int64, decision string) {
	requestID := requestcontext.RequestID(ctx)
	actor := requestcontext.AdminEmail(ctx)
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(action),
			"artikel_id", id,
			"status", decision,
			"actor", actor,
			"request_id", requestID,
			"event", string(action),
			"log_type", "audit",
		)
	}
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:    action,
		Actor:     actor,
		Subject:   strconv.FormatInt(id, 10),
		Decision:  decision,
		RequestID: requestID,
		Timestamp: requestcontext.Now(ctx),
	}); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"request_id", requestID,
			"event", string(action),
			"error", err,
		)
	}
}
