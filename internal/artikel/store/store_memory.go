// Package store persists articles.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"metrologi/internal/artikel/models"
	"metrologi/pkg/platform/sentinel"
)

type InMemory struct {
	mu     sync.RWMutex
	rows   map[int64]*models.Article
	nextID int64
}

func NewInMemory() *InMemory {
	return &InMemory{rows: make(map[int64]*models.Article)}
}

func (s *InMemory) slugTakenLocked(slug string, except int64) bool {
	for id, a := range s.rows {
		if id != except && a.Slug == slug {
			return true
		}
	}
	return false
}

// Create assigns the ID. A duplicate slug returns sentinel.ErrConflict.
func (s *InMemory) Create(_ context.Context, a *models.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.slugTakenLocked(a.Slug, 0) {
		return sentinel.ErrConflict
	}
	s.nextID++
	a.ID = s.nextID
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}
	row := a.Clone()
	s.rows[a.ID] = &row
	return nil
}

func (s *InMemory) Update(_ context.Context, a *models.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.rows[a.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if s.slugTakenLocked(a.Slug, a.ID) {
		return sentinel.ErrConflict
	}
	a.CreatedAt = existing.CreatedAt
	row := a.Clone()
	s.rows[a.ID] = &row
	return nil
}

// Execute runs validate then mutate on one article under the write lock.
func (s *InMemory) Execute(_ context.Context, id int64, validate func(*models.Article) error, mutate func(*models.Article)) (*models.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.rows[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(a); err != nil {
		return nil, err
	}
	mutate(a)
	cp := a.Clone()
	return &cp, nil
}

func (s *InMemory) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.rows, id)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id int64) (*models.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.rows[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := a.Clone()
	return &cp, nil
}

// List returns every article, newest first.
func (s *InMemory) List(_ context.Context) ([]models.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Article, 0, len(s.rows))
	for _, a := range s.rows {
		out = append(out, a.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// ListPublished returns up to limit published articles, most recently published first.
func (s *InMemory) ListPublished(_ context.Context, limit int) ([]models.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Article
	for _, a := range s.rows {
		if a.Status == models.StatusPublished {
			out = append(out, a.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		pi, pj := out[i].PublishedAt, out[j].PublishedAt
		if !pi.Equal(*pj) {
			return pi.After(*pj)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
