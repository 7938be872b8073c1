// Package store persists the business registry.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"metrologi/internal/pelakuusaha/models"
	"metrologi/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded registry used in development and tests.
type InMemory struct {
	mu     sync.RWMutex
	rows   map[int64]*models.PelakuUsaha
	nextID int64
}

func NewInMemory() *InMemory {
	return &InMemory{rows: make(map[int64]*models.PelakuUsaha)}
}

// Create assigns the ID and timestamps.
func (s *InMemory) Create(_ context.Context, p *models.PelakuUsaha) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	p.ID = s.nextID
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	p.UpdatedAt = p.CreatedAt
	row := p.Clone()
	s.rows[p.ID] = &row
	return nil
}

// Update replaces the editable fields of an existing row.
func (s *InMemory) Update(_ context.Context, p *models.PelakuUsaha) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.rows[p.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	p.CreatedAt = existing.CreatedAt
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}
	row := p.Clone()
	s.rows[p.ID] = &row
	return nil
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

func (s *InMemory) FindByID(_ context.Context, id int64) (*models.PelakuUsaha, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.rows[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := p.Clone()
	return &cp, nil
}

// List returns every business, newest registration first.
func (s *InMemory) List(_ context.Context) ([]models.PelakuUsaha, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLocked(), nil
}

func (s *InMemory) sortedLocked() []models.PelakuUsaha {
	out := make([]models.PelakuUsaha, 0, len(s.rows))
	for _, p := range s.rows {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// Recent returns the limit newest businesses.
func (s *InMemory) Recent(_ context.Context, limit int) ([]models.PelakuUsaha, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.sortedLocked()
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows), nil
}

// CountCreatedSince counts businesses registered at or after since.
func (s *InMemory) CountCreatedSince(_ context.Context, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, p := range s.rows {
		if !p.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// CountUTTP counts registered instruments across all businesses.
func (s *InMemory) CountUTTP(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, p := range s.rows {
		n += p.UTTPCount()
	}
	return n, nil
}

// ListExpiringBefore returns businesses whose calibration expires before cutoff.
func (s *InMemory) ListExpiringBefore(_ context.Context, cutoff time.Time) ([]models.PelakuUsaha, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.PelakuUsaha
	for _, p := range s.sortedLocked() {
		if p.CalibrationExpiry != nil && p.CalibrationExpiry.Before(cutoff) {
			out = append(out, p)
		}
	}
	return out, nil
}
