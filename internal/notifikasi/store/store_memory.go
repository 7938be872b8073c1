// Package store persists admin notifications.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"metrologi/internal/notifikasi/models"
	"metrologi/pkg/platform/sentinel"
)

type InMemory struct {
	mu     sync.RWMutex
	rows   map[int64]*models.Notification
	keys   map[string]int64
	nextID int64
}

func NewInMemory() *InMemory {
	return &InMemory{
		rows: make(map[int64]*models.Notification),
		keys: make(map[string]int64),
	}
}

// Create inserts n. A notification whose DedupeKey is already taken returns
// sentinel.ErrConflict.
func (s *InMemory) Create(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, hasKey := n.DedupeKey()
	if hasKey {
		if _, exists := s.keys[key]; exists {
			return sentinel.ErrConflict
		}
	}
	s.nextID++
	n.ID = s.nextID
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	row := n.Clone()
	s.rows[n.ID] = &row
	if hasKey {
		s.keys[key] = n.ID
	}
	return nil
}

// List returns notifications newest first. limit <= 0 returns all.
func (s *InMemory) List(_ context.Context, unreadOnly bool, limit int) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Notification, 0, len(s.rows))
	for _, n := range s.rows {
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, n.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemory) Summary(_ context.Context) (models.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum := models.Summary{Total: len(s.rows)}
	for _, n := range s.rows {
		if !n.Read {
			sum.Unread++
		}
	}
	return sum, nil
}

func (s *InMemory) MarkRead(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.rows[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	n.Read = true
	return nil
}

// MarkAllRead marks every unread notification read and returns how many changed.
func (s *InMemory) MarkAllRead(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := 0
	for _, n := range s.rows {
		if !n.Read {
			n.Read = true
			changed++
		}
	}
	return changed, nil
}

func (s *InMemory) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.rows[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if key, hasKey := n.DedupeKey(); hasKey {
		delete(s.keys, key)
	}
	delete(s.rows, id)
	return nil
}
