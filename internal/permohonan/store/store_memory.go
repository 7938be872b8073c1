// Package store persists service requests (permohonan).
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"metrologi/internal/permohonan/models"
	"metrologi/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded request store used in development and tests.
type InMemory struct {
	mu     sync.RWMutex
	rows   map[int64]*models.ServiceRequest
	nextID int64
}

func NewInMemory() *InMemory {
	return &InMemory{rows: make(map[int64]*models.ServiceRequest)}
}

// Create inserts a submitted request, assigning its ID. The request always
// starts pending.
func (s *InMemory) Create(_ context.Context, r *models.ServiceRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	r.ID = s.nextID
	r.Status = models.StatusPending
	r.ProcessedAt = nil
	r.AdminNote = nil
	if r.SubmittedAt.IsZero() {
		r.SubmittedAt = time.Now()
	}
	row := r.Clone()
	s.rows[r.ID] = &row
	return nil
}

// List returns every request, newest submission first.
func (s *InMemory) List(_ context.Context) ([]models.ServiceRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ServiceRequest, 0, len(s.rows))
	for _, r := range s.rows {
		out = append(out, r.Clone())
	}
	sortNewestFirst(out)
	return out, nil
}

// FindByID returns a copy of one request.
func (s *InMemory) FindByID(_ context.Context, id int64) (*models.ServiceRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rows[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := r.Clone()
	return &out, nil
}

// Update applies status, processed_at and admin note together. Rows already in
// a terminal status are refused with sentinel.ErrInvalidState.
func (s *InMemory) Update(ctx context.Context, id int64, u models.ProcessUpdate) error {
	_, err := s.Execute(ctx, id,
		func(r *models.ServiceRequest) error {
			if err := r.CanProcess(u.Status); err != nil {
				return fmt.Errorf("%w: %v", sentinel.ErrInvalidState, err)
			}
			return nil
		},
		func(r *models.ServiceRequest) {
			r.ApplyProcess(u)
		},
	)
	return err
}

// Execute runs validate and mutate on one row while holding the write lock.
func (s *InMemory) Execute(_ context.Context, id int64, validate func(*models.ServiceRequest) error, mutate func(*models.ServiceRequest)) (*models.ServiceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rows[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(r); err != nil {
		return nil, err
	}
	mutate(r)
	out := r.Clone()
	return &out, nil
}

// CountByKindSince counts requests of kind submitted at or after since.
func (s *InMemory) CountByKindSince(_ context.Context, kind models.Kind, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, r := range s.rows {
		if r.Kind == kind && !r.SubmittedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func sortNewestFirst(rows []models.ServiceRequest) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].SubmittedAt.Equal(rows[j].SubmittedAt) {
			return rows[i].ID > rows[j].ID
		}
		return rows[i].SubmittedAt.After(rows[j].SubmittedAt)
	})
}
