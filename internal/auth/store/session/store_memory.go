// Package session stores admin sessions.
package session

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"metrologi/internal/auth/models"
	"metrologi/pkg/platform/sentinel"
)

// InMemorySessionStore keeps sessions in process memory.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*models.Session
}

func New() *InMemorySessionStore {
	return &InMemorySessionStore{sessions: make(map[uuid.UUID]*models.Session)}
}

func (s *InMemorySessionStore) Create(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *session
	s.sessions[session.ID] = &cp
	return nil
}

func (s *InMemorySessionStore) FindByID(_ context.Context, id uuid.UUID) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

// Execute runs validate then mutate under the write lock and persists the result.
func (s *InMemorySessionStore) Execute(_ context.Context, id uuid.UUID, validate func(*models.Session) error, mutate func(*models.Session)) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(sess); err != nil {
		return nil, err
	}
	mutate(sess)
	cp := *sess
	return &cp, nil
}
