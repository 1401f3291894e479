package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"shelfflix_backend/internal/feature/auth/domain/entity"
	"shelfflix_backend/internal/feature/auth/usecase"
)

// Memory is an in-process usecase.SessionRepository for tests and single-instance deployments.
// Expired entries are hidden on read and removed by DeleteExpired (see RunSweeper).
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]entity.Session
	now      func() time.Time
}

// Compile-time check to ensure Memory implements SessionRepository.
var _ usecase.SessionRepository = (*Memory)(nil)

// NewMemory creates an empty in-memory session store. A nil clock means time.Now.
func NewMemory(now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{
		sessions: make(map[string]entity.Session),
		now:      now,
	}
}

// Create stores a copy of session.
func (m *Memory) Create(ctx context.Context, session *entity.Session) error {
	if session.IsExpired(m.now()) {
		return errors.New("session already expired")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[session.ID]; exists {
		return errors.New("session id already in use")
	}
	m.sessions[session.ID] = *session
	return nil
}

// FindByID returns a copy of an unexpired session.
func (m *Memory) FindByID(ctx context.Context, id string) (*entity.Session, error) {
	m.mu.RLock()
	session, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok || session.IsExpired(m.now()) {
		return nil, usecase.ErrSessionNotFound
	}
	return &session, nil
}

// Delete removes a session if present.
func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// DeleteExpired removes every expired session and returns how many were removed.
func (m *Memory) DeleteExpired(ctx context.Context) (int64, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	for id, s := range m.sessions {
		if s.IsExpired(now) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored sessions, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
