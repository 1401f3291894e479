package adapters

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"shelfflix_backend/internal/feature/auth/domain/entity"
	"shelfflix_backend/internal/feature/auth/usecase"
)

// userMemory is an in-process UserRepository for tests and single-instance demo deployments.
// The uniqueness checks and the insert run under one lock.
type userMemory struct {
	mu         sync.RWMutex
	byID       map[string]*entity.User
	byEmail    map[string]string
	byUsername map[string]string
	now        func() time.Time
}

// Compile-time check to ensure userMemory implements UserRepository.
var _ usecase.UserRepository = (*userMemory)(nil)

// NewUserMemory creates an empty in-memory user store.
func NewUserMemory() *userMemory {
	return &userMemory{
		byID:       make(map[string]*entity.User),
		byEmail:    make(map[string]string),
		byUsername: make(map[string]string),
		now:        time.Now,
	}
}

// Create stores a copy of u, filling in ID and timestamps.
func (r *userMemory) Create(ctx context.Context, u *entity.User) error {
	if u == nil {
		return errors.New("user is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[u.Email]; ok {
		return usecase.ErrEmailAlreadyExists
	}
	if _, ok := r.byUsername[u.Username]; ok {
		return usecase.ErrUsernameTaken
	}

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := r.now()
	u.CreatedAt = now
	u.UpdatedAt = now

	stored := *u
	r.byID[u.ID] = &stored
	r.byEmail[u.Email] = u.ID
	r.byUsername[u.Username] = u.ID
	return nil
}

// FindByEmail returns a copy of the user registered under email.
func (r *userMemory) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, usecase.ErrUserNotFound
	}
	u := *r.byID[id]
	return &u, nil
}

// FindByID returns a copy of the user with the given ID.
func (r *userMemory) FindByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.byID[id]
	if !ok {
		return nil, usecase.ErrUserNotFound
	}
	u := *stored
	return &u, nil
}
