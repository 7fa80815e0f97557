package store

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"civicfix/internal/identity/models"
	"civicfix/pkg/platform/sentinel"
)

// InMemory keeps the user store lightweight and testable. It intentionally
// favors clarity over performance.
type InMemory struct {
	mu    sync.RWMutex
	users map[uuid.UUID]models.User
}

func NewInMemory() *InMemory {
	return &InMemory{users: make(map[uuid.UUID]models.User)}
}

// Create stores a user, enforcing case-insensitive email uniqueness.
func (s *InMemory) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return sentinel.ErrConflict
		}
	}
	s.users[user.ID] = *user
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if user, ok := s.users[id]; ok {
		u := user
		return &u, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			u := user
			return &u, nil
		}
	}
	return nil, sentinel.ErrNotFound
}
