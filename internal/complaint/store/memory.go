package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"civicfix/internal/complaint/models"
	"civicfix/pkg/platform/sentinel"
)

// InMemory keeps complaints in a map guarded by a single mutex. Update runs
// the mutator while holding the lock, which gives each complaint the same
// serialized read-modify-write semantics the Postgres store gets from
// SELECT FOR UPDATE.
type InMemory struct {
	mu         sync.RWMutex
	complaints map[uuid.UUID]*models.Complaint
}

func NewInMemory() *InMemory {
	return &InMemory{complaints: make(map[uuid.UUID]*models.Complaint)}
}

func (s *InMemory) Create(_ context.Context, c *models.Complaint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.complaints[c.ID]; exists {
		return sentinel.ErrConflict
	}
	s.complaints[c.ID] = c.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*models.Complaint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.complaints[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return c.Clone(), nil
}

func (s *InMemory) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*models.Complaint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Complaint
	for _, c := range s.complaints {
		if c.OwnerID == ownerID {
			out = append(out, c.Clone())
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *InMemory) ListAll(_ context.Context) ([]*models.Complaint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Complaint, 0, len(s.complaints))
	for _, c := range s.complaints {
		out = append(out, c.Clone())
	}
	sortNewestFirst(out)
	return out, nil
}

// Update applies mutate to the stored complaint atomically. The mutator
// sees current state and re-validates its preconditions under the lock; an
// error from it aborts the update with nothing written.
func (s *InMemory) Update(_ context.Context, id uuid.UUID, mutate func(*models.Complaint) error) (*models.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.complaints[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	working := current.Clone()
	if err := mutate(working); err != nil {
		return nil, err
	}
	s.complaints[id] = working
	return working.Clone(), nil
}

func sortNewestFirst(cs []*models.Complaint) {
	sort.Slice(cs, func(i, j int) bool {
		return cs[i].CreatedAt.After(cs[j].CreatedAt)
	})
}
