package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"civicfix/internal/complaint/models"
	"civicfix/pkg/platform/sentinel"
)

type ComplaintStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *ComplaintStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestComplaintStoreSuite(t *testing.T) {
	suite.Run(t, new(ComplaintStoreSuite))
}

func (s *ComplaintStoreSuite) newComplaint(ownerID uuid.UUID) *models.Complaint {
	c, err := models.NewComplaint(uuid.New(), ownerID,
		"Pothole", "Deep pothole", "Roads", "https://media/p.jpg",
		models.Location{Latitude: 12.9, Longitude: 77.5, Address: "Main St"},
		time.Now())
	s.Require().NoError(err)
	return c
}

func (s *ComplaintStoreSuite) TestCreateAndFind() {
	c := s.newComplaint(uuid.New())
	s.Require().NoError(s.store.Create(s.ctx, c))

	found, err := s.store.FindByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(c.Title, found.Title)

	_, err = s.store.FindByID(s.ctx, uuid.New())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ComplaintStoreSuite) TestCreateRejectsDuplicateID() {
	c := s.newComplaint(uuid.New())
	s.Require().NoError(s.store.Create(s.ctx, c))
	s.Require().ErrorIs(s.store.Create(s.ctx, c), sentinel.ErrConflict)
}

func (s *ComplaintStoreSuite) TestListByOwner() {
	owner := uuid.New()
	other := uuid.New()
	s.Require().NoError(s.store.Create(s.ctx, s.newComplaint(owner)))
	s.Require().NoError(s.store.Create(s.ctx, s.newComplaint(owner)))
	s.Require().NoError(s.store.Create(s.ctx, s.newComplaint(other)))

	mine, err := s.store.ListByOwner(s.ctx, owner)
	s.Require().NoError(err)
	s.Len(mine, 2)

	all, err := s.store.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 3)
}

func (s *ComplaintStoreSuite) TestUpdateAppliesMutator() {
	c := s.newComplaint(uuid.New())
	s.Require().NoError(s.store.Create(s.ctx, c))

	updated, err := s.store.Update(s.ctx, c.ID, func(cur *models.Complaint) error {
		cur.ApplyStatusChange(models.StatusInProgress, "assigned", time.Now())
		return nil
	})
	s.Require().NoError(err)
	s.Equal(models.StatusInProgress, updated.Status)

	found, err := s.store.FindByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusInProgress, found.Status)
}

func (s *ComplaintStoreSuite) TestUpdateAbortsOnMutatorError() {
	c := s.newComplaint(uuid.New())
	s.Require().NoError(s.store.Create(s.ctx, c))

	boom := errors.New("precondition failed")
	_, err := s.store.Update(s.ctx, c.ID, func(cur *models.Complaint) error {
		cur.ApplyStatusChange(models.StatusRejected, "nope", time.Now())
		return boom
	})
	s.Require().ErrorIs(err, boom)

	found, err := s.store.FindByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusRegistered, found.Status, "failed update must not leak partial state")
}

func (s *ComplaintStoreSuite) TestUpdateUnknownComplaint() {
	_, err := s.store.Update(s.ctx, uuid.New(), func(*models.Complaint) error { return nil })
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentUpdatesSerialize drives racing mutators at one complaint
// and checks each one observed its predecessor's committed state.
func (s *ComplaintStoreSuite) TestConcurrentUpdatesSerialize() {
	c := s.newComplaint(uuid.New())
	s.Require().NoError(s.store.Create(s.ctx, c))

	const goroutines = 32
	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Update(s.ctx, c.ID, func(cur *models.Complaint) error {
				cur.VerificationCount++
				return nil
			})
			s.Require().NoError(err)
		}()
	}
	wg.Wait()

	found, err := s.store.FindByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(goroutines, found.VerificationCount, "no update may be lost")
}

func (s *ComplaintStoreSuite) TestSnapshotsDoNotAlias() {
	c := s.newComplaint(uuid.New())
	c.ApplyStatusChange(models.StatusResolved, "fixed", time.Now())
	s.Require().NoError(s.store.Create(s.ctx, c))

	found, err := s.store.FindByID(s.ctx, c.ID)
	s.Require().NoError(err)
	found.Status = models.StatusRejected
	found.Verifications = append(found.Verifications, models.Verification{ID: uuid.New()})

	again, err := s.store.FindByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusResolved, again.Status)
	s.Empty(again.Verifications)
}
