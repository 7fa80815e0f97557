package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"civicfix/internal/identity/models"
	"civicfix/pkg/domain"
	"civicfix/pkg/platform/sentinel"
)

func newUser(t *testing.T, email string) *models.User {
	t.Helper()
	u, err := models.NewUser(uuid.New(), "Test User", email, "", "hash", domain.RoleCitizen, time.Now())
	require.NoError(t, err)
	return u
}

func TestInMemoryUserStore(t *testing.T) {
	ctx := context.Background()

	t.Run("create and find", func(t *testing.T) {
		s := NewInMemory()
		u := newUser(t, "one@example.com")
		require.NoError(t, s.Create(ctx, u))

		byID, err := s.FindByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, u.Email, byID.Email)

		byEmail, err := s.FindByEmail(ctx, "ONE@example.com")
		require.NoError(t, err)
		require.Equal(t, u.ID, byEmail.ID)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		s := NewInMemory()
		require.NoError(t, s.Create(ctx, newUser(t, "dup@example.com")))
		err := s.Create(ctx, newUser(t, "DUP@example.com"))
		require.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("missing user", func(t *testing.T) {
		s := NewInMemory()
		_, err := s.FindByID(ctx, uuid.New())
		require.ErrorIs(t, err, sentinel.ErrNotFound)
		_, err = s.FindByEmail(ctx, "none@example.com")
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("returned copies do not alias the store", func(t *testing.T) {
		s := NewInMemory()
		u := newUser(t, "alias@example.com")
		require.NoError(t, s.Create(ctx, u))

		got, err := s.FindByID(ctx, u.ID)
		require.NoError(t, err)
		got.Name = "mutated"

		again, err := s.FindByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, "Test User", again.Name)
	})
}
