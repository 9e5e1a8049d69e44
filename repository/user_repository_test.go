package repository

import (
	"context"
	"errors"
	"testing"

	"kickwager/repository/testutil"
	"kickwager/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	alice := testutil.CreateTestUser("alice")
	require.NoError(t, repo.Create(ctx, alice))
	assert.False(t, alice.CreatedAt.IsZero())

	t.Run("get by id", func(t *testing.T) {
		user, err := repo.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, int64(0), user.TotalPoints)
	})

	t.Run("missing user returns nil", func(t *testing.T) {
		user, err := repo.GetByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("get by email ignores case", func(t *testing.T) {
		user, err := repo.GetByEmail(ctx, "ALICE@example.com")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, alice.ID, user.ID)
	})

	t.Run("duplicate email", func(t *testing.T) {
		dup := testutil.CreateTestUser("alice2")
		dup.Email = "Alice@Example.com"
		err := repo.Create(ctx, dup)
		assert.True(t, errors.Is(err, service.ErrDuplicateEmail))
	})

	t.Run("increment points by signed deltas", func(t *testing.T) {
		require.NoError(t, repo.IncrementPoints(ctx, alice.ID, 7))
		require.NoError(t, repo.IncrementPoints(ctx, alice.ID, -6))

		user, err := repo.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), user.TotalPoints)
	})

	t.Run("increment missing user", func(t *testing.T) {
		assert.Error(t, repo.IncrementPoints(ctx, uuid.New(), 1))
	})

	t.Run("rename and promote", func(t *testing.T) {
		require.NoError(t, repo.UpdateUsername(ctx, alice.ID, "alicia"))
		require.NoError(t, repo.SetAdmin(ctx, alice.ID, true))

		user, err := repo.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "alicia", user.Username)
		assert.True(t, user.IsAdmin)
	})

	t.Run("get all and delete", func(t *testing.T) {
		bob := testutil.CreateTestUser("bob")
		require.NoError(t, repo.Create(ctx, bob))

		users, err := repo.GetAll(ctx)
		require.NoError(t, err)
		assert.Len(t, users, 2)

		require.NoError(t, repo.Delete(ctx, bob.ID))
		assert.Error(t, repo.Delete(ctx, bob.ID))

		users, err = repo.GetAll(ctx)
		require.NoError(t, err)
		assert.Len(t, users, 1)
	})
}
