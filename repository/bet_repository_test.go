package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"kickwager/models"
	"kickwager/repository/testutil"
	"kickwager/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBetRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	userRepo := NewUserRepository(testDB.DB)
	gameRepo := NewGameRepository(testDB.DB)
	repo := NewBetRepository(testDB.DB)
	ctx := context.Background()

	alice := testutil.CreateTestUser("alice")
	bob := testutil.CreateTestUser("bob")
	require.NoError(t, userRepo.Create(ctx, alice))
	require.NoError(t, userRepo.Create(ctx, bob))

	game := testutil.CreateTestGame(time.Now().Add(24 * time.Hour))
	other := testutil.CreateTestGame(time.Now().Add(48 * time.Hour))
	require.NoError(t, gameRepo.Create(ctx, game))
	require.NoError(t, gameRepo.Create(ctx, other))

	aliceBet := testutil.CreateTestBet(alice, game.ID, 2, 1)
	bobBet := testutil.CreateTestBet(bob, game.ID, 0, 0)
	aliceOther := testutil.CreateTestBet(alice, other.ID, 1, 3)
	for _, b := range []*models.Bet{aliceBet, bobBet, aliceOther} {
		require.NoError(t, repo.Create(ctx, b))
	}

	t.Run("one bet per user and game", func(t *testing.T) {
		dup := testutil.CreateTestBet(alice, game.ID, 5, 5)
		err := repo.Create(ctx, dup)
		assert.True(t, errors.Is(err, service.ErrDuplicateBet))
	})

	t.Run("lookups", func(t *testing.T) {
		bet, err := repo.GetByUserAndGame(ctx, alice.ID, game.ID)
		require.NoError(t, err)
		require.NotNil(t, bet)
		assert.Equal(t, aliceBet.ID, bet.ID)

		missing, err := repo.GetByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, missing)

		byGame, err := repo.GetByGame(ctx, game.ID)
		require.NoError(t, err)
		assert.Len(t, byGame, 2)

		byUser, err := repo.GetByUser(ctx, alice.ID)
		require.NoError(t, err)
		assert.Len(t, byUser, 2)

		byUsers, err := repo.GetByUsers(ctx, []uuid.UUID{alice.ID, bob.ID})
		require.NoError(t, err)
		assert.Len(t, byUsers, 3)

		byUsersAndGame, err := repo.GetByUsersAndGame(ctx, []uuid.UUID{bob.ID}, game.ID)
		require.NoError(t, err)
		require.Len(t, byUsersAndGame, 1)
		assert.Equal(t, bobBet.ID, byUsersAndGame[0].ID)

		empty, err := repo.GetByUsers(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, empty)

		all, err := repo.GetAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("prediction and points are updated independently", func(t *testing.T) {
		require.NoError(t, repo.UpdatePrediction(ctx, aliceBet.ID, 3, 3))
		require.NoError(t, repo.UpdatePoints(ctx, bobBet.ID, 1))

		bet, err := repo.GetByID(ctx, aliceBet.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, bet.HomeScorePrediction)
		assert.Equal(t, 3, bet.AwayScorePrediction)
		assert.Equal(t, 0, bet.PointsEarned)
		assert.Equal(t, alice.ID, bet.UserID)
		assert.Equal(t, game.ID, bet.GameID)
	})

	t.Run("schema caps points", func(t *testing.T) {
		assert.Error(t, repo.UpdatePoints(ctx, bobBet.ID, 8))
	})

	t.Run("username snapshot", func(t *testing.T) {
		require.NoError(t, repo.UpdateUsername(ctx, alice.ID, "alicia"))
		bets, err := repo.GetByUser(ctx, alice.ID)
		require.NoError(t, err)
		for _, b := range bets {
			assert.Equal(t, "alicia", b.Username)
		}
	})

	t.Run("deletes", func(t *testing.T) {
		n, err := repo.DeleteByGame(ctx, other.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		require.NoError(t, repo.Delete(ctx, bobBet.ID))
		assert.Error(t, repo.Delete(ctx, bobBet.ID))

		n, err = repo.DeleteByUser(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		all, err := repo.GetAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}
