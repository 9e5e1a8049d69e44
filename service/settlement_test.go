package service

import (
	"context"
	"errors"
	"testing"

	"kickwager/events"
	"kickwager/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSettlementEngine_Settle(t *testing.T) {
	ctx := context.Background()
	engine := NewSettlementEngine()

	t.Run("first finalization awards points", func(t *testing.T) {
		m := setupMocks()
		user := createTestUser("u")
		game := createTestGame()
		bet := createTestBet(user, game, 21, 17)

		m.bets.On("GetByGame", ctx, game.ID).Return([]*models.Bet{bet}, nil)
		m.bets.On("UpdatePoints", ctx, bet.ID, 4).Return(nil)
		m.users.On("IncrementPoints", ctx, user.ID, int64(4)).Return(nil)

		result, err := engine.Settle(ctx, m.uow, game, 24, 17)
		require.NoError(t, err)

		assert.Equal(t, 1, result.BetsSettled)
		assert.Equal(t, 1, result.UsersAffected)
		assert.Equal(t, map[uuid.UUID]int64{user.ID: 4}, result.PointDeltas)
		assert.False(t, result.Corrected)

		m.bets.AssertExpectations(t)
		m.users.AssertExpectations(t)
		assert.Len(t, m.published().OfType(events.EventTypeGameSettled), 1)
		assert.Len(t, m.published().OfType(events.EventTypePointsChanged), 1)
	})

	t.Run("correction applies only the difference", func(t *testing.T) {
		m := setupMocks()
		user := createTestUser("u")
		game := createTestGame()
		home, away := 24, 17
		game.Status = models.GameStatusFinished
		game.HomeScore, game.AwayScore = &home, &away

		bet := createTestBet(user, game, 21, 17)
		bet.PointsEarned = 4

		m.bets.On("GetByGame", ctx, game.ID).Return([]*models.Bet{bet}, nil)
		m.bets.On("UpdatePoints", ctx, bet.ID, 7).Return(nil)
		m.users.On("IncrementPoints", ctx, user.ID, int64(3)).Return(nil)

		result, err := engine.Settle(ctx, m.uow, game, 21, 17)
		require.NoError(t, err)

		assert.True(t, result.Corrected)
		assert.Equal(t, int64(3), result.PointDeltas[user.ID])
		m.users.AssertExpectations(t)
	})

	t.Run("repeating a settlement is a no-op", func(t *testing.T) {
		m := setupMocks()
		user := createTestUser("u")
		game := createTestGame()
		bet := createTestBet(user, game, 21, 17)
		bet.PointsEarned = 7

		m.bets.On("GetByGame", ctx, game.ID).Return([]*models.Bet{bet}, nil)

		result, err := engine.Settle(ctx, m.uow, game, 21, 17)
		require.NoError(t, err)

		assert.Empty(t, result.PointDeltas)
		assert.Equal(t, 0, result.UsersAffected)
		m.bets.AssertNotCalled(t, "UpdatePoints", mock.Anything, mock.Anything, mock.Anything)
		m.users.AssertNotCalled(t, "IncrementPoints", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("deltas of several bets are netted per user", func(t *testing.T) {
		m := setupMocks()
		alice := createTestUser("alice")
		bob := createTestUser("bob")
		game := createTestGame()

		// The same user should never hold two bets on one game, but deltas still sum per owner
		a1 := createTestBet(alice, game, 1, 0)
		a1.PointsEarned = 7
		a2 := createTestBet(alice, game, 0, 0)
		b1 := createTestBet(bob, game, 2, 2)

		m.bets.On("GetByGame", ctx, game.ID).Return([]*models.Bet{a1, a2, b1}, nil)
		m.bets.On("UpdatePoints", ctx, a1.ID, 3).Return(nil)
		m.bets.On("UpdatePoints", ctx, a2.ID, 7).Return(nil)
		m.bets.On("UpdatePoints", ctx, b1.ID, 1).Return(nil)
		m.users.On("IncrementPoints", ctx, alice.ID, int64(3)).Return(nil)
		m.users.On("IncrementPoints", ctx, bob.ID, int64(1)).Return(nil)

		result, err := engine.Settle(ctx, m.uow, game, 0, 0)
		require.NoError(t, err)

		assert.Equal(t, 3, result.BetsSettled)
		assert.Equal(t, 2, result.UsersAffected)
		m.bets.AssertExpectations(t)
		m.users.AssertExpectations(t)
	})

	t.Run("repository failure surfaces as settlement failure", func(t *testing.T) {
		m := setupMocks()
		user := createTestUser("u")
		game := createTestGame()
		bet := createTestBet(user, game, 1, 1)

		m.bets.On("GetByGame", ctx, game.ID).Return([]*models.Bet{bet}, nil)
		m.bets.On("UpdatePoints", ctx, bet.ID, 7).Return(nil)
		m.users.On("IncrementPoints", ctx, user.ID, int64(7)).Return(errors.New("connection reset"))

		result, err := engine.Settle(ctx, m.uow, game, 1, 1)
		assert.Nil(t, result)
		assert.True(t, errors.Is(err, ErrSettlementFailure))
		assert.Equal(t, KindSettlementFailure, KindOf(err))
	})

	t.Run("load failure surfaces as settlement failure", func(t *testing.T) {
		m := setupMocks()
		game := createTestGame()
		m.bets.On("GetByGame", ctx, game.ID).Return(nil, errors.New("timeout"))

		_, err := engine.Settle(ctx, m.uow, game, 1, 1)
		assert.True(t, errors.Is(err, ErrSettlementFailure))
	})
}

func TestSettlementEngine_Retract(t *testing.T) {
	ctx := context.Background()
	engine := NewSettlementEngine()

	m := setupMocks()
	alice := createTestUser("alice")
	bob := createTestUser("bob")
	game := createTestGame()

	aliceBet := createTestBet(alice, game, 21, 17)
	aliceBet.PointsEarned = 7
	bobBet := createTestBet(bob, game, 0, 3)

	m.bets.On("GetByGame", ctx, game.ID).Return([]*models.Bet{aliceBet, bobBet}, nil)
	m.bets.On("UpdatePoints", ctx, aliceBet.ID, 0).Return(nil)
	m.users.On("IncrementPoints", ctx, alice.ID, int64(-7)).Return(nil)

	deltas, err := engine.Retract(ctx, m.uow, game.ID)
	require.NoError(t, err)

	assert.Equal(t, map[uuid.UUID]int64{alice.ID: -7}, deltas)
	m.bets.AssertExpectations(t)
	m.users.AssertExpectations(t)
	m.users.AssertNotCalled(t, "IncrementPoints", ctx, bob.ID, mock.Anything)
	assert.Len(t, m.published().OfType(events.EventTypeGameSettlementRetracted), 1)
}

// settleSequence runs each final score in order against fresh copies of the predictions
// and returns per-bet points and per-user totals
func settleSequence(t *testing.T, users []*models.User, predictions [][2]int, scores ...[2]int) ([]int, map[uuid.UUID]int64) {
	t.Helper()
	ctx := context.Background()
	m := setupMocks()
	game := createTestGame()

	bets := make([]*models.Bet, len(predictions))
	for i, p := range predictions {
		bets[i] = createTestBet(users[i%len(users)], game, p[0], p[1])
	}

	totals := make(map[uuid.UUID]int64)
	m.bets.On("GetByGame", ctx, game.ID).Return(bets, nil)
	m.bets.On("UpdatePoints", ctx, mock.Anything, mock.Anything).Return(nil)
	m.users.On("IncrementPoints", ctx, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			totals[args.Get(1).(uuid.UUID)] += args.Get(2).(int64)
		}).Return(nil)

	engine := NewSettlementEngine()
	for _, s := range scores {
		_, err := engine.Settle(ctx, m.uow, game, s[0], s[1])
		require.NoError(t, err)
		game.Status = models.GameStatusFinished
		game.HomeScore, game.AwayScore = &s[0], &s[1]
	}

	points := make([]int, len(bets))
	for i, b := range bets {
		points[i] = b.PointsEarned
	}
	return points, totals
}

func TestSettlementEngine_CorrectionMatchesDirectFinalization(t *testing.T) {
	users := []*models.User{createTestUser("a"), createTestUser("b"), createTestUser("c")}
	predictions := [][2]int{{21, 17}, {0, 0}, {3, 1}, {17, 21}, {24, 17}, {1, 1}}

	cases := []struct {
		name          string
		first, second [2]int
	}{
		{"home win to exact home win", [2]int{24, 17}, [2]int{21, 17}},
		{"home win to tie", [2]int{3, 1}, [2]int{0, 0}},
		{"tie to away win", [2]int{1, 1}, [2]int{17, 21}},
		{"unchanged", [2]int{24, 17}, [2]int{24, 17}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			correctedPoints, correctedTotals := settleSequence(t, users, predictions, tc.first, tc.second)
			directPoints, directTotals := settleSequence(t, users, predictions, tc.second)

			assert.Equal(t, directPoints, correctedPoints)
			for _, u := range users {
				assert.Equal(t, directTotals[u.ID], correctedTotals[u.ID], "total of %s", u.Username)
			}
		})
	}
}
