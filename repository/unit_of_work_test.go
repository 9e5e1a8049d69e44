package repository

import (
	"context"
	"testing"
	"time"

	"kickwager/events"
	"kickwager/models"
	"kickwager/repository/testutil"
	"kickwager/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitOfWork(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	bus := events.NewBus()
	factory := NewUnitOfWorkFactory(testDB.DB, bus)
	ctx := context.Background()

	delivered := make(chan events.Event, 4)
	bus.Subscribe(events.EventTypePointsChanged, func(ctx context.Context, event events.Event) {
		delivered <- event
	})

	t.Run("commit persists writes and flushes events", func(t *testing.T) {
		user := testutil.CreateTestUser("committed")

		uow := factory.Create()
		require.NoError(t, uow.Begin(ctx))
		require.NoError(t, uow.UserRepository().Create(ctx, user))
		uow.EventBus().Publish(events.PointsChangedEvent{UserID: user.ID, Delta: 1})
		require.NoError(t, uow.Commit())
		require.NoError(t, uow.Rollback())

		stored, err := NewUserRepository(testDB.DB).GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.NotNil(t, stored)

		select {
		case ev := <-delivered:
			assert.Equal(t, user.ID, ev.(events.PointsChangedEvent).UserID)
		case <-time.After(2 * time.Second):
			t.Fatal("committed event was not delivered")
		}
	})

	t.Run("rollback discards writes and events", func(t *testing.T) {
		user := testutil.CreateTestUser("rolledback")

		uow := factory.Create()
		require.NoError(t, uow.Begin(ctx))
		require.NoError(t, uow.UserRepository().Create(ctx, user))
		uow.EventBus().Publish(events.PointsChangedEvent{UserID: uuid.New(), Delta: 1})
		require.NoError(t, uow.Rollback())

		stored, err := NewUserRepository(testDB.DB).GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Nil(t, stored)

		select {
		case <-delivered:
			t.Fatal("rolled back event was delivered")
		case <-time.After(100 * time.Millisecond):
		}
	})

	t.Run("double begin and commit without begin fail", func(t *testing.T) {
		uow := factory.Create()
		assert.Error(t, uow.Commit())

		require.NoError(t, uow.Begin(ctx))
		assert.Error(t, uow.Begin(ctx))
		require.NoError(t, uow.Rollback())
	})

	t.Run("repositories panic before begin", func(t *testing.T) {
		uow := factory.Create()
		assert.Panics(t, func() { uow.BetRepository() })
	})
}

// requireBlockedUntilCommit checks that wait does not return while holder is open
// and does return once holder commits
func requireBlockedUntilCommit(t *testing.T, holder service.UnitOfWork, wait func() error) {
	t.Helper()

	done := make(chan error, 1)
	go func() { done <- wait() }()

	select {
	case err := <-done:
		t.Fatalf("expected to block on the held lock, returned %v", err)
	case <-time.After(300 * time.Millisecond):
	}

	require.NoError(t, holder.Commit())

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("lock was not released by commit")
	}
}

func TestUnitOfWork_RowLocks(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	factory := NewUnitOfWorkFactory(testDB.DB, events.NewBus())
	ctx := context.Background()

	admin := testutil.CreateTestAdmin("locker")
	require.NoError(t, NewUserRepository(testDB.DB).Create(ctx, admin))

	t.Run("bet share lock holds off finalization", func(t *testing.T) {
		game := testutil.CreateTestGame(time.Now().Add(time.Hour))
		require.NoError(t, NewGameRepository(testDB.DB).Create(ctx, game))

		betting := factory.Create()
		require.NoError(t, betting.Begin(ctx))
		defer betting.Rollback()
		_, err := betting.GameRepository().GetByIDForShare(ctx, game.ID)
		require.NoError(t, err)

		settling := factory.Create()
		require.NoError(t, settling.Begin(ctx))
		defer settling.Rollback()

		requireBlockedUntilCommit(t, betting, func() error {
			_, err := settling.GameRepository().GetByIDForUpdate(ctx, game.ID)
			return err
		})
	})

	t.Run("share locks do not block each other", func(t *testing.T) {
		game := testutil.CreateTestGame(time.Now().Add(time.Hour))
		require.NoError(t, NewGameRepository(testDB.DB).Create(ctx, game))

		first := factory.Create()
		require.NoError(t, first.Begin(ctx))
		defer first.Rollback()
		_, err := first.GameRepository().GetByIDForShare(ctx, game.ID)
		require.NoError(t, err)

		second := factory.Create()
		require.NoError(t, second.Begin(ctx))
		defer second.Rollback()

		lockCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		_, err = second.GameRepository().GetByIDForShare(lockCtx, game.ID)
		require.NoError(t, err)
	})

	t.Run("group lock serializes membership changes", func(t *testing.T) {
		joiner := testutil.CreateTestUser("joiner")
		require.NoError(t, NewUserRepository(testDB.DB).Create(ctx, joiner))
		group := testutil.CreateTestGroup("Locked", "LOCK0001", admin)
		require.NoError(t, NewGroupRepository(testDB.DB).Create(ctx, group))

		first := factory.Create()
		require.NoError(t, first.Begin(ctx))
		defer first.Rollback()
		_, err := first.GroupRepository().GetByInviteCodeForUpdate(ctx, "lock0001")
		require.NoError(t, err)
		require.NoError(t, first.GroupRepository().AddMember(ctx, group.ID, &models.GroupMember{
			UserID: joiner.ID, Username: joiner.Username, JoinedAt: time.Now().UTC(),
		}))

		second := factory.Create()
		require.NoError(t, second.Begin(ctx))
		defer second.Rollback()

		var seen *models.Group
		requireBlockedUntilCommit(t, first, func() error {
			var err error
			seen, err = second.GroupRepository().GetByIDForUpdate(ctx, group.ID)
			return err
		})

		// The waiter sees the committed join
		require.NotNil(t, seen)
		assert.True(t, seen.IsMember(joiner.ID))
	})
}
