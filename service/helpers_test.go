package service

import (
	"time"

	"kickwager/config"
	"kickwager/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// testMocks bundles a unit of work with all of its repositories
type testMocks struct {
	factory *MockUnitOfWorkFactory
	uow     *MockUnitOfWork
	users   *MockUserRepository
	games   *MockGameRepository
	bets    *MockBetRepository
	groups  *MockGroupRepository
}

// setupMocks returns mocks where every unit of work begins and rolls back successfully.
// Tests add a Commit expectation when the operation should commit.
func setupMocks() *testMocks {
	m := &testMocks{
		factory: new(MockUnitOfWorkFactory),
		uow:     new(MockUnitOfWork),
		users:   new(MockUserRepository),
		games:   new(MockGameRepository),
		bets:    new(MockBetRepository),
		groups:  new(MockGroupRepository),
	}
	m.uow.SetRepositories(m.users, m.games, m.bets, m.groups)

	m.factory.On("Create").Return(m.uow)
	m.uow.On("Begin", mock.Anything).Return(nil)
	m.uow.On("Rollback").Return(nil)

	return m
}

func (m *testMocks) expectCommit() {
	m.uow.On("Commit").Return(nil)
}

func (m *testMocks) published() *MockEventPublisher {
	return m.uow.Published()
}

var testKickoff = time.Date(2025, 9, 14, 17, 0, 0, 0, time.UTC)

func createTestUser(username string) *models.User {
	return &models.User{ID: uuid.New(), Username: username, Email: username + "@example.com"}
}

func createTestAdmin(username string) *models.User {
	user := createTestUser(username)
	user.IsAdmin = true
	return user
}

func createTestGame() *models.Game {
	return &models.Game{
		ID:       uuid.New(),
		HomeTeam: "Team A",
		AwayTeam: "Team B",
		StartsAt: testKickoff,
		Week:     2,
		Season:   "2025",
		Status:   models.GameStatusScheduled,
	}
}

func createTestBet(user *models.User, game *models.Game, home, away int) *models.Bet {
	return &models.Bet{
		ID:                  uuid.New(),
		UserID:              user.ID,
		Username:            user.Username,
		GameID:              game.ID,
		HomeScorePrediction: home,
		AwayScorePrediction: away,
	}
}

func createTestGroup(admin *models.User, others ...*models.User) *models.Group {
	group := &models.Group{
		ID:            uuid.New(),
		Name:          "Sunday League",
		InviteCode:    "ABCD1234",
		AdminID:       admin.ID,
		AdminUsername: admin.Username,
		Members:       []*models.GroupMember{{UserID: admin.ID, Username: admin.Username}},
	}
	for _, u := range others {
		group.Members = append(group.Members, &models.GroupMember{UserID: u.ID, Username: u.Username})
	}
	return group
}

func testConfig() *config.Config {
	return config.NewTestConfig()
}

func clockAt(t time.Time) Clock {
	return FixedClock{At: t}
}
