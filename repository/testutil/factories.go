package testutil

import (
	"fmt"
	"time"

	"kickwager/models"

	"github.com/google/uuid"
)

// CreateTestUser creates a test user with default values
func CreateTestUser(username string) *models.User {
	return &models.User{
		ID:       uuid.New(),
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
	}
}

// CreateTestAdmin creates a test user with the admin role
func CreateTestAdmin(username string) *models.User {
	user := CreateTestUser(username)
	user.IsAdmin = true
	return user
}

// CreateTestGame creates a scheduled test game starting at the given time
func CreateTestGame(startsAt time.Time) *models.Game {
	return &models.Game{
		ID:           uuid.New(),
		HomeTeam:     "Kansas City Chiefs",
		AwayTeam:     "Buffalo Bills",
		HomeTeamAbbr: "KC",
		AwayTeamAbbr: "BUF",
		StartsAt:     startsAt.UTC(),
		Week:         1,
		Season:       "2025",
		Status:       models.GameStatusScheduled,
	}
}

// CreateTestFinishedGame creates a finished test game with a final score
func CreateTestFinishedGame(startsAt time.Time, homeScore, awayScore int) *models.Game {
	game := CreateTestGame(startsAt)
	game.Status = models.GameStatusFinished
	game.HomeScore = &homeScore
	game.AwayScore = &awayScore
	return game
}

// CreateTestBet creates a test bet for a user on a game
func CreateTestBet(user *models.User, gameID uuid.UUID, homeScore, awayScore int) *models.Bet {
	return &models.Bet{
		ID:                  uuid.New(),
		UserID:              user.ID,
		Username:            user.Username,
		GameID:              gameID,
		HomeScorePrediction: homeScore,
		AwayScorePrediction: awayScore,
	}
}

// CreateTestGroup creates a test group administered by the given user
func CreateTestGroup(name, inviteCode string, admin *models.User) *models.Group {
	return &models.Group{
		ID:            uuid.New(),
		Name:          name,
		InviteCode:    inviteCode,
		AdminID:       admin.ID,
		AdminUsername: admin.Username,
		Members: []*models.GroupMember{
			{UserID: admin.ID, Username: admin.Username, JoinedAt: time.Now().UTC()},
		},
	}
}
