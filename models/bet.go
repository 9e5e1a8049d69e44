package models

import (
	"time"

	"github.com/google/uuid"
)

// Bet represents one user's score prediction for one game
type Bet struct {
	ID                  uuid.UUID `db:"id"`
	UserID              uuid.UUID `db:"user_id"`
	Username            string    `db:"username"` // Snapshot of the owner's username
	GameID              uuid.UUID `db:"game_id"`
	HomeScorePrediction int       `db:"home_score_prediction"`
	AwayScorePrediction int       `db:"away_score_prediction"`
	PointsEarned        int       `db:"points_earned"` // Absolute value from the last settlement
	CreatedAt           time.Time `db:"created_at"`
}

// IsOwnedBy checks if the bet belongs to the given user
func (b *Bet) IsOwnedBy(userID uuid.UUID) bool {
	return b.UserID == userID
}

// BettingStatus describes what a user may do with a game right now
type BettingStatus struct {
	GameID uuid.UUID
	State  WindowState
	Reason ClosedReason
	Bet    *Bet // The user's existing bet, if any
}
