package models

import (
	"github.com/google/uuid"
)

// LeaderboardEntry is one ranked row of a leaderboard
type LeaderboardEntry struct {
	Rank           int       `json:"rank"`
	UserID         uuid.UUID `json:"user_id"`
	Username       string    `json:"username"`
	TotalPoints    int64     `json:"total_points"`
	TotalBets      int       `json:"total_bets"`
	CorrectWinners int       `json:"correct_winners"` // Bets that earned any points
	CorrectScores  int       `json:"correct_scores"`  // Bets that hit at least one exact score
}
