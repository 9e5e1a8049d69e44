package models

import (
	"time"

	"github.com/google/uuid"
)

// GameStatus represents the lifecycle state of a game
type GameStatus string

const (
	GameStatusScheduled GameStatus = "scheduled"
	GameStatusLive      GameStatus = "live"
	GameStatusFinished  GameStatus = "finished"
)

// IsValid checks that the status is one of the known values
func (s GameStatus) IsValid() bool {
	switch s {
	case GameStatusScheduled, GameStatusLive, GameStatusFinished:
		return true
	}
	return false
}

// WindowState is the outcome of the betting window policy for one user and game
type WindowState string

const (
	WindowCanBet  WindowState = "can_bet"
	WindowCanEdit WindowState = "can_edit"
	WindowClosed  WindowState = "closed"
)

// AllowsPlace reports whether a new bet may be created
func (w WindowState) AllowsPlace() bool {
	return w == WindowCanBet
}

// AllowsEdit reports whether an existing bet may be changed
func (w WindowState) AllowsEdit() bool {
	return w == WindowCanEdit
}

// AllowsWithdraw reports whether an existing bet may be deleted.
// Withdrawal follows the same window as editing.
func (w WindowState) AllowsWithdraw() bool {
	return w == WindowCanEdit
}

// ClosedReason distinguishes why a closed window is closed
type ClosedReason string

const (
	ClosedReasonNone     ClosedReason = ""
	ClosedReasonFinished ClosedReason = "finished"
	ClosedReasonLive     ClosedReason = "live"
	ClosedReasonMissed   ClosedReason = "missed" // still scheduled but past its start time
)

// Game represents a scheduled, live or finished match
type Game struct {
	ID           uuid.UUID  `db:"id"`
	HomeTeam     string     `db:"home_team"`
	AwayTeam     string     `db:"away_team"`
	HomeTeamAbbr string     `db:"home_team_abbr"`
	AwayTeamAbbr string     `db:"away_team_abbr"`
	StartsAt     time.Time  `db:"starts_at"`
	Week         int        `db:"week"`
	Season       string     `db:"season"`
	Status       GameStatus `db:"status"`
	HomeScore    *int       `db:"home_score"` // Set only when finished
	AwayScore    *int       `db:"away_score"`
	CreatedAt    time.Time  `db:"created_at"`
}

// HasFinalScore checks if both final scores are recorded
func (g *Game) HasFinalScore() bool {
	return g.HomeScore != nil && g.AwayScore != nil
}

// IsFinished checks if the game has been finalized
func (g *Game) IsFinished() bool {
	return g.Status == GameStatusFinished
}

// BettingWindow evaluates the betting window for a user at the given instant.
// The start time is an exclusive bound: at now == StartsAt betting is closed.
func (g *Game) BettingWindow(now time.Time, hasBet bool) WindowState {
	if g.Status != GameStatusScheduled || !now.Before(g.StartsAt) {
		return WindowClosed
	}
	if hasBet {
		return WindowCanEdit
	}
	return WindowCanBet
}

// ClosedReason explains a closed window, or returns ClosedReasonNone when betting is open
func (g *Game) ClosedReason(now time.Time) ClosedReason {
	switch g.Status {
	case GameStatusFinished:
		return ClosedReasonFinished
	case GameStatusLive:
		return ClosedReasonLive
	}
	if !now.Before(g.StartsAt) {
		return ClosedReasonMissed
	}
	return ClosedReasonNone
}

// GameFilter narrows a game listing, zero values are ignored
type GameFilter struct {
	Week   *int
	Season string
}

// CreateGameInput holds the fields an admin supplies for a new game
type CreateGameInput struct {
	HomeTeam     string
	AwayTeam     string
	HomeTeamAbbr string
	AwayTeamAbbr string
	StartsAt     time.Time
	Week         int
	Season       string
}
