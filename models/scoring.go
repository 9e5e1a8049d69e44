package models

const (
	PointsExactHomeScore = 3
	PointsExactAwayScore = 3
	PointsCorrectOutcome = 1

	// MaxBetPoints is awarded for an exact prediction
	MaxBetPoints = PointsExactHomeScore + PointsExactAwayScore + PointsCorrectOutcome
)

// Outcome is the result of a game from the home team's perspective
type Outcome string

const (
	OutcomeHomeWin Outcome = "home_win"
	OutcomeAwayWin Outcome = "away_win"
	OutcomeTie     Outcome = "tie"
)

// OutcomeOf classifies a scoreline
func OutcomeOf(home, away int) Outcome {
	switch {
	case home > away:
		return OutcomeHomeWin
	case home < away:
		return OutcomeAwayWin
	default:
		return OutcomeTie
	}
}

// CalculatePoints scores a prediction against a final result.
// The three components are independent, so the result is one of 0, 1, 3, 4, 6 or 7.
func CalculatePoints(predHome, predAway, actualHome, actualAway int) int {
	points := 0
	if predHome == actualHome {
		points += PointsExactHomeScore
	}
	if predAway == actualAway {
		points += PointsExactAwayScore
	}
	if OutcomeOf(predHome, predAway) == OutcomeOf(actualHome, actualAway) {
		points += PointsCorrectOutcome
	}
	return points
}
