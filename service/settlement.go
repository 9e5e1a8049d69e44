package service

import (
	"context"

	"kickwager/events"
	"kickwager/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type settlementEngine struct{}

// NewSettlementEngine creates the engine that scores bets and applies point deltas
func NewSettlementEngine() SettlementEngine {
	return &settlementEngine{}
}

// Settle recomputes every bet of the game against the final score.
// Each bet stores its absolute points and each owner receives new - old,
// so running it again with the same score changes nothing.
func (e *settlementEngine) Settle(ctx context.Context, uow UnitOfWork, game *models.Game, homeScore, awayScore int) (*models.SettlementResult, error) {
	bets, err := uow.BetRepository().GetByGame(ctx, game.ID)
	if err != nil {
		return nil, settlementFailure(err, "failed to load bets for game %s", game.ID)
	}

	deltas := make(map[uuid.UUID]int64)
	var order []uuid.UUID

	for _, bet := range bets {
		points := models.CalculatePoints(bet.HomeScorePrediction, bet.AwayScorePrediction, homeScore, awayScore)
		if points == bet.PointsEarned {
			continue
		}

		if err := uow.BetRepository().UpdatePoints(ctx, bet.ID, points); err != nil {
			return nil, settlementFailure(err, "failed to update points for bet %s", bet.ID)
		}

		if _, seen := deltas[bet.UserID]; !seen {
			order = append(order, bet.UserID)
		}
		deltas[bet.UserID] += int64(points - bet.PointsEarned)
		bet.PointsEarned = points
	}

	applied, err := applyDeltas(ctx, uow, game.ID, order, deltas)
	if err != nil {
		return nil, err
	}

	result := &models.SettlementResult{
		GameID:        game.ID,
		HomeScore:     homeScore,
		AwayScore:     awayScore,
		BetsSettled:   len(bets),
		UsersAffected: len(applied),
		PointDeltas:   applied,
		Corrected:     game.HasFinalScore(),
	}

	uow.EventBus().Publish(events.GameSettledEvent{
		GameID:        game.ID,
		HomeScore:     homeScore,
		AwayScore:     awayScore,
		BetsSettled:   result.BetsSettled,
		UsersAffected: result.UsersAffected,
		Corrected:     result.Corrected,
	})

	log.WithFields(log.Fields{
		"gameID":        game.ID,
		"homeScore":     homeScore,
		"awayScore":     awayScore,
		"betsSettled":   result.BetsSettled,
		"usersAffected": result.UsersAffected,
		"corrected":     result.Corrected,
	}).Info("Settled game")

	return result, nil
}

// Retract subtracts every point the game's bets have earned from their owners
// and zeroes the bets, leaving totals as if the game had never been settled.
func (e *settlementEngine) Retract(ctx context.Context, uow UnitOfWork, gameID uuid.UUID) (map[uuid.UUID]int64, error) {
	bets, err := uow.BetRepository().GetByGame(ctx, gameID)
	if err != nil {
		return nil, settlementFailure(err, "failed to load bets for game %s", gameID)
	}

	deltas := make(map[uuid.UUID]int64)
	var order []uuid.UUID

	for _, bet := range bets {
		if bet.PointsEarned == 0 {
			continue
		}

		if err := uow.BetRepository().UpdatePoints(ctx, bet.ID, 0); err != nil {
			return nil, settlementFailure(err, "failed to reset points for bet %s", bet.ID)
		}

		if _, seen := deltas[bet.UserID]; !seen {
			order = append(order, bet.UserID)
		}
		deltas[bet.UserID] -= int64(bet.PointsEarned)
		bet.PointsEarned = 0
	}

	applied, err := applyDeltas(ctx, uow, gameID, order, deltas)
	if err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.GameSettlementRetractedEvent{
		GameID:        gameID,
		UsersAffected: len(applied),
	})

	log.WithFields(log.Fields{
		"gameID":        gameID,
		"usersAffected": len(applied),
	}).Info("Retracted game settlement")

	return applied, nil
}

// applyDeltas increments each user's total by their non-zero delta in first-seen order
func applyDeltas(ctx context.Context, uow UnitOfWork, gameID uuid.UUID, order []uuid.UUID, deltas map[uuid.UUID]int64) (map[uuid.UUID]int64, error) {
	applied := make(map[uuid.UUID]int64)

	for _, userID := range order {
		delta := deltas[userID]
		if delta == 0 {
			continue
		}

		if err := uow.UserRepository().IncrementPoints(ctx, userID, delta); err != nil {
			return nil, settlementFailure(err, "failed to apply %+d points to user %s", delta, userID)
		}
		applied[userID] = delta

		uow.EventBus().Publish(events.PointsChangedEvent{
			UserID: userID,
			GameID: gameID,
			Delta:  delta,
		})
	}

	return applied, nil
}
