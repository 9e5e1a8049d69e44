package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kickwager/config"
	"kickwager/events"
	"kickwager/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type betService struct {
	uowFactory UnitOfWorkFactory
	clock      Clock
	batchSize  int
}

// NewBetService creates a new bet service
func NewBetService(uowFactory UnitOfWorkFactory, clock Clock, cfg *config.Config) BetService {
	return &betService{
		uowFactory: uowFactory,
		clock:      clock,
		batchSize:  cfg.LeaderboardBatchSize,
	}
}

// closedError describes why a game no longer accepts the requested change
func closedError(game *models.Game, now time.Time) error {
	switch game.ClosedReason(now) {
	case models.ClosedReasonFinished:
		return policyViolation("betting closed: game finished")
	case models.ClosedReasonLive:
		return policyViolation("betting closed: game is live")
	default:
		return policyViolation("betting closed: betting window missed")
	}
}

func validatePrediction(homeScore, awayScore int) error {
	if homeScore < 0 || awayScore < 0 {
		return validation("predicted scores must not be negative")
	}
	return nil
}

func (s *betService) PlaceBet(ctx context.Context, userID, gameID uuid.UUID, homeScore, awayScore int) (*models.Bet, error) {
	if err := validatePrediction(homeScore, awayScore); err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, notFound("user")
	}

	// Share lock orders this placement against FinalizeGame on the same game
	game, err := uow.GameRepository().GetByIDForShare(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	if game == nil {
		return nil, notFound("game")
	}

	existing, err := uow.BetRepository().GetByUserAndGame(ctx, userID, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing bet: %w", err)
	}

	now := s.clock.Now()
	state := game.BettingWindow(now, existing != nil)
	if state == models.WindowClosed {
		return nil, closedError(game, now)
	}
	if !state.AllowsPlace() {
		return nil, ErrDuplicateBet
	}

	bet := &models.Bet{
		ID:                  uuid.New(),
		UserID:              userID,
		Username:            user.Username,
		GameID:              gameID,
		HomeScorePrediction: homeScore,
		AwayScorePrediction: awayScore,
	}

	// The unique index catches a concurrent placement that passed the check above
	if err := uow.BetRepository().Create(ctx, bet); err != nil {
		if errors.Is(err, ErrDuplicateBet) {
			return nil, ErrDuplicateBet
		}
		return nil, fmt.Errorf("failed to create bet: %w", err)
	}

	uow.EventBus().Publish(events.BetPlacedEvent{
		BetID:               bet.ID,
		UserID:              userID,
		GameID:              gameID,
		HomeScorePrediction: homeScore,
		AwayScorePrediction: awayScore,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"betID":  bet.ID,
		"userID": userID,
		"gameID": gameID,
	}).Debug("Bet placed")

	return bet, nil
}

// loadOwnedBet fetches a bet and share-locks its game, checking the caller owns the bet
func loadOwnedBet(ctx context.Context, uow UnitOfWork, userID, betID uuid.UUID) (*models.Bet, *models.Game, error) {
	bet, err := uow.BetRepository().GetByID(ctx, betID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get bet: %w", err)
	}
	if bet == nil {
		return nil, nil, notFound("bet")
	}
	if !bet.IsOwnedBy(userID) {
		return nil, nil, unauthorized("bet belongs to another user")
	}

	game, err := uow.GameRepository().GetByIDForShare(ctx, bet.GameID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get game: %w", err)
	}
	if game == nil {
		return nil, nil, notFound("game")
	}

	return bet, game, nil
}

func (s *betService) EditBet(ctx context.Context, userID, betID uuid.UUID, homeScore, awayScore int) (*models.Bet, error) {
	if err := validatePrediction(homeScore, awayScore); err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bet, game, err := loadOwnedBet(ctx, uow, userID, betID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if !game.BettingWindow(now, true).AllowsEdit() {
		return nil, closedError(game, now)
	}

	if err := uow.BetRepository().UpdatePrediction(ctx, betID, homeScore, awayScore); err != nil {
		return nil, fmt.Errorf("failed to update bet: %w", err)
	}
	bet.HomeScorePrediction = homeScore
	bet.AwayScorePrediction = awayScore

	uow.EventBus().Publish(events.BetUpdatedEvent{
		BetID:               bet.ID,
		UserID:              userID,
		GameID:              bet.GameID,
		HomeScorePrediction: homeScore,
		AwayScorePrediction: awayScore,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return bet, nil
}

func (s *betService) WithdrawBet(ctx context.Context, userID, betID uuid.UUID) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bet, game, err := loadOwnedBet(ctx, uow, userID, betID)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	if !game.BettingWindow(now, true).AllowsWithdraw() {
		return closedError(game, now)
	}

	if err := uow.BetRepository().Delete(ctx, betID); err != nil {
		return fmt.Errorf("failed to delete bet: %w", err)
	}

	uow.EventBus().Publish(events.BetWithdrawnEvent{
		BetID:  bet.ID,
		UserID: userID,
		GameID: bet.GameID,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (s *betService) GetBettingStatus(ctx context.Context, userID, gameID uuid.UUID) (*models.BettingStatus, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	game, err := uow.GameRepository().GetByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	if game == nil {
		return nil, notFound("game")
	}

	bet, err := uow.BetRepository().GetByUserAndGame(ctx, userID, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}

	now := s.clock.Now()
	return &models.BettingStatus{
		GameID: gameID,
		State:  game.BettingWindow(now, bet != nil),
		Reason: game.ClosedReason(now),
		Bet:    bet,
	}, nil
}

func (s *betService) GetBetsForGame(ctx context.Context, gameID uuid.UUID) ([]*models.Bet, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bets, err := uow.BetRepository().GetByGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets: %w", err)
	}
	return bets, nil
}

func (s *betService) GetBetsForUser(ctx context.Context, userID uuid.UUID) ([]*models.Bet, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bets, err := uow.BetRepository().GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets: %w", err)
	}
	return bets, nil
}

func (s *betService) GetGroupBetsForGame(ctx context.Context, callerID, groupID, gameID uuid.UUID) ([]*models.Bet, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	group, err := loadGroupForMember(ctx, uow, callerID, groupID)
	if err != nil {
		return nil, err
	}

	var bets []*models.Bet
	for _, chunk := range chunkIDs(group.MemberIDs(), s.batchSize) {
		chunkBets, err := uow.BetRepository().GetByUsersAndGame(ctx, chunk, gameID)
		if err != nil {
			return nil, fmt.Errorf("failed to get bets for group members: %w", err)
		}
		bets = append(bets, chunkBets...)
	}

	return bets, nil
}
