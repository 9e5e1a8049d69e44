package service

import (
	"context"
	"fmt"
	"strings"

	"kickwager/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type gameService struct {
	uowFactory UnitOfWorkFactory
	settlement SettlementEngine
}

// NewGameService creates a new game service
func NewGameService(uowFactory UnitOfWorkFactory, settlement SettlementEngine) GameService {
	return &gameService{
		uowFactory: uowFactory,
		settlement: settlement,
	}
}

// requireAdmin checks the caller holds the admin role
func requireAdmin(ctx context.Context, uow UnitOfWork, userID uuid.UUID) error {
	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !user.IsAdmin {
		return unauthorized("admin role required")
	}
	return nil
}

func (s *gameService) CreateGame(ctx context.Context, adminID uuid.UUID, input models.CreateGameInput) (*models.Game, error) {
	input.HomeTeam = strings.TrimSpace(input.HomeTeam)
	input.AwayTeam = strings.TrimSpace(input.AwayTeam)
	if input.HomeTeam == "" || input.AwayTeam == "" {
		return nil, validation("both teams are required")
	}
	if strings.EqualFold(input.HomeTeam, input.AwayTeam) {
		return nil, validation("a team cannot play itself")
	}
	if input.StartsAt.IsZero() {
		return nil, validation("start time is required")
	}
	if input.Week < 1 {
		return nil, validation("week must be positive")
	}
	if strings.TrimSpace(input.Season) == "" {
		return nil, validation("season is required")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := requireAdmin(ctx, uow, adminID); err != nil {
		return nil, err
	}

	game := &models.Game{
		ID:           uuid.New(),
		HomeTeam:     input.HomeTeam,
		AwayTeam:     input.AwayTeam,
		HomeTeamAbbr: strings.ToUpper(strings.TrimSpace(input.HomeTeamAbbr)),
		AwayTeamAbbr: strings.ToUpper(strings.TrimSpace(input.AwayTeamAbbr)),
		StartsAt:     input.StartsAt.UTC(),
		Week:         input.Week,
		Season:       strings.TrimSpace(input.Season),
		Status:       models.GameStatusScheduled,
	}

	if err := uow.GameRepository().Create(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return game, nil
}

func (s *gameService) GetGame(ctx context.Context, gameID uuid.UUID) (*models.Game, error) {
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
	return game, nil
}

func (s *gameService) ListGames(ctx context.Context, filter models.GameFilter) ([]*models.Game, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	games, err := uow.GameRepository().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	return games, nil
}

func (s *gameService) SetGameLive(ctx context.Context, adminID, gameID uuid.UUID) (*models.Game, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := requireAdmin(ctx, uow, adminID); err != nil {
		return nil, err
	}

	game, err := uow.GameRepository().GetByIDForUpdate(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	if game == nil {
		return nil, notFound("game")
	}
	if game.Status == models.GameStatusLive {
		return game, nil
	}
	if game.IsFinished() {
		return nil, conflict("game is already finished")
	}

	if err := uow.GameRepository().UpdateStatus(ctx, gameID, models.GameStatusLive); err != nil {
		return nil, fmt.Errorf("failed to update game status: %w", err)
	}
	game.Status = models.GameStatusLive

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return game, nil
}

// FinalizeGame sets the final score and settles in one transaction.
// The row lock serializes concurrent finalizations of the same game.
func (s *gameService) FinalizeGame(ctx context.Context, adminID, gameID uuid.UUID, homeScore, awayScore int) (*models.SettlementResult, error) {
	if homeScore < 0 || awayScore < 0 {
		return nil, validation("final scores must not be negative")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := requireAdmin(ctx, uow, adminID); err != nil {
		return nil, err
	}

	game, err := uow.GameRepository().GetByIDForUpdate(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	if game == nil {
		return nil, notFound("game")
	}

	if err := uow.GameRepository().SetFinalScore(ctx, gameID, homeScore, awayScore); err != nil {
		return nil, settlementFailure(err, "failed to record final score for game %s", gameID)
	}

	result, err := s.settlement.Settle(ctx, uow, game, homeScore, awayScore)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, settlementFailure(err, "failed to commit settlement for game %s", gameID)
	}

	return result, nil
}

func (s *gameService) DeleteGame(ctx context.Context, adminID, gameID uuid.UUID) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := requireAdmin(ctx, uow, adminID); err != nil {
		return err
	}

	game, err := uow.GameRepository().GetByIDForUpdate(ctx, gameID)
	if err != nil {
		return fmt.Errorf("failed to get game: %w", err)
	}
	if game == nil {
		return notFound("game")
	}

	// A no-op unless the game was settled
	if _, err := s.settlement.Retract(ctx, uow, gameID); err != nil {
		return err
	}

	removed, err := uow.BetRepository().DeleteByGame(ctx, gameID)
	if err != nil {
		return fmt.Errorf("failed to delete bets: %w", err)
	}

	if err := uow.GameRepository().Delete(ctx, gameID); err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"gameID":      gameID,
		"betsRemoved": removed,
	}).Info("Game deleted")

	return nil
}
