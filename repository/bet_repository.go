package repository

import (
	"context"
	"errors"
	"fmt"

	"kickwager/database"
	"kickwager/models"
	"kickwager/service"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const betColumns = `id, user_id, username, game_id, home_score_prediction, away_score_prediction, points_earned, created_at`

// BetRepository implements the BetRepository interface
type BetRepository struct {
	q queryable
}

// NewBetRepository creates a new bet repository
func NewBetRepository(db *database.DB) *BetRepository {
	return &BetRepository{q: db.Pool}
}

// newBetRepositoryWithTx creates a new bet repository with a transaction
func newBetRepositoryWithTx(tx queryable) *BetRepository {
	return &BetRepository{q: tx}
}

func scanBet(row pgx.Row) (*models.Bet, error) {
	var bet models.Bet
	err := row.Scan(
		&bet.ID,
		&bet.UserID,
		&bet.Username,
		&bet.GameID,
		&bet.HomeScorePrediction,
		&bet.AwayScorePrediction,
		&bet.PointsEarned,
		&bet.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &bet, nil
}

func (r *BetRepository) getOne(ctx context.Context, query string, args ...any) (*models.Bet, error) {
	bet, err := scanBet(r.q.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return bet, nil
}

func (r *BetRepository) getMany(ctx context.Context, query string, args ...any) ([]*models.Bet, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bets: %w", err)
	}
	defer rows.Close()

	var bets []*models.Bet
	for rows.Next() {
		bet, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bets = append(bets, bet)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bets: %w", err)
	}

	return bets, nil
}

// GetByID retrieves a bet by ID
func (r *BetRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Bet, error) {
	bet, err := r.getOne(ctx, `SELECT `+betColumns+` FROM bets WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet %s: %w", id, err)
	}
	return bet, nil
}

// GetByUserAndGame retrieves a user's bet on a game
func (r *BetRepository) GetByUserAndGame(ctx context.Context, userID, gameID uuid.UUID) (*models.Bet, error) {
	query := `SELECT ` + betColumns + ` FROM bets WHERE user_id = $1 AND game_id = $2`

	bet, err := r.getOne(ctx, query, userID, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet of user %s on game %s: %w", userID, gameID, err)
	}
	return bet, nil
}

// GetByGame returns all bets on a game
func (r *BetRepository) GetByGame(ctx context.Context, gameID uuid.UUID) ([]*models.Bet, error) {
	query := `SELECT ` + betColumns + ` FROM bets WHERE game_id = $1 ORDER BY created_at, id`
	return r.getMany(ctx, query, gameID)
}

// GetByUser returns all bets of a user
func (r *BetRepository) GetByUser(ctx context.Context, userID uuid.UUID) ([]*models.Bet, error) {
	query := `SELECT ` + betColumns + ` FROM bets WHERE user_id = $1 ORDER BY created_at, id`
	return r.getMany(ctx, query, userID)
}

// GetByUsers returns all bets owned by any of the given users
func (r *BetRepository) GetByUsers(ctx context.Context, userIDs []uuid.UUID) ([]*models.Bet, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + betColumns + ` FROM bets WHERE user_id = ANY($1) ORDER BY created_at, id`
	return r.getMany(ctx, query, userIDs)
}

// GetByUsersAndGame returns the bets of the given users on one game
func (r *BetRepository) GetByUsersAndGame(ctx context.Context, userIDs []uuid.UUID, gameID uuid.UUID) ([]*models.Bet, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + betColumns + ` FROM bets WHERE user_id = ANY($1) AND game_id = $2 ORDER BY created_at, id`
	return r.getMany(ctx, query, userIDs, gameID)
}

// GetAll returns every bet
func (r *BetRepository) GetAll(ctx context.Context) ([]*models.Bet, error) {
	return r.getMany(ctx, `SELECT `+betColumns+` FROM bets ORDER BY created_at, id`)
}

// Create inserts a new bet
func (r *BetRepository) Create(ctx context.Context, bet *models.Bet) error {
	query := `
		INSERT INTO bets (id, user_id, username, game_id, home_score_prediction, away_score_prediction, points_earned)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		bet.ID,
		bet.UserID,
		bet.Username,
		bet.GameID,
		bet.HomeScorePrediction,
		bet.AwayScorePrediction,
		bet.PointsEarned,
	).Scan(&bet.CreatedAt)

	if isUniqueViolation(err, "idx_bets_user_game") {
		return service.ErrDuplicateBet
	}
	if err != nil {
		return fmt.Errorf("failed to create bet: %w", err)
	}

	return nil
}

// UpdatePrediction changes the predicted scores of a bet
func (r *BetRepository) UpdatePrediction(ctx context.Context, id uuid.UUID, homeScore, awayScore int) error {
	query := `
		UPDATE bets
		SET home_score_prediction = $1, away_score_prediction = $2
		WHERE id = $3
	`

	result, err := r.q.Exec(ctx, query, homeScore, awayScore, id)
	if err != nil {
		return fmt.Errorf("failed to update prediction of bet %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("bet %s not found", id)
	}

	return nil
}

// UpdatePoints stores the points earned by a bet
func (r *BetRepository) UpdatePoints(ctx context.Context, id uuid.UUID, points int) error {
	result, err := r.q.Exec(ctx, `UPDATE bets SET points_earned = $1 WHERE id = $2`, points, id)
	if err != nil {
		return fmt.Errorf("failed to update points of bet %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("bet %s not found", id)
	}

	return nil
}

// Delete removes a bet
func (r *BetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.q.Exec(ctx, `DELETE FROM bets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete bet %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("bet %s not found", id)
	}

	return nil
}

// DeleteByGame removes every bet on a game
func (r *BetRepository) DeleteByGame(ctx context.Context, gameID uuid.UUID) (int64, error) {
	result, err := r.q.Exec(ctx, `DELETE FROM bets WHERE game_id = $1`, gameID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete bets of game %s: %w", gameID, err)
	}
	return result.RowsAffected(), nil
}

// DeleteByUser removes every bet of a user
func (r *BetRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	result, err := r.q.Exec(ctx, `DELETE FROM bets WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete bets of user %s: %w", userID, err)
	}
	return result.RowsAffected(), nil
}

// UpdateUsername refreshes the username snapshot on a user's bets
func (r *BetRepository) UpdateUsername(ctx context.Context, userID uuid.UUID, username string) error {
	_, err := r.q.Exec(ctx, `UPDATE bets SET username = $1 WHERE user_id = $2`, username, userID)
	if err != nil {
		return fmt.Errorf("failed to update bet usernames of user %s: %w", userID, err)
	}
	return nil
}
