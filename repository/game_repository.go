package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"kickwager/database"
	"kickwager/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const gameColumns = `id, home_team, away_team, home_team_abbr, away_team_abbr, starts_at, week, season, status, home_score, away_score, created_at`

// GameRepository implements the GameRepository interface
type GameRepository struct {
	q queryable
}

// NewGameRepository creates a new game repository
func NewGameRepository(db *database.DB) *GameRepository {
	return &GameRepository{q: db.Pool}
}

// newGameRepositoryWithTx creates a new game repository with a transaction
func newGameRepositoryWithTx(tx queryable) *GameRepository {
	return &GameRepository{q: tx}
}

func scanGame(row pgx.Row) (*models.Game, error) {
	var game models.Game
	err := row.Scan(
		&game.ID,
		&game.HomeTeam,
		&game.AwayTeam,
		&game.HomeTeamAbbr,
		&game.AwayTeamAbbr,
		&game.StartsAt,
		&game.Week,
		&game.Season,
		&game.Status,
		&game.HomeScore,
		&game.AwayScore,
		&game.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &game, nil
}

// GetByID retrieves a game by ID
func (r *GameRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	return r.getByID(ctx, id, "")
}

// GetByIDForUpdate retrieves a game by ID and locks the row
func (r *GameRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	return r.getByID(ctx, id, " FOR UPDATE")
}

// GetByIDForShare retrieves a game by ID and blocks writers to the row until the transaction ends
func (r *GameRepository) GetByIDForShare(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	return r.getByID(ctx, id, " FOR SHARE")
}

func (r *GameRepository) getByID(ctx context.Context, id uuid.UUID, lockClause string) (*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = $1` + lockClause

	game, err := scanGame(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game %s: %w", id, err)
	}

	return game, nil
}

// List returns games matching the filter
func (r *GameRepository) List(ctx context.Context, filter models.GameFilter) ([]*models.Game, error) {
	var conditions []string
	var args []any

	if filter.Week != nil {
		args = append(args, *filter.Week)
		conditions = append(conditions, fmt.Sprintf("week = $%d", len(args)))
	}
	if filter.Season != "" {
		args = append(args, filter.Season)
		conditions = append(conditions, fmt.Sprintf("season = $%d", len(args)))
	}

	query := `SELECT ` + gameColumns + ` FROM games`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY starts_at, id`

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query games: %w", err)
	}
	defer rows.Close()

	var games []*models.Game
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, game)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating games: %w", err)
	}

	return games, nil
}

// Create inserts a new game
func (r *GameRepository) Create(ctx context.Context, game *models.Game) error {
	query := `
		INSERT INTO games (id, home_team, away_team, home_team_abbr, away_team_abbr, starts_at, week, season, status, home_score, away_score)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		game.ID,
		game.HomeTeam,
		game.AwayTeam,
		game.HomeTeamAbbr,
		game.AwayTeamAbbr,
		game.StartsAt,
		game.Week,
		game.Season,
		game.Status,
		game.HomeScore,
		game.AwayScore,
	).Scan(&game.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}

	return nil
}

// UpdateStatus changes the status of a game that is not finished
func (r *GameRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.GameStatus) error {
	if status == models.GameStatusFinished {
		return fmt.Errorf("finished status requires a final score")
	}

	query := `
		UPDATE games
		SET status = $1, home_score = NULL, away_score = NULL
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update status of game %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("game %s not found", id)
	}

	return nil
}

// SetFinalScore marks a game finished with both scores
func (r *GameRepository) SetFinalScore(ctx context.Context, id uuid.UUID, homeScore, awayScore int) error {
	query := `
		UPDATE games
		SET status = 'finished', home_score = $1, away_score = $2
		WHERE id = $3
	`

	result, err := r.q.Exec(ctx, query, homeScore, awayScore, id)
	if err != nil {
		return fmt.Errorf("failed to set final score of game %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("game %s not found", id)
	}

	return nil
}

// Delete removes a game
func (r *GameRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.q.Exec(ctx, `DELETE FROM games WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete game %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("game %s not found", id)
	}

	return nil
}
