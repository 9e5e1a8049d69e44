package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"kickwager/config"
	"kickwager/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const adminUsage = `usage: kickwager admin <command> [args...]

commands:
  grant-admin <email>                              promote a registered user
  games [season] [week]                            list games
  finalize <admin-id> <game-id> <home> <away>      record or correct a final score
  delete-game <admin-id> <game-id>                 delete a game, retracting its points
  delete-user <admin-id> <user-id>                 delete a user with their bets and memberships
  leaderboard [caller-id group-id]                 print the global or a group leaderboard`

// RunAdmin executes one operator command against the database
func RunAdmin(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New(adminUsage)
	}

	cfg := config.Get()
	cfg.ConfigureLogging()

	app, err := NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	return runAdminCommand(ctx, app, os.Stdout, args)
}

func runAdminCommand(ctx context.Context, app *App, out io.Writer, args []string) error {
	switch args[0] {
	case "grant-admin":
		if len(args) != 2 {
			return fmt.Errorf("usage: grant-admin <email>")
		}
		user, err := app.Users.GrantAdminByEmail(ctx, args[1])
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{"userID": user.ID, "email": user.Email}).Info("Admin role granted")
		return nil

	case "games":
		filter, err := parseGameFilter(args[1:])
		if err != nil {
			return err
		}
		games, err := app.Games.ListGames(ctx, filter)
		if err != nil {
			return err
		}
		return writeJSON(out, games)

	case "finalize":
		if len(args) != 5 {
			return fmt.Errorf("usage: finalize <admin-id> <game-id> <home> <away>")
		}
		adminID, gameID, err := parseIDs(args[1], args[2])
		if err != nil {
			return err
		}
		home, err := strconv.Atoi(args[3])
		if err != nil {
			return fmt.Errorf("invalid home score: %w", err)
		}
		away, err := strconv.Atoi(args[4])
		if err != nil {
			return fmt.Errorf("invalid away score: %w", err)
		}
		result, err := app.Games.FinalizeGame(ctx, adminID, gameID, home, away)
		if err != nil {
			return err
		}
		return writeJSON(out, result)

	case "delete-game":
		if len(args) != 3 {
			return fmt.Errorf("usage: delete-game <admin-id> <game-id>")
		}
		adminID, gameID, err := parseIDs(args[1], args[2])
		if err != nil {
			return err
		}
		return app.Games.DeleteGame(ctx, adminID, gameID)

	case "delete-user":
		if len(args) != 3 {
			return fmt.Errorf("usage: delete-user <admin-id> <user-id>")
		}
		adminID, userID, err := parseIDs(args[1], args[2])
		if err != nil {
			return err
		}
		return app.Users.DeleteUser(ctx, adminID, userID)

	case "leaderboard":
		var entries []*models.LeaderboardEntry
		var err error
		switch len(args) {
		case 1:
			entries, err = app.Leaderboard.GetGlobalLeaderboard(ctx)
		case 3:
			callerID, groupID, perr := parseIDs(args[1], args[2])
			if perr != nil {
				return perr
			}
			entries, err = app.Leaderboard.GetGroupLeaderboard(ctx, callerID, groupID)
		default:
			return fmt.Errorf("usage: leaderboard [caller-id group-id]")
		}
		if err != nil {
			return err
		}
		return writeJSON(out, entries)

	default:
		return fmt.Errorf("unknown admin command: %s\n%s", args[0], adminUsage)
	}
}

func parseIDs(first, second string) (uuid.UUID, uuid.UUID, error) {
	a, err := uuid.Parse(first)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid id %q: %w", first, err)
	}
	b, err := uuid.Parse(second)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid id %q: %w", second, err)
	}
	return a, b, nil
}

func parseGameFilter(args []string) (models.GameFilter, error) {
	var filter models.GameFilter
	if len(args) > 0 {
		filter.Season = args[0]
	}
	if len(args) > 1 {
		week, err := strconv.Atoi(args[1])
		if err != nil {
			return filter, fmt.Errorf("invalid week: %w", err)
		}
		filter.Week = &week
	}
	return filter, nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
