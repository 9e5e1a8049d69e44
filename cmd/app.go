package cmd

import (
	"context"
	"fmt"

	"kickwager/config"
	"kickwager/database"
	"kickwager/events"
	"kickwager/repository"
	"kickwager/service"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// App holds the wired services and the resources they depend on
type App struct {
	Config *config.Config
	DB     *database.DB
	Bus    *events.Bus

	Users       service.UserService
	Games       service.GameService
	Bets        service.BetService
	Groups      service.GroupService
	Leaderboard service.LeaderboardService

	nc *nats.Conn
}

// NewApp connects to the database, optionally to NATS, and builds every service
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	bus := events.NewBus()

	app := &App{Config: cfg, DB: db, Bus: bus}

	if cfg.NATSEnabled() {
		nc, err := events.ConnectNATS(cfg.NATSServers)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		events.NewNATSForwarder(nc, cfg.NATSSubjectPrefix).Attach(bus)
		app.nc = nc
		log.WithField("prefix", cfg.NATSSubjectPrefix).Info("Forwarding committed events to NATS")
	}

	uowFactory := repository.NewUnitOfWorkFactory(db, bus)
	clock := service.SystemClock{}

	app.Users = service.NewUserService(uowFactory)
	app.Games = service.NewGameService(uowFactory, service.NewSettlementEngine())
	app.Bets = service.NewBetService(uowFactory, clock, cfg)
	app.Groups = service.NewGroupService(uowFactory, clock, service.NewInviteCodeGenerator(cfg.InviteCodeLength), cfg)
	app.Leaderboard = service.NewLeaderboardService(uowFactory, cfg)

	return app, nil
}

// Close drains NATS and closes the database pool
func (a *App) Close() {
	if a.nc != nil {
		if err := a.nc.Drain(); err != nil {
			log.WithError(err).Warn("Failed to drain NATS connection")
		}
	}
	a.DB.Close()
}
