package cmd

import (
	"context"
	"time"

	"kickwager/config"
	"kickwager/events"

	log "github.com/sirupsen/logrus"
)

// Run starts the service host and blocks until ctx is cancelled
func Run(ctx context.Context) error {
	cfg := config.Get()
	cfg.ConfigureLogging()

	log.WithField("environment", cfg.Environment).Info("Starting kickwager...")

	app, err := NewApp(ctx, cfg)
	if err != nil {
		return err
	}

	subscribeAuditLog(app.Bus)

	log.Info("Kickwager is running")
	<-ctx.Done()

	log.Info("Shutting down...")

	// Give in-flight event handlers a moment before closing the pool
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		app.Close()
		close(done)
	}()

	select {
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout exceeded")
	case <-done:
		log.Info("Shutdown completed")
	}

	return nil
}

// subscribeAuditLog records settlement and point changes after they commit
func subscribeAuditLog(bus *events.Bus) {
	bus.Subscribe(events.EventTypeGameSettled, func(ctx context.Context, event events.Event) {
		e := event.(events.GameSettledEvent)
		log.WithFields(log.Fields{
			"gameID":        e.GameID,
			"homeScore":     e.HomeScore,
			"awayScore":     e.AwayScore,
			"usersAffected": e.UsersAffected,
			"corrected":     e.Corrected,
		}).Info("Settlement committed")
	})

	bus.Subscribe(events.EventTypeGameSettlementRetracted, func(ctx context.Context, event events.Event) {
		e := event.(events.GameSettlementRetractedEvent)
		log.WithFields(log.Fields{
			"gameID":        e.GameID,
			"usersAffected": e.UsersAffected,
		}).Info("Settlement retraction committed")
	})

	bus.Subscribe(events.EventTypePointsChanged, func(ctx context.Context, event events.Event) {
		e := event.(events.PointsChangedEvent)
		log.WithFields(log.Fields{
			"userID": e.UserID,
			"gameID": e.GameID,
			"delta":  e.Delta,
		}).Debug("Points changed")
	})
}
