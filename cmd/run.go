package cmd

import (
	"context"
	"fmt"

	"matka/application"
	"matka/config"
	"matka/database"
	"matka/domain/events"
	"matka/repository"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the settlement daemon
func Run(ctx context.Context) error {
	log.Info("Starting matka settlement daemon...")

	cfg := config.Get()

	log.Info("Connecting to database...")
	databaseURL := database.ConstructDatabaseURL(cfg.DatabaseURL, cfg.DatabaseName)
	db, err := database.NewConnection(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established")

	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	settlement := application.NewSettlementFacade(uowFactory)
	scheduler := application.NewResultSchedulerWorker(uowFactory, settlement, cfg.SchedulerPollInterval)

	stopScheduler := scheduler.Start(ctx)
	defer stopScheduler()

	log.Infof("Daemon is running in %s mode", cfg.Environment)
	<-ctx.Done()

	log.Info("Shutting down...")
	return nil
}
