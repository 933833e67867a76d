package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"matka/domain/entities"
	"matka/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// ResultSchedulerWorker periodically declares scheduled results for sessions
// whose games have closed. Each eligible session settles in its own unit of
// work, so one failure never blocks the others.
type ResultSchedulerWorker struct {
	uowFactory UnitOfWorkFactory
	settlement *SettlementFacade
	interval   time.Duration
	loc        *time.Location
}

// NewResultSchedulerWorker creates a new result scheduler worker
func NewResultSchedulerWorker(uowFactory UnitOfWorkFactory, settlement *SettlementFacade, interval time.Duration) *ResultSchedulerWorker {
	return &ResultSchedulerWorker{
		uowFactory: uowFactory,
		settlement: settlement,
		interval:   interval,
		loc:        time.UTC,
	}
}

// Start begins polling for due scheduled results. The returned function
// stops the worker.
func (w *ResultSchedulerWorker) Start(ctx context.Context) func() {
	stopChan := make(chan struct{})

	go func() {
		log.WithField("interval", w.interval).Info("Result scheduler worker started")

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Info("Result scheduler worker shutting down (context cancelled)")
				return
			case <-stopChan:
				log.Info("Result scheduler worker shutting down (stop requested)")
				return
			case <-ticker.C:
				if err := w.ProcessDueResults(ctx); err != nil {
					log.Errorf("Error processing scheduled results: %v", err)
				}
			}
		}
	}()

	return func() {
		close(stopChan)
	}
}

// ProcessDueResults declares every scheduled session whose game has closed.
func (w *ResultSchedulerWorker) ProcessDueResults(ctx context.Context) error {
	now := time.Now().In(w.loc)

	candidates, err := w.loadCandidates(ctx, now)
	if err != nil {
		return err
	}

	var declared, failed int
	for _, c := range candidates {
		if !w.isDue(c, now) {
			continue
		}

		number := *c.Session.ScheduledWinningNumber
		if _, err := w.settlement.Declare(ctx, c.Session.ID, number); err != nil {
			// A concurrent manual declaration is not a failure.
			if errors.Is(err, entities.ErrAlreadyDeclared) {
				continue
			}
			log.WithFields(log.Fields{
				"sessionID": c.Session.ID,
				"gameID":    c.Game.ID,
			}).Errorf("Failed to declare scheduled result: %v", err)
			failed++
			continue
		}
		declared++
	}

	if declared > 0 || failed > 0 {
		log.WithFields(log.Fields{
			"declared": declared,
			"failed":   failed,
		}).Info("Processed scheduled results")
	}

	return nil
}

func (w *ResultSchedulerWorker) loadCandidates(ctx context.Context, now time.Time) ([]*interfaces.SessionWithGame, error) {
	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	candidates, err := uow.GameSessionRepository().GetScheduledPending(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load scheduled sessions: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return candidates, nil
}

// isDue reports whether the session's game has closed for its session date.
func (w *ResultSchedulerWorker) isDue(c *interfaces.SessionWithGame, now time.Time) bool {
	if c.Session.ScheduledWinningNumber == nil {
		return false
	}
	closeAt := c.Game.CloseAtOn(c.Session.SessionDate, w.loc)
	return !now.Before(closeAt)
}
