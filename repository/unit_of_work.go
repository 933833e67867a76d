package repository

import (
	"context"
	"fmt"

	"matka/application"
	"matka/database"
	"matka/domain/events"
	"matka/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the application.UnitOfWork interface
type unitOfWork struct {
	db  *database.DB
	tx  pgx.Tx
	ctx context.Context

	publisher *events.TransactionalBus

	userRepo        interfaces.UserRepository
	transactionRepo interfaces.TransactionRepository
	betRepo         interfaces.BetRepository
	gameRepo        interfaces.GameRepository
	sessionRepo     interfaces.GameSessionRepository
	settingsRepo    interfaces.SettingsRepository
	withdrawalRepo  interfaces.WithdrawalRepository
}

type unitOfWorkFactory struct {
	db  *database.DB
	bus *events.Bus
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, bus *events.Bus) application.UnitOfWorkFactory {
	return &unitOfWorkFactory{db: db, bus: bus}
}

// Create creates a new unit of work with a fresh event buffer
func (f *unitOfWorkFactory) Create() application.UnitOfWork {
	return &unitOfWork{
		db:        f.db,
		publisher: events.NewTransactionalBus(f.bus),
	}
}

// Begin starts a new transaction and binds the repositories to it
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	u.userRepo = newUserRepository(tx)
	u.transactionRepo = newTransactionRepository(tx)
	u.betRepo = newBetRepository(tx)
	u.gameRepo = newGameRepository(tx)
	u.sessionRepo = newGameSessionRepository(tx)
	u.settingsRepo = newSettingsRepository(tx)
	u.withdrawalRepo = newWithdrawalRepository(tx)

	return nil
}

// Commit commits the transaction and flushes buffered events
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil
	u.publisher.Flush(u.ctx)

	return nil
}

// Rollback rolls back the transaction and discards buffered events
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}

	err := u.tx.Rollback(u.ctx)
	u.tx = nil
	u.publisher.Discard()

	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}

func (u *unitOfWork) mustBeStarted() {
	if u.tx == nil {
		panic("unit of work not started - call Begin() first")
	}
}

// UserRepository returns the user repository for this unit of work
func (u *unitOfWork) UserRepository() interfaces.UserRepository {
	u.mustBeStarted()
	return u.userRepo
}

// TransactionRepository returns the ledger repository for this unit of work
func (u *unitOfWork) TransactionRepository() interfaces.TransactionRepository {
	u.mustBeStarted()
	return u.transactionRepo
}

// BetRepository returns the bet repository for this unit of work
func (u *unitOfWork) BetRepository() interfaces.BetRepository {
	u.mustBeStarted()
	return u.betRepo
}

// GameRepository returns the game repository for this unit of work
func (u *unitOfWork) GameRepository() interfaces.GameRepository {
	u.mustBeStarted()
	return u.gameRepo
}

// GameSessionRepository returns the session repository for this unit of work
func (u *unitOfWork) GameSessionRepository() interfaces.GameSessionRepository {
	u.mustBeStarted()
	return u.sessionRepo
}

// SettingsRepository returns the settings repository for this unit of work
func (u *unitOfWork) SettingsRepository() interfaces.SettingsRepository {
	u.mustBeStarted()
	return u.settingsRepo
}

// WithdrawalRepository returns the withdrawal repository for this unit of work
func (u *unitOfWork) WithdrawalRepository() interfaces.WithdrawalRepository {
	u.mustBeStarted()
	return u.withdrawalRepo
}

// EventPublisher returns the transaction-scoped event buffer
func (u *unitOfWork) EventPublisher() interfaces.EventPublisher {
	return u.publisher
}
