package application

import (
	"context"

	"matka/domain/interfaces"
)

// UnitOfWork bundles one database transaction with transaction-scoped
// repositories and a buffered event publisher. Events published through the
// unit of work are only emitted after a successful commit.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() interfaces.UserRepository
	TransactionRepository() interfaces.TransactionRepository
	BetRepository() interfaces.BetRepository
	GameRepository() interfaces.GameRepository
	GameSessionRepository() interfaces.GameSessionRepository
	SettingsRepository() interfaces.SettingsRepository
	WithdrawalRepository() interfaces.WithdrawalRepository

	EventPublisher() interfaces.EventPublisher
}

// UnitOfWorkFactory creates units of work.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// WithUnitOfWork runs fn inside a fresh unit of work with commit/rollback
// handling. The rollback on the error path is a no-op after a commit.
func WithUnitOfWork(ctx context.Context, factory UnitOfWorkFactory, fn func(uow UnitOfWork) error) error {
	uow := factory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := fn(uow); err != nil {
		return err
	}
	return uow.Commit()
}
