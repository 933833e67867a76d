package application

import (
	"context"

	"matka/domain/entities"
	"matka/domain/interfaces"
	"matka/domain/services"

	"github.com/shopspring/decimal"
)

// BettingFacade runs bet placement inside a fresh unit of work per call.
type BettingFacade struct {
	uowFactory UnitOfWorkFactory
}

// NewBettingFacade creates a new betting facade
func NewBettingFacade(uowFactory UnitOfWorkFactory) *BettingFacade {
	return &BettingFacade{uowFactory: uowFactory}
}

// PlaceBets places a batch of bets transactionally.
func (f *BettingFacade) PlaceBets(ctx context.Context, input interfaces.PlaceBetsInput) (*interfaces.PlaceBetsResult, error) {
	var result *interfaces.PlaceBetsResult
	err := WithUnitOfWork(ctx, f.uowFactory, func(uow UnitOfWork) error {
		svc := services.NewBettingService(
			uow.GameRepository(),
			uow.GameSessionRepository(),
			uow.UserRepository(),
			uow.BetRepository(),
			uow.TransactionRepository(),
			uow.SettingsRepository(),
			uow.EventPublisher(),
		)
		var err error
		result, err = svc.PlaceBets(ctx, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SettlementFacade runs each settlement operation inside a fresh unit of
// work, so a failure midway leaves no partial effects.
type SettlementFacade struct {
	uowFactory UnitOfWorkFactory
}

// NewSettlementFacade creates a new settlement facade
func NewSettlementFacade(uowFactory UnitOfWorkFactory) *SettlementFacade {
	return &SettlementFacade{uowFactory: uowFactory}
}

func (f *SettlementFacade) service(uow UnitOfWork) interfaces.SettlementService {
	return services.NewSettlementService(
		uow.GameSessionRepository(),
		uow.BetRepository(),
		uow.UserRepository(),
		uow.TransactionRepository(),
		uow.EventPublisher(),
	)
}

// Declare declares a session result and settles all pending bets.
func (f *SettlementFacade) Declare(ctx context.Context, sessionID int64, winningNumber string) (*interfaces.SettlementResult, error) {
	var result *interfaces.SettlementResult
	err := WithUnitOfWork(ctx, f.uowFactory, func(uow UnitOfWork) error {
		var err error
		result, err = f.service(uow).Declare(ctx, sessionID, winningNumber)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Schedule stores a winning number to be declared when the game closes.
func (f *SettlementFacade) Schedule(ctx context.Context, sessionID int64, winningNumber string) (*entities.GameSession, error) {
	var session *entities.GameSession
	err := WithUnitOfWork(ctx, f.uowFactory, func(uow UnitOfWork) error {
		var err error
		session, err = f.service(uow).Schedule(ctx, sessionID, winningNumber)
		return err
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Correct reverses a declared result and re-settles with the new number.
func (f *SettlementFacade) Correct(ctx context.Context, sessionID int64, newWinningNumber string) (*interfaces.CorrectionResult, error) {
	var result *interfaces.CorrectionResult
	err := WithUnitOfWork(ctx, f.uowFactory, func(uow UnitOfWork) error {
		var err error
		result, err = f.service(uow).Correct(ctx, sessionID, newWinningNumber)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// WalletFacade runs wallet operations inside a fresh unit of work per call.
type WalletFacade struct {
	uowFactory UnitOfWorkFactory
}

// NewWalletFacade creates a new wallet facade
func NewWalletFacade(uowFactory UnitOfWorkFactory) *WalletFacade {
	return &WalletFacade{uowFactory: uowFactory}
}

func (f *WalletFacade) service(uow UnitOfWork) interfaces.WalletService {
	return services.NewWalletService(
		uow.UserRepository(),
		uow.TransactionRepository(),
		uow.WithdrawalRepository(),
		uow.EventPublisher(),
	)
}

// Deposit credits a user's wagerable balance.
func (f *WalletFacade) Deposit(ctx context.Context, userID int64, amount decimal.Decimal, note string) (*entities.BalanceChange, error) {
	var change *entities.BalanceChange
	err := WithUnitOfWork(ctx, f.uowFactory, func(uow UnitOfWork) error {
		var err error
		change, err = f.service(uow).Deposit(ctx, userID, amount, note)
		return err
	})
	if err != nil {
		return nil, err
	}
	return change, nil
}

// RequestWithdrawal opens a pending withdrawal request.
func (f *WalletFacade) RequestWithdrawal(ctx context.Context, userID int64, amount decimal.Decimal, bankDetails string) (*entities.WithdrawalRequest, error) {
	var req *entities.WithdrawalRequest
	err := WithUnitOfWork(ctx, f.uowFactory, func(uow UnitOfWork) error {
		var err error
		req, err = f.service(uow).RequestWithdrawal(ctx, userID, amount, bankDetails)
		return err
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// ApproveWithdrawal approves a pending request and pays out the held amount.
func (f *WalletFacade) ApproveWithdrawal(ctx context.Context, requestID int64) error {
	return WithUnitOfWork(ctx, f.uowFactory, func(uow UnitOfWork) error {
		return f.service(uow).ApproveWithdrawal(ctx, requestID)
	})
}

// RejectWithdrawal rejects a pending request and refunds the held amount.
func (f *WalletFacade) RejectWithdrawal(ctx context.Context, requestID int64) error {
	return WithUnitOfWork(ctx, f.uowFactory, func(uow UnitOfWork) error {
		return f.service(uow).RejectWithdrawal(ctx, requestID)
	})
}
