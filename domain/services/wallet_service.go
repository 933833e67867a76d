package services

import (
	"context"
	"fmt"
	"time"

	"matka/domain/entities"
	"matka/domain/events"
	"matka/domain/interfaces"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// walletService implements deposits and the withdrawal request lifecycle.
type walletService struct {
	userRepo        interfaces.UserRepository
	transactionRepo interfaces.TransactionRepository
	withdrawalRepo  interfaces.WithdrawalRepository
	eventPublisher  interfaces.EventPublisher
}

// NewWalletService creates a new wallet service.
func NewWalletService(
	userRepo interfaces.UserRepository,
	transactionRepo interfaces.TransactionRepository,
	withdrawalRepo interfaces.WithdrawalRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.WalletService {
	return &walletService{
		userRepo:        userRepo,
		transactionRepo: transactionRepo,
		withdrawalRepo:  withdrawalRepo,
		eventPublisher:  eventPublisher,
	}
}

// Deposit credits the wagerable balance and records the ledger entry.
func (s *walletService) Deposit(ctx context.Context, userID int64, amount decimal.Decimal, note string) (*entities.BalanceChange, error) {
	if !amount.IsPositive() {
		return nil, entities.ErrInvalidAmount
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, entities.ErrUserNotFound
	}

	change, err := s.userRepo.Credit(ctx, userID, entities.FieldBalance, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to credit balance: %w", err)
	}

	description := note
	if description == "" {
		description = "Deposit"
	}
	txn := &entities.Transaction{
		UserID:          userID,
		TransactionType: entities.TransactionTypeDeposit,
		Amount:          amount,
		BalanceBefore:   change.Before,
		BalanceAfter:    change.After,
		Description:     description,
	}
	if err := s.transactionRepo.Record(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to record deposit: %w", err)
	}

	s.eventPublisher.Publish(events.BalanceChangeEvent{
		UserID:          userID,
		Field:           entities.FieldBalance,
		BalanceBefore:   change.Before,
		BalanceAfter:    change.After,
		TransactionType: entities.TransactionTypeDeposit,
	})

	log.WithFields(log.Fields{
		"userID": userID,
		"amount": amount,
	}).Info("Deposit credited")

	return change, nil
}

// RequestWithdrawal moves amount out of the winning balance into the held
// withdrawal balance, records the withdrawal ledger entry, and opens a
// pending request. The user row is locked so concurrent requests cannot both
// pass the sufficiency check.
func (s *walletService) RequestWithdrawal(ctx context.Context, userID int64, amount decimal.Decimal, bankDetails string) (*entities.WithdrawalRequest, error) {
	if !amount.IsPositive() {
		return nil, entities.ErrInvalidAmount
	}

	user, err := s.userRepo.GetByIDForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, entities.ErrUserNotFound
	}
	if !user.CanWithdraw(amount) {
		return nil, entities.ErrInsufficientBalance
	}

	debit, err := s.userRepo.Debit(ctx, userID, entities.FieldWinningBalance, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to debit winning balance: %w", err)
	}
	if _, err := s.userRepo.Credit(ctx, userID, entities.FieldHeldWithdrawalBalance, amount); err != nil {
		return nil, fmt.Errorf("failed to hold withdrawal amount: %w", err)
	}

	req := &entities.WithdrawalRequest{
		UserID:      userID,
		Amount:      amount,
		Status:      entities.WithdrawalStatusPending,
		BankDetails: bankDetails,
	}
	if err := s.withdrawalRepo.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create withdrawal request: %w", err)
	}

	refType := entities.ReferenceTypeWithdrawalRequest
	txn := &entities.Transaction{
		UserID:          userID,
		TransactionType: entities.TransactionTypeWithdrawal,
		Amount:          amount,
		BalanceBefore:   debit.Before,
		BalanceAfter:    debit.After,
		Description:     fmt.Sprintf("Withdrawal requested (request %d)", req.ID),
		ReferenceID:     &req.ID,
		ReferenceType:   &refType,
	}
	if err := s.transactionRepo.Record(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to record withdrawal request: %w", err)
	}

	s.eventPublisher.Publish(events.BalanceChangeEvent{
		UserID:          userID,
		Field:           entities.FieldWinningBalance,
		BalanceBefore:   debit.Before,
		BalanceAfter:    debit.After,
		TransactionType: entities.TransactionTypeWithdrawal,
	})

	log.WithFields(log.Fields{
		"userID":    userID,
		"requestID": req.ID,
		"amount":    amount,
	}).Info("Withdrawal requested")

	return req, nil
}

// ApproveWithdrawal releases the held amount, records the withdrawal ledger
// entry, and closes the request.
func (s *walletService) ApproveWithdrawal(ctx context.Context, requestID int64) error {
	req, err := s.lockPendingRequest(ctx, requestID)
	if err != nil {
		return err
	}

	change, err := s.userRepo.Debit(ctx, req.UserID, entities.FieldHeldWithdrawalBalance, req.Amount)
	if err != nil {
		return fmt.Errorf("failed to release held amount: %w", err)
	}

	refType := entities.ReferenceTypeWithdrawalRequest
	txn := &entities.Transaction{
		UserID:          req.UserID,
		TransactionType: entities.TransactionTypeWithdrawal,
		Amount:          req.Amount,
		BalanceBefore:   change.Before,
		BalanceAfter:    change.After,
		Description:     fmt.Sprintf("Withdrawal approved (request %d)", req.ID),
		ReferenceID:     &req.ID,
		ReferenceType:   &refType,
	}
	if err := s.transactionRepo.Record(ctx, txn); err != nil {
		return fmt.Errorf("failed to record withdrawal: %w", err)
	}

	now := time.Now()
	req.Status = entities.WithdrawalStatusApproved
	req.ProcessedAt = &now
	if err := s.withdrawalRepo.Update(ctx, req); err != nil {
		return fmt.Errorf("failed to update withdrawal request: %w", err)
	}

	log.WithFields(log.Fields{
		"requestID": req.ID,
		"userID":    req.UserID,
		"amount":    req.Amount,
	}).Info("Withdrawal approved")

	return nil
}

// RejectWithdrawal refunds the held amount back to the winning balance,
// records the refund, and closes the request.
func (s *walletService) RejectWithdrawal(ctx context.Context, requestID int64) error {
	req, err := s.lockPendingRequest(ctx, requestID)
	if err != nil {
		return err
	}

	if _, err := s.userRepo.Debit(ctx, req.UserID, entities.FieldHeldWithdrawalBalance, req.Amount); err != nil {
		return fmt.Errorf("failed to release held amount: %w", err)
	}
	change, err := s.userRepo.Credit(ctx, req.UserID, entities.FieldWinningBalance, req.Amount)
	if err != nil {
		return fmt.Errorf("failed to refund winning balance: %w", err)
	}

	refType := entities.ReferenceTypeWithdrawalRequest
	txn := &entities.Transaction{
		UserID:          req.UserID,
		TransactionType: entities.TransactionTypeRefund,
		Amount:          req.Amount,
		BalanceBefore:   change.Before,
		BalanceAfter:    change.After,
		Description:     fmt.Sprintf("Withdrawal rejected (request %d)", req.ID),
		ReferenceID:     &req.ID,
		ReferenceType:   &refType,
	}
	if err := s.transactionRepo.Record(ctx, txn); err != nil {
		return fmt.Errorf("failed to record refund: %w", err)
	}

	now := time.Now()
	req.Status = entities.WithdrawalStatusRejected
	req.ProcessedAt = &now
	if err := s.withdrawalRepo.Update(ctx, req); err != nil {
		return fmt.Errorf("failed to update withdrawal request: %w", err)
	}

	s.eventPublisher.Publish(events.BalanceChangeEvent{
		UserID:          req.UserID,
		Field:           entities.FieldWinningBalance,
		BalanceBefore:   change.Before,
		BalanceAfter:    change.After,
		TransactionType: entities.TransactionTypeRefund,
	})

	log.WithFields(log.Fields{
		"requestID": req.ID,
		"userID":    req.UserID,
		"amount":    req.Amount,
	}).Info("Withdrawal rejected")

	return nil
}

func (s *walletService) lockPendingRequest(ctx context.Context, requestID int64) (*entities.WithdrawalRequest, error) {
	req, err := s.withdrawalRepo.GetByIDForUpdate(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawal request: %w", err)
	}
	if req == nil {
		return nil, entities.ErrWithdrawalNotFound
	}
	if !req.IsPending() {
		return nil, entities.ErrWithdrawalNotPending
	}
	return req, nil
}
