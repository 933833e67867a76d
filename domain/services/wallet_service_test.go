package services

import (
	"context"
	"testing"

	"matka/domain/entities"
	"matka/domain/interfaces"
	"matka/domain/testhelpers"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type walletMocks struct {
	userRepo        *testhelpers.MockUserRepository
	transactionRepo *testhelpers.MockTransactionRepository
	withdrawalRepo  *testhelpers.MockWithdrawalRepository
	eventPublisher  *testhelpers.MockEventPublisher
}

func newWalletService(t *testing.T) (interfaces.WalletService, *walletMocks) {
	m := &walletMocks{
		userRepo:        new(testhelpers.MockUserRepository),
		transactionRepo: new(testhelpers.MockTransactionRepository),
		withdrawalRepo:  new(testhelpers.MockWithdrawalRepository),
		eventPublisher:  new(testhelpers.MockEventPublisher),
	}
	svc := NewWalletService(m.userRepo, m.transactionRepo, m.withdrawalRepo, m.eventPublisher)
	return svc, m
}

func TestWalletService_Deposit(t *testing.T) {
	ctx := context.Background()
	svc, m := newWalletService(t)

	m.userRepo.On("GetByID", ctx, int64(7)).Return(&entities.User{ID: 7, IsActive: true}, nil)
	m.userRepo.On("Credit", ctx, int64(7), entities.FieldBalance, mock.MatchedBy(func(a decimal.Decimal) bool {
		return a.Equal(decimal.NewFromInt(500))
	})).Return(&entities.BalanceChange{
		Field:  entities.FieldBalance,
		Before: decimal.NewFromInt(100),
		After:  decimal.NewFromInt(600),
	}, nil)
	m.transactionRepo.On("Record", ctx, mock.MatchedBy(func(txn *entities.Transaction) bool {
		return txn.TransactionType == entities.TransactionTypeDeposit &&
			txn.Amount.Equal(decimal.NewFromInt(500)) &&
			txn.BalanceAfter.Equal(decimal.NewFromInt(600))
	})).Return(nil)
	m.eventPublisher.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return()

	change, err := svc.Deposit(ctx, 7, decimal.NewFromInt(500), "UPI ref 123")

	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(600).Equal(change.After))
	m.transactionRepo.AssertExpectations(t)
}

func TestWalletService_Deposit_InvalidAmount(t *testing.T) {
	ctx := context.Background()
	svc, m := newWalletService(t)

	_, err := svc.Deposit(ctx, 7, decimal.Zero, "")

	assert.ErrorIs(t, err, entities.ErrInvalidAmount)
	m.userRepo.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWalletService_RequestWithdrawal_MovesToHeld(t *testing.T) {
	ctx := context.Background()
	svc, m := newWalletService(t)

	m.userRepo.On("GetByIDForUpdate", ctx, int64(7)).Return(&entities.User{
		ID:             7,
		IsActive:       true,
		WinningBalance: decimal.NewFromInt(1000),
	}, nil)
	m.userRepo.On("Debit", ctx, int64(7), entities.FieldWinningBalance, mock.Anything).
		Return(&entities.BalanceChange{
			Field:  entities.FieldWinningBalance,
			Before: decimal.NewFromInt(1000),
			After:  decimal.NewFromInt(400),
		}, nil)
	m.userRepo.On("Credit", ctx, int64(7), entities.FieldHeldWithdrawalBalance, mock.Anything).
		Return(&entities.BalanceChange{
			Field:  entities.FieldHeldWithdrawalBalance,
			Before: decimal.Zero,
			After:  decimal.NewFromInt(600),
		}, nil)
	m.withdrawalRepo.On("Create", ctx, mock.MatchedBy(func(req *entities.WithdrawalRequest) bool {
		return req.UserID == 7 &&
			req.Amount.Equal(decimal.NewFromInt(600)) &&
			req.Status == entities.WithdrawalStatusPending
	})).Return(nil)
	// The hold itself is a balance mutation, so it carries its own ledger row.
	m.transactionRepo.On("Record", ctx, mock.MatchedBy(func(txn *entities.Transaction) bool {
		return txn.TransactionType == entities.TransactionTypeWithdrawal &&
			txn.Amount.Equal(decimal.NewFromInt(600)) &&
			txn.BalanceBefore.Equal(decimal.NewFromInt(1000)) &&
			txn.BalanceAfter.Equal(decimal.NewFromInt(400)) &&
			txn.ReferenceType != nil && *txn.ReferenceType == entities.ReferenceTypeWithdrawalRequest
	})).Return(nil)
	m.eventPublisher.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return()

	req, err := svc.RequestWithdrawal(ctx, 7, decimal.NewFromInt(600), "ACC 0001")

	require.NoError(t, err)
	assert.True(t, req.IsPending())
	m.withdrawalRepo.AssertExpectations(t)
	m.transactionRepo.AssertExpectations(t)
}

func TestWalletService_RequestWithdrawal_InsufficientWinnings(t *testing.T) {
	ctx := context.Background()
	svc, m := newWalletService(t)

	// Wagerable balance cannot fund a withdrawal, only winnings can.
	m.userRepo.On("GetByIDForUpdate", ctx, int64(7)).Return(&entities.User{
		ID:             7,
		IsActive:       true,
		Balance:        decimal.NewFromInt(5000),
		WinningBalance: decimal.NewFromInt(100),
	}, nil)

	_, err := svc.RequestWithdrawal(ctx, 7, decimal.NewFromInt(600), "ACC 0001")

	assert.ErrorIs(t, err, entities.ErrInsufficientBalance)
	m.userRepo.AssertNotCalled(t, "Debit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.withdrawalRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestWalletService_ApproveWithdrawal(t *testing.T) {
	ctx := context.Background()
	svc, m := newWalletService(t)

	m.withdrawalRepo.On("GetByIDForUpdate", ctx, int64(3)).Return(&entities.WithdrawalRequest{
		ID:     3,
		UserID: 7,
		Amount: decimal.NewFromInt(600),
		Status: entities.WithdrawalStatusPending,
	}, nil)
	m.userRepo.On("Debit", ctx, int64(7), entities.FieldHeldWithdrawalBalance, mock.Anything).
		Return(&entities.BalanceChange{
			Field:  entities.FieldHeldWithdrawalBalance,
			Before: decimal.NewFromInt(600),
			After:  decimal.Zero,
		}, nil)
	m.transactionRepo.On("Record", ctx, mock.MatchedBy(func(txn *entities.Transaction) bool {
		return txn.TransactionType == entities.TransactionTypeWithdrawal &&
			txn.ReferenceID != nil && *txn.ReferenceID == 3
	})).Return(nil)
	m.withdrawalRepo.On("Update", ctx, mock.MatchedBy(func(req *entities.WithdrawalRequest) bool {
		return req.Status == entities.WithdrawalStatusApproved && req.ProcessedAt != nil
	})).Return(nil)

	err := svc.ApproveWithdrawal(ctx, 3)

	require.NoError(t, err)
	m.withdrawalRepo.AssertExpectations(t)
	m.transactionRepo.AssertExpectations(t)
}

func TestWalletService_RejectWithdrawal_Refunds(t *testing.T) {
	ctx := context.Background()
	svc, m := newWalletService(t)

	m.withdrawalRepo.On("GetByIDForUpdate", ctx, int64(3)).Return(&entities.WithdrawalRequest{
		ID:     3,
		UserID: 7,
		Amount: decimal.NewFromInt(600),
		Status: entities.WithdrawalStatusPending,
	}, nil)
	m.userRepo.On("Debit", ctx, int64(7), entities.FieldHeldWithdrawalBalance, mock.Anything).
		Return(&entities.BalanceChange{
			Field:  entities.FieldHeldWithdrawalBalance,
			Before: decimal.NewFromInt(600),
			After:  decimal.Zero,
		}, nil)
	m.userRepo.On("Credit", ctx, int64(7), entities.FieldWinningBalance, mock.Anything).
		Return(&entities.BalanceChange{
			Field:  entities.FieldWinningBalance,
			Before: decimal.NewFromInt(400),
			After:  decimal.NewFromInt(1000),
		}, nil)
	m.transactionRepo.On("Record", ctx, mock.MatchedBy(func(txn *entities.Transaction) bool {
		return txn.TransactionType == entities.TransactionTypeRefund
	})).Return(nil)
	m.withdrawalRepo.On("Update", ctx, mock.MatchedBy(func(req *entities.WithdrawalRequest) bool {
		return req.Status == entities.WithdrawalStatusRejected
	})).Return(nil)
	m.eventPublisher.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return()

	err := svc.RejectWithdrawal(ctx, 3)

	require.NoError(t, err)
	m.withdrawalRepo.AssertExpectations(t)
}

func TestWalletService_ProcessedRequestRejectsSecondPass(t *testing.T) {
	ctx := context.Background()
	svc, m := newWalletService(t)

	m.withdrawalRepo.On("GetByIDForUpdate", ctx, int64(3)).Return(&entities.WithdrawalRequest{
		ID:     3,
		UserID: 7,
		Amount: decimal.NewFromInt(600),
		Status: entities.WithdrawalStatusApproved,
	}, nil)

	assert.ErrorIs(t, svc.ApproveWithdrawal(ctx, 3), entities.ErrWithdrawalNotPending)
	assert.ErrorIs(t, svc.RejectWithdrawal(ctx, 3), entities.ErrWithdrawalNotPending)
	m.userRepo.AssertNotCalled(t, "Debit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
