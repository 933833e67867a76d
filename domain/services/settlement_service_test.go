package services

import (
	"context"
	"testing"
	"time"

	"matka/domain/entities"
	"matka/domain/interfaces"
	"matka/domain/testhelpers"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type settlementMocks struct {
	sessionRepo     *testhelpers.MockGameSessionRepository
	betRepo         *testhelpers.MockBetRepository
	userRepo        *testhelpers.MockUserRepository
	transactionRepo *testhelpers.MockTransactionRepository
	eventPublisher  *testhelpers.MockEventPublisher
}

func newSettlementService(t *testing.T) (interfaces.SettlementService, *settlementMocks) {
	m := &settlementMocks{
		sessionRepo:     new(testhelpers.MockGameSessionRepository),
		betRepo:         new(testhelpers.MockBetRepository),
		userRepo:        new(testhelpers.MockUserRepository),
		transactionRepo: new(testhelpers.MockTransactionRepository),
		eventPublisher:  new(testhelpers.MockEventPublisher),
	}
	svc := NewSettlementService(m.sessionRepo, m.betRepo, m.userRepo, m.transactionRepo, m.eventPublisher)
	return svc, m
}

func completedSession(id int64, winningNumber string) *entities.GameSession {
	now := time.Now()
	return &entities.GameSession{
		ID:               id,
		GameID:           1,
		Status:           entities.SessionStatusCompleted,
		WinningNumber:    &winningNumber,
		ResultDeclaredAt: &now,
	}
}

func pendingBet(id, userID int64, betType entities.BetType, number string, amount, multiplier int64) *entities.Bet {
	return &entities.Bet{
		ID:               id,
		UserID:           userID,
		GameSessionID:    10,
		BetType:          betType,
		BetNumber:        number,
		BetAmount:        decimal.NewFromInt(amount),
		PayoutMultiplier: decimal.NewFromInt(multiplier),
		Status:           entities.BetStatusPending,
	}
}

func TestSettlementService_Declare_ClassifiesAndAggregates(t *testing.T) {
	ctx := context.Background()
	svc, m := newSettlementService(t)

	m.sessionRepo.On("MarkCompleted", ctx, int64(10), "47").
		Return(completedSession(10, "47"), nil)

	// User 7 holds a winning jodi and a winning andar haruf; user 8 loses both.
	bets := []*entities.Bet{
		pendingBet(1, 7, entities.BetTypeJodi, "47", 100, 90),
		pendingBet(2, 7, entities.BetTypeHarufAndar, "4", 50, 9),
		pendingBet(3, 8, entities.BetTypeJodi, "74", 100, 90),
		pendingBet(4, 8, entities.BetTypeHarufBahar, "4", 50, 9),
	}
	m.betRepo.On("GetPendingBySession", ctx, int64(10)).Return(bets, nil)

	m.betRepo.On("UpdateStatuses", ctx, []int64{3, 4}, entities.BetStatusLoss).Return(nil)
	m.betRepo.On("MarkWins", ctx, mock.MatchedBy(func(winners []*entities.Bet) bool {
		return len(winners) == 2 &&
			winners[0].ID == 1 && winners[0].PayoutAmount.Equal(decimal.NewFromInt(9000)) &&
			winners[1].ID == 2 && winners[1].PayoutAmount.Equal(decimal.NewFromInt(450))
	})).Return(nil)

	// Both payouts land in one credit and one ledger entry for user 7.
	m.userRepo.On("Credit", ctx, int64(7), entities.FieldWinningBalance, mock.MatchedBy(func(a decimal.Decimal) bool {
		return a.Equal(decimal.NewFromInt(9450))
	})).Return(&entities.BalanceChange{
		Field:  entities.FieldWinningBalance,
		Before: decimal.Zero,
		After:  decimal.NewFromInt(9450),
	}, nil)
	m.transactionRepo.On("Record", ctx, mock.MatchedBy(func(txn *entities.Transaction) bool {
		return txn.UserID == 7 &&
			txn.TransactionType == entities.TransactionTypeWin &&
			txn.Amount.Equal(decimal.NewFromInt(9450)) &&
			txn.ReferenceID != nil && *txn.ReferenceID == 10
	})).Return(nil)

	m.eventPublisher.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return()
	m.eventPublisher.On("Publish", mock.AnythingOfType("events.ResultDeclaredEvent")).Return()

	result, err := svc.Declare(ctx, 10, "47")

	require.NoError(t, err)
	assert.Equal(t, 4, result.TotalBets)
	assert.Equal(t, 2, result.WinCount)
	assert.Equal(t, 2, result.LossCount)
	assert.True(t, decimal.NewFromInt(9450).Equal(result.TotalPayout))

	m.betRepo.AssertExpectations(t)
	m.userRepo.AssertExpectations(t)
	m.transactionRepo.AssertExpectations(t)
}

func TestSettlementService_Declare_AlreadyDeclared(t *testing.T) {
	ctx := context.Background()
	svc, m := newSettlementService(t)

	m.sessionRepo.On("MarkCompleted", ctx, int64(10), "47").Return(nil, nil)
	m.sessionRepo.On("GetByID", ctx, int64(10)).Return(completedSession(10, "12"), nil)

	_, err := svc.Declare(ctx, 10, "47")

	assert.ErrorIs(t, err, entities.ErrAlreadyDeclared)
	m.betRepo.AssertNotCalled(t, "GetPendingBySession", mock.Anything, mock.Anything)
}

func TestSettlementService_Declare_SessionNotFound(t *testing.T) {
	ctx := context.Background()
	svc, m := newSettlementService(t)

	m.sessionRepo.On("MarkCompleted", ctx, int64(99), "47").Return(nil, nil)
	m.sessionRepo.On("GetByID", ctx, int64(99)).Return(nil, nil)

	_, err := svc.Declare(ctx, 99, "47")

	assert.ErrorIs(t, err, entities.ErrSessionNotFound)
}

func TestSettlementService_Declare_InvalidNumber(t *testing.T) {
	ctx := context.Background()
	svc, m := newSettlementService(t)

	_, err := svc.Declare(ctx, 10, "4")

	assert.ErrorIs(t, err, entities.ErrInvalidWinningNumber)
	m.sessionRepo.AssertNotCalled(t, "MarkCompleted", mock.Anything, mock.Anything, mock.Anything)
}

func TestSettlementService_Declare_NoBets(t *testing.T) {
	ctx := context.Background()
	svc, m := newSettlementService(t)

	m.sessionRepo.On("MarkCompleted", ctx, int64(10), "47").
		Return(completedSession(10, "47"), nil)
	m.betRepo.On("GetPendingBySession", ctx, int64(10)).Return([]*entities.Bet{}, nil)
	m.eventPublisher.On("Publish", mock.AnythingOfType("events.ResultDeclaredEvent")).Return()

	result, err := svc.Declare(ctx, 10, "47")

	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalBets)
	assert.True(t, result.TotalPayout.IsZero())
	m.userRepo.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSettlementService_Schedule(t *testing.T) {
	ctx := context.Background()
	svc, m := newSettlementService(t)

	scheduled := "47"
	m.sessionRepo.On("SetScheduled", ctx, int64(10), "47").Return(&entities.GameSession{
		ID:                     10,
		Status:                 entities.SessionStatusPending,
		ScheduledWinningNumber: &scheduled,
		IsScheduled:            true,
	}, nil)

	session, err := svc.Schedule(ctx, 10, "47")

	require.NoError(t, err)
	assert.True(t, session.IsScheduled)
	assert.Equal(t, "47", *session.ScheduledWinningNumber)
}

func TestSettlementService_Schedule_AlreadyDeclared(t *testing.T) {
	ctx := context.Background()
	svc, m := newSettlementService(t)

	m.sessionRepo.On("SetScheduled", ctx, int64(10), "47").Return(nil, nil)
	m.sessionRepo.On("GetByID", ctx, int64(10)).Return(completedSession(10, "12"), nil)

	_, err := svc.Schedule(ctx, 10, "47")

	assert.ErrorIs(t, err, entities.ErrAlreadyDeclared)
}

func TestSettlementService_Correct_RevertsAndResettles(t *testing.T) {
	ctx := context.Background()
	svc, m := newSettlementService(t)

	m.sessionRepo.On("GetByIDForUpdate", ctx, int64(10)).
		Return(completedSession(10, "47"), nil)

	// User 7 won 9000 under the old number.
	oldWinner := pendingBet(1, 7, entities.BetTypeJodi, "47", 100, 90)
	oldWinner.Status = entities.BetStatusWin
	oldWinner.PayoutAmount = decimal.NewFromInt(9000)
	m.betRepo.On("GetWinningBySession", ctx, int64(10)).Return([]*entities.Bet{oldWinner}, nil)

	m.userRepo.On("Debit", ctx, int64(7), entities.FieldWinningBalance, mock.MatchedBy(func(a decimal.Decimal) bool {
		return a.Equal(decimal.NewFromInt(9000))
	})).Return(&entities.BalanceChange{
		Field:  entities.FieldWinningBalance,
		Before: decimal.NewFromInt(9000),
		After:  decimal.Zero,
	}, nil)
	m.transactionRepo.On("Record", ctx, mock.MatchedBy(func(txn *entities.Transaction) bool {
		return txn.TransactionType == entities.TransactionTypeRevert &&
			txn.Amount.Equal(decimal.NewFromInt(9000))
	})).Return(nil).Once()

	m.betRepo.On("ResetForSession", ctx, int64(10)).Return(nil)
	m.sessionRepo.On("UpdateResult", ctx, int64(10), "74").Return(nil)

	// After the reset, re-settlement wins the other user's bet.
	newWinner := pendingBet(2, 8, entities.BetTypeJodi, "74", 100, 90)
	m.betRepo.On("GetPendingBySession", ctx, int64(10)).
		Return([]*entities.Bet{pendingBet(1, 7, entities.BetTypeJodi, "47", 100, 90), newWinner}, nil)
	m.betRepo.On("UpdateStatuses", ctx, []int64{1}, entities.BetStatusLoss).Return(nil)
	m.betRepo.On("MarkWins", ctx, mock.MatchedBy(func(winners []*entities.Bet) bool {
		return len(winners) == 1 && winners[0].ID == 2
	})).Return(nil)

	m.userRepo.On("Credit", ctx, int64(8), entities.FieldWinningBalance, mock.MatchedBy(func(a decimal.Decimal) bool {
		return a.Equal(decimal.NewFromInt(9000))
	})).Return(&entities.BalanceChange{
		Field:  entities.FieldWinningBalance,
		Before: decimal.Zero,
		After:  decimal.NewFromInt(9000),
	}, nil)
	m.transactionRepo.On("Record", ctx, mock.MatchedBy(func(txn *entities.Transaction) bool {
		return txn.TransactionType == entities.TransactionTypeWin &&
			txn.UserID == 8 &&
			txn.ReferenceType != nil && *txn.ReferenceType == entities.ReferenceTypeGameSessionCorrection
	})).Return(nil).Once()

	m.eventPublisher.On("Publish", mock.Anything).Return()

	result, err := svc.Correct(ctx, 10, "74")

	require.NoError(t, err)
	assert.Equal(t, "47", result.OldWinningNumber)
	assert.Equal(t, "74", result.NewWinningNumber)
	assert.Equal(t, 1, result.Settlement.WinCount)
	assert.True(t, decimal.NewFromInt(9000).Equal(result.Settlement.TotalPayout))

	m.betRepo.AssertExpectations(t)
	m.userRepo.AssertExpectations(t)
	m.transactionRepo.AssertExpectations(t)
}

func TestSettlementService_Correct_NotYetDeclared(t *testing.T) {
	ctx := context.Background()
	svc, m := newSettlementService(t)

	m.sessionRepo.On("GetByIDForUpdate", ctx, int64(10)).Return(&entities.GameSession{
		ID:     10,
		Status: entities.SessionStatusPending,
	}, nil)

	_, err := svc.Correct(ctx, 10, "47")

	assert.ErrorIs(t, err, entities.ErrNotYetDeclared)
	m.betRepo.AssertNotCalled(t, "GetWinningBySession", mock.Anything, mock.Anything)
}

func TestSettlementService_Correct_SameNumber(t *testing.T) {
	ctx := context.Background()
	svc, m := newSettlementService(t)

	m.sessionRepo.On("GetByIDForUpdate", ctx, int64(10)).
		Return(completedSession(10, "47"), nil)

	_, err := svc.Correct(ctx, 10, "47")

	assert.ErrorIs(t, err, entities.ErrNoChange)
	m.betRepo.AssertNotCalled(t, "ResetForSession", mock.Anything, mock.Anything)
}
