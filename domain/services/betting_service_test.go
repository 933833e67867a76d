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

type bettingMocks struct {
	gameRepo        *testhelpers.MockGameRepository
	sessionRepo     *testhelpers.MockGameSessionRepository
	userRepo        *testhelpers.MockUserRepository
	betRepo         *testhelpers.MockBetRepository
	transactionRepo *testhelpers.MockTransactionRepository
	settingsRepo    *testhelpers.MockSettingsRepository
	eventPublisher  *testhelpers.MockEventPublisher
}

func newBettingService(t *testing.T) (interfaces.BettingService, *bettingMocks) {
	m := &bettingMocks{
		gameRepo:        new(testhelpers.MockGameRepository),
		sessionRepo:     new(testhelpers.MockGameSessionRepository),
		userRepo:        new(testhelpers.MockUserRepository),
		betRepo:         new(testhelpers.MockBetRepository),
		transactionRepo: new(testhelpers.MockTransactionRepository),
		settingsRepo:    new(testhelpers.MockSettingsRepository),
		eventPublisher:  new(testhelpers.MockEventPublisher),
	}
	svc := NewBettingService(m.gameRepo, m.sessionRepo, m.userRepo, m.betRepo,
		m.transactionRepo, m.settingsRepo, m.eventPublisher)
	return svc, m
}

func alwaysOpenGame(id int64) *entities.Game {
	return &entities.Game{
		ID:        id,
		Name:      "Test Market",
		OpenTime:  0,
		CloseTime: entities.TimeOfDay(23*3600 + 59*60 + 59),
		IsActive:  true,
	}
}

func (m *bettingMocks) expectOpenSession(ctx context.Context, gameID, sessionID int64) {
	m.gameRepo.On("GetByID", ctx, gameID).Return(alwaysOpenGame(gameID), nil)
	m.sessionRepo.On("GetOrCreate", ctx, gameID, mock.AnythingOfType("time.Time")).
		Return(&entities.GameSession{ID: sessionID, GameID: gameID, Status: entities.SessionStatusPending}, nil)
	m.settingsRepo.On("GetAll", ctx).Return(map[string]string{}, nil)
}

func TestBettingService_PlaceBets_Numbers(t *testing.T) {
	ctx := context.Background()
	svc, m := newBettingService(t)

	m.expectOpenSession(ctx, 1, 10)

	// Palti doubles "12" and "47"; "55" is its own reversal and "xx" is
	// dropped silently. 5 bets at 10 each.
	m.userRepo.On("DebitBalanceChecked", ctx, int64(7), mock.MatchedBy(func(a decimal.Decimal) bool {
		return a.Equal(decimal.NewFromInt(50))
	})).Return(&entities.BalanceChange{
		Field:  entities.FieldBalance,
		Before: decimal.NewFromInt(100),
		After:  decimal.NewFromInt(50),
	}, nil)

	m.betRepo.On("CreateBatch", ctx, mock.MatchedBy(func(bets []*entities.Bet) bool {
		if len(bets) != 5 {
			return false
		}
		numbers := make([]string, len(bets))
		for i, b := range bets {
			numbers[i] = b.BetNumber
		}
		return assert.ObjectsAreEqual([]string{"12", "21", "47", "74", "55"}, numbers)
	})).Return(nil)

	m.transactionRepo.On("Record", ctx, mock.MatchedBy(func(txn *entities.Transaction) bool {
		return txn.UserID == 7 &&
			txn.TransactionType == entities.TransactionTypeBet &&
			txn.Amount.Equal(decimal.NewFromInt(50)) &&
			txn.BalanceBefore.Equal(decimal.NewFromInt(100)) &&
			txn.BalanceAfter.Equal(decimal.NewFromInt(50))
	})).Return(nil)

	m.eventPublisher.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return()
	m.eventPublisher.On("Publish", mock.AnythingOfType("events.BetsPlacedEvent")).Return()

	result, err := svc.PlaceBets(ctx, interfaces.PlaceBetsInput{
		GameID:  1,
		UserID:  7,
		Numbers: []string{"12", "47", "xx", "55"},
		BetType: entities.BetTypeJodi,
		Palti:   true,
		Amount:  decimal.NewFromInt(10),
	})

	require.NoError(t, err)
	assert.Equal(t, 5, result.PlacedCount)
	assert.True(t, decimal.NewFromInt(50).Equal(result.TotalAmount))
	assert.True(t, decimal.NewFromInt(50).Equal(result.NewBalance))

	m.userRepo.AssertExpectations(t)
	m.betRepo.AssertExpectations(t)
	m.transactionRepo.AssertExpectations(t)
	m.eventPublisher.AssertExpectations(t)
}

func TestBettingService_PlaceBets_Crossing(t *testing.T) {
	ctx := context.Background()
	svc, m := newBettingService(t)

	m.expectOpenSession(ctx, 1, 10)

	// "123" expands to 9 jodi combinations at 5 each.
	m.userRepo.On("DebitBalanceChecked", ctx, int64(7), mock.MatchedBy(func(a decimal.Decimal) bool {
		return a.Equal(decimal.NewFromInt(45))
	})).Return(&entities.BalanceChange{
		Field:  entities.FieldBalance,
		Before: decimal.NewFromInt(50),
		After:  decimal.NewFromInt(5),
	}, nil)
	m.betRepo.On("CreateBatch", ctx, mock.MatchedBy(func(bets []*entities.Bet) bool {
		if len(bets) != 9 {
			return false
		}
		for _, b := range bets {
			if b.BetType != entities.BetTypeJodi || !b.PayoutMultiplier.Equal(entities.DefaultRateJodi) {
				return false
			}
		}
		return true
	})).Return(nil)
	m.transactionRepo.On("Record", ctx, mock.AnythingOfType("*entities.Transaction")).Return(nil)
	m.eventPublisher.On("Publish", mock.Anything).Return()

	result, err := svc.PlaceBets(ctx, interfaces.PlaceBetsInput{
		GameID:         1,
		UserID:         7,
		CrossingDigits: "123",
		Amount:         decimal.NewFromInt(5),
	})

	require.NoError(t, err)
	assert.Equal(t, 9, result.PlacedCount)
	m.betRepo.AssertExpectations(t)
}

func TestBettingService_PlaceBets_GridRejectsInvalidEntry(t *testing.T) {
	ctx := context.Background()
	svc, m := newBettingService(t)

	m.expectOpenSession(ctx, 1, 10)

	_, err := svc.PlaceBets(ctx, interfaces.PlaceBetsInput{
		GameID: 1,
		UserID: 7,
		Grid: []interfaces.GridEntry{
			{BetType: entities.BetTypeJodi, Number: "47", Amount: decimal.NewFromInt(10)},
			{BetType: entities.BetTypeJodi, Number: "4", Amount: decimal.NewFromInt(10)},
		},
	})

	// One bad cell rejects the whole batch before any money moves.
	assert.ErrorIs(t, err, entities.ErrInvalidBet)
	m.userRepo.AssertNotCalled(t, "DebitBalanceChecked", mock.Anything, mock.Anything, mock.Anything)
	m.betRepo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
}

func TestBettingService_PlaceBets_AllNumbersInvalid(t *testing.T) {
	ctx := context.Background()
	svc, m := newBettingService(t)

	m.expectOpenSession(ctx, 1, 10)

	_, err := svc.PlaceBets(ctx, interfaces.PlaceBetsInput{
		GameID:  1,
		UserID:  7,
		Numbers: []string{"abc", "123", ""},
		BetType: entities.BetTypeJodi,
		Amount:  decimal.NewFromInt(10),
	})

	assert.ErrorIs(t, err, entities.ErrNoValidBets)
	m.userRepo.AssertNotCalled(t, "DebitBalanceChecked", mock.Anything, mock.Anything, mock.Anything)
}

func TestBettingService_PlaceBets_GameClosed(t *testing.T) {
	ctx := context.Background()
	svc, m := newBettingService(t)

	// Zero-length window is never open.
	m.gameRepo.On("GetByID", ctx, int64(1)).Return(&entities.Game{
		ID:        1,
		OpenTime:  0,
		CloseTime: 0,
		IsActive:  true,
	}, nil)

	_, err := svc.PlaceBets(ctx, interfaces.PlaceBetsInput{
		GameID:  1,
		UserID:  7,
		Numbers: []string{"47"},
		Amount:  decimal.NewFromInt(10),
	})

	assert.ErrorIs(t, err, entities.ErrGameClosed)
	m.sessionRepo.AssertNotCalled(t, "GetOrCreate", mock.Anything, mock.Anything, mock.Anything)
}

func TestBettingService_PlaceBets_UnknownGame(t *testing.T) {
	ctx := context.Background()
	svc, m := newBettingService(t)

	m.gameRepo.On("GetByID", ctx, int64(99)).Return(nil, nil)

	_, err := svc.PlaceBets(ctx, interfaces.PlaceBetsInput{
		GameID:  99,
		UserID:  7,
		Numbers: []string{"47"},
		Amount:  decimal.NewFromInt(10),
	})

	assert.ErrorIs(t, err, entities.ErrGameNotFound)
}

func TestBettingService_PlaceBets_InsufficientBalance(t *testing.T) {
	ctx := context.Background()
	svc, m := newBettingService(t)

	m.expectOpenSession(ctx, 1, 10)

	m.userRepo.On("DebitBalanceChecked", ctx, int64(7), mock.Anything).
		Return(nil, entities.ErrInsufficientBalance)

	_, err := svc.PlaceBets(ctx, interfaces.PlaceBetsInput{
		GameID:  1,
		UserID:  7,
		Numbers: []string{"47"},
		BetType: entities.BetTypeJodi,
		Amount:  decimal.NewFromInt(10),
	})

	assert.ErrorIs(t, err, entities.ErrInsufficientBalance)
	m.betRepo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
}

func TestBettingService_PlaceBets_SessionDateIsUTC(t *testing.T) {
	ctx := context.Background()
	svc, m := newBettingService(t)

	m.gameRepo.On("GetByID", ctx, int64(1)).Return(alwaysOpenGame(1), nil)
	// The session date must come from the UTC clock, matching the scheduler's
	// due computation on hosts running in another timezone.
	m.sessionRepo.On("GetOrCreate", ctx, int64(1), mock.MatchedBy(func(ts time.Time) bool {
		return ts.Location() == time.UTC
	})).Return(&entities.GameSession{ID: 10, GameID: 1, Status: entities.SessionStatusPending}, nil)
	m.settingsRepo.On("GetAll", ctx).Return(map[string]string{}, nil)

	m.userRepo.On("DebitBalanceChecked", ctx, int64(7), mock.Anything).
		Return(&entities.BalanceChange{
			Field:  entities.FieldBalance,
			Before: decimal.NewFromInt(100),
			After:  decimal.NewFromInt(90),
		}, nil)
	m.betRepo.On("CreateBatch", ctx, mock.Anything).Return(nil)
	m.transactionRepo.On("Record", ctx, mock.AnythingOfType("*entities.Transaction")).Return(nil)
	m.eventPublisher.On("Publish", mock.Anything).Return()

	_, err := svc.PlaceBets(ctx, interfaces.PlaceBetsInput{
		GameID:  1,
		UserID:  7,
		Numbers: []string{"47"},
		BetType: entities.BetTypeJodi,
		Amount:  decimal.NewFromInt(10),
	})

	require.NoError(t, err)
	m.sessionRepo.AssertExpectations(t)
}

func TestBettingService_PlaceBets_HarufDefaultsToHarufRate(t *testing.T) {
	ctx := context.Background()
	svc, m := newBettingService(t)

	m.expectOpenSession(ctx, 1, 10)

	m.userRepo.On("DebitBalanceChecked", ctx, int64(7), mock.Anything).
		Return(&entities.BalanceChange{
			Field:  entities.FieldBalance,
			Before: decimal.NewFromInt(100),
			After:  decimal.NewFromInt(50),
		}, nil)
	m.betRepo.On("CreateBatch", ctx, mock.MatchedBy(func(bets []*entities.Bet) bool {
		return len(bets) == 1 &&
			bets[0].BetType == entities.BetTypeHarufAndar &&
			bets[0].BetNumber == "4" &&
			bets[0].PayoutMultiplier.Equal(entities.DefaultRateHaruf)
	})).Return(nil)
	m.transactionRepo.On("Record", ctx, mock.AnythingOfType("*entities.Transaction")).Return(nil)
	m.eventPublisher.On("Publish", mock.Anything).Return()

	result, err := svc.PlaceBets(ctx, interfaces.PlaceBetsInput{
		GameID:  1,
		UserID:  7,
		Numbers: []string{"4", "47"},
		BetType: entities.BetTypeHarufAndar,
		Amount:  decimal.NewFromInt(50),
	})

	require.NoError(t, err)
	// "47" is not a single digit, so only "4" survives.
	assert.Equal(t, 1, result.PlacedCount)
}
