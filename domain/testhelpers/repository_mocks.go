package testhelpers

import (
	"context"
	"time"

	"matka/domain/entities"
	"matka/domain/events"
	"matka/domain/interfaces"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*entities.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, phone, name string) (*entities.User, error) {
	args := m.Called(ctx, phone, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) DebitBalanceChecked(ctx context.Context, userID int64, amount decimal.Decimal) (*entities.BalanceChange, error) {
	args := m.Called(ctx, userID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BalanceChange), args.Error(1)
}

func (m *MockUserRepository) Credit(ctx context.Context, userID int64, field entities.BalanceField, amount decimal.Decimal) (*entities.BalanceChange, error) {
	args := m.Called(ctx, userID, field, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BalanceChange), args.Error(1)
}

func (m *MockUserRepository) Debit(ctx context.Context, userID int64, field entities.BalanceField, amount decimal.Decimal) (*entities.BalanceChange, error) {
	args := m.Called(ctx, userID, field, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BalanceChange), args.Error(1)
}

func (m *MockUserRepository) GetAll(ctx context.Context, limit, offset int) ([]*entities.User, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.User), args.Error(1)
}

// MockTransactionRepository is a mock implementation of TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Record(ctx context.Context, txn *entities.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetByUser(ctx context.Context, userID int64, limit, offset int) ([]*entities.Transaction, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetByType(ctx context.Context, userID int64, tt entities.TransactionType, limit int) ([]*entities.Transaction, error) {
	args := m.Called(ctx, userID, tt, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetSummary(ctx context.Context, userID int64) (*entities.TransactionSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.TransactionSummary), args.Error(1)
}

// MockBetRepository is a mock implementation of BetRepository
type MockBetRepository struct {
	mock.Mock
}

func (m *MockBetRepository) CreateBatch(ctx context.Context, bets []*entities.Bet) error {
	args := m.Called(ctx, bets)
	return args.Error(0)
}

func (m *MockBetRepository) GetByID(ctx context.Context, id int64) (*entities.Bet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Bet), args.Error(1)
}

func (m *MockBetRepository) GetPendingBySession(ctx context.Context, sessionID int64) ([]*entities.Bet, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Bet), args.Error(1)
}

func (m *MockBetRepository) GetWinningBySession(ctx context.Context, sessionID int64) ([]*entities.Bet, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Bet), args.Error(1)
}

func (m *MockBetRepository) UpdateStatuses(ctx context.Context, betIDs []int64, status entities.BetStatus) error {
	args := m.Called(ctx, betIDs, status)
	return args.Error(0)
}

func (m *MockBetRepository) MarkWins(ctx context.Context, bets []*entities.Bet) error {
	args := m.Called(ctx, bets)
	return args.Error(0)
}

func (m *MockBetRepository) ResetForSession(ctx context.Context, sessionID int64) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockBetRepository) GetByUser(ctx context.Context, userID int64, limit, offset int) ([]*entities.Bet, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Bet), args.Error(1)
}

func (m *MockBetRepository) GetBySession(ctx context.Context, sessionID int64, status *entities.BetStatus) ([]*entities.Bet, error) {
	args := m.Called(ctx, sessionID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Bet), args.Error(1)
}

func (m *MockBetRepository) GetStats(ctx context.Context, userID int64) (*entities.BetStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BetStats), args.Error(1)
}

// MockGameRepository is a mock implementation of GameRepository
type MockGameRepository struct {
	mock.Mock
}

func (m *MockGameRepository) GetByID(ctx context.Context, id int64) (*entities.Game, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Game), args.Error(1)
}

func (m *MockGameRepository) GetActive(ctx context.Context) ([]*entities.Game, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Game), args.Error(1)
}

func (m *MockGameRepository) Create(ctx context.Context, game *entities.Game) error {
	args := m.Called(ctx, game)
	return args.Error(0)
}

func (m *MockGameRepository) Update(ctx context.Context, game *entities.Game) error {
	args := m.Called(ctx, game)
	return args.Error(0)
}

func (m *MockGameRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockGameSessionRepository is a mock implementation of GameSessionRepository
type MockGameSessionRepository struct {
	mock.Mock
}

func (m *MockGameSessionRepository) GetOrCreate(ctx context.Context, gameID int64, date time.Time) (*entities.GameSession, error) {
	args := m.Called(ctx, gameID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GameSession), args.Error(1)
}

func (m *MockGameSessionRepository) GetByID(ctx context.Context, id int64) (*entities.GameSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GameSession), args.Error(1)
}

func (m *MockGameSessionRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.GameSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GameSession), args.Error(1)
}

func (m *MockGameSessionRepository) MarkCompleted(ctx context.Context, sessionID int64, winningNumber string) (*entities.GameSession, error) {
	args := m.Called(ctx, sessionID, winningNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GameSession), args.Error(1)
}

func (m *MockGameSessionRepository) SetScheduled(ctx context.Context, sessionID int64, winningNumber string) (*entities.GameSession, error) {
	args := m.Called(ctx, sessionID, winningNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GameSession), args.Error(1)
}

func (m *MockGameSessionRepository) UpdateResult(ctx context.Context, sessionID int64, winningNumber string) error {
	args := m.Called(ctx, sessionID, winningNumber)
	return args.Error(0)
}

func (m *MockGameSessionRepository) GetScheduledPending(ctx context.Context, onOrBefore time.Time) ([]*interfaces.SessionWithGame, error) {
	args := m.Called(ctx, onOrBefore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*interfaces.SessionWithGame), args.Error(1)
}

func (m *MockGameSessionRepository) GetCompletedResults(ctx context.Context, gameID *int64, limit int) ([]*entities.GameSession, error) {
	args := m.Called(ctx, gameID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.GameSession), args.Error(1)
}

// MockSettingsRepository is a mock implementation of SettingsRepository
type MockSettingsRepository struct {
	mock.Mock
}

func (m *MockSettingsRepository) Get(ctx context.Context, key string) (*string, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*string), args.Error(1)
}

func (m *MockSettingsRepository) GetAll(ctx context.Context) (map[string]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *MockSettingsRepository) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

// MockWithdrawalRepository is a mock implementation of WithdrawalRepository
type MockWithdrawalRepository struct {
	mock.Mock
}

func (m *MockWithdrawalRepository) Create(ctx context.Context, req *entities.WithdrawalRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockWithdrawalRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.WithdrawalRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.WithdrawalRequest), args.Error(1)
}

func (m *MockWithdrawalRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*entities.WithdrawalRequest, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.WithdrawalRequest), args.Error(1)
}

func (m *MockWithdrawalRepository) GetPending(ctx context.Context) ([]*entities.WithdrawalRequest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.WithdrawalRequest), args.Error(1)
}

func (m *MockWithdrawalRepository) Update(ctx context.Context, req *entities.WithdrawalRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}
