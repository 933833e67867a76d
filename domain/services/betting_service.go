package services

import (
	"context"
	"fmt"
	"time"

	"matka/domain/entities"
	"matka/domain/events"
	"matka/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// bettingService implements bet placement against a single unit of work.
type bettingService struct {
	gameRepo        interfaces.GameRepository
	sessionRepo     interfaces.GameSessionRepository
	userRepo        interfaces.UserRepository
	betRepo         interfaces.BetRepository
	transactionRepo interfaces.TransactionRepository
	settingsRepo    interfaces.SettingsRepository
	eventPublisher  interfaces.EventPublisher
}

// NewBettingService creates a new betting service.
func NewBettingService(
	gameRepo interfaces.GameRepository,
	sessionRepo interfaces.GameSessionRepository,
	userRepo interfaces.UserRepository,
	betRepo interfaces.BetRepository,
	transactionRepo interfaces.TransactionRepository,
	settingsRepo interfaces.SettingsRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.BettingService {
	return &bettingService{
		gameRepo:        gameRepo,
		sessionRepo:     sessionRepo,
		userRepo:        userRepo,
		betRepo:         betRepo,
		transactionRepo: transactionRepo,
		settingsRepo:    settingsRepo,
		eventPublisher:  eventPublisher,
	}
}

// PlaceBets validates the game window against the server clock, expands the
// input into elementary bets, and persists the batch with the wallet debit
// and ledger entry. The caller's unit of work makes the whole operation
// all-or-nothing.
func (s *bettingService) PlaceBets(ctx context.Context, input interfaces.PlaceBetsInput) (*interfaces.PlaceBetsResult, error) {
	game, err := s.gameRepo.GetByID(ctx, input.GameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	if game == nil || !game.IsActive {
		return nil, entities.ErrGameNotFound
	}

	// The server clock is authoritative; client-supplied time is never
	// consulted for the open/closed decision. UTC keeps the session date in
	// step with the scheduler's due computation.
	now := time.Now().UTC()
	if !game.IsOpenAt(now) {
		return nil, entities.ErrGameClosed
	}

	session, err := s.sessionRepo.GetOrCreate(ctx, game.ID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create session: %w", err)
	}
	if !session.IsPending() {
		return nil, entities.ErrSessionNotPending
	}

	rates, err := LoadPayoutRates(ctx, s.settingsRepo)
	if err != nil {
		return nil, fmt.Errorf("failed to load payout rates: %w", err)
	}

	bets, err := s.expand(input, session.ID, rates)
	if err != nil {
		return nil, err
	}
	if len(bets) == 0 {
		return nil, entities.ErrNoValidBets
	}

	totalAmount := TotalAmount(bets)

	// Conditional debit closes the race window between two concurrent
	// placements by the same user: the balance check and the decrement are
	// one statement.
	change, err := s.userRepo.DebitBalanceChecked(ctx, input.UserID, totalAmount)
	if err != nil {
		return nil, err
	}

	if err := s.betRepo.CreateBatch(ctx, bets); err != nil {
		return nil, fmt.Errorf("failed to create bets: %w", err)
	}

	txn := &entities.Transaction{
		UserID:          input.UserID,
		TransactionType: entities.TransactionTypeBet,
		Amount:          totalAmount,
		BalanceBefore:   change.Before,
		BalanceAfter:    change.After,
		Description:     fmt.Sprintf("Bet placed - %d bet(s)", len(bets)),
	}
	if err := s.transactionRepo.Record(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to record bet transaction: %w", err)
	}

	s.eventPublisher.Publish(events.BalanceChangeEvent{
		UserID:          input.UserID,
		Field:           entities.FieldBalance,
		BalanceBefore:   change.Before,
		BalanceAfter:    change.After,
		TransactionType: entities.TransactionTypeBet,
	})
	s.eventPublisher.Publish(events.BetsPlacedEvent{
		UserID:        input.UserID,
		GameSessionID: session.ID,
		BetCount:      len(bets),
		TotalAmount:   totalAmount,
	})

	log.WithFields(log.Fields{
		"userID":      input.UserID,
		"sessionID":   session.ID,
		"betCount":    len(bets),
		"totalAmount": totalAmount,
	}).Info("Bets placed")

	return &interfaces.PlaceBetsResult{
		PlacedCount: len(bets),
		TotalAmount: totalAmount,
		NewBalance:  change.After,
		Bets:        bets,
	}, nil
}

// expand converts the placement input into elementary pending bets. Grid
// entries are validated strictly; free-text numbers are skipped when
// malformed (paste input routinely carries garbage).
func (s *bettingService) expand(input interfaces.PlaceBetsInput, sessionID int64, rates entities.PayoutRates) ([]*entities.Bet, error) {
	switch {
	case len(input.Grid) > 0:
		return expandGrid(input, sessionID, rates)
	case input.CrossingDigits != "":
		return expandCrossing(input, sessionID, rates)
	case len(input.Numbers) > 0:
		return expandNumbers(input, sessionID, rates)
	}
	return nil, fmt.Errorf("%w: no bet input provided", entities.ErrInvalidBet)
}

func expandGrid(input interfaces.PlaceBetsInput, sessionID int64, rates entities.PayoutRates) ([]*entities.Bet, error) {
	bets := make([]*entities.Bet, 0, len(input.Grid))
	for i, entry := range input.Grid {
		if !entry.BetType.Valid() {
			return nil, fmt.Errorf("%w: grid entry %d has unknown type %q", entities.ErrInvalidBet, i, entry.BetType)
		}
		if !entities.IsValidBetNumber(entry.BetType, entry.Number) {
			return nil, fmt.Errorf("%w: grid entry %d has invalid number %q for type %s", entities.ErrInvalidBet, i, entry.Number, entry.BetType)
		}
		if !entry.Amount.IsPositive() {
			return nil, fmt.Errorf("%w: grid entry %d has non-positive amount", entities.ErrInvalidBet, i)
		}
		bets = append(bets, &entities.Bet{
			UserID:           input.UserID,
			GameSessionID:    sessionID,
			BetType:          entry.BetType,
			BetNumber:        entry.Number,
			BetAmount:        entry.Amount,
			PayoutMultiplier: rates.MultiplierFor(entry.BetType),
			Status:           entities.BetStatusPending,
		})
	}
	return bets, nil
}

func expandCrossing(input interfaces.PlaceBetsInput, sessionID int64, rates entities.PayoutRates) ([]*entities.Bet, error) {
	if !input.Amount.IsPositive() {
		return nil, entities.ErrInvalidAmount
	}
	lines := GenerateCrossingBets(input.CrossingDigits, input.Amount)
	bets := make([]*entities.Bet, 0, len(lines))
	for _, line := range lines {
		bets = append(bets, &entities.Bet{
			UserID:           input.UserID,
			GameSessionID:    sessionID,
			BetType:          entities.BetTypeJodi,
			BetNumber:        line.Number,
			BetAmount:        line.Amount,
			PayoutMultiplier: rates.MultiplierFor(entities.BetTypeJodi),
			Status:           entities.BetStatusPending,
		})
	}
	return bets, nil
}

func expandNumbers(input interfaces.PlaceBetsInput, sessionID int64, rates entities.PayoutRates) ([]*entities.Bet, error) {
	if !input.Amount.IsPositive() {
		return nil, entities.ErrInvalidAmount
	}
	betType := input.BetType
	if betType == "" {
		betType = entities.BetTypeJodi
	}
	if !betType.Valid() {
		return nil, fmt.Errorf("%w: unknown bet type %q", entities.ErrInvalidBet, input.BetType)
	}
	multiplier := rates.MultiplierFor(betType)

	var bets []*entities.Bet
	for _, num := range input.Numbers {
		if !entities.IsValidBetNumber(betType, num) {
			// Free-text input: malformed candidates are dropped, the rest of
			// the batch goes through.
			continue
		}
		lines := []BetLine{{Number: num, Amount: input.Amount}}
		if input.Palti && betType == entities.BetTypeJodi {
			lines = ApplyPalti(num, input.Amount)
		}
		for _, line := range lines {
			bets = append(bets, &entities.Bet{
				UserID:           input.UserID,
				GameSessionID:    sessionID,
				BetType:          betType,
				BetNumber:        line.Number,
				BetAmount:        line.Amount,
				PayoutMultiplier: multiplier,
				Status:           entities.BetStatusPending,
			})
		}
	}
	return bets, nil
}
