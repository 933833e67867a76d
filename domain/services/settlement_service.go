package services

import (
	"context"
	"fmt"

	"matka/domain/entities"
	"matka/domain/events"
	"matka/domain/interfaces"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// settlementService implements the session result state machine against a
// single unit of work.
type settlementService struct {
	sessionRepo     interfaces.GameSessionRepository
	betRepo         interfaces.BetRepository
	userRepo        interfaces.UserRepository
	transactionRepo interfaces.TransactionRepository
	eventPublisher  interfaces.EventPublisher
}

// NewSettlementService creates a new settlement service.
func NewSettlementService(
	sessionRepo interfaces.GameSessionRepository,
	betRepo interfaces.BetRepository,
	userRepo interfaces.UserRepository,
	transactionRepo interfaces.TransactionRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.SettlementService {
	return &settlementService{
		sessionRepo:     sessionRepo,
		betRepo:         betRepo,
		userRepo:        userRepo,
		transactionRepo: transactionRepo,
		eventPublisher:  eventPublisher,
	}
}

// Declare transitions the session to completed and settles every pending bet
// against the winning number. The transition is a conditional update on the
// pending status, so a concurrent second declaration settles nothing.
func (s *settlementService) Declare(ctx context.Context, sessionID int64, winningNumber string) (*interfaces.SettlementResult, error) {
	if !entities.IsValidWinningNumber(winningNumber) {
		return nil, fmt.Errorf("%w: %q", entities.ErrInvalidWinningNumber, winningNumber)
	}

	session, err := s.sessionRepo.MarkCompleted(ctx, sessionID, winningNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to complete session: %w", err)
	}
	if session == nil {
		// The conditional update matched nothing. Look at the row to tell
		// the caller why.
		existing, err := s.sessionRepo.GetByID(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to get session: %w", err)
		}
		if existing == nil {
			return nil, entities.ErrSessionNotFound
		}
		if existing.IsCompleted() {
			return nil, entities.ErrAlreadyDeclared
		}
		return nil, entities.ErrSessionNotPending
	}

	result, err := s.settle(ctx, session, entities.ReferenceTypeGameSession)
	if err != nil {
		return nil, err
	}

	s.eventPublisher.Publish(events.ResultDeclaredEvent{
		GameSessionID: session.ID,
		WinningNumber: winningNumber,
		WinCount:      result.WinCount,
		LossCount:     result.LossCount,
		TotalPayout:   result.TotalPayout,
	})

	log.WithFields(log.Fields{
		"sessionID":     session.ID,
		"winningNumber": winningNumber,
		"totalBets":     result.TotalBets,
		"winCount":      result.WinCount,
		"totalPayout":   result.TotalPayout,
	}).Info("Result declared")

	return result, nil
}

// Schedule stores the winning number on a pending session without settling.
// The scheduler trigger declares it once the game's window closes.
func (s *settlementService) Schedule(ctx context.Context, sessionID int64, winningNumber string) (*entities.GameSession, error) {
	if !entities.IsValidWinningNumber(winningNumber) {
		return nil, fmt.Errorf("%w: %q", entities.ErrInvalidWinningNumber, winningNumber)
	}

	session, err := s.sessionRepo.SetScheduled(ctx, sessionID, winningNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule result: %w", err)
	}
	if session == nil {
		existing, err := s.sessionRepo.GetByID(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to get session: %w", err)
		}
		if existing == nil {
			return nil, entities.ErrSessionNotFound
		}
		if existing.IsCompleted() {
			return nil, entities.ErrAlreadyDeclared
		}
		return nil, entities.ErrSessionNotPending
	}

	log.WithFields(log.Fields{
		"sessionID":     session.ID,
		"winningNumber": winningNumber,
	}).Info("Result scheduled")

	return session, nil
}

// Correct reverses the financial effect of the prior declaration and
// re-settles the session with the new number. The session row is locked for
// the whole operation so a concurrent declaration or second correction
// serializes behind it.
func (s *settlementService) Correct(ctx context.Context, sessionID int64, newWinningNumber string) (*interfaces.CorrectionResult, error) {
	if !entities.IsValidWinningNumber(newWinningNumber) {
		return nil, fmt.Errorf("%w: %q", entities.ErrInvalidWinningNumber, newWinningNumber)
	}

	session, err := s.sessionRepo.GetByIDForUpdate(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, entities.ErrSessionNotFound
	}
	if !session.IsCompleted() || session.WinningNumber == nil {
		return nil, entities.ErrNotYetDeclared
	}

	oldNumber := *session.WinningNumber
	if oldNumber == newWinningNumber {
		return nil, entities.ErrNoChange
	}

	if err := s.revertPayouts(ctx, session, oldNumber, newWinningNumber); err != nil {
		return nil, err
	}

	if err := s.betRepo.ResetForSession(ctx, session.ID); err != nil {
		return nil, fmt.Errorf("failed to reset bets: %w", err)
	}
	if err := s.sessionRepo.UpdateResult(ctx, session.ID, newWinningNumber); err != nil {
		return nil, fmt.Errorf("failed to update result: %w", err)
	}
	session.WinningNumber = &newWinningNumber

	result, err := s.settle(ctx, session, entities.ReferenceTypeGameSessionCorrection)
	if err != nil {
		return nil, err
	}

	s.eventPublisher.Publish(events.ResultCorrectedEvent{
		GameSessionID:    session.ID,
		OldWinningNumber: oldNumber,
		NewWinningNumber: newWinningNumber,
	})

	log.WithFields(log.Fields{
		"sessionID": session.ID,
		"oldNumber": oldNumber,
		"newNumber": newWinningNumber,
	}).Info("Result corrected")

	return &interfaces.CorrectionResult{
		OldWinningNumber: oldNumber,
		NewWinningNumber: newWinningNumber,
		Settlement:       result,
	}, nil
}

// settle classifies every pending bet of the session against its winning
// number, records the outcomes, and credits winners with one aggregated
// payout per user.
func (s *settlementService) settle(ctx context.Context, session *entities.GameSession, refType entities.ReferenceType) (*interfaces.SettlementResult, error) {
	winningNumber := *session.WinningNumber

	bets, err := s.betRepo.GetPendingBySession(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending bets: %w", err)
	}

	var winners, losers []*entities.Bet
	for _, bet := range bets {
		if bet.WinsAgainst(winningNumber) {
			bet.Status = entities.BetStatusWin
			bet.PayoutAmount = bet.Payout()
			winners = append(winners, bet)
		} else {
			bet.Status = entities.BetStatusLoss
			losers = append(losers, bet)
		}
	}

	if len(losers) > 0 {
		ids := make([]int64, len(losers))
		for i, bet := range losers {
			ids[i] = bet.ID
		}
		if err := s.betRepo.UpdateStatuses(ctx, ids, entities.BetStatusLoss); err != nil {
			return nil, fmt.Errorf("failed to mark losses: %w", err)
		}
	}
	if len(winners) > 0 {
		if err := s.betRepo.MarkWins(ctx, winners); err != nil {
			return nil, fmt.Errorf("failed to mark wins: %w", err)
		}
	}

	totalPayout, err := s.creditWinners(ctx, session, winners, refType)
	if err != nil {
		return nil, err
	}

	return &interfaces.SettlementResult{
		Session:     session,
		TotalBets:   len(bets),
		WinCount:    len(winners),
		LossCount:   len(losers),
		TotalPayout: totalPayout,
	}, nil
}

// creditWinners groups winning bets by user and credits each user's winning
// balance once, with one matching ledger entry.
func (s *settlementService) creditWinners(ctx context.Context, session *entities.GameSession, winners []*entities.Bet, refType entities.ReferenceType) (decimal.Decimal, error) {
	type userPayout struct {
		total decimal.Decimal
		count int
	}

	payouts := make(map[int64]*userPayout)
	var order []int64
	for _, bet := range winners {
		p, ok := payouts[bet.UserID]
		if !ok {
			p = &userPayout{total: decimal.Zero}
			payouts[bet.UserID] = p
			order = append(order, bet.UserID)
		}
		p.total = p.total.Add(bet.PayoutAmount)
		p.count++
	}

	totalPayout := decimal.Zero
	for _, userID := range order {
		p := payouts[userID]

		change, err := s.userRepo.Credit(ctx, userID, entities.FieldWinningBalance, p.total)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to credit user %d: %w", userID, err)
		}

		refID := session.ID
		txn := &entities.Transaction{
			UserID:          userID,
			TransactionType: entities.TransactionTypeWin,
			Amount:          p.total,
			BalanceBefore:   change.Before,
			BalanceAfter:    change.After,
			Description:     fmt.Sprintf("Win payout for %d bet(s) in session %d (%s)", p.count, session.ID, *session.WinningNumber),
			ReferenceID:     &refID,
			ReferenceType:   &refType,
		}
		if err := s.transactionRepo.Record(ctx, txn); err != nil {
			return decimal.Zero, fmt.Errorf("failed to record win transaction: %w", err)
		}

		s.eventPublisher.Publish(events.BalanceChangeEvent{
			UserID:          userID,
			Field:           entities.FieldWinningBalance,
			BalanceBefore:   change.Before,
			BalanceAfter:    change.After,
			TransactionType: entities.TransactionTypeWin,
		})

		totalPayout = totalPayout.Add(p.total)
	}

	return totalPayout, nil
}

// revertPayouts debits back every winning payout from the old settlement,
// again aggregated per user, with one revert ledger entry each.
func (s *settlementService) revertPayouts(ctx context.Context, session *entities.GameSession, oldNumber, newNumber string) error {
	winners, err := s.betRepo.GetWinningBySession(ctx, session.ID)
	if err != nil {
		return fmt.Errorf("failed to get winning bets: %w", err)
	}

	payouts := make(map[int64]decimal.Decimal)
	var order []int64
	for _, bet := range winners {
		if _, ok := payouts[bet.UserID]; !ok {
			payouts[bet.UserID] = decimal.Zero
			order = append(order, bet.UserID)
		}
		payouts[bet.UserID] = payouts[bet.UserID].Add(bet.PayoutAmount)
	}

	refType := entities.ReferenceTypeGameSessionCorrection
	for _, userID := range order {
		amount := payouts[userID]
		if !amount.IsPositive() {
			continue
		}

		change, err := s.userRepo.Debit(ctx, userID, entities.FieldWinningBalance, amount)
		if err != nil {
			return fmt.Errorf("failed to revert payout for user %d: %w", userID, err)
		}

		refID := session.ID
		txn := &entities.Transaction{
			UserID:          userID,
			TransactionType: entities.TransactionTypeRevert,
			Amount:          amount,
			BalanceBefore:   change.Before,
			BalanceAfter:    change.After,
			Description:     fmt.Sprintf("Result correction for session %d (Was: %s, Now: %s)", session.ID, oldNumber, newNumber),
			ReferenceID:     &refID,
			ReferenceType:   &refType,
		}
		if err := s.transactionRepo.Record(ctx, txn); err != nil {
			return fmt.Errorf("failed to record revert transaction: %w", err)
		}

		s.eventPublisher.Publish(events.BalanceChangeEvent{
			UserID:          userID,
			Field:           entities.FieldWinningBalance,
			BalanceBefore:   change.Before,
			BalanceAfter:    change.After,
			TransactionType: entities.TransactionTypeRevert,
		})
	}

	return nil
}
