package events

import (
	"context"
	"sync"

	"matka/domain/entities"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange   EventType = "balance_change"
	EventTypeBetsPlaced      EventType = "bets_placed"
	EventTypeResultDeclared  EventType = "result_declared"
	EventTypeResultCorrected EventType = "result_corrected"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a wallet balance change that occurred
type BalanceChangeEvent struct {
	UserID          int64
	Field           entities.BalanceField
	BalanceBefore   decimal.Decimal
	BalanceAfter    decimal.Decimal
	TransactionType entities.TransactionType
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// BetsPlacedEvent represents a batch of bets accepted for a session
type BetsPlacedEvent struct {
	UserID        int64
	GameSessionID int64
	BetCount      int
	TotalAmount   decimal.Decimal
}

func (e BetsPlacedEvent) Type() EventType {
	return EventTypeBetsPlaced
}

// ResultDeclaredEvent represents a session result declaration
type ResultDeclaredEvent struct {
	GameSessionID int64
	WinningNumber string
	WinCount      int
	LossCount     int
	TotalPayout   decimal.Decimal
}

func (e ResultDeclaredEvent) Type() EventType {
	return EventTypeResultDeclared
}

// ResultCorrectedEvent represents a result correction (reverse + re-settle)
type ResultCorrectedEvent struct {
	GameSessionID    int64
	OldWinningNumber string
	NewWinningNumber string
}

func (e ResultCorrectedEvent) Type() EventType {
	return EventTypeResultCorrected
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Call handlers asynchronously to avoid blocking
	for _, handler := range handlers {
		go func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType": event.Type(),
						"panic":     r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler)
	}
}

// TransactionalBus holds pending events coupled to a unit of work and
// flushes them to the underlying bus only after the commit succeeds.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

// NewTransactionalBus creates a transactional buffer over the real bus.
func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

// Publish stashes an event until Flush.
func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush emits all pending events. Called after a successful commit.
func (b *TransactionalBus) Flush(ctx context.Context) {
	// Events outlive the transaction, so emit on a background context.
	eventCtx := context.Background()
	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
}

// Discard drops pending events. Called after rollback.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
