package events

import (
	"context"
	"sync"

	"stakeledger/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypePlanCreated       EventType = "plan_created"
	EventTypeInterestRefueled  EventType = "interest_refueled"
	EventTypePositionOpened    EventType = "position_opened"
	EventTypeInterestCollected EventType = "interest_collected"
	EventTypePositionRedeemed  EventType = "position_redeemed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// PlanCreatedEvent is emitted when the registry creates a staking plan.
type PlanCreatedEvent struct {
	PlanID       int64
	AccrualModel models.AccrualModel
	TotalQuota   int64
}

func (e PlanCreatedEvent) Type() EventType {
	return EventTypePlanCreated
}

// InterestRefueledEvent records an interest-pool top-up.
type InterestRefueledEvent struct {
	PlanID        int64
	Funder        string
	Amount        int64
	RewardPerUnit int64 // accumulator value after the refuel; 0 for LinearTerm plans
}

func (e InterestRefueledEvent) Type() EventType {
	return EventTypeInterestRefueled
}

// PositionOpenedEvent records a new staking position and its quota draw.
type PositionOpenedEvent struct {
	PositionID int64
	PlanID     int64
	Owner      string
	Principal  int64
	Quotas     int64
}

func (e PositionOpenedEvent) Type() EventType {
	return EventTypePositionOpened
}

// InterestCollectedEvent records an interest payout.
type InterestCollectedEvent struct {
	PositionID int64
	PlanID     int64
	Owner      string
	Amount     int64
}

func (e InterestCollectedEvent) Type() EventType {
	return EventTypeInterestCollected
}

// PositionRedeemedEvent records a principal release, with any early-exit
// penalty withheld.
type PositionRedeemedEvent struct {
	PositionID int64
	PlanID     int64
	Owner      string
	Redeemed   int64
	Penalty    int64
}

func (e PositionRedeemedEvent) Type() EventType {
	return EventTypePositionRedeemed
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

	// Call handlers asynchronously to avoid blocking settlement
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus holds pending events coupled to a unit of work and flushes
// them to the underlying bus only after the transaction commits.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush is called after a successful DB commit. Events are emitted on a
// background context so handler lifetimes are independent of the transaction.
func (b *TransactionalBus) Flush(ctx context.Context) error {
	eventCtx := context.Background()
	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// Discard drops pending events after a rollback.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
