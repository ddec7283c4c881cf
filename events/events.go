package events

import (
	"context"
	"sync"

	"goatedbot/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeUserRegistered    EventType = "user_registered"
	EventTypeUserUnregistered  EventType = "user_unregistered"
	EventTypeMilestoneAchieved EventType = "milestone_achieved"
	EventTypeRequestCreated    EventType = "milestone_request_created"
	EventTypeRequestResolved   EventType = "milestone_request_resolved"
	EventTypeSnapshotCaptured  EventType = "leaderboard_snapshot_captured"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// UserRegisteredEvent is emitted after a new user links a Goated account
type UserRegisteredEvent struct {
	UserID         int64
	Platform       models.Platform
	PlatformID     int64
	GoatedUsername string
}

func (e UserRegisteredEvent) Type() EventType {
	return EventTypeUserRegistered
}

// UserUnregisteredEvent is emitted after a user and all their data are removed
type UserUnregisteredEvent struct {
	Platform       models.Platform
	PlatformID     int64
	GoatedUsername string
}

func (e UserUnregisteredEvent) Type() EventType {
	return EventTypeUserUnregistered
}

// MilestoneAchievedEvent carries the achievements newly credited by one
// evaluation pass. Notification handlers consume it best-effort.
type MilestoneAchievedEvent struct {
	Username     string
	MonthYear    string
	Achievements []*models.MilestoneAchievement
}

func (e MilestoneAchievedEvent) Type() EventType {
	return EventTypeMilestoneAchieved
}

// RequestCreatedEvent is emitted when a user claims a milestone reward
type RequestCreatedEvent struct {
	Username    string
	RequesterID int64
	Amount      int64
	BonusAmount float64
	MonthYear   string
}

func (e RequestCreatedEvent) Type() EventType {
	return EventTypeRequestCreated
}

// RequestResolvedEvent is emitted when an admin approves or denies a request
type RequestResolvedEvent struct {
	RequestID   int64
	Username    string
	RequesterID int64
	Amount      int64
	BonusAmount float64
	Status      models.RequestStatus
	AdminID     int64
}

func (e RequestResolvedEvent) Type() EventType {
	return EventTypeRequestResolved
}

// SnapshotCapturedEvent is emitted after a weekly leaderboard capture
type SnapshotCapturedEvent struct {
	SnapshotDate string
	EntryCount   int
}

func (e SnapshotCapturedEvent) Type() EventType {
	return EventTypeSnapshotCaptured
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

// Emit publishes an event to all registered handlers. Handlers run
// asynchronously so emitters never block on notification work.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

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

// TransactionalBus stashes events published during a unit of work and flushes
// them to the main bus only after the transaction commits.
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

// Flush emits all pending events. Called after a successful commit; uses a
// background context since the transaction context may already be done.
func (b *TransactionalBus) Flush(ctx context.Context) error {
	eventCtx := context.Background()
	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// Discard drops pending events. Called after rollback.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
