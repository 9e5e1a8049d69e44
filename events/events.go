package events

import (
	"context"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBetPlaced               EventType = "bet_placed"
	EventTypeBetUpdated              EventType = "bet_updated"
	EventTypeBetWithdrawn            EventType = "bet_withdrawn"
	EventTypeGameSettled             EventType = "game_settled"
	EventTypeGameSettlementRetracted EventType = "game_settlement_retracted"
	EventTypePointsChanged           EventType = "points_changed"
	EventTypeGroupMembershipChanged  EventType = "group_membership_changed"
)

// AllEventTypes lists every event type the services publish
func AllEventTypes() []EventType {
	return []EventType{
		EventTypeBetPlaced,
		EventTypeBetUpdated,
		EventTypeBetWithdrawn,
		EventTypeGameSettled,
		EventTypeGameSettlementRetracted,
		EventTypePointsChanged,
		EventTypeGroupMembershipChanged,
	}
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BetPlacedEvent represents a new prediction
type BetPlacedEvent struct {
	BetID               uuid.UUID `json:"bet_id"`
	UserID              uuid.UUID `json:"user_id"`
	GameID              uuid.UUID `json:"game_id"`
	HomeScorePrediction int       `json:"home_score_prediction"`
	AwayScorePrediction int       `json:"away_score_prediction"`
}

func (e BetPlacedEvent) Type() EventType {
	return EventTypeBetPlaced
}

// BetUpdatedEvent represents an edited prediction
type BetUpdatedEvent struct {
	BetID               uuid.UUID `json:"bet_id"`
	UserID              uuid.UUID `json:"user_id"`
	GameID              uuid.UUID `json:"game_id"`
	HomeScorePrediction int       `json:"home_score_prediction"`
	AwayScorePrediction int       `json:"away_score_prediction"`
}

func (e BetUpdatedEvent) Type() EventType {
	return EventTypeBetUpdated
}

// BetWithdrawnEvent represents a deleted prediction
type BetWithdrawnEvent struct {
	BetID  uuid.UUID `json:"bet_id"`
	UserID uuid.UUID `json:"user_id"`
	GameID uuid.UUID `json:"game_id"`
}

func (e BetWithdrawnEvent) Type() EventType {
	return EventTypeBetWithdrawn
}

// GameSettledEvent represents a completed settlement pass
type GameSettledEvent struct {
	GameID        uuid.UUID `json:"game_id"`
	HomeScore     int       `json:"home_score"`
	AwayScore     int       `json:"away_score"`
	BetsSettled   int       `json:"bets_settled"`
	UsersAffected int       `json:"users_affected"`
	Corrected     bool      `json:"corrected"`
}

func (e GameSettledEvent) Type() EventType {
	return EventTypeGameSettled
}

// GameSettlementRetractedEvent represents points removed ahead of a game deletion
type GameSettlementRetractedEvent struct {
	GameID        uuid.UUID `json:"game_id"`
	UsersAffected int       `json:"users_affected"`
}

func (e GameSettlementRetractedEvent) Type() EventType {
	return EventTypeGameSettlementRetracted
}

// PointsChangedEvent represents a change to one user's total points
type PointsChangedEvent struct {
	UserID uuid.UUID `json:"user_id"`
	GameID uuid.UUID `json:"game_id"`
	Delta  int64     `json:"delta"`
}

func (e PointsChangedEvent) Type() EventType {
	return EventTypePointsChanged
}

// GroupMembershipChangedEvent represents a join, leave or kick
type GroupMembershipChangedEvent struct {
	GroupID uuid.UUID `json:"group_id"`
	UserID  uuid.UUID `json:"user_id"`
	Change  string    `json:"change"`
}

func (e GroupMembershipChangedEvent) Type() EventType {
	return EventTypeGroupMembershipChanged
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

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	// Handlers run asynchronously so a slow consumer never blocks a commit
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

// TransactionalBus holds events published inside a unit of work until it commits
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Queued event until commit")
	b.pending = append(b.pending, e)
}

// Pending returns the number of queued events
func (b *TransactionalBus) Pending() int {
	return len(b.pending)
}

// Flush emits every queued event, called after a successful commit
func (b *TransactionalBus) Flush(ctx context.Context) error {
	log.WithField("pendingEventCount", len(b.pending)).Debug("Flushing committed events")

	// Handlers outlive the request, so they never see its context
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// Discard drops queued events, called after a rollback
func (b *TransactionalBus) Discard() {
	if len(b.pending) > 0 {
		log.WithField("discardedEventCount", len(b.pending)).Debug("Discarded events from rolled back transaction")
	}
	b.pending = nil
}
