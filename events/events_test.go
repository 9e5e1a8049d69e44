package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEventDelivery tests the flow from TransactionalBus to the main Bus
func TestEventDelivery(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventReceived := make(chan PointsChangedEvent, 1)

	mainBus.Subscribe(EventTypePointsChanged, func(ctx context.Context, event Event) {
		if pointsEvent, ok := event.(PointsChangedEvent); ok {
			eventReceived <- pointsEvent
		} else {
			t.Errorf("Expected PointsChangedEvent, got %T", event)
		}
	})

	testEvent := PointsChangedEvent{
		UserID: uuid.New(),
		GameID: uuid.New(),
		Delta:  -6,
	}

	transactionalBus.Publish(testEvent)
	assert.Equal(t, 1, transactionalBus.Pending())

	err := transactionalBus.Flush(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0, transactionalBus.Pending())

	select {
	case received := <-eventReceived:
		assert.Equal(t, testEvent, received)
	case <-time.After(2 * time.Second):
		t.Fatal("Event was not received within timeout")
	}
}

// TestMultipleEventsDelivery tests delivering several events in one flush
func TestMultipleEventsDelivery(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventsReceived := make(chan PointsChangedEvent, 3)
	var wg sync.WaitGroup
	wg.Add(3)

	mainBus.Subscribe(EventTypePointsChanged, func(ctx context.Context, event Event) {
		defer wg.Done()
		if pointsEvent, ok := event.(PointsChangedEvent); ok {
			eventsReceived <- pointsEvent
		}
	})

	gameID := uuid.New()
	users := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for i, userID := range users {
		transactionalBus.Publish(PointsChangedEvent{UserID: userID, GameID: gameID, Delta: int64(i + 1)})
	}

	require.NoError(t, transactionalBus.Flush(context.Background()))
	wg.Wait()
	close(eventsReceived)

	seen := make(map[uuid.UUID]bool)
	for received := range eventsReceived {
		seen[received.UserID] = true
	}
	for _, userID := range users {
		assert.True(t, seen[userID])
	}
}

// TestTransactionalBusDiscard tests that discarded events are not delivered
func TestTransactionalBusDiscard(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventReceived := make(chan bool, 1)
	mainBus.Subscribe(EventTypeBetPlaced, func(ctx context.Context, event Event) {
		eventReceived <- true
	})

	transactionalBus.Publish(BetPlacedEvent{BetID: uuid.New(), UserID: uuid.New(), GameID: uuid.New()})
	transactionalBus.Discard()

	select {
	case <-eventReceived:
		t.Fatal("Event was received despite being discarded")
	case <-time.After(100 * time.Millisecond):
	}

	// Flushing after a discard delivers nothing
	require.NoError(t, transactionalBus.Flush(context.Background()))
	select {
	case <-eventReceived:
		t.Fatal("Event was received after discard and flush")
	case <-time.After(100 * time.Millisecond):
	}
}

// TestBusHandlerPanicRecovery tests that one panicking handler does not stop others
func TestBusHandlerPanicRecovery(t *testing.T) {
	bus := NewBus()
	delivered := make(chan struct{}, 1)

	bus.Subscribe(EventTypeGameSettled, func(ctx context.Context, event Event) {
		panic("boom")
	})
	bus.Subscribe(EventTypeGameSettled, func(ctx context.Context, event Event) {
		delivered <- struct{}{}
	})

	bus.Emit(context.Background(), GameSettledEvent{GameID: uuid.New()})

	select {
	case <-delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("Healthy handler was not called")
	}
}
