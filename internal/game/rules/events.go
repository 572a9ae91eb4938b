package rules

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType indicates the category of a rules event.
type EventType string

const (
	// Placement events
	EventFishPlaced    EventType = "FISH_PLACED"
	EventFishConsumed  EventType = "FISH_CONSUMED"
	EventCardDiscarded EventType = "CARD_DISCARDED"
	EventCardsDrawn    EventType = "CARDS_DRAWN"
	EventCardReturned  EventType = "CARD_RETURNED"

	// Resource events
	EventResourceGained EventType = "RESOURCE_GAINED"
	EventResourcePaid   EventType = "RESOURCE_PAID"
	EventEggsLaid       EventType = "EGGS_LAID"
	EventSchoolFormed   EventType = "SCHOOL_FORMED"
	EventBonusScored    EventType = "BONUS_SCORED"

	// Ability events
	EventAbilityResolved EventType = "ABILITY_RESOLVED"

	// Diver events
	EventDiverUsed   EventType = "DIVER_USED"
	EventDiversReset EventType = "DIVERS_RESET"

	// Turn events
	EventTurnSkipped    EventType = "TURN_SKIPPED"
	EventTurnAdvanced   EventType = "TURN_ADVANCED"
	EventPhaseChanged   EventType = "PHASE_CHANGED"
	EventWeekEnded      EventType = "WEEK_ENDED"
	EventHandRefilled   EventType = "HAND_REFILLED"
	EventGameEnded      EventType = "GAME_ENDED"
	EventActionRejected EventType = "ACTION_REJECTED"

	// Sync events
	EventStateReplaced EventType = "STATE_REPLACED"
)

// Event represents a state change that other subsystems may react to.
type Event struct {
	Type        EventType
	ID          string            // Unique event ID
	GameID      string            // Match the event belongs to
	TargetID    string            // ID of the target (card, fish, player)
	SourceID    string            // ID of the source fish or action
	PlayerID    string            // Player the event concerns
	Amount      int               // Numeric value (counters, cards, points)
	Data        string            // Additional string data
	Timestamp   time.Time         // When the event occurred
	Metadata    map[string]string // Additional metadata
	Description string            // Human-readable description
}

// Listener defines a callback that reacts to incoming events.
type Listener func(Event)

// TypedListener defines a callback that reacts to a specific event type.
type TypedListener struct {
	Handle    int
	EventType EventType
	Callback  func(Event)
}

// EventBus provides a synchronous publish/subscribe implementation with type filtering.
// Listeners run in subscription order. While held, published events are
// queued and delivered by Release or dropped by Discard.
type EventBus struct {
	mu             sync.Mutex
	listeners      map[int]Listener              // All listeners
	typedListeners map[EventType][]TypedListener // Listeners filtered by event type
	nextHandle     int
	held           bool
	pending        []Event
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{
		listeners:      make(map[int]Listener),
		typedListeners: make(map[EventType][]TypedListener),
	}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners[handle] = listener
	return handle
}

// SubscribeTyped registers a listener for a specific event type.
func (bus *EventBus) SubscribeTyped(eventType EventType, callback func(Event)) int {
	if callback == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.typedListeners[eventType] = append(bus.typedListeners[eventType], TypedListener{
		Handle:    handle,
		EventType: eventType,
		Callback:  callback,
	})
	return handle
}

// Unsubscribe removes the listener identified by the provided handle,
// whether it was registered with Subscribe or SubscribeTyped.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	delete(bus.listeners, handle)
	for eventType, listeners := range bus.typedListeners {
		for i := len(listeners) - 1; i >= 0; i-- {
			if listeners[i].Handle == handle {
				bus.typedListeners[eventType] = append(listeners[:i], listeners[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers the event to all registered listeners synchronously,
// or queues it while the bus is held.
func (bus *EventBus) Publish(event Event) {
	bus.mu.Lock()
	if bus.held {
		bus.pending = append(bus.pending, event)
		bus.mu.Unlock()
		return
	}
	handles := make([]int, 0, len(bus.listeners))
	for h := range bus.listeners {
		handles = append(handles, h)
	}
	sort.Ints(handles)
	all := make([]Listener, 0, len(handles))
	for _, h := range handles {
		all = append(all, bus.listeners[h])
	}
	typed := append([]TypedListener(nil), bus.typedListeners[event.Type]...)
	bus.mu.Unlock()

	// Callbacks run without the lock so they may subscribe or unsubscribe.
	for _, listener := range all {
		listener(event)
	}
	for _, listener := range typed {
		listener.Callback(event)
	}
}

// PublishBatch publishes multiple events in order.
func (bus *EventBus) PublishBatch(events []Event) {
	for _, event := range events {
		bus.Publish(event)
	}
}

// Hold queues every event published from now on until Release or Discard.
func (bus *EventBus) Hold() {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.held = true
}

// Release stops holding and delivers the queued events in publish order.
func (bus *EventBus) Release() {
	bus.mu.Lock()
	events := bus.pending
	bus.pending = nil
	bus.held = false
	bus.mu.Unlock()
	bus.PublishBatch(events)
}

// Discard stops holding and drops the queued events. It returns how many
// were dropped.
func (bus *EventBus) Discard() int {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	n := len(bus.pending)
	bus.pending = nil
	bus.held = false
	return n
}

// NewEvent creates a new event with common fields populated.
func NewEvent(eventType EventType, targetID, sourceID, playerID string) Event {
	return Event{
		Type:      eventType,
		ID:        uuid.NewString(),
		TargetID:  targetID,
		SourceID:  sourceID,
		PlayerID:  playerID,
		Timestamp: time.Now(),
		Metadata:  make(map[string]string),
	}
}

// NewEventWithAmount creates a new event with an amount value.
func NewEventWithAmount(eventType EventType, targetID, sourceID, playerID string, amount int) Event {
	evt := NewEvent(eventType, targetID, sourceID, playerID)
	evt.Amount = amount
	return evt
}
