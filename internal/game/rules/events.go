package rules

import (
	"sort"
	"sync"
)

// EventType indicates the category of a rules event.
type EventType string

const (
	// Turn events
	EventTurnStarted EventType = "TURN_STARTED"
	EventTurnEnded   EventType = "TURN_ENDED"
	EventGameOver    EventType = "GAME_OVER"

	// Zone events
	EventCardDrawn     EventType = "CARD_DRAWN"
	EventDeckReshuffle EventType = "DECK_RESHUFFLED"
	EventSpellSlotted  EventType = "SPELL_SLOTTED"
	EventGlyphSet      EventType = "GLYPH_SET"
	EventCardDiscarded EventType = "CARD_DISCARDED"

	// Card events
	EventInstantCast   EventType = "INSTANT_CAST"
	EventSpellAdvanced EventType = "SPELL_ADVANCED"
	EventSpellResolved EventType = "SPELL_RESOLVED"
	EventGlyphTrigger  EventType = "GLYPH_TRIGGERED"

	// Resource events
	EventAetherGained    EventType = "AETHER_GAINED"
	EventAetherSpent     EventType = "AETHER_SPENT"
	EventAetherChanneled EventType = "AETHER_CHANNELED"
	EventAetherDrained   EventType = "AETHER_DRAINED"

	// Vitality events
	EventVitalityChanged EventType = "VITALITY_CHANGED"
	EventTranceChanged   EventType = "TRANCE_CHANGED"

	// Market events
	EventMarketRefilled EventType = "MARKET_REFILLED"
	EventCardBought     EventType = "CARD_BOUGHT"
	EventMarketShifted  EventType = "MARKET_SHIFTED"
	EventMarketCardLost EventType = "MARKET_CARD_LOST"
)

// Event describes one state change for the presentation layer to animate.
// Events carry no timestamps so that replays produce identical streams.
type Event struct {
	Seq    int       `json:"seq"`
	Type   EventType `json:"type"`
	Agent  AgentID   `json:"agent,omitempty"`
	CardID string    `json:"cardId,omitempty"`
	Slot   int       `json:"slot"`
	Amount int       `json:"amount"`
	Data   string    `json:"data,omitempty"`
}

// NewEvent creates a new event with common fields populated.
func NewEvent(eventType EventType, agent AgentID, cardID string) Event {
	return Event{
		Type:   eventType,
		Agent:  agent,
		CardID: cardID,
		Slot:   -1,
	}
}

// NewEventWithAmount creates a new event with an amount value.
func NewEventWithAmount(eventType EventType, agent AgentID, cardID string, amount int) Event {
	evt := NewEvent(eventType, agent, cardID)
	evt.Amount = amount
	return evt
}

// NewSlotEvent creates a new event tied to a slot or market position.
func NewSlotEvent(eventType EventType, agent AgentID, cardID string, slot int) Event {
	evt := NewEvent(eventType, agent, cardID)
	evt.Slot = slot
	return evt
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
type EventBus struct {
	mu             sync.RWMutex
	listeners      map[int]Listener
	typedListeners map[EventType][]TypedListener
	nextHandle     int
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
// whether it was registered for all events or for one type.
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

// Publish delivers the event to all registered listeners synchronously.
// Listeners are collected under the lock and called outside it, so a
// listener may subscribe or unsubscribe.
func (bus *EventBus) Publish(event Event) {
	bus.mu.RLock()
	handles := make([]int, 0, len(bus.listeners))
	for h := range bus.listeners {
		handles = append(handles, h)
	}
	sort.Ints(handles)
	callbacks := make([]func(Event), 0, len(handles)+len(bus.typedListeners[event.Type]))
	for _, h := range handles {
		callbacks = append(callbacks, bus.listeners[h])
	}
	for _, tl := range bus.typedListeners[event.Type] {
		callbacks = append(callbacks, tl.Callback)
	}
	bus.mu.RUnlock()

	for _, cb := range callbacks {
		cb(event)
	}
}

// PublishBatch publishes events in order.
func (bus *EventBus) PublishBatch(events []Event) {
	for _, event := range events {
		bus.Publish(event)
	}
}
