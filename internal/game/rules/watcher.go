package rules

import (
	"sort"
	"sync"
)

// WatcherScope defines how long a watcher's tracking lasts.
type WatcherScope int

const (
	// WatcherScopeGame tracks events for the entire game.
	WatcherScopeGame WatcherScope = iota
	// WatcherScopeTurn is reset when a turn ends.
	WatcherScopeTurn
)

// String returns the string representation of the watcher scope.
func (ws WatcherScope) String() string {
	switch ws {
	case WatcherScopeGame:
		return "GAME"
	case WatcherScopeTurn:
		return "TURN"
	default:
		return "UNKNOWN"
	}
}

// Watcher observes events and keeps derived counts.
type Watcher interface {
	// Watch is called for every event of the game.
	Watch(event Event)

	// Reset clears everything the watcher has tracked.
	Reset()

	// ConditionMet reports whether the watched condition has occurred.
	ConditionMet() bool

	GetScope() WatcherScope

	// GetKey returns a key unique within a registry.
	GetKey() string
}

// BaseWatcher carries the scope, key and condition flag shared by watchers.
type BaseWatcher struct {
	scope     WatcherScope
	condition bool
	key       string
}

// NewBaseWatcher creates a new base watcher with the specified scope.
func NewBaseWatcher(scope WatcherScope, key string) *BaseWatcher {
	return &BaseWatcher{scope: scope, key: key}
}

// GetScope returns the watcher's scope.
func (bw *BaseWatcher) GetScope() WatcherScope {
	return bw.scope
}

// ConditionMet returns whether the condition has been met.
func (bw *BaseWatcher) ConditionMet() bool {
	return bw.condition
}

// SetCondition sets the condition flag.
func (bw *BaseWatcher) SetCondition(condition bool) {
	bw.condition = condition
}

// Reset clears the condition.
func (bw *BaseWatcher) Reset() {
	bw.condition = false
}

// GetKey returns the unique key for this watcher.
func (bw *BaseWatcher) GetKey() string {
	return bw.key
}

// WatcherRegistry fans events out to its watchers and resets turn-scoped
// watchers after TURN_ENDED has been delivered.
type WatcherRegistry struct {
	mu       sync.RWMutex
	watchers map[string]Watcher
}

// NewWatcherRegistry creates an empty registry.
func NewWatcherRegistry() *WatcherRegistry {
	return &WatcherRegistry{watchers: make(map[string]Watcher)}
}

// AddWatcher registers a watcher, replacing one with the same key.
func (wr *WatcherRegistry) AddWatcher(watcher Watcher) {
	wr.mu.Lock()
	defer wr.mu.Unlock()
	wr.watchers[watcher.GetKey()] = watcher
}

// GetWatcher retrieves a watcher by key.
func (wr *WatcherRegistry) GetWatcher(key string) Watcher {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	return wr.watchers[key]
}

// GetWatchersByScope returns the watchers of one scope, ordered by key.
func (wr *WatcherRegistry) GetWatchersByScope(scope WatcherScope) []Watcher {
	var out []Watcher
	for _, w := range wr.GetAllWatchers() {
		if w.GetScope() == scope {
			out = append(out, w)
		}
	}
	return out
}

// GetAllWatchers returns every watcher, ordered by key.
func (wr *WatcherRegistry) GetAllWatchers() []Watcher {
	wr.mu.RLock()
	defer wr.mu.RUnlock()

	keys := make([]string, 0, len(wr.watchers))
	for k := range wr.watchers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Watcher, len(keys))
	for i, k := range keys {
		out[i] = wr.watchers[k]
	}
	return out
}

// ResetWatchersByScope resets the watchers of one scope.
func (wr *WatcherRegistry) ResetWatchersByScope(scope WatcherScope) {
	for _, w := range wr.GetWatchersByScope(scope) {
		w.Reset()
	}
}

// NotifyWatchers delivers an event to every watcher.
func (wr *WatcherRegistry) NotifyWatchers(event Event) {
	for _, w := range wr.GetAllWatchers() {
		w.Watch(event)
	}
	if event.Type == EventTurnEnded {
		wr.ResetWatchersByScope(WatcherScopeTurn)
	}
}

// Attach subscribes the registry to bus and returns the subscription handle.
func (wr *WatcherRegistry) Attach(bus *EventBus) int {
	return bus.Subscribe(wr.NotifyWatchers)
}
