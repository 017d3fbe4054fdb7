package rules

import (
	"testing"
)

// countingWatcher counts events of one type.
type countingWatcher struct {
	*BaseWatcher
	on    EventType
	count int
}

func newCountingWatcher(key string, scope WatcherScope, on EventType) *countingWatcher {
	return &countingWatcher{BaseWatcher: NewBaseWatcher(scope, key), on: on}
}

func (w *countingWatcher) Watch(event Event) {
	if event.Type == w.on {
		w.count++
		w.SetCondition(true)
	}
}

func (w *countingWatcher) Reset() {
	w.BaseWatcher.Reset()
	w.count = 0
}

func TestWatcherRegistry(t *testing.T) {
	registry := NewWatcherRegistry()
	buys := newCountingWatcher("buys", WatcherScopeGame, EventCardBought)
	registry.AddWatcher(buys)

	if registry.GetWatcher("buys") == nil {
		t.Fatal("should retrieve buys watcher")
	}
	if got := len(registry.GetWatchersByScope(WatcherScopeGame)); got != 1 {
		t.Fatalf("expected 1 game watcher, got %d", got)
	}
	if got := len(registry.GetWatchersByScope(WatcherScopeTurn)); got != 0 {
		t.Fatalf("expected 0 turn watchers, got %d", got)
	}

	registry.NotifyWatchers(NewSlotEvent(EventCardBought, AgentHuman, "c1", 2))
	if !buys.ConditionMet() || buys.count != 1 {
		t.Fatalf("expected one buy, got %d", buys.count)
	}

	registry.ResetWatchersByScope(WatcherScopeGame)
	if buys.ConditionMet() || buys.count != 0 {
		t.Fatal("watcher should be cleared after reset")
	}
	if registry.GetWatcher("missing") != nil {
		t.Fatal("unknown key should return nil")
	}
}

func TestTurnScopedWatchersResetOnTurnEnd(t *testing.T) {
	registry := NewWatcherRegistry()
	game := newCountingWatcher("game", WatcherScopeGame, EventCardDrawn)
	turn := newCountingWatcher("turn", WatcherScopeTurn, EventCardDrawn)
	registry.AddWatcher(game)
	registry.AddWatcher(turn)

	registry.NotifyWatchers(NewEvent(EventCardDrawn, AgentAI, "c1"))
	registry.NotifyWatchers(NewEvent(EventCardDrawn, AgentAI, "c2"))
	if turn.count != 2 {
		t.Fatalf("expected 2 draws this turn, got %d", turn.count)
	}

	registry.NotifyWatchers(NewEventWithAmount(EventTurnEnded, AgentAI, "", 1))
	if turn.count != 0 {
		t.Fatalf("turn watcher should reset on TURN_ENDED, got %d", turn.count)
	}
	if game.count != 2 {
		t.Fatalf("game watcher should keep its count, got %d", game.count)
	}
}

func TestWatcherRegistryAttach(t *testing.T) {
	bus := NewEventBus()
	registry := NewWatcherRegistry()
	draws := newCountingWatcher("draws", WatcherScopeGame, EventCardDrawn)
	registry.AddWatcher(draws)

	handle := registry.Attach(bus)
	bus.PublishBatch([]Event{NewEvent(EventCardDrawn, AgentHuman, "c1"), NewEvent(EventCardDrawn, AgentHuman, "c2")})
	bus.Unsubscribe(handle)
	bus.Publish(NewEvent(EventCardDrawn, AgentHuman, "c3"))

	if draws.count != 2 {
		t.Fatalf("expected 2 draws while attached, got %d", draws.count)
	}
}

func TestWatcherScopeString(t *testing.T) {
	if WatcherScopeGame.String() != "GAME" || WatcherScopeTurn.String() != "TURN" {
		t.Error("unexpected scope names")
	}
	if WatcherScope(9).String() != "UNKNOWN" {
		t.Error("unknown scope should print UNKNOWN")
	}
}
