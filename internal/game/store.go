package game

import (
	"sort"
	"sync"

	"github.com/aetherweave/aether-server-go/internal/game/rules"
	"go.uber.org/zap"
)

// DispatchResult is what a successful dispatch produced.
type DispatchResult struct {
	State  *GameState    `json:"-"`
	Events []rules.Event `json:"events"`
}

// Listener is called with the result of every accepted dispatch, in commit
// order. A listener must not dispatch to the store that calls it.
type Listener func(DispatchResult)

// Store owns the current state of one game and serializes every dispatch
// against it, so transitions form a strict total order.
type Store struct {
	engine *Engine
	logger *zap.Logger
	bus    *rules.EventBus
	replay *Replay

	// notifyMu is held from commit until listeners and the bus have seen
	// the result, so notifications follow the order of transitions.
	notifyMu sync.Mutex

	mu        sync.Mutex
	state     *GameState
	listeners map[int]Listener
	nextID    int
}

// NewStore initializes a game and wraps it in a store.
func NewStore(engine *Engine, gameID string, seed int64, cfg AgentConfig, logger *zap.Logger) (*Store, error) {
	state, err := Init(seed, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{
		engine:    engine,
		logger:    logger,
		bus:       rules.NewEventBus(),
		replay:    NewReplay(gameID, seed, cfg),
		state:     state,
		listeners: make(map[int]Listener),
	}, nil
}

// State returns the current state. States are immutable once published;
// callers must not modify the returned value.
func (st *Store) State() *GameState {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.state
}

// Dispatch applies action to the current state. A rejected action leaves the
// store unchanged and returns the current state with the error.
func (st *Store) Dispatch(action rules.Action) (DispatchResult, error) {
	st.notifyMu.Lock()
	defer st.notifyMu.Unlock()

	st.mu.Lock()
	next, events, err := st.engine.Apply(st.state, action)
	if err != nil {
		current := st.state
		st.mu.Unlock()
		return DispatchResult{State: current}, err
	}
	st.state = next
	st.replay.Record(action, next.Checksum())
	listeners := st.snapshotListeners()
	st.mu.Unlock()

	result := DispatchResult{State: next, Events: events}
	for _, l := range listeners {
		l(result)
	}
	st.bus.PublishBatch(events)

	if st.logger != nil && next.Phase == rules.PhaseFinished {
		st.logger.Info("game finished",
			zap.String("game_id", st.replay.GameID),
			zap.String("winner", string(next.Winner)),
			zap.Int("turn", next.Turn),
		)
	}
	return result, nil
}

// Subscribe registers a listener and returns a function that removes it.
func (st *Store) Subscribe(l Listener) func() {
	if l == nil {
		return func() {}
	}
	st.mu.Lock()
	id := st.nextID
	st.nextID++
	st.listeners[id] = l
	st.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			st.mu.Lock()
			delete(st.listeners, id)
			st.mu.Unlock()
		})
	}
}

// Events exposes the per-event bus for consumers that animate single events.
func (st *Store) Events() *rules.EventBus {
	return st.bus
}

// Replay returns a copy of the action journal.
func (st *Store) Replay() *Replay {
	return st.replay.Snapshot()
}

// GameID returns the id the store was created with.
func (st *Store) GameID() string {
	return st.replay.GameID
}

func (st *Store) snapshotListeners() []Listener {
	ids := make([]int, 0, len(st.listeners))
	for id := range st.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]Listener, 0, len(ids))
	for _, id := range ids {
		out = append(out, st.listeners[id])
	}
	return out
}
