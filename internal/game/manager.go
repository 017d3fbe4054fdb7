package game

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aetherweave/aether-server-go/internal/game/rules"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrGameNotFound is returned for unknown game ids.
var ErrGameNotFound = errors.New("game not found")

// GameRecord summarizes a finished game for persistence.
type GameRecord struct {
	GameID      string        `json:"gameId"`
	Seed        int64         `json:"seed"`
	Winner      rules.AgentID `json:"winner"`
	Turns       int           `json:"turns"`
	Actions     int           `json:"actions"`
	HumanWeaver string        `json:"humanWeaver"`
	AIWeaver    string        `json:"aiWeaver"`
	Checksum    string        `json:"checksum"`
	FinishedAt  time.Time     `json:"finishedAt"`
}

// RecordSink stores finished-game records.
type RecordSink interface {
	SaveGame(ctx context.Context, rec GameRecord) error
}

// SnapshotSink receives the public snapshot after every accepted dispatch
// and forgets it when a game is removed.
type SnapshotSink interface {
	PutSnapshot(ctx context.Context, gameID string, snap PublicSnapshot) error
	DeleteSnapshot(ctx context.Context, gameID string) error
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithRecordSink persists a record of every finished game.
func WithRecordSink(sink RecordSink) ManagerOption {
	return func(m *Manager) { m.records = sink }
}

// WithSnapshotSink publishes snapshots of every game.
func WithSnapshotSink(sink SnapshotSink) ManagerOption {
	return func(m *Manager) { m.snapshots = sink }
}

// WithReplayDir saves the replay of every finished game under dir.
func WithReplayDir(dir string) ManagerOption {
	return func(m *Manager) { m.replayDir = dir }
}

// WithSinkTimeout bounds each sink call.
func WithSinkTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) { m.sinkTimeout = d }
}

// WithRetention sets how long Sweep keeps finished games after they end
// and unfinished games after their last accepted dispatch. Zero keeps them.
func WithRetention(finished, idle time.Duration) ManagerOption {
	return func(m *Manager) {
		m.finishedRetention = finished
		m.idleTimeout = idle
	}
}

// Manager holds the running games of a host, keyed by uuid.
type Manager struct {
	engine *Engine
	logger *zap.Logger

	records           RecordSink
	snapshots         SnapshotSink
	replayDir         string
	sinkTimeout       time.Duration
	finishedRetention time.Duration
	idleTimeout       time.Duration
	now               func() time.Time

	mu      sync.RWMutex
	games   map[string]*managedGame
	onEvict []func(gameID string)
}

type managedGame struct {
	store      *Store
	touched    time.Time
	finishedAt time.Time
}

// NewManager creates a game manager.
func NewManager(engine *Engine, logger *zap.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		engine:      engine,
		logger:      logger,
		sinkTimeout: 5 * time.Second,
		now:         time.Now,
		games:       make(map[string]*managedGame),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Engine returns the shared rules engine.
func (m *Manager) Engine() *Engine {
	return m.engine
}

// CreateGame starts a new game and returns its id and store.
func (m *Manager) CreateGame(seed int64, cfg AgentConfig) (string, *Store, error) {
	gameID := uuid.New().String()
	store, err := NewStore(m.engine, gameID, seed, cfg, m.logger)
	if err != nil {
		return "", nil, fmt.Errorf("create game: %w", err)
	}
	store.Subscribe(func(res DispatchResult) {
		m.afterDispatch(gameID, store, res)
	})

	m.mu.Lock()
	m.games[gameID] = &managedGame{store: store, touched: m.now()}
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.Info("game created",
			zap.String("game_id", gameID),
			zap.Int64("seed", seed),
		)
	}
	m.publishSnapshot(gameID, store.State())
	return gameID, store, nil
}

// GetGame returns the store of a game.
func (m *Manager) GetGame(gameID string) (*Store, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.games[gameID]
	if !ok {
		return nil, fmt.Errorf("game %s: %w", gameID, ErrGameNotFound)
	}
	return g.store, nil
}

// Dispatch routes an action to a game.
func (m *Manager) Dispatch(gameID string, action rules.Action) (DispatchResult, error) {
	store, err := m.GetGame(gameID)
	if err != nil {
		return DispatchResult{}, err
	}
	return store.Dispatch(action)
}

// RemoveGame forgets a game and deletes its cached snapshot.
func (m *Manager) RemoveGame(gameID string) {
	if m.evict(gameID, "game removed") {
		m.deleteSnapshot(gameID)
	}
}

// OnEvict registers fn to run after a game leaves the manager, whether by
// RemoveGame or by Sweep.
func (m *Manager) OnEvict(fn func(gameID string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEvict = append(m.onEvict, fn)
}

// Sweep evicts games past their retention at now and returns their ids.
// Finished games keep their last snapshot in the sink, so their final state
// stays readable until the sink expires it; abandoned games lose theirs.
func (m *Manager) Sweep(now time.Time) []string {
	var finished, idle []string

	m.mu.RLock()
	for id, g := range m.games {
		switch {
		case !g.finishedAt.IsZero():
			if m.finishedRetention > 0 && now.Sub(g.finishedAt) >= m.finishedRetention {
				finished = append(finished, id)
			}
		case m.idleTimeout > 0 && now.Sub(g.touched) >= m.idleTimeout:
			idle = append(idle, id)
		}
	}
	m.mu.RUnlock()

	var evicted []string
	for _, id := range finished {
		if m.evict(id, "finished game evicted") {
			evicted = append(evicted, id)
		}
	}
	for _, id := range idle {
		if m.evict(id, "idle game evicted") {
			m.deleteSnapshot(id)
			evicted = append(evicted, id)
		}
	}
	sort.Strings(evicted)
	return evicted
}

// RunSweeper calls Sweep every interval until ctx is cancelled.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(m.now())
		}
	}
}

func (m *Manager) evict(gameID, msg string) bool {
	m.mu.Lock()
	if _, ok := m.games[gameID]; !ok {
		m.mu.Unlock()
		return false
	}
	delete(m.games, gameID)
	hooks := append([]func(string){}, m.onEvict...)
	m.mu.Unlock()

	for _, fn := range hooks {
		fn(gameID)
	}
	if m.logger != nil {
		m.logger.Info(msg, zap.String("game_id", gameID))
	}
	return true
}

// ListGames returns the ids of all games in sorted order.
func (m *Manager) ListGames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.games))
	for id := range m.games {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// GameCount returns the number of games held.
func (m *Manager) GameCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.games)
}

func (m *Manager) afterDispatch(gameID string, store *Store, res DispatchResult) {
	finished := res.State.Phase == rules.PhaseFinished
	m.mu.Lock()
	if g, ok := m.games[gameID]; ok {
		g.touched = m.now()
		if finished && g.finishedAt.IsZero() {
			g.finishedAt = g.touched
		}
	}
	m.mu.Unlock()

	m.publishSnapshot(gameID, res.State)
	if finished {
		m.finish(gameID, store, res.State)
	}
}

func (m *Manager) deleteSnapshot(gameID string) {
	if m.snapshots == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), m.sinkTimeout)
	defer cancel()

	if err := m.snapshots.DeleteSnapshot(ctx, gameID); err != nil && m.logger != nil {
		m.logger.Warn("failed to delete snapshot",
			zap.String("game_id", gameID),
			zap.Error(err),
		)
	}
}

func (m *Manager) publishSnapshot(gameID string, state *GameState) {
	if m.snapshots == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), m.sinkTimeout)
	defer cancel()

	if err := m.snapshots.PutSnapshot(ctx, gameID, SerializePublic(state)); err != nil && m.logger != nil {
		m.logger.Warn("failed to publish snapshot",
			zap.String("game_id", gameID),
			zap.Error(err),
		)
	}
}

func (m *Manager) finish(gameID string, store *Store, state *GameState) {
	replay := store.Replay()

	if m.replayDir != "" {
		if err := replay.SaveToFile(m.replayDir); err != nil && m.logger != nil {
			m.logger.Warn("failed to save replay",
				zap.String("game_id", gameID),
				zap.Error(err),
			)
		}
	}

	if m.records == nil {
		return
	}
	rec := GameRecord{
		GameID:      gameID,
		Seed:        replay.Seed,
		Winner:      state.Winner,
		Turns:       state.Turn,
		Actions:     replay.Size(),
		HumanWeaver: string(state.Agents[0].Weaver),
		AIWeaver:    string(state.Agents[1].Weaver),
		Checksum:    state.Checksum(),
		FinishedAt:  time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.sinkTimeout)
	defer cancel()
	if err := m.records.SaveGame(ctx, rec); err != nil {
		if m.logger != nil {
			m.logger.Error("failed to save game record",
				zap.String("game_id", gameID),
				zap.Error(err),
			)
		}
		return
	}
	if m.logger != nil {
		m.logger.Info("game record saved",
			zap.String("game_id", gameID),
			zap.String("winner", string(rec.Winner)),
		)
	}
}
