package game

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aetherweave/aether-server-go/internal/game/rules"
)

// Replay is the action journal of a game. Since the engine is
// deterministic, the seed, the config and the accepted actions are enough to
// rebuild every intermediate state; the checksums let a re-run detect drift.
type Replay struct {
	GameID    string
	Seed      int64
	Config    AgentConfig
	Actions   []rules.Action
	Checksums []string // checksum of the state after each action
	mu        sync.RWMutex
}

// NewReplay creates an empty journal.
func NewReplay(gameID string, seed int64, cfg AgentConfig) *Replay {
	return &Replay{
		GameID:    gameID,
		Seed:      seed,
		Config:    cfg,
		Actions:   make([]rules.Action, 0),
		Checksums: make([]string, 0),
	}
}

// Record appends an accepted action and the checksum of its result.
func (r *Replay) Record(action rules.Action, checksum string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Actions = append(r.Actions, action)
	r.Checksums = append(r.Checksums, checksum)
}

// Size returns the number of recorded actions.
func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.Actions)
}

// Snapshot returns a copy of the journal that is safe to use while
// recording continues.
func (r *Replay) Snapshot() *Replay {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := NewReplay(r.GameID, r.Seed, r.Config)
	out.Actions = append(out.Actions, r.Actions...)
	out.Checksums = append(out.Checksums, r.Checksums...)
	return out
}

// Verify rebuilds the game from the seed and re-applies every action,
// comparing checksums step by step. It returns the final state.
func (r *Replay) Verify(engine *Engine) (*GameState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, err := Init(r.Seed, r.Config)
	if err != nil {
		return nil, fmt.Errorf("replay init: %w", err)
	}
	for i, action := range r.Actions {
		next, _, err := engine.Apply(state, action)
		if err != nil {
			return state, fmt.Errorf("replay step %d (%s): %w", i, action, err)
		}
		state = next
		if i < len(r.Checksums) && r.Checksums[i] != "" {
			if got := state.Checksum(); got != r.Checksums[i] {
				return state, rules.Broken("replay-checksum", "step %d: got %s, recorded %s", i, got, r.Checksums[i])
			}
		}
	}
	return state, nil
}

// SaveToFile saves the replay to a gzipped file named after the game. A
// replay that cannot be written completely is removed.
func (r *Replay) SaveToFile(directory string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := os.MkdirAll(directory, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", r.GameID))
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	err = r.encode(file)
	if cerr := file.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("failed to close file: %w", cerr)
	}
	if err != nil {
		os.Remove(filename)
		return err
	}
	return nil
}

// encode writes metadata then steps as a gzipped gob stream. The caller
// holds r.mu.
func (r *Replay) encode(w io.Writer) error {
	gzipWriter := gzip.NewWriter(w)
	encoder := gob.NewEncoder(gzipWriter)

	metadata := replayMetadata{
		GameID:      r.GameID,
		Seed:        r.Seed,
		Config:      r.Config,
		Timestamp:   time.Now(),
		Version:     1,
		ActionCount: len(r.Actions),
	}
	if err := encoder.Encode(&metadata); err != nil {
		gzipWriter.Close()
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	for i, action := range r.Actions {
		step := replayStep{Action: action}
		if i < len(r.Checksums) {
			step.Checksum = r.Checksums[i]
		}
		if err := encoder.Encode(&step); err != nil {
			gzipWriter.Close()
			return fmt.Errorf("failed to encode action %d: %w", i, err)
		}
	}

	if err := gzipWriter.Close(); err != nil {
		return fmt.Errorf("failed to flush replay: %w", err)
	}
	return nil
}

// LoadReplayFromFile loads a replay written by SaveToFile.
func LoadReplayFromFile(directory, gameID string) (*Replay, error) {
	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", gameID))

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	decoder := gob.NewDecoder(gzipReader)

	var metadata replayMetadata
	if err := decoder.Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if metadata.Version != 1 {
		return nil, fmt.Errorf("unsupported replay version: %d", metadata.Version)
	}

	replay := NewReplay(metadata.GameID, metadata.Seed, metadata.Config)
	for i := 0; i < metadata.ActionCount; i++ {
		var step replayStep
		if err := decoder.Decode(&step); err != nil {
			return nil, fmt.Errorf("failed to decode action %d: %w", i, err)
		}
		replay.Actions = append(replay.Actions, step.Action)
		replay.Checksums = append(replay.Checksums, step.Checksum)
	}

	return replay, nil
}

type replayMetadata struct {
	GameID      string
	Seed        int64
	Config      AgentConfig
	Timestamp   time.Time
	Version     int
	ActionCount int
}

type replayStep struct {
	Action   rules.Action
	Checksum string
}
