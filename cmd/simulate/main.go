// Command simulate plays AI-vs-AI games and reports the results.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aetherweave/aether-server-go/internal/config"
	"github.com/aetherweave/aether-server-go/internal/game"
	"github.com/aetherweave/aether-server-go/internal/game/ai"
	"github.com/aetherweave/aether-server-go/internal/game/rules"
	"github.com/aetherweave/aether-server-go/internal/game/watchers"
	"github.com/aetherweave/aether-server-go/internal/logging"
	"github.com/aetherweave/aether-server-go/internal/server"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	games := flag.Int("games", 100, "number of games to play")
	seed := flag.Int64("seed", 1, "seed of the first game; game i uses seed+i")
	maxTurns := flag.Int("max-turns", 200, "turn cap after which a game counts as unfinished")
	workers := flag.Int("workers", 4, "games played in parallel")
	replayDir := flag.String("replays", "", "directory to save finished replays in")
	verify := flag.Bool("verify", true, "re-run every replay and compare checksums")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	agentCfg, err := server.AgentConfigFrom(cfg.Game)
	if err != nil {
		logger.Fatal("invalid game configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := game.NewEngine(logger)
	manager := game.NewManager(engine, logger, game.WithReplayDir(*replayDir))
	agent := ai.NewAgent(engine, logger, cfg.Game.AIStepLimit)
	sim := &simulator{
		manager:  manager,
		agent:    agent,
		config:   agentCfg,
		maxTurns: *maxTurns,
		verify:   *verify,
	}

	results, err := sim.run(ctx, *seed, *games, *workers)
	if err != nil {
		logger.Fatal("simulation failed", zap.Error(err))
	}
	fmt.Print(summarize(results).String())
}

type result struct {
	seed   int64
	winner rules.AgentID
	turns  int
	lost   int
	stats  [2]watchers.AgentStats
}

type simulator struct {
	manager  *game.Manager
	agent    *ai.Agent
	config   game.AgentConfig
	maxTurns int
	verify   bool
}

func (s *simulator) run(ctx context.Context, firstSeed int64, games, workers int) ([]result, error) {
	if workers < 1 {
		workers = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var mu sync.Mutex
	results := make([]result, 0, games)
	for i := 0; i < games; i++ {
		seed := firstSeed + int64(i)
		g.Go(func() error {
			res, err := s.play(ctx, seed)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// play runs one game with the same agent on both seats.
func (s *simulator) play(ctx context.Context, seed int64) (result, error) {
	gameID, store, err := s.manager.CreateGame(seed, s.config)
	if err != nil {
		return result{}, err
	}
	defer s.manager.RemoveGame(gameID)

	stats := watchers.NewGameStats()
	handle := stats.Registry.Attach(store.Events())
	defer store.Events().Unsubscribe(handle)

	lost := 0
	lostHandle := store.Events().SubscribeTyped(rules.EventMarketCardLost, func(rules.Event) { lost++ })
	defer store.Events().Unsubscribe(lostHandle)

	for store.State().Phase != rules.PhaseFinished && store.State().Turn <= s.maxTurns {
		if _, err := s.agent.TakeTurn(ctx, store, store.State().Active); err != nil {
			return result{}, err
		}
	}

	if s.verify {
		if _, err := store.Replay().Verify(s.manager.Engine()); err != nil {
			return result{}, fmt.Errorf("replay of %s: %w", gameID, err)
		}
	}

	final := store.State()
	res := result{seed: seed, winner: final.Winner, turns: final.Turn, lost: lost}
	for i, id := range rules.Agents {
		res.stats[i] = stats.For(id)
	}
	return res, nil
}
