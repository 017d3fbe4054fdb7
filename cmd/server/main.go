package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aetherweave/aether-server-go/internal/cache"
	"github.com/aetherweave/aether-server-go/internal/config"
	"github.com/aetherweave/aether-server-go/internal/game"
	"github.com/aetherweave/aether-server-go/internal/game/ai"
	"github.com/aetherweave/aether-server-go/internal/logging"
	"github.com/aetherweave/aether-server-go/internal/repository"
	"github.com/aetherweave/aether-server-go/internal/server"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	envPath    = flag.String("env", ".env", "optional dotenv file loaded before configuration")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	// A missing .env is fine; the real environment still applies.
	if err := godotenv.Load(*envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to load %s: %v\n", *envPath, err)
		os.Exit(1)
	}

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

	logger.Info("starting aether server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	agentCfg, err := server.AgentConfigFrom(cfg.Game)
	if err != nil {
		logger.Fatal("invalid game configuration", zap.Error(err))
	}

	engine := game.NewEngine(logger)
	opts := []game.ManagerOption{
		game.WithReplayDir(cfg.Replay.Directory),
		game.WithRetention(cfg.Game.FinishedRetention, cfg.Game.IdleTimeout),
	}
	var httpOpts []server.HTTPOption

	if cfg.Database.Enabled {
		db, err := repository.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		stats := db.Stat()
		logger.Info("database connection pool initialized",
			zap.Int32("total_conns", stats.TotalConns()),
			zap.Int32("idle_conns", stats.IdleConns()),
		)

		records := repository.NewGameRepository(db)
		if err := records.Migrate(ctx); err != nil {
			logger.Fatal("failed to migrate database", zap.Error(err))
		}
		opts = append(opts, game.WithRecordSink(records))
		httpOpts = append(httpOpts, server.WithRecordReader(records))
	}

	if cfg.Cache.Enabled {
		snapshots, rdb, err := cache.New(ctx, cfg.Cache, logger)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()
		opts = append(opts, game.WithSnapshotSink(snapshots))
		httpOpts = append(httpOpts, server.WithSnapshotReader(snapshots))
	}

	gameMgr := game.NewManager(engine, logger, opts...)
	logger.Info("game manager initialized",
		zap.Bool("records", cfg.Database.Enabled),
		zap.Bool("snapshot_cache", cfg.Cache.Enabled),
		zap.String("replay_dir", cfg.Replay.Directory),
		zap.Duration("finished_retention", cfg.Game.FinishedRetention),
		zap.Duration("idle_timeout", cfg.Game.IdleTimeout),
	)
	go gameMgr.RunSweeper(ctx, cfg.Game.SweepInterval)

	aiAgent := ai.NewAgent(engine, logger, cfg.Game.AIStepLimit)
	hub := server.NewHub(gameMgr, aiAgent, server.GameDefaults{
		Seed:   cfg.Game.DefaultSeed,
		Config: agentCfg,
	}, logger)
	go hub.Run(ctx)

	grpcServer, healthServer := server.NewGRPCServer(logger)
	lis, err := net.Listen("tcp", cfg.Server.GRPC.Address)
	if err != nil {
		logger.Fatal("failed to listen", zap.Error(err))
	}

	go func() {
		logger.Info("starting gRPC server", zap.String("address", cfg.Server.GRPC.Address))
		if serveErr := grpcServer.Serve(lis); serveErr != nil {
			logger.Error("gRPC server error", zap.Error(serveErr))
		}
	}()

	httpServer := server.NewHTTPServer(cfg.Server.WebSocket, hub, logger, httpOpts...)
	go func() {
		logger.Info("starting WebSocket server", zap.String("address", cfg.Server.WebSocket.Address))
		if wsErr := httpServer.ListenAndServe(); wsErr != nil && !errors.Is(wsErr, http.ErrServerClosed) {
			logger.Error("WebSocket server error", zap.Error(wsErr))
		}
	}()

	logger.Info("aether server initialized",
		zap.String("version", version),
		zap.String("grpc_address", cfg.Server.GRPC.Address),
		zap.String("websocket_address", cfg.Server.WebSocket.Address),
	)

	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	logger.Info("shutting down gracefully...")
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthServer.SetServingStatus(server.GameService, healthpb.HealthCheckResponse_NOT_SERVING)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	cancel()

	grpcServer.GracefulStop()

	logger.Info("aether server stopped", zap.Int("games", gameMgr.GameCount()))
}
