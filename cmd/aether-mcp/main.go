package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/aetherweave/aether-server-go/internal/config"
	"github.com/aetherweave/aether-server-go/internal/game"
	"github.com/aetherweave/aether-server-go/internal/game/ai"
	"github.com/aetherweave/aether-server-go/internal/logging"
	aethermcp "github.com/aetherweave/aether-server-go/internal/mcp"
	"github.com/aetherweave/aether-server-go/internal/server"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the MCP protocol; zap writes to stderr.
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

	engine := game.NewEngine(logger)
	manager := game.NewManager(engine, logger, game.WithReplayDir(cfg.Replay.Directory))
	tools := aethermcp.NewTools(manager, ai.NewAgent(engine, logger, cfg.Game.AIStepLimit), agentCfg, logger)

	s := mcpserver.NewMCPServer("aether", version)
	tools.Register(s)

	if err := mcpserver.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
