package server

import (
	"fmt"
	"strings"

	"github.com/aetherweave/aether-server-go/internal/config"
	"github.com/aetherweave/aether-server-go/internal/game"
	"github.com/aetherweave/aether-server-go/internal/game/catalog"
	"github.com/aetherweave/aether-server-go/internal/game/trance"
)

// AgentConfigFrom builds the per-game setup from configuration. When a deck
// name is set, both seats play that deck from the deck file.
func AgentConfigFrom(cfg config.GameConfig) (game.AgentConfig, error) {
	var out game.AgentConfig

	human, err := trance.ParseWeaver(strings.ToUpper(cfg.HumanWeaver))
	if err != nil {
		return out, fmt.Errorf("game.human_weaver: %w", err)
	}
	aiWeaver, err := trance.ParseWeaver(strings.ToUpper(cfg.AIWeaver))
	if err != nil {
		return out, fmt.Errorf("game.ai_weaver: %w", err)
	}
	out.HumanWeaver = human
	out.AIWeaver = aiWeaver

	if cfg.DeckName == "" {
		return out, nil
	}
	decks, err := catalog.ParseDeckFile(cfg.DeckFile)
	if err != nil {
		return out, fmt.Errorf("failed to load decks from %s: %w", cfg.DeckFile, err)
	}
	deck, ok := decks[cfg.DeckName]
	if !ok {
		return out, fmt.Errorf("deck %q not found in %s", cfg.DeckName, cfg.DeckFile)
	}
	out.HumanDeck = deck
	out.AIDeck = deck
	return out, nil
}
