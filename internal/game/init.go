package game

import (
	"fmt"

	"github.com/aetherweave/aether-server-go/internal/game/catalog"
	"github.com/aetherweave/aether-server-go/internal/game/rng"
	"github.com/aetherweave/aether-server-go/internal/game/rules"
	"github.com/aetherweave/aether-server-go/internal/game/trance"
)

// AgentConfig selects the per-agent setup of a new game. The zero value
// plays the starter decks with the default weavers and rules.
type AgentConfig struct {
	HumanWeaver trance.Weaver `json:"humanWeaver,omitempty"`
	AIWeaver    trance.Weaver `json:"aiWeaver,omitempty"`
	HumanDeck   []string      `json:"humanDeck,omitempty"`
	AIDeck      []string      `json:"aiDeck,omitempty"`
	Rules       Ruleset       `json:"rules"`
}

// Default weavers.
const (
	DefaultHumanWeaver = trance.WeaverEmber
	DefaultAIWeaver    = trance.WeaverTide
)

func (c AgentConfig) withDefaults() AgentConfig {
	if c.HumanWeaver == "" {
		c.HumanWeaver = DefaultHumanWeaver
	}
	if c.AIWeaver == "" {
		c.AIWeaver = DefaultAIWeaver
	}
	if len(c.HumanDeck) == 0 {
		c.HumanDeck = catalog.StarterDeck
	}
	if len(c.AIDeck) == 0 {
		c.AIDeck = catalog.StarterDeck
	}
	if c.Rules == (Ruleset{}) {
		c.Rules = DefaultRuleset()
	}
	return c
}

func (c AgentConfig) validate() error {
	if _, err := trance.ParseWeaver(string(c.HumanWeaver)); err != nil {
		return fmt.Errorf("human: %w", err)
	}
	if _, err := trance.ParseWeaver(string(c.AIWeaver)); err != nil {
		return fmt.Errorf("ai: %w", err)
	}
	if err := c.Rules.Thresholds.Validate(); err != nil {
		return err
	}
	if c.Rules.HandSize <= 0 {
		return fmt.Errorf("hand size must be positive, got %d", c.Rules.HandSize)
	}
	if c.Rules.StartingVitality <= c.Rules.Thresholds.Tier1 {
		return fmt.Errorf("starting vitality %d must be above the tier 1 threshold %d",
			c.Rules.StartingVitality, c.Rules.Thresholds.Tier1)
	}
	for i, p := range c.Rules.MarketPrices {
		if p < 0 {
			return fmt.Errorf("market price at position %d is negative", i)
		}
	}
	return nil
}

// Init creates a new game. The RNG is consumed in a fixed order (human deck,
// ai deck, market supply) so the same seed and config always yield the same
// state.
func Init(seed int64, cfg AgentConfig) (*GameState, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid agent config: %w", err)
	}

	r := rng.New(seed)
	state := &GameState{
		Turn:   1,
		Active: rules.AgentHuman,
		Phase:  rules.PhaseIdle,
		Rules:  cfg.Rules,
	}

	decks := [2][]string{cfg.HumanDeck, cfg.AIDeck}
	weavers := [2]trance.Weaver{cfg.HumanWeaver, cfg.AIWeaver}
	for seat, id := range rules.Agents {
		cards, err := catalog.BuildDeck(decks[seat], &r)
		if err != nil {
			return nil, fmt.Errorf("build %s deck: %w", id, err)
		}
		state.Agents[seat] = AgentState{
			ID:       id,
			Weaver:   weavers[seat],
			Vitality: cfg.Rules.StartingVitality,
			Deck:     rng.Shuffle(&r, cards),
			Hand:     []*catalog.Card{},
			Discard:  []*catalog.Card{},
		}
	}

	human := &state.Agents[rules.AgentHuman.Seat()]
	n := cfg.Rules.HandSize
	if n > len(human.Deck) {
		n = len(human.Deck)
	}
	human.Hand = append(human.Hand, human.Deck[:n]...)
	human.Deck = human.Deck[n:]

	supply, err := catalog.BuildDeck(catalog.MarketSupply, &r)
	if err != nil {
		return nil, fmt.Errorf("build market supply: %w", err)
	}
	state.Supply = rng.Shuffle(&r, supply)
	state.Market, state.Supply, _ = state.Market.Refill(state.Supply)
	state.Lost = []*catalog.Card{}
	state.RNG = r

	if err := CheckInvariants(state); err != nil {
		return nil, err
	}
	return state, nil
}
