package game

import (
	"github.com/aetherweave/aether-server-go/internal/game/aether"
	"github.com/aetherweave/aether-server-go/internal/game/catalog"
	"github.com/aetherweave/aether-server-go/internal/game/market"
	"github.com/aetherweave/aether-server-go/internal/game/rng"
	"github.com/aetherweave/aether-server-go/internal/game/rules"
	"github.com/aetherweave/aether-server-go/internal/game/trance"
)

// SpellSlotCount is the number of spell slots per agent.
const SpellSlotCount = 3

// Ruleset holds the constants a game is created with.
type Ruleset struct {
	HandSize         int               `json:"handSize"`
	StartingVitality int               `json:"startingVitality"`
	Thresholds       trance.Thresholds `json:"thresholds"`
	MarketPrices     market.Prices     `json:"marketPrices"`
}

// DefaultRuleset returns the canonical rule constants.
func DefaultRuleset() Ruleset {
	return Ruleset{
		HandSize:         5,
		StartingVitality: 20,
		Thresholds:       trance.DefaultThresholds,
		MarketPrices:     market.DefaultPrices,
	}
}

// AgentState is one agent's resources and zones.
type AgentState struct {
	ID         rules.AgentID                 `json:"id"`
	Weaver     trance.Weaver                 `json:"weaver"`
	Vitality   int                           `json:"vitality"`
	Pool       aether.Pool                   `json:"pool"`
	TranceTier int                           `json:"tranceTier"`
	Deck       []*catalog.Card               `json:"deck"` // index 0 is the top
	Hand       []*catalog.Card               `json:"hand"`
	Discard    []*catalog.Card               `json:"discard"`
	SpellSlots [SpellSlotCount]*catalog.Card `json:"spellSlots"`
	Glyph      *catalog.Card                 `json:"glyph"`
}

// GameState is the complete state of one game. States are never modified
// once returned by Init or the engine; every transition builds a new one.
type GameState struct {
	Turn   int             `json:"turn"`
	Active rules.AgentID   `json:"active"`
	Phase  rules.Phase     `json:"phase"`
	Agents [2]AgentState   `json:"agents"`
	Market market.Row      `json:"market"`
	Supply []*catalog.Card `json:"supply"`
	Lost   []*catalog.Card `json:"lost"`
	RNG    rng.RNG         `json:"rng"`
	Rules  Ruleset         `json:"rules"`
	Winner rules.AgentID   `json:"winner,omitempty"`

	// Events is the buffer of the dispatch that produced this state.
	Events []rules.Event `json:"-"`
}

// Agent returns the state of an agent, or a ValidationError for an unknown id.
func (s *GameState) Agent(id rules.AgentID) (*AgentState, error) {
	seat := id.Seat()
	if seat < 0 {
		return nil, &rules.ValidationError{Reason: "unknown agent " + string(id)}
	}
	return &s.Agents[seat], nil
}

func (s *GameState) opponentOf(a *AgentState) *AgentState {
	return &s.Agents[a.ID.Opponent().Seat()]
}

func (s *GameState) emit(evt rules.Event) {
	s.Events = append(s.Events, evt)
}

// Clone returns a deep copy. Card instances are copied; their template
// effect lists are shared since they are never modified.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	out := *s
	for i := range s.Agents {
		out.Agents[i] = s.Agents[i].clone()
	}
	out.Market = s.Market.Copy()
	out.Supply = copyCards(s.Supply)
	out.Lost = copyCards(s.Lost)
	if s.Events != nil {
		out.Events = make([]rules.Event, len(s.Events))
		copy(out.Events, s.Events)
	}
	return &out
}

func (a AgentState) clone() AgentState {
	out := a
	out.Deck = copyCards(a.Deck)
	out.Hand = copyCards(a.Hand)
	out.Discard = copyCards(a.Discard)
	for i, c := range a.SpellSlots {
		out.SpellSlots[i] = c.Copy()
	}
	out.Glyph = a.Glyph.Copy()
	return out
}

func copyCards(in []*catalog.Card) []*catalog.Card {
	if in == nil {
		return nil
	}
	out := make([]*catalog.Card, len(in))
	for i, c := range in {
		out[i] = c.Copy()
	}
	return out
}

// findCard returns the index of a card id in a zone, or -1.
func findCard(zone []*catalog.Card, cardID string) int {
	for i, c := range zone {
		if c != nil && c.ID == cardID {
			return i
		}
	}
	return -1
}

// removeAt removes the card at i, preserving order.
func removeAt(zone []*catalog.Card, i int) ([]*catalog.Card, *catalog.Card) {
	card := zone[i]
	out := make([]*catalog.Card, 0, len(zone)-1)
	out = append(out, zone[:i]...)
	out = append(out, zone[i+1:]...)
	return out, card
}

// HandCard looks up a card in the agent's hand.
func (a *AgentState) HandCard(cardID string) (*catalog.Card, bool) {
	i := findCard(a.Hand, cardID)
	if i < 0 {
		return nil, false
	}
	return a.Hand[i], true
}

// OpenSpellSlot returns the first empty spell slot, or -1.
func (a *AgentState) OpenSpellSlot() int {
	for i, c := range a.SpellSlots {
		if c == nil {
			return i
		}
	}
	return -1
}
