package game

import (
	"github.com/aetherweave/aether-server-go/internal/game/catalog"
	"github.com/aetherweave/aether-server-go/internal/game/market"
	"github.com/aetherweave/aether-server-go/internal/game/rules"
	"github.com/aetherweave/aether-server-go/internal/game/trance"
)

// PublicAgent is the part of an agent both players may see. Hand contents
// are only filled for the agent a view was built for.
type PublicAgent struct {
	ID              rules.AgentID                 `json:"id"`
	Weaver          trance.Weaver                 `json:"weaver"`
	Vitality        int                           `json:"vitality"`
	Aether          int                           `json:"aether"`
	ChanneledAether int                           `json:"channeledAether"`
	TranceTier      int                           `json:"tranceTier"`
	DeckCount       int                           `json:"deckCount"`
	HandCount       int                           `json:"handCount"`
	Hand            []*catalog.Card               `json:"hand,omitempty"`
	Discard         []*catalog.Card               `json:"discard"`
	SpellSlots      [SpellSlotCount]*catalog.Card `json:"spellSlots"`
	Glyph           *catalog.Card                 `json:"glyph"`
}

// PublicSnapshot is a read-only projection of a game for rendering. It
// never exposes deck order, and hands only to their owner.
type PublicSnapshot struct {
	Turn         int            `json:"turn"`
	Active       rules.AgentID  `json:"active"`
	Phase        rules.Phase    `json:"phase"`
	Winner       rules.AgentID  `json:"winner,omitempty"`
	Viewer       rules.AgentID  `json:"viewer,omitempty"`
	Agents       [2]PublicAgent `json:"agents"`
	Market       market.Row     `json:"market"`
	MarketPrices market.Prices  `json:"marketPrices"`
	SupplyCount  int            `json:"supplyCount"`
	LostCount    int            `json:"lostCount"`
}

// SerializePublic builds the snapshot both agents may see.
func SerializePublic(s *GameState) PublicSnapshot {
	snap := PublicSnapshot{
		Turn:         s.Turn,
		Active:       s.Active,
		Phase:        s.Phase,
		Winner:       s.Winner,
		Market:       s.Market.Copy(),
		MarketPrices: s.Rules.MarketPrices,
		SupplyCount:  len(s.Supply),
		LostCount:    len(s.Lost),
	}
	for i := range s.Agents {
		a := &s.Agents[i]
		pa := PublicAgent{
			ID:              a.ID,
			Weaver:          a.Weaver,
			Vitality:        a.Vitality,
			Aether:          a.Pool.Aether,
			ChanneledAether: a.Pool.Channeled,
			TranceTier:      a.TranceTier,
			DeckCount:       len(a.Deck),
			HandCount:       len(a.Hand),
			Discard:         copyCards(a.Discard),
			Glyph:           a.Glyph.Copy(),
		}
		if pa.Discard == nil {
			pa.Discard = []*catalog.Card{}
		}
		for j, c := range a.SpellSlots {
			pa.SpellSlots[j] = c.Copy()
		}
		snap.Agents[i] = pa
	}
	return snap
}

// SerializeFor builds the public snapshot plus the viewer's own hand. An
// unknown viewer gets the plain public snapshot.
func SerializeFor(s *GameState, viewer rules.AgentID) PublicSnapshot {
	snap := SerializePublic(s)
	seat := viewer.Seat()
	if seat < 0 {
		return snap
	}
	snap.Viewer = viewer
	snap.Agents[seat].Hand = copyCards(s.Agents[seat].Hand)
	return snap
}
