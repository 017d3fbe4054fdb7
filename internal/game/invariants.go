package game

import (
	"sort"

	"github.com/aetherweave/aether-server-go/internal/game/catalog"
	"github.com/aetherweave/aether-server-go/internal/game/rules"
	"github.com/aetherweave/aether-server-go/internal/game/trance"
)

// CardIDs returns the sorted ids of every card in every zone of the game:
// both agents' zones, the market row, the supply and the lost pile.
func CardIDs(s *GameState) []string {
	var ids []string
	add := func(cards ...*catalog.Card) {
		for _, c := range cards {
			if c != nil {
				ids = append(ids, c.ID)
			}
		}
	}
	for i := range s.Agents {
		a := &s.Agents[i]
		add(a.Deck...)
		add(a.Hand...)
		add(a.Discard...)
		add(a.SpellSlots[:]...)
		add(a.Glyph)
	}
	add(s.Market[:]...)
	add(s.Supply...)
	add(s.Lost...)
	sort.Strings(ids)
	return ids
}

// CheckInvariants verifies the structural invariants of a single state.
func CheckInvariants(s *GameState) error {
	if s.Active.Seat() < 0 {
		return rules.Broken("active-agent", "unknown active agent %q", s.Active)
	}

	ids := CardIDs(s)
	for i := 1; i < len(ids); i++ {
		if ids[i] == ids[i-1] {
			return rules.Broken("unique-card", "card %s is in more than one zone", ids[i])
		}
	}

	for i := range s.Agents {
		a := &s.Agents[i]
		if a.ID != rules.Agents[i] {
			return rules.Broken("seat", "seat %d holds %q", i, a.ID)
		}
		if a.Pool.Aether < 0 || a.Pool.Channeled < 0 {
			return rules.Broken("non-negative-aether", "%s pool %+v", a.ID, a.Pool)
		}
		if a.Vitality < 0 {
			return rules.Broken("non-negative-vitality", "%s vitality %d", a.ID, a.Vitality)
		}
		if a.TranceTier < 0 || a.TranceTier > trance.MaxTier {
			return rules.Broken("trance-tier", "%s tier %d", a.ID, a.TranceTier)
		}
		for slot, c := range a.SpellSlots {
			if c == nil {
				continue
			}
			if c.Type != catalog.CardTypeSpell {
				return rules.Broken("spell-slot", "%s slot %d holds %s card %s", a.ID, slot, c.Type, c.ID)
			}
			if c.CurrentPips < 0 || c.CurrentPips >= c.AdvanceRequirement {
				return rules.Broken("pips", "%s has %d/%d pips", c.ID, c.CurrentPips, c.AdvanceRequirement)
			}
		}
		if a.Glyph != nil && a.Glyph.Type != catalog.CardTypeGlyph {
			return rules.Broken("glyph-slot", "%s glyph slot holds %s card %s", a.ID, a.Glyph.Type, a.Glyph.ID)
		}
	}

	if s.Phase == rules.PhaseFinished && s.Winner.Seat() < 0 {
		return rules.Broken("winner", "finished game without a winner")
	}
	return nil
}

// CheckConservation verifies that after holds exactly the cards of before.
func CheckConservation(before, after *GameState) error {
	want := CardIDs(before)
	got := CardIDs(after)
	if len(want) != len(got) {
		return rules.Broken("conservation", "card count changed from %d to %d", len(want), len(got))
	}
	for i := range want {
		if want[i] != got[i] {
			return rules.Broken("conservation", "card set changed at %s/%s", want[i], got[i])
		}
	}
	return nil
}
