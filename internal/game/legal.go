package game

import (
	"github.com/aetherweave/aether-server-go/internal/game/market"
	"github.com/aetherweave/aether-server-go/internal/game/rules"
)

// LegalActions lists the actions the active agent may dispatch now, in a
// stable order. Advances are listed with amount 1 only.
func (e *Engine) LegalActions(s *GameState) []rules.Action {
	var legal []rules.Action
	for _, a := range actionShapes(s) {
		if e.CanApply(s, a) == nil {
			legal = append(legal, a)
		}
	}
	return legal
}

func actionShapes(s *GameState) []rules.Action {
	id := s.Active
	agent, err := s.Agent(id)
	if err != nil {
		return nil
	}
	actions := []rules.Action{rules.StartTurn(id)}
	for _, c := range agent.Hand {
		actions = append(actions,
			rules.CastInstant(id, c.ID),
			rules.SetGlyph(id, c.ID),
		)
		for slot := 0; slot < SpellSlotCount; slot++ {
			actions = append(actions, rules.PlayToSpellSlot(id, c.ID, slot))
		}
	}
	for slot := 0; slot < SpellSlotCount; slot++ {
		actions = append(actions, rules.AdvanceSpell(id, slot, 1))
	}
	for _, c := range agent.Hand {
		actions = append(actions, rules.DiscardForAether(id, c.ID))
	}
	for slot := 0; slot < market.Size; slot++ {
		actions = append(actions, rules.BuyFromMarket(id, slot))
	}
	return append(actions, rules.EndTurn(id))
}
