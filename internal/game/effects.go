package game

import (
	"github.com/aetherweave/aether-server-go/internal/game/catalog"
	"github.com/aetherweave/aether-server-go/internal/game/rules"
)

// effectFunc applies one tagged effect of magnitude n on behalf of owner.
type effectFunc func(s *GameState, owner *AgentState, n int)

// effectTable maps every effect tag to its state change. Cards never get
// special handling: a new card is a new combination of these entries.
var effectTable = map[catalog.EffectTag]effectFunc{
	catalog.EffectDamage:     damage,
	catalog.EffectHeal:       heal,
	catalog.EffectGainAether: gainAether,
	catalog.EffectChannel:    channel,
	catalog.EffectDraw:       drawCards,
	catalog.EffectDrain:      drain,
}

func damage(s *GameState, owner *AgentState, n int) {
	target := s.opponentOf(owner)
	if n > target.Vitality {
		n = target.Vitality
	}
	if n <= 0 {
		return
	}
	target.Vitality -= n
	s.emit(rules.NewEventWithAmount(rules.EventVitalityChanged, target.ID, "", -n))
	s.updateTrance(target)
}

func heal(s *GameState, owner *AgentState, n int) {
	if room := s.Rules.StartingVitality - owner.Vitality; n > room {
		n = room
	}
	if n <= 0 {
		return
	}
	owner.Vitality += n
	s.emit(rules.NewEventWithAmount(rules.EventVitalityChanged, owner.ID, "", n))
	s.updateTrance(owner)
}

func gainAether(s *GameState, owner *AgentState, n int) {
	if n <= 0 {
		return
	}
	owner.Pool.Add(n)
	s.emit(rules.NewEventWithAmount(rules.EventAetherGained, owner.ID, "", n))
}

func channel(s *GameState, owner *AgentState, n int) {
	if n <= 0 {
		return
	}
	owner.Pool.AddChanneled(n)
	s.emit(rules.NewEventWithAmount(rules.EventAetherChanneled, owner.ID, "", n))
}

func drawCards(s *GameState, owner *AgentState, n int) {
	for i := 0; i < n; i++ {
		if !s.draw(owner) {
			return
		}
	}
}

func drain(s *GameState, owner *AgentState, n int) {
	target := s.opponentOf(owner)
	lost := target.Pool.Drain(n)
	if lost == 0 {
		return
	}
	s.emit(rules.NewEventWithAmount(rules.EventAetherDrained, target.ID, "", lost))
}

// applyEffects resolves a card's effect list in order.
func (e *Engine) applyEffects(s *GameState, owner *AgentState, effects []catalog.Effect) error {
	for _, eff := range effects {
		fn, ok := e.effects[eff.Tag]
		if !ok {
			return rules.Broken("effect-table", "no handler for effect %s", eff.Tag)
		}
		fn(s, owner, eff.Amount)
	}
	return nil
}

// fireTriggers resolves the owner's glyph passives listening for event.
func (e *Engine) fireTriggers(s *GameState, owner *AgentState, event catalog.TriggerEvent) error {
	glyph := owner.Glyph
	if glyph == nil {
		return nil
	}
	for _, trig := range glyph.Triggers {
		if trig.On != event {
			continue
		}
		evt := rules.NewEvent(rules.EventGlyphTrigger, owner.ID, glyph.ID)
		evt.Data = string(event)
		s.emit(evt)
		if err := e.applyEffects(s, owner, trig.Effects); err != nil {
			return err
		}
	}
	return nil
}
