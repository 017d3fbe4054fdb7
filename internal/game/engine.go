package game

import (
	"github.com/aetherweave/aether-server-go/internal/game/catalog"
	"github.com/aetherweave/aether-server-go/internal/game/market"
	"github.com/aetherweave/aether-server-go/internal/game/rng"
	"github.com/aetherweave/aether-server-go/internal/game/rules"
	"github.com/aetherweave/aether-server-go/internal/game/trance"
	"go.uber.org/zap"
)

// Engine is the rules reducer. It holds no game state, so one engine can
// serve any number of games concurrently.
type Engine struct {
	logger  *zap.Logger
	effects map[catalog.EffectTag]effectFunc
}

// NewEngine creates a rules engine.
func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{
		logger:  logger,
		effects: effectTable,
	}
}

// Apply validates action against state and returns the successor state with
// the events it produced. On error the returned state is nil and the input
// state is untouched.
func (e *Engine) Apply(state *GameState, action rules.Action) (*GameState, []rules.Event, error) {
	if state == nil {
		return nil, nil, rules.Broken("state", "nil game state")
	}
	if err := e.CanApply(state, action); err != nil {
		if e.logger != nil {
			e.logger.Debug("action rejected",
				zap.String("action", action.String()),
				zap.Int("turn", state.Turn),
				zap.Error(err),
			)
		}
		return nil, nil, err
	}

	next := state.Clone()
	next.Events = nil
	if err := e.mutate(next, action); err != nil {
		if e.logger != nil {
			e.logger.Error("action failed after validation",
				zap.String("action", action.String()),
				zap.Error(err),
			)
		}
		return nil, nil, err
	}
	e.checkGameOver(next)

	for i := range next.Events {
		next.Events[i].Seq = i + 1
	}

	if e.logger != nil {
		e.logger.Debug("action applied",
			zap.String("action", action.String()),
			zap.Int("turn", next.Turn),
			zap.String("active", string(next.Active)),
			zap.Int("events", len(next.Events)),
		)
	}
	return next, next.Events, nil
}

// CanApply reports whether action would be accepted, without building a
// successor state. It returns the error Apply would return, or nil.
func (e *Engine) CanApply(state *GameState, action rules.Action) error {
	if state.Phase == rules.PhaseFinished {
		return rules.Invalid(action.Type, "game is over")
	}
	agent, err := state.Agent(action.Agent)
	if err != nil {
		return rules.Invalid(action.Type, "unknown agent %q", action.Agent)
	}
	if action.Agent != state.Active {
		return rules.Invalid(action.Type, "not %s's turn", action.Agent)
	}

	switch action.Type {
	case rules.ActionStartTurn:
		if state.Phase != rules.PhaseIdle {
			return rules.Invalid(action.Type, "turn already started")
		}
		return nil
	case rules.ActionPlayToSpellSlot, rules.ActionSetGlyph, rules.ActionCastInstant,
		rules.ActionAdvanceSpell, rules.ActionDiscardForAether, rules.ActionBuyFromMarket,
		rules.ActionEndTurn:
		if state.Phase != rules.PhaseActive {
			return rules.Invalid(action.Type, "turn not started")
		}
	default:
		return rules.Invalid(action.Type, "unknown action type")
	}

	switch action.Type {
	case rules.ActionPlayToSpellSlot:
		if action.Slot < 0 || action.Slot >= SpellSlotCount {
			return rules.Invalid(action.Type, "spell slot %d out of range", action.Slot)
		}
		if agent.SpellSlots[action.Slot] != nil {
			return rules.Invalid(action.Type, "spell slot %d occupied", action.Slot)
		}
		return requireInHand(agent, action, catalog.CardTypeSpell)

	case rules.ActionSetGlyph:
		if agent.Glyph != nil {
			return rules.Invalid(action.Type, "glyph slot occupied")
		}
		return requireInHand(agent, action, catalog.CardTypeGlyph)

	case rules.ActionCastInstant:
		if err := requireInHand(agent, action, catalog.CardTypeInstant); err != nil {
			return err
		}
		card, _ := agent.HandCard(action.CardID)
		if !agent.Pool.CanAfford(card.PlayCost) {
			return rules.Insufficient(action.Type, "aether", card.PlayCost, agent.Pool.Total())
		}
		return nil

	case rules.ActionAdvanceSpell:
		if action.Slot < 0 || action.Slot >= SpellSlotCount {
			return rules.Invalid(action.Type, "spell slot %d out of range", action.Slot)
		}
		card := agent.SpellSlots[action.Slot]
		if card == nil {
			return rules.Invalid(action.Type, "spell slot %d empty", action.Slot)
		}
		if card.Type != catalog.CardTypeSpell || card.AdvanceRequirement == 0 {
			return rules.Invalid(action.Type, "card %s does not advance", card.ID)
		}
		amount := advanceAmount(action)
		if amount < 1 || amount > card.RemainingPips() {
			return rules.Invalid(action.Type, "amount %d outside 1..%d", amount, card.RemainingPips())
		}
		cost := AdvanceCost(agent, card) * amount
		if cost > agent.Pool.Aether {
			return rules.Insufficient(action.Type, "aether", cost, agent.Pool.Aether)
		}
		return nil

	case rules.ActionDiscardForAether:
		if _, ok := agent.HandCard(action.CardID); !ok {
			return rules.Invalid(action.Type, "card %s not in hand", action.CardID)
		}
		return nil

	case rules.ActionBuyFromMarket:
		price, err := state.Rules.MarketPrices.Price(action.Slot)
		if err != nil {
			return rules.Invalid(action.Type, "%v", err)
		}
		if state.Market[action.Slot] == nil {
			return rules.Invalid(action.Type, "market slot %d empty", action.Slot)
		}
		if price > agent.Pool.Aether {
			return rules.Insufficient(action.Type, "aether", price, agent.Pool.Aether)
		}
		return nil
	}
	return nil
}

func requireInHand(agent *AgentState, action rules.Action, want catalog.CardType) error {
	card, ok := agent.HandCard(action.CardID)
	if !ok {
		return rules.Invalid(action.Type, "card %s not in hand", action.CardID)
	}
	if card.Type != want {
		return rules.Invalid(action.Type, "card %s is %s, not %s", card.ID, card.Type, want)
	}
	return nil
}

func advanceAmount(action rules.Action) int {
	if action.Amount == 0 {
		return 1
	}
	return action.Amount
}

// AdvanceCost returns what one advance step of card costs agent at its
// current trance tier.
func AdvanceCost(agent *AgentState, card *catalog.Card) int {
	return trance.AdvanceCost(card.PlayCost, agent.Weaver, agent.TranceTier)
}

// DiscardYield returns the aether agent gains by discarding card.
func DiscardYield(agent *AgentState, card *catalog.Card) int {
	return trance.DiscardYield(card.DiscardValue, agent.Weaver, agent.TranceTier)
}

// mutate applies a validated action to s in place.
func (e *Engine) mutate(s *GameState, action rules.Action) error {
	agent, err := s.Agent(action.Agent)
	if err != nil {
		return err
	}

	switch action.Type {
	case rules.ActionStartTurn:
		return e.startTurn(s, agent)
	case rules.ActionPlayToSpellSlot:
		var card *catalog.Card
		agent.Hand, card = removeAt(agent.Hand, findCard(agent.Hand, action.CardID))
		card.CurrentPips = 0
		agent.SpellSlots[action.Slot] = card
		s.emit(rules.NewSlotEvent(rules.EventSpellSlotted, agent.ID, card.ID, action.Slot))
		return nil
	case rules.ActionSetGlyph:
		var card *catalog.Card
		agent.Hand, card = removeAt(agent.Hand, findCard(agent.Hand, action.CardID))
		agent.Glyph = card
		s.emit(rules.NewEvent(rules.EventGlyphSet, agent.ID, card.ID))
		return nil
	case rules.ActionCastInstant:
		return e.castInstant(s, agent, action.CardID)
	case rules.ActionAdvanceSpell:
		return e.advanceSpell(s, agent, action.Slot, advanceAmount(action))
	case rules.ActionDiscardForAether:
		return e.discardForAether(s, agent, action.CardID)
	case rules.ActionBuyFromMarket:
		return e.buy(s, agent, action.Slot)
	case rules.ActionEndTurn:
		e.endTurn(s, agent)
		return nil
	}
	return rules.Invalid(action.Type, "unknown action type")
}

func (e *Engine) startTurn(s *GameState, agent *AgentState) error {
	s.emit(rules.NewEventWithAmount(rules.EventTurnStarted, agent.ID, "", s.Turn))
	agent.Pool.Empty()

	var filled []int
	s.Market, s.Supply, filled = s.Market.Refill(s.Supply)
	for _, slot := range filled {
		s.emit(rules.NewSlotEvent(rules.EventMarketRefilled, "", s.Market[slot].ID, slot))
	}

	for len(agent.Hand) < s.Rules.HandSize {
		if !s.draw(agent) {
			break
		}
	}
	s.updateTrance(agent)
	s.Phase = rules.PhaseActive

	return e.fireTriggers(s, agent, catalog.TriggerTurnStart)
}

func (e *Engine) castInstant(s *GameState, agent *AgentState, cardID string) error {
	var card *catalog.Card
	agent.Hand, card = removeAt(agent.Hand, findCard(agent.Hand, cardID))
	if !agent.Pool.Spend(card.PlayCost) {
		return rules.Broken("non-negative-aether", "instant %s cost %d exceeds pool", card.ID, card.PlayCost)
	}
	if card.PlayCost > 0 {
		s.emit(rules.NewEventWithAmount(rules.EventAetherSpent, agent.ID, card.ID, card.PlayCost))
	}
	s.emit(rules.NewEvent(rules.EventInstantCast, agent.ID, card.ID))

	if err := e.applyEffects(s, agent, card.Effects); err != nil {
		return err
	}
	agent.Discard = append(agent.Discard, card)
	s.emit(rules.NewEvent(rules.EventCardDiscarded, agent.ID, card.ID))

	return e.fireTriggers(s, agent, catalog.TriggerInstantCast)
}

func (e *Engine) advanceSpell(s *GameState, agent *AgentState, slot, amount int) error {
	card := agent.SpellSlots[slot]
	cost := AdvanceCost(agent, card) * amount
	if !agent.Pool.SpendAether(cost) {
		return rules.Broken("non-negative-aether", "advance cost %d exceeds aether", cost)
	}
	if cost > 0 {
		s.emit(rules.NewEventWithAmount(rules.EventAetherSpent, agent.ID, card.ID, cost))
	}
	card.CurrentPips += amount
	evt := rules.NewSlotEvent(rules.EventSpellAdvanced, agent.ID, card.ID, slot)
	evt.Amount = card.CurrentPips
	s.emit(evt)

	if card.CurrentPips < card.AdvanceRequirement {
		return nil
	}

	agent.SpellSlots[slot] = nil
	s.emit(rules.NewSlotEvent(rules.EventSpellResolved, agent.ID, card.ID, slot))
	if err := e.applyEffects(s, agent, card.Effects); err != nil {
		return err
	}
	agent.Discard = append(agent.Discard, card)
	s.emit(rules.NewEvent(rules.EventCardDiscarded, agent.ID, card.ID))

	return e.fireTriggers(s, agent, catalog.TriggerSpellResolved)
}

func (e *Engine) discardForAether(s *GameState, agent *AgentState, cardID string) error {
	var card *catalog.Card
	agent.Hand, card = removeAt(agent.Hand, findCard(agent.Hand, cardID))
	agent.Discard = append(agent.Discard, card)
	s.emit(rules.NewEvent(rules.EventCardDiscarded, agent.ID, card.ID))

	yield := DiscardYield(agent, card)
	agent.Pool.Add(yield)
	s.emit(rules.NewEventWithAmount(rules.EventAetherGained, agent.ID, card.ID, yield))

	return e.fireTriggers(s, agent, catalog.TriggerDiscardForAether)
}

func (e *Engine) buy(s *GameState, agent *AgentState, slot int) error {
	price := s.Rules.MarketPrices[slot]
	if !agent.Pool.SpendAether(price) {
		return rules.Broken("non-negative-aether", "price %d exceeds aether", price)
	}
	var card *catalog.Card
	s.Market, card = s.Market.Buy(slot)
	agent.Discard = append(agent.Discard, card)

	evt := rules.NewSlotEvent(rules.EventCardBought, agent.ID, card.ID, slot)
	evt.Amount = price
	s.emit(evt)

	return e.fireTriggers(s, agent, catalog.TriggerMarketBuy)
}

func (e *Engine) endTurn(s *GameState, agent *AgentState) {
	var lost *catalog.Card
	s.Market, lost = s.Market.Shift()
	if lost != nil {
		s.Lost = append(s.Lost, lost)
		s.emit(rules.NewSlotEvent(rules.EventMarketCardLost, "", lost.ID, market.Size-1))
	}
	s.emit(rules.NewEvent(rules.EventMarketShifted, "", ""))
	s.emit(rules.NewEventWithAmount(rules.EventTurnEnded, agent.ID, "", s.Turn))

	s.Turn++
	s.Active = agent.ID.Opponent()
	s.Phase = rules.PhaseIdle
}

// draw moves the top card of the deck into the hand, reshuffling the discard
// into a new deck when the deck is empty. It returns false when both are
// empty.
func (s *GameState) draw(agent *AgentState) bool {
	if len(agent.Deck) == 0 {
		if len(agent.Discard) == 0 {
			return false
		}
		agent.Deck = rng.Shuffle(&s.RNG, agent.Discard)
		agent.Discard = []*catalog.Card{}
		s.emit(rules.NewEventWithAmount(rules.EventDeckReshuffle, agent.ID, "", len(agent.Deck)))
	}
	card := agent.Deck[0]
	agent.Deck = agent.Deck[1:]
	agent.Hand = append(agent.Hand, card)
	s.emit(rules.NewEvent(rules.EventCardDrawn, agent.ID, card.ID))
	return true
}

func (s *GameState) updateTrance(agent *AgentState) {
	tier := trance.Next(agent.TranceTier, agent.Vitality, s.Rules.Thresholds)
	if tier == agent.TranceTier {
		return
	}
	agent.TranceTier = tier
	s.emit(rules.NewEventWithAmount(rules.EventTranceChanged, agent.ID, "", tier))
}

// checkGameOver finishes the game when an agent has no vitality left.
func (e *Engine) checkGameOver(s *GameState) {
	if s.Phase == rules.PhaseFinished {
		return
	}
	for i := range s.Agents {
		if s.Agents[i].Vitality > 0 {
			continue
		}
		s.Winner = s.Agents[i].ID.Opponent()
		s.Phase = rules.PhaseFinished
		s.emit(rules.NewEvent(rules.EventGameOver, s.Winner, ""))
		if e.logger != nil {
			e.logger.Info("game over",
				zap.String("winner", string(s.Winner)),
				zap.Int("turn", s.Turn),
			)
		}
		return
	}
}
