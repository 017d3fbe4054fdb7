// Package ai plays an agent with a fixed priority list. It reaches the game
// only through the same Dispatch call a human client uses.
package ai

import (
	"context"
	"fmt"

	"github.com/aetherweave/aether-server-go/internal/game"
	"github.com/aetherweave/aether-server-go/internal/game/catalog"
	"github.com/aetherweave/aether-server-go/internal/game/rules"
	"go.uber.org/zap"
)

// DefaultStepLimit bounds the actions of one turn.
const DefaultStepLimit = 64

// Dispatcher is the host interface the agent plays through.
type Dispatcher interface {
	Dispatch(action rules.Action) (game.DispatchResult, error)
	State() *game.GameState
}

// Agent picks actions for one side of a game.
type Agent struct {
	engine    *game.Engine
	logger    *zap.Logger
	stepLimit int
}

// NewAgent creates an agent. The engine is only used for side-effect-free
// legality checks; a stepLimit <= 0 uses DefaultStepLimit.
func NewAgent(engine *game.Engine, logger *zap.Logger, stepLimit int) *Agent {
	if stepLimit <= 0 {
		stepLimit = DefaultStepLimit
	}
	return &Agent{
		engine:    engine,
		logger:    logger,
		stepLimit: stepLimit,
	}
}

// Next returns the highest-priority legal action for id, or false when id
// cannot act (not its turn, or the game is over).
func (a *Agent) Next(state *game.GameState, id rules.AgentID) (rules.Action, bool) {
	return a.next(state, id, nil)
}

func (a *Agent) next(state *game.GameState, id rules.AgentID, skip map[string]bool) (rules.Action, bool) {
	if state.Phase == rules.PhaseFinished || state.Active != id {
		return rules.Action{}, false
	}
	for _, action := range a.candidates(state, id) {
		if skip[action.String()] {
			continue
		}
		if a.engine.CanApply(state, action) == nil {
			return action, true
		}
	}
	return rules.Action{}, false
}

// candidates lists actions in priority order. Entries may be illegal; Next
// filters them with CanApply.
func (a *Agent) candidates(state *game.GameState, id rules.AgentID) []rules.Action {
	if state.Phase == rules.PhaseIdle {
		return []rules.Action{rules.StartTurn(id)}
	}
	me, err := state.Agent(id)
	if err != nil {
		return nil
	}

	var out []rules.Action

	// 1. Affordable instants.
	for _, c := range me.Hand {
		if c.Type == catalog.CardTypeInstant && me.Pool.CanAfford(c.PlayCost) {
			out = append(out, rules.CastInstant(id, c.ID))
		}
	}

	// 2. Affordable spells into the first open slot.
	if slot := me.OpenSpellSlot(); slot >= 0 {
		for _, c := range me.Hand {
			if c.Type == catalog.CardTypeSpell && c.PlayCost <= me.Pool.Aether {
				out = append(out, rules.PlayToSpellSlot(id, c.ID, slot))
			}
		}
	}

	// 3. Advance spells already in play.
	for slot, c := range me.SpellSlots {
		if c != nil && game.AdvanceCost(me, c) <= me.Pool.Aether {
			out = append(out, rules.AdvanceSpell(id, slot, 1))
		}
	}

	// 4. Discard for a purchase that is otherwise out of reach.
	if c := bestDiscard(me); c != nil {
		if cheapest, ok := cheapestPrice(state); ok &&
			cheapest > me.Pool.Aether && me.Pool.Aether+game.DiscardYield(me, c) >= cheapest {
			out = append(out, rules.DiscardForAether(id, c.ID))
		}
	}

	// 5. Cheapest affordable market card, leftmost on ties.
	if slot, ok := cheapestAffordable(state, me.Pool.Aether); ok {
		out = append(out, rules.BuyFromMarket(id, slot))
	}

	// 6. Nothing left to do.
	return append(out, rules.EndTurn(id))
}

// bestDiscard returns the hand card with the highest discard value, the
// first one on ties.
func bestDiscard(me *game.AgentState) *catalog.Card {
	var best *catalog.Card
	for _, c := range me.Hand {
		if best == nil || c.DiscardValue > best.DiscardValue {
			best = c
		}
	}
	return best
}

func cheapestPrice(state *game.GameState) (int, bool) {
	price, found := 0, false
	for slot, c := range state.Market {
		if c == nil {
			continue
		}
		if p := state.Rules.MarketPrices[slot]; !found || p < price {
			price, found = p, true
		}
	}
	return price, found
}

func cheapestAffordable(state *game.GameState, budget int) (int, bool) {
	best, found := -1, false
	for slot, c := range state.Market {
		if c == nil {
			continue
		}
		p := state.Rules.MarketPrices[slot]
		if p > budget {
			continue
		}
		if !found || p < state.Rules.MarketPrices[best] {
			best, found = slot, true
		}
	}
	return best, found
}

// TakeTurn plays id's turn to completion through d, starting it first when
// needed. Actions the dispatcher rejects are skipped for the rest of the
// turn and never retried. It returns the accepted actions.
func (a *Agent) TakeTurn(ctx context.Context, d Dispatcher, id rules.AgentID) ([]rules.Action, error) {
	skip := make(map[string]bool)
	var played []rules.Action

	for step := 0; step < a.stepLimit; step++ {
		if err := ctx.Err(); err != nil {
			return played, err
		}
		action, ok := a.next(d.State(), id, skip)
		if !ok {
			return played, nil
		}
		if _, err := d.Dispatch(action); err != nil {
			skip[action.String()] = true
			if a.logger != nil {
				a.logger.Debug("ai action rejected",
					zap.String("agent", string(id)),
					zap.String("action", action.String()),
					zap.Error(err),
				)
			}
			continue
		}
		played = append(played, action)
		if action.Type == rules.ActionEndTurn {
			return played, nil
		}
	}

	// Out of steps: close the turn so the game can continue.
	if _, err := d.Dispatch(rules.EndTurn(id)); err != nil {
		return played, fmt.Errorf("ai %s: step limit %d reached: %w", id, a.stepLimit, err)
	}
	played = append(played, rules.EndTurn(id))
	if a.logger != nil {
		a.logger.Warn("ai step limit reached",
			zap.String("agent", string(id)),
			zap.Int("steps", a.stepLimit),
		)
	}
	return played, nil
}
