package game

import (
	"testing"

	"github.com/aetherweave/aether-server-go/internal/game/catalog"
	"github.com/aetherweave/aether-server-go/internal/game/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestEngine() *Engine {
	return NewEngine(zap.NewNop())
}

// startedGame returns a seed-1 game with the human's first turn started.
func startedGame(t *testing.T, e *Engine) *GameState {
	t.Helper()
	state, err := Init(1, AgentConfig{})
	require.NoError(t, err)
	next, _, err := e.Apply(state, rules.StartTurn(rules.AgentHuman))
	require.NoError(t, err)
	return next
}

func testCard(templateID, id string) *catalog.Card {
	tmpl, ok := catalog.Lookup(templateID)
	if !ok {
		panic("unknown template " + templateID)
	}
	return catalog.NewCard(tmpl, id)
}

func hasEvent(events []rules.Event, typ rules.EventType) bool {
	return countEvents(events, typ) > 0
}

func countEvents(events []rules.Event, typ rules.EventType) int {
	n := 0
	for _, evt := range events {
		if evt.Type == typ {
			n++
		}
	}
	return n
}

func TestEndToEndOpeningTurn(t *testing.T) {
	e := newTestEngine()
	state, err := Init(1, AgentConfig{})
	require.NoError(t, err)
	initial := state

	state, events, err := e.Apply(state, rules.StartTurn(rules.AgentHuman))
	require.NoError(t, err)
	human := &state.Agents[0]
	require.Len(t, human.Hand, 5)
	assert.Equal(t, rules.PhaseActive, state.Phase)
	assert.True(t, hasEvent(events, rules.EventTurnStarted))

	var discardID string
	for _, c := range human.Hand {
		if c.DiscardValue == 2 {
			discardID = c.ID
			break
		}
	}
	require.NotEmpty(t, discardID, "opening hand should hold a value-2 card")

	state, _, err = e.Apply(state, rules.DiscardForAether(rules.AgentHuman, discardID))
	require.NoError(t, err)
	assert.Equal(t, 2, state.Agents[0].Pool.Aether)

	bought := state.Market[4]
	require.NotNil(t, bought)
	rowBefore := state.Market
	state, _, err = e.Apply(state, rules.BuyFromMarket(rules.AgentHuman, 4))
	require.NoError(t, err)
	assert.Equal(t, 0, state.Agents[0].Pool.Aether)
	assert.GreaterOrEqual(t, findCard(state.Agents[0].Discard, bought.ID), 0)
	assert.Nil(t, state.Market[0])

	state, events, err = e.Apply(state, rules.EndTurn(rules.AgentHuman))
	require.NoError(t, err)
	assert.Equal(t, rules.AgentAI, state.Active)
	assert.Equal(t, rules.PhaseIdle, state.Phase)
	assert.Equal(t, 2, state.Turn)
	assert.True(t, hasEvent(events, rules.EventMarketShifted))

	// The buy left [_,A,B,C,D]; the end-of-turn shift drops D.
	assert.Nil(t, state.Market[0])
	assert.Nil(t, state.Market[1])
	assert.Equal(t, rowBefore[0].ID, state.Market[2].ID)
	assert.Equal(t, rowBefore[2].ID, state.Market[4].ID)
	require.Len(t, state.Lost, 1)
	assert.Equal(t, rowBefore[3].ID, state.Lost[0].ID)

	require.NoError(t, CheckInvariants(state))
	require.NoError(t, CheckConservation(initial, state))
}

func TestMarketTelescoping(t *testing.T) {
	e := newTestEngine()
	state := startedGame(t, e)
	state.Agents[0].Pool.Aether = 3
	row := state.Market

	next, _, err := e.Apply(state, rules.BuyFromMarket(rules.AgentHuman, 2))
	require.NoError(t, err)

	assert.Nil(t, next.Market[0])
	assert.Equal(t, row[0].ID, next.Market[1].ID)
	assert.Equal(t, row[1].ID, next.Market[2].ID)
	assert.Equal(t, row[3].ID, next.Market[3].ID)
	assert.Equal(t, row[4].ID, next.Market[4].ID)
	assert.Equal(t, 0, next.Agents[0].Pool.Aether)
	assert.GreaterOrEqual(t, findCard(next.Agents[0].Discard, row[2].ID), 0)
}

func TestStartTurnRefillsEveryEmptyPosition(t *testing.T) {
	e := newTestEngine()
	state := startedGame(t, e)
	state.Agents[0].Pool.Aether = 4

	state, _, err := e.Apply(state, rules.BuyFromMarket(rules.AgentHuman, 0))
	require.NoError(t, err)
	state, _, err = e.Apply(state, rules.EndTurn(rules.AgentHuman))
	require.NoError(t, err)
	require.Nil(t, state.Market[0])
	require.Nil(t, state.Market[1])
	supply := len(state.Supply)

	state, events, err := e.Apply(state, rules.StartTurn(rules.AgentAI))
	require.NoError(t, err)
	assert.Equal(t, 5, state.Market.Count())
	assert.Equal(t, supply-2, len(state.Supply))
	assert.Equal(t, 2, countEvents(events, rules.EventMarketRefilled))
	assert.Len(t, state.Agents[1].Hand, 5)
}

func TestRejectionLeavesStateUntouched(t *testing.T) {
	e := newTestEngine()
	state := startedGame(t, e)
	state.Agents[0].Pool.Aether = 4
	state, _, err := e.Apply(state, rules.BuyFromMarket(rules.AgentHuman, 1))
	require.NoError(t, err)
	require.Nil(t, state.Market[0])

	before := state.Clone()
	tests := []struct {
		name     string
		action   rules.Action
		resource bool
	}{
		{"buy empty slot", rules.BuyFromMarket(rules.AgentHuman, 0), false},
		{"buy out of range", rules.BuyFromMarket(rules.AgentHuman, 5), false},
		{"buy unaffordable", rules.BuyFromMarket(rules.AgentHuman, 4), true},
		{"unknown card", rules.DiscardForAether(rules.AgentHuman, "nope"), false},
		{"wrong agent", rules.EndTurn(rules.AgentAI), false},
		{"unknown agent", rules.EndTurn("ghost"), false},
		{"turn already started", rules.StartTurn(rules.AgentHuman), false},
		{"empty spell slot", rules.AdvanceSpell(rules.AgentHuman, 0, 1), false},
		{"unknown type", rules.Action{Type: "SHUFFLE", Agent: rules.AgentHuman}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, events, err := e.Apply(state, tt.action)
			require.Error(t, err)
			assert.Nil(t, next)
			assert.Nil(t, events)
			if tt.resource {
				assert.True(t, rules.IsResource(err), "got %v", err)
			} else {
				assert.True(t, rules.IsValidation(err), "got %v", err)
			}
			assert.Equal(t, before, state)
		})
	}
}

func TestActionsRequireStartedTurn(t *testing.T) {
	e := newTestEngine()
	state, err := Init(1, AgentConfig{})
	require.NoError(t, err)

	_, _, err = e.Apply(state, rules.DiscardForAether(rules.AgentHuman, state.Agents[0].Hand[0].ID))
	assert.True(t, rules.IsValidation(err))

	_, _, err = e.Apply(state, rules.StartTurn(rules.AgentAI))
	assert.True(t, rules.IsValidation(err))

	_, _, err = e.Apply(state, rules.EndTurn(rules.AgentHuman))
	assert.True(t, rules.IsValidation(err))
}

func TestAdvanceCompletion(t *testing.T) {
	e := newTestEngine()
	state := startedGame(t, e)
	spell := testCard("spark_lance", "test-spell")
	spell.CurrentPips = 1
	state.Agents[0].SpellSlots[1] = spell
	state.Agents[0].Pool.Aether = 1

	next, events, err := e.Apply(state, rules.AdvanceSpell(rules.AgentHuman, 1, 1))
	require.NoError(t, err)

	human := &next.Agents[0]
	assert.Nil(t, human.SpellSlots[1])
	i := findCard(human.Discard, "test-spell")
	require.GreaterOrEqual(t, i, 0)
	assert.Equal(t, 2, human.Discard[i].CurrentPips)
	assert.Equal(t, 0, human.Pool.Aether)
	assert.Equal(t, 17, next.Agents[1].Vitality, "resolve effect applies exactly once")
	assert.Equal(t, 1, countEvents(events, rules.EventSpellResolved))

	assert.Equal(t, 1, state.Agents[0].SpellSlots[1].CurrentPips, "input state unchanged")
}

func TestAdvanceValidation(t *testing.T) {
	e := newTestEngine()
	state := startedGame(t, e)
	state.Agents[0].SpellSlots[0] = testCard("slow_burn", "test-burn")
	state.Agents[0].Pool.Aether = 1

	_, _, err := e.Apply(state, rules.AdvanceSpell(rules.AgentHuman, 0, 4))
	assert.True(t, rules.IsValidation(err))
	_, _, err = e.Apply(state, rules.AdvanceSpell(rules.AgentHuman, 0, -1))
	assert.True(t, rules.IsValidation(err))
	_, _, err = e.Apply(state, rules.AdvanceSpell(rules.AgentHuman, 3, 1))
	assert.True(t, rules.IsValidation(err))
	_, _, err = e.Apply(state, rules.AdvanceSpell(rules.AgentHuman, 0, 2))
	assert.True(t, rules.IsResource(err))

	next, _, err := e.Apply(state, rules.AdvanceSpell(rules.AgentHuman, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, next.Agents[0].SpellSlots[0].CurrentPips)
}

func TestAdvanceTranceDiscount(t *testing.T) {
	e := newTestEngine()
	state := startedGame(t, e)
	human := &state.Agents[0]
	human.Vitality = 9
	human.TranceTier = 1
	human.SpellSlots[0] = testCard("slow_burn", "test-burn")

	next, events, err := e.Apply(state, rules.AdvanceSpell(rules.AgentHuman, 0, 2))
	require.NoError(t, err, "ember tier 1 advances cost-1 spells for free")
	assert.Equal(t, 2, next.Agents[0].SpellSlots[0].CurrentPips)
	assert.False(t, hasEvent(events, rules.EventAetherSpent))
}

func TestPlayToSpellSlot(t *testing.T) {
	e := newTestEngine()
	state := startedGame(t, e)
	spell := testCard("tidal_mend", "test-mend")
	spell.CurrentPips = 1
	instant := testCard("flicker", "test-flicker")
	state.Agents[0].Hand = append(state.Agents[0].Hand, spell, instant)

	_, _, err := e.Apply(state, rules.PlayToSpellSlot(rules.AgentHuman, "test-flicker", 0))
	assert.True(t, rules.IsValidation(err), "instants cannot be slotted")
	_, _, err = e.Apply(state, rules.PlayToSpellSlot(rules.AgentHuman, "test-mend", 3))
	assert.True(t, rules.IsValidation(err))

	next, _, err := e.Apply(state, rules.PlayToSpellSlot(rules.AgentHuman, "test-mend", 2))
	require.NoError(t, err)
	slotted := next.Agents[0].SpellSlots[2]
	require.NotNil(t, slotted)
	assert.Equal(t, 0, slotted.CurrentPips)
	_, inHand := next.Agents[0].HandCard("test-mend")
	assert.False(t, inHand)

	next.Agents[0].Hand = append(next.Agents[0].Hand, testCard("renewal", "test-renewal"))
	_, _, err = e.Apply(next, rules.PlayToSpellSlot(rules.AgentHuman, "test-renewal", 2))
	assert.True(t, rules.IsValidation(err), "occupied slot")
}

func TestCastInstantSpendsAetherFirst(t *testing.T) {
	e := newTestEngine()
	state := startedGame(t, e)
	state.Agents[0].Hand = append(state.Agents[0].Hand, testCard("arc_flash", "test-arc"))
	state.Agents[0].Pool.Aether = 1
	state.Agents[0].Pool.Channeled = 2

	next, events, err := e.Apply(state, rules.CastInstant(rules.AgentHuman, "test-arc"))
	require.NoError(t, err)
	assert.Equal(t, 0, next.Agents[0].Pool.Aether)
	assert.Equal(t, 1, next.Agents[0].Pool.Channeled)
	assert.Equal(t, 17, next.Agents[1].Vitality)
	assert.GreaterOrEqual(t, findCard(next.Agents[0].Discard, "test-arc"), 0)
	assert.True(t, hasEvent(events, rules.EventInstantCast))

	state.Agents[0].Pool.Channeled = 0
	_, _, err = e.Apply(state, rules.CastInstant(rules.AgentHuman, "test-arc"))
	assert.True(t, rules.IsResource(err))
}

func TestSetGlyphAndDiscardTrigger(t *testing.T) {
	e := newTestEngine()
	state := startedGame(t, e)
	state.Agents[0].Hand = append(state.Agents[0].Hand,
		testCard("tide_glyph", "test-glyph"),
		testCard("ember_glyph", "test-glyph-2"),
		testCard("renewal", "test-renewal"),
	)

	_, _, err := e.Apply(state, rules.SetGlyph(rules.AgentHuman, "test-renewal"))
	assert.True(t, rules.IsValidation(err), "spells cannot be set as glyphs")

	state, _, err = e.Apply(state, rules.SetGlyph(rules.AgentHuman, "test-glyph"))
	require.NoError(t, err)
	require.NotNil(t, state.Agents[0].Glyph)

	_, _, err = e.Apply(state, rules.SetGlyph(rules.AgentHuman, "test-glyph-2"))
	assert.True(t, rules.IsValidation(err), "glyph slot occupied")

	state, events, err := e.Apply(state, rules.DiscardForAether(rules.AgentHuman, "test-renewal"))
	require.NoError(t, err)
	assert.Equal(t, 3, state.Agents[0].Pool.Aether, "discard value 2 plus the glyph's 1")
	assert.True(t, hasEvent(events, rules.EventGlyphTrigger))
}

func TestDiscardYieldUsesWeaverBonus(t *testing.T) {
	e := newTestEngine()
	state, err := Init(3, AgentConfig{HumanWeaver: "TIDE"})
	require.NoError(t, err)
	state, _, err = e.Apply(state, rules.StartTurn(rules.AgentHuman))
	require.NoError(t, err)
	state.Agents[0].TranceTier = 2
	state.Agents[0].Hand = append(state.Agents[0].Hand, testCard("renewal", "test-renewal"))

	next, _, err := e.Apply(state, rules.DiscardForAether(rules.AgentHuman, "test-renewal"))
	require.NoError(t, err)
	assert.Equal(t, 4, next.Agents[0].Pool.Aether)
}

func TestDamageRaisesTranceAndEndsGame(t *testing.T) {
	e := newTestEngine()
	state := startedGame(t, e)
	state.Agents[0].Hand = append(state.Agents[0].Hand,
		testCard("arc_flash", "test-arc"),
		testCard("flicker", "test-flicker"),
	)
	state.Agents[0].Pool.Aether = 3
	state.Agents[1].Vitality = 11

	state, events, err := e.Apply(state, rules.CastInstant(rules.AgentHuman, "test-arc"))
	require.NoError(t, err)
	assert.Equal(t, 8, state.Agents[1].Vitality)
	assert.Equal(t, 1, state.Agents[1].TranceTier)
	assert.True(t, hasEvent(events, rules.EventTranceChanged))

	state.Agents[1].Vitality = 1
	state, events, err = e.Apply(state, rules.CastInstant(rules.AgentHuman, "test-flicker"))
	require.NoError(t, err)
	assert.Equal(t, 0, state.Agents[1].Vitality)
	assert.Equal(t, rules.PhaseFinished, state.Phase)
	assert.Equal(t, rules.AgentHuman, state.Winner)
	assert.True(t, hasEvent(events, rules.EventGameOver))

	_, _, err = e.Apply(state, rules.EndTurn(rules.AgentHuman))
	assert.True(t, rules.IsValidation(err), "finished games reject every action")
}

func TestHealIsCapped(t *testing.T) {
	e := newTestEngine()
	state := startedGame(t, e)
	state.Agents[0].Hand = append(state.Agents[0].Hand, testCard("soothing_mist", "test-mist"))
	state.Agents[0].Vitality = 19
	state.Agents[0].TranceTier = 0
	state.Agents[0].Pool.Aether = 1

	next, _, err := e.Apply(state, rules.CastInstant(rules.AgentHuman, "test-mist"))
	require.NoError(t, err)
	assert.Equal(t, 20, next.Agents[0].Vitality)
}

func TestTranceNeverDecreases(t *testing.T) {
	e := newTestEngine()
	state := startedGame(t, e)
	state.Agents[0].Hand = append(state.Agents[0].Hand, testCard("soothing_mist", "test-mist"))
	state.Agents[0].Vitality = 9
	state.Agents[0].TranceTier = 1
	state.Agents[0].Pool.Aether = 1

	next, _, err := e.Apply(state, rules.CastInstant(rules.AgentHuman, "test-mist"))
	require.NoError(t, err)
	assert.Equal(t, 11, next.Agents[0].Vitality)
	assert.Equal(t, 1, next.Agents[0].TranceTier)
}

func TestDrainRemovesChanneledOnly(t *testing.T) {
	e := newTestEngine()
	state := startedGame(t, e)
	state.Agents[0].Hand = append(state.Agents[0].Hand, testCard("leech", "test-leech"))
	state.Agents[0].Pool.Aether = 1
	state.Agents[1].Pool.Aether = 4
	state.Agents[1].Pool.Channeled = 2

	next, _, err := e.Apply(state, rules.CastInstant(rules.AgentHuman, "test-leech"))
	require.NoError(t, err)
	assert.Equal(t, 4, next.Agents[1].Pool.Aether)
	assert.Equal(t, 0, next.Agents[1].Pool.Channeled)
	assert.Equal(t, 1, next.Agents[0].Pool.Channeled)
}

func TestDrawReshufflesDiscard(t *testing.T) {
	e := newTestEngine()
	state, err := Init(5, AgentConfig{})
	require.NoError(t, err)

	human := &state.Agents[0]
	all := append(append([]*catalog.Card{}, human.Hand...), human.Deck...)
	human.Hand = all[:2]
	human.Discard = all[2:]
	human.Deck = []*catalog.Card{}
	before := state.Clone()

	next, events, err := e.Apply(state, rules.StartTurn(rules.AgentHuman))
	require.NoError(t, err)
	assert.Len(t, next.Agents[0].Hand, 5)
	assert.Len(t, next.Agents[0].Deck, 5)
	assert.Empty(t, next.Agents[0].Discard)
	assert.Equal(t, 1, countEvents(events, rules.EventDeckReshuffle))
	require.NoError(t, CheckConservation(before, next))
}

func TestStartTurnEmptiesAetherKeepsChanneled(t *testing.T) {
	e := newTestEngine()
	state := startedGame(t, e)
	state, _, err := e.Apply(state, rules.EndTurn(rules.AgentHuman))
	require.NoError(t, err)
	state.Agents[1].Pool.Aether = 3
	state.Agents[1].Pool.Channeled = 2

	next, _, err := e.Apply(state, rules.StartTurn(rules.AgentAI))
	require.NoError(t, err)
	assert.Equal(t, 0, next.Agents[1].Pool.Aether)
	assert.Equal(t, 2, next.Agents[1].Pool.Channeled)
}

func TestEventsAreNumbered(t *testing.T) {
	e := newTestEngine()
	state, err := Init(1, AgentConfig{})
	require.NoError(t, err)
	next, events, err := e.Apply(state, rules.StartTurn(rules.AgentHuman))
	require.NoError(t, err)
	require.NotEmpty(t, events)
	for i, evt := range events {
		assert.Equal(t, i+1, evt.Seq)
	}
	assert.Equal(t, events, next.Events)
}

func TestEffectTableIsComplete(t *testing.T) {
	for _, tag := range catalog.EffectTags {
		_, ok := effectTable[tag]
		assert.True(t, ok, "missing handler for %s", tag)
	}
	for _, id := range catalog.IDs() {
		tmpl, _ := catalog.Lookup(id)
		for _, eff := range tmpl.Effects {
			_, ok := effectTable[eff.Tag]
			assert.True(t, ok, "%s uses unhandled effect %s", id, eff.Tag)
		}
	}
}

func TestLegalActions(t *testing.T) {
	e := newTestEngine()
	state, err := Init(1, AgentConfig{})
	require.NoError(t, err)

	assert.Equal(t, []rules.Action{rules.StartTurn(rules.AgentHuman)}, e.LegalActions(state))

	state, _, err = e.Apply(state, rules.StartTurn(rules.AgentHuman))
	require.NoError(t, err)
	legal := e.LegalActions(state)
	require.NotEmpty(t, legal)
	assert.Equal(t, rules.EndTurn(rules.AgentHuman), legal[len(legal)-1])
	for _, a := range legal {
		assert.NoError(t, e.CanApply(state, a), a.String())
		assert.NotEqual(t, rules.ActionStartTurn, a.Type)
	}
}
