package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/aetherweave/aether-server-go/internal/game"
	"github.com/aetherweave/aether-server-go/internal/game/catalog"
	"github.com/aetherweave/aether-server-go/internal/game/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func card(templateID, id string) *catalog.Card {
	tmpl, ok := catalog.Lookup(templateID)
	if !ok {
		panic("unknown template " + templateID)
	}
	return catalog.NewCard(tmpl, id)
}

// activeState returns a started human turn with an empty hand and pool.
func activeState(t *testing.T, engine *game.Engine) *game.GameState {
	t.Helper()
	state, err := game.Init(1, game.AgentConfig{})
	require.NoError(t, err)
	state, _, err = engine.Apply(state, rules.StartTurn(rules.AgentHuman))
	require.NoError(t, err)
	state.Agents[0].Hand = []*catalog.Card{}
	return state
}

func TestNextStartsTurnAndRespectsTurnOrder(t *testing.T) {
	engine := game.NewEngine(zap.NewNop())
	agent := NewAgent(engine, zap.NewNop(), 0)
	state, err := game.Init(1, game.AgentConfig{})
	require.NoError(t, err)

	action, ok := agent.Next(state, rules.AgentHuman)
	require.True(t, ok)
	assert.Equal(t, rules.StartTurn(rules.AgentHuman), action)

	_, ok = agent.Next(state, rules.AgentAI)
	assert.False(t, ok)
}

func TestNextPriorityOrder(t *testing.T) {
	engine := game.NewEngine(zap.NewNop())
	agent := NewAgent(engine, zap.NewNop(), 0)

	t.Run("affordable instant first", func(t *testing.T) {
		state := activeState(t, engine)
		state.Agents[0].Hand = []*catalog.Card{card("spark_lance", "s1"), card("flicker", "i1")}
		state.Agents[0].Pool.Channeled = 1

		action, ok := agent.Next(state, rules.AgentHuman)
		require.True(t, ok)
		assert.Equal(t, rules.CastInstant(rules.AgentHuman, "i1"), action)
	})

	t.Run("spell into first open slot", func(t *testing.T) {
		state := activeState(t, engine)
		state.Agents[0].SpellSlots[0] = card("slow_burn", "busy")
		state.Agents[0].Hand = []*catalog.Card{card("arc_flash", "i1"), card("spark_lance", "s1")}
		state.Agents[0].Pool.Aether = 1

		action, ok := agent.Next(state, rules.AgentHuman)
		require.True(t, ok)
		assert.Equal(t, rules.PlayToSpellSlot(rules.AgentHuman, "s1", 1), action)
	})

	t.Run("advance in-progress spell", func(t *testing.T) {
		state := activeState(t, engine)
		state.Agents[0].SpellSlots[2] = card("slow_burn", "busy")
		state.Agents[0].Pool.Aether = 1

		action, ok := agent.Next(state, rules.AgentHuman)
		require.True(t, ok)
		assert.Equal(t, rules.AdvanceSpell(rules.AgentHuman, 2, 1), action)
	})

	t.Run("discard to unlock a purchase", func(t *testing.T) {
		state := activeState(t, engine)
		state.Agents[0].Hand = []*catalog.Card{card("ember_glyph", "g1"), card("renewal", "s1")}

		action, ok := agent.Next(state, rules.AgentHuman)
		require.True(t, ok)
		assert.Equal(t, rules.DiscardForAether(rules.AgentHuman, "s1"), action)
	})

	t.Run("cheapest affordable buy", func(t *testing.T) {
		state := activeState(t, engine)
		state.Agents[0].Pool.Aether = 3

		action, ok := agent.Next(state, rules.AgentHuman)
		require.True(t, ok)
		assert.Equal(t, rules.BuyFromMarket(rules.AgentHuman, 3), action)
	})

	t.Run("end turn", func(t *testing.T) {
		state := activeState(t, engine)

		action, ok := agent.Next(state, rules.AgentHuman)
		require.True(t, ok)
		assert.Equal(t, rules.EndTurn(rules.AgentHuman), action)
	})
}

func TestNextSkipsDiscardThatCannotUnlock(t *testing.T) {
	engine := game.NewEngine(zap.NewNop())
	agent := NewAgent(engine, zap.NewNop(), 0)
	state := activeState(t, engine)
	state.Agents[0].Hand = []*catalog.Card{card("ember_glyph", "g1")}

	action, ok := agent.Next(state, rules.AgentHuman)
	require.True(t, ok)
	assert.Equal(t, rules.EndTurn(rules.AgentHuman), action, "value 1 cannot reach price 2")
}

func TestTakeTurnPlaysThroughStore(t *testing.T) {
	engine := game.NewEngine(zap.NewNop())
	store, err := game.NewStore(engine, "ai-turn", 1, game.AgentConfig{}, zap.NewNop())
	require.NoError(t, err)
	initial := store.State()
	agent := NewAgent(engine, zap.NewNop(), 0)

	played, err := agent.TakeTurn(context.Background(), store, rules.AgentHuman)
	require.NoError(t, err)
	require.NotEmpty(t, played)
	assert.Equal(t, rules.ActionStartTurn, played[0].Type)
	assert.Equal(t, rules.ActionEndTurn, played[len(played)-1].Type)
	assert.Equal(t, rules.AgentAI, store.State().Active)
	assert.Equal(t, len(played), store.Replay().Size())
	require.NoError(t, game.CheckConservation(initial, store.State()))

	played, err = agent.TakeTurn(context.Background(), store, rules.AgentHuman)
	require.NoError(t, err)
	assert.Empty(t, played, "not the human's turn any more")
}

// flakyDispatcher rejects every action of one type.
type flakyDispatcher struct {
	*game.Store
	reject   rules.ActionType
	rejected map[string]int
}

func (f *flakyDispatcher) Dispatch(action rules.Action) (game.DispatchResult, error) {
	if action.Type == f.reject {
		f.rejected[action.String()]++
		return game.DispatchResult{State: f.State()}, errors.New("rejected by host")
	}
	return f.Store.Dispatch(action)
}

func TestTakeTurnNeverRetriesRejectedActions(t *testing.T) {
	engine := game.NewEngine(zap.NewNop())
	store, err := game.NewStore(engine, "flaky", 1, game.AgentConfig{}, zap.NewNop())
	require.NoError(t, err)
	d := &flakyDispatcher{Store: store, reject: rules.ActionDiscardForAether, rejected: map[string]int{}}

	agent := NewAgent(engine, zap.NewNop(), 0)
	played, err := agent.TakeTurn(context.Background(), d, rules.AgentHuman)
	require.NoError(t, err)
	assert.Equal(t, rules.ActionEndTurn, played[len(played)-1].Type)

	for key, n := range d.rejected {
		assert.Equal(t, 1, n, "%s dispatched more than once", key)
	}
	for _, action := range played {
		assert.NotEqual(t, rules.ActionDiscardForAether, action.Type)
	}
}

func TestTakeTurnHonorsContext(t *testing.T) {
	engine := game.NewEngine(zap.NewNop())
	store, err := game.NewStore(engine, "cancelled", 1, game.AgentConfig{}, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewAgent(engine, nil, 0).TakeTurn(ctx, store, rules.AgentHuman)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSelfPlayKeepsInvariants(t *testing.T) {
	engine := game.NewEngine(zap.NewNop())
	store, err := game.NewStore(engine, "self-play", 21, game.AgentConfig{}, zap.NewNop())
	require.NoError(t, err)
	initial := store.State()
	agent := NewAgent(engine, zap.NewNop(), 0)

	for turn := 0; turn < 60 && store.State().Phase != rules.PhaseFinished; turn++ {
		_, err := agent.TakeTurn(context.Background(), store, store.State().Active)
		require.NoError(t, err)
		require.NoError(t, game.CheckInvariants(store.State()))
		require.NoError(t, game.CheckConservation(initial, store.State()))
	}
	assert.Greater(t, store.State().Turn, 1)
}
