package game

import (
	"testing"

	"github.com/aetherweave/aether-server-go/internal/game/rng"
	"github.com/aetherweave/aether-server-go/internal/game/rules"
	"github.com/stretchr/testify/require"
)

// randomPlay drives a game with uniformly chosen legal actions, checking the
// state invariants after every transition.
func randomPlay(t *testing.T, e *Engine, seed int64, steps int) (*GameState, []rules.Action) {
	t.Helper()
	state, err := Init(seed, AgentConfig{})
	require.NoError(t, err)
	initial := state
	chooser := rng.New(seed + 1000)

	var played []rules.Action
	for i := 0; i < steps && state.Phase != rules.PhaseFinished; i++ {
		legal := e.LegalActions(state)
		require.NotEmpty(t, legal, "no legal action at step %d", i)
		action := legal[chooser.Intn(len(legal))]

		next, _, err := e.Apply(state, action)
		require.NoError(t, err, "CanApply accepted %s", action)
		require.NoError(t, CheckInvariants(next), "after %s", action)
		require.NoError(t, CheckConservation(initial, next), "after %s", action)
		for _, a := range next.Agents {
			require.GreaterOrEqual(t, a.Pool.Aether, 0)
			require.GreaterOrEqual(t, a.Pool.Channeled, 0)
		}
		state = next
		played = append(played, action)
	}
	return state, played
}

func TestRandomPlayKeepsInvariants(t *testing.T) {
	e := newTestEngine()
	for seed := int64(1); seed <= 8; seed++ {
		randomPlay(t, e, seed, 400)
	}
}

func TestDeterministicReplay(t *testing.T) {
	e := newTestEngine()
	final, played := randomPlay(t, e, 42, 300)

	state, err := Init(42, AgentConfig{})
	require.NoError(t, err)
	for _, action := range played {
		state, _, err = e.Apply(state, action)
		require.NoError(t, err)
	}
	require.Equal(t, final, state)
	require.Equal(t, final.Checksum(), state.Checksum())
}

func TestInitIsDeterministic(t *testing.T) {
	a, err := Init(7, AgentConfig{})
	require.NoError(t, err)
	b, err := Init(7, AgentConfig{})
	require.NoError(t, err)
	require.Equal(t, a, b)

	c, err := Init(8, AgentConfig{})
	require.NoError(t, err)
	require.NotEqual(t, a.Checksum(), c.Checksum())
}
