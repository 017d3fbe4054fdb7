package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aetherweave/aether-server-go/internal/game"
	"github.com/aetherweave/aether-server-go/internal/game/rules"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memoryClient is an in-process stand-in for Redis.
type memoryClient struct {
	data map[string][]byte
	ttls map[string]time.Duration
	err  error
}

func newMemoryClient() *memoryClient {
	return &memoryClient{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryClient) Set(_ context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	if m.err != nil {
		return redis.NewStatusResult("", m.err)
	}
	m.data[key] = value.([]byte)
	m.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (m *memoryClient) Get(_ context.Context, key string) *redis.StringCmd {
	if m.err != nil {
		return redis.NewStringResult("", m.err)
	}
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(v), nil)
}

func (m *memoryClient) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, m.err)
}

func snapshot(t *testing.T) game.PublicSnapshot {
	t.Helper()
	state, err := game.Init(3, game.AgentConfig{})
	require.NoError(t, err)
	return game.SerializePublic(state)
}

func TestPutAndGetSnapshot(t *testing.T) {
	mem := newMemoryClient()
	c := NewSnapshotCache(mem, time.Minute, zap.NewNop())
	snap := snapshot(t)

	require.NoError(t, c.PutSnapshot(context.Background(), "g1", snap))
	assert.Equal(t, time.Minute, mem.ttls["aether:snapshot:g1"])

	got, err := c.GetSnapshot(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, snap.Turn, got.Turn)
	assert.Equal(t, snap.Active, got.Active)
	assert.Equal(t, rules.PhaseIdle, got.Phase)
	assert.Equal(t, snap.SupplyCount, got.SupplyCount)
	assert.Equal(t, snap.MarketPrices, got.MarketPrices)
	for i := range snap.Market {
		require.NotNil(t, got.Market[i])
		assert.Equal(t, snap.Market[i].ID, got.Market[i].ID)
	}
	assert.Equal(t, snap.Agents[0].HandCount, got.Agents[0].HandCount)
	assert.Empty(t, got.Agents[0].Hand)
}

func TestGetSnapshotMiss(t *testing.T) {
	c := NewSnapshotCache(newMemoryClient(), 0, nil)
	_, err := c.GetSnapshot(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestDeleteSnapshot(t *testing.T) {
	mem := newMemoryClient()
	c := NewSnapshotCache(mem, 0, nil)
	require.NoError(t, c.PutSnapshot(context.Background(), "g1", snapshot(t)))
	require.NoError(t, c.DeleteSnapshot(context.Background(), "g1"))

	_, err := c.GetSnapshot(context.Background(), "g1")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestCacheErrorsAreWrapped(t *testing.T) {
	mem := newMemoryClient()
	mem.err = errors.New("connection refused")
	c := NewSnapshotCache(mem, 0, nil)

	err := c.PutSnapshot(context.Background(), "g1", snapshot(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, mem.err)

	_, err = c.GetSnapshot(context.Background(), "g1")
	assert.ErrorIs(t, err, mem.err)
	assert.NotErrorIs(t, err, ErrMiss)
}

func TestManagerPublishesToCache(t *testing.T) {
	mem := newMemoryClient()
	c := NewSnapshotCache(mem, 0, nil)
	m := game.NewManager(game.NewEngine(zap.NewNop()), zap.NewNop(), game.WithSnapshotSink(c))

	id, _, err := m.CreateGame(1, game.AgentConfig{})
	require.NoError(t, err)
	_, err = m.Dispatch(id, rules.StartTurn(rules.AgentHuman))
	require.NoError(t, err)

	got, err := c.GetSnapshot(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, rules.PhaseActive, got.Phase)

	m.RemoveGame(id)
	_, err = c.GetSnapshot(context.Background(), id)
	assert.ErrorIs(t, err, ErrMiss)
}

var _ game.SnapshotSink = (*SnapshotCache)(nil)
