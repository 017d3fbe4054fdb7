// Package cache keeps the latest public snapshot of each game in Redis so
// spectators and reconnecting clients can read it without touching the
// game store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aetherweave/aether-server-go/internal/config"
	"github.com/aetherweave/aether-server-go/internal/game"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrMiss is returned when a game has no cached snapshot.
var ErrMiss = errors.New("snapshot not cached")

const keyPrefix = "aether:snapshot:"

// client is the part of redis.Cmdable the cache uses.
type client interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// SnapshotCache stores game.PublicSnapshot values as JSON.
type SnapshotCache struct {
	client client
	ttl    time.Duration
	logger *zap.Logger
}

// New connects to Redis and pings it.
func New(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) (*SnapshotCache, *redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Address, err)
	}
	if logger != nil {
		logger.Info("snapshot cache connected",
			zap.String("address", cfg.Address),
			zap.Duration("ttl", cfg.TTL),
		)
	}
	return NewSnapshotCache(rdb, cfg.TTL, logger), rdb, nil
}

// NewSnapshotCache wraps an existing client. A ttl of 0 keeps entries
// until they are deleted.
func NewSnapshotCache(c client, ttl time.Duration, logger *zap.Logger) *SnapshotCache {
	return &SnapshotCache{client: c, ttl: ttl, logger: logger}
}

// Key returns the Redis key of a game's snapshot.
func Key(gameID string) string {
	return keyPrefix + gameID
}

// PutSnapshot stores snap as the latest snapshot of gameID.
func (c *SnapshotCache) PutSnapshot(ctx context.Context, gameID string, snap game.PublicSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := c.client.Set(ctx, Key(gameID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache snapshot of %s: %w", gameID, err)
	}
	if c.logger != nil {
		c.logger.Debug("snapshot cached",
			zap.String("game_id", gameID),
			zap.Int("turn", snap.Turn),
		)
	}
	return nil
}

// GetSnapshot returns the cached snapshot of gameID.
func (c *SnapshotCache) GetSnapshot(ctx context.Context, gameID string) (game.PublicSnapshot, error) {
	data, err := c.client.Get(ctx, Key(gameID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return game.PublicSnapshot{}, fmt.Errorf("game %s: %w", gameID, ErrMiss)
	}
	if err != nil {
		return game.PublicSnapshot{}, fmt.Errorf("failed to read snapshot of %s: %w", gameID, err)
	}
	var snap game.PublicSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return game.PublicSnapshot{}, fmt.Errorf("failed to decode snapshot of %s: %w", gameID, err)
	}
	return snap, nil
}

// DeleteSnapshot drops the snapshot of gameID.
func (c *SnapshotCache) DeleteSnapshot(ctx context.Context, gameID string) error {
	if err := c.client.Del(ctx, Key(gameID)).Err(); err != nil {
		return fmt.Errorf("failed to delete snapshot of %s: %w", gameID, err)
	}
	return nil
}
