package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"studio-desk/internal/occupancy"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "occupancy"

// SnapshotCache stores computed snapshots per (session, date).
// Get returns nil, nil on a miss.
type SnapshotCache interface {
	Get(ctx context.Context, sessionID, dateKey string) (*occupancy.Snapshot, error)
	Set(ctx context.Context, snapshot *occupancy.Snapshot) error
	InvalidateSession(ctx context.Context, sessionID string) error
	InvalidateAll(ctx context.Context) error
}

func Key(sessionID, dateKey string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, sessionID, dateKey)
}

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) SnapshotCache {
	return &redisCache{client: client, ttl: ttl}
}

func (c *redisCache) Get(ctx context.Context, sessionID, dateKey string) (*occupancy.Snapshot, error) {
	data, err := c.client.Get(ctx, Key(sessionID, dateKey)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var snap occupancy.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode cached snapshot: %w", err)
	}
	return &snap, nil
}

func (c *redisCache) Set(ctx context.Context, snap *occupancy.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return c.client.Set(ctx, Key(snap.SessionID, snap.Date), data, c.ttl).Err()
}

func (c *redisCache) InvalidateSession(ctx context.Context, sessionID string) error {
	return c.deleteMatching(ctx, fmt.Sprintf("%s:%s:*", keyPrefix, sessionID))
}

// InvalidateAll is used when a change touches a person, whose vacations and
// credits feed every session they are in.
func (c *redisCache) InvalidateAll(ctx context.Context) error {
	return c.deleteMatching(ctx, keyPrefix+":*")
}

func (c *redisCache) deleteMatching(ctx context.Context, pattern string) error {
	var keys []string
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan %s: %w", pattern, err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

type noopCache struct{}

// NewNoopCache is used when REDIS_ADDR is empty: every Get misses.
func NewNoopCache() SnapshotCache {
	return noopCache{}
}

func (noopCache) Get(context.Context, string, string) (*occupancy.Snapshot, error) { return nil, nil }
func (noopCache) Set(context.Context, *occupancy.Snapshot) error { return nil }
func (noopCache) InvalidateSession(context.Context, string) error { return nil }
func (noopCache) InvalidateAll(context.Context) error { return nil }
