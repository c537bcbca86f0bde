package cache_test

import (
	"context"
	"testing"
	"time"

	"studio-desk/internal/cache"
	"studio-desk/internal/models/config"
	"studio-desk/internal/occupancy"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func newRedisCache(t *testing.T) (cache.SnapshotCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client, err := cache.NewRedisClient(config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return cache.NewRedisCache(client, time.Minute), mr
}

func TestRedisCache_SetThenGet(t *testing.T) {
	c, mr := newRedisCache(t)
	ctx := context.Background()

	miss, err := c.Get(ctx, "s1", "2024-07-01")
	require.NoError(t, err)
	require.Nil(t, miss)

	snap := &occupancy.Snapshot{SessionID: "s1", Date: "2024-07-01", Capacity: 4, DailyOccupancy: 3}
	require.NoError(t, c.Set(ctx, snap))
	require.Equal(t, time.Minute, mr.TTL(cache.Key("s1", "2024-07-01")))

	got, err := c.Get(ctx, "s1", "2024-07-01")
	require.NoError(t, err)
	require.Equal(t, 4, got.Capacity)
	require.Equal(t, 3, got.DailyOccupancy)

	mr.FastForward(2 * time.Minute)
	expired, err := c.Get(ctx, "s1", "2024-07-01")
	require.NoError(t, err)
	require.Nil(t, expired)
}

func TestRedisCache_CorruptEntryIsAnError(t *testing.T) {
	c, mr := newRedisCache(t)
	require.NoError(t, mr.Set(cache.Key("s1", "2024-07-01"), "{broken"))

	_, err := c.Get(context.Background(), "s1", "2024-07-01")
	require.Error(t, err)
}

func TestRedisCache_Invalidate(t *testing.T) {
	c, mr := newRedisCache(t)
	ctx := context.Background()
	for _, key := range [][2]string{{"s1", "2024-07-01"}, {"s1", "2024-07-08"}, {"s2", "2024-07-01"}} {
		require.NoError(t, c.Set(ctx, &occupancy.Snapshot{SessionID: key[0], Date: key[1]}))
	}
	require.NoError(t, mr.Set("unrelated", "keep"))

	require.NoError(t, c.InvalidateSession(ctx, "s1"))
	require.False(t, mr.Exists(cache.Key("s1", "2024-07-01")))
	require.False(t, mr.Exists(cache.Key("s1", "2024-07-08")))
	require.True(t, mr.Exists(cache.Key("s2", "2024-07-01")))

	require.NoError(t, c.InvalidateAll(ctx))
	require.False(t, mr.Exists(cache.Key("s2", "2024-07-01")))
	require.True(t, mr.Exists("unrelated"))

	// nothing left to delete
	require.NoError(t, c.InvalidateAll(ctx))
}
