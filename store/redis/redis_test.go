package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/smallnest/collabgraph/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, ttl time.Duration) (*RedisCheckpointStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s := NewRedisCheckpointStore(RedisOptions{Addr: mr.Addr(), TTL: ttl})
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func cp(thread string, version int) *store.Checkpoint {
	return &store.Checkpoint{
		ID:        fmt.Sprintf("%s-cp-%d", thread, version),
		ThreadID:  thread,
		NodeName:  "researcher",
		Next:      "call_tool",
		Step:      version,
		State:     json.RawMessage(`{"foo":"bar"}`),
		Timestamp: time.Now(),
		Version:   version,
	}
}

func TestRedisCheckpointStore(t *testing.T) {
	s, mr := newTestStore(t, 0)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, cp("thread-1", 1)))
	require.NoError(t, s.Save(ctx, cp("thread-1", 2)))

	assert.True(t, mr.Exists("collabgraph:checkpoint:thread-1-cp-1"))
	assert.True(t, mr.Exists("collabgraph:thread:thread-1:checkpoints"))

	loaded, err := s.Load(ctx, "thread-1-cp-1")
	require.NoError(t, err)
	assert.Equal(t, "researcher", loaded.NodeName)
	assert.JSONEq(t, `{"foo":"bar"}`, string(loaded.State))

	latest, err := s.Latest(ctx, "thread-1")
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Version)

	list, err := s.List(ctx, "thread-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 1, list[0].Version)
	assert.Equal(t, 2, list[1].Version)

	require.NoError(t, s.Clear(ctx, "thread-1"))
	_, err = s.Load(ctx, "thread-1-cp-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Latest(ctx, "thread-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	list, err = s.List(ctx, "thread-1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRedisCheckpointStore_TTL(t *testing.T) {
	s, mr := newTestStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, cp("thread-ttl", 1)))
	assert.Equal(t, time.Minute, mr.TTL("collabgraph:checkpoint:thread-ttl-cp-1"))

	mr.FastForward(2 * time.Minute)

	_, err := s.Load(ctx, "thread-ttl-cp-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Latest(ctx, "thread-ttl")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRedisCheckpointStore_SkipsExpiredIndexEntries(t *testing.T) {
	s, mr := newTestStore(t, 0)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, cp("t", 1)))
	require.NoError(t, s.Save(ctx, cp("t", 2)))
	mr.Del("collabgraph:checkpoint:t-cp-2")

	latest, err := s.Latest(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, 1, latest.Version)

	list, err := s.List(ctx, "t")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRedisCheckpointStore_WithClient(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	s := NewRedisCheckpointStoreWithClient(client, "custom:", 0)
	require.NoError(t, s.Save(context.Background(), cp("x", 1)))
	assert.True(t, mr.Exists("custom:checkpoint:x-cp-1"))
}
