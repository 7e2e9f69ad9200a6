package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/smallnest/collabgraph/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *SqliteCheckpointStore {
	t.Helper()
	s, err := NewSqliteCheckpointStore(SqliteOptions{Path: filepath.Join(t.TempDir(), "cp.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func checkpoint(thread string, version int) *store.Checkpoint {
	return &store.Checkpoint{
		ID:        fmt.Sprintf("%s-%d", thread, version),
		ThreadID:  thread,
		NodeName:  "researcher",
		Next:      "call_tool",
		Step:      version,
		State:     json.RawMessage(`{"messages":[{"role":"human","content":"hi"}]}`),
		Timestamp: time.Now().UTC(),
		Version:   version,
	}
}

func TestSqliteCheckpointStore_SaveLoad(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	cp := checkpoint("thread-1", 1)
	cp.Metadata = map[string]any{"run_id": "r1"}
	require.NoError(t, s.Save(ctx, cp))

	loaded, err := s.Load(ctx, cp.ID)
	require.NoError(t, err)
	assert.Equal(t, cp.ThreadID, loaded.ThreadID)
	assert.Equal(t, cp.Next, loaded.Next)
	assert.Equal(t, cp.Step, loaded.Step)
	assert.JSONEq(t, string(cp.State), string(loaded.State))
	assert.Equal(t, "r1", loaded.Metadata["run_id"])
	assert.WithinDuration(t, cp.Timestamp, loaded.Timestamp, time.Second)

	_, err = s.Load(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSqliteCheckpointStore_Upsert(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	cp := checkpoint("thread-1", 1)
	require.NoError(t, s.Save(ctx, cp))
	cp.Next = "END"
	require.NoError(t, s.Save(ctx, cp))

	loaded, err := s.Load(ctx, cp.ID)
	require.NoError(t, err)
	assert.True(t, loaded.Terminal())
	assert.Nil(t, loaded.Metadata)
}

func TestSqliteCheckpointStore_LatestListClear(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	for _, v := range []int{2, 3, 1} {
		require.NoError(t, s.Save(ctx, checkpoint("a", v)))
	}
	require.NoError(t, s.Save(ctx, checkpoint("b", 5)))

	latest, err := s.Latest(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 3, latest.Version)

	list, err := s.List(ctx, "a")
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, cp := range list {
		assert.Equal(t, i+1, cp.Version)
	}

	require.NoError(t, s.Clear(ctx, "a"))
	list, err = s.List(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = s.Latest(ctx, "a")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Latest(ctx, "b")
	assert.NoError(t, err)
}
