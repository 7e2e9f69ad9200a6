package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/smallnest/collabgraph/store"
)

func newCheckpoint(thread string, version int) *store.Checkpoint {
	return &store.Checkpoint{
		ID:        fmt.Sprintf("%s-%d", thread, version),
		ThreadID:  thread,
		NodeName:  "researcher",
		Next:      "chart_generator",
		Step:      version,
		State:     json.RawMessage(`{"messages":[],"sender":"researcher"}`),
		Timestamp: time.Now(),
		Version:   version,
		Metadata:  map[string]any{"source": "test"},
	}
}

func TestMemoryCheckpointStore_New(t *testing.T) {
	t.Parallel()

	ms := NewMemoryCheckpointStore()
	if ms == nil {
		t.Fatal("Store should not be nil")
	}

	var _ store.CheckpointStore = ms
}

func TestMemoryCheckpointStore_SaveLoad(t *testing.T) {
	t.Parallel()

	ms := NewMemoryCheckpointStore()
	ctx := context.Background()
	cp := newCheckpoint("thread-1", 1)

	if err := ms.Save(ctx, cp); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	loaded, err := ms.Load(ctx, cp.ID)
	if err != nil {
		t.Fatalf("Failed to load: %v", err)
	}
	if loaded.ThreadID != cp.ThreadID || loaded.Next != cp.Next || loaded.Version != cp.Version {
		t.Errorf("Loaded checkpoint mismatch: got %+v", loaded)
	}
	if string(loaded.State) != string(cp.State) {
		t.Errorf("State mismatch: got %s", loaded.State)
	}

	// Mutating the loaded copy must not leak into the store
	loaded.State[0] = 'x'
	loaded.Metadata["source"] = "changed"
	again, _ := ms.Load(ctx, cp.ID)
	if string(again.State) != string(cp.State) || again.Metadata["source"] != "test" {
		t.Error("Store returned shared state")
	}
}

func TestMemoryCheckpointStore_NotFound(t *testing.T) {
	t.Parallel()

	ms := NewMemoryCheckpointStore()
	ctx := context.Background()

	if _, err := ms.Load(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := ms.Latest(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestMemoryCheckpointStore_LatestAndList(t *testing.T) {
	t.Parallel()

	ms := NewMemoryCheckpointStore()
	ctx := context.Background()

	for _, v := range []int{2, 1, 3} {
		if err := ms.Save(ctx, newCheckpoint("thread-a", v)); err != nil {
			t.Fatalf("Failed to save: %v", err)
		}
	}
	if err := ms.Save(ctx, newCheckpoint("thread-b", 9)); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	latest, err := ms.Latest(ctx, "thread-a")
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if latest.Version != 3 {
		t.Errorf("Expected version 3, got %d", latest.Version)
	}

	list, err := ms.List(ctx, "thread-a")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("Expected 3 checkpoints, got %d", len(list))
	}
	for i, cp := range list {
		if cp.Version != i+1 {
			t.Errorf("List not ordered: index %d has version %d", i, cp.Version)
		}
	}
}

func TestMemoryCheckpointStore_Clear(t *testing.T) {
	t.Parallel()

	ms := NewMemoryCheckpointStore()
	ctx := context.Background()

	_ = ms.Save(ctx, newCheckpoint("thread-a", 1))
	_ = ms.Save(ctx, newCheckpoint("thread-b", 1))

	if err := ms.Clear(ctx, "thread-a"); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	list, _ := ms.List(ctx, "thread-a")
	if len(list) != 0 {
		t.Errorf("Expected empty thread after clear, got %d", len(list))
	}
	if _, err := ms.Load(ctx, "thread-a-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected cleared checkpoint to be gone, got %v", err)
	}
	if _, err := ms.Latest(ctx, "thread-b"); err != nil {
		t.Errorf("Other thread should be untouched: %v", err)
	}
}

func TestMemoryCheckpointStore_Concurrent(t *testing.T) {
	t.Parallel()

	ms := NewMemoryCheckpointStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			_ = ms.Save(ctx, newCheckpoint("thread-c", v+1))
			_, _ = ms.Latest(ctx, "thread-c")
		}(i)
	}
	wg.Wait()

	list, _ := ms.List(ctx, "thread-c")
	if len(list) != 50 {
		t.Errorf("Expected 50 checkpoints, got %d", len(list))
	}
}

func TestMemoryCheckpointStore_RejectsEmptyID(t *testing.T) {
	t.Parallel()

	ms := NewMemoryCheckpointStore()
	if err := ms.Save(context.Background(), &store.Checkpoint{}); err == nil {
		t.Error("Expected error for checkpoint without ID")
	}
}

func TestMemoryCheckpointStore_ResaveMovesThread(t *testing.T) {
	t.Parallel()

	ms := NewMemoryCheckpointStore()
	ctx := context.Background()
	cp := newCheckpoint("alice", 1)
	if err := ms.Save(ctx, cp); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	cp.ThreadID = "bob"
	if err := ms.Save(ctx, cp); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	alice, _ := ms.List(ctx, "alice")
	if len(alice) != 0 {
		t.Errorf("Expected checkpoint to leave thread alice, got %d", len(alice))
	}
	bob, _ := ms.List(ctx, "bob")
	if len(bob) != 1 || bob[0].ID != cp.ID {
		t.Errorf("Expected checkpoint under thread bob, got %+v", bob)
	}
	if _, err := ms.Latest(ctx, "alice"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for alice, got %v", err)
	}
}
