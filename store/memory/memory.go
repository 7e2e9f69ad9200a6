// Package memory provides an in-process checkpoint store.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/smallnest/collabgraph/store"
)

// MemoryCheckpointStore keeps checkpoints in maps guarded by a mutex. Values are
// copied on the way in and out so callers never share state with the store.
type MemoryCheckpointStore struct {
	mu       sync.RWMutex
	byID     map[string]*store.Checkpoint
	byThread map[string][]string
}

var _ store.CheckpointStore = (*MemoryCheckpointStore)(nil)

// NewMemoryCheckpointStore creates an empty store.
func NewMemoryCheckpointStore() *MemoryCheckpointStore {
	return &MemoryCheckpointStore{
		byID:     make(map[string]*store.Checkpoint),
		byThread: make(map[string][]string),
	}
}

// Save stores a checkpoint
func (m *MemoryCheckpointStore) Save(_ context.Context, checkpoint *store.Checkpoint) error {
	if checkpoint == nil || checkpoint.ID == "" {
		return fmt.Errorf("checkpoint must have an ID")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	prev, exists := m.byID[checkpoint.ID]
	if exists && prev.ThreadID != checkpoint.ThreadID {
		m.unindex(prev.ThreadID, prev.ID)
		exists = false
	}
	if !exists {
		m.byThread[checkpoint.ThreadID] = append(m.byThread[checkpoint.ThreadID], checkpoint.ID)
	}
	m.byID[checkpoint.ID] = checkpoint.Clone()
	return nil
}

// Load retrieves a checkpoint by ID
func (m *MemoryCheckpointStore) Load(_ context.Context, checkpointID string) (*store.Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cp, ok := m.byID[checkpointID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, checkpointID)
	}
	return cp.Clone(), nil
}

// Latest returns the highest-version checkpoint of a thread
func (m *MemoryCheckpointStore) Latest(_ context.Context, threadID string) (*store.Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *store.Checkpoint
	for _, id := range m.byThread[threadID] {
		if cp := m.byID[id]; latest == nil || cp.Version > latest.Version {
			latest = cp
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("%w: thread %s", store.ErrNotFound, threadID)
	}
	return latest.Clone(), nil
}

// List returns all checkpoints for a thread ordered by version
func (m *MemoryCheckpointStore) List(_ context.Context, threadID string) ([]*store.Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.byThread[threadID]
	out := make([]*store.Checkpoint, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.byID[id].Clone())
	}
	store.SortByVersion(out)
	return out, nil
}

// Clear removes all checkpoints for a thread
func (m *MemoryCheckpointStore) Clear(_ context.Context, threadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range m.byThread[threadID] {
		delete(m.byID, id)
	}
	delete(m.byThread, threadID)
	return nil
}

func (m *MemoryCheckpointStore) unindex(threadID, id string) {
	ids := m.byThread[threadID]
	for i, v := range ids {
		if v == id {
			ids = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(m.byThread, threadID)
		return
	}
	m.byThread[threadID] = ids
}
