package store

import (
	"context"
	"encoding/json"
	"errors"
	"maps"
	"slices"
	"time"
)

// ErrNotFound is returned when a checkpoint, or any checkpoint for a thread, does
// not exist.
var ErrNotFound = errors.New("checkpoint not found")

// endNode mirrors graph.END; a checkpoint whose Next is empty or END was taken
// after the run terminated.
const endNode = "END"

// Checkpoint represents a thread's state saved after a merged step.
type Checkpoint struct {
	ID       string `json:"id"`
	ThreadID string `json:"thread_id"`

	// NodeName is the node whose delta produced this state.
	NodeName string `json:"node_name"`

	// Next is the node the run continues with, or END.
	Next string `json:"next"`

	// Step counts merged steps on the thread across runs.
	Step int `json:"step"`

	// State is the JSON encoding of the graph state.
	State json.RawMessage `json:"state"`

	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`

	// Version increases by one with every checkpoint saved for the thread.
	Version int `json:"version"`
}

// Terminal reports whether the checkpoint was taken after the run reached END.
func (c *Checkpoint) Terminal() bool {
	return c.Next == "" || c.Next == endNode
}

// Clone returns a deep copy of c.
func (c *Checkpoint) Clone() *Checkpoint {
	if c == nil {
		return nil
	}
	cp := *c
	cp.State = slices.Clone(c.State)
	cp.Metadata = maps.Clone(c.Metadata)
	return &cp
}

// CheckpointStore defines the interface for checkpoint persistence, keyed by
// thread ID.
type CheckpointStore interface {
	// Save stores a checkpoint
	Save(ctx context.Context, checkpoint *Checkpoint) error

	// Load retrieves a checkpoint by ID
	Load(ctx context.Context, checkpointID string) (*Checkpoint, error)

	// Latest returns the checkpoint with the highest version for a thread,
	// or ErrNotFound
	Latest(ctx context.Context, threadID string) (*Checkpoint, error)

	// List returns all checkpoints for a thread ordered by version
	List(ctx context.Context, threadID string) ([]*Checkpoint, error)

	// Clear removes all checkpoints for a thread
	Clear(ctx context.Context, threadID string) error
}

// SortByVersion orders checkpoints by ascending version in place.
func SortByVersion(cps []*Checkpoint) {
	slices.SortStableFunc(cps, func(a, b *Checkpoint) int {
		return a.Version - b.Version
	})
}
