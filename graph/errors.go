package graph

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrEntryPointNotSet is returned when the entry point of the graph is not set.
	ErrEntryPointNotSet = errors.New("entry point not set")

	// ErrNodeNotFound is returned when a node is not found in the graph.
	ErrNodeNotFound = errors.New("node not found")

	// ErrDuplicateNode is returned when two nodes share a name.
	ErrDuplicateNode = errors.New("duplicate node")

	// ErrNoOutgoingEdge is returned when no outgoing edge is found for a node.
	ErrNoOutgoingEdge = errors.New("no outgoing edge found for node")

	// ErrConflictingEdges is returned when a node has both a fixed and a conditional edge.
	ErrConflictingEdges = errors.New("node has both a fixed and a conditional edge")

	// ErrInvalidRoute is returned when a router picks a destination it did not declare.
	ErrInvalidRoute = errors.New("invalid route")

	// ErrStepLimitExceeded matches every *StepLimitExceededError.
	ErrStepLimitExceeded = errors.New("step limit exceeded")

	// ErrNodeTimeout matches every *NodeTimeoutError.
	ErrNodeTimeout = errors.New("node timed out")

	// ErrCheckpoint matches every *CheckpointError.
	ErrCheckpoint = errors.New("checkpoint failed")

	// ErrRunAborted is returned when the caller cancels a run. The state returned
	// alongside it only reflects fully merged steps.
	ErrRunAborted = errors.New("run aborted")
)

// StepLimitExceededError is returned when a run would execute more steps than the
// configured maximum. The state returned with it is the state as of the last step.
type StepLimitExceededError struct {
	Limit int
	// Next is the node that would have run.
	Next string
}

func (e *StepLimitExceededError) Error() string {
	return fmt.Sprintf("step limit of %d reached before node %s", e.Limit, e.Next)
}

func (e *StepLimitExceededError) Is(target error) bool {
	return target == ErrStepLimitExceeded
}

// NodeTimeoutError is returned when a node does not produce its delta within the
// configured node timeout.
type NodeTimeoutError struct {
	Node    string
	Timeout time.Duration
}

func (e *NodeTimeoutError) Error() string {
	return fmt.Sprintf("node %s timed out after %v", e.Node, e.Timeout)
}

func (e *NodeTimeoutError) Is(target error) bool {
	return target == ErrNodeTimeout || target == context.DeadlineExceeded
}

// CheckpointError is returned when loading or saving a thread's checkpoint fails.
// The run stops rather than continuing with unpersisted state.
type CheckpointError struct {
	Op       string
	ThreadID string
	Err      error
}

func (e *CheckpointError) Error() string {
	return fmt.Sprintf("checkpoint %s for thread %s: %v", e.Op, e.ThreadID, e.Err)
}

func (e *CheckpointError) Is(target error) bool {
	return target == ErrCheckpoint
}

func (e *CheckpointError) Unwrap() error {
	return e.Err
}
