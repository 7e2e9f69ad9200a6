package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/smallnest/collabgraph/log"
	"github.com/smallnest/collabgraph/store"
	"github.com/smallnest/collabgraph/store/memory"
)

// DefaultMaxSteps bounds a run when WithMaxSteps is not given.
const DefaultMaxSteps = 25

// Option configures a StateRunnable at compile time.
type Option func(*runConfig)

type runConfig struct {
	maxSteps      int
	nodeTimeout   time.Duration
	checkpointer  store.CheckpointStore
	checkpointing bool
	listeners     []NodeListener
	logger        log.Logger
}

// WithMaxSteps sets the maximum number of steps a single run may execute.
// Values below 1 are ignored.
func WithMaxSteps(n int) Option {
	return func(c *runConfig) {
		if n > 0 {
			c.maxSteps = n
		}
	}
}

// WithNodeTimeout bounds the execution time of every node.
func WithNodeTimeout(d time.Duration) Option {
	return func(c *runConfig) {
		c.nodeTimeout = d
	}
}

// WithCheckpointer sets the store used to persist per-thread state. Without it
// each runnable keeps its checkpoints in memory.
func WithCheckpointer(s store.CheckpointStore) Option {
	return func(c *runConfig) {
		c.checkpointer = s
		c.checkpointing = s != nil
	}
}

// WithoutCheckpointing disables persistence: every run starts from the
// schema's initial state.
func WithoutCheckpointing() Option {
	return func(c *runConfig) {
		c.checkpointer = nil
		c.checkpointing = false
	}
}

// WithListener registers a listener for node events.
func WithListener(l NodeListener) Option {
	return func(c *runConfig) {
		if l != nil {
			c.listeners = append(c.listeners, l)
		}
	}
}

// WithLogger sets the logger of the runnable.
func WithLogger(l log.Logger) Option {
	return func(c *runConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// StateRunnable is the compiled, immutable form of a StateGraph. It is safe for
// concurrent use: runs on different threads proceed in parallel, runs on the
// same thread are serialized.
type StateRunnable[S any] struct {
	graph *StateGraph[S]
	cfg   runConfig
	locks *threadLocks
}

// StateSnapshot is a thread's persisted state.
type StateSnapshot[S any] struct {
	Values       S
	Next         string
	Step         int
	CheckpointID string
	Version      int
	Timestamp    time.Time
}

// Terminal reports whether the thread's last run reached END.
func (s *StateSnapshot[S]) Terminal() bool {
	return s.Next == "" || s.Next == END
}

func newStateRunnable[S any](g *StateGraph[S], opts ...Option) *StateRunnable[S] {
	cfg := runConfig{
		maxSteps:      DefaultMaxSteps,
		checkpointer:  memory.NewMemoryCheckpointStore(),
		checkpointing: true,
		logger:        log.GetDefaultLogger(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &StateRunnable[S]{
		graph: g,
		cfg:   cfg,
		locks: newThreadLocks(),
	}
}

// Graph returns the compiled copy of the graph, e.g. for export.
func (r *StateRunnable[S]) Graph() *StateGraph[S] {
	return r.graph
}

// Invoke runs the graph on threadID with input merged into the thread's state.
//
// A new thread starts at the entry point. A thread whose last checkpoint was
// not terminal resumes at the checkpointed next node; a terminated thread
// starts a new turn at the entry point on top of its saved state.
//
// On error the returned state reflects every step merged before the failure.
func (r *StateRunnable[S]) Invoke(ctx context.Context, threadID string, input S) (S, error) {
	return r.run(ctx, threadID, input, nil)
}

type stepHook[S any] func(step int, node, next string, state S)

func (r *StateRunnable[S]) run(ctx context.Context, threadID string, input S, onStep stepHook[S]) (S, error) {
	runID := uuid.NewString()
	ctx = WithRunInfo(ctx, RunInfo{ThreadID: threadID, RunID: runID})

	release, err := r.locks.acquire(ctx, threadID)
	if err != nil {
		var zero S
		return zero, fmt.Errorf("%w: waiting for thread %s: %w", ErrRunAborted, threadID, err)
	}
	defer release()

	r.notify(ctx, EventChainStart, "", input, nil)
	state, err := r.loop(ctx, threadID, runID, input, onStep)
	r.notify(ctx, EventChainEnd, "", state, err)
	return state, err
}

// resume is where a run starts: state, node, and the thread's step and
// checkpoint version counters.
type resume[S any] struct {
	state   S
	node    string
	step    int
	version int
}

func (r *StateRunnable[S]) start(ctx context.Context, threadID string, input S) (resume[S], error) {
	schema := r.graph.schema
	res := resume[S]{node: r.graph.entryPoint}

	cp, err := r.latest(ctx, threadID)
	if err != nil {
		return res, err
	}

	base := schema.Init()
	if cp != nil {
		if err := json.Unmarshal(cp.State, &base); err != nil {
			return res, &CheckpointError{Op: "decode", ThreadID: threadID, Err: err}
		}
		res.step, res.version = cp.Step, cp.Version
		if !cp.Terminal() {
			res.node = cp.Next
			r.cfg.logger.Debug("thread %s: resuming at %s from checkpoint %s", threadID, cp.Next, cp.ID)
		}
	}

	res.state, err = schema.Update(base, input)
	if err != nil {
		return res, fmt.Errorf("merge input: %w", err)
	}
	return res, nil
}

func (r *StateRunnable[S]) latest(ctx context.Context, threadID string) (*store.Checkpoint, error) {
	if !r.cfg.checkpointing {
		return nil, nil
	}
	cp, err := r.cfg.checkpointer.Latest(ctx, threadID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &CheckpointError{Op: "load", ThreadID: threadID, Err: err}
	}
	return cp, nil
}

func (r *StateRunnable[S]) loop(ctx context.Context, threadID, runID string, input S, onStep stepHook[S]) (S, error) {
	res, err := r.start(ctx, threadID, input)
	if err != nil {
		return res.state, err
	}
	if _, ok := r.graph.nodes[res.node]; !ok && res.node != END {
		return res.state, fmt.Errorf("%w: checkpointed next node %s", ErrNodeNotFound, res.node)
	}

	state, current := res.state, res.node
	for steps := 0; current != END; steps++ {
		if err := ctx.Err(); err != nil {
			return state, fmt.Errorf("%w: %w", ErrRunAborted, err)
		}
		if steps >= r.cfg.maxSteps {
			return state, &StepLimitExceededError{Limit: r.cfg.maxSteps, Next: current}
		}

		res.step++
		node := r.graph.nodes[current]
		stepCtx := WithRunInfo(ctx, RunInfo{ThreadID: threadID, RunID: runID, Node: current, Step: res.step})

		r.notify(stepCtx, NodeEventStart, current, state, nil)
		delta, err := r.execute(stepCtx, node, state)
		if err != nil {
			// An interrupted step never merges its delta.
			if ctx.Err() != nil {
				err = fmt.Errorf("%w: %w", ErrRunAborted, ctx.Err())
			} else if !errors.Is(err, ErrNodeTimeout) {
				err = fmt.Errorf("node %s: %w", current, err)
			}
			r.notify(stepCtx, NodeEventError, current, state, err)
			return state, err
		}

		merged, err := r.graph.schema.Update(state, delta)
		if err != nil {
			err = fmt.Errorf("merge delta of node %s: %w", current, err)
			r.notify(stepCtx, NodeEventError, current, state, err)
			return state, err
		}

		next, err := r.graph.next(stepCtx, current, merged)
		if err != nil {
			r.notify(stepCtx, NodeEventError, current, merged, err)
			return merged, err
		}

		res.version++
		if err := r.save(ctx, threadID, runID, current, next, res.step, res.version, merged); err != nil {
			r.notify(stepCtx, NodeEventError, current, merged, err)
			return merged, err
		}

		r.notify(stepCtx, NodeEventComplete, current, merged, nil)
		if onStep != nil {
			onStep(res.step, current, next, merged)
		}
		r.cfg.logger.Debug("thread %s: step %d %s -> %s", threadID, res.step, current, next)

		state, current = merged, next
	}
	return state, nil
}

// execute runs a node, bounded by the node timeout when one is configured.
func (r *StateRunnable[S]) execute(ctx context.Context, node Node[S], state S) (S, error) {
	if r.cfg.nodeTimeout <= 0 {
		return node.Function(ctx, state)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, r.cfg.nodeTimeout)
	defer cancel()

	type result struct {
		value S
		err   error
	}
	resultChan := make(chan result, 1)

	go func() {
		value, err := node.Function(timeoutCtx, state)
		resultChan <- result{value: value, err: err}
	}()

	select {
	case res := <-resultChan:
		if res.err != nil && ctx.Err() == nil && errors.Is(timeoutCtx.Err(), context.DeadlineExceeded) {
			return res.value, &NodeTimeoutError{Node: node.Name, Timeout: r.cfg.nodeTimeout}
		}
		return res.value, res.err
	case <-timeoutCtx.Done():
		var zero S
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		return zero, &NodeTimeoutError{Node: node.Name, Timeout: r.cfg.nodeTimeout}
	}
}

func (r *StateRunnable[S]) save(ctx context.Context, threadID, runID, node, next string, step, version int, state S) error {
	if !r.cfg.checkpointing {
		return nil
	}
	data, err := json.Marshal(state)
	if err != nil {
		return &CheckpointError{Op: "encode", ThreadID: threadID, Err: err}
	}
	cp := &store.Checkpoint{
		ID:        uuid.NewString(),
		ThreadID:  threadID,
		NodeName:  node,
		Next:      next,
		Step:      step,
		State:     data,
		Timestamp: time.Now(),
		Version:   version,
		Metadata: map[string]any{
			"run_id": runID,
			"source": "step",
		},
	}
	if err := r.cfg.checkpointer.Save(ctx, cp); err != nil {
		return &CheckpointError{Op: "save", ThreadID: threadID, Err: err}
	}
	return nil
}

func (r *StateRunnable[S]) notify(ctx context.Context, event NodeEvent, node string, state S, err error) {
	for _, l := range r.cfg.listeners {
		l.OnNodeEvent(ctx, event, node, state, err)
	}
}

func (r *StateRunnable[S]) snapshot(threadID string, cp *store.Checkpoint) (*StateSnapshot[S], error) {
	var values S
	if err := json.Unmarshal(cp.State, &values); err != nil {
		return nil, &CheckpointError{Op: "decode", ThreadID: threadID, Err: err}
	}
	return &StateSnapshot[S]{
		Values:       values,
		Next:         cp.Next,
		Step:         cp.Step,
		CheckpointID: cp.ID,
		Version:      cp.Version,
		Timestamp:    cp.Timestamp,
	}, nil
}

// GetState returns the latest persisted state of a thread. It returns an error
// matching store.ErrNotFound for unknown threads.
func (r *StateRunnable[S]) GetState(ctx context.Context, threadID string) (*StateSnapshot[S], error) {
	if !r.cfg.checkpointing {
		return nil, fmt.Errorf("thread %s: %w", threadID, store.ErrNotFound)
	}
	cp, err := r.cfg.checkpointer.Latest(ctx, threadID)
	if err != nil {
		return nil, err
	}
	return r.snapshot(threadID, cp)
}

// History returns every persisted state of a thread, oldest first.
func (r *StateRunnable[S]) History(ctx context.Context, threadID string) ([]*StateSnapshot[S], error) {
	if !r.cfg.checkpointing {
		return nil, nil
	}
	cps, err := r.cfg.checkpointer.List(ctx, threadID)
	if err != nil {
		return nil, err
	}
	out := make([]*StateSnapshot[S], 0, len(cps))
	for _, cp := range cps {
		snap, err := r.snapshot(threadID, cp)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

// UpdateState merges delta into a thread's latest state outside of a run, as if
// node asNode had produced it, and persists the result. The next node is taken
// from asNode's outgoing edge; with an empty asNode the thread keeps its
// pending next node.
func (r *StateRunnable[S]) UpdateState(ctx context.Context, threadID, asNode string, delta S) (*StateSnapshot[S], error) {
	if !r.cfg.checkpointing {
		return nil, errors.New("update state: checkpointing is disabled")
	}
	if asNode != "" {
		if _, ok := r.graph.nodes[asNode]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, asNode)
		}
	}

	release, err := r.locks.acquire(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("%w: waiting for thread %s: %w", ErrRunAborted, threadID, err)
	}
	defer release()

	cp, err := r.latest(ctx, threadID)
	if err != nil {
		return nil, err
	}

	current := r.graph.schema.Init()
	next, step, version := r.graph.entryPoint, 0, 0
	if cp != nil {
		if err := json.Unmarshal(cp.State, &current); err != nil {
			return nil, &CheckpointError{Op: "decode", ThreadID: threadID, Err: err}
		}
		next, step, version = cp.Next, cp.Step, cp.Version
	}

	merged, err := r.graph.schema.Update(current, delta)
	if err != nil {
		return nil, fmt.Errorf("merge delta: %w", err)
	}
	if asNode != "" {
		if next, err = r.graph.next(ctx, asNode, merged); err != nil {
			return nil, err
		}
	}

	data, err := json.Marshal(merged)
	if err != nil {
		return nil, &CheckpointError{Op: "encode", ThreadID: threadID, Err: err}
	}
	saved := &store.Checkpoint{
		ID:        uuid.NewString(),
		ThreadID:  threadID,
		NodeName:  asNode,
		Next:      next,
		Step:      step,
		State:     data,
		Timestamp: time.Now(),
		Version:   version + 1,
		Metadata:  map[string]any{"source": "update"},
	}
	if err := r.cfg.checkpointer.Save(ctx, saved); err != nil {
		return nil, &CheckpointError{Op: "save", ThreadID: threadID, Err: err}
	}
	return &StateSnapshot[S]{
		Values:       merged,
		Next:         next,
		Step:         step,
		CheckpointID: saved.ID,
		Version:      saved.Version,
		Timestamp:    saved.Timestamp,
	}, nil
}
