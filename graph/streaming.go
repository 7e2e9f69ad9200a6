package graph

import (
	"context"
	"time"
)

// StreamEvent is emitted by Stream after each merged step and once at the end
// of the run.
type StreamEvent[S any] struct {
	Timestamp time.Time

	// Step is the thread's step counter; zero on the final event.
	Step int

	// Node produced the delta; Next is the node that runs after it.
	Node string
	Next string

	// State is the merged state after the step, or the final state.
	State S

	// Done marks the final event. Err is the run error, if any.
	Done bool
	Err  error
}

// streamBuffer bounds how far the run may get ahead of a slow consumer.
const streamBuffer = 16

// Stream runs the graph like Invoke and reports progress on the returned
// channel. The channel is closed after the final event. Consumers must drain it
// or cancel ctx; a cancelled consumer aborts the run between steps and may not
// receive the final event.
func (r *StateRunnable[S]) Stream(ctx context.Context, threadID string, input S) <-chan StreamEvent[S] {
	events := make(chan StreamEvent[S], streamBuffer)

	go func() {
		defer close(events)

		send := func(ev StreamEvent[S]) {
			ev.Timestamp = time.Now()
			select {
			case events <- ev:
			case <-ctx.Done():
			}
		}

		state, err := r.run(ctx, threadID, input, func(step int, node, next string, state S) {
			send(StreamEvent[S]{Step: step, Node: node, Next: next, State: state})
		})

		final := StreamEvent[S]{Timestamp: time.Now(), State: state, Done: true, Err: err}
		select {
		case events <- final:
		default:
			send(final)
		}
	}()

	return events
}
