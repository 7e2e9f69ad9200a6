// Package graph provides the orchestration engine of collabgraph: typed state
// graphs whose nodes return deltas that a per-field schema merges into the
// shared state.
//
// # Core Concepts
//
// ## StateGraph
// A StateGraph[S] holds named nodes, fixed edges, conditional edges and an entry
// point. AddNode returns a NodeRef; edges and routes can only be built from
// NodeRefs, so a graph cannot point at a node that was never declared.
//
// ## Schemas
// A StateSchema[S] decides how a node's delta is merged. FieldSchema is an
// explicit table of per-field merge policies:
//
//	schema := graph.NewFieldSchema(nil,
//		graph.AppendField("messages", func(s *State) *[]message.Message { return &s.Messages }),
//		graph.OverwriteField("sender", func(s *State) *string { return &s.Sender }),
//	)
//
// ## Routing
// A Router[S] returns a Route built with Goto or End. Conditional edges declare
// their destinations up front; a router choosing anything else fails the run
// with ErrInvalidRoute.
//
// # Running
//
// Compile validates the graph and returns a StateRunnable[S]. Invoke runs one
// thread:
//
//	app, err := g.Compile(graph.WithMaxSteps(25), graph.WithCheckpointer(cps))
//	final, err := app.Invoke(ctx, "thread-1", State{Messages: msgs})
//
// Each step runs one node, merges its delta, evaluates the outgoing edge and
// saves a checkpoint. Runs on the same thread are serialized; different
// threads run in parallel. A thread resumes from its latest checkpoint.
//
// # Errors
//
//   - *StepLimitExceededError when a run exceeds its step budget
//   - *NodeTimeoutError when a node exceeds WithNodeTimeout
//   - *CheckpointError when persistence fails
//   - ErrRunAborted when ctx is cancelled
//
// In every case the returned state is the state after the last merged step.
package graph
