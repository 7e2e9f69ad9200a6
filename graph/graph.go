package graph

import (
	"context"
	"fmt"
)

// END is a special constant used to represent the end node in the graph.
const END = "END"

// EndNode is the terminal marker, usable anywhere a NodeRef is expected.
var EndNode = NodeRef{name: END}

// NodeRef identifies a node of a StateGraph. It can only be obtained from
// AddNode (or EndNode), so edges and routes cannot name nodes that were never
// declared.
type NodeRef struct {
	name string
}

// Name returns the node name.
func (r NodeRef) Name() string {
	return r.name
}

// IsZero reports whether r was never assigned.
func (r NodeRef) IsZero() bool {
	return r.name == ""
}

// Route is the decision of a Router: continue at a node, or terminate.
type Route struct {
	to string
}

// Goto routes to node.
func Goto(node NodeRef) Route {
	return Route{to: node.name}
}

// End terminates the run.
func End() Route {
	return Route{to: END}
}

// IsEnd reports whether the route terminates the run.
func (r Route) IsEnd() bool {
	return r.to == END
}

// Node returns the destination node name (END for termination, "" for the zero Route).
func (r Route) Node() string {
	return r.to
}

func (r Route) String() string {
	if r.to == "" {
		return "<unset>"
	}
	return r.to
}

// NodeFunc is the function bound to a node. It receives the current state and
// returns a delta that the graph's schema merges into that state.
type NodeFunc[S any] func(ctx context.Context, state S) (S, error)

// Router picks the next node from the merged state. Routers must be pure: no
// I/O and no mutation of state.
type Router[S any] func(ctx context.Context, state S) Route

// Node represents a node in the graph.
type Node[S any] struct {
	// Name is the unique identifier for the node.
	Name string

	// Description describes the functionality of the node.
	Description string

	// Function is the function associated with the node.
	Function NodeFunc[S]
}

// Edge represents a fixed edge in the graph.
type Edge struct {
	From string
	To   string
}

type conditionalEdge[S any] struct {
	router       Router[S]
	destinations map[string]bool
	order        []string
}

// StateGraph represents a typed state-based graph.
//
// Example usage:
//
//	g := graph.NewStateGraph[MyState]()
//	agent := g.AddNode("agent", "call the model", agentFn)
//	tools := g.AddNode("tools", "run requested tools", toolFn)
//	g.SetEntryPoint(agent)
//	g.AddConditionalEdge(agent, route, tools, graph.EndNode)
//	g.AddEdge(tools, agent)
//	app, err := g.Compile()
type StateGraph[S any] struct {
	nodes     map[string]Node[S]
	nodeOrder []string

	edges            map[string]string
	conditionalEdges map[string]conditionalEdge[S]

	entryPoint string

	schema StateSchema[S]

	// errs collects builder mistakes, reported by Compile
	errs []error
}

// NewStateGraph creates a new instance of StateGraph.
func NewStateGraph[S any]() *StateGraph[S] {
	return &StateGraph[S]{
		nodes:            make(map[string]Node[S]),
		edges:            make(map[string]string),
		conditionalEdges: make(map[string]conditionalEdge[S]),
	}
}

// AddNode adds a new node with the given name, description and function and
// returns its reference.
func (g *StateGraph[S]) AddNode(name string, description string, fn NodeFunc[S]) NodeRef {
	switch {
	case name == "" || name == END:
		g.errs = append(g.errs, fmt.Errorf("invalid node name %q", name))
	case fn == nil:
		g.errs = append(g.errs, fmt.Errorf("node %s has no function", name))
	default:
		if _, exists := g.nodes[name]; exists {
			g.errs = append(g.errs, fmt.Errorf("%w: %s", ErrDuplicateNode, name))
		} else {
			g.nodeOrder = append(g.nodeOrder, name)
		}
		g.nodes[name] = Node[S]{Name: name, Description: description, Function: fn}
	}
	return NodeRef{name: name}
}

// AddEdge adds a fixed edge between the "from" and "to" nodes. Use EndNode as
// "to" to terminate after "from".
func (g *StateGraph[S]) AddEdge(from, to NodeRef) {
	if _, exists := g.edges[from.name]; exists {
		g.errs = append(g.errs, fmt.Errorf("node %s already has a fixed edge", from.name))
		return
	}
	g.edges[from.name] = to.name
}

// AddConditionalEdge adds a conditional edge whose target is picked at runtime
// by router among the declared destinations.
func (g *StateGraph[S]) AddConditionalEdge(from NodeRef, router Router[S], destinations ...NodeRef) {
	if router == nil || len(destinations) == 0 {
		g.errs = append(g.errs, fmt.Errorf("conditional edge from %s needs a router and destinations", from.name))
		return
	}
	ce := conditionalEdge[S]{router: router, destinations: make(map[string]bool, len(destinations))}
	for _, d := range destinations {
		if !ce.destinations[d.name] {
			ce.order = append(ce.order, d.name)
		}
		ce.destinations[d.name] = true
	}
	g.conditionalEdges[from.name] = ce
}

// SetEntryPoint sets the entry point node for the state graph.
func (g *StateGraph[S]) SetEntryPoint(node NodeRef) {
	g.entryPoint = node.name
}

// SetSchema sets the state schema used to merge node deltas.
func (g *StateGraph[S]) SetSchema(schema StateSchema[S]) {
	g.schema = schema
}

// Nodes returns the nodes in insertion order.
func (g *StateGraph[S]) Nodes() []Node[S] {
	out := make([]Node[S], 0, len(g.nodeOrder))
	for _, name := range g.nodeOrder {
		out = append(out, g.nodes[name])
	}
	return out
}

func (g *StateGraph[S]) hasNode(name string) bool {
	if name == END {
		return true
	}
	_, ok := g.nodes[name]
	return ok
}

// validate checks the graph's structure: entry point, edge endpoints and one
// outgoing edge (fixed or conditional) per node.
func (g *StateGraph[S]) validate() error {
	if len(g.errs) > 0 {
		return g.errs[0]
	}
	if g.entryPoint == "" {
		return ErrEntryPointNotSet
	}
	if _, ok := g.nodes[g.entryPoint]; !ok {
		return fmt.Errorf("%w: entry point %s", ErrNodeNotFound, g.entryPoint)
	}
	for from, to := range g.edges {
		if _, ok := g.nodes[from]; !ok {
			return fmt.Errorf("%w: edge source %s", ErrNodeNotFound, from)
		}
		if !g.hasNode(to) {
			return fmt.Errorf("%w: edge target %s", ErrNodeNotFound, to)
		}
	}
	for from, ce := range g.conditionalEdges {
		if _, ok := g.nodes[from]; !ok {
			return fmt.Errorf("%w: conditional edge source %s", ErrNodeNotFound, from)
		}
		if _, ok := g.edges[from]; ok {
			return fmt.Errorf("%w: %s", ErrConflictingEdges, from)
		}
		for _, to := range ce.order {
			if !g.hasNode(to) {
				return fmt.Errorf("%w: conditional edge target %s", ErrNodeNotFound, to)
			}
		}
	}
	for _, name := range g.nodeOrder {
		_, fixed := g.edges[name]
		_, cond := g.conditionalEdges[name]
		if !fixed && !cond {
			return fmt.Errorf("%w: %s", ErrNoOutgoingEdge, name)
		}
	}
	return nil
}

// next evaluates the outgoing edge of from against the merged state.
func (g *StateGraph[S]) next(ctx context.Context, from string, state S) (string, error) {
	if to, ok := g.edges[from]; ok {
		return to, nil
	}
	ce, ok := g.conditionalEdges[from]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoOutgoingEdge, from)
	}
	route := ce.router(ctx, state)
	if !ce.destinations[route.to] {
		return "", fmt.Errorf("%w: node %s routed to %s", ErrInvalidRoute, from, route)
	}
	return route.to, nil
}

// Compile validates the graph and returns a runnable bound to a copy of it.
// Later changes to g do not affect the runnable.
func (g *StateGraph[S]) Compile(opts ...Option) (*StateRunnable[S], error) {
	if err := g.validate(); err != nil {
		return nil, err
	}
	frozen := g.clone()
	if frozen.schema == nil {
		frozen.schema = ReplaceSchema[S]{}
	}
	return newStateRunnable(frozen, opts...), nil
}

// clone copies the node and edge tables. Conditional edges are shared since
// AddConditionalEdge never mutates an existing one.
func (g *StateGraph[S]) clone() *StateGraph[S] {
	c := &StateGraph[S]{
		nodes:            make(map[string]Node[S], len(g.nodes)),
		nodeOrder:        append([]string(nil), g.nodeOrder...),
		edges:            make(map[string]string, len(g.edges)),
		conditionalEdges: make(map[string]conditionalEdge[S], len(g.conditionalEdges)),
		entryPoint:       g.entryPoint,
		schema:           g.schema,
	}
	for k, v := range g.nodes {
		c.nodes[k] = v
	}
	for k, v := range g.edges {
		c.edges[k] = v
	}
	for k, v := range g.conditionalEdges {
		c.conditionalEdges[k] = v
	}
	return c
}
