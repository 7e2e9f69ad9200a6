package graph

import (
	"fmt"
	"strings"
)

// Exporter provides methods to export graphs in different formats
type Exporter[S any] struct {
	graph *StateGraph[S]
}

// NewExporter creates a new graph exporter for the given graph
func NewExporter[S any](graph *StateGraph[S]) *Exporter[S] {
	return &Exporter[S]{graph: graph}
}

// MermaidOptions defines configuration for Mermaid diagram generation
type MermaidOptions struct {
	// Direction of the flowchart (e.g., "TD", "LR")
	Direction string
}

// DrawMermaid generates a Mermaid diagram representation of the graph
func (ge *Exporter[S]) DrawMermaid() string {
	return ge.DrawMermaidWithOptions(MermaidOptions{
		Direction: "TD",
	})
}

func (ge *Exporter[S]) referencesEnd() bool {
	for _, to := range ge.graph.edges {
		if to == END {
			return true
		}
	}
	for _, ce := range ge.graph.conditionalEdges {
		if ce.destinations[END] {
			return true
		}
	}
	return false
}

// DrawMermaidWithOptions generates a Mermaid diagram with custom options.
// Conditional edges are drawn dashed to each declared destination.
func (ge *Exporter[S]) DrawMermaidWithOptions(opts MermaidOptions) string {
	var sb strings.Builder
	g := ge.graph

	direction := opts.Direction
	if direction == "" {
		direction = "TD"
	}
	fmt.Fprintf(&sb, "flowchart %s\n", direction)

	if g.entryPoint != "" {
		sb.WriteString("    START([\"START\"])\n")
		sb.WriteString("    style START fill:#90EE90\n")
	}
	for _, name := range g.nodeOrder {
		fmt.Fprintf(&sb, "    %s[\"%s\"]\n", name, name)
	}
	if ge.referencesEnd() {
		sb.WriteString("    END([\"END\"])\n")
		sb.WriteString("    style END fill:#FFB6C1\n")
	}

	if g.entryPoint != "" {
		fmt.Fprintf(&sb, "    START --> %s\n", g.entryPoint)
	}
	for _, from := range g.nodeOrder {
		if to, ok := g.edges[from]; ok {
			fmt.Fprintf(&sb, "    %s --> %s\n", from, to)
		}
		if ce, ok := g.conditionalEdges[from]; ok {
			for _, to := range ce.order {
				fmt.Fprintf(&sb, "    %s -.-> %s\n", from, to)
			}
		}
	}

	if g.entryPoint != "" {
		fmt.Fprintf(&sb, "    style %s fill:#87CEEB\n", g.entryPoint)
	}
	return sb.String()
}

// DrawDOT generates a DOT (Graphviz) representation of the graph
func (ge *Exporter[S]) DrawDOT() string {
	var sb strings.Builder
	g := ge.graph

	sb.WriteString("digraph G {\n")
	sb.WriteString("    rankdir=TD;\n")
	sb.WriteString("    node [shape=box];\n")

	if g.entryPoint != "" {
		sb.WriteString("    START [label=\"START\", shape=ellipse, style=filled, fillcolor=lightgreen];\n")
		fmt.Fprintf(&sb, "    START -> %s;\n", g.entryPoint)
		fmt.Fprintf(&sb, "    %s [style=filled, fillcolor=lightblue];\n", g.entryPoint)
	}
	if ge.referencesEnd() {
		sb.WriteString("    END [label=\"END\", shape=ellipse, style=filled, fillcolor=lightpink];\n")
	}

	for _, from := range g.nodeOrder {
		if to, ok := g.edges[from]; ok {
			fmt.Fprintf(&sb, "    %s -> %s;\n", from, to)
		}
		if ce, ok := g.conditionalEdges[from]; ok {
			for _, to := range ce.order {
				fmt.Fprintf(&sb, "    %s -> %s [style=dashed];\n", from, to)
			}
		}
	}

	sb.WriteString("}\n")
	return sb.String()
}
