package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExporter(t *testing.T) {
	g := pingPong(3)
	exporter := NewExporter(g)

	mermaid := exporter.DrawMermaid()
	assert.Contains(t, mermaid, "flowchart TD")
	assert.Contains(t, mermaid, "START --> a")
	assert.Contains(t, mermaid, "a -.-> b")
	assert.Contains(t, mermaid, "a -.-> END")
	assert.Contains(t, mermaid, "b -.-> a")
	assert.Contains(t, mermaid, "END([\"END\"])")

	lr := exporter.DrawMermaidWithOptions(MermaidOptions{Direction: "LR"})
	assert.Contains(t, lr, "flowchart LR")

	dot := exporter.DrawDOT()
	assert.Contains(t, dot, "digraph G {")
	assert.Contains(t, dot, "START -> a;")
	assert.Contains(t, dot, "b -> a [style=dashed];")
	assert.Contains(t, dot, "END [label=\"END\"")
}
