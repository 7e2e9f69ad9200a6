package prebuilt

import (
	"fmt"

	"github.com/smallnest/collabgraph/graph"
)

// CreateCollaboration builds a multi-agent graph. Agents take turns in the
// given order, share one tool node, and the run ends when one of them answers
// with a message prefixed by FinalAnswerMarker. The first agent is the entry point.
//
//	researcher, _ := prebuilt.NewAgent("Researcher", llm, searchTools, "You should provide accurate data.")
//	charter, _ := prebuilt.NewAgent("chart_generator", llm, chartTools, "Any charts you display will be visible by the user.")
//	app, err := prebuilt.CreateCollaboration([]*prebuilt.Agent{researcher, charter}, prebuilt.NewToolNode(allTools))
//
// Every tool an agent is bound to must be registered in the tool node.
func CreateCollaboration(agents []*Agent, tools *ToolNode, opts ...graph.Option) (*graph.StateRunnable[AgentState], error) {
	if len(agents) == 0 {
		return nil, fmt.Errorf("collaboration needs at least one agent")
	}
	for _, a := range agents {
		if a.Name() == CallTool || a.Name() == InitialSender {
			return nil, fmt.Errorf("agent name %q is reserved", a.Name())
		}
		for _, name := range a.Tools().Names() {
			if _, ok := tools.Tools().Lookup(name); !ok {
				return nil, fmt.Errorf("agent %s: tool %s is not served by the tool node", a.Name(), name)
			}
		}
	}

	workflow := graph.NewStateGraph[AgentState]()
	workflow.SetSchema(NewAgentStateSchema())

	refs := make([]graph.NodeRef, len(agents))
	byName := make(map[string]graph.NodeRef, len(agents))
	for i, a := range agents {
		refs[i] = workflow.AddNode(a.Name(), "Agent: "+a.Name(), a.Invoke)
		byName[a.Name()] = refs[i]
	}
	toolsRef := workflow.AddNode(CallTool, "Tool execution node", tools.Invoke)

	for i, ref := range refs {
		next := refs[(i+1)%len(refs)]
		router := CollaborationRouter{Tools: toolsRef, Next: next}
		workflow.AddConditionalEdge(ref, router.Route, toolsRef, next, graph.EndNode)
	}
	workflow.AddConditionalEdge(toolsRef, SenderRouter(byName, refs[0]), refs...)
	workflow.SetEntryPoint(refs[0])

	return workflow.Compile(opts...)
}
