package prebuilt

import (
	"github.com/smallnest/collabgraph/graph"
)

// Node names of the graphs built by this package.
const (
	AgentNode = "agent"
	ToolsNode = "tools"
	CallTool  = "call_tool"
)

// CreateToolCallingAgent builds the single-agent loop: the agent runs, its tool
// calls are dispatched, and the results go back to the agent until it answers
// without tools.
func CreateToolCallingAgent(agent *Agent, tools *ToolNode, opts ...graph.Option) (*graph.StateRunnable[AgentState], error) {
	workflow := graph.NewStateGraph[AgentState]()
	workflow.SetSchema(NewAgentStateSchema())

	agentRef := workflow.AddNode(AgentNode, "Agent: "+agent.Name(), agent.Invoke)
	toolsRef := workflow.AddNode(ToolsNode, "Tool execution node", tools.Invoke)

	workflow.SetEntryPoint(agentRef)
	workflow.AddConditionalEdge(agentRef, ToolsCondition(toolsRef), toolsRef, graph.EndNode)
	workflow.AddEdge(toolsRef, agentRef)

	return workflow.Compile(opts...)
}
