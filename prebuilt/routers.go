package prebuilt

import (
	"context"

	"github.com/smallnest/collabgraph/graph"
)

// ToolsCondition routes to tools when the last message requests tool calls and
// ends the run otherwise.
func ToolsCondition(tools graph.NodeRef) graph.Router[AgentState] {
	return func(_ context.Context, state AgentState) graph.Route {
		if last, ok := state.LastMessage(); ok && last.HasToolCalls() {
			return graph.Goto(tools)
		}
		return graph.End()
	}
}

// CollaborationRouter routes an agent's turn in a multi-agent conversation:
// tool calls go to Tools, a final answer ends the run, anything else is handed
// to Next.
type CollaborationRouter struct {
	Tools graph.NodeRef
	Next  graph.NodeRef
}

// Route implements graph.Router.
func (r CollaborationRouter) Route(_ context.Context, state AgentState) graph.Route {
	last, ok := state.LastMessage()
	if !ok {
		return graph.End()
	}
	if last.HasToolCalls() {
		return graph.Goto(r.Tools)
	}
	if last.HasPrefix(FinalAnswerMarker) {
		return graph.End()
	}
	return graph.Goto(r.Next)
}

// SenderRouter sends the conversation back to the agent that requested the
// tools. Unknown senders go to fallback.
func SenderRouter(agents map[string]graph.NodeRef, fallback graph.NodeRef) graph.Router[AgentState] {
	return func(_ context.Context, state AgentState) graph.Route {
		if ref, ok := agents[state.Sender]; ok {
			return graph.Goto(ref)
		}
		return graph.Goto(fallback)
	}
}
