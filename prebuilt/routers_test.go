package prebuilt

import (
	"context"
	"testing"

	"github.com/smallnest/collabgraph/graph"
	"github.com/smallnest/collabgraph/message"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// routerRefs builds node references for router tests.
func routerRefs() (researcher, charter, tools graph.NodeRef) {
	g := graph.NewStateGraph[AgentState]()
	noop := func(context.Context, AgentState) (AgentState, error) { return AgentState{}, nil }
	return g.AddNode("Researcher", "", noop), g.AddNode("chart_generator", "", noop), g.AddNode(CallTool, "", noop)
}

func TestToolsCondition(t *testing.T) {
	_, _, tools := routerRefs()
	route := ToolsCondition(tools)
	ctx := context.Background()

	assert.Equal(t, graph.Goto(tools), route(ctx, requestState(call("1", "search", `{}`))))
	assert.True(t, route(ctx, NewAgentState(message.Human("hi"), message.NamedHuman("agent", "done"))).IsEnd())
	assert.True(t, route(ctx, AgentState{}).IsEnd())
}

func TestCollaborationRouter(t *testing.T) {
	_, charter, tools := routerRefs()
	r := CollaborationRouter{Tools: tools, Next: charter}
	ctx := context.Background()

	tests := []struct {
		name string
		last message.Message
		want graph.Route
	}{
		{"tool calls", message.AI("Researcher", "FINAL ANSWER soon", call("1", "search", `{}`)), graph.Goto(tools)},
		{"final answer", message.NamedHuman("Researcher", "FINAL ANSWER: GDP was 3.1T"), graph.End()},
		{"indented final answer", message.NamedHuman("Researcher", "  FINAL ANSWER: done"), graph.End()},
		{"hand over", message.NamedHuman("Researcher", "Here is the data"), graph.Goto(charter)},
		{"marker mid-sentence", message.NamedHuman("Researcher", "I cannot give a FINAL ANSWER yet; chart_generator please plot this"), graph.Goto(charter)},
		{"marker later in text", message.NamedHuman("Researcher", "the FINAL ANSWER is 4"), graph.Goto(charter)},
		{"tool result", message.ToolResult(call("1", "search", `{}`), "result"), graph.Goto(charter)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := NewAgentState(message.Human("Research X"), tt.last)
			assert.Equal(t, tt.want, r.Route(ctx, state))
		})
	}

	assert.True(t, r.Route(ctx, AgentState{}).IsEnd())
}

func TestCollaborationRouter_DependsOnLastMessageOnly(t *testing.T) {
	_, charter, tools := routerRefs()
	r := CollaborationRouter{Tools: tools, Next: charter}

	contents := []string{"", "data", "FINAL ANSWER", "the FINAL ANSWER is 4", "final answer"}
	rapid.Check(t, func(t *rapid.T) {
		history := rapid.SliceOf(rapid.SampledFrom(contents)).Draw(t, "history")
		content := rapid.SampledFrom(contents).Draw(t, "last")
		withCall := rapid.Bool().Draw(t, "withCall")
		sender := rapid.SampledFrom([]string{InitialSender, "Researcher", "chart_generator"}).Draw(t, "sender")

		last := message.NamedHuman("Researcher", content)
		if withCall {
			last = message.AI("Researcher", content, call("1", "search", `{}`))
		}

		var msgs []message.Message
		for _, h := range history {
			msgs = append(msgs, message.Human(h))
		}
		state := AgentState{Messages: append(msgs, last), Sender: sender}
		alone := AgentState{Messages: []message.Message{last}}

		got := r.Route(context.Background(), state)
		if want := r.Route(context.Background(), alone); got != want {
			t.Fatalf("route with history %v, without %v", got, want)
		}
		if len(state.Messages) != len(history)+1 {
			t.Fatalf("router changed the state")
		}
	})
}

func TestSenderRouter(t *testing.T) {
	researcher, charter, _ := routerRefs()
	route := SenderRouter(map[string]graph.NodeRef{
		"Researcher":      researcher,
		"chart_generator": charter,
	}, researcher)
	ctx := context.Background()

	assert.Equal(t, graph.Goto(charter), route(ctx, AgentState{Sender: "chart_generator"}))
	assert.Equal(t, graph.Goto(researcher), route(ctx, AgentState{Sender: "Researcher"}))
	assert.Equal(t, graph.Goto(researcher), route(ctx, AgentState{Sender: InitialSender}))
}
