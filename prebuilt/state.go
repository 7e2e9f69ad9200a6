package prebuilt

import (
	"github.com/smallnest/collabgraph/graph"
	"github.com/smallnest/collabgraph/message"
)

// InitialSender is the sender of a conversation no agent has spoken in yet.
const InitialSender = "User"

// AgentState is the conversation state shared by agents and the tool node.
type AgentState struct {
	// Messages is the conversation log. It only grows.
	Messages []message.Message `json:"messages"`

	// Sender is the agent that produced the latest agent message.
	Sender string `json:"sender"`
}

// NewAgentState starts a conversation from messages.
func NewAgentState(msgs ...message.Message) AgentState {
	return AgentState{Messages: msgs}
}

// NewAgentStateSchema returns the merge policy of AgentState: messages are
// appended, sender is last-write-wins and left untouched by deltas that do not
// set it.
func NewAgentStateSchema() *graph.FieldSchema[AgentState] {
	return graph.NewFieldSchema(
		func() AgentState { return AgentState{Sender: InitialSender} },
		graph.AppendField("messages", func(s *AgentState) *[]message.Message { return &s.Messages }),
		graph.OverwriteField("sender", func(s *AgentState) *string { return &s.Sender }),
	)
}

// LastMessage returns the latest message of the conversation.
func (s AgentState) LastMessage() (message.Message, bool) {
	return message.Last(s.Messages)
}
