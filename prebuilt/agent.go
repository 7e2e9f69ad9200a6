package prebuilt

import (
	"context"
	"fmt"
	"strings"

	"github.com/smallnest/collabgraph/log"
	"github.com/smallnest/collabgraph/message"
	"github.com/smallnest/collabgraph/tool"
	"github.com/tmc/langchaingo/llms"
)

// FinalAnswerMarker is the prefix an agent puts on a final deliverable so the
// team knows to stop.
const FinalAnswerMarker = "FINAL ANSWER"

const collaborationPreamble = "You are a helpful AI assistant, collaborating with other assistants. " +
	"Use the provided tools to progress towards answering the question. " +
	"If you are unable to fully answer, that's OK, another assistant with different tools " +
	"will help where you left off. Execute what you can to make progress. " +
	"If you or any of the other assistants have the final answer or deliverable, " +
	"prefix your response with " + FinalAnswerMarker + " so the team knows to stop."

// Output is what an agent produced in one turn: a FinalAnswer or a ToolRequest.
type Output interface {
	// Message converts the output into the message appended to the conversation.
	Message(agent string) message.Message

	isOutput()
}

// FinalAnswer is a plain conversational answer.
type FinalAnswer struct {
	Text string
}

// Message returns a human-role message attributed to agent, so other agents
// read it as ordinary conversation.
func (a FinalAnswer) Message(agent string) message.Message {
	return message.NamedHuman(agent, a.Text)
}

func (FinalAnswer) isOutput() {}

// ToolRequest asks the tool node to run Calls.
type ToolRequest struct {
	Text  string
	Calls []message.ToolCall
}

// Message returns an agent message carrying the tool calls.
func (r ToolRequest) Message(agent string) message.Message {
	return message.AI(agent, r.Text, r.Calls...)
}

func (ToolRequest) isOutput() {}

// Agent binds a model, a set of tools and a system directive. An Agent holds no
// conversation state and is safe for concurrent use.
type Agent struct {
	name      string
	model     llms.Model
	tools     *tool.Registry
	directive string

	callOptions []llms.CallOption
	logger      log.Logger
}

// AgentOption configures an Agent.
type AgentOption func(*Agent)

// WithCallOptions adds model call options such as temperature or max tokens.
func WithCallOptions(opts ...llms.CallOption) AgentOption {
	return func(a *Agent) {
		a.callOptions = append(a.callOptions, opts...)
	}
}

// WithAgentLogger sets the agent's logger.
func WithAgentLogger(l log.Logger) AgentOption {
	return func(a *Agent) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAgent creates an agent. tools may be nil for an agent without tools.
func NewAgent(name string, model llms.Model, tools *tool.Registry, directive string, opts ...AgentOption) (*Agent, error) {
	if name == "" {
		return nil, fmt.Errorf("agent name is empty")
	}
	if model == nil {
		return nil, fmt.Errorf("agent %s has no model", name)
	}
	a := &Agent{
		name:      name,
		model:     model,
		tools:     tools,
		directive: directive,
		logger:    log.GetDefaultLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Name returns the agent's name.
func (a *Agent) Name() string {
	return a.name
}

// Tools returns the registry bound to the agent, possibly nil.
func (a *Agent) Tools() *tool.Registry {
	return a.tools
}

// SystemPrompt returns the system message sent before the conversation.
func (a *Agent) SystemPrompt() string {
	var b strings.Builder
	b.WriteString(collaborationPreamble)
	b.WriteString(" You have access to the following tools: ")
	if names := a.tools.Names(); len(names) > 0 {
		b.WriteString(strings.Join(names, ", "))
	} else {
		b.WriteString("none")
	}
	b.WriteString(".")
	if a.directive != "" {
		b.WriteString("\n")
		b.WriteString(a.directive)
	}
	return b.String()
}

// Decide makes one model call over the conversation and classifies the reply.
func (a *Agent) Decide(ctx context.Context, state AgentState) (Output, error) {
	msgs := make([]llms.MessageContent, 0, len(state.Messages)+1)
	msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeSystem, a.SystemPrompt()))
	msgs = append(msgs, message.ToLLMs(state.Messages)...)

	opts := a.callOptions
	if defs := a.tools.Definitions(); len(defs) > 0 {
		opts = append(opts[:len(opts):len(opts)], llms.WithTools(defs))
	}

	a.logger.Debug("agent %s: calling model with %d messages", a.name, len(msgs))
	resp, err := a.model.GenerateContent(ctx, msgs, opts...)
	if err != nil {
		return nil, &ModelCallError{Agent: a.name, Err: err}
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return nil, &ModelCallError{Agent: a.name, Err: ErrEmptyResponse}
	}

	choice := resp.Choices[0]
	if calls := message.ToolCallsFromChoice(choice); len(calls) > 0 {
		a.logger.Debug("agent %s: requested %d tool calls", a.name, len(calls))
		return ToolRequest{Text: choice.Content, Calls: calls}, nil
	}
	return FinalAnswer{Text: choice.Content}, nil
}

// Invoke is the agent's graph node. It returns the delta
// {Messages: [reply], Sender: agent name}.
func (a *Agent) Invoke(ctx context.Context, state AgentState) (AgentState, error) {
	out, err := a.Decide(ctx, state)
	if err != nil {
		return AgentState{}, err
	}
	return AgentState{
		Messages: []message.Message{out.Message(a.name)},
		Sender:   a.name,
	}, nil
}
