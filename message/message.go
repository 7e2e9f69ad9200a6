// Package message defines the conversation log entries shared by agents, the
// tool dispatcher and the orchestrator, and converts them to and from the
// langchaingo llms types used by model collaborators.
package message

import (
	"encoding/json"
	"strings"
)

// Role identifies who produced a message.
type Role string

const (
	RoleSystem Role = "system"
	RoleHuman  Role = "human"
	RoleAI     Role = "ai"
	RoleTool   Role = "tool"
)

// ToolCall is a request, embedded in an agent message, to run a named tool.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Message is one turn in a conversation. Messages are treated as values; the
// conversation log only ever grows by appending new ones.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// Name is the agent that produced the message, if any.
	Name string `json:"name,omitempty"`

	// ToolCalls is set on agent messages that request tool invocations.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID and IsError are set on tool results.
	ToolCallID string `json:"tool_call_id,omitempty"`
	IsError    bool   `json:"is_error,omitempty"`
}

// Human creates a human message.
func Human(content string) Message {
	return Message{Role: RoleHuman, Content: content}
}

// NamedHuman creates a human-role message attributed to name. Agents use it for
// final answers so that downstream agents read them as ordinary conversation.
func NamedHuman(name, content string) Message {
	return Message{Role: RoleHuman, Content: content, Name: name}
}

// System creates a system message.
func System(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// AI creates an agent message, optionally carrying tool calls.
func AI(name, content string, calls ...ToolCall) Message {
	return Message{Role: RoleAI, Name: name, Content: content, ToolCalls: calls}
}

// ToolResult creates a tool result tagged with the call it answers.
func ToolResult(call ToolCall, content string) Message {
	return Message{Role: RoleTool, Name: call.Name, ToolCallID: call.ID, Content: content}
}

// ToolError creates a tool result describing a tool-level failure.
func ToolError(call ToolCall, err error) Message {
	m := ToolResult(call, "Error: "+err.Error())
	m.IsError = true
	return m
}

// HasToolCalls reports whether the message requests any tool invocation.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// HasPrefix reports whether the content, ignoring leading whitespace, starts
// with marker. Agents signal a final deliverable this way.
func (m Message) HasPrefix(marker string) bool {
	return marker != "" && strings.HasPrefix(strings.TrimSpace(m.Content), marker)
}

// Last returns the last message of msgs and false when msgs is empty.
func Last(msgs []Message) (Message, bool) {
	if len(msgs) == 0 {
		return Message{}, false
	}
	return msgs[len(msgs)-1], true
}
