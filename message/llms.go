package message

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"
)

// ToLLM converts a message into the langchaingo representation sent to a model.
func ToLLM(m Message) llms.MessageContent {
	switch m.Role {
	case RoleSystem:
		return llms.TextParts(llms.ChatMessageTypeSystem, m.Content)
	case RoleTool:
		return llms.MessageContent{
			Role: llms.ChatMessageTypeTool,
			Parts: []llms.ContentPart{
				llms.ToolCallResponse{
					ToolCallID: m.ToolCallID,
					Name:       m.Name,
					Content:    m.Content,
				},
			},
		}
	case RoleAI:
		mc := llms.MessageContent{Role: llms.ChatMessageTypeAI}
		if m.Content != "" {
			mc.Parts = append(mc.Parts, llms.TextPart(m.Content))
		}
		for _, tc := range m.ToolCalls {
			mc.Parts = append(mc.Parts, llms.ToolCall{
				ID:   tc.ID,
				Type: "function",
				FunctionCall: &llms.FunctionCall{
					Name:      tc.Name,
					Arguments: argumentText(tc.Arguments),
				},
			})
		}
		return mc
	default:
		return llms.TextParts(llms.ChatMessageTypeHuman, m.Content)
	}
}

// ToLLMs converts a whole history.
func ToLLMs(msgs []Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, ToLLM(m))
	}
	return out
}

// ToolCallsFromChoice extracts the tool calls of a model choice. Calls without an
// ID get a generated one so results can always be correlated; empty argument
// strings become an empty JSON object. Arguments that are not valid JSON are
// kept as a JSON string, which tool validation then rejects.
func ToolCallsFromChoice(choice *llms.ContentChoice) []ToolCall {
	if choice == nil || len(choice.ToolCalls) == 0 {
		return nil
	}
	calls := make([]ToolCall, 0, len(choice.ToolCalls))
	for _, tc := range choice.ToolCalls {
		if tc.FunctionCall == nil {
			continue
		}
		id := tc.ID
		if id == "" {
			id = "call_" + uuid.NewString()
		}
		calls = append(calls, ToolCall{
			ID:        id,
			Name:      tc.FunctionCall.Name,
			Arguments: rawArguments(tc.FunctionCall.Arguments),
		})
	}
	return calls
}

func rawArguments(args string) json.RawMessage {
	if args == "" {
		return json.RawMessage("{}")
	}
	if json.Valid([]byte(args)) {
		return json.RawMessage(args)
	}
	quoted, _ := json.Marshal(args)
	return quoted
}

// argumentText returns the text the model originally sent for raw.
func argumentText(raw json.RawMessage) string {
	var text string
	if len(raw) > 0 && raw[0] == '"' && json.Unmarshal(raw, &text) == nil {
		return text
	}
	return string(raw)
}
