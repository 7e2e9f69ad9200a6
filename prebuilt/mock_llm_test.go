package prebuilt

import (
	"context"
	"sync"

	"github.com/tmc/langchaingo/llms"
)

// scriptedLLM implements llms.Model, replaying responses in order. Once the
// script is exhausted the last response is repeated.
type scriptedLLM struct {
	mu        sync.Mutex
	responses []*llms.ContentResponse
	err       error
	calls     [][]llms.MessageContent
	options   []llms.CallOptions
}

func (m *scriptedLLM) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var opts llms.CallOptions
	for _, o := range options {
		o(&opts)
	}
	m.calls = append(m.calls, messages)
	m.options = append(m.options, opts)

	if m.err != nil {
		return nil, m.err
	}
	if len(m.responses) == 0 {
		return &llms.ContentResponse{}, nil
	}
	i := min(len(m.calls)-1, len(m.responses)-1)
	return m.responses[i], nil
}

func (m *scriptedLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func (m *scriptedLLM) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func textResponse(content string) *llms.ContentResponse {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: content}}}
}

func toolResponse(content string, calls ...llms.ToolCall) *llms.ContentResponse {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: content, ToolCalls: calls}}}
}

func toolCall(id, name, args string) llms.ToolCall {
	return llms.ToolCall{
		ID:   id,
		Type: "function",
		FunctionCall: &llms.FunctionCall{
			Name:      name,
			Arguments: args,
		},
	}
}
