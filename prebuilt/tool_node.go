package prebuilt

import (
	"context"
	"errors"
	"fmt"

	"github.com/smallnest/collabgraph/log"
	"github.com/smallnest/collabgraph/message"
	"github.com/smallnest/collabgraph/tool"
	"golang.org/x/sync/errgroup"
)

// ToolNode runs the tool calls of the latest agent message.
type ToolNode struct {
	tools       *tool.Registry
	concurrency int
	strict      bool
	logger      log.Logger
}

// ToolNodeOption configures a ToolNode.
type ToolNodeOption func(*ToolNode)

// WithConcurrency limits how many calls of one batch run at the same time.
// Zero or less means no limit.
func WithConcurrency(n int) ToolNodeOption {
	return func(t *ToolNode) {
		t.concurrency = n
	}
}

// WithStrictErrors makes Invoke fail on tool errors instead of reporting them
// to the agent as error messages.
func WithStrictErrors() ToolNodeOption {
	return func(t *ToolNode) {
		t.strict = true
	}
}

// WithToolLogger sets the tool node's logger.
func WithToolLogger(l log.Logger) ToolNodeOption {
	return func(t *ToolNode) {
		if l != nil {
			t.logger = l
		}
	}
}

// NewToolNode creates a tool node dispatching to tools.
func NewToolNode(tools *tool.Registry, opts ...ToolNodeOption) *ToolNode {
	if tools == nil {
		tools = tool.MustRegistry()
	}
	t := &ToolNode{tools: tools, logger: log.GetDefaultLogger()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Tools returns the registry the node dispatches to.
func (t *ToolNode) Tools() *tool.Registry {
	return t.tools
}

// Dispatch runs every tool call of the last message and returns their results,
// in call order, as the delta {Messages: results}. The first tool error fails
// the whole batch.
func (t *ToolNode) Dispatch(ctx context.Context, state AgentState) (AgentState, error) {
	return t.run(ctx, state, true)
}

// Invoke is the tool node's graph node. Unlike Dispatch, tool-level failures
// become error tool messages so the agent can react to them. Context errors are
// always returned.
func (t *ToolNode) Invoke(ctx context.Context, state AgentState) (AgentState, error) {
	return t.run(ctx, state, t.strict)
}

func (t *ToolNode) run(ctx context.Context, state AgentState, strict bool) (AgentState, error) {
	last, ok := state.LastMessage()
	if !ok || !last.HasToolCalls() {
		return AgentState{}, fmt.Errorf("tool node: last message has no tool calls")
	}

	results := make([]message.Message, len(last.ToolCalls))
	g, gctx := errgroup.WithContext(ctx)
	if t.concurrency > 0 {
		g.SetLimit(t.concurrency)
	}
	for i, call := range last.ToolCalls {
		g.Go(func() error {
			msg, err := t.call(gctx, call)
			if err != nil {
				if strict || ctx.Err() != nil || !isToolError(err) {
					return err
				}
				t.logger.Warn("tool %s (call %s) failed: %v", call.Name, call.ID, err)
				msg = message.ToolError(call, err)
			}
			results[i] = msg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return AgentState{}, err
	}
	return AgentState{Messages: results}, nil
}

func (t *ToolNode) call(ctx context.Context, call message.ToolCall) (message.Message, error) {
	t.logger.Debug("calling tool %s (call %s)", call.Name, call.ID)
	out, err := t.tools.Call(ctx, call.Name, call.Arguments)
	if err != nil {
		return message.Message{}, err
	}
	content, err := tool.FormatResult(out)
	if err != nil {
		return message.Message{}, &tool.ExecutionError{Tool: call.Name, Err: err}
	}
	return message.ToolResult(call, content), nil
}

func isToolError(err error) bool {
	return errors.Is(err, tool.ErrUnknownTool) ||
		errors.Is(err, tool.ErrInvalidArguments) ||
		errors.Is(err, tool.ErrExecution)
}
