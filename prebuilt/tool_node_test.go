package prebuilt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smallnest/collabgraph/message"
	"github.com/smallnest/collabgraph/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func requestState(calls ...message.ToolCall) AgentState {
	return AgentState{
		Messages: []message.Message{
			message.Human("Research X"),
			message.AI("Researcher", "", calls...),
		},
		Sender: "Researcher",
	}
}

func call(id, name, args string) message.ToolCall {
	return message.ToolCall{ID: id, Name: name, Arguments: json.RawMessage(args)}
}

func TestToolNode_Dispatch(t *testing.T) {
	node := NewToolNode(searchRegistry(t, "result"))

	delta, err := node.Dispatch(context.Background(), requestState(call("call_1", "search", `{"query":"X"}`)))
	require.NoError(t, err)

	require.Len(t, delta.Messages, 1)
	got := delta.Messages[0]
	assert.Equal(t, message.RoleTool, got.Role)
	assert.Equal(t, "result", got.Content)
	assert.Equal(t, "call_1", got.ToolCallID)
	assert.Equal(t, "search", got.Name)
	assert.False(t, got.IsError)
	assert.Empty(t, delta.Sender)
}

func TestToolNode_UnknownTool(t *testing.T) {
	node := NewToolNode(searchRegistry(t, "result"))
	state := requestState(call("call_1", "foo", `{}`))

	_, err := node.Dispatch(context.Background(), state)
	require.Error(t, err)
	assert.ErrorIs(t, err, tool.ErrUnknownTool)

	var unknown *tool.UnknownToolError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "foo", unknown.Name)

	// the graph node reports the failure to the agent instead
	delta, err := node.Invoke(context.Background(), state)
	require.NoError(t, err)
	require.Len(t, delta.Messages, 1)
	assert.True(t, delta.Messages[0].IsError)
	assert.Equal(t, "call_1", delta.Messages[0].ToolCallID)
	assert.Contains(t, delta.Messages[0].Content, `unknown tool "foo"`)

	_, err = NewToolNode(searchRegistry(t, "result"), WithStrictErrors()).Invoke(context.Background(), state)
	assert.ErrorIs(t, err, tool.ErrUnknownTool)
}

func TestToolNode_InvalidArguments(t *testing.T) {
	node := NewToolNode(searchRegistry(t, "result"))
	state := requestState(
		call("call_1", "search", `{"query":"X"}`),
		call("call_2", "search", `{"query":42}`),
	)

	_, err := node.Dispatch(context.Background(), state)
	assert.ErrorIs(t, err, tool.ErrInvalidArguments)

	delta, err := node.Invoke(context.Background(), state)
	require.NoError(t, err)
	require.Len(t, delta.Messages, 2)
	assert.False(t, delta.Messages[0].IsError)
	assert.True(t, delta.Messages[1].IsError)
	assert.Equal(t, "call_2", delta.Messages[1].ToolCallID)
}

func TestToolNode_ContextErrorsAreReturned(t *testing.T) {
	reg := tool.MustRegistry(tool.Descriptor{Name: "slow", Handler: func(ctx context.Context, _ map[string]any) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := NewToolNode(reg).Invoke(ctx, requestState(call("call_1", "slow", `{}`)))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestToolNode_NoToolCalls(t *testing.T) {
	node := NewToolNode(nil)
	_, err := node.Invoke(context.Background(), NewAgentState(message.Human("hi")))
	assert.Error(t, err)

	_, err = node.Invoke(context.Background(), AgentState{})
	assert.Error(t, err)
}

func indexRegistry(delays []time.Duration, inFlight, peak *atomic.Int32) *tool.Registry {
	return tool.MustRegistry(tool.Descriptor{
		Name: "index",
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			if inFlight != nil {
				n := inFlight.Add(1)
				defer inFlight.Add(-1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
			}
			i := int(args["i"].(float64))
			time.Sleep(delays[i])
			return strconv.Itoa(i), nil
		},
	})
}

func TestToolNode_ResultOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		delays := rapid.SliceOfN(rapid.IntRange(0, 3), 1, 8).Draw(t, "delays")
		durations := make([]time.Duration, len(delays))
		calls := make([]message.ToolCall, len(delays))
		for i, d := range delays {
			durations[i] = time.Duration(d) * time.Millisecond
			calls[i] = call(fmt.Sprintf("call_%d", i), "index", fmt.Sprintf(`{"i":%d}`, i))
		}

		node := NewToolNode(indexRegistry(durations, nil, nil))
		delta, err := node.Dispatch(context.Background(), requestState(calls...))
		if err != nil {
			t.Fatalf("dispatch: %v", err)
		}
		if len(delta.Messages) != len(calls) {
			t.Fatalf("got %d results for %d calls", len(delta.Messages), len(calls))
		}
		for i, m := range delta.Messages {
			if m.ToolCallID != calls[i].ID || m.Content != strconv.Itoa(i) {
				t.Fatalf("result %d is %+v", i, m)
			}
		}
	})
}

func TestToolNode_Concurrency(t *testing.T) {
	delays := make([]time.Duration, 6)
	calls := make([]message.ToolCall, len(delays))
	for i := range delays {
		delays[i] = 5 * time.Millisecond
		calls[i] = call(strconv.Itoa(i), "index", fmt.Sprintf(`{"i":%d}`, i))
	}

	var inFlight, peak atomic.Int32
	node := NewToolNode(indexRegistry(delays, &inFlight, &peak), WithConcurrency(2))
	delta, err := node.Dispatch(context.Background(), requestState(calls...))
	require.NoError(t, err)
	assert.Len(t, delta.Messages, 6)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestToolNode_StructuredResult(t *testing.T) {
	reg := tool.MustRegistry(tool.Descriptor{Name: "lookup", Handler: func(context.Context, map[string]any) (any, error) {
		return map[string]any{"gdp": 3.1}, nil
	}})
	delta, err := NewToolNode(reg).Dispatch(context.Background(), requestState(call("1", "lookup", "")))
	require.NoError(t, err)
	assert.JSONEq(t, `{"gdp":3.1}`, delta.Messages[0].Content)
}
