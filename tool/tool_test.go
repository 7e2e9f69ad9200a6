package tool

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTool() Descriptor {
	return Descriptor{
		Name:        "echo",
		Description: "Echo the text back",
		Schema: ObjectSchema(map[string]*jsonschema.Schema{
			"text":  {Type: "string"},
			"times": {Type: "integer"},
		}, "text"),
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			return args["text"], nil
		},
	}
}

func TestRegistry_Register(t *testing.T) {
	reg, err := NewRegistry(echoTool())
	require.NoError(t, err)
	assert.Equal(t, []string{"echo"}, reg.Names())
	assert.Equal(t, 1, reg.Len())

	err = reg.Register(echoTool())
	assert.ErrorContains(t, err, "already registered")

	err = reg.Register(Descriptor{Name: "nohandler"})
	assert.ErrorContains(t, err, "no handler")

	err = reg.Register(Descriptor{Handler: echoTool().Handler})
	assert.Error(t, err)

	d, ok := reg.Lookup("echo")
	require.True(t, ok)
	assert.Equal(t, "Echo the text back", d.Description)

	_, ok = reg.Lookup("missing")
	assert.False(t, ok)
}

func TestRegistry_Call(t *testing.T) {
	reg := MustRegistry(echoTool())
	ctx := context.Background()

	out, err := reg.Call(ctx, "echo", json.RawMessage(`{"text":"hello","times":2}`))
	require.NoError(t, err)
	assert.Equal(t, "hello", out)

	t.Run("unknown tool", func(t *testing.T) {
		_, err := reg.Call(ctx, "foo", json.RawMessage(`{}`))
		assert.ErrorIs(t, err, ErrUnknownTool)
		var unknown *UnknownToolError
		require.True(t, errors.As(err, &unknown))
		assert.Equal(t, "foo", unknown.Name)
	})

	t.Run("missing required argument", func(t *testing.T) {
		_, err := reg.Call(ctx, "echo", json.RawMessage(`{}`))
		assert.ErrorIs(t, err, ErrInvalidArguments)
	})

	t.Run("wrong type", func(t *testing.T) {
		_, err := reg.Call(ctx, "echo", json.RawMessage(`{"text":"x","times":"two"}`))
		assert.ErrorIs(t, err, ErrInvalidArguments)
	})

	t.Run("not an object", func(t *testing.T) {
		_, err := reg.Call(ctx, "echo", json.RawMessage(`[1,2]`))
		var invalid *InvalidArgumentsError
		require.True(t, errors.As(err, &invalid))
		assert.Equal(t, "echo", invalid.Tool)
	})

	t.Run("handler failure", func(t *testing.T) {
		boom := errors.New("boom")
		r := MustRegistry(Descriptor{Name: "fail", Handler: func(context.Context, map[string]any) (any, error) {
			return nil, boom
		}})
		_, err := r.Call(ctx, "fail", nil)
		assert.ErrorIs(t, err, ErrExecution)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("context errors are not wrapped", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		r := MustRegistry(Descriptor{Name: "wait", Handler: func(ctx context.Context, _ map[string]any) (any, error) {
			return nil, ctx.Err()
		}})
		_, err := r.Call(cctx, "wait", nil)
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, ErrExecution)
	})
}

func TestRegistry_HandlerGetsOwnArgs(t *testing.T) {
	reg := MustRegistry(Descriptor{Name: "mutate", Handler: func(_ context.Context, args map[string]any) (any, error) {
		args["injected"] = true
		return len(args), nil
	}})
	for range 2 {
		out, err := reg.Call(context.Background(), "mutate", json.RawMessage(`{"a":1}`))
		require.NoError(t, err)
		assert.Equal(t, 2, out)
	}
}

func TestRegistry_Subset(t *testing.T) {
	other := Descriptor{Name: "other", Handler: echoTool().Handler}
	reg := MustRegistry(echoTool(), other)

	sub, err := reg.Subset("other")
	require.NoError(t, err)
	assert.Equal(t, []string{"other"}, sub.Names())

	_, err = reg.Subset("missing")
	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestRegistry_Definitions(t *testing.T) {
	reg := MustRegistry(echoTool(), Descriptor{Name: "bare", Handler: echoTool().Handler})

	defs := reg.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "function", defs[0].Type)
	assert.Equal(t, "echo", defs[0].Function.Name)

	params, err := json.Marshal(defs[0].Function.Parameters)
	require.NoError(t, err)
	assert.Contains(t, string(params), `"required":["text"]`)

	bare, err := json.Marshal(defs[1].Function.Parameters)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"object","properties":{}}`, string(bare))

	var nilReg *Registry
	assert.Nil(t, nilReg.Definitions())
	assert.Equal(t, 0, nilReg.Len())
}

type searchArgs struct {
	Query string `json:"query" jsonschema:"the search query"`
	Limit int    `json:"limit,omitempty"`
}

func TestNew(t *testing.T) {
	d, err := New("typed_search", "Typed search", func(_ context.Context, in searchArgs) (any, error) {
		return in.Query + "/" + string(rune('0'+in.Limit)), nil
	})
	require.NoError(t, err)

	reg := MustRegistry(d)
	out, err := reg.Call(context.Background(), "typed_search", json.RawMessage(`{"query":"go","limit":3}`))
	require.NoError(t, err)
	assert.Equal(t, "go/3", out)

	_, err = reg.Call(context.Background(), "typed_search", json.RawMessage(`{"limit":3}`))
	assert.ErrorIs(t, err, ErrInvalidArguments)
}

func TestFormatResult(t *testing.T) {
	s, err := FormatResult("plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", s)

	s, err = FormatResult(nil)
	require.NoError(t, err)
	assert.Empty(t, s)

	s, err = FormatResult([]SearchResult{{Title: "t", URL: "u", Content: "c"}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"title":"t","url":"u","content":"c"}]`, s)

	_, err = FormatResult(make(chan int))
	assert.Error(t, err)
}
