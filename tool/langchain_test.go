package tool

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upperTool struct{}

func (upperTool) Name() string        { return "upper" }
func (upperTool) Description() string { return "Upper-cases the input" }
func (upperTool) Call(_ context.Context, input string) (string, error) {
	return strings.ToUpper(input), nil
}

func TestFromLangchain(t *testing.T) {
	reg := MustRegistry(FromLangchain(upperTool{}))

	d, ok := reg.Lookup("upper")
	require.True(t, ok)
	assert.Equal(t, "Upper-cases the input", d.Description)

	out, err := reg.Call(context.Background(), "upper", json.RawMessage(`{"input":"gdp"}`))
	require.NoError(t, err)
	assert.Equal(t, "GDP", out)

	_, err = reg.Call(context.Background(), "upper", json.RawMessage(`{"input":5}`))
	assert.ErrorIs(t, err, ErrInvalidArguments)
}
