package tool

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/tmc/langchaingo/tools"
)

// FromLangchain adapts a langchaingo tool. The model passes the tool's string
// input as the "input" argument.
func FromLangchain(t tools.Tool) Descriptor {
	return Descriptor{
		Name:        t.Name(),
		Description: t.Description(),
		Schema: ObjectSchema(map[string]*jsonschema.Schema{
			"input": {Type: "string", Description: "Input passed to the tool"},
		}, "input"),
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			input, ok := args["input"].(string)
			if !ok {
				return nil, fmt.Errorf("input must be a string")
			}
			return t.Call(ctx, input)
		},
	}
}
