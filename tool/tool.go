package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/tmc/langchaingo/llms"
)

// Handler executes a tool with arguments that already passed schema validation.
// The result is either a string or a JSON-encodable value.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Descriptor describes a callable tool.
type Descriptor struct {
	Name        string
	Description string

	// Schema is the JSON schema of the arguments object. A nil schema accepts
	// any object.
	Schema *jsonschema.Schema

	Handler Handler
}

// ObjectSchema is a shorthand for an object schema with the given properties.
func ObjectSchema(properties map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

// New builds a Descriptor whose schema is inferred from T. The handler receives
// the arguments decoded into T.
//
//	type searchArgs struct {
//		Query string `json:"query" jsonschema:"the search query"`
//	}
//	d, err := tool.New("search", "Search the web", func(ctx context.Context, in searchArgs) (any, error) { ... })
func New[T any](name, description string, fn func(ctx context.Context, in T) (any, error)) (Descriptor, error) {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		return Descriptor{}, fmt.Errorf("infer schema for tool %s: %w", name, err)
	}
	return Descriptor{
		Name:        name,
		Description: description,
		Schema:      schema,
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			data, err := json.Marshal(args)
			if err != nil {
				return nil, err
			}
			var in T
			if err := json.Unmarshal(data, &in); err != nil {
				return nil, err
			}
			return fn(ctx, in)
		},
	}, nil
}

type entry struct {
	desc     Descriptor
	resolved *jsonschema.Resolved
}

// Registry holds tool descriptors by name. Descriptors are immutable once
// registered. A Registry is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*entry
	order []string
}

// NewRegistry creates a registry holding descs.
func NewRegistry(descs ...Descriptor) (*Registry, error) {
	r := &Registry{tools: make(map[string]*entry)}
	for _, d := range descs {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// MustRegistry is like NewRegistry but panics on error.
func MustRegistry(descs ...Descriptor) *Registry {
	r, err := NewRegistry(descs...)
	if err != nil {
		panic(err)
	}
	return r
}

// Register adds a tool. Names must be unique and the schema must resolve. The
// schema must not be modified after registration.
func (r *Registry) Register(d Descriptor) error {
	if d.Name == "" {
		return errors.New("tool name is empty")
	}
	if d.Handler == nil {
		return fmt.Errorf("tool %s has no handler", d.Name)
	}

	e := &entry{desc: d}
	if d.Schema != nil {
		resolved, err := d.Schema.Resolve(nil)
		if err != nil {
			return fmt.Errorf("tool %s: invalid schema: %w", d.Name, err)
		}
		e.resolved = resolved
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[d.Name]; exists {
		return fmt.Errorf("tool %s already registered", d.Name)
	}
	r.tools[d.Name] = e
	r.order = append(r.order, d.Name)
	return nil
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.tools[name]
	if !ok {
		return Descriptor{}, false
	}
	return e.desc, true
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Subset returns a new registry holding only the named tools.
func (r *Registry) Subset(names ...string) (*Registry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sub := &Registry{tools: make(map[string]*entry, len(names))}
	for _, name := range names {
		e, ok := r.tools[name]
		if !ok {
			return nil, &UnknownToolError{Name: name}
		}
		if _, dup := sub.tools[name]; dup {
			continue
		}
		sub.tools[name] = e
		sub.order = append(sub.order, name)
	}
	return sub, nil
}

// Definitions returns the tool definitions passed to the model.
func (r *Registry) Definitions() []llms.Tool {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]llms.Tool, 0, len(r.order))
	for _, name := range r.order {
		d := r.tools[name].desc
		var params any = map[string]any{"type": "object", "properties": map[string]any{}}
		if d.Schema != nil {
			params = d.Schema
		}
		defs = append(defs, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  params,
			},
		})
	}
	return defs
}

// Validate decodes raw arguments and checks them against the tool's schema.
func (r *Registry) Validate(name string, raw json.RawMessage) (map[string]any, error) {
	r.mu.RLock()
	e, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnknownToolError{Name: name}
	}
	return e.validate(raw)
}

func (e *entry) validate(raw json.RawMessage) (map[string]any, error) {
	args := map[string]any{}
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, &InvalidArgumentsError{Tool: e.desc.Name, Err: fmt.Errorf("arguments are not a JSON object: %w", err)}
		}
	}
	if e.resolved != nil {
		if err := e.resolved.Validate(args); err != nil {
			return nil, &InvalidArgumentsError{Tool: e.desc.Name, Err: err}
		}
	}
	return args, nil
}

// Call looks up, validates and runs a tool. Failures are reported as
// *UnknownToolError, *InvalidArgumentsError or *ExecutionError. Context errors
// from the handler are returned unwrapped.
func (r *Registry) Call(ctx context.Context, name string, raw json.RawMessage) (any, error) {
	r.mu.RLock()
	e, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnknownToolError{Name: name}
	}

	args, err := e.validate(raw)
	if err != nil {
		return nil, err
	}

	result, err := e.desc.Handler(ctx, maps.Clone(args))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, err
		}
		return nil, &ExecutionError{Tool: name, Err: err}
	}
	return result, nil
}

// FormatResult renders a handler result as message content: strings are kept
// as is, everything else is JSON-encoded.
func FormatResult(result any) (string, error) {
	switch v := result.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("encode tool result: %w", err)
		}
		return string(data), nil
	}
}
