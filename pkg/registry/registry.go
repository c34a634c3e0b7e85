package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/mitchellh/mapstructure"
)

// ErrToolNotFound is returned when executing an unknown tool.
var ErrToolNotFound = errors.New("tool not found")

// ToolFunction defines the signature for a tool implementation.
// It receives a context and the decoded JSON arguments, and returns a result or error.
type ToolFunction func(ctx context.Context, args map[string]any) (any, error)

// Tool is a callable capability exposed to a model.
type Tool struct {
	Name        string
	Description string
	// Parameters is the JSON Schema of the argument object.
	Parameters map[string]any
	Fn         ToolFunction
}

// Typed builds a Tool whose arguments are decoded into T.
// The parameter schema is reflected from T's json and jsonschema tags.
func Typed[T any](name, description string, fn func(ctx context.Context, args T) (any, error)) Tool {
	return Tool{
		Name:        name,
		Description: description,
		Parameters:  SchemaFor[T](),
		Fn: func(ctx context.Context, raw map[string]any) (any, error) {
			var args T
			if err := Decode(raw, &args); err != nil {
				return nil, fmt.Errorf("invalid arguments for %s: %w", name, err)
			}
			return fn(ctx, args)
		},
	}
}

// SchemaFor reflects an inline JSON Schema for T.
func SchemaFor[T any]() map[string]any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var zero T
	schema := reflector.Reflect(zero)

	data, err := json.Marshal(schema)
	if err != nil {
		panic(fmt.Sprintf("registry: cannot marshal schema for %T: %v", zero, err))
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		panic(fmt.Sprintf("registry: cannot unmarshal schema for %T: %v", zero, err))
	}
	delete(out, "$schema")
	delete(out, "$id")
	return out
}

// Decode maps loosely typed JSON arguments onto a struct using its json tags.
func Decode(raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// Registry manages the available tools.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates a registry holding tools.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{
		tools: make(map[string]Tool),
	}
	for _, t := range tools {
		r.Add(t)
	}
	return r
}

// Add registers a tool. A tool with the same name is overwritten.
func (r *Registry) Add(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name] = t
}

// Register adds an untyped function with an open parameter schema.
func (r *Registry) Register(name string, fn ToolFunction) {
	r.Add(Tool{Name: name, Parameters: map[string]any{"type": "object"}, Fn: fn})
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Tools returns every tool sorted by name.
func (r *Registry) Tools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Subset returns a new registry with only the named tools.
func (r *Registry) Subset(names ...string) (*Registry, error) {
	sub := NewRegistry()
	for _, name := range names {
		t, ok := r.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
		}
		sub.Add(t)
	}
	return sub, nil
}

// Execute looks up a tool by name and executes it.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (any, error) {
	t, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return t.Fn(ctx, args)
}

// ExecuteJSON decodes a JSON argument object and executes the tool.
// Models send arguments in this form.
func (r *Registry) ExecuteJSON(ctx context.Context, name, arguments string) (any, error) {
	args := map[string]any{}
	if arguments != "" {
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return nil, fmt.Errorf("invalid JSON arguments for %s: %w", name, err)
		}
	}
	return r.Execute(ctx, name, args)
}
