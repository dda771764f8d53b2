package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// ErrUnknownTool is returned when the model requests a tool that was never
// registered.
var ErrUnknownTool = errors.New("unknown tool")

// Registry holds the closed set of tools the orchestrator may execute.
// Registration happens once during setup; after that the registry is
// read-only and safe for concurrent use.
type Registry struct {
	logger *slog.Logger
	order  []string
	tools  map[string]Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger: logger,
		tools:  make(map[string]Tool),
	}
}

// Register adds a tool. Names must be unique.
func (r *Registry) Register(t Tool) error {
	if t == nil {
		return errors.New("tool is nil")
	}
	name := t.Name()
	if name == "" {
		return errors.New("tool has empty name")
	}
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}

	r.tools[name] = t
	r.order = append(r.order, name)
	r.logger.Debug("registered tool", "name", name)
	return nil
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Define registers every tool with Genkit and returns the references to
// pass into generate options.
func (r *Registry) Define(g *genkit.Genkit) []ai.ToolRef {
	refs := make([]ai.ToolRef, 0, len(r.order))
	for _, name := range r.order {
		refs = append(refs, r.tools[name].Define(g))
	}
	return refs
}

// Execute dispatches a tool request by name. Input is whatever the model
// produced for the call; anything JSON-object-shaped is accepted.
func (r *Registry) Execute(ctx context.Context, name string, input any) (Output, error) {
	t, ok := r.tools[name]
	if !ok {
		return Output{}, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}

	obj, err := toObject(input)
	if err != nil {
		return Output{}, fmt.Errorf("tool %q: %w", name, err)
	}
	return t.Call(ctx, obj)
}

// toObject normalizes the model-provided input into a JSON object. Model
// outputs arrive as map[string]any in practice, but the round-trip also
// accepts typed structs.
func toObject(input any) (map[string]any, error) {
	if input == nil {
		return map[string]any{}, nil
	}
	if obj, ok := input.(map[string]any); ok {
		return obj, nil
	}

	data, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("marshaling input: %w", err)
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("input is not a JSON object: %w", err)
	}
	return obj, nil
}
