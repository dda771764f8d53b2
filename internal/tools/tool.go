// Package tools defines the retrieval tools exposed to the language model
// and the registry that executes them.
//
// Tools carry both metadata (name, description for the LLM) and execution
// logic. The orchestrator never executes tools through Genkit's automatic
// loop; it inspects returned tool requests and dispatches them through the
// Registry so it stays in control of how many searches a query may spend.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/lectern/lectern/internal/course"
	"github.com/lectern/lectern/internal/store"
)

// Output is the result of a tool execution: the text block handed back to
// the model and the citations collected while producing it.
type Output struct {
	Text    string
	Sources []course.Source
}

// Tool is a single LLM-callable operation.
type Tool interface {
	// Name returns the unique identifier of the tool.
	Name() string

	// Description returns a description of the tool's functionality.
	// The LLM uses this to decide when to call the tool.
	Description() string

	// Call executes the tool with a decoded JSON object as input.
	Call(ctx context.Context, input map[string]any) (Output, error)

	// Define registers the tool with Genkit so the model sees a typed
	// input schema, and returns the reference for generate options.
	Define(g *genkit.Genkit) ai.Tool
}

// ContentSearcher is the slice of the vector store the tools depend on.
// Interfaces are defined by the consumer; *store.Store satisfies this.
type ContentSearcher interface {
	ResolveCourseName(ctx context.Context, name string) (string, error)
	Search(ctx context.Context, query string, opts ...store.SearchOption) ([]store.Result, error)
	Outline(ctx context.Context, title string) (*course.Course, error)
	LessonLink(ctx context.Context, title string, lesson int) (string, error)
}

// decodeInput converts a generic JSON object into the tool's typed input.
// Genkit hands tool arguments over as map[string]any, so the conversion
// goes through a JSON round-trip.
func decodeInput[In any](input map[string]any) (In, error) {
	var typed In

	data, err := json.Marshal(input)
	if err != nil {
		return typed, fmt.Errorf("marshaling tool input: %w", err)
	}
	if err := json.Unmarshal(data, &typed); err != nil {
		return typed, fmt.Errorf("invalid tool input, expected %T: %w", typed, err)
	}
	return typed, nil
}
