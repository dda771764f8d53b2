// Package generator orchestrates answer generation over course materials.
//
// Every query runs through an explicit state machine with at most two model
// passes: a tool-decision pass where the model may request one retrieval
// tool, and a synthesis pass that turns the tool result into the final
// answer. The orchestrator dispatches tool requests itself rather than
// letting Genkit loop, which is how the one-search cap is enforced.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"

	"github.com/lectern/lectern/internal/course"
	"github.com/lectern/lectern/internal/tools"
)

const (
	// fallbackResponseMessage is returned when the model produces an
	// empty final response.
	fallbackResponseMessage = "I couldn't generate a response. Please try rephrasing your question."

	systemPrompt = `You are an AI assistant specialized in course materials and educational content. You answer questions using a search tool over indexed course transcripts and a course outline tool.

Tool usage:
- search_course_content: for questions about specific course content or detailed educational materials
- get_course_outline: for questions about a course's structure, lessons, or what it covers
- At most ONE tool call per question. Decide what to look up, make the call, then answer from the results.
- If the tool returns no results, say so clearly and do not speculate.

Responses:
- Answer the question directly without meta-commentary about searching or your reasoning process.
- Be brief, clear, and accurate.
- For general knowledge questions that don't involve course materials, answer from your own knowledge without calling tools.`
)

// ErrGeneration indicates the language model failed to produce a response.
var ErrGeneration = errors.New("generation failed")

// state tracks where a query is in the two-pass flow.
type state int

const (
	stateInitial state = iota
	stateToolDecision
	stateToolExecution
	stateSynthesis
	stateDone
)

// Result is a completed generation: the answer text and the citations
// collected from tool execution.
type Result struct {
	Answer  string
	Sources []course.Source
}

// ToolExecutor dispatches a named tool request. *tools.Registry satisfies
// this.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, input any) (tools.Output, error)
}

// Config contains all required parameters for the Orchestrator.
type Config struct {
	Model    Model
	Executor ToolExecutor
	ToolRefs []ai.ToolRef // Pre-registered tool references for the decision pass
	Logger   *slog.Logger
}

// validate checks if all required parameters are present.
func (cfg Config) validate() error {
	if cfg.Model == nil {
		return errors.New("model is required")
	}
	if cfg.Executor == nil {
		return errors.New("tool executor is required")
	}
	if len(cfg.ToolRefs) == 0 {
		return errors.New("at least one tool is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	return nil
}

// Orchestrator runs queries through the two-pass generation flow.
// All configuration is captured immutably at construction time, so a single
// instance is safe for concurrent use.
type Orchestrator struct {
	model    Model
	executor ToolExecutor
	toolRefs []ai.ToolRef
	logger   *slog.Logger
}

// New creates an Orchestrator with required configuration.
func New(cfg Config) (*Orchestrator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	refs := make([]ai.ToolRef, len(cfg.ToolRefs))
	copy(refs, cfg.ToolRefs)

	return &Orchestrator{
		model:    cfg.Model,
		executor: cfg.Executor,
		toolRefs: refs,
		logger:   cfg.Logger,
	}, nil
}

// Generate answers a query, optionally grounded in prior conversation
// history (empty string means a fresh conversation).
func (o *Orchestrator) Generate(ctx context.Context, query, history string) (*Result, error) {
	system := systemPrompt
	if history != "" {
		system += "\n\nPrevious conversation:\n" + history
	}

	userMsg := ai.NewUserMessage(ai.NewTextPart(query))

	var (
		current  = stateInitial
		decision *ai.ModelResponse
		toolMsg  *ai.Message
		sources  []course.Source
		answer   string
	)

	for current != stateDone {
		switch current {
		case stateInitial:
			current = stateToolDecision

		case stateToolDecision:
			resp, err := o.model.Generate(ctx,
				ai.WithSystem(system),
				ai.WithMessages(userMsg),
				ai.WithTools(o.toolRefs...),
				ai.WithReturnToolRequests(true),
			)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
			}
			decision = resp

			if len(resp.ToolRequests()) == 0 {
				answer = resp.Text()
				current = stateDone
				break
			}
			current = stateToolExecution

		case stateToolExecution:
			requests := decision.ToolRequests()
			// Only the first request is honored; any extras are dropped
			// to keep a query at one search.
			req := requests[0]
			if len(requests) > 1 {
				o.logger.Warn("model requested multiple tools, executing first only",
					"requested", len(requests), "executing", req.Name)
			}

			o.logger.Debug("executing tool", "name", req.Name)
			out, err := o.executor.Execute(ctx, req.Name, req.Input)
			if err != nil {
				// Tool failure degrades to an error-bearing tool result;
				// the model still gets a synthesis pass to tell the user.
				o.logger.Warn("tool execution failed", "name", req.Name, "error", err)
				out = tools.Output{Text: fmt.Sprintf("Tool execution failed: %v", err)}
			}
			sources = out.Sources

			toolMsg = ai.NewMessage(ai.RoleTool, nil, ai.NewToolResponsePart(&ai.ToolResponse{
				Name:   req.Name,
				Ref:    req.Ref,
				Output: out.Text,
			}))
			current = stateSynthesis

		case stateSynthesis:
			// No tools on the second pass: the model must answer from
			// what it has.
			resp, err := o.model.Generate(ctx,
				ai.WithSystem(system),
				ai.WithMessages(userMsg, decision.Message, toolMsg),
			)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
			}
			if n := len(resp.ToolRequests()); n > 0 {
				o.logger.Warn("model requested tools during synthesis, ignoring", "count", n)
			}
			answer = resp.Text()
			current = stateDone
		}
	}

	if strings.TrimSpace(answer) == "" {
		o.logger.Warn("model returned empty response")
		answer = fallbackResponseMessage
	}

	return &Result{Answer: answer, Sources: sources}, nil
}
