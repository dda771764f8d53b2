package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/lectern/lectern/internal/course"
	"github.com/lectern/lectern/internal/store"
)

// OutlineToolName is the Genkit tool name for fetching a course outline.
const OutlineToolName = "get_course_outline"

const outlineToolDescription = "Get the complete outline of a course: title, link, and the full numbered lesson list. " +
	"Use this for questions about course structure, what a course covers, or lesson titles."

// OutlineInput defines the input schema for get_course_outline.
type OutlineInput struct {
	CourseName string `json:"course_name" jsonschema_description:"Course title to outline (partial names match)"`
}

// Outline is the course outline tool.
type Outline struct {
	store  ContentSearcher
	logger *slog.Logger
}

// NewOutline creates the outline tool.
func NewOutline(searcher ContentSearcher, logger *slog.Logger) (*Outline, error) {
	if searcher == nil {
		return nil, errors.New("content searcher is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Outline{store: searcher, logger: logger}, nil
}

// Name returns the tool's unique identifier.
func (t *Outline) Name() string { return OutlineToolName }

// Description returns the tool's functionality description.
func (t *Outline) Description() string { return outlineToolDescription }

// Call executes the outline lookup with a generic JSON object input.
func (t *Outline) Call(ctx context.Context, input map[string]any) (Output, error) {
	in, err := decodeInput[OutlineInput](input)
	if err != nil {
		return Output{}, err
	}
	return t.outline(ctx, in)
}

// Define registers the tool with Genkit.
func (t *Outline) Define(g *genkit.Genkit) ai.Tool {
	return genkit.DefineTool(g, t.Name(), t.Description(),
		func(tctx *ai.ToolContext, in OutlineInput) (string, error) {
			out, err := t.outline(tctx, in)
			if err != nil {
				return "", err
			}
			return out.Text, nil
		})
}

func (t *Outline) outline(ctx context.Context, in OutlineInput) (Output, error) {
	if strings.TrimSpace(in.CourseName) == "" {
		return Output{}, errors.New("course_name is required")
	}

	t.logger.Info("get_course_outline called", "course_name", in.CourseName)

	title, err := t.store.ResolveCourseName(ctx, in.CourseName)
	if err != nil {
		if errors.Is(err, store.ErrCourseNotFound) {
			return Output{Text: fmt.Sprintf("No course found matching '%s'", in.CourseName)}, nil
		}
		return Output{}, fmt.Errorf("resolving course name: %w", err)
	}

	c, err := t.store.Outline(ctx, title)
	if err != nil {
		return Output{}, fmt.Errorf("loading outline for %q: %w", title, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Course: %s\n", c.Title)
	if c.Link != "" {
		fmt.Fprintf(&b, "Course Link: %s\n", c.Link)
	}
	if c.Instructor != "" {
		fmt.Fprintf(&b, "Instructor: %s\n", c.Instructor)
	}
	if len(c.Lessons) == 0 {
		b.WriteString("\nNo lessons recorded for this course.")
	} else {
		b.WriteString("\nLessons:\n")
		for _, l := range c.Lessons {
			fmt.Fprintf(&b, "%d. %s\n", l.Number, l.Title)
		}
	}

	return Output{
		Text:    strings.TrimRight(b.String(), "\n"),
		Sources: []course.Source{{Label: c.Title, Link: c.Link}},
	}, nil
}
