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

// SearchToolName is the Genkit tool name for searching course content.
const SearchToolName = "search_course_content"

const searchToolDescription = "Search course materials with smart course name matching and lesson filtering. " +
	"Finds transcript chunks that are semantically related to the query. " +
	"Returns: matched excerpts labeled with their course and lesson. " +
	"Use this for questions about specific course content or detailed educational materials."

// SearchInput defines the input schema for search_course_content.
type SearchInput struct {
	Query        string `json:"query" jsonschema_description:"What to search for in the course content"`
	CourseName   string `json:"course_name,omitempty" jsonschema_description:"Course title to search within (partial names match, e.g. 'MCP')"`
	LessonNumber *int   `json:"lesson_number,omitempty" jsonschema_description:"Specific lesson number to search within (e.g. 3)"`
}

// Search is the course content search tool.
type Search struct {
	store  ContentSearcher
	logger *slog.Logger
}

// NewSearch creates the search tool.
func NewSearch(searcher ContentSearcher, logger *slog.Logger) (*Search, error) {
	if searcher == nil {
		return nil, errors.New("content searcher is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Search{store: searcher, logger: logger}, nil
}

// Name returns the tool's unique identifier.
func (t *Search) Name() string { return SearchToolName }

// Description returns the tool's functionality description.
func (t *Search) Description() string { return searchToolDescription }

// Call executes the search with a generic JSON object input.
func (t *Search) Call(ctx context.Context, input map[string]any) (Output, error) {
	in, err := decodeInput[SearchInput](input)
	if err != nil {
		return Output{}, err
	}
	return t.search(ctx, in)
}

// Define registers the tool with Genkit.
func (t *Search) Define(g *genkit.Genkit) ai.Tool {
	return genkit.DefineTool(g, t.Name(), t.Description(),
		func(tctx *ai.ToolContext, in SearchInput) (string, error) {
			out, err := t.search(tctx, in)
			if err != nil {
				return "", err
			}
			return out.Text, nil
		})
}

// search resolves the optional course filter, queries the store, and formats
// the results for the model. An unresolvable course name is reported as tool
// text rather than an error so the model can tell the user.
func (t *Search) search(ctx context.Context, in SearchInput) (Output, error) {
	if strings.TrimSpace(in.Query) == "" {
		return Output{}, errors.New("query is required")
	}

	t.logger.Info("search_course_content called",
		"query", in.Query,
		"course_name", in.CourseName,
		"has_lesson_filter", in.LessonNumber != nil)

	var opts []store.SearchOption
	courseTitle := ""
	if in.CourseName != "" {
		title, err := t.store.ResolveCourseName(ctx, in.CourseName)
		if err != nil {
			if errors.Is(err, store.ErrCourseNotFound) {
				return Output{Text: fmt.Sprintf("No course found matching '%s'", in.CourseName)}, nil
			}
			return Output{}, fmt.Errorf("resolving course name: %w", err)
		}
		courseTitle = title
		opts = append(opts, store.WithCourse(title))
	}
	if in.LessonNumber != nil {
		opts = append(opts, store.WithLesson(*in.LessonNumber))
	}

	results, err := t.store.Search(ctx, in.Query, opts...)
	if err != nil {
		return Output{}, fmt.Errorf("searching course content: %w", err)
	}
	if len(results) == 0 {
		return Output{Text: noResultsMessage(courseTitle, in.LessonNumber)}, nil
	}

	return t.format(ctx, results), nil
}

// format renders results as labeled blocks and collects one source per
// result. Lesson links are looked up best-effort; a missing link only means
// the citation has no URL.
func (t *Search) format(ctx context.Context, results []store.Result) Output {
	blocks := make([]string, 0, len(results))
	sources := make([]course.Source, 0, len(results))

	for _, r := range results {
		label := fmt.Sprintf("%s - Lesson %d", r.CourseTitle, r.LessonNumber)
		blocks = append(blocks, fmt.Sprintf("[%s]\n%s", label, r.Text))

		link, err := t.store.LessonLink(ctx, r.CourseTitle, r.LessonNumber)
		if err != nil {
			t.logger.Debug("lesson link lookup failed",
				"course", r.CourseTitle, "lesson", r.LessonNumber, "error", err)
		}
		sources = append(sources, course.Source{Label: label, Link: link})
	}

	return Output{
		Text:    strings.Join(blocks, "\n\n"),
		Sources: sources,
	}
}

// noResultsMessage mirrors the filters back to the model so it can explain
// what was searched.
func noResultsMessage(courseTitle string, lesson *int) string {
	var b strings.Builder
	b.WriteString("No relevant content found")
	if courseTitle != "" {
		fmt.Fprintf(&b, " in course '%s'", courseTitle)
	}
	if lesson != nil {
		fmt.Fprintf(&b, " in lesson %d", *lesson)
	}
	b.WriteString(".")
	return b.String()
}
