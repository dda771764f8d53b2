package rag

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/lectern/lectern/internal/course"
	"github.com/lectern/lectern/internal/generator"
	"github.com/lectern/lectern/internal/log"
	"github.com/lectern/lectern/internal/session"
)

// fakeStore records indexed courses in memory.
type fakeStore struct {
	titles []string
	err    error
}

func (f *fakeStore) AddCourse(_ context.Context, c *course.Course, _ []course.Chunk) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, t := range f.titles {
		if t == c.Title {
			return false, nil
		}
	}
	f.titles = append(f.titles, c.Title)
	return true, nil
}

func (f *fakeStore) CourseCount() int { return len(f.titles) }

func (f *fakeStore) CourseTitles() []string { return f.titles }

// fakeAnswerer returns a canned result and records the history it saw.
type fakeAnswerer struct {
	result      *generator.Result
	err         error
	lastQuery   string
	lastHistory string
}

func (f *fakeAnswerer) Generate(_ context.Context, query, history string) (*generator.Result, error) {
	f.lastQuery = query
	f.lastHistory = history
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newTestSystem(t *testing.T, st CourseStore, ans Answerer) *System {
	t.Helper()
	proc, err := course.NewProcessor(800, 100, log.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	sys, err := New(Config{
		Processor: proc,
		Store:     st,
		Sessions:  session.New(2, log.NewNop()),
		Generator: ans,
		Logger:    log.NewNop(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return sys
}

func TestQuery_NewSession(t *testing.T) {
	ans := &fakeAnswerer{result: &generator.Result{
		Answer:  "the answer",
		Sources: []course.Source{{Label: "C - Lesson 1"}},
	}}
	sys := newTestSystem(t, &fakeStore{}, ans)

	got, err := sys.Query(context.Background(), "what is X?", "")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if got.Text != "the answer" {
		t.Errorf("Text = %q", got.Text)
	}
	if got.SessionID == uuid.Nil {
		t.Error("expected a generated session ID")
	}
	if len(got.Sources) != 1 {
		t.Errorf("got %d sources, want 1", len(got.Sources))
	}
	if ans.lastHistory != "" {
		t.Errorf("fresh session should have empty history, got %q", ans.lastHistory)
	}
}

func TestQuery_HistoryCarriesAcrossTurns(t *testing.T) {
	ans := &fakeAnswerer{result: &generator.Result{Answer: "first answer"}}
	sys := newTestSystem(t, &fakeStore{}, ans)

	first, err := sys.Query(context.Background(), "first question", "")
	if err != nil {
		t.Fatal(err)
	}

	ans.result = &generator.Result{Answer: "second answer"}
	if _, err := sys.Query(context.Background(), "second question", first.SessionID.String()); err != nil {
		t.Fatal(err)
	}

	want := "User: first question\nAssistant: first answer"
	if ans.lastHistory != want {
		t.Errorf("history = %q, want %q", ans.lastHistory, want)
	}
}

func TestQuery_InvalidSessionID(t *testing.T) {
	sys := newTestSystem(t, &fakeStore{}, &fakeAnswerer{result: &generator.Result{Answer: "a"}})

	_, err := sys.Query(context.Background(), "q", "not-a-uuid")
	if !errors.Is(err, ErrInvalidSession) {
		t.Errorf("error = %v, want ErrInvalidSession", err)
	}
}

func TestQuery_EmptyQuery(t *testing.T) {
	sys := newTestSystem(t, &fakeStore{}, &fakeAnswerer{})

	if _, err := sys.Query(context.Background(), "   ", ""); err == nil {
		t.Error("blank query should be rejected")
	}
}

func TestQuery_GeneratorErrorNotRecorded(t *testing.T) {
	ans := &fakeAnswerer{err: generator.ErrGeneration}
	sys := newTestSystem(t, &fakeStore{}, ans)

	id := sys.sessions.Create()
	_, err := sys.Query(context.Background(), "q", id.String())
	if !errors.Is(err, generator.ErrGeneration) {
		t.Errorf("error = %v, want ErrGeneration", err)
	}
	if len(sys.sessions.History(id)) != 0 {
		t.Error("failed query must not be recorded in history")
	}
}

func TestClearSession(t *testing.T) {
	sys := newTestSystem(t, &fakeStore{}, &fakeAnswerer{result: &generator.Result{Answer: "a"}})

	got, err := sys.Query(context.Background(), "q", "")
	if err != nil {
		t.Fatal(err)
	}

	if err := sys.ClearSession(got.SessionID.String()); err != nil {
		t.Errorf("ClearSession() error = %v", err)
	}
	// Idempotent for unknown sessions.
	if err := sys.ClearSession(uuid.NewString()); err != nil {
		t.Errorf("ClearSession() on unknown session: %v", err)
	}
	if err := sys.ClearSession("garbage"); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("error = %v, want ErrInvalidSession", err)
	}
}

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestAddCourseDocument(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "one.txt", "Course Title: Solo Course\n\nLesson 1: Only\nSome content here.\n")

	st := &fakeStore{}
	sys := newTestSystem(t, st, &fakeAnswerer{})

	c, chunks, err := sys.AddCourseDocument(context.Background(), filepath.Join(dir, "one.txt"))
	if err != nil {
		t.Fatalf("AddCourseDocument() error = %v", err)
	}
	if c.Title != "Solo Course" {
		t.Errorf("Title = %q", c.Title)
	}
	if chunks == 0 {
		t.Error("expected chunks to be indexed")
	}

	// Re-ingesting the same course adds nothing.
	_, chunks, err = sys.AddCourseDocument(context.Background(), filepath.Join(dir, "one.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if chunks != 0 {
		t.Errorf("duplicate ingestion added %d chunks, want 0", chunks)
	}
}

func TestAddCourseFolder(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.txt", "Course Title: Course A\n\nLesson 1: Intro\nContent for course A lesson one.\n")
	writeDoc(t, dir, "b.txt", "Course Title: Course B\n\nLesson 1: Intro\nContent for course B lesson one.\n")
	writeDoc(t, dir, "broken.txt", "This file has no title header at all.\n")
	writeDoc(t, dir, "notes.md", "# not a transcript\n")

	st := &fakeStore{}
	sys := newTestSystem(t, st, &fakeAnswerer{})

	courses, chunks, err := sys.AddCourseFolder(context.Background(), dir)
	if err != nil {
		t.Fatalf("AddCourseFolder() error = %v", err)
	}
	if courses != 2 {
		t.Errorf("courses = %d, want 2 (malformed and non-txt skipped)", courses)
	}
	if chunks == 0 {
		t.Error("expected chunks to be indexed")
	}

	// Second pass is idempotent.
	courses, chunks, err = sys.AddCourseFolder(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	if courses != 0 || chunks != 0 {
		t.Errorf("re-ingestion added %d courses / %d chunks, want 0/0", courses, chunks)
	}
}

// flakyStore fails the first AddCourse call, then behaves like fakeStore.
type flakyStore struct {
	fakeStore
	failures int
}

func (f *flakyStore) AddCourse(ctx context.Context, c *course.Course, chunks []course.Chunk) (bool, error) {
	if f.failures > 0 {
		f.failures--
		return false, errors.New("embedding backend unavailable")
	}
	return f.fakeStore.AddCourse(ctx, c, chunks)
}

func TestAddCourseFolder_ContinuesAfterStoreFailure(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.txt", "Course Title: Course A\n\nLesson 1: Intro\nContent for course A lesson one.\n")
	writeDoc(t, dir, "b.txt", "Course Title: Course B\n\nLesson 1: Intro\nContent for course B lesson one.\n")

	st := &flakyStore{failures: 1}
	sys := newTestSystem(t, st, &fakeAnswerer{})

	courses, _, err := sys.AddCourseFolder(context.Background(), dir)
	if err != nil {
		t.Fatalf("a per-document store failure must not fail the batch, got %v", err)
	}
	if courses != 1 {
		t.Errorf("courses = %d, want 1", courses)
	}
	// The document after the failing one must still reach the store.
	if len(st.titles) != 1 || st.titles[0] != "Course B" {
		t.Errorf("store holds %v, want [Course B]", st.titles)
	}
}

func TestAddCourseFolder_MissingDir(t *testing.T) {
	sys := newTestSystem(t, &fakeStore{}, &fakeAnswerer{})

	courses, chunks, err := sys.AddCourseFolder(context.Background(), filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("missing directory should not fail, got %v", err)
	}
	if courses != 0 || chunks != 0 {
		t.Errorf("got %d/%d, want 0/0", courses, chunks)
	}
}

func TestStats(t *testing.T) {
	st := &fakeStore{titles: []string{"Course A", "Course B"}}
	sys := newTestSystem(t, st, &fakeAnswerer{})

	stats := sys.Stats()
	if stats.TotalCourses != 2 {
		t.Errorf("TotalCourses = %d, want 2", stats.TotalCourses)
	}
	if len(stats.CourseTitles) != 2 {
		t.Errorf("CourseTitles = %v", stats.CourseTitles)
	}
}

func TestNew_Validation(t *testing.T) {
	proc, _ := course.NewProcessor(800, 100, log.NewNop())
	valid := Config{
		Processor: proc,
		Store:     &fakeStore{},
		Sessions:  session.New(2, log.NewNop()),
		Generator: &fakeAnswerer{},
		Logger:    log.NewNop(),
	}

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"missing processor", func(c *Config) { c.Processor = nil }},
		{"missing store", func(c *Config) { c.Store = nil }},
		{"missing sessions", func(c *Config) { c.Sessions = nil }},
		{"missing generator", func(c *Config) { c.Generator = nil }},
		{"missing logger", func(c *Config) { c.Logger = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.modify(&cfg)
			if _, err := New(cfg); err == nil {
				t.Error("New() should fail")
			}
		})
	}
}
