package course

import (
	"errors"
	"strings"
	"testing"
)

const sampleDoc = `Course Title: Test Course
Course Link: https://example.com/course
Course Instructor: Jane Doe

Lesson 0: Introduction
Lesson Link: https://example.com/lesson/0
Welcome to the course. This lesson introduces the topic.

Lesson 1: Getting Deeper
Deeper content goes here. It has several sentences. Each one matters.
`

func TestProcess(t *testing.T) {
	p := newTestProcessor(t, 800, 100)

	course, chunks, err := p.Process("test.txt", strings.NewReader(sampleDoc))
	if err != nil {
		t.Fatalf("Process() failed: %v", err)
	}

	if course.Title != "Test Course" {
		t.Errorf("Title = %q, want %q", course.Title, "Test Course")
	}
	if course.Link != "https://example.com/course" {
		t.Errorf("Link = %q", course.Link)
	}
	if course.Instructor != "Jane Doe" {
		t.Errorf("Instructor = %q", course.Instructor)
	}

	if len(course.Lessons) != 2 {
		t.Fatalf("got %d lessons, want 2", len(course.Lessons))
	}
	if course.Lessons[0].Number != 0 || course.Lessons[0].Title != "Introduction" {
		t.Errorf("lesson 0 = %+v", course.Lessons[0])
	}
	if course.Lessons[0].Link != "https://example.com/lesson/0" {
		t.Errorf("lesson 0 link = %q", course.Lessons[0].Link)
	}
	if course.Lessons[1].Number != 1 || course.Lessons[1].Title != "Getting Deeper" {
		t.Errorf("lesson 1 = %+v", course.Lessons[1])
	}

	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2: %+v", len(chunks), chunks)
	}

	wantFirst := "Course Test Course Lesson 0 content: Welcome to the course. This lesson introduces the topic."
	if chunks[0].Text != wantFirst {
		t.Errorf("chunk 0 text = %q, want %q", chunks[0].Text, wantFirst)
	}
	if chunks[0].LessonNumber != 0 || chunks[0].Index != 0 {
		t.Errorf("chunk 0 = %+v", chunks[0])
	}
	if !strings.HasPrefix(chunks[1].Text, "Course Test Course Lesson 1 content: ") {
		t.Errorf("chunk 1 missing lesson prefix: %q", chunks[1].Text)
	}
	if chunks[1].LessonNumber != 1 || chunks[1].Index != 1 {
		t.Errorf("chunk 1 = %+v", chunks[1])
	}
	for _, c := range chunks {
		if c.CourseTitle != "Test Course" {
			t.Errorf("chunk course title = %q", c.CourseTitle)
		}
	}
}

func TestProcess_Deterministic(t *testing.T) {
	p := newTestProcessor(t, 800, 100)

	_, first, err := p.Process("test.txt", strings.NewReader(sampleDoc))
	if err != nil {
		t.Fatalf("Process() failed: %v", err)
	}
	_, second, err := p.Process("test.txt", strings.NewReader(sampleDoc))
	if err != nil {
		t.Fatalf("Process() failed: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestProcess_MissingTitle(t *testing.T) {
	p := newTestProcessor(t, 800, 100)

	_, _, err := p.Process("bad.txt", strings.NewReader("Hello world. No header here."))
	if err == nil {
		t.Fatal("expected error for document without title")
	}

	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("error %v is not a *FormatError", err)
	}
	if formatErr.Name != "bad.txt" {
		t.Errorf("FormatError.Name = %q, want %q", formatErr.Name, "bad.txt")
	}
	if !errors.Is(err, ErrMissingTitle) {
		t.Errorf("error %v does not wrap ErrMissingTitle", err)
	}
}

func TestProcess_EmptyDocument(t *testing.T) {
	p := newTestProcessor(t, 800, 100)

	_, _, err := p.Process("empty.txt", strings.NewReader(""))
	if !errors.Is(err, ErrEmptyDocument) {
		t.Fatalf("error = %v, want ErrEmptyDocument", err)
	}
}

func TestProcess_NoLessonMarkers(t *testing.T) {
	doc := "Course Title: Plain Course\nJust some plain text. More text here."
	p := newTestProcessor(t, 800, 100)

	course, chunks, err := p.Process("plain.txt", strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Process() failed: %v", err)
	}

	if len(course.Lessons) != 0 {
		t.Errorf("got %d lessons, want 0", len(course.Lessons))
	}
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if !strings.HasPrefix(chunks[0].Text, "Course Plain Course content: ") {
		t.Errorf("chunk missing course prefix: %q", chunks[0].Text)
	}
	if chunks[0].LessonNumber != 0 {
		t.Errorf("LessonNumber = %d, want 0", chunks[0].LessonNumber)
	}
}

func TestProcess_OptionalHeaderFields(t *testing.T) {
	doc := "Course Title: Minimal\nLesson 1: Only Lesson\nSome lesson content here."
	p := newTestProcessor(t, 800, 100)

	course, chunks, err := p.Process("minimal.txt", strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Process() failed: %v", err)
	}

	if course.Link != "" || course.Instructor != "" {
		t.Errorf("optional fields should be empty, got link=%q instructor=%q",
			course.Link, course.Instructor)
	}
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
}

func TestProcess_EmptyLessonBody(t *testing.T) {
	doc := `Course Title: Sparse Course
Lesson 1: Empty Lesson
Lesson 2: Full Lesson
This lesson actually has content.`

	p := newTestProcessor(t, 800, 100)
	course, chunks, err := p.Process("sparse.txt", strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Process() failed: %v", err)
	}

	// The empty lesson appears in the outline but yields no chunks.
	if len(course.Lessons) != 2 {
		t.Fatalf("got %d lessons, want 2", len(course.Lessons))
	}
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].LessonNumber != 2 {
		t.Errorf("chunk lesson = %d, want 2", chunks[0].LessonNumber)
	}
	if chunks[0].Index != 0 {
		t.Errorf("chunk index = %d, want 0", chunks[0].Index)
	}
}

func TestProcess_UntitledLessonMarker(t *testing.T) {
	doc := `Course Title: Sparse Course

Lesson 2:
Content under a marker that carries no title.
`
	p := newTestProcessor(t, 800, 100)

	course, chunks, err := p.Process("sparse.txt", strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Process() failed: %v", err)
	}

	// The marker defines a real lesson even without a title, so the outline
	// and the chunk metadata agree.
	if len(course.Lessons) != 1 {
		t.Fatalf("got %d lessons, want 1", len(course.Lessons))
	}
	if course.Lessons[0].Number != 2 || course.Lessons[0].Title != "" {
		t.Errorf("lesson = %+v, want number 2 with empty title", course.Lessons[0])
	}

	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].LessonNumber != 2 {
		t.Errorf("LessonNumber = %d, want 2", chunks[0].LessonNumber)
	}
	wantPrefix := "Course Sparse Course Lesson 2 content: "
	if !strings.HasPrefix(chunks[0].Text, wantPrefix) {
		t.Errorf("chunk text %q missing prefix %q", chunks[0].Text, wantPrefix)
	}
}

func TestNewProcessor_Validation(t *testing.T) {
	tests := []struct {
		name      string
		chunkSize int
		overlap   int
		wantErr   bool
	}{
		{"valid", 800, 100, false},
		{"zero chunk size", 0, 0, true},
		{"negative overlap", 800, -1, true},
		{"overlap equals chunk size", 100, 100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProcessor(tt.chunkSize, tt.overlap, nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewProcessor(%d, %d) error = %v, wantErr %v",
					tt.chunkSize, tt.overlap, err, tt.wantErr)
			}
		})
	}
}
