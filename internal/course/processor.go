package course

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Sentinel errors for transcript parsing.
var (
	// ErrMissingTitle indicates the document has no "Course Title:" header line.
	ErrMissingTitle = errors.New("missing course title")

	// ErrEmptyDocument indicates the document contains no content at all.
	ErrEmptyDocument = errors.New("empty document")
)

// FormatError reports a malformed transcript document.
// Callers batch-processing a folder should skip the document and continue;
// use errors.As to detect it and errors.Is against the wrapped sentinel.
type FormatError struct {
	Name string // document name (usually the file name)
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("document %s: %v", e.Name, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Header prefixes recognized at the top of a transcript document.
const (
	titlePrefix      = "Course Title:"
	linkPrefix       = "Course Link:"
	instructorPrefix = "Course Instructor:"
	lessonLinkPrefix = "Lesson Link:"
)

// lessonMarker matches lesson section headers like "Lesson 3: Advanced Topics".
var lessonMarker = regexp.MustCompile(`^Lesson\s+(\d+):\s*(.*)$`)

// Processor parses transcript documents and splits them into chunks.
// It is stateless apart from its configuration and safe for concurrent use.
type Processor struct {
	chunkSize int
	overlap   int
	logger    *slog.Logger
}

// NewProcessor creates a Processor with the given chunking configuration.
// chunkSize is the maximum chunk length in characters; overlap is the
// character budget carried between consecutive chunks.
func NewProcessor(chunkSize, overlap int, logger *slog.Logger) (*Processor, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("overlap %d must be non-negative and smaller than chunk size %d", overlap, chunkSize)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Processor{
		chunkSize: chunkSize,
		overlap:   overlap,
		logger:    logger,
	}, nil
}

// ProcessFile parses the transcript at path.
func (p *Processor) ProcessFile(path string) (*Course, []Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return p.Process(filepath.Base(path), f)
}

// Process parses a transcript document and returns its course metadata and
// content chunks. Parsing is deterministic: the same input always yields the
// same course and chunk sequence.
func (p *Processor) Process(name string, r io.Reader) (*Course, []Chunk, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", name, err)
	}
	if len(lines) == 0 {
		return nil, nil, &FormatError{Name: name, Err: ErrEmptyDocument}
	}

	course, body, err := parseHeader(name, lines)
	if err != nil {
		return nil, nil, err
	}

	chunks := p.chunkLessons(course, body)

	p.logger.Debug("processed document",
		"name", name,
		"course", course.Title,
		"lessons", len(course.Lessons),
		"chunks", len(chunks))

	return course, chunks, nil
}

// readLines reads all lines, dropping the trailing newline of each.
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// parseHeader extracts course metadata from the top of the document and
// returns the remaining body lines. The title line is mandatory; link and
// instructor lines are optional and may appear in either order.
func parseHeader(name string, lines []string) (*Course, []string, error) {
	title, ok := strings.CutPrefix(lines[0], titlePrefix)
	if !ok {
		return nil, nil, &FormatError{Name: name, Err: ErrMissingTitle}
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, nil, &FormatError{Name: name, Err: ErrMissingTitle}
	}

	course := &Course{Title: title}

	i := 1
	for i < len(lines) && i <= 2 {
		switch {
		case strings.HasPrefix(lines[i], linkPrefix):
			course.Link = strings.TrimSpace(strings.TrimPrefix(lines[i], linkPrefix))
		case strings.HasPrefix(lines[i], instructorPrefix):
			course.Instructor = strings.TrimSpace(strings.TrimPrefix(lines[i], instructorPrefix))
		default:
			return course, lines[i:], nil
		}
		i++
	}

	return course, lines[i:], nil
}

// lessonBody pairs a lesson with its raw text during parsing.
// marker distinguishes lessons introduced by a "Lesson N:" line from the
// implicit preamble lesson, independent of whether the marker had a title.
type lessonBody struct {
	lesson Lesson
	marker bool
	text   []string
}

// chunkLessons splits the document body into lessons and chunks each lesson.
// Documents without lesson markers are treated as a single unnumbered lesson
// so plain transcripts still produce searchable content.
func (p *Processor) chunkLessons(course *Course, body []string) []Chunk {
	lessons := splitLessons(body)

	var chunks []Chunk
	index := 0
	for _, lb := range lessons {
		text := strings.TrimSpace(strings.Join(lb.text, "\n"))
		if text == "" {
			if lb.marker {
				course.Lessons = append(course.Lessons, lb.lesson)
			}
			continue
		}

		parts := p.chunkText(text)
		if len(parts) == 0 {
			continue
		}

		// First chunk of each lesson carries identifying context so it
		// stays attributable when retrieved in isolation.
		if lb.marker {
			parts[0] = fmt.Sprintf("Course %s Lesson %d content: %s",
				course.Title, lb.lesson.Number, parts[0])
			course.Lessons = append(course.Lessons, lb.lesson)
		} else {
			parts[0] = fmt.Sprintf("Course %s content: %s", course.Title, parts[0])
		}

		for _, part := range parts {
			chunks = append(chunks, Chunk{
				CourseTitle:  course.Title,
				LessonNumber: lb.lesson.Number,
				Index:        index,
				Text:         part,
			})
			index++
		}
	}

	return chunks
}

// splitLessons groups body lines by lesson marker. Content before the first
// marker (or a document with no markers) forms an implicit lesson 0 with an
// empty title.
func splitLessons(body []string) []lessonBody {
	var lessons []lessonBody
	current := lessonBody{}

	flush := func() {
		if len(current.text) > 0 || current.marker {
			lessons = append(lessons, current)
		}
	}

	for i := 0; i < len(body); i++ {
		line := body[i]
		if m := lessonMarker.FindStringSubmatch(line); m != nil {
			flush()
			number, _ := strconv.Atoi(m[1])
			current = lessonBody{
				lesson: Lesson{Number: number, Title: strings.TrimSpace(m[2])},
				marker: true,
			}

			// Optional "Lesson Link:" immediately after the marker.
			if i+1 < len(body) && strings.HasPrefix(body[i+1], lessonLinkPrefix) {
				current.lesson.Link = strings.TrimSpace(strings.TrimPrefix(body[i+1], lessonLinkPrefix))
				i++
			}
			continue
		}
		current.text = append(current.text, line)
	}
	flush()

	return lessons
}
