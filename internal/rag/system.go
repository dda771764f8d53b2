// Package rag wires document processing, vector search, session state, and
// answer generation into the retrieval-augmented question answering system.
package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/lectern/lectern/internal/course"
	"github.com/lectern/lectern/internal/generator"
	"github.com/lectern/lectern/internal/session"
)

// ErrInvalidSession indicates the session ID is malformed.
var ErrInvalidSession = errors.New("invalid session")

// Answer is the response to a query: the generated text, its citations, and
// the session the exchange was recorded under.
type Answer struct {
	Text      string
	Sources   []course.Source
	SessionID uuid.UUID
}

// Stats summarizes the indexed course catalog.
type Stats struct {
	TotalCourses int
	CourseTitles []string
}

// Processor parses a transcript file into a course and its chunks.
// *course.Processor satisfies this.
type Processor interface {
	ProcessFile(path string) (*course.Course, []course.Chunk, error)
}

// CourseStore is the slice of the vector store the system depends on.
// *store.Store satisfies this.
type CourseStore interface {
	AddCourse(ctx context.Context, c *course.Course, chunks []course.Chunk) (bool, error)
	CourseCount() int
	CourseTitles() []string
}

// Answerer produces an answer for a query given formatted conversation
// history. *generator.Orchestrator satisfies this.
type Answerer interface {
	Generate(ctx context.Context, query, history string) (*generator.Result, error)
}

// Config contains all required parameters for the System.
type Config struct {
	Processor Processor
	Store     CourseStore
	Sessions  *session.Store
	Generator Answerer
	Logger    *slog.Logger
}

// validate checks if all required parameters are present.
func (cfg Config) validate() error {
	if cfg.Processor == nil {
		return errors.New("processor is required")
	}
	if cfg.Store == nil {
		return errors.New("course store is required")
	}
	if cfg.Sessions == nil {
		return errors.New("session store is required")
	}
	if cfg.Generator == nil {
		return errors.New("generator is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	return nil
}

// System is the top-level query and ingestion orchestrator. It is safe for
// concurrent use once constructed.
type System struct {
	processor Processor
	store     CourseStore
	sessions  *session.Store
	generator Answerer
	logger    *slog.Logger
}

// New creates a System with required configuration.
func New(cfg Config) (*System, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &System{
		processor: cfg.Processor,
		store:     cfg.Store,
		sessions:  cfg.Sessions,
		generator: cfg.Generator,
		logger:    cfg.Logger,
	}, nil
}

// Query answers a question. An empty sessionID starts a new session; a
// malformed one is rejected with ErrInvalidSession. The completed exchange
// is recorded in the session before returning.
func (s *System) Query(ctx context.Context, query, sessionID string) (*Answer, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("query is required")
	}

	var id uuid.UUID
	if sessionID == "" {
		id = s.sessions.Create()
	} else {
		parsed, err := uuid.Parse(sessionID)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSession, sessionID)
		}
		id = parsed
	}

	history := session.FormatHistory(s.sessions.History(id))

	res, err := s.generator.Generate(ctx, query, history)
	if err != nil {
		return nil, fmt.Errorf("answering query: %w", err)
	}

	s.sessions.Append(id, query, res.Answer)

	return &Answer{
		Text:      res.Answer,
		Sources:   res.Sources,
		SessionID: id,
	}, nil
}

// ClearSession removes a session's history. Clearing an unknown session
// succeeds; a malformed ID is rejected.
func (s *System) ClearSession(sessionID string) error {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidSession, sessionID)
	}
	s.sessions.Clear(id)
	return nil
}

// AddCourseDocument ingests a single transcript file. Returns the parsed
// course and the number of chunks indexed (zero if the course was already
// present).
func (s *System) AddCourseDocument(ctx context.Context, path string) (*course.Course, int, error) {
	c, chunks, err := s.processor.ProcessFile(path)
	if err != nil {
		return nil, 0, err
	}

	added, err := s.store.AddCourse(ctx, c, chunks)
	if err != nil {
		return nil, 0, fmt.Errorf("indexing course %q: %w", c.Title, err)
	}
	if !added {
		s.logger.Debug("course already indexed", "title", c.Title)
		return c, 0, nil
	}

	s.logger.Info("indexed course", "title", c.Title, "chunks", len(chunks))
	return c, len(chunks), nil
}

// AddCourseFolder ingests every .txt transcript in a directory, in sorted
// filename order. Ingestion failures are per-document: a malformed file or a
// store error on one document is logged and the rest of the batch still gets
// indexed. Courses that are already indexed are left untouched. Returns the
// number of newly added courses and chunks.
func (s *System) AddCourseFolder(ctx context.Context, dir string) (int, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Warn("documents directory does not exist", "dir", dir)
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("reading documents directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".txt") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	courses, chunks := 0, 0
	for _, name := range names {
		_, n, err := s.AddCourseDocument(ctx, filepath.Join(dir, name))
		if err != nil {
			var formatErr *course.FormatError
			if errors.As(err, &formatErr) {
				s.logger.Warn("skipping malformed document", "file", name, "error", err)
			} else {
				s.logger.Error("skipping document after ingestion failure", "file", name, "error", err)
			}
			continue
		}
		if n > 0 {
			courses++
			chunks += n
		}
	}

	s.logger.Info("ingestion complete", "dir", dir, "courses_added", courses, "chunks_added", chunks)
	return courses, chunks, nil
}

// Stats reports the current catalog contents.
func (s *System) Stats() *Stats {
	return &Stats{
		TotalCourses: s.store.CourseCount(),
		CourseTitles: s.store.CourseTitles(),
	}
}
