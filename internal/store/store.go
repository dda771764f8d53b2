// Package store persists course metadata and content chunks in a chromem-go
// vector database and serves semantic search over them.
//
// Two collections are maintained:
//   - course_catalog: one document per course, keyed by exact title. The title
//     itself is embedded, which makes fuzzy course-name resolution a nearest
//     neighbor lookup. Metadata carries the course link, instructor, and the
//     serialized lesson outline.
//   - course_content: one document per chunk, with course title, lesson number
//     and chunk index as filterable metadata.
//
// The store is safe for concurrent use.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strconv"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/lectern/lectern/internal/course"
)

// Collection names within the chromem database.
const (
	catalogCollection = "course_catalog"
	contentCollection = "course_content"
)

// Metadata keys on stored documents.
const (
	metaCourseTitle  = "course_title"
	metaLessonNumber = "lesson_number"
	metaChunkIndex   = "chunk_index"
	metaCourseLink   = "course_link"
	metaInstructor   = "instructor"
	metaLessons      = "lessons"
)

var (
	// ErrCourseNotFound indicates no course matched the requested name.
	ErrCourseNotFound = errors.New("course not found")

	// ErrEmbedding indicates embedding generation failed.
	ErrEmbedding = errors.New("embedding failed")
)

// Config contains all required parameters for the Store.
type Config struct {
	// Path is the on-disk location of the vector database.
	// Empty means a volatile in-memory database.
	Path string

	// Embedding converts text to vectors; see NewEmbeddingFunc.
	Embedding chromem.EmbeddingFunc

	// MaxResults is the default top-k for Search. Default: 5.
	MaxResults int

	// Logger for debugging (nil = slog.Default()).
	Logger *slog.Logger
}

// Store manages the course catalog and content collections.
type Store struct {
	db         *chromem.DB
	catalog    *chromem.Collection
	content    *chromem.Collection
	embedding  chromem.EmbeddingFunc
	maxResults int
	logger     *slog.Logger

	// titles tracks course titles seen by this process. Populated during
	// ingestion; the catalog collection remains the source of truth for
	// existence checks.
	mu     sync.RWMutex
	titles map[string]struct{}
}

// New creates a Store backed by an in-memory or persistent chromem database,
// depending on Config.Path.
func New(cfg Config) (*Store, error) {
	if cfg.Embedding == nil {
		return nil, errors.New("embedding function is required")
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 5
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	var db *chromem.DB
	var err error
	if cfg.Path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(cfg.Path, false)
		if err != nil {
			return nil, fmt.Errorf("opening vector store at %s: %w", cfg.Path, err)
		}
	}

	catalog, err := db.GetOrCreateCollection(catalogCollection, nil, cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("creating catalog collection: %w", err)
	}
	content, err := db.GetOrCreateCollection(contentCollection, nil, cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("creating content collection: %w", err)
	}

	return &Store{
		db:         db,
		catalog:    catalog,
		content:    content,
		embedding:  cfg.Embedding,
		maxResults: cfg.MaxResults,
		logger:     cfg.Logger,
		titles:     make(map[string]struct{}),
	}, nil
}

// AddCourse stores a course and its chunks. Adding an already-known course
// title is a no-op returning (false, nil), which makes startup ingestion
// idempotent.
func (s *Store) AddCourse(ctx context.Context, c *course.Course, chunks []course.Chunk) (bool, error) {
	if c == nil || c.Title == "" {
		return false, errors.New("course with title is required")
	}

	if s.hasTitle(c.Title) {
		return false, nil
	}
	if _, err := s.catalog.GetByID(ctx, c.Title); err == nil {
		// Present in a previously persisted catalog.
		s.rememberTitle(c.Title)
		return false, nil
	}

	lessonsJSON, err := json.Marshal(c.Lessons)
	if err != nil {
		return false, fmt.Errorf("marshaling lessons for %q: %w", c.Title, err)
	}

	err = s.catalog.AddDocument(ctx, chromem.Document{
		ID:      c.Title,
		Content: c.Title,
		Metadata: map[string]string{
			metaCourseLink: c.Link,
			metaInstructor: c.Instructor,
			metaLessons:    string(lessonsJSON),
		},
	})
	if err != nil {
		return false, fmt.Errorf("adding course %q to catalog: %w", c.Title, err)
	}

	if len(chunks) > 0 {
		docs := make([]chromem.Document, 0, len(chunks))
		for _, ch := range chunks {
			docs = append(docs, chromem.Document{
				ID:      fmt.Sprintf("%s-%d", ch.CourseTitle, ch.Index),
				Content: ch.Text,
				Metadata: map[string]string{
					metaCourseTitle:  ch.CourseTitle,
					metaLessonNumber: strconv.Itoa(ch.LessonNumber),
					metaChunkIndex:   strconv.Itoa(ch.Index),
				},
			})
		}
		if err := s.content.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
			return false, fmt.Errorf("adding chunks for %q: %w", c.Title, err)
		}
	}

	s.rememberTitle(c.Title)
	s.logger.Debug("added course", "title", c.Title, "chunks", len(chunks))
	return true, nil
}

// ResolveCourseName resolves a possibly partial or fuzzy course name to the
// exact stored title via semantic match over the catalog. Returns
// ErrCourseNotFound when the catalog is empty or yields no match.
func (s *Store) ResolveCourseName(ctx context.Context, name string) (string, error) {
	if s.catalog.Count() == 0 {
		return "", ErrCourseNotFound
	}

	results, err := s.catalog.Query(ctx, name, 1, nil, nil)
	if err != nil {
		return "", fmt.Errorf("resolving course name %q: %w", name, err)
	}
	if len(results) == 0 {
		return "", ErrCourseNotFound
	}

	s.logger.Debug("resolved course name",
		"input", name,
		"resolved", results[0].ID,
		"similarity", results[0].Similarity)
	return results[0].ID, nil
}

// Search performs semantic search over content chunks.
//
// Example:
//
//	results, err := store.Search(ctx, "what is prompt caching",
//	    store.WithCourse("Building Toward Computer Use"),
//	    store.WithLesson(4))
//
// An empty store yields an empty result set, not an error.
func (s *Store) Search(ctx context.Context, query string, opts ...SearchOption) ([]Result, error) {
	cfg := buildSearchConfig(s.maxResults, opts)

	count := s.content.Count()
	if count == 0 {
		return nil, nil
	}

	k := cfg.limit
	if k > count {
		k = count
	}

	where := make(map[string]string)
	if cfg.course != "" {
		where[metaCourseTitle] = cfg.course
	}
	if cfg.lesson != nil {
		where[metaLessonNumber] = strconv.Itoa(*cfg.lesson)
	}
	if len(where) == 0 {
		where = nil
	}

	raw, err := s.content.Query(ctx, query, k, where, nil)
	if err != nil {
		return nil, fmt.Errorf("searching content: %w", err)
	}

	results := make([]Result, 0, len(raw))
	for _, r := range raw {
		lesson, _ := strconv.Atoi(r.Metadata[metaLessonNumber])
		index, _ := strconv.Atoi(r.Metadata[metaChunkIndex])
		results = append(results, Result{
			CourseTitle:  r.Metadata[metaCourseTitle],
			LessonNumber: lesson,
			ChunkIndex:   index,
			Text:         r.Content,
			Similarity:   r.Similarity,
		})
	}

	s.logger.Debug("content search",
		"query_length", len(query),
		"course", cfg.course,
		"results", len(results))
	return results, nil
}

// Outline returns the stored metadata and lesson list for the exact course
// title. Returns ErrCourseNotFound for unknown titles.
func (s *Store) Outline(ctx context.Context, title string) (*course.Course, error) {
	doc, err := s.catalog.GetByID(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrCourseNotFound, title)
	}

	c := &course.Course{
		Title:      doc.ID,
		Link:       doc.Metadata[metaCourseLink],
		Instructor: doc.Metadata[metaInstructor],
	}
	if raw := doc.Metadata[metaLessons]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &c.Lessons); err != nil {
			s.logger.Warn("corrupt lesson metadata", "course", title, "error", err)
		}
	}
	return c, nil
}

// LessonLink returns the link for one lesson of a course, or empty string
// when the lesson has no stored link.
func (s *Store) LessonLink(ctx context.Context, title string, lesson int) (string, error) {
	c, err := s.Outline(ctx, title)
	if err != nil {
		return "", err
	}
	for _, l := range c.Lessons {
		if l.Number == lesson {
			return l.Link, nil
		}
	}
	return "", nil
}

// CourseCount returns the number of courses in the catalog.
func (s *Store) CourseCount() int {
	return s.catalog.Count()
}

// ChunkCount returns the number of content chunks.
func (s *Store) ChunkCount() int {
	return s.content.Count()
}

// CourseTitles returns the sorted titles of courses ingested by this process.
func (s *Store) CourseTitles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	titles := make([]string, 0, len(s.titles))
	for t := range s.titles {
		titles = append(titles, t)
	}
	sort.Strings(titles)
	return titles
}

// Reset drops both collections and recreates them empty.
// Must not run concurrently with queries or ingestion.
func (s *Store) Reset() error {
	if err := s.db.DeleteCollection(catalogCollection); err != nil {
		return fmt.Errorf("deleting catalog collection: %w", err)
	}
	if err := s.db.DeleteCollection(contentCollection); err != nil {
		return fmt.Errorf("deleting content collection: %w", err)
	}

	catalog, err := s.db.GetOrCreateCollection(catalogCollection, nil, s.embedding)
	if err != nil {
		return fmt.Errorf("recreating catalog collection: %w", err)
	}
	content, err := s.db.GetOrCreateCollection(contentCollection, nil, s.embedding)
	if err != nil {
		return fmt.Errorf("recreating content collection: %w", err)
	}

	s.mu.Lock()
	s.catalog = catalog
	s.content = content
	s.titles = make(map[string]struct{})
	s.mu.Unlock()

	s.logger.Info("vector store reset")
	return nil
}

func (s *Store) hasTitle(title string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.titles[title]
	return ok
}

func (s *Store) rememberTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.titles[title] = struct{}{}
}
