package store

// Result represents a single content search result.
type Result struct {
	CourseTitle  string
	LessonNumber int
	ChunkIndex   int
	Text         string
	Similarity   float32 // Cosine similarity score (0-1)
}

// SearchOption configures search behavior using the functional options pattern.
type SearchOption func(*searchConfig)

// searchConfig holds internal search configuration.
type searchConfig struct {
	limit  int
	course string
	lesson *int
}

// WithLimit sets the maximum number of results to return.
// Defaults to the store's configured MaxResults when not specified.
func WithLimit(k int) SearchOption {
	return func(c *searchConfig) {
		if k > 0 {
			c.limit = k
		}
	}
}

// WithCourse restricts results to chunks of the given course title.
// The title must be exact; resolve fuzzy names with ResolveCourseName first.
func WithCourse(title string) SearchOption {
	return func(c *searchConfig) {
		c.course = title
	}
}

// WithLesson restricts results to chunks of the given lesson number.
func WithLesson(n int) SearchOption {
	return func(c *searchConfig) {
		c.lesson = &n
	}
}

// buildSearchConfig applies search options and returns the final configuration.
func buildSearchConfig(defaultLimit int, opts []SearchOption) *searchConfig {
	cfg := &searchConfig{limit: defaultLimit}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
