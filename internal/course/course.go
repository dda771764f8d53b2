// Package course defines the course transcript model and the document
// processor that turns raw transcript files into embeddable chunks.
//
// A transcript file has a small metadata header followed by lesson sections:
//
//	Course Title: Building Toward Computer Use
//	Course Link: https://example.com/courses/computer-use
//	Course Instructor: Colt Steele
//
//	Lesson 0: Introduction
//	Lesson Link: https://example.com/courses/computer-use/lesson/0
//	Welcome to the course...
//
// The processor splits each lesson body into sentence-aware chunks sized for
// embedding, prefixing the first chunk of every lesson with course and lesson
// context so isolated chunks remain attributable during retrieval.
package course

// Course is the parsed metadata of one transcript document.
type Course struct {
	Title      string   `json:"title"`
	Link       string   `json:"link,omitempty"`
	Instructor string   `json:"instructor,omitempty"`
	Lessons    []Lesson `json:"lessons"`
}

// Lesson is a single lesson entry within a course.
type Lesson struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Link   string `json:"link,omitempty"`
}

// Chunk is one embeddable piece of lesson content.
// Index is the chunk's ordinal within the whole course, so the pair
// (CourseTitle, Index) identifies a chunk uniquely.
type Chunk struct {
	CourseTitle  string
	LessonNumber int
	Index        int
	Text         string
}

// Source is a citation attached to a generated answer.
// Label follows the "Course Title - Lesson N" display format; Link points to
// the lesson page when one is known.
type Source struct {
	Label string `json:"text"`
	Link  string `json:"link,omitempty"`
}
