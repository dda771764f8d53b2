// Package session manages in-memory conversation state.
//
// Each session holds a capped FIFO window of recent exchanges used as
// conversational context for follow-up questions. Sessions live for the
// process lifetime only; restarting the server drops them by design.
//
// Store is safe for concurrent use by multiple goroutines. Operations on
// different sessions never block each other; operations on the same session
// are serialized.
package session

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Exchange is one completed question/answer turn.
type Exchange struct {
	Query  string
	Answer string
}

// conversation holds the exchange window of a single session.
// Its own mutex keeps same-session appends atomic without holding the
// store-wide lock during the append.
type conversation struct {
	mu        sync.Mutex
	exchanges []Exchange
}

// Store manages conversation sessions keyed by UUID.
type Store struct {
	maxHistory int
	logger     *slog.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*conversation
}

// New creates a session store keeping at most maxHistory exchanges per
// session. maxHistory of zero disables context retention; sessions still
// exist but carry no history.
func New(maxHistory int, logger *slog.Logger) *Store {
	if maxHistory < 0 {
		maxHistory = 0
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		maxHistory: maxHistory,
		logger:     logger,
		sessions:   make(map[uuid.UUID]*conversation),
	}
}

// Create registers a new empty session and returns its ID.
func (s *Store) Create() uuid.UUID {
	id := uuid.New()

	s.mu.Lock()
	s.sessions[id] = &conversation{}
	s.mu.Unlock()

	s.logger.Debug("created session", "id", id)
	return id
}

// History returns a copy of the session's exchanges, oldest first.
// Unknown sessions yield an empty history.
func (s *Store) History(id uuid.UUID) []Exchange {
	s.mu.RLock()
	conv, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	conv.mu.Lock()
	defer conv.mu.Unlock()

	out := make([]Exchange, len(conv.exchanges))
	copy(out, conv.exchanges)
	return out
}

// Append records a completed exchange, trimming the oldest entries beyond
// the history cap. Appending to an unknown session creates it, so callers
// may supply externally generated IDs.
func (s *Store) Append(id uuid.UUID, query, answer string) {
	conv := s.getOrCreate(id)

	conv.mu.Lock()
	defer conv.mu.Unlock()

	if s.maxHistory == 0 {
		return
	}

	conv.exchanges = append(conv.exchanges, Exchange{Query: query, Answer: answer})
	if excess := len(conv.exchanges) - s.maxHistory; excess > 0 {
		conv.exchanges = append([]Exchange(nil), conv.exchanges[excess:]...)
	}
}

// Clear removes a session and its history. Clearing an unknown session is a
// no-op, making the operation idempotent.
func (s *Store) Clear(id uuid.UUID) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()

	s.logger.Debug("cleared session", "id", id)
}

// Count returns the number of live sessions.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Store) getOrCreate(id uuid.UUID) *conversation {
	s.mu.RLock()
	conv, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return conv
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if conv, ok = s.sessions[id]; ok {
		return conv
	}
	conv = &conversation{}
	s.sessions[id] = conv
	return conv
}

// FormatHistory flattens exchanges into the text block injected into the
// model prompt. Returns an empty string for empty history.
func FormatHistory(exchanges []Exchange) string {
	if len(exchanges) == 0 {
		return ""
	}

	var b strings.Builder
	for i, ex := range exchanges {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("User: ")
		b.WriteString(ex.Query)
		b.WriteString("\nAssistant: ")
		b.WriteString(ex.Answer)
	}
	return b.String()
}
