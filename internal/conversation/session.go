// Package conversation holds the question/answer log of one interactive
// session. A Session lives from Start to End; nothing is persisted.
package conversation

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TimestampLayout is the human-readable format of Interaction.Timestamp,
// e.g. "Mar 05, 2025 02:07 PM".
const TimestampLayout = "Jan 02, 2006 03:04 PM"

var (
	ErrSessionClosed   = errors.New("conversation session closed")
	ErrSessionNotFound = errors.New("conversation session not found")
)

// Interaction is one completed question/answer cycle.
type Interaction struct {
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Timestamp string `json:"timestamp"`
}

// Option configures a Session.
type Option func(*Session)

// WithClock overrides the wall clock used to stamp interactions.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// Session is an append-only, insertion-ordered interaction log. Appends are
// serialized so concurrent requests against one session keep a total order.
type Session struct {
	ID        string
	StartedAt time.Time

	mu     sync.Mutex
	log    []Interaction
	closed bool
	now    func() time.Time
}

// NewSession starts a session.
func NewSession(opts ...Option) *Session {
	s := &Session{
		ID:  uuid.New().String(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.StartedAt = s.now()
	return s
}

// Append records a completed interaction stamped with the current time.
func (s *Session) Append(question, answer string) (Interaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Interaction{}, ErrSessionClosed
	}
	in := Interaction{
		Question:  question,
		Answer:    answer,
		Timestamp: s.now().Format(TimestampLayout),
	}
	s.log = append(s.log, in)
	return in, nil
}

// History returns a copy of the log in insertion order.
func (s *Session) History() []Interaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Interaction, len(s.log))
	copy(out, s.log)
	return out
}

// Recent returns the log most-recent-first, the order it is displayed in.
func (s *Session) Recent() []Interaction {
	h := s.History()
	for i, j := 0, len(h)-1; i < j; i, j = i+1, j-1 {
		h[i], h[j] = h[j], h[i]
	}
	return h
}

// Len returns the number of recorded interactions.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.log)
}

// Close ends the session and drops its log. Further appends fail with
// ErrSessionClosed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.log = nil
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
