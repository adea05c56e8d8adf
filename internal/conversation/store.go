package conversation

import "sync"

// Store tracks the live sessions of a multi-client surface such as the
// gateway, where each connection owns one session.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session // id → session
	opts     []Option
}

// NewStore creates an empty store. opts are applied to every new session.
func NewStore(opts ...Option) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		opts:     opts,
	}
}

// Start creates and registers a new session.
func (st *Store) Start() *Session {
	s := NewSession(st.opts...)
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.ID] = s
	return s
}

// Get returns a live session by ID.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// End closes and forgets a session. It reports whether the session existed.
func (st *Store) End(id string) bool {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()
	if ok {
		s.Close()
	}
	return ok
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// EndAll closes every live session.
func (st *Store) EndAll() {
	st.mu.Lock()
	sessions := st.sessions
	st.sessions = make(map[string]*Session)
	st.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}
