package session

import (
	"sync"
	"time"
)

// #region store

// Store holds per-session state in memory. Lookup of an unknown session id
// transparently creates a fresh session; lifecycle (idle timeout, closure) is
// owned by the caller. Ticks for the same session are serialized through a
// per-session mutex so duplicate ingests cannot break cooldown invariants;
// different sessions proceed fully in parallel.
type Store struct {
	mu         sync.Mutex
	sessions   map[string]*entry
	historyCap int
	now        func() time.Time
}

type entry struct {
	mu    sync.Mutex
	state State
}

// NewStore creates a Store whose sessions keep up to historyCap metric vectors.
func NewStore(historyCap int) *Store {
	return &Store{
		sessions:   make(map[string]*entry),
		historyCap: historyCap,
		now:        time.Now,
	}
}

// #endregion store

// #region operations

// Mutate runs fn with exclusive access to the session's state, creating the
// session first if absent. Changes made by fn are retained.
func (s *Store) Mutate(id string, fn func(st *State)) {
	e := s.acquire(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.state)
}

// Get returns a copy of the session's state, creating it if absent.
// The copy shares the History pointer, so it is only safe to inspect from
// the goroutine that owns the session; concurrent readers use Snapshot.
func (s *Store) Get(id string) State {
	e := s.acquire(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Snapshot returns a read-only view of the session with derived fields
// computed under the session's lock, safe against concurrent Mutate calls.
// ok is false for unknown ids; unlike Get, no session is created.
func (s *Store) Snapshot(id string) (Snapshot, bool) {
	s.mu.Lock()
	e, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return Snapshot{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		ID:             e.state.ID,
		CurrentStateID: e.state.CurrentStateID,
		EnteredStateAt: e.state.EnteredStateAt,
		CreatedAt:      e.state.CreatedAt,
		HistoryLen:     e.state.History.Len(),
	}, true
}

// Has reports whether the session exists without creating it.
func (s *Store) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	return ok
}

// Remove deletes the session. Unknown ids are a no-op.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// #endregion operations

// #region internal

func (s *Store) acquire(id string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		e = &entry{state: State{
			ID:        id,
			CreatedAt: s.now(),
			History:   NewHistory(s.historyCap),
		}}
		s.sessions[id] = e
	}
	return e
}

// #endregion internal
