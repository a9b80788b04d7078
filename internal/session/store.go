package session

import "sync"

// Listener is notified with the new state after every change.
type Listener func(State)

// Store holds the current auth state and fans changes out to listeners.
type Store struct {
	mu        sync.Mutex
	state     State
	nextID    int
	listeners []subscription
}

type subscription struct {
	id int
	fn Listener
}

// NewStore starts in the loading state: nothing is known about the user
// until the persisted credentials have been checked.
func NewStore() *Store {
	return &Store{state: State{Loading: true}}
}

// Current returns a snapshot of the state.
func (s *Store) Current() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetLoading marks the state as unresolved, e.g. while a token is refreshed.
func (s *Store) SetLoading() {
	s.set(State{Loading: true, Session: s.Current().Session})
}

// SignIn replaces the session. A new login never edits the previous
// session's role in place.
func (s *Store) SignIn(sess Session) {
	if !sess.Authenticated {
		s.SignOut()
		return
	}
	s.set(State{Session: sess})
}

// SignOut drops the session.
func (s *Store) SignOut() {
	s.set(State{Session: Anonymous()})
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, subscription{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.listeners {
			if sub.id == id {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) set(state State) {
	s.mu.Lock()
	s.state = state
	listeners := make([]subscription, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, sub := range listeners {
		sub.fn(state)
	}
}
