package playground

import (
	"sync"
	"time"
)

// ActionType identifies a state mutation
type ActionType string

const (
	ActionSetAPIKey         ActionType = "SET_API_KEY"
	ActionSetShowAuthDialog ActionType = "SET_SHOW_AUTH_DIALOG"
	ActionReset             ActionType = "RESET"
)

// Action is dispatched to the store to change the shared state.
// For SET_API_KEY the payload is a *string (nil clears authentication),
// for SET_SHOW_AUTH_DIALOG it is a bool.
type Action struct {
	Type    ActionType
	Payload interface{}
}

// SetAPIKey builds a SET_API_KEY action. A nil key clears the stored key.
func SetAPIKey(key *string) Action {
	return Action{Type: ActionSetAPIKey, Payload: key}
}

// ClearAPIKey builds a SET_API_KEY action with a nil payload
func ClearAPIKey() Action {
	return SetAPIKey(nil)
}

// SetShowAuthDialog builds a SET_SHOW_AUTH_DIALOG action
func SetShowAuthDialog(show bool) Action {
	return Action{Type: ActionSetShowAuthDialog, Payload: show}
}

// State is the session-scoped playground state
type State struct {
	APIKey         string
	KeySavedAt     time.Time
	ShowAuthDialog bool
}

// HasAPIKey reports whether an API key is set
func (s State) HasAPIKey() bool {
	return s.APIKey != ""
}

// Reduce applies an action to a state and returns the new state.
// Unknown actions and malformed payloads leave the state unchanged.
func Reduce(s State, a Action, now time.Time) State {
	switch a.Type {
	case ActionSetAPIKey:
		switch key := a.Payload.(type) {
		case *string:
			if key == nil || *key == "" {
				s.APIKey = ""
				s.KeySavedAt = time.Time{}
			} else {
				s.APIKey = *key
				s.KeySavedAt = now
			}
		case nil:
			s.APIKey = ""
			s.KeySavedAt = time.Time{}
		}
	case ActionSetShowAuthDialog:
		if show, ok := a.Payload.(bool); ok {
			s.ShowAuthDialog = show
		}
	case ActionReset:
		s = State{}
	}
	return s
}

// Listener is notified after every dispatch that changed the state
type Listener func(prev, next State, action Action)

// Store owns the shared playground state. Components read snapshots and
// mutate the state only through Dispatch.
type Store struct {
	mu        sync.RWMutex
	state     State
	listeners []Listener
	now       func() time.Time
}

// NewStore creates a store holding the given initial state
func NewStore(initial State) *Store {
	return &Store{
		state: initial,
		now:   time.Now,
	}
}

// State returns a snapshot of the current state
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers a listener
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Dispatch applies an action atomically and notifies listeners when the
// state changed. It returns the resulting state.
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	prev := s.state
	next := Reduce(prev, a, s.now())
	s.state = next
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	if prev != next {
		for _, l := range listeners {
			l(prev, next, a)
		}
	}
	return next
}
