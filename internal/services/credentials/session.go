package credentials

import "sync"

// State is where a login session is in the bootstrap flow.
type State int

const (
	// StateUnauthenticated is the initial state.
	StateUnauthenticated State = iota
	// StatePinIssued means a secret was accepted and a PIN shown to the user.
	StatePinIssued
	// StateAuthenticated is terminal for the session.
	StateAuthenticated
)

// String returns the display name of the state.
func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StatePinIssued:
		return "pin issued"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Session tracks one user's progress through registration and PIN login.
// A failed PIN check leaves the session unauthenticated and may be retried
// without limit.
type Session struct {
	mu    sync.RWMutex
	state State
	pin   string
}

// NewSession returns a session in StateUnauthenticated.
func NewSession() *Session {
	return &Session{}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Pin returns the PIN issued in this session, if any.
func (s *Session) Pin() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pin
}

// Issue records a successful registration.
func (s *Session) Issue(pin string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateAuthenticated {
		return
	}
	s.state = StatePinIssued
	s.pin = pin
}

// Verify applies the outcome of a PIN check and returns the new state.
func (s *Session) Verify(ok bool) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.state == StateAuthenticated:
	case ok:
		s.state = StateAuthenticated
	default:
		s.state = StateUnauthenticated
	}
	return s.state
}

// Reset drops back to StateUnauthenticated unless already authenticated.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAuthenticated {
		s.state = StateUnauthenticated
		s.pin = ""
	}
}
