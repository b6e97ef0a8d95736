package watch

import (
	"sync"

	"github.com/google/uuid"

	"github.com/go-drift/netgate/pkg/permission"
)

// Session holds the watcher's mutable state: the last observed permission
// state and whether polling is permitted to act. It is constructed once at
// startup and lives for the process lifetime; fresh instances give tests
// full isolation.
//
// lastState changes only inside the watcher's comparison step, at most once
// per tick. No other component reads or writes session state directly.
type Session struct {
	id string

	mu        sync.Mutex
	lastState permission.State
	active    bool
}

// NewSession creates a session with lastState initialized to the unset
// sentinel, so the first real observation always registers as a transition.
func NewSession() *Session {
	return &Session{
		id:        uuid.NewString(),
		lastState: permission.StateUnset,
	}
}

// ID returns the session's unique identity, used in transition log lines.
func (s *Session) ID() string {
	return s.id
}

// LastState returns the most recently recorded permission state.
func (s *Session) LastState() permission.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastState
}

// Active reports whether polling is permitted to act.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// record compares observed against the stored state and updates it on
// change. It returns the previous state and whether a transition occurred.
func (s *Session) record(observed permission.State) (prev permission.State, changed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev = s.lastState
	if observed == prev {
		return prev, false
	}
	s.lastState = observed
	return prev, true
}

func (s *Session) setActive(active bool) {
	s.mu.Lock()
	s.active = active
	s.mu.Unlock()
}
