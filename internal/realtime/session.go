package realtime

import (
	"sync"

	"github.com/google/uuid"
)

type State int

const (
	StateUnbound State = iota
	StateBound
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnbound:
		return "unbound"
	case StateBound:
		return "bound"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Outbound is the transport side of a session. Send must not block; it
// reports whether the frame was queued.
type Outbound interface {
	Send(Frame) bool
}

// OutboundFunc adapts a function to Outbound.
type OutboundFunc func(Frame) bool

func (f OutboundFunc) Send(fr Frame) bool { return f(fr) }

// Session is one live connection. It carries its own state and the set of
// rooms it joined so teardown needs no identity lookup.
type Session struct {
	id  string
	out Outbound
	// identity is the user the transport authenticated, if any.
	identity string

	mu     sync.Mutex
	state  State
	userID string
	rooms  map[string]struct{}
}

func NewSession(out Outbound, identity string) *Session {
	return &Session{
		id:       uuid.NewString(),
		out:      out,
		identity: identity,
		rooms:    make(map[string]struct{}),
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// UserID is the bound identity, empty until setup succeeds.
func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Deliver hands a frame to the transport without blocking.
func (s *Session) Deliver(f Frame) bool {
	if s.State() == StateClosed {
		return false
	}
	return s.out.Send(f)
}

func (s *Session) bind(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateUnbound {
		return false
	}
	s.state = StateBound
	s.userID = userID
	return true
}

// close marks the session closed and reports whether this call did it.
func (s *Session) close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return false
	}
	s.state = StateClosed
	return true
}

func (s *Session) addRoom(name string) {
	s.mu.Lock()
	s.rooms[name] = struct{}{}
	s.mu.Unlock()
}

func (s *Session) removeRoom(name string) {
	s.mu.Lock()
	delete(s.rooms, name)
	s.mu.Unlock()
}

func (s *Session) joined() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.rooms))
	for name := range s.rooms {
		out = append(out, name)
	}
	return out
}
