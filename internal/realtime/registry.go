package realtime

import "sync"

// Broadcaster is what the gateway needs from room bookkeeping. Registry
// implements it locally; RedisRelay extends it across nodes.
type Broadcaster interface {
	Join(room string, s *Session)
	Leave(room string, s *Session)
	LeaveAll(s *Session)
	Broadcast(room string, f Frame, exclude ...*Session) int
}

type room struct {
	mu      sync.Mutex
	members map[*Session]struct{}
	// dead is set once the room has been removed from the index; a joiner
	// that raced the removal must look the room up again.
	dead bool
}

// Registry maps room names to live sessions. The index lock is only held
// to find or reap a room; membership changes and broadcast snapshots take
// the room's own lock.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*room
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*room)}
}

func (r *Registry) lookup(name string) *room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rooms[name]
}

func (r *Registry) lookupOrCreate(name string) *room {
	if rm := r.lookup(name); rm != nil {
		return rm
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rm, ok := r.rooms[name]
	if !ok {
		rm = &room{members: make(map[*Session]struct{})}
		r.rooms[name] = rm
	}
	return rm
}

func (r *Registry) Join(name string, s *Session) {
	for {
		rm := r.lookupOrCreate(name)
		rm.mu.Lock()
		if rm.dead {
			rm.mu.Unlock()
			continue
		}
		rm.members[s] = struct{}{}
		rm.mu.Unlock()
		break
	}
	s.addRoom(name)
}

func (r *Registry) Leave(name string, s *Session) {
	s.removeRoom(name)
	rm := r.lookup(name)
	if rm == nil {
		return
	}
	rm.mu.Lock()
	delete(rm.members, s)
	empty := len(rm.members) == 0
	rm.mu.Unlock()
	if empty {
		r.reap(name, rm)
	}
}

func (r *Registry) reap(name string, rm *room) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if len(rm.members) == 0 && r.rooms[name] == rm {
		rm.dead = true
		delete(r.rooms, name)
	}
}

// LeaveAll removes s from every room it joined.
func (r *Registry) LeaveAll(s *Session) {
	for _, name := range s.joined() {
		r.Leave(name, s)
	}
}

// Broadcast delivers f to every session in the room except the excluded
// ones and returns how many accepted it. Delivery happens outside all
// registry locks.
func (r *Registry) Broadcast(name string, f Frame, exclude ...*Session) int {
	rm := r.lookup(name)
	if rm == nil {
		return 0
	}
	rm.mu.Lock()
	targets := make([]*Session, 0, len(rm.members))
	for s := range rm.members {
		if !excluded(s, exclude) {
			targets = append(targets, s)
		}
	}
	rm.mu.Unlock()

	delivered := 0
	for _, s := range targets {
		if s.Deliver(f) {
			delivered++
		}
	}
	return delivered
}

func excluded(s *Session, exclude []*Session) bool {
	for _, x := range exclude {
		if x == s {
			return true
		}
	}
	return false
}

// Members returns the number of sessions in the room.
func (r *Registry) Members(name string) int {
	rm := r.lookup(name)
	if rm == nil {
		return 0
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return len(rm.members)
}

// Rooms returns the number of non-empty rooms.
func (r *Registry) Rooms() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
