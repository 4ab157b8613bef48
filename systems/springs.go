package systems

import (
	"fmt"

	"github.com/pthm-cable/springsoup/components"
)

// SpringPool stores springs in a fixed slice with the same LIFO free-list
// discipline as ParticlePool. It also keeps a per-particle adjacency list
// so cascade release and duplicate checks cost O(degree).
type SpringPool struct {
	slots     []components.Spring
	next      []components.SpringID
	firstFree components.SpringID
	live      int

	particles *ParticlePool
	attached  [][]components.SpringID // indexed by particle id
}

func newSpringPool(capacity int, particles *ParticlePool) *SpringPool {
	s := &SpringPool{
		slots:     make([]components.Spring, capacity),
		next:      make([]components.SpringID, capacity),
		particles: particles,
		attached:  make([][]components.SpringID, particles.Cap()),
	}
	s.resetFreeList()
	return s
}

func (s *SpringPool) resetFreeList() {
	for i := range s.next {
		s.next[i] = components.SpringID(i + 1)
	}
	if n := len(s.next); n > 0 {
		s.next[n-1] = components.NoSpring
		s.firstFree = 0
	} else {
		s.firstFree = components.NoSpring
	}
	s.live = 0
}

// Insert stores a spring between two distinct live particles.
func (s *SpringPool) Insert(sp components.Spring) (components.SpringID, error) {
	if sp.A == sp.B || !s.particles.IsLive(sp.A) || !s.particles.IsLive(sp.B) {
		return components.NoSpring, fmt.Errorf("inserting spring %d-%d: %w", sp.A, sp.B, ErrInvalidEndpoint)
	}
	id := s.firstFree
	if id == components.NoSpring {
		return components.NoSpring, fmt.Errorf("inserting spring %d-%d: %w", sp.A, sp.B, ErrCapacityExceeded)
	}
	s.firstFree = s.next[id]
	s.next[id] = components.NoSpring

	sp.Alive = true
	s.slots[id] = sp
	s.attached[sp.A] = append(s.attached[sp.A], id)
	s.attached[sp.B] = append(s.attached[sp.B], id)
	s.live++
	return id, nil
}

// Delete releases a spring slot.
func (s *SpringPool) Delete(id components.SpringID) error {
	if !s.IsLive(id) {
		return fmt.Errorf("deleting spring %d: %w", id, ErrNotLive)
	}
	sp := &s.slots[id]
	s.detach(sp.A, id)
	s.detach(sp.B, id)
	sp.Alive = false

	s.next[id] = s.firstFree
	s.firstFree = id
	s.live--
	return nil
}

// detach removes id from the adjacency list of particle pid.
func (s *SpringPool) detach(pid components.ParticleID, id components.SpringID) {
	list := s.attached[pid]
	for i, sid := range list {
		if sid == id {
			last := len(list) - 1
			list[i] = list[last]
			s.attached[pid] = list[:last]
			return
		}
	}
}

// ReleaseAttached deletes every spring with pid as an endpoint and
// returns how many were deleted.
func (s *SpringPool) ReleaseAttached(pid components.ParticleID) int {
	if pid < 0 || int(pid) >= len(s.attached) {
		return 0
	}
	n := 0
	// Delete shrinks the list, so always take the tail.
	for len(s.attached[pid]) > 0 {
		list := s.attached[pid]
		if err := s.Delete(list[len(list)-1]); err != nil {
			// adjacency is out of sync; drop the entry rather than loop
			s.attached[pid] = list[:len(list)-1]
			continue
		}
		n++
	}
	return n
}

// Clear releases every spring.
func (s *SpringPool) Clear() {
	for i := range s.slots {
		s.slots[i].Alive = false
	}
	for i := range s.attached {
		s.attached[i] = s.attached[i][:0]
	}
	s.resetFreeList()
}

// IsLive reports whether id names a live spring.
func (s *SpringPool) IsLive(id components.SpringID) bool {
	return id >= 0 && int(id) < len(s.slots) && s.slots[id].Alive
}

// Get returns the spring in slot id, or nil if it is not live.
func (s *SpringPool) Get(id components.SpringID) *components.Spring {
	if !s.IsLive(id) {
		return nil
	}
	return &s.slots[id]
}

// Attached returns the springs that have pid as an endpoint.
// The slice is owned by the pool; copy it before mutating springs.
func (s *SpringPool) Attached(pid components.ParticleID) []components.SpringID {
	if pid < 0 || int(pid) >= len(s.attached) {
		return nil
	}
	return s.attached[pid]
}

// Degree returns the number of springs attached to pid.
func (s *SpringPool) Degree(pid components.ParticleID) int {
	return len(s.Attached(pid))
}

// Connected reports whether a spring already links a and b.
func (s *SpringPool) Connected(a, b components.ParticleID) bool {
	// scan the shorter list
	la, lb := s.Attached(a), s.Attached(b)
	if len(lb) < len(la) {
		la = lb
		a, b = b, a
	}
	for _, id := range la {
		if s.slots[id].Other(a) == b {
			return true
		}
	}
	return false
}

// ForEachLive calls fn for every live spring in slot order.
func (s *SpringPool) ForEachLive(fn func(id components.SpringID, sp *components.Spring)) {
	for i := range s.slots {
		if s.slots[i].Alive {
			fn(components.SpringID(i), &s.slots[i])
		}
	}
}

// Live returns the number of live springs.
func (s *SpringPool) Live() int { return s.live }

// Cap returns the pool capacity.
func (s *SpringPool) Cap() int { return len(s.slots) }
