package systems

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/springsoup/components"
)

// Pools bundles the particle and spring pools. They reference each other:
// springs check endpoint liveness, particles cascade release to springs.
type Pools struct {
	Particles *ParticlePool
	Springs   *SpringPool
}

// NewPools creates both pools with fixed capacities.
func NewPools(particleCap, springCap int) *Pools {
	pp := newParticlePool(particleCap)
	sp := newSpringPool(springCap, pp)
	pp.springs = sp
	return &Pools{Particles: pp, Springs: sp}
}

// Clear releases every spring and particle.
func (p *Pools) Clear() {
	p.Springs.Clear()
	p.Particles.Clear()
}

// ParticlePool stores particles in a fixed slice. Slot indices are the
// particle identities and never move while live. Free slots form a LIFO
// chain through next, so the most recently released slot is reused first.
type ParticlePool struct {
	slots     []components.Particle
	next      []components.ParticleID
	firstFree components.ParticleID
	lastTaken components.ParticleID // high-water mark
	live      int

	springs *SpringPool
}

func newParticlePool(capacity int) *ParticlePool {
	p := &ParticlePool{
		slots: make([]components.Particle, capacity),
		next:  make([]components.ParticleID, capacity),
	}
	p.resetFreeList()
	return p
}

// resetFreeList chains every slot in ascending order.
func (p *ParticlePool) resetFreeList() {
	for i := range p.next {
		p.next[i] = components.ParticleID(i + 1)
	}
	if n := len(p.next); n > 0 {
		p.next[n-1] = components.NoParticle
		p.firstFree = 0
	} else {
		p.firstFree = components.NoParticle
	}
	p.lastTaken = components.NoParticle
	p.live = 0
}

// Allocate takes the first free slot and initialises it from the profile.
func (p *ParticlePool) Allocate(kind components.Kind, prof components.Profile, pos r3.Vec) (components.ParticleID, error) {
	id := p.firstFree
	if id == components.NoParticle {
		return components.NoParticle, fmt.Errorf("allocating %v particle: %w", kind, ErrCapacityExceeded)
	}
	p.firstFree = p.next[id]
	p.next[id] = components.NoParticle

	s := &p.slots[id]
	gen := s.Gen + 1
	*s = components.Particle{
		Pos:     pos,
		Mass:    prof.Mass,
		InvMass: prof.InvMass(),
		Drag:    prof.Drag,
		Kind:    kind,
		Color:   prof.Color,
		Alive:   true,
		Gen:     gen,
	}

	if id > p.lastTaken {
		p.lastTaken = id
	}
	p.live++
	return id, nil
}

// Release frees a slot. Every spring attached to the particle is released
// first, so no live spring ever points at a free slot.
func (p *ParticlePool) Release(id components.ParticleID) error {
	if !p.IsLive(id) {
		return fmt.Errorf("releasing particle %d: %w", id, ErrNotLive)
	}
	if p.springs != nil {
		p.springs.ReleaseAttached(id)
	}

	s := &p.slots[id]
	s.Alive = false
	s.Held = false
	s.Vel = r3.Vec{}
	s.Force = r3.Vec{}

	p.next[id] = p.firstFree
	p.firstFree = id
	p.live--

	// Pull the high-water mark down past trailing free slots.
	for p.lastTaken >= 0 && !p.slots[p.lastTaken].Alive {
		p.lastTaken--
	}
	return nil
}

// Clear releases every live particle and restores the ascending free list.
// Generations are kept so handles taken before the clear stay invalid.
func (p *ParticlePool) Clear() {
	if p.springs != nil {
		p.springs.Clear()
	}
	for i := range p.slots {
		p.slots[i].Alive = false
		p.slots[i].Held = false
	}
	p.resetFreeList()
}

// IsLive reports whether id names a live particle.
func (p *ParticlePool) IsLive(id components.ParticleID) bool {
	return id >= 0 && int(id) < len(p.slots) && p.slots[id].Alive
}

// Get returns the particle in slot id, or nil if it is not live.
// The pointer stays valid for the lifetime of the pool.
func (p *ParticlePool) Get(id components.ParticleID) *components.Particle {
	if !p.IsLive(id) {
		return nil
	}
	return &p.slots[id]
}

// HandleOf returns a generation-pinned handle for a live particle.
func (p *ParticlePool) HandleOf(id components.ParticleID) (components.Handle, bool) {
	if !p.IsLive(id) {
		return components.Handle{ID: components.NoParticle}, false
	}
	return components.Handle{ID: id, Gen: p.slots[id].Gen}, true
}

// Resolve returns the particle a handle was taken for, or nil if that
// particle has since been released (even if the slot was reused).
func (p *ParticlePool) Resolve(h components.Handle) *components.Particle {
	pt := p.Get(h.ID)
	if pt == nil || pt.Gen != h.Gen {
		return nil
	}
	return pt
}

// ForEachLive calls fn for every live particle in slot order. Scanning
// stops at the high-water mark.
func (p *ParticlePool) ForEachLive(fn func(id components.ParticleID, pt *components.Particle)) {
	for i := components.ParticleID(0); i <= p.lastTaken; i++ {
		if p.slots[i].Alive {
			fn(i, &p.slots[i])
		}
	}
}

// Live returns the number of live particles.
func (p *ParticlePool) Live() int { return p.live }

// Cap returns the pool capacity.
func (p *ParticlePool) Cap() int { return len(p.slots) }

// HighWater returns the highest live slot index, or NoParticle when empty.
func (p *ParticlePool) HighWater() components.ParticleID { return p.lastTaken }

// FirstFree returns the slot the next Allocate will use, or NoParticle.
func (p *ParticlePool) FirstFree() components.ParticleID { return p.firstFree }
