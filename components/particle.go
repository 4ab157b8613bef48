// Package components holds the plain data types shared by the simulation.
package components

import "gonum.org/v1/gonum/spatial/r3"

// ParticleID is the stable slot index of a particle in its pool.
type ParticleID int32

// SpringID is the stable slot index of a spring in its pool.
type SpringID int32

// NoParticle marks an empty endpoint or an exhausted free list.
const NoParticle ParticleID = -1

// NoSpring marks an exhausted spring free list.
const NoSpring SpringID = -1

// Handle pins a particle slot to the generation it had when captured.
// A released and reallocated slot gets a new generation, so stale
// handles can be detected without scanning.
type Handle struct {
	ID  ParticleID
	Gen uint32
}

// Particle is a point mass.
type Particle struct {
	Pos   r3.Vec
	Vel   r3.Vec
	Force r3.Vec // accumulated during a step, cleared after integration

	Mass    float64
	InvMass float64 // 0 for static particles
	Drag    float64

	Kind  Kind
	Color Color

	Alive bool
	Held  bool   // moved directly by a drag gesture, skipped by integration
	Gen   uint32 // bumped on every allocation of this slot
}

// Static reports whether the particle ignores forces.
func (p *Particle) Static() bool {
	return p.InvMass == 0
}

// Spring is an undirected elastic link between two particles.
type Spring struct {
	A, B       ParticleID
	RestLength float64
	Stiffness  float64
	Alive      bool
}

// Other returns the endpoint opposite to id.
func (s *Spring) Other(id ParticleID) ParticleID {
	if s.A == id {
		return s.B
	}
	return s.A
}
