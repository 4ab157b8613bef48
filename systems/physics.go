package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/springsoup/components"
)

// PhysicsParams holds the tunables of one simulation step.
type PhysicsParams struct {
	Gravity float64 // magnitude along -y

	CollisionDistance  float64
	CollisionStiffness float64
	Restitution        float64
	WallDistance       float64

	SpringStiffness float64
	SpringDamping   float64
	BreakRatio      float64
	MaxSprings      int
	LinkDistance    float64

	Elastic [components.NumKinds]bool
}

// Bounds is the half extent of the world box. Z == 0 means a flat world.
type Bounds struct {
	Half r3.Vec
}

// Flat reports whether the world has no depth.
func (b Bounds) Flat() bool { return b.Half.Z == 0 }

// StepStats counts what a step changed.
type StepStats struct {
	SpringsBroken  int
	SpringsLinked  int
	SpringsDropped int // links refused by a full spring pool
	Collisions     int
	WallContacts   int
}

// PhysicsSystem runs the force, integration and neighbour phases.
type PhysicsSystem struct {
	Params PhysicsParams
	Bounds Bounds

	pools   *Pools
	grid    *SpatialGrid
	scratch []components.ParticleID
}

// NewPhysicsSystem creates a physics system over shared pools and grid.
func NewPhysicsSystem(pools *Pools, grid *SpatialGrid, params PhysicsParams, bounds Bounds) *PhysicsSystem {
	return &PhysicsSystem{
		Params:  params,
		Bounds:  bounds,
		pools:   pools,
		grid:    grid,
		scratch: make([]components.ParticleID, 0, 64),
	}
}

// ApplyGlobalForces adds gravity (when enabled) and linear drag to every
// movable particle.
func (s *PhysicsSystem) ApplyGlobalForces(gravity bool) {
	g := r3.Vec{Y: -s.Params.Gravity}
	s.pools.Particles.ForEachLive(func(_ components.ParticleID, p *components.Particle) {
		if p.Static() || p.Held {
			return
		}
		if gravity {
			p.Force = r3.Add(p.Force, r3.Scale(p.Mass, g))
		}
		if p.Drag != 0 {
			p.Force = r3.Sub(p.Force, r3.Scale(p.Drag, p.Vel))
		}
	})
}

// ApplySprings accumulates Hookean forces with damping along each spring
// onto both endpoints. Springs stretched past BreakRatio are deleted.
func (s *PhysicsSystem) ApplySprings(st *StepStats) {
	particles := s.pools.Particles
	springs := s.pools.Springs
	springs.ForEachLive(func(id components.SpringID, sp *components.Spring) {
		a, b := particles.Get(sp.A), particles.Get(sp.B)
		if a == nil || b == nil {
			// cannot happen while release cascades; drop rather than crash
			springs.Delete(id)
			return
		}
		d := r3.Sub(b.Pos, a.Pos)
		length := r3.Norm(d)
		if s.Params.BreakRatio > 0 && length > sp.RestLength*s.Params.BreakRatio {
			springs.Delete(id)
			st.SpringsBroken++
			return
		}
		if length == 0 {
			return
		}
		n := r3.Scale(1/length, d)
		relVel := r3.Dot(r3.Sub(b.Vel, a.Vel), n)
		f := r3.Scale(sp.Stiffness*(length-sp.RestLength)+s.Params.SpringDamping*relVel, n)
		a.Force = r3.Add(a.Force, f)
		b.Force = r3.Sub(b.Force, f)
	})
}

// Integrate advances velocity then position (semi-implicit Euler) and
// clears accumulated forces. Static and held particles do not move.
func (s *PhysicsSystem) Integrate(dt float64) {
	flat := s.Bounds.Flat()
	s.pools.Particles.ForEachLive(func(_ components.ParticleID, p *components.Particle) {
		if p.Static() || p.Held {
			p.Force = r3.Vec{}
			return
		}
		p.Vel = r3.Add(p.Vel, r3.Scale(p.InvMass*dt, p.Force))
		if flat {
			p.Vel.Z = 0
		}
		p.Pos = r3.Add(p.Pos, r3.Scale(dt, p.Vel))
		if flat {
			p.Pos.Z = 0
		}
		p.Force = r3.Vec{}
	})
}

// ResolveNeighbors applies pair repulsion, links elastic neighbours and
// pushes particles off walls. The grid must have been rebuilt this step.
func (s *PhysicsSystem) ResolveNeighbors(withWalls bool, st *StepStats) {
	particles := s.pools.Particles
	reach := math.Max(s.Params.CollisionDistance, s.Params.LinkDistance)
	rings := s.grid.RingsFor(reach)

	for _, cell := range s.grid.OccupiedCells() {
		var walls Walls
		s.scratch, walls = SurroundingParticles(s.grid, particles, s.scratch[:0], cell, rings, withWalls)
		for _, i := range s.grid.Bucket(cell) {
			pi := particles.Get(i)
			if pi == nil {
				continue
			}
			for _, j := range s.scratch {
				if j <= i {
					continue
				}
				if pj := particles.Get(j); pj != nil {
					s.resolvePair(i, j, pi, pj, st)
				}
			}
			if walls != 0 {
				st.WallContacts += s.pushOffWalls(pi, walls)
			}
		}
	}
}

// effInvMass treats held particles as immovable.
func effInvMass(p *components.Particle) float64 {
	if p.Held {
		return 0
	}
	return p.InvMass
}

func (s *PhysicsSystem) resolvePair(i, j components.ParticleID, a, b *components.Particle, st *StepStats) {
	d := r3.Sub(b.Pos, a.Pos)
	dist := r3.Norm(d)

	if s.Params.Elastic[a.Kind] && a.Kind == b.Kind && dist < s.Params.LinkDistance {
		s.link(i, j, dist, st)
	}

	cd := s.Params.CollisionDistance
	if dist >= cd {
		return
	}
	wa, wb := effInvMass(a), effInvMass(b)
	wsum := wa + wb
	if wsum == 0 {
		return
	}

	var n r3.Vec
	if dist > 1e-9 {
		n = r3.Scale(1/dist, d)
	} else {
		// coincident; separate along x so the result is deterministic
		n = r3.Vec{X: 1}
	}

	corr := (cd - dist) * s.Params.CollisionStiffness
	a.Pos = r3.Sub(a.Pos, r3.Scale(corr*wa/wsum, n))
	b.Pos = r3.Add(b.Pos, r3.Scale(corr*wb/wsum, n))

	vn := r3.Dot(r3.Sub(b.Vel, a.Vel), n)
	if vn < 0 {
		imp := -(1 + s.Params.Restitution) * vn / wsum
		a.Vel = r3.Sub(a.Vel, r3.Scale(imp*wa, n))
		b.Vel = r3.Add(b.Vel, r3.Scale(imp*wb, n))
	}
	st.Collisions++
}

func (s *PhysicsSystem) link(i, j components.ParticleID, dist float64, st *StepStats) {
	springs := s.pools.Springs
	if s.Params.MaxSprings > 0 && (springs.Degree(i) >= s.Params.MaxSprings || springs.Degree(j) >= s.Params.MaxSprings) {
		return
	}
	if springs.Connected(i, j) {
		return
	}
	_, err := springs.Insert(components.Spring{
		A:          i,
		B:          j,
		RestLength: math.Max(dist, s.Params.CollisionDistance),
		Stiffness:  s.Params.SpringStiffness,
	})
	if err != nil {
		st.SpringsDropped++
		return
	}
	st.SpringsLinked++
}

// pushOffWalls moves a particle out of the wall band on each flagged side
// and reflects its velocity into the world. Returns contacts made.
func (s *PhysicsSystem) pushOffWalls(p *components.Particle, walls Walls) int {
	if p.Static() || p.Held {
		return 0
	}
	h := s.Bounds.Half
	wd := s.Params.WallDistance
	k := s.Params.CollisionStiffness
	e := s.Params.Restitution
	n := 0

	push := func(pos, vel *float64, lo float64, dir float64) {
		// dir = +1 pushes towards +axis (from the low wall), -1 from the high wall
		gap := (*pos - lo) * dir
		if gap >= wd {
			return
		}
		*pos += (wd - gap) * k * dir
		if *vel*dir < 0 {
			*vel = -*vel * e
		}
		n++
	}

	if walls&WallLeft != 0 {
		push(&p.Pos.X, &p.Vel.X, -h.X, 1)
	}
	if walls&WallRight != 0 {
		push(&p.Pos.X, &p.Vel.X, h.X, -1)
	}
	if walls&WallBottom != 0 {
		push(&p.Pos.Y, &p.Vel.Y, -h.Y, 1)
	}
	if walls&WallTop != 0 {
		push(&p.Pos.Y, &p.Vel.Y, h.Y, -1)
	}
	if walls&WallBack != 0 {
		push(&p.Pos.Z, &p.Vel.Z, -h.Z, 1)
	}
	if walls&WallFront != 0 {
		push(&p.Pos.Z, &p.Vel.Z, h.Z, -1)
	}
	return n
}

// ClampToBounds keeps every particle inside the world box, reflecting the
// velocity component that crossed a wall.
func (s *PhysicsSystem) ClampToBounds() {
	s.pools.Particles.ForEachLive(func(_ components.ParticleID, p *components.Particle) {
		ClampParticle(p, s.Bounds, s.Params.Restitution)
	})
}

// ClampParticle brings a single particle back inside the bounds.
func ClampParticle(p *components.Particle, b Bounds, restitution float64) {
	clampAxis(&p.Pos.X, &p.Vel.X, b.Half.X, restitution)
	clampAxis(&p.Pos.Y, &p.Vel.Y, b.Half.Y, restitution)
	if b.Flat() {
		p.Pos.Z, p.Vel.Z = 0, 0
	} else {
		clampAxis(&p.Pos.Z, &p.Vel.Z, b.Half.Z, restitution)
	}
}

func clampAxis(pos, vel *float64, half, restitution float64) {
	switch {
	case *pos < -half:
		*pos = -half
		if *vel < 0 {
			*vel = -*vel * restitution
		}
	case *pos > half:
		*pos = half
		if *vel > 0 {
			*vel = -*vel * restitution
		}
	}
}

// SurroundingParticles queries the grid around a cell and drops particles
// released since the last rebuild. Interaction and physics share it.
func SurroundingParticles(g *SpatialGrid, pool *ParticlePool, dst []components.ParticleID, cell, rings int, withWalls bool) ([]components.ParticleID, Walls) {
	start := len(dst)
	dst, walls := g.Neighbors(dst, cell, rings, withWalls)
	out := dst[:start]
	for _, id := range dst[start:] {
		if pool.IsLive(id) {
			out = append(out, id)
		}
	}
	return out, walls
}
