package game

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/springsoup/components"
)

// ParticleInfo describes one particle for the inspector panel.
type ParticleInfo struct {
	ID      components.ParticleID
	Kind    components.Kind
	Pos     r3.Vec
	Vel     r3.Vec
	Mass    float64
	Drag    float64
	Color   components.Color
	Springs int
	Held    bool
	Static  bool
}

// Inspect returns the live particle nearest to the window point (x, y)
// within the interaction radius.
func (w *World) Inspect(x, y float64) (ParticleInfo, bool) {
	c := w.interaction
	at := c.toWorld(x, y)

	best := components.NoParticle
	bestD2 := math.Inf(1)
	c.query(at, w.cfg.Interaction.Radius, func(id components.ParticleID, p *components.Particle) {
		dx, dy := p.Pos.X-at.X, p.Pos.Y-at.Y
		if d2 := dx*dx + dy*dy; d2 < bestD2 {
			best, bestD2 = id, d2
		}
	})
	if best == components.NoParticle {
		return ParticleInfo{}, false
	}

	p := w.pools.Particles.Get(best)
	return ParticleInfo{
		ID:      best,
		Kind:    p.Kind,
		Pos:     p.Pos,
		Vel:     p.Vel,
		Mass:    p.Mass,
		Drag:    p.Drag,
		Color:   p.Color,
		Springs: w.pools.Springs.Degree(best),
		Held:    p.Held,
		Static:  p.Static(),
	}, true
}
