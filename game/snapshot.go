package game

import (
	"github.com/pthm-cable/springsoup/components"
)

// ParticleView is the published state of one particle.
type ParticleView struct {
	ID    int32      `json:"id"`
	Pos   [3]float64 `json:"pos"`
	Kind  string     `json:"kind"`
	Color [3]uint8   `json:"color"`
}

// SpringView is the published state of one spring.
type SpringView struct {
	A    int32      `json:"a"`
	B    int32      `json:"b"`
	From [3]float64 `json:"from"`
	To   [3]float64 `json:"to"`
}

// DensityView is the published render grid.
type DensityView struct {
	Cols      int       `json:"cols"`
	Rows      int       `json:"rows"`
	CellSize  float64   `json:"cell_size"`
	Threshold float64   `json:"threshold"`
	Values    []float64 `json:"values"`
}

// Counts summarises pool occupancy.
type Counts struct {
	Particles   int `json:"particles"`
	ParticleCap int `json:"particle_cap"`
	Springs     int `json:"springs"`
	SpringCap   int `json:"spring_cap"`
	Randomized  int `json:"randomized"`
}

// Snapshot is an immutable copy of the world taken after a step. It is
// safe to share between goroutines.
type Snapshot struct {
	Tick       int32          `json:"tick"`
	SimTime    float64        `json:"sim_time"`
	HalfWidth  float64        `json:"half_width"`
	HalfHeight float64        `json:"half_height"`
	HalfDepth  float64        `json:"half_depth"`
	Toggles    Toggles        `json:"toggles"`
	DrawKind   string         `json:"draw_kind"`
	Gesture    string         `json:"gesture"`
	Counts     Counts         `json:"counts"`
	Particles  []ParticleView `json:"particles"`
	Springs    []SpringView   `json:"springs"`
	Density    *DensityView   `json:"density,omitempty"`
}

// Snapshot copies the current world state.
func (w *World) Snapshot() *Snapshot {
	pp, sp := w.pools.Particles, w.pools.Springs
	b := w.physics.Bounds

	s := &Snapshot{
		Tick:       w.tick,
		SimTime:    w.simTime,
		HalfWidth:  b.Half.X,
		HalfHeight: b.Half.Y,
		HalfDepth:  b.Half.Z,
		Toggles:    w.toggles,
		DrawKind:   w.drawKind.String(),
		Gesture:    w.interaction.State().String(),
		Counts: Counts{
			Particles:   pp.Live(),
			ParticleCap: pp.Cap(),
			Springs:     sp.Live(),
			SpringCap:   sp.Cap(),
			Randomized:  w.randomized,
		},
		Particles: make([]ParticleView, 0, pp.Live()),
		Springs:   make([]SpringView, 0, sp.Live()),
	}

	pp.ForEachLive(func(id components.ParticleID, p *components.Particle) {
		s.Particles = append(s.Particles, ParticleView{
			ID:    int32(id),
			Pos:   [3]float64{p.Pos.X, p.Pos.Y, p.Pos.Z},
			Kind:  p.Kind.String(),
			Color: [3]uint8{p.Color.R, p.Color.G, p.Color.B},
		})
	})
	sp.ForEachLive(func(_ components.SpringID, spring *components.Spring) {
		a, bp := pp.Get(spring.A), pp.Get(spring.B)
		if a == nil || bp == nil {
			return
		}
		s.Springs = append(s.Springs, SpringView{
			A:    int32(spring.A),
			B:    int32(spring.B),
			From: [3]float64{a.Pos.X, a.Pos.Y, a.Pos.Z},
			To:   [3]float64{bp.Pos.X, bp.Pos.Y, bp.Pos.Z},
		})
	})

	if w.toggles.RenderOption == RenderDensity {
		rg := w.renderGrid
		cols, rows := rg.Dims()
		d := &DensityView{
			Cols:      cols,
			Rows:      rows,
			CellSize:  rg.CellSize(),
			Threshold: rg.Threshold,
			Values:    make([]float64, rg.Len()),
		}
		for k := range d.Values {
			d.Values[k] = rg.Value(k)
		}
		s.Density = d
	}
	return s
}

// Publish stores a fresh snapshot for readers on other goroutines.
func (w *World) Publish() {
	w.latest.Store(w.Snapshot())
}

// Latest returns the most recently published snapshot. It is safe to call
// from any goroutine and never returns nil after NewWorld.
func (w *World) Latest() *Snapshot {
	return w.latest.Load()
}
