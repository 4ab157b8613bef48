package game

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/springsoup/components"
	"github.com/pthm-cable/springsoup/systems"
)

// Tool selects what the left mouse button does.
type Tool int

const (
	ToolDraw Tool = iota
	ToolDrag
)

// GestureState is the current mouse gesture.
type GestureState int

const (
	Idle GestureState = iota
	Drawing
	Erasing
	Dragging
)

func (s GestureState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Drawing:
		return "drawing"
	case Erasing:
		return "erasing"
	case Dragging:
		return "dragging"
	}
	return "unknown"
}

// InteractionController turns mouse input in window pixels into draw,
// erase and drag edits of the world.
type InteractionController struct {
	Tool Tool

	w       *World
	state   GestureState
	dragged []components.Handle
	prev    r3.Vec // world position of the last drag sample
	scratch []components.ParticleID
}

func newInteractionController(w *World) *InteractionController {
	return &InteractionController{
		w:       w,
		scratch: make([]components.ParticleID, 0, 128),
	}
}

// State returns the current gesture.
func (c *InteractionController) State() GestureState { return c.state }

// Dragged returns how many particles the current drag holds.
func (c *InteractionController) Dragged() int { return len(c.dragged) }

// toWorld maps a pixel to the z = 0 plane, clamped into the world.
func (c *InteractionController) toWorld(x, y float64) r3.Vec {
	wx, wy := c.w.camera.ScreenToWorldClamped(x, y)
	return r3.Vec{X: wx, Y: wy}
}

// MouseDraw spawns particles of the selected kind at the pixel, or walls
// when wall drawing is on. Returns how many were spawned.
func (c *InteractionController) MouseDraw(x, y float64) int {
	c.state = Drawing
	w := c.w
	kind := w.drawKind
	if w.toggles.DrawWall {
		kind = components.Wall
	}
	at := c.toWorld(x, y)
	jitter := w.cfg.Interaction.DrawJitter

	n := 0
	for i := 0; i < w.cfg.Interaction.DrawCount; i++ {
		pos := at
		if jitter > 0 {
			pos.X += (w.rng.Float64()*2 - 1) * jitter
			pos.Y += (w.rng.Float64()*2 - 1) * jitter
			if w.toggles.ThreeD {
				pos.Z += (w.rng.Float64()*2 - 1) * jitter
			}
		}
		if _, err := w.Spawn(kind, pos); err != nil {
			w.log.Debug("draw dropped", "kind", kind.String(), "error", err)
			continue
		}
		n++
	}
	return n
}

// MouseErase releases every particle within the interaction radius of the
// pixel, measured in the screen plane. Returns how many were released.
func (c *InteractionController) MouseErase(x, y float64) int {
	c.state = Erasing
	w := c.w
	at := c.toWorld(x, y)
	r := w.cfg.Interaction.Radius

	n := 0
	c.query(at, r, func(id components.ParticleID, _ *components.Particle) {
		if err := w.Release(id); err == nil {
			n++
		}
	})
	return n
}

// SelectDraggedParticles starts a drag holding every movable particle
// within the interaction radius. Returns how many were picked up.
func (c *InteractionController) SelectDraggedParticles(x, y float64) int {
	c.releaseDragged()
	c.state = Dragging
	c.prev = c.toWorld(x, y)

	pool := c.w.pools.Particles
	c.query(c.prev, c.w.cfg.Interaction.Radius, func(id components.ParticleID, p *components.Particle) {
		// layer windows can overlap in a deep world
		if p.Static() || p.Held {
			return
		}
		if h, ok := pool.HandleOf(id); ok {
			p.Held = true
			p.Vel = r3.Vec{}
			c.dragged = append(c.dragged, h)
		}
	})
	return len(c.dragged)
}

// MouseDrag moves every held particle by the world-space mouse delta.
// Particles released since the drag started are dropped from the set.
func (c *InteractionController) MouseDrag(x, y float64) {
	if c.state != Dragging {
		return
	}
	at := c.toWorld(x, y)
	delta := r3.Sub(at, c.prev)
	c.prev = at

	pool := c.w.pools.Particles
	bounds := c.w.physics.Bounds
	kept := c.dragged[:0]
	for _, h := range c.dragged {
		p := pool.Resolve(h)
		if p == nil {
			continue
		}
		p.Pos = r3.Add(p.Pos, delta)
		p.Vel = r3.Vec{}
		systems.ClampParticle(p, bounds, 0)
		kept = append(kept, h)
	}
	c.dragged = kept
	c.w.gridDirty = true
}

// MouseDragEnd applies the final move and lets go of every held particle.
func (c *InteractionController) MouseDragEnd(x, y float64) {
	c.MouseDrag(x, y)
	c.releaseDragged()
	c.state = Idle
}

// MouseMove dispatches one mouse sample. The right button always erases;
// the left button draws or drags depending on Tool; no button ends the
// current gesture.
func (c *InteractionController) MouseMove(x, y float64, left, right bool) {
	switch {
	case right:
		c.endGesture()
		c.MouseErase(x, y)
	case left && c.Tool == ToolDrag:
		if c.state == Dragging {
			c.MouseDrag(x, y)
		} else {
			c.SelectDraggedParticles(x, y)
		}
	case left:
		if c.state == Dragging {
			c.MouseDragEnd(x, y)
		}
		c.MouseDraw(x, y)
	default:
		if c.state == Dragging {
			c.MouseDragEnd(x, y)
		}
		c.state = Idle
	}
}

// endGesture finishes any gesture without moving particles.
func (c *InteractionController) endGesture() {
	c.releaseDragged()
	c.state = Idle
}

// reset forgets the drag set without touching particles, for use before
// the pools are cleared.
func (c *InteractionController) reset() {
	c.dragged = c.dragged[:0]
	c.state = Idle
}

func (c *InteractionController) releaseDragged() {
	pool := c.w.pools.Particles
	for _, h := range c.dragged {
		if p := pool.Resolve(h); p != nil {
			p.Held = false
		}
	}
	c.dragged = c.dragged[:0]
}

// query calls fn for each live particle within radius r of at in the
// x/y plane. In a deep world every layer under the cursor is searched.
func (c *InteractionController) query(at r3.Vec, r float64, fn func(components.ParticleID, *components.Particle)) {
	w := c.w
	w.refreshGrid()
	grid := w.grid
	pool := w.pools.Particles

	rings := grid.RingsFor(r)
	col, row, _ := grid.CellCoords(grid.CellOf(at))
	_, _, layers := grid.Dims()
	span := 2*rings + 1
	r2 := r * r

	for layer := min(rings, layers-1); ; layer += span {
		if layer >= layers {
			layer = layers - 1
		}
		cell := grid.CellIndex(col, row, layer)
		c.scratch, _ = w.SurroundingParticles(c.scratch[:0], cell, rings, false)
		for _, id := range c.scratch {
			// earlier callbacks may have released it
			p := pool.Get(id)
			if p == nil {
				continue
			}
			dx, dy := p.Pos.X-at.X, p.Pos.Y-at.Y
			if dx*dx+dy*dy <= r2 {
				fn(id, p)
			}
		}
		if layer+rings >= layers-1 {
			return
		}
	}
}
