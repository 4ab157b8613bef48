// Package renderer draws world snapshots into a raylib window.
package renderer

import (
	"sort"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/springsoup/camera"
	"github.com/pthm-cable/springsoup/game"
)

var (
	colorBorder  = rl.Color{R: 90, G: 90, B: 110, A: 255}
	colorSpring  = rl.Color{R: 200, G: 200, B: 200, A: 110}
	colorDensity = rl.Color{R: 60, G: 130, B: 240, A: 255}
)

// projected is a particle mapped to the screen.
type projected struct {
	x, y, depth float32
	color       rl.Color
}

// WorldRenderer draws particles, springs and the density grid.
type WorldRenderer struct {
	PointSize float32

	points []projected // reused between frames
}

// NewWorldRenderer creates a renderer drawing particles pointSize pixels
// wide at zoom 1.
func NewWorldRenderer(pointSize float32) *WorldRenderer {
	if pointSize <= 0 {
		pointSize = 4
	}
	return &WorldRenderer{PointSize: pointSize}
}

// Draw renders a snapshot. It must be called between BeginDrawing and
// EndDrawing.
func (r *WorldRenderer) Draw(s *game.Snapshot, cam *camera.Camera) {
	r.drawBounds(s, cam)

	if s.Density != nil {
		r.drawDensity(s, cam)
		return
	}
	if s.Toggles.RenderOption == game.RenderSprings {
		r.drawSprings(s.Springs, cam)
	}
	r.drawParticles(s, cam)
}

func (r *WorldRenderer) drawParticles(s *game.Snapshot, cam *camera.Camera) {
	r.points = r.points[:0]
	for _, p := range s.Particles {
		x, y, depth := cam.Project(r3.Vec{X: p.Pos[0], Y: p.Pos[1], Z: p.Pos[2]})
		r.points = append(r.points, projected{
			x:     float32(x),
			y:     float32(y),
			depth: float32(depth),
			color: rl.Color{R: p.Color[0], G: p.Color[1], B: p.Color[2], A: 255},
		})
	}

	radius := r.PointSize / 2 * float32(cam.Zoom)
	if !s.Toggles.ThreeD {
		for _, p := range r.points {
			rl.DrawCircleV(rl.Vector2{X: p.x, Y: p.y}, radius, p.color)
		}
		return
	}

	// far to near, dimming with distance
	sort.Slice(r.points, func(i, j int) bool { return r.points[i].depth < r.points[j].depth })
	depth := float32(s.HalfDepth)
	if depth <= 0 {
		depth = 1
	}
	for _, p := range r.points {
		t := (p.depth/depth + 1) / 2 // 0 far, 1 near
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
		c := rl.ColorBrightness(p.color, -0.5*(1-t))
		rl.DrawCircleV(rl.Vector2{X: p.x, Y: p.y}, radius*(0.6+0.6*t), c)
	}
}

func (r *WorldRenderer) drawSprings(springs []game.SpringView, cam *camera.Camera) {
	for _, sp := range springs {
		ax, ay, _ := cam.Project(r3.Vec{X: sp.From[0], Y: sp.From[1], Z: sp.From[2]})
		bx, by, _ := cam.Project(r3.Vec{X: sp.To[0], Y: sp.To[1], Z: sp.To[2]})
		rl.DrawLineV(
			rl.Vector2{X: float32(ax), Y: float32(ay)},
			rl.Vector2{X: float32(bx), Y: float32(by)},
			colorSpring,
		)
	}
}

// drawDensity shades every render cell at or above the threshold.
// Denser cells are more opaque.
func (r *WorldRenderer) drawDensity(s *game.Snapshot, cam *camera.Camera) {
	d := s.Density
	size := float32(d.CellSize * cam.PixelsPerUnit())
	for k, v := range d.Values {
		if v < d.Threshold {
			continue
		}
		col, row := k%d.Cols, k/d.Cols
		// row 0 is the bottom of the world
		sx, sy := cam.WorldToScreen(float64(col)*d.CellSize-s.HalfWidth, float64(row+1)*d.CellSize-s.HalfHeight)
		alpha := float32(0.4 + 0.6*min(1, (v-d.Threshold)/d.Threshold))
		rl.DrawRectangleV(
			rl.Vector2{X: float32(sx), Y: float32(sy)},
			rl.Vector2{X: size, Y: size},
			rl.Fade(colorDensity, alpha),
		)
	}
}

// drawBounds outlines the world box, as a projected cuboid in 3-D.
func (r *WorldRenderer) drawBounds(s *game.Snapshot, cam *camera.Camera) {
	hw, hh, hd := s.HalfWidth, s.HalfHeight, s.HalfDepth
	if !s.Toggles.ThreeD {
		hd = 0
	}

	var corners [8]rl.Vector2
	for i := range corners {
		p := r3.Vec{X: -hw, Y: -hh, Z: -hd}
		if i&1 != 0 {
			p.X = hw
		}
		if i&2 != 0 {
			p.Y = hh
		}
		if i&4 != 0 {
			p.Z = hd
		}
		x, y, _ := cam.Project(p)
		corners[i] = rl.Vector2{X: float32(x), Y: float32(y)}
	}

	// edges join corners differing in one bit
	for i := 0; i < 8; i++ {
		for bit := 1; bit < 8; bit <<= 1 {
			if j := i | bit; j != i {
				rl.DrawLineV(corners[i], corners[j], colorBorder)
			}
		}
	}
}
