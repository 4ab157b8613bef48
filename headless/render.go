// Package headless draws world snapshots to PNG files without a window.
package headless

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/springsoup/camera"
	"github.com/pthm-cable/springsoup/game"
)

var (
	backgroundColor = color.RGBA{12, 14, 20, 255}
	borderColor     = color.RGBA{90, 90, 110, 255}
	springColor     = color.RGBA{200, 200, 200, 120}
	densityColor    = color.RGBA{60, 130, 240, 255}
)

// Renderer draws snapshots onto an offscreen canvas.
type Renderer struct {
	width, height int
	pointSize     float64
	dc            *gg.Context
}

// NewRenderer creates a renderer for images of the given size.
func NewRenderer(width, height int, pointSize float64) *Renderer {
	if pointSize <= 0 {
		pointSize = 4
	}
	return &Renderer{
		width:     width,
		height:    height,
		pointSize: pointSize,
		dc:        gg.NewContext(width, height),
	}
}

// Render draws a snapshot and returns the canvas image. The image is
// reused by the next call.
func (r *Renderer) Render(s *game.Snapshot) image.Image {
	dc := r.dc
	cam := camera.New(float64(r.width), float64(r.height), s.HalfWidth, s.HalfHeight)

	dc.SetColor(backgroundColor)
	dc.Clear()

	// world box
	x0, y0 := cam.WorldToScreen(-s.HalfWidth, s.HalfHeight)
	x1, y1 := cam.WorldToScreen(s.HalfWidth, -s.HalfHeight)
	dc.SetColor(borderColor)
	dc.SetLineWidth(1)
	dc.DrawRectangle(x0, y0, x1-x0, y1-y0)
	dc.Stroke()

	if s.Density != nil {
		r.drawDensity(cam, s)
	} else {
		if s.Toggles.RenderOption == game.RenderSprings {
			r.drawSprings(cam, s.Springs)
		}
		r.drawParticles(cam, s.Particles)
	}
	return dc.Image()
}

func (r *Renderer) drawParticles(cam *camera.Camera, particles []game.ParticleView) {
	dc := r.dc
	radius := r.pointSize / 2
	for _, p := range particles {
		sx, sy, _ := cam.Project(r3.Vec{X: p.Pos[0], Y: p.Pos[1], Z: p.Pos[2]})
		dc.SetColor(color.RGBA{p.Color[0], p.Color[1], p.Color[2], 255})
		dc.DrawCircle(sx, sy, radius)
		dc.Fill()
	}
}

func (r *Renderer) drawSprings(cam *camera.Camera, springs []game.SpringView) {
	dc := r.dc
	dc.SetColor(springColor)
	dc.SetLineWidth(1)
	for _, sp := range springs {
		ax, ay, _ := cam.Project(r3.Vec{X: sp.From[0], Y: sp.From[1], Z: sp.From[2]})
		bx, by, _ := cam.Project(r3.Vec{X: sp.To[0], Y: sp.To[1], Z: sp.To[2]})
		dc.DrawLine(ax, ay, bx, by)
		dc.Stroke()
	}
}

// drawDensity fills every render cell at or above the threshold.
func (r *Renderer) drawDensity(cam *camera.Camera, s *game.Snapshot) {
	dc := r.dc
	d := s.Density
	size := d.CellSize * cam.PixelsPerUnit()
	dc.SetColor(densityColor)
	for k, v := range d.Values {
		if v < d.Threshold {
			continue
		}
		col, row := k%d.Cols, k/d.Cols
		// top-left corner of the cell: row 0 is the bottom of the world
		wx := float64(col)*d.CellSize - s.HalfWidth
		wy := float64(row+1)*d.CellSize - s.HalfHeight
		sx, sy := cam.WorldToScreen(wx, wy)
		dc.DrawRectangle(sx, sy, size, size)
	}
	dc.Fill()
}

// SavePNG renders a snapshot and writes it to path.
func (r *Renderer) SavePNG(s *game.Snapshot, path string) error {
	r.Render(s)
	if err := r.dc.SavePNG(path); err != nil {
		return fmt.Errorf("saving frame %s: %w", path, err)
	}
	return nil
}

// FrameWriter saves a numbered PNG every few ticks.
type FrameWriter struct {
	dir      string
	every    int32
	renderer *Renderer
}

// NewFrameWriter creates dir and returns a writer saving every n ticks.
func NewFrameWriter(dir string, every int, r *Renderer) (*FrameWriter, error) {
	if every < 1 {
		every = 1
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating frame directory: %w", err)
	}
	return &FrameWriter{dir: dir, every: int32(every), renderer: r}, nil
}

// MaybeWrite saves the snapshot if its tick is due. It returns the path
// written, or "" when the tick was skipped.
func (f *FrameWriter) MaybeWrite(s *game.Snapshot) (string, error) {
	if s == nil || s.Tick%f.every != 0 {
		return "", nil
	}
	path := filepath.Join(f.dir, fmt.Sprintf("frame_%06d.png", s.Tick))
	if err := f.renderer.SavePNG(s, path); err != nil {
		return "", err
	}
	return path, nil
}
