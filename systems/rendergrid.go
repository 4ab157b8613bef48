package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/springsoup/components"
)

// RenderGrid is a display-only density grid over the world rectangle.
// Row 0 is the bottom of the world.
type RenderGrid struct {
	Threshold float64

	resolution int // cells per world unit
	halfW      float64
	halfH      float64
	cellSize   float64
	cols, rows int
	values     []float64
}

// NewRenderGrid creates a render grid with the given cells per world unit.
func NewRenderGrid(halfW, halfH float64, resolution int, threshold float64) *RenderGrid {
	g := &RenderGrid{Threshold: threshold, halfW: halfW, halfH: halfH}
	g.SetResolution(resolution)
	return g
}

// SetResolution changes the number of cells per world unit (minimum 1).
func (g *RenderGrid) SetResolution(resolution int) {
	if resolution < 1 {
		resolution = 1
	}
	g.resolution = resolution
	g.cellSize = 1 / float64(resolution)
	g.cols = cellsAcross(g.halfW, g.cellSize)
	g.rows = cellsAcross(g.halfH, g.cellSize)
	g.values = make([]float64, g.cols*g.rows)
}

// Resolution returns the cells per world unit.
func (g *RenderGrid) Resolution() int { return g.resolution }

// Dims returns the grid width and height in cells.
func (g *RenderGrid) Dims() (cols, rows int) { return g.cols, g.rows }

// CellSize returns the edge length of a render cell.
func (g *RenderGrid) CellSize() float64 { return g.cellSize }

// Index returns the flat index of (col, row).
func (g *RenderGrid) Index(col, row int) int { return row*g.cols + col }

// ColumnRow splits a flat index into column and row.
func (g *RenderGrid) ColumnRow(k int) (col, row int) {
	return k % g.cols, k / g.cols
}

// XY returns the world position of the centre of cell (col, row).
func (g *RenderGrid) XY(col, row int) r3.Vec {
	return r3.Vec{
		X: (float64(col)+0.5)*g.cellSize - g.halfW,
		Y: (float64(row)+0.5)*g.cellSize - g.halfH,
	}
}

// XYFromIndex returns the world position of the centre of cell k.
func (g *RenderGrid) XYFromIndex(k int) r3.Vec {
	return g.XY(g.ColumnRow(k))
}

// IndexOf maps a world position to its cell, clamped to the grid.
func (g *RenderGrid) IndexOf(pos r3.Vec) int {
	col := clampCell(math.Floor((pos.X+g.halfW)/g.cellSize), g.cols)
	row := clampCell(math.Floor((pos.Y+g.halfH)/g.cellSize), g.rows)
	return g.Index(col, row)
}

// Accumulate recomputes per-cell density by splatting every live particle
// bilinearly onto the four nearest cell centres.
func (g *RenderGrid) Accumulate(pool *ParticlePool) {
	for i := range g.values {
		g.values[i] = 0
	}
	pool.ForEachLive(func(_ components.ParticleID, p *components.Particle) {
		fx := (p.Pos.X+g.halfW)/g.cellSize - 0.5
		fy := (p.Pos.Y+g.halfH)/g.cellSize - 0.5
		c0, r0 := math.Floor(fx), math.Floor(fy)
		tx, ty := fx-c0, fy-r0
		g.splat(int(c0), int(r0), (1-tx)*(1-ty))
		g.splat(int(c0)+1, int(r0), tx*(1-ty))
		g.splat(int(c0), int(r0)+1, (1-tx)*ty)
		g.splat(int(c0)+1, int(r0)+1, tx*ty)
	})
}

func (g *RenderGrid) splat(col, row int, w float64) {
	if col < 0 || col >= g.cols || row < 0 || row >= g.rows {
		return
	}
	g.values[g.Index(col, row)] += w
}

// Value returns the accumulated density of cell k.
func (g *RenderGrid) Value(k int) float64 { return g.values[k] }

// Filled reports whether cell k is at or above the render threshold.
func (g *RenderGrid) Filled(k int) bool { return g.values[k] >= g.Threshold }

// Len returns the number of cells.
func (g *RenderGrid) Len() int { return len(g.values) }
