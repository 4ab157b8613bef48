// Package systems provides the pools, grids and per-step physics of the simulation.
package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/springsoup/components"
)

// Walls is a bitmask of world boundary sides touched by a neighbour query.
type Walls uint8

const (
	WallLeft Walls = 1 << iota
	WallRight
	WallBottom
	WallTop
	WallBack
	WallFront
)

// SpatialGrid buckets particles into uniform cells covering the world box
// [-half, half]. It is a cache rebuilt from positions every step.
//
// Memory layout: cells[(layer*rows+row)*cols+col]. Flat worlds have one layer.
type SpatialGrid struct {
	cellSize float64
	half     r3.Vec
	cols     int
	rows     int
	layers   int
	cells    [][]components.ParticleID
	occupied []bool
	nonEmpty []int // occupied cell indices, for clearing and sparse passes
}

// NewSpatialGrid creates a grid for the world box. halfD <= 0 makes it flat.
func NewSpatialGrid(halfW, halfH, halfD, cellSize float64) *SpatialGrid {
	g := &SpatialGrid{}
	g.Resize(halfW, halfH, halfD, cellSize)
	return g
}

// Resize reallocates the grid for new extents, e.g. when 3-D mode toggles.
// The grid is empty afterwards.
func (g *SpatialGrid) Resize(halfW, halfH, halfD, cellSize float64) {
	g.cellSize = cellSize
	g.half = r3.Vec{X: halfW, Y: halfH, Z: math.Max(halfD, 0)}
	g.cols = cellsAcross(halfW, cellSize)
	g.rows = cellsAcross(halfH, cellSize)
	g.layers = 1
	if halfD > 0 {
		g.layers = cellsAcross(halfD, cellSize)
	}
	n := g.cols * g.rows * g.layers
	g.cells = make([][]components.ParticleID, n)
	g.occupied = make([]bool, n)
	g.nonEmpty = g.nonEmpty[:0]
}

func cellsAcross(half, s float64) int {
	n := int(math.Ceil(2 * half / s))
	if n < 1 {
		n = 1
	}
	return n
}

// Clear removes all particles from the grid.
func (g *SpatialGrid) Clear() {
	for _, idx := range g.nonEmpty {
		g.cells[idx] = g.cells[idx][:0]
		g.occupied[idx] = false
	}
	g.nonEmpty = g.nonEmpty[:0]
}

// Insert adds a particle to the cell containing pos.
func (g *SpatialGrid) Insert(id components.ParticleID, pos r3.Vec) {
	idx := g.CellOf(pos)
	if !g.occupied[idx] {
		g.occupied[idx] = true
		g.nonEmpty = append(g.nonEmpty, idx)
	}
	g.cells[idx] = append(g.cells[idx], id)
}

// Rebuild clears the grid and inserts every live particle.
func (g *SpatialGrid) Rebuild(pool *ParticlePool) {
	g.Clear()
	pool.ForEachLive(func(id components.ParticleID, p *components.Particle) {
		g.Insert(id, p.Pos)
	})
}

// CellOf maps a position to its cell, clamping each axis to the grid.
func (g *SpatialGrid) CellOf(pos r3.Vec) int {
	col := clampCell(math.Floor((pos.X+g.half.X)/g.cellSize), g.cols)
	row := clampCell(math.Floor((pos.Y+g.half.Y)/g.cellSize), g.rows)
	layer := 0
	if g.layers > 1 {
		layer = clampCell(math.Floor((pos.Z+g.half.Z)/g.cellSize), g.layers)
	}
	return g.CellIndex(col, row, layer)
}

func clampCell(v float64, n int) int {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v >= float64(n) {
		return n - 1
	}
	return int(v)
}

// CellIndex returns the flat index of a cell.
func (g *SpatialGrid) CellIndex(col, row, layer int) int {
	return (layer*g.rows+row)*g.cols + col
}

// CellCoords splits a flat index into column, row and layer.
func (g *SpatialGrid) CellCoords(cell int) (col, row, layer int) {
	col = cell % g.cols
	rest := cell / g.cols
	row = rest % g.rows
	layer = rest / g.rows
	return col, row, layer
}

// CellCenter returns the world position of a cell's centre.
// CellOf(CellCenter(i)) == i for every valid i.
func (g *SpatialGrid) CellCenter(cell int) r3.Vec {
	col, row, layer := g.CellCoords(cell)
	c := r3.Vec{
		X: (float64(col)+0.5)*g.cellSize - g.half.X,
		Y: (float64(row)+0.5)*g.cellSize - g.half.Y,
	}
	if g.layers > 1 {
		c.Z = (float64(layer)+0.5)*g.cellSize - g.half.Z
	}
	return c
}

// Neighbors appends the particles in cell and in the rings of cells around
// it to dst. Cells outside the grid are skipped. When includeWalls is set,
// the returned mask flags every boundary side the query window reaches.
func (g *SpatialGrid) Neighbors(dst []components.ParticleID, cell, rings int, includeWalls bool) ([]components.ParticleID, Walls) {
	if cell < 0 || cell >= len(g.cells) {
		return dst, 0
	}
	if rings < 0 {
		rings = 0
	}
	col, row, layer := g.CellCoords(cell)

	lr := rings
	if g.layers == 1 {
		lr = 0
	}
	for dl := -lr; dl <= lr; dl++ {
		l := layer + dl
		if l < 0 || l >= g.layers {
			continue
		}
		for dr := -rings; dr <= rings; dr++ {
			r := row + dr
			if r < 0 || r >= g.rows {
				continue
			}
			for dc := -rings; dc <= rings; dc++ {
				c := col + dc
				if c < 0 || c >= g.cols {
					continue
				}
				idx := g.CellIndex(c, r, l)
				if g.occupied[idx] {
					dst = append(dst, g.cells[idx]...)
				}
			}
		}
	}

	var walls Walls
	if includeWalls {
		if col-rings <= 0 {
			walls |= WallLeft
		}
		if col+rings >= g.cols-1 {
			walls |= WallRight
		}
		if row-rings <= 0 {
			walls |= WallBottom
		}
		if row+rings >= g.rows-1 {
			walls |= WallTop
		}
		if g.layers > 1 {
			if layer-rings <= 0 {
				walls |= WallBack
			}
			if layer+rings >= g.layers-1 {
				walls |= WallFront
			}
		}
	}
	return dst, walls
}

// RingsFor returns how many rings of cells cover a world-space radius.
func (g *SpatialGrid) RingsFor(radius float64) int {
	return int(math.Ceil(radius / g.cellSize))
}

// Occupied reports whether a cell held any particle at the last rebuild.
func (g *SpatialGrid) Occupied(cell int) bool {
	return cell >= 0 && cell < len(g.occupied) && g.occupied[cell]
}

// Bucket returns the particles in a cell. The slice is owned by the grid.
func (g *SpatialGrid) Bucket(cell int) []components.ParticleID {
	if cell < 0 || cell >= len(g.cells) {
		return nil
	}
	return g.cells[cell]
}

// OccupiedCells returns the indices of non-empty cells in insertion order.
func (g *SpatialGrid) OccupiedCells() []int { return g.nonEmpty }

// Dims returns the grid width, height and depth in cells.
func (g *SpatialGrid) Dims() (cols, rows, layers int) { return g.cols, g.rows, g.layers }

// NumCells returns the total number of cells.
func (g *SpatialGrid) NumCells() int { return len(g.cells) }

// CellSize returns the edge length of a cell.
func (g *SpatialGrid) CellSize() float64 { return g.cellSize }
