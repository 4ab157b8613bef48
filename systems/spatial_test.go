package systems

import (
	"sort"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/springsoup/components"
)

func TestSpatialGrid_CornerMapping(t *testing.T) {
	g := NewSpatialGrid(10, 10, 0, 2)

	cols, rows, layers := g.Dims()
	if cols != 10 || rows != 10 || layers != 1 {
		t.Fatalf("expected 10x10x1 grid, got %dx%dx%d", cols, rows, layers)
	}

	col, row, layer := g.CellCoords(g.CellOf(r3.Vec{X: 9.9, Y: -9.9}))
	if col != 9 || row != 0 || layer != 0 {
		t.Errorf("expected corner cell (9,0), got (%d,%d,%d)", col, row, layer)
	}
}

func TestSpatialGrid_CellOfClamps(t *testing.T) {
	g := NewSpatialGrid(10, 10, 0, 2)

	tests := []struct {
		name     string
		pos      r3.Vec
		col, row int
	}{
		{"exact max edge", r3.Vec{X: 10, Y: 10}, 9, 9},
		{"far outside", r3.Vec{X: -50, Y: 50}, 0, 9},
		{"exact min edge", r3.Vec{X: -10, Y: -10}, 0, 0},
		{"origin", r3.Vec{}, 5, 5},
		{"depth ignored when flat", r3.Vec{X: 1, Y: 1, Z: 99}, 5, 5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cell := g.CellOf(tc.pos)
			if cell < 0 || cell >= g.NumCells() {
				t.Fatalf("cell %d out of range", cell)
			}
			col, row, _ := g.CellCoords(cell)
			if col != tc.col || row != tc.row {
				t.Errorf("expected (%d,%d), got (%d,%d)", tc.col, tc.row, col, row)
			}
		})
	}
}

func TestSpatialGrid_CellCenterRoundtrip(t *testing.T) {
	for _, halfD := range []float64{0, 3} {
		g := NewSpatialGrid(10, 6, halfD, 2)
		for cell := 0; cell < g.NumCells(); cell++ {
			if got := g.CellOf(g.CellCenter(cell)); got != cell {
				t.Fatalf("halfD=%v: CellOf(CellCenter(%d)) = %d", halfD, cell, got)
			}
		}
	}
}

func TestSpatialGrid_RebuildPlacesEachParticleOnce(t *testing.T) {
	pools := NewPools(32, 0)
	for i := 0; i < 20; i++ {
		pos := r3.Vec{X: float64(i) - 9.5, Y: float64(i%7) - 3}
		if _, err := pools.Particles.Allocate(components.Water, waterProfile, pos); err != nil {
			t.Fatal(err)
		}
	}
	pools.Particles.Release(4)

	g := NewSpatialGrid(10, 10, 0, 2)
	g.Rebuild(pools.Particles)

	seen := map[components.ParticleID]int{}
	for _, cell := range g.OccupiedCells() {
		for _, id := range g.Bucket(cell) {
			seen[id]++
			if want := g.CellOf(pools.Particles.Get(id).Pos); want != cell {
				t.Errorf("particle %d in cell %d, expected %d", id, cell, want)
			}
		}
	}
	if len(seen) != pools.Particles.Live() {
		t.Errorf("expected %d particles in grid, got %d", pools.Particles.Live(), len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("particle %d placed %d times", id, n)
		}
	}
	if _, ok := seen[4]; ok {
		t.Error("released particle should not be in the grid")
	}

	// a second rebuild must not accumulate
	g.Rebuild(pools.Particles)
	total := 0
	for _, cell := range g.OccupiedCells() {
		total += len(g.Bucket(cell))
	}
	if total != pools.Particles.Live() {
		t.Errorf("expected %d after rebuild, got %d", pools.Particles.Live(), total)
	}
}

func TestSpatialGrid_NeighborsMonotonicInRings(t *testing.T) {
	pools := NewPools(200, 0)
	for x := -9.0; x < 10; x += 1.5 {
		for y := -9.0; y < 10; y += 1.5 {
			pools.Particles.Allocate(components.Water, waterProfile, r3.Vec{X: x, Y: y})
		}
	}
	g := NewSpatialGrid(10, 10, 0, 2)
	g.Rebuild(pools.Particles)

	cell := g.CellOf(r3.Vec{X: 1, Y: 1})
	var prev []components.ParticleID
	for rings := 0; rings <= 4; rings++ {
		got, _ := g.Neighbors(nil, cell, rings, false)
		set := map[components.ParticleID]bool{}
		for _, id := range got {
			set[id] = true
		}
		for _, id := range prev {
			if !set[id] {
				t.Fatalf("rings=%d lost particle %d found at rings=%d", rings, id, rings-1)
			}
		}
		if len(got) < len(prev) {
			t.Fatalf("rings=%d returned fewer particles", rings)
		}
		prev = got
	}

	// enough rings cover the whole grid
	all, _ := g.Neighbors(nil, cell, 10, false)
	if len(all) != pools.Particles.Live() {
		t.Errorf("expected all %d particles, got %d", pools.Particles.Live(), len(all))
	}
}

func TestSpatialGrid_NeighborsAppends(t *testing.T) {
	pools := NewPools(4, 0)
	pools.Particles.Allocate(components.Water, waterProfile, r3.Vec{})
	g := NewSpatialGrid(10, 10, 0, 2)
	g.Rebuild(pools.Particles)

	dst := []components.ParticleID{42}
	dst, _ = g.Neighbors(dst, g.CellOf(r3.Vec{}), 0, false)
	if len(dst) != 2 || dst[0] != 42 || dst[1] != 0 {
		t.Errorf("expected [42 0], got %v", dst)
	}

	if got, walls := g.Neighbors(nil, -1, 1, true); got != nil || walls != 0 {
		t.Errorf("invalid cell should return nothing, got %v %v", got, walls)
	}
}

func TestSpatialGrid_Walls(t *testing.T) {
	g := NewSpatialGrid(10, 10, 0, 2)

	tests := []struct {
		name     string
		col, row int
		rings    int
		want     Walls
	}{
		{"bottom left corner", 0, 0, 0, WallLeft | WallBottom},
		{"top right corner", 9, 9, 0, WallRight | WallTop},
		{"interior", 5, 5, 1, 0},
		{"ring reaches left", 1, 5, 1, WallLeft},
		{"ring reaches top", 4, 8, 1, WallTop},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, walls := g.Neighbors(nil, g.CellIndex(tc.col, tc.row, 0), tc.rings, true)
			if walls != tc.want {
				t.Errorf("expected walls %06b, got %06b", tc.want, walls)
			}
			_, walls = g.Neighbors(nil, g.CellIndex(tc.col, tc.row, 0), tc.rings, false)
			if walls != 0 {
				t.Errorf("walls reported when not requested: %06b", walls)
			}
		})
	}
}

func TestSpatialGrid_ThreeDimensional(t *testing.T) {
	g := NewSpatialGrid(10, 10, 4, 2)
	cols, rows, layers := g.Dims()
	if cols != 10 || rows != 10 || layers != 4 {
		t.Fatalf("expected 10x10x4, got %dx%dx%d", cols, rows, layers)
	}

	_, _, layer := g.CellCoords(g.CellOf(r3.Vec{Z: 3.9}))
	if layer != 3 {
		t.Errorf("expected front layer 3, got %d", layer)
	}

	_, walls := g.Neighbors(nil, g.CellIndex(5, 5, 0), 0, true)
	if walls != WallBack {
		t.Errorf("expected back wall only, got %06b", walls)
	}

	g.Resize(10, 10, 0, 2)
	if _, _, layers := g.Dims(); layers != 1 {
		t.Errorf("expected flat grid after resize, got %d layers", layers)
	}
}

func TestSurroundingParticles_FiltersReleased(t *testing.T) {
	pools := NewPools(8, 0)
	for i := 0; i < 4; i++ {
		pools.Particles.Allocate(components.Water, waterProfile, r3.Vec{X: 0.1 * float64(i)})
	}
	g := NewSpatialGrid(10, 10, 0, 2)
	g.Rebuild(pools.Particles)

	// grid is now stale for slot 2
	pools.Particles.Release(2)

	got, _ := SurroundingParticles(g, pools.Particles, nil, g.CellOf(r3.Vec{}), 1, false)
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	want := []components.ParticleID{0, 1, 3}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
