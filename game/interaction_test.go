package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/springsoup/components"
	"github.com/pthm-cable/springsoup/config"
)

func TestMouseDrawAtCursor(t *testing.T) {
	w := testWorld(t, nil)
	c := w.Interaction()

	n := c.MouseDraw(px(2, 3))
	require.Equal(t, 1, n)
	assert.Equal(t, Drawing, c.State())

	p := w.Pools().Particles.Get(0)
	require.NotNil(t, p)
	assert.InDelta(t, 2, p.Pos.X, 1e-9)
	assert.InDelta(t, 3, p.Pos.Y, 1e-9)
	assert.Equal(t, components.Water, p.Kind)
}

func TestMouseDrawOutsideWindowClamps(t *testing.T) {
	w := testWorld(t, nil)

	require.Equal(t, 1, w.Interaction().MouseDraw(-1000, -1000))

	p := w.Pools().Particles.Get(0)
	assert.Equal(t, r3.Vec{X: -10, Y: 10}, p.Pos)
}

func TestMouseDrawDropsWhenFull(t *testing.T) {
	w := testWorld(t, func(c *config.Config) { c.Interaction.DrawCount = 4 })
	c := w.Interaction()

	assert.Equal(t, 4, c.MouseDraw(px(0, 0)))
	assert.Equal(t, 4, c.MouseDraw(px(1, 0)))
	assert.Equal(t, 2, c.MouseDraw(px(2, 0)))
	assert.Equal(t, 10, w.Pools().Particles.Live())
	assert.Equal(t, 2, w.pending.SpawnsDropped)
}

func TestMouseDrawWalls(t *testing.T) {
	w := testWorld(t, nil)
	w.ToggleDrawWall()

	w.Interaction().MouseDraw(px(0, 0))

	p := w.Pools().Particles.Get(0)
	assert.Equal(t, components.Wall, p.Kind)
	assert.True(t, p.Static())
}

func TestMouseEraseWithinRadius(t *testing.T) {
	w := testWorld(t, nil)
	centre := spawnAt(t, w, components.Goo, 0, 0)
	near := spawnAt(t, w, components.Water, 0.5, 0)
	edge := spawnAt(t, w, components.Water, 0, 0.9)
	outside := spawnAt(t, w, components.Goo, 1.5, 0)
	far := spawnAt(t, w, components.Water, 3, 3)
	_, err := w.Pools().Springs.Insert(components.Spring{A: centre, B: outside, RestLength: 1.5})
	require.NoError(t, err)

	n := w.Interaction().MouseErase(px(0, 0))

	assert.Equal(t, 3, n)
	assert.Equal(t, Erasing, w.Interaction().State())
	pp := w.Pools().Particles
	for _, id := range []components.ParticleID{centre, near, edge} {
		assert.False(t, pp.IsLive(id), "particle %d should be erased", id)
	}
	assert.True(t, pp.IsLive(outside))
	assert.True(t, pp.IsLive(far))
	assert.Zero(t, w.Pools().Springs.Live(), "springs of erased particles go with them")
	assert.Equal(t, 3, w.pending.Released)
}

func TestMouseEraseThreeDSearchesAllLayers(t *testing.T) {
	w := testWorld(t, func(c *config.Config) { c.World.ThreeD = true })
	front, err := w.Spawn(components.Water, r3.Vec{Z: 3.9})
	require.NoError(t, err)
	back, err := w.Spawn(components.Water, r3.Vec{X: 0.3, Z: -3.9})
	require.NoError(t, err)

	assert.Equal(t, 2, w.Interaction().MouseErase(px(0, 0)))
	assert.False(t, w.Pools().Particles.IsLive(front))
	assert.False(t, w.Pools().Particles.IsLive(back))
}

func TestDragMovesHeldParticles(t *testing.T) {
	w := testWorld(t, func(c *config.Config) { c.Physics.GravityEnabled = true })
	w.ToggleDragTool()
	a := spawnAt(t, w, components.Water, 0, 0)
	b := spawnAt(t, w, components.Water, 0.5, 0)
	far := spawnAt(t, w, components.Water, 5, 5)
	wall := spawnAt(t, w, components.Wall, 0, 0.5)
	c := w.Interaction()

	x, y := px(0, 0)
	c.MouseMove(x, y, true, false)
	require.Equal(t, Dragging, c.State())
	assert.Equal(t, 2, c.Dragged(), "static particles are not picked up")

	x, y = px(2, 1)
	c.MouseMove(x, y, true, false)

	pp := w.Pools().Particles
	assert.InDelta(t, 2, pp.Get(a).Pos.X, 1e-9)
	assert.InDelta(t, 1, pp.Get(a).Pos.Y, 1e-9)
	assert.InDelta(t, 2.5, pp.Get(b).Pos.X, 1e-9)
	assert.Equal(t, r3.Vec{X: 0, Y: 0.5}, pp.Get(wall).Pos)

	// held particles ignore gravity, others fall
	w.Step(0.016)
	assert.InDelta(t, 1, pp.Get(a).Pos.Y, 1e-9)
	assert.Less(t, pp.Get(far).Pos.Y, 5.0)

	c.MouseMove(x, y, false, false)
	assert.Equal(t, Idle, c.State())
	assert.Zero(t, c.Dragged())
	assert.False(t, pp.Get(a).Held)
	assert.False(t, pp.Get(b).Held)
}

func TestDragDropsReleasedParticles(t *testing.T) {
	w := testWorld(t, nil)
	a := spawnAt(t, w, components.Water, 0, 0)
	b := spawnAt(t, w, components.Water, 0.5, 0)
	c := w.Interaction()

	require.Equal(t, 2, c.SelectDraggedParticles(px(0, 0)))

	// b goes away and its slot is immediately reused by an unrelated particle
	require.NoError(t, w.Release(b))
	reused := spawnAt(t, w, components.Oil, 8, 8)
	require.Equal(t, b, reused)

	c.MouseDrag(px(1, 0))

	assert.Equal(t, 1, c.Dragged())
	pp := w.Pools().Particles
	assert.InDelta(t, 1, pp.Get(a).Pos.X, 1e-9)
	assert.Equal(t, r3.Vec{X: 8, Y: 8}, pp.Get(reused).Pos, "reused slot must not be dragged")
	assert.False(t, pp.Get(reused).Held)

	c.MouseDragEnd(px(1, 0))
	assert.False(t, pp.Get(a).Held)
}

func TestDragClampsToBounds(t *testing.T) {
	w := testWorld(t, nil)
	a := spawnAt(t, w, components.Water, 9, 0)
	c := w.Interaction()

	c.SelectDraggedParticles(px(9, 0))
	c.MouseDrag(px(20, 0))

	assert.Equal(t, 10.0, w.Pools().Particles.Get(a).Pos.X)
}

func TestRightButtonErasesAndEndsDrag(t *testing.T) {
	w := testWorld(t, nil)
	w.ToggleDragTool()
	a := spawnAt(t, w, components.Water, 0, 0)
	b := spawnAt(t, w, components.Water, 5, 0)
	c := w.Interaction()

	x, y := px(0, 0)
	c.MouseMove(x, y, true, false)
	require.Equal(t, Dragging, c.State())

	x, y = px(5, 0)
	c.MouseMove(x, y, false, true)

	assert.Equal(t, Erasing, c.State())
	assert.Zero(t, c.Dragged())
	pp := w.Pools().Particles
	assert.False(t, pp.IsLive(b))
	assert.False(t, pp.Get(a).Held)
}

func TestLeftButtonDrawsWithDrawTool(t *testing.T) {
	w := testWorld(t, nil)
	c := w.Interaction()

	for i := 0; i < 3; i++ {
		x, y := px(float64(i), 0)
		c.MouseMove(x, y, true, false)
	}
	assert.Equal(t, 3, w.Pools().Particles.Live())

	c.MouseMove(0, 0, false, false)
	assert.Equal(t, Idle, c.State())
}

func TestInspectNearestParticle(t *testing.T) {
	w := testWorld(t, nil)
	a := spawnAt(t, w, components.Water, 1, 1)
	b := spawnAt(t, w, components.Goo, 1.5, 1)
	_, err := w.Pools().Springs.Insert(components.Spring{A: a, B: b, RestLength: 0.5, Stiffness: 1})
	require.NoError(t, err)

	info, ok := w.Inspect(px(1.4, 1))
	require.True(t, ok)
	assert.Equal(t, b, info.ID)
	assert.Equal(t, components.Goo, info.Kind)
	assert.Equal(t, 1, info.Springs)
	assert.False(t, info.Static)

	_, ok = w.Inspect(px(-8, -8))
	assert.False(t, ok)
}
