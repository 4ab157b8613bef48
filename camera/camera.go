// Package camera maps between window pixels and world coordinates.
package camera

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Camera controls the viewport into the simulation world.
// The world is centred on the origin with +y up; screen pixels have +y down.
// At zoom 1 the whole world fits the viewport.
type Camera struct {
	// Position is the camera center in world coordinates
	X, Y float64

	// Zoom level (1.0 = whole world fits, 2.0 = 2x magnification)
	Zoom float64

	// Viewport dimensions (screen size in pixels)
	ViewportW, ViewportH float64

	// World half extents
	HalfW, HalfH float64

	// Zoom constraints
	MinZoom, MaxZoom float64

	// Orbit angles for 3-D projection, radians
	Yaw, Pitch float64

	fit float64 // pixels per world unit at zoom 1
}

// New creates a camera centered on the world with the world fitted to the viewport.
func New(viewportW, viewportH, halfW, halfH float64) *Camera {
	c := &Camera{
		Zoom:    1.0,
		HalfW:   halfW,
		HalfH:   halfH,
		MinZoom: 1.0,
		MaxZoom: 8.0,
	}
	c.Resize(viewportW, viewportH)
	return c
}

// scale returns pixels per world unit at the current zoom.
func (c *Camera) scale() float64 {
	return c.fit * c.Zoom
}

// PixelsPerUnit returns the current on-screen size of one world unit.
func (c *Camera) PixelsPerUnit() float64 { return c.scale() }

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float64) (sx, sy float64) {
	s := c.scale()
	sx = c.ViewportW/2 + (wx-c.X)*s
	sy = c.ViewportH/2 - (wy-c.Y)*s
	return sx, sy
}

// ScreenToWorld converts screen coordinates to world coordinates.
// The result is not clamped to the world.
func (c *Camera) ScreenToWorld(sx, sy float64) (wx, wy float64) {
	s := c.scale()
	wx = c.X + (sx-c.ViewportW/2)/s
	wy = c.Y - (sy-c.ViewportH/2)/s
	return wx, wy
}

// ScreenToWorldClamped converts and clamps the result into the world box.
func (c *Camera) ScreenToWorldClamped(sx, sy float64) (wx, wy float64) {
	wx, wy = c.ScreenToWorld(sx, sy)
	return clamp(wx, -c.HalfW, c.HalfW), clamp(wy, -c.HalfH, c.HalfH)
}

// Project maps a world point to the screen, rotating it by the orbit
// angles first. With zero angles it matches WorldToScreen.
func (c *Camera) Project(p r3.Vec) (sx, sy, depth float64) {
	if c.Yaw != 0 || c.Pitch != 0 {
		cy, sy0 := math.Cos(c.Yaw), math.Sin(c.Yaw)
		x := p.X*cy + p.Z*sy0
		z := -p.X*sy0 + p.Z*cy
		cp, sp := math.Cos(c.Pitch), math.Sin(c.Pitch)
		y := p.Y*cp - z*sp
		z = p.Y*sp + z*cp
		p = r3.Vec{X: x, Y: y, Z: z}
	}
	sx, sy = c.WorldToScreen(p.X, p.Y)
	return sx, sy, p.Z
}

// Orbit rotates the 3-D view. Pitch is limited to avoid flipping.
func (c *Camera) Orbit(dYaw, dPitch float64) {
	c.Yaw = math.Mod(c.Yaw+dYaw, 2*math.Pi)
	c.Pitch = clamp(c.Pitch+dPitch, -math.Pi/2, math.Pi/2)
}

// IsVisible returns true if a circle at (wx, wy) with given radius in
// world units could be visible on screen (conservative check for culling).
func (c *Camera) IsVisible(wx, wy, radius float64) bool {
	s := c.scale()
	halfW := c.ViewportW/(2*s) + radius
	halfH := c.ViewportH/(2*s) + radius
	return math.Abs(wx-c.X) <= halfW && math.Abs(wy-c.Y) <= halfH
}

// Resize updates viewport dimensions. Only the pixel mapping changes;
// the world and its grid are untouched.
func (c *Camera) Resize(viewportW, viewportH float64) {
	if viewportW <= 0 || viewportH <= 0 {
		return
	}
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	c.fit = math.Min(viewportW/(2*c.HalfW), viewportH/(2*c.HalfH))
}

// Pan moves the camera by the given delta in screen pixels.
// The camera center stays inside the world.
func (c *Camera) Pan(dx, dy float64) {
	s := c.scale()
	c.X = clamp(c.X+dx/s, -c.HalfW, c.HalfW)
	c.Y = clamp(c.Y-dy/s, -c.HalfH, c.HalfH)
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float64) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float64) {
	c.SetZoom(c.Zoom * factor)
}

// Reset returns the camera to the default position, zoom and orientation.
func (c *Camera) Reset() {
	c.X, c.Y = 0, 0
	c.Zoom = 1.0
	c.Yaw, c.Pitch = 0, 0
}

// VisibleWorldBounds returns the world-coordinate bounds of the visible area.
func (c *Camera) VisibleWorldBounds() (minX, minY, maxX, maxY float64) {
	s := c.scale()
	halfW := c.ViewportW / (2 * s)
	halfH := c.ViewportH / (2 * s)
	return c.X - halfW, c.Y - halfH, c.X + halfW, c.Y + halfH
}

// clamp restricts a value to a range.
func clamp(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
