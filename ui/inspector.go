package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"
)

// InspectData is the hovered particle shown by the inspector.
type InspectData struct {
	ID      int32
	Kind    string
	Pos     r3.Vec
	Vel     r3.Vec
	Mass    float64
	Drag    float64
	Color   rl.Color
	Springs int
	Held    bool
	Static  bool
}

// Inspector renders a small panel next to the cursor.
type Inspector struct {
	renderer *Renderer
	width    int32
	visible  bool
}

// NewInspector creates a hidden inspector.
func NewInspector(width int32) *Inspector {
	return &Inspector{renderer: NewRenderer(), width: width}
}

// Toggle switches panel visibility.
func (ins *Inspector) Toggle() bool {
	ins.visible = !ins.visible
	return ins.visible
}

// Visible reports whether the panel is shown.
func (ins *Inspector) Visible() bool { return ins.visible }

// Draw renders the panel with its top-left corner near (x, y), kept
// on screen.
func (ins *Inspector) Draw(x, y, screenW, screenH int32, d InspectData) {
	if !ins.visible {
		return
	}
	r := ins.renderer
	pad := r.Theme.Padding
	height := 8*r.Theme.LineHeight + 2*pad

	x += 16
	if x+ins.width > screenW {
		x -= ins.width + 32
	}
	if y+height > screenH {
		y = screenH - height
	}

	r.DrawPanel(x, y, ins.width, height)
	cx, cy := x+pad, y+pad

	r.DrawColorSwatch(cx, cy, d.Color, false)
	rl.DrawText(fmt.Sprintf("#%d %s", d.ID, d.Kind), cx+18, cy, r.Theme.HeaderFontSize, rl.White)
	cy += r.Theme.LineHeight + 2

	cy = r.DrawLabelValue(cx, cy, "Pos", fmt.Sprintf("%.2f, %.2f, %.2f", d.Pos.X, d.Pos.Y, d.Pos.Z))
	cy = r.DrawLabelValue(cx, cy, "Vel", fmt.Sprintf("%.2f (%.2f, %.2f)", r3.Norm(d.Vel), d.Vel.X, d.Vel.Y))
	cy = r.DrawLabelValue(cx, cy, "Mass", fmt.Sprintf("%.2f", d.Mass))
	cy = r.DrawLabelValue(cx, cy, "Drag", fmt.Sprintf("%.2f", d.Drag))
	cy = r.DrawLabelValue(cx, cy, "Springs", fmt.Sprintf("%d", d.Springs))

	state := "free"
	switch {
	case d.Static:
		state = "static"
	case d.Held:
		state = "held"
	}
	r.DrawLabelValue(cx, cy, "State", state)
}
