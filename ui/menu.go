package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// MenuItem is one toggle button. Command is the command line sent when
// the button is clicked.
type MenuItem struct {
	ID       string
	Label    string
	KeyLabel string
	Command  string
}

// KindSwatch is one entry in the material palette.
type KindSwatch struct {
	Name  string
	Color rl.Color
	Key   string
}

// MenuState is what the menu needs to draw its current state.
type MenuState struct {
	On       map[string]bool // toggle id -> enabled
	DrawKind string
	Kinds    []KindSwatch
}

// DefaultMenuItems lists the toggle buttons in display order.
func DefaultMenuItems() []MenuItem {
	return []MenuItem{
		{ID: "rain", Label: "Rain", KeyLabel: "R", Command: "toggle_rain"},
		{ID: "gravity", Label: "Gravity", KeyLabel: "G", Command: "toggle_gravity"},
		{ID: "walls", Label: "Walls", KeyLabel: "B", Command: "toggle_walls"},
		{ID: "draw_wall", Label: "Draw walls", KeyLabel: "W", Command: "toggle_draw_wall"},
		{ID: "drag_tool", Label: "Drag tool", KeyLabel: "D", Command: "toggle_drag_tool"},
		{ID: "three_d", Label: "3-D", KeyLabel: "T", Command: "toggle_3d"},
		{ID: "render", Label: "Render mode", KeyLabel: "V", Command: "render_option"},
		{ID: "clear", Label: "Clear", KeyLabel: "C", Command: "clear"},
	}
}

// Menu renders the right-hand button panel.
type Menu struct {
	renderer *Renderer
	items    []MenuItem
	x, y     int32
	width    int32
	kinds    int // palette size at the last Draw
	visible  bool
}

// NewMenu creates a menu anchored at (x, y).
func NewMenu(x, y, width int32, items []MenuItem) *Menu {
	return &Menu{
		renderer: NewRenderer(),
		items:    items,
		x:        x,
		y:        y,
		width:    width,
		visible:  true,
	}
}

// SetPosition updates the panel position.
func (m *Menu) SetPosition(x, y int32) {
	m.x = x
	m.y = y
}

// Toggle switches panel visibility.
func (m *Menu) Toggle() bool {
	m.visible = !m.visible
	return m.visible
}

// Contains reports whether a screen point is over the panel, so clicks
// on buttons do not also draw into the world.
func (m *Menu) Contains(px, py float32) bool {
	if !m.visible {
		return false
	}
	h := m.height(m.kinds)
	return px >= float32(m.x) && px <= float32(m.x+m.width) &&
		py >= float32(m.y) && py <= float32(m.y+h)
}

func (m *Menu) height(kinds int) int32 {
	t := m.renderer.Theme
	return t.Padding*3 + 20 + int32(len(m.items))*(buttonHeight+4) + t.LineHeight + int32(kinds)*(buttonHeight+4)
}

const buttonHeight = 22

// Draw renders the menu and returns the commands for buttons clicked
// this frame.
func (m *Menu) Draw(state MenuState) []string {
	if !m.visible {
		return nil
	}
	r := m.renderer
	pad := r.Theme.Padding
	m.kinds = len(state.Kinds)
	r.DrawPanel(m.x, m.y, m.width, m.height(len(state.Kinds)))

	var clicked []string
	x := float32(m.x + pad)
	y := m.y + pad
	w := float32(m.width - 2*pad - 16)

	rl.DrawText("Controls", m.x+pad, y, 16, rl.White)
	y += 20

	for _, item := range m.items {
		on, isToggle := state.On[item.ID]
		if isToggle {
			color := r.Theme.ToggleOff
			if on {
				color = r.Theme.ToggleOn
			}
			rl.DrawRectangle(m.x+m.width-pad-10, y+7, 8, 8, color)
		}
		label := fmt.Sprintf("%s [%s]", item.Label, item.KeyLabel)
		if gui.Button(rl.Rectangle{X: x, Y: float32(y), Width: w, Height: buttonHeight}, label) {
			clicked = append(clicked, item.Command)
		}
		y += buttonHeight + 4
	}

	y = r.DrawSectionHeader(m.x+pad, y+pad/2, "Material")
	for _, k := range state.Kinds {
		r.DrawColorSwatch(m.x+m.width-pad-14, y+4, k.Color, k.Name == state.DrawKind)
		label := fmt.Sprintf("%s [%s]", k.Name, k.Key)
		if gui.Button(rl.Rectangle{X: x, Y: float32(y), Width: w, Height: buttonHeight}, label) {
			clicked = append(clicked, "draw_with:"+k.Name)
		}
		y += buttonHeight + 4
	}
	return clicked
}
