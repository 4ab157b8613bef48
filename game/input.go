package game

import "github.com/pthm-cable/springsoup/components"

// drawKeys maps the number keys to drawable kinds.
var drawKeys = map[rune]components.Kind{
	'1': components.Water,
	'2': components.Poo,
	'3': components.Goo,
	'4': components.Oil,
	'5': components.Random,
}

// HandleKeys applies a single key press. Returns false for unbound keys.
func (w *World) HandleKeys(key rune) bool {
	if kind, ok := drawKeys[key]; ok {
		w.DrawWith(kind)
		return true
	}

	switch key {
	case 'r', 'R':
		w.ToggleRain()
	case 'g', 'G':
		w.ToggleGravity()
	case 'c', 'C':
		w.ClearWorld()
	case 'w', 'W':
		w.ToggleDrawWall()
	case 'b', 'B':
		w.ToggleWalls()
	case 'd', 'D':
		w.ToggleDragTool()
	case 'v', 'V':
		w.CycleRenderOption()
	case '+', '=':
		w.SetRenderResolution(w.renderGrid.Resolution() + 1)
	case '-', '_':
		w.SetRenderResolution(w.renderGrid.Resolution() - 1)
	case 't', 'T':
		w.Toggle3D()
	default:
		return false
	}
	return true
}

// MouseMove forwards a mouse sample in window pixels to the interaction
// controller.
func (w *World) MouseMove(x, y float64, left, right bool) {
	w.interaction.MouseMove(x, y, left, right)
}
