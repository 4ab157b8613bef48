package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/springsoup/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title       string
	Tick        int32
	SimTime     float64
	FPS         int32
	Particles   int
	ParticleCap int
	Springs     int
	SpringCap   int
	Randomized  int
	DrawKind    string
	Gesture     string
	RenderMode  string
	Resolution  int
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
	width    int32
}

// NewHUD creates a new HUD renderer.
func NewHUD(width int32) *HUD {
	return &HUD{renderer: NewRenderer(), width: width}
}

// Draw renders the HUD panel in the top-left corner and returns the Y
// below it.
func (h *HUD) Draw(data HUDData) int32 {
	r := h.renderer
	pad := r.Theme.Padding
	x, y := pad, pad

	r.DrawPanel(x-4, y-4, h.width, 8*r.Theme.LineHeight+pad)

	rl.DrawText(data.Title, x, y, 18, rl.White)
	y += 22

	inner := h.width - pad
	y = r.DrawFillBar(x, y, "Particles", data.Particles, data.ParticleCap, inner)
	y = r.DrawFillBar(x, y, "Springs", data.Springs, data.SpringCap, inner)
	y = r.DrawLabelValue(x, y, "Tick", fmt.Sprintf("%d (%.1fs)  %d fps", data.Tick, data.SimTime, data.FPS))
	y = r.DrawLabelValue(x, y, "Drawing", data.DrawKind)
	if data.Randomized > 0 {
		y = r.DrawLabelValue(x, y, "Random", fmt.Sprintf("%d rolls", data.Randomized))
	}
	y = r.DrawLabelValue(x, y, "Gesture", data.Gesture)
	y = r.DrawLabelValue(x, y, "View", fmt.Sprintf("%s  res %d", data.RenderMode, data.Resolution))
	return y + pad
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders per-phase step timings.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{renderer: NewRenderer(), x: x, y: y}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel: one line per phase in step order
// with its share of the step, items visited and cost per item.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	x, y := p.x, p.y

	rl.DrawText("Step Performance", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Step: %s avg, %s max",
		stats.AvgStep.Round(time.Microsecond), stats.MaxStep.Round(time.Microsecond)), x, y, 14, rl.Yellow)
	y += 16

	for _, ph := range telemetry.PhaseOrder() {
		ps := stats.Phase(ph)
		color := rl.LightGray
		if ps.Share > 0.4 {
			color = rl.Red
		} else if ps.Share > 0.2 {
			color = rl.Orange
		}
		rl.DrawText(
			fmt.Sprintf("%-11s %5.1f%% %6.0f x %5dns", ph, ps.Share*100, ps.Work, ps.PerItem.Nanoseconds()),
			x, y, 12, color,
		)
		y += 14
	}
}
