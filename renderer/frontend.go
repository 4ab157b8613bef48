package renderer

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/springsoup/components"
	"github.com/pthm-cable/springsoup/game"
	"github.com/pthm-cable/springsoup/ui"
)

const controlsLegend = "LMB draw/drag | RMB erase | 1-5 material | R rain | G gravity | B walls | W wall pen | D drag | V view | +/- res | T 3-D | C clear | Space pause | F5 save | I inspect | P perf | H menu"

const menuWidth = 190

// Frontend runs the interactive window around a world. The window must
// already be open.
type Frontend struct {
	// SceneDir receives scenes saved with F5; empty uses "scenes".
	SceneDir string

	world     *game.World
	log       *slog.Logger
	drawer    *WorldRenderer
	hud       *ui.HUD
	menu      *ui.Menu
	inspector *ui.Inspector
	perf      *ui.PerfPanel

	paused   bool
	showPerf bool
	kinds    []ui.KindSwatch
}

// NewFrontend wires the UI panels to a world.
func NewFrontend(w *game.World, logger *slog.Logger) *Frontend {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := w.Config()
	sw := int32(rl.GetScreenWidth())

	f := &Frontend{
		world:     w,
		log:       logger.With("component", "frontend"),
		drawer:    NewWorldRenderer(float32(cfg.Render.PointSize)),
		hud:       ui.NewHUD(260),
		menu:      ui.NewMenu(sw-menuWidth-10, 10, menuWidth, ui.DefaultMenuItems()),
		inspector: ui.NewInspector(220),
		perf:      ui.NewPerfPanel(10, 200),
	}
	for k := components.Kind(0); k < components.Wall; k++ {
		f.kinds = append(f.kinds, ui.KindSwatch{
			Name: k.String(),
			Key:  string(rune('1' + k)),
		})
	}
	return f
}

// Run loops until the window closes or maxTicks steps have run
// (0 = unlimited).
func (f *Frontend) Run(maxTicks int) {
	w := f.world
	for !rl.WindowShouldClose() {
		f.handleResize()
		f.handleInput()

		if !f.paused {
			w.Update()
		} else {
			w.Publish()
		}

		f.draw()

		if maxTicks > 0 && int(w.Tick()) >= maxTicks {
			f.log.Info("max ticks reached", "tick", w.Tick())
			return
		}
	}
}

func (f *Frontend) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	sw, sh := rl.GetScreenWidth(), rl.GetScreenHeight()
	f.world.Resize(float64(sw), float64(sh))
	f.menu.SetPosition(int32(sw)-menuWidth-10, 10)
}

func (f *Frontend) handleInput() {
	w := f.world

	for ch := rl.GetCharPressed(); ch != 0; ch = rl.GetCharPressed() {
		key := rune(ch)
		if w.HandleKeys(key) {
			continue
		}
		switch key {
		case ' ':
			f.paused = !f.paused
			f.log.Info("pause toggled", "paused", f.paused)
		case 'i', 'I':
			f.inspector.Toggle()
		case 'p', 'P':
			f.showPerf = !f.showPerf
		case 'h', 'H':
			f.menu.Toggle()
		}
	}

	if rl.IsKeyPressed(rl.KeyF5) {
		f.saveScene()
	}

	f.handleCamera()

	mouse := rl.GetMousePosition()
	if f.menu.Contains(mouse.X, mouse.Y) {
		// buttons own the mouse; finish any gesture in progress
		w.MouseMove(float64(mouse.X), float64(mouse.Y), false, false)
		return
	}
	w.MouseMove(
		float64(mouse.X), float64(mouse.Y),
		rl.IsMouseButtonDown(rl.MouseButtonLeft),
		rl.IsMouseButtonDown(rl.MouseButtonRight),
	)
}

func (f *Frontend) saveScene() {
	dir := f.SceneDir
	if dir == "" {
		dir = "scenes"
	}
	path, err := game.SaveScene(f.world.CaptureScene(), dir)
	if err != nil {
		f.log.Error("failed to save scene", "error", err)
		return
	}
	f.log.Info("scene saved", "path", path)
}

// handleCamera applies wheel zoom, middle-button pan and arrow-key orbit.
func (f *Frontend) handleCamera() {
	cam := f.world.Camera()

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		cam.ZoomBy(1 + 0.1*float64(wheel))
	}
	if rl.IsMouseButtonDown(rl.MouseButtonMiddle) {
		d := rl.GetMouseDelta()
		cam.Pan(-float64(d.X), -float64(d.Y))
	}
	if rl.IsKeyPressed(rl.KeyHome) {
		cam.Reset()
	}

	if !f.world.Toggles().ThreeD {
		return
	}
	const orbitStep = 0.03
	if rl.IsKeyDown(rl.KeyLeft) {
		cam.Orbit(-orbitStep, 0)
	}
	if rl.IsKeyDown(rl.KeyRight) {
		cam.Orbit(orbitStep, 0)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		cam.Orbit(0, orbitStep)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		cam.Orbit(0, -orbitStep)
	}
}

func (f *Frontend) draw() {
	w := f.world
	s := w.Latest()

	rl.BeginDrawing()
	rl.ClearBackground(rl.Color{R: 12, G: 14, B: 20, A: 255})

	f.drawer.Draw(s, w.Camera())

	y := f.hud.Draw(ui.HUDData{
		Title:       "Spring Soup",
		Tick:        s.Tick,
		SimTime:     s.SimTime,
		FPS:         rl.GetFPS(),
		Particles:   s.Counts.Particles,
		ParticleCap: s.Counts.ParticleCap,
		Springs:     s.Counts.Springs,
		SpringCap:   s.Counts.SpringCap,
		Randomized:  s.Counts.Randomized,
		DrawKind:    s.DrawKind,
		Gesture:     s.Gesture,
		RenderMode:  s.Toggles.RenderOption.String(),
		Resolution:  w.RenderGrid().Resolution(),
	})
	if f.paused {
		rl.DrawText("PAUSED", 10, y, 16, rl.Yellow)
		y += 20
	}
	if f.showPerf {
		f.perf.SetPosition(10, y)
		f.perf.Draw(w.Perf().Stats())
	}

	f.drawMenu(s)
	f.drawInspector()

	f.hud.DrawControls(int32(rl.GetScreenHeight()), controlsLegend)
	rl.EndDrawing()
}

// drawMenu draws the button panel and applies the clicked commands
// directly, since the frontend runs on the simulation goroutine.
func (f *Frontend) drawMenu(s *game.Snapshot) {
	for i := range f.kinds {
		kind, _ := components.ParseKind(f.kinds[i].Name)
		c := f.world.Profile(kind).Color
		f.kinds[i].Color = rl.Color{R: c.R, G: c.G, B: c.B, A: 255}
	}

	clicked := f.menu.Draw(ui.MenuState{
		On: map[string]bool{
			"rain":      s.Toggles.Rain,
			"gravity":   s.Toggles.Gravity,
			"walls":     s.Toggles.Walls,
			"draw_wall": s.Toggles.DrawWall,
			"drag_tool": s.Toggles.DragTool,
			"three_d":   s.Toggles.ThreeD,
		},
		DrawKind: s.DrawKind,
		Kinds:    f.kinds,
	})
	for _, line := range clicked {
		cmd, err := game.ParseCommand(line)
		if err != nil {
			f.log.Error("menu command rejected", "command", line, "error", err)
			continue
		}
		f.world.Apply(cmd)
	}
}

func (f *Frontend) drawInspector() {
	if !f.inspector.Visible() {
		return
	}
	mouse := rl.GetMousePosition()
	info, ok := f.world.Inspect(float64(mouse.X), float64(mouse.Y))
	if !ok {
		return
	}
	f.inspector.Draw(int32(mouse.X), int32(mouse.Y),
		int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight()),
		ui.InspectData{
			ID:      int32(info.ID),
			Kind:    info.Kind.String(),
			Pos:     info.Pos,
			Vel:     info.Vel,
			Mass:    info.Mass,
			Drag:    info.Drag,
			Color:   rl.Color{R: info.Color.R, G: info.Color.G, B: info.Color.B, A: 255},
			Springs: info.Springs,
			Held:    info.Held,
			Static:  info.Static,
		})
}
