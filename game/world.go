package game

import (
	"log/slog"
	"math/rand"
	"sync/atomic"

	"github.com/aquilax/go-perlin"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/springsoup/camera"
	"github.com/pthm-cable/springsoup/components"
	"github.com/pthm-cable/springsoup/config"
	"github.com/pthm-cable/springsoup/systems"
	"github.com/pthm-cable/springsoup/telemetry"
)

// RenderOption selects how a frontend draws the world.
type RenderOption int

const (
	RenderParticles RenderOption = iota // one point per particle
	RenderDensity                       // thresholded render grid
	RenderSprings                       // particles plus spring lines
	numRenderOptions
)

func (o RenderOption) String() string {
	switch o {
	case RenderParticles:
		return "particles"
	case RenderDensity:
		return "density"
	case RenderSprings:
		return "springs"
	}
	return "unknown"
}

// Toggles are the user-switchable simulation modes.
type Toggles struct {
	Rain         bool         `json:"rain"`
	Gravity      bool         `json:"gravity"`
	Walls        bool         `json:"walls"`
	DrawWall     bool         `json:"draw_wall"`
	ThreeD       bool         `json:"three_d"`
	DragTool     bool         `json:"drag_tool"`
	RenderOption RenderOption `json:"render_option"`
}

// commandQueueSize bounds the number of commands waiting for the next step.
const commandQueueSize = 64

// World owns every piece of simulation state. All methods except Enqueue
// and Latest must be called from the goroutine that steps the world.
type World struct {
	cfg *config.Config
	log *slog.Logger
	rng *rand.Rand

	pools       *systems.Pools
	grid        *systems.SpatialGrid
	renderGrid  *systems.RenderGrid
	physics     *systems.PhysicsSystem
	rain        *systems.RainSystem
	camera      *camera.Camera
	interaction *InteractionController

	profiles   [components.NumKinds]components.Profile
	drawKind   components.Kind
	randomized int
	colorNoise *perlin.Perlin

	toggles   Toggles
	tick      int32
	simTime   float64
	gridDirty bool

	commands chan Command
	latest   atomic.Pointer[Snapshot]

	// events from interaction between steps, folded into the next step
	pending telemetry.Events

	perf          *telemetry.StepProfiler
	collector     *telemetry.Collector
	bookmarks     *telemetry.BookmarkDetector
	metrics       *telemetry.Metrics
	output        *telemetry.OutputManager
	logStats      bool
	sceneDir      string
	statsCallback func(telemetry.WindowStats)
}

// NewWorld builds a world from a loaded config.
func NewWorld(cfg *config.Config, opts Options) *World {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	vw, vh := opts.ViewportW, opts.ViewportH
	if vw <= 0 || vh <= 0 {
		vw, vh = float64(cfg.Screen.Width), float64(cfg.Screen.Height)
	}

	w := &World{
		cfg:           cfg,
		log:           logger.With("component", "world"),
		rng:           rand.New(rand.NewSource(cfg.Seed)),
		profiles:      cfg.Derived.Profiles,
		drawKind:      cfg.Derived.DrawKind,
		colorNoise:    perlin.NewPerlin(2, 2, 3, cfg.Seed),
		commands:      make(chan Command, commandQueueSize),
		perf:          telemetry.NewStepProfiler(cfg.Telemetry.PerfWindow),
		collector:     telemetry.NewCollector(cfg.Telemetry.StatsEvery, cfg.Physics.DT),
		bookmarks:     telemetry.NewBookmarkDetector(10),
		metrics:       opts.Metrics,
		output:        opts.Output,
		logStats:      opts.LogStats,
		sceneDir:      opts.SceneDir,
		statsCallback: opts.StatsCallback,
		toggles: Toggles{
			Rain:         cfg.Rain.Enabled,
			Gravity:      cfg.Physics.GravityEnabled,
			Walls:        cfg.Physics.WithWalls,
			ThreeD:       cfg.World.ThreeD,
			RenderOption: RenderOption(cfg.Render.Option) % numRenderOptions,
		},
	}

	hw, hh := cfg.World.HalfWidth, cfg.World.HalfHeight
	bounds := systems.Bounds{Half: r3.Vec{X: hw, Y: hh, Z: w.halfDepth()}}

	w.pools = systems.NewPools(cfg.Pools.Particles, cfg.Pools.Springs)
	w.grid = systems.NewSpatialGrid(hw, hh, bounds.Half.Z, cfg.Grid.SquareSize)
	w.renderGrid = systems.NewRenderGrid(hw, hh, cfg.Render.Resolution, cfg.Render.Threshold)
	w.physics = systems.NewPhysicsSystem(w.pools, w.grid, physicsParams(cfg), bounds)
	w.rain = systems.NewRainSystem(systems.RainParams{
		Rate:          cfg.Rain.Rate,
		Burst:         cfg.Rain.Burst,
		Wind:          cfg.Rain.Wind,
		WindFrequency: cfg.Rain.WindFrequency,
	}, cfg.Seed)
	w.camera = camera.New(vw, vh, hw, hh)
	w.interaction = newInteractionController(w)

	if w.drawKind == components.Random {
		w.rerollRandom()
	}

	w.log.Info("world created",
		"half_width", hw,
		"half_height", hh,
		"grid_cols", cfg.Derived.GridCols,
		"grid_rows", cfg.Derived.GridRows,
		"particle_cap", cfg.Pools.Particles,
		"spring_cap", cfg.Pools.Springs,
	)
	w.Publish()
	return w
}

// physicsParams maps config sections onto the physics tunables.
func physicsParams(cfg *config.Config) systems.PhysicsParams {
	p := systems.PhysicsParams{
		Gravity:            cfg.Physics.Gravity,
		CollisionDistance:  cfg.Collision.Distance,
		CollisionStiffness: cfg.Collision.Stiffness,
		Restitution:        cfg.Collision.Restitution,
		WallDistance:       cfg.Collision.WallDistance,
		SpringStiffness:    cfg.Spring.Stiffness,
		SpringDamping:      cfg.Spring.Damping,
		BreakRatio:         cfg.Spring.BreakRatio,
		MaxSprings:         cfg.Spring.MaxPerParticle,
		LinkDistance:       cfg.Spring.LinkDistance,
	}
	for k, prof := range cfg.Derived.Profiles {
		p.Elastic[k] = prof.Elastic
	}
	return p
}

func (w *World) halfDepth() float64 {
	if w.toggles.ThreeD {
		return w.cfg.World.HalfDepth
	}
	return 0
}

// refreshGrid rebuilds the spatial grid if particles moved, appeared or
// vanished since the last rebuild.
func (w *World) refreshGrid() {
	if w.gridDirty {
		w.grid.Rebuild(w.pools.Particles)
		w.gridDirty = false
	}
}

// SurroundingParticles returns the live particles in cell and the given
// rings around it, plus the walls the query window reaches.
func (w *World) SurroundingParticles(dst []components.ParticleID, cell, rings int, withWalls bool) ([]components.ParticleID, systems.Walls) {
	return systems.SurroundingParticles(w.grid, w.pools.Particles, dst, cell, rings, withWalls)
}

// Spawn allocates one particle of kind at pos, clamped into the world.
// Capacity errors are returned to the caller and counted as dropped.
func (w *World) Spawn(kind components.Kind, pos r3.Vec) (components.ParticleID, error) {
	p := components.Particle{Pos: pos}
	systems.ClampParticle(&p, w.physics.Bounds, 0)
	id, err := w.pools.Particles.Allocate(kind, w.profiles[kind], p.Pos)
	if err != nil {
		w.pending.SpawnsDropped++
		return id, err
	}
	w.pending.Spawned++
	w.gridDirty = true
	return id, nil
}

// Release frees a particle and every spring attached to it.
func (w *World) Release(id components.ParticleID) error {
	if err := w.pools.Particles.Release(id); err != nil {
		return err
	}
	w.pending.Released++
	w.gridDirty = true
	return nil
}

// ClearWorld releases every particle and spring.
func (w *World) ClearWorld() {
	n := w.pools.Particles.Live()
	w.interaction.reset()
	w.pools.Clear()
	w.grid.Clear()
	w.gridDirty = false
	w.pending.Released += n
	w.log.Info("world cleared", "released", n)
}

// ToggleRain switches rain on or off.
func (w *World) ToggleRain() {
	w.toggles.Rain = !w.toggles.Rain
	w.logToggle("rain", w.toggles.Rain)
}

// ToggleGravity switches gravity on or off.
func (w *World) ToggleGravity() {
	w.toggles.Gravity = !w.toggles.Gravity
	w.logToggle("gravity", w.toggles.Gravity)
}

// ToggleWalls switches wall repulsion on or off. Particles are always
// clamped into the world box.
func (w *World) ToggleWalls() {
	w.toggles.Walls = !w.toggles.Walls
	w.logToggle("walls", w.toggles.Walls)
}

// ToggleDrawWall switches between drawing the selected kind and static walls.
func (w *World) ToggleDrawWall() {
	w.toggles.DrawWall = !w.toggles.DrawWall
	w.logToggle("draw_wall", w.toggles.DrawWall)
}

// ToggleDragTool switches the left button between drawing and dragging.
func (w *World) ToggleDragTool() {
	w.interaction.endGesture()
	w.toggles.DragTool = !w.toggles.DragTool
	if w.toggles.DragTool {
		w.interaction.Tool = ToolDrag
	} else {
		w.interaction.Tool = ToolDraw
	}
	w.logToggle("drag_tool", w.toggles.DragTool)
}

// Toggle3D switches between a flat and a deep world. Going flat projects
// every particle onto z = 0.
func (w *World) Toggle3D() {
	w.toggles.ThreeD = !w.toggles.ThreeD
	hd := w.halfDepth()
	w.physics.Bounds.Half.Z = hd
	w.grid.Resize(w.cfg.World.HalfWidth, w.cfg.World.HalfHeight, hd, w.cfg.Grid.SquareSize)
	if !w.toggles.ThreeD {
		w.pools.Particles.ForEachLive(func(_ components.ParticleID, p *components.Particle) {
			p.Pos.Z, p.Vel.Z = 0, 0
		})
		w.camera.Yaw, w.camera.Pitch = 0, 0
	}
	w.gridDirty = true
	w.logToggle("three_d", w.toggles.ThreeD)
}

// CycleRenderOption advances to the next render option.
func (w *World) CycleRenderOption() {
	w.toggles.RenderOption = (w.toggles.RenderOption + 1) % numRenderOptions
	w.log.Info("render option", "option", w.toggles.RenderOption.String())
}

// SetRenderResolution sets render grid cells per world unit.
func (w *World) SetRenderResolution(n int) {
	w.renderGrid.SetResolution(n)
	w.renderGrid.Accumulate(w.pools.Particles)
	w.log.Info("render resolution", "resolution", w.renderGrid.Resolution())
}

// DrawWith selects the kind new particles are drawn with. Selecting the
// random kind rolls a fresh material every time.
func (w *World) DrawWith(kind components.Kind) {
	if kind >= components.NumKinds {
		return
	}
	w.drawKind = kind
	if kind == components.Random {
		w.rerollRandom()
	}
	w.log.Info("draw with", "kind", kind.String())
}

// rerollRandom gives the random kind a new mass, drag and colour.
// Colours drift along a noise curve so successive rolls stay distinct.
func (w *World) rerollRandom() {
	w.randomized++
	t := float64(w.randomized) * 0.37
	channel := func(offset float64) uint8 {
		v := 128 + 127*w.colorNoise.Noise1D(t+offset)*2
		if v < 0 {
			v = 0
		} else if v > 255 {
			v = 255
		}
		return uint8(v)
	}
	prof := &w.profiles[components.Random]
	prof.Mass = 0.3 + w.rng.Float64()*3
	prof.Drag = w.rng.Float64() * 0.5
	prof.Color = components.Color{R: channel(0), G: channel(17.3), B: channel(41.9)}
}

// Resize updates the pixel mapping after a window resize.
func (w *World) Resize(width, height float64) {
	w.camera.Resize(width, height)
}

// Config returns the configuration the world was built from.
func (w *World) Config() *config.Config { return w.cfg }

// Pools returns the particle and spring pools.
func (w *World) Pools() *systems.Pools { return w.pools }

// Grid returns the spatial grid.
func (w *World) Grid() *systems.SpatialGrid { return w.grid }

// RenderGrid returns the display density grid.
func (w *World) RenderGrid() *systems.RenderGrid { return w.renderGrid }

// Camera returns the pixel/world mapping.
func (w *World) Camera() *camera.Camera { return w.camera }

// Interaction returns the mouse gesture controller.
func (w *World) Interaction() *InteractionController { return w.interaction }

// Bounds returns the current world box.
func (w *World) Bounds() systems.Bounds { return w.physics.Bounds }

// Toggles returns the current mode switches.
func (w *World) Toggles() Toggles { return w.toggles }

// DrawKind returns the kind the left button draws (ignoring wall mode).
func (w *World) DrawKind() components.Kind { return w.drawKind }

// Profile returns the current material of a kind.
func (w *World) Profile(kind components.Kind) components.Profile { return w.profiles[kind] }

// Randomized returns how many times the random kind has been rolled.
func (w *World) Randomized() int { return w.randomized }

// Tick returns the number of completed steps.
func (w *World) Tick() int32 { return w.tick }

// SimTime returns simulated seconds elapsed.
func (w *World) SimTime() float64 { return w.simTime }

// Perf returns the step timing collector.
func (w *World) Perf() *telemetry.StepProfiler { return w.perf }
