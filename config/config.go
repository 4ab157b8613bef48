// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/springsoup/components"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Seed        int64                    `yaml:"seed"`
	Screen      ScreenConfig             `yaml:"screen"`
	World       WorldConfig              `yaml:"world"`
	Grid        GridConfig               `yaml:"grid"`
	Physics     PhysicsConfig            `yaml:"physics"`
	Collision   CollisionConfig          `yaml:"collision"`
	Spring      SpringConfig             `yaml:"spring"`
	Rain        RainConfig               `yaml:"rain"`
	Interaction InteractionConfig        `yaml:"interaction"`
	Render      RenderConfig             `yaml:"render"`
	Pools       PoolsConfig              `yaml:"pools"`
	Particles   map[string]ProfileConfig `yaml:"particles"`
	Telemetry   TelemetryConfig          `yaml:"telemetry"`
	Server      ServerConfig             `yaml:"server"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// WorldConfig holds the world extents. The world is centred on the origin.
type WorldConfig struct {
	HalfWidth  float64 `yaml:"half_width"`
	HalfHeight float64 `yaml:"half_height"`
	HalfDepth  float64 `yaml:"half_depth"` // only used in 3-D mode
	ThreeD     bool    `yaml:"three_d"`
}

// GridConfig holds spatial hashing parameters.
type GridConfig struct {
	SquareSize float64 `yaml:"square_size"`
}

// PhysicsConfig holds integration parameters.
type PhysicsConfig struct {
	DT             float64 `yaml:"dt"`
	Gravity        float64 `yaml:"gravity"` // magnitude, applied along -y
	GravityEnabled bool    `yaml:"gravity_enabled"`
	WithWalls      bool    `yaml:"with_walls"`
}

// CollisionConfig holds neighbour repulsion and wall response.
type CollisionConfig struct {
	Distance     float64 `yaml:"distance"`      // pair separation below which particles repel
	Stiffness    float64 `yaml:"stiffness"`     // fraction of overlap corrected per step
	Restitution  float64 `yaml:"restitution"`   // normal velocity kept on impact
	WallDistance float64 `yaml:"wall_distance"` // wall repulsion range
}

// SpringConfig holds spring force and linking parameters.
type SpringConfig struct {
	Stiffness      float64 `yaml:"stiffness"`
	Damping        float64 `yaml:"damping"`
	BreakRatio     float64 `yaml:"break_ratio"`      // delete when length > rest * ratio
	MaxPerParticle int     `yaml:"max_per_particle"` // link cap for elastic kinds
	LinkDistance   float64 `yaml:"link_distance"`    // elastic neighbours closer than this get linked
}

// RainConfig holds rain injection parameters.
type RainConfig struct {
	Enabled       bool    `yaml:"enabled"`
	Rate          float64 `yaml:"rate"`  // particles per simulated second
	Burst         int     `yaml:"burst"` // max spawned in one step
	Kind          string  `yaml:"kind"`
	Wind          float64 `yaml:"wind"`           // max horizontal launch speed
	WindFrequency float64 `yaml:"wind_frequency"` // noise frequency over simulated time
}

// InteractionConfig holds mouse interaction parameters.
type InteractionConfig struct {
	Radius     float64 `yaml:"radius"`
	DrawCount  int     `yaml:"draw_count"`
	DrawJitter float64 `yaml:"draw_jitter"`
	DrawKind   string  `yaml:"draw_kind"`
}

// RenderConfig holds display-only grid parameters.
type RenderConfig struct {
	PointSize  float64 `yaml:"point_size"`
	Resolution int     `yaml:"resolution"` // render cells per world unit
	Threshold  float64 `yaml:"threshold"`
	Option     int     `yaml:"option"`
}

// PoolsConfig holds fixed pool capacities.
type PoolsConfig struct {
	Particles int `yaml:"particles"`
	Springs   int `yaml:"springs"`
}

// ProfileConfig is the YAML form of a particle material.
type ProfileConfig struct {
	Mass    float64  `yaml:"mass"`
	Drag    float64  `yaml:"drag"`
	Color   [3]uint8 `yaml:"color"`
	Elastic bool     `yaml:"elastic"`
	Static  bool     `yaml:"static"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	PerfWindow int `yaml:"perf_window"` // steps kept by the step profiler
	StatsEvery int `yaml:"stats_every"` // ticks between frame stat records
}

// ServerConfig holds the debug/control HTTP server settings.
type ServerConfig struct {
	Addr        string   `yaml:"addr"`
	BroadcastHz float64  `yaml:"broadcast_hz"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	GridCols, GridRows, GridLayers int
	Profiles                       [components.NumKinds]components.Profile
	DrawKind                       components.Kind
	RainKind                       components.Kind
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if err := cfg.ComputeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.World.HalfWidth <= 0 || c.World.HalfHeight <= 0 {
		errs = append(errs, errors.New("world half extents must be positive"))
	}
	if c.World.ThreeD && c.World.HalfDepth <= 0 {
		errs = append(errs, errors.New("world.half_depth must be positive in 3-D mode"))
	}
	if c.Grid.SquareSize <= 0 {
		errs = append(errs, errors.New("grid.square_size must be positive"))
	}
	if c.Physics.DT <= 0 {
		errs = append(errs, errors.New("physics.dt must be positive"))
	}
	if c.Pools.Particles <= 0 || c.Pools.Springs < 0 {
		errs = append(errs, fmt.Errorf("invalid pool sizes %d/%d", c.Pools.Particles, c.Pools.Springs))
	}
	if c.Rain.Rate <= 0 {
		errs = append(errs, errors.New("rain.rate must be positive"))
	}
	if c.Render.Resolution <= 0 {
		errs = append(errs, errors.New("render.resolution must be positive"))
	}
	return errors.Join(errs...)
}

// ComputeDerived calculates values derived from loaded config.
// Call it again after mutating world or grid fields in code.
func (c *Config) ComputeDerived() error {
	c.Derived.GridCols = cellsAcross(c.World.HalfWidth, c.Grid.SquareSize)
	c.Derived.GridRows = cellsAcross(c.World.HalfHeight, c.Grid.SquareSize)
	c.Derived.GridLayers = 1
	if c.World.HalfDepth > 0 {
		c.Derived.GridLayers = cellsAcross(c.World.HalfDepth, c.Grid.SquareSize)
	}

	for k := components.Kind(0); k < components.NumKinds; k++ {
		pc, ok := c.Particles[k.String()]
		if !ok {
			return fmt.Errorf("missing particle profile %q", k.String())
		}
		c.Derived.Profiles[k] = components.Profile{
			Mass:    pc.Mass,
			Drag:    pc.Drag,
			Color:   components.Color{R: pc.Color[0], G: pc.Color[1], B: pc.Color[2]},
			Elastic: pc.Elastic,
			Static:  pc.Static,
		}
	}

	var err error
	if c.Derived.DrawKind, err = components.ParseKind(c.Interaction.DrawKind); err != nil {
		return fmt.Errorf("interaction.draw_kind: %w", err)
	}
	if c.Derived.RainKind, err = components.ParseKind(c.Rain.Kind); err != nil {
		return fmt.Errorf("rain.kind: %w", err)
	}
	return nil
}

// cellsAcross returns how many cells of size s cover [-half, half].
func cellsAcross(half, s float64) int {
	n := int(math.Ceil(2 * half / s))
	if n < 1 {
		n = 1
	}
	return n
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
