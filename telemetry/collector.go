package telemetry

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float64

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	spawned       int
	spawnsDropped int
	released      int
	springsLinked int
	springsBroken int
	collisions    int
	wallContacts  int
}

// NewCollector creates a new stats collector.
// windowTicks: how many ticks each stats window lasts
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowTicks int, dt float64) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{
		windowDurationSec:   float64(windowTicks) * dt,
		windowDurationTicks: int32(windowTicks),
		dt:                  dt,
	}
}

// Events is a batch of event counts produced by one step.
type Events struct {
	Spawned       int
	SpawnsDropped int
	Released      int
	SpringsLinked int
	SpringsBroken int
	Collisions    int
	WallContacts  int
}

// Add folds a step's events into the current window.
func (c *Collector) Add(e Events) {
	c.spawned += e.Spawned
	c.spawnsDropped += e.SpawnsDropped
	c.released += e.Released
	c.springsLinked += e.SpringsLinked
	c.springsBroken += e.SpringsBroken
	c.collisions += e.Collisions
	c.wallContacts += e.WallContacts
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// PoolState is the occupancy and motion state sampled at flush time.
type PoolState struct {
	Particles, ParticleCap int
	Springs, SpringCap     int
	Speeds                 []float64 // one per live particle; sorted in place
	Strains                []float64 // one per live spring; sorted in place
	KineticEnergy          float64
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, ps PoolState) WindowStats {
	speed := ComputeDistStats(ps.Speeds)
	strain := ComputeDistStats(ps.Strains)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		Particles:    ps.Particles,
		Springs:      ps.Springs,
		ParticleFill: fill(ps.Particles, ps.ParticleCap),
		SpringFill:   fill(ps.Springs, ps.SpringCap),

		Spawned:       c.spawned,
		SpawnsDropped: c.spawnsDropped,
		Released:      c.released,
		SpringsLinked: c.springsLinked,
		SpringsBroken: c.springsBroken,
		Collisions:    c.collisions,
		WallContacts:  c.wallContacts,

		SpeedMean: speed.Mean,
		SpeedStd:  speed.Std,
		SpeedP50:  speed.P50,
		SpeedP90:  speed.P90,

		StrainMean: strain.Mean,
		StrainMax:  strain.Max,

		KineticEnergy: ps.KineticEnergy,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.spawned = 0
	c.spawnsDropped = 0
	c.released = 0
	c.springsLinked = 0
	c.springsBroken = 0
	c.collisions = 0
	c.wallContacts = 0

	return stats
}

func fill(n, capacity int) float64 {
	if capacity <= 0 {
		return 0
	}
	return float64(n) / float64(capacity)
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}

// WindowDurationSec returns the simulated length of a window.
func (c *Collector) WindowDurationSec() float64 {
	return c.windowDurationSec
}
