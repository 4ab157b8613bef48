package main

import (
	"io"
	"log/slog"
	"maps"
	"math"
	"math/rand"
	"slices"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/springsoup/components"
	"github.com/pthm-cable/springsoup/config"
	"github.com/pthm-cable/springsoup/game"
	"github.com/pthm-cable/springsoup/telemetry"
)

// FitnessEvaluator runs a scripted drop scene headless and scores how
// well goo holds together and comes to rest.
type FitnessEvaluator struct {
	params     *ParamVector
	maxTicks   int32
	seeds      []int64
	baseConfig *config.Config
	quiet      *slog.Logger

	mu        sync.Mutex
	lastScore runScore
}

// runScore summarises one run.
type runScore struct {
	restSpeed  float64 // p90 speed over the last windows
	brokenFrac float64 // springs broken / springs ever linked
	strain     float64 // mean spring strain at the end
	escaped    int     // particles lost to the pool (should be 0)
}

// Fitness weights.
const (
	weightRest   = 1.0
	weightBroken = 2.0
	weightStrain = 1.0
	tailWindows  = 3 // windows averaged for the rest speed
)

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		maxTicks:   maxTicks,
		seeds:      seeds,
		baseConfig: baseCfg,
		quiet:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// LastScore returns the averaged components of the most recent evaluation.
func (fe *FitnessEvaluator) LastScore() runScore {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastScore
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Seeds run in parallel; each owns its world.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	scores := make([]runScore, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			scores[idx] = fe.runSimulation(x, s)
		}(i, seed)
	}
	wg.Wait()

	var avg runScore
	var fitness float64
	for _, s := range scores {
		fitness += computeFitness(s)
		avg.restSpeed += s.restSpeed
		avg.brokenFrac += s.brokenFrac
		avg.strain += s.strain
		avg.escaped += s.escaped
	}
	n := float64(len(scores))
	avg.restSpeed /= n
	avg.brokenFrac /= n
	avg.strain /= n

	fe.mu.Lock()
	fe.lastScore = avg
	fe.mu.Unlock()

	return fitness / n
}

// computeFitness combines a run's score into one number (lower = better).
func computeFitness(s runScore) float64 {
	f := weightRest*s.restSpeed + weightBroken*s.brokenFrac + weightStrain*s.strain
	if s.escaped > 0 || math.IsNaN(f) {
		return math.Inf(1)
	}
	return f
}

// runSimulation drops a goo slab onto a water pool and runs it for
// maxTicks steps.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) runScore {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)
	cfg.Seed = seed
	cfg.Rain.Enabled = false
	cfg.Physics.GravityEnabled = true
	cfg.World.ThreeD = false
	if err := cfg.ComputeDerived(); err != nil {
		return runScore{restSpeed: math.Inf(1)}
	}

	var windows []telemetry.WindowStats
	w := game.NewWorld(cfg, game.Options{
		Logger: fe.quiet,
		StatsCallback: func(stats telemetry.WindowStats) {
			windows = append(windows, stats)
		},
	})
	placed := buildScene(w, rand.New(rand.NewSource(seed)))

	for w.Tick() < fe.maxTicks {
		w.Update()
	}

	return scoreRun(windows, placed, w.Pools().Particles.Live())
}

// buildScene places a water layer on the floor and a goo slab above it.
// Returns the number of particles placed.
func buildScene(w *game.World, rng *rand.Rand) int {
	b := w.Bounds()
	spacing := w.Config().Spring.LinkDistance * 0.9
	jitter := spacing * 0.05
	placed := 0

	place := func(kind components.Kind, x, y float64) {
		pos := r3.Vec{X: x + (rng.Float64()*2-1)*jitter, Y: y + (rng.Float64()*2-1)*jitter}
		if _, err := w.Spawn(kind, pos); err == nil {
			placed++
		}
	}

	// water: 4 rows across the middle half of the floor
	for row := 0; row < 4; row++ {
		for x := -b.Half.X / 2; x <= b.Half.X/2; x += spacing {
			place(components.Water, x, -b.Half.Y+spacing*(float64(row)+0.5))
		}
	}
	// goo: 12x6 slab a third of the way up
	for row := 0; row < 6; row++ {
		for col := 0; col < 12; col++ {
			place(components.Goo, (float64(col)-5.5)*spacing, b.Half.Y/3+float64(row)*spacing)
		}
	}
	return placed
}

// scoreRun reduces the window stats of one run.
func scoreRun(windows []telemetry.WindowStats, placed, live int) runScore {
	s := runScore{escaped: placed - live}
	if len(windows) == 0 {
		s.restSpeed = math.Inf(1)
		return s
	}

	var linked, broken int
	for _, w := range windows {
		linked += w.SpringsLinked
		broken += w.SpringsBroken
	}
	if linked > 0 {
		s.brokenFrac = float64(broken) / float64(linked)
	}

	tail := windows[max(0, len(windows)-tailWindows):]
	speeds := make([]float64, len(tail))
	for i, w := range tail {
		speeds[i] = w.SpeedP90
	}
	s.restSpeed = stat.Mean(speeds, nil)
	s.strain = tail[len(tail)-1].StrainMean
	return s
}

// copyConfig creates a deep copy of the base config.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	cfg.Particles = maps.Clone(fe.baseConfig.Particles)
	cfg.Server.CORSOrigins = slices.Clone(fe.baseConfig.Server.CORSOrigins)
	return &cfg
}
