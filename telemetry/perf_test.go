package telemetry_test

import (
	"io"
	"log/slog"
	"slices"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/springsoup/components"
	"github.com/pthm-cable/springsoup/config"
	"github.com/pthm-cable/springsoup/game"
	"github.com/pthm-cable/springsoup/telemetry"
)

func quietWorld(t *testing.T) *game.World {
	t.Helper()
	cfg := config.Default()
	cfg.Pools.Particles, cfg.Pools.Springs = 16, 16
	cfg.Rain.Enabled = false
	cfg.Physics.GravityEnabled = false
	return game.NewWorld(cfg, game.Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
}

func TestStepSequenceMatchesPhaseOrder(t *testing.T) {
	w := quietWorld(t)
	if _, err := w.Spawn(components.Water, r3.Vec{}); err != nil {
		t.Fatal(err)
	}
	w.Step(0.016)

	got := w.Perf().Sequence()
	want := telemetry.PhaseOrder()
	if !slices.Equal(got, want) {
		t.Fatalf("step ran phases %v, want %v", got, want)
	}
}

func TestStepWorkCounts(t *testing.T) {
	w := quietWorld(t)
	a, err := w.Spawn(components.Water, r3.Vec{X: -5, Y: -5})
	if err != nil {
		t.Fatal(err)
	}
	b, err := w.Spawn(components.Water, r3.Vec{X: 5, Y: 5})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Pools().Springs.Insert(components.Spring{A: a, B: b, RestLength: 14, Stiffness: 1}); err != nil {
		t.Fatal(err)
	}
	cmd, err := game.ParseCommand("toggle_gravity")
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Enqueue(cmd); err != nil {
		t.Fatal(err)
	}

	w.Step(0.016)
	stats := w.Perf().Stats()

	tests := []struct {
		phase telemetry.Phase
		want  float64
	}{
		{telemetry.PhaseCommands, 1},
		{telemetry.PhaseForces, 2},
		{telemetry.PhaseSprings, 1},
		{telemetry.PhaseIntegrate, 2},
		{telemetry.PhaseGrid, 2},
		{telemetry.PhaseNeighbors, float64(len(w.Grid().OccupiedCells()))},
		{telemetry.PhaseRender, 2},
	}
	for _, tt := range tests {
		if got := stats.Phase(tt.phase).Work; got != tt.want {
			t.Errorf("%s work = %v, want %v", tt.phase, got, tt.want)
		}
	}
	if cells := stats.Phase(telemetry.PhaseNeighbors).Work; cells < 1 {
		t.Errorf("neighbour phase visited %v cells, want at least 1", cells)
	}
	if stats.Steps != 1 || w.Perf().LastStep() <= 0 {
		t.Errorf("steps = %d, last = %v", stats.Steps, w.Perf().LastStep())
	}
}

func TestProfilerSharesAndCost(t *testing.T) {
	p := telemetry.NewStepProfiler(10)
	for i := 0; i < 3; i++ {
		p.Begin()
		p.Enter(telemetry.PhaseSprings, 100)
		time.Sleep(2 * time.Millisecond)
		p.Enter(telemetry.PhaseNeighbors, 10)
		p.End()
	}

	stats := p.Stats()
	springs := stats.Phase(telemetry.PhaseSprings)
	cells := stats.Phase(telemetry.PhaseNeighbors)

	if springs.Work != 100 || cells.Work != 10 {
		t.Errorf("work = %v/%v, want 100/10", springs.Work, cells.Work)
	}
	if springs.Share <= cells.Share {
		t.Errorf("sleeping phase share %.3f should exceed %.3f", springs.Share, cells.Share)
	}
	if total := springs.Share + cells.Share; total > 1.0001 {
		t.Errorf("shares sum to %v, want <= 1", total)
	}
	if springs.PerItem < 20*time.Microsecond {
		t.Errorf("springs per item = %v, want >= 20us (2ms over 100)", springs.PerItem)
	}
	if idle := stats.Phase(telemetry.PhaseRender); idle.Avg != 0 || idle.PerItem != 0 {
		t.Errorf("unentered phase has %+v", idle)
	}
}

func TestProfilerRepeatedPhaseAccumulates(t *testing.T) {
	p := telemetry.NewStepProfiler(4)
	p.Begin()
	p.Enter(telemetry.PhaseGrid, 3)
	p.Enter(telemetry.PhaseNeighbors, 1)
	p.Enter(telemetry.PhaseGrid, 4)
	p.End()

	if got := p.Stats().Phase(telemetry.PhaseGrid).Work; got != 7 {
		t.Errorf("grid work = %v, want 7", got)
	}
	want := []telemetry.Phase{telemetry.PhaseGrid, telemetry.PhaseNeighbors, telemetry.PhaseGrid}
	if got := p.Sequence(); !slices.Equal(got, want) {
		t.Errorf("sequence = %v, want %v", got, want)
	}
}

func TestProfilerWindowDropsOldSteps(t *testing.T) {
	p := telemetry.NewStepProfiler(2)
	for _, n := range []int{10, 20, 30} {
		p.Begin()
		p.Enter(telemetry.PhaseIntegrate, n)
		p.End()
	}

	stats := p.Stats()
	if stats.Steps != 2 {
		t.Fatalf("steps = %d, want 2", stats.Steps)
	}
	if got := stats.Phase(telemetry.PhaseIntegrate).Work; got != 25 {
		t.Errorf("integrate work = %v, want 25 (mean of the last two steps)", got)
	}
}

func TestProfilerEmpty(t *testing.T) {
	p := telemetry.NewStepProfiler(0)
	if p.LastStep() != 0 {
		t.Errorf("last step = %v, want 0", p.LastStep())
	}
	stats := p.Stats()
	if stats.Steps != 0 || stats.AvgStep != 0 {
		t.Errorf("empty stats = %+v", stats)
	}
	if len(p.Sequence()) != 0 {
		t.Errorf("sequence = %v, want empty", p.Sequence())
	}
}

func TestPerfStatsCSVColumns(t *testing.T) {
	var s telemetry.PerfStats
	s.Steps = 60
	s.AvgStep = 1500 * time.Microsecond
	s.Phases[telemetry.PhaseIntegrate] = telemetry.PhaseStats{Share: 0.25, Work: 400, PerItem: 50 * time.Nanosecond}
	s.Phases[telemetry.PhaseSprings] = telemetry.PhaseStats{Share: 0.5, Work: 900, PerItem: 80 * time.Nanosecond}
	s.Phases[telemetry.PhaseNeighbors] = telemetry.PhaseStats{Share: 0.1, Work: 120, PerItem: 300 * time.Nanosecond}

	rec := s.ToCSV(120)
	if rec.WindowEnd != 120 || rec.Steps != 60 || rec.AvgStepUS != 1500 {
		t.Errorf("header fields = %+v", rec)
	}
	if rec.Particles != 400 || rec.Springs != 900 || rec.OccupiedCells != 120 {
		t.Errorf("work = %v/%v/%v, want 400/900/120", rec.Particles, rec.Springs, rec.OccupiedCells)
	}
	if rec.NSPerParticle != 50 || rec.NSPerSpring != 80 || rec.NSPerCell != 300 {
		t.Errorf("cost = %d/%d/%d, want 50/80/300", rec.NSPerParticle, rec.NSPerSpring, rec.NSPerCell)
	}
	if rec.SpringsShare != 0.5 || rec.IntegrateShare != 0.25 || rec.NeighborsShare != 0.1 {
		t.Errorf("shares = %+v", rec)
	}
}

func TestPhaseNames(t *testing.T) {
	if got := telemetry.PhaseRender.String(); got != "render_grid" {
		t.Errorf("PhaseRender = %q", got)
	}
	if got := telemetry.NumPhases.String(); got != "unknown" {
		t.Errorf("NumPhases = %q", got)
	}
}
