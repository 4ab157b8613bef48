package telemetry

import (
	"log/slog"
	"math"
	"time"
)

// Phase is one stage of a simulation step.
type Phase uint8

// Step phases, in the order World.Step runs them.
const (
	PhaseCommands Phase = iota
	PhaseForces
	PhaseSprings
	PhaseIntegrate
	PhaseGrid
	PhaseNeighbors
	PhaseBounds
	PhaseRender
	NumPhases
)

var phaseNames = [NumPhases]string{
	"commands", "forces", "springs", "integrate",
	"grid", "neighbors", "bounds", "render_grid",
}

func (ph Phase) String() string {
	if ph < NumPhases {
		return phaseNames[ph]
	}
	return "unknown"
}

// PhaseOrder returns the step phases in execution order.
func PhaseOrder() []Phase {
	order := make([]Phase, NumPhases)
	for i := range order {
		order[i] = Phase(i)
	}
	return order
}

// stepRecord is the timing and workload of one step.
type stepRecord struct {
	total time.Duration
	dur   [NumPhases]time.Duration
	work  [NumPhases]int
}

// StepProfiler times each phase of a step along with how many items the
// phase visited: queued commands, particles, springs or occupied grid
// cells. It keeps a ring of the most recent steps.
type StepProfiler struct {
	ring   []stepRecord
	next   int
	filled int

	cur        stepRecord
	seq        []Phase
	stepStart  time.Time
	phaseStart time.Time
	active     Phase
	inPhase    bool
}

// NewStepProfiler keeps the last window steps (60 if window < 1).
func NewStepProfiler(window int) *StepProfiler {
	if window < 1 {
		window = 60
	}
	return &StepProfiler{
		ring: make([]stepRecord, window),
		seq:  make([]Phase, 0, NumPhases),
	}
}

// Begin starts a step.
func (p *StepProfiler) Begin() {
	p.cur = stepRecord{}
	p.seq = p.seq[:0]
	p.inPhase = false
	p.stepStart = time.Now()
}

// Enter closes the running phase and starts ph, which is about to visit
// work items. Entering a phase twice in one step adds to it.
func (p *StepProfiler) Enter(ph Phase, work int) {
	now := time.Now()
	p.closePhase(now)
	p.active, p.inPhase, p.phaseStart = ph, true, now
	p.cur.work[ph] += work
	p.seq = append(p.seq, ph)
}

func (p *StepProfiler) closePhase(now time.Time) {
	if p.inPhase {
		p.cur.dur[p.active] += now.Sub(p.phaseStart)
		p.inPhase = false
	}
}

// End closes the step and stores it.
func (p *StepProfiler) End() {
	now := time.Now()
	p.closePhase(now)
	p.cur.total = now.Sub(p.stepStart)
	p.ring[p.next] = p.cur
	p.next = (p.next + 1) % len(p.ring)
	p.filled = min(p.filled+1, len(p.ring))
}

// LastStep returns the duration of the most recent finished step.
func (p *StepProfiler) LastStep() time.Duration {
	if p.filled == 0 {
		return 0
	}
	return p.ring[(p.next-1+len(p.ring))%len(p.ring)].total
}

// Sequence returns the phases the most recent step entered, in order.
func (p *StepProfiler) Sequence() []Phase {
	return append([]Phase(nil), p.seq...)
}

// PhaseStats summarises one phase over the window.
type PhaseStats struct {
	Avg     time.Duration // mean time per step
	Share   float64       // fraction of step time, 0..1
	Work    float64       // mean items visited per step
	PerItem time.Duration // 0 when the phase visited nothing
}

// PerfStats summarises the profiler window.
type PerfStats struct {
	Steps   int
	AvgStep time.Duration
	MaxStep time.Duration
	Phases  [NumPhases]PhaseStats
}

// Stats aggregates the stored steps.
func (p *StepProfiler) Stats() PerfStats {
	s := PerfStats{Steps: p.filled}
	if p.filled == 0 {
		return s
	}

	var total time.Duration
	var dur [NumPhases]time.Duration
	var work [NumPhases]int
	for _, r := range p.ring[:p.filled] {
		total += r.total
		s.MaxStep = max(s.MaxStep, r.total)
		for ph := range dur {
			dur[ph] += r.dur[ph]
			work[ph] += r.work[ph]
		}
	}

	n := time.Duration(p.filled)
	s.AvgStep = total / n
	for ph := range s.Phases {
		ps := &s.Phases[ph]
		ps.Avg = dur[ph] / n
		ps.Work = float64(work[ph]) / float64(p.filled)
		if total > 0 {
			ps.Share = float64(dur[ph]) / float64(total)
		}
		if work[ph] > 0 {
			ps.PerItem = dur[ph] / time.Duration(work[ph])
		}
	}
	return s
}

// Phase returns the summary for one phase.
func (s PerfStats) Phase(ph Phase) PhaseStats {
	if ph >= NumPhases {
		return PhaseStats{}
	}
	return s.Phases[ph]
}

// LogValue groups the non-empty phases under their names.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("steps", s.Steps),
		slog.Int64("avg_step_us", s.AvgStep.Microseconds()),
		slog.Int64("max_step_us", s.MaxStep.Microseconds()),
	}
	for _, ph := range PhaseOrder() {
		ps := s.Phases[ph]
		if ps.Avg == 0 {
			continue
		}
		attrs = append(attrs, slog.Group(ph.String(),
			slog.Float64("share", math.Round(ps.Share*1000)/1000),
			slog.Float64("work", ps.Work),
			slog.Int64("ns_per_item", ps.PerItem.Nanoseconds()),
		))
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	WindowEnd      int32   `csv:"window_end"`
	Steps          int     `csv:"steps"`
	AvgStepUS      int64   `csv:"avg_step_us"`
	MaxStepUS      int64   `csv:"max_step_us"`
	CommandsShare  float64 `csv:"commands_share"`
	ForcesShare    float64 `csv:"forces_share"`
	SpringsShare   float64 `csv:"springs_share"`
	IntegrateShare float64 `csv:"integrate_share"`
	GridShare      float64 `csv:"grid_share"`
	NeighborsShare float64 `csv:"neighbors_share"`
	BoundsShare    float64 `csv:"bounds_share"`
	RenderShare    float64 `csv:"render_grid_share"`
	Particles      float64 `csv:"particles"`
	Springs        float64 `csv:"springs"`
	OccupiedCells  float64 `csv:"occupied_cells"`
	NSPerParticle  int64   `csv:"ns_per_particle"`
	NSPerSpring    int64   `csv:"ns_per_spring"`
	NSPerCell      int64   `csv:"ns_per_cell"`
}

// ToCSV flattens the stats. Particle cost is taken from integration,
// spring cost from the spring phase and cell cost from neighbour
// resolution.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	integ, springs, cells := s.Phases[PhaseIntegrate], s.Phases[PhaseSprings], s.Phases[PhaseNeighbors]
	return PerfStatsCSV{
		WindowEnd:      windowEnd,
		Steps:          s.Steps,
		AvgStepUS:      s.AvgStep.Microseconds(),
		MaxStepUS:      s.MaxStep.Microseconds(),
		CommandsShare:  s.Phases[PhaseCommands].Share,
		ForcesShare:    s.Phases[PhaseForces].Share,
		SpringsShare:   springs.Share,
		IntegrateShare: integ.Share,
		GridShare:      s.Phases[PhaseGrid].Share,
		NeighborsShare: cells.Share,
		BoundsShare:    s.Phases[PhaseBounds].Share,
		RenderShare:    s.Phases[PhaseRender].Share,
		Particles:      integ.Work,
		Springs:        springs.Work,
		OccupiedCells:  cells.Work,
		NSPerParticle:  integ.PerItem.Nanoseconds(),
		NSPerSpring:    springs.PerItem.Nanoseconds(),
		NSPerCell:      cells.PerItem.Nanoseconds(),
	}
}
