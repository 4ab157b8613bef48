package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Pool occupancy at window end
	Particles    int     `csv:"particles"`
	Springs      int     `csv:"springs"`
	ParticleFill float64 `csv:"particle_fill"` // live / capacity
	SpringFill   float64 `csv:"spring_fill"`

	// Events during window
	Spawned       int `csv:"spawned"`
	SpawnsDropped int `csv:"spawns_dropped"`
	Released      int `csv:"released"`
	SpringsLinked int `csv:"springs_linked"`
	SpringsBroken int `csv:"springs_broken"`
	Collisions    int `csv:"collisions"`
	WallContacts  int `csv:"wall_contacts"`

	// Speed distribution (sampled at window end)
	SpeedMean float64 `csv:"speed_mean"`
	SpeedStd  float64 `csv:"speed_std"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`

	// Spring strain (|length-rest|/rest) at window end
	StrainMean float64 `csv:"strain_mean"`
	StrainMax  float64 `csv:"strain_max"`

	KineticEnergy float64 `csv:"kinetic_energy"`
}

// DistStats holds summary statistics of a sample.
type DistStats struct {
	Mean, Std, P50, P90, Max float64
}

// ComputeDistStats summarises values. It sorts values in place.
// Returns zeros for an empty slice.
func ComputeDistStats(values []float64) DistStats {
	if len(values) == 0 {
		return DistStats{}
	}
	sort.Float64s(values)
	mean, std := stat.MeanStdDev(values, nil)
	if len(values) == 1 {
		std = 0
	}
	return DistStats{
		Mean: mean,
		Std:  std,
		P50:  stat.Quantile(0.5, stat.Empirical, values, nil),
		P90:  stat.Quantile(0.9, stat.Empirical, values, nil),
		Max:  values[len(values)-1],
	}
}

// LogStats logs the window stats as a structured record.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"tick", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"particles", s.Particles,
		"springs", s.Springs,
		"spawned", s.Spawned,
		"spawns_dropped", s.SpawnsDropped,
		"released", s.Released,
		"springs_linked", s.SpringsLinked,
		"springs_broken", s.SpringsBroken,
		"collisions", s.Collisions,
		"speed_mean", s.SpeedMean,
		"speed_p90", s.SpeedP90,
		"strain_mean", s.StrainMean,
		"kinetic_energy", s.KineticEnergy,
	)
}
