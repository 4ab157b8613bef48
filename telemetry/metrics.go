package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exports pool occupancy and step timing to Prometheus.
// Labels are fixed; nothing here is keyed by particle.
type Metrics struct {
	stepDuration  prometheus.Histogram
	particlesLive prometheus.Gauge
	springsLive   prometheus.Gauge
	particleCap   prometheus.Gauge
	springCap     prometheus.Gauge
	events        *prometheus.CounterVec
	commands      *prometheus.CounterVec
}

// NewMetrics registers the simulation metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		stepDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "springsoup_step_duration_seconds",
			Help:    "Time spent in one simulation step",
			Buckets: []float64{0.0005, 0.001, 0.002, 0.005, 0.01, 0.016, 0.033},
		}),
		particlesLive: f.NewGauge(prometheus.GaugeOpts{
			Name: "springsoup_particles_live",
			Help: "Live particles in the pool",
		}),
		springsLive: f.NewGauge(prometheus.GaugeOpts{
			Name: "springsoup_springs_live",
			Help: "Live springs in the pool",
		}),
		particleCap: f.NewGauge(prometheus.GaugeOpts{
			Name: "springsoup_particles_capacity",
			Help: "Particle pool capacity",
		}),
		springCap: f.NewGauge(prometheus.GaugeOpts{
			Name: "springsoup_springs_capacity",
			Help: "Spring pool capacity",
		}),
		events: f.NewCounterVec(prometheus.CounterOpts{
			Name: "springsoup_events_total",
			Help: "Simulation events by type",
		}, []string{"event"}), // spawned, spawn_dropped, released, spring_linked, spring_broken, collision
		commands: f.NewCounterVec(prometheus.CounterOpts{
			Name: "springsoup_commands_total",
			Help: "Commands applied or rejected",
		}, []string{"result"}), // applied, rejected
	}
}

// ObserveStep records one finished step.
func (m *Metrics) ObserveStep(d time.Duration, e Events, particles, particleCap, springs, springCap int) {
	if m == nil {
		return
	}
	m.stepDuration.Observe(d.Seconds())
	m.particlesLive.Set(float64(particles))
	m.springsLive.Set(float64(springs))
	m.particleCap.Set(float64(particleCap))
	m.springCap.Set(float64(springCap))

	add := func(name string, n int) {
		if n > 0 {
			m.events.WithLabelValues(name).Add(float64(n))
		}
	}
	add("spawned", e.Spawned)
	add("spawn_dropped", e.SpawnsDropped)
	add("released", e.Released)
	add("spring_linked", e.SpringsLinked)
	add("spring_broken", e.SpringsBroken)
	add("collision", e.Collisions)
}

// ObserveCommand counts an applied or rejected command.
func (m *Metrics) ObserveCommand(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.commands.WithLabelValues("applied").Inc()
	} else {
		m.commands.WithLabelValues("rejected").Inc()
	}
}
