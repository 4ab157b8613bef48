package game

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/springsoup/components"
	"github.com/pthm-cable/springsoup/telemetry"
)

// flushTelemetry closes the stats window when it is due.
func (w *World) flushTelemetry() {
	if !w.collector.ShouldFlush(w.tick) {
		return
	}

	stats := w.collector.Flush(w.tick, w.samplePoolState())
	perfStats := w.perf.Stats()

	if w.statsCallback != nil {
		w.statsCallback(stats)
	}

	for _, b := range w.bookmarks.Check(stats) {
		b.LogBookmark(w.log)
		if w.sceneDir == "" {
			continue
		}
		sc := w.CaptureScene()
		sc.Bookmark = &b
		if path, err := SaveScene(sc, w.sceneDir); err != nil {
			w.log.Error("failed to save bookmark scene", "error", err)
		} else {
			w.log.Info("bookmark scene saved", "path", path)
		}
	}

	if w.logStats {
		stats.LogStats()
		w.log.Info("perf", "window_end", stats.WindowEndTick, "stats", perfStats)
	}

	if w.output != nil {
		if err := w.output.WriteStats(stats); err != nil {
			w.log.Error("failed to write stats", "error", err)
		}
		if err := w.output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			w.log.Error("failed to write perf", "error", err)
		}
	}
}

// samplePoolState collects particle speeds, spring strains and kinetic
// energy for the window summary.
func (w *World) samplePoolState() telemetry.PoolState {
	pp, sp := w.pools.Particles, w.pools.Springs
	ps := telemetry.PoolState{
		Particles:   pp.Live(),
		ParticleCap: pp.Cap(),
		Springs:     sp.Live(),
		SpringCap:   sp.Cap(),
		Speeds:      make([]float64, 0, pp.Live()),
		Strains:     make([]float64, 0, sp.Live()),
	}

	pp.ForEachLive(func(_ components.ParticleID, p *components.Particle) {
		if p.Static() {
			return
		}
		v := r3.Norm(p.Vel)
		ps.Speeds = append(ps.Speeds, v)
		ps.KineticEnergy += 0.5 * p.Mass * v * v
	})
	sp.ForEachLive(func(_ components.SpringID, s *components.Spring) {
		a, b := pp.Get(s.A), pp.Get(s.B)
		if a == nil || b == nil || s.RestLength == 0 {
			return
		}
		ps.Strains = append(ps.Strains, math.Abs(r3.Norm(r3.Sub(b.Pos, a.Pos))/s.RestLength-1))
	})
	return ps
}
