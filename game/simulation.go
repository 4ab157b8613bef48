package game

import (
	"github.com/pthm-cable/springsoup/systems"
	"github.com/pthm-cable/springsoup/telemetry"
)

// Update advances the world by one configured timestep.
func (w *World) Update() {
	w.Step(w.cfg.Physics.DT)
}

// Step advances the world by dt seconds. Phases run in a fixed order:
// commands, global forces and rain, springs, integration, grid rebuild,
// neighbour resolution, bounds, render grid.
func (w *World) Step(dt float64) {
	w.perf.Begin()
	events := w.pending
	w.pending = telemetry.Events{}
	var st systems.StepStats
	pp, sp := w.pools.Particles, w.pools.Springs

	// 0. Queued commands
	w.perf.Enter(telemetry.PhaseCommands, len(w.commands))
	w.drainCommands()

	// 1. Gravity, drag and rain
	w.perf.Enter(telemetry.PhaseForces, pp.Live())
	w.physics.ApplyGlobalForces(w.toggles.Gravity)
	if w.toggles.Rain {
		kind := w.cfg.Derived.RainKind
		spawned, dropped := w.rain.Update(dt, pp, kind, w.profiles[kind], w.physics.Bounds)
		events.Spawned += spawned
		events.SpawnsDropped += dropped
		if dropped > 0 {
			w.log.Debug("rain spawns dropped", "dropped", dropped, "live", pp.Live())
		}
	}

	// 2. Springs
	w.perf.Enter(telemetry.PhaseSprings, sp.Live())
	w.physics.ApplySprings(&st)

	// 3. Semi-implicit Euler
	w.perf.Enter(telemetry.PhaseIntegrate, pp.Live())
	w.physics.Integrate(dt)

	// 4. Spatial grid
	w.perf.Enter(telemetry.PhaseGrid, pp.Live())
	w.grid.Rebuild(pp)

	// 5. Repulsion, elastic linking, walls
	w.perf.Enter(telemetry.PhaseNeighbors, len(w.grid.OccupiedCells()))
	w.physics.ResolveNeighbors(w.toggles.Walls, &st)
	if st.SpringsDropped > 0 {
		w.log.Debug("spring links dropped", "dropped", st.SpringsDropped, "live", sp.Live())
	}

	// 6. Keep everything inside the box
	w.perf.Enter(telemetry.PhaseBounds, pp.Live())
	w.physics.ClampToBounds()
	w.gridDirty = true

	// 7. Display grid
	w.perf.Enter(telemetry.PhaseRender, pp.Live())
	w.renderGrid.Accumulate(pp)

	w.perf.End()
	w.tick++
	w.simTime += dt

	events.SpringsLinked += st.SpringsLinked
	events.SpringsBroken += st.SpringsBroken
	events.Collisions += st.Collisions
	events.WallContacts += st.WallContacts
	w.collector.Add(events)
	w.metrics.ObserveStep(w.perf.LastStep(), events,
		pp.Live(), pp.Cap(), sp.Live(), sp.Cap())

	w.flushTelemetry()
	w.Publish()
}
