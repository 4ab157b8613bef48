package game

func (w *World) logToggle(name string, enabled bool) {
	w.log.Info("toggle", "name", name, "enabled", enabled)
}

// LogWorldState logs a one-line summary of the world.
func (w *World) LogWorldState() {
	w.log.Info("world state",
		"tick", w.tick,
		"sim_time", w.simTime,
		"particles", w.pools.Particles.Live(),
		"springs", w.pools.Springs.Live(),
		"high_water", w.pools.Particles.HighWater(),
		"draw_kind", w.drawKind.String(),
		"gesture", w.interaction.State().String(),
		"rain", w.toggles.Rain,
		"gravity", w.toggles.Gravity,
		"three_d", w.toggles.ThreeD,
	)
}
