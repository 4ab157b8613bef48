package telemetry

import "testing"

func TestCollectorWindow(t *testing.T) {
	c := NewCollector(10, 0.016)

	for tick := int32(1); tick < 10; tick++ {
		c.Add(Events{Spawned: 2, Collisions: 1})
		if c.ShouldFlush(tick) {
			t.Fatalf("flush too early at tick %d", tick)
		}
	}
	c.Add(Events{Spawned: 2, SpawnsDropped: 1, SpringsBroken: 3})
	if !c.ShouldFlush(10) {
		t.Fatal("expected flush at tick 10")
	}

	ws := c.Flush(10, PoolState{
		Particles: 20, ParticleCap: 40,
		Springs: 5, SpringCap: 50,
		Speeds:  []float64{1, 2, 3},
		Strains: []float64{0.1, 0.3},
	})

	if ws.Spawned != 20 || ws.SpawnsDropped != 1 || ws.SpringsBroken != 3 || ws.Collisions != 9 {
		t.Errorf("unexpected event counts: %+v", ws)
	}
	if ws.ParticleFill != 0.5 || ws.SpringFill != 0.1 {
		t.Errorf("fill = %v/%v, want 0.5/0.1", ws.ParticleFill, ws.SpringFill)
	}
	if ws.SpeedMean != 2 || ws.StrainMax != 0.3 {
		t.Errorf("speed mean %v strain max %v", ws.SpeedMean, ws.StrainMax)
	}
	if ws.SimTimeSec != 10*0.016 {
		t.Errorf("sim time = %v", ws.SimTimeSec)
	}

	// counters reset after flush
	next := c.Flush(20, PoolState{})
	if next.Spawned != 0 || next.WindowStartTick != 10 {
		t.Errorf("expected reset window, got %+v", next)
	}
}
