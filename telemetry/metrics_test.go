package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsObserveStep(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveStep(2*time.Millisecond, Events{Spawned: 3, SpringsBroken: 1}, 10, 100, 4, 400)
	m.ObserveStep(time.Millisecond, Events{Spawned: 2}, 12, 100, 3, 400)

	tests := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"particles live", m.particlesLive, 12},
		{"springs live", m.springsLive, 3},
		{"spawned", m.events.WithLabelValues("spawned"), 5},
		{"springs broken", m.events.WithLabelValues("spring_broken"), 1},
	}
	for _, tt := range tests {
		if got := testutil.ToFloat64(tt.c); got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
		}
	}

	n, err := testutil.GatherAndCount(reg, "springsoup_step_duration_seconds")
	if err != nil {
		t.Fatalf("GatherAndCount: %v", err)
	}
	if n != 1 {
		t.Errorf("step duration series = %d, want 1", n)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveStep(time.Millisecond, Events{}, 0, 0, 0, 0)
	m.ObserveCommand(true)
}
