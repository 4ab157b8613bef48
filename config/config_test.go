package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/springsoup/components"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Derived.GridCols != 80 || cfg.Derived.GridRows != 50 {
		t.Errorf("grid = %dx%d, want 80x50", cfg.Derived.GridCols, cfg.Derived.GridRows)
	}
	if cfg.Derived.GridLayers != 20 {
		t.Errorf("layers = %d, want 20", cfg.Derived.GridLayers)
	}
	if !cfg.Derived.Profiles[components.Goo].Elastic {
		t.Error("goo should be elastic")
	}
	if !cfg.Derived.Profiles[components.Wall].Static {
		t.Error("wall should be static")
	}
	if cfg.Derived.DrawKind != components.Water {
		t.Errorf("draw kind = %v, want water", cfg.Derived.DrawKind)
	}
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	data := []byte("world:\n  half_width: 10\n  half_height: 10\ngrid:\n  square_size: 2\ninteraction:\n  draw_kind: goo\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Derived.GridCols != 10 || cfg.Derived.GridRows != 10 {
		t.Errorf("grid = %dx%d, want 10x10", cfg.Derived.GridCols, cfg.Derived.GridRows)
	}
	if cfg.Derived.DrawKind != components.Goo {
		t.Errorf("draw kind = %v, want goo", cfg.Derived.DrawKind)
	}
	// untouched sections keep defaults
	if cfg.Pools.Particles != 4000 {
		t.Errorf("pools.particles = %d, want default 4000", cfg.Pools.Particles)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"negative extent", "world:\n  half_width: -1\n"},
		{"zero square", "grid:\n  square_size: 0\n"},
		{"bad kind", "interaction:\n  draw_kind: lava\n"},
		{"empty pool", "pools:\n  particles: 0\n"},
		{"zero rain rate", "rain:\n  rate: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cfg.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestWriteYAMLRoundtrip(t *testing.T) {
	cfg := Default()
	cfg.Physics.Gravity = 3.5

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if back.Physics.Gravity != 3.5 {
		t.Errorf("gravity = %v, want 3.5", back.Physics.Gravity)
	}
}
