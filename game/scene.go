package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/springsoup/components"
	"github.com/pthm-cable/springsoup/telemetry"
)

// SceneVersion is incremented when the scene format changes.
const SceneVersion = 1

// Scene is a saved world: every particle and spring with enough state to
// resume the simulation.
type Scene struct {
	Version int   `json:"version"`
	Seed    int64 `json:"seed"`
	Tick    int32 `json:"tick"`

	HalfWidth  float64 `json:"half_width"`
	HalfHeight float64 `json:"half_height"`
	HalfDepth  float64 `json:"half_depth"`
	ThreeD     bool    `json:"three_d"`

	Particles []SceneParticle `json:"particles"`
	Springs   []SceneSpring   `json:"springs"`

	Bookmark *telemetry.Bookmark `json:"bookmark,omitempty"`
}

// SceneParticle is one saved particle. ID is only meaningful inside the
// scene file.
type SceneParticle struct {
	ID    int32      `json:"id"`
	Kind  string     `json:"kind"`
	Pos   [3]float64 `json:"pos"`
	Vel   [3]float64 `json:"vel"`
	Mass  float64    `json:"mass"`
	Drag  float64    `json:"drag"`
	Color [3]uint8   `json:"color"`
}

// SceneSpring is one saved spring between two scene particle IDs.
type SceneSpring struct {
	A          int32   `json:"a"`
	B          int32   `json:"b"`
	RestLength float64 `json:"rest_length"`
	Stiffness  float64 `json:"stiffness"`
}

// CaptureScene copies the world into a scene.
func (w *World) CaptureScene() *Scene {
	pp, sp := w.pools.Particles, w.pools.Springs
	b := w.physics.Bounds
	sc := &Scene{
		Version:    SceneVersion,
		Seed:       w.cfg.Seed,
		Tick:       w.tick,
		HalfWidth:  b.Half.X,
		HalfHeight: b.Half.Y,
		HalfDepth:  w.cfg.World.HalfDepth,
		ThreeD:     w.toggles.ThreeD,
		Particles:  make([]SceneParticle, 0, pp.Live()),
		Springs:    make([]SceneSpring, 0, sp.Live()),
	}
	pp.ForEachLive(func(id components.ParticleID, p *components.Particle) {
		sc.Particles = append(sc.Particles, SceneParticle{
			ID:    int32(id),
			Kind:  p.Kind.String(),
			Pos:   [3]float64{p.Pos.X, p.Pos.Y, p.Pos.Z},
			Vel:   [3]float64{p.Vel.X, p.Vel.Y, p.Vel.Z},
			Mass:  p.Mass,
			Drag:  p.Drag,
			Color: [3]uint8{p.Color.R, p.Color.G, p.Color.B},
		})
	})
	sp.ForEachLive(func(_ components.SpringID, s *components.Spring) {
		sc.Springs = append(sc.Springs, SceneSpring{
			A:          int32(s.A),
			B:          int32(s.B),
			RestLength: s.RestLength,
			Stiffness:  s.Stiffness,
		})
	})
	return sc
}

// RestoreScene replaces the world contents with a scene. Particles that
// do not fit the pool are dropped along with their springs; the returned
// error reports how many.
func (w *World) RestoreScene(sc *Scene) error {
	if sc.Version != SceneVersion {
		return fmt.Errorf("scene version %d, want %d", sc.Version, SceneVersion)
	}
	if sc.ThreeD != w.toggles.ThreeD {
		w.Toggle3D()
	}
	w.ClearWorld()

	pp := w.pools.Particles
	ids := make(map[int32]components.ParticleID, len(sc.Particles))
	var errs []error
	for _, sp := range sc.Particles {
		kind, err := components.ParseKind(sp.Kind)
		if err != nil {
			errs = append(errs, fmt.Errorf("particle %d: %w", sp.ID, err))
			continue
		}
		id, err := w.Spawn(kind, r3.Vec{X: sp.Pos[0], Y: sp.Pos[1], Z: sp.Pos[2]})
		if err != nil {
			errs = append(errs, fmt.Errorf("particle %d: %w", sp.ID, err))
			continue
		}
		p := pp.Get(id)
		p.Vel = r3.Vec{X: sp.Vel[0], Y: sp.Vel[1], Z: sp.Vel[2]}
		if !p.Static() && sp.Mass > 0 {
			p.Mass, p.InvMass = sp.Mass, 1/sp.Mass
		}
		p.Drag = sp.Drag
		p.Color = components.Color{R: sp.Color[0], G: sp.Color[1], B: sp.Color[2]}
		ids[sp.ID] = id
	}

	var dropped int
	for _, s := range sc.Springs {
		a, okA := ids[s.A]
		b, okB := ids[s.B]
		if !okA || !okB {
			dropped++
			continue
		}
		_, err := w.pools.Springs.Insert(components.Spring{A: a, B: b, RestLength: s.RestLength, Stiffness: s.Stiffness})
		if err != nil {
			dropped++
		}
	}
	if dropped > 0 {
		errs = append(errs, fmt.Errorf("%d springs dropped", dropped))
	}

	w.log.Info("scene restored",
		"particles", pp.Live(),
		"springs", w.pools.Springs.Live(),
		"scene_tick", sc.Tick,
	)
	return errors.Join(errs...)
}

// SaveScene writes a scene to dir and returns the file path.
func SaveScene(sc *Scene, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create scene dir: %w", err)
	}

	name := fmt.Sprintf("scene_%d", sc.Tick)
	if sc.Bookmark != nil {
		name += "_" + string(sc.Bookmark.Type)
	}
	path := filepath.Join(dir, name+".json")

	data, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal scene: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write scene: %w", err)
	}
	return path, nil
}

// LoadScene reads a scene from disk.
func LoadScene(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	var sc Scene
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("unmarshal scene: %w", err)
	}
	return &sc, nil
}
