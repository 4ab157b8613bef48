package systems

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/springsoup/components"
)

const eps = 1e-9

func testParams() PhysicsParams {
	p := PhysicsParams{
		Gravity:            9.81,
		CollisionDistance:  0.25,
		CollisionStiffness: 1,
		Restitution:        0.5,
		WallDistance:       0.15,
		SpringStiffness:    60,
		SpringDamping:      0,
		BreakRatio:         1.8,
		MaxSprings:         6,
		LinkDistance:       0.3,
	}
	p.Elastic[components.Goo] = true
	return p
}

func newTestPhysics(params PhysicsParams) (*PhysicsSystem, *Pools, *SpatialGrid) {
	pools := NewPools(64, 64)
	grid := NewSpatialGrid(10, 10, 0, 0.5)
	bounds := Bounds{Half: r3.Vec{X: 10, Y: 10}}
	return NewPhysicsSystem(pools, grid, params, bounds), pools, grid
}

func spawn(t *testing.T, pools *Pools, kind components.Kind, prof components.Profile, pos r3.Vec) components.ParticleID {
	t.Helper()
	id, err := pools.Particles.Allocate(kind, prof, pos)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	return id
}

func TestPhysics_GravitySemiImplicitEuler(t *testing.T) {
	phys, pools, _ := newTestPhysics(testParams())
	id := spawn(t, pools, components.Water, components.Profile{Mass: 1}, r3.Vec{})

	const dt = 0.016
	phys.ApplyGlobalForces(true)
	phys.Integrate(dt)

	p := pools.Particles.Get(id)
	wantVy := -9.81 * dt
	if math.Abs(p.Vel.Y-wantVy) > eps {
		t.Errorf("expected vy=%v, got %v", wantVy, p.Vel.Y)
	}
	// position uses the updated velocity
	if math.Abs(p.Pos.Y-wantVy*dt) > eps {
		t.Errorf("expected y=%v, got %v", wantVy*dt, p.Pos.Y)
	}
	if p.Force != (r3.Vec{}) {
		t.Errorf("force should be cleared after integration, got %v", p.Force)
	}
}

func TestPhysics_GravityDisabled(t *testing.T) {
	phys, pools, _ := newTestPhysics(testParams())
	id := spawn(t, pools, components.Water, components.Profile{Mass: 1}, r3.Vec{})

	phys.ApplyGlobalForces(false)
	phys.Integrate(0.016)

	if p := pools.Particles.Get(id); p.Vel != (r3.Vec{}) || p.Pos != (r3.Vec{}) {
		t.Errorf("particle at rest should stay put, got pos=%v vel=%v", p.Pos, p.Vel)
	}
}

func TestPhysics_DragOpposesVelocity(t *testing.T) {
	phys, pools, _ := newTestPhysics(testParams())
	id := spawn(t, pools, components.Poo, components.Profile{Mass: 2, Drag: 0.5}, r3.Vec{})
	pools.Particles.Get(id).Vel = r3.Vec{X: 4}

	phys.ApplyGlobalForces(false)

	if f := pools.Particles.Get(id).Force.X; math.Abs(f+2) > eps {
		t.Errorf("expected drag force -2, got %v", f)
	}
}

func TestPhysics_StaticAndHeldDoNotMove(t *testing.T) {
	phys, pools, _ := newTestPhysics(testParams())
	wall := spawn(t, pools, components.Wall, components.Profile{Static: true}, r3.Vec{Y: 1})
	held := spawn(t, pools, components.Water, components.Profile{Mass: 1}, r3.Vec{Y: 2})
	pools.Particles.Get(held).Held = true

	for i := 0; i < 10; i++ {
		phys.ApplyGlobalForces(true)
		phys.Integrate(0.016)
	}

	if p := pools.Particles.Get(wall); p.Pos.Y != 1 {
		t.Errorf("static particle moved to %v", p.Pos)
	}
	if p := pools.Particles.Get(held); p.Pos.Y != 2 {
		t.Errorf("held particle moved to %v", p.Pos)
	}
}

func TestPhysics_SpringForce(t *testing.T) {
	phys, pools, _ := newTestPhysics(testParams())
	a := spawn(t, pools, components.Goo, components.Profile{Mass: 1}, r3.Vec{})
	b := spawn(t, pools, components.Goo, components.Profile{Mass: 1}, r3.Vec{X: 1.5})
	pools.Springs.Insert(components.Spring{A: a, B: b, RestLength: 1, Stiffness: 10})

	var st StepStats
	phys.ApplySprings(&st)

	pa, pb := pools.Particles.Get(a), pools.Particles.Get(b)
	if math.Abs(pa.Force.X-5) > eps || math.Abs(pb.Force.X+5) > eps {
		t.Errorf("expected forces +5/-5, got %v/%v", pa.Force.X, pb.Force.X)
	}
	if st.SpringsBroken != 0 {
		t.Errorf("spring within break ratio should survive")
	}
}

func TestPhysics_SpringDamping(t *testing.T) {
	params := testParams()
	params.SpringDamping = 2
	phys, pools, _ := newTestPhysics(params)
	a := spawn(t, pools, components.Goo, components.Profile{Mass: 1}, r3.Vec{})
	b := spawn(t, pools, components.Goo, components.Profile{Mass: 1}, r3.Vec{X: 1})
	pools.Springs.Insert(components.Spring{A: a, B: b, RestLength: 1, Stiffness: 10})
	pools.Particles.Get(b).Vel = r3.Vec{X: 3}

	var st StepStats
	phys.ApplySprings(&st)

	// at rest length only damping acts: 2 * 3 pulls the pair together
	if f := pools.Particles.Get(a).Force.X; math.Abs(f-6) > eps {
		t.Errorf("expected damping force 6 on a, got %v", f)
	}
}

func TestPhysics_SpringBreaks(t *testing.T) {
	phys, pools, _ := newTestPhysics(testParams())
	a := spawn(t, pools, components.Goo, components.Profile{Mass: 1}, r3.Vec{})
	b := spawn(t, pools, components.Goo, components.Profile{Mass: 1}, r3.Vec{X: 2})
	pools.Springs.Insert(components.Spring{A: a, B: b, RestLength: 1, Stiffness: 10})

	var st StepStats
	phys.ApplySprings(&st)

	if st.SpringsBroken != 1 || pools.Springs.Live() != 0 {
		t.Errorf("expected spring to break, broken=%d live=%d", st.SpringsBroken, pools.Springs.Live())
	}
	if pools.Particles.Get(a).Force != (r3.Vec{}) {
		t.Error("broken spring should apply no force")
	}
}

func TestPhysics_CollisionSeparates(t *testing.T) {
	phys, pools, grid := newTestPhysics(testParams())
	a := spawn(t, pools, components.Water, components.Profile{Mass: 1}, r3.Vec{})
	b := spawn(t, pools, components.Water, components.Profile{Mass: 1}, r3.Vec{X: 0.1})
	pools.Particles.Get(a).Vel = r3.Vec{X: 1}
	pools.Particles.Get(b).Vel = r3.Vec{X: -1}

	grid.Rebuild(pools.Particles)
	var st StepStats
	phys.ResolveNeighbors(false, &st)

	pa, pb := pools.Particles.Get(a), pools.Particles.Get(b)
	if d := pb.Pos.X - pa.Pos.X; math.Abs(d-0.25) > eps {
		t.Errorf("expected separation 0.25, got %v", d)
	}
	if math.Abs(pa.Pos.X+0.075) > eps {
		t.Errorf("equal masses should split the correction, a at %v", pa.Pos.X)
	}
	// approach speed 2 reverses at restitution 0.5
	if math.Abs(pa.Vel.X+0.5) > eps || math.Abs(pb.Vel.X-0.5) > eps {
		t.Errorf("expected velocities -0.5/+0.5, got %v/%v", pa.Vel.X, pb.Vel.X)
	}
	if st.Collisions != 1 {
		t.Errorf("expected 1 collision, got %d", st.Collisions)
	}
}

func TestPhysics_CollisionAgainstStatic(t *testing.T) {
	phys, pools, grid := newTestPhysics(testParams())
	wall := spawn(t, pools, components.Wall, components.Profile{Static: true}, r3.Vec{})
	drop := spawn(t, pools, components.Water, components.Profile{Mass: 1}, r3.Vec{Y: 0.15})

	grid.Rebuild(pools.Particles)
	var st StepStats
	phys.ResolveNeighbors(false, &st)

	if p := pools.Particles.Get(wall); p.Pos != (r3.Vec{}) {
		t.Errorf("static particle pushed to %v", p.Pos)
	}
	if p := pools.Particles.Get(drop); math.Abs(p.Pos.Y-0.25) > eps {
		t.Errorf("expected dynamic particle at 0.25, got %v", p.Pos.Y)
	}
}

func TestPhysics_ElasticLinking(t *testing.T) {
	phys, pools, grid := newTestPhysics(testParams())
	a := spawn(t, pools, components.Goo, components.Profile{Mass: 1}, r3.Vec{})
	b := spawn(t, pools, components.Goo, components.Profile{Mass: 1}, r3.Vec{X: 0.28})
	// different kind never links
	spawn(t, pools, components.Water, components.Profile{Mass: 1}, r3.Vec{Y: 0.28})

	for i := 0; i < 3; i++ {
		grid.Rebuild(pools.Particles)
		var st StepStats
		phys.ResolveNeighbors(false, &st)
		if i == 0 && st.SpringsLinked != 1 {
			t.Fatalf("expected one link, got %d", st.SpringsLinked)
		}
	}

	if pools.Springs.Live() != 1 {
		t.Fatalf("expected a single spring, got %d", pools.Springs.Live())
	}
	if !pools.Springs.Connected(a, b) {
		t.Error("goo particles should be linked")
	}
	sp := pools.Springs.Get(pools.Springs.Attached(a)[0])
	if math.Abs(sp.RestLength-0.28) > eps || sp.Stiffness != 60 {
		t.Errorf("unexpected spring %+v", sp)
	}
}

func TestPhysics_LinkRespectsMaxSprings(t *testing.T) {
	params := testParams()
	params.MaxSprings = 1
	phys, pools, grid := newTestPhysics(params)
	for i := 0; i < 3; i++ {
		spawn(t, pools, components.Goo, components.Profile{Mass: 1}, r3.Vec{X: 0.26 * float64(i)})
	}

	grid.Rebuild(pools.Particles)
	var st StepStats
	phys.ResolveNeighbors(false, &st)

	for id := components.ParticleID(0); id < 3; id++ {
		if d := pools.Springs.Degree(id); d > 1 {
			t.Errorf("particle %d has %d springs", id, d)
		}
	}
}

func TestPhysics_WallPush(t *testing.T) {
	phys, pools, grid := newTestPhysics(testParams())
	id := spawn(t, pools, components.Water, components.Profile{Mass: 1}, r3.Vec{X: -9.95})
	pools.Particles.Get(id).Vel = r3.Vec{X: -2}

	grid.Rebuild(pools.Particles)
	var st StepStats
	phys.ResolveNeighbors(true, &st)

	p := pools.Particles.Get(id)
	if math.Abs(p.Pos.X+9.85) > eps {
		t.Errorf("expected push to -9.85, got %v", p.Pos.X)
	}
	if math.Abs(p.Vel.X-1) > eps {
		t.Errorf("expected reflected velocity 1, got %v", p.Vel.X)
	}
	if st.WallContacts != 1 {
		t.Errorf("expected 1 wall contact, got %d", st.WallContacts)
	}

	// walls off leaves it alone
	p.Pos.X, p.Vel.X = -9.95, -2
	grid.Rebuild(pools.Particles)
	phys.ResolveNeighbors(false, &st)
	if p.Pos.X != -9.95 {
		t.Errorf("walls disabled should not push, got %v", p.Pos.X)
	}
}

func TestClampParticle(t *testing.T) {
	b := Bounds{Half: r3.Vec{X: 10, Y: 5}}

	tests := []struct {
		name    string
		pos     r3.Vec
		vel     r3.Vec
		wantPos r3.Vec
		wantVel r3.Vec
	}{
		{"inside", r3.Vec{X: 1, Y: 1}, r3.Vec{X: 3}, r3.Vec{X: 1, Y: 1}, r3.Vec{X: 3}},
		{"past right", r3.Vec{X: 11}, r3.Vec{X: 4}, r3.Vec{X: 10}, r3.Vec{X: -2}},
		{"past bottom", r3.Vec{Y: -7}, r3.Vec{Y: -2}, r3.Vec{Y: -5}, r3.Vec{Y: 1}},
		{"outside but returning", r3.Vec{X: -12}, r3.Vec{X: 1}, r3.Vec{X: -10}, r3.Vec{X: 1}},
		{"depth flattened", r3.Vec{Z: 3}, r3.Vec{Z: 1}, r3.Vec{}, r3.Vec{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := &components.Particle{Pos: tc.pos, Vel: tc.vel}
			ClampParticle(p, b, 0.5)
			if p.Pos != tc.wantPos || p.Vel != tc.wantVel {
				t.Errorf("got pos=%v vel=%v, want pos=%v vel=%v", p.Pos, p.Vel, tc.wantPos, tc.wantVel)
			}
		})
	}
}

func TestPhysics_ClampToBoundsThreeD(t *testing.T) {
	phys, pools, _ := newTestPhysics(testParams())
	phys.Bounds = Bounds{Half: r3.Vec{X: 10, Y: 10, Z: 2}}
	id := spawn(t, pools, components.Water, components.Profile{Mass: 1}, r3.Vec{Z: 5})
	pools.Particles.Get(id).Vel = r3.Vec{Z: 2}

	phys.ClampToBounds()

	p := pools.Particles.Get(id)
	if p.Pos.Z != 2 || p.Vel.Z != -1 {
		t.Errorf("expected z clamped to 2 with vz -1, got %v %v", p.Pos.Z, p.Vel.Z)
	}
}
