package systems

import (
	"math/rand"
	"time"

	"github.com/aquilax/go-perlin"
	"golang.org/x/time/rate"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/springsoup/components"
)

// rainEpoch anchors the simulated clock fed to the limiter.
var rainEpoch = time.Unix(0, 0)

// RainParams holds rain injection tunables.
type RainParams struct {
	Rate          float64 // drops per simulated second
	Burst         int
	Wind          float64
	WindFrequency float64
}

// RainSystem spawns particles along the top of the world at a fixed rate
// of simulated time. Drops launch sideways with a noise-driven wind.
type RainSystem struct {
	params  RainParams
	limiter *rate.Limiter
	noise   *perlin.Perlin
	rng     *rand.Rand
	elapsed time.Duration
}

// NewRainSystem creates a rain injector.
func NewRainSystem(params RainParams, seed int64) *RainSystem {
	if params.Burst < 1 {
		params.Burst = 1
	}
	return &RainSystem{
		params:  params,
		limiter: rate.NewLimiter(rate.Limit(params.Rate), params.Burst),
		noise:   perlin.NewPerlin(2, 2, 3, seed),
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// Update advances the simulated clock by dt and spawns the drops that are
// due. Spawns that hit pool capacity are counted as dropped. A rate of
// zero or less never spawns, including the limiter's initial burst.
func (r *RainSystem) Update(dt float64, pool *ParticlePool, kind components.Kind, prof components.Profile, b Bounds) (spawned, dropped int) {
	r.elapsed += time.Duration(dt * float64(time.Second))
	if r.params.Rate <= 0 {
		return 0, 0
	}
	now := rainEpoch.Add(r.elapsed)

	wind := r.params.Wind * r.noise.Noise1D(r.elapsed.Seconds()*r.params.WindFrequency)
	for i := 0; i < r.params.Burst && r.limiter.AllowN(now, 1); i++ {
		pos := r3.Vec{
			X: (r.rng.Float64()*2 - 1) * b.Half.X,
			Y: b.Half.Y,
		}
		if !b.Flat() {
			pos.Z = (r.rng.Float64()*2 - 1) * b.Half.Z
		}
		id, err := pool.Allocate(kind, prof, pos)
		if err != nil {
			dropped++
			continue
		}
		pool.Get(id).Vel.X = wind
		spawned++
	}
	return spawned, dropped
}

// Elapsed returns the simulated time the rain clock has seen.
func (r *RainSystem) Elapsed() time.Duration { return r.elapsed }
