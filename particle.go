package sph

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
)

// density floor applied after every density sum, and the initial density.
const densityFloor = 1e-4

// Particle is one fluid sample point.
type Particle struct {
	Position mgl64.Vec3
	Velocity mgl64.Vec3
	Force    mgl64.Vec3 // net force of the last force pass
	Density  float64
	Pressure float64

	// Boundary particles take part in the density and force sums but are
	// never advected.
	Boundary bool
}

func (p Particle) String() string {
	return fmt.Sprintf("p: [%.4f, %.4f, %.4f]\nv: [%.4f, %.4f, %.4f]\nrho: %.4f\n",
		p.Position[0], p.Position[1], p.Position[2],
		p.Velocity[0], p.Velocity[1], p.Velocity[2],
		p.Density)
}

// Store is the fixed-size, index-addressed particle collection. Only the
// solver mutates it, and only between phase barriers.
type Store struct {
	particles []Particle
}

// newStore takes ownership of particles.
func newStore(particles []Particle) *Store {
	return &Store{particles: particles}
}

// Len is the number of particles.
func (s *Store) Len() int { return len(s.particles) }

// Snapshot copies every particle in index order.
func (s *Store) Snapshot() []Particle {
	out := make([]Particle, len(s.particles))
	copy(out, s.particles)
	return out
}

// uniform draws from [lo, hi) regardless of the order of the bounds.
func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*rng.Float64()
}

// spawnShell places n resting particles between radii inner and outer around
// the origin, using independent azimuth and elevation draws.
func spawnShell(n int, inner, outer float64, rng *rand.Rand) []Particle {
	particles := make([]Particle, n)
	for i := range particles {
		theta := uniform(rng, -math.Pi, math.Pi)
		phi := uniform(rng, -math.Pi/2, math.Pi/2)
		height := uniform(rng, inner, outer)

		sinTheta, cosTheta := math.Sincos(theta)
		sinPhi, cosPhi := math.Sincos(phi)
		particles[i] = Particle{
			Position: mgl64.Vec3{
				height * sinTheta * cosPhi,
				height * sinTheta * sinPhi,
				height * cosTheta,
			},
			Density: densityFloor,
		}
	}
	return particles
}
