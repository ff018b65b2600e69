package sph

import (
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"
)

// Frame is an immutable snapshot published after a completed step.
type Frame struct {
	Step      int
	Time      float64
	Particles []Particle

	// NonFinite is set once any particle has gone NaN or infinite.
	NonFinite bool
}

// Simulation owns the particle store, the kernel coefficients and the
// boundary of one run. Step must not be called concurrently with itself;
// Snapshot is safe to call from any goroutine at any time.
type Simulation struct {
	cfg      Config
	kernel   Kernel
	store    *Store
	boundary Boundary
	rng      *rand.Rand

	step     int
	time     float64
	unstable *InstabilityError

	frame atomic.Pointer[Frame]
}

// New validates cfg and spawns cfg.ParticleCount particles in a shell
// between cfg.CoreRadius and cfg.ParticleRange. A nil rng is replaced by a
// time-seeded one.
func New(cfg Config, rng *rand.Rand) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	particles := spawnShell(cfg.ParticleCount, cfg.CoreRadius, cfg.ParticleRange, rng)
	return newSimulation(cfg, particles, rng), nil
}

// NewFromParticles starts a simulation from explicit particle state. The
// particle count of cfg is replaced by len(particles), and the slice is
// copied.
func NewFromParticles(cfg Config, particles []Particle, rng *rand.Rand) (*Simulation, error) {
	cfg.ParticleCount = len(particles)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	own := make([]Particle, len(particles))
	copy(own, particles)
	for i := range own {
		if !(own[i].Density >= densityFloor) {
			own[i].Density = densityFloor
		}
	}
	return newSimulation(cfg, own, rng), nil
}

func newSimulation(cfg Config, particles []Particle, rng *rand.Rand) *Simulation {
	s := &Simulation{
		cfg:      cfg,
		kernel:   NewKernel(cfg.SmoothingRadius),
		store:    newStore(particles),
		boundary: NewBoundary(cfg, rng),
		rng:      rng,
	}
	s.publish()
	return s
}

// Config returns the configuration of the run.
func (s *Simulation) Config() Config { return s.cfg }

// Kernel returns the kernel coefficients of the run.
func (s *Simulation) Kernel() Kernel { return s.kernel }

// Len is the number of particles.
func (s *Simulation) Len() int { return s.store.Len() }

// Steps is the number of completed steps.
func (s *Simulation) Steps() int { return s.step }

// Time is the simulated time elapsed.
func (s *Simulation) Time() float64 { return s.time }

// SetBoundary marks particle i as a fixed boundary particle (or frees it).
// It must not be called during a step.
func (s *Simulation) SetBoundary(i int, fixed bool) error {
	if i < 0 || i >= s.store.Len() {
		return fmt.Errorf("particle index %d out of range [0, %d)", i, s.store.Len())
	}
	s.store.particles[i].Boundary = fixed
	s.publish()
	return nil
}

// Step runs one density, force and integration pass with time step dt. A
// non-positive dt uses the configured TimeStep.
func (s *Simulation) Step(dt float64) {
	if !(dt > 0) {
		dt = s.cfg.TimeStep
	}
	n, workers := s.store.Len(), s.cfg.Workers

	forEachRange(n, workers, s.densityPass)
	forEachRange(n, workers, s.forcePass)
	s.integrate(dt)

	s.step++
	s.time += dt
	if s.unstable == nil {
		s.unstable = s.checkFinite()
	}
	s.publish()
}

// publish replaces the snapshot seen by readers.
func (s *Simulation) publish() {
	s.frame.Store(&Frame{
		Step:      s.step,
		Time:      s.time,
		Particles: s.store.Snapshot(),
		NonFinite: s.unstable != nil,
	})
}

// Snapshot returns the state after the most recently completed step. The
// frame is shared and must not be modified.
func (s *Simulation) Snapshot() *Frame {
	return s.frame.Load()
}

// Diverged reports whether any particle has become non-finite.
func (s *Simulation) Diverged() bool { return s.unstable != nil }

// Health returns nil while the state is finite, and otherwise the
// *InstabilityError describing the first failure.
func (s *Simulation) Health() error {
	if s.unstable == nil {
		return nil
	}
	return s.unstable
}
