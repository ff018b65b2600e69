package sph

import (
	"fmt"
	"io"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/gcfg.v1"
)

// ExampleConfigFile documents every key accepted by ReadConfig.
const ExampleConfigFile = `[Simulation]

#######################
# Particle parameters #
#######################

# Number of particles. Fixed for the whole run.
ParticleCount = 1000
ParticleMass = 1
# Particle size scales the repulsion distance below.
ParticleSize = 0.05

####################
# Fluid parameters #
####################

# Support radius of every smoothing kernel. Must be positive.
SmoothingRadius = 1
RestDensity = 1
Stiffness = 2
Viscosity = 0.01
SurfaceTension = 0.01

# Default time step used when the caller does not supply one.
TimeStep = 0.2

GravityX = 0
GravityY = 0
GravityZ = 0

# Strength of the pull toward the origin. 0 disables it.
Centering = 0.5

# Short range collision avoidance. Either value set to 0 disables it.
RepulsionDistance = 0.01
RepulsionStrength = 0.01

# Goroutines used by the density and force passes. 0 or 1 runs them serially.
# Workers = 4

[Boundary]

# shell keeps particles between CoreRadius and CoreRadius+ParticleRange.
# box keeps them inside [-BoxHalfExtent, BoxHalfExtent] on every axis.
Kind = shell
CoreRadius = 0.8
ParticleRange = 1
BoxHalfExtent = 1.25

# Fraction of the speed kept (and reversed) on contact.
Damp = 0.7

# box only: zero the force component of an axis that touched a wall.
# ZeroForceOnContact = true
`

type simulationSection struct {
	ParticleCount int
	ParticleMass  float64
	ParticleSize  float64

	SmoothingRadius float64
	RestDensity     float64
	Stiffness       float64
	Viscosity       float64
	SurfaceTension  float64
	TimeStep        float64

	GravityX, GravityY, GravityZ float64

	Centering         float64
	RepulsionDistance float64
	RepulsionStrength float64
	Workers           int
}

type boundarySection struct {
	Kind               BoundaryKind
	CoreRadius         float64
	ParticleRange      float64
	BoxHalfExtent      float64
	Damp               float64
	ZeroForceOnContact bool
}

// configWrapper is the gcfg view of a Config.
type configWrapper struct {
	Simulation simulationSection
	Boundary   boundarySection
}

func wrap(c Config) *configWrapper {
	return &configWrapper{
		Simulation: simulationSection{
			ParticleCount:     c.ParticleCount,
			ParticleMass:      c.ParticleMass,
			ParticleSize:      c.ParticleSize,
			SmoothingRadius:   c.SmoothingRadius,
			RestDensity:       c.RestDensity,
			Stiffness:         c.Stiffness,
			Viscosity:         c.Viscosity,
			SurfaceTension:    c.SurfaceTension,
			TimeStep:          c.TimeStep,
			GravityX:          c.Gravity.X(),
			GravityY:          c.Gravity.Y(),
			GravityZ:          c.Gravity.Z(),
			Centering:         c.Centering,
			RepulsionDistance: c.RepulsionDistance,
			RepulsionStrength: c.RepulsionStrength,
			Workers:           c.Workers,
		},
		Boundary: boundarySection{
			Kind:               c.Boundary,
			CoreRadius:         c.CoreRadius,
			ParticleRange:      c.ParticleRange,
			BoxHalfExtent:      c.BoxHalfExtent,
			Damp:               c.BoundaryDamp,
			ZeroForceOnContact: c.ZeroForceOnContact,
		},
	}
}

func (w *configWrapper) unwrap() Config {
	s, b := &w.Simulation, &w.Boundary
	return Config{
		ParticleCount:      s.ParticleCount,
		ParticleMass:       s.ParticleMass,
		ParticleSize:       s.ParticleSize,
		SmoothingRadius:    s.SmoothingRadius,
		RestDensity:        s.RestDensity,
		Stiffness:          s.Stiffness,
		Viscosity:          s.Viscosity,
		SurfaceTension:     s.SurfaceTension,
		TimeStep:           s.TimeStep,
		Gravity:            mgl64.Vec3{s.GravityX, s.GravityY, s.GravityZ},
		Centering:          s.Centering,
		RepulsionDistance:  s.RepulsionDistance,
		RepulsionStrength:  s.RepulsionStrength,
		Workers:            s.Workers,
		Boundary:           b.Kind,
		CoreRadius:         b.CoreRadius,
		ParticleRange:      b.ParticleRange,
		BoxHalfExtent:      b.BoxHalfExtent,
		BoundaryDamp:       b.Damp,
		ZeroForceOnContact: b.ZeroForceOnContact,
	}
}

// ReadConfig reads a gcfg configuration from r. Keys missing from the file
// keep the values of base. The result is validated.
func ReadConfig(r io.Reader, base Config) (Config, error) {
	w := wrap(base)
	if err := gcfg.ReadInto(w, r); err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	c := w.unwrap()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// LoadConfig is ReadConfig on the named file.
func LoadConfig(fname string, base Config) (Config, error) {
	w := wrap(base)
	if err := gcfg.ReadFileInto(w, fname); err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", fname, err)
	}
	c := w.unwrap()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}
