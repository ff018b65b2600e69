package sph

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// BoundaryKind selects the containment policy of a simulation.
type BoundaryKind uint8

// boundary kinds
const (
	ShellBoundary BoundaryKind = iota
	BoxBoundary
)

func (k BoundaryKind) String() string {
	switch k {
	case ShellBoundary:
		return "shell"
	case BoxBoundary:
		return "box"
	}
	return fmt.Sprintf("BoundaryKind(%d)", uint8(k))
}

// UnmarshalText accepts "shell" or "box" (any case).
func (k *BoundaryKind) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "shell":
		*k = ShellBoundary
	case "box":
		*k = BoxBoundary
	default:
		return fmt.Errorf("unknown boundary kind %q, want shell or box", text)
	}
	return nil
}

// MarshalText is the inverse of UnmarshalText.
func (k BoundaryKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Config is the immutable per-run bundle of simulation parameters.
type Config struct {
	ParticleCount int
	ParticleMass  float64
	ParticleSize  float64

	SmoothingRadius float64
	RestDensity     float64
	Stiffness       float64
	Viscosity       float64
	SurfaceTension  float64
	TimeStep        float64
	Gravity         mgl64.Vec3

	// Centering scales an attraction toward the origin. Zero disables it.
	Centering float64

	// short range collision avoidance; disabled when either is zero.
	RepulsionDistance float64
	RepulsionStrength float64

	Boundary           BoundaryKind
	CoreRadius         float64 // shell inner radius
	ParticleRange      float64 // shell thickness, also the outer spawn radius
	BoxHalfExtent      float64
	BoundaryDamp       float64
	ZeroForceOnContact bool // box only

	// Workers splits the density and force passes across goroutines.
	// Values below 2 run them on the calling goroutine.
	Workers int
}

// ShellPreset returns the configuration of a fluid held in a spherical shell
// around the origin and pulled toward it.
func ShellPreset() Config {
	return Config{
		ParticleCount:     1000,
		ParticleMass:      1,
		ParticleSize:      0.05,
		SmoothingRadius:   1,
		RestDensity:       1,
		Stiffness:         2,
		Viscosity:         0.01,
		SurfaceTension:    0.01,
		TimeStep:          0.2,
		Centering:         0.5,
		RepulsionDistance: 0.01,
		RepulsionStrength: 0.01,
		Boundary:          ShellBoundary,
		CoreRadius:        0.8,
		ParticleRange:     1,
		BoxHalfExtent:     1.25,
		BoundaryDamp:      0.7,
	}
}

// BoxPreset returns the configuration of a fluid held in an axis-aligned box.
func BoxPreset() Config {
	return Config{
		ParticleCount:      1000,
		ParticleMass:       1,
		ParticleSize:       0.05,
		SmoothingRadius:    1,
		RestDensity:        1,
		Stiffness:          2,
		Viscosity:          0.1,
		SurfaceTension:     0.01,
		TimeStep:           0.2,
		Boundary:           BoxBoundary,
		CoreRadius:         0.8,
		ParticleRange:      2,
		BoxHalfExtent:      1.25,
		BoundaryDamp:       0.7,
		ZeroForceOnContact: true,
	}
}

// Preset looks up a preset by name.
func Preset(name string) (Config, error) {
	switch strings.ToLower(name) {
	case "shell":
		return ShellPreset(), nil
	case "box":
		return BoxPreset(), nil
	}
	return Config{}, fmt.Errorf("unknown preset %q, want shell or box", name)
}

func positive(field string, v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return &ConfigError{field, fmt.Sprintf("must be a positive number, got %g", v)}
	}
	return nil
}

func nonNegative(field string, v float64) error {
	if !(v >= 0) || math.IsInf(v, 0) {
		return &ConfigError{field, fmt.Sprintf("must not be negative, got %g", v)}
	}
	return nil
}

// Validate rejects configurations the solver cannot run. The returned error
// is a *ConfigError.
func (c *Config) Validate() error {
	if c.ParticleCount <= 0 {
		return &ConfigError{"ParticleCount", fmt.Sprintf("must be positive, got %d", c.ParticleCount)}
	}
	if c.Workers < 0 {
		return &ConfigError{"Workers", fmt.Sprintf("must not be negative, got %d", c.Workers)}
	}

	checks := []error{
		positive("ParticleMass", c.ParticleMass),
		positive("SmoothingRadius", c.SmoothingRadius),
		positive("TimeStep", c.TimeStep),
		nonNegative("ParticleSize", c.ParticleSize),
		nonNegative("RestDensity", c.RestDensity),
		nonNegative("Stiffness", c.Stiffness),
		nonNegative("RepulsionDistance", c.RepulsionDistance),
		nonNegative("RepulsionStrength", c.RepulsionStrength),
		nonNegative("BoundaryDamp", c.BoundaryDamp),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"Viscosity", c.Viscosity},
		{"SurfaceTension", c.SurfaceTension},
		{"Centering", c.Centering},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return &ConfigError{f.name, "must be finite"}
		}
	}
	if !finite(c.Gravity) {
		return &ConfigError{"Gravity", "must be finite"}
	}

	switch c.Boundary {
	case ShellBoundary:
		if err := nonNegative("CoreRadius", c.CoreRadius); err != nil {
			return err
		}
		if err := positive("ParticleRange", c.ParticleRange); err != nil {
			return err
		}
	case BoxBoundary:
		if err := positive("BoxHalfExtent", c.BoxHalfExtent); err != nil {
			return err
		}
	default:
		return &ConfigError{"Boundary", fmt.Sprintf("unknown kind %d", c.Boundary)}
	}
	return nil
}
