// Package sph implements a smoothed-particle hydrodynamics fluid solver.
//
// A Simulation owns a fixed set of particles and advances them with a
// density/pressure pass, a force pass and an integration pass per step.
// Kernel coefficients are plain values derived from the smoothing radius,
// so several simulations with different radii can run side by side.
package sph

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// magnitudes below this are treated as having no direction.
const minNormalLength = 1e-5

// fallback direction used when a position has no direction (the origin).
var fallbackDirection = mgl64.Vec3{0, 1, 0}

// normalize returns v scaled to unit length, or the zero vector when v is too
// short to carry a direction.
func normalize(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l < minNormalLength {
		return mgl64.Vec3{}
	}
	return v.Mul(1 / l)
}

// direction is like normalize but never returns the zero vector.
func direction(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l < minNormalLength {
		return fallbackDirection
	}
	return v.Mul(1 / l)
}

// finite reports whether every component of v is a real number.
func finite(v mgl64.Vec3) bool {
	for i := 0; i < 3; i++ {
		if math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
			return false
		}
	}
	return true
}
