package sph

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// distances below this are coincident for the spiky gradient; 1/d would
// overflow.
const coincident = 1e-300

/*

smoothing kernels.
closed forms from http://www.cs.cornell.edu/~bindel/class/cs5220-f11/code/sph-derive.pdf
every kernel is zero outside its support and for NaN displacements, so a
diverged particle does not poison its neighbours.

*/

// Kernel holds the powers of the smoothing radius and the normalization
// coefficients of the poly6, spiky and viscosity kernels. It is immutable
// once built; a new radius needs a new Kernel.
type Kernel struct {
	H, H2, H3, H4, H5, H6, H8, H9 float64

	Poly6Coefficient              float64
	Poly6GradientCoefficient      float64
	Poly6LaplacianCoefficient     float64
	SpikyGradientCoefficient      float64
	ViscosityLaplacianCoefficient float64
}

// NewKernel computes the coefficients for smoothing radius h.
// h must be positive; otherwise the coefficients are not finite.
func NewKernel(h float64) Kernel {
	k := Kernel{H: h}
	k.H2 = h * h
	k.H3 = k.H2 * h
	k.H4 = k.H2 * k.H2
	k.H5 = k.H4 * h
	k.H6 = k.H3 * k.H3
	k.H8 = k.H4 * k.H4
	k.H9 = k.H8 * h

	k.Poly6Coefficient = 4 / (math.Pi * k.H8)
	k.Poly6GradientCoefficient = -24 / (math.Pi * k.H8)
	k.Poly6LaplacianCoefficient = -48 / (math.Pi * k.H8)
	k.SpikyGradientCoefficient = -30 / (math.Pi * k.H4)
	k.ViscosityLaplacianCoefficient = 40 / (math.Pi * k.H4)
	return k
}

// Poly6 evaluates the density kernel at displacement r.
func (k *Kernel) Poly6(r mgl64.Vec3) float64 {
	r2 := r.Dot(r)
	if !(r2 < k.H2) {
		return 0
	}
	term := k.H2 - r2
	return k.Poly6Coefficient * term * term * term
}

// Poly6Gradient evaluates the gradient of the poly6 kernel. With the
// negative coefficient it points back toward the kernel center; the force
// pass relies on this sign.
func (k *Kernel) Poly6Gradient(r mgl64.Vec3) mgl64.Vec3 {
	r2 := r.Dot(r)
	if !(r2 < k.H2) {
		return mgl64.Vec3{}
	}
	term := k.H2 - r2
	return r.Mul(k.Poly6GradientCoefficient * term * term)
}

// Poly6Laplacian evaluates the laplacian of the poly6 kernel.
func (k *Kernel) Poly6Laplacian(r mgl64.Vec3) float64 {
	r2 := r.Dot(r)
	if !(r2 < k.H2) {
		return 0
	}
	return k.Poly6LaplacianCoefficient * (k.H2 - r2) * (k.H2 - 3*r2)
}

// SpikyGradient evaluates the gradient of the spiky (pressure) kernel.
// Coincident points (|r| = 0) have no defined gradient and contribute zero.
func (k *Kernel) SpikyGradient(r mgl64.Vec3) mgl64.Vec3 {
	d := r.Len()
	if !(d < k.H) || d < coincident {
		return mgl64.Vec3{}
	}
	q := d / k.H
	// (1-q)^2/q * r == (1-q)^2 * h * r/|r|, which stays finite for tiny |r|
	return r.Mul(k.SpikyGradientCoefficient * (1 - q) * (1 - q) * k.H / d)
}

// ViscosityLaplacian evaluates the laplacian of the viscosity kernel.
func (k *Kernel) ViscosityLaplacian(r mgl64.Vec3) float64 {
	d := r.Len()
	if !(d < k.H) {
		return 0
	}
	return k.ViscosityLaplacianCoefficient * (1 - d/k.H)
}
