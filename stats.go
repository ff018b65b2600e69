package sph

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes one frame.
type Stats struct {
	Count int

	DensityMean, DensityStd float64
	DensityMin, DensityMax  float64
	PressureMean            float64

	MaxSpeed      float64
	KineticEnergy float64

	Center mgl64.Vec3 // mean position (centre of mass for equal masses)
	Bounds Bounds
}

// Summarize computes frame statistics. mass is the per-particle mass used
// for the kinetic energy.
func Summarize(f *Frame, mass float64) Stats {
	n := len(f.Particles)
	st := Stats{Count: n}
	if n == 0 {
		return st
	}

	densities := make([]float64, n)
	pressures := make([]float64, n)
	speeds := make([]float64, n)
	positions := make([]mgl64.Vec3, n)
	for i, p := range f.Particles {
		densities[i] = p.Density
		pressures[i] = p.Pressure
		speeds[i] = p.Velocity.Len()
		positions[i] = p.Position
		st.Center = st.Center.Add(p.Position)
	}

	st.DensityMean, st.DensityStd = stat.MeanStdDev(densities, nil)
	if n == 1 {
		st.DensityStd = 0
	}
	st.DensityMin = floats.Min(densities)
	st.DensityMax = floats.Max(densities)
	st.PressureMean = stat.Mean(pressures, nil)
	st.MaxSpeed = floats.Max(speeds)
	st.KineticEnergy = 0.5 * mass * floats.Dot(speeds, speeds)
	st.Center = st.Center.Mul(1 / float64(n))
	st.Bounds = BoundsOf(positions)
	return st
}

// Finite reports whether every summary value is a real number.
func (st Stats) Finite() bool {
	for _, v := range []float64{st.DensityMean, st.DensityMax, st.MaxSpeed, st.KineticEnergy} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return finite(st.Center)
}
