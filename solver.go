package sph

import (
	"github.com/go-gl/mathgl/mgl64"
)

// surface normals shorter than this are noise; surface tension is skipped.
const surfaceNormalThreshold = 0.01

/*

the three passes of a step. each pass writes only fields of particle i
that no other particle reads during the same pass, so the outer loops of
the density and force passes can be split across goroutines.

*/

// densityPass estimates density and pressure of particles [lo, hi).
func (s *Simulation) densityPass(lo, hi int) {
	ps := s.store.particles
	mass := s.cfg.ParticleMass
	for i := lo; i < hi; i++ {
		pi := &ps[i]
		density := densityFloor
		for j := range ps {
			if j == i {
				continue
			}
			density += mass * s.kernel.Poly6(pi.Position.Sub(ps[j].Position))
		}
		if !(density >= densityFloor) { // also catches NaN
			density = densityFloor
		}
		pi.Density = density
		pi.Pressure = s.cfg.Stiffness * (density - s.cfg.RestDensity)
	}
}

// forcePass accumulates the net force on particles [lo, hi).
func (s *Simulation) forcePass(lo, hi int) {
	ps := s.store.particles
	cfg := &s.cfg
	k := &s.kernel
	mass := cfg.ParticleMass
	repelRadius := cfg.ParticleSize * cfg.RepulsionDistance

	for i := lo; i < hi; i++ {
		pi := &ps[i]
		ownPressure := pi.Pressure / (pi.Density * pi.Density)

		var pressure, viscosity, normal, repulsion mgl64.Vec3
		colorLaplacian := 0.0
		for j := range ps {
			if j == i {
				continue
			}
			pj := &ps[j]
			r := pi.Position.Sub(pj.Position)

			if r.Dot(r) < k.H2 {
				shared := mass * (ownPressure + pj.Pressure/(pj.Density*pj.Density))
				pressure = pressure.Sub(k.SpikyGradient(r).Mul(shared))

				visc := cfg.Viscosity * mass / pj.Density * k.ViscosityLaplacian(r)
				viscosity = viscosity.Add(pj.Velocity.Sub(pi.Velocity).Mul(visc))

				normal = normal.Add(k.Poly6Gradient(r).Mul(mass / pj.Density))
				colorLaplacian += mass * k.Poly6Laplacian(r) / pj.Density
			}

			if repelRadius > 0 {
				if d := r.Len(); d < repelRadius {
					repulsion = repulsion.Add(normalize(r).Mul(1 - d/repelRadius))
				}
			}
		}
		repulsion = normalize(repulsion).Mul(cfg.RepulsionStrength)

		var tension mgl64.Vec3
		if normal.Len() > surfaceNormalThreshold {
			tension = normal.Normalize().Mul(-cfg.SurfaceTension * colorLaplacian)
		}

		gravity := cfg.Gravity.Mul(pi.Density)
		center := normalize(pi.Position).Mul(-cfg.Centering)

		pi.Force = pressure.
			Add(viscosity).
			Add(gravity).
			Add(tension).
			Add(center).
			Add(repulsion)
	}
}

// integrate advances every free particle with semi-implicit Euler and
// applies the boundary. It runs in index order since the shell boundary
// draws from the shared random source.
func (s *Simulation) integrate(dt float64) {
	ps := s.store.particles
	invMass := 1 / s.cfg.ParticleMass
	for i := range ps {
		p := &ps[i]
		if p.Boundary {
			continue
		}
		p.Velocity = p.Velocity.Add(p.Force.Mul(dt * invMass))
		p.Position = p.Position.Add(p.Velocity.Mul(dt))
		s.boundary.Constrain(p)
	}
}

// checkFinite returns the first particle with a non-finite position or
// velocity.
func (s *Simulation) checkFinite() *InstabilityError {
	for i, p := range s.store.particles {
		if !finite(p.Position) {
			return &InstabilityError{Step: s.step, Index: i, Field: "position"}
		}
		if !finite(p.Velocity) {
			return &InstabilityError{Step: s.step, Index: i, Field: "velocity"}
		}
	}
	return nil
}
