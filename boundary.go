package sph

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
)

// Boundary keeps a particle inside the containment volume. Constrain
// mutates p in place and is a no-op for particles already inside.
type Boundary interface {
	Constrain(p *Particle)
}

// NewBoundary builds the constraint selected by c.Boundary. rng feeds the
// shell's velocity jitter.
func NewBoundary(c Config, rng *rand.Rand) Boundary {
	switch c.Boundary {
	case BoxBoundary:
		w := 2 * c.BoxHalfExtent
		return &Box{
			Bounds:    Bounds{Width: mgl64.Vec3{w, w, w}},
			Damp:      c.BoundaryDamp,
			ZeroForce: c.ZeroForceOnContact,
		}
	default:
		return &Shell{
			Inner: c.CoreRadius,
			Outer: c.CoreRadius + c.ParticleRange,
			Damp:  c.BoundaryDamp,
			Rand:  rng,
		}
	}
}

/*

axis aligned bounds

*/

// Bounds is an axis aligned box given by its center and full width.
type Bounds struct {
	Center, Width mgl64.Vec3
}

// Min is the low corner.
func (b Bounds) Min() mgl64.Vec3 { return b.Center.Sub(b.Width.Mul(0.5)) }

// Max is the high corner.
func (b Bounds) Max() mgl64.Vec3 { return b.Center.Add(b.Width.Mul(0.5)) }

// Contains reports whether point lies inside b or on its faces.
func (b Bounds) Contains(point mgl64.Vec3) bool {
	lo, hi := b.Min(), b.Max()
	return (lo[0] <= point[0] && point[0] <= hi[0]) &&
		(lo[1] <= point[1] && point[1] <= hi[1]) &&
		(lo[2] <= point[2] && point[2] <= hi[2])
}

// BoundsOf returns the smallest bounds containing every point.
func BoundsOf(points []mgl64.Vec3) Bounds {
	if len(points) == 0 {
		return Bounds{}
	}
	lo, hi := points[0], points[0]
	for _, p := range points[1:] {
		for a := 0; a < 3; a++ {
			lo[a] = math.Min(lo[a], p[a])
			hi[a] = math.Max(hi[a], p[a])
		}
	}
	return Bounds{Center: lo.Add(hi).Mul(0.5), Width: hi.Sub(lo)}
}

/*

constraints

*/

// Box reflects and damps the velocity component of any axis on which the
// particle left the bounds, and clamps it back to the wall.
type Box struct {
	Bounds    Bounds
	Damp      float64
	ZeroForce bool
}

func (b *Box) Constrain(p *Particle) {
	if b.Bounds.Contains(p.Position) {
		return
	}
	lo, hi := b.Bounds.Min(), b.Bounds.Max()
	for a := 0; a < 3; a++ {
		var wall float64
		switch {
		case p.Position[a] < lo[a]:
			wall = lo[a]
		case p.Position[a] > hi[a]:
			wall = hi[a]
		default:
			continue
		}
		p.Velocity[a] *= -b.Damp
		p.Position[a] = wall
		if b.ZeroForce {
			p.Force[a] = 0
		}
	}
}

// slack on the shell radii so a particle clamped onto a radius is not
// caught again by rounding.
const shellTolerance = 1e-9

// Shell keeps particles between radii Inner and Outer around the origin. A
// particle crossing either radius has its velocity jittered, reversed and
// damped, and is moved back onto the radius it crossed.
type Shell struct {
	Inner, Outer float64
	Damp         float64
	Rand         *rand.Rand
}

func (s *Shell) Constrain(p *Particle) {
	d := p.Position.Len()
	var radius float64
	switch {
	case d < s.Inner-shellTolerance:
		radius = s.Inner
	case d > s.Outer+shellTolerance:
		radius = s.Outer
	default:
		return
	}

	speed := p.Velocity.Len()
	if spread := 0.005 * speed; spread > 0 && s.Rand != nil {
		jitter := mgl64.Vec3{
			uniform(s.Rand, -spread, spread),
			uniform(s.Rand, -spread, spread),
			uniform(s.Rand, -spread, spread),
		}
		p.Velocity = p.Velocity.Add(jitter)
	}
	p.Velocity = normalize(p.Velocity).Mul(-speed * s.Damp)
	p.Position = direction(p.Position).Mul(radius)
}
