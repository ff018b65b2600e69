package sph

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testShell(seed int64) *Shell {
	return &Shell{Inner: 0.8, Outer: 1.8, Damp: 0.7, Rand: rand.New(rand.NewSource(seed))}
}

func TestShellInsideIsNoop(t *testing.T) {
	s := testShell(1)
	p := Particle{
		Position: mgl64.Vec3{0.5, 0.9, -0.3},
		Velocity: mgl64.Vec3{1, 2, 3},
	}
	want := p
	s.Constrain(&p)
	assert.Equal(t, want, p)
	s.Constrain(&p)
	assert.Equal(t, want, p)
}

func TestShellOuterClamp(t *testing.T) {
	s := testShell(2)
	p := Particle{
		Position: mgl64.Vec3{3, 0, 0},
		Velocity: mgl64.Vec3{2, 0, 0},
	}
	s.Constrain(&p)

	assert.InDelta(t, 1.8, p.Position.Len(), 1e-12)
	assert.InDelta(t, 1.8, p.Position.X(), 1e-12)
	assert.InDelta(t, 2*0.7, p.Velocity.Len(), 1e-12)
	assert.Less(t, p.Velocity.X(), 0.0)
	// jitter is at most 0.5% of the speed per axis
	assert.InDelta(t, 0, p.Velocity.Y(), 0.02)

	after := p
	s.Constrain(&p)
	assert.Equal(t, after, p)
}

func TestShellInnerClamp(t *testing.T) {
	s := testShell(3)
	p := Particle{
		Position: mgl64.Vec3{0, 0, 0.1},
		Velocity: mgl64.Vec3{0, 0, -1},
	}
	s.Constrain(&p)
	assert.InDelta(t, 0.8, p.Position.Z(), 1e-12)
	assert.Greater(t, p.Velocity.Z(), 0.0)
	assert.InDelta(t, 0.7, p.Velocity.Len(), 1e-12)
}

func TestShellOrigin(t *testing.T) {
	s := testShell(4)
	p := Particle{Velocity: mgl64.Vec3{0.3, 0, 0}}
	s.Constrain(&p)
	assert.True(t, finite(p.Position))
	assert.True(t, finite(p.Velocity))
	assert.Equal(t, fallbackDirection.Mul(0.8), p.Position)
}

func TestBoxClamp(t *testing.T) {
	b := NewBoundary(Config{Boundary: BoxBoundary, BoxHalfExtent: 1.25, BoundaryDamp: 0.5, ZeroForceOnContact: true}, nil)
	p := Particle{
		Position: mgl64.Vec3{2, 0.3, -3},
		Velocity: mgl64.Vec3{1, 1, -2},
		Force:    mgl64.Vec3{4, 5, -6},
	}
	b.Constrain(&p)
	assert.Equal(t, mgl64.Vec3{1.25, 0.3, -1.25}, p.Position)
	assert.Equal(t, mgl64.Vec3{-0.5, 1, 1}, p.Velocity)
	assert.Equal(t, mgl64.Vec3{0, 5, 0}, p.Force)

	after := p
	b.Constrain(&p)
	assert.Equal(t, after, p)
}

func TestBoxInsideIsNoop(t *testing.T) {
	b := NewBoundary(Config{Boundary: BoxBoundary, BoxHalfExtent: 1, BoundaryDamp: 0.5, ZeroForceOnContact: true}, nil)
	for _, pos := range []mgl64.Vec3{{0, 0, 0}, {1, -1, 0.5}, {-1, 1, 1}} {
		p := Particle{Position: pos, Velocity: mgl64.Vec3{1, -1, 2}, Force: mgl64.Vec3{3, 3, 3}}
		before := p
		b.Constrain(&p)
		assert.Equal(t, before, p, "position %v", pos)
	}
}

func TestBoxKeepsForce(t *testing.T) {
	b := NewBoundary(Config{Boundary: BoxBoundary, BoxHalfExtent: 1, BoundaryDamp: 0.7}, nil)
	p := Particle{
		Position: mgl64.Vec3{0, -1.5, 0},
		Velocity: mgl64.Vec3{0, -1, 0},
		Force:    mgl64.Vec3{0, -3, 0},
	}
	b.Constrain(&p)
	assert.Equal(t, -1.0, p.Position.Y())
	assert.InDelta(t, 0.7, p.Velocity.Y(), 1e-15)
	assert.Equal(t, -3.0, p.Force.Y())
}

func TestNewBoundaryKinds(t *testing.T) {
	shell, ok := NewBoundary(ShellPreset(), nil).(*Shell)
	require.True(t, ok)
	assert.Equal(t, 0.8, shell.Inner)
	assert.InDelta(t, 1.8, shell.Outer, 1e-15)

	box, ok := NewBoundary(BoxPreset(), nil).(*Box)
	require.True(t, ok)
	assert.Equal(t, mgl64.Vec3{2.5, 2.5, 2.5}, box.Bounds.Width)
	assert.True(t, box.ZeroForce)
}

func TestBounds(t *testing.T) {
	b := Bounds{Center: mgl64.Vec3{1, 0, 0}, Width: mgl64.Vec3{2, 4, 6}}
	assert.Equal(t, mgl64.Vec3{0, -2, -3}, b.Min())
	assert.Equal(t, mgl64.Vec3{2, 2, 3}, b.Max())
	assert.True(t, b.Contains(mgl64.Vec3{2, 2, 3}))
	assert.False(t, b.Contains(mgl64.Vec3{2.1, 0, 0}))

	got := BoundsOf([]mgl64.Vec3{{-1, 0, 2}, {1, 4, 2}, {0, 2, -2}})
	assert.Equal(t, mgl64.Vec3{0, 2, 0}, got.Center)
	assert.Equal(t, mgl64.Vec3{2, 4, 4}, got.Width)
	assert.Equal(t, Bounds{}, BoundsOf(nil))
}
