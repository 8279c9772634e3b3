// Package geom holds the rigid transform used for body poses and shape
// placement, built on mgl64 vectors and quaternions.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Transform is a rigid placement: rotate by Rotation, then translate by Position.
type Transform struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

func Identity() Transform {
	return Transform{Rotation: mgl64.QuatIdent()}
}

func Translation(p mgl64.Vec3) Transform {
	return Transform{Position: p, Rotation: mgl64.QuatIdent()}
}

// AxisAngle builds a transform at p rotated by angle radians around axis.
// A zero axis yields no rotation.
func AxisAngle(p mgl64.Vec3, axis mgl64.Vec3, angle float64) Transform {
	if axis.LenSqr() < 1e-24 || angle == 0 {
		return Translation(p)
	}
	return Transform{Position: p, Rotation: mgl64.QuatRotate(angle, axis.Normalize())}
}

// Apply maps a local point to world space.
func (t Transform) Apply(p mgl64.Vec3) mgl64.Vec3 {
	return t.Position.Add(t.Rotation.Rotate(p))
}

// ApplyVector rotates a local direction into world space.
func (t Transform) ApplyVector(v mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Rotate(v)
}

// Inverse maps a world point into local space.
func (t Transform) Inverse(p mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Conjugate().Rotate(p.Sub(t.Position))
}

// InverseVector rotates a world direction into local space.
func (t Transform) InverseVector(v mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Conjugate().Rotate(v)
}

// Mul composes t with a child placement expressed in t's frame.
func (t Transform) Mul(local Transform) Transform {
	return Transform{
		Position: t.Apply(local.Position),
		Rotation: t.Rotation.Mul(local.Rotation).Normalize(),
	}
}

// Basis returns the rotation as a 3x3 matrix.
func (t Transform) Basis() mgl64.Mat3 {
	return t.Rotation.Mat4().Mat3()
}

// IsValid reports whether every component is finite and the rotation is non-zero.
func (t Transform) IsValid() bool {
	for _, v := range t.Position {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	q := t.Rotation
	for _, v := range []float64{q.W, q.V[0], q.V[1], q.V[2]} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return q.Len() > 1e-12
}

// Normalized returns t with a unit rotation; a zero rotation becomes identity.
func (t Transform) Normalized() Transform {
	if t.Rotation.Len() < 1e-12 {
		t.Rotation = mgl64.QuatIdent()
		return t
	}
	t.Rotation = t.Rotation.Normalize()
	return t
}
