package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Skew returns the cross-product matrix of v, so Skew(v).Mul3x1(u) == v.Cross(u).
func Skew(v mgl64.Vec3) mgl64.Mat3 {
	// column-major
	return mgl64.Mat3{
		0, v[2], -v[1],
		-v[2], 0, v[0],
		v[1], -v[0], 0,
	}
}

// Rotate advances q by the small rotation vector dtheta (axis * angle).
func Rotate(q mgl64.Quat, dtheta mgl64.Vec3) mgl64.Quat {
	if dtheta.LenSqr() < 1e-24 {
		return q
	}
	w := mgl64.Quat{W: 0, V: dtheta}
	return q.Add(w.Mul(q).Scale(0.5)).Normalize()
}

// Tangents returns two unit vectors orthogonal to n and to each other.
func Tangents(n mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	var t1 mgl64.Vec3
	if math.Abs(n[0]) >= 0.57735 {
		t1 = mgl64.Vec3{n[1], -n[0], 0}
	} else {
		t1 = mgl64.Vec3{0, n[2], -n[1]}
	}
	t1 = t1.Normalize()
	return t1, n.Cross(t1)
}

// IsFinite reports whether every component of v is finite.
func IsFinite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// NaNVec is returned by support queries that have no answer.
func NaNVec() mgl64.Vec3 {
	n := math.NaN()
	return mgl64.Vec3{n, n, n}
}

// Sign returns -1 for negative x and 1 otherwise.
func Sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}
