// Package shape provides the collision shapes attached to rigid bodies.
//
// Every shape answers one geometric query, [Shape.FarthestPointAlong]: the
// support point of the shape placed at a world transform, along a world
// direction. Narrow-phase queries (GJK, EPA) are built entirely on it.
//
// Shapes are immutable once built and may be shared between bodies, groups
// and worlds stepping on different goroutines.
package shape

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/motion/internal/geom"
)

var (
	// ErrEmptyGroup indicates a support query on a group with no children.
	ErrEmptyGroup = errors.New("shape: group has no children")

	// ErrInvalidDimensions indicates a non-positive radius, extent or empty point set.
	ErrInvalidDimensions = errors.New("shape: invalid dimensions")
)

type Type int

const (
	TypeGroup Type = iota
	TypeSphere
	TypeBox
	TypeCylinder
	TypeCone
	TypeConvexHull
	TypeSphereHull
	TypeTrimesh
)

var typeNames = [...]string{
	TypeGroup:      "group",
	TypeSphere:     "sphere",
	TypeBox:        "box",
	TypeCylinder:   "cylinder",
	TypeCone:       "cone",
	TypeConvexHull: "convex_hull",
	TypeSphereHull: "sphere_hull",
	TypeTrimesh:    "trimesh",
}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return "unknown"
	}
	return typeNames[t]
}

// Shape is a collision shape.
type Shape interface {
	Type() Type

	// FarthestPointAlong returns the world-space point of the shape, placed
	// at ref, that lies farthest along dir. dir need not be normalized.
	FarthestPointAlong(ref geom.Transform, dir mgl64.Vec3) mgl64.Vec3

	// Volume is used to derive mass from density.
	Volume() float64

	// Inertia returns the local inertia tensor for the given mass.
	Inertia(mass float64) mgl64.Mat3

	// Radius bounds the shape by a sphere around its local origin.
	Radius() float64
}

// localSupport lifts a local-space support function to world space.
func localSupport(ref geom.Transform, dir mgl64.Vec3, fn func(mgl64.Vec3) mgl64.Vec3) mgl64.Vec3 {
	return ref.Apply(fn(ref.InverseVector(dir)))
}

func diagonal(x, y, z float64) mgl64.Mat3 {
	return mgl64.Diag3(mgl64.Vec3{x, y, z})
}
