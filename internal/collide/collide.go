// Package collide is the narrow phase: given two shapes and their world
// placements it reports contact points. It also defines the candidate pair
// source the world queries for broad-phase pairs.
package collide

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/motion/internal/geom"
	"github.com/san-kum/motion/internal/shape"
)

// Point is one contact between shapes A and B.
type Point struct {
	// Position is the world midpoint between the two surfaces.
	Position mgl64.Vec3
	// Normal is the unit direction from A towards B.
	Normal mgl64.Vec3
	// Depth is positive when penetrating and negative for a speculative gap.
	Depth float64
	// Feature identifies the point for warm starting across steps.
	Feature uint32
}

// NarrowPhase produces contacts for one shape pair.
type NarrowPhase interface {
	Collide(a shape.Shape, ta geom.Transform, b shape.Shape, tb geom.Transform) []Point
}

// Candidate is an entry handed to a PairSource.
type Candidate struct {
	Pose  geom.Transform
	Shape shape.Shape
}

type Pair struct {
	A, B int
}

// PairSource proposes candidate index pairs, A < B, in a stable order.
type PairSource interface {
	Pairs(candidates []Candidate) []Pair
}

// AllPairs tests every pair with a bounding-sphere overlap, inflated by Margin.
type AllPairs struct {
	Margin float64
}

func (p AllPairs) Pairs(c []Candidate) []Pair {
	var out []Pair
	for i := 0; i < len(c); i++ {
		ri := c[i].Shape.Radius()
		for j := i + 1; j < len(c); j++ {
			r := ri + c[j].Shape.Radius() + p.Margin
			if c[i].Pose.Position.Sub(c[j].Pose.Position).LenSqr() <= r*r {
				out = append(out, Pair{A: i, B: j})
			}
		}
	}
	return out
}
