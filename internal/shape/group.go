package shape

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/motion/internal/geom"
)

// Scoring selects how a Group ranks its children's support candidates.
type Scoring int

const (
	// ScoreProjection ranks candidates by their extent along the query direction.
	ScoreProjection Scoring = iota
	// ScoreDistance ranks candidates by squared distance from the group's origin.
	ScoreDistance
)

// Child is one member of a Group, placed in the group's frame.
type Child struct {
	Shape Shape
	Local geom.Transform
}

// Group is a compound shape. Children keep their insertion order, which is
// also the tie-break order for support queries.
type Group struct {
	Scoring  Scoring
	children []Child
}

func NewGroup(children ...Child) *Group {
	g := &Group{}
	for _, c := range children {
		g.Add(c.Shape, c.Local)
	}
	return g
}

// Add appends a child. Groups are meant to be filled before they are shared.
func (g *Group) Add(s Shape, local geom.Transform) {
	g.children = append(g.children, Child{Shape: s, Local: local.Normalized()})
}

func (g *Group) Len() int { return len(g.children) }

// Children returns a copy of the child list.
func (g *Group) Children() []Child {
	out := make([]Child, len(g.children))
	copy(out, g.children)
	return out
}

// Validate reports ErrEmptyGroup for groups with no children, recursively.
func (g *Group) Validate() error {
	if len(g.children) == 0 {
		return ErrEmptyGroup
	}
	for _, c := range g.children {
		if sub, ok := c.Shape.(*Group); ok {
			if err := sub.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *Group) Type() Type { return TypeGroup }

// FarthestPointAlong returns the best child support point. An empty group
// yields a NaN point; callers should Validate first.
func (g *Group) FarthestPointAlong(ref geom.Transform, dir mgl64.Vec3) mgl64.Vec3 {
	best := geom.NaNVec()
	// sentinel below any reachable score so the first child always wins
	bestScore := math.Inf(-1)
	if g.Scoring == ScoreDistance {
		bestScore = -1
	}
	for _, c := range g.children {
		p := c.Shape.FarthestPointAlong(ref.Mul(c.Local), dir)
		var score float64
		switch g.Scoring {
		case ScoreDistance:
			score = p.Sub(ref.Position).LenSqr()
		default:
			score = p.Dot(dir)
		}
		if score > bestScore {
			best, bestScore = p, score
		}
	}
	return best
}

// Volume sums child volumes; overlaps are counted twice.
func (g *Group) Volume() float64 {
	v := 0.0
	for _, c := range g.children {
		v += c.Shape.Volume()
	}
	return v
}

// Inertia splits mass by child volume and combines child tensors about the
// group origin with the parallel-axis theorem.
func (g *Group) Inertia(mass float64) mgl64.Mat3 {
	total := g.Volume()
	var sum mgl64.Mat3
	for _, c := range g.children {
		m := mass / float64(len(g.children))
		if total > 0 {
			m = mass * c.Shape.Volume() / total
		}
		r := c.Local.Basis()
		local := r.Mul3(c.Shape.Inertia(m)).Mul3(r.Transpose())
		d := c.Local.Position
		shift := mgl64.Ident3().Mul(d.Dot(d)).Sub(d.OuterProd3(d)).Mul(m)
		sum = sum.Add(local).Add(shift)
	}
	return sum
}

func (g *Group) Radius() float64 {
	r := 0.0
	for _, c := range g.children {
		r = math.Max(r, c.Local.Position.Len()+c.Shape.Radius())
	}
	return r
}
