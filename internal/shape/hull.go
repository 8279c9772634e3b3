package shape

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/motion/internal/geom"
)

// ConvexHull is the convex hull of a point cloud given in local space.
// Volume and inertia use the points' bounding box.
type ConvexHull struct {
	Points []mgl64.Vec3
	bounds [2]mgl64.Vec3
	radius float64
}

func NewConvexHull(points []mgl64.Vec3) (*ConvexHull, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("convex hull: no points: %w", ErrInvalidDimensions)
	}
	pts := make([]mgl64.Vec3, len(points))
	copy(pts, points)
	lo, hi := bounds(pts)
	return &ConvexHull{Points: pts, bounds: [2]mgl64.Vec3{lo, hi}, radius: maxLen(pts)}, nil
}

func (h *ConvexHull) Type() Type { return TypeConvexHull }

func (h *ConvexHull) FarthestPointAlong(ref geom.Transform, dir mgl64.Vec3) mgl64.Vec3 {
	return localSupport(ref, dir, func(d mgl64.Vec3) mgl64.Vec3 {
		return h.Points[farthest(h.Points, d)]
	})
}

func (h *ConvexHull) Volume() float64 { return boxVolume(h.bounds) }

func (h *ConvexHull) Inertia(mass float64) mgl64.Mat3 { return boxInertia(h.bounds, mass) }

func (h *ConvexHull) Radius() float64 { return h.radius }

// Ball is one member of a SphereHull.
type Ball struct {
	Center mgl64.Vec3
	Radius float64
}

// SphereHull is the convex hull of a set of spheres. Two balls make a capsule.
type SphereHull struct {
	Balls  []Ball
	radius float64
}

func NewSphereHull(balls []Ball) (*SphereHull, error) {
	if len(balls) == 0 {
		return nil, fmt.Errorf("sphere hull: no spheres: %w", ErrInvalidDimensions)
	}
	bs := make([]Ball, len(balls))
	copy(bs, balls)
	r := 0.0
	for _, b := range bs {
		if !(b.Radius > 0) {
			return nil, fmt.Errorf("sphere hull radius %f: %w", b.Radius, ErrInvalidDimensions)
		}
		r = math.Max(r, b.Center.Len()+b.Radius)
	}
	return &SphereHull{Balls: bs, radius: r}, nil
}

// NewCapsule builds a Y-aligned capsule as a two-ball hull.
func NewCapsule(radius, halfHeight float64) (*SphereHull, error) {
	return NewSphereHull([]Ball{
		{Center: mgl64.Vec3{0, halfHeight, 0}, Radius: radius},
		{Center: mgl64.Vec3{0, -halfHeight, 0}, Radius: radius},
	})
}

func (s *SphereHull) Type() Type { return TypeSphereHull }

func (s *SphereHull) FarthestPointAlong(ref geom.Transform, dir mgl64.Vec3) mgl64.Vec3 {
	return localSupport(ref, dir, func(d mgl64.Vec3) mgl64.Vec3 {
		l := d.Len()
		if l < 1e-12 {
			b := s.Balls[0]
			return b.Center.Add(mgl64.Vec3{b.Radius, 0, 0})
		}
		u := d.Mul(1 / l)
		best, bestScore := 0, math.Inf(-1)
		for i, b := range s.Balls {
			score := b.Center.Dot(u) + b.Radius
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		b := s.Balls[best]
		return b.Center.Add(u.Mul(b.Radius))
	})
}

// Volume sums the member spheres; overlap is not subtracted.
func (s *SphereHull) Volume() float64 {
	v := 0.0
	for _, b := range s.Balls {
		v += 4.0 / 3.0 * math.Pi * b.Radius * b.Radius * b.Radius
	}
	return v
}

func (s *SphereHull) Inertia(mass float64) mgl64.Mat3 {
	lo, hi := mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}, mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, b := range s.Balls {
		r := mgl64.Vec3{b.Radius, b.Radius, b.Radius}
		lo = minVec(lo, b.Center.Sub(r))
		hi = maxVec(hi, b.Center.Add(r))
	}
	return boxInertia([2]mgl64.Vec3{lo, hi}, mass)
}

func (s *SphereHull) Radius() float64 { return s.radius }

// Trimesh is an indexed triangle mesh. Support queries see its convex
// envelope, which is exact for convex meshes and conservative otherwise.
type Trimesh struct {
	Vertices []mgl64.Vec3
	Indices  []int
	bounds   [2]mgl64.Vec3
	radius   float64
}

func NewTrimesh(vertices []mgl64.Vec3, indices []int) (*Trimesh, error) {
	if len(vertices) < 3 || len(indices)%3 != 0 {
		return nil, fmt.Errorf("trimesh %d vertices %d indices: %w", len(vertices), len(indices), ErrInvalidDimensions)
	}
	for _, i := range indices {
		if i < 0 || i >= len(vertices) {
			return nil, fmt.Errorf("trimesh index %d out of range: %w", i, ErrInvalidDimensions)
		}
	}
	vs := make([]mgl64.Vec3, len(vertices))
	copy(vs, vertices)
	is := make([]int, len(indices))
	copy(is, indices)
	lo, hi := bounds(vs)
	return &Trimesh{Vertices: vs, Indices: is, bounds: [2]mgl64.Vec3{lo, hi}, radius: maxLen(vs)}, nil
}

func (m *Trimesh) Type() Type { return TypeTrimesh }

func (m *Trimesh) FarthestPointAlong(ref geom.Transform, dir mgl64.Vec3) mgl64.Vec3 {
	return localSupport(ref, dir, func(d mgl64.Vec3) mgl64.Vec3 {
		return m.Vertices[farthest(m.Vertices, d)]
	})
}

func (m *Trimesh) Volume() float64 { return boxVolume(m.bounds) }

func (m *Trimesh) Inertia(mass float64) mgl64.Mat3 { return boxInertia(m.bounds, mass) }

func (m *Trimesh) Radius() float64 { return m.radius }

// Triangles returns the number of triangles.
func (m *Trimesh) Triangles() int { return len(m.Indices) / 3 }

func farthest(pts []mgl64.Vec3, d mgl64.Vec3) int {
	best, bestDot := 0, math.Inf(-1)
	for i, p := range pts {
		if dot := p.Dot(d); dot > bestDot {
			best, bestDot = i, dot
		}
	}
	return best
}

func bounds(pts []mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	lo, hi := pts[0], pts[0]
	for _, p := range pts[1:] {
		lo = minVec(lo, p)
		hi = maxVec(hi, p)
	}
	return lo, hi
}

func minVec(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{math.Min(a[0], b[0]), math.Min(a[1], b[1]), math.Min(a[2], b[2])}
}

func maxVec(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{math.Max(a[0], b[0]), math.Max(a[1], b[1]), math.Max(a[2], b[2])}
}

func maxLen(pts []mgl64.Vec3) float64 {
	r := 0.0
	for _, p := range pts {
		r = math.Max(r, p.Len())
	}
	return r
}

func boxVolume(b [2]mgl64.Vec3) float64 {
	d := b[1].Sub(b[0])
	return d[0] * d[1] * d[2]
}

// boxInertia treats the bounds as a solid box about the local origin.
func boxInertia(b [2]mgl64.Vec3, mass float64) mgl64.Mat3 {
	d := b[1].Sub(b[0])
	x, y, z := d[0], d[1], d[2]
	k := mass / 12
	return diagonal(k*(y*y+z*z), k*(x*x+z*z), k*(x*x+y*y))
}
