package collide

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/motion/internal/geom"
	"github.com/san-kum/motion/internal/shape"
)

// DefaultMargin is the speculative distance within which separated
// spheres and boxes still report a contact.
const DefaultMargin = 0.02

// Detector is the default narrow phase. Sphere and box pairs are handled
// analytically; every other convex pair goes through GJK and EPA. Groups are
// split into their children.
type Detector struct {
	Margin float64
}

func NewDetector() *Detector {
	return &Detector{Margin: DefaultMargin}
}

func (d *Detector) Collide(a shape.Shape, ta geom.Transform, b shape.Shape, tb geom.Transform) []Point {
	if g, ok := a.(*shape.Group); ok {
		var out []Point
		for i, c := range g.Children() {
			for _, p := range d.Collide(c.Shape, ta.Mul(c.Local), b, tb) {
				p.Feature = childFeature(i, p.Feature, 20)
				out = append(out, p)
			}
		}
		return out
	}
	if g, ok := b.(*shape.Group); ok {
		var out []Point
		for i, c := range g.Children() {
			for _, p := range d.Collide(a, ta, c.Shape, tb.Mul(c.Local)) {
				p.Feature = childFeature(i, p.Feature, 26)
				out = append(out, p)
			}
		}
		return out
	}

	switch sa := a.(type) {
	case *shape.Sphere:
		switch sb := b.(type) {
		case *shape.Sphere:
			return d.sphereSphere(sa, ta, sb, tb)
		case *shape.Box:
			return flip(d.boxSphere(sb, tb, sa, ta))
		}
	case *shape.Box:
		switch sb := b.(type) {
		case *shape.Sphere:
			return d.boxSphere(sa, ta, sb, tb)
		case *shape.Box:
			return d.boxBox(sa, ta, sb, tb)
		}
	}
	return convex(a, ta, b, tb)
}

func childFeature(child int, f uint32, shift uint) uint32 {
	return f ^ uint32(child+1)<<shift
}

func flip(pts []Point) []Point {
	for i := range pts {
		pts[i].Normal = pts[i].Normal.Mul(-1)
	}
	return pts
}

func (d *Detector) sphereSphere(a *shape.Sphere, ta geom.Transform, b *shape.Sphere, tb geom.Transform) []Point {
	delta := tb.Position.Sub(ta.Position)
	dist := delta.Len()
	depth := a.R + b.R - dist
	if depth < -d.Margin {
		return nil
	}
	n := mgl64.Vec3{0, 1, 0}
	if dist > 1e-12 {
		n = delta.Mul(1 / dist)
	}
	sa := ta.Position.Add(n.Mul(a.R))
	sb := tb.Position.Sub(n.Mul(b.R))
	return []Point{{Position: sa.Add(sb).Mul(0.5), Normal: n, Depth: depth}}
}

// boxSphere reports the contact with the normal pointing from the box to the sphere.
func (d *Detector) boxSphere(box *shape.Box, tb geom.Transform, s *shape.Sphere, ts geom.Transform) []Point {
	h := box.HalfExtents
	c := tb.Inverse(ts.Position)

	var q mgl64.Vec3
	inside := true
	for i := 0; i < 3; i++ {
		q[i] = math.Max(-h[i], math.Min(h[i], c[i]))
		if q[i] != c[i] {
			inside = false
		}
	}

	var n mgl64.Vec3
	var depth float64
	if !inside {
		delta := c.Sub(q)
		dist := delta.Len()
		depth = s.R - dist
		if depth < -d.Margin {
			return nil
		}
		n = delta.Mul(1 / dist)
	} else {
		// centre inside: push out through the nearest face
		axis, gap := 0, math.Inf(1)
		for i := 0; i < 3; i++ {
			if g := h[i] - math.Abs(c[i]); g < gap {
				axis, gap = i, g
			}
		}
		n[axis] = geom.Sign(c[axis])
		q = c
		q[axis] = n[axis] * h[axis]
		depth = s.R + gap
	}

	nw := tb.ApplyVector(n)
	surfBox := tb.Apply(q)
	surfSphere := ts.Position.Sub(nw.Mul(s.R))
	return []Point{{Position: surfBox.Add(surfSphere).Mul(0.5), Normal: nw, Depth: depth}}
}

// boxBox runs a separating axis test. A face axis clips the incident face
// against the side planes of the reference face; an edge axis falls back to
// EPA.
func (d *Detector) boxBox(a *shape.Box, ta geom.Transform, b *shape.Box, tb geom.Transform) []Point {
	ra := ta.Basis()
	rb := tb.Basis()
	axesA := [3]mgl64.Vec3{ra.Col(0), ra.Col(1), ra.Col(2)}
	axesB := [3]mgl64.Vec3{rb.Col(0), rb.Col(1), rb.Col(2)}
	delta := tb.Position.Sub(ta.Position)

	project := func(axes [3]mgl64.Vec3, h mgl64.Vec3, l mgl64.Vec3) float64 {
		return h[0]*math.Abs(axes[0].Dot(l)) + h[1]*math.Abs(axes[1].Dot(l)) + h[2]*math.Abs(axes[2].Dot(l))
	}

	bestOverlap := math.Inf(1)
	bestAxis := -1
	var bestNormal mgl64.Vec3
	test := func(id int, l mgl64.Vec3) bool {
		ll := l.Len()
		if ll < 1e-9 {
			return true
		}
		l = l.Mul(1 / ll)
		overlap := project(axesA, a.HalfExtents, l) + project(axesB, b.HalfExtents, l) - math.Abs(delta.Dot(l))
		if overlap < -d.Margin {
			return false
		}
		// prefer face axes to keep stacks stable
		if id >= 6 {
			overlap = overlap*1.05 + 1e-4
		}
		if overlap < bestOverlap {
			bestOverlap, bestAxis = overlap, id
			if delta.Dot(l) < 0 {
				l = l.Mul(-1)
			}
			bestNormal = l
		}
		return true
	}

	for i := 0; i < 3; i++ {
		if !test(i, axesA[i]) || !test(3+i, axesB[i]) {
			return nil
		}
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if !test(6+3*i+j, axesA[i].Cross(axesB[j])) {
				return nil
			}
		}
	}

	var pts []Point
	switch {
	case bestAxis < 3:
		pts = d.keep(incident(a, ta, b, tb, bestNormal, 0))
		if len(pts) == 0 {
			pts = d.keep(flip(incident(b, tb, a, ta, bestNormal.Mul(-1), flipSide)))
		}
	case bestAxis < 6:
		pts = d.keep(flip(incident(b, tb, a, ta, bestNormal.Mul(-1), flipSide)))
		if len(pts) == 0 {
			pts = d.keep(incident(a, ta, b, tb, bestNormal, 0))
		}
	}
	if len(pts) == 0 {
		return convex(a, ta, b, tb)
	}
	return pts
}

func (d *Detector) keep(pts []Point) []Point {
	out := pts[:0]
	for _, p := range pts {
		if p.Depth >= -d.Margin {
			out = append(out, p)
		}
	}
	return out
}

// Feature ids of box pairs: incident corners keep their corner index,
// clipped points are clipFeature + 4*carrier + plane, and flipSide marks the
// pair solved with B as the reference box.
const (
	clipFeature = 16
	clipCarrier = 4
	flipSide    = 64
)

// clipVertex is a point of the incident polygon in the reference box frame.
// carrier names the line the outgoing polygon edge lies on: an incident face
// edge (0-3) or a reference side plane (clipCarrier + plane).
type clipVertex struct {
	p       mgl64.Vec3
	feature uint32
	carrier uint32
}

func dominant(v mgl64.Vec3) int {
	axis := 0
	for i := 1; i < 3; i++ {
		if math.Abs(v[i]) > math.Abs(v[axis]) {
			axis = i
		}
	}
	return axis
}

// incidentFace returns the face of inc most opposed to n (inc local frame),
// wound around its face axis.
func incidentFace(inc *shape.Box, n mgl64.Vec3) []clipVertex {
	j := dominant(n)
	bit := 0
	if n[j] > 0 {
		bit = 1
	}
	k1, k2 := (j+1)%3, (j+2)%3
	corners := inc.Corners()
	order := [4][2]int{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	poly := make([]clipVertex, 4)
	for i, o := range order {
		idx := bit<<j | o[0]<<k1 | o[1]<<k2
		poly[i] = clipVertex{p: corners[idx], feature: uint32(idx), carrier: uint32(i)}
	}
	return poly
}

// clip keeps the part of poly with sign*p[k] <= limit.
func clip(poly []clipVertex, k int, sign, limit float64, plane uint32) []clipVertex {
	if len(poly) == 0 {
		return nil
	}
	out := make([]clipVertex, 0, len(poly)+1)
	cross := func(u, v clipVertex, du, dv float64, carrier uint32) clipVertex {
		t := du / (du - dv)
		return clipVertex{
			p:       u.p.Add(v.p.Sub(u.p).Mul(t)),
			feature: clipFeature + u.carrier*4 + plane,
			carrier: carrier,
		}
	}
	prev := poly[len(poly)-1]
	dPrev := sign*prev.p[k] - limit
	for _, cur := range poly {
		dCur := sign*cur.p[k] - limit
		if dCur <= 0 {
			if dPrev > 0 {
				out = append(out, cross(prev, cur, dPrev, dCur, prev.carrier))
			}
			out = append(out, cur)
		} else if dPrev <= 0 {
			out = append(out, cross(prev, cur, dPrev, dCur, clipCarrier+plane))
		}
		prev, dPrev = cur, dCur
	}
	return out
}

// incident clips the face of inc facing ref against the side planes of the
// reference face with outward normal n. Normals point from ref to inc.
func incident(ref *shape.Box, tr geom.Transform, inc *shape.Box, ti geom.Transform, n mgl64.Vec3, side uint32) []Point {
	local := tr.InverseVector(n)
	axis := dominant(local)
	sgn := geom.Sign(local[axis])
	h := ref.HalfExtents

	poly := incidentFace(inc, ti.InverseVector(n))
	for i := range poly {
		poly[i].p = tr.Inverse(ti.Apply(poly[i].p))
	}
	plane := uint32(0)
	for k := 0; k < 3; k++ {
		if k == axis {
			continue
		}
		poly = clip(poly, k, 1, h[k], plane)
		poly = clip(poly, k, -1, h[k], plane+1)
		plane += 2
	}

	out := make([]Point, 0, len(poly))
	for _, v := range poly {
		depth := h[axis] - sgn*v.p[axis]
		p := tr.Apply(v.p)
		out = append(out, Point{
			Position: p.Add(n.Mul(depth / 2)),
			Normal:   n,
			Depth:    depth,
			Feature:  side + v.feature,
		})
	}
	return out
}

// convex handles an arbitrary convex pair with GJK and EPA. It reports only
// penetrating contacts.
func convex(a shape.Shape, ta geom.Transform, b shape.Shape, tb geom.Transform) []Point {
	m := &minkowski{a: a, b: b, ta: ta, tb: tb}
	simplex, hit := m.intersect()
	if !hit {
		return nil
	}
	n, depth, at, ok := m.penetration(simplex)
	if !ok || !geom.IsFinite(n) || depth <= 0 {
		return nil
	}
	return []Point{{Position: at, Normal: n, Depth: depth}}
}
