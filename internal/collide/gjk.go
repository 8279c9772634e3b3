package collide

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/motion/internal/geom"
	"github.com/san-kum/motion/internal/shape"
)

const (
	gjkMaxIterations = 32
	epaMaxIterations = 48
	epaTolerance     = 1e-6
)

// vertex is a point of the Minkowski difference A - B with its witnesses.
type vertex struct {
	p, a, b mgl64.Vec3
}

type minkowski struct {
	a, b   shape.Shape
	ta, tb geom.Transform
}

func (m *minkowski) support(d mgl64.Vec3) vertex {
	pa := m.a.FarthestPointAlong(m.ta, d)
	pb := m.b.FarthestPointAlong(m.tb, d.Mul(-1))
	return vertex{p: pa.Sub(pb), a: pa, b: pb}
}

// intersect runs GJK and returns the enclosing tetrahedron when the shapes overlap.
func (m *minkowski) intersect() ([]vertex, bool) {
	d := m.tb.Position.Sub(m.ta.Position)
	if d.LenSqr() < 1e-12 {
		d = mgl64.Vec3{1, 0, 0}
	}
	s := []vertex{m.support(d)}
	d = s[0].p.Mul(-1)

	for i := 0; i < gjkMaxIterations; i++ {
		if d.LenSqr() < 1e-20 {
			return s, false
		}
		v := m.support(d)
		if v.p.Dot(d) <= 0 {
			return nil, false
		}
		s = append(s, v)
		var inside bool
		s, d, inside = nearest(s)
		if inside {
			return s, true
		}
	}
	return nil, false
}

// nearest reduces the simplex to the feature closest to the origin and
// returns the next search direction. The newest vertex is last.
func nearest(s []vertex) ([]vertex, mgl64.Vec3, bool) {
	switch len(s) {
	case 2:
		return nearestLine(s)
	case 3:
		return nearestTriangle(s)
	default:
		return nearestTetrahedron(s)
	}
}

func nearestLine(s []vertex) ([]vertex, mgl64.Vec3, bool) {
	a, b := s[1], s[0]
	ab := b.p.Sub(a.p)
	ao := a.p.Mul(-1)
	if ab.Dot(ao) <= 0 {
		return []vertex{a}, ao, false
	}
	return s, ab.Cross(ao).Cross(ab), false
}

func nearestTriangle(s []vertex) ([]vertex, mgl64.Vec3, bool) {
	a, b, c := s[2], s[1], s[0]
	ab := b.p.Sub(a.p)
	ac := c.p.Sub(a.p)
	ao := a.p.Mul(-1)
	abc := ab.Cross(ac)

	if abc.LenSqr() < 1e-20 {
		return nearestLine([]vertex{b, a})
	}
	if ab.Cross(abc).Dot(ao) > 0 {
		return nearestLine([]vertex{b, a})
	}
	if abc.Cross(ac).Dot(ao) > 0 {
		return nearestLine([]vertex{c, a})
	}
	if abc.Dot(ao) > 0 {
		return s, abc, false
	}
	return []vertex{b, c, a}, abc.Mul(-1), false
}

func nearestTetrahedron(s []vertex) ([]vertex, mgl64.Vec3, bool) {
	a, b, c, d := s[3], s[2], s[1], s[0]
	ao := a.p.Mul(-1)
	ab := b.p.Sub(a.p)
	ac := c.p.Sub(a.p)
	ad := d.p.Sub(a.p)

	faces := []struct {
		n    mgl64.Vec3
		away mgl64.Vec3
		tri  []vertex
	}{
		{ab.Cross(ac), ad, []vertex{c, b, a}},
		{ac.Cross(ad), ab, []vertex{d, c, a}},
		{ad.Cross(ab), ac, []vertex{b, d, a}},
	}
	for _, f := range faces {
		n := f.n
		if n.Dot(f.away) > 0 {
			n = n.Mul(-1)
		}
		if n.LenSqr() < 1e-20 {
			return nearestTriangle([]vertex{c, b, a})
		}
		if n.Dot(ao) > 0 {
			return nearestTriangle(f.tri)
		}
	}
	return s, mgl64.Vec3{}, true
}
