package collide

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type face struct {
	i, j, k int
	n       mgl64.Vec3
	d       float64
}

type edge struct{ a, b int }

type polytope struct {
	verts    []vertex
	faces    []face
	interior mgl64.Vec3
}

func (p *polytope) addFace(i, j, k int) bool {
	a, b, c := p.verts[i].p, p.verts[j].p, p.verts[k].p
	n := b.Sub(a).Cross(c.Sub(a))
	l := n.Len()
	if l < 1e-12 {
		return false
	}
	n = n.Mul(1 / l)
	if n.Dot(a.Sub(p.interior)) < 0 {
		n = n.Mul(-1)
		j, k = k, j
	}
	p.faces = append(p.faces, face{i: i, j: j, k: k, n: n, d: n.Dot(a)})
	return true
}

func (p *polytope) closest() int {
	best := -1
	for i, f := range p.faces {
		if best < 0 || f.d < p.faces[best].d {
			best = i
		}
	}
	return best
}

// expand adds v, replacing every face that can see it with faces fanned out
// from the horizon.
func (p *polytope) expand(v vertex) {
	idx := len(p.verts)
	p.verts = append(p.verts, v)

	count := map[edge]int{}
	var order []edge
	kept := p.faces[:0]
	for _, f := range p.faces {
		if f.n.Dot(v.p.Sub(p.verts[f.i].p)) > 1e-10 {
			for _, e := range [][2]int{{f.i, f.j}, {f.j, f.k}, {f.k, f.i}} {
				key := edge{min(e[0], e[1]), max(e[0], e[1])}
				if count[key] == 0 {
					order = append(order, key)
				}
				count[key]++
			}
			continue
		}
		kept = append(kept, f)
	}
	p.faces = kept
	for _, e := range order {
		if count[e] == 1 {
			p.addFace(e.a, e.b, idx)
		}
	}
}

// penetration runs EPA from a GJK tetrahedron. It returns the normal from A
// to B, the depth, and the witness midpoint.
func (m *minkowski) penetration(simplex []vertex) (mgl64.Vec3, float64, mgl64.Vec3, bool) {
	if len(simplex) != 4 {
		return mgl64.Vec3{}, 0, mgl64.Vec3{}, false
	}
	p := &polytope{verts: append([]vertex(nil), simplex...)}
	for _, v := range simplex {
		p.interior = p.interior.Add(v.p.Mul(0.25))
	}
	p.addFace(0, 1, 2)
	p.addFace(0, 1, 3)
	p.addFace(0, 2, 3)
	p.addFace(1, 2, 3)
	if len(p.faces) != 4 {
		return mgl64.Vec3{}, 0, mgl64.Vec3{}, false
	}

	for i := 0; i < epaMaxIterations; i++ {
		c := p.closest()
		if c < 0 {
			return mgl64.Vec3{}, 0, mgl64.Vec3{}, false
		}
		f := p.faces[c]
		v := m.support(f.n)
		if v.p.Dot(f.n)-f.d < epaTolerance {
			return f.n, f.d, p.witness(f), true
		}
		p.expand(v)
	}
	c := p.closest()
	if c < 0 {
		return mgl64.Vec3{}, 0, mgl64.Vec3{}, false
	}
	f := p.faces[c]
	return f.n, f.d, p.witness(f), true
}

func (p *polytope) witness(f face) mgl64.Vec3 {
	a, b, c := p.verts[f.i], p.verts[f.j], p.verts[f.k]
	u, v, w := barycentric(f.n.Mul(f.d), a.p, b.p, c.p)
	wa := a.a.Mul(u).Add(b.a.Mul(v)).Add(c.a.Mul(w))
	wb := a.b.Mul(u).Add(b.b.Mul(v)).Add(c.b.Mul(w))
	return wa.Add(wb).Mul(0.5)
}

func barycentric(p, a, b, c mgl64.Vec3) (float64, float64, float64) {
	v0 := b.Sub(a)
	v1 := c.Sub(a)
	v2 := p.Sub(a)
	d00 := v0.Dot(v0)
	d01 := v0.Dot(v1)
	d11 := v1.Dot(v1)
	d20 := v2.Dot(v0)
	d21 := v2.Dot(v1)
	den := d00*d11 - d01*d01
	if math.Abs(den) < 1e-18 {
		return 1, 0, 0
	}
	v := (d11*d20 - d01*d21) / den
	w := (d00*d21 - d01*d20) / den
	return 1 - v - w, v, w
}
