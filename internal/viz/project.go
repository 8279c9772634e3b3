package viz

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/motion/internal/dynamics"
	"github.com/san-kum/motion/internal/geom"
	"github.com/san-kum/motion/internal/shape"
)

// View picks which world axes map to the screen.
type View int

const (
	// ViewSide looks along -z: x right, y up.
	ViewSide View = iota
	// ViewFront looks along +x: z right, y up.
	ViewFront
	// ViewTop looks down -y: x right, z down.
	ViewTop
)

func (v View) String() string {
	switch v {
	case ViewSide:
		return "side"
	case ViewFront:
		return "front"
	case ViewTop:
		return "top"
	}
	return "unknown"
}

func (v View) Next() View { return (v + 1) % 3 }

// Projection maps world points to canvas dots.
type Projection struct {
	View   View
	Center mgl64.Vec3
	// Scale is dots per metre.
	Scale float64
	w, h  int
}

func NewProjection(c *Canvas, v View) *Projection {
	w, h := c.Dots()
	return &Projection{View: v, Scale: 8, w: w, h: h}
}

// axes splits a world displacement into screen right and up components.
func (p *Projection) axes(d mgl64.Vec3) (float64, float64) {
	switch p.View {
	case ViewFront:
		return d.Z(), d.Y()
	case ViewTop:
		return d.X(), -d.Z()
	}
	return d.X(), d.Y()
}

func (p *Projection) Point(q mgl64.Vec3) (int, int) {
	u, v := p.axes(q.Sub(p.Center))
	x := p.w/2 + int(math.Round(u*p.Scale))
	y := p.h/2 - int(math.Round(v*p.Scale))
	return x, y
}

// Fit centres the projection on the points and scales them, padded by
// radius, to fill most of the canvas.
func (p *Projection) Fit(points []mgl64.Vec3, radius float64) {
	if len(points) == 0 {
		return
	}
	u0, v0 := math.Inf(1), math.Inf(1)
	u1, v1 := math.Inf(-1), math.Inf(-1)
	lo, hi := points[0], points[0]
	for _, q := range points {
		u, v := p.axes(q)
		u0, u1 = math.Min(u0, u), math.Max(u1, u)
		v0, v1 = math.Min(v0, v), math.Max(v1, v)
		for i := 0; i < 3; i++ {
			lo[i] = math.Min(lo[i], q[i])
			hi[i] = math.Max(hi[i], q[i])
		}
	}
	p.Center = lo.Add(hi).Mul(0.5)
	sx := 0.9 * float64(p.w) / math.Max(u1-u0+2*radius, 1e-3)
	sy := 0.9 * float64(p.h) / math.Max(v1-v0+2*radius, 1e-3)
	p.Scale = math.Min(sx, sy)
}

// DrawBody outlines b's shape. Bodies whose shape is not ready yet are drawn
// as a dot.
func DrawBody(c *Canvas, p *Projection, b *dynamics.Body) {
	s, ok := b.Shape()
	if !ok {
		x, y := p.Point(b.Pose.Position)
		c.Set(x, y)
		return
	}
	drawShape(c, p, b.Pose, s)
}

var boxEdges = [12][2]int{
	{0, 1}, {2, 3}, {4, 5}, {6, 7},
	{0, 2}, {1, 3}, {4, 6}, {5, 7},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

func drawShape(c *Canvas, p *Projection, pose geom.Transform, s shape.Shape) {
	switch s := s.(type) {
	case *shape.Group:
		for _, child := range s.Children() {
			drawShape(c, p, pose.Mul(child.Local), child.Shape)
		}
	case *shape.Box:
		corners := s.Corners()
		var xs, ys [8]int
		for i, k := range corners {
			xs[i], ys[i] = p.Point(pose.Apply(k))
		}
		for _, e := range boxEdges {
			c.DrawLine(xs[e[0]], ys[e[0]], xs[e[1]], ys[e[1]])
		}
	default:
		x, y := p.Point(pose.Position)
		c.DrawCircle(x, y, int(math.Round(s.Radius()*p.Scale)))
		// orientation tick
		tx, ty := p.Point(pose.Apply(mgl64.Vec3{s.Radius(), 0, 0}))
		c.DrawLine(x, y, tx, ty)
	}
}
