package shape

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/motion/internal/geom"
)

type Sphere struct {
	R float64
}

func NewSphere(radius float64) (*Sphere, error) {
	if !(radius > 0) {
		return nil, fmt.Errorf("sphere radius %f: %w", radius, ErrInvalidDimensions)
	}
	return &Sphere{R: radius}, nil
}

func (s *Sphere) Type() Type { return TypeSphere }

func (s *Sphere) FarthestPointAlong(ref geom.Transform, dir mgl64.Vec3) mgl64.Vec3 {
	l := dir.Len()
	if l < 1e-12 {
		return ref.Apply(mgl64.Vec3{s.R, 0, 0})
	}
	return ref.Position.Add(dir.Mul(s.R / l))
}

func (s *Sphere) Volume() float64 { return 4.0 / 3.0 * math.Pi * s.R * s.R * s.R }

func (s *Sphere) Inertia(mass float64) mgl64.Mat3 {
	i := 0.4 * mass * s.R * s.R
	return diagonal(i, i, i)
}

func (s *Sphere) Radius() float64 { return s.R }

// Box is centered on its local origin.
type Box struct {
	HalfExtents mgl64.Vec3
}

func NewBox(halfExtents mgl64.Vec3) (*Box, error) {
	for _, h := range halfExtents {
		if !(h > 0) {
			return nil, fmt.Errorf("box half extents %v: %w", halfExtents, ErrInvalidDimensions)
		}
	}
	return &Box{HalfExtents: halfExtents}, nil
}

func (b *Box) Type() Type { return TypeBox }

func (b *Box) FarthestPointAlong(ref geom.Transform, dir mgl64.Vec3) mgl64.Vec3 {
	return localSupport(ref, dir, func(d mgl64.Vec3) mgl64.Vec3 {
		h := b.HalfExtents
		return mgl64.Vec3{geom.Sign(d[0]) * h[0], geom.Sign(d[1]) * h[1], geom.Sign(d[2]) * h[2]}
	})
}

func (b *Box) Volume() float64 {
	h := b.HalfExtents
	return 8 * h[0] * h[1] * h[2]
}

func (b *Box) Inertia(mass float64) mgl64.Mat3 {
	x, y, z := b.HalfExtents[0], b.HalfExtents[1], b.HalfExtents[2]
	k := mass / 3
	return diagonal(k*(y*y+z*z), k*(x*x+z*z), k*(x*x+y*y))
}

func (b *Box) Radius() float64 { return b.HalfExtents.Len() }

// Corners returns the eight local-space corners.
func (b *Box) Corners() [8]mgl64.Vec3 {
	var c [8]mgl64.Vec3
	h := b.HalfExtents
	for i := 0; i < 8; i++ {
		c[i] = mgl64.Vec3{h[0], h[1], h[2]}
		if i&1 != 0 {
			c[i][0] = -h[0]
		}
		if i&2 != 0 {
			c[i][1] = -h[1]
		}
		if i&4 != 0 {
			c[i][2] = -h[2]
		}
	}
	return c
}

// Cylinder is aligned with the local Y axis.
type Cylinder struct {
	R          float64
	HalfHeight float64
}

func NewCylinder(radius, halfHeight float64) (*Cylinder, error) {
	if !(radius > 0) || !(halfHeight > 0) {
		return nil, fmt.Errorf("cylinder r=%f h=%f: %w", radius, halfHeight, ErrInvalidDimensions)
	}
	return &Cylinder{R: radius, HalfHeight: halfHeight}, nil
}

func (c *Cylinder) Type() Type { return TypeCylinder }

func (c *Cylinder) FarthestPointAlong(ref geom.Transform, dir mgl64.Vec3) mgl64.Vec3 {
	return localSupport(ref, dir, func(d mgl64.Vec3) mgl64.Vec3 {
		y := geom.Sign(d[1]) * c.HalfHeight
		sigma := math.Hypot(d[0], d[2])
		if sigma < 1e-12 {
			return mgl64.Vec3{0, y, 0}
		}
		k := c.R / sigma
		return mgl64.Vec3{d[0] * k, y, d[2] * k}
	})
}

func (c *Cylinder) Volume() float64 { return math.Pi * c.R * c.R * 2 * c.HalfHeight }

func (c *Cylinder) Inertia(mass float64) mgl64.Mat3 {
	h := 2 * c.HalfHeight
	side := mass * (3*c.R*c.R + h*h) / 12
	return diagonal(side, 0.5*mass*c.R*c.R, side)
}

func (c *Cylinder) Radius() float64 { return math.Hypot(c.R, c.HalfHeight) }

// Cone has its apex at +HalfHeight on the local Y axis and its base disc at -HalfHeight.
type Cone struct {
	R          float64
	HalfHeight float64
}

func NewCone(radius, halfHeight float64) (*Cone, error) {
	if !(radius > 0) || !(halfHeight > 0) {
		return nil, fmt.Errorf("cone r=%f h=%f: %w", radius, halfHeight, ErrInvalidDimensions)
	}
	return &Cone{R: radius, HalfHeight: halfHeight}, nil
}

func (c *Cone) Type() Type { return TypeCone }

func (c *Cone) FarthestPointAlong(ref geom.Transform, dir mgl64.Vec3) mgl64.Vec3 {
	sinAngle := c.R / math.Hypot(c.R, 2*c.HalfHeight)
	return localSupport(ref, dir, func(d mgl64.Vec3) mgl64.Vec3 {
		if d[1] > d.Len()*sinAngle {
			return mgl64.Vec3{0, c.HalfHeight, 0}
		}
		sigma := math.Hypot(d[0], d[2])
		if sigma < 1e-12 {
			return mgl64.Vec3{0, -c.HalfHeight, 0}
		}
		k := c.R / sigma
		return mgl64.Vec3{d[0] * k, -c.HalfHeight, d[2] * k}
	})
}

func (c *Cone) Volume() float64 { return math.Pi * c.R * c.R * 2 * c.HalfHeight / 3 }

// Inertia is taken about the local origin, like every other shape. The centre
// of mass sits a quarter of the height above the base, HalfHeight/2 below the
// origin, so the side axes carry a parallel-axis term.
func (c *Cone) Inertia(mass float64) mgl64.Mat3 {
	h := 2 * c.HalfHeight
	offset := c.HalfHeight / 2
	side := 3.0/20.0*mass*c.R*c.R + 3.0/80.0*mass*h*h + mass*offset*offset
	return diagonal(side, 0.3*mass*c.R*c.R, side)
}

func (c *Cone) Radius() float64 { return math.Max(c.HalfHeight, math.Hypot(c.R, c.HalfHeight)) }
