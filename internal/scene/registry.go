package scene

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/motion/internal/config"
	"github.com/san-kum/motion/internal/dynamics"
	"github.com/san-kum/motion/internal/shape"
)

var (
	ErrUnknownShape = errors.New("scene: unknown shape")
	ErrUnknownJoint = errors.New("scene: unknown joint")
	ErrUnknownBody  = errors.New("scene: unknown body")
)

// JointFactory builds a joint between two placed bodies.
type JointFactory func(a, b *dynamics.Body, cfg config.JointConfig) dynamics.Constraint

type Registry struct {
	shapes map[string]func(config.ShapeConfig) (shape.Shape, error)
	joints map[string]JointFactory
}

func NewRegistry() *Registry {
	r := &Registry{
		shapes: make(map[string]func(config.ShapeConfig) (shape.Shape, error)),
		joints: make(map[string]JointFactory),
	}

	r.shapes["sphere"] = func(c config.ShapeConfig) (shape.Shape, error) { return shape.NewSphere(c.Radius) }
	r.shapes["box"] = func(c config.ShapeConfig) (shape.Shape, error) { return shape.NewBox(vec(c.HalfExtents)) }
	r.shapes["cylinder"] = func(c config.ShapeConfig) (shape.Shape, error) {
		return shape.NewCylinder(c.Radius, c.HalfHeight)
	}
	r.shapes["cone"] = func(c config.ShapeConfig) (shape.Shape, error) { return shape.NewCone(c.Radius, c.HalfHeight) }
	r.shapes["capsule"] = func(c config.ShapeConfig) (shape.Shape, error) {
		return shape.NewCapsule(c.Radius, c.HalfHeight)
	}
	r.shapes["hull"] = func(c config.ShapeConfig) (shape.Shape, error) {
		pts := make([]mgl64.Vec3, len(c.Points))
		for i, p := range c.Points {
			pts[i] = vec(p)
		}
		return shape.NewConvexHull(pts)
	}
	r.shapes["spheres"] = func(c config.ShapeConfig) (shape.Shape, error) {
		balls := make([]shape.Ball, len(c.Spheres))
		for i, s := range c.Spheres {
			balls[i] = shape.Ball{Center: vec(s.Center), Radius: s.Radius}
		}
		return shape.NewSphereHull(balls)
	}
	r.shapes["group"] = r.group

	r.joints["ball"] = func(a, b *dynamics.Body, c config.JointConfig) dynamics.Constraint {
		return dynamics.NewBallJoint(a, b, vec(c.Anchor))
	}
	r.joints["distance"] = func(a, b *dynamics.Body, c config.JointConfig) dynamics.Constraint {
		anchorB := c.AnchorB
		if anchorB == nil {
			anchorB = c.Anchor
		}
		return dynamics.NewDistanceJoint(a, b, vec(c.Anchor), vec(anchorB))
	}

	return r
}

// RegisterShape adds or replaces a shape factory.
func (r *Registry) RegisterShape(name string, fn func(config.ShapeConfig) (shape.Shape, error)) {
	r.shapes[name] = fn
}

func (r *Registry) RegisterJoint(name string, fn JointFactory) {
	r.joints[name] = fn
}

func (r *Registry) Shape(c config.ShapeConfig) (shape.Shape, error) {
	fn, ok := r.shapes[c.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownShape, c.Type)
	}
	return fn(c)
}

func (r *Registry) Joint(a, b *dynamics.Body, c config.JointConfig) (dynamics.Constraint, error) {
	fn, ok := r.joints[c.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownJoint, c.Type)
	}
	return fn(a, b, c), nil
}

func (r *Registry) group(c config.ShapeConfig) (shape.Shape, error) {
	g := shape.NewGroup()
	for i, child := range c.Children {
		s, err := r.Shape(child.Shape)
		if err != nil {
			return nil, fmt.Errorf("child %d: %w", i, err)
		}
		g.Add(s, pose(child.Position, child.Axis, child.Angle))
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func (r *Registry) ListShapes() []string { return keys(r.shapes) }
func (r *Registry) ListJoints() []string { return keys(r.joints) }

func keys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
