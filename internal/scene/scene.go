// Package scene turns a declarative scene into a populated world.
package scene

import (
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/motion/internal/config"
	"github.com/san-kum/motion/internal/dynamics"
	"github.com/san-kum/motion/internal/geom"
	"github.com/san-kum/motion/internal/solver"
	"github.com/san-kum/motion/internal/world"
)

// Scene is a built world plus the ids of its named bodies.
type Scene struct {
	World  *world.World
	Bodies map[string]dynamics.ID
	Joints []dynamics.Constraint
	Config *config.Scene
}

// Body looks up a named body.
func (s *Scene) Body(name string) (*dynamics.Body, bool) {
	id, ok := s.Bodies[name]
	if !ok {
		return nil, false
	}
	return s.World.Body(id)
}

func Build(cfg *config.Scene, logger *slog.Logger) (*Scene, error) {
	return NewRegistry().Build(cfg, logger)
}

func (r *Registry) Build(cfg *config.Scene, logger *slog.Logger) (*Scene, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s, err := Solver(cfg)
	if err != nil {
		return nil, err
	}

	wc := world.DefaultConfig()
	if len(cfg.Gravity) == 3 {
		wc.Gravity = vec(cfg.Gravity)
	}
	wc.VelocityPasses = max(cfg.VelocityPasses, 1)
	wc.WarmStart = cfg.WarmStart

	w := world.New(world.WithConfig(wc), world.WithSolver(s), world.WithLogger(logger))
	sc := &Scene{
		World:  w,
		Bodies: make(map[string]dynamics.ID, len(cfg.Bodies)),
		Config: cfg,
	}

	for _, bc := range cfg.Bodies {
		def, err := r.body(bc)
		if err != nil {
			return nil, fmt.Errorf("body %q: %w", bc.Name, err)
		}
		id, err := w.AddBody(def)
		if err != nil {
			return nil, fmt.Errorf("body %q: %w", bc.Name, err)
		}
		sc.Bodies[bc.Name] = id
	}

	for i, jc := range cfg.Joints {
		a, ok := sc.Body(jc.A)
		if !ok {
			return nil, fmt.Errorf("joint %d: %w: %q", i, ErrUnknownBody, jc.A)
		}
		b, ok := sc.Body(jc.B)
		if !ok {
			return nil, fmt.Errorf("joint %d: %w: %q", i, ErrUnknownBody, jc.B)
		}
		j, err := r.Joint(a, b, jc)
		if err != nil {
			return nil, fmt.Errorf("joint %d: %w", i, err)
		}
		if err := w.AddConstraint(j); err != nil {
			return nil, fmt.Errorf("joint %d: %w", i, err)
		}
		sc.Joints = append(sc.Joints, j)
	}

	logger.Info("scene built", "bodies", len(sc.Bodies), "joints", len(sc.Joints), "solver", s.Name())
	return sc, nil
}

// Solver builds the named solver with the scene's iteration caps.
func Solver(cfg *config.Scene) (solver.Solver, error) {
	s, err := solver.New(cfg.Solver)
	if err != nil {
		return nil, err
	}
	switch s := s.(type) {
	case *solver.Sequential:
		applyIterations(s, cfg.Iterations)
	case *solver.Next:
		applyIterations(&s.Sequential, cfg.Iterations)
	}
	return s, nil
}

func applyIterations(s *solver.Sequential, it config.IterationsConfig) {
	if it.Velocity > 0 {
		s.VelocityIterations = it.Velocity
	}
	if it.Position > 0 {
		s.PositionIterations = it.Position
	}
}

func (r *Registry) body(bc config.BodyConfig) (dynamics.BodyDef, error) {
	kind, err := parseKind(bc.Kind)
	if err != nil {
		return dynamics.BodyDef{}, err
	}
	sh, err := r.Shape(bc.Shape)
	if err != nil {
		return dynamics.BodyDef{}, err
	}
	return dynamics.BodyDef{
		Name:            bc.Name,
		Kind:            kind,
		Pose:            pose(bc.Position, bc.Axis, bc.Angle),
		LinearVelocity:  vec(bc.Velocity),
		AngularVelocity: vec(bc.AngularVelocity),
		Mass:            bc.Mass,
		Density:         bc.Density,
		Shape:           sh,
		Friction:        bc.Friction,
		Restitution:     bc.Restitution,
		LinearDamping:   bc.LinearDamping,
		AngularDamping:  bc.AngularDamping,
	}, nil
}

func parseKind(s string) (dynamics.Kind, error) {
	switch s {
	case "", "dynamic":
		return dynamics.Dynamic, nil
	case "static":
		return dynamics.Static, nil
	case "kinematic":
		return dynamics.Kinematic, nil
	}
	return 0, fmt.Errorf("%w: kind %q", config.ErrInvalid, s)
}

func pose(position, axis []float64, angle float64) geom.Transform {
	return geom.AxisAngle(vec(position), vec(axis), angle)
}

func vec(v []float64) mgl64.Vec3 {
	if len(v) != 3 {
		return mgl64.Vec3{}
	}
	return mgl64.Vec3{v[0], v[1], v[2]}
}
