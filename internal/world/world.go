package world

import (
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/motion/internal/collide"
	"github.com/san-kum/motion/internal/dynamics"
	"github.com/san-kum/motion/internal/geom"
	"github.com/san-kum/motion/internal/solver"
)

// Residual summarises how well the last step converged.
type Residual struct {
	Converged         bool
	PositionConverged bool
	Iterations        int
	MaxPosition       float64
	MaxVelocity       float64
	Contacts          int
	Joints            int
}

type World struct {
	cfg    Config
	logger *slog.Logger

	arena    dynamics.Arena
	joints   []dynamics.Constraint
	contacts []*dynamics.Contact
	cache    contactCache

	solver solver.Solver
	narrow collide.NarrowPhase
	pairs  collide.PairSource

	time     float64
	steps    int
	residual Residual
}

func New(opts ...Option) *World {
	w := &World{
		cfg:    DefaultConfig(),
		logger: slog.New(slog.DiscardHandler),
		solver: solver.NewSequential(),
		narrow: collide.NewDetector(),
		pairs:  collide.AllPairs{Margin: collide.DefaultMargin},
		cache:  make(contactCache),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.cfg.VelocityPasses < 1 {
		w.cfg.VelocityPasses = 1
	}
	w.residual.Converged = true
	w.residual.PositionConverged = true
	return w
}

func (w *World) Config() Config { return w.cfg }

func (w *World) AddBody(def dynamics.BodyDef) (dynamics.ID, error) {
	b, err := dynamics.NewBody(def)
	if err != nil {
		w.logger.Debug("body rejected", "name", def.Name, "err", err)
		return dynamics.ID{}, err
	}
	id := w.arena.Insert(b)
	w.logger.Debug("body added", "id", id, "name", def.Name, "kind", def.Kind)
	return id, nil
}

// RemoveBody destroys a body, disconnecting every joint that referenced it
// and dropping its contacts.
func (w *World) RemoveBody(id dynamics.ID) error {
	if _, ok := w.arena.Remove(id); !ok {
		return fmt.Errorf("%v: %w", id, dynamics.ErrUnknownBody)
	}
	w.joints = slices.DeleteFunc(w.joints, func(c dynamics.Constraint) bool {
		a, b := c.Bodies()
		if a != id && b != id {
			return false
		}
		c.Disconnect()
		w.logger.Debug("constraint disconnected", "body", id)
		return true
	})
	w.contacts = slices.DeleteFunc(w.contacts, func(c *dynamics.Contact) bool {
		a, b := c.Bodies()
		return a == id || b == id
	})
	w.cache.forget(id)
	return nil
}

// Body implements dynamics.Host.
func (w *World) Body(id dynamics.ID) (*dynamics.Body, bool) {
	return w.arena.Get(id)
}

func (w *World) Len() int { return w.arena.Len() }

// Each visits bodies in creation-slot order.
func (w *World) Each(fn func(*dynamics.Body)) { w.arena.Each(fn) }

func (w *World) AddConstraint(c dynamics.Constraint) error {
	if err := c.Connect(w); err != nil {
		return err
	}
	w.joints = append(w.joints, c)
	return nil
}

// RemoveConstraint disconnects c and drops it from the joint set.
func (w *World) RemoveConstraint(c dynamics.Constraint) error {
	i := slices.Index(w.joints, c)
	if i < 0 {
		return ErrUnknownConstraint
	}
	c.Disconnect()
	w.joints = slices.Delete(w.joints, i, i+1)
	return nil
}

// Constraints returns the connected joints.
func (w *World) Constraints() []dynamics.Constraint {
	return slices.Clone(w.joints)
}

// Satisfied reports whether c is connected and met its tolerance in the last step.
func (w *World) Satisfied(c dynamics.Constraint) bool {
	return c.Connected() && c.Satisfied()
}

func (w *World) SetSolver(s solver.Solver) { w.solver = s }

func (w *World) SetSolverByName(name string) error {
	s, err := solver.New(name)
	if err != nil {
		return err
	}
	w.solver = s
	return nil
}

func (w *World) Solver() solver.Solver { return w.solver }

func (w *World) ApplyForce(id dynamics.ID, f mgl64.Vec3) error {
	b, ok := w.arena.Get(id)
	if !ok {
		return fmt.Errorf("%v: %w", id, dynamics.ErrUnknownBody)
	}
	b.ApplyForce(f)
	return nil
}

func (w *World) ApplyImpulse(id dynamics.ID, j, point mgl64.Vec3) error {
	b, ok := w.arena.Get(id)
	if !ok {
		return fmt.Errorf("%v: %w", id, dynamics.ErrUnknownBody)
	}
	b.ApplyImpulse(j, point)
	return nil
}

func (w *World) Pose(id dynamics.ID) (geom.Transform, bool) {
	b, ok := w.arena.Get(id)
	if !ok {
		return geom.Transform{}, false
	}
	return b.Pose, true
}

// Velocity returns the linear and angular velocity of a body.
func (w *World) Velocity(id dynamics.ID) (mgl64.Vec3, mgl64.Vec3, bool) {
	b, ok := w.arena.Get(id)
	if !ok {
		return mgl64.Vec3{}, mgl64.Vec3{}, false
	}
	return b.LinearVelocity, b.AngularVelocity, true
}

// Contacts returns the contacts solved in the last step.
func (w *World) Contacts() []*dynamics.Contact { return slices.Clone(w.contacts) }

func (w *World) Residual() Residual { return w.residual }
func (w *World) Time() float64      { return w.time }
func (w *World) Steps() int         { return w.steps }

// Step advances the world by h. Once it starts integrating, a step always
// completes.
func (w *World) Step(h float64) error {
	if !(h > 0) || math.IsInf(h, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidStep, h)
	}

	w.arena.Each(func(b *dynamics.Body) {
		b.IntegrateVelocity(h, w.cfg.Gravity)
	})

	w.joints = slices.DeleteFunc(w.joints, func(c dynamics.Constraint) bool {
		return !c.Connected()
	})
	set := &solver.Set{Joints: w.joints, Contacts: w.detect()}

	w.solver.SolveCollisions(set)
	posOK := w.solver.SolveConstraints(w.cfg.step(h), set)
	velOK := true
	iterations := 0
	for i := 0; i < w.cfg.VelocityPasses; i++ {
		velOK = w.solver.SolveVelocities(set)
		iterations += w.solver.Iterations()
	}

	w.arena.Each(func(b *dynamics.Body) {
		b.IntegratePose(h)
	})

	w.contacts = set.Contacts
	w.cache.store(w.contacts)
	w.summarise(set, posOK, velOK, iterations)
	w.time += h
	w.steps++

	if !velOK || !posOK {
		w.logger.Debug("step not converged",
			"step", w.steps,
			"solver", w.solver.Name(),
			"iterations", iterations,
			"velocity", w.residual.MaxVelocity,
			"position", w.residual.MaxPosition)
	}
	return nil
}

func (w *World) summarise(set *solver.Set, posOK, velOK bool, iterations int) {
	r := Residual{
		Converged:         velOK,
		PositionConverged: posOK,
		Iterations:        iterations,
		Contacts:          len(set.Contacts),
		Joints:            len(set.Joints),
	}
	for _, c := range set.Contacts {
		r.MaxVelocity = math.Max(r.MaxVelocity, c.Residual())
		if d := c.Depth() - w.cfg.Slop; d > r.MaxPosition {
			r.MaxPosition = d
		}
	}
	for _, j := range set.Joints {
		r.MaxVelocity = math.Max(r.MaxVelocity, j.Residual())
	}
	w.residual = r
}

// detect runs the narrow phase over candidate pairs. Bodies without a ready
// shape sit out.
func (w *World) detect() []*dynamics.Contact {
	var bodies []*dynamics.Body
	var cands []collide.Candidate
	w.arena.Each(func(b *dynamics.Body) {
		s, ok := b.Shape()
		if !ok {
			return
		}
		bodies = append(bodies, b)
		cands = append(cands, collide.Candidate{Pose: b.Pose, Shape: s})
	})

	var out []*dynamics.Contact
	for _, p := range w.pairs.Pairs(cands) {
		a, b := bodies[p.A], bodies[p.B]
		if !a.Movable() && !b.Movable() {
			continue
		}
		for _, pt := range w.narrow.Collide(cands[p.A].Shape, a.Pose, cands[p.B].Shape, b.Pose) {
			c, err := dynamics.NewContact(w, a.ID(), b.ID(), pt)
			if err != nil {
				w.logger.Debug("contact dropped", "a", a.ID(), "b", b.ID(), "err", err)
				continue
			}
			if w.cfg.WarmStart {
				if prev, ok := w.cache.match(c, w.cfg.PersistDistance); ok {
					c.Inherit(prev)
				}
			}
			out = append(out, c)
		}
	}
	return out
}
