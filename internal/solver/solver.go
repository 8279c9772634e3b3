// Package solver holds the interchangeable constraint solvers a world steps with.
package solver

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/motion/internal/dynamics"
)

var ErrUnknown = errors.New("solver: unknown solver")

// Set is what a world hands its solver each step.
type Set struct {
	Joints   []dynamics.Constraint
	Contacts []*dynamics.Contact
}

// Len counts the rows a solver visits.
func (s *Set) Len() int { return len(s.Joints) + len(s.Contacts) }

// each visits connected joints then contacts in generation order.
func (s *Set) each(fn func(dynamics.Constraint) bool) bool {
	ok := true
	for _, j := range s.Joints {
		if !j.Connected() {
			continue
		}
		if !fn(j) {
			ok = false
		}
	}
	for _, c := range s.Contacts {
		if !c.Connected() {
			continue
		}
		if !fn(c) {
			ok = false
		}
	}
	return ok
}

// prune drops contacts that are no longer connected.
func (s *Set) prune() {
	kept := s.Contacts[:0]
	for _, c := range s.Contacts {
		if c.Connected() {
			kept = append(kept, c)
		}
	}
	clear(s.Contacts[len(kept):])
	s.Contacts = kept
}

// Solver resolves one step's constraints. A world calls SolveCollisions,
// then SolveConstraints, then SolveVelocities one or more times.
type Solver interface {
	Name() string
	SolveCollisions(set *Set)
	SolveConstraints(step dynamics.Step, set *Set) bool
	SolveVelocities(set *Set) bool
	// Iterations is the number of velocity passes the last SolveVelocities made.
	Iterations() int
}

var registry = map[string]func() Solver{
	"impulse":    func() Solver { return NewImpulse() },
	"sequential": func() Solver { return NewSequential() },
	"next":       func() Solver { return NewNext() },
}

// New builds a solver by name.
func New(name string) (Solver, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknown, name)
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func prepare(step dynamics.Step, set *Set) {
	set.each(func(c dynamics.Constraint) bool {
		c.PrePositionStep(step)
		return true
	})
}

func positionPass(step dynamics.Step, set *Set) bool {
	return set.each(func(c dynamics.Constraint) bool {
		return c.SolvePosition(step)
	})
}

func velocitySetup(set *Set) {
	set.each(func(c dynamics.Constraint) bool {
		c.PreVelocitiesStep()
		return true
	})
}

func velocityPass(set *Set) bool {
	return set.each(func(c dynamics.Constraint) bool {
		return c.SolveVelocities()
	})
}
