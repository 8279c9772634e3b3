package solver

import "github.com/san-kum/motion/internal/dynamics"

// Impulse makes a single pass over every row per call. Callers choose how
// many times to call SolveVelocities per step.
type Impulse struct {
	iterations int
}

func NewImpulse() *Impulse {
	return &Impulse{}
}

func (s *Impulse) Name() string { return "impulse" }

func (s *Impulse) SolveCollisions(set *Set) {
	set.prune()
}

func (s *Impulse) SolveConstraints(step dynamics.Step, set *Set) bool {
	prepare(step, set)
	ok := positionPass(step, set)
	velocitySetup(set)
	return ok
}

func (s *Impulse) SolveVelocities(set *Set) bool {
	s.iterations = 1
	return velocityPass(set)
}

func (s *Impulse) Iterations() int { return s.iterations }
