package solver

import "github.com/san-kum/motion/internal/dynamics"

const (
	DefaultVelocityIterations = 10
	DefaultPositionIterations = 4
)

// Sequential is a Gauss-Seidel solver: it repeats passes, each seeing the
// velocities left by the previous one, until every row is satisfied or the
// iteration cap is hit. Hitting the cap is not an error.
type Sequential struct {
	VelocityIterations int
	PositionIterations int
	VelocityTolerance  float64
	PositionTolerance  float64

	iterations int
}

func NewSequential() *Sequential {
	return &Sequential{
		VelocityIterations: DefaultVelocityIterations,
		PositionIterations: DefaultPositionIterations,
		VelocityTolerance:  dynamics.DefaultVelocityTolerance,
		PositionTolerance:  dynamics.DefaultPositionTolerance,
	}
}

func (s *Sequential) Name() string { return "sequential" }

func (s *Sequential) SolveCollisions(set *Set) {
	set.prune()
}

func (s *Sequential) SolveConstraints(step dynamics.Step, set *Set) bool {
	step.VelocityTolerance = s.VelocityTolerance
	step.PositionTolerance = s.PositionTolerance
	prepare(step, set)

	ok := set.Len() == 0
	for i := 0; i < max(s.PositionIterations, 1); i++ {
		if ok = positionPass(step, set); ok {
			break
		}
	}
	velocitySetup(set)
	return ok
}

func (s *Sequential) SolveVelocities(set *Set) bool {
	s.iterations = 0
	for s.iterations < max(s.VelocityIterations, 1) {
		s.iterations++
		if velocityPass(set) {
			return true
		}
	}
	return false
}

func (s *Sequential) Iterations() int { return s.iterations }
