package world

import (
	"errors"

	"github.com/san-kum/motion/internal/solver"
)

var (
	ErrInvalidStep = errors.New("world: step must be finite and positive")

	// ErrUnknownSolver is returned by SetSolverByName for names solver.New rejects.
	ErrUnknownSolver = solver.ErrUnknown

	ErrUnknownConstraint = errors.New("world: constraint not in this world")
)
