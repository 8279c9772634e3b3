package dynamics

const (
	DefaultBaumgarte     = 0.2
	DefaultSlop          = 0.005
	DefaultMaxCorrection = 0.2

	DefaultVelocityTolerance = 1e-4
	DefaultPositionTolerance = 5e-3

	// DefaultRestitutionThreshold is the closing speed below which contacts
	// do not bounce.
	DefaultRestitutionThreshold = 1.0

	// degenerateMass is the smallest effective-mass denominator a row accepts.
	degenerateMass = 1e-12
)

// Step carries the per-step parameters handed to position-phase calls.
// Constraints keep the last Step they were prepared with for the velocity phase.
type Step struct {
	Dt    float64
	InvDt float64

	// Baumgarte scales position correction per position iteration.
	Baumgarte float64
	// Slop is the penetration left uncorrected to keep contacts alive.
	Slop float64
	// MaxCorrection caps a single position correction.
	MaxCorrection float64
	// WarmStart applies impulses accumulated in the previous step.
	WarmStart bool

	VelocityTolerance    float64
	PositionTolerance    float64
	RestitutionThreshold float64
}

func NewStep(dt float64) Step {
	s := Step{
		Dt:                   dt,
		Baumgarte:            DefaultBaumgarte,
		Slop:                 DefaultSlop,
		MaxCorrection:        DefaultMaxCorrection,
		WarmStart:            true,
		VelocityTolerance:    DefaultVelocityTolerance,
		PositionTolerance:    DefaultPositionTolerance,
		RestitutionThreshold: DefaultRestitutionThreshold,
	}
	if dt > 0 {
		s.InvDt = 1 / dt
	}
	return s
}
