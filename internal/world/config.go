package world

import (
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/motion/internal/collide"
	"github.com/san-kum/motion/internal/dynamics"
	"github.com/san-kum/motion/internal/solver"
)

const DefaultPersistDistance = 0.05

type Config struct {
	Gravity mgl64.Vec3

	// VelocityPasses is how many times SolveVelocities runs per step.
	VelocityPasses int
	WarmStart      bool
	// PersistDistance is how far a contact may drift and still inherit its
	// accumulated impulses.
	PersistDistance float64

	Baumgarte            float64
	Slop                 float64
	MaxCorrection        float64
	RestitutionThreshold float64
}

func DefaultConfig() Config {
	return Config{
		Gravity:              mgl64.Vec3{0, -9.81, 0},
		VelocityPasses:       1,
		WarmStart:            true,
		PersistDistance:      DefaultPersistDistance,
		Baumgarte:            dynamics.DefaultBaumgarte,
		Slop:                 dynamics.DefaultSlop,
		MaxCorrection:        dynamics.DefaultMaxCorrection,
		RestitutionThreshold: dynamics.DefaultRestitutionThreshold,
	}
}

func (c Config) step(h float64) dynamics.Step {
	s := dynamics.NewStep(h)
	s.WarmStart = c.WarmStart
	s.Baumgarte = c.Baumgarte
	s.Slop = c.Slop
	s.MaxCorrection = c.MaxCorrection
	s.RestitutionThreshold = c.RestitutionThreshold
	return s
}

type Option func(*World)

func WithConfig(cfg Config) Option {
	return func(w *World) { w.cfg = cfg }
}

func WithGravity(g mgl64.Vec3) Option {
	return func(w *World) { w.cfg.Gravity = g }
}

func WithSolver(s solver.Solver) Option {
	return func(w *World) { w.solver = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(w *World) {
		if l != nil {
			w.logger = l
		}
	}
}

func WithNarrowPhase(np collide.NarrowPhase) Option {
	return func(w *World) { w.narrow = np }
}

func WithPairSource(ps collide.PairSource) Option {
	return func(w *World) { w.pairs = ps }
}
