package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/motion/internal/dynamics"
	"github.com/san-kum/motion/internal/metrics"
	"github.com/san-kum/motion/internal/world"
)

type Simulator struct {
	world     *world.World
	metrics   []Metric
	observers []Observer
}

func New(w *world.World) *Simulator {
	return &Simulator{
		world:     w,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (s *Simulator) World() *world.World { return s.world }

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	every := max(cfg.RecordEvery, 1)
	result := &Result{
		Solver:  s.world.Solver().Name(),
		Frames:  make([]Frame, 0, steps/every+1),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	result.Frames = append(result.Frames, Capture(s.world))
	initialEnergy := metrics.Total(s.world)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		if err := s.world.Step(cfg.Dt); err != nil {
			return result, err
		}
		result.StepsTaken++

		for _, m := range s.metrics {
			m.Observe(s.world)
		}
		frame := Capture(s.world)
		for _, obs := range s.observers {
			obs.OnStep(frame)
		}

		if cfg.ValidateState && !frame.IsValid() {
			result.Errors = append(result.Errors, SimError{Time: frame.Time, Step: frame.Step, Message: "invalid state (NaN/Inf)"})
			break
		}
		if (i+1)%every == 0 || i == steps-1 {
			result.Frames = append(result.Frames, frame)
		}
	}

	if initialEnergy != 0 {
		result.EnergyDrift = math.Abs(metrics.Total(s.world)-initialEnergy) / math.Abs(initialEnergy)
	}
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, nil
}

// RunWithCallback steps until the duration elapses or callback returns false.
func (s *Simulator) RunWithCallback(ctx context.Context, cfg Config, callback func(Frame) bool) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}

	frame := Capture(s.world)
	for frame.Time < cfg.Duration {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !callback(frame) {
			return nil
		}
		if err := s.world.Step(cfg.Dt); err != nil {
			return err
		}
		frame = Capture(s.world)

		if cfg.ValidateState && !frame.IsValid() {
			return fmt.Errorf("invalid state at t=%.4f", frame.Time)
		}
	}
	return nil
}

func validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	return nil
}

// Capture snapshots every body of w.
func Capture(w *world.World) Frame {
	r := w.Residual()
	f := Frame{
		Time:       w.Time(),
		Step:       w.Steps(),
		Bodies:     make([]BodyState, 0, w.Len()),
		Contacts:   r.Contacts,
		Iterations: r.Iterations,
		Converged:  r.Converged,
	}
	w.Each(func(b *dynamics.Body) {
		f.Bodies = append(f.Bodies, BodyState{
			Name:            b.Name(),
			Position:        b.Pose.Position,
			Rotation:        b.Pose.Rotation,
			Velocity:        b.LinearVelocity,
			AngularVelocity: b.AngularVelocity,
		})
	})
	return f
}
