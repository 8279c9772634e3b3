package sim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/motion/internal/geom"
	"github.com/san-kum/motion/internal/world"
)

type Metric interface {
	Name() string
	Observe(w *world.World)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(frame Frame)
}

type Config struct {
	Dt       float64
	Duration float64
	// RecordEvery keeps one frame per this many steps; 0 or 1 keeps all.
	RecordEvery   int
	ValidateState bool
}

// BodyState is one body's pose and velocity in a frame.
type BodyState struct {
	Name            string
	Position        mgl64.Vec3
	Rotation        mgl64.Quat
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3
}

func (b BodyState) IsValid() bool {
	return geom.Transform{Position: b.Position, Rotation: b.Rotation}.IsValid() &&
		geom.IsFinite(b.Velocity) && geom.IsFinite(b.AngularVelocity)
}

type Frame struct {
	Time       float64
	Step       int
	Bodies     []BodyState
	Contacts   int
	Iterations int
	Converged  bool
}

func (f Frame) IsValid() bool {
	for _, b := range f.Bodies {
		if !b.IsValid() {
			return false
		}
	}
	return true
}

// Body returns the state of the named body.
func (f Frame) Body(name string) (BodyState, bool) {
	for _, b := range f.Bodies {
		if b.Name == name {
			return b, true
		}
	}
	return BodyState{}, false
}

type Result struct {
	Solver      string
	Frames      []Frame
	Metrics     map[string]float64
	StepsTaken  int
	Errors      []error
	EnergyDrift float64
}

type SimError struct {
	Time    float64
	Step    int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}
