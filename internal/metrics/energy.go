package metrics

import (
	"math"

	"github.com/san-kum/motion/internal/dynamics"
	"github.com/san-kum/motion/internal/world"
)

// Energy is the mean kinetic energy over all samples.
type Energy struct {
	name    string
	samples int
	total   float64
}

func NewEnergy() *Energy {
	return &Energy{name: "kinetic_energy"}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(w *world.World) {
	e.total += Kinetic(w)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *Energy) Reset() {
	e.total = 0
	e.samples = 0
}

// EnergyDrift tracks the largest relative change of kinetic plus
// gravitational energy from the first sample.
type EnergyDrift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(w *world.World) {
	energy := Total(w)
	if e.samples == 0 {
		e.initial = energy
	}
	e.samples++

	if e.initial != 0 {
		drift := math.Abs(energy-e.initial) / math.Abs(e.initial)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.maxDrift = 0
	e.samples = 0
}

func Kinetic(w *world.World) float64 {
	ke := 0.0
	w.Each(func(b *dynamics.Body) { ke += b.KineticEnergy() })
	return ke
}

// Total is kinetic energy plus potential energy in the world's gravity.
func Total(w *world.World) float64 {
	g := w.Config().Gravity
	e := 0.0
	w.Each(func(b *dynamics.Body) {
		e += b.KineticEnergy()
		if b.Kind() == dynamics.Dynamic {
			e -= b.Mass() * g.Dot(b.Pose.Position)
		}
	})
	return e
}
