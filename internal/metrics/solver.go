package metrics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/motion/internal/dynamics"
	"github.com/san-kum/motion/internal/world"
)

// Iterations is the mean number of solver iterations per step.
type Iterations struct {
	name    string
	total   int
	samples int
}

func NewIterations() *Iterations {
	return &Iterations{name: "iterations"}
}

func (it *Iterations) Name() string { return it.name }

func (it *Iterations) Observe(w *world.World) {
	it.total += w.Residual().Iterations
	it.samples++
}

func (it *Iterations) Value() float64 {
	if it.samples == 0 {
		return 0
	}
	return float64(it.total) / float64(it.samples)
}

func (it *Iterations) Reset() {
	it.total = 0
	it.samples = 0
}

// Convergence is the fraction of steps whose velocity phase converged.
type Convergence struct {
	name      string
	converged int
	samples   int
}

func NewConvergence() *Convergence {
	return &Convergence{name: "convergence"}
}

func (c *Convergence) Name() string { return c.name }

func (c *Convergence) Observe(w *world.World) {
	if w.Residual().Converged {
		c.converged++
	}
	c.samples++
}

func (c *Convergence) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return float64(c.converged) / float64(c.samples)
}

func (c *Convergence) Reset() {
	c.converged = 0
	c.samples = 0
}

// Penetration is the deepest contact seen.
type Penetration struct {
	name string
	max  float64
}

func NewPenetration() *Penetration {
	return &Penetration{name: "max_penetration"}
}

func (p *Penetration) Name() string { return p.name }

func (p *Penetration) Observe(w *world.World) {
	for _, c := range w.Contacts() {
		p.max = math.Max(p.max, c.Depth())
	}
}

func (p *Penetration) Value() float64 { return p.max }
func (p *Penetration) Reset()         { p.max = 0 }

// Momentum tracks the largest change in total linear momentum from the first
// sample. Gravity and contacts with static bodies change it legitimately, so
// it is only meaningful for closed systems.
type Momentum struct {
	name    string
	initial mgl64.Vec3
	max     float64
	samples int
}

func NewMomentum() *Momentum {
	return &Momentum{name: "momentum_drift"}
}

func (m *Momentum) Name() string { return m.name }

func (m *Momentum) Observe(w *world.World) {
	var p mgl64.Vec3
	w.Each(func(b *dynamics.Body) { p = p.Add(b.Momentum()) })
	if m.samples == 0 {
		m.initial = p
	}
	m.samples++
	m.max = math.Max(m.max, p.Sub(m.initial).Len())
}

func (m *Momentum) Value() float64 { return m.max }

func (m *Momentum) Reset() {
	m.initial = mgl64.Vec3{}
	m.max = 0
	m.samples = 0
}
