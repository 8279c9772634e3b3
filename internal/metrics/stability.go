package metrics

import (
	"github.com/san-kum/motion/internal/dynamics"
	"github.com/san-kum/motion/internal/world"
)

// Stability is the fraction of samples in which every body is finite and
// slower than the threshold speed.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(w *world.World) {
	s.samples++
	bad := false
	w.Each(func(b *dynamics.Body) {
		if bad {
			return
		}
		if !b.IsValid() || b.LinearVelocity.Len() > s.threshold {
			bad = true
		}
	})
	if bad {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
