package solver

import (
	"math"

	"github.com/san-kum/motion/internal/dynamics"
)

const DefaultMergeDistance = 0.02

// mergeCos is cos(8 degrees): normals closer than this merge.
var mergeCos = math.Cos(8 * math.Pi / 180)

// Next runs a collision-response pass before the sequential loop. The pass
// drops contacts that cannot or need not be solved and merges near-duplicates.
type Next struct {
	Sequential

	MergeDistance float64

	culled int
	merged int
}

func NewNext() *Next {
	return &Next{
		Sequential:    *NewSequential(),
		MergeDistance: DefaultMergeDistance,
	}
}

func (s *Next) Name() string { return "next" }

func (s *Next) SolveCollisions(set *Set) {
	set.prune()
	s.collisionResponse(set)
}

// Culled and Merged count the contacts removed by the last collision pass.
func (s *Next) Culled() int { return s.culled }
func (s *Next) Merged() int { return s.merged }

func (s *Next) collisionResponse(set *Set) {
	s.culled, s.merged = 0, 0
	kept := make([]*dynamics.Contact, 0, len(set.Contacts))

outer:
	for _, c := range set.Contacts {
		sep := c.Separation()
		if !c.Active() {
			s.culled++
			continue
		}
		if sep > s.MergeDistance && c.RelativeVelocity() > 0 {
			s.culled++
			continue
		}
		a, b := c.Bodies()
		for _, k := range kept {
			ka, kb := k.Bodies()
			if ka != a || kb != b {
				continue
			}
			if k.Point().Sub(c.Point()).Len() < s.MergeDistance && k.Normal().Dot(c.Normal()) > mergeCos {
				k.Absorb(c)
				s.merged++
				continue outer
			}
		}
		kept = append(kept, c)
	}
	set.Contacts = kept
}
