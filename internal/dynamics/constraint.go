package dynamics

import (
	"fmt"
	"math"
)

// Host resolves body IDs. world.World is the host of every constraint it solves.
type Host interface {
	Body(id ID) (*Body, bool)
}

// Constraint is a two-body constraint solved in a position phase followed by
// a velocity phase. Solve calls may repeat within one step.
type Constraint interface {
	Connect(host Host) error
	Disconnect()
	Connected() bool
	Bodies() (ID, ID)

	PrePositionStep(step Step)
	SolvePosition(step Step) bool
	PreVelocitiesStep()
	SolveVelocities() bool

	// Satisfied is the result of the latest solve call.
	Satisfied() bool
	// Residual is the latest error metric, in metres or metres per second
	// depending on the phase.
	Residual() float64
}

// Link holds the bookkeeping shared by every constraint: the host, the two
// body IDs and the bodies they resolved to for the current step. Embed it.
type Link struct {
	host   Host
	idA    ID
	idB    ID
	a, b   *Body
	active bool

	step      Step
	satisfied bool
	residual  float64
}

func newLink(a, b ID) Link {
	return Link{idA: a, idB: b, step: NewStep(0), satisfied: true}
}

func (l *Link) Connect(host Host) error {
	if l.host != nil {
		return ErrAlreadyConnected
	}
	if l.idA == l.idB {
		return ErrSameBody
	}
	for _, id := range []ID{l.idA, l.idB} {
		if _, ok := host.Body(id); !ok {
			return fmt.Errorf("%v: %w", id, ErrUnknownBody)
		}
	}
	l.host = host
	l.resolve()
	return nil
}

func (l *Link) Disconnect() {
	l.host = nil
	l.a, l.b = nil, nil
	l.active = false
	l.satisfied = true
	l.residual = 0
}

func (l *Link) Connected() bool { return l.host != nil }

func (l *Link) Bodies() (ID, ID) { return l.idA, l.idB }

func (l *Link) Satisfied() bool { return l.satisfied }

func (l *Link) Residual() float64 { return l.residual }

// resolve refreshes the body pointers. A link whose body is gone goes
// dormant: it stays connected but applies nothing.
func (l *Link) resolve() bool {
	l.a, l.b, l.active = nil, nil, false
	if l.host == nil {
		return false
	}
	a, okA := l.host.Body(l.idA)
	b, okB := l.host.Body(l.idB)
	if !okA || !okB {
		return false
	}
	if !a.Movable() && !b.Movable() {
		return false
	}
	l.a, l.b, l.active = a, b, true
	return true
}

// Active reports whether the last prepare call found both bodies.
func (l *Link) Active() bool { return l.active }

func (l *Link) report(ok bool, residual float64) bool {
	l.satisfied = ok
	l.residual = residual
	return ok
}

func (l *Link) idle() bool {
	l.satisfied = true
	l.residual = 0
	return true
}

// invMass returns an effective mass, or 0 when the denominator k is degenerate.
func invMass(k float64) float64 {
	if math.IsNaN(k) || k < degenerateMass {
		return 0
	}
	return 1 / k
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
