package dynamics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/motion/internal/collide"
	"github.com/san-kum/motion/internal/geom"
)

// ContactKey identifies a contact across steps.
type ContactKey struct {
	A, B    ID
	Feature uint32
}

// Contact is a one-sided constraint at a single contact point. Normal points
// from A to B. It is rebuilt every step by the narrow phase and may inherit
// the accumulated impulses of its predecessor.
type Contact struct {
	Link

	feature uint32
	point   mgl64.Vec3
	normal  mgl64.Vec3
	t1, t2  mgl64.Vec3
	depth   float64

	Friction    float64
	Restitution float64

	localA, localB mgl64.Vec3
	rA, rB         mgl64.Vec3

	normalMass float64
	t1Mass     float64
	t2Mass     float64
	target     float64

	normalImpulse float64
	t1Impulse     float64
	t2Impulse     float64
}

// NewContact builds a contact between bodies a and b from a narrow-phase
// point, connected to host.
func NewContact(host Host, a, b ID, p collide.Point) (*Contact, error) {
	c := &Contact{
		Link:    newLink(a, b),
		feature: p.Feature,
		point:   p.Position,
		normal:  p.Normal.Normalize(),
		depth:   p.Depth,
	}
	if err := c.Connect(host); err != nil {
		return nil, err
	}
	ba, _ := host.Body(a)
	bb, _ := host.Body(b)
	if !geom.IsFinite(c.normal) || !geom.IsFinite(c.point) {
		return nil, fmt.Errorf("contact %v-%v: non-finite point", a, b)
	}
	c.t1, c.t2 = geom.Tangents(c.normal)
	c.Friction = math.Sqrt(math.Max(ba.Friction, 0) * math.Max(bb.Friction, 0))
	c.Restitution = math.Max(ba.Restitution, bb.Restitution)

	half := c.normal.Mul(p.Depth / 2)
	c.localA = ba.Pose.Inverse(c.point.Add(half))
	c.localB = bb.Pose.Inverse(c.point.Sub(half))
	return c, nil
}

func (c *Contact) Key() ContactKey {
	return ContactKey{A: c.idA, B: c.idB, Feature: c.feature}
}

func (c *Contact) Point() mgl64.Vec3  { return c.point }
func (c *Contact) Normal() mgl64.Vec3 { return c.normal }

// Depth is the penetration at detection time; negative for a speculative gap.
func (c *Contact) Depth() float64 { return c.depth }

func (c *Contact) NormalImpulse() float64 { return c.normalImpulse }

// TangentImpulse returns the two accumulated friction impulses.
func (c *Contact) TangentImpulse() (float64, float64) { return c.t1Impulse, c.t2Impulse }

// Inherit copies the accumulated impulses of a persisting contact.
func (c *Contact) Inherit(prev *Contact) {
	c.normalImpulse = prev.normalImpulse
	c.t1Impulse = prev.t1Impulse
	c.t2Impulse = prev.t2Impulse
}

// Absorb folds a near-duplicate contact into c, keeping the deeper geometry
// and the larger accumulated impulse.
func (c *Contact) Absorb(o *Contact) {
	if o.depth > c.depth {
		c.point, c.depth = o.point, o.depth
		c.localA, c.localB = o.localA, o.localB
	}
	if o.normalImpulse > c.normalImpulse {
		c.Inherit(o)
	}
}

// Separation recomputes the signed gap along the normal from the current poses.
func (c *Contact) Separation() float64 {
	if !c.resolve() {
		return math.Inf(1)
	}
	return c.separation()
}

func (c *Contact) separation() float64 {
	pA := c.a.Pose.Apply(c.localA)
	pB := c.b.Pose.Apply(c.localB)
	return pB.Sub(pA).Dot(c.normal)
}

// RelativeVelocity is the normal velocity of B relative to A at the contact.
func (c *Contact) RelativeVelocity() float64 {
	if !c.resolve() {
		return 0
	}
	pA := c.a.Pose.Apply(c.localA)
	pB := c.b.Pose.Apply(c.localB)
	return c.b.VelocityAt(pB).Sub(c.a.VelocityAt(pA)).Dot(c.normal)
}

func (c *Contact) PrePositionStep(step Step) {
	c.step = step
	c.resolve()
}

func (c *Contact) SolvePosition(step Step) bool {
	if !c.active {
		return c.idle()
	}
	pA := c.a.Pose.Apply(c.localA)
	pB := c.b.Pose.Apply(c.localB)
	s := pB.Sub(pA).Dot(c.normal)

	residual := math.Max(0, -s-step.Slop)
	if residual <= step.PositionTolerance {
		return c.report(true, residual)
	}

	rA := pA.Sub(c.a.Pose.Position)
	rB := pB.Sub(c.b.Pose.Position)
	m := invMass(c.rowMass(rA, rB, c.normal))
	if m == 0 {
		return c.report(true, residual)
	}

	C := clamp(step.Baumgarte*(s+step.Slop), -step.MaxCorrection, 0)
	p := c.normal.Mul(-C * m)
	c.a.moveOffset(p.Mul(-1), rA)
	c.b.moveOffset(p, rB)
	return c.report(false, residual)
}

func (c *Contact) rowMass(rA, rB, axis mgl64.Vec3) float64 {
	k := c.a.invMass + c.b.invMass
	ra := rA.Cross(axis)
	rb := rB.Cross(axis)
	k += ra.Dot(c.a.invInertiaWorld.Mul3x1(ra))
	k += rb.Dot(c.b.invInertiaWorld.Mul3x1(rb))
	return k
}

func (c *Contact) relativeVelocity() mgl64.Vec3 {
	vA := c.a.LinearVelocity.Add(c.a.AngularVelocity.Cross(c.rA))
	vB := c.b.LinearVelocity.Add(c.b.AngularVelocity.Cross(c.rB))
	return vB.Sub(vA)
}

func (c *Contact) PreVelocitiesStep() {
	if !c.resolve() {
		return
	}
	pA := c.a.Pose.Apply(c.localA)
	pB := c.b.Pose.Apply(c.localB)
	c.rA = pA.Sub(c.a.Pose.Position)
	c.rB = pB.Sub(c.b.Pose.Position)

	c.normalMass = invMass(c.rowMass(c.rA, c.rB, c.normal))
	c.t1Mass = invMass(c.rowMass(c.rA, c.rB, c.t1))
	c.t2Mass = invMass(c.rowMass(c.rA, c.rB, c.t2))

	// speculative gap: allow closing it within the step
	c.target = 0
	if s := pB.Sub(pA).Dot(c.normal); s > 0 && c.step.Dt > 0 {
		c.target = -s * c.step.InvDt
	}
	vn := c.relativeVelocity().Dot(c.normal)
	if c.Restitution > 0 && vn < -c.step.RestitutionThreshold {
		c.target = math.Max(c.target, -c.Restitution*vn)
	}

	if !c.step.WarmStart {
		c.normalImpulse, c.t1Impulse, c.t2Impulse = 0, 0, 0
		return
	}
	p := c.normal.Mul(c.normalImpulse).Add(c.t1.Mul(c.t1Impulse)).Add(c.t2.Mul(c.t2Impulse))
	c.a.applyImpulseOffset(p.Mul(-1), c.rA)
	c.b.applyImpulseOffset(p, c.rB)
}

func (c *Contact) SolveVelocities() bool {
	if !c.active {
		return c.idle()
	}
	tol := c.step.VelocityTolerance
	worst := 0.0

	// friction, bounded by the current normal impulse
	limit := c.Friction * c.normalImpulse
	for _, row := range []struct {
		axis mgl64.Vec3
		mass float64
		acc  *float64
	}{
		{c.t1, c.t1Mass, &c.t1Impulse},
		{c.t2, c.t2Mass, &c.t2Impulse},
	} {
		if row.mass == 0 {
			continue
		}
		vt := c.relativeVelocity().Dot(row.axis)
		old := *row.acc
		*row.acc = clamp(old-vt*row.mass, -limit, limit)
		d := *row.acc - old
		if d != 0 {
			c.apply(row.axis.Mul(d))
		}
		worst = math.Max(worst, math.Abs(d)/row.mass)
	}

	if c.normalMass != 0 {
		vn := c.relativeVelocity().Dot(c.normal)
		old := c.normalImpulse
		c.normalImpulse = math.Max(old-(vn-c.target)*c.normalMass, 0)
		d := c.normalImpulse - old
		if d != 0 {
			c.apply(c.normal.Mul(d))
		}
		worst = math.Max(worst, math.Abs(d)/c.normalMass)
	}

	return c.report(worst <= tol, worst)
}

func (c *Contact) apply(p mgl64.Vec3) {
	c.a.applyImpulseOffset(p.Mul(-1), c.rA)
	c.b.applyImpulseOffset(p, c.rB)
}
