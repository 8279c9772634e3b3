package dynamics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/motion/internal/geom"
)

// BallJoint pins a point of A to a point of B, leaving rotation free.
type BallJoint struct {
	Link

	localA, localB mgl64.Vec3
	rA, rB         mgl64.Vec3
	mass           mgl64.Mat3
	degenerate     bool
	impulse        mgl64.Vec3
}

// NewBallJoint anchors a and b at the world point anchor, using their current poses.
func NewBallJoint(a, b *Body, anchor mgl64.Vec3) *BallJoint {
	return &BallJoint{
		Link:   newLink(a.ID(), b.ID()),
		localA: a.Pose.Inverse(anchor),
		localB: b.Pose.Inverse(anchor),
	}
}

// Impulse returns the accumulated impulse magnitude of the last step.
func (j *BallJoint) Impulse() float64 { return j.impulse.Len() }

// Anchors returns the world anchor points on A and B.
func (j *BallJoint) Anchors() (mgl64.Vec3, mgl64.Vec3) {
	if !j.resolve() {
		return geom.NaNVec(), geom.NaNVec()
	}
	return j.a.Pose.Apply(j.localA), j.b.Pose.Apply(j.localB)
}

// pointMass is K = (mA+mB)I + [rA] IA [rA]^T + [rB] IB [rB]^T.
func pointMass(a, b *Body, rA, rB mgl64.Vec3) mgl64.Mat3 {
	m := a.invMass + b.invMass
	k := mgl64.Diag3(mgl64.Vec3{m, m, m})
	sA := geom.Skew(rA)
	sB := geom.Skew(rB)
	k = k.Add(sA.Mul3(a.invInertiaWorld).Mul3(sA.Transpose()))
	k = k.Add(sB.Mul3(b.invInertiaWorld).Mul3(sB.Transpose()))
	return k
}

func invertPointMass(k mgl64.Mat3) (mgl64.Mat3, bool) {
	d := k.Det()
	if math.IsNaN(d) || math.Abs(d) < degenerateMass {
		return mgl64.Mat3{}, false
	}
	return k.Inv(), true
}

func (j *BallJoint) PrePositionStep(step Step) {
	j.step = step
	j.resolve()
}

func (j *BallJoint) SolvePosition(step Step) bool {
	if !j.active {
		return j.idle()
	}
	pA := j.a.Pose.Apply(j.localA)
	pB := j.b.Pose.Apply(j.localB)
	c := pB.Sub(pA)
	drift := c.Len()
	if drift <= step.PositionTolerance {
		return j.report(true, drift)
	}
	if drift > step.MaxCorrection {
		c = c.Mul(step.MaxCorrection / drift)
	}
	rA := pA.Sub(j.a.Pose.Position)
	rB := pB.Sub(j.b.Pose.Position)
	m, ok := invertPointMass(pointMass(j.a, j.b, rA, rB))
	if !ok {
		return j.report(true, drift)
	}
	p := m.Mul3x1(c.Mul(-step.Baumgarte))
	j.a.moveOffset(p.Mul(-1), rA)
	j.b.moveOffset(p, rB)
	return j.report(false, drift)
}

func (j *BallJoint) PreVelocitiesStep() {
	if !j.resolve() {
		return
	}
	j.rA = j.a.Pose.ApplyVector(j.localA)
	j.rB = j.b.Pose.ApplyVector(j.localB)
	j.mass, j.degenerate = mgl64.Mat3{}, false
	m, ok := invertPointMass(pointMass(j.a, j.b, j.rA, j.rB))
	if !ok {
		j.degenerate = true
		return
	}
	j.mass = m
	if !j.step.WarmStart {
		j.impulse = mgl64.Vec3{}
		return
	}
	j.a.applyImpulseOffset(j.impulse.Mul(-1), j.rA)
	j.b.applyImpulseOffset(j.impulse, j.rB)
}

func (j *BallJoint) SolveVelocities() bool {
	if !j.active || j.degenerate {
		return j.idle()
	}
	vA := j.a.LinearVelocity.Add(j.a.AngularVelocity.Cross(j.rA))
	vB := j.b.LinearVelocity.Add(j.b.AngularVelocity.Cross(j.rB))
	cdot := vB.Sub(vA)
	drift := cdot.Len()
	if drift <= j.step.VelocityTolerance {
		return j.report(true, drift)
	}
	p := j.mass.Mul3x1(cdot.Mul(-1))
	j.impulse = j.impulse.Add(p)
	j.a.applyImpulseOffset(p.Mul(-1), j.rA)
	j.b.applyImpulseOffset(p, j.rB)
	return j.report(false, drift)
}

// DistanceJoint keeps anchor points on A and B at a fixed distance.
type DistanceJoint struct {
	Link

	Length float64

	localA, localB mgl64.Vec3
	rA, rB         mgl64.Vec3
	u              mgl64.Vec3
	mass           float64
	impulse        float64
}

// NewDistanceJoint connects world anchors anchorA on a and anchorB on b; the
// rest length is their current distance.
func NewDistanceJoint(a, b *Body, anchorA, anchorB mgl64.Vec3) *DistanceJoint {
	return &DistanceJoint{
		Link:   newLink(a.ID(), b.ID()),
		Length: anchorB.Sub(anchorA).Len(),
		localA: a.Pose.Inverse(anchorA),
		localB: b.Pose.Inverse(anchorB),
	}
}

func (j *DistanceJoint) Impulse() float64 { return math.Abs(j.impulse) }

func (j *DistanceJoint) axis() (mgl64.Vec3, mgl64.Vec3, mgl64.Vec3, float64, bool) {
	pA := j.a.Pose.Apply(j.localA)
	pB := j.b.Pose.Apply(j.localB)
	d := pB.Sub(pA)
	l := d.Len()
	if l < 1e-9 {
		return pA, pB, mgl64.Vec3{}, 0, false
	}
	return pA, pB, d.Mul(1 / l), l, true
}

func (j *DistanceJoint) rowMass(rA, rB, u mgl64.Vec3) float64 {
	ra := rA.Cross(u)
	rb := rB.Cross(u)
	return j.a.invMass + j.b.invMass +
		ra.Dot(j.a.invInertiaWorld.Mul3x1(ra)) +
		rb.Dot(j.b.invInertiaWorld.Mul3x1(rb))
}

func (j *DistanceJoint) PrePositionStep(step Step) {
	j.step = step
	j.resolve()
}

func (j *DistanceJoint) SolvePosition(step Step) bool {
	if !j.active {
		return j.idle()
	}
	pA, pB, u, l, ok := j.axis()
	if !ok {
		return j.report(true, 0)
	}
	c := l - j.Length
	if math.Abs(c) <= step.PositionTolerance {
		return j.report(true, math.Abs(c))
	}
	rA := pA.Sub(j.a.Pose.Position)
	rB := pB.Sub(j.b.Pose.Position)
	m := invMass(j.rowMass(rA, rB, u))
	if m == 0 {
		return j.report(true, math.Abs(c))
	}
	corr := clamp(c, -step.MaxCorrection, step.MaxCorrection)
	p := u.Mul(-step.Baumgarte * corr * m)
	j.a.moveOffset(p.Mul(-1), rA)
	j.b.moveOffset(p, rB)
	return j.report(false, math.Abs(c))
}

func (j *DistanceJoint) PreVelocitiesStep() {
	if !j.resolve() {
		return
	}
	pA, pB, u, _, ok := j.axis()
	j.mass = 0
	if !ok {
		return
	}
	j.u = u
	j.rA = pA.Sub(j.a.Pose.Position)
	j.rB = pB.Sub(j.b.Pose.Position)
	j.mass = invMass(j.rowMass(j.rA, j.rB, u))
	if !j.step.WarmStart {
		j.impulse = 0
		return
	}
	p := u.Mul(j.impulse)
	j.a.applyImpulseOffset(p.Mul(-1), j.rA)
	j.b.applyImpulseOffset(p, j.rB)
}

func (j *DistanceJoint) SolveVelocities() bool {
	if !j.active || j.mass == 0 {
		return j.idle()
	}
	vA := j.a.LinearVelocity.Add(j.a.AngularVelocity.Cross(j.rA))
	vB := j.b.LinearVelocity.Add(j.b.AngularVelocity.Cross(j.rB))
	cdot := vB.Sub(vA).Dot(j.u)
	if math.Abs(cdot) <= j.step.VelocityTolerance {
		return j.report(true, math.Abs(cdot))
	}
	lambda := -cdot * j.mass
	j.impulse += lambda
	p := j.u.Mul(lambda)
	j.a.applyImpulseOffset(p.Mul(-1), j.rA)
	j.b.applyImpulseOffset(p, j.rB)
	return j.report(false, math.Abs(cdot))
}
