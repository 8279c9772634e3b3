package dynamics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/motion/internal/geom"
	"github.com/san-kum/motion/internal/shape"
)

type Kind int

const (
	// Dynamic bodies respond to forces, gravity and constraints.
	Dynamic Kind = iota
	// Static bodies never move.
	Static
	// Kinematic bodies move by their own velocity but ignore forces and constraints.
	Kinematic
)

func (k Kind) String() string {
	switch k {
	case Dynamic:
		return "dynamic"
	case Static:
		return "static"
	case Kinematic:
		return "kinematic"
	}
	return "unknown"
}

// BodyDef describes a body to create.
type BodyDef struct {
	Name string
	Kind Kind
	Pose geom.Transform

	LinearVelocity  mgl64.Vec3
	AngularVelocity mgl64.Vec3

	// Mass wins over Density when positive.
	Mass    float64
	Density float64

	// Shape is either a ready shape or nil when Deferred is set.
	Shape    shape.Shape
	Deferred *shape.Deferred

	Friction       float64
	Restitution    float64
	LinearDamping  float64
	AngularDamping float64
}

type Body struct {
	id   ID
	name string
	kind Kind

	Pose            geom.Transform
	LinearVelocity  mgl64.Vec3
	AngularVelocity mgl64.Vec3

	mass            float64
	invMass         float64
	inertiaLocal    mgl64.Mat3
	invInertiaLocal mgl64.Mat3
	invInertiaWorld mgl64.Mat3

	force  mgl64.Vec3
	torque mgl64.Vec3

	shape *shape.Deferred
	// pending is set while mass properties wait for a deferred shape.
	pending bool
	density float64

	Friction       float64
	Restitution    float64
	LinearDamping  float64
	AngularDamping float64
}

// NewBody validates def and derives mass properties. A dynamic body needs a
// positive Mass, or a shape with positive Density. With a deferred shape that
// is not ready yet, mass properties are derived on the first step after it
// loads; a density-only body stays immovable until then.
func NewBody(def BodyDef) (*Body, error) {
	b := &Body{
		name:            def.Name,
		kind:            def.Kind,
		Pose:            def.Pose.Normalized(),
		LinearVelocity:  def.LinearVelocity,
		AngularVelocity: def.AngularVelocity,
		Friction:        def.Friction,
		Restitution:     def.Restitution,
		LinearDamping:   def.LinearDamping,
		AngularDamping:  def.AngularDamping,
	}

	if !b.Pose.IsValid() {
		return nil, fmt.Errorf("body %q: invalid pose", def.Name)
	}

	switch {
	case def.Deferred != nil:
		if s, ok := def.Deferred.Get(); ok {
			if err := validateShape(s); err != nil {
				return nil, fmt.Errorf("body %q: %w", def.Name, err)
			}
		}
		b.shape = def.Deferred
	case def.Shape != nil:
		if err := validateShape(def.Shape); err != nil {
			return nil, fmt.Errorf("body %q: %w", def.Name, err)
		}
		b.shape = shape.Ready(def.Shape)
	}

	if def.Kind != Dynamic {
		b.LinearVelocity, b.AngularVelocity = kinematicVelocity(def)
		b.updateInertia()
		return b, nil
	}

	s, ready := b.Shape()
	b.density = def.Density
	mass := def.Mass
	if !(mass > 0) && def.Density > 0 {
		switch {
		case ready:
			mass = s.Volume() * def.Density
		case def.Deferred != nil:
			b.pending = true
			return b, nil
		}
	}
	if !(mass > 0) || math.IsInf(mass, 0) {
		return nil, fmt.Errorf("body %q: %w", def.Name, ErrZeroMass)
	}

	b.mass = mass
	b.invMass = 1 / mass
	if ready {
		b.inertiaLocal = s.Inertia(mass)
	} else {
		// unit-sphere tensor until the real shape is known
		i := 0.4 * mass
		b.inertiaLocal = mgl64.Diag3(mgl64.Vec3{i, i, i})
		b.pending = def.Deferred != nil
	}
	b.invInertiaLocal = safeInverse(b.inertiaLocal)
	b.updateInertia()
	return b, nil
}

// Settle derives mass properties from a deferred shape that has become
// ready since the body was created. It reports whether the body is settled.
// IntegrateVelocity calls it at the start of every step.
func (b *Body) Settle() bool {
	if !b.pending {
		return true
	}
	s, ok := b.Shape()
	if !ok {
		return false
	}
	b.pending = false
	if !(b.mass > 0) {
		mass := s.Volume() * b.density
		if !(mass > 0) || math.IsInf(mass, 0) {
			return true
		}
		b.mass = mass
		b.invMass = 1 / mass
	}
	b.inertiaLocal = s.Inertia(b.mass)
	b.invInertiaLocal = safeInverse(b.inertiaLocal)
	b.updateInertia()
	return true
}

// InertiaLocal is the body-frame inertia tensor about the body origin.
func (b *Body) InertiaLocal() mgl64.Mat3 { return b.inertiaLocal }

func validateShape(s shape.Shape) error {
	if g, ok := s.(*shape.Group); ok {
		return g.Validate()
	}
	return nil
}

func kinematicVelocity(def BodyDef) (mgl64.Vec3, mgl64.Vec3) {
	if def.Kind == Kinematic {
		return def.LinearVelocity, def.AngularVelocity
	}
	return mgl64.Vec3{}, mgl64.Vec3{}
}

// safeInverse inverts m, dropping axes with no inertia instead of blowing up.
func safeInverse(m mgl64.Mat3) mgl64.Mat3 {
	if math.Abs(m.Det()) > degenerateMass {
		return m.Inv()
	}
	var out mgl64.Mat3
	for i := 0; i < 3; i++ {
		if d := m.At(i, i); d > degenerateMass {
			out.Set(i, i, 1/d)
		}
	}
	return out
}

func (b *Body) ID() ID        { return b.id }
func (b *Body) Name() string  { return b.name }
func (b *Body) Kind() Kind    { return b.kind }
func (b *Body) Mass() float64 { return b.mass }

// InverseMass is zero for static and kinematic bodies.
func (b *Body) InverseMass() float64 { return b.invMass }

// InverseInertiaWorld is the inverse inertia tensor at the current orientation.
func (b *Body) InverseInertiaWorld() mgl64.Mat3 { return b.invInertiaWorld }

// Movable reports whether constraints can change this body's velocity.
func (b *Body) Movable() bool { return b.invMass > 0 }

// Shape returns the collision shape once it is ready.
func (b *Body) Shape() (shape.Shape, bool) {
	if b.shape == nil {
		return nil, false
	}
	return b.shape.Get()
}

func (b *Body) updateInertia() {
	if b.invMass == 0 {
		b.invInertiaWorld = mgl64.Mat3{}
		return
	}
	r := b.Pose.Basis()
	b.invInertiaWorld = r.Mul3(b.invInertiaLocal).Mul3(r.Transpose())
}

// VelocityAt returns the velocity of the body's material point at world p.
func (b *Body) VelocityAt(p mgl64.Vec3) mgl64.Vec3 {
	return b.LinearVelocity.Add(b.AngularVelocity.Cross(p.Sub(b.Pose.Position)))
}

func (b *Body) ApplyForce(f mgl64.Vec3) {
	if b.kind != Dynamic {
		return
	}
	b.force = b.force.Add(f)
}

// ApplyForceAt applies f at world point p, adding the resulting torque.
func (b *Body) ApplyForceAt(f, p mgl64.Vec3) {
	if b.kind != Dynamic {
		return
	}
	b.force = b.force.Add(f)
	b.torque = b.torque.Add(p.Sub(b.Pose.Position).Cross(f))
}

func (b *Body) ApplyTorque(t mgl64.Vec3) {
	if b.kind != Dynamic {
		return
	}
	b.torque = b.torque.Add(t)
}

// ApplyImpulse changes velocity immediately by impulse j at world point p.
func (b *Body) ApplyImpulse(j, p mgl64.Vec3) {
	if b.invMass == 0 {
		return
	}
	b.LinearVelocity = b.LinearVelocity.Add(j.Mul(b.invMass))
	b.AngularVelocity = b.AngularVelocity.Add(b.invInertiaWorld.Mul3x1(p.Sub(b.Pose.Position).Cross(j)))
}

func (b *Body) ApplyAngularImpulse(j mgl64.Vec3) {
	if b.invMass == 0 {
		return
	}
	b.AngularVelocity = b.AngularVelocity.Add(b.invInertiaWorld.Mul3x1(j))
}

// applyImpulseOffset is ApplyImpulse with a precomputed lever arm r.
func (b *Body) applyImpulseOffset(j, r mgl64.Vec3) {
	if b.invMass == 0 {
		return
	}
	b.LinearVelocity = b.LinearVelocity.Add(j.Mul(b.invMass))
	b.AngularVelocity = b.AngularVelocity.Add(b.invInertiaWorld.Mul3x1(r.Cross(j)))
}

// moveOffset applies a position-level impulse p at lever arm r.
func (b *Body) moveOffset(p, r mgl64.Vec3) {
	if b.invMass == 0 {
		return
	}
	b.Pose.Position = b.Pose.Position.Add(p.Mul(b.invMass))
	b.Pose.Rotation = geom.Rotate(b.Pose.Rotation, b.invInertiaWorld.Mul3x1(r.Cross(p)))
	b.updateInertia()
}

func (b *Body) ClearForces() {
	b.force = mgl64.Vec3{}
	b.torque = mgl64.Vec3{}
}

// Force returns the force accumulated since the last ClearForces.
func (b *Body) Force() mgl64.Vec3 { return b.force }

// IntegrateVelocity adds gravity and accumulated force/torque over h, applies
// damping, and clears the accumulators.
func (b *Body) IntegrateVelocity(h float64, gravity mgl64.Vec3) {
	b.Settle()
	if b.kind != Dynamic || b.invMass == 0 {
		b.ClearForces()
		return
	}
	b.LinearVelocity = b.LinearVelocity.Add(gravity.Add(b.force.Mul(b.invMass)).Mul(h))
	b.AngularVelocity = b.AngularVelocity.Add(b.invInertiaWorld.Mul3x1(b.torque).Mul(h))

	b.LinearVelocity = b.LinearVelocity.Mul(1 / (1 + h*b.LinearDamping))
	b.AngularVelocity = b.AngularVelocity.Mul(1 / (1 + h*b.AngularDamping))
	b.ClearForces()
}

// IntegratePose advances the pose by the current velocities.
func (b *Body) IntegratePose(h float64) {
	if b.kind == Static || (b.kind == Dynamic && b.invMass == 0) {
		return
	}
	b.Pose.Position = b.Pose.Position.Add(b.LinearVelocity.Mul(h))
	b.Pose.Rotation = geom.Rotate(b.Pose.Rotation, b.AngularVelocity.Mul(h))
	b.updateInertia()
}

// KineticEnergy returns the translational plus rotational kinetic energy.
func (b *Body) KineticEnergy() float64 {
	if b.kind != Dynamic {
		return 0
	}
	lin := 0.5 * b.mass * b.LinearVelocity.LenSqr()
	r := b.Pose.Basis()
	inertiaWorld := r.Mul3(b.inertiaLocal).Mul3(r.Transpose())
	ang := 0.5 * b.AngularVelocity.Dot(inertiaWorld.Mul3x1(b.AngularVelocity))
	return lin + ang
}

// Momentum returns the linear momentum.
func (b *Body) Momentum() mgl64.Vec3 {
	if b.kind != Dynamic {
		return mgl64.Vec3{}
	}
	return b.LinearVelocity.Mul(b.mass)
}

// IsValid reports whether pose and velocities are finite.
func (b *Body) IsValid() bool {
	return b.Pose.IsValid() && geom.IsFinite(b.LinearVelocity) && geom.IsFinite(b.AngularVelocity)
}
