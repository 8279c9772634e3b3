package dynamics

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/motion/internal/geom"
	"github.com/san-kum/motion/internal/shape"
)

func unitSphere(t *testing.T) shape.Shape {
	t.Helper()
	s, err := shape.NewSphere(1)
	if err != nil {
		t.Fatalf("sphere: %v", err)
	}
	return s
}

func TestNewBodyMass(t *testing.T) {
	s := unitSphere(t)

	tests := []struct {
		name    string
		def     BodyDef
		mass    float64
		wantErr error
	}{
		{"explicit mass", BodyDef{Kind: Dynamic, Mass: 2, Shape: s}, 2, nil},
		{"density", BodyDef{Kind: Dynamic, Density: 3, Shape: s}, 4 * math.Pi, nil},
		{"no mass", BodyDef{Kind: Dynamic, Shape: s}, 0, ErrZeroMass},
		{"negative mass", BodyDef{Kind: Dynamic, Mass: -1}, 0, ErrZeroMass},
		{"infinite mass", BodyDef{Kind: Dynamic, Mass: math.Inf(1)}, 0, ErrZeroMass},
		{"static", BodyDef{Kind: Static, Shape: s}, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.def.Pose = geom.Identity()
			b, err := NewBody(tt.def)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(b.Mass()-tt.mass) > 1e-9 {
				t.Errorf("expected mass %f, got %f", tt.mass, b.Mass())
			}
		})
	}
}

func TestNewBodyRejectsEmptyGroup(t *testing.T) {
	_, err := NewBody(BodyDef{Kind: Dynamic, Mass: 1, Pose: geom.Identity(), Shape: shape.NewGroup()})
	if !errors.Is(err, shape.ErrEmptyGroup) {
		t.Fatalf("expected ErrEmptyGroup, got %v", err)
	}
}

func TestStaticBodyIgnoresImpulses(t *testing.T) {
	b, err := NewBody(BodyDef{Kind: Static, Pose: geom.Identity(), LinearVelocity: mgl64.Vec3{1, 0, 0}})
	if err != nil {
		t.Fatal(err)
	}
	b.ApplyImpulse(mgl64.Vec3{10, 0, 0}, mgl64.Vec3{0, 1, 0})
	b.ApplyForce(mgl64.Vec3{10, 0, 0})
	b.IntegrateVelocity(0.1, mgl64.Vec3{0, -9.81, 0})
	b.IntegratePose(0.1)

	if b.LinearVelocity != (mgl64.Vec3{}) {
		t.Errorf("static body gained velocity %v", b.LinearVelocity)
	}
	if b.Pose.Position != (mgl64.Vec3{}) {
		t.Errorf("static body moved to %v", b.Pose.Position)
	}
	if b.InverseMass() != 0 {
		t.Errorf("expected zero inverse mass, got %f", b.InverseMass())
	}
}

func TestKinematicBodyMoves(t *testing.T) {
	b, err := NewBody(BodyDef{Kind: Kinematic, Pose: geom.Identity(), LinearVelocity: mgl64.Vec3{1, 0, 0}})
	if err != nil {
		t.Fatal(err)
	}
	b.IntegrateVelocity(0.5, mgl64.Vec3{0, -9.81, 0})
	b.IntegratePose(0.5)
	if !b.Pose.Position.ApproxEqualThreshold(mgl64.Vec3{0.5, 0, 0}, 1e-12) {
		t.Errorf("expected kinematic body at 0.5, got %v", b.Pose.Position)
	}
	if b.Movable() {
		t.Error("kinematic body reports movable")
	}
}

func TestIntegrateVelocity(t *testing.T) {
	b, err := NewBody(BodyDef{Kind: Dynamic, Mass: 2, Pose: geom.Identity()})
	if err != nil {
		t.Fatal(err)
	}
	b.ApplyForce(mgl64.Vec3{4, 0, 0})
	b.IntegrateVelocity(0.5, mgl64.Vec3{0, -10, 0})

	want := mgl64.Vec3{1, -5, 0}
	if !b.LinearVelocity.ApproxEqualThreshold(want, 1e-12) {
		t.Errorf("expected %v, got %v", want, b.LinearVelocity)
	}
	if b.Force() != (mgl64.Vec3{}) {
		t.Errorf("forces not cleared: %v", b.Force())
	}
}

func TestApplyImpulseOffCentre(t *testing.T) {
	b, err := NewBody(BodyDef{Kind: Dynamic, Mass: 1, Shape: unitSphere(t), Pose: geom.Identity()})
	if err != nil {
		t.Fatal(err)
	}
	b.ApplyImpulse(mgl64.Vec3{0, 0.4, 0}, mgl64.Vec3{1, 0, 0})

	if !b.LinearVelocity.ApproxEqualThreshold(mgl64.Vec3{0, 0.4, 0}, 1e-12) {
		t.Errorf("linear velocity %v", b.LinearVelocity)
	}
	// I = 0.4, r x j = (0, 0, 0.4)
	if !b.AngularVelocity.ApproxEqualThreshold(mgl64.Vec3{0, 0, 1}, 1e-12) {
		t.Errorf("angular velocity %v", b.AngularVelocity)
	}
}

func TestDeferredShapeSettlesMass(t *testing.T) {
	big, err := shape.NewSphere(3)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("inertia", func(t *testing.T) {
		pending := shape.NewDeferred()
		b, err := NewBody(BodyDef{Kind: Dynamic, Mass: 1, Pose: geom.Identity(), Deferred: pending})
		if err != nil {
			t.Fatal(err)
		}
		if b.Settle() {
			t.Error("body settled before its shape loaded")
		}
		pending.Resolve(big, nil)
		b.IntegrateVelocity(0.1, mgl64.Vec3{})

		want := mgl64.Diag3(mgl64.Vec3{3.6, 3.6, 3.6})
		if !b.InertiaLocal().ApproxEqualThreshold(want, 1e-9) {
			t.Errorf("expected inertia %v, got %v", want, b.InertiaLocal())
		}
		inv := mgl64.Diag3(mgl64.Vec3{1 / 3.6, 1 / 3.6, 1 / 3.6})
		if !b.InverseInertiaWorld().ApproxEqualThreshold(inv, 1e-9) {
			t.Errorf("expected inverse inertia %v, got %v", inv, b.InverseInertiaWorld())
		}
	})

	t.Run("density", func(t *testing.T) {
		pending := shape.NewDeferred()
		b, err := NewBody(BodyDef{Kind: Dynamic, Density: 2, Pose: geom.Identity(), Deferred: pending})
		if err != nil {
			t.Fatal(err)
		}
		b.IntegrateVelocity(0.1, mgl64.Vec3{0, -10, 0})
		b.IntegratePose(0.1)
		if b.Movable() || b.LinearVelocity != (mgl64.Vec3{}) || b.Pose.Position != (mgl64.Vec3{}) {
			t.Errorf("massless body moved before its shape loaded: v=%v p=%v", b.LinearVelocity, b.Pose.Position)
		}

		pending.Resolve(big, nil)
		b.IntegrateVelocity(0.1, mgl64.Vec3{0, -10, 0})
		mass := 2 * 4.0 / 3.0 * math.Pi * 27
		if math.Abs(b.Mass()-mass) > 1e-9 {
			t.Errorf("expected mass %f, got %f", mass, b.Mass())
		}
		if !b.Movable() {
			t.Error("body still immovable after its shape loaded")
		}
		if !b.LinearVelocity.ApproxEqualThreshold(mgl64.Vec3{0, -1, 0}, 1e-12) {
			t.Errorf("expected gravity after settling, got %v", b.LinearVelocity)
		}
	})

	t.Run("density without shape", func(t *testing.T) {
		_, err := NewBody(BodyDef{Kind: Dynamic, Density: 2, Pose: geom.Identity()})
		if !errors.Is(err, ErrZeroMass) {
			t.Errorf("expected ErrZeroMass, got %v", err)
		}
	})
}

func TestSafeInverseFlatTensor(t *testing.T) {
	m := mgl64.Diag3(mgl64.Vec3{2, 0, 4})
	inv := safeInverse(m)
	want := mgl64.Diag3(mgl64.Vec3{0.5, 0, 0.25})
	if !inv.ApproxEqualThreshold(want, 1e-12) {
		t.Errorf("expected %v, got %v", want, inv)
	}
}

func TestArena(t *testing.T) {
	var a Arena
	b1, _ := NewBody(BodyDef{Kind: Static, Pose: geom.Identity()})
	b2, _ := NewBody(BodyDef{Kind: Static, Pose: geom.Identity()})

	id1 := a.Insert(b1)
	id2 := a.Insert(b2)
	if id1 == id2 {
		t.Fatal("ids collide")
	}
	if got, ok := a.Get(id1); !ok || got != b1 {
		t.Fatal("lookup failed")
	}
	if _, ok := a.Get(ID{}); ok {
		t.Error("zero id resolved")
	}

	if _, ok := a.Remove(id1); !ok {
		t.Fatal("remove failed")
	}
	if _, ok := a.Get(id1); ok {
		t.Error("stale id still resolves")
	}
	if a.Len() != 1 {
		t.Errorf("expected 1 body, got %d", a.Len())
	}

	b3, _ := NewBody(BodyDef{Kind: Static, Pose: geom.Identity()})
	id3 := a.Insert(b3)
	if id3 == id1 {
		t.Error("reused slot kept the old generation")
	}
	if _, ok := a.Get(id1); ok {
		t.Error("stale id resolves after slot reuse")
	}
	if len(a.Bodies()) != 2 {
		t.Errorf("expected 2 bodies, got %d", len(a.Bodies()))
	}
}
