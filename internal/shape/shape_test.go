package shape

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/motion/internal/geom"
)

func directions() []mgl64.Vec3 {
	dirs := []mgl64.Vec3{
		{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1},
		{1, 1, 0}, {-1, 2, 3}, {0.3, -0.7, 0.2}, {5, 5, 5},
	}
	for i := 0; i < 24; i++ {
		a := float64(i) * math.Pi / 12
		dirs = append(dirs, mgl64.Vec3{math.Cos(a), math.Sin(a*0.5) - 0.3, math.Sin(a)})
	}
	return dirs
}

func TestPrimitiveSupport(t *testing.T) {
	sphere, _ := NewSphere(2)
	box, _ := NewBox(mgl64.Vec3{1, 2, 3})
	cyl, _ := NewCylinder(1, 2)
	cone, _ := NewCone(1, 1)

	tests := []struct {
		name string
		s    Shape
		dir  mgl64.Vec3
		want mgl64.Vec3
	}{
		{"sphere +x", sphere, mgl64.Vec3{3, 0, 0}, mgl64.Vec3{2, 0, 0}},
		{"sphere diagonal", sphere, mgl64.Vec3{1, 1, 0}, mgl64.Vec3{math.Sqrt2, math.Sqrt2, 0}},
		{"box corner", box, mgl64.Vec3{1, -1, 1}, mgl64.Vec3{1, -2, 3}},
		{"cylinder top rim", cyl, mgl64.Vec3{1, 1, 0}, mgl64.Vec3{1, 2, 0}},
		{"cylinder bottom cap", cyl, mgl64.Vec3{0, -1, 0}, mgl64.Vec3{0, -2, 0}},
		{"cone apex", cone, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 1, 0}},
		{"cone base rim", cone, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{1, -1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.s.FarthestPointAlong(geom.Identity(), tt.dir)
			if !got.ApproxEqualThreshold(tt.want, 1e-9) {
				t.Errorf("FarthestPointAlong(%v) = %v, want %v", tt.dir, got, tt.want)
			}
		})
	}
}

func TestSupportFollowsTransform(t *testing.T) {
	box, _ := NewBox(mgl64.Vec3{1, 0.5, 0.5})
	ref := geom.AxisAngle(mgl64.Vec3{10, 0, 0}, mgl64.Vec3{0, 0, 1}, math.Pi/2)

	// the long axis now points along world Y
	got := box.FarthestPointAlong(ref, mgl64.Vec3{0, 1, 0})
	if math.Abs(got.Y()-1) > 1e-9 {
		t.Errorf("rotated box support y = %f, want 1", got.Y())
	}
	if math.Abs(got.X()-10) > 0.5+1e-9 {
		t.Errorf("rotated box support x = %f, want within 0.5 of 10", got.X())
	}
}

func TestSupportIsFarthestForHulls(t *testing.T) {
	pts := []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {0.2, 0.2, 0.2}}
	hull, err := NewConvexHull(pts)
	if err != nil {
		t.Fatal(err)
	}
	capsule, _ := NewCapsule(0.5, 1)
	mesh, err := NewTrimesh(pts[:4], []int{0, 1, 2, 0, 1, 3, 0, 2, 3, 1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}

	for _, s := range []Shape{hull, mesh} {
		for _, d := range directions() {
			got := s.FarthestPointAlong(geom.Identity(), d)
			for _, p := range pts[:4] {
				if p.Dot(d) > got.Dot(d)+1e-12 {
					t.Errorf("%s: point %v beats support %v along %v", s.Type(), p, got, d)
				}
			}
		}
	}

	got := capsule.FarthestPointAlong(geom.Identity(), mgl64.Vec3{0, 1, 0})
	if !got.ApproxEqualThreshold(mgl64.Vec3{0, 1.5, 0}, 1e-9) {
		t.Errorf("capsule top = %v, want (0, 1.5, 0)", got)
	}
}

func TestGroupSingleChild(t *testing.T) {
	box, _ := NewBox(mgl64.Vec3{1, 2, 0.5})
	local := geom.AxisAngle(mgl64.Vec3{0.5, -1, 2}, mgl64.Vec3{1, 1, 0}, 0.7)
	g := NewGroup(Child{Shape: box, Local: local})
	ref := geom.AxisAngle(mgl64.Vec3{3, 4, 5}, mgl64.Vec3{0, 0, 1}, 1.1)

	for _, scoring := range []Scoring{ScoreProjection, ScoreDistance} {
		g.Scoring = scoring
		for _, d := range directions() {
			want := box.FarthestPointAlong(ref.Mul(local), d)
			got := g.FarthestPointAlong(ref, d)
			if !got.ApproxEqualThreshold(want, 1e-9) {
				t.Errorf("scoring %d dir %v: group = %v, child = %v", scoring, d, got, want)
			}
		}
	}
}

func TestGroupPicksMaxScoringChild(t *testing.T) {
	a, _ := NewSphere(0.5)
	b, _ := NewBox(mgl64.Vec3{0.3, 0.3, 0.3})
	c, _ := NewCylinder(0.4, 1)
	children := []Child{
		{Shape: a, Local: geom.Translation(mgl64.Vec3{-2, 0, 0})},
		{Shape: b, Local: geom.Translation(mgl64.Vec3{2, 1, 0})},
		{Shape: c, Local: geom.AxisAngle(mgl64.Vec3{0, -1, 2}, mgl64.Vec3{1, 0, 0}, 0.4)},
	}
	g := NewGroup(children...)
	ref := geom.AxisAngle(mgl64.Vec3{1, 1, 1}, mgl64.Vec3{0, 1, 0}, 0.3)

	for _, d := range directions() {
		var want mgl64.Vec3
		best := math.Inf(-1)
		for _, ch := range children {
			p := ch.Shape.FarthestPointAlong(ref.Mul(ch.Local), d)
			if p.Dot(d) > best {
				want, best = p, p.Dot(d)
			}
		}
		got := g.FarthestPointAlong(ref, d)
		if !got.ApproxEqualThreshold(want, 1e-9) {
			t.Errorf("dir %v: group = %v, want %v", d, got, want)
		}
	}
}

func TestGroupTieKeepsFirstChild(t *testing.T) {
	s1, _ := NewSphere(1)
	s2, _ := NewSphere(1)
	g := NewGroup(
		Child{Shape: s1, Local: geom.Translation(mgl64.Vec3{0, 0, 1})},
		Child{Shape: s2, Local: geom.Translation(mgl64.Vec3{0, 0, -1})},
	)

	for _, scoring := range []Scoring{ScoreProjection, ScoreDistance} {
		g.Scoring = scoring
		got := g.FarthestPointAlong(geom.Identity(), mgl64.Vec3{1, 0, 0})
		want := mgl64.Vec3{1, 0, 1}
		if !got.ApproxEqualThreshold(want, 1e-9) {
			t.Errorf("scoring %d: tie resolved to %v, want first child %v", scoring, got, want)
		}
	}
}

func TestGroupScoreDistance(t *testing.T) {
	near, _ := NewSphere(0.1)
	far, _ := NewSphere(0.1)
	g := NewGroup(
		Child{Shape: near, Local: geom.Translation(mgl64.Vec3{1, 0, 0})},
		Child{Shape: far, Local: geom.Translation(mgl64.Vec3{-5, 0, 0})},
	)
	g.Scoring = ScoreDistance

	got := g.FarthestPointAlong(geom.Identity(), mgl64.Vec3{1, 0, 0})
	want := mgl64.Vec3{-4.9, 0, 0}
	if !got.ApproxEqualThreshold(want, 1e-9) {
		t.Errorf("distance scoring = %v, want %v", got, want)
	}
}

func TestEmptyGroup(t *testing.T) {
	g := NewGroup()
	p := g.FarthestPointAlong(geom.Identity(), mgl64.Vec3{1, 0, 0})
	if !math.IsNaN(p[0]) {
		t.Errorf("empty group support = %v, want NaN", p)
	}
	if err := g.Validate(); !errors.Is(err, ErrEmptyGroup) {
		t.Errorf("Validate() = %v, want ErrEmptyGroup", err)
	}

	outer := NewGroup(Child{Shape: g, Local: geom.Identity()})
	if err := outer.Validate(); !errors.Is(err, ErrEmptyGroup) {
		t.Errorf("nested Validate() = %v, want ErrEmptyGroup", err)
	}
}

func TestGroupInertiaParallelAxis(t *testing.T) {
	s, _ := NewSphere(1)
	g := NewGroup(Child{Shape: s, Local: geom.Translation(mgl64.Vec3{2, 0, 0})})
	in := g.Inertia(1)

	// about x the offset adds nothing, about y and z it adds m*d^2
	if math.Abs(in.At(0, 0)-0.4) > 1e-9 {
		t.Errorf("Ixx = %f, want 0.4", in.At(0, 0))
	}
	if math.Abs(in.At(1, 1)-4.4) > 1e-9 {
		t.Errorf("Iyy = %f, want 4.4", in.At(1, 1))
	}
}

func TestInvalidDimensions(t *testing.T) {
	if _, err := NewSphere(0); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("NewSphere(0) error = %v", err)
	}
	if _, err := NewBox(mgl64.Vec3{1, -1, 1}); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("NewBox negative error = %v", err)
	}
	if _, err := NewConvexHull(nil); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("NewConvexHull(nil) error = %v", err)
	}
	if _, err := NewTrimesh([]mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}, []int{0, 1, 5}); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("NewTrimesh bad index error = %v", err)
	}
}

func TestTypeString(t *testing.T) {
	if TypeConvexHull.String() != "convex_hull" {
		t.Errorf("TypeConvexHull.String() = %q", TypeConvexHull.String())
	}
	if Type(99).String() != "unknown" {
		t.Errorf("Type(99).String() = %q", Type(99).String())
	}
}

func TestDeferred(t *testing.T) {
	release := make(chan struct{})
	d := Load(context.Background(), func(ctx context.Context) (Shape, error) {
		<-release
		return NewSphere(1)
	})

	if _, ok := d.Get(); ok {
		t.Fatal("shape available before loader finished")
	}

	close(release)
	select {
	case <-d.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("loader did not publish")
	}

	s, ok := d.Get()
	if !ok || s.Type() != TypeSphere {
		t.Errorf("Get() = %v, %v", s, ok)
	}
}

func TestDeferredRejectsEmptyGroup(t *testing.T) {
	d := Load(context.Background(), func(ctx context.Context) (Shape, error) {
		return NewGroup(), nil
	})
	<-d.Done()

	if _, ok := d.Get(); ok {
		t.Error("empty group published as ready")
	}
	if !errors.Is(d.Err(), ErrEmptyGroup) {
		t.Errorf("Err() = %v, want ErrEmptyGroup", d.Err())
	}
}

func TestResolveRejectsEmptyGroup(t *testing.T) {
	d := NewDeferred()
	if !d.Resolve(NewGroup(), nil) {
		t.Fatal("first Resolve did not win")
	}
	if _, ok := d.Get(); ok {
		t.Error("empty group published as ready")
	}
	if !errors.Is(d.Err(), ErrEmptyGroup) {
		t.Errorf("Err() = %v, want ErrEmptyGroup", d.Err())
	}
	select {
	case <-d.Done():
	default:
		t.Error("Done not closed after Resolve")
	}

	s, _ := NewSphere(1)
	if d.Resolve(s, nil) {
		t.Error("second Resolve replaced the first")
	}
}

func TestConeInertiaAboutOrigin(t *testing.T) {
	c, err := NewCone(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	// 0.3 about the centre of mass plus 1 * 0.5^2 to reach the origin
	want := mgl64.Diag3(mgl64.Vec3{0.55, 0.3, 0.55})
	if got := c.Inertia(1); !got.ApproxEqualThreshold(want, 1e-12) {
		t.Errorf("Inertia(1) = %v, want %v", got, want)
	}
}
