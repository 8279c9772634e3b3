package sim

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestBodyState_IsValid(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name  string
		state BodyState
		valid bool
	}{
		{"identity", BodyState{Rotation: mgl64.QuatIdent()}, true},
		{"moving", BodyState{Position: mgl64.Vec3{1, 2, 3}, Rotation: mgl64.QuatIdent(), Velocity: mgl64.Vec3{0, -1, 0}}, true},
		{"NaN position", BodyState{Position: mgl64.Vec3{nan, 0, 0}, Rotation: mgl64.QuatIdent()}, false},
		{"Inf velocity", BodyState{Rotation: mgl64.QuatIdent(), Velocity: mgl64.Vec3{math.Inf(1), 0, 0}}, false},
		{"NaN spin", BodyState{Rotation: mgl64.QuatIdent(), AngularVelocity: mgl64.Vec3{0, nan, 0}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestFrame_Body(t *testing.T) {
	f := Frame{Bodies: []BodyState{{Name: "a"}, {Name: "b", Position: mgl64.Vec3{1, 0, 0}}}}

	b, ok := f.Body("b")
	if !ok || b.Position.X() != 1 {
		t.Errorf("Body(b) = %v, %v", b, ok)
	}
	if _, ok := f.Body("missing"); ok {
		t.Error("expected missing body to be absent")
	}
}

func TestFrame_IsValid(t *testing.T) {
	good := BodyState{Rotation: mgl64.QuatIdent()}
	bad := BodyState{Rotation: mgl64.QuatIdent(), Velocity: mgl64.Vec3{math.NaN(), 0, 0}}

	if !(Frame{Bodies: []BodyState{good}}).IsValid() {
		t.Error("expected valid frame")
	}
	if (Frame{Bodies: []BodyState{good, bad}}).IsValid() {
		t.Error("expected invalid frame")
	}
}

func TestSimError(t *testing.T) {
	var err error = SimError{Time: 0.5, Step: 30, Message: "boom"}
	want := "step 30 (t=0.5000): boom"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	var se SimError
	if !errors.As(err, &se) || se.Step != 30 {
		t.Errorf("errors.As failed: %v", se)
	}
}
