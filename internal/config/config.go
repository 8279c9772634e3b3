// Package config loads and validates YAML scene files.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDt             = 1.0 / 60
	DefaultDuration       = 5.0
	DefaultSolver         = "sequential"
	DefaultVelocityPasses = 1
	DefaultVelocityIters  = 10
	DefaultPositionIters  = 4
)

var ErrInvalid = errors.New("config: invalid scene")

type Scene struct {
	Solver         string           `yaml:"solver"`
	Dt             float64          `yaml:"dt"`
	Duration       float64          `yaml:"duration"`
	Gravity        []float64        `yaml:"gravity,flow"`
	VelocityPasses int              `yaml:"velocity_passes"`
	Iterations     IterationsConfig `yaml:"iterations"`
	WarmStart      bool             `yaml:"warm_start"`
	Bodies         []BodyConfig     `yaml:"bodies"`
	Joints         []JointConfig    `yaml:"joints,omitempty"`
}

type IterationsConfig struct {
	Position int `yaml:"position"`
	Velocity int `yaml:"velocity"`
}

type BodyConfig struct {
	Name            string      `yaml:"name"`
	Kind            string      `yaml:"kind"`
	Shape           ShapeConfig `yaml:"shape"`
	Mass            float64     `yaml:"mass,omitempty"`
	Density         float64     `yaml:"density,omitempty"`
	Position        []float64   `yaml:"position,flow"`
	Axis            []float64   `yaml:"axis,flow,omitempty"`
	Angle           float64     `yaml:"angle,omitempty"`
	Velocity        []float64   `yaml:"velocity,flow,omitempty"`
	AngularVelocity []float64   `yaml:"angular_velocity,flow,omitempty"`
	Friction        float64     `yaml:"friction,omitempty"`
	Restitution     float64     `yaml:"restitution,omitempty"`
	LinearDamping   float64     `yaml:"linear_damping,omitempty"`
	AngularDamping  float64     `yaml:"angular_damping,omitempty"`
}

type ShapeConfig struct {
	Type        string         `yaml:"type"`
	Radius      float64        `yaml:"radius,omitempty"`
	HalfExtents []float64      `yaml:"half_extents,flow,omitempty"`
	HalfHeight  float64        `yaml:"half_height,omitempty"`
	Points      [][]float64    `yaml:"points,flow,omitempty"`
	Spheres     []SphereConfig `yaml:"spheres,omitempty"`
	Children    []ChildConfig  `yaml:"children,omitempty"`
}

type SphereConfig struct {
	Center []float64 `yaml:"center,flow"`
	Radius float64   `yaml:"radius"`
}

type ChildConfig struct {
	Shape    ShapeConfig `yaml:"shape"`
	Position []float64   `yaml:"position,flow,omitempty"`
	Axis     []float64   `yaml:"axis,flow,omitempty"`
	Angle    float64     `yaml:"angle,omitempty"`
}

type JointConfig struct {
	Type    string    `yaml:"type"`
	A       string    `yaml:"a"`
	B       string    `yaml:"b"`
	Anchor  []float64 `yaml:"anchor,flow"`
	AnchorB []float64 `yaml:"anchor_b,flow,omitempty"`
}

func DefaultScene() *Scene {
	return &Scene{
		Solver:         DefaultSolver,
		Dt:             DefaultDt,
		Duration:       DefaultDuration,
		Gravity:        []float64{0, -9.81, 0},
		VelocityPasses: DefaultVelocityPasses,
		Iterations: IterationsConfig{
			Position: DefaultPositionIters,
			Velocity: DefaultVelocityIters,
		},
		WarmStart: true,
	}
}

func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a scene over the defaults and validates it.
func Parse(data []byte) (*Scene, error) {
	s := DefaultScene()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func Save(path string, s *Scene) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (s *Scene) Validate() error {
	if s.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalid, s.Dt)
	}
	if s.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %f", ErrInvalid, s.Duration)
	}
	if err := checkVec("gravity", s.Gravity); err != nil {
		return err
	}

	names := make(map[string]bool, len(s.Bodies))
	for i, b := range s.Bodies {
		if b.Name == "" {
			return fmt.Errorf("%w: body %d has no name", ErrInvalid, i)
		}
		if names[b.Name] {
			return fmt.Errorf("%w: duplicate body %q", ErrInvalid, b.Name)
		}
		names[b.Name] = true
		switch b.Kind {
		case "", "dynamic", "static", "kinematic":
		default:
			return fmt.Errorf("%w: body %q: unknown kind %q", ErrInvalid, b.Name, b.Kind)
		}
		for field, v := range map[string][]float64{
			"position":         b.Position,
			"axis":             b.Axis,
			"velocity":         b.Velocity,
			"angular_velocity": b.AngularVelocity,
		} {
			if err := checkVec(b.Name+"."+field, v); err != nil {
				return err
			}
		}
	}

	for i, j := range s.Joints {
		for _, name := range []string{j.A, j.B} {
			if !names[name] {
				return fmt.Errorf("%w: joint %d references unknown body %q", ErrInvalid, i, name)
			}
		}
		if err := checkVec(fmt.Sprintf("joint %d anchor", i), j.Anchor); err != nil {
			return err
		}
	}
	return nil
}

func checkVec(field string, v []float64) error {
	if len(v) != 0 && len(v) != 3 {
		return fmt.Errorf("%w: %s needs 3 components, got %d", ErrInvalid, field, len(v))
	}
	return nil
}
