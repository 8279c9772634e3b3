package config

import "sort"

func groundBody() BodyConfig {
	return BodyConfig{
		Name:     "ground",
		Kind:     "static",
		Shape:    ShapeConfig{Type: "box", HalfExtents: []float64{10, 0.5, 10}},
		Position: []float64{0, -0.5, 0},
		Friction: 0.6,
	}
}

func withBodies(bodies ...BodyConfig) *Scene {
	s := DefaultScene()
	s.Bodies = bodies
	return s
}

// Presets builds each built-in scene fresh so callers may modify the result.
var Presets = map[string]func() *Scene{
	"rest": func() *Scene {
		return withBodies(groundBody(), BodyConfig{
			Name:     "ball",
			Shape:    ShapeConfig{Type: "sphere", Radius: 0.5},
			Mass:     1,
			Position: []float64{0, 0.5, 0},
			Friction: 0.5,
		})
	},
	"collision": func() *Scene {
		s := withBodies(
			BodyConfig{Name: "a", Shape: ShapeConfig{Type: "sphere", Radius: 0.5}, Mass: 1, Position: []float64{0, 0, 0}},
			BodyConfig{Name: "b", Shape: ShapeConfig{Type: "sphere", Radius: 0.5}, Mass: 1, Position: []float64{3, 0, 0}, Velocity: []float64{-2, 0, 0}},
		)
		s.Gravity = []float64{0, 0, 0}
		s.Duration = 2
		return s
	},
	"stack": func() *Scene {
		bodies := []BodyConfig{groundBody()}
		for i, name := range []string{"crate1", "crate2", "crate3", "crate4"} {
			bodies = append(bodies, BodyConfig{
				Name:     name,
				Shape:    ShapeConfig{Type: "box", HalfExtents: []float64{0.5, 0.5, 0.5}},
				Density:  1,
				Position: []float64{0, 0.5 + float64(i), 0},
				Friction: 0.6,
			})
		}
		s := withBodies(bodies...)
		s.Iterations.Velocity = 20
		return s
	},
	"pendulum": func() *Scene {
		s := withBodies(
			BodyConfig{Name: "pivot", Kind: "static", Shape: ShapeConfig{Type: "sphere", Radius: 0.05}, Position: []float64{0, 3, 0}},
			BodyConfig{Name: "bob1", Shape: ShapeConfig{Type: "sphere", Radius: 0.2}, Mass: 1, Position: []float64{1, 3, 0}},
			BodyConfig{Name: "bob2", Shape: ShapeConfig{Type: "sphere", Radius: 0.2}, Mass: 1, Position: []float64{2, 3, 0}},
		)
		s.Joints = []JointConfig{
			{Type: "distance", A: "pivot", B: "bob1", Anchor: []float64{0, 3, 0}, AnchorB: []float64{1, 3, 0}},
			{Type: "ball", A: "bob1", B: "bob2", Anchor: []float64{1.5, 3, 0}},
		}
		s.Duration = 10
		return s
	},
	"mixed": func() *Scene {
		return withBodies(
			groundBody(),
			BodyConfig{Name: "ball", Shape: ShapeConfig{Type: "sphere", Radius: 0.4}, Mass: 1, Position: []float64{-2, 3, 0}, Restitution: 0.5},
			BodyConfig{Name: "crate", Shape: ShapeConfig{Type: "box", HalfExtents: []float64{0.4, 0.4, 0.4}}, Mass: 2, Position: []float64{0, 2, 0}, Axis: []float64{0, 0, 1}, Angle: 0.3, Friction: 0.5},
			BodyConfig{Name: "capsule", Shape: ShapeConfig{Type: "capsule", Radius: 0.25, HalfHeight: 0.5}, Mass: 1, Position: []float64{2, 2, 0}, Friction: 0.5},
			BodyConfig{Name: "dumbbell", Shape: ShapeConfig{Type: "group", Children: []ChildConfig{
				{Shape: ShapeConfig{Type: "sphere", Radius: 0.3}, Position: []float64{-0.5, 0, 0}},
				{Shape: ShapeConfig{Type: "sphere", Radius: 0.3}, Position: []float64{0.5, 0, 0}},
			}}, Mass: 2, Position: []float64{0, 4, 0}, Friction: 0.4},
			BodyConfig{Name: "cone", Shape: ShapeConfig{Type: "cone", Radius: 0.4, HalfHeight: 0.4}, Mass: 1, Position: []float64{-1, 1, 1}},
		)
	},
}

func GetPreset(name string) *Scene {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	return fn()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
