package viz

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/motion/internal/config"
	"github.com/san-kum/motion/internal/dynamics"
	"github.com/san-kum/motion/internal/geom"
	"github.com/san-kum/motion/internal/scene"
	"github.com/san-kum/motion/internal/shape"
	"github.com/san-kum/motion/internal/sim"
)

func TestCanvasSet(t *testing.T) {
	c := NewCanvas(4, 2)
	c.Set(3, 5)
	if !c.IsSet(3, 5) {
		t.Error("expected dot to be set")
	}
	if c.IsSet(2, 5) {
		t.Error("neighbouring dot set")
	}
	// out of range is ignored
	c.Set(-1, 0)
	c.Set(100, 100)

	c.Clear()
	if c.IsSet(3, 5) {
		t.Error("expected clear canvas")
	}
	if got := strings.Count(c.String(), "\n"); got != 2 {
		t.Errorf("String() has %d lines, want 2", got)
	}
}

func TestCanvasDrawLine(t *testing.T) {
	c := NewCanvas(10, 5)
	c.DrawLine(0, 0, 19, 19)
	for _, p := range [][2]int{{0, 0}, {10, 10}, {19, 19}} {
		if !c.IsSet(p[0], p[1]) {
			t.Errorf("dot %v not on line", p)
		}
	}
}

func TestCanvasDrawCircle(t *testing.T) {
	c := NewCanvas(20, 10)
	c.DrawCircle(20, 20, 8)
	for _, p := range [][2]int{{28, 20}, {12, 20}, {20, 28}, {20, 12}} {
		if !c.IsSet(p[0], p[1]) {
			t.Errorf("dot %v not on circle", p)
		}
	}
	if c.IsSet(20, 20) {
		t.Error("centre should be empty")
	}
}

func TestProjectionViews(t *testing.T) {
	c := NewCanvas(40, 20)
	q := mgl64.Vec3{1, 2, 3}

	tests := []struct {
		view   View
		wx, wy int
	}{
		{ViewSide, 40 + 8, 40 - 16},
		{ViewFront, 40 + 24, 40 - 16},
		{ViewTop, 40 + 8, 40 + 24},
	}
	for _, tt := range tests {
		t.Run(tt.view.String(), func(t *testing.T) {
			p := NewProjection(c, tt.view)
			x, y := p.Point(q)
			if x != tt.wx || y != tt.wy {
				t.Errorf("Point() = (%d, %d), want (%d, %d)", x, y, tt.wx, tt.wy)
			}
		})
	}
	if ViewTop.Next() != ViewSide {
		t.Error("views should cycle")
	}
}

func TestProjectionFit(t *testing.T) {
	c := NewCanvas(40, 20)
	p := NewProjection(c, ViewSide)
	p.Fit([]mgl64.Vec3{{-4, 0, 0}, {4, 2, 0}}, 0)

	if p.Center != (mgl64.Vec3{0, 1, 0}) {
		t.Errorf("centre = %v", p.Center)
	}
	for _, q := range []mgl64.Vec3{{-4, 0, 0}, {4, 2, 0}} {
		x, y := p.Point(q)
		if x < 0 || x >= 80 || y < 0 || y >= 80 {
			t.Errorf("%v projected off canvas at (%d, %d)", q, x, y)
		}
	}
}

func TestDrawBody(t *testing.T) {
	box, _ := shape.NewBox(mgl64.Vec3{1, 1, 1})
	b, err := dynamics.NewBody(dynamics.BodyDef{Kind: dynamics.Static, Shape: box, Pose: geom.Identity()})
	if err != nil {
		t.Fatal(err)
	}
	c := NewCanvas(40, 20)
	p := NewProjection(c, ViewSide)
	DrawBody(c, p, b)

	// corners of the unit box at scale 8
	for _, d := range [][2]int{{32, 32}, {48, 32}, {32, 48}, {48, 48}} {
		if !c.IsSet(d[0], d[1]) {
			t.Errorf("corner %v not drawn", d)
		}
	}
}

func newLive(t *testing.T) Model {
	t.Helper()
	build := func() (*scene.Scene, error) { return scene.Build(config.GetPreset("rest"), nil) }
	m, err := NewModel("rest", build, 1.0/60, 30)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func key(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestModelTicksAndPause(t *testing.T) {
	m := newLive(t)

	next, cmd := m.Update(TickMsg{})
	m = next.(Model)
	if cmd == nil {
		t.Error("tick should schedule another tick")
	}
	if m.scene.World.Steps() != 1 {
		t.Errorf("steps = %d after one tick", m.scene.World.Steps())
	}

	next, _ = m.Update(key(' '))
	m = next.(Model)
	next, _ = m.Update(TickMsg{})
	m = next.(Model)
	if m.scene.World.Steps() != 1 {
		t.Error("paused model should not step on tick")
	}

	next, _ = m.Update(key('n'))
	m = next.(Model)
	if m.scene.World.Steps() != 2 {
		t.Errorf("single step: steps = %d", m.scene.World.Steps())
	}
}

func TestModelSolverAndReset(t *testing.T) {
	m := newLive(t)
	before := m.scene.World.Solver().Name()

	next, _ := m.Update(key('s'))
	m = next.(Model)
	after := m.scene.World.Solver().Name()
	if after == before {
		t.Errorf("solver did not change from %s", before)
	}

	m.Update(TickMsg{})
	next, _ = m.Update(key('r'))
	m = next.(Model)
	if m.scene.World.Steps() != 0 {
		t.Error("reset should rebuild the scene")
	}
	if m.scene.World.Solver().Name() != after {
		t.Error("reset should keep the selected solver")
	}
}

func TestModelView(t *testing.T) {
	m := newLive(t)
	for i := 0; i < 3; i++ {
		next, _ := m.Update(TickMsg{})
		m = next.(Model)
	}
	out := m.View()
	for _, want := range []string{"REST", "RUNNING", "Solver", "Contacts"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}

	if _, cmd := m.Update(key('q')); cmd == nil {
		t.Error("q should quit")
	}
}

func TestSeries(t *testing.T) {
	frames := []sim.Frame{
		{Bodies: []sim.BodyState{{Name: "a", Position: mgl64.Vec3{0, 1, 0}}}},
		{Bodies: []sim.BodyState{{Name: "b"}}},
		{Bodies: []sim.BodyState{{Name: "a", Position: mgl64.Vec3{0, 2, 0}, Velocity: mgl64.Vec3{3, 4, 0}}}},
	}

	ys, err := Series(frames, "a", "y")
	if err != nil || len(ys) != 2 || ys[1] != 2 {
		t.Errorf("Series(y) = %v, %v", ys, err)
	}
	speed, _ := Series(frames, "a", "speed")
	if speed[1] != 5 {
		t.Errorf("speed = %v", speed)
	}
	if _, err := Series(frames, "a", "colour"); err == nil {
		t.Error("expected unknown field error")
	}
	if _, err := Series(frames, "c", "y"); err == nil {
		t.Error("expected missing body error")
	}

	out, err := Plot(frames, "a", "y", 20, 5)
	if err != nil || !strings.Contains(out, "a.y vs time") {
		t.Errorf("Plot() = %q, %v", out, err)
	}
}
