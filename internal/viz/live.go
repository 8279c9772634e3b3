package viz

import (
	"fmt"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/motion/internal/dynamics"
	"github.com/san-kum/motion/internal/metrics"
	"github.com/san-kum/motion/internal/scene"
	"github.com/san-kum/motion/internal/solver"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 600
)

type TickMsg time.Time

// Builder produces a fresh scene; the live view calls it again on reset.
type Builder func() (*scene.Scene, error)

type Model struct {
	build    Builder
	scene    *scene.Scene
	name     string
	dt       float64
	fps      int
	canvas   *Canvas
	proj     *Projection
	running  bool
	showHelp bool
	solvers  []string
	solver   int
	energy   []float64
	iters    []float64
	err      error
}

func NewModel(name string, build Builder, dt float64, fps int) (Model, error) {
	sc, err := build()
	if err != nil {
		return Model{}, err
	}
	m := Model{
		build:   build,
		scene:   sc,
		name:    name,
		dt:      dt,
		fps:     max(fps, 1),
		canvas:  NewCanvas(width, height),
		running: true,
		solvers: solver.Names(),
		energy:  make([]float64, 0, historyCapacity),
		iters:   make([]float64, 0, historyCapacity),
	}
	m.solver = max(slices.Index(m.solvers, sc.World.Solver().Name()), 0)
	m.proj = NewProjection(m.canvas, ViewSide)
	m.fit()
	return m, nil
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return m.tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "n":
			if !m.running {
				m.step()
			}
		case "r":
			m.reset()
		case "s":
			m.cycleSolver()
		case "v":
			m.proj.View = m.proj.View.Next()
			m.fit()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running && m.err == nil {
			m.step()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) step() {
	if err := m.scene.World.Step(m.dt); err != nil {
		m.err = err
		m.running = false
		return
	}
	m.energy = push(m.energy, metrics.Total(m.scene.World))
	m.iters = push(m.iters, float64(m.scene.World.Residual().Iterations))
}

func push(s []float64, v float64) []float64 {
	s = append(s, v)
	if len(s) > historyCapacity {
		s = s[1:]
	}
	return s
}

// reset rebuilds the scene, keeping the selected solver.
func (m *Model) reset() {
	sc, err := m.build()
	if err != nil {
		m.err = err
		return
	}
	m.scene = sc
	m.err = nil
	m.energy = m.energy[:0]
	m.iters = m.iters[:0]
	m.applySolver()
	m.fit()
}

func (m *Model) cycleSolver() {
	m.solver = (m.solver + 1) % len(m.solvers)
	m.applySolver()
}

func (m *Model) applySolver() {
	cfg := *m.scene.Config
	cfg.Solver = m.solvers[m.solver]
	s, err := scene.Solver(&cfg)
	if err != nil {
		m.err = err
		return
	}
	m.scene.World.SetSolver(s)
}

// fit frames the dynamic bodies, falling back to everything when a scene
// has none.
func (m *Model) fit() {
	var pts []mgl64.Vec3
	radius := 0.5
	m.scene.World.Each(func(b *dynamics.Body) {
		if b.Kind() != dynamics.Dynamic {
			return
		}
		pts = append(pts, b.Pose.Position)
		if s, ok := b.Shape(); ok {
			radius = max(radius, s.Radius())
		}
	})
	if len(pts) == 0 {
		m.scene.World.Each(func(b *dynamics.Body) { pts = append(pts, b.Pose.Position) })
	}
	m.proj.Fit(pts, 2*radius)
}

func (m *Model) draw() {
	m.canvas.Clear()
	m.scene.World.Each(func(b *dynamics.Body) { DrawBody(m.canvas, m.proj, b) })
}

func (m Model) View() string {
	m.draw()
	canvasView := canvasStyle.Render(m.canvas.String())

	w := m.scene.World
	r := w.Residual()

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.name)) + "\n")
	switch {
	case m.err != nil:
		s.WriteString(errorStyle.Render("ERROR: "+m.err.Error()) + "\n\n")
	case m.running:
		s.WriteString(StatusRunning.Render("RUNNING") + "\n\n")
	default:
		s.WriteString(StatusPaused.Render("PAUSED") + "\n\n")
	}

	if len(m.energy) > 1 {
		chart := asciigraph.Plot(m.energy, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", w.Time()))
	row("Steps", fmt.Sprintf("%d", w.Steps()))
	row("Solver", w.Solver().Name())
	row("View", m.proj.View.String())
	row("Bodies", fmt.Sprintf("%d", w.Len()))
	row("Contacts", fmt.Sprintf("%d", r.Contacts))
	row("Joints", fmt.Sprintf("%d", r.Joints))
	row("Residual", fmt.Sprintf("%.2e", r.MaxVelocity))
	row("Converged", fmt.Sprintf("%v", r.Converged))
	if n := len(m.energy); n > 0 {
		row("Energy", fmt.Sprintf("%.3f", m.energy[n-1]))
	}
	s.WriteString(labelStyle.Render("Iterations") + Sparkline(m.iters, 20) + "\n")

	s.WriteString(helpStyle.Render("\n─────────────────────\nSP:Pause N:Step R:Reset\nS:Solver V:View ?:Help Q:Quit"))
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  N        - Single step (paused)     ║
║  R        - Rebuild scene            ║
║  S        - Cycle solver             ║
║  V        - Cycle projection         ║
║  Q        - Quit                     ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝`

// Run starts the live view on the alternate screen.
func Run(name string, build Builder, dt float64, fps int) error {
	m, err := NewModel(name, build, dt, fps)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
