// Package tui prints a lightweight ASCII side view of a running simulation.
package tui

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/san-kum/motion/internal/sim"
)

const (
	width       = 70
	height      = 20
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// LiveRenderer is a sim.Observer that redraws at most frameRate times a
// second. Bodies are drawn by the first letter of their name.
type LiveRenderer struct {
	name      string
	frameRate int
	scale     float64
	out       io.Writer
	lastFrame time.Time
	canvas    [][]rune
	trail     []struct{ x, y int }
}

func NewLiveRenderer(name string, frameRate int) *LiveRenderer {
	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
	}
	return &LiveRenderer{
		name:      name,
		frameRate: max(frameRate, 1),
		scale:     4,
		out:       os.Stdout,
		canvas:    canvas,
		trail:     make([]struct{ x, y int }, 0, 50),
	}
}

// SetOutput redirects rendering, mostly for tests.
func (r *LiveRenderer) SetOutput(w io.Writer) { r.out = w }

func (r *LiveRenderer) OnStep(f sim.Frame) {
	if time.Since(r.lastFrame) < time.Second/time.Duration(r.frameRate) {
		return
	}
	r.lastFrame = time.Now()
	r.Draw(f)
}

// Draw renders f unconditionally.
func (r *LiveRenderer) Draw(f sim.Frame) {
	r.clear()
	for i := 5; i < width-5; i++ {
		r.set(i, r.row(0), '=')
	}
	for _, pt := range r.trail {
		r.set(pt.x, pt.y, '.')
	}
	for i, b := range f.Bodies {
		x, y := r.col(b.Position.X()), r.row(b.Position.Y())
		// trail the last body only
		if i == len(f.Bodies)-1 {
			r.trail = append(r.trail, struct{ x, y int }{x, y})
			if len(r.trail) > 40 {
				r.trail = r.trail[1:]
			}
		}
		r.set(x, y, glyph(b.Name))
	}
	r.render(f)
}

func glyph(name string) rune {
	for _, c := range name {
		return c
	}
	return 'o'
}

func (r *LiveRenderer) col(x float64) int { return width/2 + int(math.Round(x*r.scale)) }

// row maps height to a canvas row; y = 0 sits three rows above the bottom.
func (r *LiveRenderer) row(y float64) int { return height - 3 - int(math.Round(y*r.scale/2)) }

func (r *LiveRenderer) clear() {
	for y := range r.canvas {
		for x := range r.canvas[y] {
			r.canvas[y][x] = ' '
		}
	}
}

func (r *LiveRenderer) set(x, y int, c rune) {
	if x >= 0 && x < width && y >= 0 && y < height {
		r.canvas[y][x] = c
	}
}

func (r *LiveRenderer) render(f sim.Frame) {
	var b strings.Builder
	b.WriteString(clearScreen)
	b.WriteString(fmt.Sprintf("  %s  t=%.2fs  step=%d  contacts=%d  iters=%d\n", r.name, f.Time, f.Step, f.Contacts, f.Iterations))
	b.WriteString("  " + strings.Repeat("-", width) + "\n")

	for _, row := range r.canvas {
		b.WriteString("  ")
		b.WriteString(strings.TrimRight(string(row), " "))
		b.WriteString("\n")
	}

	b.WriteString("  " + strings.Repeat("-", width) + "\n")
	for i, body := range f.Bodies {
		if i >= 4 {
			break
		}
		p := body.Position
		b.WriteString(fmt.Sprintf("  %-10s (%.2f, %.2f, %.2f)\n", body.Name, p.X(), p.Y(), p.Z()))
	}

	fmt.Fprint(r.out, b.String())
}

func (r *LiveRenderer) Start() { fmt.Fprint(r.out, hideCursor) }
func (r *LiveRenderer) Stop()  { fmt.Fprint(r.out, showCursor) }
