package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/motion/internal/sim"
)

// Fields lists the per-body series Plot understands.
var Fields = []string{"x", "y", "z", "vx", "vy", "vz", "speed", "spin"}

func field(b sim.BodyState, name string) (float64, bool) {
	switch name {
	case "x":
		return b.Position.X(), true
	case "y":
		return b.Position.Y(), true
	case "z":
		return b.Position.Z(), true
	case "vx":
		return b.Velocity.X(), true
	case "vy":
		return b.Velocity.Y(), true
	case "vz":
		return b.Velocity.Z(), true
	case "speed":
		return b.Velocity.Len(), true
	case "spin":
		return b.AngularVelocity.Len(), true
	}
	return 0, false
}

// Series extracts one field of one body across frames. Frames missing the
// body are skipped.
func Series(frames []sim.Frame, body, name string) ([]float64, error) {
	if _, ok := field(sim.BodyState{}, name); !ok {
		return nil, fmt.Errorf("unknown field %q (want one of %v)", name, Fields)
	}
	out := make([]float64, 0, len(frames))
	for _, f := range frames {
		b, ok := f.Body(body)
		if !ok {
			continue
		}
		v, _ := field(b, name)
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no samples for body %q", body)
	}
	return out, nil
}

// Plot charts a body's field over time.
func Plot(frames []sim.Frame, body, name string, w, h int) (string, error) {
	data, err := Series(frames, body, name)
	if err != nil {
		return "", err
	}
	return asciigraph.Plot(data,
		asciigraph.Height(h),
		asciigraph.Width(w),
		asciigraph.Caption(fmt.Sprintf("%s.%s vs time", body, name)),
	), nil
}

// PlotMany overlays the same field for several series, e.g. one per solver.
func PlotMany(series [][]float64, caption string, w, h int) string {
	return asciigraph.PlotMany(series,
		asciigraph.Height(h),
		asciigraph.Width(w),
		asciigraph.Caption(caption),
	)
}
