package export

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/motion/internal/sim"
	"github.com/san-kum/motion/internal/storage"
)

type Body struct {
	Name            string     `json:"name"`
	Position        [3]float64 `json:"position"`
	Rotation        [4]float64 `json:"rotation"`
	Velocity        [3]float64 `json:"velocity"`
	AngularVelocity [3]float64 `json:"angular_velocity"`
}

type Frame struct {
	Time   float64 `json:"time"`
	Step   int     `json:"step"`
	Bodies []Body  `json:"bodies"`
}

type Data struct {
	ID       string             `json:"id"`
	Scene    string             `json:"scene"`
	Solver   string             `json:"solver"`
	Dt       float64            `json:"dt"`
	Duration float64            `json:"duration"`
	Steps    int                `json:"steps"`
	Frames   []Frame            `json:"frames"`
	Metrics  map[string]float64 `json:"metrics"`
}

func NewData(meta *storage.RunMetadata, frames []sim.Frame) Data {
	d := Data{
		ID:       meta.ID,
		Scene:    meta.Scene,
		Solver:   meta.Solver,
		Dt:       meta.Dt,
		Duration: meta.Duration,
		Steps:    meta.Steps,
		Frames:   make([]Frame, len(frames)),
		Metrics:  meta.Metrics,
	}
	for i, f := range frames {
		out := Frame{Time: f.Time, Step: f.Step, Bodies: make([]Body, len(f.Bodies))}
		for j, b := range f.Bodies {
			q := b.Rotation
			out.Bodies[j] = Body{
				Name:            b.Name,
				Position:        b.Position,
				Rotation:        [4]float64{q.W, q.V[0], q.V[1], q.V[2]},
				Velocity:        b.Velocity,
				AngularVelocity: b.AngularVelocity,
			}
		}
		d.Frames[i] = out
	}
	return d
}

func WriteJSON(w io.Writer, d Data) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(d)
}

func ExportJSON(path string, d Data) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, d)
}
