// Package storage keeps simulation runs on disk, one directory per run
// with a metadata.json and a states.csv of per-body frames.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/motion/internal/sim"
)

var ErrNotFound = errors.New("storage: run not found")

var stateHeader = []string{
	"time", "step", "body",
	"x", "y", "z",
	"qw", "qx", "qy", "qz",
	"vx", "vy", "vz",
	"wx", "wy", "wz",
}

type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Scene     string             `json:"scene"`
	Solver    string             `json:"solver"`
	Timestamp time.Time          `json:"timestamp"`
	Dt        float64            `json:"dt"`
	Duration  float64            `json:"duration"`
	Steps     int                `json:"steps"`
	Bodies    int                `json:"bodies"`
	Metrics   map[string]float64 `json:"metrics"`
}

func (s *Store) Save(scene string, dt, duration float64, result *sim.Result) (string, error) {
	now := s.now()
	runID := fmt.Sprintf("%s_%s_%d", scene, result.Solver, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Scene:     scene,
		Solver:    result.Solver,
		Timestamp: now,
		Dt:        dt,
		Duration:  duration,
		Steps:     result.StepsTaken,
		Metrics:   result.Metrics,
	}
	if len(result.Frames) > 0 {
		meta.Bodies = len(result.Frames[0].Bodies)
	}

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}
	if err := writeFrames(filepath.Join(runDir, "states.csv"), result.Frames); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeFrames(path string, frames []sim.Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(stateHeader); err != nil {
		return err
	}
	for _, fr := range frames {
		for _, b := range fr.Bodies {
			row := []string{formatFloat(fr.Time), strconv.Itoa(fr.Step), b.Name}
			q := b.Rotation
			for _, val := range []float64{
				b.Position.X(), b.Position.Y(), b.Position.Z(),
				q.W, q.V.X(), q.V.Y(), q.V.Z(),
				b.Velocity.X(), b.Velocity.Y(), b.Velocity.Z(),
				b.AngularVelocity.X(), b.AngularVelocity.Y(), b.AngularVelocity.Z(),
			} {
				row = append(row, formatFloat(val))
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadFrames reads back the frames of a run. Rows that fail to parse are
// skipped.
func (s *Store) LoadFrames(runID string) ([]sim.Frame, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "states.csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	frames := make([]sim.Frame, 0)
	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) != len(stateHeader) {
			continue
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}
		step, err := strconv.Atoi(record[1])
		if err != nil {
			continue
		}
		vals, ok := parseFloats(record[3:])
		if !ok {
			continue
		}

		if n := len(frames); n == 0 || frames[n-1].Step != step {
			frames = append(frames, sim.Frame{Time: t, Step: step})
		}
		fr := &frames[len(frames)-1]
		fr.Bodies = append(fr.Bodies, sim.BodyState{
			Name:            record[2],
			Position:        mgl64.Vec3{vals[0], vals[1], vals[2]},
			Rotation:        mgl64.Quat{W: vals[3], V: mgl64.Vec3{vals[4], vals[5], vals[6]}},
			Velocity:        mgl64.Vec3{vals[7], vals[8], vals[9]},
			AngularVelocity: mgl64.Vec3{vals[10], vals[11], vals[12]},
		})
	}
	return frames, nil
}

func parseFloats(fields []string) ([]float64, bool) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}
