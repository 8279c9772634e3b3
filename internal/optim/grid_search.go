// Package optim searches scene tuning parameters for the lowest metric value.
package optim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"math"

	"github.com/san-kum/motion/internal/config"
	"github.com/san-kum/motion/internal/scene"
	"github.com/san-kum/motion/internal/sim"
)

var ErrNoCandidate = errors.New("optim: no parameter combination ran")

// Build turns a parameter assignment into a ready simulator.
type Build func(params map[string]float64) (*sim.Simulator, error)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Search runs every combination and returns the one minimising metricName.
// Combinations that fail to build or run are skipped.
func (g *GridSearch) Search(ctx context.Context, build Build, cfg sim.Config, metricName string) (map[string]float64, float64, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, fmt.Errorf("optim: %d params but %d ranges", len(g.paramNames), len(g.ranges))
	}
	best := math.Inf(1)
	var bestParams map[string]float64

	err := g.searchRecursive(ctx, 0, make(map[string]float64), build, cfg, metricName, &best, &bestParams)
	if err != nil {
		return nil, 0, err
	}
	if bestParams == nil {
		return nil, 0, ErrNoCandidate
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	build Build,
	cfg sim.Config,
	metricName string,
	best *float64,
	bestParams *map[string]float64,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		s, err := build(current)
		if err != nil {
			return nil
		}
		result, err := s.Run(ctx, cfg)
		if err != nil || len(result.Errors) > 0 {
			return nil
		}
		val, ok := result.Metrics[metricName]
		if ok && val < *best {
			*best = val
			*bestParams = maps.Clone(current)
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next := maps.Clone(current)
		next[paramName] = val
		if err := g.searchRecursive(ctx, depth+1, next, build, cfg, metricName, best, bestParams); err != nil {
			return err
		}
	}
	return nil
}

// Params are the scene fields SceneBuild knows how to set.
var Params = []string{"velocity_iterations", "position_iterations", "velocity_passes"}

// SceneBuild builds base with the searched parameters applied and the
// metrics from newMetrics attached.
func SceneBuild(base *config.Scene, newMetrics func() []sim.Metric) Build {
	return func(params map[string]float64) (*sim.Simulator, error) {
		cfg := *base
		for name, v := range params {
			switch name {
			case "velocity_iterations":
				cfg.Iterations.Velocity = int(v)
			case "position_iterations":
				cfg.Iterations.Position = int(v)
			case "velocity_passes":
				cfg.VelocityPasses = int(v)
			default:
				return nil, fmt.Errorf("optim: unknown parameter %q", name)
			}
		}
		sc, err := scene.Build(&cfg, slog.New(slog.DiscardHandler))
		if err != nil {
			return nil, err
		}
		s := sim.New(sc.World)
		for _, m := range newMetrics() {
			s.AddMetric(m)
		}
		return s, nil
	}
}
