package sim

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RunAll runs each simulator on its own goroutine. The simulators must not
// share a world.
func RunAll(ctx context.Context, sims []*Simulator, cfg Config) ([]*Result, error) {
	results := make([]*Result, len(sims))
	g, ctx := errgroup.WithContext(ctx)
	for i, s := range sims {
		g.Go(func() error {
			r, err := s.Run(ctx, cfg)
			results[i] = r
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
