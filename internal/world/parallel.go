package world

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// StepAll advances independent worlds n steps each, one goroutine per world.
// Cancellation is observed between steps, never inside one.
func StepAll(ctx context.Context, worlds []*World, h float64, n int) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, w := range worlds {
		g.Go(func() error {
			for i := 0; i < n; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := w.Step(h); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
