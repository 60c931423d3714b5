package epidemic

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Ensemble runs independent copies of one configuration under consecutive
// seeds.
type Ensemble struct {
	params    Parameters
	numRuns   int
	seedStart int64
	limit     int
}

// NewEnsemble prepares numRuns runs seeded seedStart, seedStart+1, ...
// A zero seed means clock seeded, so seedStart should normally be positive.
func NewEnsemble(p Parameters, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{params: p, numRuns: numRuns, seedStart: seedStart}
}

// SetLimit caps the number of runs in flight; n < 1 means no cap.
func (e *Ensemble) SetLimit(n int) { e.limit = n }

// Run ticks every member steps times with a fixed dt and returns their
// final histories in seed order. The first failure cancels the others.
func (e *Ensemble) Run(ctx context.Context, dt float64, steps int) ([]History, error) {
	if e.numRuns < 1 {
		return nil, fmt.Errorf("%w: ensemble needs at least one run, got %d", ErrInvalidConfiguration, e.numRuns)
	}
	if err := e.params.Validate(); err != nil {
		return nil, err
	}

	results := make([]History, e.numRuns)
	g, ctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}

	for i := 0; i < e.numRuns; i++ {
		i := i
		g.Go(func() error {
			p := e.params
			p.Seed = e.seedStart + int64(i)

			s, err := New(p)
			if err != nil {
				return err
			}
			for step := 0; step < steps; step++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := s.Tick(dt); err != nil {
					return fmt.Errorf("run %d step %d: %w", i, step, err)
				}
			}
			results[i] = s.History()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
