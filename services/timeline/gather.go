package timeline

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// gather runs fn for every index in [0, n) with at most limit in flight and
// returns the results in index order once all of them finished. Each task
// writes only its own slot, so completion order never shows in the result.
// The first error cancels the remaining tasks and is returned.
func gather[T any](ctx context.Context, limit, n int, fn func(ctx context.Context, i int) (T, error)) ([]T, error) {
	results := make([]T, n)
	if n == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v, err := fn(gctx, i)
			if err != nil {
				return err
			}
			results[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
