package infra

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Map runs fn over items with at most limit calls in flight and returns the
// results and errors in input order. A failing item does not cancel the
// others; callers decide what to drop. Items not started before ctx is
// cancelled report ctx.Err().
func Map[T, R any](ctx context.Context, limit int, items []T, fn func(ctx context.Context, item T) (R, error)) ([]R, []error) {
	results := make([]R, len(items))
	errs := make([]error, len(items))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, item := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			results[i], errs[i] = fn(ctx, item)
			return nil
		})
	}
	_ = g.Wait()

	return results, errs
}

// Collect keeps the results whose error is nil, preserving order.
func Collect[R any](results []R, errs []error) []R {
	out := make([]R, 0, len(results))
	for i, r := range results {
		if errs[i] == nil {
			out = append(out, r)
		}
	}
	return out
}
