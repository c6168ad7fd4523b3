// Package concurrent holds small bounded-parallelism helpers built on errgroup.
package concurrent

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ForEach calls fn for every index in [0, n) using at most workers goroutines.
// workers <= 1 runs sequentially in the caller goroutine. The first error
// cancels the context handed to the remaining calls and is returned.
func ForEach(ctx context.Context, n, workers int, fn func(ctx context.Context, i int) error) error {
	if n <= 0 {
		return nil
	}
	if workers <= 1 || n == 1 {
		for i := range n {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(ctx, i); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range n {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i)
		})
	}
	return g.Wait()
}

// ParallelMap applies mapFn to each element, preserving order in the result.
// The workers parameter bounds the number of goroutines.
func ParallelMap[T any, R any](ctx context.Context, in []T, workers int, mapFn func(ctx context.Context, v T) (R, error)) ([]R, error) {
	out := make([]R, len(in))
	err := ForEach(ctx, len(in), workers, func(ctx context.Context, i int) error {
		r, err := mapFn(ctx, in[i])
		if err != nil {
			return err
		}
		out[i] = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Batch splits in into chunks of at most size elements and calls action for
// each chunk with at most workers goroutines.
func Batch[T any](ctx context.Context, in []T, size, workers int, action func(ctx context.Context, chunk []T) error) error {
	if size <= 0 {
		size = len(in)
	}
	if size == 0 {
		return nil
	}
	chunks := (len(in) + size - 1) / size
	return ForEach(ctx, chunks, workers, func(ctx context.Context, i int) error {
		start := i * size
		end := min(start+size, len(in))
		return action(ctx, in[start:end])
	})
}
