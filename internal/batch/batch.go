// Package batch runs pipeline phases and writes their output files.
package batch

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Workers resolves a configured worker count. Values < 1 use GOMAXPROCS.
func Workers(n int) int {
	if n < 1 {
		return max(runtime.GOMAXPROCS(0), 1)
	}
	return n
}

// RunPhase calls fn once per item with at most workers calls in flight and
// returns when all calls have finished.
//
// fn reports failures through its result rather than an error, so one
// failing item never cancels its siblings. When ctx is cancelled no new
// items are started; their results are left as the zero value and
// RunPhase returns ctx.Err(). results[i] always belongs to items[i].
func RunPhase[T, R any](ctx context.Context, workers int, items []T, fn func(context.Context, T) R) ([]R, error) {
	results := make([]R, len(items))
	if len(items) == 0 {
		return results, ctx.Err()
	}

	g := new(errgroup.Group)
	g.SetLimit(min(Workers(workers), len(items)))
	for i, item := range items {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			results[i] = fn(ctx, item)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // tasks never return errors
	return results, ctx.Err()
}
