// Package frames splits time frames between workers.
//
// A run is described by (workerIndex, workerCount): worker k of n handles
// frames k, k+n, k+2n, ... Frames are independent, so no ordering between
// or within workers is guaranteed.
package frames

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Assign returns the frames handled by workerIndex out of workerCount
// workers when there are frameCount frames in total.
func Assign(workerIndex, workerCount, frameCount int) ([]int, error) {
	if workerCount < 1 {
		return nil, fmt.Errorf("worker count must be positive, got %d", workerCount)
	}
	if workerIndex < 0 || workerIndex >= workerCount {
		return nil, fmt.Errorf("worker index %d out of range [0, %d)", workerIndex, workerCount)
	}
	if frameCount < 0 {
		return nil, fmt.Errorf("negative frame count %d", frameCount)
	}

	out := make([]int, 0, (frameCount+workerCount-1)/workerCount)
	for f := workerIndex; f < frameCount; f += workerCount {
		out = append(out, f)
	}
	return out, nil
}

// Run calls fn for every frame with at most jobs calls in flight
// (jobs < 1 means one). The first error cancels the context passed to
// the remaining calls and is returned. Frames not yet started when ctx is
// cancelled are skipped and ctx.Err() is returned.
func Run(ctx context.Context, frames []int, jobs int, fn func(ctx context.Context, frame int) error) error {
	if jobs < 1 {
		jobs = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for _, frame := range frames {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := fn(gctx, frame); err != nil {
				return fmt.Errorf("frame %d: %w", frame, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
