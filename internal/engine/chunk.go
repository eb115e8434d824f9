package engine

import (
	"context"
	"fmt"

	"github.com/petrijr/benchseed/pkg/api"
)

// DefaultReclaimEvery is the item interval between reclaim callbacks when a
// ChunkSpec leaves ReclaimEvery unset.
const DefaultReclaimEvery = 20

// ChunkSpec describes one bounded run over the 1-based item range
// [1, Total] of an operation.
type ChunkSpec struct {
	Op    api.OpName
	Total int

	// Size is the maximum number of items processed per call. Must be >= 1.
	Size int

	// Item processes item i. Non-empty return values are collected into
	// the continuation's OpData. Derived values must depend on i only.
	Item func(ctx context.Context, i int) (string, error)

	// Reclaim, when set, runs after every ReclaimEvery-th absolute item
	// index to drop per-call transient state.
	Reclaim      func(ctx context.Context)
	ReclaimEvery int
}

// RunChunk processes the next chunk of spec starting at the checkpoint in
// cfg.OpArgs.
//
// A "done" checkpoint, a zero Total, or a start offset past Total return
// nil, which the sequencer treats as plain success. An unfinished range
// returns {NextOp: spec.Op, OpArgs: end+1}. A finished range returns only
// OpData so the sequencer fills in the natural successor.
func RunChunk(ctx context.Context, cfg api.Config, spec ChunkSpec) (*api.Continuation, error) {
	if spec.Size < 1 {
		return nil, fmt.Errorf("chunk size for %q must be at least 1, got %d", spec.Op, spec.Size)
	}
	if spec.Item == nil {
		return nil, fmt.Errorf("chunk %q has no item function", spec.Op)
	}
	if cfg.OpArgs.IsDone() {
		return nil, nil
	}

	start := cfg.OpArgs.Offset()
	if start < 1 {
		start = 1
	}
	if spec.Total <= 0 || start > spec.Total {
		return nil, nil
	}

	end := min(start+spec.Size-1, spec.Total)

	every := spec.ReclaimEvery
	if every <= 0 {
		every = DefaultReclaimEvery
	}

	obs := api.ObserverFromContext(ctx)

	var data []string
	for i := start; i <= end; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		out, err := spec.Item(ctx, i)
		if err != nil {
			return nil, fmt.Errorf("%s item %d: %w", spec.Op, i, err)
		}
		if out != "" {
			data = append(data, out)
		}

		if spec.Reclaim != nil && i%every == 0 {
			spec.Reclaim(ctx)
			obs.OnReclaim(ctx, spec.Op, i)
		}
	}

	obs.OnChunk(ctx, spec.Op, start, end, spec.Total)

	if end < spec.Total {
		return &api.Continuation{
			NextOp: spec.Op,
			OpArgs: api.At(end + 1),
			OpData: data,
		}, nil
	}
	return &api.Continuation{OpData: data}, nil
}

// ChunkHandler adapts a chunked operation to a HandlerFunc. build is called
// once per invocation with the request configuration.
func ChunkHandler(build func(cfg api.Config) ChunkSpec) api.HandlerFunc {
	return func(ctx context.Context, cfg api.Config) (*api.Continuation, error) {
		return RunChunk(ctx, cfg, build(cfg))
	}
}
