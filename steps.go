package benchseed

import (
	"context"

	"github.com/petrijr/benchseed/internal/engine"
	"github.com/petrijr/benchseed/pkg/api"
)

// ItemFunc creates item i of a chunked operation. A non-empty result is
// added to op_data. It must derive everything from i alone so that a
// replayed range produces the same rows.
type ItemFunc = func(ctx context.Context, cfg Config, i int) (string, error)

// ReclaimFunc releases transient per-call state inside a chunk.
type ReclaimFunc = func(ctx context.Context)

// DefaultReclaimEvery is the item interval between reclaims.
const DefaultReclaimEvery = engine.DefaultReclaimEvery

// ChunkedStep returns a handler processing cfg.Quantity(kind) items, size
// per call, resuming at cfg.OpArgs.
func ChunkedStep(op OpName, kind Kind, size int, item ItemFunc, reclaim ReclaimFunc) HandlerFunc {
	return engine.ChunkHandler(func(cfg api.Config) engine.ChunkSpec {
		return engine.ChunkSpec{
			Op:    op,
			Total: cfg.Quantity(kind),
			Size:  size,
			Item: func(ctx context.Context, i int) (string, error) {
				return item(ctx, cfg, i)
			},
			Reclaim: reclaim,
		}
	})
}

// StatusStep returns a handler that runs flush, when non-nil, and then
// writes status to the dispatcher's status store.
func StatusStep(to EnvStatus, flush func(ctx context.Context) error) HandlerFunc {
	return engine.StatusHandler(to, flush)
}

// SoftStop returns the non-fatal stop a handler reports when it cannot
// proceed yet.
func SoftStop(reason string) error {
	return api.SoftStop(reason)
}

// HandlerError returns a handler failure carrying a machine-readable reason.
func HandlerError(reason string, cause error) error {
	return api.HandlerError(reason, cause)
}
