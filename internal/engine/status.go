package engine

import (
	"context"
	"errors"

	"github.com/petrijr/benchseed/pkg/api"
)

// ErrNoStatusStore is returned by status steps run outside a dispatcher.
var ErrNoStatusStore = errors.New("no status store in context")

// StatusHandler returns a terminal step that flushes long-lived state and
// then sets the environment status to `to`. flush may be nil.
func StatusHandler(to api.EnvStatus, flush func(ctx context.Context) error) api.HandlerFunc {
	return func(ctx context.Context, cfg api.Config) (*api.Continuation, error) {
		store := api.StatusStoreFromContext(ctx)
		if store == nil {
			return nil, ErrNoStatusStore
		}

		from, err := store.GetStatus(ctx)
		if err != nil {
			return nil, err
		}

		if flush != nil {
			if err := flush(ctx); err != nil {
				return nil, err
			}
		}

		if err := store.SetStatus(ctx, to); err != nil {
			return nil, err
		}

		if from != to {
			api.ObserverFromContext(ctx).OnStatusChange(ctx, from, to)
		}
		return nil, nil
	}
}
