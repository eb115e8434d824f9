package engine

import (
	"context"
	"errors"
	"time"

	"github.com/petrijr/benchseed/pkg/api"
)

// runStep executes at most one step of set, the one named by cfg.Op, and
// computes the continuation the caller must echo back next.
func runStep(ctx context.Context, set operationSet, cfg api.Config, obs api.Observer) (*api.Continuation, error) {
	if cfg.Op.IsStart() {
		return &api.Continuation{NextOp: set.first()}, nil
	}

	index, successor, ok := set.locate(cfg.Op)
	if !ok {
		return nil, &api.Error{
			Code:     api.CodeUnknownOperation,
			Scenario: set.scenario,
			Op:       cfg.Op,
		}
	}
	step := set.steps[index]

	startTime := time.Now()
	obs.OnStepStart(ctx, set.scenario, step.Name, index)

	cont, err := step.Fn(ctx, cfg)
	if err != nil {
		var apiErr *api.Error
		if !errors.As(err, &apiErr) {
			err = &api.Error{
				Code:     api.CodeHandler,
				Scenario: set.scenario,
				Op:       step.Name,
				Err:      err,
			}
		}
		obs.OnStepCompleted(ctx, set.scenario, step.Name, index, nil, err, time.Since(startTime))
		return nil, err
	}

	switch {
	case cont == nil:
		cont = &api.Continuation{NextOp: successor}
	case cont.NextOp == "" && !cont.OpArgs.IsZero():
		// A checkpoint always belongs to the operation that produced it.
		cont.NextOp = step.Name
	case cont.NextOp == "":
		cont.NextOp = successor
	}

	obs.OnStepCompleted(ctx, set.scenario, step.Name, index, cont, nil, time.Since(startTime))
	return cont, nil
}
