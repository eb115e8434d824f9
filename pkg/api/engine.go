package api

import (
	"context"
)

// Dispatcher is the top-level, one-call-per-step API.
type Dispatcher interface {
	// RegisterScenario registers a definition by name.
	RegisterScenario(def ScenarioDefinition) error

	// Dispatch runs at most one step of the named scenario.
	//
	// Semantics:
	//   - cfg.Op empty, "hello" or "start": returns the first surviving
	//     operation as NextOp without executing anything.
	//   - otherwise runs cfg.Op with cfg.OpArgs and returns what to request
	//     next. A Complete() continuation means the scenario is finished.
	//   - on failure nothing advances; the same request may be re-issued.
	Dispatch(ctx context.Context, scenario string, cfg Config) (*Continuation, error)

	// Status returns the current environment status label.
	Status(ctx context.Context) (EnvStatus, error)

	// Scenarios lists registered scenario names in registration order.
	Scenarios() []string

	// Operations returns the pruned operation order of a scenario for cfg.
	Operations(scenario string, cfg Config) ([]OpName, error)
}

type statusStoreKey struct{}

// WithStatusStore attaches the dispatcher's status store to ctx so terminal
// steps can update the environment label.
func WithStatusStore(ctx context.Context, s StatusStore) context.Context {
	return context.WithValue(ctx, statusStoreKey{}, s)
}

// StatusStoreFromContext returns the status store attached to ctx, or nil.
func StatusStoreFromContext(ctx context.Context) StatusStore {
	s, _ := ctx.Value(statusStoreKey{}).(StatusStore)
	return s
}
