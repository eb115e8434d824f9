// Package api contains the core building blocks shared by the benchseed
// dispatcher, its stores and its callers. It defines the request and
// continuation types exchanged on every call, the scenario and step
// definitions, the error model, and the observer hooks.
//
// Most users interact with the higher-level benchseed package, which
// re-exports selected types and helpers from this package. The api package
// is intended for custom stores, custom observers, or code that drives the
// dispatcher directly.
//
// # Requests and continuations
//
// A benchmark environment is provisioned one short call at a time. Each
// call carries a Config naming the operation to run (Op) and where to
// resume inside it (OpArgs). The dispatcher answers with a Continuation:
//
//	cont, err := d.Dispatch(ctx, "wordpress", cfg)
//	if err != nil {
//		// nothing advanced; the same cfg may be re-issued
//	}
//	if cont.Complete() {
//		// scenario finished
//	}
//	cfg = cfg.Next(cont)
//
// An empty Op, "hello" or "start" asks for the first operation without
// running anything.
//
// # Checkpoints
//
// A Checkpoint is the resume position inside a chunked operation. It is
// either empty (start from zero), a non-negative item offset, or the "~"
// sentinel meaning the operation is done and the next operation should run.
// Checkpoints round-trip through JSON, YAML and gob so any caller or store
// can persist them.
//
// # Scenarios
//
// A ScenarioDefinition lists StepDefinitions in order. Steps tagged with a
// Kind are pruned when the request asks for zero items of that kind, so a
// request with no media never visits the media step. The ScenarioType
// decides whether the dispatcher requires a clean environment before the
// first call.
//
// # Errors
//
// Every failure returned by Dispatch is an *Error carrying a Code:
// CodeInvalidScenario, CodeUnknownOperation, CodeWrongStatus, CodeInvalidConfig,
// CodeSoftStop or CodeHandler. Use CodeOf and IsSoftStop to inspect them.
//
// # Observability
//
// Observer receives dispatch, step, chunk, reclaim and status-change
// events. LoggingObserver writes them through log/slog, BasicMetrics keeps
// in-process counters, and NewCompositeObserver fans events out to several
// observers.
package api
