// Package benchseed provisions and tears down a large synthetic dataset
// through a resumable, chunked operation pipeline.
//
// The host environment limits how long a single request may run, so no
// call does unbounded work. A caller asks a Dispatcher to run one named
// operation of a scenario; the Dispatcher answers with a Continuation that
// says which operation to request next and, for a chunked operation that
// is not finished yet, the checkpoint to echo back.
//
// # Core Concepts
//
//  1. Dispatcher
//  2. ScenarioBuilder
//  3. HandlerFunc
//  4. Driver
//  5. LocalRunner
//
// # Dispatcher
//
// The Dispatcher holds scenario definitions and the environment status
// gate. Provisioning scenarios may only run while the status is "clean";
// teardown scenarios are never gated. Each call:
//
//   - prunes steps whose requested quantity is zero,
//   - runs exactly the requested step,
//   - returns the next step, or the same step with an advanced checkpoint.
//
// A request with op "hello" (or "start", or empty) runs nothing and
// returns the first surviving step.
//
// Status can be kept in memory, SQLite, PostgreSQL, Redis, or MongoDB.
//
// # Chunks
//
// ChunkedStep turns a per-item function into a handler that processes a
// bounded range per call. Every derived value must depend on the item
// index alone so a replayed range writes the same rows. Transient per-call
// state is released every DefaultReclaimEvery items.
//
// # Driver
//
// The dispatcher never stores where a run is. A Driver is the caller side:
// it persists the last continuation of each run in a CursorStore, retries
// handler errors with the identical request, and stops on soft stops and
// rejections.
//
// # Errors
//
// Every dispatcher failure is an *Error with a machine-readable Code:
// "invalid" for an unknown scenario, "wrong-op" for an operation that is not
// part of the pruned set, "wrong-status" when the gate refuses, "soft-stop"
// for a handler that cannot proceed yet, and "handler-error" for handler
// failures. Use errors.Is with the api sentinels or CodeOf.
//
// # Built-in catalogue
//
// NewSQLiteBundle and LocalRunner register the built-in scenarios
// (wordpress, misc, woocommerce, learndash, finalize, clean) against a
// SQLite-backed site.
package benchseed
