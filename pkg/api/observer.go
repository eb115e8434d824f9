package api

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Observer receives callbacks from the dispatcher and chunk executor for
// logging and metrics.
//
// Implementations should be fast and non-blocking; a whole chunk runs inside
// the caller's per-request time budget.
type Observer interface {
	// OnDispatch is called once per call, before any admission check.
	OnDispatch(ctx context.Context, scenario string, op OpName)

	// OnRejected is called when a call fails before any handler runs
	// (unknown scenario, unknown operation, wrong status, bad config).
	OnRejected(ctx context.Context, scenario string, op OpName, err error)

	// OnStepStart is called before invoking a handler.
	// index is the 0-based position in the pruned operation set.
	OnStepStart(ctx context.Context, scenario string, op OpName, index int)

	// OnStepCompleted is called after a handler returns, for both successes
	// and failures (err != nil). next is the descriptor sent to the caller.
	OnStepCompleted(ctx context.Context, scenario string, op OpName, index int, next *Continuation, err error, d time.Duration)

	// OnChunk is called after a chunk covering items [start, end] of total.
	OnChunk(ctx context.Context, op OpName, start, end, total int)

	// OnReclaim is called each time transient per-call state is released.
	OnReclaim(ctx context.Context, op OpName, index int)

	// OnStatusChange is called after the environment status is written.
	OnStatusChange(ctx context.Context, from, to EnvStatus)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnDispatch(ctx context.Context, scenario string, op OpName)                  {}
func (NoopObserver) OnRejected(ctx context.Context, scenario string, op OpName, err error)       {}
func (NoopObserver) OnStepStart(ctx context.Context, scenario string, op OpName, index int)      {}
func (NoopObserver) OnChunk(ctx context.Context, op OpName, start, end, total int)               {}
func (NoopObserver) OnReclaim(ctx context.Context, op OpName, index int)                         {}
func (NoopObserver) OnStatusChange(ctx context.Context, from, to EnvStatus)                      {}
func (NoopObserver) OnStepCompleted(ctx context.Context, scenario string, op OpName, index int, next *Continuation, err error, d time.Duration) {
}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnDispatch(ctx context.Context, scenario string, op OpName) {
	for _, o := range c.observers {
		o.OnDispatch(ctx, scenario, op)
	}
}

func (c *CompositeObserver) OnRejected(ctx context.Context, scenario string, op OpName, err error) {
	for _, o := range c.observers {
		o.OnRejected(ctx, scenario, op, err)
	}
}

func (c *CompositeObserver) OnStepStart(ctx context.Context, scenario string, op OpName, index int) {
	for _, o := range c.observers {
		o.OnStepStart(ctx, scenario, op, index)
	}
}

func (c *CompositeObserver) OnStepCompleted(ctx context.Context, scenario string, op OpName, index int, next *Continuation, err error, d time.Duration) {
	for _, o := range c.observers {
		o.OnStepCompleted(ctx, scenario, op, index, next, err, d)
	}
}

func (c *CompositeObserver) OnChunk(ctx context.Context, op OpName, start, end, total int) {
	for _, o := range c.observers {
		o.OnChunk(ctx, op, start, end, total)
	}
}

func (c *CompositeObserver) OnReclaim(ctx context.Context, op OpName, index int) {
	for _, o := range c.observers {
		o.OnReclaim(ctx, op, index)
	}
}

func (c *CompositeObserver) OnStatusChange(ctx context.Context, from, to EnvStatus) {
	for _, o := range c.observers {
		o.OnStatusChange(ctx, from, to)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs dispatch / step / chunk
// events using the provided slog.Logger. If logger is nil, slog.Default()
// is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnDispatch(ctx context.Context, scenario string, op OpName) {
	o.Logger.InfoContext(ctx, "dispatch",
		slog.String("scenario", scenario),
		slog.String("op", string(op)),
	)
}

func (o *LoggingObserver) OnRejected(ctx context.Context, scenario string, op OpName, err error) {
	o.Logger.WarnContext(ctx, "dispatch_rejected",
		slog.String("scenario", scenario),
		slog.String("op", string(op)),
		slog.String("code", string(CodeOf(err))),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnStepStart(ctx context.Context, scenario string, op OpName, idx int) {
	o.Logger.DebugContext(ctx, "step_start",
		slog.String("scenario", scenario),
		slog.String("op", string(op)),
		slog.Int("step_index", idx),
	)
}

func (o *LoggingObserver) OnStepCompleted(ctx context.Context, scenario string, op OpName, idx int, next *Continuation, err error, d time.Duration) {
	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelError
		if IsSoftStop(err) {
			level = slog.LevelWarn
		}
	}
	attrs := []slog.Attr{
		slog.String("scenario", scenario),
		slog.String("op", string(op)),
		slog.Int("step_index", idx),
		slog.Duration("duration", d),
	}
	if next != nil {
		attrs = append(attrs,
			slog.String("next_op", string(next.NextOp)),
			slog.String("op_args", next.OpArgs.String()),
			slog.Int("op_data", len(next.OpData)),
		)
	}
	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
	}
	o.Logger.LogAttrs(ctx, level, "step_completed", attrs...)
}

func (o *LoggingObserver) OnChunk(ctx context.Context, op OpName, start, end, total int) {
	o.Logger.DebugContext(ctx, "chunk",
		slog.String("op", string(op)),
		slog.Int("start", start),
		slog.Int("end", end),
		slog.Int("total", total),
	)
}

func (o *LoggingObserver) OnReclaim(ctx context.Context, op OpName, idx int) {
	o.Logger.DebugContext(ctx, "reclaim",
		slog.String("op", string(op)),
		slog.Int("item", idx),
	)
}

func (o *LoggingObserver) OnStatusChange(ctx context.Context, from, to EnvStatus) {
	o.Logger.InfoContext(ctx, "status_changed",
		slog.String("from", string(from)),
		slog.String("to", string(to)),
	)
}

// BasicMetrics collects simple counters and aggregate step durations.
// It implements Observer, and can be combined with LoggingObserver via
// NewCompositeObserver.
type BasicMetrics struct {
	NoopObserver

	calls             atomic.Int64
	rejected          atomic.Int64
	stepsCompleted    atomic.Int64
	stepsFailed       atomic.Int64
	softStops         atomic.Int64
	chunks            atomic.Int64
	items             atomic.Int64
	reclaims          atomic.Int64
	totalStepDuration atomic.Int64 // nanoseconds
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	Calls          int64
	Rejected       int64
	StepsCompleted int64
	StepsFailed    int64
	SoftStops      int64

	Chunks   int64
	Items    int64
	Reclaims int64

	AvgStepDuration time.Duration
}

func (m *BasicMetrics) OnDispatch(ctx context.Context, scenario string, op OpName) {
	m.calls.Add(1)
}

func (m *BasicMetrics) OnRejected(ctx context.Context, scenario string, op OpName, err error) {
	m.rejected.Add(1)
}

func (m *BasicMetrics) OnStepCompleted(ctx context.Context, scenario string, op OpName, idx int, next *Continuation, err error, d time.Duration) {
	switch {
	case err == nil:
		m.stepsCompleted.Add(1)
		m.totalStepDuration.Add(d.Nanoseconds())
	case IsSoftStop(err):
		m.softStops.Add(1)
	default:
		m.stepsFailed.Add(1)
	}
}

func (m *BasicMetrics) OnChunk(ctx context.Context, op OpName, start, end, total int) {
	m.chunks.Add(1)
	if end >= start {
		m.items.Add(int64(end - start + 1))
	}
}

func (m *BasicMetrics) OnReclaim(ctx context.Context, op OpName, idx int) {
	m.reclaims.Add(1)
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	steps := m.stepsCompleted.Load()
	totalNs := m.totalStepDuration.Load()

	var avg time.Duration
	if steps > 0 {
		avg = time.Duration(totalNs / steps)
	}

	return BasicMetricsSnapshot{
		Calls:           m.calls.Load(),
		Rejected:        m.rejected.Load(),
		StepsCompleted:  steps,
		StepsFailed:     m.stepsFailed.Load(),
		SoftStops:       m.softStops.Load(),
		Chunks:          m.chunks.Load(),
		Items:           m.items.Load(),
		Reclaims:        m.reclaims.Load(),
		AvgStepDuration: avg,
	}
}

type observerKey struct{}

// WithObserver attaches obs to ctx so handlers and the chunk executor can
// report progress.
func WithObserver(ctx context.Context, obs Observer) context.Context {
	return context.WithValue(ctx, observerKey{}, obs)
}

// ObserverFromContext returns the observer attached to ctx, or a
// NoopObserver.
func ObserverFromContext(ctx context.Context) Observer {
	if obs, ok := ctx.Value(observerKey{}).(Observer); ok && obs != nil {
		return obs
	}
	return NoopObserver{}
}
