package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/petrijr/benchseed/internal/persistence"
	"github.com/petrijr/benchseed/pkg/api"
)

// ErrRunComplete is returned by Step for a run that has already finished.
var ErrRunComplete = errors.New("run already complete")

// Config controls retry and pacing.
type Config struct {
	// Retry applies to handler errors only. MaxAttempts <= 1 disables retry.
	Retry api.RetryPolicy

	// CallRate is the maximum number of calls per second. <= 0 means
	// unlimited.
	CallRate float64

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Driver issues dispatcher calls on behalf of persisted runs.
type Driver struct {
	dispatcher api.Dispatcher
	cursors    persistence.CursorStore
	retry      api.RetryPolicy
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// New creates a Driver without retry or pacing.
func New(dispatcher api.Dispatcher, cursors persistence.CursorStore) *Driver {
	return NewWithConfig(dispatcher, cursors, Config{})
}

// NewWithConfig creates a Driver with the given retry and pacing config.
func NewWithConfig(dispatcher api.Dispatcher, cursors persistence.CursorStore, cfg Config) *Driver {
	limit := rate.Inf
	if cfg.CallRate > 0 {
		limit = rate.Limit(cfg.CallRate)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Retry.MaxAttempts < 1 {
		cfg.Retry.MaxAttempts = 1
	}
	return &Driver{
		dispatcher: dispatcher,
		cursors:    cursors,
		retry:      cfg.Retry,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logger,
	}
}

// StepResult describes one successful call.
type StepResult struct {
	RunID string

	// Op is the operation that was requested.
	Op api.OpName

	Continuation *api.Continuation

	// Retries is the number of failed attempts before the call succeeded.
	Retries int

	Complete bool
}

// Report summarizes a run driven by Run or RunScenario.
type Report struct {
	RunID    string
	Scenario string

	// Calls counts successful calls, including the initial hello.
	Calls   int
	Retries int

	// Ops counts calls per requested operation.
	Ops map[api.OpName]int

	// Data is every op_data entry in call order.
	Data []string

	Duration time.Duration
}

// Start records a new run of scenario positioned at its first call. The
// request's Op and OpArgs are replaced by a hello request.
func (d *Driver) Start(ctx context.Context, scenario string, req api.Config) (*persistence.Cursor, error) {
	req.Op = api.OpHello
	req.OpArgs = api.Checkpoint{}

	c := &persistence.Cursor{
		RunID:     uuid.NewString(),
		Scenario:  scenario,
		Request:   req,
		UpdatedAt: time.Now().UTC(),
	}
	if err := d.cursors.SaveCursor(ctx, c); err != nil {
		return nil, fmt.Errorf("save cursor: %w", err)
	}
	d.logger.Info("run started",
		slog.String("run_id", c.RunID),
		slog.String("scenario", scenario),
	)
	return c, nil
}

// Step issues exactly one call for runID and persists the advanced cursor.
// On error the cursor is left untouched.
func (d *Driver) Step(ctx context.Context, runID string) (*StepResult, error) {
	c, err := d.cursors.GetCursor(ctx, runID)
	if err != nil {
		return nil, err
	}
	if c.Complete {
		return nil, ErrRunComplete
	}

	op := c.Request.Op
	cont, retries, err := d.call(ctx, c.Scenario, c.Request)
	if err != nil {
		return nil, err
	}

	c.Request = c.Request.Next(cont)
	c.Calls++
	c.Complete = cont.Complete()
	c.UpdatedAt = time.Now().UTC()
	if err := d.cursors.SaveCursor(ctx, c); err != nil {
		return nil, fmt.Errorf("save cursor: %w", err)
	}

	return &StepResult{
		RunID:        runID,
		Op:           op,
		Continuation: cont,
		Retries:      retries,
		Complete:     c.Complete,
	}, nil
}

// Run steps runID until its scenario completes or a call fails. The
// report covers the calls issued by this invocation only.
func (d *Driver) Run(ctx context.Context, runID string) (*Report, error) {
	c, err := d.cursors.GetCursor(ctx, runID)
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID:    runID,
		Scenario: c.Scenario,
		Ops:      make(map[api.OpName]int),
	}
	start := time.Now()
	defer func() { report.Duration = time.Since(start) }()

	complete := c.Complete
	for !complete {
		res, err := d.Step(ctx, runID)
		if err != nil {
			return report, err
		}
		report.Calls++
		report.Retries += res.Retries
		report.Ops[res.Op]++
		report.Data = append(report.Data, res.Continuation.OpData...)
		complete = res.Complete
	}

	d.logger.Info("run completed",
		slog.String("run_id", runID),
		slog.String("scenario", c.Scenario),
		slog.Int("calls", report.Calls),
		slog.Int("retries", report.Retries),
	)
	return report, nil
}

// RunScenario starts a run of scenario and drives it to completion.
func (d *Driver) RunScenario(ctx context.Context, scenario string, req api.Config) (*Report, error) {
	c, err := d.Start(ctx, scenario, req)
	if err != nil {
		return nil, err
	}
	return d.Run(ctx, c.RunID)
}

// Pending lists unfinished runs, optionally limited to one scenario.
func (d *Driver) Pending(ctx context.Context, scenario string) ([]*persistence.Cursor, error) {
	return d.cursors.ListCursors(ctx, persistence.CursorFilter{
		Scenario:    scenario,
		PendingOnly: true,
	})
}

// Forget deletes the cursor of runID.
func (d *Driver) Forget(ctx context.Context, runID string) error {
	return d.cursors.DeleteCursor(ctx, runID)
}

// call dispatches req, re-issuing it unchanged after handler errors.
func (d *Driver) call(ctx context.Context, scenario string, req api.Config) (*api.Continuation, int, error) {
	for attempt := 1; ; attempt++ {
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, attempt - 1, err
		}

		cont, err := d.dispatcher.Dispatch(ctx, scenario, req)
		if err == nil {
			if cont == nil {
				cont = &api.Continuation{}
			}
			return cont, attempt - 1, nil
		}

		if !d.retry.Retryable(err) || ctx.Err() != nil || attempt >= d.retry.MaxAttempts {
			return nil, attempt - 1, err
		}

		delay := d.retry.Delay(attempt)
		d.logger.Warn("retrying call",
			slog.String("scenario", scenario),
			slog.String("op", string(req.Op)),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.Any("error", err),
		)
		if err := sleep(ctx, delay); err != nil {
			return nil, attempt, err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
