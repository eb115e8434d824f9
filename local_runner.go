package benchseed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// LocalRunner bundles an in-memory SQLite site, the built-in catalogue and
// a Driver to provide a simple "local runner" for development and tests.
//
// Typical usage:
//
//	runner, _ := benchseed.NewLocalRunner()
//	defer runner.Close()
//
//	// Synchronous:
//	reports, err := runner.Provision(ctx, benchseed.ScenarioWordPress, benchseed.Config{Users: 250})
//
//	// Asynchronous:
//	_ = runner.Start(ctx, benchseed.ScenarioWooCommerce, cfg)
//	...
//	reports, err = runner.Wait()
type LocalRunner struct {
	*Bundle

	db *sql.DB

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	reports []*Report
	err     error
	running bool
}

// NewLocalRunner constructs a LocalRunner on a private in-memory database.
func NewLocalRunner() (*LocalRunner, error) {
	return NewLocalRunnerWithConfig(BundleConfig{})
}

// NewLocalRunnerWithConfig is NewLocalRunner with explicit bundle settings.
func NewLocalRunnerWithConfig(cfg BundleConfig) (*LocalRunner, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	b, err := NewSQLiteBundle(db, cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &LocalRunner{Bundle: b, db: db}, nil
}

// Clean runs the teardown scenario.
func (r *LocalRunner) Clean(ctx context.Context) (*Report, error) {
	return r.Driver.RunScenario(ctx, ScenarioClean, Config{})
}

// Provision runs a full provisioning cycle: teardown unless the environment
// is already clean, then scenario, then finalize. It returns one report per
// scenario run.
func (r *LocalRunner) Provision(ctx context.Context, scenario string, cfg Config) ([]*Report, error) {
	var reports []*Report

	status, err := r.Dispatcher.Status(ctx)
	if err != nil {
		return nil, err
	}
	if status != EnvClean {
		rep, err := r.Clean(ctx)
		if err != nil {
			return reports, fmt.Errorf("clean: %w", err)
		}
		reports = append(reports, rep)
	}

	rep, err := r.Driver.RunScenario(ctx, scenario, cfg)
	if rep != nil {
		reports = append(reports, rep)
	}
	if err != nil {
		return reports, fmt.Errorf("%s: %w", scenario, err)
	}

	rep, err = r.Driver.RunScenario(ctx, ScenarioFinalize, Config{})
	if rep != nil {
		reports = append(reports, rep)
	}
	if err != nil {
		return reports, fmt.Errorf("finalize: %w", err)
	}
	return reports, nil
}

// Start runs Provision in a background goroutine. Use Wait for the result
// or Stop to cancel it.
//
// If Start is called while a run is in progress, it returns an error.
func (r *LocalRunner) Start(ctx context.Context, scenario string, cfg Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return errors.New("benchseed: LocalRunner already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.cancel = cancel
	r.done = done
	r.running = true

	go func() {
		defer close(done)
		reports, err := r.Provision(ctx, scenario, cfg)

		r.mu.Lock()
		r.reports, r.err = reports, err
		r.running = false
		r.mu.Unlock()
		cancel()
	}()
	return nil
}

// Wait blocks until the run started by Start finishes and returns its
// reports. Without a prior Start it returns immediately.
func (r *LocalRunner) Wait() ([]*Report, error) {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()

	if done != nil {
		<-done
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reports, r.err
}

// Stop cancels the run started by Start and waits for it to exit. The
// stopped run's cursor stays pending and can be resumed with Driver.Run.
func (r *LocalRunner) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	_, _ = r.Wait()
}

// Close stops any background run and closes the database.
func (r *LocalRunner) Close() error {
	r.Stop()
	return r.db.Close()
}
