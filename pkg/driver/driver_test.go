package driver

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/petrijr/benchseed/internal/engine"
	"github.com/petrijr/benchseed/internal/persistence"
	"github.com/petrijr/benchseed/pkg/api"
)

// itemCounter records how often each chunk item ran.
type itemCounter struct {
	mu   sync.Mutex
	seen map[int]int
}

func (c *itemCounter) item(ctx context.Context, i int) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seen == nil {
		c.seen = make(map[int]int)
	}
	c.seen[i]++
	return "", nil
}

func (c *itemCounter) each(t *testing.T, n int) {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := 1; i <= n; i++ {
		if c.seen[i] != 1 {
			t.Fatalf("item %d ran %d times", i, c.seen[i])
		}
	}
}

func usersScenario(items *itemCounter, extra ...api.StepDefinition) api.ScenarioDefinition {
	steps := []api.StepDefinition{{
		Name:     api.OpUsers,
		Quantity: api.KindUsers,
		Fn: engine.ChunkHandler(func(cfg api.Config) engine.ChunkSpec {
			return engine.ChunkSpec{Op: api.OpUsers, Total: cfg.Users, Size: 100, Item: items.item}
		}),
	}}
	return api.ScenarioDefinition{
		Name:  "wordpress",
		Type:  api.Provisioning,
		Steps: append(steps, extra...),
	}
}

func newDispatcher(t *testing.T, defs ...api.ScenarioDefinition) (api.Dispatcher, *persistence.InMemoryStore) {
	t.Helper()
	store := persistence.NewInMemoryStore()
	if err := store.SetStatus(context.Background(), api.EnvClean); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	d := engine.NewDispatcher(engine.Config{Status: store})
	for _, def := range defs {
		if err := d.RegisterScenario(def); err != nil {
			t.Fatalf("RegisterScenario failed: %v", err)
		}
	}
	return d, store
}

func TestDriver_RunScenarioCompletes(t *testing.T) {
	var items itemCounter
	d, store := newDispatcher(t, usersScenario(&items))
	drv := New(d, store)

	report, err := drv.RunScenario(context.Background(), "wordpress", api.Config{Users: 250})
	if err != nil {
		t.Fatalf("RunScenario failed: %v", err)
	}

	// hello + three users chunks
	if report.Calls != 4 {
		t.Fatalf("expected 4 calls, got %d", report.Calls)
	}
	if report.Ops[api.OpHello] != 1 || report.Ops[api.OpUsers] != 3 {
		t.Fatalf("unexpected per-op calls: %v", report.Ops)
	}
	items.each(t, 250)

	c, err := store.GetCursor(context.Background(), report.RunID)
	if err != nil {
		t.Fatalf("GetCursor failed: %v", err)
	}
	if !c.Complete || c.Calls != 4 {
		t.Fatalf("expected complete cursor after 4 calls, got %+v", c)
	}

	if _, err := drv.Step(context.Background(), report.RunID); !errors.Is(err, ErrRunComplete) {
		t.Fatalf("expected ErrRunComplete, got %v", err)
	}
}

func TestDriver_ResumesFromPersistedCursor(t *testing.T) {
	ctx := context.Background()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("sql.Open failed: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	cursors, err := persistence.NewSQLiteStore(db)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}

	var items itemCounter
	d, _ := newDispatcher(t, usersScenario(&items))

	first := New(d, cursors)
	c, err := first.Start(ctx, "wordpress", api.Config{Users: 250, Op: api.OpUsers})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if c.Request.Op != api.OpHello {
		t.Fatalf("expected run to start at hello, got %q", c.Request.Op)
	}
	for i := 0; i < 2; i++ {
		if _, err := first.Step(ctx, c.RunID); err != nil {
			t.Fatalf("Step %d failed: %v", i, err)
		}
	}

	pending, err := first.Pending(ctx, "wordpress")
	if err != nil {
		t.Fatalf("Pending failed: %v", err)
	}
	if len(pending) != 1 || pending[0].Request.OpArgs.Offset() != 101 {
		t.Fatalf("expected one pending run at offset 101, got %+v", pending)
	}

	// A fresh driver on the same store picks up where the first stopped.
	second := New(d, cursors)
	report, err := second.Run(ctx, c.RunID)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Calls != 2 {
		t.Fatalf("expected 2 remaining calls, got %d", report.Calls)
	}
	items.each(t, 250)

	pending, _ = second.Pending(ctx, "")
	if len(pending) != 0 {
		t.Fatalf("expected no pending runs, got %d", len(pending))
	}

	if err := second.Forget(ctx, c.RunID); err != nil {
		t.Fatalf("Forget failed: %v", err)
	}
	if _, err := second.Step(ctx, c.RunID); !errors.Is(err, persistence.ErrCursorNotFound) {
		t.Fatalf("expected ErrCursorNotFound, got %v", err)
	}
}

func TestDriver_RetriesHandlerErrors(t *testing.T) {
	ctx := context.Background()

	var items itemCounter
	calls := 0
	flaky := api.StepDefinition{
		Name: api.OpTheme,
		Fn: func(ctx context.Context, cfg api.Config) (*api.Continuation, error) {
			calls++
			if calls < 3 {
				return nil, errors.New("temporary failure")
			}
			return nil, nil
		},
	}
	d, store := newDispatcher(t, usersScenario(&items, flaky))

	drv := NewWithConfig(d, store, Config{
		Retry: api.RetryPolicy{MaxAttempts: 3, Backoff: time.Millisecond},
	})

	report, err := drv.RunScenario(ctx, "wordpress", api.Config{Users: 10})
	if err != nil {
		t.Fatalf("RunScenario failed: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	if report.Retries != 2 {
		t.Fatalf("expected 2 retries, got %d", report.Retries)
	}
	if report.Ops[api.OpTheme] != 1 {
		t.Fatalf("a retried call counts once, got %d", report.Ops[api.OpTheme])
	}
}

func TestDriver_ExhaustedRetryLeavesCursor(t *testing.T) {
	ctx := context.Background()

	var items itemCounter
	calls := 0
	broken := api.StepDefinition{
		Name: api.OpTheme,
		Fn: func(ctx context.Context, cfg api.Config) (*api.Continuation, error) {
			calls++
			return nil, api.HandlerError("theme-not-found", errors.New("missing"))
		},
	}
	d, store := newDispatcher(t, usersScenario(&items, broken))
	drv := NewWithConfig(d, store, Config{Retry: api.RetryPolicy{MaxAttempts: 2}})

	report, err := drv.RunScenario(ctx, "wordpress", api.Config{Users: 10})
	if !errors.Is(err, api.ErrHandler) {
		t.Fatalf("expected handler error, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}

	c, err := store.GetCursor(ctx, report.RunID)
	if err != nil {
		t.Fatalf("GetCursor failed: %v", err)
	}
	if c.Complete || c.Request.Op != api.OpTheme {
		t.Fatalf("cursor must stay on the failing op, got %+v", c.Request)
	}
}

func TestDriver_PermanentReasonFailsFirstAttempt(t *testing.T) {
	ctx := context.Background()

	var items itemCounter
	calls := 0
	missing := api.StepDefinition{
		Name: api.OpTheme,
		Fn: func(ctx context.Context, cfg api.Config) (*api.Continuation, error) {
			calls++
			return nil, api.HandlerError("theme-not-found", errors.New("missing"))
		},
	}
	d, store := newDispatcher(t, usersScenario(&items, missing))
	drv := NewWithConfig(d, store, Config{Retry: api.RetryPolicy{
		MaxAttempts: 5,
		Permanent:   []string{"theme-not-found"},
	}})

	report, err := drv.RunScenario(ctx, "wordpress", api.Config{Users: 10})
	if !errors.Is(err, api.ErrHandler) {
		t.Fatalf("expected handler error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
	if report.Retries != 0 {
		t.Fatalf("expected no retries, got %d", report.Retries)
	}
}

func TestDriver_DoesNotRetrySoftStopOrRejections(t *testing.T) {
	ctx := context.Background()

	var items itemCounter
	calls := 0
	stop := api.StepDefinition{
		Name: api.OpOrders,
		Fn: func(ctx context.Context, cfg api.Config) (*api.Continuation, error) {
			calls++
			return nil, api.SoftStop("no-products")
		},
	}
	d, store := newDispatcher(t, usersScenario(&items, stop))
	drv := NewWithConfig(d, store, Config{Retry: api.RetryPolicy{MaxAttempts: 5}})

	_, err := drv.RunScenario(ctx, "wordpress", api.Config{})
	if !api.IsSoftStop(err) {
		t.Fatalf("expected soft stop, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("soft stop must not be retried, got %d attempts", calls)
	}

	if err := store.SetStatus(ctx, api.EnvReady); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	_, err = drv.RunScenario(ctx, "wordpress", api.Config{})
	if !errors.Is(err, api.ErrWrongStatus) {
		t.Fatalf("expected wrong-status, got %v", err)
	}
	_, err = drv.RunScenario(ctx, "nope", api.Config{})
	if !errors.Is(err, api.ErrInvalidScenario) {
		t.Fatalf("expected invalid scenario, got %v", err)
	}
}

func TestDriver_PacingHonoursContext(t *testing.T) {
	var items itemCounter
	d, store := newDispatcher(t, usersScenario(&items))
	drv := NewWithConfig(d, store, Config{CallRate: 0.001})

	c, err := drv.Start(context.Background(), "wordpress", api.Config{Users: 1})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// The first call consumes the single burst token.
	if _, err := drv.Step(context.Background(), c.RunID); err != nil {
		t.Fatalf("first Step failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := drv.Step(ctx, c.RunID); err == nil {
		t.Fatalf("expected the limiter to refuse a second call within the deadline")
	}
}
