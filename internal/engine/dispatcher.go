package engine

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/petrijr/benchseed/internal/persistence"
	"github.com/petrijr/benchseed/pkg/api"
)

var opNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// dispatcherImpl is the synchronous, one-step-per-call scenario dispatcher.
type dispatcherImpl struct {
	scenarios *scenarioRegistry
	status    api.StatusStore
	observer  api.Observer
	validate  *validator.Validate
}

// Config describes how to construct a dispatcher.
type Config struct {
	Status   api.StatusStore
	Observer api.Observer
}

// NewInMemoryDispatcher returns a dispatcher whose environment status lives
// in process memory.
func NewInMemoryDispatcher() api.Dispatcher {
	return NewDispatcher(Config{Status: persistence.NewInMemoryStore()})
}

// NewSQLiteDispatcher returns a dispatcher whose environment status is
// stored in db.
func NewSQLiteDispatcher(db *sql.DB) (api.Dispatcher, error) {
	store, err := persistence.NewSQLiteStore(db)
	if err != nil {
		return nil, err
	}
	return NewDispatcher(Config{Status: store}), nil
}

// NewDispatcher creates a dispatcher from cfg. A nil Status defaults to an
// in-memory store and a nil Observer to NoopObserver.
func NewDispatcher(cfg Config) api.Dispatcher {
	status := cfg.Status
	if status == nil {
		status = persistence.NewInMemoryStore()
	}
	obs := cfg.Observer
	if obs == nil {
		obs = api.NoopObserver{}
	}
	return &dispatcherImpl{
		scenarios: newScenarioRegistry(),
		status:    status,
		observer:  obs,
		validate:  newConfigValidator(),
	}
}

func newConfigValidator() *validator.Validate {
	v := validator.New()

	_ = v.RegisterValidation("opname", func(fl validator.FieldLevel) bool {
		return opNamePattern.MatchString(fl.Field().String())
	})

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (d *dispatcherImpl) RegisterScenario(def api.ScenarioDefinition) error {
	return d.scenarios.Register(def)
}

func (d *dispatcherImpl) Scenarios() []string {
	return d.scenarios.Names()
}

func (d *dispatcherImpl) Status(ctx context.Context) (api.EnvStatus, error) {
	return d.status.GetStatus(ctx)
}

func (d *dispatcherImpl) Operations(scenario string, cfg api.Config) ([]api.OpName, error) {
	def, ok := d.scenarios.Get(scenario)
	if !ok {
		return nil, &api.Error{Code: api.CodeInvalidScenario, Scenario: scenario}
	}
	return buildOperationSet(def).prune(cfg).names(), nil
}

func (d *dispatcherImpl) Dispatch(ctx context.Context, scenario string, cfg api.Config) (*api.Continuation, error) {
	d.observer.OnDispatch(ctx, scenario, cfg.Op)

	def, err := d.admit(ctx, scenario, cfg)
	if err != nil {
		d.observer.OnRejected(ctx, scenario, cfg.Op, err)
		return nil, err
	}

	// Attach observer and status store for chunk and status steps.
	stepCtx := api.WithObserver(ctx, d.observer)
	stepCtx = api.WithStatusStore(stepCtx, d.status)

	set := buildOperationSet(def).prune(cfg)
	cont, err := runStep(stepCtx, set, cfg, d.observer)
	if err != nil && api.CodeOf(err) == api.CodeUnknownOperation {
		d.observer.OnRejected(ctx, scenario, cfg.Op, err)
	}
	return cont, err
}

// admit resolves the scenario and applies the request and status gates.
// It performs no writes.
func (d *dispatcherImpl) admit(ctx context.Context, scenario string, cfg api.Config) (api.ScenarioDefinition, error) {
	def, ok := d.scenarios.Get(scenario)
	if !ok {
		return def, &api.Error{Code: api.CodeInvalidScenario, Scenario: scenario}
	}

	if err := d.validate.Struct(cfg); err != nil {
		return def, &api.Error{
			Code:     api.CodeInvalidConfig,
			Scenario: scenario,
			Op:       cfg.Op,
			Err:      err,
		}
	}

	if def.Type != api.Provisioning {
		return def, nil
	}

	status, err := d.status.GetStatus(ctx)
	if err != nil {
		return def, fmt.Errorf("read environment status: %w", err)
	}
	if status != api.EnvClean {
		return def, &api.Error{
			Code:     api.CodeWrongStatus,
			Scenario: scenario,
			Op:       cfg.Op,
			Err:      fmt.Errorf("environment status is %q, want %q", status, api.EnvClean),
		}
	}
	return def, nil
}
