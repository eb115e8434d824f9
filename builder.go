package benchseed

import (
	"context"
	"fmt"

	"github.com/petrijr/benchseed/pkg/api"
)

// ScenarioBuilder provides a fluent API for defining scenarios:
//
//	sc := benchseed.NewScenario("wordpress").
//	    Step(api.OpTheme, switchTheme).
//	    Chunked(api.OpUsers, api.KindUsers, 100, createUser, site.Reclaim)
//
//	if err := sc.Register(dispatcher); err != nil {
//	    log.Fatal(err)
//	}
//
// Steps run in the order they are added.
type ScenarioBuilder struct {
	def api.ScenarioDefinition
}

// NewScenario creates a builder for a provisioning scenario.
func NewScenario(name string) *ScenarioBuilder {
	return &ScenarioBuilder{
		def: api.ScenarioDefinition{
			Name:  name,
			Type:  api.Provisioning,
			Steps: make([]api.StepDefinition, 0),
		},
	}
}

// NewTeardown creates a builder for a teardown scenario, which is not gated
// by environment status.
func NewTeardown(name string) *ScenarioBuilder {
	b := NewScenario(name)
	b.def.Type = api.Teardown
	return b
}

// Name returns the scenario name.
func (b *ScenarioBuilder) Name() string {
	return b.def.Name
}

// Definition returns the underlying ScenarioDefinition.
func (b *ScenarioBuilder) Definition() ScenarioDefinition {
	return b.def
}

// Step appends a step that is never pruned.
func (b *ScenarioBuilder) Step(op OpName, fn HandlerFunc) *ScenarioBuilder {
	return b.add(op, "", fn)
}

// Quantity appends a step that is pruned when the request asks for zero
// items of kind.
func (b *ScenarioBuilder) Quantity(op OpName, kind Kind, fn HandlerFunc) *ScenarioBuilder {
	if kind == "" {
		panic(fmt.Sprintf("benchseed: step %q needs a quantity kind", op))
	}
	return b.add(op, kind, fn)
}

// Chunked appends a quantity step that processes items size at a time.
// reclaim may be nil.
func (b *ScenarioBuilder) Chunked(op OpName, kind Kind, size int, item ItemFunc, reclaim ReclaimFunc) *ScenarioBuilder {
	return b.Quantity(op, kind, ChunkedStep(op, kind, size, item, reclaim))
}

// Finalize appends a step that flushes via flush and then sets the
// environment status to to.
func (b *ScenarioBuilder) Finalize(op OpName, to EnvStatus, flush func(ctx context.Context) error) *ScenarioBuilder {
	return b.Step(op, StatusStep(to, flush))
}

func (b *ScenarioBuilder) add(op OpName, kind Kind, fn HandlerFunc) *ScenarioBuilder {
	if op == "" {
		panic("benchseed: step name must not be empty")
	}
	if fn == nil {
		panic(fmt.Sprintf("benchseed: step %q has nil function", op))
	}

	b.def.Steps = append(b.def.Steps, api.StepDefinition{
		Name:     op,
		Fn:       fn,
		Quantity: kind,
	})
	return b
}

// Register registers the built scenario with the given dispatcher.
func (b *ScenarioBuilder) Register(d Dispatcher) error {
	return d.RegisterScenario(b.def)
}

// MustRegister is like Register but panics on error.
// Useful for initialization in main().
func (b *ScenarioBuilder) MustRegister(d Dispatcher) {
	if err := b.Register(d); err != nil {
		panic(err)
	}
}
