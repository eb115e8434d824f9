package engine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/petrijr/benchseed/pkg/api"
)

type scenarioRegistry struct {
	mu     sync.RWMutex
	byName map[string]api.ScenarioDefinition
	order  []string
}

func newScenarioRegistry() *scenarioRegistry {
	return &scenarioRegistry{
		byName: make(map[string]api.ScenarioDefinition),
	}
}

func (r *scenarioRegistry) Register(def api.ScenarioDefinition) error {
	if def.Name == "" {
		return errors.New("scenario name is required")
	}
	if len(def.Steps) == 0 {
		return fmt.Errorf("scenario %q must have at least one step", def.Name)
	}

	seen := make(map[api.OpName]bool, len(def.Steps))
	for i, step := range def.Steps {
		if step.Name.IsStart() {
			return fmt.Errorf("scenario %q step %d: %q is reserved", def.Name, i, step.Name)
		}
		if step.Fn == nil {
			return fmt.Errorf("scenario %q step %q has no handler", def.Name, step.Name)
		}
		if seen[step.Name] {
			return fmt.Errorf("scenario %q: duplicate step %q", def.Name, step.Name)
		}
		seen[step.Name] = true
	}

	// The stored definition must not alias the caller's slice.
	def.Steps = append([]api.StepDefinition(nil), def.Steps...)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[def.Name]; exists {
		return fmt.Errorf("scenario %q already registered", def.Name)
	}

	r.byName[def.Name] = def
	r.order = append(r.order, def.Name)
	return nil
}

func (r *scenarioRegistry) Get(name string) (api.ScenarioDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.byName[name]
	return def, ok
}

func (r *scenarioRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.order...)
}
