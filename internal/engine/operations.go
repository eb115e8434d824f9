package engine

import "github.com/petrijr/benchseed/pkg/api"

// operationSet is the ordered (name, handler) list of one scenario for one
// call. Positions are indexes into steps; pruning keeps relative order.
type operationSet struct {
	scenario string
	steps    []api.StepDefinition
}

// buildOperationSet returns the canonical operation order of def.
func buildOperationSet(def api.ScenarioDefinition) operationSet {
	return operationSet{
		scenario: def.Name,
		steps:    def.Steps,
	}
}

// prune drops quantity-bearing steps whose requested quantity is zero.
// Steps without a Quantity kind are never dropped.
func (s operationSet) prune(cfg api.Config) operationSet {
	kept := make([]api.StepDefinition, 0, len(s.steps))
	for _, step := range s.steps {
		if step.Quantity != "" && cfg.Quantity(step.Quantity) <= 0 {
			continue
		}
		kept = append(kept, step)
	}
	return operationSet{scenario: s.scenario, steps: kept}
}

// first returns the name of the first surviving step, or "" if none.
func (s operationSet) first() api.OpName {
	if len(s.steps) == 0 {
		return ""
	}
	return s.steps[0].Name
}

// locate returns the position of op and the name of the step that follows
// it. The successor is "" for the last step.
func (s operationSet) locate(op api.OpName) (index int, successor api.OpName, ok bool) {
	for i, step := range s.steps {
		if step.Name != op {
			continue
		}
		if i+1 < len(s.steps) {
			successor = s.steps[i+1].Name
		}
		return i, successor, true
	}
	return -1, "", false
}

func (s operationSet) names() []api.OpName {
	out := make([]api.OpName, len(s.steps))
	for i, step := range s.steps {
		out[i] = step.Name
	}
	return out
}
