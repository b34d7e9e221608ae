package planning

import (
	"fmt"

	"github.com/gammazero/toposort"
)

// DetectCycles runs a topological sort over the dependency edges and
// returns an error when the plan contains a cycle. The engine never runs
// this on its own: a cyclic plan simply stops yielding eligible tasks.
// Callers that want cycle-freedom asserted invoke it explicitly.
func DetectCycles(p *Plan) error {
	var edges []toposort.Edge
	for pi := range p.Phases {
		for ti := range p.Phases[pi].Tasks {
			t := &p.Phases[pi].Tasks[ti]
			if len(t.Dependencies) == 0 {
				// Root task, nil edge keeps it in the sort input.
				edges = append(edges, toposort.Edge{nil, t.ID})
				continue
			}
			for _, depID := range t.Dependencies {
				edges = append(edges, toposort.Edge{depID, t.ID})
			}
		}
	}

	if _, err := toposort.Toposort(edges); err != nil {
		return fmt.Errorf("dependency graph contains cycle: %w", err)
	}
	return nil
}

// DanglingDependencies maps task ids to the dependency ids that resolve to
// no task in the plan. Tasks listed here are permanently ineligible until
// the missing dependency is added or removed.
func DanglingDependencies(p *Plan) map[string][]string {
	dangling := map[string][]string{}
	for pi := range p.Phases {
		for ti := range p.Phases[pi].Tasks {
			t := &p.Phases[pi].Tasks[ti]
			for _, depID := range t.Dependencies {
				if p.FindTask(depID) == nil {
					dangling[t.ID] = append(dangling[t.ID], depID)
				}
			}
		}
	}
	return dangling
}
