package planning

import (
	"math"
	"sort"
)

// Stats summarizes task counts across all phases of a plan.
type Stats struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	InProgress int `json:"inProgress"`
	Failed     int `json:"failed"`
	Blocked    int `json:"blocked"`
	Pending    int `json:"pending"`
	Percentage int `json:"percentage"`
}

// FindTask returns the task with the given id, scanning phases in declared
// order and tasks in insertion order. Returns nil when nothing matches.
// Ids are expected to be unique; with duplicates the first occurrence
// shadows the rest.
func (p *Plan) FindTask(id string) *Task {
	for pi := range p.Phases {
		for ti := range p.Phases[pi].Tasks {
			if p.Phases[pi].Tasks[ti].ID == id {
				return &p.Phases[pi].Tasks[ti]
			}
		}
	}
	return nil
}

// IsEligible reports whether a task is pending with every dependency
// completed. A dependency id that resolves to no task keeps the task
// ineligible indefinitely; that is not an error here.
func (p *Plan) IsEligible(t *Task) bool {
	if t == nil || t.Status != TaskPending {
		return false
	}
	for _, depID := range t.Dependencies {
		dep := p.FindTask(depID)
		if dep == nil || dep.Status != TaskCompleted {
			return false
		}
	}
	return true
}

// NextTask returns the first eligible task, walking phases by ascending
// Order and tasks in insertion order, or nil when none qualifies.
// Priority never influences selection. The receiver is not mutated.
func (p *Plan) NextTask() *Task {
	idx := make([]int, len(p.Phases))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return p.Phases[idx[a]].Order < p.Phases[idx[b]].Order
	})

	for _, pi := range idx {
		tasks := p.Phases[pi].Tasks
		for ti := range tasks {
			if p.IsEligible(&tasks[ti]) {
				return &tasks[ti]
			}
		}
	}
	return nil
}

// ComputeStats flattens all tasks across all phases into counts.
// Percentage is round(completed/total*100) and 0 for an empty plan.
func (p *Plan) ComputeStats() Stats {
	var s Stats
	for pi := range p.Phases {
		for ti := range p.Phases[pi].Tasks {
			s.Total++
			switch p.Phases[pi].Tasks[ti].Status {
			case TaskCompleted:
				s.Completed++
			case TaskInProgress:
				s.InProgress++
			case TaskFailed:
				s.Failed++
			case TaskBlocked:
				s.Blocked++
			case TaskPending:
				s.Pending++
			}
		}
	}
	if s.Total > 0 {
		s.Percentage = int(math.Round(float64(s.Completed) / float64(s.Total) * 100))
	}
	return s
}
