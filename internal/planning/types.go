// Package planning implements the workflow task-dependency engine: the
// phased plan document, eligibility and selection over the dependency
// graph, and the task lifecycle state machine.
package planning

import (
	"time"
)

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
	TaskBlocked    TaskStatus = "blocked"
)

// TaskCategory classifies the kind of work a task represents.
type TaskCategory string

const (
	CategorySetup    TaskCategory = "setup"
	CategoryFeature  TaskCategory = "feature"
	CategoryTesting  TaskCategory = "testing"
	CategoryDocs     TaskCategory = "docs"
	CategoryRefactor TaskCategory = "refactor"
	CategoryBugfix   TaskCategory = "bugfix"
	CategoryManual   TaskCategory = "manual"
)

// TaskPriority ranks task importance. Selection ignores it; callers that
// want priority ordering re-sort on their side.
type TaskPriority string

const (
	PriorityCritical TaskPriority = "critical"
	PriorityHigh     TaskPriority = "high"
	PriorityMedium   TaskPriority = "medium"
	PriorityLow      TaskPriority = "low"
)

// Task is a unit of work inside a phase. Dependencies reference task ids
// anywhere in the plan, not just the owning phase.
//
// Timestamps are RFC3339 UTC strings stamped by the corresponding
// transition. ActualHours is derived on completion, never supplied.
type Task struct {
	ID                 string       `json:"id"`
	Title              string       `json:"title"`
	Description        string       `json:"description,omitempty"`
	Category           TaskCategory `json:"category,omitempty"`
	Priority           TaskPriority `json:"priority,omitempty"`
	Status             TaskStatus   `json:"status"`
	Dependencies       []string     `json:"dependencies,omitempty"`
	Phase              string       `json:"phase,omitempty"`
	EstimatedHours     float64      `json:"estimatedHours,omitempty"`
	ActualHours        float64      `json:"actualHours,omitempty"`
	AcceptanceCriteria []string     `json:"acceptanceCriteria,omitempty"`
	Files              []string     `json:"files,omitempty"`
	Notes              string       `json:"notes,omitempty"`
	CreatedAt          string       `json:"createdAt,omitempty"`
	StartedAt          string       `json:"startedAt,omitempty"`
	CompletedAt        string       `json:"completedAt,omitempty"`
	FailedAt           string       `json:"failedAt,omitempty"`
}

// Phase is a named, ordered grouping of tasks. The Tasks slice order is the
// selection tie-break within the phase.
type Phase struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Order       int    `json:"order"`
	Tasks       []Task `json:"tasks"`
}

// Metadata carries derived task counts, refreshed on every save.
type Metadata struct {
	TotalTasks     int `json:"totalTasks"`
	CompletedTasks int `json:"completedTasks"`
}

// Plan is the root document describing a project's phased task breakdown.
type Plan struct {
	ProjectName string         `json:"projectName"`
	ProjectPath string         `json:"projectPath"`
	CreatedAt   string         `json:"createdAt"`
	UpdatedAt   string         `json:"updatedAt"`
	UserGoal    string         `json:"userGoal,omitempty"`
	TechStack   map[string]any `json:"techStack"`
	Phases      []Phase        `json:"phases"`
	Metadata    Metadata       `json:"metadata"`
}

// NewPlan creates an empty plan for a project.
func NewPlan(projectName, projectPath, userGoal string) *Plan {
	now := Now()
	return &Plan{
		ProjectName: projectName,
		ProjectPath: projectPath,
		CreatedAt:   now,
		UpdatedAt:   now,
		UserGoal:    userGoal,
		TechStack:   map[string]any{},
		Phases:      []Phase{},
	}
}

// RecomputeMetadata refreshes the derived task counts.
func (p *Plan) RecomputeMetadata() {
	s := p.ComputeStats()
	p.Metadata = Metadata{TotalTasks: s.Total, CompletedTasks: s.Completed}
}

// Decision records a choice made while working through the plan.
type Decision struct {
	Timestamp string `json:"timestamp"`
	Decision  string `json:"decision"`
	Reasoning string `json:"reasoning,omitempty"`
}

// Pattern records a recurring approach worth reusing.
type Pattern struct {
	Pattern string `json:"pattern"`
	Context string `json:"context,omitempty"`
}

// Note is a free-form memory entry.
type Note struct {
	Timestamp string `json:"timestamp"`
	Note      string `json:"note"`
}

// Memory is the project-memory document persisted next to the plan.
type Memory struct {
	Decisions []Decision `json:"decisions"`
	Patterns  []Pattern  `json:"patterns"`
	Notes     []Note     `json:"notes"`
}

// NewMemory returns an empty memory document.
func NewMemory() *Memory {
	return &Memory{
		Decisions: []Decision{},
		Patterns:  []Pattern{},
		Notes:     []Note{},
	}
}

// HistoryEntry is one recorded interaction, stored one JSON object per line.
type HistoryEntry struct {
	Timestamp string `json:"timestamp"`
	SessionID string `json:"sessionId,omitempty"`
	UserInput string `json:"userInput"`
	Intent    string `json:"intent"`
	Outcome   string `json:"outcome"`
}

// TaskResult carries the optional outcome data handed to CompleteTask.
type TaskResult struct {
	Output        string   `json:"output,omitempty"`
	FilesModified []string `json:"filesModified,omitempty"`
}

// Now returns the current UTC time as an RFC3339 string, the timestamp
// format used across all persisted documents.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
