package planning

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/joss/workplan/internal/backup"
	"github.com/joss/workplan/internal/log"
)

// PlanStore persists the plan, memory, and history documents. Saves must be
// atomic. Loading a missing or malformed document yields a nil or default
// value rather than an error; errors are reserved for the backing medium
// itself failing.
type PlanStore interface {
	Load() (*Plan, error)
	Save(p *Plan) error
	LoadMemory() (*Memory, error)
	SaveMemory(m *Memory) error
	AppendHistory(e HistoryEntry) error
	LoadHistory(limit int) ([]HistoryEntry, error)
}

// TaskOptions carries the optional fields accepted by AddTask.
type TaskOptions struct {
	Category           TaskCategory
	Priority           TaskPriority
	Dependencies       []string
	EstimatedHours     float64
	AcceptanceCriteria []string
	Files              []string
	Notes              string
}

// Engine owns one plan for the duration of a process run and is its only
// mutator. Every mutating operation persists through the store before
// returning; a persistence failure surfaces as a hard error with no retry.
type Engine struct {
	store     PlanStore
	backups   *backup.Manager
	plan      *Plan
	sessionID string
	log       *logrus.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithBackups wires the snapshot manager behind CreateBackup/ListBackups.
func WithBackups(m *backup.Manager) Option {
	return func(e *Engine) { e.backups = m }
}

// WithSessionID sets the session id stamped onto history records. An empty
// id keeps the generated one.
func WithSessionID(id string) Option {
	return func(e *Engine) {
		if id != "" {
			e.sessionID = id
		}
	}
}

// NewEngine creates an engine over the given store. The plan starts empty;
// call Load or SetPlan before task operations.
func NewEngine(store PlanStore, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		sessionID: uuid.New().String(),
		log:       log.GetLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SessionID returns the engine's session identifier.
func (e *Engine) SessionID() string { return e.sessionID }

// Load reads the persisted plan into the engine. A missing or unreadable
// plan leaves the engine planless with a nil error.
func (e *Engine) Load() (*Plan, error) {
	p, err := e.store.Load()
	if err != nil {
		return nil, err
	}
	e.plan = p
	return p, nil
}

// SetPlan hands the engine a plan built elsewhere without persisting it.
// Call Save to persist.
func (e *Engine) SetPlan(p *Plan) { e.plan = p }

// Plan returns the current plan, nil when none is loaded.
func (e *Engine) Plan() *Plan { return e.plan }

// Save persists the current plan.
func (e *Engine) Save() error {
	if e.plan == nil {
		return fmt.Errorf("no plan loaded")
	}
	return e.store.Save(e.plan)
}

// NextTask returns the next eligible task, nil when none qualifies.
func (e *Engine) NextTask() *Task {
	if e.plan == nil {
		return nil
	}
	return e.plan.NextTask()
}

// Stats returns task counts for the current plan, zero counts when none.
func (e *Engine) Stats() Stats {
	if e.plan == nil {
		return Stats{}
	}
	return e.plan.ComputeStats()
}

// MiniProgress returns the compact progress marker used in status lines:
// "[completed/total percentage%]".
func (e *Engine) MiniProgress() string {
	s := e.Stats()
	return fmt.Sprintf("[%d/%d %d%%]", s.Completed, s.Total, s.Percentage)
}

func (e *Engine) findTask(id string) *Task {
	if e.plan == nil {
		return nil
	}
	return e.plan.FindTask(id)
}

// StartTask marks a task in progress and stamps startedAt. Dependencies are
// not checked here; NextTask is the only eligibility gate, so a caller may
// start any task it can name. Returns (nil, nil) when the id resolves to no
// task.
func (e *Engine) StartTask(id string) (*Task, error) {
	t := e.findTask(id)
	if t == nil {
		return nil, nil
	}

	t.Status = TaskInProgress
	t.StartedAt = Now()

	if err := e.Save(); err != nil {
		return nil, err
	}
	return t, nil
}

// CompleteTask marks a task completed, derives actualHours from startedAt,
// folds the optional result into the task, persists, and appends a
// completion decision to memory. Completing an already-completed task
// returns it unchanged so a stale startedAt never feeds actualHours twice.
func (e *Engine) CompleteTask(id string, result *TaskResult) (*Task, error) {
	t := e.findTask(id)
	if t == nil {
		return nil, nil
	}
	if t.Status == TaskCompleted {
		return t, nil
	}

	t.Status = TaskCompleted
	t.CompletedAt = Now()
	if t.StartedAt != "" {
		t.ActualHours = hoursBetween(t.StartedAt, t.CompletedAt)
	}
	if result != nil {
		if result.Output != "" {
			t.Notes = result.Output
		}
		if len(result.FilesModified) > 0 {
			t.Files = append(t.Files, result.FilesModified...)
		}
	}

	if err := e.Save(); err != nil {
		return nil, err
	}

	reasoning := ""
	if result != nil {
		reasoning = result.Output
	}
	if err := e.AddDecision(fmt.Sprintf("Completed task: %s", t.Title), reasoning); err != nil {
		return nil, err
	}

	e.log.WithField("progress", e.MiniProgress()).Infof("task completed: %s", t.Title)
	return t, nil
}

// hoursBetween converts two RFC3339 timestamps into elapsed hours, clamped
// at zero. Unparseable input yields zero.
func hoursBetween(start, end string) float64 {
	st, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return 0
	}
	en, err := time.Parse(time.RFC3339, end)
	if err != nil {
		return 0
	}
	h := en.Sub(st).Hours()
	if h < 0 {
		return 0
	}
	return h
}

// FailTask marks a task failed, stamps failedAt, and records the reason in
// notes. The optional taskErr is appended on its own line.
func (e *Engine) FailTask(id, reason string, taskErr error) (*Task, error) {
	t := e.findTask(id)
	if t == nil {
		return nil, nil
	}

	t.Status = TaskFailed
	t.FailedAt = Now()
	t.Notes = "Failed: " + reason
	if taskErr != nil {
		t.Notes += "\n" + taskErr.Error()
	}

	if err := e.Save(); err != nil {
		return nil, err
	}
	return t, nil
}

// BlockTask marks a task blocked and records the reason in notes. Nothing
// unblocks a task automatically; an external actor resets it.
func (e *Engine) BlockTask(id, reason string) (*Task, error) {
	t := e.findTask(id)
	if t == nil {
		return nil, nil
	}

	t.Status = TaskBlocked
	t.Notes = "Blocked: " + reason

	if err := e.Save(); err != nil {
		return nil, err
	}
	return t, nil
}

// AddTask appends a pending task to the named phase, creating the phase at
// the end of the plan when it does not exist yet. Category defaults to
// feature, priority to medium.
func (e *Engine) AddTask(title, description, phaseName string, opts *TaskOptions) (*Task, error) {
	if e.plan == nil {
		return nil, fmt.Errorf("no plan loaded")
	}
	if opts == nil {
		opts = &TaskOptions{}
	}

	task := Task{
		ID:                 ulid.Make().String(),
		Title:              title,
		Description:        description,
		Category:           opts.Category,
		Priority:           opts.Priority,
		Status:             TaskPending,
		Dependencies:       opts.Dependencies,
		Phase:              phaseName,
		EstimatedHours:     opts.EstimatedHours,
		AcceptanceCriteria: opts.AcceptanceCriteria,
		Files:              opts.Files,
		Notes:              opts.Notes,
		CreatedAt:          Now(),
	}
	if task.Category == "" {
		task.Category = CategoryFeature
	}
	if task.Priority == "" {
		task.Priority = PriorityMedium
	}

	pi := -1
	for i := range e.plan.Phases {
		if e.plan.Phases[i].Name == phaseName {
			pi = i
			break
		}
	}
	if pi == -1 {
		e.plan.Phases = append(e.plan.Phases, Phase{
			Name:  phaseName,
			Order: len(e.plan.Phases) + 1,
			Tasks: []Task{},
		})
		pi = len(e.plan.Phases) - 1
	}
	e.plan.Phases[pi].Tasks = append(e.plan.Phases[pi].Tasks, task)

	if err := e.Save(); err != nil {
		return nil, err
	}
	return &e.plan.Phases[pi].Tasks[len(e.plan.Phases[pi].Tasks)-1], nil
}

// Memory returns the current memory document, an empty one when nothing is
// persisted yet.
func (e *Engine) Memory() (*Memory, error) {
	return e.loadMemory()
}

// AddDecision appends a decision record to memory and persists it.
func (e *Engine) AddDecision(decision, reasoning string) error {
	m, err := e.loadMemory()
	if err != nil {
		return err
	}
	m.Decisions = append(m.Decisions, Decision{
		Timestamp: Now(),
		Decision:  decision,
		Reasoning: reasoning,
	})
	return e.store.SaveMemory(m)
}

// AddPattern appends a reusable pattern to memory and persists it.
func (e *Engine) AddPattern(pattern, context string) error {
	m, err := e.loadMemory()
	if err != nil {
		return err
	}
	m.Patterns = append(m.Patterns, Pattern{Pattern: pattern, Context: context})
	return e.store.SaveMemory(m)
}

// AddNote appends a free-form note to memory and persists it.
func (e *Engine) AddNote(note string) error {
	m, err := e.loadMemory()
	if err != nil {
		return err
	}
	m.Notes = append(m.Notes, Note{Timestamp: Now(), Note: note})
	return e.store.SaveMemory(m)
}

func (e *Engine) loadMemory() (*Memory, error) {
	m, err := e.store.LoadMemory()
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = NewMemory()
	}
	return m, nil
}

// RecordInteraction appends one interaction to the history log, stamped
// with the engine's session id.
func (e *Engine) RecordInteraction(userInput, intent, outcome string) error {
	return e.store.AppendHistory(HistoryEntry{
		Timestamp: Now(),
		SessionID: e.sessionID,
		UserInput: userInput,
		Intent:    intent,
		Outcome:   outcome,
	})
}

// History returns the most recent entries in chronological order. A limit
// of zero or less returns everything.
func (e *Engine) History(limit int) ([]HistoryEntry, error) {
	return e.store.LoadHistory(limit)
}

// CreateBackup snapshots the persisted documents under the given label and
// returns the snapshot directory.
func (e *Engine) CreateBackup(label string) (string, error) {
	if e.backups == nil {
		return "", fmt.Errorf("backup manager not configured")
	}
	return e.backups.Create(label)
}

// ListBackups enumerates existing snapshots, oldest first.
func (e *Engine) ListBackups() ([]backup.Snapshot, error) {
	if e.backups == nil {
		return nil, fmt.Errorf("backup manager not configured")
	}
	return e.backups.List()
}
