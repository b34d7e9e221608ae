package render

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/joss/workplan/internal/backup"
	"github.com/joss/workplan/internal/planning"
	wpstrings "github.com/joss/workplan/internal/strings"
)

// Renderer handles output formatting.
type Renderer struct {
	pretty bool
}

// New creates a new renderer.
func New(pretty bool) *Renderer {
	return &Renderer{pretty: pretty}
}

var (
	barFilledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	barEmptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// ProgressBar renders a fixed-width bar; filled cells are
// round(completed/total*width), so an empty plan renders an empty bar.
func (r *Renderer) ProgressBar(stats planning.Stats, width int) string {
	if width <= 0 {
		width = 20
	}

	filled := 0
	if stats.Total > 0 {
		filled = int(math.Round(float64(stats.Completed) / float64(stats.Total) * float64(width)))
	}
	if filled > width {
		filled = width
	}

	full := strings.Repeat("█", filled)
	rest := strings.Repeat("░", width-filled)
	if r.pretty {
		return barFilledStyle.Render(full) + barEmptyStyle.Render(rest)
	}
	return full + rest
}

// Stats formats the plan statistics with a bar and the compact marker.
func (r *Renderer) Stats(stats planning.Stats, width int) string {
	var sb strings.Builder

	if r.pretty {
		sb.WriteString(color.CyanString("Progress\n"))
		sb.WriteString(strings.Repeat("─", 40) + "\n")
	}

	fmt.Fprintf(&sb, "%s [%d/%d %d%%]\n", r.ProgressBar(stats, width), stats.Completed, stats.Total, stats.Percentage)
	fmt.Fprintf(&sb, "  pending: %d  in progress: %d  blocked: %d  failed: %d\n",
		stats.Pending, stats.InProgress, stats.Blocked, stats.Failed)

	return sb.String()
}

// PlanSummary formats the full phase and task tree.
func (r *Renderer) PlanSummary(p *planning.Plan) string {
	if p == nil {
		return "No plan found\n"
	}

	var sb strings.Builder
	if r.pretty {
		sb.WriteString(color.CyanString(p.ProjectName) + "\n")
		sb.WriteString(strings.Repeat("─", 40) + "\n")
	} else {
		sb.WriteString(p.ProjectName + "\n")
	}
	if p.UserGoal != "" {
		fmt.Fprintf(&sb, "  Goal: %s\n", wpstrings.Truncate(p.UserGoal, 70))
	}

	for _, ph := range p.Phases {
		fmt.Fprintf(&sb, "\nPhase %d: %s\n", ph.Order, ph.Name)
		if len(ph.Tasks) == 0 {
			sb.WriteString("  (no tasks)\n")
			continue
		}
		for _, t := range ph.Tasks {
			fmt.Fprintf(&sb, "  %s %s  %s\n", r.statusIcon(t.Status), t.ID, wpstrings.Truncate(t.Title, 60))
			if len(t.Dependencies) > 0 {
				fmt.Fprintf(&sb, "      deps: %s\n", strings.Join(t.Dependencies, ", "))
			}
		}
	}
	return sb.String()
}

// TaskDetail formats one task with its metadata.
func (r *Renderer) TaskDetail(t *planning.Task) string {
	if t == nil {
		return "No task\n"
	}

	var sb strings.Builder
	if r.pretty {
		fmt.Fprintf(&sb, "%s %s\n", r.statusIcon(t.Status), color.CyanString(t.Title))
	} else {
		fmt.Fprintf(&sb, "%s %s\n", r.statusIcon(t.Status), t.Title)
	}

	fmt.Fprintf(&sb, "  ID:       %s\n", t.ID)
	fmt.Fprintf(&sb, "  Status:   %s\n", t.Status)
	if t.Phase != "" {
		fmt.Fprintf(&sb, "  Phase:    %s\n", t.Phase)
	}
	if t.Category != "" {
		fmt.Fprintf(&sb, "  Category: %s\n", t.Category)
	}
	if t.Priority != "" {
		fmt.Fprintf(&sb, "  Priority: %s\n", t.Priority)
	}
	if t.Description != "" {
		fmt.Fprintf(&sb, "  Desc:     %s\n", t.Description)
	}
	if len(t.Dependencies) > 0 {
		fmt.Fprintf(&sb, "  Deps:     %s\n", strings.Join(t.Dependencies, ", "))
	}
	if t.EstimatedHours > 0 {
		fmt.Fprintf(&sb, "  Estimate: %.1fh\n", t.EstimatedHours)
	}
	if t.ActualHours > 0 {
		fmt.Fprintf(&sb, "  Actual:   %.1fh\n", t.ActualHours)
	}
	for _, c := range t.AcceptanceCriteria {
		fmt.Fprintf(&sb, "  - %s\n", c)
	}
	if len(t.Files) > 0 {
		fmt.Fprintf(&sb, "  Files:    %s\n", strings.Join(t.Files, ", "))
	}
	if t.Notes != "" {
		fmt.Fprintf(&sb, "  Notes:    %s\n", t.Notes)
	}
	return sb.String()
}

// History formats interaction records, oldest first.
func (r *Renderer) History(entries []planning.HistoryEntry) string {
	if len(entries) == 0 {
		return "No history\n"
	}

	var sb strings.Builder
	for _, e := range entries {
		ts := e.Timestamp
		if parsed, err := time.Parse(time.RFC3339, e.Timestamp); err == nil {
			ts = parsed.Format("2006-01-02 15:04")
		}
		if r.pretty {
			fmt.Fprintf(&sb, "%s %s: %s\n", color.HiBlackString(ts), e.Intent, e.Outcome)
		} else {
			fmt.Fprintf(&sb, "[%s] %s: %s\n", ts, e.Intent, e.Outcome)
		}
		if e.UserInput != "" {
			fmt.Fprintf(&sb, "    %s\n", wpstrings.Truncate(e.UserInput, 70))
		}
	}
	return sb.String()
}

// Backups formats snapshot listings, oldest first.
func (r *Renderer) Backups(snaps []backup.Snapshot) string {
	if len(snaps) == 0 {
		return "No backups\n"
	}

	var sb strings.Builder
	if r.pretty {
		sb.WriteString(color.CyanString("Backups\n"))
		sb.WriteString(strings.Repeat("─", 40) + "\n")
	}
	for _, s := range snaps {
		fmt.Fprintf(&sb, "  %s  %s\n", s.Timestamp.Format("2006-01-02 15:04:05"), s.Label)
		fmt.Fprintf(&sb, "    %s\n", s.Path)
	}
	return sb.String()
}

// Memory formats the project memory sections.
func (r *Renderer) Memory(m *planning.Memory) string {
	if m == nil || (len(m.Decisions) == 0 && len(m.Patterns) == 0 && len(m.Notes) == 0) {
		return "No memory recorded\n"
	}

	var sb strings.Builder
	if len(m.Decisions) > 0 {
		r.section(&sb, "Decisions")
		for _, d := range m.Decisions {
			fmt.Fprintf(&sb, "  %s %s\n", r.dim(shortTime(d.Timestamp)), d.Decision)
			if d.Reasoning != "" {
				fmt.Fprintf(&sb, "      %s\n", wpstrings.Truncate(d.Reasoning, 70))
			}
		}
	}
	if len(m.Patterns) > 0 {
		r.section(&sb, "Patterns")
		for _, p := range m.Patterns {
			fmt.Fprintf(&sb, "  %s\n", p.Pattern)
			if p.Context != "" {
				fmt.Fprintf(&sb, "      %s\n", wpstrings.Truncate(p.Context, 70))
			}
		}
	}
	if len(m.Notes) > 0 {
		r.section(&sb, "Notes")
		for _, n := range m.Notes {
			fmt.Fprintf(&sb, "  %s %s\n", r.dim(shortTime(n.Timestamp)), n.Note)
		}
	}
	return sb.String()
}

func (r *Renderer) section(sb *strings.Builder, title string) {
	if sb.Len() > 0 {
		sb.WriteString("\n")
	}
	if r.pretty {
		sb.WriteString(color.CyanString(title) + "\n")
	} else {
		sb.WriteString(title + "\n")
	}
}

func (r *Renderer) dim(s string) string {
	if r.pretty {
		return color.HiBlackString(s)
	}
	return s
}

func (r *Renderer) statusIcon(status planning.TaskStatus) string {
	if !r.pretty {
		return StatusIcon(status)
	}
	switch status {
	case planning.TaskCompleted:
		return color.GreenString("✓")
	case planning.TaskInProgress:
		return color.CyanString("►")
	case planning.TaskFailed:
		return color.RedString("✗")
	case planning.TaskBlocked:
		return color.YellowString("⊘")
	case planning.TaskPending:
		return color.HiBlackString("○")
	default:
		return "•"
	}
}

func shortTime(rfc3339 string) string {
	if parsed, err := time.Parse(time.RFC3339, rfc3339); err == nil {
		return parsed.Format("01-02 15:04")
	}
	return rfc3339
}
