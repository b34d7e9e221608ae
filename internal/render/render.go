// Package render provides output formatting for CLI commands.
// Presentation stays here so the planning engine never prints.
package render

import (
	"fmt"
	"io"
	"os"

	"github.com/joss/workplan/internal/planning"
)

// Writer wraps an io.Writer with formatting utilities.
// Use this for direct-to-stdout writing without string building.
type Writer struct {
	out io.Writer
}

// NewWriter creates a Writer that writes to the given io.Writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{out: w}
}

// Stdout returns a Writer that writes to os.Stdout.
func Stdout() *Writer {
	return NewWriter(os.Stdout)
}

// Println writes formatted text with newline.
func (w *Writer) Println(format string, args ...any) {
	fmt.Fprintf(w.out, format+"\n", args...)
}

// Item writes an indented item line.
func (w *Writer) Item(format string, args ...any) {
	fmt.Fprintf(w.out, "  "+format+"\n", args...)
}

// Nested writes a nested item with tree connector.
func (w *Writer) Nested(format string, args ...any) {
	fmt.Fprintf(w.out, "    └─ "+format+"\n", args...)
}

// Empty writes an empty state message.
func (w *Writer) Empty(msg string) {
	fmt.Fprintln(w.out, msg)
}

// StatusIcon returns the plain marker for a task status.
func StatusIcon(status planning.TaskStatus) string {
	switch status {
	case planning.TaskCompleted:
		return "✓"
	case planning.TaskInProgress:
		return "►"
	case planning.TaskFailed:
		return "✗"
	case planning.TaskBlocked:
		return "⊘"
	case planning.TaskPending:
		return "○"
	default:
		return "•"
	}
}
