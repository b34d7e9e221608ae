// Package store provides the persistence backends for the plan, memory,
// and history documents: a flat-file JSON store and an embedded SQLite
// store. Both satisfy planning.PlanStore.
package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/joss/workplan/internal/log"
	"github.com/joss/workplan/internal/planning"
)

const (
	planFile    = "plan.json"
	memoryFile  = "memory.json"
	historyFile = "history.jsonl"
)

// FileStore persists documents as JSON files under a single directory.
// Saves write to a temp file and rename into place, so a crash mid-write
// cannot leave a truncated document behind.
type FileStore struct {
	dir string
	log *logrus.Logger
}

var _ planning.PlanStore = (*FileStore)(nil)

// NewFileStore creates the directory if needed and returns a store over it.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{dir: dir, log: log.GetLogger()}, nil
}

// Dir returns the directory backing this store.
func (s *FileStore) Dir() string { return s.dir }

// PlanPath returns the location of the plan document.
func (s *FileStore) PlanPath() string { return filepath.Join(s.dir, planFile) }

// Load reads the plan document. A missing plan yields (nil, nil); an
// unreadable or malformed one is logged and likewise treated as absent, so
// a corrupt file degrades to "no plan yet" instead of wedging every
// command.
func (s *FileStore) Load() (*planning.Plan, error) {
	data, err := os.ReadFile(s.PlanPath())
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.WithError(err).Warn("plan document unreadable")
		}
		return nil, nil
	}

	// Decoding into a pointer maps a literal null document to nil, the
	// same "no plan yet" signal as a missing file.
	var p *planning.Plan
	if err := json.Unmarshal(data, &p); err != nil {
		s.log.WithError(err).Error("plan document malformed")
		return nil, nil
	}
	return p, nil
}

// Save writes the plan atomically, stamping updatedAt and recomputing the
// derived metadata first.
func (s *FileStore) Save(p *planning.Plan) error {
	p.UpdatedAt = planning.Now()
	p.RecomputeMetadata()
	return s.writeJSON(s.PlanPath(), p)
}

// LoadMemory reads the memory document, defaulting to an empty one when it
// is absent or malformed.
func (s *FileStore) LoadMemory() (*planning.Memory, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, memoryFile))
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.WithError(err).Warn("memory document unreadable")
		}
		return planning.NewMemory(), nil
	}

	var m *planning.Memory
	if err := json.Unmarshal(data, &m); err != nil {
		s.log.WithError(err).Error("memory document malformed")
		return planning.NewMemory(), nil
	}
	if m == nil {
		return planning.NewMemory(), nil
	}
	return m, nil
}

// SaveMemory writes the memory document atomically.
func (s *FileStore) SaveMemory(m *planning.Memory) error {
	return s.writeJSON(filepath.Join(s.dir, memoryFile), m)
}

// writeJSON marshals v with indentation and atomically replaces path. The
// temp file carries the pid so concurrent processes cannot collide on it.
func (s *FileStore) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}

	tmp := fmt.Sprintf("%s.tmp.%d", path, os.Getpid())
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(tmp), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

// AppendHistory appends one JSON line to the history log.
func (s *FileStore) AppendHistory(e planning.HistoryEntry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(s.dir, historyFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open history log: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s\n", data); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// LoadHistory returns the most recent limit entries in chronological order.
// A missing log yields nothing; unparseable lines are skipped with a
// warning. limit <= 0 returns every entry.
func (s *FileStore) LoadHistory(limit int) ([]planning.HistoryEntry, error) {
	f, err := os.Open(filepath.Join(s.dir, historyFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open history log: %w", err)
	}
	defer f.Close()

	var entries []planning.HistoryEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e planning.HistoryEntry
		if err := json.Unmarshal(line, &e); err != nil {
			s.log.WithError(err).Warn("skipping malformed history line")
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read history log: %w", err)
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}
