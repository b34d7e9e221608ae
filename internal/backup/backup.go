// Package backup snapshots the persisted plan documents into timestamped,
// labeled directories and enumerates the snapshots that exist.
package backup

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sirupsen/logrus"

	"github.com/joss/workplan/internal/log"
)

// DefaultLabel names snapshots created without an explicit label.
const DefaultLabel = "manual"

// defaultPatterns selects the documents copied into a snapshot.
var defaultPatterns = []string{"plan.json", "memory.json", "config.json"}

// Snapshot describes one backup directory.
type Snapshot struct {
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
	Label     string    `json:"label"`
}

// Manager copies documents from a data directory into per-snapshot
// subdirectories of a backup root. Snapshots never mutate the live files
// and are never overwritten once written.
type Manager struct {
	dataDir   string
	backupDir string
	patterns  []string
	now       func() time.Time
	log       *logrus.Logger
}

// NewManager creates a manager snapshotting dataDir into backupDir.
func NewManager(dataDir, backupDir string) *Manager {
	return &Manager{
		dataDir:   dataDir,
		backupDir: backupDir,
		patterns:  defaultPatterns,
		now:       time.Now,
		log:       log.GetLogger(),
	}
}

// WithPatterns overrides the glob patterns selecting which documents get
// copied. Patterns are doublestar globs relative to the data directory.
func (m *Manager) WithPatterns(patterns ...string) *Manager {
	m.patterns = patterns
	return m
}

// Create snapshots the matching documents into a new directory named
// {sanitized-timestamp}-{label} and returns its path. An empty label falls
// back to DefaultLabel. Documents missing from the data directory are
// skipped, never errors. A name collision (same second, same label) fails
// rather than touching the existing snapshot.
func (m *Manager) Create(label string) (string, error) {
	if label == "" {
		label = DefaultLabel
	}

	name := fmt.Sprintf("%s-%s", sanitizeTimestamp(m.now().UTC()), label)
	dir := filepath.Join(m.backupDir, name)
	if err := os.MkdirAll(m.backupDir, 0755); err != nil {
		return "", fmt.Errorf("create backup root: %w", err)
	}
	if err := os.Mkdir(dir, 0755); err != nil {
		if os.IsExist(err) {
			return "", fmt.Errorf("snapshot %s already exists", name)
		}
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	fsys := os.DirFS(m.dataDir)
	copied := 0
	for _, pattern := range m.patterns {
		err := doublestar.GlobWalk(fsys, pattern, func(path string, d fs.DirEntry) error {
			if d.IsDir() {
				return nil
			}
			if err := copyFile(filepath.Join(m.dataDir, path), filepath.Join(dir, filepath.Base(path))); err != nil {
				return err
			}
			copied++
			return nil
		})
		if err != nil {
			return "", fmt.Errorf("glob %s: %w", pattern, err)
		}
	}

	m.log.WithFields(logrus.Fields{"dir": dir, "files": copied}).Debug("backup created")
	return dir, nil
}

// List enumerates snapshot directories under the backup root, parsing the
// {timestamp}-{label} naming convention. Entries that do not parse are
// skipped. Results come back oldest first.
func (m *Manager) List() ([]Snapshot, error) {
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backup dir: %w", err)
	}

	var snaps []Snapshot
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		ts, label, ok := parseSnapshotName(e.Name())
		if !ok {
			continue
		}
		snaps = append(snaps, Snapshot{
			Path:      filepath.Join(m.backupDir, e.Name()),
			Timestamp: ts,
			Label:     label,
		})
	}

	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Timestamp.Before(snaps[j].Timestamp) })
	return snaps, nil
}

// tsLen is the length of a sanitized RFC3339 UTC timestamp, as in
// "2006-01-02T15-04-05Z".
const tsLen = 20

var tsSanitizer = strings.NewReplacer(":", "-", ".", "-")

// sanitizeTimestamp renders a UTC time as RFC3339 with the characters that
// are unsafe in directory names replaced.
func sanitizeTimestamp(t time.Time) string {
	return tsSanitizer.Replace(t.Format(time.RFC3339))
}

// parseSnapshotName splits "{sanitized-timestamp}-{label}" back into its
// parts. The timestamp portion is fixed width, so the colons sanitized out
// of the time-of-day can be restored by position.
func parseSnapshotName(name string) (time.Time, string, bool) {
	if len(name) < tsLen+2 || name[tsLen] != '-' {
		return time.Time{}, "", false
	}
	raw := name[:tsLen]
	restored := raw[:13] + ":" + raw[14:16] + ":" + raw[17:]
	ts, err := time.Parse(time.RFC3339, restored)
	if err != nil {
		return time.Time{}, "", false
	}
	return ts, name[tsLen+1:], true
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", filepath.Base(src), err)
	}
	return os.WriteFile(dst, data, 0644)
}
