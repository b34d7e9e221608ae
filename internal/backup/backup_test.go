package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Create Tests ---

func TestCreateCopiesDocuments(t *testing.T) {
	dataDir := t.TempDir()
	backupDir := t.TempDir()

	planContent := []byte(`{"projectName":"demo"}`)
	memContent := []byte(`{"decisions":[]}`)
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "plan.json"), planContent, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "memory.json"), memContent, 0644))

	mgr := NewManager(dataDir, backupDir)
	dir, err := mgr.Create("pre-deploy")
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(dir), "-pre-deploy")

	copied, err := os.ReadFile(filepath.Join(dir, "plan.json"))
	require.NoError(t, err)
	assert.Equal(t, planContent, copied)

	copied, err = os.ReadFile(filepath.Join(dir, "memory.json"))
	require.NoError(t, err)
	assert.Equal(t, memContent, copied)
}

func TestCreateDefaultLabel(t *testing.T) {
	dataDir := t.TempDir()
	backupDir := t.TempDir()

	mgr := NewManager(dataDir, backupDir)
	dir, err := mgr.Create("")
	require.NoError(t, err)

	name := filepath.Base(dir)
	assert.Contains(t, name, "-"+DefaultLabel)

	// Directory name must not contain the characters sanitized out of the
	// timestamp.
	assert.NotContains(t, name[:tsLen], ":")
}

func TestCreateSkipsMissingDocuments(t *testing.T) {
	dataDir := t.TempDir()
	backupDir := t.TempDir()

	// Only the plan exists; memory.json and config.json are absent.
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "plan.json"), []byte(`{}`), 0644))

	mgr := NewManager(dataDir, backupDir)
	dir, err := mgr.Create("partial")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "plan.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "memory.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestCreateLeavesSourceIntact(t *testing.T) {
	dataDir := t.TempDir()
	backupDir := t.TempDir()

	content := []byte(`{"projectName":"untouched"}`)
	src := filepath.Join(dataDir, "plan.json")
	require.NoError(t, os.WriteFile(src, content, 0644))

	mgr := NewManager(dataDir, backupDir)
	_, err := mgr.Create("check")
	require.NoError(t, err)

	after, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, content, after)
}

func TestCreateWithPatterns(t *testing.T) {
	dataDir := t.TempDir()
	backupDir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "plan.json"), []byte(`{}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "history.jsonl"), []byte("{}\n"), 0644))

	mgr := NewManager(dataDir, backupDir).WithPatterns("*.jsonl")
	dir, err := mgr.Create("logs")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "history.jsonl"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "plan.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestCreateRefusesSameSecondDuplicate(t *testing.T) {
	dataDir := t.TempDir()
	backupDir := t.TempDir()

	src := filepath.Join(dataDir, "plan.json")
	require.NoError(t, os.WriteFile(src, []byte(`{"projectName":"first"}`), 0644))

	mgr := NewManager(dataDir, backupDir)
	mgr.now = func() time.Time { return time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC) }

	dir, err := mgr.Create("manual")
	require.NoError(t, err)

	// Same second, same label: the existing snapshot must survive untouched.
	require.NoError(t, os.WriteFile(src, []byte(`{"projectName":"second"}`), 0644))
	_, err = mgr.Create("manual")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	copied, err := os.ReadFile(filepath.Join(dir, "plan.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"projectName":"first"}`, string(copied))

	snaps, err := mgr.List()
	require.NoError(t, err)
	assert.Len(t, snaps, 1)
}

// --- List Tests ---

func TestListParsesSnapshotNames(t *testing.T) {
	backupDir := t.TempDir()

	// Handcrafted snapshot dirs with known timestamps, out of order.
	require.NoError(t, os.Mkdir(filepath.Join(backupDir, "2024-03-02T08-00-00Z-manual"), 0755))
	require.NoError(t, os.Mkdir(filepath.Join(backupDir, "2024-01-15T10-30-00Z-pre-deploy"), 0755))

	mgr := NewManager(t.TempDir(), backupDir)
	snaps, err := mgr.List()
	require.NoError(t, err)
	require.Len(t, snaps, 2)

	// Oldest first.
	assert.Equal(t, "pre-deploy", snaps[0].Label)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), snaps[0].Timestamp)
	assert.Equal(t, "manual", snaps[1].Label)
	assert.Equal(t, time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC), snaps[1].Timestamp)
}

func TestListSkipsUnparseableEntries(t *testing.T) {
	backupDir := t.TempDir()

	require.NoError(t, os.Mkdir(filepath.Join(backupDir, "2024-01-15T10-30-00Z-good"), 0755))
	require.NoError(t, os.Mkdir(filepath.Join(backupDir, "not-a-snapshot"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(backupDir, "stray.txt"), []byte("x"), 0644))

	mgr := NewManager(t.TempDir(), backupDir)
	snaps, err := mgr.List()
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "good", snaps[0].Label)
}

func TestListMissingBackupDir(t *testing.T) {
	mgr := NewManager(t.TempDir(), filepath.Join(t.TempDir(), "nowhere"))
	snaps, err := mgr.List()
	assert.NoError(t, err)
	assert.Empty(t, snaps)
}

func TestCreateThenListRoundTrip(t *testing.T) {
	dataDir := t.TempDir()
	backupDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "plan.json"), []byte(`{}`), 0644))

	mgr := NewManager(dataDir, backupDir)
	dir, err := mgr.Create("roundtrip")
	require.NoError(t, err)

	snaps, err := mgr.List()
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, dir, snaps[0].Path)
	assert.Equal(t, "roundtrip", snaps[0].Label)
	assert.WithinDuration(t, time.Now().UTC(), snaps[0].Timestamp, time.Minute)
}

// --- Name Parsing Tests ---

func TestParseSnapshotName(t *testing.T) {
	ts, label, ok := parseSnapshotName("2024-01-15T10-30-00Z-pre-deploy")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), ts)
	assert.Equal(t, "pre-deploy", label)

	// Labels containing dashes survive whole.
	_, label, ok = parseSnapshotName("2024-01-15T10-30-00Z-a-b-c")
	require.True(t, ok)
	assert.Equal(t, "a-b-c", label)

	_, _, ok = parseSnapshotName("short")
	assert.False(t, ok)

	_, _, ok = parseSnapshotName("2024-01-15T10-30-00Zxmanual")
	assert.False(t, ok)
}

func TestSanitizeTimestampStable(t *testing.T) {
	in := time.Date(2024, 6, 1, 23, 59, 59, 0, time.UTC)
	s := sanitizeTimestamp(in)
	assert.Equal(t, "2024-06-01T23-59-59Z", s)

	ts, label, ok := parseSnapshotName(s + "-x")
	require.True(t, ok)
	assert.Equal(t, in, ts)
	assert.Equal(t, "x", label)
}
