package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/workplan/internal/planning"
)

func samplePlan() *planning.Plan {
	p := planning.NewPlan("checkout", "/srv/checkout", "rebuild the payment flow")
	p.TechStack = map[string]any{"language": "go", "storage": "sqlite"}
	p.Phases = []planning.Phase{
		{Name: "Setup", Order: 1, Tasks: []planning.Task{
			{ID: "s1", Title: "scaffold", Status: planning.TaskCompleted, Category: planning.CategorySetup},
		}},
		{Name: "Build", Order: 2, Tasks: []planning.Task{
			{
				ID:             "b1",
				Title:          "payment endpoint",
				Status:         planning.TaskPending,
				Category:       planning.CategoryFeature,
				Priority:       planning.PriorityHigh,
				Dependencies:   []string{"s1"},
				EstimatedHours: 4,
			},
		}},
	}
	return p
}

// --- Plan Document Tests ---

func TestFileStoreSaveLoadRoundTrip(t *testing.T) {
	st, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, st.Save(samplePlan()))

	got, err := st.Load()
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "checkout", got.ProjectName)
	assert.Equal(t, "rebuild the payment flow", got.UserGoal)
	assert.Equal(t, "go", got.TechStack["language"])
	require.Len(t, got.Phases, 2)
	assert.Equal(t, "Setup", got.Phases[0].Name)

	b1 := got.FindTask("b1")
	require.NotNil(t, b1)
	assert.Equal(t, planning.PriorityHigh, b1.Priority)
	assert.Equal(t, []string{"s1"}, b1.Dependencies)
	assert.InDelta(t, 4.0, b1.EstimatedHours, 0.001)
}

func TestFileStoreSaveStampsMetadata(t *testing.T) {
	st, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	p := samplePlan()
	p.UpdatedAt = ""
	p.Metadata = planning.Metadata{}
	require.NoError(t, st.Save(p))

	got, err := st.Load()
	require.NoError(t, err)
	assert.NotEmpty(t, got.UpdatedAt)
	assert.Equal(t, 2, got.Metadata.TotalTasks)
	assert.Equal(t, 1, got.Metadata.CompletedTasks)
}

func TestFileStoreLoadMissing(t *testing.T) {
	st, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	p, err := st.Load()
	assert.NoError(t, err)
	assert.Nil(t, p)
}

func TestFileStoreLoadMalformed(t *testing.T) {
	st, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(st.PlanPath(), []byte("{not json"), 0644))

	p, err := st.Load()
	assert.NoError(t, err)
	assert.Nil(t, p)
}

func TestFileStoreLoadNullDocument(t *testing.T) {
	st, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(st.PlanPath(), []byte("null"), 0644))

	p, err := st.Load()
	assert.NoError(t, err)
	assert.Nil(t, p)
}

func TestFileStoreSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	st, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, st.Save(samplePlan()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp.")
	}
}

func TestFileStoreWritesCamelCaseJSON(t *testing.T) {
	st, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, st.Save(samplePlan()))

	raw, err := os.ReadFile(st.PlanPath())
	require.NoError(t, err)

	for _, key := range []string{`"projectName"`, `"userGoal"`, `"phases"`, `"updatedAt"`, `"estimatedHours"`} {
		assert.Contains(t, string(raw), key)
	}
}

func TestNewFileStoreCreatesNestedDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", ".workplan")
	st, err := NewFileStore(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, st.Dir())
	assert.DirExists(t, dir)
}

// --- Memory Document Tests ---

func TestFileStoreMemoryDefault(t *testing.T) {
	st, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	m, err := st.LoadMemory()
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Empty(t, m.Decisions)
	assert.Empty(t, m.Patterns)
	assert.Empty(t, m.Notes)
}

func TestFileStoreMemoryRoundTrip(t *testing.T) {
	st, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	m := planning.NewMemory()
	m.Decisions = append(m.Decisions, planning.Decision{
		Timestamp: planning.Now(),
		Decision:  "keep JSON store",
		Reasoning: "zero operational surface",
	})
	m.Notes = append(m.Notes, planning.Note{Timestamp: planning.Now(), Note: "revisit retention"})
	require.NoError(t, st.SaveMemory(m))

	got, err := st.LoadMemory()
	require.NoError(t, err)
	require.Len(t, got.Decisions, 1)
	assert.Equal(t, "keep JSON store", got.Decisions[0].Decision)
	require.Len(t, got.Notes, 1)
}

func TestFileStoreMemoryMalformed(t *testing.T) {
	dir := t.TempDir()
	st, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "memory.json"), []byte("[["), 0644))

	m, err := st.LoadMemory()
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Empty(t, m.Decisions)
}

func TestFileStoreMemoryNullDocument(t *testing.T) {
	dir := t.TempDir()
	st, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "memory.json"), []byte("null"), 0644))

	m, err := st.LoadMemory()
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Empty(t, m.Decisions)
}

// --- History Log Tests ---

func TestFileStoreHistoryAppendAndLoad(t *testing.T) {
	st, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	for _, intent := range []string{"init", "start", "complete"} {
		require.NoError(t, st.AppendHistory(planning.HistoryEntry{
			Timestamp: planning.Now(),
			SessionID: "sess-1",
			UserInput: "workplan " + intent,
			Intent:    intent,
			Outcome:   "ok",
		}))
	}

	entries, err := st.LoadHistory(0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "init", entries[0].Intent)
	assert.Equal(t, "complete", entries[2].Intent)
}

func TestFileStoreHistoryLimit(t *testing.T) {
	st, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	for _, intent := range []string{"init", "start", "complete"} {
		require.NoError(t, st.AppendHistory(planning.HistoryEntry{Intent: intent}))
	}

	entries, err := st.LoadHistory(2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "start", entries[0].Intent)
	assert.Equal(t, "complete", entries[1].Intent)
}

func TestFileStoreHistoryMissing(t *testing.T) {
	st, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	entries, err := st.LoadHistory(10)
	assert.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFileStoreHistorySkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	st, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, st.AppendHistory(planning.HistoryEntry{Intent: "first"}))

	f, err := os.OpenFile(filepath.Join(dir, "history.jsonl"), os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("garbage line\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, st.AppendHistory(planning.HistoryEntry{Intent: "second"}))

	entries, err := st.LoadHistory(0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "first", entries[0].Intent)
	assert.Equal(t, "second", entries[1].Intent)
}
