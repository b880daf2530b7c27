package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timeplanner/internal/store"
	"timeplanner/internal/tracker"
)

func snapshot(progress int) tracker.Snapshot {
	return tracker.Snapshot{
		Goals: []tracker.Goal{{
			ID: "g1", Title: "Ship", Category: tracker.CategoryWork, Horizon: tracker.HorizonShort,
			Status: tracker.GoalActive, Progress: progress,
			CreatedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		}},
		Activities:    []tracker.Activity{},
		SubActivities: []tracker.SubActivity{},
		Records:       []tracker.DailyRecord{},
	}
}

func TestFirstExportHasNoDiff(t *testing.T) {
	root := filepath.Join(t.TempDir(), "exports")
	now := time.Date(2025, 6, 10, 20, 30, 0, 0, time.UTC)

	meta, err := Write(context.Background(), snapshot(0), root, now)
	require.NoError(t, err)
	assert.Equal(t, "20250610T203000Z", meta.ID)
	assert.Equal(t, []string{"goals.yaml", "activities.yaml", "subactivities.yaml", "records.yaml"}, meta.Files)
	assert.Equal(t, 1, meta.Counts[tracker.CollectionGoals])
	assert.Empty(t, meta.Previous)
	assert.Empty(t, meta.DiffFile)

	var goals []tracker.Goal
	require.NoError(t, store.NewYAMLDir(meta.Dir).Load(context.Background(), tracker.CollectionGoals, &goals))
	require.Len(t, goals, 1)
	assert.Equal(t, "Ship", goals[0].Title)

	_, err = os.Stat(filepath.Join(meta.Dir, "export.json"))
	assert.NoError(t, err)
}

func TestSecondExportDiffsAgainstPrevious(t *testing.T) {
	root := t.TempDir()
	now := time.Date(2025, 6, 10, 20, 30, 0, 0, time.UTC)
	ctx := context.Background()

	first, err := Write(ctx, snapshot(0), root, now)
	require.NoError(t, err)
	second, err := Write(ctx, snapshot(75), root, now)
	require.NoError(t, err)

	assert.Equal(t, first.ID+"-2", second.ID, "same-second exports get a suffix")
	assert.Equal(t, first.ID, second.Previous)
	require.Equal(t, "changes.diff", second.DiffFile)

	diff, err := os.ReadFile(filepath.Join(second.Dir, "changes.diff"))
	require.NoError(t, err)
	assert.Contains(t, string(diff), "--- 20250610T203000Z/goals.yaml")
	assert.Regexp(t, `(?m)^-\s+progress: 0$`, string(diff))
	assert.Regexp(t, `(?m)^\+\s+progress: 75$`, string(diff))
	assert.NotContains(t, string(diff), "records.yaml", "unchanged files are not diffed")

	third, err := Write(ctx, snapshot(75), root, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, second.ID, third.Previous)
	assert.Empty(t, third.DiffFile, "identical snapshots produce no diff")

	ids, err := List(root)
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID, second.ID, third.ID}, ids)
}

func TestListIgnoresStrayEntries(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "scratch"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), nil, 0o644))

	ids, err := List(root)
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = List(filepath.Join(root, "missing"))
	require.NoError(t, err)
	assert.Empty(t, ids)
}
