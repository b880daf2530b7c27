// Package export writes point-in-time YAML copies of the planner's
// collections and diffs them against the previous copy.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"

	"timeplanner/internal/store"
	"timeplanner/internal/tracker"
)

const (
	stampLayout  = "20060102T150405Z"
	metadataFile = "export.json"
	diffFile     = "changes.diff"
)

// Metadata describes one export directory.
type Metadata struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Dir       string         `json:"dir"`
	Files     []string       `json:"files"`
	Counts    map[string]int `json:"counts"`
	Previous  string         `json:"previous,omitempty"`
	DiffFile  string         `json:"diff_file,omitempty"`
}

// Write stores snap under root/<UTC stamp>/ and, when an earlier export
// exists, a unified diff against it.
func Write(ctx context.Context, snap tracker.Snapshot, root string, now time.Time) (*Metadata, error) {
	if root == "" {
		return nil, fmt.Errorf("exports directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("ensure exports dir: %w", err)
	}

	previous, err := latest(root)
	if err != nil {
		return nil, err
	}
	id, dir, err := reserveDir(root, now.UTC().Format(stampLayout))
	if err != nil {
		return nil, err
	}

	meta := &Metadata{
		ID:        id,
		CreatedAt: now.UTC(),
		Dir:       dir,
		Counts: map[string]int{
			tracker.CollectionGoals:         len(snap.Goals),
			tracker.CollectionActivities:    len(snap.Activities),
			tracker.CollectionSubActivities: len(snap.SubActivities),
			tracker.CollectionRecords:       len(snap.Records),
		},
	}

	out := store.NewYAMLDir(dir)
	items := map[string]any{
		tracker.CollectionGoals:         snap.Goals,
		tracker.CollectionActivities:    snap.Activities,
		tracker.CollectionSubActivities: snap.SubActivities,
		tracker.CollectionRecords:       snap.Records,
	}
	for _, name := range tracker.Collections {
		if err := out.SaveAll(ctx, name, items[name]); err != nil {
			return nil, fmt.Errorf("export %s: %w", name, err)
		}
		meta.Files = append(meta.Files, filepath.Base(out.Path(name)))
	}

	if previous != "" {
		meta.Previous = previous
		name, err := writeDiff(filepath.Join(root, previous), dir, previous, id, meta.Files)
		if err != nil {
			return nil, err
		}
		meta.DiffFile = name
	}

	if err := writeMetadata(meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// List returns the export ids under root, oldest first.
func List(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read exports dir: %w", err)
	}
	var ids []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(root, entry.Name(), metadataFile)); err != nil {
			continue
		}
		ids = append(ids, entry.Name())
	}
	sort.Strings(ids)
	return ids, nil
}

func latest(root string) (string, error) {
	ids, err := List(root)
	if err != nil || len(ids) == 0 {
		return "", err
	}
	return ids[len(ids)-1], nil
}

// reserveDir creates root/stamp, suffixing -2, -3 ... when it already exists.
func reserveDir(root, stamp string) (string, string, error) {
	id := stamp
	for n := 2; ; n++ {
		dir := filepath.Join(root, id)
		err := os.Mkdir(dir, 0o755)
		if err == nil {
			return id, dir, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", "", fmt.Errorf("create export dir: %w", err)
		}
		id = fmt.Sprintf("%s-%d", stamp, n)
	}
}

func writeDiff(oldDir, newDir, oldID, newID string, files []string) (string, error) {
	var diffStrings []string
	for _, baseName := range files {
		oldBytes, err := os.ReadFile(filepath.Join(oldDir, baseName))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("read %s: %w", baseName, err)
		}
		newBytes, err := os.ReadFile(filepath.Join(newDir, baseName))
		if err != nil {
			return "", fmt.Errorf("read %s: %w", baseName, err)
		}
		diff := difflib.UnifiedDiff{
			A:        difflib.SplitLines(string(oldBytes)),
			B:        difflib.SplitLines(string(newBytes)),
			FromFile: filepath.Join(oldID, baseName),
			ToFile:   filepath.Join(newID, baseName),
			Context:  3,
		}
		diffText, err := difflib.GetUnifiedDiffString(diff)
		if err != nil {
			return "", fmt.Errorf("diff %s: %w", baseName, err)
		}
		if strings.TrimSpace(diffText) != "" {
			diffStrings = append(diffStrings, diffText)
		}
	}
	if len(diffStrings) == 0 {
		return "", nil
	}

	if err := os.WriteFile(filepath.Join(newDir, diffFile), []byte(strings.Join(diffStrings, "")), 0o644); err != nil {
		return "", fmt.Errorf("write diff: %w", err)
	}
	return diffFile, nil
}

func writeMetadata(meta *Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", metadataFile, err)
	}
	if err := store.WriteFileAtomic(filepath.Join(meta.Dir, metadataFile), append(data, '\n')); err != nil {
		return fmt.Errorf("write %s: %w", metadataFile, err)
	}
	return nil
}
