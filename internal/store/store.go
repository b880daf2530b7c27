// Package store provides the persistence backends for the planner's four
// collections.
package store

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"
)

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendYAML   = "yaml"
	BackendMemory = "memory"
)

// Backend loads and saves whole collections.
type Backend interface {
	Load(ctx context.Context, collection string, dst any) error
	SaveAll(ctx context.Context, collection string, items any) error
	io.Closer
}

// Inspector is implemented by backends that can report what they hold
// without decoding it.
type Inspector interface {
	Counts(ctx context.Context) (map[string]int, error)
	LastSavedAt(ctx context.Context) (time.Time, error)
}

// Open returns the backend named by kind, storing its files under dataDir.
func Open(kind, dataDir string) (Backend, error) {
	switch kind {
	case "", BackendSQLite:
		return OpenSQLite(filepath.Join(dataDir, "planner.sqlite"))
	case BackendYAML:
		return NewYAMLDir(filepath.Join(dataDir, "collections")), nil
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q (expected sqlite, yaml or memory)", kind)
	}
}

var (
	_ Backend   = (*SQLite)(nil)
	_ Inspector = (*SQLite)(nil)
	_ Backend   = (*YAMLDir)(nil)
	_ Backend   = (*Memory)(nil)
)
