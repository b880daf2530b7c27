package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// YAMLDir keeps each collection in <Dir>/<collection>.yaml.
type YAMLDir struct {
	Dir string
}

// NewYAMLDir returns a store rooted at dir. The directory is created on the
// first save.
func NewYAMLDir(dir string) *YAMLDir {
	return &YAMLDir{Dir: dir}
}

// Path returns the file backing collection.
func (s *YAMLDir) Path(collection string) string {
	return filepath.Join(s.Dir, collection+".yaml")
}

// Load decodes the collection file into dst. A missing file leaves dst
// untouched.
func (s *YAMLDir) Load(ctx context.Context, collection string, dst any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := os.ReadFile(s.Path(collection))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", collection, err)
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parse %s: %w", s.Path(collection), err)
	}
	return nil
}

// SaveAll rewrites the collection file atomically.
func (s *YAMLDir) SaveAll(ctx context.Context, collection string, items any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := yaml.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", collection, err)
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("ensure %s: %w", s.Dir, err)
	}
	return WriteFileAtomic(s.Path(collection), data)
}

// Close is a no-op.
func (s *YAMLDir) Close() error { return nil }

// WriteFileAtomic writes data next to path and renames it into place.
func WriteFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
