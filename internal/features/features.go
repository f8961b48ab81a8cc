// Package features provides the feature snapshot read by every catalog call.
package features

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/erazemk/setupcatalog/internal/model"
)

// Source returns the current feature snapshot. Callers take one snapshot per
// request and treat it as immutable.
type Source interface {
	Snapshot() model.FeatureSnapshot
}

// Static always returns the same snapshot.
type Static model.FeatureSnapshot

// Snapshot implements Source.
func (s Static) Snapshot() model.FeatureSnapshot {
	return model.FeatureSnapshot(s)
}

// FileSource serves a snapshot loaded from a YAML file and reloaded on demand.
type FileSource struct {
	path    string
	current atomic.Pointer[model.FeatureSnapshot]
	modTime atomic.Int64
}

// NewFileSource loads path. The file must exist and parse.
func NewFileSource(path string) (*FileSource, error) {
	fs := &FileSource{path: path}
	if err := fs.Reload(); err != nil {
		return nil, err
	}
	return fs, nil
}

// Snapshot implements Source.
func (fs *FileSource) Snapshot() model.FeatureSnapshot {
	return *fs.current.Load()
}

// Reload rereads the file if it changed since the last load. On error the
// previous snapshot stays in place.
func (fs *FileSource) Reload() error {
	info, err := os.Stat(fs.path)
	if err != nil {
		return fmt.Errorf("reading features: %w", err)
	}
	if fs.current.Load() != nil && info.ModTime().UnixNano() == fs.modTime.Load() {
		return nil
	}

	data, err := os.ReadFile(fs.path)
	if err != nil {
		return fmt.Errorf("reading features: %w", err)
	}
	snap, err := parse(data)
	if err != nil {
		return fmt.Errorf("parsing features %s: %w", fs.path, err)
	}

	fs.current.Store(&snap)
	fs.modTime.Store(info.ModTime().UnixNano())
	return nil
}

// Watch reloads the file every interval until ctx is done.
func (fs *FileSource) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := fs.Reload(); err != nil {
				slog.Warn("reloading features", "path", fs.path, "error", err)
			}
		}
	}
}

func parse(data []byte) (model.FeatureSnapshot, error) {
	var snap model.FeatureSnapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return model.FeatureSnapshot{}, err
	}
	overrides := make(map[string]model.Category, len(snap.CategoryOverrides))
	for key, cat := range snap.CategoryOverrides {
		if !cat.Valid() {
			return model.FeatureSnapshot{}, fmt.Errorf("override %q: unknown category %q", key, cat)
		}
		overrides[model.NormalizeKey(key)] = cat
	}
	snap.CategoryOverrides = overrides
	return snap, nil
}
