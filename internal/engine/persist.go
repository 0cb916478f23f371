package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/inkroot/folio/internal/hierarchy"
	"github.com/inkroot/folio/internal/tags"
	"github.com/inkroot/folio/internal/textindex"
)

// Snapshot file names inside a snapshot directory.
const (
	indexSnapshotFile     = "search_index.json"
	hierarchySnapshotFile = "hierarchy.json"
	tagsSnapshotFile      = "tags.json"
	backupDirName         = "backups"
)

// Save writes the engine state as three JSON snapshots under dir,
// creating it if needed. Each file is written to a temp name and
// renamed into place.
func (e *Engine) Save(dir string) error {
	e.mu.RLock()
	indexSnap := e.index.Snapshot()
	nodeSnap := e.nodes.Snapshot()
	tagSnap := e.tags.Snapshot()
	e.mu.RUnlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return e.snapshotErr("save", fmt.Errorf("create snapshot dir: %w", err))
	}
	files := []struct {
		name string
		data interface{}
	}{
		{indexSnapshotFile, indexSnap},
		{hierarchySnapshotFile, nodeSnap},
		{tagsSnapshotFile, tagSnap},
	}
	for _, f := range files {
		if err := writeJSON(filepath.Join(dir, f.name), f.data); err != nil {
			return e.snapshotErr("save", err)
		}
	}
	if e.metrics != nil {
		e.metrics.SnapshotOpsTotal.WithLabelValues("save", "ok").Inc()
	}
	e.logger.Info("snapshot saved",
		zap.String("dir", dir),
		zap.Int("documents", indexSnap.DocumentCount))
	return nil
}

// Load replaces the engine state with the snapshots under dir. All
// three files are parsed and validated before anything is swapped, so a
// corrupt or missing snapshot leaves the current state untouched.
func (e *Engine) Load(dir string) error {
	var indexSnap textindex.Snapshot
	if err := readJSON(filepath.Join(dir, indexSnapshotFile), &indexSnap); err != nil {
		return e.snapshotErr("load", err)
	}
	var nodeSnap hierarchy.Snapshot
	if err := readJSON(filepath.Join(dir, hierarchySnapshotFile), &nodeSnap); err != nil {
		return e.snapshotErr("load", err)
	}
	var tagSnap tags.Snapshot
	if err := readJSON(filepath.Join(dir, tagsSnapshotFile), &tagSnap); err != nil {
		return e.snapshotErr("load", err)
	}

	index, err := textindex.FromSnapshot(&indexSnap, textindex.WithSnippetLength(e.snippetLen))
	if err != nil {
		return e.snapshotErr("load", fmt.Errorf("%s: %w", indexSnapshotFile, err))
	}
	nodes, err := hierarchy.FromSnapshot(&nodeSnap, hierarchy.WithLogger(e.logger))
	if err != nil {
		return e.snapshotErr("load", fmt.Errorf("%s: %w", hierarchySnapshotFile, err))
	}
	taxonomy, err := tags.FromSnapshot(&tagSnap, tags.WithLogger(e.logger))
	if err != nil {
		return e.snapshotErr("load", fmt.Errorf("%s: %w", tagsSnapshotFile, err))
	}

	e.mu.Lock()
	e.index = index
	e.nodes = nodes
	e.tags = taxonomy
	e.mu.Unlock()
	e.cache.purge()

	if e.metrics != nil {
		e.metrics.SnapshotOpsTotal.WithLabelValues("load", "ok").Inc()
	}
	e.logger.Info("snapshot loaded",
		zap.String("dir", dir),
		zap.Int("documents", index.DocumentCount()))
	return nil
}

// Backup copies the snapshot files under dir into a timestamped
// directory below dir/backups and returns its path. Save must have run
// at least once.
func (e *Engine) Backup(dir string) (string, error) {
	stamp := time.Now().UTC().Format("20060102-150405")
	dst := filepath.Join(dir, backupDirName, stamp)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", e.snapshotErr("backup", fmt.Errorf("create backup dir: %w", err))
	}
	for _, name := range []string{indexSnapshotFile, hierarchySnapshotFile, tagsSnapshotFile} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return "", e.snapshotErr("backup", fmt.Errorf("read snapshot %s: %w", name, err))
		}
		if err := os.WriteFile(filepath.Join(dst, name), data, 0o644); err != nil {
			return "", e.snapshotErr("backup", fmt.Errorf("copy snapshot %s: %w", name, err))
		}
	}
	if e.metrics != nil {
		e.metrics.SnapshotOpsTotal.WithLabelValues("backup", "ok").Inc()
	}
	e.logger.Info("snapshot backed up", zap.String("dir", dst))
	return dst, nil
}

func (e *Engine) snapshotErr(op string, err error) error {
	if e.metrics != nil {
		e.metrics.SnapshotOpsTotal.WithLabelValues(op, "error").Inc()
	}
	return err
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}
