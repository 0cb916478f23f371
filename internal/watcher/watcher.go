// Package watcher keeps the engine in sync with directories on disk:
// fsnotify events are debounced per path and fed to an ingestion sink,
// with roots that can be added and removed while watching.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Sink receives file change notifications. *ingest.Ingestor satisfies it.
type Sink interface {
	IngestFile(ctx context.Context, path string) error
	RemoveFile(ctx context.Context, path string) error
}

// Watcher watches directory roots and drives a Sink on file changes.
// Write bursts are debounced per path so a file being copied in is
// ingested once, after it settles.
type Watcher struct {
	sink       Sink
	extensions []string
	recursive  bool
	debounce   time.Duration
	logger     *zap.Logger

	mu       sync.Mutex
	roots    []string
	rootDirs map[string][]string // root -> directories watched under it
	pending  map[string]*time.Timer
	fsw      *fsnotify.Watcher
	ctx      context.Context
	started  bool

	done     chan struct{}
	stopOnce sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger used for watch events.
func WithLogger(logger *zap.Logger) Option {
	return func(w *Watcher) { w.logger = logger }
}

// WithDebounce sets how long a path must be quiet before ingestion.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher over the given roots. extensions filters which
// files are reported (empty = all); recursive extends the watch to
// subdirectories, including ones created later.
func New(roots, extensions []string, recursive bool, sink Sink, opts ...Option) *Watcher {
	w := &Watcher{
		sink:       sink,
		extensions: extensions,
		recursive:  recursive,
		debounce:   defaultDebounce,
		logger:     zap.NewNop(),
		roots:      append([]string(nil), roots...),
		rootDirs:   make(map[string][]string),
		pending:    make(map[string]*time.Timer),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. It runs until ctx is cancelled or Stop is
// called; starting an already started watcher is a no-op. Missing root
// directories are created.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.fsw = fsw
	w.ctx = ctx
	w.started = true
	for _, root := range w.roots {
		if err := w.watchRootLocked(root); err != nil {
			_ = w.fsw.Close()
			w.fsw = nil
			w.started = false
			w.mu.Unlock()
			return err
		}
	}
	roots := append([]string(nil), w.roots...)
	w.mu.Unlock()

	w.logger.Debug("watch started",
		zap.Strings("roots", roots),
		zap.Strings("extensions", w.extensions),
		zap.Bool("recursive", w.recursive))
	go w.run(ctx, fsw)
	return nil
}

// run owns the event loop. It holds its own reference to the fsnotify
// watcher so a concurrent Stop cannot pull it out from under the select;
// Stop closes the handle, which closes both channels.
func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Warn("watch error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	path := ev.Name
	if !w.underRoot(path) {
		return
	}
	w.logger.Debug("watch event", zap.String("op", ev.Op.String()), zap.String("path", path))

	switch {
	case ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write):
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if ev.Op.Has(fsnotify.Create) {
				w.handleNewDirectory(path)
			}
			return
		}
		if w.matchExtension(path) {
			w.scheduleIngest(path)
		}
	case ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename):
		// A rename reports the old path; the new one arrives as Create.
		w.cancelPending(path)
		if w.matchExtension(path) {
			w.notifyRemove(path)
		}
	}
}

// handleNewDirectory extends the watch to a directory created (or moved)
// under a recursive root and ingests whatever it already contains.
// Non-recursive roots ignore new subdirectories.
func (w *Watcher) handleNewDirectory(dir string) {
	w.mu.Lock()
	fsw := w.fsw
	recursive := w.recursive
	w.mu.Unlock()
	if fsw == nil || !recursive {
		return
	}

	var added []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if addErr := fsw.Add(path); addErr != nil {
			w.logger.Warn("watch add failed", zap.String("path", path), zap.Error(addErr))
			return nil
		}
		added = append(added, path)
		return nil
	})
	w.trackUnderRoot(dir, added)
	w.logger.Debug("watching new directory", zap.String("path", dir), zap.Int("dirs", len(added)))
	w.syncDirectory(w.context(), dir)
}

// trackUnderRoot records added watch directories against the root that
// owns dir, so RemoveRoot can drop them later.
func (w *Watcher) trackUnderRoot(dir string, added []string) {
	if len(added) == 0 {
		return
	}
	clean := filepath.Clean(dir)
	w.mu.Lock()
	defer w.mu.Unlock()
	for root := range w.rootDirs {
		if root == clean || inDir(root, clean) {
			w.rootDirs[root] = append(w.rootDirs[root], added...)
			return
		}
	}
}

func (w *Watcher) underRoot(path string) bool {
	w.mu.Lock()
	roots := append([]string(nil), w.roots...)
	w.mu.Unlock()
	clean := filepath.Clean(path)
	for _, root := range roots {
		rootClean := filepath.Clean(root)
		if rootClean == clean || inDir(rootClean, clean) {
			return true
		}
	}
	return false
}

func inDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (w *Watcher) matchExtension(path string) bool {
	return matchExtension(path, w.extensions)
}

func matchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}

func (w *Watcher) scheduleIngest(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		ctx := w.context()
		if ctx.Err() != nil {
			return
		}
		w.logger.Debug("ingesting changed file", zap.String("path", path))
		if err := w.sink.IngestFile(ctx, path); err != nil {
			w.logger.Warn("ingest failed", zap.String("path", path), zap.Error(err))
		}
	})
}

func (w *Watcher) cancelPending(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) notifyRemove(path string) {
	if err := w.sink.RemoveFile(w.context(), path); err != nil {
		w.logger.Warn("remove failed", zap.String("path", path), zap.Error(err))
	}
}

func (w *Watcher) context() context.Context {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ctx != nil {
		return w.ctx
	}
	return context.Background()
}

// AddRoot adds a directory root. Before Start it is queued; afterwards
// watching begins immediately, and with syncExisting the files already
// present are ingested in the background. Adding a known root is a
// no-op.
func (w *Watcher) AddRoot(root string, syncExisting bool) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	w.mu.Lock()
	for _, r := range w.roots {
		if filepath.Clean(r) == filepath.Clean(abs) {
			w.mu.Unlock()
			return nil
		}
	}
	if w.fsw == nil {
		w.roots = append(w.roots, abs)
		w.mu.Unlock()
		return nil
	}
	if err := w.watchRootLocked(abs); err != nil {
		w.mu.Unlock()
		return err
	}
	w.roots = append(w.roots, abs)
	w.mu.Unlock()

	w.logger.Info("watch root added", zap.String("path", abs), zap.Bool("sync_existing", syncExisting))
	if syncExisting {
		go w.syncDirectory(w.context(), abs)
	}
	return nil
}

// watchRootLocked registers root (creating it if missing) and, for
// recursive watchers, every directory below it. Callers hold w.mu.
func (w *Watcher) watchRootLocked(root string) error {
	root = filepath.Clean(root)
	if _, err := os.Stat(root); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		if err := os.MkdirAll(root, 0o755); err != nil {
			return err
		}
	}
	var dirs []string
	if w.recursive {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if err := w.fsw.Add(path); err != nil {
				return err
			}
			dirs = append(dirs, path)
			return nil
		})
		if err != nil {
			return err
		}
	} else {
		if err := w.fsw.Add(root); err != nil {
			return err
		}
		dirs = append(dirs, root)
	}
	w.rootDirs[root] = dirs
	return nil
}

// RemoveRoot stops watching root. Documents already ingested from it are
// left alone.
func (w *Watcher) RemoveRoot(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	abs = filepath.Clean(abs)
	w.mu.Lock()
	defer w.mu.Unlock()
	idx := -1
	for i, r := range w.roots {
		if filepath.Clean(r) == abs {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	if w.fsw != nil {
		for _, dir := range w.rootDirs[abs] {
			_ = w.fsw.Remove(dir)
		}
	}
	delete(w.rootDirs, abs)
	w.roots = append(w.roots[:idx], w.roots[idx+1:]...)
	w.logger.Info("watch root removed", zap.String("path", abs))
	return nil
}

// Roots returns a copy of the watched root directories.
func (w *Watcher) Roots() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.roots...)
}

// SyncExisting ingests every matching file already present under the
// watched roots. Call it after Start to pick up files that predate the
// watch.
func (w *Watcher) SyncExisting(ctx context.Context) {
	w.mu.Lock()
	roots := append([]string(nil), w.roots...)
	w.mu.Unlock()
	w.logger.Debug("syncing existing files", zap.Strings("roots", roots))
	for _, root := range roots {
		w.syncDirectory(ctx, root)
	}
}

// syncDirectory ingests matching files under root: the whole tree for
// recursive watchers, the top level only otherwise.
func (w *Watcher) syncDirectory(ctx context.Context, root string) {
	root = filepath.Clean(root)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !w.recursive && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if !matchExtension(path, w.extensions) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.sink.IngestFile(ctx, path); err != nil {
			w.logger.Warn("sync ingest failed", zap.String("path", path), zap.Error(err))
		}
		return nil
	})
	if err != nil {
		w.logger.Warn("sync walk failed", zap.String("root", root), zap.Error(err))
	}
}

// Stop stops watching and releases the fsnotify handle. Pending
// debounced ingestions are dropped.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started || w.fsw == nil {
		w.mu.Unlock()
		return
	}
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	_ = w.fsw.Close()
	w.fsw = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
