package engine

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/getmockd/ramlmock/pkg/logging"
)

// DefaultWatchInterval is how often the watcher polls.
const DefaultWatchInterval = time.Second

// DefaultWatchPatterns select the files a description is made of.
var DefaultWatchPatterns = []string{"**/*.raml", "**/*.json", "**/*.yaml", "**/*.yml"}

// Change kinds reported by the watcher.
const (
	ChangeModified = "modified"
	ChangeAdded    = "added"
	ChangeDeleted  = "deleted"
)

// FileChange is one file that changed between two polls.
type FileChange struct {
	Path string
	Kind string
}

// WatchError means watching could not be set up. The server keeps running
// without hot reload.
type WatchError struct {
	Dir string
	Err error
}

func (e *WatchError) Error() string {
	return fmt.Sprintf("cannot watch %s: %v", e.Dir, e.Err)
}

func (e *WatchError) Unwrap() error {
	return e.Err
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatchInterval sets the polling interval.
func WithWatchInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithWatchPatterns replaces the doublestar patterns selecting watched files.
func WithWatchPatterns(patterns ...string) WatcherOption {
	return func(w *Watcher) {
		if len(patterns) > 0 {
			w.patterns = patterns
		}
	}
}

// WithWatchLogger sets the logger.
func WithWatchLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.log = logger
		}
	}
}

type fileStamp struct {
	modTime time.Time
	size    int64
}

// Watcher polls a directory tree and reports files whose modification time
// or size changed, and files that appeared or disappeared.
type Watcher struct {
	dir      string
	fsys     fs.FS
	patterns []string
	interval time.Duration
	log      *slog.Logger
	files    map[string]fileStamp
}

// NewWatcher snapshots dir. It fails with a *WatchError when dir cannot be
// scanned or a pattern is malformed.
func NewWatcher(dir string, opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		dir:      dir,
		fsys:     os.DirFS(dir),
		patterns: DefaultWatchPatterns,
		interval: DefaultWatchInterval,
		log:      logging.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, &WatchError{Dir: dir, Err: err}
	}
	if !info.IsDir() {
		return nil, &WatchError{Dir: dir, Err: fmt.Errorf("not a directory")}
	}
	for _, p := range w.patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, &WatchError{Dir: dir, Err: fmt.Errorf("invalid pattern %q", p)}
		}
	}

	files, err := w.scan()
	if err != nil {
		return nil, &WatchError{Dir: dir, Err: err}
	}
	w.files = files
	return w, nil
}

// Files returns the watched files, relative to the directory.
func (w *Watcher) Files() []string {
	names := make([]string, 0, len(w.files))
	for name := range w.files {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Poll rescans once and returns what changed since the previous scan.
func (w *Watcher) Poll() ([]FileChange, error) {
	files, err := w.scan()
	if err != nil {
		return nil, err
	}

	var changes []FileChange
	for name, stamp := range files {
		old, ok := w.files[name]
		switch {
		case !ok:
			changes = append(changes, FileChange{Path: filepath.Join(w.dir, name), Kind: ChangeAdded})
		case !old.modTime.Equal(stamp.modTime) || old.size != stamp.size:
			changes = append(changes, FileChange{Path: filepath.Join(w.dir, name), Kind: ChangeModified})
		}
	}
	for name := range w.files {
		if _, ok := files[name]; !ok {
			changes = append(changes, FileChange{Path: filepath.Join(w.dir, name), Kind: ChangeDeleted})
		}
	}
	w.files = files

	slices.SortFunc(changes, func(a, b FileChange) int {
		switch {
		case a.Path < b.Path:
			return -1
		case a.Path > b.Path:
			return 1
		}
		return 0
	})
	return changes, nil
}

// Run polls until ctx is done, calling onChange with each non-empty batch
// of changes. Scan errors are logged and polling continues.
func (w *Watcher) Run(ctx context.Context, onChange func([]FileChange)) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			changes, err := w.Poll()
			if err != nil {
				w.log.Warn("failed to scan description files", "dir", w.dir, "error", err)
				continue
			}
			if len(changes) == 0 {
				continue
			}
			for _, c := range changes {
				w.log.Debug("description file changed", "path", c.Path, "change", c.Kind)
			}
			onChange(changes)
		}
	}
}

func (w *Watcher) scan() (map[string]fileStamp, error) {
	files := make(map[string]fileStamp)
	for _, pattern := range w.patterns {
		matches, err := doublestar.Glob(w.fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, err
		}
		for _, name := range matches {
			if _, ok := files[name]; ok {
				continue
			}
			info, err := fs.Stat(w.fsys, name)
			if err != nil {
				// Deleted between glob and stat; the next poll sees it gone.
				continue
			}
			files[name] = fileStamp{modTime: info.ModTime(), size: info.Size()}
		}
	}
	return files, nil
}
