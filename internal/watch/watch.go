// Package watch rebuilds on file system changes below a root directory.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	eswio "github.com/dzonerzy/esw/io"
)

// DefaultDebounce is the quiet period before a rebuild starts.
const DefaultDebounce = 100 * time.Millisecond

// IgnoredDirs are never watched wherever they appear.
var IgnoredDirs = []string{".git", ".husky", ".vscode", "node_modules"}

// Event is the change that triggered a rebuild. Within a debounce window the
// last change wins.
type Event struct {
	Op   string // add, addDir, change, unlink or init
	Path string
	Time time.Time
}

// RebuildFunc handles one debounced change. Calls never overlap.
type RebuildFunc func(ctx context.Context, ev Event)

// Config configures a Watcher.
type Config struct {
	Root string
	// Ignore lists absolute directories and files whose changes are dropped,
	// typically the build outputs.
	Ignore   []string
	Debounce time.Duration
	// Initial fires one "init" event when Run starts.
	Initial bool
	Logger  *eswio.Logger
}

// Watcher watches Root recursively.
type Watcher struct {
	root     string
	ignore   []string
	debounce time.Duration
	initial  bool
	log      *eswio.Logger
	fs       *fsnotify.Watcher

	mu    sync.Mutex
	timer *time.Timer
	last  Event
	req   chan struct{}
}

// New starts watching cfg.Root and every directory below it that is not
// ignored.
func New(cfg Config) (*Watcher, error) {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve watch root: %w", err)
	}
	if st, err := os.Stat(root); err != nil || !st.IsDir() {
		return nil, fmt.Errorf("watch root not found or not a directory: %s", root)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	w := &Watcher{
		root:     root,
		debounce: cfg.Debounce,
		initial:  cfg.Initial,
		log:      cfg.Logger,
		fs:       fsw,
		req:      make(chan struct{}, 1),
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	for _, p := range cfg.Ignore {
		w.ignore = append(w.ignore, filepath.Clean(p))
	}
	if err := w.addDirsRecursive(root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Root is the absolute watched directory.
func (w *Watcher) Root() string { return w.root }

// Close stops watching.
func (w *Watcher) Close() error { return w.fs.Close() }

// Run dispatches debounced changes to rebuild until ctx is done. It waits
// for a running rebuild before returning.
func (w *Watcher) Run(ctx context.Context, rebuild RebuildFunc) error {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.work(ctx, rebuild)
	}()
	defer wg.Wait()
	defer w.stopTimer()

	if w.initial {
		w.mu.Lock()
		w.last = Event{Op: "init", Path: w.root, Time: time.Now()}
		w.mu.Unlock()
		w.request()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.warn("watcher error: %v", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Op == fsnotify.Chmod || w.Ignored(ev.Name) {
		return
	}
	isDir := false
	if ev.Op.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			isDir = true
			_ = w.addDirsRecursive(ev.Name)
		}
	}
	w.trigger(Event{Op: opName(ev.Op, isDir), Path: ev.Name, Time: time.Now()})
}

// trigger records ev and restarts the debounce timer.
func (w *Watcher) trigger(ev Event) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.last = ev
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.request)
}

func (w *Watcher) request() {
	select {
	case w.req <- struct{}{}:
	default:
	}
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

func (w *Watcher) lastEvent() Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

// work runs rebuilds one at a time. Requests arriving during a rebuild are
// folded into a single follow-up run.
func (w *Watcher) work(ctx context.Context, rebuild RebuildFunc) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.req:
			rebuild(ctx, w.lastEvent())
		}
	}
}

// Ignored reports whether changes to path are dropped.
func (w *Watcher) Ignored(path string) bool {
	path = filepath.Clean(path)
	base := filepath.Base(path)
	if path != w.root && ignoredName(base) {
		return true
	}
	if rel, err := filepath.Rel(w.root, path); err == nil {
		for _, part := range strings.Split(rel, string(filepath.Separator)) {
			if slices.Contains(IgnoredDirs, part) {
				return true
			}
		}
	}
	for _, p := range w.ignore {
		if path == p || strings.HasPrefix(path, p+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// ignoredName matches hidden files and editor temp files.
func ignoredName(base string) bool {
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"), strings.HasSuffix(base, ".swp"), strings.HasSuffix(base, ".swx"):
		return true
	case strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	case base == "Thumbs.db", base == "4913":
		return true
	}
	return false
}

func (w *Watcher) addDirsRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.Ignored(path) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil && !errors.Is(err, fsnotify.ErrClosed) {
			w.warn("watch add failed: %s: %v", path, err)
		}
		return nil
	})
}

func (w *Watcher) warn(format string, args ...any) {
	if w.log != nil {
		w.log.Warning(format, args...)
	}
}

func opName(op fsnotify.Op, isDir bool) string {
	switch {
	case op.Has(fsnotify.Create) && isDir:
		return "addDir"
	case op.Has(fsnotify.Create):
		return "add"
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return "unlink"
	default:
		return "change"
	}
}
