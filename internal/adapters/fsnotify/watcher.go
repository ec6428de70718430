// Package fsnotify implements the ports.Watcher interface using github.com/fsnotify/fsnotify.
// It recursively watches a directory of op-sequence files, ignores everything
// that is not one, and fires once per file after its writes settle (editors
// and `cat >` often write a file in several steps).
package fsnotify

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long a file must stay quiet before onChange fires.
const DefaultSettle = 100 * time.Millisecond

// Directories to ignore when watching.
var ignoreDirs = map[string]bool{
	".git":      true,
	".owenhash": true,
	".idea":     true,
	".vscode":   true,
}

// Extensions of files that hold op sequences.
var opExtensions = map[string]bool{
	".ops":  true,
	".json": true,
}

// Watcher implements ports.Watcher using fsnotify.
type Watcher struct {
	fw      *fsnotify.Watcher
	done    chan struct{}
	stopped bool
	mu      sync.Mutex

	settle time.Duration
	timers map[string]*time.Timer
}

// NewWatcher creates a new file system watcher with DefaultSettle.
func NewWatcher() (*Watcher, error) {
	return NewWatcherWithSettle(DefaultSettle)
}

// NewWatcherWithSettle creates a watcher that waits settle after the last
// event on a file before reporting it.
func NewWatcherWithSettle(settle time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fw:     fw,
		done:   make(chan struct{}),
		settle: settle,
		timers: make(map[string]*time.Timer),
	}, nil
}

// Watch starts monitoring dir recursively.
// onChange is called with the absolute path of each created or rewritten
// op file, from a timer goroutine, at most once per settle window.
func (w *Watcher) Watch(dir string, onChange func(filePath string)) error {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	// Walk and add all directories
	err = filepath.Walk(absPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip inaccessible paths
		}
		if info.IsDir() {
			if ignoreDirs[info.Name()] && path != absPath {
				return filepath.SkipDir
			}
			return w.fw.Add(path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case event, ok := <-w.fw.Events:
				if !ok {
					return
				}
				path := event.Name

				// For Create events, add new directories to the watch list
				if event.Has(fsnotify.Create) {
					if info, err := os.Stat(path); err == nil && info.IsDir() {
						if !ignoreDirs[info.Name()] {
							w.fw.Add(path)
						}
						continue
					}
				}

				if !isOpFile(path) {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					w.schedule(path, onChange)
				}

			case _, ok := <-w.fw.Errors:
				if !ok {
					return
				}
				// fsnotify recovers from watch errors on its own.

			case <-w.done:
				return
			}
		}
	}()

	return nil
}

// schedule (re)starts the settle timer for path.
func (w *Watcher) schedule(path string, onChange func(string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if t, ok := w.timers[path]; ok {
		t.Reset(w.settle)
		return
	}
	w.timers[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.timers, path)
		stopped := w.stopped
		w.mu.Unlock()
		if !stopped {
			onChange(path)
		}
	})
}

// Stop ends monitoring and releases all resources. Pending callbacks are
// dropped. Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
	close(w.done)
	return w.fw.Close()
}

// isOpFile reports whether path names a visible op-sequence file outside
// any ignored directory.
func isOpFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	if !opExtensions[strings.ToLower(filepath.Ext(base))] {
		return false
	}
	for _, part := range strings.Split(filepath.Dir(path), string(filepath.Separator)) {
		if ignoreDirs[part] {
			return false
		}
	}
	return true
}
