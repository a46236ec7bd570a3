package engine

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a path must stay quiet before its events are
// applied.
const DefaultDebounce = 100 * time.Millisecond

// FileWatcher watches the input tree and regenerates changed files
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	gen      *Generator
	watchDir string
	skipDir  string
	debounce time.Duration
	log      *slog.Logger

	// OnChange is called after the events of a path have been applied.
	OnChange func(path string)

	mu      sync.Mutex
	pending map[string]fsnotify.Op
	timers  map[string]*time.Timer
	done    chan struct{}
}

// NewFileWatcher creates a watcher for the input directory of gen.
func NewFileWatcher(gen *Generator) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &FileWatcher{
		watcher:  watcher,
		gen:      gen,
		watchDir: gen.s.cfg.InputDir,
		skipDir:  gen.s.cfg.OutputDir,
		debounce: DefaultDebounce,
		log:      gen.s.cfg.Logger.With("component", "watcher"),
		pending:  make(map[string]fsnotify.Op),
		timers:   make(map[string]*time.Timer),
		done:     make(chan struct{}),
	}

	// Thêm các thư mục để watch
	if err := fw.addWatchRecursive(fw.watchDir); err != nil {
		watcher.Close()
		return nil, err
	}

	return fw, nil
}

// addWatchRecursive adds directories to watch recursively. The output
// directory is skipped when it lives inside the input tree.
func (fw *FileWatcher) addWatchRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path == fw.skipDir {
			return filepath.SkipDir
		}
		return fw.watcher.Add(path)
	})
}

// Start starts watching
func (fw *FileWatcher) Start() {
	fw.log.Info("watching", "dir", fw.watchDir)
	go func() {
		for {
			select {
			case event, ok := <-fw.watcher.Events:
				if !ok {
					return
				}
				fw.handle(event)

			case err, ok := <-fw.watcher.Errors:
				if !ok {
					return
				}
				fw.log.Error("watcher error", "error", err)

			case <-fw.done:
				return
			}
		}
	}()
}

func (fw *FileWatcher) handle(event fsnotify.Event) {
	if event.Op == fsnotify.Chmod {
		return
	}
	if fw.skipDir != "" && isWithin(event.Name, fw.skipDir) {
		return
	}
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := fw.addWatchRecursive(event.Name); err != nil {
				fw.log.Error("watch new directory", "dir", event.Name, "error", err)
			}
			return
		}
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()

	fw.pending[event.Name] |= event.Op
	if t, ok := fw.timers[event.Name]; ok {
		t.Reset(fw.debounce)
		return
	}
	name := event.Name
	fw.timers[name] = time.AfterFunc(fw.debounce, func() { fw.fire(name) })
}

// fire applies the accumulated events of one path.
func (fw *FileWatcher) fire(path string) {
	fw.mu.Lock()
	events := fw.pending[path]
	delete(fw.pending, path)
	delete(fw.timers, path)
	fw.mu.Unlock()

	// editors that save by rename produce remove+create bursts; the file
	// state at the end of the burst decides
	op := fsnotify.Remove
	if _, err := os.Stat(path); err == nil {
		op = fsnotify.Write
	}

	fw.log.Debug("change", "path", path, "events", events.String(), "op", op.String())
	if err := fw.gen.HandleEvent(op, path); err != nil {
		fw.log.Error("apply change", "path", path, "error", err)
	}
	if fw.OnChange != nil {
		fw.OnChange(path)
	}
}

// Stop watching
func (fw *FileWatcher) Stop() {
	fw.mu.Lock()
	for _, t := range fw.timers {
		t.Stop()
	}
	fw.mu.Unlock()

	select {
	case <-fw.done:
	default:
		close(fw.done)
	}
	fw.watcher.Close()
}

func isWithin(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
