// Package watch turns filesystem events into scheduler events. It stands
// in for an editor host: a write to a tracked file is treated as a save,
// a new file triggers an initial analysis.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/codepulse/internal/analyzer"
	"github.com/standardbeagle/codepulse/internal/config"
	"github.com/standardbeagle/codepulse/internal/debug"
	"github.com/standardbeagle/codepulse/internal/scheduler"
)

// Watcher monitors the project tree and feeds the analysis scheduler.
type Watcher struct {
	watcher *fsnotify.Watcher
	cfg     *config.Config
	sched   *scheduler.Scheduler

	// rescan coalesces directory creations into one watch-tree refresh.
	rescan *scheduler.Debouncer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a watcher bound to a scheduler.
func New(cfg *config.Config, sched *scheduler.Scheduler) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		watcher: fsw,
		cfg:     cfg,
		sched:   sched,
		rescan:  scheduler.NewDebouncer(time.Duration(cfg.Scheduler.RescanMs) * time.Millisecond),
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Start adds watches for the project tree, runs an initial scan of tracked
// files, and begins processing events.
func (w *Watcher) Start() error {
	root := w.cfg.Project.Root
	debug.LogWatch("starting watcher for %s", root)

	if err := w.addWatches(root); err != nil {
		return err
	}
	if err := w.initialScan(root); err != nil {
		return err
	}

	w.wg.Add(1)
	go w.processEvents()
	return nil
}

// Stop shuts down event processing and waits for it to drain.
func (w *Watcher) Stop() error {
	w.cancel()
	w.rescan.Stop()
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

// addWatches registers every non-excluded directory under root. Symlink
// cycles are broken by tracking resolved paths.
func (w *Watcher) addWatches(root string) error {
	visited := make(map[string]bool)

	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if !info.IsDir() {
			return nil
		}

		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return nil
		}
		if visited[realPath] {
			return filepath.SkipDir
		}
		visited[realPath] = true

		if w.excludedDir(path) {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(path); err != nil {
			debug.LogWatch("failed to watch %s: %v", path, err)
		}
		return nil
	})
}

// excludedDir reports whether a directory falls under an exclude pattern,
// so its whole subtree can be skipped.
func (w *Watcher) excludedDir(path string) bool {
	if path == w.cfg.Project.Root {
		return false
	}
	rel, err := filepath.Rel(w.cfg.Project.Root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)

	for _, pattern := range w.cfg.Tracking.Exclude {
		// "**/name/**" shapes exclude by directory name.
		dirPattern := strings.TrimSuffix(strings.TrimPrefix(pattern, "**/"), "/**")
		if matched, _ := filepath.Match(dirPattern, filepath.Base(path)); matched {
			return true
		}
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// trackedFile reports whether a file is in scope: matched by the tracking
// globs, in a recognized language, and not excluded by language.
func (w *Watcher) trackedFile(path string) bool {
	if !w.cfg.IsTracked(path) {
		return false
	}
	language := analyzer.LanguageForPath(path)
	return language != "unknown" && !w.cfg.LanguageExcluded(language)
}

// initialScan analyzes every tracked file once, in parallel, so insights
// have data before the first edit arrives.
func (w *Watcher) initialScan(root string) error {
	g, ctx := errgroup.WithContext(w.ctx)
	g.SetLimit(4)

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			if err == nil && info.IsDir() && w.excludedDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if !w.trackedFile(path) {
			return nil
		}

		p := path
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			w.sched.RecordEvent(scheduler.EventSave, p, nil)
			return nil
		})
		return nil
	})
	if err != nil {
		return err
	}
	return g.Wait()
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			debug.LogWatch("watch error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	switch {
	case event.Op.Has(fsnotify.Create):
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			// New directories need watches; coalesce bursts (git checkout,
			// generators) into one rescan.
			w.rescan.Trigger(func() {
				if err := w.addWatches(w.cfg.Project.Root); err != nil {
					debug.LogWatch("rescan failed: %v", err)
				}
			})
			return
		}
		if w.trackedFile(path) {
			w.sched.RecordEvent(scheduler.EventSave, path, nil)
		}

	case event.Op.Has(fsnotify.Write):
		if w.trackedFile(path) {
			w.sched.RecordEvent(scheduler.EventSave, path, nil)
		}
	}
}
