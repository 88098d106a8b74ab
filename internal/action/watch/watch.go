package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"

	"github.com/cmmoran/viewbindgen/internal/parser"
)

const DefaultDebounce = 300 * time.Millisecond

// RunFunc is invoked once per burst of relevant changes.
type RunFunc func(ctx context.Context) error

// Watcher re-runs generation when Go sources under a directory change.
type Watcher struct {
	root     string
	debounce time.Duration
	run      RunFunc
	fsw      *fsnotify.Watcher
}

func New(root string, debounce time.Duration, run RunFunc) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create fsnotify watcher")
	}
	w := &Watcher{root: root, debounce: debounce, run: run, fsw: fsw}
	if err := w.addTree(root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Relevant reports whether a change to name can affect the output.
// Generated and test files never do.
func Relevant(name string) bool {
	base := filepath.Base(name)
	return strings.HasSuffix(base, ".go") &&
		!strings.HasSuffix(base, parser.GeneratedSuffix) &&
		!strings.HasSuffix(base, "_test.go")
}

func skipDir(name string) bool {
	return name != "." && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") ||
		name == "vendor" || name == "testdata")
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && skipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return errors.Wrapf(err, "watch %s", path)
		}
		slog.Debug("watching", "dir", path)
		return nil
	})
}

// Run blocks until ctx is done, calling the run function after each
// debounced burst of changes. Run errors are logged, not returned.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.fsw.Close() }()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						slog.Warn("watch new directory", "dir", event.Name, "error", err)
					}
					continue
				}
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 || !Relevant(event.Name) {
				continue
			}
			slog.Debug("change", "file", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if err := w.run(ctx); err != nil {
				slog.Error("generation failed", "error", err)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", "error", err)
		}
	}
}
