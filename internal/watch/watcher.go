// SPDX-License-Identifier: MPL-2.0

// Package watch reports changes to a set of source files.
//
// Only the directories containing tracked files are registered with
// fsnotify; events for other paths in those directories are dropped. The
// tracked set can be replaced between compile passes with SetFiles.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// defaultIgnores are never reported, whatever the tracked set holds.
var defaultIgnores = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/*.swp",
	"**/*.swo",
	"**/*~",
	"**/.DS_Store",
}

// ErrAlreadyRunning is returned by a second call to Run.
var ErrAlreadyRunning = errors.New("watch: Run called more than once")

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// BaseDir is the directory ignore patterns and reported paths are
		// relative to.
		BaseDir string

		// Files are the absolute paths to track initially.
		Files []string

		// Ignore holds extra doublestar patterns merged with the defaults.
		Ignore []string

		// Debounce is the quiet period after the last event before OnChange
		// fires. Zero reports every event on its own.
		Debounce time.Duration

		// OnChange receives the changed paths relative to BaseDir. It is called
		// from the event loop or a timer goroutine and should not block.
		OnChange func(changed []string)

		Logger *log.Logger
	}

	// Watcher tracks a replaceable set of files. Run must be called once.
	Watcher struct {
		cfg     Config
		fsw     *fsnotify.Watcher
		ignores []string
		logger  *log.Logger
		baseDir string
		started atomic.Bool

		mu    sync.Mutex
		files map[string]struct{}
		dirs  map[string]struct{}
	}
)

// New validates the ignore patterns, starts an fsnotify watcher and
// registers the directories of cfg.Files.
func New(cfg Config) (*Watcher, error) {
	if err := validatePatterns(cfg.Ignore); err != nil {
		return nil, err
	}
	if cfg.Debounce < 0 {
		return nil, fmt.Errorf("watch: negative debounce %s", cfg.Debounce)
	}

	absBase, err := filepath.Abs(cfg.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve base directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	w := &Watcher{
		cfg:     cfg,
		fsw:     fsw,
		ignores: append(slices.Clone(defaultIgnores), cfg.Ignore...),
		logger:  logger,
		baseDir: absBase,
		files:   make(map[string]struct{}),
		dirs:    make(map[string]struct{}),
	}
	if err := w.SetFiles(cfg.Files); err != nil {
		if closeErr := fsw.Close(); closeErr != nil {
			logger.Warn("watch: close after init failure", "err", closeErr)
		}
		return nil, err
	}
	return w, nil
}

// SetFiles replaces the tracked set. Directories no longer needed are
// unregistered; new ones are added.
func (w *Watcher) SetFiles(files []string) error {
	nextFiles := make(map[string]struct{}, len(files))
	nextDirs := make(map[string]struct{})
	for _, f := range files {
		f = filepath.Clean(f)
		nextFiles[f] = struct{}{}
		nextDirs[filepath.Dir(f)] = struct{}{}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for dir := range w.dirs {
		if _, keep := nextDirs[dir]; keep {
			continue
		}
		if err := w.fsw.Remove(dir); err != nil && !errors.Is(err, fsnotify.ErrNonExistentWatch) {
			w.logger.Debug("watch: remove directory", "dir", dir, "err", err)
		}
		delete(w.dirs, dir)
	}

	var errs []error
	for _, dir := range slices.Sorted(maps.Keys(nextDirs)) {
		if _, ok := w.dirs[dir]; ok {
			continue
		}
		if err := w.fsw.Add(dir); err != nil {
			errs = append(errs, fmt.Errorf("watch: add directory %q: %w", dir, err))
			continue
		}
		w.dirs[dir] = struct{}{}
	}

	w.files = nextFiles
	return errors.Join(errs...)
}

// Files returns the tracked paths, sorted.
func (w *Watcher) Files() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Sorted(maps.Keys(w.files))
}

// Dirs returns the registered directories, sorted.
func (w *Watcher) Dirs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Sorted(maps.Keys(w.dirs))
}

// Run processes events until ctx is cancelled, then closes the fsnotify
// watcher. It returns nil on cancellation and an error when the watcher
// breaks.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
	)

	fire := func() {
		if ctx.Err() != nil {
			return
		}
		mu.Lock()
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()
		if len(changed) > 0 {
			w.notify(changed)
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("watch: close fsnotify", "err", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: fsnotify event channel closed unexpectedly")
			}
			rel, ok := w.relevant(evt)
			if !ok {
				continue
			}
			w.logger.Debug("watch: change", "path", rel, "op", evt.Op.String())

			if w.cfg.Debounce == 0 {
				w.notify([]string{rel})
				continue
			}
			mu.Lock()
			pending[rel] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.cfg.Debounce, fire)
			} else {
				timer.Reset(w.cfg.Debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: fsnotify error channel closed unexpectedly")
			}
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.logger.Warn("watch: fsnotify error", "err", err)
		}
	}
}

// relevant reports whether evt concerns a tracked, non-ignored file and
// returns its path relative to BaseDir.
func (w *Watcher) relevant(evt fsnotify.Event) (string, bool) {
	if evt.Op == fsnotify.Chmod {
		return "", false
	}
	name := filepath.Clean(evt.Name)

	w.mu.Lock()
	_, tracked := w.files[name]
	w.mu.Unlock()
	if !tracked {
		return "", false
	}

	rel, err := filepath.Rel(w.baseDir, name)
	if err != nil {
		rel = name
	}
	if w.isIgnored(rel) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (w *Watcher) notify(changed []string) {
	if w.cfg.OnChange != nil {
		w.cfg.OnChange(changed)
	}
}

func (w *Watcher) isIgnored(rel string) bool {
	normalized := filepath.ToSlash(rel)
	for _, pat := range w.ignores {
		if matched, err := doublestar.Match(pat, normalized); err == nil && matched {
			return true
		}
	}
	return false
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	return slices.Clone(defaultIgnores)
}

func validatePatterns(patterns []string) error {
	for _, pat := range patterns {
		if !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("watch: invalid ignore pattern %q", pat)
		}
	}
	return nil
}
