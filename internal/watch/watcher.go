// SPDX-License-Identifier: MPL-2.0

// Package watch rebuilds when source files change.
//
// A Watcher monitors a directory tree and, once changes have been quiet for
// the debounce period, invokes a rebuild callback with the changed paths.
// Only one rebuild runs at a time; changes that arrive during a rebuild are
// collected and trigger the next one.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 500 * time.Millisecond

// defaultIgnores are always excluded. Build output directories are listed
// so a rebuild does not trigger itself.
var defaultIgnores = []string{
	"**/bin/**",
	"**/obj/**",
	"**/.vs/**",
	"**/.git/**",
	"**/node_modules/**",
	"**/*.swp",
	"**/*~",
	"**/.DS_Store",
}

// ErrAlreadyStarted is returned by Run when it is called a second time.
var ErrAlreadyStarted = errors.New("watch: Run called more than once")

type (
	// RebuildFunc is called with the changed paths, relative to the base
	// directory and sorted.
	RebuildFunc func(ctx context.Context, changed []string) error

	// Config holds the parameters for a Watcher.
	Config struct {
		// BaseDir is the root of the watched tree. Empty means the working directory.
		BaseDir string
		// Patterns select the files whose changes trigger a rebuild. Empty means all.
		Patterns []string
		// Ignore are added to the built-in ignores.
		Ignore []string
		// Debounce is the quiet period before a rebuild. Zero or negative
		// means 500ms.
		Debounce time.Duration
		// Rebuild is invoked for every settled batch of changes.
		Rebuild RebuildFunc
		// Logger receives watcher diagnostics. nil discards them.
		Logger *log.Logger
	}

	// Watcher monitors a directory tree and rebuilds on change. Run must be
	// called exactly once.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		ignores  []string
		baseDir  string
		debounce time.Duration
		logger   *log.Logger
		started  atomic.Bool
	}
)

// New validates cfg and registers every non-ignored directory under BaseDir.
func New(cfg Config) (*Watcher, error) {
	if err := validatePatterns(cfg.Patterns, "watch"); err != nil {
		return nil, err
	}
	if err := validatePatterns(cfg.Ignore, "ignore"); err != nil {
		return nil, err
	}

	baseDir := cfg.BaseDir
	if baseDir == "" {
		baseDir = "."
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve base directory: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		ignores:  slices.Concat(defaultIgnores, cfg.Ignore),
		baseDir:  absBase,
		debounce: debounce,
		logger:   logger,
	}
	if err := w.addTree(absBase); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run processes filesystem events until ctx is cancelled. It returns nil on
// cancellation and an error when the underlying watcher breaks. A rebuild
// error is logged and watching continues.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	defer func() {
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("closing watcher failed", "err", err)
		}
	}()

	var (
		pending = make(map[string]struct{})
		timer   = time.NewTimer(w.debounce)
		settled <-chan time.Time
		done    = make(chan struct{}, 1)
		busy    bool
	)
	timer.Stop()
	defer timer.Stop()

	arm := func() {
		timer.Reset(w.debounce)
		settled = timer.C
	}
	start := func() {
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		busy = true
		go func() {
			defer func() { done <- struct{}{} }()
			w.rebuild(ctx, changed)
		}()
	}

	w.logger.Info("watching for changes", "dir", w.baseDir)
	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: event channel closed unexpectedly")
			}
			rel, ok := w.relevant(evt)
			if !ok {
				continue
			}
			w.logger.Debug("change detected", "path", rel, "op", evt.Op.String())
			pending[rel] = struct{}{}
			arm()

		case <-settled:
			settled = nil
			if busy || len(pending) == 0 {
				continue
			}
			start()

		case <-done:
			busy = false
			if len(pending) > 0 {
				w.logger.Debug("changes arrived during rebuild", "count", len(pending))
				arm()
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: error channel closed unexpectedly")
			}
			if watcherBroken(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.logger.Warn("fsnotify error", "err", err)
		}
	}
}

func (w *Watcher) rebuild(ctx context.Context, changed []string) {
	if ctx.Err() != nil || w.cfg.Rebuild == nil {
		return
	}
	w.logger.Info("rebuilding", "changed", len(changed))
	if err := w.cfg.Rebuild(ctx, changed); err != nil {
		w.logger.Error("rebuild failed", "err", err)
	}
}

// relevant filters an event and returns its path relative to the base
// directory. New directories are added to the watch list as a side effect.
func (w *Watcher) relevant(evt fsnotify.Event) (string, bool) {
	rel, err := filepath.Rel(w.baseDir, evt.Name)
	if err != nil {
		rel = evt.Name
	}
	rel = filepath.ToSlash(rel)
	if w.isIgnored(rel) {
		return "", false
	}

	if evt.Has(fsnotify.Create) {
		if info, statErr := os.Stat(evt.Name); statErr == nil && info.IsDir() {
			if addErr := w.addTree(evt.Name); addErr != nil {
				w.logger.Warn("cannot watch new directory", "path", rel, "err", addErr)
			}
			return "", false
		}
	}
	if evt.Op == fsnotify.Chmod {
		return "", false
	}
	return rel, w.matches(rel)
}

// addTree registers root and every non-ignored directory below it.
func (w *Watcher) addTree(root string) error {
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			w.logger.Debug("skipping inaccessible path", "path", path, "err", walkErr)
			return nil //nolint:nilerr // inaccessible paths are skipped
		}
		if !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(w.baseDir, path)
		if relErr != nil {
			return nil //nolint:nilerr // paths outside the base are skipped
		}
		rel = filepath.ToSlash(rel)
		if rel != "." && (w.isIgnored(rel) || w.isIgnored(rel+"/")) {
			return filepath.SkipDir
		}
		if addErr := w.fsw.Add(path); addErr != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, addErr)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch: walk directory tree: %w", err)
	}
	return nil
}

func (w *Watcher) isIgnored(rel string) bool {
	return matchAny(w.ignores, rel)
}

func (w *Watcher) matches(rel string) bool {
	return len(w.cfg.Patterns) == 0 || matchAny(w.cfg.Patterns, rel)
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	return slices.Clone(defaultIgnores)
}

func matchAny(patterns []string, rel string) bool {
	for _, pat := range patterns {
		if doublestar.MatchUnvalidated(pat, rel) {
			return true
		}
	}
	return false
}

// watcherBroken reports whether err means fsnotify can no longer deliver
// events, in which case watching has to stop.
func watcherBroken(err error) bool {
	return slices.ContainsFunc(brokenErrnos, func(errno syscall.Errno) bool {
		return errors.Is(err, errno)
	})
}

func validatePatterns(patterns []string, label string) error {
	for _, pat := range patterns {
		if pat == "" || !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("watch: invalid %s pattern %q", label, pat)
		}
	}
	return nil
}
