package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"songbook/internal/config"
	"songbook/internal/inventory"
	"songbook/internal/logging"
)

// PassFunc runs one reconciliation pass.
type PassFunc func(ctx context.Context) error

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides the configured quiet period.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithInitialPass runs a pass as soon as the watch starts.
func WithInitialPass(enabled bool) Option {
	return func(w *Watcher) { w.initial = enabled }
}

// Watcher observes the dataset directory.
type Watcher struct {
	dir         string
	catalogName string
	exts        []string
	debounce    time.Duration
	initial     bool
	pass        PassFunc
	logger      *slog.Logger

	lastCatalog fingerprint
}

type fingerprint struct {
	size    int64
	modTime time.Time
}

// New builds a watcher that calls pass after changes settle.
func New(cfg *config.Config, pass PassFunc, logger *slog.Logger, opts ...Option) *Watcher {
	w := &Watcher{
		dir:         cfg.Paths.DatasetDir,
		catalogName: filepath.Base(cfg.Paths.CatalogFile),
		exts:        inventory.NormalizeExtensions(cfg.Inventory.Extensions),
		debounce:    time.Duration(cfg.Watch.DebounceSeconds) * time.Second,
		pass:        pass,
		logger:      logging.NewComponentLogger(logger, "watch"),
	}
	if filepath.Dir(cfg.Paths.CatalogFile) != filepath.Clean(cfg.Paths.DatasetDir) {
		w.catalogName = ""
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.debounce <= 0 {
		w.debounce = time.Second
	}
	return w
}

// Run blocks until ctx is cancelled. Pass errors are logged and the watch
// continues; only a failure to watch the directory is returned.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.logger.Info("watching dataset directory",
		logging.String("dir", w.dir),
		logging.Duration("debounce", w.debounce))

	if w.initial {
		w.runPass(ctx)
	}

	var (
		timer  *time.Timer
		timerC <-chan time.Time
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
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("change detected",
				logging.String("file", filepath.Base(event.Name)),
				logging.String("op", event.Op.String()))
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			timerC = timer.C
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logging.WarnWithContext(w.logger, "watcher error", "watch_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "changes may be missed until the next event"))
		case <-timerC:
			timerC = nil
			w.runPass(ctx)
		}
	}
}

func (w *Watcher) runPass(ctx context.Context) {
	err := w.pass(ctx)
	w.lastCatalog = w.catalogFingerprint()
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	logging.WarnWithContext(w.logger, "reconciliation pass failed", "watch_pass_failed",
		logging.Error(err),
		logging.String(logging.FieldImpact, "catalog not updated for this change"),
		logging.String(logging.FieldErrorHint, "the next change retries the pass"))
}

// relevant reports whether event should schedule a pass: audio files with a
// configured extension, or the catalog changing underneath us.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Base(event.Name)
	if w.catalogName != "" && name == w.catalogName {
		return w.catalogFingerprint() != w.lastCatalog
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range w.exts {
		if ext == want {
			return true
		}
	}
	return false
}

func (w *Watcher) catalogFingerprint() fingerprint {
	if w.catalogName == "" {
		return fingerprint{}
	}
	info, err := os.Stat(filepath.Join(w.dir, w.catalogName))
	if err != nil {
		return fingerprint{}
	}
	return fingerprint{size: info.Size(), modTime: info.ModTime()}
}
