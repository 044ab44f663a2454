// Package prune removes placeholder downloads and the catalog records that
// point at them.
package prune

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"songbook/internal/catalog"
	"songbook/internal/config"
	"songbook/internal/fileutil"
	"songbook/internal/inventory"
	"songbook/internal/logging"
)

// Failure records a file that could not be deleted.
type Failure struct {
	Name string
	Err  error
}

// Report summarizes a prune pass.
type Report struct {
	Deleted []string
	Failed  []Failure
	Dropped []catalog.TrackRecord
	Kept    int
	// CatalogMissing is set when there was no catalog to synchronize.
	CatalogMissing bool
}

// Pruner deletes files named with a placeholder prefix.
type Pruner struct {
	dir    string
	prefix string
	exts   []string
	store  *catalog.Store
	logger *slog.Logger
}

// New builds a pruner from configuration.
func New(cfg *config.Config, logger *slog.Logger) *Pruner {
	logger = logging.NewComponentLogger(logger, "prune")
	return &Pruner{
		dir:    cfg.Paths.DatasetDir,
		prefix: cfg.Prune.Prefix,
		exts:   inventory.NormalizeExtensions(cfg.Inventory.Extensions),
		store:  catalog.NewStore(cfg.Paths.CatalogFile, cfg.Paths.UnmatchedFile, logger),
		logger: logger,
	}
}

// Run deletes every "<prefix>*<ext>" file in the dataset directory, then
// drops catalog records whose file carries the prefix or no longer exists.
// Records without a file are kept. Per-file delete errors are reported and
// do not stop the pass.
func (p *Pruner) Run() (Report, error) {
	var report Report

	unlock, err := p.store.Lock()
	if err != nil {
		return report, fmt.Errorf("lock catalog: %w", err)
	}
	defer func() { _ = unlock() }()

	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return report, fmt.Errorf("read dataset directory: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !p.placeholder(name) {
			continue
		}
		if err := os.Remove(filepath.Join(p.dir, name)); err != nil {
			report.Failed = append(report.Failed, Failure{Name: name, Err: err})
			logging.WarnWithContext(p.logger, "placeholder not removed", "prune_failed",
				logging.String("file", name),
				logging.Error(err),
				logging.String(logging.FieldImpact, "file stays in the dataset"),
				logging.String(logging.FieldErrorHint, "check file permissions"))
			continue
		}
		report.Deleted = append(report.Deleted, name)
		p.logger.Info("placeholder removed", logging.String("file", name))
	}

	exists, err := fileutil.Exists(p.store.CatalogPath())
	if err != nil {
		return report, err
	}
	if !exists {
		report.CatalogMissing = true
		return report, nil
	}

	records, err := p.store.Load()
	if err != nil {
		return report, err
	}
	kept := make([]catalog.TrackRecord, 0, len(records))
	for _, rec := range records {
		drop, err := p.shouldDrop(rec)
		if err != nil {
			return report, err
		}
		if drop {
			report.Dropped = append(report.Dropped, rec)
			continue
		}
		kept = append(kept, rec)
	}
	report.Kept = len(kept)
	if err := p.store.Save(kept); err != nil {
		return report, err
	}

	p.logger.Info("catalog pruned",
		logging.String(logging.FieldEventType, "prune_complete"),
		logging.Int("deleted", len(report.Deleted)),
		logging.Int("dropped", len(report.Dropped)),
		logging.Int("kept", report.Kept))
	return report, nil
}

func (p *Pruner) placeholder(name string) bool {
	if !strings.HasPrefix(name, p.prefix) {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range p.exts {
		if ext == want {
			return true
		}
	}
	return false
}

func (p *Pruner) shouldDrop(rec catalog.TrackRecord) (bool, error) {
	if rec.File == "" {
		return false, nil
	}
	if strings.HasPrefix(rec.File, p.prefix) {
		return true, nil
	}
	exists, err := fileutil.Exists(filepath.Join(p.dir, rec.File))
	if err != nil {
		return false, err
	}
	return !exists, nil
}
