package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"songbook/internal/catalog"
	"songbook/internal/config"
	"songbook/internal/history"
	"songbook/internal/inventory"
	"songbook/internal/logging"
	"songbook/internal/reconcile"
	"songbook/internal/renamer"
	"songbook/internal/similarity"
)

// ErrNothingToReconcile is returned when the catalog holds no records.
var ErrNothingToReconcile = errors.New("catalog is empty; nothing to reconcile")

// Options adjust a single pass. They are combined with the rename section of
// the configuration: either source can enable renaming or a dry run.
type Options struct {
	Rename bool
	// DryRun computes everything but leaves the dataset untouched: no file
	// is moved and neither the catalog nor the unmatched report is written.
	DryRun bool
}

// Runner executes reconciliation passes against one configured dataset.
type Runner struct {
	cfg     *config.Config
	store   *catalog.Store
	history *history.Store
	engine  *reconcile.Engine
	logger  *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewRunner wires a runner from configuration. hist may be nil, in which
// case passes are not recorded.
func NewRunner(cfg *config.Config, hist *history.Store, logger *slog.Logger) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("workflow requires a config")
	}
	scorer, err := similarity.New(cfg.Reconcile.Metric)
	if err != nil {
		return nil, fmt.Errorf("similarity metric: %w", err)
	}
	logger = logging.NewComponentLogger(logger, "workflow")
	policy := reconcile.Policy{
		FuzzyThreshold: cfg.Reconcile.FuzzyThreshold,
		ArtistBonus:    cfg.Reconcile.ArtistBonus,
	}
	return &Runner{
		cfg:     cfg,
		store:   catalog.NewStore(cfg.Paths.CatalogFile, cfg.Paths.UnmatchedFile, logger),
		history: hist,
		engine:  reconcile.NewEngine(policy, scorer, logger),
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
	}, nil
}

// Run performs one pass. A held catalog lock fails fast with
// catalog.ErrLocked.
func (r *Runner) Run(ctx context.Context, opts Options) (Report, error) {
	rename := opts.Rename || r.cfg.Rename.Enabled
	dryRun := opts.DryRun || r.cfg.Rename.DryRun

	report := Report{
		RunID:      r.newID(),
		StartedAt:  r.now(),
		DatasetDir: r.cfg.Paths.DatasetDir,
		DryRun:     dryRun,
	}
	ctx = logging.WithRunID(ctx, report.RunID)
	logger := logging.WithContext(ctx, r.logger)

	unlock, err := r.store.Lock()
	if err != nil {
		return report, fmt.Errorf("lock catalog: %w", err)
	}
	defer func() {
		if err := unlock(); err != nil {
			logger.Debug("catalog unlock failed", logging.Error(err))
		}
	}()

	records, err := r.store.Load()
	if err != nil {
		return report, err
	}
	if len(records) == 0 {
		return report, ErrNothingToReconcile
	}
	report.Records = len(records)

	if err := ctx.Err(); err != nil {
		return report, err
	}

	inv, err := inventory.Scan(r.cfg.Paths.DatasetDir, inventory.Options{Extensions: r.cfg.Inventory.Extensions})
	if err != nil {
		return report, fmt.Errorf("scan dataset: %w", err)
	}
	report.Files = inv.Len()
	report.Issues = inv.Issues
	for _, issue := range inv.Issues {
		logging.WarnWithContext(logger, "dataset entry skipped", "scan_issue",
			logging.String("file", issue.Name),
			logging.Error(issue.Err),
			logging.String(logging.FieldImpact, "file is invisible to matching"),
			logging.String(logging.FieldErrorHint, "check the file permissions"))
	}

	result := r.engine.Reconcile(records, inv)
	report.Matched = result.Matched
	report.Unmatched = result.Unmatched
	report.Outcomes = result.Outcomes

	if err := ctx.Err(); err != nil {
		return report, err
	}

	if !dryRun {
		if err := r.store.SaveUnmatched(result.Unmatched); err != nil {
			return report, err
		}
	}

	if rename {
		rn := renamer.New(renamer.Options{Extensions: r.cfg.Inventory.Extensions, DryRun: dryRun}, logger)
		report.Renames = rn.Rename(r.cfg.Paths.DatasetDir, result.Records, inv)
	}

	if !dryRun {
		if err := r.store.Save(result.Records); err != nil {
			return report, err
		}
	}
	report.FinishedAt = r.now()

	r.record(ctx, logger, report)

	logger.Info("reconciliation finished",
		logging.String(logging.FieldEventType, "reconcile_complete"),
		logging.Int("records", report.Records),
		logging.Int("files", report.Files),
		logging.Int("matched", report.Matched),
		logging.Int("unmatched", len(report.Unmatched)),
		logging.Int("renamed", report.Renamed()),
		logging.Bool("dry_run", dryRun),
		logging.Duration("elapsed", report.Duration()))

	return report, nil
}

// record stores the pass in the history database. Failures are logged; the
// dataset is already consistent at this point.
func (r *Runner) record(ctx context.Context, logger *slog.Logger, report Report) {
	if r.history == nil {
		return
	}
	run := history.Run{
		ID:         report.RunID,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		DatasetDir: report.DatasetDir,
		Records:    report.Records,
		Matched:    report.Matched,
		Unmatched:  len(report.Unmatched),
		Renamed:    report.Renamed(),
		DryRun:     report.DryRun,
	}
	if err := r.history.Record(ctx, run, report.Assignments()); err != nil {
		logging.WarnWithContext(logger, "run history not recorded", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "pass is missing from history"),
			logging.String(logging.FieldErrorHint, "check the state directory is writable"))
	}
}
