// Package separation splits catalog tracks into vocal and accompaniment
// stems with the spleeter command line tool.
package separation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"

	"songbook/internal/catalog"
	"songbook/internal/config"
	"songbook/internal/fileutil"
	"songbook/internal/logging"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) error
}

// Option configures a Separator.
type Option func(*Separator)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(s *Separator) {
		if exec != nil {
			s.exec = exec
		}
	}
}

// Status is the per-track outcome.
type Status string

const (
	StatusSeparated    Status = "separated"
	StatusExisting     Status = "existing"
	StatusMissingInput Status = "missing-input"
	StatusFailed       Status = "failed"
)

// Result describes one catalog record.
type Result struct {
	Title  string
	Input  string
	Output string
	Status Status
	Err    error
}

// Separator runs spleeter over the catalog.
type Separator struct {
	binary  string
	model   string
	dataset string
	outDir  string
	store   *catalog.Store
	exec    Executor
	logger  *slog.Logger
}

// New builds a separator from configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Separator {
	logger = logging.NewComponentLogger(logger, "separation")
	s := &Separator{
		binary:  cfg.Separation.Binary,
		model:   cfg.Separation.Model,
		dataset: cfg.Paths.DatasetDir,
		outDir:  cfg.Paths.SeparatedDir,
		store:   catalog.NewStore(cfg.Paths.CatalogFile, cfg.Paths.UnmatchedFile, logger),
		exec:    commandExecutor{},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OutputDir is the directory holding the stems for a catalog file. The name
// is slugged so every track gets an ASCII directory.
func OutputDir(root, file string) string {
	name := slug.Make(catalog.Stem(file))
	if name == "" {
		name = "track"
	}
	return filepath.Join(root, name)
}

// Run separates every catalog track whose audio exists and whose output
// directory does not. A failed track is reported and the batch continues.
func (s *Separator) Run(ctx context.Context) ([]Result, error) {
	records, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create separated directory: %w", err)
	}

	results := make([]Result, 0, len(records))
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := s.separate(ctx, rec)
		switch res.Status {
		case StatusFailed:
			logging.WarnWithContext(s.logger, "separation failed", "separation_failed",
				logging.String("file", rec.File),
				logging.Error(res.Err),
				logging.String(logging.FieldImpact, "track has no stems"),
				logging.String(logging.FieldErrorHint, "run spleeter manually on the file to see its output"))
		case StatusMissingInput:
			s.logger.Info("audio missing; separation skipped", logging.String("file", rec.File))
		}
		results = append(results, res)
	}
	return results, nil
}

func (s *Separator) separate(ctx context.Context, rec catalog.TrackRecord) Result {
	res := Result{Title: rec.Title}
	if rec.File == "" {
		res.Status = StatusMissingInput
		return res
	}
	res.Input = filepath.Join(s.dataset, rec.File)
	res.Output = OutputDir(s.outDir, rec.File)

	exists, err := fileutil.Exists(res.Input)
	if err != nil {
		res.Status, res.Err = StatusFailed, err
		return res
	}
	if !exists {
		res.Status = StatusMissingInput
		return res
	}
	done, err := fileutil.Exists(res.Output)
	if err != nil {
		res.Status, res.Err = StatusFailed, err
		return res
	}
	if done {
		res.Status = StatusExisting
		return res
	}

	args := []string{"separate", "-p", s.model, "-o", res.Output, res.Input}
	if err := s.exec.Run(ctx, s.binary, args); err != nil {
		res.Status, res.Err = StatusFailed, err
		// A partial output directory would make the next run skip the track.
		_ = os.RemoveAll(res.Output)
		return res
	}
	res.Status = StatusSeparated
	s.logger.Info("track separated",
		logging.String("file", rec.File),
		logging.String("output", res.Output))
	return res
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%s exited with %d: %s", binary, exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return fmt.Errorf("run %s: %w", binary, err)
	}
	return nil
}
