package renamer

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"songbook/internal/catalog"
	"songbook/internal/fileutil"
	"songbook/internal/inventory"
	"songbook/internal/logging"
	"songbook/internal/textnorm"
)

// ErrDestinationExists is returned by the no-clobber move when the target
// name is already taken.
var ErrDestinationExists = errors.New("destination already exists")

// Status is the per-record outcome of a rename pass.
type Status string

const (
	StatusRenamed         Status = "renamed"
	StatusInPlace         Status = "in-place"
	StatusSkippedConflict Status = "skipped-conflict"
	StatusNotFound        Status = "not-found"
	StatusError           Status = "error"
)

// Result describes what happened to one record.
type Result struct {
	Position int
	Title    string
	From     string
	To       string
	Status   Status
	Reason   string
}

// Options configures a Renamer.
type Options struct {
	// Extensions are the audio extensions in use; the first one is given to
	// canonical filenames.
	Extensions []string
	DryRun     bool
}

// Renamer moves audio files to their canonical catalog names.
type Renamer struct {
	ext    string
	dryRun bool
	logger *slog.Logger
	move   func(src, dst string) error
}

// New constructs a Renamer.
func New(opts Options, logger *slog.Logger) *Renamer {
	exts := inventory.NormalizeExtensions(opts.Extensions)
	return &Renamer{
		ext:    exts[0],
		dryRun: opts.DryRun,
		logger: logging.NewComponentLogger(logger, "renamer"),
		move:   moveNoReplace,
	}
}

// DryRun reports whether the renamer leaves the disk untouched.
func (r *Renamer) DryRun() bool { return r.dryRun }

// Rename gives each record's file its canonical name inside dir. records is
// updated in place: a successful move rewrites the record's File. Failures
// are reported per record and never stop the pass.
//
// A file named by more than one record is never moved, so no record is left
// pointing at a name that no longer exists.
func (r *Renamer) Rename(dir string, records []catalog.TrackRecord, inv inventory.Inventory) []Result {
	p := &pass{dir: dir, inv: inv, claims: make(map[string]int), gone: make(map[string]bool)}
	for _, rec := range records {
		if rec.File != "" {
			p.claims[rec.File]++
		}
	}

	results := make([]Result, 0, len(records))
	for pos := range records {
		rec := &records[pos]
		res := r.renameOne(p, rec)
		res.Position = pos
		res.Title = rec.Title
		results = append(results, res)
		r.log(res)
	}
	return results
}

// pass tracks which files records claim while a rename pass moves them.
type pass struct {
	dir    string
	inv    inventory.Inventory
	claims map[string]int
	gone   map[string]bool
}

func (p *pass) present(name string) bool {
	return !p.gone[name] && p.inv.Contains(name)
}

// claimedByOthers reports whether a record other than rec names file.
func (p *pass) claimedByOthers(rec catalog.TrackRecord, file string) bool {
	n := p.claims[file]
	if rec.File == file {
		n--
	}
	return n > 0
}

func (p *pass) moved(rec *catalog.TrackRecord, from, to string) {
	if rec.File != "" {
		p.claims[rec.File]--
	}
	p.claims[to]++
	p.gone[from] = true
	rec.File = to
}

func (r *Renamer) renameOne(p *pass, rec *catalog.TrackRecord) Result {
	canonical := catalog.CanonicalFilename(rec.Index, rec.Title, r.ext)
	if canonical == "" {
		return Result{Status: StatusNotFound, Reason: "record has no title"}
	}

	dst := filepath.Join(p.dir, canonical)
	exists, err := fileutil.Exists(dst)
	if err != nil {
		return Result{To: canonical, Status: StatusError, Reason: err.Error()}
	}
	if exists {
		if rec.File != "" && rec.File != canonical && p.present(rec.File) {
			return Result{From: rec.File, To: canonical, Status: StatusSkippedConflict,
				Reason: "canonical name is taken by a different file"}
		}
		if !r.dryRun && rec.File != canonical {
			if rec.File != "" {
				p.claims[rec.File]--
			}
			p.claims[canonical]++
			rec.File = canonical
		}
		return Result{From: canonical, To: canonical, Status: StatusInPlace}
	}

	source := r.selectSource(p, *rec, canonical)
	if source == "" {
		return Result{To: canonical, Status: StatusNotFound, Reason: "no file in inventory matches the title"}
	}
	res := Result{From: source, To: canonical}
	if p.claimedByOthers(*rec, source) {
		res.Status = StatusSkippedConflict
		res.Reason = "file is assigned to another record"
		return res
	}

	if r.dryRun {
		res.Status = StatusRenamed
		return res
	}

	if err := r.move(filepath.Join(p.dir, source), dst); err != nil {
		if errors.Is(err, ErrDestinationExists) {
			res.Status = StatusSkippedConflict
			res.Reason = "destination appeared during the pass"
			return res
		}
		res.Status = StatusError
		res.Reason = err.Error()
		return res
	}
	p.moved(rec, source, canonical)
	res.Status = StatusRenamed
	return res
}

// selectSource prefers the file reconciliation assigned, then a file whose
// whole stem normalizes to the title, then the first file whose body
// contains the title. Files already moved this pass or named by another
// record are not searched for.
func (r *Renamer) selectSource(p *pass, rec catalog.TrackRecord, canonical string) string {
	if rec.File != "" && rec.File != canonical && !p.gone[rec.File] && p.inv.Contains(rec.File) {
		return rec.File
	}
	title := textnorm.Normalize(rec.Title)
	if title == "" {
		return ""
	}
	free := func(e inventory.FileEntry) bool {
		return e.Name != canonical && !p.gone[e.Name] && p.claims[e.Name] == 0
	}
	for _, e := range p.inv.Entries {
		if e.NormalizedStem == title && free(e) {
			return e.Name
		}
	}
	for _, e := range p.inv.Entries {
		if strings.Contains(e.NormalizedBody, title) && free(e) {
			return e.Name
		}
	}
	return ""
}

func (r *Renamer) log(res Result) {
	attrs := []logging.Attr{
		logging.Int("position", res.Position),
		logging.String("from", res.From),
		logging.String("to", res.To),
		logging.String("status", string(res.Status)),
		logging.Bool("dry_run", r.dryRun),
	}
	switch res.Status {
	case StatusRenamed:
		r.logger.Info("file renamed", logging.Args(attrs...)...)
	case StatusSkippedConflict:
		logging.WarnWithContext(r.logger, "rename skipped", "rename_conflict",
			append(attrs,
				logging.String(logging.FieldErrorHint, "remove or rename the existing destination file"),
				logging.String(logging.FieldImpact, "the record keeps its current filename"))...)
	case StatusError:
		logging.WarnWithContext(r.logger, "rename failed", "rename_failed",
			append(attrs,
				logging.String("reason", res.Reason),
				logging.String(logging.FieldErrorHint, "check file permissions in the dataset directory"),
				logging.String(logging.FieldImpact, "the record keeps its current filename"))...)
	default:
		r.logger.Debug("rename not needed", logging.Args(attrs...)...)
	}
}

// linkAndRemove is the portable no-clobber move: the hard link fails if dst
// exists, and only then is the source name dropped.
func linkAndRemove(src, dst string) error {
	if err := os.Link(src, dst); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrDestinationExists, dst)
		}
		return fmt.Errorf("link %s: %w", filepath.Base(src), err)
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("remove %s after link: %w", filepath.Base(src), err)
	}
	return nil
}
