package lyrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"songbook/internal/catalog"
	"songbook/internal/config"
	"songbook/internal/fileutil"
	"songbook/internal/logging"
)

// Searcher resolves a free-text query to a lyrics page URL.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// Status is the per-track outcome.
type Status string

const (
	StatusSaved    Status = "saved"
	StatusExisting Status = "existing"
	StatusNoHit    Status = "no-hit"
	StatusSkipped  Status = "skipped"
	StatusFailed   Status = "failed"
)

// Result describes one catalog record.
type Result struct {
	Title  string
	Path   string
	URL    string
	Status Status
	Err    error
}

// Fetcher walks the catalog and stores one lyrics link per track.
type Fetcher struct {
	dir      string
	store    *catalog.Store
	searcher Searcher
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// New builds a fetcher. A nil searcher uses the Genius client configured in
// cfg.Lyrics.
func New(cfg *config.Config, searcher Searcher, logger *slog.Logger) (*Fetcher, error) {
	if searcher == nil {
		httpClient := &http.Client{Timeout: defaultHTTPTimeout}
		if cfg.Lyrics.TimeoutSeconds > 0 {
			httpClient.Timeout = time.Duration(cfg.Lyrics.TimeoutSeconds) * time.Second
		}
		client, err := NewClient(ClientConfig{
			Token:      cfg.Lyrics.APIToken,
			BaseURL:    cfg.Lyrics.BaseURL,
			HTTPClient: httpClient,
		})
		if err != nil {
			return nil, err
		}
		searcher = client
	}
	limit := rate.Inf
	if cfg.Lyrics.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(cfg.Lyrics.RequestsPerMinute) / 60)
	}
	logger = logging.NewComponentLogger(logger, "lyrics")
	return &Fetcher{
		dir:      cfg.Paths.LyricsDir,
		store:    catalog.NewStore(cfg.Paths.CatalogFile, cfg.Paths.UnmatchedFile, logger),
		searcher: searcher,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logger,
	}, nil
}

// Run looks up every catalog record. Tracks that already have a lyrics file
// are skipped; lookup failures are reported per track.
func (f *Fetcher) Run(ctx context.Context) ([]Result, error) {
	records, err := f.store.Load()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lyrics directory: %w", err)
	}

	results := make([]Result, 0, len(records))
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := f.fetch(ctx, rec)
		if res.Status == StatusFailed {
			logging.WarnWithContext(f.logger, "lyrics lookup failed", "lyrics_failed",
				logging.String("title", rec.Title),
				logging.Error(res.Err),
				logging.String(logging.FieldImpact, "track has no lyrics link"),
				logging.String(logging.FieldErrorHint, "check the Genius API token"))
		}
		results = append(results, res)
	}
	return results, nil
}

// LyricsPath is where the link for a catalog file is stored.
func LyricsPath(dir, file string) string {
	return filepath.Join(dir, catalog.Stem(file)+".txt")
}

func (f *Fetcher) fetch(ctx context.Context, rec catalog.TrackRecord) Result {
	res := Result{Title: rec.Title}
	if rec.File == "" {
		res.Status = StatusSkipped
		return res
	}
	res.Path = LyricsPath(f.dir, rec.File)

	exists, err := fileutil.Exists(res.Path)
	if err != nil {
		res.Status, res.Err = StatusFailed, err
		return res
	}
	if exists {
		res.Status = StatusExisting
		return res
	}

	if err := f.limiter.Wait(ctx); err != nil {
		res.Status, res.Err = StatusFailed, err
		return res
	}
	query := strings.TrimSpace(rec.Artist + " " + rec.Title)
	link, err := f.searcher.Search(ctx, query)
	if err != nil {
		res.Status, res.Err = StatusFailed, err
		return res
	}
	if link == "" {
		res.Status = StatusNoHit
		f.logger.Info("no lyrics found", logging.String("title", rec.Title))
		return res
	}
	if err := fileutil.WriteAtomic(res.Path, []byte(link), 0o644); err != nil {
		res.Status, res.Err = StatusFailed, err
		return res
	}
	res.URL = link
	res.Status = StatusSaved
	f.logger.Info("lyrics link saved",
		logging.String("title", rec.Title),
		logging.String("path", res.Path))
	return res
}
