package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"songbook/internal/catalog"
	"songbook/internal/config"
	"songbook/internal/fileutil"
	"songbook/internal/logging"
)

// ErrNoPlaylistURL is returned when neither the caller nor the config names
// a playlist.
var ErrNoPlaylistURL = errors.New("no playlist url configured")

const (
	unknownTitle  = "Unknown Title"
	unknownArtist = "Unknown Artist"
)

// Status is the per-entry outcome.
type Status string

const (
	StatusDownloaded Status = "downloaded"
	StatusExisting   Status = "existing"
	StatusFailed     Status = "failed"
	StatusMissing    Status = "missing"
)

// Result describes one playlist entry.
type Result struct {
	Index     int
	Title     string
	File      string
	Status    Status
	Cataloged bool
	Err       error
}

// Report summarizes a download run.
type Report struct {
	Playlist string
	Results  []Result
}

// Cataloged counts records appended to the catalog.
func (r Report) Cataloged() int {
	n := 0
	for _, res := range r.Results {
		if res.Cataloged {
			n++
		}
	}
	return n
}

// Downloader walks a playlist and keeps the catalog in step with what
// reaches the dataset directory.
type Downloader struct {
	dir         string
	playlistURL string
	ext         string
	fetcher     Fetcher
	store       *catalog.Store
	limiter     *rate.Limiter
	logger      *slog.Logger
}

// New builds a downloader. A nil fetcher uses yt-dlp.
func New(cfg *config.Config, fetcher Fetcher, logger *slog.Logger) *Downloader {
	if fetcher == nil {
		fetcher = NewYTDLP(cfg.Download)
	}
	limit := rate.Inf
	if cfg.Download.DelaySeconds > 0 {
		limit = rate.Every(time.Duration(cfg.Download.DelaySeconds) * time.Second)
	}
	logger = logging.NewComponentLogger(logger, "download")
	return &Downloader{
		dir:         cfg.Paths.DatasetDir,
		playlistURL: cfg.Download.PlaylistURL,
		ext:         "." + cfg.Download.AudioFormat,
		fetcher:     fetcher,
		store:       catalog.NewStore(cfg.Paths.CatalogFile, cfg.Paths.UnmatchedFile, logger),
		limiter:     rate.NewLimiter(limit, 1),
		logger:      logger,
	}
}

// Run downloads every entry of url (or the configured playlist). Failed
// entries are logged and skipped; the catalog is saved after each appended
// record so an interrupted run keeps its progress.
func (d *Downloader) Run(ctx context.Context, url string) (Report, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		url = d.playlistURL
	}
	if url == "" {
		return Report{}, ErrNoPlaylistURL
	}

	unlock, err := d.store.Lock()
	if err != nil {
		return Report{}, fmt.Errorf("lock catalog: %w", err)
	}
	defer func() { _ = unlock() }()

	records, err := d.store.Load()
	if err != nil {
		return Report{}, err
	}

	playlist, err := d.fetcher.Playlist(ctx, url)
	if err != nil {
		return Report{}, err
	}
	report := Report{Playlist: playlist.Title, Results: make([]Result, 0, len(playlist.Entries))}
	d.logger.Info("playlist listed",
		logging.String("playlist", playlist.Title),
		logging.Int("entries", len(playlist.Entries)))

	for _, entry := range playlist.Entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res, rec := d.fetch(ctx, entry, records)
		if rec != nil {
			records = append(records, *rec)
			if err := d.store.Save(records); err != nil {
				return report, err
			}
			res.Cataloged = true
		}
		report.Results = append(report.Results, res)
	}

	d.logger.Info("download finished",
		logging.String(logging.FieldEventType, "download_complete"),
		logging.Int("entries", len(report.Results)),
		logging.Int("cataloged", report.Cataloged()),
		logging.Int("catalog_size", len(records)))
	return report, nil
}

func (d *Downloader) fetch(ctx context.Context, entry Entry, records []catalog.TrackRecord) (Result, *catalog.TrackRecord) {
	title := entry.Title
	if title == "" {
		title = unknownTitle
	}
	filename := catalog.CanonicalFilename(catalog.IntPtr(entry.Index), title, d.ext)
	path := filepath.Join(d.dir, filename)
	res := Result{Index: entry.Index, Title: title, File: filename}

	exists, err := fileutil.Exists(path)
	if err != nil {
		res.Status, res.Err = StatusFailed, err
		return res, nil
	}
	if exists {
		res.Status = StatusExisting
	} else {
		if err := d.limiter.Wait(ctx); err != nil {
			res.Status, res.Err = StatusFailed, err
			return res, nil
		}
		template := filepath.Join(d.dir, strings.ReplaceAll(catalog.Stem(filename), "%", "%%")+".%(ext)s")
		if err := d.fetcher.Audio(ctx, entry, template); err != nil {
			res.Status, res.Err = StatusFailed, err
			logging.WarnWithContext(d.logger, "track download failed", "download_failed",
				logging.String("file", filename),
				logging.Error(err),
				logging.String(logging.FieldImpact, "track is not added to the catalog"),
				logging.String(logging.FieldErrorHint, "rerun download to retry"))
			return res, nil
		}
		res.Status = StatusDownloaded
	}

	for _, r := range records {
		if r.File == filename {
			return res, nil
		}
	}
	if exists, _ = fileutil.Exists(path); !exists {
		res.Status = StatusMissing
		d.logger.Info("downloaded file not found; catalog unchanged", logging.String("file", filename))
		return res, nil
	}

	artist := entry.Uploader
	if artist == "" {
		artist = unknownArtist
	}
	return res, &catalog.TrackRecord{
		Index:    catalog.IntPtr(entry.Index),
		Title:    title,
		Artist:   artist,
		Duration: entry.Duration,
		File:     filename,
	}
}
