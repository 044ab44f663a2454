package preflight

import (
	"context"

	"songbook/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// Failed reports whether the check failed and is required.
func (r Result) Failed() bool {
	return !r.Passed && !r.Optional
}

// RunAll executes every check for the given config in display order.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Dataset directory", cfg.Paths.DatasetDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckCatalog(cfg.Paths.CatalogFile),
	}

	ytdlp := cfg.Download.Binary
	if ytdlp == "" {
		ytdlp = "yt-dlp"
	}
	results = append(results,
		optional(CheckBinary("yt-dlp", ytdlp)),
		optional(CheckBinary("spleeter", cfg.Separation.Binary)),
		optional(CheckGenius(ctx, cfg.Lyrics)),
	)
	return results
}

// AnyFailed reports whether a required check failed.
func AnyFailed(results []Result) bool {
	for _, r := range results {
		if r.Failed() {
			return true
		}
	}
	return false
}

func optional(r Result) Result {
	r.Optional = true
	return r
}
