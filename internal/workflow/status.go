package workflow

import (
	"time"

	"songbook/internal/catalog"
	"songbook/internal/config"
	"songbook/internal/inventory"
)

// StatusReport compares the catalog with the dataset directory without
// changing either.
type StatusReport struct {
	DatasetDir string
	Records    int
	Files      int
	TotalBytes int64
	// TotalAudio is the summed WAV duration; only set when probing.
	TotalAudio time.Duration
	// Missing are records whose file is not on disk.
	Missing []catalog.TrackRecord
	// Unplaced are records that have never been given a file.
	Unplaced []catalog.TrackRecord
	// Orphans are audio files no record refers to.
	Orphans []inventory.FileEntry
	Issues  []inventory.Issue
}

// Status builds a StatusReport. Probing reads every WAV header.
func Status(cfg *config.Config, readAudio bool) (StatusReport, error) {
	store := catalog.NewStore(cfg.Paths.CatalogFile, cfg.Paths.UnmatchedFile, nil)
	records, err := store.Load()
	if err != nil {
		return StatusReport{}, err
	}
	inv, err := inventory.Scan(cfg.Paths.DatasetDir, inventory.Options{
		Extensions: cfg.Inventory.Extensions,
		ReadAudio:  readAudio,
	})
	if err != nil {
		return StatusReport{}, err
	}

	report := StatusReport{
		DatasetDir: cfg.Paths.DatasetDir,
		Records:    len(records),
		Files:      inv.Len(),
		Issues:     inv.Issues,
	}
	referenced := make(map[string]struct{}, len(records))
	for _, rec := range records {
		switch {
		case rec.File == "":
			report.Unplaced = append(report.Unplaced, rec)
		case !inv.Contains(rec.File):
			report.Missing = append(report.Missing, rec)
		default:
			referenced[rec.File] = struct{}{}
		}
	}
	for _, entry := range inv.Entries {
		report.TotalBytes += entry.Size
		if entry.Audio != nil {
			report.TotalAudio += entry.Audio.Duration
		}
		if _, ok := referenced[entry.Name]; !ok {
			report.Orphans = append(report.Orphans, entry)
		}
	}
	return report, nil
}
