package prune_test

import (
	"slices"
	"testing"

	"songbook/internal/prune"
	"songbook/internal/testsupport"
)

func TestRunDeletesPlaceholdersAndSyncsCatalog(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.Touch(t, cfg.Paths.DatasetDir,
		"NA-001.wav", "NA-002.WAV", "NA-notes.txt", "001 - Song A.wav", "xNA-003.wav")
	testsupport.WriteCatalog(t, cfg,
		testsupport.Track(1, "Song A", "", "001 - Song A.wav"),
		testsupport.Track(2, "Gone", "", "002 - Gone.wav"),
		testsupport.Track(3, "Placeholder", "", "NA-001.wav"),
		testsupport.Track(4, "Pending", "", ""),
	)

	report, err := prune.New(cfg, nil).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Deleted) != 2 || len(report.Failed) != 0 {
		t.Fatalf("unexpected deletions %+v", report)
	}
	names := testsupport.ListDir(t, cfg.Paths.DatasetDir)
	for _, gone := range []string{"NA-001.wav", "NA-002.WAV"} {
		if slices.Contains(names, gone) {
			t.Fatalf("%s should be deleted: %v", gone, names)
		}
	}
	for _, kept := range []string{"NA-notes.txt", "001 - Song A.wav", "xNA-003.wav"} {
		if !slices.Contains(names, kept) {
			t.Fatalf("%s should be kept: %v", kept, names)
		}
	}

	if len(report.Dropped) != 2 || report.Kept != 2 {
		t.Fatalf("unexpected catalog sync %+v", report)
	}
	records := testsupport.ReadCatalog(t, cfg)
	if len(records) != 2 || records[0].Title != "Song A" || records[1].Title != "Pending" {
		t.Fatalf("unexpected catalog %+v", records)
	}
}

func TestRunWithoutCatalog(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.Touch(t, cfg.Paths.DatasetDir, "NA-x.wav")

	report, err := prune.New(cfg, nil).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.CatalogMissing || len(report.Deleted) != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if names := testsupport.ListDir(t, cfg.Paths.DatasetDir); slices.Contains(names, "metadata.json") {
		t.Fatal("prune should not create a catalog")
	}
}

func TestRunUsesConfiguredPrefix(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Prune.Prefix = "TMP_"
	testsupport.Touch(t, cfg.Paths.DatasetDir, "TMP_a.wav", "NA-b.wav")

	report, err := prune.New(cfg, nil).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Deleted) != 1 || report.Deleted[0] != "TMP_a.wav" {
		t.Fatalf("unexpected deletions %v", report.Deleted)
	}
}
