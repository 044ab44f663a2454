package testsupport

import (
	"testing"

	"songbook/internal/catalog"
	"songbook/internal/config"
	"songbook/internal/history"
)

// MustOpenHistory opens the run history database for tests and registers
// cleanup.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// CatalogStore returns a catalog store bound to the config paths.
func CatalogStore(cfg *config.Config) *catalog.Store {
	return catalog.NewStore(cfg.Paths.CatalogFile, cfg.Paths.UnmatchedFile, nil)
}

// WriteCatalog saves records as the catalog named by cfg.
func WriteCatalog(t testing.TB, cfg *config.Config, records ...catalog.TrackRecord) {
	t.Helper()
	if err := CatalogStore(cfg).Save(records); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
}

// ReadCatalog loads the catalog named by cfg.
func ReadCatalog(t testing.TB, cfg *config.Config) []catalog.TrackRecord {
	t.Helper()
	records, err := CatalogStore(cfg).Load()
	if err != nil {
		t.Fatalf("read catalog: %v", err)
	}
	return records
}

// Track builds a catalog record with an index.
func Track(index int, title, artist, file string) catalog.TrackRecord {
	return catalog.TrackRecord{Index: catalog.IntPtr(index), Title: title, Artist: artist, File: file}
}
