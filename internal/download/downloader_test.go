package download

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"songbook/internal/testsupport"
)

type fakeFetcher struct {
	playlist  Playlist
	fail      map[string]bool
	skipWrite map[string]bool
	templates []string
}

func (f *fakeFetcher) Playlist(context.Context, string) (Playlist, error) {
	return f.playlist, nil
}

func (f *fakeFetcher) Audio(_ context.Context, entry Entry, tmpl string) error {
	f.templates = append(f.templates, tmpl)
	if f.fail[entry.ID] {
		return errors.New("http 403")
	}
	if f.skipWrite[entry.ID] {
		return nil
	}
	path := strings.ReplaceAll(strings.Replace(tmpl, "%(ext)s", "wav", 1), "%%", "%")
	return os.WriteFile(path, []byte("RIFF"), 0o644)
}

func TestRunDownloadsAndCatalogs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	fetcher := &fakeFetcher{playlist: Playlist{Title: "Karaoke", Entries: []Entry{
		{Index: 1, ID: "a", Title: "Song: A", Uploader: "Singer", Duration: 201},
		{Index: 2, ID: "b", Title: "100% Song"},
	}}}

	report, err := New(cfg, fetcher, nil).Run(context.Background(), "https://example.test/list")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Cataloged() != 2 {
		t.Fatalf("expected 2 cataloged, got %+v", report.Results)
	}
	if report.Results[0].File != "001 - Song_ A.wav" || report.Results[0].Status != StatusDownloaded {
		t.Fatalf("unexpected first result %+v", report.Results[0])
	}
	if fetcher.templates[1] != filepath.Join(cfg.Paths.DatasetDir, "002 - 100%% Song.%(ext)s") {
		t.Fatalf("percent not escaped in template %q", fetcher.templates[1])
	}

	records := testsupport.ReadCatalog(t, cfg)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Artist != "Singer" || records[0].Duration != 201 || *records[0].Index != 1 {
		t.Fatalf("unexpected first record %+v", records[0])
	}
	if records[1].Artist != unknownArtist {
		t.Fatalf("expected fallback artist, got %q", records[1].Artist)
	}
}

func TestRunSkipsExistingFilesAndRecords(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.Touch(t, cfg.Paths.DatasetDir, "001 - Song A.wav", "002 - Song B.wav")
	testsupport.WriteCatalog(t, cfg, testsupport.Track(1, "Song A", "Singer", "001 - Song A.wav"))
	fetcher := &fakeFetcher{playlist: Playlist{Entries: []Entry{
		{Index: 1, ID: "a", Title: "Song A"},
		{Index: 2, ID: "b", Title: "Song B"},
	}}}

	report, err := New(cfg, fetcher, nil).Run(context.Background(), "url")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(fetcher.templates) != 0 {
		t.Fatalf("existing files should not be fetched, got %v", fetcher.templates)
	}
	if report.Results[0].Cataloged || !report.Results[1].Cataloged {
		t.Fatalf("unexpected cataloging %+v", report.Results)
	}
	if records := testsupport.ReadCatalog(t, cfg); len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}

func TestRunContinuesPastFailures(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	fetcher := &fakeFetcher{
		playlist: Playlist{Entries: []Entry{
			{Index: 1, ID: "a", Title: "Blocked"},
			{Index: 2, ID: "b", Title: "Vanished"},
			{Index: 3, ID: "c", Title: "Fine"},
		}},
		fail:      map[string]bool{"a": true},
		skipWrite: map[string]bool{"b": true},
	}

	report, err := New(cfg, fetcher, nil).Run(context.Background(), "url")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []Status{StatusFailed, StatusMissing, StatusDownloaded}
	for i, status := range want {
		if report.Results[i].Status != status {
			t.Fatalf("result %d: status %q, want %q", i, report.Results[i].Status, status)
		}
	}
	records := testsupport.ReadCatalog(t, cfg)
	if len(records) != 1 || records[0].Title != "Fine" {
		t.Fatalf("only the fetched track should be cataloged, got %+v", records)
	}
}

func TestRunRequiresURL(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, err := New(cfg, &fakeFetcher{}, nil).Run(context.Background(), " "); !errors.Is(err, ErrNoPlaylistURL) {
		t.Fatalf("expected ErrNoPlaylistURL, got %v", err)
	}
}

func TestParsePlaylist(t *testing.T) {
	data := []byte(`{
  "title": "Mix",
  "entries": [
    {"id": "x1", "title": " First ", "uploader": "", "channel": "Chan", "url": "https://y/x1", "duration": 180.6},
    null,
    {"id": "x3", "title": "Third", "uploader": "Up", "webpage_url": "https://y/w3", "url": "x3", "playlist_index": 7, "duration": null}
  ]
}`)
	pl, err := parsePlaylist(data)
	if err != nil {
		t.Fatalf("parsePlaylist: %v", err)
	}
	if pl.Title != "Mix" || len(pl.Entries) != 2 {
		t.Fatalf("unexpected playlist %+v", pl)
	}
	first, third := pl.Entries[0], pl.Entries[1]
	if first.Index != 1 || first.Title != "First" || first.Uploader != "Chan" || first.Duration != 181 || first.URL != "https://y/x1" {
		t.Fatalf("unexpected first entry %+v", first)
	}
	if third.Index != 7 || third.URL != "https://y/w3" || third.Duration != 0 {
		t.Fatalf("unexpected third entry %+v", third)
	}

	if _, err := parsePlaylist([]byte(`{"id": "single"}`)); !errors.Is(err, errNotPlaylist) {
		t.Fatalf("expected errNotPlaylist, got %v", err)
	}
}
