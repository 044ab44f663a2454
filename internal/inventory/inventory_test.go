package inventory_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"songbook/internal/inventory"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func TestParseFilename(t *testing.T) {
	tests := []struct {
		name     string
		wantIdx  int
		hasIdx   bool
		wantBody string
		wantNorm string
	}{
		{name: "001 - Song A.wav", wantIdx: 1, hasIdx: true, wantBody: "Song A", wantNorm: "song a"},
		{name: "12_Song B (Live).wav", wantIdx: 12, hasIdx: true, wantBody: "Song B (Live)", wantNorm: "song b"},
		{name: "  7 좋은 날.wav", wantIdx: 7, hasIdx: true, wantBody: "좋은 날", wantNorm: "좋은 날"},
		{name: "Song.With.Dots.wav", wantBody: "Song.With.Dots", wantNorm: "song with dots"},
		{name: "1234 - Too Long.wav", wantBody: "1234 - Too Long", wantNorm: "1234 too long"},
		{name: "no extension", wantBody: "no extension", wantNorm: "no extension"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := inventory.ParseFilename(tt.name)
			if tt.hasIdx {
				if e.Index == nil || *e.Index != tt.wantIdx {
					t.Fatalf("index = %v, want %d", e.Index, tt.wantIdx)
				}
			} else if e.Index != nil {
				t.Fatalf("expected no index, got %d", *e.Index)
			}
			if e.Body != tt.wantBody {
				t.Fatalf("body = %q, want %q", e.Body, tt.wantBody)
			}
			if e.NormalizedBody != tt.wantNorm {
				t.Fatalf("normalized body = %q, want %q", e.NormalizedBody, tt.wantNorm)
			}
		})
	}
}

func TestParseFilenameStem(t *testing.T) {
	e := inventory.ParseFilename("003 - Song C.wav")
	if e.NormalizedStem != "003 song c" {
		t.Fatalf("normalized stem = %q", e.NormalizedStem)
	}
}

func TestScanFiltersAndOrders(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "b.wav", "a.WAV", "notes.txt", "002 - c.wav", "cover.jpg")
	if err := os.Mkdir(filepath.Join(dir, "sub.wav"), 0o755); err != nil {
		t.Fatal(err)
	}

	inv, err := inventory.Scan(dir, inventory.Options{})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	got := inv.Names()
	want := []string{"002 - c.wav", "a.WAV", "b.wav"}
	if len(got) != len(want) {
		t.Fatalf("names = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("names = %v, want %v", got, want)
		}
	}
	if !inv.Contains("b.wav") || inv.Contains("notes.txt") || inv.Contains("") {
		t.Fatal("unexpected Contains result")
	}
	if len(inv.Issues) != 0 {
		t.Fatalf("unexpected issues: %v", inv.Issues)
	}
}

func TestScanCustomExtensions(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.wav", "b.mp3", "c.flac")

	inv, err := inventory.Scan(dir, inventory.Options{Extensions: []string{"MP3", ".flac"}})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if inv.Len() != 2 || !inv.Contains("b.mp3") || !inv.Contains("c.flac") {
		t.Fatalf("unexpected entries: %v", inv.Names())
	}
}

func TestScanMissingDirectoryFails(t *testing.T) {
	if _, err := inventory.Scan(filepath.Join(t.TempDir(), "missing"), inventory.Options{}); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestScanDanglingSymlinkIsIssue(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "ok.wav")
	if err := os.Symlink(filepath.Join(dir, "gone.wav"), filepath.Join(dir, "link.wav")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	inv, err := inventory.Scan(dir, inventory.Options{})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if inv.Len() != 1 || !inv.Contains("ok.wav") {
		t.Fatalf("unexpected entries: %v", inv.Names())
	}
	if len(inv.Issues) != 1 || inv.Issues[0].Name != "link.wav" {
		t.Fatalf("expected one issue for link.wav, got %v", inv.Issues)
	}
}

func TestScanDoesNotModifyDirectory(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "001 - a.wav", "b.wav")
	before, _ := os.ReadDir(dir)
	if _, err := inventory.Scan(dir, inventory.Options{ReadAudio: true}); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	after, _ := os.ReadDir(dir)
	if len(before) != len(after) {
		t.Fatalf("directory changed: %d -> %d entries", len(before), len(after))
	}
}

func writeWAV(t *testing.T, path string, sampleRate, samples int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           make([]int, samples),
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
}

func TestScanReadsWAVInfo(t *testing.T) {
	dir := t.TempDir()
	writeWAV(t, filepath.Join(dir, "001 - tone.wav"), 8000, 16000)
	touch(t, dir, "002 - broken.wav")

	inv, err := inventory.Scan(dir, inventory.Options{ReadAudio: true})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	entry, ok := inv.Lookup("001 - tone.wav")
	if !ok || entry.Audio == nil {
		t.Fatalf("expected entry with audio info, got %#v", entry)
	}
	if d := entry.Audio.Duration; d < 1900*time.Millisecond || d > 2100*time.Millisecond {
		t.Fatalf("duration = %v, want about 2s", d)
	}
	if entry.Audio.SampleRate != 8000 || entry.Audio.Channels != 1 {
		t.Fatalf("unexpected audio info: %#v", entry.Audio)
	}

	if !inv.Contains("002 - broken.wav") {
		t.Fatal("unreadable header must not drop the entry")
	}
	if len(inv.Issues) != 1 || !errors.Is(inv.Issues[0], inventory.ErrInvalidWAV) {
		t.Fatalf("expected invalid wav issue, got %v", inv.Issues)
	}
}

func TestNormalizeExtensions(t *testing.T) {
	got := inventory.NormalizeExtensions([]string{" WAV", ".wav", "", "mp3"})
	if len(got) != 2 || got[0] != ".wav" || got[1] != ".mp3" {
		t.Fatalf("NormalizeExtensions = %v", got)
	}
	if got := inventory.NormalizeExtensions(nil); len(got) != 1 || got[0] != ".wav" {
		t.Fatalf("default extensions = %v", got)
	}
}
