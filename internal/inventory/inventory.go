package inventory

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"songbook/internal/textnorm"
)

// DefaultExtensions is used when Options.Extensions is empty.
var DefaultExtensions = []string{".wav"}

var indexPrefix = regexp.MustCompile(`^\s*(\d{1,3})\s*[-_ ]\s*(.*)$`)

// FileEntry describes one audio file found in the dataset directory.
type FileEntry struct {
	Name  string
	Index *int
	Body  string

	NormalizedBody string
	NormalizedStem string

	Size    int64
	ModTime time.Time

	// Audio is populated only when the scan reads audio headers.
	Audio *AudioInfo
}

// Issue records a per-file problem that did not stop the scan.
type Issue struct {
	Name string
	Err  error
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s: %v", i.Name, i.Err)
}

func (i Issue) Unwrap() error { return i.Err }

// Options controls Scan.
type Options struct {
	Extensions []string
	ReadAudio  bool
}

// Inventory is an ordered, read-only view of the dataset directory.
type Inventory struct {
	Dir     string
	Entries []FileEntry
	Issues  []Issue

	byName map[string]int
}

// New builds an inventory from already parsed entries.
func New(dir string, entries []FileEntry) Inventory {
	inv := Inventory{Dir: dir, Entries: entries, byName: make(map[string]int, len(entries))}
	for i, e := range entries {
		if _, dup := inv.byName[e.Name]; !dup {
			inv.byName[e.Name] = i
		}
	}
	return inv
}

// FromNames parses bare filenames into an inventory. It is mostly useful
// for callers that already hold a directory listing.
func FromNames(dir string, names ...string) Inventory {
	entries := make([]FileEntry, 0, len(names))
	for _, name := range names {
		entries = append(entries, ParseFilename(name))
	}
	return New(dir, entries)
}

// Len reports the number of entries.
func (inv Inventory) Len() int { return len(inv.Entries) }

// Contains reports whether a file with exactly this name was scanned.
func (inv Inventory) Contains(name string) bool {
	_, ok := inv.Lookup(name)
	return ok
}

// Lookup returns the entry for name.
func (inv Inventory) Lookup(name string) (FileEntry, bool) {
	if name == "" {
		return FileEntry{}, false
	}
	if inv.byName == nil {
		for _, e := range inv.Entries {
			if e.Name == name {
				return e, true
			}
		}
		return FileEntry{}, false
	}
	i, ok := inv.byName[name]
	if !ok {
		return FileEntry{}, false
	}
	return inv.Entries[i], true
}

// Names returns entry names in scan order.
func (inv Inventory) Names() []string {
	names := make([]string, len(inv.Entries))
	for i, e := range inv.Entries {
		names[i] = e.Name
	}
	return names
}

// ParseFilename splits a filename into its playlist index and title body and
// caches the normalized forms used for matching.
func ParseFilename(name string) FileEntry {
	entry := FileEntry{Name: name}
	if m := indexPrefix.FindStringSubmatch(name); m != nil {
		if idx, err := strconv.Atoi(m[1]); err == nil {
			entry.Index = &idx
		}
		entry.Body = trimLastExtension(m[2])
	} else {
		entry.Body = trimLastExtension(name)
	}
	entry.NormalizedBody = textnorm.Normalize(entry.Body)
	entry.NormalizedStem = textnorm.Normalize(strings.TrimSuffix(name, filepath.Ext(name)))
	return entry
}

func trimLastExtension(s string) string {
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		return s[:i]
	}
	return s
}

// Scan lists audio files directly inside dir. Files appear in directory
// order (lexical by name). Only a directory that cannot be read fails the
// scan; problems with individual files are collected as Issues.
func Scan(dir string, opts Options) (Inventory, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return Inventory{}, fmt.Errorf("read dataset directory: %w", err)
	}

	extensions := NormalizeExtensions(opts.Extensions)
	entries := make([]FileEntry, 0, len(dirEntries))
	var issues []Issue

	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || !hasExtension(name, extensions) {
			continue
		}
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			issues = append(issues, Issue{Name: name, Err: err})
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}

		entry := ParseFilename(name)
		entry.Size = info.Size()
		entry.ModTime = info.ModTime()
		if opts.ReadAudio && strings.EqualFold(filepath.Ext(name), ".wav") {
			audio, err := ReadWAVInfo(filepath.Join(dir, name))
			if err != nil {
				issues = append(issues, Issue{Name: name, Err: err})
			} else {
				entry.Audio = &audio
			}
		}
		entries = append(entries, entry)
	}

	inv := New(dir, entries)
	inv.Issues = issues
	return inv, nil
}

// NormalizeExtensions lowercases extensions, adds a leading dot, drops
// blanks and duplicates, and falls back to DefaultExtensions.
func NormalizeExtensions(exts []string) []string {
	seen := make(map[string]struct{}, len(exts))
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" || ext == "." {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	if len(out) == 0 {
		return append([]string(nil), DefaultExtensions...)
	}
	return out
}

func hasExtension(name string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range extensions {
		if ext == want {
			return true
		}
	}
	return false
}
