package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/gofrs/flock"
	jsoniter "github.com/json-iterator/go"

	"songbook/internal/fileutil"
	"songbook/internal/logging"
)

// ErrLocked is returned by Lock when another process holds the catalog.
var ErrLocked = errors.New("catalog is locked by another process")

// codec writes Hangul and other non-ASCII text verbatim and never escapes
// HTML characters, so catalogs stay diffable by hand.
var codec = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()

// Store reads and writes the catalog and its unmatched report.
type Store struct {
	catalogPath   string
	unmatchedPath string
	logger        *slog.Logger
}

// NewStore returns a store for the given catalog and report paths. An empty
// unmatchedPath disables report writes.
func NewStore(catalogPath, unmatchedPath string, logger *slog.Logger) *Store {
	return &Store{
		catalogPath:   catalogPath,
		unmatchedPath: unmatchedPath,
		logger:        logging.NewComponentLogger(logger, "catalog"),
	}
}

// CatalogPath returns the catalog file location.
func (s *Store) CatalogPath() string { return s.catalogPath }

// UnmatchedPath returns the unmatched report location.
func (s *Store) UnmatchedPath() string { return s.unmatchedPath }

// Load reads the catalog. A missing or empty file is an empty catalog.
func (s *Store) Load() ([]TrackRecord, error) {
	data, err := os.ReadFile(s.catalogPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("catalog not found; starting empty", logging.String("path", s.catalogPath))
			return []TrackRecord{}, nil
		}
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	records, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", s.catalogPath, err)
	}
	s.logger.Debug("loaded catalog",
		logging.Int("record_count", len(records)),
		logging.String("path", s.catalogPath))
	return records, nil
}

// Save replaces the catalog on disk atomically.
func (s *Store) Save(records []TrackRecord) error {
	data, err := Encode(records)
	if err != nil {
		return err
	}
	if err := fileutil.WriteAtomic(s.catalogPath, data, 0o644); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	s.logger.Debug("saved catalog",
		logging.Int("record_count", len(records)),
		logging.String("path", s.catalogPath))
	return nil
}

// LoadUnmatched reads the last unmatched report. A missing file yields an
// empty slice.
func (s *Store) LoadUnmatched() ([]UnmatchedEntry, error) {
	if s.unmatchedPath == "" {
		return []UnmatchedEntry{}, nil
	}
	data, err := os.ReadFile(s.unmatchedPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []UnmatchedEntry{}, nil
		}
		return nil, fmt.Errorf("read unmatched report: %w", err)
	}
	entries := []UnmatchedEntry{}
	if len(bytes.TrimSpace(data)) == 0 {
		return entries, nil
	}
	if err := codec.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse unmatched report %s: %w", s.unmatchedPath, err)
	}
	return entries, nil
}

// SaveUnmatched replaces the unmatched report atomically. It is written even
// when entries is empty so a stale report never survives a clean run.
func (s *Store) SaveUnmatched(entries []UnmatchedEntry) error {
	if s.unmatchedPath == "" {
		return nil
	}
	if entries == nil {
		entries = []UnmatchedEntry{}
	}
	data, err := marshal(entries)
	if err != nil {
		return fmt.Errorf("encode unmatched report: %w", err)
	}
	if err := fileutil.WriteAtomic(s.unmatchedPath, data, 0o644); err != nil {
		return fmt.Errorf("write unmatched report: %w", err)
	}
	s.logger.Debug("saved unmatched report",
		logging.Int("entry_count", len(entries)),
		logging.String("path", s.unmatchedPath))
	return nil
}

// Lock takes an exclusive advisory lock next to the catalog file. The
// returned function releases it.
func (s *Store) Lock() (func() error, error) {
	lock := flock.New(s.catalogPath + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire catalog lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, lock.Path())
	}
	return lock.Unlock, nil
}

// Decode parses catalog bytes. Empty input is an empty catalog.
func Decode(data []byte) ([]TrackRecord, error) {
	records := []TrackRecord{}
	if len(bytes.TrimSpace(data)) == 0 {
		return records, nil
	}
	if err := codec.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []TrackRecord{}
	}
	return records, nil
}

// Encode renders a catalog as an indented JSON array. Records marshal
// themselves compactly, so the array is indented as a whole afterwards.
func Encode(records []TrackRecord) ([]byte, error) {
	if records == nil {
		records = []TrackRecord{}
	}
	data, err := codec.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode catalog: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, fmt.Errorf("indent catalog: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func marshal(v any) ([]byte, error) {
	data, err := codec.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
