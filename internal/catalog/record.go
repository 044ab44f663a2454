package catalog

import (
	"fmt"
	"maps"
	"math"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// TrackRecord is one catalog entry. Index is the 1-based playlist position
// and may be absent in hand-edited catalogs. File is the filename currently
// believed to hold the track and is rewritten by reconciliation.
type TrackRecord struct {
	Index    *int   `json:"index"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Duration int    `json:"duration"`
	File     string `json:"file"`

	// preserved holds keys this type does not model and the original form
	// of fields whose value could only be read leniently. Both are written
	// back unchanged.
	preserved map[string]jsoniter.RawMessage
}

// UnmatchedEntry describes a record that no matching strategy could place.
type UnmatchedEntry struct {
	Index        *int    `json:"index"`
	Title        string  `json:"title"`
	Artist       string  `json:"artist"`
	ExpectedFile *string `json:"expected_file"`
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}

// IndexValue returns the record index and whether it is present.
func (r TrackRecord) IndexValue() (int, bool) {
	if r.Index == nil {
		return 0, false
	}
	return *r.Index, true
}

// Label renders a short human description for logs and tables.
func (r TrackRecord) Label() string {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		title = "(untitled)"
	}
	if idx, ok := r.IndexValue(); ok {
		return fmt.Sprintf("%03d %s", idx, title)
	}
	return title
}

// Clone returns a deep copy so callers can mutate the result freely.
func (r TrackRecord) Clone() TrackRecord {
	out := r
	if r.Index != nil {
		out.Index = IntPtr(*r.Index)
	}
	out.preserved = maps.Clone(r.preserved)
	return out
}

// CloneRecords deep-copies a catalog slice. A nil input yields an empty slice.
func CloneRecords(records []TrackRecord) []TrackRecord {
	out := make([]TrackRecord, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

// Unmatched converts the record into its report form. An empty File becomes
// a null expected_file.
func (r TrackRecord) Unmatched() UnmatchedEntry {
	entry := UnmatchedEntry{Title: r.Title, Artist: r.Artist}
	if r.Index != nil {
		entry.Index = IntPtr(*r.Index)
	}
	if r.File != "" {
		file := r.File
		entry.ExpectedFile = &file
	}
	return entry
}

const (
	keyIndex    = "index"
	keyTitle    = "title"
	keyArtist   = "artist"
	keyDuration = "duration"
	keyFile     = "file"
)

var recordKeys = []string{keyIndex, keyTitle, keyArtist, keyDuration, keyFile}

// UnmarshalJSON tolerates malformed entries: a non-integer index decodes as
// absent, non-string text fields decode as empty, and a fractional duration
// is rounded to whole seconds. The original values and any unknown keys are
// kept so MarshalJSON can write them back.
func (r *TrackRecord) UnmarshalJSON(data []byte) error {
	var fields map[string]jsoniter.RawMessage
	if err := codec.Unmarshal(data, &fields); err != nil {
		return err
	}
	values := make(map[string]any, len(recordKeys))
	for _, key := range recordKeys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var v any
		if err := codec.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
		values[key] = v
		delete(fields, key)
		if !canonicalValue(key, v) {
			fields[key] = raw
		}
	}

	*r = TrackRecord{
		Index:    integerValue(values[keyIndex]),
		Title:    stringValue(values[keyTitle]),
		Artist:   stringValue(values[keyArtist]),
		File:     stringValue(values[keyFile]),
		Duration: durationValue(values[keyDuration]),
	}
	if len(fields) > 0 {
		r.preserved = make(map[string]jsoniter.RawMessage, len(fields))
		for key, raw := range fields {
			r.preserved[key] = append(jsoniter.RawMessage(nil), raw...)
		}
	}
	return nil
}

// canonicalValue reports whether v re-encodes to itself through the typed
// field for key.
func canonicalValue(key string, v any) bool {
	if v == nil {
		return key == keyIndex
	}
	switch key {
	case keyIndex:
		return integerValue(v) != nil
	case keyDuration:
		f, ok := v.(float64)
		return ok && f >= 0 && f == math.Trunc(f)
	default:
		_, ok := v.(string)
		return ok
	}
}

// MarshalJSON writes the modelled fields in a fixed order followed by the
// preserved keys in sorted order. A preserved original replaces a field
// only while the field still holds the value read from it.
func (r TrackRecord) MarshalJSON() ([]byte, error) {
	stream := codec.BorrowStream(nil)
	defer codec.ReturnStream(stream)

	stream.WriteObjectStart()
	for i, key := range recordKeys {
		if i > 0 {
			stream.WriteMore()
		}
		stream.WriteObjectField(key)
		if raw, ok := r.preserved[key]; ok && r.unchanged(key, raw) {
			stream.WriteRaw(string(raw))
			continue
		}
		switch key {
		case keyIndex:
			if r.Index == nil {
				stream.WriteNil()
			} else {
				stream.WriteInt(*r.Index)
			}
		case keyTitle:
			stream.WriteString(r.Title)
		case keyArtist:
			stream.WriteString(r.Artist)
		case keyDuration:
			stream.WriteInt(r.Duration)
		case keyFile:
			stream.WriteString(r.File)
		}
	}
	extra := make([]string, 0, len(r.preserved))
	for key := range r.preserved {
		if !slices.Contains(recordKeys, key) {
			extra = append(extra, key)
		}
	}
	slices.Sort(extra)
	for _, key := range extra {
		stream.WriteMore()
		stream.WriteObjectField(key)
		stream.WriteRaw(string(r.preserved[key]))
	}
	stream.WriteObjectEnd()

	if stream.Error != nil {
		return nil, stream.Error
	}
	return append([]byte(nil), stream.Buffer()...), nil
}

func (r TrackRecord) unchanged(key string, raw jsoniter.RawMessage) bool {
	var v any
	if err := codec.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch key {
	case keyIndex:
		decoded := integerValue(v)
		return decoded == nil && r.Index == nil
	case keyTitle:
		return r.Title == stringValue(v)
	case keyArtist:
		return r.Artist == stringValue(v)
	case keyDuration:
		return r.Duration == durationValue(v)
	case keyFile:
		return r.File == stringValue(v)
	}
	return false
}

func integerValue(v any) *int {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil
	}
	return IntPtr(int(f))
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func durationValue(v any) int {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return int(math.Round(f))
}

var unsafeFilenameChars = regexp.MustCompile(`[\\/:"*?<>|]+`)

// SanitizeFilename replaces characters that are unsafe in filenames with an
// underscore, the same rule the playlist downloader applies.
func SanitizeFilename(name string) string {
	return unsafeFilenameChars.ReplaceAllString(name, "_")
}

// CanonicalFilename is the name a track is expected to carry on disk:
// "<3-digit index> - <sanitized title><ext>". Without an index the sanitized
// title alone is used. An empty title yields "".
func CanonicalFilename(index *int, title, ext string) string {
	title = strings.TrimSpace(SanitizeFilename(title))
	if title == "" {
		return ""
	}
	ext = strings.TrimSpace(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if index != nil {
		return fmt.Sprintf("%03d - %s%s", *index, title, ext)
	}
	return title + ext
}

// Stem returns a filename without its final extension.
func Stem(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

// Search returns the records whose title or artist contains query,
// case-insensitively, in catalog order. A blank query matches everything.
func Search(records []TrackRecord, query string) []TrackRecord {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]TrackRecord, 0, len(records))
	for _, r := range records {
		if query == "" ||
			strings.Contains(strings.ToLower(r.Title), query) ||
			strings.Contains(strings.ToLower(r.Artist), query) {
			out = append(out, r)
		}
	}
	return out
}
