package download

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/lrstanley/go-ytdlp"

	"songbook/internal/config"
)

// Entry is one playlist item. Index is the 1-based playlist position.
type Entry struct {
	Index    int
	ID       string
	Title    string
	Uploader string
	URL      string
	Duration int
}

// Playlist is the flat listing returned by the extractor.
type Playlist struct {
	Title   string
	Entries []Entry
}

// Fetcher lists playlists and fetches single tracks.
type Fetcher interface {
	Playlist(ctx context.Context, url string) (Playlist, error)
	// Audio downloads entry to outputTemplate, a yt-dlp output template.
	Audio(ctx context.Context, entry Entry, outputTemplate string) error
}

// YTDLP drives the yt-dlp binary through go-ytdlp.
type YTDLP struct {
	binary      string
	audioFormat string
	archive     string
}

// NewYTDLP builds a fetcher from the download section of the config.
func NewYTDLP(cfg config.Download) *YTDLP {
	return &YTDLP{binary: cfg.Binary, audioFormat: cfg.AudioFormat, archive: cfg.ArchiveFile}
}

func (y *YTDLP) command() *ytdlp.Command {
	cmd := ytdlp.New()
	if y.binary != "" {
		cmd.SetExecutable(y.binary)
	}
	return cmd
}

// Playlist lists the playlist without downloading anything.
func (y *YTDLP) Playlist(ctx context.Context, url string) (Playlist, error) {
	res, err := y.command().
		FlatPlaylist().
		DumpSingleJSON().
		NoWarnings().
		Run(ctx, url)
	if err != nil {
		if ctx.Err() != nil {
			return Playlist{}, ctx.Err()
		}
		return Playlist{}, fmt.Errorf("yt-dlp playlist listing: %w", err)
	}
	return parsePlaylist([]byte(res.Stdout))
}

// Audio fetches the best audio stream and converts it to the configured
// format. The download archive keeps yt-dlp from fetching a track twice.
func (y *YTDLP) Audio(ctx context.Context, entry Entry, outputTemplate string) error {
	cmd := y.command().
		Format("bestaudio/best").
		ExtractAudio().
		AudioFormat(y.audioFormat).
		NoPlaylist().
		NoProgress().
		Quiet().
		Output(outputTemplate)
	if y.archive != "" {
		cmd.DownloadArchive(y.archive)
	}
	if _, err := cmd.Run(ctx, entry.URL); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("yt-dlp download %s: %w", entry.ID, err)
	}
	return nil
}

type playlistJSON struct {
	Title   string `json:"title"`
	Entries []*struct {
		ID            string   `json:"id"`
		Title         string   `json:"title"`
		Uploader      string   `json:"uploader"`
		Channel       string   `json:"channel"`
		URL           string   `json:"url"`
		WebpageURL    string   `json:"webpage_url"`
		Duration      *float64 `json:"duration"`
		PlaylistIndex int      `json:"playlist_index"`
	} `json:"entries"`
}

var errNotPlaylist = errors.New("extractor output has no playlist entries")

// parsePlaylist decodes --dump-single-json output. Null entries (private or
// removed videos) are skipped but still consume their position.
func parsePlaylist(data []byte) (Playlist, error) {
	var raw playlistJSON
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &raw); err != nil {
		return Playlist{}, fmt.Errorf("decode playlist json: %w", err)
	}
	if raw.Entries == nil {
		return Playlist{}, errNotPlaylist
	}

	out := Playlist{Title: raw.Title, Entries: make([]Entry, 0, len(raw.Entries))}
	for pos, e := range raw.Entries {
		if e == nil {
			continue
		}
		entry := Entry{
			Index:    e.PlaylistIndex,
			ID:       e.ID,
			Title:    strings.TrimSpace(e.Title),
			Uploader: strings.TrimSpace(e.Uploader),
			URL:      e.WebpageURL,
		}
		if entry.Index <= 0 {
			entry.Index = pos + 1
		}
		if entry.URL == "" {
			entry.URL = e.URL
		}
		if entry.Uploader == "" {
			entry.Uploader = strings.TrimSpace(e.Channel)
		}
		if e.Duration != nil && *e.Duration > 0 && !math.IsInf(*e.Duration, 0) {
			entry.Duration = int(math.Round(*e.Duration))
		}
		out.Entries = append(out.Entries, entry)
	}
	return out, nil
}
