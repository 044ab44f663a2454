package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

const appName = "songbook"

// Paths contains dataset and state locations. Relative catalog, report,
// lyrics, and separation paths resolve inside DatasetDir.
type Paths struct {
	DatasetDir    string `toml:"dataset_dir"`
	CatalogFile   string `toml:"catalog_file"`
	UnmatchedFile string `toml:"unmatched_file"`
	StateDir      string `toml:"state_dir"`
	LyricsDir     string `toml:"lyrics_dir"`
	SeparatedDir  string `toml:"separated_dir"`
}

// Inventory controls which files count as tracks.
type Inventory struct {
	Extensions []string `toml:"extensions"`
}

// Reconcile tunes file matching.
type Reconcile struct {
	FuzzyThreshold float64 `toml:"fuzzy_threshold"`
	ArtistBonus    float64 `toml:"artist_bonus"`
	Metric         string  `toml:"metric"`
}

// Rename controls the optional canonical rename pass.
type Rename struct {
	Enabled bool `toml:"enabled"`
	DryRun  bool `toml:"dry_run"`
}

// Download contains playlist download settings.
type Download struct {
	PlaylistURL  string `toml:"playlist_url"`
	AudioFormat  string `toml:"audio_format"`
	ArchiveFile  string `toml:"archive_file"`
	DelaySeconds int    `toml:"delay_seconds"`
	Binary       string `toml:"binary"`
}

// Lyrics contains Genius API settings.
type Lyrics struct {
	APIToken          string `toml:"api_token"`
	BaseURL           string `toml:"base_url"`
	RequestsPerMinute int    `toml:"requests_per_minute"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
}

// Separation contains vocal separation settings.
type Separation struct {
	Binary string `toml:"binary"`
	Model  string `toml:"model"`
}

// Prune controls removal of placeholder downloads.
type Prune struct {
	Prefix string `toml:"prefix"`
}

// Watch controls the directory watcher.
type Watch struct {
	DebounceSeconds int `toml:"debounce_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	// FileLevel applies to the state-directory log file only.
	FileLevel string `toml:"file_level"`
}

// Config encapsulates all configuration values for songbook.
type Config struct {
	Paths      Paths      `toml:"paths"`
	Inventory  Inventory  `toml:"inventory"`
	Reconcile  Reconcile  `toml:"reconcile"`
	Rename     Rename     `toml:"rename"`
	Download   Download   `toml:"download"`
	Lyrics     Lyrics     `toml:"lyrics"`
	Separation Separation `toml:"separation"`
	Prune      Prune      `toml:"prune"`
	Watch      Watch      `toml:"watch"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the per-user configuration file location.
func DefaultConfigPath() (string, error) {
	xdg.Reload()
	return expandPath(filepath.Join(xdg.ConfigHome, appName, "config.toml"))
}

// Load locates, parses, and validates a configuration file. A .env file in
// the working directory is applied to the environment first; variables that
// are already set win. The returned config has all path fields expanded.
func Load(path string) (*Config, string, bool, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, "", false, err
	}

	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(appName + ".toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the dataset and state directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DatasetDir, c.Paths.StateDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LogPath is the file log lines are appended to.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.StateDir, appName+".log")
}

// HistoryPath is the run history database.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// LockPath is the advisory lock guarding the catalog.
func (c *Config) LockPath() string {
	return c.Paths.CatalogFile + ".lock"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Redacted returns a copy safe to print: secrets are masked.
func (c Config) Redacted() Config {
	if c.Lyrics.APIToken != "" {
		c.Lyrics.APIToken = "********"
	}
	return c
}

// EncodeTOML renders the configuration in the same layout it is read from.
func (c Config) EncodeTOML() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
