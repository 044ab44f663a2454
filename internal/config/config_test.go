package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"songbook/internal/config"
	"songbook/internal/similarity"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(home, ".local", "state"))
	t.Setenv("GENIUS_API_TOKEN", "")
	t.Setenv("SONGBOOK_DATASET_DIR", "")
	t.Chdir(home)
	return home
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	home := isolate(t)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if want := filepath.Join(home, ".config", "songbook", "config.toml"); resolved != want {
		t.Fatalf("resolved = %q, want %q", resolved, want)
	}

	dataset := filepath.Join(home, "karaoke_dataset")
	if cfg.Paths.DatasetDir != dataset {
		t.Fatalf("dataset dir = %q, want %q", cfg.Paths.DatasetDir, dataset)
	}
	if cfg.Paths.CatalogFile != filepath.Join(dataset, "metadata.json") {
		t.Fatalf("catalog file = %q", cfg.Paths.CatalogFile)
	}
	if cfg.Paths.UnmatchedFile != filepath.Join(dataset, "unmatched.json") {
		t.Fatalf("unmatched file = %q", cfg.Paths.UnmatchedFile)
	}
	if cfg.Download.ArchiveFile != filepath.Join(dataset, "downloaded.txt") {
		t.Fatalf("archive file = %q", cfg.Download.ArchiveFile)
	}
	if cfg.Paths.StateDir != filepath.Join(home, ".local", "state", "songbook") {
		t.Fatalf("state dir = %q", cfg.Paths.StateDir)
	}
	if cfg.HistoryPath() != filepath.Join(cfg.Paths.StateDir, "history.db") {
		t.Fatalf("history path = %q", cfg.HistoryPath())
	}
	if cfg.Reconcile.FuzzyThreshold != 0.65 || cfg.Reconcile.ArtistBonus != 0.15 {
		t.Fatalf("unexpected reconcile defaults: %+v", cfg.Reconcile)
	}
	if cfg.Reconcile.Metric != similarity.DefaultMetric {
		t.Fatalf("metric = %q", cfg.Reconcile.Metric)
	}
	if len(cfg.Inventory.Extensions) != 1 || cfg.Inventory.Extensions[0] != ".wav" {
		t.Fatalf("extensions = %v", cfg.Inventory.Extensions)
	}
	if cfg.Rename.Enabled {
		t.Fatal("expected rename disabled by default")
	}
}

func TestLoadCustomPath(t *testing.T) {
	home := isolate(t)
	configPath := filepath.Join(home, "songbook.toml")

	type payload struct {
		Paths struct {
			DatasetDir  string `toml:"dataset_dir"`
			CatalogFile string `toml:"catalog_file"`
		} `toml:"paths"`
		Inventory struct {
			Extensions []string `toml:"extensions"`
		} `toml:"inventory"`
		Reconcile struct {
			FuzzyThreshold float64 `toml:"fuzzy_threshold"`
			Metric         string  `toml:"metric"`
		} `toml:"reconcile"`
	}
	custom := payload{}
	custom.Paths.DatasetDir = "~/songs"
	custom.Paths.CatalogFile = "/tmp/elsewhere/catalog.json"
	custom.Inventory.Extensions = []string{"MP3", "wav"}
	custom.Reconcile.FuzzyThreshold = 0.8
	custom.Reconcile.Metric = "Jaro-Winkler"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("resolved = %q exists = %v", resolved, exists)
	}
	if cfg.Paths.DatasetDir != filepath.Join(home, "songs") {
		t.Fatalf("dataset dir = %q", cfg.Paths.DatasetDir)
	}
	if cfg.Paths.CatalogFile != "/tmp/elsewhere/catalog.json" {
		t.Fatalf("absolute catalog path rewritten: %q", cfg.Paths.CatalogFile)
	}
	if got := cfg.Inventory.Extensions; len(got) != 2 || got[0] != ".mp3" || got[1] != ".wav" {
		t.Fatalf("extensions = %v", got)
	}
	if cfg.Reconcile.FuzzyThreshold != 0.8 || cfg.Reconcile.Metric != similarity.MetricJaroWinkler {
		t.Fatalf("reconcile = %+v", cfg.Reconcile)
	}
	if cfg.Reconcile.ArtistBonus != 0.15 {
		t.Fatalf("unset keys should keep defaults, got bonus %v", cfg.Reconcile.ArtistBonus)
	}
}

func TestLoadFindsProjectConfig(t *testing.T) {
	home := isolate(t)
	if err := os.WriteFile(filepath.Join(home, "songbook.toml"), []byte("[watch]\ndebounce_seconds = 9\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != filepath.Join(home, "songbook.toml") {
		t.Fatalf("resolved = %q exists = %v", resolved, exists)
	}
	if cfg.Watch.DebounceSeconds != 9 {
		t.Fatalf("debounce = %d", cfg.Watch.DebounceSeconds)
	}
}

func TestEnvOverridesConfigFileToken(t *testing.T) {
	home := isolate(t)
	configPath := filepath.Join(home, "songbook.toml")
	if err := os.WriteFile(configPath, []byte("[lyrics]\napi_token = \"file-token\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Lyrics.APIToken != "file-token" {
		t.Fatalf("expected token from file, got %q", cfg.Lyrics.APIToken)
	}

	t.Setenv("GENIUS_API_TOKEN", "env-token")
	cfg, _, _, err = config.Load(configPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Lyrics.APIToken != "env-token" {
		t.Fatalf("expected token from env, got %q", cfg.Lyrics.APIToken)
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	home := isolate(t)
	os.Unsetenv("GENIUS_API_TOKEN")
	t.Cleanup(func() { os.Unsetenv("GENIUS_API_TOKEN") })
	if err := os.WriteFile(filepath.Join(home, ".env"), []byte("GENIUS_API_TOKEN=dotenv-token\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Lyrics.APIToken != "dotenv-token" {
		t.Fatalf("expected token from .env, got %q", cfg.Lyrics.APIToken)
	}
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "bad.toml")
	if err := os.WriteFile(path, []byte("[paths\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestCreateSample(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "GENIUS_API_TOKEN") {
		t.Fatalf("sample config missing token hint: %s", contents)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample does not load: %v", err)
	}
	if !exists || !strings.HasSuffix(cfg.Paths.DatasetDir, "karaoke_dataset") {
		t.Fatalf("unexpected dataset dir %q", cfg.Paths.DatasetDir)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	mutations := map[string]func(*config.Config){
		"zero threshold":   func(c *config.Config) { c.Reconcile.FuzzyThreshold = 0 },
		"negative bonus":   func(c *config.Config) { c.Reconcile.ArtistBonus = -0.1 },
		"unknown metric":   func(c *config.Config) { c.Reconcile.Metric = "cosine" },
		"negative delay":   func(c *config.Config) { c.Download.DelaySeconds = -1 },
		"zero rate":        func(c *config.Config) { c.Lyrics.RequestsPerMinute = 0 },
		"empty prefix":     func(c *config.Config) { c.Prune.Prefix = "" },
		"zero debounce":    func(c *config.Config) { c.Watch.DebounceSeconds = 0 },
		"bad log format":   func(c *config.Config) { c.Logging.Format = "xml" },
		"bad log level":    func(c *config.Config) { c.Logging.Level = "verbose" },
		"bad file level":   func(c *config.Config) { c.Logging.FileLevel = "trace" },
		"no dataset dir":   func(c *config.Config) { c.Paths.DatasetDir = "" },
		"zero lyrics wait": func(c *config.Config) { c.Lyrics.TimeoutSeconds = 0 },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	cfg.Reconcile.Metric = "cosine"
	if err := cfg.Validate(); !errors.Is(err, similarity.ErrUnknownMetric) {
		t.Fatalf("expected wrapped ErrUnknownMetric, got %v", err)
	}
}

func TestRedactedEncodeRoundTrips(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DatasetDir = "/data/karaoke"
	cfg.Lyrics.APIToken = "secret"

	data, err := cfg.Redacted().EncodeTOML()
	if err != nil {
		t.Fatalf("EncodeTOML: %v", err)
	}
	if strings.Contains(string(data), "secret") {
		t.Fatalf("token leaked: %s", data)
	}
	if cfg.Lyrics.APIToken != "secret" {
		t.Fatal("Redacted must not modify the receiver")
	}

	var decoded config.Config
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Paths.DatasetDir != "/data/karaoke" || decoded.Reconcile.FuzzyThreshold != cfg.Reconcile.FuzzyThreshold {
		t.Fatalf("unexpected decoded config %+v", decoded.Paths)
	}
}
