package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"songbook/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config rooted in a fresh temp directory. The dataset
// and state directories exist on return.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	dataset := filepath.Join(base, "dataset")
	cfgVal.Paths.DatasetDir = dataset
	cfgVal.Paths.CatalogFile = filepath.Join(dataset, "metadata.json")
	cfgVal.Paths.UnmatchedFile = filepath.Join(dataset, "unmatched.json")
	cfgVal.Paths.LyricsDir = filepath.Join(dataset, "lyrics")
	cfgVal.Paths.SeparatedDir = filepath.Join(dataset, "separated")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Download.ArchiveFile = filepath.Join(dataset, "downloaded.txt")
	cfgVal.Download.DelaySeconds = 0
	cfgVal.Lyrics.APIToken = "test-token"
	cfgVal.Lyrics.RequestsPerMinute = 60000
	cfgVal.Watch.DebounceSeconds = 1

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithRename enables the rename pass, optionally as a dry run.
func WithRename(dryRun bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Rename.Enabled = true
		b.cfg.Rename.DryRun = dryRun
	}
}

// WithExtensions overrides the inventory extensions.
func WithExtensions(exts ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Inventory.Extensions = exts
	}
}

// WithStubScript writes an executable shell script named name and points
// PATH at it for the duration of the test.
func WithStubScript(name, body string) ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		target := filepath.Join(binDir, name)
		if err := os.WriteFile(target, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
			b.t.Fatalf("write stub %s: %v", name, err)
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DatasetDir)
}
