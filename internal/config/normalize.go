package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"

	"songbook/internal/inventory"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.Inventory.Extensions = inventory.NormalizeExtensions(c.Inventory.Extensions)
	c.normalizeReconcile()
	if err := c.normalizeDownload(); err != nil {
		return err
	}
	c.normalizeLyrics()
	c.normalizeSeparation()
	c.Prune.Prefix = strings.TrimSpace(c.Prune.Prefix)
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv(datasetDirEnv); ok && strings.TrimSpace(value) != "" {
		c.Paths.DatasetDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.DatasetDir) == "" {
		c.Paths.DatasetDir = defaultDatasetDir
	}

	var err error
	if c.Paths.DatasetDir, err = expandPath(c.Paths.DatasetDir); err != nil {
		return fmt.Errorf("paths.dataset_dir: %w", err)
	}
	if c.Paths.CatalogFile, err = c.datasetRelative(c.Paths.CatalogFile, defaultCatalogFile); err != nil {
		return fmt.Errorf("paths.catalog_file: %w", err)
	}
	if c.Paths.UnmatchedFile, err = c.datasetRelative(c.Paths.UnmatchedFile, defaultUnmatchedFile); err != nil {
		return fmt.Errorf("paths.unmatched_file: %w", err)
	}
	if c.Paths.LyricsDir, err = c.datasetRelative(c.Paths.LyricsDir, defaultLyricsDir); err != nil {
		return fmt.Errorf("paths.lyrics_dir: %w", err)
	}
	if c.Paths.SeparatedDir, err = c.datasetRelative(c.Paths.SeparatedDir, defaultSeparatedDir); err != nil {
		return fmt.Errorf("paths.separated_dir: %w", err)
	}

	if strings.TrimSpace(c.Paths.StateDir) == "" {
		xdg.Reload()
		c.Paths.StateDir = filepath.Join(xdg.StateHome, appName)
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

// datasetRelative resolves value against the dataset directory unless it is
// absolute or starts with "~".
func (c *Config) datasetRelative(value, fallback string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		value = fallback
	}
	if !filepath.IsAbs(value) && !strings.HasPrefix(value, "~") {
		value = filepath.Join(c.Paths.DatasetDir, value)
	}
	return expandPath(value)
}

func (c *Config) normalizeReconcile() {
	c.Reconcile.Metric = strings.ToLower(strings.TrimSpace(c.Reconcile.Metric))
	if c.Reconcile.Metric == "" {
		c.Reconcile.Metric = defaultMetric
	}
}

func (c *Config) normalizeDownload() error {
	c.Download.PlaylistURL = strings.TrimSpace(c.Download.PlaylistURL)
	c.Download.Binary = strings.TrimSpace(c.Download.Binary)
	c.Download.AudioFormat = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(c.Download.AudioFormat)), ".")
	if c.Download.AudioFormat == "" {
		c.Download.AudioFormat = defaultAudioFormat
	}
	var err error
	if c.Download.ArchiveFile, err = c.datasetRelative(c.Download.ArchiveFile, defaultArchiveFile); err != nil {
		return fmt.Errorf("download.archive_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeLyrics() {
	if value, ok := os.LookupEnv(geniusTokenEnv); ok && strings.TrimSpace(value) != "" {
		c.Lyrics.APIToken = value
	}
	c.Lyrics.APIToken = strings.TrimSpace(c.Lyrics.APIToken)
	c.Lyrics.BaseURL = strings.TrimRight(strings.TrimSpace(c.Lyrics.BaseURL), "/")
	if c.Lyrics.BaseURL == "" {
		c.Lyrics.BaseURL = defaultGeniusBaseURL
	}
}

func (c *Config) normalizeSeparation() {
	c.Separation.Binary = strings.TrimSpace(c.Separation.Binary)
	if c.Separation.Binary == "" {
		c.Separation.Binary = defaultSeparationBinary
	}
	c.Separation.Model = strings.TrimSpace(c.Separation.Model)
	if c.Separation.Model == "" {
		c.Separation.Model = defaultSeparationModel
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.FileLevel = strings.ToLower(strings.TrimSpace(c.Logging.FileLevel))
	if c.Logging.FileLevel == "" {
		c.Logging.FileLevel = defaultLogFileLevel
	}
}
