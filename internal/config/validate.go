package config

import (
	"errors"
	"fmt"

	"songbook/internal/similarity"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Paths.DatasetDir == "" {
		return errors.New("paths.dataset_dir must be set")
	}
	if err := c.validateReconcile(); err != nil {
		return err
	}
	if err := c.validateDownload(); err != nil {
		return err
	}
	if err := c.validateLyrics(); err != nil {
		return err
	}
	if c.Prune.Prefix == "" {
		return errors.New("prune.prefix must not be empty")
	}
	if c.Watch.DebounceSeconds <= 0 {
		return errors.New("watch.debounce_seconds must be positive")
	}
	return c.validateLogging()
}

func (c *Config) validateReconcile() error {
	if c.Reconcile.FuzzyThreshold <= 0 || c.Reconcile.FuzzyThreshold > 2 {
		return errors.New("reconcile.fuzzy_threshold must be in (0, 2]")
	}
	if c.Reconcile.ArtistBonus < 0 || c.Reconcile.ArtistBonus > 1 {
		return errors.New("reconcile.artist_bonus must be between 0 and 1")
	}
	if _, err := similarity.New(c.Reconcile.Metric); err != nil {
		return fmt.Errorf("reconcile.metric: %w", err)
	}
	return nil
}

func (c *Config) validateDownload() error {
	if c.Download.DelaySeconds < 0 {
		return errors.New("download.delay_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateLyrics() error {
	if c.Lyrics.RequestsPerMinute <= 0 {
		return errors.New("lyrics.requests_per_minute must be positive")
	}
	if c.Lyrics.TimeoutSeconds <= 0 {
		return errors.New("lyrics.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (want console or json)", c.Logging.Format)
	}
	if err := validateLevel("logging.level", c.Logging.Level); err != nil {
		return err
	}
	return validateLevel("logging.file_level", c.Logging.FileLevel)
}

func validateLevel(key, level string) error {
	switch level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("%s: unsupported value %q", key, level)
	}
}
