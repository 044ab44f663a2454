// Package config loads, normalizes, and validates songbook configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts),
// reads TOML from the XDG config directory or a project-local songbook.toml,
// and applies environment overrides such as GENIUS_API_TOKEN, optionally
// sourced from a .env file. Catalog, report, lyrics, and separation paths
// given as plain names resolve inside the dataset directory.
package config
