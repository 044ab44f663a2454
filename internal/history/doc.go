// Package history keeps a SQLite record of reconciliation runs: one row per
// pass with its counts, and one row per catalog record describing which
// strategy placed it and on which file.
package history
