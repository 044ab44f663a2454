// Package renamer moves audio files to the canonical name derived from their
// catalog record ("007 - Title.wav"). Moves never overwrite: on Linux the
// kernel enforces it with RENAME_NOREPLACE, elsewhere a hard link followed by
// removal of the old name.
package renamer
