// Package logging assembles the structured slog loggers used across
// songbook.
//
// It owns the console and JSON handlers, level and output plumbing, and the
// field names every component shares (component, run_id, event_type, and the
// hint/impact pair attached to warnings). Console output is coloured only
// when written to a terminal; log files always receive plain text. A no-op
// logger is provided for tests and wiring code that cannot fail.
package logging
