// Package preflight provides readiness checks for the directories, external
// binaries, and services songbook depends on.
//
// The CLI "songbook doctor" command runs RunAll and prints one line per
// check. Optional checks cover collaborators (yt-dlp, spleeter, Genius) that
// only some commands need; a failed optional check is reported but does not
// fail the command.
package preflight
