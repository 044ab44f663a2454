// Package main hosts the songbook CLI entrypoint and command graph.
//
// Commands resolve configuration lazily through commandContext and delegate
// to the internal packages; this package only parses flags and renders
// tables or JSON.
package main
