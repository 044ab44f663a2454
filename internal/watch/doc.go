// Package watch reruns reconciliation when the dataset directory changes.
//
// Events are debounced so a burst of downloads or renames produces a single
// pass, and passes run one at a time on the watch goroutine. Writes the pass
// itself makes to the catalog are recognized and do not schedule another
// pass.
package watch
