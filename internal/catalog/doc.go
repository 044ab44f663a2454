// Package catalog owns the on-disk track catalog (metadata.json) and the
// unmatched report written after reconciliation.
//
// Records keep catalog order. Decoding is lenient about hand-edited input:
// missing or non-integer indices become absent and fractional durations are
// rounded. Writes go through a same-directory temp file and rename, and Lock
// serializes writers across processes with an advisory file lock.
package catalog
