// Package reconcile assigns files from a directory inventory to catalog
// records.
//
// Each record walks a fixed cascade and stops at the first step that
// succeeds:
//
//  1. a file whose leading index equals the record index (ties between
//     several such files go to the best title score, earliest file first)
//  2. the record's current filename, if it is still on disk
//  3. the best fuzzy title match, with a bonus when the artist appears in
//     the filename, provided it reaches the policy threshold
//  4. otherwise the record is reported as unmatched and keeps its filename
//
// Assignment is not exclusive: one file may satisfy several records.
package reconcile
