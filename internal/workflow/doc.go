// Package workflow runs one reconciliation pass end to end.
//
// A pass takes the catalog lock, loads the catalog, scans the dataset
// directory, reconciles the two, writes the unmatched report, optionally
// renames files to their canonical names, saves the catalog, and records the
// pass in the run history. Each pass carries a run_id that tags every log
// line and the history row.
package workflow
