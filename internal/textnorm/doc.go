// Package textnorm canonicalizes free-text track titles, artists, and
// filenames into a comparable form.
//
// Normalization is lossy on purpose: scripts other than ASCII and Hangul are
// dropped, so titles written entirely in, say, Cyrillic normalize to the
// empty string. The reconciliation engine relies on Normalize being pure and
// idempotent because it calls it repeatedly for the same inputs.
package textnorm
