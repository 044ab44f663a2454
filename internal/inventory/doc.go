// Package inventory lists the audio files present in the dataset directory
// and parses each filename into an optional playlist index and a title body.
//
// Filenames such as "007 - Song Title.wav" carry the index; anything else is
// indexed by body alone. Normalized forms of the body and stem are computed
// once per entry so matching never re-normalizes inside its inner loops.
package inventory
