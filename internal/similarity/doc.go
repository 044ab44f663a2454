// Package similarity scores how alike two normalized strings are.
//
// The default metric is a Levenshtein ratio (1 - distance / longest length,
// counted in runes). Jaro-Winkler, Sorensen-Dice, and Smith-Waterman-Gotoh
// are available through adrg/strutil for catalogs where titles and filenames
// diverge in ways edit distance scores poorly. Every scorer is total: empty
// inputs never panic and always produce 0 or 1.
package similarity
