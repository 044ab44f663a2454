// Package download fills the dataset from a playlist with yt-dlp and
// appends a catalog record for every track that lands on disk.
package download
