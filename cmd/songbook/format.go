package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"songbook/internal/catalog"
)

func formatIndex(index *int) string {
	if index == nil {
		return "-"
	}
	return fmt.Sprintf("%03d", *index)
}

func formatSeconds(seconds int) string {
	if seconds <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Second).String()
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 2, 64)
}

func formatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

func formatFile(file string) string {
	if file == "" {
		return "-"
	}
	return file
}

func recordRows(records []catalog.TrackRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{formatIndex(r.Index), r.Title, r.Artist, formatSeconds(r.Duration), formatFile(r.File)})
	}
	return rows
}

var recordHeaders = []string{"#", "Title", "Artist", "Length", "File"}

var recordAligns = []columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft}
