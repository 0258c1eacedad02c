// Package sequencer assigns synthetic intra-day times so that sorting rows by
// timestamp reproduces their intended order within each calendar day.
// The offsets are an ordering artifact, never a real transaction time.
package sequencer

import (
	"sort"
	"time"

	"banka/ingest/internal/models"
)

// Forward gives the k-th row of each calendar day (in slice order) the
// timestamp midnight + k seconds. Rows must already be in intended
// chronological order within each day.
func Forward(rows []models.Transaction) {
	rank := make(map[string]int)
	for i := range rows {
		day := rows[i].Day()
		rows[i].Timestamp = rows[i].Midnight().Add(time.Duration(rank[day]) * time.Second)
		rank[day]++
	}
}

// Inverse is Forward for rows sorted newest first within each day: the k-th
// of n rows on a day gets midnight + (n - k - 1) seconds.
func Inverse(rows []models.Transaction) {
	count := make(map[string]int)
	for i := range rows {
		count[rows[i].Day()]++
	}
	rank := make(map[string]int)
	for i := range rows {
		day := rows[i].Day()
		offset := count[day] - rank[day] - 1
		rows[i].Timestamp = rows[i].Midnight().Add(time.Duration(offset) * time.Second)
		rank[day]++
	}
}

// SortByTimestamp orders rows by ascending timestamp, keeping the relative
// order of equal timestamps.
func SortByTimestamp(rows []models.Transaction) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Timestamp.Before(rows[j].Timestamp)
	})
}
