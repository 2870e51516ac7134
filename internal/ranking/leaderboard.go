// Package ranking orders simulation results for the class leaderboard.
//
// Results are ranked by tracking quality: a lower mean absolute error ranks
// higher, ties go to the shorter experiment, and remaining ties keep
// insertion order.
package ranking

import (
	"github.com/nvandessel/tanklab/internal/models"
)

// Key is the sort key of one stored result.
type Key struct {
	MeanAbsoluteError float64
	DurationSeconds   int
	Seq               int64 // insertion order assigned by the store
}

// KeyOf builds the sort key for a result stored with sequence number seq.
func KeyOf(r *models.SimulationResult, seq int64) Key {
	return Key{
		MeanAbsoluteError: r.MeanAbsoluteError,
		DurationSeconds:   r.TotalDurationSeconds,
		Seq:               seq,
	}
}

// Less reports whether k ranks ahead of other.
func (k Key) Less(other Key) bool {
	if k.MeanAbsoluteError != other.MeanAbsoluteError {
		return k.MeanAbsoluteError < other.MeanAbsoluteError
	}
	if k.DurationSeconds != other.DurationSeconds {
		return k.DurationSeconds < other.DurationSeconds
	}
	return k.Seq < other.Seq
}

// Number assigns 1-based ranks to rows that are already in ranking order.
func Number(rows []models.RankedResult) []models.RankedResult {
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows
}

// Top returns at most n leading rows. n <= 0 means no limit.
func Top(rows []models.RankedResult, n int) []models.RankedResult {
	if n <= 0 || n >= len(rows) {
		return rows
	}
	return rows[:n]
}

// BestPerUser keeps only the highest-ranked row of each email, preserving
// order and renumbering ranks.
func BestPerUser(rows []models.RankedResult) []models.RankedResult {
	seen := make(map[string]bool, len(rows))
	out := make([]models.RankedResult, 0, len(rows))
	for _, r := range rows {
		if seen[r.Email] {
			continue
		}
		seen[r.Email] = true
		out = append(out, r)
	}
	return Number(out)
}
