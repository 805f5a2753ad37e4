package grading

import (
	"math"
	"strings"
)

// UnknownName is the sentinel the model uses when no name is legible.
const UnknownName = "Unknown"

// Finalize applies the name-fallback rule: results without a usable student name take the
// submission's file name without extension. The input batch is not modified.
func Finalize(batch Batch, submissions []Artifact) Batch {
	finalized := make(Batch, len(batch))
	for i, result := range batch {
		result.Questions = append([]QuestionScore{}, result.Questions...)
		if i < len(submissions) && needsNameFallback(result.StudentName) {
			if name := submissions[i].BaseName(); name != "" {
				result.StudentName = name
			}
		}
		finalized[i] = result
	}
	return finalized
}

func needsNameFallback(name string) bool {
	switch strings.TrimSpace(name) {
	case "", UnknownName, PlaceholderName:
		return true
	default:
		return false
	}
}

// Summarize computes the history digest: the student count and the rounded mean total score.
func Summarize(batch Batch) Summary {
	summary := Summary{StudentCount: len(batch)}
	if len(batch) == 0 {
		return summary
	}

	var total float64
	for _, result := range batch {
		total += result.TotalScore
	}
	summary.AverageScore = int(math.Round(total / float64(len(batch))))
	return summary
}
