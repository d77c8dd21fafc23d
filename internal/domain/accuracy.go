package domain

import "math"

// IsHit reports whether a guess matches the final scoreline exactly.
// Picking the right winner with the wrong score is a miss.
func IsHit(guess, final Score) bool {
	return guess == final
}

// ScoredPrediction pairs a guess with the final score of its match.
type ScoredPrediction struct {
	Guess Score `json:"guess"`
	Final Score `json:"final"`
}

// Accuracy is the exact-scoreline record of one account over finalized
// matches. HitRate is a percentage rounded to two decimals.
type Accuracy struct {
	Total   int     `json:"total"`
	Hits    int     `json:"hits"`
	HitRate float64 `json:"hit_rate"`
}

// ComputeAccuracy aggregates hits over finalized predictions.
func ComputeAccuracy(scored []ScoredPrediction) Accuracy {
	acc := Accuracy{Total: len(scored)}
	for _, sp := range scored {
		if IsHit(sp.Guess, sp.Final) {
			acc.Hits++
		}
	}
	if acc.Total > 0 {
		acc.HitRate = math.Round(float64(acc.Hits)/float64(acc.Total)*100*100) / 100
	}
	return acc
}
