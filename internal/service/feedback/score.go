// Package feedback scores completed interviews: it aggregates per-category
// AI scores into a weighted overall score with a hiring recommendation,
// and produces the category evaluation itself from the interview
// transcript via a ranked provider chain.
package feedback

import (
	"math"

	"ai-interview-service/internal/models"
)

// categoryWeights is the fixed weight table for the overall score.
// Categories absent from the table use defaultWeight.
var categoryWeights = map[string]float64{
	"Communication Skills": 0.20,
	"Technical Knowledge":  0.30,
	"Problem Solving":      0.25,
	"Cultural & Role Fit":  0.15,
	"Confidence & Clarity": 0.10,
}

const defaultWeight = 0.20

// OverallScore computes the weighted average of the category scores.
// The denominator is the sum of weights actually present, so omitting a
// category changes the normalization rather than dragging the score down.
func OverallScore(scores []models.CategoryScore) int {
	var weightedSum, totalWeight float64

	for _, s := range scores {
		weight, ok := categoryWeights[s.Category]
		if !ok {
			weight = defaultWeight
		}
		weightedSum += float64(s.Score) * weight
		totalWeight += weight
	}

	if totalWeight == 0 {
		return 0
	}
	return int(math.Round(weightedSum / totalWeight))
}

// HiringRecommendation maps an overall score to a recommendation band.
// Bands have inclusive lower bounds and are checked in descending order.
func HiringRecommendation(score int) string {
	switch {
	case score >= 85:
		return "Strong Yes - Excellent candidate, proceed immediately"
	case score >= 70:
		return "Yes - Good candidate, recommend moving forward"
	case score >= 55:
		return "Maybe - Has potential, consider for further evaluation"
	case score >= 40:
		return "Unlikely - Significant gaps, but could reconsider with development"
	default:
		return "No - Not suitable for this role at this time"
	}
}
