// Package rating reduces per-competency ratings to one overall score on the 0.0-5.0 scale.
package rating

import (
	"strconv"

	"github.com/shopspring/decimal"

	"competency-assessment/internal/models"
)

// Scale bounds. A rating of Unrated means the competency has not been rated yet.
const (
	Unrated   = 0
	MinRating = 1
	MaxRating = 5
)

// Policy selects which values take part in an average
type Policy int

const (
	// SkipUnrated drops zero values before averaging
	SkipUnrated Policy = iota
	// IncludeAll averages every value, zeros included
	IncludeAll
)

// ComputeOverall returns the overall rating of an assessment. Unrated competencies are
// ignored; an assessment without any rated competency scores 0.0.
func ComputeOverall(ratings []models.CompetencyRating) float64 {
	values := make([]float64, 0, len(ratings))
	for _, r := range ratings {
		values = append(values, float64(r.Rating))
	}
	return Mean(values, SkipUnrated)
}

// Mean averages values under the given policy and rounds to one decimal.
// An empty input (after filtering) yields 0.0.
func Mean(values []float64, policy Policy) float64 {
	var sum float64
	n := 0
	for _, v := range values {
		if policy == SkipUnrated && v == Unrated {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0
	}
	return Round1(sum / float64(n))
}

// Round1 rounds x to one decimal place. The exact binary value of x is rounded, with ties
// going away from zero: 2.25 becomes 2.3 while 1.15 (stored as 1.1499999...) becomes 1.1.
func Round1(x float64) float64 {
	// 30 fractional digits keep every float64 in range distinguishable from a decimal tie.
	d := decimal.RequireFromString(strconv.FormatFloat(x, 'f', 30, 64))
	return d.Round(1).InexactFloat64()
}

// Valid reports whether r lies on the rating scale, Unrated included
func Valid(r int) bool {
	return r >= Unrated && r <= MaxRating
}
