package rating

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"competency-assessment/internal/models"
)

func ratingsOf(values ...int) []models.CompetencyRating {
	out := make([]models.CompetencyRating, len(values))
	for i, v := range values {
		out[i] = models.CompetencyRating{ID: uint(i + 1), CompetencyID: uint(i + 1), Rating: v}
	}
	return out
}

func TestComputeOverall(t *testing.T) {
	tests := []struct {
		name     string
		ratings  []models.CompetencyRating
		expected float64
	}{
		{name: "empty", ratings: nil, expected: 0},
		{name: "all unrated", ratings: ratingsOf(0, 0), expected: 0},
		{name: "plain mean", ratings: ratingsOf(3, 4, 5), expected: 4.0},
		{name: "half stays", ratings: ratingsOf(2, 3), expected: 2.5},
		{name: "unrated ignored", ratings: ratingsOf(0, 4, 0, 5), expected: 4.5},
		{name: "repeating decimal", ratings: ratingsOf(1, 2, 2), expected: 1.7},
		{name: "single", ratings: ratingsOf(5), expected: 5.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ComputeOverall(tt.ratings))
		})
	}
}

func TestMeanPolicies(t *testing.T) {
	values := []float64{4, 2, 0}

	assert.Equal(t, 3.0, Mean(values, SkipUnrated))
	assert.Equal(t, 2.0, Mean(values, IncludeAll))
	assert.Equal(t, 0.0, Mean(nil, IncludeAll))
	assert.Equal(t, 0.0, Mean([]float64{0, 0}, IncludeAll))
}

func TestRound1MatchesToFixed(t *testing.T) {
	tests := []struct {
		in       float64
		expected float64
	}{
		{2.25, 2.3},   // exact binary tie rounds away from zero
		{0.25, 0.3},   // same
		{2.75, 2.8},   // same
		{1.15, 1.1},   // stored below the tie
		{1.45, 1.4},   // stored below the tie
		{2.35, 2.4},   // stored above the tie
		{10.0 / 3, 3.3},
		{14.0 / 3, 4.7},
		{0, 0},
		{5, 5},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Round1(tt.in), "Round1(%v)", tt.in)
	}
}

func TestComputeOverallIsPure(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		values := make([]int, rng.Intn(12))
		for j := range values {
			values[j] = rng.Intn(MaxRating + 1)
		}
		ratings := ratingsOf(values...)
		snapshot := append([]models.CompetencyRating(nil), ratings...)

		first := ComputeOverall(ratings)
		second := ComputeOverall(ratings)

		assert.Equal(t, first, second)
		assert.Equal(t, snapshot, ratings, "input must not be mutated")
		assert.GreaterOrEqual(t, first, 0.0)
		assert.LessOrEqual(t, first, 5.0)
	}
}

func TestValid(t *testing.T) {
	assert.True(t, Valid(0))
	assert.True(t, Valid(5))
	assert.False(t, Valid(-1))
	assert.False(t, Valid(6))
}
