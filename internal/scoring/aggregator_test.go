package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innovacall/review-portal/internal/models"
)

func testRubric() *models.Rubric {
	return &models.Rubric{
		ID:         "test-rubric",
		CategoryID: "technology",
		Name:       "Test Rubric",
		Sections: []models.Section{
			{
				ID:     "problem",
				Weight: 60,
				Criteria: []models.Criterion{
					{ID: "clarity", MaxScore: 5},
					{ID: "relevance", MaxScore: 5},
				},
			},
			{
				ID:     "solution",
				Weight: 40,
				Criteria: []models.Criterion{
					{ID: "originality", MaxScore: 10},
				},
			},
		},
	}
}

func TestSectionRatio(t *testing.T) {
	section := testRubric().Sections[0]

	ratio := SectionRatio(section, map[string]float64{"clarity": 4, "relevance": 3})
	assert.InDelta(t, 0.7, ratio, 1e-9)

	// Missing criteria count as zero
	ratio = SectionRatio(section, map[string]float64{"clarity": 5})
	assert.InDelta(t, 0.5, ratio, 1e-9)

	// Out-of-range values are clamped into [0, max]
	ratio = SectionRatio(section, map[string]float64{"clarity": 99, "relevance": -3})
	assert.InDelta(t, 0.5, ratio, 1e-9)
}

func TestSectionRatioZeroMaxTotal(t *testing.T) {
	section := models.Section{
		ID:     "empty",
		Weight: 10,
		Criteria: []models.Criterion{
			{ID: "c", MaxScore: 0},
		},
	}

	assert.Equal(t, 0.0, SectionRatio(section, map[string]float64{"c": 3}))
}

func TestScoreReviewWeightedMean(t *testing.T) {
	// 70% of the 60-weight section, 50% of the 40-weight section:
	// (0.7*10*60 + 0.5*10*40) / 100 = 6.2
	score, err := ScoreReview(testRubric(), map[string]float64{
		"clarity":     4,
		"relevance":   3,
		"originality": 5,
	})
	require.NoError(t, err)
	assert.InDelta(t, 6.2, score, 1e-9)
}

func TestScoreReviewBounds(t *testing.T) {
	rubric := testRubric()

	// All maxed scores hit exactly 10
	score, err := ScoreReview(rubric, map[string]float64{
		"clarity":     5,
		"relevance":   5,
		"originality": 10,
	})
	require.NoError(t, err)
	assert.InDelta(t, 10.0, score, 1e-9)

	// Empty scores aggregate to 0
	score, err = ScoreReview(rubric, map[string]float64{})
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestScoreReviewUnknownCriterion(t *testing.T) {
	_, err := ScoreReview(testRubric(), map[string]float64{"bogus": 3})
	assert.ErrorIs(t, err, ErrUnknownCriterion)
}

func TestScoreReviewMissingRubric(t *testing.T) {
	_, err := ScoreReview(&models.Rubric{ID: "empty"}, map[string]float64{})
	assert.ErrorIs(t, err, ErrMissingRubric)
}

func TestScoreReviewUnnormalizedWeights(t *testing.T) {
	// Weights summing to 50 instead of 100 still produce a 0-10 value
	rubric := &models.Rubric{
		ID: "half-weights",
		Sections: []models.Section{
			{
				ID:     "only",
				Weight: 50,
				Criteria: []models.Criterion{
					{ID: "c1", MaxScore: 10},
				},
			},
		},
	}

	score, err := ScoreReview(rubric, map[string]float64{"c1": 10})
	require.NoError(t, err)
	assert.InDelta(t, 10.0, score, 1e-9)
}

func TestScoreReviewZeroWeightRubric(t *testing.T) {
	rubric := &models.Rubric{
		ID: "zero-weights",
		Sections: []models.Section{
			{
				ID: "only",
				Criteria: []models.Criterion{
					{ID: "c1", MaxScore: 10},
				},
			},
		},
	}

	_, err := ScoreReview(rubric, map[string]float64{"c1": 5})
	assert.ErrorIs(t, err, ErrZeroWeightRubric)
}

func TestScoreProject(t *testing.T) {
	reviews := []*models.Review{
		{ID: "r1", Score: 6.0, IsDraft: false},
		{ID: "r2", Score: 8.0, IsDraft: false},
		{ID: "r3", Score: 2.0, IsDraft: true}, // drafts never contribute
	}

	score := ScoreProject(reviews)
	require.NotNil(t, score)
	assert.InDelta(t, 7.0, *score, 1e-9)
}

func TestScoreProjectNoFinalizedReviews(t *testing.T) {
	assert.Nil(t, ScoreProject(nil))
	assert.Nil(t, ScoreProject([]*models.Review{
		{ID: "r1", Score: 5.0, IsDraft: true},
	}))
}

func TestScoreReviewDeterministic(t *testing.T) {
	rubric := testRubric()
	scores := map[string]float64{"clarity": 2, "relevance": 4, "originality": 7}

	first, err := ScoreReview(rubric, scores)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		again, err := ScoreReview(rubric, scores)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
