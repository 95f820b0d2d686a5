// Package scoring turns per-criterion rubric scores into section, review
// and project totals. All functions are pure.
package scoring

import (
	"errors"

	"github.com/innovacall/review-portal/internal/models"
)

// Common errors
var (
	// ErrMissingRubric signals a rubric that is absent or has no sections
	ErrMissingRubric = errors.New("rubric is missing or has no sections")

	// ErrUnknownCriterion signals a score keyed by a criterion the rubric does not define
	ErrUnknownCriterion = errors.New("score references unknown criterion")

	// ErrZeroWeightRubric signals a rubric whose section weights sum to 0
	ErrZeroWeightRubric = errors.New("rubric section weights sum to 0")
)

// SectionRatio returns the section's completion-normalized ratio in [0, 1]:
// the sum of the scores given for its criteria divided by the sum of the
// criteria max scores. A criterion without a score counts as 0; a score
// above the criterion max is clamped down to it. A section whose criteria
// max scores sum to 0 has ratio 0.
func SectionRatio(section models.Section, scores map[string]float64) float64 {
	maxTotal := section.MaxTotal()
	if maxTotal == 0 {
		return 0
	}

	var got float64
	for _, c := range section.Criteria {
		v, ok := scores[c.ID]
		if !ok {
			continue
		}
		if v < 0 {
			v = 0
		}
		if v > c.MaxScore {
			v = c.MaxScore
		}
		got += v
	}

	return got / maxTotal
}

// ScoreReview combines all sections of the rubric into a single value on the
// 0-10 scale: each section ratio is scaled to 10, then the weighted mean is
// taken over the section weights. Dividing by the actual weight sum keeps the
// result correct even when weights do not sum to exactly 100.
//
// Scores keyed by criteria the rubric does not define are rejected rather
// than silently ignored.
func ScoreReview(rubric *models.Rubric, scores map[string]float64) (float64, error) {
	if !rubric.HasSections() {
		return 0, ErrMissingRubric
	}

	known := rubric.CriterionIDs()
	for id := range scores {
		if _, ok := known[id]; !ok {
			return 0, ErrUnknownCriterion
		}
	}

	// A zero weight sum is a broken rubric configuration, not a score of 0
	weightTotal := rubric.WeightTotal()
	if weightTotal == 0 {
		return 0, ErrZeroWeightRubric
	}

	var weighted float64
	for _, section := range rubric.Sections {
		weighted += SectionRatio(section, scores) * 10 * section.Weight
	}

	return weighted / weightTotal, nil
}

// ScoreProject returns the arithmetic mean of the finalized reviews' scores,
// or nil when no finalized review exists. Draft reviews never contribute.
func ScoreProject(reviews []*models.Review) *float64 {
	var sum float64
	var n int
	for _, r := range reviews {
		if r.IsDraft {
			continue
		}
		sum += r.Score
		n++
	}

	if n == 0 {
		return nil
	}

	mean := sum / float64(n)
	return &mean
}
