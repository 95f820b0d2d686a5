package rubric

import (
	"fmt"
	"math"

	"github.com/innovacall/review-portal/internal/models"
)

// weightTolerance is how far section weights may drift from 100 before
// the rubric is flagged.
const weightTolerance = 0.5

// Validate rejects rubrics a reviewer could not score at all
func Validate(r *models.Rubric) error {
	if r.ID == "" {
		return fmt.Errorf("rubric id is required")
	}
	if r.CategoryID == "" {
		return fmt.Errorf("rubric %s: category is required", r.ID)
	}
	if len(r.Sections) == 0 {
		return fmt.Errorf("rubric %s: at least one section is required", r.ID)
	}

	seen := make(map[string]bool)
	for _, s := range r.Sections {
		for _, c := range s.Criteria {
			if c.ID == "" {
				return fmt.Errorf("rubric %s: section %s has a criterion without id", r.ID, s.ID)
			}
			if seen[c.ID] {
				return fmt.Errorf("rubric %s: duplicate criterion id %s", r.ID, c.ID)
			}
			seen[c.ID] = true
		}
	}

	return nil
}

// Normalize clips level scores above the criterion max and returns
// human-readable warnings for configuration issues that are tolerated
// arithmetically: a weight sum away from 100 and sections whose criteria
// max scores sum to zero.
func Normalize(r *models.Rubric) []string {
	var warnings []string

	if total := r.WeightTotal(); math.Abs(total-100) > weightTolerance {
		warnings = append(warnings, fmt.Sprintf("section weights sum to %.1f, expected 100", total))
	}

	for si := range r.Sections {
		section := &r.Sections[si]

		if section.MaxTotal() == 0 {
			warnings = append(warnings, fmt.Sprintf("section %s has zero total max score", section.ID))
		}

		for ci := range section.Criteria {
			criterion := &section.Criteria[ci]
			for li := range criterion.Levels {
				level := &criterion.Levels[li]
				if level.Score > criterion.MaxScore {
					warnings = append(warnings, fmt.Sprintf(
						"criterion %s: level score %.1f clipped to max %.1f",
						criterion.ID, level.Score, criterion.MaxScore,
					))
					level.Score = criterion.MaxScore
				}
			}
		}
	}

	return warnings
}
