package models

// Rubric is the weighted scoring hierarchy for one category:
// Sections carry a percentage weight, Criteria a maximum score, and
// Levels pair a discrete score with a description of what earns it.
type Rubric struct {
	ID         string    `yaml:"id" json:"id"`
	CategoryID string    `yaml:"category" json:"category_id"`
	Name       string    `yaml:"name" json:"name"`
	Sections   []Section `yaml:"sections" json:"sections"`
}

// Section groups related criteria under a single weight
type Section struct {
	ID       string      `yaml:"id" json:"id"`
	Title    string      `yaml:"title" json:"title"`
	Weight   float64     `yaml:"weight" json:"weight"`
	Criteria []Criterion `yaml:"criteria" json:"criteria"`
}

// Criterion is a single scored item with its discrete levels
type Criterion struct {
	ID       string  `yaml:"id" json:"id"`
	Title    string  `yaml:"title" json:"title"`
	MaxScore float64 `yaml:"max_score" json:"max_score"`
	Levels   []Level `yaml:"levels" json:"levels"`
}

// Level pairs a selectable score with its description
type Level struct {
	Score       float64 `yaml:"score" json:"score"`
	Description string  `yaml:"description" json:"description"`
}

// MaxTotal returns the sum of criterion max scores in the section
func (s *Section) MaxTotal() float64 {
	var total float64
	for _, c := range s.Criteria {
		total += c.MaxScore
	}
	return total
}

// WeightTotal returns the sum of section weights across the rubric
func (r *Rubric) WeightTotal() float64 {
	var total float64
	for _, s := range r.Sections {
		total += s.Weight
	}
	return total
}

// CriterionIDs returns the set of criterion ids across all sections
func (r *Rubric) CriterionIDs() map[string]struct{} {
	ids := make(map[string]struct{})
	for _, s := range r.Sections {
		for _, c := range s.Criteria {
			ids[c.ID] = struct{}{}
		}
	}
	return ids
}

// HasSections reports whether the rubric defines at least one section
func (r *Rubric) HasSections() bool {
	return r != nil && len(r.Sections) > 0
}
