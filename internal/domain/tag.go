package domain

import "time"

// Tag is an entry in the shared community vocabulary. Tags are global —
// no ownership model. Name is the canonical form and the unique key;
// DisplayName is the human-formatted spelling fixed when the tag was
// first registered. Counts are denormalized usage counters maintained
// by the store with atomic increments.
type Tag struct {
	Name            string           `json:"name"`
	DisplayName     string           `json:"display_name"`
	Reviewed        bool             `json:"reviewed"`
	Count           int              `json:"count"`
	CountByCategory map[Category]int `json:"count_by_category,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// CountFor returns the usage count for a category.
func (t *Tag) CountFor(c Category) int {
	return t.CountByCategory[c]
}

// TagUsage is a (name, count) pair for popularity rankings and local
// facet recounts. Name is whatever form the caller ranked by — display
// names for page-local recounts, canonical names for store rankings.
type TagUsage struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}
