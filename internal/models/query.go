package models

import "fmt"

// DefaultK is the number of recommendations returned when a query does not set K.
const DefaultK = 5

// RecommendQuery is a request for items similar to Title.
type RecommendQuery struct {
	Title string `json:"title"`
	K     int    `json:"k,omitempty"`
}

// Validate ensures the query has a title and clamps K into [1, maxK].
// A zero or negative K becomes defaultK; maxK <= 0 disables the upper bound.
func (q *RecommendQuery) Validate(defaultK, maxK int) error {
	if q.Title == "" {
		return fmt.Errorf("title cannot be empty")
	}
	if defaultK <= 0 {
		defaultK = DefaultK
	}
	if q.K <= 0 {
		q.K = defaultK
	}
	if maxK > 0 && q.K > maxK {
		q.K = maxK
	}
	return nil
}
