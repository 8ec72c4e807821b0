// Package models defines core data structures for catalog items, queries, and recommendations.
package models

// Item is one catalog entry. Description and ImageReference are nil when the
// source row had no value. NormalizedDescription is derived when the corpus is built.
type Item struct {
	Title                 string  `json:"title"`
	Description           *string `json:"description,omitempty"`
	ImageReference        *string `json:"image_reference,omitempty"`
	NormalizedDescription string  `json:"-"`
}

// Recommendation is a single ranked hit for a recommend query.
type Recommendation struct {
	Rank           int     `json:"rank"`
	Index          int     `json:"-"`
	Title          string  `json:"title"`
	Description    *string `json:"description,omitempty"`
	ImageReference *string `json:"image_reference,omitempty"`
	Score          float64 `json:"score"`
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
