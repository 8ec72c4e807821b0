// Package ranking ranks catalog items by description similarity to a query item.
package ranking

import (
	"fmt"
	"sort"

	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/internal/vector"
)

// FindIndex returns the position of the first item whose title equals title exactly.
func FindIndex(title string, items []models.Item) (int, error) {
	for i := range items {
		if items[i].Title == title {
			return i, nil
		}
	}
	return -1, &NotFoundError{Title: title}
}

// Recommend returns up to k items most similar to the item titled title, best first.
// Only the query's own position is excluded, so duplicates of the query still rank.
// Ties are broken by ascending corpus position. k <= 0 yields an empty list.
func Recommend(title string, items []models.Item, sim *vector.SimilarityMatrix, k int) ([]*models.Recommendation, error) {
	if sim == nil || sim.Size() != len(items) {
		size := 0
		if sim != nil {
			size = sim.Size()
		}
		return nil, fmt.Errorf("similarity matrix has %d rows for %d items", size, len(items))
	}
	query, err := FindIndex(title, items)
	if err != nil {
		return nil, err
	}
	if k <= 0 {
		return []*models.Recommendation{}, nil
	}

	row := sim.Row(query)
	candidates := make([]int, 0, len(items)-1)
	for i := range items {
		if i != query {
			candidates = append(candidates, i)
		}
	}
	sort.Slice(candidates, func(a, b int) bool {
		ia, ib := candidates[a], candidates[b]
		if row[ia] != row[ib] {
			return row[ia] > row[ib]
		}
		return ia < ib
	})
	if k > len(candidates) {
		k = len(candidates)
	}

	out := make([]*models.Recommendation, k)
	for r, idx := range candidates[:k] {
		item := items[idx]
		out[r] = &models.Recommendation{
			Rank:           r + 1,
			Index:          idx,
			Title:          item.Title,
			Description:    item.Description,
			ImageReference: item.ImageReference,
			Score:          row[idx],
		}
	}
	return out, nil
}
