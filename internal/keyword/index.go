// Package keyword provides title search over a corpus for item selection and suggestions.
package keyword

import (
	"context"

	"github.com/hyperjump/osusume/internal/models"
)

// SearchOptions optional parameters for title search. Nil means exact term matching.
type SearchOptions struct {
	// FuzzyEnabled matches terms within Fuzziness edits for typo tolerance.
	FuzzyEnabled bool
	// Fuzziness is the maximum Levenshtein edit distance (1 or 2). Default 2 when fuzzy.
	Fuzziness int
}

// TitleIndex searches item titles. Hit indices are corpus positions.
type TitleIndex interface {
	Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*models.TitleMatch, error)
	// Suggest returns titles close to an unresolved title, closest first.
	Suggest(ctx context.Context, title string, limit int) ([]string, error)
	DocCount() (uint64, error)
	Close() error
}
