package keyword

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/hyperjump/osusume/internal/models"
)

const titleField = "title"

type titleDoc struct {
	Title string `json:"title"`
}

// BleveIndex implements TitleIndex with an in-memory Bleve index. It is built once per
// corpus and never updated, matching the corpus lifecycle.
type BleveIndex struct {
	index  bleve.Index
	titles []string
}

// NewBleveIndex indexes titles in memory; document IDs are corpus positions.
func NewBleveIndex(titles []string) (*BleveIndex, error) {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer: lowercase + tokenize, no stemming, so "bebop" matches exactly.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt(titleField, textFieldMapping)
	im.AddDocumentMapping("title", docMapping)
	im.DefaultType = "title"
	im.DefaultMapping = docMapping

	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	batch := index.NewBatch()
	for i, title := range titles {
		if err := batch.Index(strconv.Itoa(i), titleDoc{Title: title}); err != nil {
			_ = index.Close()
			return nil, fmt.Errorf("failed to index title %d: %w", i, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("failed to index titles: %w", err)
	}
	return &BleveIndex{index: index, titles: append([]string(nil), titles...)}, nil
}

// Search matches query terms against titles. The last query term also matches as a
// prefix so partially typed titles find results.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*models.TitleMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 {
		return nil, nil
	}
	q := b.buildQuery(query, opts)
	req := bleve.NewSearchRequest(q)
	req.Size = limit
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]*models.TitleMatch, 0, len(results.Hits))
	for _, hit := range results.Hits {
		idx, err := strconv.Atoi(hit.ID)
		if err != nil || idx < 0 || idx >= len(b.titles) {
			continue
		}
		out = append(out, &models.TitleMatch{Title: b.titles[idx], Index: idx, Score: hit.Score})
	}
	return out, nil
}

func (b *BleveIndex) buildQuery(query string, opts *SearchOptions) blevequery.Query {
	match := bleve.NewMatchQuery(query)
	match.SetField(titleField)
	if opts != nil && opts.FuzzyEnabled {
		fuzziness := opts.Fuzziness
		if fuzziness <= 0 {
			fuzziness = 2
		}
		match.SetFuzziness(fuzziness)
	}
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return match
	}
	prefix := bleve.NewPrefixQuery(terms[len(terms)-1])
	prefix.SetField(titleField)
	return bleve.NewDisjunctionQuery(match, prefix)
}

// Suggest runs a fuzzy title search and orders the hits by edit distance to title,
// then by corpus position.
func (b *BleveIndex) Suggest(ctx context.Context, title string, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}
	hits, err := b.Search(ctx, title, limit*4, &SearchOptions{FuzzyEnabled: true})
	if err != nil {
		return nil, err
	}
	want := strings.ToLower(title)
	type candidate struct {
		title string
		index int
		dist  int
	}
	seen := make(map[string]bool)
	candidates := make([]candidate, 0, len(hits))
	for _, h := range hits {
		if seen[h.Title] {
			continue
		}
		seen[h.Title] = true
		candidates = append(candidates, candidate{
			title: h.Title,
			index: h.Index,
			dist:  LevenshteinDistance(want, strings.ToLower(h.Title)),
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		return candidates[i].index < candidates[j].index
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.title
	}
	return out, nil
}

// DocCount returns the number of indexed titles.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close releases the index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
