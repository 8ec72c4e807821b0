package indexer

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hyperjump/osusume/internal/corpusid"
	"github.com/hyperjump/osusume/internal/extract"
	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/internal/storage"
	"go.uber.org/zap"
)

// ImportResult summarizes one catalog import.
type ImportResult struct {
	Version string `json:"version"`
	Source  string `json:"source"`
	Items   int    `json:"items"`
	Skipped int    `json:"skipped"`
	// Unchanged is true when an identical corpus was already stored and only re-activated.
	Unchanged bool `json:"unchanged"`
}

// Importer reads catalog files and stores them as versioned corpora.
type Importer struct {
	storage   storage.Storage
	extractor *extract.Extractor
	logger    *zap.Logger // optional
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithLogger sets a logger for import events.
func WithLogger(l *zap.Logger) ImporterOption {
	return func(imp *Importer) { imp.logger = l }
}

// NewImporter creates an importer. extractor may be nil to use the default columns.
func NewImporter(store storage.Storage, extractor *extract.Extractor, opts ...ImporterOption) *Importer {
	if extractor == nil {
		extractor = extract.NewExtractor(extract.Options{})
	}
	imp := &Importer{storage: store, extractor: extractor}
	for _, opt := range opts {
		opt(imp)
	}
	return imp
}

// ImportFile extracts the catalog at path, versions it by content and stores it as
// the active corpus. Importing unchanged content only re-activates the stored version.
func (imp *Importer) ImportFile(ctx context.Context, path string) (*ImportResult, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	res, err := imp.extractor.Extract(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", absPath, err)
	}
	return imp.ImportItems(ctx, absPath, res.Items, res.Skipped)
}

// ImportItems stores already extracted items under their content version.
func (imp *Importer) ImportItems(ctx context.Context, source string, items []models.Item, skipped int) (*ImportResult, error) {
	version := corpusid.Version(items)
	existing, err := imp.storage.ListCorpora(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list corpora: %w", err)
	}
	unchanged := false
	for _, info := range existing {
		if info.Version == version {
			unchanged = true
			break
		}
	}

	corpus := &models.Corpus{Version: version, Source: source, Items: items}
	if err := imp.storage.SaveCorpus(ctx, corpus); err != nil {
		return nil, fmt.Errorf("failed to store corpus: %w", err)
	}

	if imp.logger != nil {
		imp.logger.Info("Catalog imported",
			zap.String("source", source),
			zap.String("version", version),
			zap.Int("items", len(items)),
			zap.Int("skipped", skipped),
			zap.Bool("unchanged", unchanged))
	}
	return &ImportResult{
		Version:   version,
		Source:    source,
		Items:     len(items),
		Skipped:   skipped,
		Unchanged: unchanged,
	}, nil
}
