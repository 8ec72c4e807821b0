// Package search serves recommendations from an atomically swapped corpus snapshot.
package search

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hyperjump/osusume/internal/corpusid"
	"github.com/hyperjump/osusume/internal/indexer"
	"github.com/hyperjump/osusume/internal/keyword"
	"github.com/hyperjump/osusume/internal/metrics"
	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/internal/ranking"
	"github.com/hyperjump/osusume/internal/storage"
	"github.com/hyperjump/osusume/internal/vector"
	"go.uber.org/zap"
)

// ErrNotReady is returned by queries issued before any corpus has been loaded.
var ErrNotReady = errors.New("no corpus loaded")

// DefaultSuggestions is how many "did you mean" titles accompany a not-found error.
const DefaultSuggestions = 5

// CorpusSource provides the corpus to serve on Reload. storage.Storage satisfies it.
type CorpusSource interface {
	LoadActiveCorpus(ctx context.Context) (*models.Corpus, error)
}

// Snapshot is everything a query needs, built together for one corpus version and
// never modified after it is published.
type Snapshot struct {
	Version string
	Corpus  *models.Corpus
	Model   *vector.Model
	Matrix  *vector.SimilarityMatrix
	Titles  keyword.TitleIndex
	BuiltAt time.Time
}

// Status describes the engine state.
type Status struct {
	Ready          bool      `json:"ready"`
	CorpusVersion  string    `json:"corpus_version,omitempty"`
	Source         string    `json:"source,omitempty"`
	ItemCount      int       `json:"item_count"`
	VocabularySize int       `json:"vocabulary_size"`
	CachedVersions []string  `json:"cached_versions"`
	BuiltAt        time.Time `json:"built_at,omitempty"`
}

// Engine answers recommend and title queries against the current snapshot.
type Engine struct {
	source      CorpusSource
	cache       *ModelCache
	current     atomic.Pointer[Snapshot]
	buildMu     sync.Mutex
	logger      *zap.Logger
	snapshotDir string
	minTokenLen int
	workers     int
	defaultK    int
	maxK        int
}

// EngineOption configures the engine.
type EngineOption func(*Engine)

// WithLogger sets the logger for the engine.
func WithLogger(logger *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

// WithSnapshotDir enables similarity matrix snapshots under dir.
func WithSnapshotDir(dir string) EngineOption {
	return func(e *Engine) { e.snapshotDir = dir }
}

// WithModelOptions sets the tokenizer minimum length and the similarity worker count.
func WithModelOptions(minTokenLength, workers int) EngineOption {
	return func(e *Engine) {
		e.minTokenLen = minTokenLength
		e.workers = workers
	}
}

// WithLimits sets the K used when a query omits it and the upper bound on K.
func WithLimits(defaultK, maxK int) EngineOption {
	return func(e *Engine) {
		e.defaultK = defaultK
		e.maxK = maxK
	}
}

// WithCacheCapacity sets how many corpus versions are kept built in memory.
func WithCacheCapacity(n int) EngineOption {
	return func(e *Engine) { e.cache = NewModelCache(n) }
}

// NewEngine creates an engine. source may be nil when corpora are only loaded with LoadCorpus.
func NewEngine(source CorpusSource, opts ...EngineOption) *Engine {
	e := &Engine{
		source:      source,
		minTokenLen: 1,
		defaultK:    models.DefaultK,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cache == nil {
		e.cache = NewModelCache(4)
	}
	return e
}

// Snapshot returns the currently published snapshot, or nil before the first load.
func (e *Engine) Snapshot() *Snapshot {
	return e.current.Load()
}

// Reload loads the active corpus from the source and publishes it.
// On failure the previous snapshot stays active.
func (e *Engine) Reload(ctx context.Context) error {
	if e.source == nil {
		return fmt.Errorf("engine has no corpus source")
	}
	corpus, err := e.source.LoadActiveCorpus(ctx)
	if err != nil {
		return fmt.Errorf("failed to load active corpus: %w", err)
	}
	return e.LoadCorpus(ctx, corpus)
}

// LoadCorpus builds (or reuses from cache) the snapshot for corpus and publishes it.
// A corpus without a version is versioned from its content.
func (e *Engine) LoadCorpus(ctx context.Context, corpus *models.Corpus) error {
	if corpus == nil {
		return fmt.Errorf("corpus is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	e.buildMu.Lock()
	defer e.buildMu.Unlock()

	version := corpus.Version
	if version == "" {
		version = corpusid.Version(corpus.Items)
	}

	snap, hit := e.cache.Get(version)
	metrics.RecordCacheLookup(hit)
	if !hit {
		start := time.Now()
		var err error
		snap, err = e.build(version, corpus)
		metrics.RecordRebuild(err, time.Since(start))
		if err != nil {
			if e.logger != nil {
				e.logger.Error("Corpus build failed, keeping previous snapshot",
					zap.String("version", version), zap.Error(err))
			}
			return err
		}
		e.cache.Set(version, snap)
		if e.logger != nil {
			e.logger.Info("Corpus built",
				zap.String("version", version),
				zap.Int("items", len(snap.Corpus.Items)),
				zap.Int("vocabulary", snap.Model.VocabularySize()),
				zap.Duration("took", time.Since(start)))
		}
	} else if e.logger != nil {
		e.logger.Debug("Corpus served from cache", zap.String("version", version))
	}

	e.current.Store(snap)
	metrics.SetActiveCorpus(len(snap.Corpus.Items), snap.Model.VocabularySize())
	return nil
}

// build runs the whole pipeline for one corpus without touching the published snapshot.
func (e *Engine) build(version string, corpus *models.Corpus) (*Snapshot, error) {
	items := make([]models.Item, len(corpus.Items))
	docs := make([]string, len(corpus.Items))
	for i, it := range corpus.Items {
		it.NormalizedDescription = indexer.NormalizeNullable(it.Description)
		items[i] = it
		docs[i] = it.NormalizedDescription
	}
	owned := &models.Corpus{Version: version, Source: corpus.Source, Items: items}

	model := vector.BuildModel(docs, vector.WithMinTokenLength(e.minTokenLen))
	matrix := e.loadOrBuildMatrix(version, model)

	titles, err := keyword.NewBleveIndex(owned.Titles())
	if err != nil {
		return nil, fmt.Errorf("failed to build title index: %w", err)
	}
	return &Snapshot{
		Version: version,
		Corpus:  owned,
		Model:   model,
		Matrix:  matrix,
		Titles:  titles,
		BuiltAt: time.Now(),
	}, nil
}

func (e *Engine) loadOrBuildMatrix(version string, model *vector.Model) *vector.SimilarityMatrix {
	path := storage.SnapshotPath(e.snapshotDir, version)
	if path != "" {
		m, err := vector.LoadMatrix(path, model.Size(), model.Fingerprint())
		switch {
		case err == nil:
			metrics.RecordSnapshotLoad("hit")
			if e.logger != nil {
				e.logger.Debug("Loaded similarity matrix snapshot", zap.String("path", path))
			}
			return m
		case errors.Is(err, os.ErrNotExist):
			metrics.RecordSnapshotLoad("miss")
		default:
			metrics.RecordSnapshotLoad("invalid")
			if e.logger != nil {
				e.logger.Warn("Ignoring unusable similarity matrix snapshot",
					zap.String("path", path), zap.Error(err))
			}
		}
	}

	m := vector.BuildSimilarityMatrix(model, e.workers)
	if path != "" {
		if err := vector.SaveMatrix(path, m, model.Fingerprint()); err != nil && e.logger != nil {
			e.logger.Warn("Failed to save similarity matrix snapshot",
				zap.String("path", path), zap.Error(err))
		}
	}
	return m
}

// Recommend returns the items most similar to query.Title in the current snapshot.
// An unknown title yields a *ranking.NotFoundError carrying close titles as suggestions.
func (e *Engine) Recommend(ctx context.Context, query *models.RecommendQuery) (*models.RecommendResponse, error) {
	startTime := time.Now()
	if err := query.Validate(e.defaultK, e.maxK); err != nil {
		return nil, err
	}
	snap := e.current.Load()
	if snap == nil {
		metrics.RecordRecommendation(metrics.OutcomeError, time.Since(startTime))
		return nil, ErrNotReady
	}

	results, err := ranking.Recommend(query.Title, snap.Corpus.Items, snap.Matrix, query.K)
	if err != nil {
		var nf *ranking.NotFoundError
		if errors.As(err, &nf) {
			metrics.RecordRecommendation(metrics.OutcomeNotFound, time.Since(startTime))
			suggestions, serr := snap.Titles.Suggest(ctx, query.Title, DefaultSuggestions)
			if serr != nil && e.logger != nil {
				e.logger.Warn("Title suggestion failed", zap.Error(serr))
			}
			nf.Suggestions = suggestions
			return nil, nf
		}
		metrics.RecordRecommendation(metrics.OutcomeError, time.Since(startTime))
		return nil, err
	}

	metrics.RecordRecommendation(metrics.OutcomeOK, time.Since(startTime))
	return &models.RecommendResponse{
		Query:         query.Title,
		K:             query.K,
		CorpusVersion: snap.Version,
		Results:       results,
		Total:         len(results),
		QueryTime:     time.Since(startTime).Milliseconds(),
	}, nil
}

// Titles lists corpus titles in order when q is empty, otherwise searches them
// (typo tolerant). limit <= 0 lists every title.
func (e *Engine) Titles(ctx context.Context, q string, limit int) ([]*models.TitleMatch, error) {
	snap := e.current.Load()
	if snap == nil {
		return nil, ErrNotReady
	}
	if q == "" {
		n := len(snap.Corpus.Items)
		if limit > 0 && limit < n {
			n = limit
		}
		out := make([]*models.TitleMatch, n)
		for i := 0; i < n; i++ {
			out[i] = &models.TitleMatch{Title: snap.Corpus.Items[i].Title, Index: i}
		}
		return out, nil
	}
	if limit <= 0 {
		limit = len(snap.Corpus.Items)
	}
	return snap.Titles.Search(ctx, q, limit, &keyword.SearchOptions{FuzzyEnabled: true, Fuzziness: 1})
}

// Status reports what the engine is serving.
func (e *Engine) Status() *Status {
	st := &Status{CachedVersions: e.cache.Versions()}
	snap := e.current.Load()
	if snap == nil {
		return st
	}
	st.Ready = true
	st.CorpusVersion = snap.Version
	st.Source = snap.Corpus.Source
	st.ItemCount = len(snap.Corpus.Items)
	st.VocabularySize = snap.Model.VocabularySize()
	st.BuiltAt = snap.BuiltAt
	return st
}
