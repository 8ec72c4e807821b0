// Package storage defines persistence for imported catalog corpora.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/osusume/internal/models"
)

// ErrNoCorpus is returned when no corpus (or the requested version) is stored.
var ErrNoCorpus = errors.New("corpus not found")

// Storage persists corpus versions and their ordered items.
type Storage interface {
	// SaveCorpus stores corpus (a no-op for items when the version already exists)
	// and marks it as the active version.
	SaveCorpus(ctx context.Context, corpus *models.Corpus) error
	// LoadCorpus returns the items of a version in corpus order.
	LoadCorpus(ctx context.Context, version string) (*models.Corpus, error)
	// LoadActiveCorpus returns the most recently activated corpus.
	LoadActiveCorpus(ctx context.Context) (*models.Corpus, error)
	ListCorpora(ctx context.Context) ([]*models.CorpusInfo, error)
	DeleteCorpus(ctx context.Context, version string) error

	CountCorpora(ctx context.Context) (int64, error)
	CountItems(ctx context.Context, version string) (int64, error)

	Close() error
}
