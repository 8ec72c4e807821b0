// Package storage provides SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/osusume/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS corpora (
		version TEXT PRIMARY KEY,
		source TEXT,
		item_count INTEGER NOT NULL,
		activated_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_corpora_activated_at ON corpora(activated_at);

	CREATE TABLE IF NOT EXISTS items (
		version TEXT NOT NULL,
		position INTEGER NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		image_reference TEXT,
		PRIMARY KEY (version, position),
		FOREIGN KEY (version) REFERENCES corpora(version) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_items_version_title ON items(version, title);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveCorpus inserts the corpus and its items in one transaction and activates it.
func (s *SQLiteStorage) SaveCorpus(ctx context.Context, corpus *models.Corpus) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM corpora WHERE version = ?`, corpus.Version).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to look up corpus: %w", err)
	}
	if exists > 0 {
		if _, err := tx.ExecContext(ctx,
			`UPDATE corpora SET activated_at = ?, source = ? WHERE version = ?`,
			now, corpus.Source, corpus.Version,
		); err != nil {
			return fmt.Errorf("failed to activate corpus: %w", err)
		}
		return tx.Commit()
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO corpora (version, source, item_count, activated_at, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		corpus.Version, corpus.Source, len(corpus.Items), now, now,
	); err != nil {
		return fmt.Errorf("failed to insert corpus: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO items (version, position, title, description, image_reference)
		 VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, item := range corpus.Items {
		if _, err := stmt.ExecContext(ctx,
			corpus.Version, i, item.Title, nullString(item.Description), nullString(item.ImageReference),
		); err != nil {
			return fmt.Errorf("failed to insert item %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// LoadCorpus returns the items of version ordered by position.
func (s *SQLiteStorage) LoadCorpus(ctx context.Context, version string) (*models.Corpus, error) {
	var source sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT source FROM corpora WHERE version = ?`, version,
	).Scan(&source)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNoCorpus, version)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT title, description, image_reference
		 FROM items WHERE version = ? ORDER BY position`,
		version,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	corpus := &models.Corpus{Version: version, Source: source.String, Items: []models.Item{}}
	for rows.Next() {
		var (
			item        models.Item
			description sql.NullString
			image       sql.NullString
		)
		if err := rows.Scan(&item.Title, &description, &image); err != nil {
			return nil, err
		}
		item.Description = stringPtr(description)
		item.ImageReference = stringPtr(image)
		corpus.Items = append(corpus.Items, item)
	}
	return corpus, rows.Err()
}

// LoadActiveCorpus returns the corpus with the latest activation time.
func (s *SQLiteStorage) LoadActiveCorpus(ctx context.Context) (*models.Corpus, error) {
	var version string
	err := s.db.QueryRowContext(ctx,
		`SELECT version FROM corpora ORDER BY activated_at DESC, created_at DESC LIMIT 1`,
	).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoCorpus
	}
	if err != nil {
		return nil, err
	}
	return s.LoadCorpus(ctx, version)
}

// ListCorpora returns all stored versions, most recently activated first.
func (s *SQLiteStorage) ListCorpora(ctx context.Context) ([]*models.CorpusInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT version, source, item_count, created_at
		 FROM corpora ORDER BY activated_at DESC, created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.CorpusInfo
	for rows.Next() {
		var (
			info   models.CorpusInfo
			source sql.NullString
		)
		if err := rows.Scan(&info.Version, &source, &info.ItemCount, &info.CreatedAt); err != nil {
			return nil, err
		}
		info.Source = source.String
		info.Active = len(out) == 0
		out = append(out, &info)
	}
	return out, rows.Err()
}

// DeleteCorpus removes a version and its items.
func (s *SQLiteStorage) DeleteCorpus(ctx context.Context, version string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE version = ?`, version); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM corpora WHERE version = ?`, version); err != nil {
		return err
	}
	return tx.Commit()
}

// CountCorpora returns the number of stored versions.
func (s *SQLiteStorage) CountCorpora(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM corpora`).Scan(&count)
	return count, err
}

// CountItems returns the number of items stored for version.
func (s *SQLiteStorage) CountItems(ctx context.Context, version string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE version = ?`, version).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
