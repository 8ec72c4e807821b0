package e2e

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/osusume/internal/extract"
	"github.com/hyperjump/osusume/internal/indexer"
	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/internal/search"
	"github.com/hyperjump/osusume/internal/storage"
)

const (
	e2ePerGenre = 12
	e2eK        = 5
)

func TestE2E_RecommendationsStayInGenre(t *testing.T) {
	for _, format := range SupportedFormats {
		t.Run(format, func(t *testing.T) {
			dir := t.TempDir()
			catalog := BuildCatalog(e2ePerGenre)
			data, err := EncodeCatalog(catalog, format)
			if err != nil {
				t.Fatal(err)
			}
			path := filepath.Join(dir, "anime"+FileExtension(format))
			if err := os.WriteFile(path, data, 0644); err != nil {
				t.Fatal(err)
			}

			store, err := storage.NewSQLiteStorage(filepath.Join(dir, "db.sqlite"))
			if err != nil {
				t.Fatal(err)
			}
			defer store.Close()

			encoding := "utf-8"
			if format == "csv-latin1" {
				encoding = "latin1"
			}
			importer := indexer.NewImporter(store, extract.NewExtractor(extract.Options{Encoding: encoding}))
			ctx := context.Background()
			res, err := importer.ImportFile(ctx, path)
			if err != nil {
				t.Fatalf("import: %v", err)
			}
			if res.Items != len(catalog.Items) || res.Skipped != 0 {
				t.Fatalf("import result %+v", res)
			}

			engine := search.NewEngine(store, search.WithSnapshotDir(filepath.Join(dir, "matrices")))
			if err := engine.Reload(ctx); err != nil {
				t.Fatal(err)
			}

			for _, it := range catalog.Items {
				resp, err := engine.Recommend(ctx, &models.RecommendQuery{Title: it.Title, K: e2eK})
				if err != nil {
					t.Fatalf("recommend %q: %v", it.Title, err)
				}
				if len(resp.Results) != e2eK {
					t.Fatalf("recommend %q: %d results", it.Title, len(resp.Results))
				}
				for _, r := range resp.Results {
					if r.Title == it.Title {
						t.Errorf("%q recommended itself", it.Title)
					}
					if got := catalog.GenreOf(r.Title); got != it.Genre {
						t.Errorf("%q (%s) recommended %q (%s)", it.Title, it.Genre, r.Title, got)
					}
					if r.ImageReference == nil {
						t.Errorf("%q: missing image reference", r.Title)
					}
				}
				for i := 1; i < len(resp.Results); i++ {
					if resp.Results[i].Score > resp.Results[i-1].Score {
						t.Errorf("%q: results not sorted by score", it.Title)
					}
				}
			}
		})
	}
}

func TestE2E_ReimportSameContentReusesVersion(t *testing.T) {
	dir := t.TempDir()
	catalog := BuildCatalog(3)
	csvData, err := EncodeCatalog(catalog, "csv")
	if err != nil {
		t.Fatal(err)
	}
	xlsxData, err := EncodeCatalog(catalog, "xlsx")
	if err != nil {
		t.Fatal(err)
	}
	csvPath := filepath.Join(dir, "anime.csv")
	xlsxPath := filepath.Join(dir, "anime.xlsx")
	if err := os.WriteFile(csvPath, csvData, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(xlsxPath, xlsxData, 0644); err != nil {
		t.Fatal(err)
	}

	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "db.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	importer := indexer.NewImporter(store, nil)
	ctx := context.Background()

	a, err := importer.ImportFile(ctx, csvPath)
	if err != nil {
		t.Fatal(err)
	}
	b, err := importer.ImportFile(ctx, xlsxPath)
	if err != nil {
		t.Fatal(err)
	}
	if a.Version != b.Version || !b.Unchanged {
		t.Errorf("same content in another format should keep the version: %+v vs %+v", a, b)
	}
}
