package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/internal/ranking"
	"github.com/hyperjump/osusume/internal/search"
	"github.com/hyperjump/osusume/internal/storage"
)

func TestArgsReorder(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after title are moved first",
			args:     []string{"Cowboy", "Bebop", "-k", "3"},
			expected: []string{"-k", "3", "Cowboy", "Bebop"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-k", "3", "Cowboy Bebop"},
			expected: []string{"-k", "3", "Cowboy Bebop"},
		},
		{
			name:     "title only returns unchanged",
			args:     []string{"Cowboy Bebop"},
			expected: []string{"Cowboy Bebop"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := argsReorder(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("argsReorder() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestJoinArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single word", []string{"Mushishi"}, "Mushishi"},
		{"multiple words", []string{"Cowboy", "Bebop"}, "Cowboy Bebop"},
		{"quoted phrase", []string{"Cowboy Bebop"}, "Cowboy Bebop"},
		{"empty args", []string{}, ""},
		{"blank args", []string{"  ", "  "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := joinArgs(tt.args); got != tt.expected {
				t.Errorf("joinArgs(%v) = %q, want %q", tt.args, got, tt.expected)
			}
		})
	}
}

func TestConfigPathFromArgs(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		defaultPath string
		want        string
	}{
		{"no config flag", []string{"-k", "5", "title"}, "/default.yaml", "/default.yaml"},
		{"-config present", []string{"-config", "/custom.yaml", "title"}, "/default.yaml", "/custom.yaml"},
		{"--config present", []string{"--config", "/other.yaml"}, "/default.yaml", "/other.yaml"},
		{"config at end", []string{"title", "-config", "/end.yaml"}, "/default.yaml", "/end.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := configPathFromArgs(tt.args, tt.defaultPath); got != tt.want {
				t.Errorf("configPathFromArgs() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDefaultKFromConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("recommend:\n  default_k: 8\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if got := defaultKFromConfig(configPath); got != 8 {
		t.Errorf("defaultKFromConfig() = %d, want 8", got)
	}
	if got := defaultKFromConfig(filepath.Join(dir, "missing.yaml")); got != models.DefaultK {
		t.Errorf("defaultKFromConfig(missing) = %d, want %d", got, models.DefaultK)
	}
}

func TestRecommendURL(t *testing.T) {
	got := recommendURL("http://localhost:8080/", &models.RecommendQuery{Title: "Cowboy Bebop: The Movie", K: 3})
	u, err := url.Parse(got)
	if err != nil {
		t.Fatal(err)
	}
	if u.Path != "/api/v1/recommend" {
		t.Errorf("path = %q", u.Path)
	}
	if u.Query().Get("title") != "Cowboy Bebop: The Movie" || u.Query().Get("k") != "3" {
		t.Errorf("query = %v", u.Query())
	}
	if strings.Contains(recommendURL("http://x", &models.RecommendQuery{Title: "A"}), "k=") {
		t.Error("k should be omitted when zero")
	}
}

func httpResponse(status int, body string) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(bytes.NewBufferString(body))}
}

func TestDecodeRecommendResponse(t *testing.T) {
	resp, err := decodeRecommendResponse(httpResponse(http.StatusOK,
		`{"query":"A","k":1,"results":[{"rank":1,"title":"B","score":0.5}],"total":1}`))
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total != 1 || resp.Results[0].Title != "B" {
		t.Errorf("unexpected response: %+v", resp)
	}

	_, err = decodeRecommendResponse(httpResponse(http.StatusNotFound,
		`{"error":"title not found","title":"Z","suggestions":["A"]}`))
	var nf *ranking.NotFoundError
	if !errors.As(err, &nf) || nf.Title != "Z" || len(nf.Suggestions) != 1 {
		t.Errorf("expected NotFoundError with suggestion, got %v", err)
	}
	if !errors.Is(err, ranking.ErrNotFound) {
		t.Error("errors.Is(err, ErrNotFound) should hold")
	}

	if _, err := decodeRecommendResponse(httpResponse(http.StatusServiceUnavailable, `{"error":"no corpus loaded"}`)); err == nil {
		t.Error("expected error for 503")
	}
}

func TestWriteStatusText(t *testing.T) {
	var buf bytes.Buffer
	size := int64(2048)
	writeStatusText(&buf, &statusResponse{
		Engine:         &search.Status{Ready: true, CorpusVersion: "v1", ItemCount: 3, VocabularySize: 10},
		StoredCorpora:  1,
		DiskUsageBytes: &size,
		Config:         map[string]interface{}{"catalog_path": "/data/anime.csv"},
	})
	out := buf.String()
	for _, want := range []string{"corpus_version:     v1", "items:              3", "stored_corpora:     1", "2048", "/data/anime.csv"} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q:\n%s", want, out)
		}
	}
	buf.Reset()
	writeStatusText(&buf, &statusResponse{})
	if !strings.Contains(buf.String(), "none loaded") {
		t.Errorf("empty status output: %s", buf.String())
	}
}

func writeTestConfig(t *testing.T, catalog string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "anime.csv"), []byte(catalog), 0644); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(dir, "config.yaml")
	content := `
storage:
  database_path: "./data/catalog.db"
  matrix_cache_dir: "./data/matrices"
catalog:
  path: "./anime.csv"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return configPath
}

func TestDirectComponents_importsCatalogWhenStorageEmpty(t *testing.T) {
	configPath := writeTestConfig(t, "title,summary,image_path\nA,space pirates,a.jpg\nB,space pirates ship,b.jpg\nC,cooking,\n")
	components, cleanup, err := directComponents(configPath)
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		t.Fatal(err)
	}
	resp, err := components.Engine.Recommend(context.Background(), &models.RecommendQuery{Title: "A", K: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 2 || resp.Results[0].Title != "B" {
		t.Errorf("unexpected results: %+v", resp.Results)
	}
}

func TestPruneCorpora(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "db.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	for _, v := range []string{"old", "new"} {
		if err := store.SaveCorpus(ctx, &models.Corpus{Version: v, Items: []models.Item{{Title: v}}}); err != nil {
			t.Fatal(err)
		}
	}
	snapDir := filepath.Join(dir, "matrices")
	if err := os.MkdirAll(snapDir, 0755); err != nil {
		t.Fatal(err)
	}
	for _, v := range []string{"old", "new"} {
		if err := os.WriteFile(storage.SnapshotPath(snapDir, v), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := pruneCorpora(ctx, store, snapDir, "new")
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if n, _ := store.CountCorpora(ctx); n != 1 {
		t.Errorf("CountCorpora = %d, want 1", n)
	}
	if _, err := os.Stat(storage.SnapshotPath(snapDir, "old")); !os.IsNotExist(err) {
		t.Error("old snapshot should be removed")
	}
	if _, err := os.Stat(storage.SnapshotPath(snapDir, "new")); err != nil {
		t.Error("kept snapshot should remain")
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("debug: true\n"), 0600); err != nil {
		t.Fatal(err)
	}
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	// On macOS, cwd can be /private/var/... while t.TempDir() is /var/...; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if !cfg.Debug {
		t.Error("debug should be true from cwd config.yaml")
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("server:\n  host: \"127.0.0.1\"\n  port: 9000\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
}
