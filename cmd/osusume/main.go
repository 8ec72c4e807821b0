// Package main is the Osusume CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/osusume/internal/cli"
	"github.com/hyperjump/osusume/internal/config"
	"github.com/hyperjump/osusume/internal/extract"
	"github.com/hyperjump/osusume/internal/indexer"
	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/internal/ranking"
	"github.com/hyperjump/osusume/internal/search"
	"github.com/hyperjump/osusume/internal/server"
	"github.com/hyperjump/osusume/internal/storage"
	"github.com/hyperjump/osusume/internal/watcher"
	"github.com/hyperjump/osusume/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/osusume/config.yaml"
	defaultServerURL  = "http://localhost:8080"
)

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "recommend":
		runRecommend()
	case "titles":
		runTitles()
	case "import":
		runImport()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("osusume version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	if _, err := components.ReloadCatalog(ctx); err != nil {
		// The server still starts; /api/v1/reload can publish a corpus later.
		logger.Warn("Initial catalog load failed", zap.Error(err))
	}

	watchCtx, watchCancel := context.WithCancel(ctx)
	defer watchCancel()
	if cfg.Catalog.Watch && cfg.Catalog.Path != "" {
		w := watcher.NewWatcher(cfg.Catalog.Path, func(path string) {
			if _, err := components.ReloadCatalog(watchCtx); err != nil {
				logger.Warn("catalog reload failed", zap.String("path", path), zap.Error(err))
			}
		}, watcher.WithLogger(utils.Named(logger, "watcher")))
		if err := w.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		logger.Info("watching catalog", zap.String("path", w.Path()))
	}

	srv := server.NewServer(components.Engine, components.Storage, components.ReloadCatalog, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(shutdownCtx)
}

// printRecommendUsage prints recommend subcommand usage.
func printRecommendUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: osusume recommend [flags] <title>\n\n")
	fmt.Fprintf(fs.Output(), "Title is all remaining arguments joined by spaces and must match a catalog title exactly.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  osusume recommend Cowboy Bebop
  osusume recommend -k 10 "Neon Genesis Evangelion"
  osusume recommend --server "" --output json Mushishi   # direct mode, no server
`)
}

// joinArgs joins positional args with spaces so multi-word titles work the same
// with or without shell quoting.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// configPathFromArgs returns the value of -config/--config from args if present, else defaultPath.
func configPathFromArgs(args []string, defaultPath string) string {
	for i, a := range args {
		if (a == "-config" || a == "--config") && i+1 < len(args) {
			return args[i+1]
		}
	}
	return defaultPath
}

// defaultKFromConfig returns recommend.default_k from the config at path, or models.DefaultK
// when the config cannot be loaded.
func defaultKFromConfig(path string) int {
	cfg, _, err := loadConfig(path)
	if err != nil || cfg == nil {
		return models.DefaultK
	}
	return cfg.Recommend.DefaultK
}

// argsReorder moves any flags (and their values) that appear after the positional
// arguments to the front so that flag.Parse() sees them; the flag package stops at
// the first non-flag argument.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runRecommend() {
	recArgs := argsReorder(os.Args[2:])
	configPath := configPathFromArgs(recArgs, defaultConfigPath)

	fs := flag.NewFlagSet("recommend", flag.ExitOnError)
	configPathFlag := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = build the model locally from storage)")
	k := fs.Int("k", defaultKFromConfig(configPath), "number of recommendations")
	outputFormat := fs.String("output", "text", "output format: text, compact (one per line), or json")
	fs.Usage = func() { printRecommendUsage(fs) }
	_ = fs.Parse(recArgs)

	title := joinArgs(fs.Args())
	if title == "" {
		printRecommendUsage(fs)
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	query := &models.RecommendQuery{Title: title, K: *k}

	var response *models.RecommendResponse
	if *serverURL != "" {
		response, err = recommendViaHTTP(*serverURL, query)
	} else {
		response, err = recommendDirect(*configPathFlag, query)
	}
	if err != nil {
		var nf *ranking.NotFoundError
		if errors.As(err, &nf) {
			cli.WriteNotFound(os.Stderr, nf.Title, nf.Suggestions)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Recommend failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteRecommendations(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func recommendDirect(configPath string, query *models.RecommendQuery) (*models.RecommendResponse, error) {
	components, cleanup, err := directComponents(configPath)
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		return nil, err
	}
	return components.Engine.Recommend(context.Background(), query)
}

// recommendURL builds the GET URL for a recommend query.
func recommendURL(serverURL string, query *models.RecommendQuery) string {
	v := url.Values{}
	v.Set("title", query.Title)
	if query.K > 0 {
		v.Set("k", strconv.Itoa(query.K))
	}
	return strings.TrimRight(serverURL, "/") + "/api/v1/recommend?" + v.Encode()
}

func recommendViaHTTP(serverURL string, query *models.RecommendQuery) (*models.RecommendResponse, error) {
	resp, err := http.Get(recommendURL(serverURL, query))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	return decodeRecommendResponse(resp)
}

// decodeRecommendResponse maps a 404 body back to *ranking.NotFoundError.
func decodeRecommendResponse(resp *http.Response) (*models.RecommendResponse, error) {
	if resp.StatusCode == http.StatusNotFound {
		var body struct {
			Title       string   `json:"title"`
			Suggestions []string `json:"suggestions"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		return nil, &ranking.NotFoundError{Title: body.Title, Suggestions: body.Suggestions}
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var response models.RecommendResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runTitles() {
	titleArgs := argsReorder(os.Args[2:])
	fs := flag.NewFlagSet("titles", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = read storage directly)")
	limit := fs.Int("limit", 0, "maximum number of titles (0 = all)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(titleArgs)

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	q := joinArgs(fs.Args())

	var titles []*models.TitleMatch
	if *serverURL != "" {
		titles, err = titlesViaHTTP(*serverURL, q, *limit)
	} else {
		var (
			components *Components
			cleanup    func()
		)
		components, cleanup, err = directComponents(*configPath)
		if cleanup != nil {
			defer cleanup()
		}
		if err == nil {
			titles, err = components.Engine.Titles(context.Background(), q, *limit)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Titles failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteTitles(os.Stdout, titles, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func titlesViaHTTP(serverURL, q string, limit int) ([]*models.TitleMatch, error) {
	v := url.Values{}
	if q != "" {
		v.Set("q", q)
	}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
	target := strings.TrimRight(serverURL, "/") + "/api/v1/titles"
	if len(v) > 0 {
		target += "?" + v.Encode()
	}
	resp, err := http.Get(target)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var out struct {
		Titles []*models.TitleMatch `json:"titles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out.Titles, nil
}

func runImport() {
	importArgs := argsReorder(os.Args[2:])
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	prune := fs.Bool("prune", false, "delete stored corpora and matrix snapshots other than the imported one")
	_ = fs.Parse(importArgs)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	path := cfg.Catalog.Path
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	if path == "" {
		fmt.Println("Usage: osusume import [flags] <catalog-file>  (or set catalog.path in the config)")
		os.Exit(1)
	}

	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	result, err := components.Importer.ImportFile(ctx, path)
	if err != nil {
		fmt.Printf("Import failed: %v\n", err)
		os.Exit(1)
	}
	// Building once here writes the matrix snapshot so the server starts warm.
	if err := components.Engine.Reload(ctx); err != nil {
		fmt.Printf("Model build failed: %v\n", err)
		os.Exit(1)
	}
	state := "imported"
	if result.Unchanged {
		state = "unchanged (re-activated)"
	}
	fmt.Printf("Catalog %s: %s\n", state, result.Source)
	fmt.Printf("version: %s\nitems:   %d\nskipped: %d\n", result.Version, result.Items, result.Skipped)

	if *prune {
		removed, err := pruneCorpora(ctx, components.Storage, cfg.Storage.MatrixCacheDir, result.Version)
		if err != nil {
			fmt.Printf("Prune failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("pruned:  %d corpora\n", removed)
	}
}

// pruneCorpora deletes every stored corpus except keep and removes snapshots of deleted versions.
func pruneCorpora(ctx context.Context, store storage.Storage, snapshotDir, keep string) (int, error) {
	corpora, err := store.ListCorpora(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, c := range corpora {
		if c.Version == keep {
			continue
		}
		if err := store.DeleteCorpus(ctx, c.Version); err != nil {
			return removed, fmt.Errorf("delete corpus %s: %w", c.Version, err)
		}
		removed++
	}
	if _, err := storage.PruneSnapshots(snapshotDir, []string{keep}); err != nil {
		return removed, fmt.Errorf("prune snapshots: %w", err)
	}
	return removed, nil
}

// statusResponse is the shape of GET /api/v1/status response.
type statusResponse struct {
	Engine         *search.Status         `json:"engine"`
	StoredCorpora  int64                  `json:"stored_corpora"`
	DiskUsageBytes *int64                 `json:"disk_usage_bytes,omitempty"`
	Config         map[string]interface{} `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = read storage directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status statusResponse
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *res
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		components, cleanup, err := directComponents(*configPath)
		if cleanup != nil {
			defer cleanup()
		}
		if err != nil && !errors.Is(err, storage.ErrNoCorpus) {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		if components != nil {
			n, err := components.Storage.CountCorpora(context.Background())
			if err != nil {
				fmt.Fprintf(os.Stderr, "Count corpora failed: %v\n", err)
				os.Exit(1)
			}
			status.StoredCorpora = n
			status.Engine = components.Engine.Status()
		}
		if diskBytes, err := storage.DiskUsageBytes(cfg.Storage.DatabasePath, cfg.Storage.MatrixCacheDir); err == nil {
			status.DiskUsageBytes = &diskBytes
		}
		status.Config = map[string]interface{}{
			"catalog_path":     cfg.Catalog.Path,
			"database_path":    cfg.Storage.DatabasePath,
			"matrix_cache_dir": cfg.Storage.MatrixCacheDir,
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		writeStatusText(os.Stdout, &status)
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func writeStatusText(w io.Writer, status *statusResponse) {
	if status.Engine != nil && status.Engine.Ready {
		fmt.Fprintf(w, "corpus_version:     %s\n", status.Engine.CorpusVersion)
		fmt.Fprintf(w, "items:              %d\n", status.Engine.ItemCount)
		fmt.Fprintf(w, "vocabulary_size:    %d\n", status.Engine.VocabularySize)
		fmt.Fprintf(w, "source:             %s\n", status.Engine.Source)
	} else {
		fmt.Fprintln(w, "corpus:             none loaded")
	}
	fmt.Fprintf(w, "stored_corpora:     %d\n", status.StoredCorpora)
	if status.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage_bytes:   %d   # database + matrix snapshots\n", *status.DiskUsageBytes)
	}
	if len(status.Config) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "# configuration")
		for _, key := range []string{"catalog_path", "database_path", "matrix_cache_dir"} {
			if v, ok := status.Config[key]; ok && v != "" {
				fmt.Fprintf(w, "%-19s %v\n", key+":", v)
			}
		}
	}
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(strings.TrimRight(serverURL, "/") + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

// Components holds the wired application services.
type Components struct {
	Storage     storage.Storage
	Importer    *indexer.Importer
	Engine      *search.Engine
	catalogPath string
}

// Close releases storage.
func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

// ReloadCatalog imports the configured catalog file (when set) and publishes the active corpus.
func (c *Components) ReloadCatalog(ctx context.Context) (*indexer.ImportResult, error) {
	var result *indexer.ImportResult
	if c.catalogPath != "" {
		res, err := c.Importer.ImportFile(ctx, c.catalogPath)
		if err != nil {
			return nil, err
		}
		result = res
	}
	if err := c.Engine.Reload(ctx); err != nil {
		return result, err
	}
	return result, nil
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	extractor := extract.NewExtractor(extract.Options{
		TitleColumn:       cfg.Catalog.TitleColumn,
		DescriptionColumn: cfg.Catalog.DescriptionColumn,
		ImageColumn:       cfg.Catalog.ImageColumn,
		Encoding:          cfg.Catalog.Encoding,
		Format:            cfg.Catalog.Format,
		Sheet:             cfg.Catalog.Sheet,
	})
	importer := indexer.NewImporter(store, extractor, indexer.WithLogger(utils.Named(logger, "importer")))

	engine := search.NewEngine(store,
		search.WithLogger(utils.Named(logger, "engine")),
		search.WithSnapshotDir(cfg.Storage.MatrixCacheDir),
		search.WithModelOptions(cfg.Model.MinTokenLength, cfg.Model.Workers),
		search.WithLimits(cfg.Recommend.DefaultK, cfg.Recommend.MaxK),
		search.WithCacheCapacity(cfg.Cache.Capacity),
	)

	return &Components{
		Storage:     store,
		Importer:    importer,
		Engine:      engine,
		catalogPath: cfg.Catalog.Path,
	}, nil
}

// directComponents wires components for one-shot CLI use and loads the active corpus,
// importing the configured catalog first when storage is still empty.
func directComponents(configPath string) (*Components, func(), error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	components, err := initializeComponents(cfg, nil)
	if err != nil {
		return nil, nil, err
	}
	ctx := context.Background()
	err = components.Engine.Reload(ctx)
	if errors.Is(err, storage.ErrNoCorpus) && cfg.Catalog.Path != "" {
		_, err = components.ReloadCatalog(ctx)
	}
	if err != nil {
		return components, components.Close, err
	}
	return components, components.Close, nil
}

func printUsage() {
	fmt.Println(`osusume - Content-based anime recommendations

Usage:
  osusume server [flags]             Start the HTTP server
  osusume recommend [flags] <title>  Recommend titles similar to <title>
  osusume titles [flags] [query]     List catalog titles, or search them
  osusume import [flags] [file]      Import a catalog (CSV or XLSX) into storage
  osusume status [flags]             Show corpus/storage status
  osusume version                    Show version
  osusume help                       Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/osusume/config.yaml)
  --debug            Enable debug logging

Recommend Flags:
  --config string    Config file path (direct mode; also provides the default k)
  --server string    Server URL (default: http://localhost:8080). Use --server "" to build locally.
  -k int             Number of recommendations (default: recommend.default_k, 5)
  --output string    Output format: text, compact or json (default: text)

Titles Flags:
  --server string    Server URL (default: http://localhost:8080). Use --server "" for direct storage.
  --limit int        Maximum number of titles (default: all)
  --output string    Output format: text or json

Import Flags:
  --config string    Config file path
  --prune            Delete other stored corpora and their matrix snapshots

Status Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use --server "" for direct storage.
  --output string    Output format: text or json (default: text)

Examples:
  osusume import ./data/anime.csv
  osusume server
  osusume recommend Cowboy Bebop
  osusume titles bebop`)
}
