// Package config provides configuration loading and structs for the Osusume server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Model     ModelConfig     `yaml:"model"`
	Recommend RecommendConfig `yaml:"recommend"`
	Cache     CacheConfig     `yaml:"cache"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the catalog database and matrix snapshots.
// An empty MatrixCacheDir disables snapshots.
type StorageConfig struct {
	DatabasePath   string `yaml:"database_path"`
	MatrixCacheDir string `yaml:"matrix_cache_dir"`
}

// CatalogConfig describes the tabular catalog file.
type CatalogConfig struct {
	Path              string `yaml:"path"`
	Format            string `yaml:"format"`
	Encoding          string `yaml:"encoding"`
	Sheet             string `yaml:"sheet"`
	TitleColumn       string `yaml:"title_column"`
	DescriptionColumn string `yaml:"description_column"`
	ImageColumn       string `yaml:"image_column"`
	Watch             bool   `yaml:"watch"`
}

// ModelConfig holds vectorization settings.
type ModelConfig struct {
	// MinTokenLength drops shorter tokens; 2 matches the usual scikit-learn token pattern.
	MinTokenLength int `yaml:"min_token_length"`
	// Workers for similarity rows; 0 means GOMAXPROCS.
	Workers int `yaml:"workers"`
}

// RecommendConfig holds query limits.
type RecommendConfig struct {
	DefaultK int `yaml:"default_k"`
	MaxK     int `yaml:"max_k"`
}

// CacheConfig holds the model cache size in corpus versions.
type CacheConfig struct {
	Capacity int `yaml:"capacity"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.MatrixCacheDir = expandPath(cfg.Storage.MatrixCacheDir, configDir)
	cfg.Catalog.Path = expandPath(cfg.Catalog.Path, configDir)

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate rejects values the loader and engine cannot use.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Catalog.Encoding) {
	case "", "utf-8", "utf8", "latin1", "latin-1", "iso-8859-1":
	default:
		return fmt.Errorf("unsupported catalog encoding %q", c.Catalog.Encoding)
	}
	switch strings.TrimPrefix(strings.ToLower(c.Catalog.Format), ".") {
	case "", "csv", "txt", "xlsx":
	default:
		return fmt.Errorf("unsupported catalog format %q", c.Catalog.Format)
	}
	if c.Recommend.MaxK > 0 && c.Recommend.DefaultK > c.Recommend.MaxK {
		return fmt.Errorf("recommend.default_k (%d) exceeds recommend.max_k (%d)", c.Recommend.DefaultK, c.Recommend.MaxK)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. Empty stays empty.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
