package config

import "github.com/hyperjump/osusume/internal/models"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/osusume/data/db/catalog.db"
	}
	if cfg.Storage.MatrixCacheDir == "" {
		cfg.Storage.MatrixCacheDir = "/usr/local/var/osusume/data/matrices"
	}
	if cfg.Catalog.Encoding == "" {
		cfg.Catalog.Encoding = "utf-8"
	}
	if cfg.Catalog.TitleColumn == "" {
		cfg.Catalog.TitleColumn = "title"
	}
	if cfg.Catalog.DescriptionColumn == "" {
		cfg.Catalog.DescriptionColumn = "summary"
	}
	if cfg.Catalog.ImageColumn == "" {
		cfg.Catalog.ImageColumn = "image_path"
	}
	if cfg.Model.MinTokenLength == 0 {
		cfg.Model.MinTokenLength = 1
	}
	if cfg.Recommend.DefaultK == 0 {
		cfg.Recommend.DefaultK = models.DefaultK
	}
	if cfg.Recommend.MaxK == 0 {
		cfg.Recommend.MaxK = 50
	}
	if cfg.Cache.Capacity == 0 {
		cfg.Cache.Capacity = 4
	}
}
