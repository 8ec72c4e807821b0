// Package extract loads catalog items from tabular files (CSV and XLSX).
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/osusume/internal/models"
)

// Default column names, matching the anime catalog export.
const (
	DefaultTitleColumn       = "title"
	DefaultDescriptionColumn = "summary"
	DefaultImageColumn       = "image_path"
)

// Options selects columns and decoding for a catalog file.
type Options struct {
	TitleColumn       string
	DescriptionColumn string
	ImageColumn       string
	// Encoding is "utf-8" (default) or "latin1"; only used for CSV.
	Encoding string
	// Format forces "csv" or "xlsx"; empty means detect from the file extension.
	Format string
	// Sheet is the XLSX sheet to read; empty means the first sheet.
	Sheet string
}

// Result is a decoded catalog. Skipped counts rows dropped for having no title.
type Result struct {
	Items   []models.Item
	Skipped int
}

// Extractor reads catalog files into items.
type Extractor struct {
	opts Options
}

// NewExtractor returns an Extractor with defaults applied to unset options.
func NewExtractor(opts Options) *Extractor {
	if opts.TitleColumn == "" {
		opts.TitleColumn = DefaultTitleColumn
	}
	if opts.DescriptionColumn == "" {
		opts.DescriptionColumn = DefaultDescriptionColumn
	}
	if opts.ImageColumn == "" {
		opts.ImageColumn = DefaultImageColumn
	}
	if opts.Encoding == "" {
		opts.Encoding = "utf-8"
	}
	return &Extractor{opts: opts}
}

// Extract reads the catalog at path.
func (e *Extractor) Extract(path string) (*Result, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	format := e.opts.Format
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
	return e.ExtractBytes(content, format)
}

// ExtractBytes decodes content in the given format ("csv", "xlsx"; a leading dot is allowed).
func (e *Extractor) ExtractBytes(content []byte, format string) (*Result, error) {
	var (
		records [][]string
		err     error
	)
	switch strings.TrimPrefix(strings.ToLower(format), ".") {
	case "csv", "txt":
		records, err = readCSV(content, e.opts.Encoding)
	case "xlsx":
		records, err = readExcel(content, e.opts.Sheet)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q (supported: csv, xlsx)", format)
	}
	if err != nil {
		return nil, err
	}
	return e.toItems(records)
}

func (e *Extractor) toItems(records [][]string) (*Result, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("catalog is empty: missing header row")
	}
	header := records[0]
	titleCol := columnIndex(header, e.opts.TitleColumn)
	if titleCol < 0 {
		return nil, fmt.Errorf("title column %q not found in header %v", e.opts.TitleColumn, header)
	}
	descCol := columnIndex(header, e.opts.DescriptionColumn)
	imageCol := columnIndex(header, e.opts.ImageColumn)

	res := &Result{Items: make([]models.Item, 0, len(records)-1)}
	for _, row := range records[1:] {
		title := cell(row, titleCol)
		if strings.TrimSpace(title) == "" {
			res.Skipped++
			continue
		}
		res.Items = append(res.Items, models.Item{
			Title:          title,
			Description:    models.StringPtr(cell(row, descCol)),
			ImageReference: models.StringPtr(strings.TrimSpace(cell(row, imageCol))),
		})
	}
	return res, nil
}

// columnIndex finds name in header, ignoring case, surrounding space and a UTF-8 BOM.
func columnIndex(header []string, name string) int {
	want := strings.ToLower(strings.TrimSpace(name))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		if strings.ToLower(strings.TrimSpace(h)) == want {
			return i
		}
	}
	return -1
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}
