package e2e

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

// SupportedFormats lists the catalog encodings exercised by the file-based tests.
var SupportedFormats = []string{"csv", "csv-latin1", "xlsx"}

// FileExtension returns the file extension for a format from SupportedFormats.
func FileExtension(format string) string {
	if format == "xlsx" {
		return ".xlsx"
	}
	return ".csv"
}

// EncodeCatalog renders c as a catalog file with title, summary and image_path columns.
func EncodeCatalog(c *Catalog, format string) ([]byte, error) {
	rows := [][]string{{"title", "summary", "image_path"}}
	for _, it := range c.Items {
		rows = append(rows, []string{it.Title, it.Summary, it.Image})
	}
	switch format {
	case "csv":
		return encodeCSV(rows)
	case "csv-latin1":
		raw, err := encodeCSV(rows)
		if err != nil {
			return nil, err
		}
		return charmap.ISO8859_1.NewEncoder().Bytes(raw)
	case "xlsx":
		return encodeXlsx(rows)
	}
	return nil, fmt.Errorf("unknown format %q", format)
}

func encodeCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeXlsx(rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue("Sheet1", cell, v); err != nil {
				return nil, err
			}
		}
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
