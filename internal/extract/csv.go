package extract

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

func readCSV(content []byte, encoding string) ([][]string, error) {
	var r io.Reader = bytes.NewReader(content)
	switch strings.ToLower(encoding) {
	case "", "utf-8", "utf8":
	case "latin1", "latin-1", "iso-8859-1":
		r = charmap.ISO8859_1.NewDecoder().Reader(r)
	default:
		return nil, fmt.Errorf("unsupported encoding %q (supported: utf-8, latin1)", encoding)
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse CSV: %w", err)
	}
	return records, nil
}
