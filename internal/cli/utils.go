// Package cli provides output formatting for the Osusume CLI.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/osusume/internal/models"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text with image reference and summary (default).
	OutputText OutputFormat = "text"
	// OutputCompact prints one line per recommendation.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a user-supplied format name.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case "", OutputText:
		return OutputText, nil
	case OutputCompact:
		return OutputCompact, nil
	case OutputJSON:
		return OutputJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q (use text, compact or json)", s)
}

// WriteRecommendations writes a recommend response to w in the given format.
func WriteRecommendations(w io.Writer, response *models.RecommendResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, response)
	case OutputCompact:
		for _, r := range response.Results {
			fmt.Fprintf(w, "%d\t%.4f\t%s\n", r.Rank, r.Score, r.Title)
		}
		return nil
	default:
		writeRecommendationsText(w, response)
		return nil
	}
}

func writeRecommendationsText(w io.Writer, response *models.RecommendResponse) {
	fmt.Fprintf(w, "\nTop %d recommendations for %q (%dms)\n\n", response.Total, response.Query, response.QueryTime)
	if len(response.Results) == 0 {
		fmt.Fprintln(w, "No other items in the catalog.")
		return
	}
	for _, r := range response.Results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "#%d  %s  (similarity %.4f)\n", r.Rank, r.Title, r.Score)
		if r.ImageReference != nil {
			fmt.Fprintf(w, "Image: %s\n", *r.ImageReference)
		}
		if r.Description != nil {
			fmt.Fprintf(w, "\n%s\n", TruncateWords(*r.Description, 60))
		}
		fmt.Fprintln(w)
	}
}

// WriteTitles writes title listings or search hits, one per line for text output.
func WriteTitles(w io.Writer, titles []*models.TitleMatch, format OutputFormat) error {
	if format == OutputJSON {
		if titles == nil {
			titles = []*models.TitleMatch{}
		}
		return writeJSON(w, titles)
	}
	for _, t := range titles {
		fmt.Fprintln(w, t.Title)
	}
	return nil
}

// WriteNotFound explains an unknown title and lists suggestions.
func WriteNotFound(w io.Writer, title string, suggestions []string) {
	fmt.Fprintf(w, "Title not found: %q\n", title)
	if len(suggestions) == 0 {
		return
	}
	fmt.Fprintln(w, "Did you mean:")
	for _, s := range suggestions {
		fmt.Fprintf(w, "  %s\n", s)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Truncate truncates s to maxLen runes and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if maxLen <= 0 || len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
