package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/osusume/internal/models"
)

func testResponse() *models.RecommendResponse {
	return &models.RecommendResponse{
		Query:         "Cowboy Bebop",
		K:             2,
		CorpusVersion: "v1",
		QueryTime:     3,
		Total:         2,
		Results: []*models.Recommendation{
			{Rank: 1, Title: "Space Dandy", Score: 0.42, Description: models.StringPtr("An alien hunter in space."), ImageReference: models.StringPtr("img/dandy.jpg")},
			{Rank: 2, Title: "Planetes", Score: 0.1},
		},
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"JSON", OutputJSON, false},
		{"compact", OutputCompact, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestWriteRecommendations_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRecommendations(&buf, testResponse(), OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded models.RecommendResponse
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Query != "Cowboy Bebop" || len(decoded.Results) != 2 {
		t.Errorf("decoded = %+v", decoded)
	}
	if decoded.Results[1].Description != nil {
		t.Error("nil description should stay absent")
	}
}

func TestWriteRecommendations_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRecommendations(&buf, testResponse(), OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Cowboy Bebop", "#1  Space Dandy", "Image: img/dandy.jpg", "An alien hunter in space.", "#2  Planetes"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "Image:") != 1 {
		t.Error("items without an image should not print an Image line")
	}
}

func TestWriteRecommendations_TextEmpty(t *testing.T) {
	var buf bytes.Buffer
	resp := &models.RecommendResponse{Query: "Solo"}
	if err := WriteRecommendations(&buf, resp, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No other items") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestWriteRecommendations_Compact(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRecommendations(&buf, testResponse(), OutputCompact); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || lines[0] != "1\t0.4200\tSpace Dandy" {
		t.Errorf("compact output = %q", lines)
	}
}

func TestWriteTitles(t *testing.T) {
	titles := []*models.TitleMatch{{Title: "A", Index: 0}, {Title: "B", Index: 1}}
	var buf bytes.Buffer
	if err := WriteTitles(&buf, titles, OutputText); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "A\nB\n" {
		t.Errorf("text titles = %q", buf.String())
	}
	buf.Reset()
	if err := WriteTitles(&buf, nil, OutputJSON); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("empty JSON titles = %q", buf.String())
	}
}

func TestWriteNotFound(t *testing.T) {
	var buf bytes.Buffer
	WriteNotFound(&buf, "Bebob", []string{"Cowboy Bebop"})
	out := buf.String()
	if !strings.Contains(out, `"Bebob"`) || !strings.Contains(out, "Did you mean") || !strings.Contains(out, "Cowboy Bebop") {
		t.Errorf("unexpected output: %s", out)
	}
	buf.Reset()
	WriteNotFound(&buf, "X", nil)
	if strings.Contains(buf.String(), "Did you mean") {
		t.Error("no suggestions should omit the hint")
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello world", 5); got != "hello..." {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Truncate = %q", got)
	}
	if got := TruncateWords("a b c d", 2); got != "a b..." {
		t.Errorf("TruncateWords = %q", got)
	}
}
