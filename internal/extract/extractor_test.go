package extract

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/osusume/internal/models"
)

func TestExtractBytes_CSV(t *testing.T) {
	content := []byte("title,summary,image_path\n" +
		"Cowboy Bebop,\"Bounty hunters, in space.\",img/bebop.jpg\n" +
		",orphan row without title,\n" +
		"Mushishi,,\n")
	res, err := NewExtractor(Options{}).ExtractBytes(content, ".csv")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if len(res.Items) != 2 || res.Skipped != 1 {
		t.Fatalf("items=%d skipped=%d", len(res.Items), res.Skipped)
	}
	bebop := res.Items[0]
	if bebop.Title != "Cowboy Bebop" || models.Deref(bebop.Description) != "Bounty hunters, in space." {
		t.Errorf("unexpected first item: %+v", bebop)
	}
	if models.Deref(bebop.ImageReference) != "img/bebop.jpg" {
		t.Errorf("image = %v", bebop.ImageReference)
	}
	if res.Items[1].Description != nil || res.Items[1].ImageReference != nil {
		t.Error("empty cells should decode as nil")
	}
}

func TestExtractBytes_CSVLatin1(t *testing.T) {
	// "Pokémon" with é as the single latin1 byte 0xE9
	content := []byte("title,summary\nPok\xe9mon,Caf\xe9 battles\n")
	res, err := NewExtractor(Options{Encoding: "latin1"}).ExtractBytes(content, "csv")
	if err != nil {
		t.Fatal(err)
	}
	if res.Items[0].Title != "Pokémon" || models.Deref(res.Items[0].Description) != "Café battles" {
		t.Errorf("got %+v", res.Items[0])
	}
}

func TestExtractBytes_CustomColumnsAndBOM(t *testing.T) {
	content := []byte("\ufeffName , Synopsis\nFrieren,Elf mage travels\n")
	res, err := NewExtractor(Options{TitleColumn: "name", DescriptionColumn: "synopsis"}).ExtractBytes(content, "csv")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Items) != 1 || res.Items[0].Title != "Frieren" {
		t.Fatalf("got %+v", res.Items)
	}
	if res.Items[0].ImageReference != nil {
		t.Error("missing image column should give nil image")
	}
}

func TestExtractBytes_MissingTitleColumn(t *testing.T) {
	if _, err := NewExtractor(Options{}).ExtractBytes([]byte("name,summary\nx,y\n"), "csv"); err == nil {
		t.Error("expected error for missing title column")
	}
}

func TestExtractBytes_Errors(t *testing.T) {
	e := NewExtractor(Options{})
	if _, err := e.ExtractBytes([]byte("{}"), "json"); err == nil {
		t.Error("expected unsupported format error")
	}
	if _, err := e.ExtractBytes(nil, "csv"); err == nil {
		t.Error("expected error for empty catalog")
	}
	if _, err := NewExtractor(Options{Encoding: "ebcdic"}).ExtractBytes([]byte("title\nx\n"), "csv"); err == nil {
		t.Error("expected unsupported encoding error")
	}
}

func TestExtractBytes_Excel(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "title")
	f.SetCellValue("Sheet1", "B1", "summary")
	f.SetCellValue("Sheet1", "C1", "image_path")
	f.SetCellValue("Sheet1", "A2", "Steins;Gate")
	f.SetCellValue("Sheet1", "B2", "Time travel via microwave")
	f.SetCellValue("Sheet1", "A3", "Planetes")
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	res, err := NewExtractor(Options{}).ExtractBytes(buf.Bytes(), ".xlsx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if len(res.Items) != 2 {
		t.Fatalf("items = %d", len(res.Items))
	}
	if res.Items[0].Title != "Steins;Gate" || models.Deref(res.Items[0].Description) != "Time travel via microwave" {
		t.Errorf("got %+v", res.Items[0])
	}
	if res.Items[1].Description != nil {
		t.Error("short row should give nil description")
	}
}

func TestExtract_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.CSV")
	if err := os.WriteFile(path, []byte("title,summary\nA,a cat\n"), 0600); err != nil {
		t.Fatal(err)
	}
	res, err := NewExtractor(Options{}).Extract(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Items) != 1 {
		t.Errorf("items = %d", len(res.Items))
	}
	if _, err := NewExtractor(Options{}).Extract(filepath.Join(dir, "missing.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}
