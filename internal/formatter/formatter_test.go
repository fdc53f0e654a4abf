package formatter

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/raff/internal/models"
	"github.com/desertthunder/raff/internal/shared"
	th "github.com/desertthunder/raff/internal/testing"
	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

var exportedAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func sampleExport() *FavoritesExport {
	books := []models.Book{
		{
			Key:              "/works/OL1W",
			Title:            "Dune",
			AuthorName:       []string{"Frank Herbert"},
			FirstPublishYear: 1965,
			ISBN:             []string{"9780441013593"},
			Publisher:        []string{"Chilton Books"},
			IA:               models.StringOrSlice{"dune00herb"},
			EbookAccess:      models.EbookAccessPublic,
		},
		{
			Key:     "/works/OL2W",
			Title:   "Untitled, Unknown",
			CoverID: 42,
		},
	}
	counts := map[string]int{"/works/OL1W": 3}
	return NewFavoritesExport(books, func(key string) int { return counts[key] }, exportedAt)
}

func TestNewFavoritesExport(t *testing.T) {
	export := sampleExport()

	if export.Count != 2 || len(export.Books) != 2 {
		t.Fatalf("expected 2 books, got %d", export.Count)
	}

	dune := export.Books[0]
	if dune.Downloads != 3 {
		t.Errorf("expected 3 downloads, got %d", dune.Downloads)
	}
	if dune.CoverURL != "https://covers.openlibrary.org/b/isbn/9780441013593-M.jpg" {
		t.Errorf("unexpected cover %s", dune.CoverURL)
	}
	if dune.ReadURL != "https://archive.org/details/dune00herb/mode/2up" {
		t.Errorf("unexpected read URL %s", dune.ReadURL)
	}
	if dune.ShareURL != "https://openlibrary.org/works/OL1W" {
		t.Errorf("unexpected share URL %s", dune.ShareURL)
	}

	other := export.Books[1]
	if other.Downloads != 0 || other.ReadURL != "" {
		t.Errorf("unexpected derived fields %+v", other)
	}
	if other.CoverURL != "https://covers.openlibrary.org/b/id/42-M.jpg" {
		t.Errorf("unexpected cover %s", other.CoverURL)
	}

	t.Run("nil download lookup", func(t *testing.T) {
		e := NewFavoritesExport([]models.Book{{Key: "/works/X"}}, nil, exportedAt)
		if e.Books[0].Downloads != 0 {
			t.Error("expected zero downloads")
		}
	})
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleExport())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "Key,Title,Authors,First Published,ISBN,Downloads,Read URL\n") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "/works/OL1W,Dune,Frank Herbert,1965,9780441013593,3,https://archive.org/details/dune00herb/mode/2up") {
			t.Errorf("CSV missing Dune row, got: %s", output)
		}
		if !strings.Contains(output, `/works/OL2W,"Untitled, Unknown",,,,0,`) {
			t.Errorf("CSV should quote commas and leave blanks, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(sampleExport(), map[string]string{"/works/OL2W": "covers/OL2W.jpg"})
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# My Favorite Books",
			"**Books**: 2",
			"**Exported**: 2024-05-01T12:00:00Z",
			"## 1. Dune",
			"![Cover](https://covers.openlibrary.org/b/isbn/9780441013593-M.jpg)",
			"- **Author**: Frank Herbert",
			"- **First published**: 1965",
			"- **Downloads**: 3",
			"- [Read online](https://archive.org/details/dune00herb/mode/2up)",
			"## 2. Untitled, Unknown",
			"![Cover](covers/OL2W.jpg)",
			"- **Author**: Unknown Author",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q", want)
			}
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(sampleExport())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		want := "Favorites: 2\n\n1. Dune - Frank Herbert (1965)\n2. Untitled, Unknown - Unknown Author\n"
		if string(data) != want {
			t.Errorf("unexpected text export:\n%s", data)
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(sampleExport())
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var decoded struct {
			Count int `json:"count"`
			Books []struct {
				Key       string   `json:"key"`
				Title     string   `json:"title"`
				Authors   []string `json:"author_name"`
				Downloads int      `json:"downloads"`
				ReadURL   string   `json:"read_url"`
			} `json:"books"`
		}
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.Count != 2 || decoded.Books[0].Key != "/works/OL1W" || decoded.Books[0].Downloads != 3 {
			t.Errorf("unexpected JSON %s", data)
		}
		if decoded.Books[0].Authors[0] != "Frank Herbert" {
			t.Errorf("expected book fields to be inlined, got %s", data)
		}
	})

	t.Run("ExportToYAML", func(t *testing.T) {
		data, err := ExportToYAML(sampleExport())
		if err != nil {
			t.Fatalf("ExportToYAML failed: %v", err)
		}

		var decoded struct {
			Count int `yaml:"count"`
			Books []struct {
				Key       string `yaml:"key"`
				Title     string `yaml:"title"`
				Downloads int    `yaml:"downloads"`
			} `yaml:"books"`
		}
		if err := yaml.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid YAML: %v", err)
		}
		if decoded.Count != 2 || decoded.Books[0].Title != "Dune" || decoded.Books[0].Downloads != 3 {
			t.Errorf("unexpected YAML %s", data)
		}
		if !strings.Contains(string(data), "\n  - key: /works/OL1W\n") {
			t.Errorf("expected two-space indentation, got %s", data)
		}
	})

	t.Run("empty favorites", func(t *testing.T) {
		export := NewFavoritesExport(nil, nil, exportedAt)
		for _, f := range Formats {
			if _, err := Export(export, f); err != nil {
				t.Errorf("Export(%s) failed: %v", f, err)
			}
		}
	})
}

func TestParseFormat(t *testing.T) {
	tc := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: FormatJSON},
		{in: "JSON", want: FormatJSON},
		{in: "yml", want: FormatYAML},
		{in: "md", want: FormatMarkdown},
		{in: "text", want: FormatText},
		{in: "csv", want: FormatCSV},
		{in: "xml", wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrInvalidFlag) {
					t.Errorf("expected ErrInvalidFlag, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseFormat(%q) = %v, %v", tt.in, got, err)
			}
		})
	}

	if FormatMarkdown.Extension() != "md" || FormatText.Extension() != "txt" {
		t.Error("unexpected extensions")
	}
}

func TestWriters(t *testing.T) {
	t.Run("WriteExport", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out", "favorites.csv")
		got, err := WriteExport(sampleExport(), FormatCSV, path)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if got != path {
			t.Errorf("expected %s, got %s", path, got)
		}
		th.AssertFileExists(t, path)
		if !strings.Contains(th.MustReadFile(t, path), "Dune") {
			t.Error("CSV file missing content")
		}
	})

	t.Run("WriteExport default filename", func(t *testing.T) {
		wd, _ := os.Getwd()
		dir := t.TempDir()
		if err := os.Chdir(dir); err != nil {
			t.Fatalf("chdir: %v", err)
		}
		t.Cleanup(func() { os.Chdir(wd) })

		got, err := WriteExport(sampleExport(), FormatMarkdown, "")
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if got != "favorites.md" {
			t.Errorf("expected favorites.md, got %s", got)
		}
		th.AssertFileExists(t, filepath.Join(dir, "favorites.md"))
	})

	t.Run("WriteMarkdownExport with covers", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.Contains(r.URL.Path, "/id/") {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Write([]byte("jpeg"))
		}))
		defer srv.Close()

		export := sampleExport()
		export.Books[0].CoverURL = srv.URL + "/b/isbn/9780441013593-M.jpg"
		export.Books[1].CoverURL = srv.URL + "/b/id/42-M.jpg"

		var warn bytes.Buffer
		dir := filepath.Join(t.TempDir(), "favorites")
		result, err := WriteMarkdownExport(context.Background(), export, dir, srv.Client(), true, &warn)
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}

		cover := filepath.Join(dir, "covers", "OL1W.jpg")
		th.AssertFileExists(t, cover)
		if len(result.Covers) != 1 || result.Covers[0] != cover {
			t.Errorf("unexpected covers %v", result.Covers)
		}
		if len(result.Files) != 2 {
			t.Errorf("expected cover and README, got %v", result.Files)
		}
		if !strings.Contains(warn.String(), "failed to download cover for Untitled, Unknown") {
			t.Errorf("expected warning for missing cover, got %q", warn.String())
		}

		readme := th.MustReadFile(t, filepath.Join(dir, "README.md"))
		if !strings.Contains(readme, "![Cover](covers/OL1W.jpg)") {
			t.Errorf("README should link the local cover:\n%s", readme)
		}
		if !strings.Contains(readme, "![Cover]("+srv.URL+"/b/id/42-M.jpg)") {
			t.Errorf("README should fall back to the remote cover:\n%s", readme)
		}
	})

	t.Run("WriteMarkdownExport without covers", func(t *testing.T) {
		dir := t.TempDir()
		result, err := WriteMarkdownExport(context.Background(), sampleExport(), dir, nil, false, nil)
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}
		if len(result.Files) != 1 || len(result.Covers) != 0 {
			t.Errorf("expected README only, got %v", result.Files)
		}
	})

	t.Run("DownloadImage", func(t *testing.T) {
		if _, err := DownloadImage(context.Background(), nil, ""); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}

		client := &http.Client{Transport: th.NewMockRoundTripper(nil, errors.New("connection refused"))}
		if _, err := DownloadImage(context.Background(), client, "http://covers.test/x.jpg"); err == nil {
			t.Error("expected transport error")
		}
	})

	t.Run("WriteDownloadManifest", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "download_manifest.json")
		result := &models.BulkDownloadResult{
			Total:           2,
			Succeeded:       1,
			Failed:          1,
			OutputDirectory: "books",
			Results: []models.DownloadResult{
				{Key: "/works/OL1W", Title: "Dune", Path: "books/Dune.pdf", Count: 1, Success: true},
				{Key: "/works/OL2W", Title: "Closed", Error: shared.ErrInvalidArgument, Message: "not available"},
			},
		}

		if err := WriteDownloadManifest(result, path); err != nil {
			t.Fatalf("WriteDownloadManifest failed: %v", err)
		}

		content := th.MustReadFile(t, path)
		for _, want := range []string{`"total": 2`, `"succeeded": 1`, `"path": "books/Dune.pdf"`, `"error": "not available"`} {
			if !strings.Contains(content, want) {
				t.Errorf("manifest missing %s:\n%s", want, content)
			}
		}
	})
}
