// package formatter exports favorite books to various formats (CSV, Markdown, plain text, JSON, YAML)
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/raff/internal/models"
	"github.com/desertthunder/raff/internal/services"
	"github.com/desertthunder/raff/internal/shared"
	"gopkg.in/yaml.v3"
)

// Format names an export encoding.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

// Formats lists every supported format, in help-text order.
var Formats = []Format{FormatJSON, FormatYAML, FormatCSV, FormatMarkdown, FormatText}

// ParseFormat accepts a format name or a common alias ("md", "text", "yml").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidFlag, s)
	}
}

// Extension returns the file extension for f, without the dot.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatYAML:
		return "yaml"
	default:
		return string(f)
	}
}

// ExportedBook is a favorite with its derived links and download count.
type ExportedBook struct {
	models.Book `yaml:",inline"`
	Downloads   int    `json:"downloads" yaml:"downloads"`
	CoverURL    string `json:"cover_url,omitempty" yaml:"cover_url,omitempty"`
	ReadURL     string `json:"read_url,omitempty" yaml:"read_url,omitempty"`
	ShareURL    string `json:"share_url" yaml:"share_url"`
}

// FavoritesExport is the document every format renders.
type FavoritesExport struct {
	ExportedAt time.Time      `json:"exported_at" yaml:"exported_at"`
	Count      int            `json:"count" yaml:"count"`
	Books      []ExportedBook `json:"books" yaml:"books"`
}

// NewFavoritesExport builds an export from favorites in list order.
//
// downloads may be nil, in which case every count is 0.
func NewFavoritesExport(books []models.Book, downloads func(key string) int, now time.Time) *FavoritesExport {
	export := &FavoritesExport{
		ExportedAt: now.UTC(),
		Count:      len(books),
		Books:      make([]ExportedBook, 0, len(books)),
	}
	for _, b := range books {
		entry := ExportedBook{
			Book:     b,
			CoverURL: services.CoverURL(b, services.CoverMedium),
			ReadURL:  b.ReadURL(),
			ShareURL: b.ShareURL(),
		}
		if downloads != nil {
			entry.Downloads = downloads(b.Key)
		}
		export.Books = append(export.Books, entry)
	}
	return export
}

// Export renders export in format f.
func Export(export *FavoritesExport, f Format) ([]byte, error) {
	switch f {
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown:
		return ExportToMarkdown(export, nil)
	case FormatText:
		return ExportToText(export)
	case FormatYAML:
		return ExportToYAML(export)
	case FormatJSON:
		return ExportToJSON(export)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidFlag, f)
	}
}

// ExportToCSV converts favorites to CSV with columns: Key, Title, Authors, First Published, ISBN, Downloads, Read URL
func ExportToCSV(export *FavoritesExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Key", "Title", "Authors", "First Published", "ISBN", "Downloads", "Read URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, b := range export.Books {
		year := ""
		if b.FirstPublishYear > 0 {
			year = strconv.Itoa(b.FirstPublishYear)
		}
		isbn := ""
		if len(b.ISBN) > 0 {
			isbn = b.ISBN[0]
		}
		record := []string{
			b.Key,
			b.Title,
			strings.Join(b.AuthorName, "; "),
			year,
			isbn,
			strconv.Itoa(b.Downloads),
			b.ReadURL,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts favorites to Markdown.
//
// covers maps book keys to local image paths; books without an entry link the remote cover.
func ExportToMarkdown(export *FavoritesExport, covers map[string]string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# My Favorite Books\n\n")
	buf.WriteString(fmt.Sprintf("**Books**: %d\n", export.Count))
	buf.WriteString(fmt.Sprintf("**Exported**: %s\n\n", export.ExportedAt.Format(time.RFC3339)))

	for i, b := range export.Books {
		buf.WriteString(fmt.Sprintf("## %d. %s\n\n", i+1, b.Title))

		if img := covers[b.Key]; img != "" {
			buf.WriteString(fmt.Sprintf("![Cover](%s)\n\n", img))
		} else if b.CoverURL != "" {
			buf.WriteString(fmt.Sprintf("![Cover](%s)\n\n", b.CoverURL))
		}

		buf.WriteString(fmt.Sprintf("- **Author**: %s\n", b.AuthorLine()))
		if b.FirstPublishYear > 0 {
			buf.WriteString(fmt.Sprintf("- **First published**: %d\n", b.FirstPublishYear))
		}
		if len(b.Publisher) > 0 {
			buf.WriteString(fmt.Sprintf("- **Publisher**: %s\n", b.Publisher[0]))
		}
		if b.Downloads > 0 {
			buf.WriteString(fmt.Sprintf("- **Downloads**: %d\n", b.Downloads))
		}
		if b.ReadURL != "" {
			buf.WriteString(fmt.Sprintf("- [Read online](%s)\n", b.ReadURL))
		}
		buf.WriteString(fmt.Sprintf("- [Open Library](%s)\n\n", b.ShareURL))
	}

	return buf.Bytes(), nil
}

// ExportToText converts favorites to plain text
func ExportToText(export *FavoritesExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Favorites: %d\n\n", export.Count))

	for i, b := range export.Books {
		line := fmt.Sprintf("%d. %s - %s", i+1, b.Title, b.AuthorLine())
		if b.FirstPublishYear > 0 {
			line += fmt.Sprintf(" (%d)", b.FirstPublishYear)
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts favorites to indented JSON
func ExportToJSON(export *FavoritesExport) ([]byte, error) {
	data, err := shared.MarshalJSON(export, true)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return data, nil
}

// ExportToYAML converts favorites to YAML
func ExportToYAML(export *FavoritesExport) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(export); err != nil {
		return nil, fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty URL provided", shared.ErrInvalidArgument)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// WriteExport writes export in format f to path and returns the written path.
//
// Defaults to favorites.{ext} in the current directory.
func WriteExport(export *FavoritesExport, f Format, path string) (string, error) {
	if path == "" {
		path = "favorites." + f.Extension()
	}

	data, err := Export(export, f)
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", f, err)
	}
	return path, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory string
	Files     []string
	Covers    []string
}

// WriteMarkdownExport writes favorites as {dir}/README.md, optionally saving
// each cover under {dir}/covers/. A failed cover download falls back to the
// remote link and is reported on warn.
func WriteMarkdownExport(
	ctx context.Context,
	export *FavoritesExport,
	outputDir string,
	client *http.Client,
	withCovers bool,
	warn io.Writer,
) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = "favorites"
	}
	if warn == nil {
		warn = os.Stderr
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{Directory: outputDir, Files: []string{}}
	covers := map[string]string{}

	if withCovers {
		coverDir := filepath.Join(outputDir, "covers")
		if err := os.MkdirAll(coverDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		for _, b := range export.Books {
			if b.CoverURL == "" {
				continue
			}
			data, err := DownloadImage(ctx, client, b.CoverURL)
			if err != nil {
				fmt.Fprintf(warn, "Warning: failed to download cover for %s: %v\n", b.Title, err)
				continue
			}
			name := coverFilename(b.Key)
			path := filepath.Join(coverDir, name)
			if err := os.WriteFile(path, data, 0644); err != nil {
				fmt.Fprintf(warn, "Warning: failed to save cover for %s: %v\n", b.Title, err)
				continue
			}
			covers[b.Key] = "covers/" + name
			result.Covers = append(result.Covers, path)
			result.Files = append(result.Files, path)
		}
	}

	mdData, err := ExportToMarkdown(export, covers)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	result.Files = append(result.Files, mdFile)
	return result, nil
}

// coverFilename turns "/works/OL1W" into "OL1W.jpg".
func coverFilename(key string) string {
	return filepath.Base(strings.TrimSuffix(key, "/")) + ".jpg"
}

// WriteDownloadManifest writes a bulk download summary as indented JSON.
func WriteDownloadManifest(result *models.BulkDownloadResult, path string) error {
	data, err := shared.MarshalJSON(result, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
