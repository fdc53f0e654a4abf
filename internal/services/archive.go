// Internet Archive download client
package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/raff/internal/models"
	"github.com/desertthunder/raff/internal/shared"
)

// Archive fetches public-domain PDFs for books whose scans are public.
type Archive struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

// NewArchive creates a new download client. baseURL defaults to [models.ArchiveBaseURL].
func NewArchive(baseURL string, client *http.Client, logger *log.Logger) *Archive {
	if baseURL == "" {
		baseURL = models.ArchiveBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Archive{baseURL: strings.TrimRight(baseURL, "/"), httpClient: client, logger: logger}
}

// DownloadURL returns the PDF location for book on this archive host.
func (a *Archive) DownloadURL(book models.Book) (string, error) {
	if !book.CanRead() {
		return "", fmt.Errorf("%w: %q has no public scan", shared.ErrInvalidArgument, book.Title)
	}
	id := book.ArchiveID()
	return fmt.Sprintf("%s/download/%s/%s.pdf", a.baseURL, id, id), nil
}

// Download saves the PDF for book into dir and returns the written path.
//
// The body is streamed to a temporary file that is renamed into place only
// after a complete copy.
func (a *Archive) Download(ctx context.Context, book models.Book, dir string) (string, error) {
	src, err := a.DownloadURL(book)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %w", shared.ErrFetch, &StatusError{StatusCode: resp.StatusCode, URL: src})
	}

	destPath := filepath.Join(dir, book.DownloadFilename())
	tmpPath := destPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	n, err := io.Copy(f, resp.Body)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("writing download: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", err
	}

	a.logger.Info("download complete", "key", book.Key, "path", destPath, "bytes", n)
	return destPath, nil
}
