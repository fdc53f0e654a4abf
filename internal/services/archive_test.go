package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/desertthunder/raff/internal/models"
	"github.com/desertthunder/raff/internal/shared"
)

func TestArchive(t *testing.T) {
	book := models.Book{
		Key:         "/works/OL1W",
		Title:       "The Time Machine",
		IA:          models.StringOrSlice{"timemachine00well"},
		EbookAccess: models.EbookAccessPublic,
	}

	t.Run("DownloadURL", func(t *testing.T) {
		a := NewArchive("", nil, shared.NewLogger(io.Discard))
		got, err := a.DownloadURL(book)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != book.DownloadURL() {
			t.Errorf("expected %s, got %s", book.DownloadURL(), got)
		}

		if _, err := a.DownloadURL(models.Book{Title: "Locked", EbookAccess: "borrowable"}); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("Download writes the file", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/download/timemachine00well/timemachine00well.pdf" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			w.Write([]byte("%PDF-1.4 fake"))
		}))
		defer server.Close()

		dir := filepath.Join(t.TempDir(), "books")
		a := NewArchive(server.URL, nil, shared.NewLogger(io.Discard))
		path, err := a.Download(context.Background(), book, dir)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if filepath.Base(path) != "The_Time_Machine.pdf" {
			t.Errorf("unexpected filename %s", path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read download: %v", err)
		}
		if string(data) != "%PDF-1.4 fake" {
			t.Errorf("unexpected content %q", data)
		}
		if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
			t.Error("temporary file should be removed")
		}
	})

	t.Run("Download reports http errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		a := NewArchive(server.URL, nil, shared.NewLogger(io.Discard))
		_, err := a.Download(context.Background(), book, t.TempDir())
		if !errors.Is(err, shared.ErrFetch) {
			t.Errorf("expected ErrFetch, got %v", err)
		}
	})
}
