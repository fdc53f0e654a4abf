// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/raff/internal/models"
)

// MockCatalog is a test double for services.Catalog.
//
// Subjects maps a subject name to the books (or error) it returns; every call is recorded in order.
type MockCatalog struct {
	mu            sync.Mutex
	SearchResult  *models.SearchResult
	SearchErr     error
	Details       map[string]*models.BookDetails
	DetailsErr    error
	Subjects      map[string][]models.Book
	SubjectErrs   map[string]error
	SubjectCalls  []string
	SearchQueries []string
}

func (m *MockCatalog) Name() string { return "mock catalog" }

func (m *MockCatalog) SearchBooks(ctx context.Context, query string, page int) (*models.SearchResult, error) {
	m.mu.Lock()
	m.SearchQueries = append(m.SearchQueries, query)
	m.mu.Unlock()

	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	if m.SearchResult == nil {
		return &models.SearchResult{Docs: []models.Book{}}, nil
	}
	return m.SearchResult, nil
}

func (m *MockCatalog) BookDetails(ctx context.Context, key string) (*models.BookDetails, error) {
	if m.DetailsErr != nil {
		return nil, m.DetailsErr
	}
	if d, ok := m.Details[key]; ok {
		return d, nil
	}
	return &models.BookDetails{Key: key}, nil
}

func (m *MockCatalog) BooksBySubject(ctx context.Context, subject string, limit int) ([]models.Book, error) {
	m.mu.Lock()
	m.SubjectCalls = append(m.SubjectCalls, subject)
	m.mu.Unlock()

	if err := m.SubjectErrs[subject]; err != nil {
		return nil, err
	}
	books := m.Subjects[subject]
	if limit > 0 && len(books) > limit {
		books = books[:limit]
	}
	return books, nil
}

// Calls returns a copy of the recorded subject calls.
func (m *MockCatalog) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.SubjectCalls...)
}

// MockAssistant is a test double for services.Assistant.
type MockAssistant struct {
	Info       *models.Generated
	InfoErr    error
	Reviews    *models.Generated
	ReviewsErr error
	Summary    *models.Generated
	SummaryErr error
}

func (m *MockAssistant) Name() string { return "mock assistant" }

func (m *MockAssistant) GroundedBookInfo(ctx context.Context, title, author string) (*models.Generated, error) {
	return m.Info, m.InfoErr
}

func (m *MockAssistant) BookReviews(ctx context.Context, title, author string) (*models.Generated, error) {
	return m.Reviews, m.ReviewsErr
}

func (m *MockAssistant) BookSummary(ctx context.Context, title, author string) (*models.Generated, error) {
	return m.Summary, m.SummaryErr
}

// FailingStorage is a record store whose every operation fails.
type FailingStorage struct{}

var ErrStorageFailed = errors.New("storage failed")

func (FailingStorage) GetItem(key string) (string, bool, error) { return "", false, ErrStorageFailed }
func (FailingStorage) SetItem(key, value string) error          { return ErrStorageFailed }
func (FailingStorage) RemoveItem(key string) error              { return ErrStorageFailed }
func (FailingStorage) Clear() error                             { return ErrStorageFailed }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

var _ io.ReadCloser = (*FCloser)(nil)

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
