// package services defines the remote collaborators of the app: the book catalog and the generative assistant
package services

import (
	"context"

	"github.com/desertthunder/raff/internal/models"
)

var (
	_ Catalog   = (*OpenLibrary)(nil)
	_ Assistant = (*Gemini)(nil)
)

// Catalog searches and browses a public book catalog.
type Catalog interface {
	// SearchBooks returns one page (1-based) of full-text search results.
	// An empty query returns an empty result without a network call.
	SearchBooks(ctx context.Context, query string, page int) (*models.SearchResult, error)

	// BookDetails fetches the full work record for a book key.
	BookDetails(ctx context.Context, key string) (*models.BookDetails, error)

	// BooksBySubject lists up to limit books filed under a subject.
	BooksBySubject(ctx context.Context, subject string, limit int) ([]models.Book, error)

	// Name returns the name of the service (e.g., "Open Library")
	Name() string
}

// Assistant produces AI-generated text about a book.
type Assistant interface {
	// GroundedBookInfo summarizes web coverage of the book, with citations.
	GroundedBookInfo(ctx context.Context, title, author string) (*models.Generated, error)

	// BookReviews summarizes up to three reader reviews found on the web.
	BookReviews(ctx context.Context, title, author string) (*models.Generated, error)

	// BookSummary writes a short plot and theme summary.
	BookSummary(ctx context.Context, title, author string) (*models.Generated, error)

	// Name returns the name of the service (e.g., "Gemini")
	Name() string
}
