// package tasks implements the multi-request loading sequences behind the home feed and book detail views.
package tasks

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/raff/internal/models"
	"github.com/desertthunder/raff/internal/services"
	"github.com/desertthunder/raff/internal/shared"
)

// Categories are the home feed rows, loaded in this order.
var Categories = []string{
	"Science Fiction",
	"Fantasy",
	"Mystery",
	"Thriller",
	"Romance",
	"Horror",
	"Adventure",
	"Young Adult",
	"Classic Literature",
	"Novels",
	"Arabic",
	"Arabic literature",
	"Poetry",
	"History",
	"Biography",
	"Science",
	"Medicine",
	"Engineering",
	"Religion",
	"Islam",
}

// RecommendationCategories feed the combined "Recommended for You" row.
var RecommendationCategories = []string{"Philosophy", "Psychology", "Art", "Travel"}

const (
	RecommendationsRow     = "Recommended for You"
	RecommendationsFailed  = "Could not load recommendations."
	DefaultCategoryDelay   = 400 * time.Millisecond
	DefaultRecommendLimit  = 20
	DefaultCategoryLimit   = services.DefaultSubjectLimit
	categoryFailedTemplate = "Failed to load books for %s."
)

// CategoryRow is one titled row of the home feed.
//
// Error is a display message; a row with an error has no books.
type CategoryRow struct {
	Name  string        `json:"name"`
	Books []models.Book `json:"books"`
	Error string        `json:"error,omitempty"`
}

// HomeFeed contains every category row followed by the recommendations row.
type HomeFeed struct {
	Categories      []CategoryRow `json:"categories"`
	Recommendations CategoryRow   `json:"recommendations"`
}

// HomeLoaderOpts configures a [HomeLoader]. Zero values use the defaults.
type HomeLoaderOpts struct {
	Categories          []string
	Recommendations     []string
	Delay               time.Duration
	CategoryLimit       int
	RecommendationLimit int
	Logger              *log.Logger
}

// HomeLoader fetches the home feed one subject at a time with a fixed pause
// after every request, so the upstream catalog sees a paced, serial load.
//
// A book appears at most once across the whole feed: the first row to list a
// key keeps it.
type HomeLoader struct {
	catalog             services.Catalog
	categories          []string
	recommendations     []string
	delay               time.Duration
	categoryLimit       int
	recommendationLimit int
	logger              *log.Logger

	sleep   func(ctx context.Context, d time.Duration) error
	shuffle func(books []models.Book)
}

// NewHomeLoader creates a new HomeLoader over catalog.
func NewHomeLoader(catalog services.Catalog, opts HomeLoaderOpts) *HomeLoader {
	h := &HomeLoader{
		catalog:             catalog,
		categories:          opts.Categories,
		recommendations:     opts.Recommendations,
		delay:               opts.Delay,
		categoryLimit:       opts.CategoryLimit,
		recommendationLimit: opts.RecommendationLimit,
		logger:              opts.Logger,
		sleep:               sleepContext,
		shuffle:             shuffleBooks,
	}
	if h.categories == nil {
		h.categories = Categories
	}
	if h.recommendations == nil {
		h.recommendations = RecommendationCategories
	}
	if h.delay <= 0 {
		h.delay = DefaultCategoryDelay
	}
	if h.categoryLimit <= 0 {
		h.categoryLimit = DefaultCategoryLimit
	}
	if h.recommendationLimit <= 0 {
		h.recommendationLimit = DefaultRecommendLimit
	}
	if h.logger == nil {
		h.logger = shared.NewLogger(nil)
	}
	return h
}

// Rows returns the names of the feed rows in display order, ending with the recommendations row.
func (h *HomeLoader) Rows() []string {
	return append(slices.Clone(h.categories), RecommendationsRow)
}

// Load fetches every category row, then the recommendations row.
//
// A failed category yields a row with an error message and the sequence
// continues. Each finished row is also sent on progress as [ProgressUpdate.Data].
// Cancellation stops the sequence and returns the rows loaded so far along with
// the context error.
func (h *HomeLoader) Load(ctx context.Context, progress chan<- ProgressUpdate) (*HomeFeed, error) {
	if h.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}

	feed := &HomeFeed{
		Categories:      make([]CategoryRow, 0, len(h.categories)),
		Recommendations: CategoryRow{Name: RecommendationsRow, Books: []models.Book{}},
	}
	seen := make(map[string]bool)
	total := len(h.categories)

	for i, category := range h.categories {
		sendProgress(progress, fetchingCategoryUpdate(i+1, total, category))

		row := CategoryRow{Name: category, Books: []models.Book{}}
		books, err := h.catalog.BooksBySubject(ctx, category, h.categoryLimit)
		if err != nil {
			if ctx.Err() != nil {
				return feed, ctx.Err()
			}
			h.logger.Error("failed to fetch books for category", "category", category, "error", err)
			row.Error = fmt.Sprintf(categoryFailedTemplate, category)
		} else {
			row.Books = dedupe(books, seen)
		}

		feed.Categories = append(feed.Categories, row)
		sendProgress(progress, categoryLoadedUpdate(i+1, total, row))

		if err := h.sleep(ctx, h.delay); err != nil {
			return feed, err
		}
	}

	combined := []models.Book{}
	failed := false
	total = len(h.recommendations)

	for i, category := range h.recommendations {
		sendProgress(progress, fetchingRecommendationsUpdate(i+1, total, category))

		books, err := h.catalog.BooksBySubject(ctx, category, h.recommendationLimit)
		if err != nil {
			if ctx.Err() != nil {
				return feed, ctx.Err()
			}
			h.logger.Error("failed to fetch recommendations", "subject", category, "error", err)
			failed = true
		} else {
			combined = append(combined, dedupe(books, seen)...)
		}

		if err := h.sleep(ctx, h.delay); err != nil {
			return feed, err
		}
	}

	h.shuffle(combined)
	feed.Recommendations.Books = combined
	if failed && len(combined) == 0 {
		feed.Recommendations.Error = RecommendationsFailed
	}
	sendProgress(progress, recommendationsLoadedUpdate(feed.Recommendations))
	return feed, nil
}

// dedupe keeps books whose key has not been seen yet and marks them seen.
func dedupe(books []models.Book, seen map[string]bool) []models.Book {
	out := make([]models.Book, 0, len(books))
	for _, b := range books {
		if seen[b.Key] {
			continue
		}
		seen[b.Key] = true
		out = append(out, b)
	}
	return out
}

func shuffleBooks(books []models.Book) {
	rand.Shuffle(len(books), func(i, j int) { books[i], books[j] = books[j], books[i] })
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// BookDetail holds the three independent parts of a detail view.
//
// Each part has its own error; one failing never affects the others.
type BookDetail struct {
	Book       models.Book
	Details    *models.BookDetails
	DetailsErr error
	Info       *models.Generated
	InfoErr    error
	Reviews    *models.Generated
	ReviewsErr error
}

// DetailLoader fetches catalog details, grounded web info and a review digest for a book.
type DetailLoader struct {
	catalog   services.Catalog
	assistant services.Assistant
}

func NewDetailLoader(catalog services.Catalog, assistant services.Assistant) *DetailLoader {
	return &DetailLoader{catalog: catalog, assistant: assistant}
}

// Load starts all three fetches at once and waits for every one to finish.
func (d *DetailLoader) Load(ctx context.Context, book models.Book, progress chan<- ProgressUpdate) *BookDetail {
	result := &BookDetail{Book: book}
	author := book.PrimaryAuthor()

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		sendProgress(progress, detailPartUpdate(FetchDetails, book))
		if d.catalog == nil {
			result.DetailsErr = fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
			return
		}
		result.Details, result.DetailsErr = d.catalog.BookDetails(ctx, book.Key)
	}()

	go func() {
		defer wg.Done()
		sendProgress(progress, detailPartUpdate(FetchInfo, book))
		if d.assistant == nil {
			result.InfoErr = fmt.Errorf("%w: assistant not initialized", shared.ErrServiceUnavailable)
			return
		}
		result.Info, result.InfoErr = d.assistant.GroundedBookInfo(ctx, book.Title, author)
	}()

	go func() {
		defer wg.Done()
		sendProgress(progress, detailPartUpdate(FetchReviews, book))
		if d.assistant == nil {
			result.ReviewsErr = fmt.Errorf("%w: assistant not initialized", shared.ErrServiceUnavailable)
			return
		}
		result.Reviews, result.ReviewsErr = d.assistant.BookReviews(ctx, book.Title, author)
	}()

	wg.Wait()
	return result
}
