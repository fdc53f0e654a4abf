// Open Library catalog client
package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/raff/internal/models"
	"github.com/desertthunder/raff/internal/shared"
	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

const (
	DefaultCatalogURL = "https://openlibrary.org"
	DefaultCoversURL  = "https://covers.openlibrary.org"

	// PageSize is the fixed number of search hits requested per page.
	PageSize = 40
	// DefaultSubjectLimit applies when BooksBySubject is called with a non-positive limit.
	DefaultSubjectLimit = 50

	searchFields = "key,title,author_name,cover_i,first_publish_year,publisher,isbn,subject,ia,ebook_access"
)

// CoverSize selects a cover image variant.
type CoverSize string

const (
	CoverSmall  CoverSize = "S"
	CoverMedium CoverSize = "M"
	CoverLarge  CoverSize = "L"
)

// subjectWork is one entry of the /subjects/<slug>.json "works" array.
type subjectWork struct {
	Key     string `json:"key"`
	Title   string `json:"title"`
	Authors []struct {
		Key  string `json:"key"`
		Name string `json:"name"`
	} `json:"authors"`
	CoverID          int                  `json:"cover_id"`
	FirstPublishYear int                  `json:"first_publish_year"`
	IA               models.StringOrSlice `json:"ia"`
	HasFulltext      bool                 `json:"has_fulltext"`
	Subject          []string             `json:"subject"`
}

func (w subjectWork) toBook() models.Book {
	book := models.Book{
		Key:              w.Key,
		Title:            w.Title,
		CoverID:          w.CoverID,
		FirstPublishYear: w.FirstPublishYear,
		IA:               w.IA,
		Subject:          w.Subject,
	}
	for _, a := range w.Authors {
		book.AuthorName = append(book.AuthorName, a.Name)
	}
	if w.HasFulltext {
		book.EbookAccess = models.EbookAccessPublic
	}
	return book
}

type subjectResponse struct {
	Name      string        `json:"name"`
	WorkCount int           `json:"work_count"`
	Works     []subjectWork `json:"works"`
}

// OpenLibraryOpts configures an [OpenLibrary] client.
type OpenLibraryOpts struct {
	BaseURL           string
	CoversURL         string
	UserAgent         string
	HTTPClient        *http.Client
	Retrier           *Retrier
	RequestsPerSecond float64 // 0 disables throttling
	Logger            *log.Logger
}

// OpenLibrary implements [Catalog] against the Open Library REST API.
type OpenLibrary struct {
	baseURL    string
	coversURL  string
	userAgent  string
	httpClient *http.Client
	retrier    *Retrier
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewOpenLibrary creates a new catalog client.
func NewOpenLibrary(opts OpenLibraryOpts) *OpenLibrary {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultCatalogURL
	}
	if opts.CoversURL == "" {
		opts.CoversURL = DefaultCoversURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Retrier == nil {
		opts.Retrier = NewRetrier(DefaultMaxAttempts, DefaultBaseDelay, opts.Logger)
	}

	c := &OpenLibrary{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		coversURL:  strings.TrimRight(opts.CoversURL, "/"),
		userAgent:  opts.UserAgent,
		httpClient: opts.HTTPClient,
		retrier:    opts.Retrier,
		logger:     opts.Logger,
	}
	if opts.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return c
}

// Name returns the service name.
func (c *OpenLibrary) Name() string {
	return "Open Library"
}

// SearchBooks runs a full-text search and returns one page of results.
//
// An empty query yields an empty result without contacting the server.
// Page numbers below 1 are treated as 1.
func (c *OpenLibrary) SearchBooks(ctx context.Context, query string, page int) (*models.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return &models.SearchResult{NumFound: 0, Docs: []models.Book{}}, nil
	}
	if page < 1 {
		page = 1
	}

	endpoint := fmt.Sprintf("%s/search.json?q=%s&fields=%s&limit=%d&page=%d",
		c.baseURL, url.QueryEscape(query), searchFields, PageSize, page)

	var result models.SearchResult
	if err := c.get(ctx, endpoint, &result); err != nil {
		return nil, err
	}
	if result.Docs == nil {
		result.Docs = []models.Book{}
	}
	return &result, nil
}

// SearchSeries searches for books in the named series.
func (c *OpenLibrary) SearchSeries(ctx context.Context, name string, page int) (*models.SearchResult, error) {
	return c.SearchBooks(ctx, SeriesQuery(name), page)
}

// SeriesQuery builds the catalog query for a series name.
func SeriesQuery(name string) string {
	return fmt.Sprintf("series:%q", strings.TrimSpace(name))
}

// BookByKey resolves a single book snapshot by its work key.
func (c *OpenLibrary) BookByKey(ctx context.Context, key string) (*models.Book, error) {
	key = normalizeKey(key)
	if key == "" {
		return nil, fmt.Errorf("%w: book key is required", shared.ErrInvalidArgument)
	}

	result, err := c.SearchBooks(ctx, "key:"+key, 1)
	if err != nil {
		return nil, err
	}
	for _, doc := range result.Docs {
		if doc.Key == key {
			return &doc, nil
		}
	}
	return nil, fmt.Errorf("%w: book %s", shared.ErrNotFound, key)
}

// BookDetails fetches the full work record for key (e.g. "/works/OL45883W").
func (c *OpenLibrary) BookDetails(ctx context.Context, key string) (*models.BookDetails, error) {
	key = normalizeKey(key)
	if key == "" {
		return nil, fmt.Errorf("%w: book key is required", shared.ErrInvalidArgument)
	}

	var details models.BookDetails
	if err := c.get(ctx, c.baseURL+key+".json", &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// BooksBySubject lists works filed under subject, mapped to [models.Book].
func (c *OpenLibrary) BooksBySubject(ctx context.Context, subject string, limit int) ([]models.Book, error) {
	slug := SubjectSlug(subject)
	if slug == "" {
		return nil, fmt.Errorf("%w: subject is required", shared.ErrInvalidArgument)
	}
	if limit <= 0 {
		limit = DefaultSubjectLimit
	}

	endpoint := fmt.Sprintf("%s/subjects/%s.json?limit=%d", c.baseURL, url.PathEscape(slug), limit)

	var resp subjectResponse
	if err := c.get(ctx, endpoint, &resp); err != nil {
		return nil, err
	}

	books := make([]models.Book, 0, len(resp.Works))
	for _, w := range resp.Works {
		books = append(books, w.toBook())
	}
	return books, nil
}

// CoverURL derives the cover image link using this client's covers host.
func (c *OpenLibrary) CoverURL(book models.Book, size CoverSize) string {
	return coverURL(c.coversURL, book, size)
}

// SubjectSlug lowercases subject and replaces spaces with underscores.
func SubjectSlug(subject string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(subject)), " ", "_")
}

// CoverURL derives the cover image link for book. The first ISBN is preferred,
// then the cover id; books with neither have no cover and yield "".
func CoverURL(book models.Book, size CoverSize) string {
	return coverURL(DefaultCoversURL, book, size)
}

func coverURL(base string, book models.Book, size CoverSize) string {
	if size == "" {
		size = CoverMedium
	}
	if len(book.ISBN) > 0 && book.ISBN[0] != "" {
		return fmt.Sprintf("%s/b/isbn/%s-%s.jpg", base, book.ISBN[0], size)
	}
	if book.CoverID > 0 {
		return fmt.Sprintf("%s/b/id/%d-%s.jpg", base, book.CoverID, size)
	}
	return ""
}

func normalizeKey(key string) string {
	key = strings.TrimSpace(key)
	if key != "" && !strings.HasPrefix(key, "/") {
		key = "/" + key
	}
	return key
}

// get performs a GET with the retry policy and decodes the JSON body into target.
func (c *OpenLibrary) get(ctx context.Context, endpoint string, target any) error {
	var body []byte
	err := c.retrier.Do(ctx, endpoint, func(ctx context.Context) error {
		b, err := c.doRequest(ctx, endpoint)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		c.logger.Error("catalog request failed", "url", endpoint, "error", err)
		return err
	}

	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("%w: failed to decode %s: %v", shared.ErrFetch, endpoint, err)
	}
	return nil
}

func (c *OpenLibrary) doRequest(ctx context.Context, endpoint string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: endpoint}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}
