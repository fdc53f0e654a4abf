package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/raff/internal/models"
	"github.com/desertthunder/raff/internal/repositories"
	"github.com/desertthunder/raff/internal/services"
	"github.com/desertthunder/raff/internal/shared"
	"github.com/desertthunder/raff/internal/tasks"
	json "github.com/goccy/go-json"
)

const maxBodyBytes = 1 << 20

// BookLookup resolves a book snapshot from its key alone.
type BookLookup interface {
	BookByKey(ctx context.Context, key string) (*models.Book, error)
}

// APIOpts contains the collaborators of the API. Any of them may be nil;
// the routes that need a missing one answer 503.
type APIOpts struct {
	Catalog   services.Catalog
	Assistant services.Assistant
	Favorites *repositories.FavoritesStore
	Reviews   *repositories.ReviewStore
	Downloads *repositories.DownloadCounter
	Logger    *log.Logger
}

// API serves the JSON endpoints over the catalog, the assistant and the local stores.
type API struct {
	catalog   services.Catalog
	assistant services.Assistant
	lookup    BookLookup
	details   *tasks.DetailLoader
	favorites *repositories.FavoritesStore
	reviews   *repositories.ReviewStore
	downloads *repositories.DownloadCounter
	logger    *log.Logger
}

func NewAPI(opts APIOpts) *API {
	a := &API{
		catalog:   opts.Catalog,
		assistant: opts.Assistant,
		details:   tasks.NewDetailLoader(opts.Catalog, opts.Assistant),
		favorites: opts.Favorites,
		reviews:   opts.Reviews,
		downloads: opts.Downloads,
		logger:    opts.Logger,
	}
	if lookup, ok := opts.Catalog.(BookLookup); ok {
		a.lookup = lookup
	}
	if a.logger == nil {
		a.logger = shared.NewLogger(nil)
	}
	return a
}

// NewRouter builds a router with logging, panic recovery and gzip applied to every API route.
func NewRouter(api *API, logger *log.Logger) *BasicRouter {
	r := NewBasicRouter()
	r.Use(LoggingMiddleware(logger), RecoverMiddleware(logger), GzipMiddleware())
	api.Register(r)
	return r
}

// Register adds every API route to r.
func (a *API) Register(r *BasicRouter) {
	r.HandleFunc(http.MethodGet, "/health", a.Health)
	r.HandleFunc(http.MethodGet, "/api/search", a.Search)
	r.HandleFunc(http.MethodGet, "/api/details", a.Details)
	r.HandleFunc(http.MethodGet, "/api/subjects", a.Subjects)
	r.HandleFunc(http.MethodGet, "/api/assist/{kind}", a.Assist)
	r.HandleFunc(http.MethodGet, "/api/favorites", a.ListFavorites)
	r.HandleFunc(http.MethodPost, "/api/favorites", a.AddFavorite)
	r.HandleFunc(http.MethodDelete, "/api/favorites", a.RemoveFavorite)
	r.HandleFunc(http.MethodGet, "/api/reviews", a.ListReviews)
	r.HandleFunc(http.MethodPost, "/api/reviews", a.AddReview)
	r.HandleFunc(http.MethodGet, "/api/downloads", a.Downloads)
	r.HandleFunc(http.MethodPost, "/api/downloads", a.RecordDownload)
}

// Health handles GET /health
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":    "ok",
		"catalog":   a.catalog != nil,
		"assistant": a.assistantAvailable(),
	}
	writeSuccess(w, http.StatusOK, status, nil)
}

func (a *API) assistantAvailable() bool {
	if a.assistant == nil {
		return false
	}
	if g, ok := a.assistant.(interface{ Available() bool }); ok {
		return g.Available()
	}
	return true
}

// Search handles GET /api/search?q=&page=
func (a *API) Search(w http.ResponseWriter, r *http.Request) {
	if a.catalog == nil {
		writeErr(w, unavailable("catalog"))
		return
	}

	query := r.URL.Query()
	page := 1
	if p := query.Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			writeErr(w, fmt.Errorf("%w: page must be a positive integer", shared.ErrInvalidArgument))
			return
		}
		page = n
	}

	result, err := a.catalog.SearchBooks(r.Context(), query.Get("q"), page)
	if err != nil {
		a.logger.Error("search failed", "query", query.Get("q"), "page", page, "error", err)
		writeErr(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, result, map[string]any{
		"page":        page,
		"page_size":   services.PageSize,
		"total":       result.NumFound,
		"total_pages": (result.NumFound + services.PageSize - 1) / services.PageSize,
	})
}

type detailResponse struct {
	Key     string              `json:"key"`
	Details *models.BookDetails `json:"details,omitempty"`
	Info    *assistResponse     `json:"info,omitempty"`
	Reviews *assistResponse     `json:"reviews,omitempty"`
	Errors  map[string]string   `json:"errors,omitempty"`
}

// Details handles GET /api/details?key=&title=&author=
//
// The catalog record decides the status; web info and reviews failures are
// reported in the errors map of a 200 response.
func (a *API) Details(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	key := strings.TrimSpace(query.Get("key"))
	if key == "" {
		writeErr(w, fmt.Errorf("%w: key", shared.ErrMissingArgument))
		return
	}

	book := models.Book{Key: key, Title: query.Get("title")}
	if author := query.Get("author"); author != "" {
		book.AuthorName = []string{author}
	}

	detail := a.details.Load(r.Context(), book, nil)
	if detail.DetailsErr != nil {
		a.logger.Error("failed to load details", "key", key, "error", detail.DetailsErr)
		writeErr(w, detail.DetailsErr)
		return
	}

	resp := detailResponse{Key: key, Details: detail.Details, Errors: map[string]string{}}
	if detail.InfoErr != nil {
		resp.Errors["info"] = detail.InfoErr.Error()
	} else {
		resp.Info = newAssistResponse("info", detail.Info)
	}
	if detail.ReviewsErr != nil {
		resp.Errors["reviews"] = detail.ReviewsErr.Error()
	} else {
		resp.Reviews = newAssistResponse("reviews", detail.Reviews)
	}
	if len(resp.Errors) == 0 {
		resp.Errors = nil
	}
	writeSuccess(w, http.StatusOK, resp, nil)
}

// Subjects handles GET /api/subjects?name=&limit=
func (a *API) Subjects(w http.ResponseWriter, r *http.Request) {
	if a.catalog == nil {
		writeErr(w, unavailable("catalog"))
		return
	}

	query := r.URL.Query()
	name := strings.TrimSpace(query.Get("name"))
	if name == "" {
		writeErr(w, fmt.Errorf("%w: name", shared.ErrMissingArgument))
		return
	}
	limit := services.DefaultSubjectLimit
	if l := query.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 {
			writeErr(w, fmt.Errorf("%w: limit must be a positive integer", shared.ErrInvalidArgument))
			return
		}
		limit = n
	}

	books, err := a.catalog.BooksBySubject(r.Context(), name, limit)
	if err != nil {
		a.logger.Error("subject fetch failed", "subject", name, "error", err)
		writeErr(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, books, map[string]any{"subject": name, "count": len(books)})
}

type assistResponse struct {
	Kind    string             `json:"kind"`
	Text    string             `json:"text"`
	Sources []models.WebSource `json:"sources,omitempty"`
	Reviews []string           `json:"reviews,omitempty"`
}

func newAssistResponse(kind string, gen *models.Generated) *assistResponse {
	if gen == nil {
		return &assistResponse{Kind: kind}
	}
	resp := &assistResponse{Kind: kind, Text: gen.Text, Sources: gen.Sources()}
	if kind == "reviews" {
		resp.Reviews = gen.ReviewLines()
	}
	return resp
}

// Assist handles GET /api/assist/{kind}?title=&author= for kind info, reviews or summary.
func (a *API) Assist(w http.ResponseWriter, r *http.Request) {
	if a.assistant == nil {
		writeErr(w, unavailable("assistant"))
		return
	}

	kind := r.PathValue("kind")
	title := strings.TrimSpace(r.URL.Query().Get("title"))
	author := strings.TrimSpace(r.URL.Query().Get("author"))
	if title == "" {
		writeErr(w, fmt.Errorf("%w: title", shared.ErrMissingArgument))
		return
	}

	var (
		gen *models.Generated
		err error
	)
	switch kind {
	case "info":
		gen, err = a.assistant.GroundedBookInfo(r.Context(), title, author)
	case "reviews":
		gen, err = a.assistant.BookReviews(r.Context(), title, author)
	case "summary":
		gen, err = a.assistant.BookSummary(r.Context(), title, author)
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("unknown assist kind %q", kind))
		return
	}
	if err != nil {
		a.logger.Error("assist failed", "kind", kind, "title", title, "error", err)
		writeErr(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, newAssistResponse(kind, gen), nil)
}

// ListFavorites handles GET /api/favorites
func (a *API) ListFavorites(w http.ResponseWriter, r *http.Request) {
	if a.favorites == nil {
		writeErr(w, unavailable("favorites"))
		return
	}
	books := a.favorites.List()
	writeSuccess(w, http.StatusOK, books, map[string]any{"count": len(books)})
}

// AddFavorite handles POST /api/favorites with a book body.
//
// A body with only a key is resolved through the catalog first. Responds 201
// when added and 200 when the book was already a favorite.
func (a *API) AddFavorite(w http.ResponseWriter, r *http.Request) {
	if a.favorites == nil {
		writeErr(w, unavailable("favorites"))
		return
	}

	var book models.Book
	if err := decodeBody(w, r, &book); err != nil {
		writeErr(w, err)
		return
	}
	book.Key = strings.TrimSpace(book.Key)
	if book.Key == "" {
		writeErr(w, fmt.Errorf("%w: key", shared.ErrMissingArgument))
		return
	}

	if book.Title == "" && a.lookup != nil {
		found, err := a.lookup.BookByKey(r.Context(), book.Key)
		if err != nil {
			writeErr(w, err)
			return
		}
		book = *found
	}

	status := http.StatusOK
	if a.favorites.Add(book) {
		status = http.StatusCreated
	}
	writeSuccess(w, status, book, map[string]any{"count": a.favorites.Len()})
}

// RemoveFavorite handles DELETE /api/favorites?key=
func (a *API) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	if a.favorites == nil {
		writeErr(w, unavailable("favorites"))
		return
	}

	key := strings.TrimSpace(r.URL.Query().Get("key"))
	if key == "" {
		writeErr(w, fmt.Errorf("%w: key", shared.ErrMissingArgument))
		return
	}
	if !a.favorites.Remove(key) {
		writeErr(w, fmt.Errorf("%w: %s is not a favorite", shared.ErrNotFound, key))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListReviews handles GET /api/reviews?key=
func (a *API) ListReviews(w http.ResponseWriter, r *http.Request) {
	if a.reviews == nil {
		writeErr(w, unavailable("reviews"))
		return
	}

	key := strings.TrimSpace(r.URL.Query().Get("key"))
	if key == "" {
		writeErr(w, fmt.Errorf("%w: key", shared.ErrMissingArgument))
		return
	}
	reviews := a.reviews.List(key)
	writeSuccess(w, http.StatusOK, reviews, map[string]any{"key": key, "count": len(reviews)})
}

type reviewRequest struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// AddReview handles POST /api/reviews with {"key": ..., "text": ...}.
func (a *API) AddReview(w http.ResponseWriter, r *http.Request) {
	if a.reviews == nil {
		writeErr(w, unavailable("reviews"))
		return
	}

	var req reviewRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeErr(w, err)
		return
	}
	req.Key = strings.TrimSpace(req.Key)
	if req.Key == "" {
		writeErr(w, fmt.Errorf("%w: key", shared.ErrMissingArgument))
		return
	}

	review, ok := a.reviews.Add(req.Key, req.Text)
	if !ok {
		writeErr(w, fmt.Errorf("%w: review text is empty", shared.ErrInvalidArgument))
		return
	}
	writeSuccess(w, http.StatusCreated, review, map[string]any{"key": req.Key})
}

type downloadResponse struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Downloads handles GET /api/downloads and GET /api/downloads?key=
func (a *API) Downloads(w http.ResponseWriter, r *http.Request) {
	if a.downloads == nil {
		writeErr(w, unavailable("downloads"))
		return
	}

	if key := strings.TrimSpace(r.URL.Query().Get("key")); key != "" {
		writeSuccess(w, http.StatusOK, downloadResponse{Key: key, Count: a.downloads.Count(key)}, nil)
		return
	}
	all := a.downloads.All()
	writeSuccess(w, http.StatusOK, all, map[string]any{"count": len(all)})
}

// RecordDownload handles POST /api/downloads with {"key": ...}.
func (a *API) RecordDownload(w http.ResponseWriter, r *http.Request) {
	if a.downloads == nil {
		writeErr(w, unavailable("downloads"))
		return
	}

	var req struct {
		Key string `json:"key"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeErr(w, err)
		return
	}
	key := strings.TrimSpace(req.Key)
	if key == "" {
		writeErr(w, fmt.Errorf("%w: key", shared.ErrMissingArgument))
		return
	}
	writeSuccess(w, http.StatusOK, downloadResponse{Key: key, Count: a.downloads.Increment(key)}, nil)
}

func decodeBody(w http.ResponseWriter, r *http.Request, target any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", shared.ErrInvalidInput, err)
	}
	return nil
}

func unavailable(name string) error {
	return fmt.Errorf("%w: %s not initialized", shared.ErrServiceUnavailable, name)
}
