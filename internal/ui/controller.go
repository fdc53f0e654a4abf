package ui

import (
	"strings"

	"github.com/desertthunder/raff/internal/models"
	"github.com/desertthunder/raff/internal/services"
)

// View is the top-level screen shown when no book is selected.
type View int

const (
	MainView View = iota
	FavoritesView
	AboutView
	PrivacyView
	DisclaimerView
	DMCAView
)

func (v View) String() string {
	switch v {
	case MainView:
		return "main"
	case FavoritesView:
		return "favorites"
	case AboutView:
		return "about"
	case PrivacyView:
		return "privacy"
	case DisclaimerView:
		return "disclaimer"
	case DMCAView:
		return "dmca"
	default:
		return ""
	}
}

// IsLegal reports whether v is one of the static text pages.
func (v View) IsLegal() bool {
	return v >= AboutView && v <= DMCAView
}

// SearchFailed is shown when a search request fails.
const SearchFailed = "Failed to fetch books. Please try again later."

// ThemeStore persists the theme preference.
type ThemeStore interface {
	Theme() (models.Theme, bool)
	SetTheme(models.Theme)
}

// Controller holds the browsing state behind the TUI: query and debounce,
// paging, sort, selection, active view and theme. It performs no I/O besides
// the theme preference, so every transition is directly testable.
type Controller struct {
	query     string
	debounced string
	page      int
	results   []models.Book
	numFound  int
	sort      SortOption
	selected  *models.Book
	view      View
	theme     models.Theme
	loading   bool
	err       string
	scroll    int

	prefs ThemeStore
}

// NewController resolves the initial theme: the stored preference, else dark
// when darkBackground is set, else light. prefs may be nil.
func NewController(prefs ThemeStore, darkBackground bool) *Controller {
	c := &Controller{page: 1, results: []models.Book{}, prefs: prefs, theme: models.ThemeLight}
	if darkBackground {
		c.theme = models.ThemeDark
	}
	if prefs != nil {
		if t, ok := prefs.Theme(); ok {
			c.theme = t
		}
	}
	return c
}

func (c *Controller) Query() string          { return c.query }
func (c *Controller) DebouncedQuery() string { return c.debounced }
func (c *Controller) Page() int              { return c.page }
func (c *Controller) NumFound() int          { return c.numFound }
func (c *Controller) Sort() SortOption       { return c.sort }
func (c *Controller) View() View             { return c.view }
func (c *Controller) Theme() models.Theme    { return c.theme }
func (c *Controller) Loading() bool          { return c.loading }
func (c *Controller) Err() string            { return c.err }
func (c *Controller) Scroll() int            { return c.scroll }

// Selected returns the book shown in the detail view, if any.
func (c *Controller) Selected() (models.Book, bool) {
	if c.selected == nil {
		return models.Book{}, false
	}
	return *c.selected, true
}

// Results returns the fetched page in server order.
func (c *Controller) Results() []models.Book {
	return c.results
}

// ShowHome reports whether the home feed replaces the results area.
func (c *Controller) ShowHome() bool {
	return !c.loading && c.err == "" && c.debounced == ""
}

// SetQuery records a keystroke-level query change.
func (c *Controller) SetQuery(q string) {
	c.query = q
	c.page = 1
	c.sort = SortRelevance
}

func (c *Controller) ClearQuery() {
	c.SetQuery("")
}

// Settle publishes the current query as the debounced query.
//
// It reports whether a search should run. An empty query clears the results
// instead.
func (c *Controller) Settle() bool {
	c.debounced = strings.TrimSpace(c.query)
	if c.debounced == "" {
		c.results = []models.Book{}
		c.numFound = 0
		c.loading = false
		c.err = ""
		return false
	}
	return true
}

// SearchRequest returns the query and page to fetch, or false when there is nothing to search.
func (c *Controller) SearchRequest() (string, int, bool) {
	if c.debounced == "" {
		return "", 0, false
	}
	return c.debounced, c.page, true
}

// BeginSearch marks a search as in flight.
func (c *Controller) BeginSearch() {
	c.loading = true
	c.err = ""
}

// ApplyResults stores a search response. Responses for a query or page that
// is no longer current are dropped and reported with false.
func (c *Controller) ApplyResults(query string, page int, result *models.SearchResult, err error) bool {
	if query != c.debounced || page != c.page {
		return false
	}
	c.loading = false
	if err != nil {
		c.err = SearchFailed
		return true
	}
	c.err = ""
	if result == nil {
		result = &models.SearchResult{}
	}
	c.results = result.Docs
	if c.results == nil {
		c.results = []models.Book{}
	}
	c.numFound = result.NumFound
	return true
}

// Sorted returns the fetched page ordered by the current sort option.
func (c *Controller) Sorted() []models.Book {
	return SortBooks(c.results, c.sort)
}

func (c *Controller) SetSort(opt SortOption) {
	c.sort = opt
}

// CycleSort advances to the next sort option.
func (c *Controller) CycleSort() SortOption {
	c.sort = (c.sort + 1) % sortOptionCount
	return c.sort
}

// TotalPages is ceil(numFound / page size).
func (c *Controller) TotalPages() int {
	if c.numFound <= 0 {
		return 0
	}
	return (c.numFound + services.PageSize - 1) / services.PageSize
}

// NextPage moves forward one page. It reports false at the last page.
func (c *Controller) NextPage() bool {
	if c.page >= c.TotalPages() {
		return false
	}
	c.page++
	c.scroll = 0
	return true
}

// PrevPage moves back one page. It reports false at page 1.
func (c *Controller) PrevPage() bool {
	if c.page <= 1 {
		return false
	}
	c.page--
	c.scroll = 0
	return true
}

// Select opens the detail view for book.
func (c *Controller) Select(book models.Book) {
	c.selected = &book
	c.scroll = 0
}

// Back closes the detail view, returning to whichever view was active.
func (c *Controller) Back() {
	c.selected = nil
}

func (c *Controller) ShowFavorites() {
	c.selected = nil
	c.view = FavoritesView
	c.scroll = 0
}

// ShowLegal switches to a static text page. Non-legal views are ignored.
func (c *Controller) ShowLegal(v View) {
	if !v.IsLegal() {
		return
	}
	c.selected = nil
	c.view = v
	c.scroll = 0
}

// Home returns to the main view.
func (c *Controller) Home() {
	c.selected = nil
	c.view = MainView
}

// ViewMore searches for a home feed category.
func (c *Controller) ViewMore(category string) {
	c.SetQuery(category)
	c.selected = nil
	c.view = MainView
	c.scroll = 0
}

// SearchSeries searches for every book in a series.
func (c *Controller) SearchSeries(name string) {
	c.SetQuery(services.SeriesQuery(name))
	c.selected = nil
	c.view = MainView
	c.scroll = 0
}

// ToggleTheme flips the theme and persists it.
func (c *Controller) ToggleTheme() models.Theme {
	c.theme = c.theme.Toggle()
	if c.prefs != nil {
		c.prefs.SetTheme(c.theme)
	}
	return c.theme
}
