package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/raff/internal/models"
	"github.com/desertthunder/raff/internal/repositories"
	"github.com/desertthunder/raff/internal/services"
	"github.com/desertthunder/raff/internal/shared"
	"github.com/desertthunder/raff/internal/tasks"
)

const (
	// DebounceDelay is how long the search input must stay unchanged before a search runs.
	DebounceDelay = 500 * time.Millisecond
	// WelcomeDuration is how long the first-visit banner stays up.
	WelcomeDuration = 2 * time.Second
)

// focus is the component receiving keystrokes.
type focus int

const (
	focusContent focus = iota
	focusSearch
	focusReview
)

// detailState holds the independent parts of the detail view, each with its own loading and error state.
type detailState struct {
	key string

	details        *models.BookDetails
	detailsLoading bool
	detailsErr     string

	info        *models.Generated
	infoLoading bool
	infoErr     string

	reviews        *models.Generated
	reviewsLoading bool
	reviewsErr     string

	summary        *models.Generated
	summaryLoading bool
	summaryErr     string
}

// ModelOpts contains the collaborators of the TUI. Stores may be nil.
type ModelOpts struct {
	Catalog        services.Catalog
	Assistant      services.Assistant
	Downloader     tasks.Downloader
	Home           *tasks.HomeLoader
	Favorites      *repositories.FavoritesStore
	Reviews        *repositories.ReviewStore
	Downloads      *repositories.DownloadCounter
	Preferences    *repositories.Preferences
	DownloadDir    string
	DarkBackground bool
	Logger         *log.Logger
}

// Model represents the TUI application state.
type Model struct {
	ctx  context.Context
	ctrl *Controller

	catalog     services.Catalog
	assistant   services.Assistant
	downloader  tasks.Downloader
	homeLoader  *tasks.HomeLoader
	favorites   *repositories.FavoritesStore
	reviews     *repositories.ReviewStore
	downloads   *repositories.DownloadCounter
	prefs       *repositories.Preferences
	downloadDir string
	logger      *log.Logger

	width  int
	height int
	focus  focus
	seq    int

	search      textinput.Model
	reviewInput textinput.Model
	results     list.Model
	favList     list.Model
	viewport    viewport.Model
	spinner     spinner.Model
	help        help.Model
	keys        keyMap

	home         homeState
	homeProgress chan tasks.ProgressUpdate
	homeDone     chan homeDoneMsg

	detail         detailState
	downloadTarget *models.Book
	showWelcome    bool
	status         string
	statusErr      bool
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts ModelOpts) *Model {
	var themes ThemeStore
	if opts.Preferences != nil {
		themes = opts.Preferences
	}
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	dir := opts.DownloadDir
	if dir == "" {
		dir = "."
	}

	search := textinput.New()
	search.Placeholder = "Search for books, authors, or subjects..."
	search.Prompt = "/ "
	search.CharLimit = 200

	review := textinput.New()
	review.Placeholder = "Share your thoughts about this book..."
	review.Prompt = "> "
	review.CharLimit = 1000

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		ctx:         ctx,
		ctrl:        NewController(themes, opts.DarkBackground),
		catalog:     opts.Catalog,
		assistant:   opts.Assistant,
		downloader:  opts.Downloader,
		homeLoader:  opts.Home,
		favorites:   opts.Favorites,
		reviews:     opts.Reviews,
		downloads:   opts.Downloads,
		prefs:       opts.Preferences,
		downloadDir: dir,
		logger:      logger,
		search:      search,
		reviewInput: review,
		results:     newBookList("Results"),
		favList:     newBookList("My Favorite Books"),
		viewport:    viewport.New(0, 0),
		spinner:     sp,
		help:        help.New(),
		keys:        newKeyMap(),
	}
	if m.homeLoader != nil {
		m.home = newHomeState(m.homeLoader.Rows())
	}
	return m
}

// Controller exposes the browsing state, mainly for tests.
func (m *Model) Controller() *Controller {
	return m.ctrl
}

// Init starts the home feed, the spinner and, on a first visit, the welcome banner.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, m.startHome()}
	if m.prefs != nil && m.prefs.FirstVisit() {
		m.showWelcome = true
		cmds = append(cmds, tea.Tick(WelcomeDuration, func(time.Time) tea.Msg { return hideWelcomeMsg{} }))
	}
	return tea.Batch(cmds...)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.detailLoading() {
			m.refreshViewport()
		}
		return m, cmd

	case debounceMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		return m, m.settle()

	case searchResultMsg:
		if m.ctrl.ApplyResults(msg.query, msg.page, msg.result, msg.err) {
			if msg.err != nil {
				m.logger.Error("search failed", "query", msg.query, "page", msg.page, "error", msg.err)
			}
			m.refreshResults()
		}
		return m, nil

	case homeProgressMsg:
		if row, ok := msg.Data.(tasks.CategoryRow); ok {
			m.home.apply(row)
		}
		return m, m.waitForHome()

	case homeDoneMsg:
		if msg.feed != nil {
			for _, row := range msg.feed.Categories {
				m.home.apply(row)
			}
			m.home.apply(msg.feed.Recommendations)
		}
		m.home.finish(msg.err)
		m.homeProgress = nil
		m.homeDone = nil
		return m, nil

	case detailsMsg:
		if msg.key == m.detail.key {
			m.detail.detailsLoading = false
			m.detail.details = msg.details
			if msg.err != nil {
				m.logger.Error("failed to load details", "key", msg.key, "error", msg.err)
				m.detail.detailsErr = "Could not load book details."
			}
			m.refreshViewport()
		}
		return m, nil

	case generatedMsg:
		if msg.key == m.detail.key {
			m.applyGenerated(msg)
			m.refreshViewport()
		}
		return m, nil

	case downloadMsg:
		if msg.err != nil {
			m.logger.Error("download failed", "key", msg.book.Key, "error", msg.err)
			m.setStatus("Download failed: "+msg.err.Error(), true)
		} else {
			m.setStatus("Saved "+msg.path, false)
		}
		m.refreshResults()
		m.refreshFavorites()
		m.refreshViewport()
		return m, nil

	case openedMsg:
		if msg.err != nil {
			m.setStatus("Could not open browser: "+msg.err.Error(), true)
		}
		return m, nil

	case hideWelcomeMsg:
		m.showWelcome = false
		return m, nil
	}

	return m, nil
}

func (m *Model) resize() {
	bodyHeight := m.height - 8
	if bodyHeight < 5 {
		bodyHeight = 5
	}
	m.results.SetSize(m.width-4, bodyHeight)
	m.favList.SetSize(m.width-4, bodyHeight)
	m.viewport.Width = m.width - 4
	m.viewport.Height = bodyHeight
	m.search.Width = m.width - 8
	m.reviewInput.Width = m.width - 8
	m.refreshViewport()
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.downloadTarget != nil {
		return m.handleConfirmKeys(msg)
	}

	switch m.focus {
	case focusSearch:
		return m.handleSearchKeys(msg)
	case focusReview:
		return m.handleReviewKeys(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.search):
		m.ctrl.Home()
		m.focus = focusSearch
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.theme):
		m.ctrl.ToggleTheme()
		m.refreshViewport()
		return m, nil
	case key.Matches(msg, m.keys.favorites):
		m.ctrl.ShowFavorites()
		m.refreshFavorites()
		return m, nil
	case key.Matches(msg, m.keys.home):
		m.ctrl.Home()
		return m, nil
	case key.Matches(msg, m.keys.about):
		return m, m.showLegal(AboutView)
	case key.Matches(msg, m.keys.privacy):
		return m, m.showLegal(PrivacyView)
	case key.Matches(msg, m.keys.disclaimer):
		return m, m.showLegal(DisclaimerView)
	case key.Matches(msg, m.keys.dmca):
		return m, m.showLegal(DMCAView)
	}

	if _, ok := m.ctrl.Selected(); ok {
		return m.handleDetailKeys(msg)
	}

	switch m.ctrl.View() {
	case FavoritesView:
		return m.handleFavoritesKeys(msg)
	case MainView:
		if m.ctrl.ShowHome() {
			return m.handleHomeKeys(msg)
		}
		return m.handleResultsKeys(msg)
	default:
		if key.Matches(msg, m.keys.back) {
			m.ctrl.Home()
			return m, nil
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "tab", "down":
		m.search.Blur()
		m.focus = focusContent
		return m, nil
	case "enter":
		m.search.Blur()
		m.focus = focusContent
		m.seq++
		return m, m.settle()
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() == before {
		return m, cmd
	}

	m.ctrl.SetQuery(m.search.Value())
	m.seq++
	return m, tea.Batch(cmd, m.debounce())
}

func (m *Model) handleReviewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.reviewInput.Blur()
		m.focus = focusContent
		return m, nil
	case "enter":
		book, ok := m.ctrl.Selected()
		if ok && m.reviews != nil {
			if _, added := m.reviews.Add(book.Key, m.reviewInput.Value()); added {
				m.reviewInput.SetValue("")
				m.reviewInput.Blur()
				m.focus = focusContent
				m.setStatus("Review saved", false)
				m.refreshViewport()
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.reviewInput, cmd = m.reviewInput.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		book := *m.downloadTarget
		m.downloadTarget = nil
		m.setStatus("Downloading "+book.Title+"...", false)
		return m, m.downloadCmd(book)
	case key.Matches(msg, m.keys.no):
		m.downloadTarget = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	book, _ := m.ctrl.Selected()

	switch {
	case key.Matches(msg, m.keys.back):
		m.ctrl.Back()
		m.detail = detailState{}
		m.refreshResults()
		m.refreshFavorites()
		return m, nil
	case key.Matches(msg, m.keys.favorite):
		m.toggleFavorite(book)
		m.refreshViewport()
		return m, nil
	case key.Matches(msg, m.keys.download):
		m.requestDownload(book)
		return m, nil
	case key.Matches(msg, m.keys.open):
		target := book.ReadURL()
		if target == "" {
			target = book.ShareURL()
		}
		return m, openCmd(target)
	case key.Matches(msg, m.keys.series):
		if len(book.Series) == 0 {
			return m, nil
		}
		m.ctrl.SearchSeries(book.Series[0])
		return m, m.applyQuery()
	case key.Matches(msg, m.keys.summary):
		if m.detail.summaryLoading {
			return m, nil
		}
		m.detail.summary = nil
		m.detail.summaryErr = ""
		m.detail.summaryLoading = true
		m.refreshViewport()
		return m, m.generateCmd(book, partSummary)
	case key.Matches(msg, m.keys.review):
		m.focus = focusReview
		return m, m.reviewInput.Focus()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) handleHomeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.up):
		m.home.move(-1, 0)
	case key.Matches(msg, m.keys.down):
		m.home.move(1, 0)
	case key.Matches(msg, m.keys.left):
		m.home.move(0, -1)
	case key.Matches(msg, m.keys.right):
		m.home.move(0, 1)
	case key.Matches(msg, m.keys.enter):
		if book, ok := m.home.selected(); ok {
			return m, m.selectBook(book)
		}
	case key.Matches(msg, m.keys.viewMore):
		if row, ok := m.home.current(); ok && row.name != tasks.RecommendationsRow {
			m.ctrl.ViewMore(row.name)
			return m, m.applyQuery()
		}
	case key.Matches(msg, m.keys.favorite):
		if book, ok := m.home.selected(); ok {
			m.toggleFavorite(book)
		}
	case key.Matches(msg, m.keys.download):
		if book, ok := m.home.selected(); ok {
			m.requestDownload(book)
		}
	case key.Matches(msg, m.keys.series):
		if book, ok := m.home.selected(); ok && len(book.Series) > 0 {
			m.ctrl.SearchSeries(book.Series[0])
			return m, m.applyQuery()
		}
	}
	return m, nil
}

func (m *Model) handleResultsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.search.SetValue("")
		m.ctrl.ClearQuery()
		m.seq++
		return m, m.settle()
	case key.Matches(msg, m.keys.enter):
		if book, ok := selectedBook(m.results); ok {
			return m, m.selectBook(book)
		}
		return m, nil
	case key.Matches(msg, m.keys.sort):
		m.ctrl.CycleSort()
		m.refreshResults()
		return m, nil
	case key.Matches(msg, m.keys.nextPage):
		if m.ctrl.NextPage() {
			return m, m.searchCmd()
		}
		return m, nil
	case key.Matches(msg, m.keys.prevPage):
		if m.ctrl.PrevPage() {
			return m, m.searchCmd()
		}
		return m, nil
	case key.Matches(msg, m.keys.favorite):
		if book, ok := selectedBook(m.results); ok {
			m.toggleFavorite(book)
		}
		return m, nil
	case key.Matches(msg, m.keys.download):
		if book, ok := selectedBook(m.results); ok {
			m.requestDownload(book)
		}
		return m, nil
	case key.Matches(msg, m.keys.series):
		if book, ok := selectedBook(m.results); ok && len(book.Series) > 0 {
			m.ctrl.SearchSeries(book.Series[0])
			return m, m.applyQuery()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.results, cmd = m.results.Update(msg)
	return m, cmd
}

func (m *Model) handleFavoritesKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.ctrl.Home()
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if book, ok := selectedBook(m.favList); ok {
			return m, m.selectBook(book)
		}
		return m, nil
	case key.Matches(msg, m.keys.favorite):
		if book, ok := selectedBook(m.favList); ok {
			m.toggleFavorite(book)
		}
		return m, nil
	case key.Matches(msg, m.keys.download):
		if book, ok := selectedBook(m.favList); ok {
			m.requestDownload(book)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.favList, cmd = m.favList.Update(msg)
	return m, cmd
}

// selectBook opens the detail view and starts its three independent fetches.
func (m *Model) selectBook(book models.Book) tea.Cmd {
	m.ctrl.Select(book)
	m.detail = detailState{
		key:            book.Key,
		detailsLoading: true,
		infoLoading:    true,
		reviewsLoading: true,
	}
	m.viewport.GotoTop()
	m.refreshViewport()
	return tea.Batch(
		m.detailsCmd(book),
		m.generateCmd(book, partInfo),
		m.generateCmd(book, partReviews),
	)
}

func (m *Model) applyGenerated(msg generatedMsg) {
	switch msg.part {
	case partInfo:
		m.detail.infoLoading = false
		m.detail.info = msg.gen
		if msg.err != nil {
			m.logger.Error("failed to load web info", "key", msg.key, "error", msg.err)
			m.detail.infoErr = "Could not load extra information from the web."
		}
	case partReviews:
		m.detail.reviewsLoading = false
		m.detail.reviews = msg.gen
		if msg.err != nil {
			m.logger.Error("failed to load web reviews", "key", msg.key, "error", msg.err)
			m.detail.reviewsErr = "Could not load reviews from the web."
		}
	case partSummary:
		m.detail.summaryLoading = false
		m.detail.summary = msg.gen
		if msg.err != nil {
			m.logger.Error("failed to generate summary", "key", msg.key, "error", msg.err)
			m.detail.summaryErr = "Could not generate an AI summary for this book. Please try again."
		}
	}
}

// applyQuery mirrors a controller-driven query change into the input and searches immediately.
func (m *Model) applyQuery() tea.Cmd {
	m.search.SetValue(m.ctrl.Query())
	m.focus = focusContent
	m.search.Blur()
	m.detail = detailState{}
	m.seq++
	return m.settle()
}

func (m *Model) toggleFavorite(book models.Book) {
	if m.favorites == nil {
		return
	}
	if m.favorites.Toggle(book) {
		m.setStatus("Added to favorites: "+book.Title, false)
	} else {
		m.setStatus("Removed from favorites: "+book.Title, false)
	}
	m.refreshResults()
	m.refreshFavorites()
}

func (m *Model) requestDownload(book models.Book) {
	if !book.CanRead() {
		m.setStatus("This book is not available for download.", true)
		return
	}
	m.downloadTarget = &book
}

func (m *Model) showLegal(v View) tea.Cmd {
	m.ctrl.ShowLegal(v)
	m.viewport.GotoTop()
	m.refreshViewport()
	return nil
}

func (m *Model) detailLoading() bool {
	d := m.detail
	return d.key != "" && (d.detailsLoading || d.infoLoading || d.reviewsLoading || d.summaryLoading)
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

func (m *Model) isFavorite(key string) bool {
	return m.favorites != nil && m.favorites.IsFavorite(key)
}

func (m *Model) downloadCount(key string) int {
	if m.downloads == nil {
		return 0
	}
	return m.downloads.Count(key)
}

func (m *Model) refreshResults() {
	m.results.SetItems(bookItems(m.ctrl.Sorted(), m.isFavorite, m.downloadCount))
}

func (m *Model) refreshFavorites() {
	if m.favorites == nil {
		return
	}
	m.favList.SetItems(bookItems(m.favorites.List(), m.isFavorite, m.downloadCount))
}

func selectedBook(l list.Model) (models.Book, bool) {
	item, ok := l.SelectedItem().(bookItem)
	if !ok {
		return models.Book{}, false
	}
	return item.book, true
}
