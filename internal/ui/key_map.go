package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up         key.Binding
	down       key.Binding
	left       key.Binding
	right      key.Binding
	enter      key.Binding
	back       key.Binding
	search     key.Binding
	home       key.Binding
	favorite   key.Binding
	favorites  key.Binding
	sort       key.Binding
	nextPage   key.Binding
	prevPage   key.Binding
	viewMore   key.Binding
	series     key.Binding
	summary    key.Binding
	review     key.Binding
	download   key.Binding
	open       key.Binding
	theme      key.Binding
	about      key.Binding
	privacy    key.Binding
	disclaimer key.Binding
	dmca       key.Binding
	yes        key.Binding
	no         key.Binding
	quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		left:       key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
		right:      key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
		enter:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		search:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		home:       key.NewBinding(key.WithKeys("H"), key.WithHelp("H", "home")),
		favorite:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "favorite")),
		favorites:  key.NewBinding(key.WithKeys("F"), key.WithHelp("F", "favorites")),
		sort:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
		nextPage:   key.NewBinding(key.WithKeys("]", "pgdown"), key.WithHelp("]", "next page")),
		prevPage:   key.NewBinding(key.WithKeys("[", "pgup"), key.WithHelp("[", "prev page")),
		viewMore:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "view more")),
		series:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "series")),
		summary:    key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "ai summary")),
		review:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "write review")),
		download:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "download")),
		open:       key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open")),
		theme:      key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),
		about:      key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "about")),
		privacy:    key.NewBinding(key.WithKeys("P"), key.WithHelp("P", "privacy")),
		disclaimer: key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "disclaimer")),
		dmca:       key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "dmca")),
		yes:        key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:         key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.search, k.favorites, k.theme, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.left, k.right, k.enter, k.back},
		{k.search, k.sort, k.prevPage, k.nextPage, k.viewMore},
		{k.favorite, k.favorites, k.download, k.open, k.series},
		{k.summary, k.review, k.theme, k.home},
		{k.about, k.privacy, k.disclaimer, k.dmca, k.quit},
	}
}
