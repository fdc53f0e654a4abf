package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/raff/internal/models"
)

const appTitle = "Raff ElKalimat"

// View renders the current state of the model as a string.
func (m *Model) View() string {
	p := PaletteFor(m.ctrl.Theme())

	if m.showWelcome {
		return m.place(p.banner.Render(appTitle + "\n\nWelcome! Discover, read and collect books."))
	}
	if m.downloadTarget != nil {
		return m.place(m.renderConfirm(p))
	}

	var b strings.Builder
	b.WriteString(p.title.Render(fmt.Sprintf("%s  [%s theme]", appTitle, m.ctrl.Theme())))
	b.WriteString("\n")
	b.WriteString(m.search.View())
	b.WriteString("\n\n")

	switch {
	case m.hasSelection():
		b.WriteString(m.viewport.View())
		if m.focus == focusReview {
			b.WriteString("\n" + m.reviewInput.View())
		}
	case m.ctrl.View() == FavoritesView:
		b.WriteString(m.renderFavorites(p))
	case m.ctrl.View().IsLegal():
		b.WriteString(m.viewport.View())
	case m.ctrl.ShowHome():
		b.WriteString(m.renderHome(p))
	default:
		b.WriteString(m.renderResults(p))
	}

	b.WriteString("\n")
	if m.status != "" {
		style := p.ok
		if m.statusErr {
			style = p.err
		}
		b.WriteString(style.Render(m.status) + "\n")
	}
	b.WriteString(p.help.Render(m.help.View(m.keys)))
	return b.String()
}

func (m *Model) hasSelection() bool {
	_, ok := m.ctrl.Selected()
	return ok
}

func (m *Model) place(s string) string {
	if m.width == 0 || m.height == 0 {
		return s
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, s)
}

func (m *Model) renderConfirm(p *Palette) string {
	book := m.downloadTarget
	body := fmt.Sprintf("Download %q by %s?\n\nThe PDF will be saved to %s\n\n", book.Title, book.AuthorLine(), m.downloadDir)
	return p.modal.Render(p.heading.Render("Download Book") + "\n\n" + body + p.help.Render("y: download • n/esc: cancel"))
}

func (m *Model) renderHome(p *Palette) string {
	var b strings.Builder
	vis := m.home.visibleRows()
	if len(vis) == 0 {
		return p.help.Render("No books to show.")
	}

	for i, idx := range vis {
		row := m.home.rows[idx]
		heading := row.name
		if i == m.home.row {
			heading = "> " + heading
		}
		b.WriteString(p.heading.Render(heading) + "\n")

		switch {
		case row.loading:
			b.WriteString(m.spinner.View() + " Loading...\n")
		case row.err != "":
			b.WriteString(p.err.Render(row.err) + "\n")
		default:
			b.WriteString(m.renderShelf(p, row, i == m.home.row) + "\n")
		}
	}
	b.WriteString(p.help.Render("enter: open • m: view more • f: favorite"))
	return b.String()
}

// renderShelf shows a window of titles around the cursor.
func (m *Model) renderShelf(p *Palette, row homeRow, active bool) string {
	const window = 4
	start := 0
	if active && m.home.col >= window {
		start = m.home.col - window + 1
	}
	end := min(start+window, len(row.books))

	cells := make([]string, 0, end-start)
	for j := start; j < end; j++ {
		title := truncate(row.books[j].Title, 24)
		if m.isFavorite(row.books[j].Key) {
			title = "♥ " + title
		}
		if active && j == m.home.col {
			title = p.selected.Render(title)
		}
		cells = append(cells, title)
	}
	line := strings.Join(cells, "  |  ")
	if end < len(row.books) {
		line += fmt.Sprintf("  (+%d)", len(row.books)-end)
	}
	return line
}

func (m *Model) renderResults(p *Palette) string {
	if m.ctrl.Loading() {
		return m.spinner.View() + " Searching..."
	}
	if err := m.ctrl.Err(); err != "" {
		return p.err.Render(err)
	}
	if len(m.ctrl.Results()) == 0 {
		return p.help.Render(fmt.Sprintf("No books found for %q.", m.ctrl.DebouncedQuery()))
	}

	var b strings.Builder
	b.WriteString(p.help.Render(fmt.Sprintf("%d results • sort: %s", m.ctrl.NumFound(), m.ctrl.Sort().Label())))
	b.WriteString("\n")
	b.WriteString(m.results.View())
	if total := m.ctrl.TotalPages(); total > 1 {
		b.WriteString("\n" + p.help.Render(fmt.Sprintf("Page %d of %d", m.ctrl.Page(), total)))
	}
	return b.String()
}

func (m *Model) renderFavorites(p *Palette) string {
	if m.favorites == nil || m.favorites.Len() == 0 {
		return p.help.Render("You have no favorite books yet. Press f on any book to add it.")
	}
	return m.favList.View()
}

// refreshViewport rebuilds the scrollable content for the detail view or a static page.
func (m *Model) refreshViewport() {
	p := PaletteFor(m.ctrl.Theme())
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}

	if book, ok := m.ctrl.Selected(); ok {
		m.viewport.SetContent(m.renderDetail(p, book, width))
		return
	}
	if v := m.ctrl.View(); v.IsLegal() {
		text, err := LegalPage(v)
		if err != nil {
			text = p.err.Render(err.Error())
		}
		m.viewport.SetContent(lipgloss.NewStyle().Width(width).Render(text))
	}
}

func (m *Model) renderDetail(p *Palette, book models.Book, width int) string {
	wrap := lipgloss.NewStyle().Width(width)
	d := m.detail
	var b strings.Builder

	title := book.Title
	if m.isFavorite(book.Key) {
		title = "♥ " + title
	}
	b.WriteString(p.title.Render(title) + "\n")
	b.WriteString(book.AuthorLine())
	if book.FirstPublishYear > 0 {
		fmt.Fprintf(&b, " (%d)", book.FirstPublishYear)
	}
	b.WriteString("\n")
	if len(book.Series) > 0 {
		b.WriteString("Series: " + book.Series[0] + "  (e: show series)\n")
	}
	if book.CanRead() {
		b.WriteString(p.ok.Render("Free to read") + "  " + book.ReadURL() + "\n")
	}
	if n := m.downloadCount(book.Key); n > 0 {
		fmt.Fprintf(&b, "Downloaded %d times\n", n)
	}
	b.WriteString(p.help.Render("Share: "+book.ShareURL()) + "\n\n")

	b.WriteString(p.heading.Render("Description") + "\n")
	switch {
	case d.detailsLoading:
		b.WriteString(m.spinner.View() + " Loading...\n")
	case d.detailsErr != "":
		b.WriteString(p.err.Render(d.detailsErr) + "\n")
	default:
		b.WriteString(wrap.Render(d.details.DescriptionText()) + "\n")
		if d.details != nil && len(d.details.Subjects) > 0 {
			subjects := d.details.Subjects
			if len(subjects) > 8 {
				subjects = subjects[:8]
			}
			b.WriteString(p.help.Render("Subjects: "+strings.Join(subjects, ", ")) + "\n")
		}
	}
	b.WriteString("\n")

	b.WriteString(p.heading.Render("From the Web") + "\n")
	switch {
	case d.infoLoading:
		b.WriteString(m.spinner.View() + " Loading...\n")
	case d.infoErr != "":
		b.WriteString(p.err.Render(d.infoErr) + "\n")
	case d.info != nil:
		b.WriteString(wrap.Render(d.info.Text) + "\n")
		if sources := d.info.Sources(); len(sources) > 0 {
			b.WriteString(p.help.Render("Sources:") + "\n")
			for _, s := range sources {
				label := s.Title
				if label == "" {
					label = s.URI
				}
				fmt.Fprintf(&b, "  - %s (%s)\n", label, s.URI)
			}
		}
	}
	b.WriteString("\n")

	b.WriteString(p.heading.Render("Reviews from the Web") + "\n")
	switch {
	case d.reviewsLoading:
		b.WriteString(m.spinner.View() + " Loading...\n")
	case d.reviewsErr != "":
		b.WriteString(p.err.Render(d.reviewsErr) + "\n")
	default:
		lines := d.reviews.ReviewLines()
		if len(lines) == 0 {
			b.WriteString(p.help.Render("No reviews found.") + "\n")
		}
		for _, line := range lines {
			b.WriteString(wrap.Render(strings.TrimSpace(line)) + "\n")
		}
	}
	b.WriteString("\n")

	b.WriteString(p.heading.Render("AI Summary") + "\n")
	switch {
	case d.summaryLoading:
		b.WriteString(m.spinner.View() + " Generating...\n")
	case d.summaryErr != "":
		b.WriteString(p.err.Render(d.summaryErr) + "\n")
	case d.summary != nil:
		b.WriteString(wrap.Render(d.summary.Text) + "\n")
	default:
		b.WriteString(p.help.Render("Press S to generate a summary.") + "\n")
	}
	b.WriteString("\n")

	b.WriteString(p.heading.Render("Your Reviews") + "\n")
	var reviews []models.UserReview
	if m.reviews != nil {
		reviews = m.reviews.List(book.Key)
	}
	if len(reviews) == 0 {
		b.WriteString(p.help.Render("No reviews yet. Press r to write one.") + "\n")
	}
	for _, r := range reviews {
		date := r.Date
		if t, err := r.Time(); err == nil {
			date = t.Local().Format("Jan 2, 2006")
		}
		b.WriteString(p.warn.Render(date) + "\n")
		b.WriteString(wrap.Render(r.Text) + "\n")
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
