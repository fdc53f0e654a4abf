package ui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/raff/internal/models"
	"github.com/desertthunder/raff/internal/shared"
	"github.com/desertthunder/raff/internal/tasks"
)

// debounce schedules a settle for the current sequence number.
func (m *Model) debounce() tea.Cmd {
	seq := m.seq
	return tea.Tick(DebounceDelay, func(time.Time) tea.Msg { return debounceMsg{seq: seq} })
}

// settle publishes the typed query and starts a search when it is non-empty.
func (m *Model) settle() tea.Cmd {
	if !m.ctrl.Settle() {
		m.refreshResults()
		return nil
	}
	return m.searchCmd()
}

func (m *Model) searchCmd() tea.Cmd {
	query, page, ok := m.ctrl.SearchRequest()
	if !ok {
		return nil
	}
	m.ctrl.BeginSearch()
	if m.catalog == nil {
		return func() tea.Msg {
			return searchResultMsg{query: query, page: page, err: fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)}
		}
	}

	catalog, ctx := m.catalog, m.ctx
	return func() tea.Msg {
		result, err := catalog.SearchBooks(ctx, query, page)
		return searchResultMsg{query: query, page: page, result: result, err: err}
	}
}

// startHome runs the home loader in the background and streams its rows.
func (m *Model) startHome() tea.Cmd {
	if m.homeLoader == nil {
		return nil
	}

	progress := make(chan tasks.ProgressUpdate, 64)
	done := make(chan homeDoneMsg, 1)
	m.homeProgress = progress
	m.homeDone = done

	loader, ctx := m.homeLoader, m.ctx
	go func() {
		feed, err := loader.Load(ctx, progress)
		done <- homeDoneMsg{feed: feed, err: err}
		close(progress)
	}()

	return m.waitForHome()
}

// waitForHome returns the next progress update, or the final result once the channel closes.
func (m *Model) waitForHome() tea.Cmd {
	progress, done := m.homeProgress, m.homeDone
	if progress == nil {
		return nil
	}
	return func() tea.Msg {
		update, ok := <-progress
		if !ok {
			return <-done
		}
		return homeProgressMsg(update)
	}
}

func (m *Model) detailsCmd(book models.Book) tea.Cmd {
	catalog, ctx := m.catalog, m.ctx
	return func() tea.Msg {
		if catalog == nil {
			return detailsMsg{key: book.Key, err: fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)}
		}
		details, err := catalog.BookDetails(ctx, book.Key)
		return detailsMsg{key: book.Key, details: details, err: err}
	}
}

func (m *Model) generateCmd(book models.Book, part detailPart) tea.Cmd {
	assistant, ctx := m.assistant, m.ctx
	title, author := book.Title, book.PrimaryAuthor()
	return func() tea.Msg {
		msg := generatedMsg{key: book.Key, part: part}
		if assistant == nil {
			msg.err = fmt.Errorf("%w: assistant not initialized", shared.ErrServiceUnavailable)
			return msg
		}
		switch part {
		case partInfo:
			msg.gen, msg.err = assistant.GroundedBookInfo(ctx, title, author)
		case partReviews:
			msg.gen, msg.err = assistant.BookReviews(ctx, title, author)
		case partSummary:
			msg.gen, msg.err = assistant.BookSummary(ctx, title, author)
		}
		return msg
	}
}

// downloadCmd counts the confirmed download, then saves the book's scan.
// The counter moves even when the transfer fails.
func (m *Model) downloadCmd(book models.Book) tea.Cmd {
	downloader, counter, ctx, dir := m.downloader, m.downloads, m.ctx, m.downloadDir
	return func() tea.Msg {
		count := 0
		if counter != nil {
			count = counter.Increment(book.Key)
		}
		if downloader == nil {
			return downloadMsg{book: book, count: count, err: fmt.Errorf("%w: downloader not initialized", shared.ErrServiceUnavailable)}
		}
		path, err := downloader.Download(ctx, book, dir)
		if err != nil {
			return downloadMsg{book: book, count: count, err: err}
		}
		return downloadMsg{book: book, path: path, count: count}
	}
}

func openCmd(target string) tea.Cmd {
	if target == "" {
		return nil
	}
	return func() tea.Msg {
		return openedMsg{err: shared.OpenBrowser(target)}
	}
}
