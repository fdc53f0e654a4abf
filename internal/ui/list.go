package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/raff/internal/models"
)

var _ list.Item = bookItem{}

// bookItem wraps [models.Book] to implement [list.Item].
type bookItem struct {
	book      models.Book
	favorite  bool
	downloads int
}

func (i bookItem) FilterValue() string { return i.book.Title }

func (i bookItem) Title() string {
	if i.favorite {
		return "♥ " + i.book.Title
	}
	return i.book.Title
}

func (i bookItem) Description() string {
	parts := []string{i.book.AuthorLine()}
	if i.book.FirstPublishYear > 0 {
		parts = append(parts, fmt.Sprintf("%d", i.book.FirstPublishYear))
	}
	if len(i.book.Series) > 0 {
		parts = append(parts, "Series: "+i.book.Series[0])
	}
	if i.book.CanRead() {
		parts = append(parts, "readable")
	}
	if i.downloads > 0 {
		parts = append(parts, fmt.Sprintf("%d downloads", i.downloads))
	}
	return strings.Join(parts, " • ")
}

// bookItems wraps books for a list, marking favorites and download counts.
func bookItems(books []models.Book, isFavorite func(string) bool, downloads func(string) int) []list.Item {
	items := make([]list.Item, len(books))
	for i, b := range books {
		item := bookItem{book: b}
		if isFavorite != nil {
			item.favorite = isFavorite(b.Key)
		}
		if downloads != nil {
			item.downloads = downloads(b.Key)
		}
		items[i] = item
	}
	return items
}

func newBookList(title string) list.Model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()
	return l
}
