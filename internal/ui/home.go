package ui

import (
	"github.com/desertthunder/raff/internal/models"
	"github.com/desertthunder/raff/internal/tasks"
)

type homeRow struct {
	name    string
	books   []models.Book
	err     string
	loading bool
}

// visible mirrors the feed's rule: finished rows with neither books nor an error are hidden.
func (r homeRow) visible() bool {
	return r.loading || r.err != "" || len(r.books) > 0
}

// homeState tracks feed rows as they stream in plus a row/column cursor.
type homeState struct {
	rows []homeRow
	row  int // index into visibleRows
	col  int
}

func newHomeState(names []string) homeState {
	rows := make([]homeRow, len(names))
	for i, n := range names {
		rows[i] = homeRow{name: n, loading: true}
	}
	return homeState{rows: rows}
}

// apply stores a finished row. Unknown names are appended.
func (h *homeState) apply(row tasks.CategoryRow) {
	for i := range h.rows {
		if h.rows[i].name == row.Name {
			h.rows[i] = homeRow{name: row.Name, books: row.Books, err: row.Error}
			h.clamp()
			return
		}
	}
	h.rows = append(h.rows, homeRow{name: row.Name, books: row.Books, err: row.Error})
	h.clamp()
}

// finish marks rows that never arrived as failed loads.
func (h *homeState) finish(err error) {
	for i := range h.rows {
		if h.rows[i].loading {
			h.rows[i].loading = false
			if err != nil {
				h.rows[i].err = "Could not load books for this category."
			}
		}
	}
	h.clamp()
}

func (h *homeState) visibleRows() []int {
	var idx []int
	for i, r := range h.rows {
		if r.visible() {
			idx = append(idx, i)
		}
	}
	return idx
}

func (h *homeState) current() (homeRow, bool) {
	vis := h.visibleRows()
	if h.row < 0 || h.row >= len(vis) {
		return homeRow{}, false
	}
	return h.rows[vis[h.row]], true
}

// selected returns the book under the cursor.
func (h *homeState) selected() (models.Book, bool) {
	r, ok := h.current()
	if !ok || h.col >= len(r.books) {
		return models.Book{}, false
	}
	return r.books[h.col], true
}

func (h *homeState) move(dRow, dCol int) {
	h.row += dRow
	if dRow != 0 {
		h.col = 0
	}
	h.col += dCol
	h.clamp()
}

func (h *homeState) clamp() {
	vis := h.visibleRows()
	if h.row >= len(vis) {
		h.row = len(vis) - 1
	}
	if h.row < 0 {
		h.row = 0
	}
	r, ok := h.current()
	if !ok {
		h.col = 0
		return
	}
	if h.col >= len(r.books) {
		h.col = len(r.books) - 1
	}
	if h.col < 0 {
		h.col = 0
	}
}
