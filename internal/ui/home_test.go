package ui

import (
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/raff/internal/models"
	"github.com/desertthunder/raff/internal/tasks"
)

func TestHomeState(t *testing.T) {
	books := func(keys ...string) []models.Book {
		out := make([]models.Book, len(keys))
		for i, k := range keys {
			out[i] = models.Book{Key: k, Title: k}
		}
		return out
	}

	t.Run("rows start loading", func(t *testing.T) {
		h := newHomeState([]string{"Fantasy", "Mystery"})
		if len(h.visibleRows()) != 2 {
			t.Fatalf("expected loading rows to be visible, got %d", len(h.visibleRows()))
		}
		if _, ok := h.selected(); ok {
			t.Error("expected no selection while loading")
		}
	})

	t.Run("empty rows are hidden", func(t *testing.T) {
		h := newHomeState([]string{"Fantasy", "Mystery", "Horror"})
		h.apply(tasks.CategoryRow{Name: "Fantasy", Books: books("A")})
		h.apply(tasks.CategoryRow{Name: "Mystery", Books: []models.Book{}})
		h.apply(tasks.CategoryRow{Name: "Horror", Error: "Failed to load books for Horror."})

		if got := len(h.visibleRows()); got != 2 {
			t.Errorf("expected 2 visible rows, got %d", got)
		}
	})

	t.Run("cursor moves and clamps", func(t *testing.T) {
		h := newHomeState([]string{"Fantasy", "Mystery"})
		h.apply(tasks.CategoryRow{Name: "Fantasy", Books: books("A", "B", "C")})
		h.apply(tasks.CategoryRow{Name: "Mystery", Books: books("D")})

		h.move(0, 2)
		if b, _ := h.selected(); b.Key != "C" {
			t.Errorf("expected C, got %s", b.Key)
		}
		h.move(0, 5)
		if b, _ := h.selected(); b.Key != "C" {
			t.Errorf("expected clamp at C, got %s", b.Key)
		}

		h.move(1, 0)
		if b, _ := h.selected(); b.Key != "D" {
			t.Errorf("changing rows resets the column, got %s", b.Key)
		}
		h.move(5, 0)
		if r, _ := h.current(); r.name != "Mystery" {
			t.Errorf("expected clamp at last row, got %s", r.name)
		}
		h.move(-9, -9)
		if b, _ := h.selected(); b.Key != "A" {
			t.Errorf("expected A, got %s", b.Key)
		}
	})

	t.Run("finish marks missing rows", func(t *testing.T) {
		h := newHomeState([]string{"Fantasy", tasks.RecommendationsRow})
		h.apply(tasks.CategoryRow{Name: "Fantasy", Books: books("A")})
		h.finish(errors.New("context canceled"))

		r := h.rows[1]
		if r.loading || !strings.Contains(r.err, "Could not load") {
			t.Errorf("unexpected row state %+v", r)
		}

		h = newHomeState([]string{"Fantasy"})
		h.finish(nil)
		if len(h.visibleRows()) != 0 {
			t.Error("rows finished without books or errors should be hidden")
		}
	})

	t.Run("unknown rows are appended", func(t *testing.T) {
		h := newHomeState(nil)
		h.apply(tasks.CategoryRow{Name: "Extra", Books: books("A")})
		if r, ok := h.current(); !ok || r.name != "Extra" {
			t.Errorf("expected appended row, got %+v", r)
		}
	})
}
