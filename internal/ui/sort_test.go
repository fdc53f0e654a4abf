package ui

import (
	"slices"
	"testing"

	"github.com/desertthunder/raff/internal/models"
)

func keys(books []models.Book) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.Key
	}
	return out
}

func TestSortBooks(t *testing.T) {
	books := []models.Book{
		{Key: "1", Title: "dune", AuthorName: []string{"Herbert"}, FirstPublishYear: 1965},
		{Key: "2", Title: "Anathem", FirstPublishYear: 2008},
		{Key: "3", Title: "Emma", AuthorName: []string{"austen"}},
		{Key: "4", Title: "Dune", AuthorName: []string{"Herbert"}, FirstPublishYear: 1965},
		{Key: "5", Title: "Beloved", AuthorName: []string{"Morrison"}, FirstPublishYear: 1987},
	}

	tests := []struct {
		name string
		opt  SortOption
		want []string
	}{
		{name: "relevance keeps server order", opt: SortRelevance, want: []string{"1", "2", "3", "4", "5"}},
		{name: "title ignores case and is stable", opt: SortTitle, want: []string{"2", "5", "1", "4", "3"}},
		{name: "author puts authorless last", opt: SortAuthor, want: []string{"3", "1", "4", "5", "2"}},
		{name: "newest first with missing year last", opt: SortNewest, want: []string{"2", "5", "1", "4", "3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := keys(SortBooks(books, tt.opt))
			if !slices.Equal(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}

	t.Run("does not modify input", func(t *testing.T) {
		SortBooks(books, SortTitle)
		if got := keys(books); !slices.Equal(got, []string{"1", "2", "3", "4", "5"}) {
			t.Errorf("input reordered: %v", got)
		}
	})
}

func TestSortOption(t *testing.T) {
	for _, opt := range SortOptions() {
		parsed, ok := ParseSortOption(opt.String())
		if !ok || parsed != opt {
			t.Errorf("ParseSortOption(%q) = %v, %v", opt.String(), parsed, ok)
		}
		if opt.Label() == "" {
			t.Errorf("%v has no label", opt)
		}
	}

	if got, ok := ParseSortOption("Newest"); !ok || got != SortNewest {
		t.Errorf("expected newest alias, got %v/%v", got, ok)
	}
	if _, ok := ParseSortOption("popularity"); ok {
		t.Error("expected unknown option to fail")
	}

	c := NewController(nil, false)
	var seen []SortOption
	for range 4 {
		seen = append(seen, c.CycleSort())
	}
	if !slices.Equal(seen, []SortOption{SortTitle, SortAuthor, SortNewest, SortRelevance}) {
		t.Errorf("unexpected cycle %v", seen)
	}
}
