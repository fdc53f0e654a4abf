package ui

import (
	"slices"
	"strings"

	"github.com/desertthunder/raff/internal/models"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortOption orders a page of search results on the client.
type SortOption int

const (
	SortRelevance SortOption = iota // server order
	SortTitle
	SortAuthor
	SortNewest
	sortOptionCount
)

func (s SortOption) String() string {
	switch s {
	case SortRelevance:
		return "relevance"
	case SortTitle:
		return "title"
	case SortAuthor:
		return "author"
	case SortNewest:
		return "year_desc"
	default:
		return ""
	}
}

// Label is the display name used in the sort bar.
func (s SortOption) Label() string {
	switch s {
	case SortRelevance:
		return "Relevance"
	case SortTitle:
		return "Title (A-Z)"
	case SortAuthor:
		return "Author (A-Z)"
	case SortNewest:
		return "Newest First"
	default:
		return ""
	}
}

// ParseSortOption accepts the names returned by [SortOption.String], plus "newest".
func ParseSortOption(s string) (SortOption, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "relevance":
		return SortRelevance, true
	case "title":
		return SortTitle, true
	case "author":
		return SortAuthor, true
	case "year_desc", "newest":
		return SortNewest, true
	default:
		return SortRelevance, false
	}
}

// SortOptions lists every option in sort bar order.
func SortOptions() []SortOption {
	return []SortOption{SortRelevance, SortTitle, SortAuthor, SortNewest}
}

// SortBooks returns a sorted copy of books. Every ordering is stable.
//
// Title and author compare with a locale-aware collator. Books without an
// author sort after those with one. Newest treats a missing year as 0.
func SortBooks(books []models.Book, opt SortOption) []models.Book {
	sorted := slices.Clone(books)
	if opt == SortRelevance {
		return sorted
	}

	col := collate.New(language.Und, collate.IgnoreCase)

	switch opt {
	case SortTitle:
		slices.SortStableFunc(sorted, func(a, b models.Book) int {
			return col.CompareString(a.Title, b.Title)
		})
	case SortAuthor:
		slices.SortStableFunc(sorted, func(a, b models.Book) int {
			authorA, authorB := a.PrimaryAuthor(), b.PrimaryAuthor()
			switch {
			case authorA != "" && authorB != "":
				return col.CompareString(authorA, authorB)
			case authorA != "":
				return -1
			case authorB != "":
				return 1
			default:
				return 0
			}
		})
	case SortNewest:
		slices.SortStableFunc(sorted, func(a, b models.Book) int {
			return b.FirstPublishYear - a.FirstPublishYear
		})
	}
	return sorted
}
