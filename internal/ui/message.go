package ui

import (
	"github.com/desertthunder/raff/internal/models"
	"github.com/desertthunder/raff/internal/tasks"
)

// debounceMsg fires after the search input settles. Stale sequence numbers are ignored.
type debounceMsg struct {
	seq int
}

type searchResultMsg struct {
	query  string
	page   int
	result *models.SearchResult
	err    error
}

type homeProgressMsg tasks.ProgressUpdate

type homeDoneMsg struct {
	feed *tasks.HomeFeed
	err  error
}

// detailPart identifies one of the independent detail fetches.
type detailPart int

const (
	partDetails detailPart = iota
	partInfo
	partReviews
	partSummary
)

type detailsMsg struct {
	key     string
	details *models.BookDetails
	err     error
}

type generatedMsg struct {
	key  string
	part detailPart
	gen  *models.Generated
	err  error
}

type downloadMsg struct {
	book  models.Book
	path  string
	count int
	err   error
}

type openedMsg struct {
	err error
}

type hideWelcomeMsg struct{}
