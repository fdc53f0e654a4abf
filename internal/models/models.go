// package models defines the data model for the book discovery service
package models

import (
	"fmt"
	"net/url"
	"strings"

	json "github.com/goccy/go-json"
)

const (
	// ArchiveBaseURL hosts readable and downloadable scans of public-domain books.
	ArchiveBaseURL = "https://archive.org"
	// CatalogSiteURL is the public site used for share links.
	CatalogSiteURL = "https://openlibrary.org"

	EbookAccessPublic = "public"
	UnknownAuthor     = "Unknown Author"
)

// Book is a catalog search/browse entry. Key is the opaque identity used by
// favorites, reviews and download counters.
type Book struct {
	Key              string        `json:"key" yaml:"key"`
	Title            string        `json:"title" yaml:"title"`
	AuthorName       []string      `json:"author_name,omitempty" yaml:"author_name,omitempty"`
	CoverID          int           `json:"cover_i,omitempty" yaml:"cover_i,omitempty"`
	FirstPublishYear int           `json:"first_publish_year,omitempty" yaml:"first_publish_year,omitempty"`
	Publisher        []string      `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	ISBN             []string      `json:"isbn,omitempty" yaml:"isbn,omitempty"`
	Subject          []string      `json:"subject,omitempty" yaml:"subject,omitempty"`
	IA               StringOrSlice `json:"ia,omitempty" yaml:"ia,omitempty"`
	EbookAccess      string        `json:"ebook_access,omitempty" yaml:"ebook_access,omitempty"`
	Series           []string      `json:"series,omitempty" yaml:"series,omitempty"`
}

// PrimaryAuthor returns the first listed author or "".
func (b Book) PrimaryAuthor() string {
	if len(b.AuthorName) == 0 {
		return ""
	}
	return b.AuthorName[0]
}

// AuthorLine joins all authors with ", ", falling back to [UnknownAuthor].
func (b Book) AuthorLine() string {
	if len(b.AuthorName) == 0 {
		return UnknownAuthor
	}
	return strings.Join(b.AuthorName, ", ")
}

// ArchiveID returns the first Internet Archive identifier or "".
func (b Book) ArchiveID() string {
	if len(b.IA) == 0 {
		return ""
	}
	return b.IA[0]
}

// CanRead reports whether the book has a public scan that may be read online or downloaded.
func (b Book) CanRead() bool {
	return b.EbookAccess == EbookAccessPublic && b.ArchiveID() != ""
}

// ReadURL returns the online reader link, or "" when the book is not public.
func (b Book) ReadURL() string {
	if !b.CanRead() {
		return ""
	}
	return fmt.Sprintf("%s/details/%s/mode/2up", ArchiveBaseURL, b.ArchiveID())
}

// DownloadURL returns the PDF link, or "" when the book is not public.
func (b Book) DownloadURL() string {
	if !b.CanRead() {
		return ""
	}
	id := b.ArchiveID()
	return fmt.Sprintf("%s/download/%s/%s.pdf", ArchiveBaseURL, id, id)
}

// DownloadFilename is the suggested local file name for the PDF.
func (b Book) DownloadFilename() string {
	name := strings.Join(strings.Fields(b.Title), "_")
	if name == "" {
		name = b.ArchiveID()
	}
	name = strings.NewReplacer("/", "_", "\\", "_").Replace(name)
	return name + ".pdf"
}

// ShareURL links to the catalog page for the book.
func (b Book) ShareURL() string {
	return CatalogSiteURL + b.Key
}

// ShareText is the message used for social sharing.
func (b Book) ShareText() string {
	return fmt.Sprintf("Check out this book: %s by %s", b.Title, b.AuthorLine())
}

// TwitterShareURL returns a tweet intent for the book.
func (b Book) TwitterShareURL() string {
	q := url.Values{}
	q.Set("url", b.ShareURL())
	q.Set("text", b.ShareText())
	return "https://twitter.com/intent/tweet?" + q.Encode()
}

// FacebookShareURL returns a Facebook sharer link for the book.
func (b Book) FacebookShareURL() string {
	q := url.Values{}
	q.Set("u", b.ShareURL())
	return "https://www.facebook.com/sharer/sharer.php?" + q.Encode()
}

// SearchResult is one page of catalog search results.
type SearchResult struct {
	NumFound int    `json:"numFound"`
	Docs     []Book `json:"docs"`
}

// StringOrSlice decodes a JSON value that may be either a string or an array of strings.
type StringOrSlice []string

// UnmarshalJSON implements [json.Unmarshaler].
func (s *StringOrSlice) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = nil
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*s = nil
		} else {
			*s = StringOrSlice{single}
		}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("expected string or array of strings: %w", err)
	}
	*s = many
	return nil
}
