// Package models defines the domain entities shared by the catalog client, generative assist client, local stores and views.
//
// Catalog types:
//   - [Book] : search/browse entry, immutable once fetched, identified by Key
//   - [BookDetails] : full work record with a [Description] tagged union
//   - [SearchResult] : one page of search hits with the total match count
//
// Locally persisted types:
//   - [UserReview] : reader review with an ISO-8601 timestamp, newest first
//
// Generative types:
//   - [Generated] : response text plus candidates carrying grounding citations
//
// Book.Key is the join key for favorites, reviews and download counters.
package models
