// Package services implements the HTTP clients behind the [Catalog] and [Assistant] interfaces, plus the archive downloader.
//
// # Catalog
//
// [OpenLibrary] wraps the Open Library search, works and subjects endpoints.
// Search pages are fixed at [PageSize] results. Subject works are mapped onto
// [models.Book] (author names flattened, cover_id to cover_i, a scalar ia
// promoted to a list, has_fulltext to ebook_access "public").
// [CoverURL] derives cover links without touching the network.
//
// # Retry Policy
//
// Catalog requests go through a [Retrier]: up to 3 attempts with 500ms and
// 1000ms pauses between them. Server errors and transport failures retry;
// 4xx responses fail at once. Exhaustion is reported as [shared.ErrFetch].
// An optional [rate.Limiter] throttles requests per second.
//
// # Generative Assist
//
// [Gemini] posts prompts to the generateContent endpoint. Grounded calls
// enable the google_search tool so responses carry web citations. Failures of
// any kind are reported as [shared.ErrGeneration] and never retried.
// Authentication uses an API key header or, when configured, an OAuth bearer
// token via [oauth2.StaticTokenSource].
//
// # Downloads
//
// [Archive] streams public-domain PDFs to disk through a temporary file.
package services
