// Package tasks runs the multi-request loading sequences with real-time progress reporting.
//
// # Home Feed
//
// [HomeLoader.Load] walks [Categories] one subject at a time, pausing a fixed
// delay (400ms by default) after every fetch, then gathers the
// "Recommended for You" row from [RecommendationCategories] the same way.
//
//   - Fetches are strictly sequential; the pause is a load-shaping policy for
//     the upstream catalog and is never skipped.
//   - A key already shown in an earlier row is dropped from later rows.
//   - A failed category becomes a row with a display error; loading continues.
//   - Recommendations are shuffled. The row reports an error only when every
//     subject failed to contribute and at least one request errored.
//
// # Book Detail
//
// [DetailLoader.Load] starts catalog details, grounded web info and the review
// digest concurrently. Each part carries its own error in [BookDetail].
//
// # Bulk Download
//
// [BulkDownloader.Run] downloads readable books through a rate-limited worker
// pool and increments the download counter for each success.
//
// # Progress Reporting
//
// All operations accept an optional channel of [ProgressUpdate]. Sends use
// select with default so a slow consumer never blocks loading.
package tasks
