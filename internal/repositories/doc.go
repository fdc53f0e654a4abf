// Package repositories implements local persistence on a string key/value [Storage].
//
// [SQLiteStorage] keeps records in the records table created by the embedded
// migrations; [MemoryStorage] stands in when the database is unavailable.
//
// Stores:
//   - [FavoritesStore] : record "my-book-favorites", JSON array of books, unique by key
//   - [ReviewStore] : one record per book, "raff-elkalimat-reviews-<namespace>", newest first
//   - [DownloadCounter] : record "raff-elkalimat-downloads", JSON array of [key, count] pairs
//   - [Preferences] : raw "theme" and "hasVisited" records
//
// Each store guards its read-modify-write cycle with a mutex. Storage read or
// decode failures are logged and the store starts empty; write failures are
// logged and the in-memory state is kept. Callers never see storage errors.
//
// Review namespaces come from [ReviewRecordKey]. The legacy encoding strips
// characters outside [a-zA-Z0-9-], which lets different keys share a record;
// the hashed encoding appends an xxh3 digest of the raw key.
package repositories
