// Package server provides the local JSON API behind the serve command.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
// [BasicRouter] uses [http.ServeMux] method patterns, so one path can carry
// GET, POST and DELETE handlers. [Middleware] is applied outermost first.
//
// # Middleware
//
//   - [LoggingMiddleware] logs method, path, status and duration per request
//   - [RecoverMiddleware] converts panics into 500 responses
//   - [GzipMiddleware] compresses responses with klauspost/compress/gzhttp
//
// # Routes
//
//	GET    /health
//	GET    /api/search?q=&page=
//	GET    /api/details?key=&title=&author=
//	GET    /api/subjects?name=&limit=
//	GET    /api/assist/{info|reviews|summary}?title=&author=
//	GET    /api/favorites
//	POST   /api/favorites            {"key": ..., "title": ...}
//	DELETE /api/favorites?key=
//	GET    /api/reviews?key=
//	POST   /api/reviews              {"key": ..., "text": ...}
//	GET    /api/downloads[?key=]
//	POST   /api/downloads            {"key": ...}
//
// Every body is a {"success", "data", "meta"} or {"success", "error"} envelope.
// Sentinel errors from [shared] map to 400, 404, 502 and 503.
package server
