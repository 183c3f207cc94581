// Package server exposes the vibe generator as a local JSON API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns, so path values such as
// {id} are available through [http.Request.PathValue].
//
// # Routes
//
//	GET  /health                     liveness and credential status
//	GET  /api/options?step=          predefined destinations, views or moods
//	POST /api/vibes                  run one generation for a posted selection
//	GET  /api/vibes                  saved vibes, newest first
//	GET  /api/vibes/{id}             one saved vibe, by id or sequence number
//	GET  /api/vibes/{id}/cover       composited JPEG (?title=&watermark=)
//	GET  /api/connection             lightweight credential probe
//
// Each POST drives its own wizard controller. The credential manager is shared, so a rejected
// key invalidates it for every later request until a new key is saved.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
