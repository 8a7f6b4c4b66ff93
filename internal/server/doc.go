// Package server exposes the playlist session over HTTP.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns ("GET /api/playlists/{id}").
//
// # Sessions
//
// Every browser session gets its own [state.Store] with an in-memory ephemeral tier, so logging out in one
// browser never touches another. All stores share the durable tier. The [SessionRegistry] maps the
// spotifsc_session cookie to its store and sweeps sessions that have been idle longer than the configured TTL.
//
// # JSON API
//
//	POST   /api/login                           log in ({"email", "password"})
//	POST   /api/logout                          log out and drop the session
//	GET    /api/session                         current user, last login, last playlist
//	GET    /api/playlists                       the user's playlists
//	POST   /api/playlists                       create ({"name"})
//	GET    /api/playlists/{id}                  open a playlist
//	PATCH  /api/playlists/{id}                  rename ({"name"})
//	DELETE /api/playlists/{id}                  delete
//	POST   /api/playlists/{id}/tracks           add a track (a track object)
//	DELETE /api/playlists/{id}/tracks/{trackID} remove a track
//	GET    /api/playlists/{id}/export?format=   export as csv, markdown, text or json
//	GET    /api/tracks/popular                  popular tracks
//	GET    /api/tracks/search?artist=&title=    exact search
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
