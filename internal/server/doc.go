// Package server provides the HTTP status surface and the OAuth callback used by the CLI.
//
// # Router Infrastructure
//
// [NewRouter] builds a chi router with request ids, panic recovery and request logging through
// the application logger. [Middleware] wraps handlers in the standard Go pattern.
//
// # Status Endpoints
//
// [Server] mounts three read-only endpoints:
//
//	GET /healthz                          → database ping
//	GET /api/status                       → scheduler state, cadence, next run and last run report
//	GET /api/subscribers/{id}/collections → a subscriber's playlists with stored item counts
//
// All responses are JSON. The server is started by the serve command when [server] enabled = true.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the OAuth2 authorization code callback flow for private playlists.
//
// The handler validates the state parameter (CSRF protection), exchanges the authorization code for tokens,
// and sends the result through a channel. It only processes one callback.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
