// Package services defines the [Source] interface for playlist providers and implements it for YouTube.
//
// # Reference parsing
//
// [ExtractIdentifier] accepts watch or playlist URLs carrying a list= parameter, or a bare id
// longer than 10 characters. [ParseReference] wraps the failure in [shared.ErrInvalidReference].
//
// # YouTube Data API
//
// [YouTubeService] calls playlists.list to validate and playlistItems.list to page through items,
// requesting min(50, remaining) per page until there is no next page token or the cap is reached.
// Requests go through [APIService], which applies a [rate.Limiter] and a per-call timeout.
// An OAuth2 refresh token may replace the API key for private playlists.
//
// # Playlist feed
//
// [FeedService] parses the public Atom feed with gofeed. It needs no credentials but only sees
// the newest entries.
//
// # Error Handling
//
//   - [shared.ErrCollectionNotFound] : empty lookup result or HTTP 404
//   - [shared.ErrAccessDenied] : HTTP 401/403, including quota exhaustion
//   - [shared.ErrProviderUnavailable] : transport errors, timeouts and other statuses
//   - [shared.ErrMissingCredentials] : no API key and no OAuth configuration
package services
