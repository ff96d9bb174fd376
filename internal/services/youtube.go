// YouTube Data API v3 implementation of [Source]
//
// Response types follow https://developers.google.com/youtube/v3/docs/playlistItems
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytwatch/internal/models"
	"github.com/desertthunder/ytwatch/internal/shared"
	"golang.org/x/oauth2"
)

const (
	DefaultYouTubeBaseURL = "https://www.googleapis.com/youtube/v3"

	googleAuthURL  = "https://accounts.google.com/o/oauth2/auth"
	googleTokenURL = "https://oauth2.googleapis.com/token"
	youtubeScope   = "https://www.googleapis.com/auth/youtube.readonly"

	// pageLimit is the largest page the API serves.
	pageLimit = 50
)

type youtubeResourceID struct {
	Kind    string `json:"kind"`
	VideoID string `json:"videoId"`
}

type youtubeItemSnippet struct {
	Title                  string            `json:"title"`
	ChannelTitle           string            `json:"channelTitle"`
	VideoOwnerChannelTitle string            `json:"videoOwnerChannelTitle"`
	Position               int               `json:"position"`
	ResourceID             youtubeResourceID `json:"resourceId"`
}

type youtubeContentDetails struct {
	VideoID          string `json:"videoId"`
	VideoPublishedAt string `json:"videoPublishedAt"`
}

// YouTubePlaylistItem is one entry of a playlistItems.list page.
type YouTubePlaylistItem struct {
	ID             string                `json:"id"`
	Snippet        youtubeItemSnippet    `json:"snippet"`
	ContentDetails youtubeContentDetails `json:"contentDetails"`
}

// YouTubePlaylistItemsPage is a playlistItems.list response.
type YouTubePlaylistItemsPage struct {
	NextPageToken string                `json:"nextPageToken"`
	Items         []YouTubePlaylistItem `json:"items"`
}

// YouTubePlaylist is one entry of a playlists.list response.
type YouTubePlaylist struct {
	ID      string `json:"id"`
	Snippet struct {
		Title        string `json:"title"`
		ChannelTitle string `json:"channelTitle"`
	} `json:"snippet"`
}

type youtubePlaylistsPage struct {
	Items []YouTubePlaylist `json:"items"`
}

type youtubeErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

// YouTubeOptions configures a [YouTubeService].
type YouTubeOptions struct {
	BaseURL           string
	APIKey            string
	OAuth             shared.OAuthConfig
	HTTPClient        *http.Client
	RequestTimeout    time.Duration
	RequestsPerSecond float64
	MaxResults        int
	Logger            *log.Logger
}

// YouTubeService implements [Source] over the YouTube Data API v3.
//
// Requests authenticate with an API key, or with an OAuth2 client built from a refresh token
// when one is configured.
type YouTubeService struct {
	api        *APIService
	apiKey     string
	oauth      bool
	maxResults int
	logger     *log.Logger
}

// NewYouTubeService creates a new YouTube Data API service instance.
func NewYouTubeService(opts YouTubeOptions) *YouTubeService {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultYouTubeBaseURL
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	client := opts.HTTPClient
	if opts.OAuth.Enabled() {
		client = newOAuthClient(opts.OAuth, client)
	}

	return &YouTubeService{
		api:        NewAPIService(opts.BaseURL, client, opts.RequestsPerSecond, opts.RequestTimeout),
		apiKey:     opts.APIKey,
		oauth:      opts.OAuth.Enabled(),
		maxResults: capResults(opts.MaxResults, DefaultMaxResults),
		logger:     shared.WithLogger(opts.Logger, "component", "youtube"),
	}
}

// YouTubeOAuthConfig returns the read-only Google OAuth2 configuration used for private playlists.
func YouTubeOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{youtubeScope},
		Endpoint: oauth2.Endpoint{
			AuthURL:  googleAuthURL,
			TokenURL: googleTokenURL,
		},
	}
}

// newOAuthClient returns an [http.Client] that refreshes access tokens from a stored refresh token.
func newOAuthClient(cfg shared.OAuthConfig, base *http.Client) *http.Client {
	config := YouTubeOAuthConfig(cfg.ClientID, cfg.ClientSecret, "")

	ctx := context.Background()
	if base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}
	return config.Client(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube Data API"
}

// ValidateCollection looks the playlist up with playlists.list and returns its title.
func (y *YouTubeService) ValidateCollection(ctx context.Context, id string) (string, error) {
	query, err := y.query()
	if err != nil {
		return "", err
	}
	query.Set("part", "snippet")
	query.Set("id", id)

	var page youtubePlaylistsPage
	if err := y.get(ctx, "/playlists", query, &page); err != nil {
		return "", err
	}
	if len(page.Items) == 0 {
		return "", fmt.Errorf("%w: %s", shared.ErrCollectionNotFound, id)
	}
	return page.Items[0].Snippet.Title, nil
}

// FetchItems pages through playlistItems.list until the playlist or maxResults is exhausted.
func (y *YouTubeService) FetchItems(ctx context.Context, id string, maxResults int) ([]models.Item, error) {
	limit := capResults(maxResults, y.maxResults)
	base, err := y.query()
	if err != nil {
		return nil, err
	}

	items := make([]models.Item, 0, min(limit, pageLimit))
	pageToken := ""
	pages := 0
	for len(items) < limit {
		query := url.Values{}
		for k, v := range base {
			query[k] = v
		}
		query.Set("part", "snippet,contentDetails")
		query.Set("playlistId", id)
		query.Set("maxResults", strconv.Itoa(min(pageLimit, limit-len(items))))
		if pageToken != "" {
			query.Set("pageToken", pageToken)
		}

		var page YouTubePlaylistItemsPage
		if err := y.get(ctx, "/playlistItems", query, &page); err != nil {
			return nil, err
		}
		pages++

		for _, raw := range page.Items {
			videoID := raw.Snippet.ResourceID.VideoID
			if videoID == "" {
				videoID = raw.ContentDetails.VideoID
			}
			if videoID == "" {
				continue
			}
			items = append(items, models.Item{
				ID:           videoID,
				CollectionID: id,
				Title:        orUnknown(raw.Snippet.Title),
				Label:        orUnknown(raw.Snippet.VideoOwnerChannelTitle),
				Position:     len(items),
				URL:          models.WatchURL(videoID),
			})
		}

		pageToken = page.NextPageToken
		if pageToken == "" || len(page.Items) == 0 {
			break
		}
	}

	if len(items) > limit {
		items = items[:limit]
	}
	y.logger.Debug("fetched playlist items", "playlist", id, "items", len(items), "pages", pages)
	return items, nil
}

func (y *YouTubeService) query() (url.Values, error) {
	if y.apiKey == "" && !y.oauth {
		return nil, fmt.Errorf("%w: youtube api key or oauth refresh token required", shared.ErrMissingCredentials)
	}
	q := url.Values{}
	if y.apiKey != "" && !y.oauth {
		q.Set("key", y.apiKey)
	}
	return q, nil
}

func (y *YouTubeService) get(ctx context.Context, path string, query url.Values, result any) error {
	resp, err := y.api.Get(ctx, path, query)
	if err != nil {
		return err
	}
	if err := classifyStatus(resp); err != nil {
		return err
	}
	return resp.Decode(result)
}

// classifyStatus maps an HTTP error status to a sentinel.
func classifyStatus(resp *APIResponse) error {
	if resp.OK() {
		return nil
	}

	detail := http.StatusText(resp.StatusCode)
	var body youtubeErrorBody
	if resp.Decode(&body) == nil && body.Error.Message != "" {
		detail = body.Error.Message
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: status %d: %s", shared.ErrAccessDenied, resp.StatusCode, detail)
	case http.StatusNotFound:
		return fmt.Errorf("%w: status %d: %s", shared.ErrCollectionNotFound, resp.StatusCode, detail)
	default:
		return fmt.Errorf("%w: status %d: %s", shared.ErrProviderUnavailable, resp.StatusCode, detail)
	}
}
