// Keyless [Source] backed by the public playlist Atom feed
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytwatch/internal/models"
	"github.com/desertthunder/ytwatch/internal/shared"
	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"
)

const DefaultFeedURL = "https://www.youtube.com/feeds/videos.xml"

// FeedService implements [Source] by parsing the playlist feed with [gofeed].
//
// The feed carries only the newest entries (15 at the time of writing), so removals
// of older items can not be observed and long playlists look truncated.
type FeedService struct {
	feedURL string
	parser  *gofeed.Parser
	limiter *rate.Limiter
	timeout time.Duration
	logger  *log.Logger
}

// NewFeedService creates a feed-backed source. Empty values fall back to defaults.
func NewFeedService(feedURL string, client *http.Client, requestsPerSecond float64, timeout time.Duration, logger *log.Logger) *FeedService {
	if feedURL == "" {
		feedURL = DefaultFeedURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}

	parser := gofeed.NewParser()
	parser.Client = client

	return &FeedService{
		feedURL: feedURL,
		parser:  parser,
		limiter: limiter,
		timeout: timeout,
		logger:  shared.WithLogger(logger, "component", "feed"),
	}
}

// Name returns the service name.
func (f *FeedService) Name() string {
	return "YouTube playlist feed"
}

// ValidateCollection fetches the feed and returns its title.
func (f *FeedService) ValidateCollection(ctx context.Context, id string) (string, error) {
	feed, err := f.fetch(ctx, id)
	if err != nil {
		return "", err
	}
	return feed.Title, nil
}

// FetchItems returns the feed entries in document order, capped at maxResults.
func (f *FeedService) FetchItems(ctx context.Context, id string, maxResults int) ([]models.Item, error) {
	limit := capResults(maxResults, DefaultMaxResults)
	feed, err := f.fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	items := make([]models.Item, 0, min(limit, len(feed.Items)))
	for _, entry := range feed.Items {
		if len(items) >= limit {
			break
		}
		videoID := feedVideoID(entry)
		if videoID == "" {
			continue
		}
		item := models.Item{
			ID:           videoID,
			CollectionID: id,
			Title:        orUnknown(entry.Title),
			Label:        orUnknown(feedAuthor(entry)),
			Position:     len(items),
			URL:          models.WatchURL(videoID),
		}
		if entry.PublishedParsed != nil {
			item.AddedAt = entry.PublishedParsed.UTC()
		}
		items = append(items, item)
	}

	f.logger.Debug("parsed playlist feed", "playlist", id, "items", len(items))
	return items, nil
}

func (f *FeedService) fetch(ctx context.Context, id string) (*gofeed.Feed, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %w", shared.ErrProviderUnavailable, err)
	}

	feedURL := f.feedURL + "?playlist_id=" + url.QueryEscape(id)
	feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) {
			switch httpErr.StatusCode {
			case http.StatusNotFound, http.StatusBadRequest:
				return nil, fmt.Errorf("%w: %s", shared.ErrCollectionNotFound, id)
			case http.StatusUnauthorized, http.StatusForbidden:
				return nil, fmt.Errorf("%w: status %d", shared.ErrAccessDenied, httpErr.StatusCode)
			}
			return nil, fmt.Errorf("%w: status %d", shared.ErrProviderUnavailable, httpErr.StatusCode)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w", shared.ErrProviderUnavailable, shared.ErrTimeout)
		}
		return nil, fmt.Errorf("%w: parse feed: %w", shared.ErrProviderUnavailable, err)
	}
	return feed, nil
}

// feedVideoID reads yt:videoId, falling back to the v parameter of the entry link.
func feedVideoID(entry *gofeed.Item) string {
	if yt, ok := entry.Extensions["yt"]; ok {
		if vals := yt["videoId"]; len(vals) > 0 && vals[0].Value != "" {
			return vals[0].Value
		}
	}
	if u, err := url.Parse(entry.Link); err == nil {
		if v := u.Query().Get("v"); v != "" {
			return v
		}
	}
	if rest, ok := strings.CutPrefix(entry.GUID, "yt:video:"); ok {
		return rest
	}
	return ""
}

func feedAuthor(entry *gofeed.Item) string {
	for _, a := range entry.Authors {
		if a != nil && a.Name != "" {
			return a.Name
		}
	}
	return ""
}
