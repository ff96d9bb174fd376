// package services defines interface Source for reading playlists from a provider
package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/desertthunder/ytwatch/internal/models"
	"github.com/desertthunder/ytwatch/internal/shared"
)

// DefaultMaxResults caps how many items a fetch returns when the caller passes zero.
const DefaultMaxResults = 50

// Source defines a playlist provider the watcher can poll.
type Source interface {
	// ValidateCollection looks up a playlist and returns its title.
	ValidateCollection(ctx context.Context, id string) (string, error)

	// FetchItems lists up to maxResults items in provider order with zero-based positions.
	// Any failure discards the partial result.
	FetchItems(ctx context.Context, id string, maxResults int) ([]models.Item, error)

	// Name returns the name of the provider (e.g., "YouTube Data API")
	Name() string
}

var referencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`[?&]list=([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`playlist\?list=([a-zA-Z0-9_-]+)`),
}

var bareIdentifier = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ExtractIdentifier pulls a playlist id out of a URL or accepts a bare id longer than 10 characters.
func ExtractIdentifier(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	for _, p := range referencePatterns {
		if m := p.FindStringSubmatch(raw); m != nil {
			return m[1], true
		}
	}
	if len(raw) > 10 && bareIdentifier.MatchString(raw) {
		return raw, true
	}
	return "", false
}

// ParseReference is [ExtractIdentifier] returning [shared.ErrInvalidReference] on failure.
func ParseReference(raw string) (string, error) {
	id, ok := ExtractIdentifier(raw)
	if !ok {
		return "", fmt.Errorf("%w: %q", shared.ErrInvalidReference, shared.Truncate(strings.TrimSpace(raw), 64))
	}
	return id, nil
}

// capResults normalizes a requested maximum.
func capResults(maxResults, fallback int) int {
	if maxResults > 0 {
		return maxResults
	}
	if fallback > 0 {
		return fallback
	}
	return DefaultMaxResults
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return models.UnknownText
	}
	return s
}
