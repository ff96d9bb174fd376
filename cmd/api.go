package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/ytwatch/internal/services"
	"github.com/desertthunder/ytwatch/internal/shared"
	"github.com/urfave/cli/v3"
)

// APIGet makes a direct GET request to the YouTube Data API and prints the JSON body.
//
// The configured API key is added unless the query already carries one.
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	query, err := parseQuery(cmd.StringSlice("query"))
	if err != nil {
		return err
	}
	if query.Get("key") == "" && r.config.YouTube.APIKey != "" {
		query.Set("key", r.config.YouTube.APIKey)
	}

	yt := r.config.YouTube
	baseURL := yt.BaseURL
	if baseURL == "" {
		baseURL = services.DefaultYouTubeBaseURL
	}
	api := services.NewAPIService(baseURL, r.httpClient, yt.RequestsPerSecond,
		shared.ParseDurationOrDefault(yt.RequestTimeout, 15*time.Second))

	r.logger.Info("GET request", "path", path)
	resp, err := api.Get(ctx, path, query)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrProviderUnavailable, resp.StatusCode, string(resp.Body))
	}

	var data any
	if err := json.Unmarshal(resp.Body, &data); err != nil {
		r.output.Write(resp.Body)
		r.output.Write([]byte("\n"))
		return nil
	}
	return r.writeJSON(data, cmd.Bool("pretty"))
}

// parseQuery turns key=value pairs into [url.Values].
func parseQuery(pairs []string) (url.Values, error) {
	query := url.Values{}
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("%w: query %q must be key=value", shared.ErrInvalidArgument, p)
		}
		query.Add(strings.TrimSpace(k), v)
	}
	return query, nil
}
