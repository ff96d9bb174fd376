// Rate-limited HTTP client for JSON provider APIs
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/ytwatch/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const defaultRequestTimeout = 15 * time.Second

// APIService performs rate-limited GET requests with a per-call timeout.
type APIService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	timeout    time.Duration
}

// NewAPIService creates a client for baseURL.
//
// A requestsPerSecond of zero disables rate limiting; a zero timeout uses 15s.
func NewAPIService(baseURL string, client *http.Client, requestsPerSecond float64, timeout time.Duration) *APIService {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		limiter:    limiter,
		timeout:    timeout,
	}
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the body into v.
func (r *APIResponse) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", shared.ErrProviderUnavailable, err)
	}
	return nil
}

// Get performs a GET request to path with query and returns the raw response.
//
// Transport failures and timeouts wrap [shared.ErrProviderUnavailable]; HTTP error statuses are
// returned in the response for the caller to classify. A refresh token rejected by the token
// endpoint wraps [shared.ErrMissingCredentials].
func (a *APIService) Get(ctx context.Context, path string, query url.Values) (*APIResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %w", shared.ErrProviderUnavailable, err)
	}

	fullURL := a.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		if tokenErr := classifyTokenError(err); tokenErr != nil {
			return nil, tokenErr
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w: %v", shared.ErrProviderUnavailable, shared.ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: request failed: %w", shared.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", shared.ErrProviderUnavailable, err)
	}

	return &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}, nil
}

// classifyTokenError reports an OAuth token refresh failure, or nil when err is not one.
// The token endpoint answering 5xx stays transient.
func classifyTokenError(err error) error {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) {
		return nil
	}
	if re.Response != nil && re.Response.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: token endpoint: %w", shared.ErrProviderUnavailable, err)
	}
	return fmt.Errorf("%w: refresh token rejected, run ytwatch auth youtube: %w", shared.ErrMissingCredentials, err)
}
