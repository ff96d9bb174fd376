package server

import (
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"golang.org/x/oauth2"
)

var (
	// ErrInvalidState is returned when the callback state does not match.
	ErrInvalidState = errors.New("invalid state parameter")
	// ErrConsentDenied is returned when Google redirects back without a code.
	ErrConsentDenied = errors.New("consent not granted")
)

const grantedPage = `<!DOCTYPE html>
<html>
<head><title>ytwatch authorized</title></head>
<body style="font-family: sans-serif; text-align: center; margin-top: 20vh">
    <h1 style="color: #c00">✓ YouTube access granted</h1>
    <p>You can close this window and return to the terminal.</p>
</body>
</html>
`

// Grant is the outcome of one authorization: a token or the reason there is none.
type Grant struct {
	Token *oauth2.Token
	Err   error
}

// OAuthHandler serves the redirect of a Google authorization code flow.
//
// It accepts a single callback; the grant is published on [OAuthHandler.Result].
type OAuthHandler struct {
	config  *oauth2.Config
	state   string
	claimed atomic.Bool
	grants  chan Grant
}

// NewOAuthHandler returns a handler expecting state on its callback.
func NewOAuthHandler(config *oauth2.Config, state string) *OAuthHandler {
	return &OAuthHandler{config: config, state: state, grants: make(chan Grant, 1)}
}

// AuthCodeURL returns the consent page URL. The forced consent prompt makes Google issue
// a refresh token even when the account already granted access.
func (h *OAuthHandler) AuthCodeURL() string {
	return h.config.AuthCodeURL(h.state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}

func (h *OAuthHandler) Routes() []string {
	return []string{"/callback"}
}

func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.claimed.CompareAndSwap(false, true) {
		http.Error(w, "authorization already completed", http.StatusBadRequest)
		return
	}

	token, status, err := h.exchange(r)
	h.grants <- Grant{Token: token, Err: err}
	close(h.grants)

	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, grantedPage)
}

// exchange validates the redirect and trades its code for a token.
func (h *OAuthHandler) exchange(r *http.Request) (*oauth2.Token, int, error) {
	q := r.URL.Query()
	if q.Get("state") != h.state {
		return nil, http.StatusBadRequest, ErrInvalidState
	}

	code := q.Get("code")
	if code == "" {
		return nil, http.StatusBadRequest, fmt.Errorf("%w: %s %s", ErrConsentDenied, q.Get("error"), q.Get("error_description"))
	}

	token, err := h.config.Exchange(r.Context(), code)
	if err != nil {
		return nil, http.StatusBadGateway, fmt.Errorf("token exchange failed: %w", err)
	}
	return token, http.StatusOK, nil
}

// Result delivers exactly one [Grant] and is then closed.
func (h *OAuthHandler) Result() <-chan Grant {
	return h.grants
}
