package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/desertthunder/ytwatch/internal/server"
	"github.com/desertthunder/ytwatch/internal/services"
	"github.com/desertthunder/ytwatch/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const defaultAuthTimeout = 5 * time.Minute

// AuthYouTube runs the OAuth2 authorization code flow on a temporary local server and
// stores the refresh token in the config file.
func (r *Runner) AuthYouTube(ctx context.Context, cmd *cli.Command) error {
	oauthCfg := r.config.YouTube.OAuth
	if oauthCfg.ClientID == "" || oauthCfg.ClientSecret == "" {
		return fmt.Errorf("%w: set youtube.oauth.client_id and client_secret first", shared.ErrMissingCredentials)
	}

	addr := r.config.Server.Addr()
	redirect := fmt.Sprintf("http://%s/callback", addr)
	handler := server.NewOAuthHandler(
		services.YouTubeOAuthConfig(oauthCfg.ClientID, oauthCfg.ClientSecret, redirect),
		shared.GenerateID(),
	)

	router := server.NewRouter(r.logger)
	server.Mount(router, handler)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	srv := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	go srv.Serve(ln)
	defer srv.Close()

	r.writePlain("Open this URL in your browser to grant read access to your playlists:\n\n")
	r.writePlain("%s\n\n", handler.AuthCodeURL())
	r.logger.Info("waiting for OAuth callback", "redirect", redirect)

	timeout := cmd.Duration("timeout")
	if timeout <= 0 {
		timeout = defaultAuthTimeout
	}

	select {
	case res := <-handler.Result():
		if res.Err != nil {
			return fmt.Errorf("%w: %w", shared.ErrAccessDenied, res.Err)
		}
		return r.saveTokens(res.Token)
	case <-time.After(timeout):
		return fmt.Errorf("%w: no callback within %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// saveTokens stores the refresh token in the loaded config and, when a config path is known,
// writes it back to disk.
func (r *Runner) saveTokens(token *oauth2.Token) error {
	if r.config == nil {
		return fmt.Errorf("%w: config is nil", shared.ErrInvalidConfig)
	}
	if token == nil || token.RefreshToken == "" {
		return fmt.Errorf("%w: no refresh token issued", shared.ErrAccessDenied)
	}

	r.config.YouTube.OAuth.RefreshToken = token.RefreshToken
	if r.configPath == "" {
		r.writePlain("Refresh token: %s\n", token.RefreshToken)
		return nil
	}

	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return err
	}
	r.logger.Info("refresh token saved", "path", r.configPath)
	return r.writePlain("✓ YouTube authorization saved to %s\n", r.configPath)
}

// AuthStatus reports which credentials are configured without revealing them.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	mark := func(ok bool) string {
		if ok {
			return r.palette.OK.Render("✓ configured")
		}
		return r.palette.Err.Render("✗ missing")
	}

	cfg := r.config
	r.writePlain("Telegram token:  %s\n", mark(cfg.Telegram.Token != ""))
	r.writePlain("YouTube API key: %s\n", mark(cfg.YouTube.APIKey != ""))
	r.writePlain("YouTube OAuth:   %s\n", mark(cfg.YouTube.OAuth.Enabled()))
	r.writePlain("Provider:        %s\n", cfg.YouTube.Provider)
	return nil
}
