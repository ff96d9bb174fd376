package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytwatch/internal/models"
	"github.com/desertthunder/ytwatch/internal/shared"
	"github.com/desertthunder/ytwatch/internal/tasks"
	"github.com/go-chi/chi/v5"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an [http.Handler] that knows the paths it serves.
type Handler interface {
	http.Handler
	Routes() []string
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatusProvider reports the scheduler state.
type StatusProvider interface {
	Status() tasks.Status
}

// CollectionStore lists a subscriber's playlists and their stored item counts.
type CollectionStore interface {
	ListBySubscriber(ctx context.Context, subscriberID int64) ([]*models.TrackedCollection, error)
	Count(ctx context.Context, collectionID string) (int, error)
}

// Options wires a [Server].
type Options struct {
	Store     Pinger
	Scheduler StatusProvider
	Lister    CollectionStore
	Logger    *log.Logger
	// ShutdownTimeout bounds graceful shutdown. Zero means 5s.
	ShutdownTimeout time.Duration
}

// Server exposes health and scheduler status over HTTP.
type Server struct {
	opts    Options
	router  chi.Router
	logger  *log.Logger
	started time.Time
}

// CollectionView is one entry of the subscriber collections response.
type CollectionView struct {
	*models.TrackedCollection
	Items int `json:"items"`
}

func New(opts Options) *Server {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}
	logger := shared.WithLogger(opts.Logger, "component", "server")
	s := &Server{opts: opts, logger: logger, started: time.Now()}

	r := NewRouter(logger)
	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/subscribers/{id}/collections", s.handleCollections)
	})
	s.router = r
	return s
}

// ServeHTTP implements [http.Handler] for the whole server.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("status server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("status server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("status server shutdown: %w", err)
	}
	s.logger.Info("status server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.opts.Store != nil {
		if err := s.opts.Store.Ping(r.Context()); err != nil {
			s.logger.Warn("health check failed", "err", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.opts.Scheduler == nil {
		writeJSON(w, http.StatusOK, map[string]any{"scheduler": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"scheduler": s.opts.Scheduler.Status()})
}

func (s *Server) handleCollections(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "subscriber id must be an integer"})
		return
	}
	if s.opts.Lister == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "collections are not available"})
		return
	}

	cs, err := s.opts.Lister.ListBySubscriber(r.Context(), id)
	if err != nil {
		s.logger.Error("failed to list collections", "subscriber", id, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": shared.UserMessage(err)})
		return
	}

	views := make([]CollectionView, 0, len(cs))
	for _, c := range cs {
		n, err := s.opts.Lister.Count(r.Context(), c.ID)
		if err != nil {
			s.logger.Warn("failed to count items", "collection", c.ID, "err", err)
		}
		views = append(views, CollectionView{TrackedCollection: c, Items: n})
	}
	writeJSON(w, http.StatusOK, map[string]any{"subscriber_id": id, "collections": views})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
