package server

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a chi router with request ids, recovery and request logging.
//
// Extra middleware is applied after the defaults, in the order given.
func NewRouter(logger *log.Logger, extra ...Middleware) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(logger))
	for _, m := range extra {
		r.Use(m)
	}
	return r
}

// Mount registers every route of a custom [Handler] on r.
func Mount(r chi.Router, h Handler) {
	for _, route := range h.Routes() {
		r.Handle(route, h)
	}
}

// RequestLogger logs one line per request at debug level.
func RequestLogger(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			if logger == nil {
				return
			}
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
