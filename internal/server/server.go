// Package server exposes JoinPilot over HTTP: schema introspection, row
// sampling, and join suggestions. It is a thin presentation layer — all
// decisions live in the metadata, fetch, and join packages.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/koustreak/JoinPilot/internal/database"
	"github.com/koustreak/JoinPilot/internal/fetch"
	"github.com/koustreak/JoinPilot/internal/join"
	"github.com/koustreak/JoinPilot/internal/logger"
	"github.com/koustreak/JoinPilot/internal/metadata"
)

// Server wires the HTTP routes to the core services.
type Server struct {
	db       database.DB
	provider metadata.Provider
	engine   *join.Engine
	sampler  *fetch.Sampler
	log      *logger.Logger

	http *http.Server
}

// Options configures the HTTP listener.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// New assembles a Server. All dependencies are injected; nothing here
// touches process-wide state, so tests run the handlers against fakes.
func New(db database.DB, p metadata.Provider, engine *join.Engine, sampler *fetch.Sampler, log *logger.Logger, opts Options) *Server {
	if log == nil {
		log = logger.New(nil)
	}
	s := &Server{
		db:       db,
		provider: p,
		engine:   engine,
		sampler:  sampler,
		log:      log,
	}

	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 15 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 60 * time.Second
	}
	s.http = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.Routes(),
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}
	return s
}

// Routes builds the chi router. Exposed separately so tests can drive the
// handlers through httptest without opening a listener.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/tables", s.handleListTables)
		r.Get("/tables/{table}", s.handleDescribeTable)
		r.Get("/tables/{table}/rows", s.handleSampleRows)
		r.Post("/joins/suggest", s.handleSuggestJoins)
	})
	return r
}

// ListenAndServe blocks until the listener fails or Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.log.Infof("http server listening on %s", s.http.Addr)
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests and closes the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// requestLogger emits one structured line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.With().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context())).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Str("duration", time.Since(start).String()).
			Logger().
			Info("request")
	})
}
