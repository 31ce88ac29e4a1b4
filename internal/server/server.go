// Package server exposes a distance index over HTTP.
//
// Routes:
//
//	GET /v1/min?from=12:4&to=40:0:-   minimum distance between two positions
//	GET /v1/max?from=12:4&to=40:0     max-distance bound
//	GET /v1/snarl/{id}                region immediately containing a node
//	GET /v1/info                      index summary
//	GET /metrics                      Prometheus metrics
//	GET /healthz                      liveness
//
// Responses are JSON. Errors carry the pkg/errors code and the HTTP status
// it maps to.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/vgdist/pkg/cache"
	"github.com/matzehuels/vgdist/pkg/distance"
	"github.com/matzehuels/vgdist/pkg/observability"
)

// DefaultQueryCacheSize is the number of query answers kept in memory.
const DefaultQueryCacheSize = 4096

// Options configures a Server.
type Options struct {
	Logger *log.Logger

	// QueryCacheSize bounds the in-memory answer cache; 0 disables it.
	QueryCacheSize int

	// Gatherer serves /metrics. Nil uses the default registry.
	Gatherer prometheus.Gatherer

	// Keyer names cached answers. Nil uses the default keyer.
	Keyer cache.Keyer
}

// Server answers distance queries against one index. It is safe for
// concurrent use.
type Server struct {
	idx     *distance.Index
	logger  *log.Logger
	keyer   cache.Keyer
	answers *lru.Cache[string, answer]
	router  chi.Router
}

// New creates a server for idx.
func New(idx *distance.Index, opts Options) (*Server, error) {
	s := &Server{idx: idx, logger: opts.Logger, keyer: opts.Keyer}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.keyer == nil {
		s.keyer = cache.NewDefaultKeyer()
	}
	if opts.QueryCacheSize > 0 {
		c, err := lru.New[string, answer](opts.QueryCacheSize)
		if err != nil {
			return nil, err
		}
		s.answers = c
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Route("/v1", func(r chi.Router) {
		r.Get("/min", s.handleMin)
		r.Get("/max", s.handleMax)
		r.Get("/snarl/{id}", s.handleSnarl)
		r.Get("/info", s.handleInfo)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, errNotFound(r.URL.Path))
	})
	s.router = r
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is done, then shuts down,
// giving in-flight requests a few seconds to finish.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("serving", "addr", addr, "index", s.idx.ID())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

// observe logs each request and reports it to the HTTP hooks under its
// route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		observability.HTTP().OnResponse(r.Context(), r.Method, route, status, elapsed)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", elapsed,
			"id", middleware.GetReqID(r.Context()))
	})
}
