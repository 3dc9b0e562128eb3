// Package server exposes the layout orchestrator over HTTP.
//
// Routes:
//
//	POST /api/v1/layout    lay out a diagram
//	GET  /api/v1/engines   describe the configured engine
//	GET  /api/v1/version   build information
//	GET  /healthz          liveness
//	GET  /metrics          Prometheus metrics
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/autolayout/pkg/config"
	"github.com/matzehuels/autolayout/pkg/diagram"
	"github.com/matzehuels/autolayout/pkg/layout"
)

// EngineInfo describes the engine behind the orchestrator.
type EngineInfo struct {
	Name         string         `json:"name"`
	LayerSpacing float64        `json:"layer_spacing"`
	Cache        string         `json:"cache"`
	Options      map[string]any `json:"options,omitempty"`
}

// Options configures a Server.
type Options struct {
	Config           config.ServerConfig
	Engine           EngineInfo
	DefaultDirection diagram.Direction
	Logger           *log.Logger
	Metrics          *Metrics
}

// Server serves the HTTP API.
type Server struct {
	orch    *layout.Orchestrator
	opts    Options
	logger  *log.Logger
	metrics *Metrics
	handler http.Handler
}

// New creates a server around orch. Missing options fall back to
// config.Default().Server, log.Default() and a fresh Metrics.
func New(orch *layout.Orchestrator, opts Options) *Server {
	if opts.Config.Addr == "" {
		opts.Config = config.Default().Server
	}
	if opts.Config.MaxBodyBytes <= 0 {
		opts.Config.MaxBodyBytes = config.Default().Server.MaxBodyBytes
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}
	if !opts.DefaultDirection.Valid() {
		opts.DefaultDirection = diagram.DefaultDirection
	}
	s := &Server{
		orch:    orch,
		opts:    opts,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
	s.handler = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.With(middleware.AllowContentType("application/json")).Post("/layout", s.handleLayout)
		r.Get("/engines", s.handleEngines)
		r.Get("/version", s.handleVersion)
	})
	return r
}

// Run listens on the configured address until ctx is cancelled, then shuts
// down gracefully within the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Config.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadTimeout:       s.opts.Config.ReadTimeout.Duration,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.opts.Config.WriteTimeout.Duration,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		timeout := s.opts.Config.ShutdownTimeout.Duration
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
