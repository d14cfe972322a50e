// Package server exposes the parser over a websocket so editors and other
// tools can stream parse results for a document.
package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	mdwerror "github.com/msto63/koi/foundation/core/error"
	mdwlog "github.com/msto63/koi/foundation/core/log"
	"github.com/msto63/koi/foundation/koi"
	"github.com/msto63/koi/foundation/koi/parser"
	"github.com/msto63/koi/internal/store"
	"github.com/msto63/koi/pkg/core/cache"
	"github.com/msto63/koi/pkg/core/health"
	"github.com/msto63/koi/pkg/core/version"
)

// Server is the live parse server
type Server struct {
	httpServer *http.Server
	ws         *WebSocketHandler
	results    *cache.Cache[*parsed]
	health     *health.Registry
	logger     *mdwlog.Logger
	config     Config
}

// Config holds server configuration
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Parser options used for every request
	Parser parser.Options

	// Archive receives runs sent with save set (optional)
	Archive store.Store

	// CacheSize bounds the parse result cache; zero disables it
	CacheSize int
	CacheTTL  time.Duration
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Addr:         "127.0.0.1:8765",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Parser:       parser.DefaultOptions(),
		CacheSize:    256,
		CacheTTL:     5 * time.Minute,
	}
}

// New creates a server routing /ws and /healthz
func New(cfg Config, logger *mdwlog.Logger) (*Server, error) {
	if err := cfg.Parser.Validate(); err != nil {
		return nil, mdwerror.Wrap(err, "invalid server parser options").WithOperation("server.New")
	}
	if logger == nil {
		logger = mdwlog.GetDefault()
	}
	logger = logger.WithField("component", "koi-server")

	registry := health.NewRegistry("koi", version.Version)
	registry.Register(health.ProbeCheck("parser", func(ctx context.Context) error {
		_, err := koi.ParseString("#probe ok", koi.WithOptions(cfg.Parser), koi.WithThreshold(1))
		return err
	}))
	if cfg.Archive != nil {
		registry.Register(health.ProbeCheck("store", func(ctx context.Context) error {
			_, err := cfg.Archive.ListRuns(ctx, 1)
			return err
		}))
	}

	var results *cache.Cache[*parsed]
	if cfg.CacheSize > 0 {
		results = cache.New[*parsed](cache.Config{
			MaxItems:        cfg.CacheSize,
			TTL:             cfg.CacheTTL,
			CleanupInterval: time.Minute,
		})
	}

	ws := newWebSocketHandler(cfg.Parser, cfg.Archive, results, logger)

	mux := http.NewServeMux()
	mux.Handle("/ws", ws)
	mux.Handle("/healthz", registry.Handler(5*time.Second))

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      loggingMiddleware(logger, mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		httpServer: httpServer,
		ws:         ws,
		results:    results,
		health:     registry,
		logger:     logger,
		config:     cfg,
	}, nil
}

// Handler returns the routed handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("starting koi parse server", mdwlog.Field("addr", s.config.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return mdwerror.Wrap(err, "parse server failed").
			WithCode(mdwerror.CodeTransport).
			WithOperation("server.Start").
			WithDetail("addr", s.config.Addr)
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("stopping koi parse server")
	if s.results != nil {
		hits, misses, rate := s.results.Stats()
		s.logger.Info("parse cache stats", mdwlog.Fields{"hits": hits, "misses": misses, "hit_rate": rate})
		s.results.Close()
	}
	return s.httpServer.Shutdown(ctx)
}

// Address returns the configured listen address
func (s *Server) Address() string {
	return s.config.Addr
}

// HealthRegistry returns the health check registry
func (s *Server) HealthRegistry() *health.Registry {
	return s.health
}

// loggingMiddleware adds request logging
func loggingMiddleware(logger *mdwlog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		logger.Info("http request", mdwlog.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      wrapper.statusCode,
			"duration_ms": time.Since(start).Milliseconds(),
		})
	})
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWrapper) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrade through the wrapper
func (w *responseWrapper) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	w.statusCode = http.StatusSwitchingProtocols
	return hj.Hijack()
}
