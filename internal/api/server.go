// Package api serves the synthetic time-series dataset over REST, SSE and WebSocket.
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/aaronlmathis/vizstream/internal/config"
	"github.com/aaronlmathis/vizstream/internal/generator"
	appmw "github.com/aaronlmathis/vizstream/internal/middleware"
)

// limiterCleanupInterval is how often idle client limiters are dropped
const limiterCleanupInterval = 5 * time.Minute

// Server represents the data server
type Server struct {
	logger    *zap.Logger
	config    *config.Config
	router    chi.Router
	generator *generator.Generator
	sanitizer *appmw.ErrorSanitizer
	limiter   *appmw.RateLimiter
	upgrader  websocket.Upgrader

	// shutdown is closed by Stop so open streams end before the HTTP server drains
	shutdown     chan struct{}
	shutdownOnce sync.Once
	streams      sync.WaitGroup
}

// NewServer creates a new data server
func NewServer(logger *zap.Logger, cfg *config.Config) (*Server, error) {
	return newServer(logger, cfg, generator.New())
}

func newServer(logger *zap.Logger, cfg *config.Config, gen *generator.Generator) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		logger:    logger,
		config:    cfg,
		router:    chi.NewRouter(),
		generator: gen,
		sanitizer: appmw.NewErrorSanitizer(logger),
		limiter:   appmw.NewRateLimiter(logger, cfg.RateLimits.GeneratePerMinute, cfg.RateLimits.Burst),
		shutdown:  make(chan struct{}),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

// Start starts the server's background work
func (s *Server) Start(ctx context.Context) {
	go s.limiter.Cleanup(ctx, limiterCleanupInterval)
}

// Stop ends every open live stream and waits for their handlers to return
func (s *Server) Stop() {
	s.logger.Info("Closing live streams")
	s.shutdownOnce.Do(func() { close(s.shutdown) })
	s.streams.Wait()
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(appmw.RequestIDResponseMiddleware)
	s.router.Use(appmw.PrometheusMiddleware)
	s.router.Use(appmw.SecureHeaders)
	s.router.Use(appmw.CORS(s.config.Server.CORS.AllowOrigins, s.config.Server.CORS.AllowMethods))
}

func (s *Server) setupRoutes() {
	// Health endpoints
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/version", s.handleVersion)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api", func(r chi.Router) {
		// Bounded request/response endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.config.RequestTimeout()))

			r.Get("/health", s.handleHealth)
			r.Get("/data/initial", s.handleInitialData)
			r.Get("/data/initial/{count}", s.handleInitialData)
			r.Post("/data/aggregate", s.handleAggregate)

			r.Group(func(r chi.Router) {
				r.Use(s.limiter.Middleware)
				r.Get("/data/generate", s.handleGenerate)
			})
		})

		// Live streams run until the client or the server goes away
		r.Get("/data/stream", s.handleDataStream)
		if s.config.Stream.EnableWebSocket {
			r.Get("/data/ws", s.handleDataWebSocket)
		}
	})
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.config.Server.CORS.AllowOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
