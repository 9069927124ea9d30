package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/middleware"
)

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	http   *http.Server
	deps   api.Dependencies
}

// Option customizes a Server.
type Option func(*Server)

// WithMediaRoot serves locally stored images from dir under urlPrefix.
func WithMediaRoot(urlPrefix, dir string) Option {
	return func(s *Server) {
		if dir == "" || !strings.HasPrefix(urlPrefix, "/") {
			return
		}
		s.router.Static(strings.TrimRight(urlPrefix, "/"), dir)
	}
}

// New creates a new server instance with every route registered.
func New(deps api.Dependencies, opts ...Option) *Server {
	if deps.Config.Log.Mode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.Recovery(deps.Log),
		middleware.RequestLogger(deps.Log),
		middleware.Metrics(),
		middleware.CORS(deps.Config.Server.AllowedOrigins),
	)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	api.RegisterRoutes(router, deps)

	s := &Server{router: router, deps: deps}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address and blocks until the server stops.
// It returns nil after a graceful Stop.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:              s.deps.Config.Server.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          s.deps.Log.StdLog(),
	}

	s.deps.Log.Info("Starting server", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.http != nil {
		return s.http.Shutdown(ctx)
	}
	return nil
}
