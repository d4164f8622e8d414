package server

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	ginhandler "dbplayground/internal/adapter/gin/handler"
	"dbplayground/internal/adapter/gin/middleware"
	"dbplayground/internal/config"
)

// Server struct holds all server dependencies
type Server struct {
	Config *config.Config
	Logger *zap.Logger
	Gin    *http.Server
}

// New creates a new server instance
func New(cfg *config.Config, l *zap.Logger, handler *ginhandler.UserHandler, rateLimiter *middleware.RateLimiter) *Server {
	return &Server{
		Config: cfg,
		Logger: l,
		Gin:    SetupGinServer(handler, rateLimiter, cfg.Logger.ServiceName, httpAddress(cfg), l),
	}
}

// Start serves HTTP until the server is shut down.
func (s *Server) Start() error {
	s.Logger.Info("Gin REST API running", zap.String("address", s.Gin.Addr))

	if err := s.Gin.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// httpAddress returns the HTTP server address
func httpAddress(cfg *config.Config) string {
	return ":" + cfg.App.HTTPPort
}
