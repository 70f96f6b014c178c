package server

import (
	"net/http"

	"go.uber.org/zap"

	ginhandler "user-service/internal/adapter/gin/handler"
	"user-service/internal/config"
)

// Server holds the HTTP server serving the user API.
type Server struct {
	Config *config.Config
	Logger *zap.Logger
	HTTP   *http.Server
}

// New creates a new server instance.
func New(cfg *config.Config, l *zap.Logger, handler *ginhandler.UserHandler) *Server {
	return &Server{
		Config: cfg,
		Logger: l,
		HTTP:   SetupHTTPServer(handler, cfg, l),
	}
}

// Start starts the HTTP server and blocks until it stops. A closed-server
// error after Shutdown is not a failure.
func (s *Server) Start() error {
	s.Logger.Info("HTTP server running", zap.String("address", s.HTTP.Addr))

	if err := s.HTTP.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
