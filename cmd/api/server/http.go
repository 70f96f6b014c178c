package server

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	ginhandler "user-service/internal/adapter/gin/handler"
	ginrouter "user-service/internal/adapter/gin/router"
	"user-service/internal/config"
)

// SetupHTTPServer creates the HTTP server wrapping the Gin router.
func SetupHTTPServer(handler *ginhandler.UserHandler, cfg *config.Config, l *zap.Logger) *http.Server {
	router := ginrouter.SetupRouter(handler, cfg, l)

	addr := ":" + cfg.App.HTTPPort
	l.Info("REST API configured", zap.String("address", addr))
	l.Info("Swagger UI available at", zap.String("url", "http://localhost"+addr+"/swagger/"))

	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
