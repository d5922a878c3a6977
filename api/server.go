package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/assetgraph/config"
	"github.com/kbukum/assetgraph/logger"
)

// Server serves a Handler over HTTP.
type Server struct {
	httpServer      *http.Server
	engine          *gin.Engine
	shutdownTimeout time.Duration
	log             *logger.Logger
}

// NewServer creates a server for h with the standard middleware applied.
func NewServer(cfg config.ServerConfig, h *Handler, log *logger.Logger) *Server {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	engine := gin.New()
	engine.Use(Recovery(log), RequestID(), RequestLogger(log))
	h.Register(engine)

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
		engine:          engine,
		shutdownTimeout: cfg.ShutdownTimeout,
		log:             log,
	}
}

// Engine returns the gin engine for extra routes.
func (s *Server) Engine() *gin.Engine { return s.engine }

// Addr returns the listen address.
func (s *Server) Addr() string { return s.httpServer.Addr }

// Start binds the port and serves in the background. It returns once the
// listener is bound.
func (s *Server) Start(ctx context.Context) error {
	listener, err := (&net.ListenConfig{}).Listen(ctx, "tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("api: failed to bind %s: %w", s.httpServer.Addr, err)
	}
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("server error", logger.ErrorFields("serve", err))
		}
	}()
	s.log.Info("HTTP server started", map[string]interface{}{"addr": s.httpServer.Addr})
	return nil
}

// Stop shuts the server down, waiting at most the configured shutdown
// timeout for requests in flight.
func (s *Server) Stop(ctx context.Context) error {
	timeout := s.shutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api: shutdown: %w", err)
	}
	s.log.Info("HTTP server stopped")
	return nil
}
