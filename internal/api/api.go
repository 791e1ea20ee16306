package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"allowsync/internal/config"
	"allowsync/internal/daemon"
	"allowsync/internal/version"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server exposes a read-only status endpoint for the daemon
type Server struct {
	server *http.Server
	daemon *daemon.Daemon
	logger *zap.Logger
}

// NewServer creates and configures the status API server
func NewServer(cfg *config.Config, d *daemon.Daemon, logger *zap.Logger) *Server {
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		daemon: d,
		logger: logger,
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/healthz", s.healthCheck)
	engine.GET("/v1/status", s.getStatus)

	s.server = &http.Server{
		Addr:    cfg.Status.Address,
		Handler: engine,
	}

	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start begins serving status requests
func (s *Server) Start() {
	go func() {
		s.logger.Info("Starting status API", zap.String("address", s.server.Addr))
		if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Status API server error", zap.Error(err))
		}
	}()
}

// Stop shuts the server down gracefully
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown status API: %w", err)
	}
	return nil
}

// healthCheck handles liveness probes
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// getStatus returns the daemon identity and last cycle outcome
func (s *Server) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"daemon":  s.daemon.Status(),
		"version": version.GetInfo(),
	})
}
