// Copyright 2025 James Ross

// Package httpapi exposes the plugin manager's load/unload/enumerate
// operations over HTTP, the channel an external GUI (or the emulator's own
// settings panel) uses instead of linking this module directly.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/flyingrobots/emu-plugin-host/internal/config"
	"go.uber.org/zap"
)

// Server wraps the management API's http.Server lifecycle.
type Server struct {
	cfg    *config.HTTP
	logger *zap.Logger
	server *http.Server
}

// NewServer builds a Server bound to mgr's Load/Unload/List operations.
func NewServer(cfg *config.HTTP, mgr Manager, logger *zap.Logger) *Server {
	h := NewHandler(mgr, logger)
	return &Server{
		cfg:    cfg,
		logger: logger,
		server: &http.Server{
			Addr:         cfg.Addr,
			Handler:      withMiddleware(h.Routes(), logger),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
		},
	}
}

// Start runs the server until Shutdown is called. It returns
// http.ErrServerClosed on a clean shutdown, matching net/http's convention.
func (s *Server) Start() error {
	s.logger.Info("starting management api", zap.String("addr", s.cfg.Addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
