// Package server provides the owning HTTP server for a service registry. It
// dispatches WebSocket upgrade requests to the host registered for the
// request path and ties the registry lifecycle to its own.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/getmockd/wshost/pkg/logging"
	"github.com/getmockd/wshost/pkg/service"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":8080"

// Server hosts a service registry behind one HTTP listener. Every request is
// resolved against the registry by path; hosts that also implement
// http.Handler (such as websocket.Host) receive the upgrade.
type Server struct {
	addr       string
	registry   *service.Registry
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a server with an empty registry. A nil logger is replaced with
// a no-op logger; an empty addr falls back to DefaultAddr.
func New(addr string, logger *slog.Logger) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	if logger == nil {
		logger = logging.Nop()
	}

	s := &Server{
		addr:     addr,
		registry: service.NewRegistry(logger),
		logger:   logger,
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Registry returns the registry this server owns.
func (s *Server) Registry() *service.Registry {
	return s.registry
}

// AddService registers a host for path. Services can be added before or after
// the server has started; a service added to a running server begins
// accepting sessions immediately.
func (s *Server) AddService(path string, factory service.HostFactory) (service.Host, error) {
	return s.registry.Register(path, factory)
}

// RemoveService removes the host registered for path, stopping it with a
// going-away close if it was running. The boolean reports whether a host was
// removed.
func (s *Server) RemoveService(path string) (bool, error) {
	return s.registry.Remove(path)
}

// ServeHTTP implements http.Handler by dispatching to the host registered for
// the request path.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	host, ok, err := s.registry.Lookup(r.URL.Path)
	if err != nil {
		http.Error(w, "invalid service path", http.StatusBadRequest)
		return
	}
	if !ok {
		http.Error(w, "service not found", http.StatusNotFound)
		return
	}

	handler, ok := host.(http.Handler)
	if !ok {
		http.Error(w, "service does not accept connections over HTTP", http.StatusNotImplemented)
		return
	}
	handler.ServeHTTP(w, r)
}

// Start starts every registered service and serves until Shutdown is called.
// It blocks; a graceful shutdown is reported as a nil error.
func (s *Server) Start() error {
	s.registry.StartAll()
	s.logger.Info("server listening", "addr", s.addr)

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops every registered service with a going-away close and then
// shuts the HTTP listener down, waiting for in-flight requests up to ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	s.registry.StopAll(service.CloseGoingAway, "server shutting down")
	return s.httpServer.Shutdown(ctx)
}
