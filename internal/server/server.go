// Package server implements the connection-handling pipeline: the accept
// loop, the per-connection handler, request parsing, and response
// framing.
package server

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"golang.org/x/net/netutil"

	"example.com/webserv/internal/config"
	"example.com/webserv/internal/logger"
)

// Server owns the listening socket and dispatches each accepted
// connection to its own goroutine. The running flag is the only shared
// mutable state beyond the log sinks; its race with the accept loop is
// benign because Stop also closes the listener, so a late accept fails
// fast.
type Server struct {
	cfg *config.Config
	log *logger.Logger

	running  atomic.Bool
	mu       sync.Mutex
	listener net.Listener
	handlers sync.WaitGroup
}

// New creates a Server. The configuration must already be validated.
func New(cfg *config.Config, lg *logger.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if lg == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	return &Server{cfg: cfg, log: lg}, nil
}

// Start binds the configured port and runs the accept loop. It returns
// an error only on an unrecoverable bind failure; otherwise it blocks
// until Stop is called, then waits for in-flight handlers to finish.
// Per-accept errors on a healthy listener are logged and the loop
// continues.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Server.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		s.log.Error("failed to bind listening socket", logger.LogFields{
			"address": addr,
			"error":   err.Error(),
		})
		return fmt.Errorf("bind %s: %w", addr, err)
	}
	if max := s.cfg.Server.MaxConnections; max > 0 {
		ln = netutil.LimitListener(ln, max)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	s.running.Store(true)

	s.log.Info("server listening", logger.LogFields{
		"address":         ln.Addr().String(),
		"document_root":   s.cfg.Server.DocumentRoot,
		"max_connections": s.cfg.Server.MaxConnections,
	})

	for s.running.Load() {
		conn, err := ln.Accept()
		if err != nil {
			if !s.running.Load() {
				break
			}
			s.log.Warn("accept failed", logger.LogFields{"error": err.Error()})
			continue
		}
		s.handlers.Add(1)
		go s.handleConnection(conn)
	}

	s.handlers.Wait()
	s.log.Info("server stopped", nil)
	return nil
}

// Stop flips the running flag and closes the listening socket, which
// interrupts a blocked accept. In-flight handlers are not interrupted.
// Safe to call more than once; only the first call takes effect.
func (s *Server) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln != nil {
		ln.Close()
	}
}

// Addr reports the bound listener address, or nil before Start has bound
// the socket. Tests bind port 0 and read the ephemeral port from here.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}
