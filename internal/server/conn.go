package server

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"example.com/webserv/internal/logger"
	"example.com/webserv/internal/staticfile"
)

// handleConnection owns one connection for its whole lifetime: read and
// parse, validate, resolve, serve, and always close with a disconnect log
// entry on every exit path. A panic anywhere in handling is converted to
// a 500 at this boundary; it must never take down the process.
func (s *Server) handleConnection(conn net.Conn) {
	defer s.handlers.Done()
	remote := conn.RemoteAddr().String()
	defer func() {
		conn.Close()
		s.log.Info("client disconnected", logger.LogFields{"remote": remote})
	}()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("connection handler panicked", logger.LogFields{
				"remote": remote,
				"panic":  fmt.Sprint(r),
			})
			if err := WriteErrorResponse(conn, StatusInternalServerError); err != nil {
				s.log.Error("failed to write error response after panic", logger.LogFields{
					"remote": remote,
					"error":  err.Error(),
				})
			}
		}
	}()

	s.log.Debug("client connected", logger.LogFields{"remote": remote})
	s.serveConn(conn, remote)
}

// serveConn runs the validation ladder for one request and writes exactly
// one response.
func (s *Server) serveConn(conn net.Conn, remote string) {
	req, err := readRequest(conn)
	if err != nil {
		if err == errEmptyRequest {
			s.log.Warn("empty or unreadable request", logger.LogFields{"remote": remote})
			s.writeError(conn, remote, "", StatusBadRequest)
		} else {
			s.log.Warn("malformed request line", logger.LogFields{"remote": remote})
			s.writeError(conn, remote, "", StatusMethodNotAllowed)
		}
		return
	}

	if !strings.EqualFold(req.Method, "GET") {
		s.log.Warn("method not allowed", logger.LogFields{
			"remote": remote,
			"method": req.Method,
		})
		s.writeError(conn, remote, req.Path, StatusMethodNotAllowed)
		return
	}

	// Sole traversal defense: a substring check on the raw path, before
	// any resolution. Encoding tricks that avoid the literal dot-dot are
	// a documented limitation.
	if strings.Contains(req.Path, "..") {
		s.log.Security("directory traversal attempt rejected", logger.LogFields{
			"remote": remote,
			"path":   req.Path,
		})
		s.writeError(conn, remote, req.Path, StatusForbidden)
		return
	}

	requestPath := req.Path
	if requestPath == "/" {
		requestPath = "/" + s.cfg.Server.DefaultDocument
	}
	fsPath := staticfile.Resolve(s.cfg.Server.DocumentRoot, requestPath)

	ext := filepath.Ext(fsPath)
	if !staticfile.IsAllowed(ext) {
		s.log.Security("disallowed file type rejected", logger.LogFields{
			"remote":    remote,
			"path":      req.Path,
			"extension": ext,
		})
		s.writeError(conn, remote, req.Path, StatusForbidden)
		return
	}

	body, err := os.ReadFile(fsPath)
	if err != nil {
		if os.IsNotExist(err) {
			s.log.Warn("file not found", logger.LogFields{
				"remote":      remote,
				"path":        req.Path,
				"file":        fsPath,
				"file_status": staticfile.Probe(fsPath).String(),
			})
			s.writeError(conn, remote, req.Path, StatusNotFound)
		} else {
			s.log.Error("failed to read file", logger.LogFields{
				"remote":      remote,
				"path":        req.Path,
				"file":        fsPath,
				"error":       err.Error(),
				"file_status": staticfile.Probe(fsPath).String(),
			})
			s.writeError(conn, remote, req.Path, StatusInternalServerError)
		}
		return
	}

	if err := WriteResponse(conn, StatusOK, staticfile.MimeType(ext), body); err != nil {
		s.log.Error("failed to write response", logger.LogFields{
			"remote": remote,
			"path":   req.Path,
			"error":  err.Error(),
		})
		return
	}
	s.log.Info("request served", logger.LogFields{
		"remote": remote,
		"path":   req.Path,
		"status": StatusOK,
		"size":   humanize.Bytes(uint64(len(body))),
	})
}

// writeError sends a synthesized error page and logs the outcome.
func (s *Server) writeError(conn net.Conn, remote, path string, status int) {
	if err := WriteErrorResponse(conn, status); err != nil {
		s.log.Error("failed to write error response", logger.LogFields{
			"remote": remote,
			"status": status,
			"error":  err.Error(),
		})
		return
	}
	s.log.Info("request refused", logger.LogFields{
		"remote": remote,
		"path":   path,
		"status": status,
	})
}
