package server

import (
	"errors"
	"net"
	"strings"
)

// readBufferSize bounds the single request read. The full request line is
// assumed to arrive in the first chunk; there is no multi-read
// accumulation.
const readBufferSize = 2048

// Request is the transient result of parsing one connection's inbound
// bytes. It is discarded when the handler completes.
type Request struct {
	Method string
	Path   string
}

var (
	errEmptyRequest     = errors.New("empty request")
	errMalformedRequest = errors.New("malformed request line")
)

// readRequest performs one bounded read on the connection and parses the
// request line out of it. A read that yields no bytes (client closed
// before sending, or the read failed) is an empty request.
func readRequest(conn net.Conn) (Request, error) {
	buf := make([]byte, readBufferSize)
	n, _ := conn.Read(buf)
	if n == 0 {
		return Request{}, errEmptyRequest
	}
	return parseRequest(buf[:n])
}

// parseRequest extracts method and path as the first two
// whitespace-separated tokens of the chunk.
func parseRequest(raw []byte) (Request, error) {
	tokens := strings.Fields(string(raw))
	if len(tokens) < 2 {
		return Request{}, errMalformedRequest
	}
	return Request{Method: tokens[0], Path: tokens[1]}, nil
}
