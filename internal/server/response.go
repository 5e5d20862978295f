package server

import (
	"bytes"
	"fmt"
	"io"
)

const protocolVersion = "HTTP/1.1"

// Status codes used by the validation ladder.
const (
	StatusOK                  = 200
	StatusBadRequest          = 400
	StatusForbidden           = 403
	StatusNotFound            = 404
	StatusMethodNotAllowed    = 405
	StatusInternalServerError = 500
)

var statusText = map[int]string{
	StatusOK:                  "OK",
	StatusBadRequest:          "Bad Request",
	StatusForbidden:           "Forbidden",
	StatusNotFound:            "Not Found",
	StatusMethodNotAllowed:    "Method Not Allowed",
	StatusInternalServerError: "Internal Server Error",
}

// errorMessages maps status codes to the body text of synthesized error
// pages.
var errorMessages = map[int]string{
	StatusBadRequest:          "The server cannot or will not process the request due to an apparent client error.",
	StatusForbidden:           "You do not have permission to access this resource.",
	StatusNotFound:            "The requested resource was not found on this server.",
	StatusMethodNotAllowed:    "The method specified in the request line is not allowed for this resource.",
	StatusInternalServerError: "The server encountered an internal error and was unable to complete your request.",
}

// StatusText returns the reason phrase for a status code.
func StatusText(code int) string {
	if text, ok := statusText[code]; ok {
		return text
	}
	return "Error"
}

// WriteResponse frames and writes one complete response: status line,
// Content-Type, Content-Length (exact body byte count), Connection:
// close, blank line, then the raw body. The whole response goes out in a
// single write. Every response closes the connection; there is no
// keep-alive and no chunked encoding.
func WriteResponse(w io.Writer, status int, mimeType string, body []byte) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s %d %s\r\n", protocolVersion, status, StatusText(status))
	fmt.Fprintf(&buf, "Content-Type: %s\r\n", mimeType)
	fmt.Fprintf(&buf, "Content-Length: %d\r\n", len(body))
	buf.WriteString("Connection: close\r\n")
	buf.WriteString("\r\n")
	buf.Write(body)
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteErrorResponse synthesizes a minimal HTML error page for the status
// code and writes it as a framed response.
func WriteErrorResponse(w io.Writer, status int) error {
	return WriteResponse(w, status, "text/html", errorPage(status))
}

func errorPage(status int) []byte {
	reason := StatusText(status)
	message, ok := errorMessages[status]
	if !ok {
		message = "The server encountered an error processing your request."
	}
	page := fmt.Sprintf("<html><head><title>%d %s</title></head><body><h1>%d %s</h1><p>%s</p></body></html>",
		status, reason, status, reason, message)
	return []byte(page)
}
