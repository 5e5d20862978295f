// End-to-end scenarios exercising the full pipeline over real sockets:
// accept loop, connection handler, path validation, file resolution, and
// response framing.
package e2e

import (
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/webserv/internal/config"
	"example.com/webserv/internal/logger"
	"example.com/webserv/internal/server"
)

// response is a parsed raw response: status line, header map, body bytes.
type response struct {
	status  int
	headers map[string]string
	body    []byte
}

func parseResponse(t *testing.T, raw []byte) response {
	t.Helper()
	sep := strings.Index(string(raw), "\r\n\r\n")
	require.GreaterOrEqual(t, sep, 0, "no header terminator in %q", raw)

	head := string(raw[:sep])
	lines := strings.Split(head, "\r\n")
	require.NotEmpty(t, lines)

	statusParts := strings.SplitN(lines[0], " ", 3)
	require.Len(t, statusParts, 3, "bad status line %q", lines[0])
	status, err := strconv.Atoi(statusParts[1])
	require.NoError(t, err)

	headers := make(map[string]string)
	for _, line := range lines[1:] {
		name, value, ok := strings.Cut(line, ": ")
		require.True(t, ok, "bad header line %q", line)
		headers[name] = value
	}
	return response{status: status, headers: headers, body: raw[sep+4:]}
}

// sendRaw writes payload on a fresh connection and reads until the
// server closes it.
func sendRaw(t *testing.T, addr, payload string) response {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	if payload != "" {
		_, err = conn.Write([]byte(payload))
		require.NoError(t, err)
	} else {
		require.NoError(t, conn.(*net.TCPConn).CloseWrite())
	}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	raw, err := io.ReadAll(conn)
	require.NoError(t, err)
	return parseResponse(t, raw)
}

// startServer brings up a server over the given web root on an ephemeral
// port and returns a dialable address.
func startServer(t *testing.T, root string) string {
	t.Helper()
	cfg := config.New(config.DefaultPort, root, "")
	cfg.Server.Port = 0
	require.NoError(t, cfg.Validate())

	srv, err := server.New(cfg, logger.NewDiscardLogger())
	require.NoError(t, err)
	go srv.Start()
	t.Cleanup(srv.Stop)

	var addr net.Addr
	require.Eventually(t, func() bool {
		addr = srv.Addr()
		return addr != nil
	}, 2*time.Second, 5*time.Millisecond)

	_, port, err := net.SplitHostPort(addr.String())
	require.NoError(t, err)
	return net.JoinHostPort("127.0.0.1", port)
}

func writeFile(t *testing.T, root, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0644))
}

func TestScenarios(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "index.html", "<p>hi</p>")
	writeFile(t, root, "app.exe", "MZ")

	addr := startServer(t, root)

	t.Run("root serves the default document", func(t *testing.T) {
		resp := sendRaw(t, addr, "GET /\r\n\r\n")
		assert.Equal(t, 200, resp.status)
		assert.Equal(t, "text/html", resp.headers["Content-Type"])
		assert.Equal(t, "9", resp.headers["Content-Length"])
		assert.Equal(t, "<p>hi</p>", string(resp.body))
	})

	t.Run("traversal attempt is forbidden", func(t *testing.T) {
		resp := sendRaw(t, addr, "GET /../secret.txt\r\n\r\n")
		assert.Equal(t, 403, resp.status)
	})

	t.Run("non-GET method is refused", func(t *testing.T) {
		resp := sendRaw(t, addr, "POST /index.html\r\n\r\n")
		assert.Equal(t, 405, resp.status)
	})

	t.Run("missing file is not found", func(t *testing.T) {
		resp := sendRaw(t, addr, "GET /missing.html\r\n\r\n")
		assert.Equal(t, 404, resp.status)
	})

	t.Run("existing file with disallowed extension is forbidden", func(t *testing.T) {
		resp := sendRaw(t, addr, "GET /app.exe\r\n\r\n")
		assert.Equal(t, 403, resp.status)
	})

	t.Run("empty request is a bad request", func(t *testing.T) {
		resp := sendRaw(t, addr, "")
		assert.Equal(t, 400, resp.status)
	})

	t.Run("every response closes the connection", func(t *testing.T) {
		resp := sendRaw(t, addr, "GET /\r\n\r\n")
		assert.Equal(t, "close", resp.headers["Connection"])
	})
}

func TestIdempotence(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "index.html", "<h1>stable</h1>")
	addr := startServer(t, root)

	first := sendRaw(t, addr, "GET /index.html\r\n\r\n")
	for i := 0; i < 5; i++ {
		resp := sendRaw(t, addr, "GET /index.html\r\n\r\n")
		require.Equal(t, first.status, resp.status)
		require.Equal(t, first.headers, resp.headers)
		require.Equal(t, first.body, resp.body)
	}
}

func TestConcurrentDistinctFiles(t *testing.T) {
	root := t.TempDir()
	const clients = 16
	for i := 0; i < clients; i++ {
		writeFile(t, root, fmt.Sprintf("file%d.html", i), strings.Repeat(fmt.Sprintf("<p>%d</p>", i), i+1))
	}
	addr := startServer(t, root)

	var wg sync.WaitGroup
	errs := make(chan string, clients)
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			want := strings.Repeat(fmt.Sprintf("<p>%d</p>", i), i+1)

			conn, err := net.Dial("tcp", addr)
			if err != nil {
				errs <- fmt.Sprintf("client %d: dial: %v", i, err)
				return
			}
			defer conn.Close()
			if _, err := fmt.Fprintf(conn, "GET /file%d.html\r\n\r\n", i); err != nil {
				errs <- fmt.Sprintf("client %d: write: %v", i, err)
				return
			}
			conn.SetReadDeadline(time.Now().Add(5 * time.Second))
			raw, err := io.ReadAll(conn)
			if err != nil {
				errs <- fmt.Sprintf("client %d: read: %v", i, err)
				return
			}
			body := ""
			if sep := strings.Index(string(raw), "\r\n\r\n"); sep >= 0 {
				body = string(raw[sep+4:])
			}
			if body != want {
				errs <- fmt.Sprintf("client %d: got %q, want %q", i, body, want)
				return
			}
			if !strings.Contains(string(raw), fmt.Sprintf("Content-Length: %d\r\n", len(want))) {
				errs <- fmt.Sprintf("client %d: wrong Content-Length in %q", i, raw)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Error(e)
	}
}
