package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"example.com/webserv/internal/config"
	"example.com/webserv/internal/logger"
	"example.com/webserv/internal/server"
)

func main() {
	if len(os.Args) < 3 || len(os.Args) > 4 {
		fmt.Fprintf(os.Stderr, "Usage: %s <port> <document-root> [log-file]\n", os.Args[0])
		os.Exit(2)
	}

	port, err := strconv.Atoi(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid port %q: %v\n", os.Args[1], err)
		os.Exit(2)
	}
	logFile := ""
	if len(os.Args) == 4 {
		logFile = os.Args[3]
	}

	cfg := config.New(port, os.Args[2], logFile)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	lg, err := logger.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Close()

	srv, err := server.New(cfg, lg)
	if err != nil {
		lg.Error("failed to create server", logger.LogFields{"error": err.Error()})
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		lg.Info("signal received, stopping server", logger.LogFields{"signal": sig.String()})
		srv.Stop()
	}()

	// Blocks until Stop; only a bind failure makes it return an error.
	if err := srv.Start(); err != nil {
		os.Exit(1)
	}
}
