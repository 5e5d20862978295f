package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"example.com/webserv/internal/config"
	"example.com/webserv/internal/logger"
	"example.com/webserv/internal/server"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a TOML configuration file")
		port       = flag.Int("port", 0, "listen port (overrides config)")
		root       = flag.String("root", "", "document root (overrides config)")
		logFile    = flag.String("log", "", "log file path (overrides config)")
	)
	flag.Parse()

	var cfg *config.Config
	if *configPath != "" {
		loaded, err := config.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "webserv: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	} else {
		cfg = config.New(config.DefaultPort, "", "")
	}

	// Flag overrides are applied before validation, so -root can supply
	// what the config file leaves out.
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *root != "" {
		cfg.Server.DocumentRoot = *root
	}
	if *logFile != "" {
		cfg.Logging.LogFile = *logFile
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "webserv: invalid configuration: %v\n", err)
		os.Exit(1)
	}

	lg, err := logger.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "webserv: failed to initialize logger: %v\n", err)
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

	if err := srv.Start(); err != nil {
		os.Exit(1)
	}
}
