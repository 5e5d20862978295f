package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// LogLevel defines the minimum severity for event logs.
type LogLevel string

const (
	LogLevelDebug   LogLevel = "DEBUG"
	LogLevelInfo    LogLevel = "INFO"
	LogLevelWarning LogLevel = "WARNING"
	LogLevelError   LogLevel = "ERROR"
)

// Defaults applied by New and LoadConfig when a value is unset.
const (
	DefaultPort     = 8080
	DefaultDocument = "index.html"
)

// Config is the top-level configuration for the server. It is set once at
// construction and never mutated afterwards.
type Config struct {
	Server  *ServerConfig  `toml:"server"`
	Logging *LoggingConfig `toml:"logging"`
}

// ServerConfig holds the listening and serving settings.
type ServerConfig struct {
	// Port is the TCP port to bind. Port 0 asks the kernel for an
	// ephemeral port (used by tests).
	Port int `toml:"port"`

	// DocumentRoot is the directory outside which no file may be served.
	// Validate resolves it to an absolute path.
	DocumentRoot string `toml:"document_root"`

	// DefaultDocument is served when the request path is "/".
	DefaultDocument string `toml:"default_document"`

	// MaxConnections caps the number of concurrently handled
	// connections. Zero means unbounded, one worker per connection.
	MaxConnections int `toml:"max_connections"`
}

// LoggingConfig configures the event log sinks.
type LoggingConfig struct {
	// LogFile is the path of the durable append-only log. Empty disables
	// the file sink; the console sink is always active.
	LogFile string `toml:"log_file"`

	LogLevel LogLevel `toml:"log_level"`
}

// New builds a configuration programmatically, for callers that do not
// use a config file. Defaults are applied; Validate must still be called.
func New(port int, documentRoot, logFile string) *Config {
	cfg := &Config{
		Server: &ServerConfig{
			Port:         port,
			DocumentRoot: documentRoot,
		},
		Logging: &LoggingConfig{
			LogFile: logFile,
		},
	}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig reads and decodes a TOML configuration file and applies
// defaults. Validation is separate so callers may layer flag overrides on
// top of the decoded values first.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("configuration file path cannot be empty")
	}
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration file %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server == nil {
		c.Server = &ServerConfig{}
	}
	if c.Logging == nil {
		c.Logging = &LoggingConfig{}
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.DefaultDocument == "" {
		c.Server.DefaultDocument = DefaultDocument
	}
	if c.Logging.LogLevel == "" {
		c.Logging.LogLevel = LogLevelInfo
	}
}

// Validate checks the configuration and resolves the document root to an
// absolute path. It must be called once before the config is handed to
// the server.
func (c *Config) Validate() error {
	if c.Server == nil {
		return fmt.Errorf("server configuration section is missing")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid listen port %d", c.Server.Port)
	}
	if c.Server.MaxConnections < 0 {
		return fmt.Errorf("max_connections cannot be negative")
	}
	if c.Server.DocumentRoot == "" {
		return fmt.Errorf("document root must be configured")
	}
	absRoot, err := filepath.Abs(c.Server.DocumentRoot)
	if err != nil {
		return fmt.Errorf("failed to resolve document root %s: %w", c.Server.DocumentRoot, err)
	}
	fi, err := os.Stat(absRoot)
	if err != nil {
		return fmt.Errorf("document root %s is not accessible: %w", absRoot, err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("document root %s is not a directory", absRoot)
	}
	c.Server.DocumentRoot = absRoot

	if c.Logging != nil {
		switch c.Logging.LogLevel {
		case LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelError:
		default:
			return fmt.Errorf("unknown log level %q", c.Logging.LogLevel)
		}
	}
	return nil
}
