package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vango-dev/moqwire/internal/errors"
	"github.com/vango-dev/moqwire/pkg/protocol"
	"github.com/vango-dev/moqwire/pkg/transport"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "moqwire.json"

	// DefaultAddr is the default HTTP listen address.
	DefaultAddr = "localhost:8080"

	// DefaultReadLimit bounds HTTP request bodies.
	DefaultReadLimit = 1 << 20

	// DefaultCaptureDir is where captures go when no bucket is configured.
	DefaultCaptureDir = "captures"
)

// Config represents the complete moqwire.json configuration.
type Config struct {
	// Server contains HTTP server configuration.
	Server ServerConfig `json:"server"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics"`

	// Tracing contains OpenTelemetry configuration.
	Tracing TracingConfig `json:"tracing"`

	// Capture contains capture storage configuration.
	Capture CaptureConfig `json:"capture"`

	// Log contains logging configuration.
	Log LogConfig `json:"log"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty"`

	// ReadLimit bounds request bodies in bytes.
	ReadLimit int64 `json:"readLimit,omitempty"`

	// MaxMessageSize bounds a single buffered control message.
	MaxMessageSize int `json:"maxMessageSize,omitempty"`

	// SelectedVersion is the version the WebSocket peer answers a client
	// setup with, in hex or decimal.
	SelectedVersion string `json:"selectedVersion,omitempty"`

	// ShutdownTimeout bounds graceful shutdown (e.g., "10s").
	ShutdownTimeout string `json:"shutdownTimeout,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled exposes metrics and observes every parse.
	Enabled bool `json:"enabled"`

	// Namespace is the metric name prefix.
	Namespace string `json:"namespace,omitempty"`

	// Subsystem is the metric name infix.
	Subsystem string `json:"subsystem,omitempty"`

	// Path is the scrape endpoint.
	Path string `json:"path,omitempty"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	// Enabled emits one span per parse through the global tracer provider.
	Enabled bool `json:"enabled"`

	// TracerName is the instrumentation name.
	TracerName string `json:"tracerName,omitempty"`
}

// CaptureConfig contains capture storage settings.
type CaptureConfig struct {
	// Dir is the capture directory for the file store.
	Dir string `json:"dir,omitempty"`

	// MaxSize bounds a single capture in bytes (0 = no limit).
	MaxSize int64 `json:"maxSize,omitempty"`

	// S3 selects the S3 store when Bucket is set.
	S3 S3Config `json:"s3,omitempty"`
}

// S3Config locates the capture bucket.
type S3Config struct {
	Bucket   string `json:"bucket,omitempty"`
	Prefix   string `json:"prefix,omitempty"`
	Region   string `json:"region,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty"`

	// Format is "text" or "json".
	Format string `json:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            DefaultAddr,
			ReadLimit:       DefaultReadLimit,
			MaxMessageSize:  transport.DefaultMaxMessageSize,
			SelectedVersion: "0xff000006",
			ShutdownTimeout: "10s",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "moqwire",
			Path:      "/metrics",
		},
		Tracing: TracingConfig{
			TracerName: "moqwire",
		},
		Capture: CaptureConfig{
			Dir:     DefaultCaptureDir,
			MaxSize: 8 << 20,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for moqwire.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E100").
				WithDetail("No " + ConfigFileName + " found at " + path)
		}
		return nil, errors.New("E101").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E101").
			WithDetail("Failed to parse " + path + ": " + err.Error()).
			WithSuggestion("Check that " + ConfigFileName + " is valid JSON")
	}
	cfg.configPath = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E101").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E101").Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.ReadLimit <= 0 {
		return invalid("server.readLimit must be positive")
	}
	if c.Server.MaxMessageSize <= 0 {
		return invalid("server.maxMessageSize must be positive")
	}
	if _, err := c.Version(); err != nil {
		return err
	}
	if _, err := c.ShutdownTimeout(); err != nil {
		return err
	}
	if c.Metrics.Path != "" && !strings.HasPrefix(c.Metrics.Path, "/") {
		return invalid("metrics.path must start with /")
	}
	if c.Capture.MaxSize < 0 {
		return invalid("capture.maxSize must not be negative")
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return invalid(fmt.Sprintf("log.format must be text or json, got %q", c.Log.Format))
	}
	return nil
}

func invalid(detail string) error {
	return errors.New("E102").WithDetail(detail)
}

// Version parses Server.SelectedVersion.
func (c *Config) Version() (uint32, error) {
	v, err := strconv.ParseUint(c.Server.SelectedVersion, 0, 32)
	if err != nil {
		return 0, invalid(fmt.Sprintf("server.selectedVersion %q is not a 32-bit number", c.Server.SelectedVersion))
	}
	if v > protocol.MaxVersion {
		return 0, invalid("server.selectedVersion is out of range")
	}
	return uint32(v), nil
}

// ShutdownTimeout parses Server.ShutdownTimeout. An empty value means no
// timeout.
func (c *Config) ShutdownTimeout() (time.Duration, error) {
	if c.Server.ShutdownTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Server.ShutdownTimeout)
	if err != nil || d < 0 {
		return 0, invalid(fmt.Sprintf("server.shutdownTimeout %q is not a duration", c.Server.ShutdownTimeout))
	}
	return d, nil
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if c.Log.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, invalid(fmt.Sprintf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	return level, nil
}

// NewLogger builds the logger described by Log, writing to w.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, _ := c.LogLevel()
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find moqwire.json.
// Returns the directory containing it, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E100").
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working
// directory or its nearest parent holding moqwire.json. When there is none
// it returns the defaults.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return New(), nil
	}
	return Load(root)
}
