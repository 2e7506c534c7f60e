// Package config provides configuration management for the cutscript
// agent. Defaults are overridden first by an optional YAML file, then
// by environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// Default values
	DefaultPort     = 8690
	DefaultLogLevel = "info"
	DefaultDataDir  = ".cutscript"

	// Environment variable names
	EnvPort       = "CUTSCRIPT_PORT"
	EnvLogLevel   = "CUTSCRIPT_LOG_LEVEL"
	EnvDataDir    = "CUTSCRIPT_DATA_DIR"
	EnvConfigFile = "CUTSCRIPT_CONFIG"
	EnvFFProbe    = "CUTSCRIPT_FFPROBE"
	EnvDebounceMs = "CUTSCRIPT_DEBOUNCE_MS"
	EnvWatchMs    = "CUTSCRIPT_WATCH_MS"

	// Database filename
	DBFilename = "cutscript.db"

	// Timing defaults
	DefaultDebounceMs    = 500 // script recompile debounce
	DefaultWatchMs       = 1000
	DefaultProbeTimeoutS = 10
)

// Config defines the application configuration interface.
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	FFProbePath() string
	Debounce() time.Duration
	WatchInterval() time.Duration
	ProbeTimeout() time.Duration
}

// EnvConfig holds the resolved configuration.
type EnvConfig struct {
	port       int
	logLevel   string
	dataDir    string
	ffprobe    string
	debounceMs int
	watchMs    int
}

// New builds the configuration: defaults, then the YAML file named by
// CUTSCRIPT_CONFIG (or <data dir>/config.yaml when present), then
// environment variable overrides.
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:       DefaultPort,
		logLevel:   DefaultLogLevel,
		dataDir:    defaultDataDir(),
		debounceMs: DefaultDebounceMs,
		watchMs:    DefaultWatchMs,
	}

	if err := cfg.applyFile(); err != nil {
		return nil, err
	}

	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	if fp := os.Getenv(EnvFFProbe); fp != "" {
		cfg.ffprobe = fp
	}

	if ms := os.Getenv(EnvDebounceMs); ms != "" {
		v, err := strconv.Atoi(ms)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("invalid %s: %q", EnvDebounceMs, ms)
		}
		cfg.debounceMs = v
	}

	if ms := os.Getenv(EnvWatchMs); ms != "" {
		v, err := strconv.Atoi(ms)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("invalid %s: %q", EnvWatchMs, ms)
		}
		cfg.watchMs = v
	}

	return cfg, nil
}

// Port returns the HTTP server port.
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error).
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path.
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file.
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// FFProbePath returns the ffprobe binary override, empty for PATH
// lookup.
func (c *EnvConfig) FFProbePath() string {
	return c.ffprobe
}

// Debounce returns the recompile coalescing delay.
func (c *EnvConfig) Debounce() time.Duration {
	return time.Duration(c.debounceMs) * time.Millisecond
}

// WatchInterval returns the script file poll interval.
func (c *EnvConfig) WatchInterval() time.Duration {
	return time.Duration(c.watchMs) * time.Millisecond
}

// ProbeTimeout returns the per-file ffprobe timeout.
func (c *EnvConfig) ProbeTimeout() time.Duration {
	return DefaultProbeTimeoutS * time.Second
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
