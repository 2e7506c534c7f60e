package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML config file shape. Every field is optional;
// absent fields keep their defaults.
type fileConfig struct {
	Port       int    `yaml:"port"`
	LogLevel   string `yaml:"log_level"`
	DataDir    string `yaml:"data_dir"`
	FFProbe    string `yaml:"ffprobe"`
	DebounceMs int    `yaml:"debounce_ms"`
	WatchMs    int    `yaml:"watch_ms"`
}

// applyFile loads the YAML config file if one exists. A missing file
// is not an error; a malformed one is.
func (c *EnvConfig) applyFile() error {
	path := os.Getenv(EnvConfigFile)
	if path == "" {
		path = filepath.Join(c.dataDir, "config.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	if fc.Port != 0 {
		if fc.Port < 1 || fc.Port > 65535 {
			return fmt.Errorf("config file %s: port must be between 1 and 65535", path)
		}
		c.port = fc.Port
	}
	if fc.LogLevel != "" {
		c.logLevel = fc.LogLevel
	}
	if fc.DataDir != "" {
		c.dataDir = fc.DataDir
	}
	if fc.FFProbe != "" {
		c.ffprobe = fc.FFProbe
	}
	if fc.DebounceMs > 0 {
		c.debounceMs = fc.DebounceMs
	}
	if fc.WatchMs > 0 {
		c.watchMs = fc.WatchMs
	}

	return nil
}
