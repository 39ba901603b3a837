// Package config loads the configuration for the content-sniff tools from a YAML file.
//
// The file is specified either with the CONTENT_SNIFF_CONFIG environment
// variable (via [Load]) or a --config flag (via [LoadFile]). There is no
// automatic discovery. Missing fields keep the values from [Default].
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/italypaleale/content-sniffer-go/pkg/filetype"
)

// EnvVar is the environment variable read by Load
const EnvVar = "CONTENT_SNIFF_CONFIG"

// Config is the configuration for the content sniffer
type Config struct {
	// Log configures logging.
	Log LogConfig `yaml:"log"`

	// Oracle configures the fallback used when no signature matches.
	Oracle OracleConfig `yaml:"oracle"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	// Default: info
	Level string `yaml:"level"`

	// Format is either json or text.
	// Default: text
	Format string `yaml:"format"`
}

// OracleConfig configures the fallback oracle.
type OracleConfig struct {
	// Magic enables detection of magic numbers not covered by the sniffing table.
	// Default: true
	Magic bool `yaml:"magic"`

	// Extension enables guessing from the extension of the URI.
	// Default: true
	Extension bool `yaml:"extension"`

	// Deep enables content inspection for text-based and uncommon formats.
	// Default: true
	Deep bool `yaml:"deep"`

	// Extensions maps file extensions (with the leading dot) to media types.
	// These take precedence over the system's mappings.
	Extensions map[string]string `yaml:"extensions"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Oracle: OracleConfig{
			Magic:     true,
			Extension: true,
			Deep:      true,
		},
	}
}

// Load reads the configuration from the file named by the CONTENT_SNIFF_CONFIG environment variable.
// If the variable is not set, it returns the default configuration.
func Load() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads the configuration from a YAML file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses a YAML document on top of the default configuration, and validates the result.
func Parse(data []byte) (*Config, error) {
	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}

	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", c.Log.Format)
	}

	for ext, mt := range c.Oracle.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("oracle.extensions: extension %q must start with a dot", ext)
		}
		if !strings.Contains(mt, "/") {
			return fmt.Errorf("oracle.extensions: %q is not a media type", mt)
		}
	}

	return nil
}

// NewOracle returns the fallback oracle described by the configuration.
func (c *Config) NewOracle() *filetype.Oracle {
	var exts map[string]string
	if len(c.Oracle.Extensions) > 0 {
		exts = make(map[string]string, len(c.Oracle.Extensions))
		for ext, mt := range c.Oracle.Extensions {
			exts[strings.ToLower(ext)] = mt
		}
	}
	return &filetype.Oracle{
		Magic:      c.Oracle.Magic,
		Extension:  c.Oracle.Extension,
		Deep:       c.Oracle.Deep,
		Extensions: exts,
	}
}

// NewLogger returns a structured logger that writes to w.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	// Validate has already checked the level
	level, _ := parseLevel(c.Log.Level)
	opts := &slog.HandlerOptions{Level: level}

	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return level, errors.New("log.level is required")
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
