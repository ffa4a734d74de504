package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type GuardCfg struct {
	Enabled        bool     `yaml:"enabled" json:"enabled"`                 // Check delete/rename targets before acting
	ProtectedPaths []string `yaml:"protected_paths" json:"protected_paths"` // Added to the built-in protected set
}

type PrometheusCfg struct {
	Port int `yaml:"port" json:"port"` // 0 disables the metrics server
}

type LimitsCfg struct {
	MaxCPUPercent float64 `yaml:"max_cpu_percent" json:"max_cpu_percent"` // Pace delete/rename batches; 0 disables
}

type LoggingCfg struct {
	Level        string `yaml:"level" json:"level"`                 // debug, info, warn, error
	File         string `yaml:"file" json:"file"`                   // Log file; "-" disables file logging
	RotationDays int    `yaml:"rotation_days" json:"rotation_days"` // Days to keep logs before rotation
}

type Config struct {
	Root         string        `yaml:"root" json:"root"`                   // Directory scanned at startup
	Recursive    bool          `yaml:"recursive" json:"recursive"`         // Start in recursive mode
	Filter       string        `yaml:"filter" json:"filter"`               // Filter applied after the first scan
	Guard        GuardCfg      `yaml:"guard" json:"guard"`                 // Safety guard for batch operations
	DatabasePath string        `yaml:"database_path" json:"database_path"` // Operation journal; empty disables it
	Prometheus   PrometheusCfg `yaml:"prometheus" json:"prometheus"`
	Limits       LimitsCfg     `yaml:"limits" json:"limits"`
	Logging      LoggingCfg    `yaml:"logging" json:"logging"`
}

var (
	errInvalidPath  = errors.New("path must be absolute")
	errInvalidLevel = errors.New("logging level must be one of debug, info, warn, error")
	errInvalidPort  = errors.New("prometheus port out of range")
	errInvalidCPU   = errors.New("limits.max_cpu_percent must be between 0 and 100")
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{
		Guard: GuardCfg{Enabled: true},
	}
	// Defaults never fail validation
	_ = cfg.validateAndDefault()
	return cfg
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := decode(f)
	if err != nil {
		return nil, err
	}
	if err := cfg.validateAndDefault(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(r io.Reader) (*Config, error) {
	cfg := &Config{
		Guard: GuardCfg{Enabled: true},
	}
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return cfg, nil
}

func (c *Config) validateAndDefault() error {
	if c.Root != "" {
		cp, err := cleanAbsolute(c.Root)
		if err != nil {
			return fmt.Errorf("root: %w", err)
		}
		c.Root = cp
	}

	if c.DatabasePath != "" {
		cp, err := cleanAbsolute(c.DatabasePath)
		if err != nil {
			return fmt.Errorf("database_path: %w", err)
		}
		c.DatabasePath = cp
	}

	for i, p := range c.Guard.ProtectedPaths {
		cp, err := cleanAbsolute(p)
		if err != nil {
			return fmt.Errorf("guard.protected_paths[%d]: %w", i, err)
		}
		c.Guard.ProtectedPaths[i] = cp
	}

	if c.Prometheus.Port < 0 || c.Prometheus.Port > 65535 {
		return fmt.Errorf("%w: %d", errInvalidPort, c.Prometheus.Port)
	}

	if c.Limits.MaxCPUPercent < 0 || c.Limits.MaxCPUPercent > 100 {
		return fmt.Errorf("%w: %v", errInvalidCPU, c.Limits.MaxCPUPercent)
	}

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	switch c.Logging.Level {
	case "":
		c.Logging.Level = "info"
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", errInvalidLevel, c.Logging.Level)
	}

	if c.Logging.RotationDays <= 0 {
		c.Logging.RotationDays = 30 // Default: keep logs for 30 days
	}

	if c.Logging.File == "" {
		c.Logging.File = defaultLogFile()
	}

	return nil
}

// stateDir is $XDG_STATE_HOME/filedeck, falling back to ~/.local/state/filedeck.
func stateDir() (string, bool) {
	base := os.Getenv("XDG_STATE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", false
		}
		base = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(base, "filedeck"), true
}

func defaultLogFile() string {
	dir, ok := stateDir()
	if !ok {
		return "-"
	}
	return filepath.Join(dir, "filedeck.log")
}

// DefaultJournalPath is where filedeck-query looks for the journal when no
// -db flag is given. Returns "" if no home directory is known.
func DefaultJournalPath() string {
	dir, ok := stateDir()
	if !ok {
		return ""
	}
	return filepath.Join(dir, "journal.db")
}

func cleanAbsolute(p string) (string, error) {
	if p == "" {
		return "", errInvalidPath
	}
	cp := filepath.Clean(p)
	if !filepath.IsAbs(cp) {
		return "", fmt.Errorf("%w: %s", errInvalidPath, p)
	}
	return cp, nil
}

// PrometheusAddress returns the metrics listen address, or "" when disabled.
func (c *Config) PrometheusAddress() string {
	if c.Prometheus.Port == 0 {
		return ""
	}
	return fmt.Sprintf(":%d", c.Prometheus.Port)
}
