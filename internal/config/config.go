package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	minCollectionIntervalSeconds = 1
	maxCollectionIntervalSeconds = 3600
)

type Config struct {
	Paths      PathsConfig      `toml:"paths"`
	Collection CollectionConfig `toml:"collection"`
	Log        LogConfig        `toml:"log"`
}

type PathsConfig struct {
	ProcRoot string `toml:"proc_root"`
	SysRoot  string `toml:"sys_root"`
}

type CollectionConfig struct {
	IntervalSeconds         int      `toml:"interval_seconds"`
	IgnoreInterfacePrefixes []string `toml:"ignore_interface_prefixes"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

func DefaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			ProcRoot: "/proc",
			SysRoot:  "/sys",
		},
		Collection: CollectionConfig{
			IntervalSeconds:         2,
			IgnoreInterfacePrefixes: []string{"lo", "veth", "docker", "br-", "virbr"},
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Load reads the TOML file at path over the defaults. Keys absent from the
// file keep their default values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return NormalizeAndValidate(cfg)
}

func NormalizeAndValidate(cfg *Config) (*Config, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}

	sanitized := *cfg

	var err error
	sanitized.Paths.ProcRoot, err = sanitizePath("paths.proc_root", sanitized.Paths.ProcRoot)
	if err != nil {
		return nil, err
	}
	sanitized.Paths.SysRoot, err = sanitizePath("paths.sys_root", sanitized.Paths.SysRoot)
	if err != nil {
		return nil, err
	}

	if err := validateRange("collection.interval_seconds", sanitized.Collection.IntervalSeconds, minCollectionIntervalSeconds, maxCollectionIntervalSeconds); err != nil {
		return nil, err
	}

	prefixes := make([]string, 0, len(sanitized.Collection.IgnoreInterfacePrefixes))
	for _, p := range sanitized.Collection.IgnoreInterfacePrefixes {
		if p = strings.TrimSpace(p); p != "" {
			prefixes = append(prefixes, p)
		}
	}
	sanitized.Collection.IgnoreInterfacePrefixes = prefixes

	sanitized.Log.Level = strings.ToLower(strings.TrimSpace(sanitized.Log.Level))
	if _, err := ParseLevel(sanitized.Log.Level); err != nil {
		return nil, err
	}

	sanitized.Log.Format = strings.ToLower(strings.TrimSpace(sanitized.Log.Format))
	switch sanitized.Log.Format {
	case "text", "json":
	default:
		return nil, fmt.Errorf("log.format must be text or json, got %q", cfg.Log.Format)
	}

	return &sanitized, nil
}

// ParseLevel maps debug, info, warn or error onto a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", s)
}

func sanitizePath(name, value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("%s must not be empty", name)
	}
	cleaned := filepath.Clean(trimmed)
	if !filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("%s must be an absolute path, got %q", name, value)
	}
	// Roots are joined into glob patterns during discovery.
	if strings.ContainsAny(cleaned, "*?[") {
		return "", fmt.Errorf("%s must not contain glob characters, got %q", name, value)
	}
	return cleaned, nil
}

func validateRange(name string, value, min, max int) error {
	if value < min || value > max {
		return fmt.Errorf("%s must be between %d and %d, got %d", name, min, max, value)
	}

	return nil
}
