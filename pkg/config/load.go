package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes loads configuration from a byte slice. Fields absent from the
// document keep their Default() values, so a partial file only overrides what
// it mentions.
func LoadFromBytes(data []byte) (*Config, error) {
	config := Default()

	err := yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Apply environment variable overrides
	applyEnvironmentOverrides(&config)

	// Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func applyEnvironmentOverrides(config *Config) {
	// Server name override
	if server := os.Getenv("PERMCTX_SERVER"); server != "" {
		config.Static.Server = server
	}

	// Cache TTL override
	if ttl := os.Getenv("PERMCTX_CACHE_TTL_MS"); ttl != "" {
		if v, err := strconv.Atoi(ttl); err == nil {
			config.Cache.TTLMillis = v
		}
	}

	// Log level override
	if level := os.Getenv("PERMCTX_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// validateConfig validates the configuration and applies defaults where a
// field carries a zero or nonsensical value.
func validateConfig(config *Config) error {
	if config.Cache.TTLMillis <= 0 {
		config.Cache.TTLMillis = Default().Cache.TTLMillis
	}

	if config.Cache.MaxSubjects <= 0 {
		config.Cache.MaxSubjects = Default().Cache.MaxSubjects
	}

	if strings.TrimSpace(config.Static.Server) == "" {
		return fmt.Errorf("static server name must not be empty")
	}

	// Static entries are fed straight into calculators; reject malformed
	// entries at load time rather than on every lookup.
	for k, v := range config.Static.Entries {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("static entry with empty key")
		}
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("static entry %q has an empty value", k)
		}
	}

	if config.Scripting.TimeoutMillis <= 0 {
		config.Scripting.TimeoutMillis = Default().Scripting.TimeoutMillis
	}
	for _, name := range append(config.Scripting.Calculators, config.Scripting.StaticCalculators...) {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("scripting calculator with empty function name")
		}
	}

	if len(config.Meta.PrefixFormatting) == 0 {
		config.Meta.PrefixFormatting = Default().Meta.PrefixFormatting
	}
	if len(config.Meta.SuffixFormatting) == 0 {
		config.Meta.SuffixFormatting = Default().Meta.SuffixFormatting
	}

	switch strings.ToLower(config.Logging.Level) {
	case "debug", "info", "warn", "error", "":
	default:
		return fmt.Errorf("unsupported log level: %s", config.Logging.Level)
	}

	switch strings.ToLower(config.Logging.Format) {
	case "text", "json", "":
	default:
		return fmt.Errorf("unsupported log format: %s", config.Logging.Format)
	}

	return nil
}
