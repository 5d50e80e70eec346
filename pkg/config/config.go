// Package config provides configuration loading and validation for pyimports.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidWorkers     = errors.New("analysis workers must not be negative")
	ErrInvalidTimeout     = errors.New("analysis timeout must not be negative")
	ErrInvalidCacheSize   = errors.New("analysis cache size must not be negative")
	ErrInvalidLogLevel    = errors.New("invalid log level")
	ErrInvalidLogFormat   = errors.New("invalid log format")
	ErrInvalidLogRotation = errors.New("log rotation limits must not be negative")
	ErrInvalidSampleRatio = errors.New("sample ratio must be within [0, 1]")
)

const (
	configName = "pyimports"
	envPrefix  = "PYIMPORTS"
)

// Config holds all configuration for pyimports.
type Config struct {
	Analysis      AnalysisConfig      `mapstructure:"analysis"`
	Scan          ScanConfig          `mapstructure:"scan"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// AnalysisConfig controls the analysis pipeline.
type AnalysisConfig struct {
	ModuleBase string        `mapstructure:"module_base"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Workers    int           `mapstructure:"workers"`
	CacheSize  int           `mapstructure:"cache_size"`
}

// ScanConfig controls which directories the scanner descends into.
type ScanConfig struct {
	SkipVendor bool `mapstructure:"skip_vendor"`
	SkipHidden bool `mapstructure:"skip_hidden"`
}

// LoggingConfig holds logging-specific configuration.
// An empty File logs to stderr.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ObservabilityConfig holds OTLP export and Prometheus settings.
type ObservabilityConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	MetricsAddr  string  `mapstructure:"metrics_addr"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
}

// LoadConfig loads configuration from file and environment variables.
// An empty configPath searches the usual locations and tolerates a missing file.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("$HOME/.config/" + configName)
	}

	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := validateConfig(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// Default returns the configuration used when no file or environment overrides exist.
func Default() *Config {
	viperCfg := viper.New()
	setDefaults(viperCfg)

	var config Config

	// Defaults are well-formed; Unmarshal cannot fail on them.
	_ = viperCfg.Unmarshal(&config)

	return &config
}

// SlogLevel maps the configured level name to a slog level.
func (l LoggingConfig) SlogLevel() slog.Level {
	level, _ := parseLevel(l.Level)

	return level
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("analysis.module_base", "")
	viperCfg.SetDefault("analysis.workers", DefaultWorkers)
	viperCfg.SetDefault("analysis.timeout", DefaultTimeout)
	viperCfg.SetDefault("analysis.cache_size", DefaultCacheSize)

	viperCfg.SetDefault("scan.skip_vendor", DefaultSkipVendor)
	viperCfg.SetDefault("scan.skip_hidden", DefaultSkipHidden)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)
	viperCfg.SetDefault("logging.file", "")
	viperCfg.SetDefault("logging.max_size_mb", DefaultLogMaxSizeMB)
	viperCfg.SetDefault("logging.max_backups", DefaultLogMaxBackups)
	viperCfg.SetDefault("logging.max_age_days", DefaultLogMaxAgeDays)
	viperCfg.SetDefault("logging.compress", DefaultLogCompress)

	viperCfg.SetDefault("observability.otlp_endpoint", "")
	viperCfg.SetDefault("observability.otlp_insecure", false)
	viperCfg.SetDefault("observability.otlp_headers", "")
	viperCfg.SetDefault("observability.sample_ratio", 0.0)
	viperCfg.SetDefault("observability.metrics_addr", "")
}

func validateConfig(config *Config) error {
	if config.Analysis.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, config.Analysis.Workers)
	}

	if config.Analysis.Timeout < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTimeout, config.Analysis.Timeout)
	}

	if config.Analysis.CacheSize < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCacheSize, config.Analysis.CacheSize)
	}

	if _, ok := parseLevel(config.Logging.Level); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, config.Logging.Level)
	}

	switch config.Logging.Format {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, config.Logging.Format)
	}

	if config.Logging.MaxSizeMB < 0 || config.Logging.MaxBackups < 0 || config.Logging.MaxAgeDays < 0 {
		return ErrInvalidLogRotation
	}

	if config.Observability.SampleRatio < 0 || config.Observability.SampleRatio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRatio, config.Observability.SampleRatio)
	}

	return nil
}

func parseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}
