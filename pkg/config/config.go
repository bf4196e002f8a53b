// pkg/config/config.go
package config

import (
	"fmt"
	"strings"
)

// Config is the root configuration structure for the batch solver binary.
type Config struct {
	App     AppConfig     `koanf:"app"`
	Log     LogConfig     `koanf:"log"`
	Batch   BatchConfig   `koanf:"batch"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"` // development, staging, production
	Debug       bool   `koanf:"debug"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `koanf:"level"`       // debug, info, warn, error
	Format     string `koanf:"format"`      // json, text
	Output     string `koanf:"output"`      // stdout, stderr, file
	FilePath   string `koanf:"file_path"`   // log file path, when output is "file"
	MaxSize    int    `koanf:"max_size"`    // MB
	MaxBackups int    `koanf:"max_backups"` // retained rotated files
	MaxAge     int    `koanf:"max_age"`     // days
	Compress   bool   `koanf:"compress"`
}

// BatchConfig holds the settings for a batch solver run: where instances
// are read from, where solutions are written, and the algorithm knobs
// exposed to the operator.
type BatchConfig struct {
	InputDir         string `koanf:"input_dir"`
	OutputDir        string `koanf:"output_dir"`
	CapacityOverride int64  `koanf:"capacity_override"` // 0 means "use the instance's own capacity"
	WorkerPoolSize   int    `koanf:"worker_pool_size"`  // 0 means runtime.NumCPU()
	VNDMaxIterations int    `koanf:"vnd_max_iterations"`
	OutputFilePrefix string `koanf:"output_file_prefix"`
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Port      int    `koanf:"port"`
	Path      string `koanf:"path"`
	Namespace string `koanf:"namespace"`
	Subsystem string `koanf:"subsystem"`
}

// Validate checks the configuration for obviously invalid values.
func (c *Config) Validate() error {
	var errs []string

	if c.App.Name == "" {
		errs = append(errs, "app.name is required")
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log.level must be one of: debug, info, warn, error, got %s", c.Log.Level))
	}

	if c.Batch.CapacityOverride < 0 {
		errs = append(errs, "batch.capacity_override must be non-negative")
	}

	if c.Batch.WorkerPoolSize < 0 {
		errs = append(errs, "batch.worker_pool_size must be non-negative")
	}

	if c.Batch.VNDMaxIterations < 0 {
		errs = append(errs, "batch.vnd_max_iterations must be non-negative")
	}

	if c.Metrics.Enabled && (c.Metrics.Port <= 0 || c.Metrics.Port > 65535) {
		errs = append(errs, fmt.Sprintf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}

// IsDevelopment reports whether the app is configured for development.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "dev"
}

// IsProduction reports whether the app is configured for production.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production" || c.App.Environment == "prod"
}
