// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and environment variables on top of New().
// - Validation failures wrap ErrInvalidConfig; read/parse failures wrap ErrLoadConfig.
package config

import (
	"fmt"
	"runtime"
)

// Limits enforced by Validate.
const (
	// HardMaxEvents caps max_events: 2^30 outcomes need two 8 GiB sequences.
	HardMaxEvents = 30
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// MaxEvents is the largest event count a query may enumerate.
	MaxEvents int `koanf:"max_events"`

	// WorkerCount sets the number of batch workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the batch job queue.
	QueueSize int `koanf:"queue_size"`

	// MemoSize bounds the result memo; 0 disables it.
	MemoSize int `koanf:"memo_size"`

	// MaxBatchSize caps the number of queries in one POST /v1/batch.
	MaxBatchSize int `koanf:"max_batch_size"`

	// MaxDistributionPoints caps the distinct totals one distribution may report.
	MaxDistributionPoints int `koanf:"max_distribution_points"`

	// MetricsNamespace prefixes every exported Prometheus metric.
	MetricsNamespace string `koanf:"metrics_namespace"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":9080",
		MaxEvents:             24,
		WorkerCount:           runtime.NumCPU(),
		QueueSize:             1024,
		MemoSize:              4096,
		MaxBatchSize:          256,
		MaxDistributionPoints: 1 << 16,
		MetricsNamespace:      "duelodds",
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.MaxEvents < 1 || c.MaxEvents > HardMaxEvents:
		return fmt.Errorf("%w: max_events must be in [1,%d], got %d", ErrInvalidConfig, HardMaxEvents, c.MaxEvents)
	case c.MaxBatchSize < 1:
		return fmt.Errorf("%w: max_batch_size must be positive, got %d", ErrInvalidConfig, c.MaxBatchSize)
	case c.MemoSize < 0:
		return fmt.Errorf("%w: memo_size must not be negative, got %d", ErrInvalidConfig, c.MemoSize)
	case c.MaxDistributionPoints < 1:
		return fmt.Errorf("%w: max_distribution_points must be positive, got %d", ErrInvalidConfig, c.MaxDistributionPoints)
	case c.MetricsNamespace == "":
		return fmt.Errorf("%w: metrics_namespace must not be empty", ErrInvalidConfig)
	}
	return nil
}
