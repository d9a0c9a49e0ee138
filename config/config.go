// Package config provides configuration management for Rostermind.
package config

import (
	"time"
)

// Config is the global configuration for the Rostermind memory service.
type Config struct {
	// App is the application configuration.
	App AppConfig `mapstructure:"app" validate:"required"`

	// Server is the HTTP admin server configuration.
	Server ServerConfig `mapstructure:"server" validate:"required"`

	// Log is the logging configuration.
	Log LogConfig `mapstructure:"log" validate:"required"`

	// Memory is the contextual memory engine configuration.
	Memory MemoryConfig `mapstructure:"memory"`

	// Storage is the snapshot persistence configuration.
	Storage StorageConfig `mapstructure:"storage"`

	// Metrics is the observability configuration.
	Metrics MetricsConfig `mapstructure:"metrics"`

	// Tracing is the distributed tracing configuration.
	Tracing TracingConfig `mapstructure:"tracing"`
}

// AppConfig holds application metadata and settings.
type AppConfig struct {
	// Name is the application name.
	Name string `mapstructure:"name" validate:"required"`

	// Version is the application version.
	Version string `mapstructure:"version"`

	// Environment is the runtime environment (development, staging, production).
	Environment string `mapstructure:"environment" validate:"oneof=development staging production"`

	// Debug enables debug mode with verbose logging.
	Debug bool `mapstructure:"debug"`
}

// ServerConfig holds the HTTP admin server configuration.
type ServerConfig struct {
	// Host is the bind address.
	Host string `mapstructure:"host"`

	// Port is the HTTP API port.
	Port int `mapstructure:"port" validate:"required,min=1,max=65535"`

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request.
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`

	// RateLimit is the per-client request rate limit configuration.
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig holds per-client rate limiting settings.
type RateLimitConfig struct {
	// Enabled turns rate limiting on.
	Enabled bool `mapstructure:"enabled"`

	// RequestsPerSecond is the sustained request rate per client.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"min=0"`

	// Burst is the short-term burst allowance per client.
	Burst int `mapstructure:"burst" validate:"min=0"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the log level (debug, info, warn, error).
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`

	// Format is the output format (json, text).
	Format string `mapstructure:"format" validate:"oneof=json text"`

	// Output is the output destination (stdout, stderr, or file path).
	Output string `mapstructure:"output"`
}

// MemoryConfig holds the contextual memory engine options. One engine is
// created per team; every engine starts from these values, and a snapshot
// import may override them per engine.
type MemoryConfig struct {
	// MaxShortTermItems is the short-term tier capacity.
	MaxShortTermItems int `mapstructure:"max_short_term_items" validate:"min=1"`

	// MaxLongTermItems is the long-term tier capacity.
	MaxLongTermItems int `mapstructure:"max_long_term_items" validate:"min=1"`

	// MaxEpisodicItems is the episodic tier capacity.
	MaxEpisodicItems int `mapstructure:"max_episodic_items" validate:"min=1"`

	// MaxSemanticItems is the semantic tier capacity.
	MaxSemanticItems int `mapstructure:"max_semantic_items" validate:"min=1"`

	// ShortTermRetentionHours is the short-term tier age threshold.
	ShortTermRetentionHours int `mapstructure:"short_term_retention_hours" validate:"min=1"`

	// LongTermRetentionDays is the long-term and episodic age threshold.
	LongTermRetentionDays int `mapstructure:"long_term_retention_days" validate:"min=1"`

	// MinPatternConfidence is the success-rate cutoff for pattern retrieval.
	MinPatternConfidence float64 `mapstructure:"min_pattern_confidence" validate:"gte=0,lte=1"`

	// PatternLearningEnabled gates preference and pattern learning. When
	// false, learn calls become no-ops.
	PatternLearningEnabled bool `mapstructure:"pattern_learning_enabled"`
}

// StorageConfig holds snapshot persistence settings.
type StorageConfig struct {
	// Type is the snapshot store backend (memory, badger, redis).
	Type string `mapstructure:"type" validate:"oneof=memory badger redis"`

	// SnapshotInterval is how often engines are snapshotted to the store.
	SnapshotInterval time.Duration `mapstructure:"snapshot_interval"`

	// Badger is the Badger backend configuration.
	Badger BadgerConfig `mapstructure:"badger"`

	// Redis is the Redis backend configuration.
	Redis RedisConfig `mapstructure:"redis"`
}

// BadgerConfig holds Badger-specific settings.
type BadgerConfig struct {
	// Path is the on-disk database directory.
	Path string `mapstructure:"path"`

	// SyncWrites forces fsync on every write.
	SyncWrites bool `mapstructure:"sync_writes"`

	// ValueLogFileSize is the maximum value log file size in bytes.
	ValueLogFileSize int64 `mapstructure:"value_log_file_size"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	// Address is the host:port of the Redis server.
	Address string `mapstructure:"address"`

	// Password is the optional auth password.
	Password string `mapstructure:"password"`

	// DB is the Redis database index.
	DB int `mapstructure:"db" validate:"min=0"`

	// KeyPrefix namespaces all keys written by this service.
	KeyPrefix string `mapstructure:"key_prefix"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	// Enabled turns metrics collection on.
	Enabled bool `mapstructure:"enabled"`

	// Port is the metrics HTTP server port.
	Port int `mapstructure:"port" validate:"min=0,max=65535"`

	// Path is the metrics endpoint path.
	Path string `mapstructure:"path"`
}

// TracingConfig holds OpenTelemetry tracing settings.
type TracingConfig struct {
	// Enabled turns tracing on.
	Enabled bool `mapstructure:"enabled"`

	// Exporter is the span exporter kind (otlp).
	Exporter string `mapstructure:"exporter"`

	// Endpoint is the collector endpoint (host:port).
	Endpoint string `mapstructure:"endpoint"`

	// Timeout bounds exporter calls.
	Timeout time.Duration `mapstructure:"timeout"`

	// SampleRatio is the trace sampling ratio (0.0 to 1.0).
	SampleRatio float64 `mapstructure:"sample_ratio" validate:"gte=0,lte=1"`

	// Headers are extra headers sent to the collector.
	Headers map[string]string `mapstructure:"headers"`
}
