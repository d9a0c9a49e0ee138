package config

import "time"

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "rostermind",
			Version:     "dev",
			Environment: "development",
			Debug:       false,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           false,
				RequestsPerSecond: 50,
				Burst:             100,
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Memory: MemoryConfig{
			MaxShortTermItems:       100,
			MaxLongTermItems:        1000,
			MaxEpisodicItems:        500,
			MaxSemanticItems:        2000,
			ShortTermRetentionHours: 24,
			LongTermRetentionDays:   30,
			MinPatternConfidence:    0.6,
			PatternLearningEnabled:  true,
		},
		Storage: StorageConfig{
			Type:             "memory",
			SnapshotInterval: 5 * time.Minute,
			Badger: BadgerConfig{
				Path:             "./data/badger",
				SyncWrites:       true,
				ValueLogFileSize: 1073741824, // 1GB
			},
			Redis: RedisConfig{
				Address:   "localhost:6379",
				Password:  "",
				DB:        0,
				KeyPrefix: "rostermind",
			},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
			Port:    9091,
		},
		Tracing: TracingConfig{
			Enabled:     false,
			Exporter:    "otlp",
			Endpoint:    "localhost:4317",
			Timeout:     10 * time.Second,
			SampleRatio: 0.1,
		},
	}
}
