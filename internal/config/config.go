// Package config defines all configuration structures for ProDocuX.
// No I/O or parsing logic lives here — only plain data types and validation.
package config

import (
	"fmt"
	"time"
)

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LearningConfig holds the tunables of the learning engine.  The numeric
// weights and thresholds are configurable defaults rather than fixed
// contracts; see DESIGN.md for the provenance of each value.
type LearningConfig struct {
	// SimilarityWeight, PatternWeight and RepetitionWeight are the confidence
	// formula coefficients.  They should sum to 1.0.
	SimilarityWeight float64 `mapstructure:"similarity_weight"`
	PatternWeight    float64 `mapstructure:"pattern_weight"`
	RepetitionWeight float64 `mapstructure:"repetition_weight"`

	// RepeatCap saturates the logarithmic repetition bonus.
	RepeatCap int `mapstructure:"repeat_cap"`

	// MinRepeat is the observation count below which a correction pattern is
	// never promoted to a stable rule.
	MinRepeat int `mapstructure:"min_repeat"`

	// StableThreshold is the minimum mean confidence for promotion.
	StableThreshold float64 `mapstructure:"stable_threshold"`

	// ApplyThreshold is the minimum event confidence for merging an event's
	// rules into the profile; events below it are recorded as REJECTED.
	ApplyThreshold float64 `mapstructure:"apply_threshold"`

	// DateLayouts is the ordered list of date formats the pattern classifier
	// attempts, first match wins.
	DateLayouts []string `mapstructure:"date_layouts"`

	// LockTimeout bounds the wait for a per-profile write lock; LockRetries
	// and LockBackoff shape the bounded retry loop around it.
	LockTimeout time.Duration `mapstructure:"lock_timeout"`
	LockRetries int           `mapstructure:"lock_retries"`
	LockBackoff time.Duration `mapstructure:"lock_backoff"`
}

// ProfileStoreConfig selects and configures the profile persistence backend.
type ProfileStoreConfig struct {
	// Backend is "file" or "postgres".
	Backend string `mapstructure:"backend"`

	// Dir is the root directory of the file backend.
	Dir string `mapstructure:"dir"`

	// CacheTTL bounds how long a loaded profile may be served from cache.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`

	// WatchExternalEdits enables filesystem notification on the file backend
	// so profiles edited outside the API invalidate the cache.
	WatchExternalEdits bool `mapstructure:"watch_external_edits"`
}

// DatabaseConfig holds PostgreSQL connection parameters (postgres backend).
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// RedisConfig holds Redis connection parameters for the per-profile lock and
// the profile cache.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds the learning-event producer parameters.
type KafkaConfig struct {
	Enabled         bool     `mapstructure:"enabled"`
	Brokers         []string `mapstructure:"brokers"`
	Topic           string   `mapstructure:"topic"`
	ProducerRetries int      `mapstructure:"producer_retries"`
	BatchTimeoutMS  int      `mapstructure:"batch_timeout_ms"`
}

// MinIOConfig holds the corrected-document archive parameters.
type MinIOConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level            string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format           string   `mapstructure:"format"` // "json" | "console"
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// Config is the root configuration structure for the whole application.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Learning     LearningConfig     `mapstructure:"learning"`
	ProfileStore ProfileStoreConfig `mapstructure:"profile_store"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Kafka        KafkaConfig        `mapstructure:"kafka"`
	MinIO        MinIOConfig        `mapstructure:"minio"`
	Log          LogConfig          `mapstructure:"log"`
}

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start the application.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	sum := c.Learning.SimilarityWeight + c.Learning.PatternWeight + c.Learning.RepetitionWeight
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("config: learning weights must sum to 1.0, got %.3f", sum)
	}
	if c.Learning.RepeatCap < 1 {
		return fmt.Errorf("config: learning.repeat_cap must be ≥ 1, got %d", c.Learning.RepeatCap)
	}
	if c.Learning.MinRepeat < 1 {
		return fmt.Errorf("config: learning.min_repeat must be ≥ 1, got %d", c.Learning.MinRepeat)
	}
	if c.Learning.StableThreshold < 0 || c.Learning.StableThreshold > 1 {
		return fmt.Errorf("config: learning.stable_threshold %.3f is out of range [0, 1]", c.Learning.StableThreshold)
	}
	if c.Learning.ApplyThreshold < 0 || c.Learning.ApplyThreshold > 1 {
		return fmt.Errorf("config: learning.apply_threshold %.3f is out of range [0, 1]", c.Learning.ApplyThreshold)
	}
	if len(c.Learning.DateLayouts) == 0 {
		return fmt.Errorf("config: learning.date_layouts must not be empty")
	}
	if c.Learning.LockRetries < 0 {
		return fmt.Errorf("config: learning.lock_retries must be ≥ 0, got %d", c.Learning.LockRetries)
	}

	switch c.ProfileStore.Backend {
	case "file":
		if c.ProfileStore.Dir == "" {
			return fmt.Errorf("config: profile_store.dir is required for the file backend")
		}
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("config: database.host is required for the postgres backend")
		}
		if c.Database.User == "" {
			return fmt.Errorf("config: database.user is required for the postgres backend")
		}
		if c.Database.DBName == "" {
			return fmt.Errorf("config: database.db_name is required for the postgres backend")
		}
	default:
		return fmt.Errorf("config: profile_store.backend %q is invalid; expected file|postgres", c.ProfileStore.Backend)
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required when redis is enabled")
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("config: kafka.topic is required when kafka is enabled")
		}
	}
	if c.MinIO.Enabled && c.MinIO.Endpoint == "" {
		return fmt.Errorf("config: minio.endpoint is required when minio is enabled")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}
