// Package config provides configuration loading, defaults, and validation for
// ProDocuX.
package config

import "time"

const (
	DefaultServerPort = 8080
	DefaultServerMode = "release"

	// Confidence formula defaults.  Reconstructed from qualitative behavior
	// of the correction history, not confirmed numerically; override in
	// configuration when the original behavior is independently verified.
	DefaultSimilarityWeight = 0.4
	DefaultPatternWeight    = 0.3
	DefaultRepetitionWeight = 0.3
	DefaultRepeatCap        = 10
	DefaultMinRepeat        = 3
	DefaultStableThreshold  = 0.6
	DefaultApplyThreshold   = 0.5

	DefaultProfileBackend = "file"
	DefaultProfileDir     = "profiles"

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "prodocux"
	DefaultDBMaxConns = 25

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisKeyPrefix = "prodocux:"

	DefaultKafkaBroker = "localhost:9092"
	DefaultKafkaTopic  = "prodocux.learning.events"

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "prodocux-corrections"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultLockTimeout = 5 * time.Second
	DefaultLockRetries = 3
	DefaultLockBackoff = 200 * time.Millisecond

	DefaultProfileCacheTTL = 5 * time.Minute
)

// DefaultDateLayouts is the ordered list of date formats attempted by the
// pattern classifier; the ISO form is tried before the US form so that
// ambiguous strings resolve deterministically.
var DefaultDateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"2006/01/02",
	"02.01.2006",
	"2006年01月02日",
}

// ApplyDefaults fills every zero-value field in cfg with the platform
// default.  Fields already set by the caller are left unchanged so that
// explicit configuration always wins.  It must be called after unmarshalling
// and before Validate().
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.MaxUploadBytes == 0 {
		cfg.Server.MaxUploadBytes = 32 << 20
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}

	// ── Learning ──────────────────────────────────────────────────────────
	if cfg.Learning.SimilarityWeight == 0 && cfg.Learning.PatternWeight == 0 && cfg.Learning.RepetitionWeight == 0 {
		cfg.Learning.SimilarityWeight = DefaultSimilarityWeight
		cfg.Learning.PatternWeight = DefaultPatternWeight
		cfg.Learning.RepetitionWeight = DefaultRepetitionWeight
	}
	if cfg.Learning.RepeatCap == 0 {
		cfg.Learning.RepeatCap = DefaultRepeatCap
	}
	if cfg.Learning.MinRepeat == 0 {
		cfg.Learning.MinRepeat = DefaultMinRepeat
	}
	if cfg.Learning.StableThreshold == 0 {
		cfg.Learning.StableThreshold = DefaultStableThreshold
	}
	if cfg.Learning.ApplyThreshold == 0 {
		cfg.Learning.ApplyThreshold = DefaultApplyThreshold
	}
	if len(cfg.Learning.DateLayouts) == 0 {
		cfg.Learning.DateLayouts = append([]string(nil), DefaultDateLayouts...)
	}
	if cfg.Learning.LockTimeout == 0 {
		cfg.Learning.LockTimeout = DefaultLockTimeout
	}
	if cfg.Learning.LockRetries == 0 {
		cfg.Learning.LockRetries = DefaultLockRetries
	}
	if cfg.Learning.LockBackoff == 0 {
		cfg.Learning.LockBackoff = DefaultLockBackoff
	}

	// ── Profile store ─────────────────────────────────────────────────────
	if cfg.ProfileStore.Backend == "" {
		cfg.ProfileStore.Backend = DefaultProfileBackend
	}
	if cfg.ProfileStore.Dir == "" {
		cfg.ProfileStore.Dir = DefaultProfileDir
	}
	if cfg.ProfileStore.CacheTTL == 0 {
		cfg.ProfileStore.CacheTTL = DefaultProfileCacheTTL
	}

	// ── Database ──────────────────────────────────────────────────────────
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}

	// ── Redis ─────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = 15 * time.Minute
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = 10
	}

	// ── Kafka ─────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = DefaultKafkaTopic
	}
	if cfg.Kafka.ProducerRetries == 0 {
		cfg.Kafka.ProducerRetries = 3
	}
	if cfg.Kafka.BatchTimeoutMS == 0 {
		cfg.Kafka.BatchTimeoutMS = 100
	}

	// ── MinIO ─────────────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}

	// ── Log ───────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}
