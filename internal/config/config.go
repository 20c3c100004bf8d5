// Package config loads sercha-widget configuration from an optional YAML
// file and SERCHA_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is stripped from environment variables before mapping them to keys.
const EnvPrefix = "SERCHA_"

const maxConfigFileSize = 1024 * 1024 // 1MB

// Lock backends for the per-tenant reindex lock.
const (
	LockBackendRedis    = "redis"
	LockBackendPostgres = "postgres"
	LockBackendNone     = "none"
)

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	Qdrant    QdrantConfig    `koanf:"qdrant"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	Indexer   IndexerConfig   `koanf:"indexer"`
	Reindex   ReindexConfig   `koanf:"reindex"`
	Auth      AuthConfig      `koanf:"auth"`
	Log       LogConfig       `koanf:"log"`
	Worker    WorkerConfig    `koanf:"worker"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig configures the Postgres content store.
type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
}

// RedisConfig configures the task queue and distributed lock.
// An empty URL disables both.
type RedisConfig struct {
	URL string `koanf:"url"`
}

// QdrantConfig configures the vector store.
type QdrantConfig struct {
	Host         string        `koanf:"host"`
	Port         int           `koanf:"port"`
	APIKey       string        `koanf:"api_key"`
	UseTLS       bool          `koanf:"use_tls"`
	Collection   string        `koanf:"collection"`
	MaxRetries   int           `koanf:"max_retries"`
	RetryBackoff time.Duration `koanf:"retry_backoff"`
	BatchSize    int           `koanf:"batch_size"`
}

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	Provider          string        `koanf:"provider"`
	APIKey            string        `koanf:"api_key"`
	Model             string        `koanf:"model"`
	BaseURL           string        `koanf:"base_url"`
	Dimensions        int           `koanf:"dimensions"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Timeout           time.Duration `koanf:"timeout"`
}

// IndexerConfig configures the per-run item pool.
type IndexerConfig struct {
	Concurrency   int `koanf:"concurrency"`
	MaxInputChars int `koanf:"max_input_chars"`
}

// ReindexConfig configures tenant locking.
type ReindexConfig struct {
	LockBackend  string        `koanf:"lock_backend"`
	LockTTL      time.Duration `koanf:"lock_ttl"`
	LockWait     time.Duration `koanf:"lock_wait"`
	PollInterval time.Duration `koanf:"poll_interval"` // zero uses the guard default
}

// AuthConfig configures bearer tokens.
type AuthConfig struct {
	JWTSecret string        `koanf:"jwt_secret"`
	TokenTTL  time.Duration `koanf:"token_ttl"`
}

// LogConfig configures the root logger.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// WorkerConfig configures the background task worker.
type WorkerConfig struct {
	Concurrency    int    `koanf:"concurrency"`
	DequeueTimeout int    `koanf:"dequeue_timeout"` // seconds
	ConsumerName   string `koanf:"consumer_name"`
}

// Load reads configuration from path (optional) and the environment.
// Environment variables take precedence over the file.
//
//	SERCHA_DATABASE_URL          -> database.url
//	SERCHA_QDRANT_API_KEY        -> qdrant.api_key
//	SERCHA_EMBEDDING_DIMENSIONS  -> embedding.dimensions
func Load(path string) (*Config, error) {
	var content []byte
	if path != "" {
		b, err := readConfigFile(path)
		if err != nil {
			return nil, err
		}
		content = b
	}
	return load(content)
}

func load(content []byte) (*Config, error) {
	k := koanf.New(".")

	if len(content) > 0 {
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// envKey maps SERCHA_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, field, ok := strings.Cut(lower, "_")
	if !ok {
		return lower
	}
	return section + "." + field
}

func readConfigFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config path %s is a directory", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return b, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		// Synchronous reindex responses can take minutes.
		cfg.Server.WriteTimeout = 30 * time.Minute
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}

	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 5 * time.Minute
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = time.Minute
	}

	if cfg.Qdrant.Host == "" {
		cfg.Qdrant.Host = "localhost"
	}
	if cfg.Qdrant.Port == 0 {
		cfg.Qdrant.Port = 6334
	}
	if cfg.Qdrant.Collection == "" {
		cfg.Qdrant.Collection = "widget_content"
	}

	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "openai"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.Embedding.Dimensions == 0 && cfg.Embedding.Provider == "openai" {
		cfg.Embedding.Dimensions = 1536
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = 30 * time.Second
	}

	if cfg.Indexer.Concurrency == 0 {
		cfg.Indexer.Concurrency = 8
	}
	if cfg.Indexer.MaxInputChars == 0 {
		cfg.Indexer.MaxInputChars = 8000
	}

	if cfg.Reindex.LockBackend == "" {
		if cfg.Redis.URL != "" {
			cfg.Reindex.LockBackend = LockBackendRedis
		} else {
			cfg.Reindex.LockBackend = LockBackendPostgres
		}
	}
	if cfg.Reindex.LockTTL == 0 {
		cfg.Reindex.LockTTL = 30 * time.Minute
	}
	if cfg.Reindex.LockWait == 0 {
		cfg.Reindex.LockWait = 2 * time.Minute
	}

	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = 24 * time.Hour
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}

	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = 2
	}
	if cfg.Worker.DequeueTimeout == 0 {
		cfg.Worker.DequeueTimeout = 5
	}
}

// Validate checks the configuration after defaults have been applied.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Database.URL == "" {
		errs = append(errs, errors.New("database.url is required"))
	}
	if c.Qdrant.Port < 1 || c.Qdrant.Port > 65535 {
		errs = append(errs, fmt.Errorf("qdrant.port must be between 1 and 65535, got %d", c.Qdrant.Port))
	}
	if c.Embedding.Dimensions <= 0 {
		errs = append(errs, errors.New("embedding.dimensions is required for this provider"))
	}
	if c.Embedding.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("embedding.requests_per_second must not be negative"))
	}
	if c.Indexer.Concurrency < 0 {
		errs = append(errs, errors.New("indexer.concurrency must not be negative"))
	}

	switch c.Reindex.LockBackend {
	case LockBackendPostgres, LockBackendNone:
	case LockBackendRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("reindex.lock_backend redis requires redis.url"))
		}
	default:
		errs = append(errs, fmt.Errorf("reindex.lock_backend must be redis, postgres or none, got %q", c.Reindex.LockBackend))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	} else if len(c.Auth.JWTSecret) < 32 {
		errs = append(errs, errors.New("auth.jwt_secret must be at least 32 characters"))
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or text, got %q", c.Log.Format))
	}

	if c.Worker.Concurrency < 0 {
		errs = append(errs, errors.New("worker.concurrency must not be negative"))
	}

	return errors.Join(errs...)
}

// Addr returns the HTTP listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
