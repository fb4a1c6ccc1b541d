// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Store, Passage, Redis, Kafka, Postgres, etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Postgres PostgresConfig `yaml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	Store    StoreConfig    `yaml:"store"`
	Indexer  IndexerConfig  `yaml:"indexer"`
	Passage  PassageConfig  `yaml:"passage"`
	Search   SearchConfig   `yaml:"search"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	RateLimit       float64       `yaml:"rateLimit"`
	RateBurst       int           `yaml:"rateBurst"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings. Analytics publishing is
// skipped entirely when Enabled is false.
type KafkaConfig struct {
	Enabled       bool        `yaml:"enabled"`
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	PassageEvents string `yaml:"passageEvents"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// StoreConfig selects the stored-document engine ("memory", "bolt" or
// "postgres").
type StoreConfig struct {
	Engine string `yaml:"engine"`
	Path   string `yaml:"path"`
	// CompressionLevel is the zstd level used by the bolt engine.
	CompressionLevel int `yaml:"compressionLevel"`
}

// IndexerConfig controls which document fields are indexed and whether
// character offsets are recorded in term vectors.
type IndexerConfig struct {
	CorpusPath   string   `yaml:"corpusPath"`
	Fields       []string `yaml:"fields"`
	StoreOffsets bool     `yaml:"storeOffsets"`
}

// PassageConfig holds the window sizes and decay weights of the passage
// ranker.
type PassageConfig struct {
	Field           string        `yaml:"field"`
	PrimaryWindow   int           `yaml:"primaryWindow"`
	AdjacentWindow  int           `yaml:"adjacentWindow"`
	SecondaryWindow int           `yaml:"secondaryWindow"`
	AdjacentWeight  float64       `yaml:"adjacentWeight"`
	SecondaryWeight float64       `yaml:"secondaryWeight"`
	BigramWeight    float64       `yaml:"bigramWeight"`
	Slop            int           `yaml:"slop"`
	InOrder         bool          `yaml:"inOrder"`
	PrefetchWorkers int           `yaml:"prefetchWorkers"`
	Timeout         time.Duration `yaml:"timeout"`
}

// SearchConfig controls result-count limits.
type SearchConfig struct {
	DefaultRows int `yaml:"defaultRows"`
	MaxRows     int `yaml:"maxRows"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with defaults for any missing
// values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a Config with local-development defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RateLimit:       200,
			RateBurst:       400,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "passages",
			User:            "passages",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "passages-group",
			Topics: KafkaTopics{
				PassageEvents: "passage-events",
			},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
		},
		Store: StoreConfig{
			Engine:           "memory",
			Path:             "data/documents.db",
			CompressionLevel: 3,
		},
		Indexer: IndexerConfig{
			Fields:       []string{"title", "body"},
			StoreOffsets: true,
		},
		Passage: PassageConfig{
			Field:           "body",
			PrimaryWindow:   25,
			AdjacentWindow:  25,
			SecondaryWindow: 25,
			AdjacentWeight:  0.5,
			SecondaryWeight: 0.25,
			BigramWeight:    1.0,
			Slop:            10,
			PrefetchWorkers: 4,
			Timeout:         2 * time.Second,
		},
		Search: SearchConfig{
			DefaultRows: 5,
			MaxRows:     50,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// MaxPassageWindow bounds each passage window size.
const MaxPassageWindow = 1 << 20

// Validate rejects settings the passage ranker cannot work with.
func (c *Config) Validate() error {
	p := c.Passage
	if p.PrimaryWindow < 0 || p.AdjacentWindow < 0 || p.SecondaryWindow < 0 {
		return fmt.Errorf("passage windows must be non-negative (primary=%d adjacent=%d secondary=%d)",
			p.PrimaryWindow, p.AdjacentWindow, p.SecondaryWindow)
	}
	if p.PrimaryWindow > MaxPassageWindow || p.AdjacentWindow > MaxPassageWindow || p.SecondaryWindow > MaxPassageWindow {
		return fmt.Errorf("passage windows must not exceed %d (primary=%d adjacent=%d secondary=%d)",
			MaxPassageWindow, p.PrimaryWindow, p.AdjacentWindow, p.SecondaryWindow)
	}
	if p.AdjacentWeight < 0 || p.SecondaryWeight < 0 || p.BigramWeight < 0 {
		return fmt.Errorf("passage weights must be non-negative")
	}
	if p.Slop < 0 {
		return fmt.Errorf("passage slop must be non-negative, got %d", p.Slop)
	}
	if p.Field == "" {
		return fmt.Errorf("passage field must be set")
	}
	if c.Search.DefaultRows <= 0 || c.Search.MaxRows < c.Search.DefaultRows {
		return fmt.Errorf("search rows invalid (default=%d max=%d)", c.Search.DefaultRows, c.Search.MaxRows)
	}
	switch c.Store.Engine {
	case "memory", "bolt", "postgres":
	default:
		return fmt.Errorf("unknown store engine %q", c.Store.Engine)
	}
	return nil
}

// applyEnvOverrides applies SP_* environment variables on top of the file.
// Values that fail to parse are ignored.
func applyEnvOverrides(cfg *Config) {
	envInt("SP_SERVER_PORT", &cfg.Server.Port)
	envString("SP_POSTGRES_HOST", &cfg.Postgres.Host)
	envInt("SP_POSTGRES_PORT", &cfg.Postgres.Port)
	envString("SP_POSTGRES_DATABASE", &cfg.Postgres.Database)
	envString("SP_POSTGRES_USER", &cfg.Postgres.User)
	envString("SP_POSTGRES_PASSWORD", &cfg.Postgres.Password)
	envList("SP_KAFKA_BROKERS", &cfg.Kafka.Brokers)
	envBool("SP_KAFKA_ENABLED", &cfg.Kafka.Enabled)
	envString("SP_REDIS_ADDR", &cfg.Redis.Addr)
	envBool("SP_REDIS_ENABLED", &cfg.Redis.Enabled)
	envString("SP_STORE_ENGINE", &cfg.Store.Engine)
	envString("SP_STORE_PATH", &cfg.Store.Path)
	envString("SP_INDEXER_CORPUS", &cfg.Indexer.CorpusPath)
	envList("SP_INDEXER_FIELDS", &cfg.Indexer.Fields)
	envString("SP_PASSAGE_FIELD", &cfg.Passage.Field)
	envInt("SP_PASSAGE_PRIMARY_WINDOW", &cfg.Passage.PrimaryWindow)
	envInt("SP_PASSAGE_ADJACENT_WINDOW", &cfg.Passage.AdjacentWindow)
	envInt("SP_PASSAGE_SECONDARY_WINDOW", &cfg.Passage.SecondaryWindow)
	envInt("SP_PASSAGE_SLOP", &cfg.Passage.Slop)
	envDuration("SP_PASSAGE_TIMEOUT", &cfg.Passage.Timeout)
	envString("SP_LOGGING_LEVEL", &cfg.Logging.Level)
	envString("SP_LOGGING_FORMAT", &cfg.Logging.Format)
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		*dst = n
	}
}

func envBool(key string, dst *bool) {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		*dst = b
	}
}

func envDuration(key string, dst *time.Duration) {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		*dst = d
	}
}

func envList(key string, dst *[]string) {
	if v := os.Getenv(key); v != "" {
		*dst = strings.Split(v, ",")
	}
}
