package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	Answer    AnswerConfig    `mapstructure:"answer"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StorageConfig selects the durable key-value backend for chat history
type StorageConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=memory file sqlite mysql postgres redis mongo"`
	Key    string `mapstructure:"key" validate:"required"`
	// Path is the data directory for the file driver and the database file for sqlite
	Path string `mapstructure:"path"`
	// DSN is used by the mysql driver
	DSN string `mapstructure:"dsn"`
}

type DatabaseConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	Database   string `mapstructure:"database"`
	SSLMode    string `mapstructure:"ssl_mode"`
	MaxConns   int32  `mapstructure:"max_conns"`
	MinConns   int32  `mapstructure:"min_conns"`
	Migrations bool   `mapstructure:"migrations"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Enabled  bool   `mapstructure:"enabled"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

// AnswerConfig describes the external answer service.
// Framing has no default: a deployment must say which wire format its backend streams.
type AnswerConfig struct {
	BaseURL      string        `mapstructure:"base_url" validate:"required,url"`
	Framing      string        `mapstructure:"framing" validate:"required,oneof=ndjson sse"`
	ChatPath     string        `mapstructure:"chat_path" validate:"required"`
	StreamPath   string        `mapstructure:"stream_path" validate:"required"`
	FeedbackPath string        `mapstructure:"feedback_path" validate:"required"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	Burst             int `mapstructure:"burst"`
}

type LoggingConfig struct {
	Level        string        `mapstructure:"level" validate:"omitempty,oneof=trace debug info warn error"`
	Format       string        `mapstructure:"format" validate:"omitempty,oneof=json console"`
	File         string        `mapstructure:"file"`
	MaxAge       time.Duration `mapstructure:"max_age"`
	RotationTime time.Duration `mapstructure:"rotation_time"`
}

var validate = validator.New()

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set config file path
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	// Override with environment variables
	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the struct tags on the configuration
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "0s") // chat streams stay open
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "15s")

	// Storage
	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.key", "vu-chat-sessions")
	v.SetDefault("storage.path", "./data")

	// Database
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "admission")
	v.SetDefault("database.database", "admission")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.migrations", true)

	// Redis
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.enabled", false)

	// Mongo
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "admission")
	v.SetDefault("mongo.collection", "kv_store")

	// Answer service
	v.SetDefault("answer.base_url", "http://localhost:8000")
	v.SetDefault("answer.chat_path", "/api/chat")
	v.SetDefault("answer.stream_path", "/api/chat/stream")
	v.SetDefault("answer.feedback_path", "/api/feedback")
	v.SetDefault("answer.timeout", "60s")

	// Rate limit
	v.SetDefault("rate_limit.requests_per_minute", 30)
	v.SetDefault("rate_limit.burst", 5)

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.max_age", "168h")
	v.SetDefault("logging.rotation_time", "24h")
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("storage.driver", "STORAGE_DRIVER")
	v.BindEnv("storage.path", "STORAGE_PATH")
	v.BindEnv("storage.dsn", "MYSQL_DSN")

	// Database
	v.BindEnv("database.host", "POSTGRES_HOST")
	v.BindEnv("database.password", "POSTGRES_PASSWORD")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.enabled", "REDIS_ENABLED")

	v.BindEnv("mongo.uri", "MONGO_URI")

	// Answer service
	v.BindEnv("answer.base_url", "ANSWER_BASE_URL")
	v.BindEnv("answer.framing", "ANSWER_FRAMING")

	v.BindEnv("logging.level", "LOG_LEVEL")
	v.BindEnv("logging.file", "LOG_FILE")
}
