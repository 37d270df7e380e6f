package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server     ServerConfig
	Logger     LoggerConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Mongo      MongoConfig
	Production ProductionConfig
	Report     ReportConfig
}

type ServerConfig struct {
	AppEnv      string
	HTTPPort    string
	GRPCPort    string
	StoreDriver string // "postgres" or "memory"
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
	AutoMigrate     bool
}

// RedisConfig is optional: an empty Addr disables locking and caching.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	LockTTL  time.Duration
	CacheTTL time.Duration
}

// KafkaConfig is optional: no brokers disables events and listeners.
type KafkaConfig struct {
	Brokers         []string
	ProductionTopic string
	OrdersTopic     string
	GroupID         string
}

// MongoConfig is optional: an empty URI disables the report archive.
type MongoConfig struct {
	URI    string
	DBName string
}

type ProductionConfig struct {
	TxTimeout  time.Duration
	MaxRetries int
}

type ReportConfig struct {
	CronSchedule string
	Timezone     string
	WebhookURL   string
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:      getEnv("APP_ENV", "dev"),
			HTTPPort:    getEnv("HTTP_PORT", ":8080"),
			GRPCPort:    getEnv("GRPC_PORT", ":8082"),
			StoreDriver: getEnv("STORE_DRIVER", "postgres"),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "debug"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("POSTGRES_HOST", "localhost"),
			Port:            getEnv("POSTGRES_PORT", "5433"),
			User:            getEnv("POSTGRES_USER", "omnipos"),
			Password:        getEnv("POSTGRES_PASSWORD", "omnipos"),
			DBName:          getEnv("POSTGRES_DB", "omnipos_production"),
			SSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvInt("POSTGRES_CONN_MAX_LIFETIME", 300),
			ConnMaxIdleTime: getEnvInt("POSTGRES_CONN_MAX_IDLE_TIME", 60),
			AutoMigrate:     getEnvBool("POSTGRES_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			LockTTL:  getEnvDuration("REDIS_LOCK_TTL", 5*time.Second),
			CacheTTL: getEnvDuration("REDIS_CACHE_TTL", 10*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:         getEnvSlice("KAFKA_BROKERS", nil),
			ProductionTopic: getEnv("KAFKA_TOPIC_PRODUCTION", "production.events"),
			OrdersTopic:     getEnv("KAFKA_TOPIC_ORDERS", "orders.events"),
			GroupID:         getEnv("KAFKA_GROUP_INVENTORY", "production-inventory"),
		},
		Mongo: MongoConfig{
			URI:    getEnv("MONGODB_URI", ""),
			DBName: getEnv("MONGODB_DB_NAME", "omnipos_reports"),
		},
		Production: ProductionConfig{
			TxTimeout:  getEnvDuration("PRODUCTION_TX_TIMEOUT", 10*time.Second),
			MaxRetries: getEnvInt("PRODUCTION_TX_MAX_RETRIES", 3),
		},
		Report: ReportConfig{
			CronSchedule: getEnv("REPORT_CRON_SCHEDULE", "0 20 * * *"),
			Timezone:     getEnv("TIMEZONE", "UTC"),
			WebhookURL:   getEnv("REPORT_WEBHOOK_URL", ""),
		},
	}
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	switch c.Server.StoreDriver {
	case "postgres":
		if c.Postgres.Host == "" || c.Postgres.DBName == "" {
			return errors.New("POSTGRES_HOST and POSTGRES_DB must be provided")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.Server.StoreDriver)
	}

	if c.Server.HTTPPort == "" {
		return errors.New("HTTP_PORT must be provided")
	}
	if c.Production.TxTimeout <= 0 {
		return errors.New("PRODUCTION_TX_TIMEOUT must be positive")
	}
	if c.Production.MaxRetries < 0 {
		return errors.New("PRODUCTION_TX_MAX_RETRIES must not be negative")
	}
	if c.Report.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}
	if _, err := time.LoadLocation(c.Report.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Report.Timezone, err)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return strings.Split(value, ",")
	}
	return fallback
}
