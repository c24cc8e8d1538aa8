package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	CoinGecko CoinGeckoConfig `mapstructure:"coingecko"`
	Processor ProcessorConfig `mapstructure:"processor"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Log       LogConfig       `mapstructure:"log"`
}

type DashboardConfig struct {
	APIBaseURL  string        `mapstructure:"api_base_url"`
	ChannelURL  string        `mapstructure:"channel_url"`
	LogInterval time.Duration `mapstructure:"log_interval"` // how often the current view is printed
}

type ProcessorConfig struct {
	NumWorkers int `mapstructure:"num_workers"`
}

type AppConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"` // e.g., "local", "prod"
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"` // pub/sub channel for refresh notifications
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

type CoinGeckoConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	VsCurrency string        `mapstructure:"vs_currency"`
	PerPage    int           `mapstructure:"per_page"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Interval   time.Duration `mapstructure:"interval"` // how often the ETL pulls a fresh snapshot
}

// LogConfig defines the logger configuration options.
type LogConfig struct {
	Level      string `mapstructure:"level"`       // "debug", "info", "warn", "error"
	Format     string `mapstructure:"format"`      // "json" or "console"
	OutputFile string `mapstructure:"output_file"` // file path to store logs (optional)
}

// LoadConfig reads configuration from .env file, environment variables, and defaults.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// Load .env file into System Environment (if it exists) so variables like
	// APP_PORT are available as real env vars
	if err := godotenv.Load(); err != nil {
		log.Println("Note: No .env file found, relying on System Env Vars")
	}

	v.SetDefault("app.port", ":8080")
	v.SetDefault("app.env", "local")

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.dbname", "crypto")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.timezone", "UTC")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel", "prices.refresh")

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "price_observations")
	v.SetDefault("kafka.group_id", "crypto-processor-group")

	v.SetDefault("coingecko.base_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("coingecko.vs_currency", "usd")
	v.SetDefault("coingecko.per_page", 10)
	v.SetDefault("coingecko.timeout", 10*time.Second)
	v.SetDefault("coingecko.interval", 5*time.Minute)

	v.SetDefault("processor.num_workers", 4)

	v.SetDefault("dashboard.api_base_url", "http://localhost:8080")
	v.SetDefault("dashboard.channel_url", "ws://localhost:8080/ws")
	v.SetDefault("dashboard.log_interval", 30*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output_file", "")

	// Map dot-notation to underscores (e.g., "postgres.host" -> "POSTGRES_HOST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind env vars so flat vars map into the nested structs
	bindEnv(v, "app.port", "app.env")
	bindEnv(v, "postgres.host", "postgres.port", "postgres.user", "postgres.password",
		"postgres.dbname", "postgres.sslmode", "postgres.timezone")
	bindEnv(v, "redis.addr", "redis.password", "redis.db", "redis.channel")
	bindEnv(v, "kafka.brokers", "kafka.topic", "kafka.group_id")
	bindEnv(v, "coingecko.base_url", "coingecko.vs_currency", "coingecko.per_page",
		"coingecko.timeout", "coingecko.interval")
	bindEnv(v, "processor.num_workers")
	bindEnv(v, "dashboard.api_base_url", "dashboard.channel_url", "dashboard.log_interval")
	bindEnv(v, "log.level", "log.format", "log.output_file")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %v", err)
	}

	// A broken store configuration must refuse to serve, not limp along.
	if cfg.Postgres.DBName == "" || cfg.Postgres.User == "" {
		return nil, fmt.Errorf("postgres user and dbname are required")
	}
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers cannot be empty")
	}

	return &cfg, nil
}

// bindEnv is a helper to bind multiple keys at once
func bindEnv(v *viper.Viper, keys ...string) {
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			log.Printf("Could not bind env var for key %s: %v", key, err)
		}
	}
}
