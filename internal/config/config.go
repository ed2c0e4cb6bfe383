package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"burger-bar/internal/connections/database"
	"burger-bar/internal/connections/rabbitmq"
)

type Config struct {
	HTTP     HTTP            `mapstructure:"http"`
	Database database.Config `mapstructure:"database"`
	RabbitMQ rabbitmq.Config `mapstructure:"rabbitmq"`
	Kitchen  StationConfig   `mapstructure:"kitchen"`
	Bar      StationConfig   `mapstructure:"bar"`
}

type HTTP struct {
	Port int `mapstructure:"port"`
}

// StationConfig bounds a station's simulated preparation delay.
type StationConfig struct {
	MinDelayMs int `mapstructure:"min_delay_ms"`
	MaxDelayMs int `mapstructure:"max_delay_ms"`
	Prefetch   int `mapstructure:"prefetch"`
}

// Load reads the YAML config at path. Environment variables prefixed with
// BURGERBAR_ override file values (BURGERBAR_DATABASE_HOST and so on).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("http.port", 5001)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.maxconns", 10)
	v.SetDefault("rabbitmq.port", 5672)
	v.SetDefault("rabbitmq.vhost", "/")
	v.SetDefault("kitchen.min_delay_ms", 2000)
	v.SetDefault("kitchen.max_delay_ms", 5000)
	v.SetDefault("kitchen.prefetch", 1)
	v.SetDefault("bar.min_delay_ms", 1000)
	v.SetDefault("bar.max_delay_ms", 3000)
	v.SetDefault("bar.prefetch", 1)

	v.SetEnvPrefix("BURGERBAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Database.Host == "" || cfg.Database.User == "" || cfg.Database.Database == "" {
		return nil, fmt.Errorf("database config incomplete")
	}
	if cfg.RabbitMQ.Host == "" || cfg.RabbitMQ.User == "" {
		return nil, fmt.Errorf("rabbitmq config incomplete")
	}
	return &cfg, nil
}
