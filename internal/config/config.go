package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"factory-floor/internal/models"
	"factory-floor/internal/stations"
)

// Config конфигурация приложения
type Config struct {
	Server struct {
		Port         string        `mapstructure:"port"`
		ReadTimeout  time.Duration `mapstructure:"read_timeout"`
		WriteTimeout time.Duration `mapstructure:"write_timeout"`
		IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	} `mapstructure:"server"`
	Redis struct {
		Addr        string        `mapstructure:"addr"`
		Password    string        `mapstructure:"password"`
		DB          int           `mapstructure:"db"`
		SnapshotTTL time.Duration `mapstructure:"snapshot_ttl"`
	} `mapstructure:"redis"`
	Processor struct {
		Workers   int `mapstructure:"workers"`
		QueueSize int `mapstructure:"queue_size"`
	} `mapstructure:"processor"`
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
	Floor struct {
		Stations     []models.StationDefinition `mapstructure:"stations"`
		FieldMapping map[string]string          `mapstructure:"field_mapping"`
	} `mapstructure:"floor"`
}

// Mapping сопоставление полей из конфигурации
func (c *Config) Mapping() stations.FieldMapping {
	return stations.ParseMapping(c.Floor.FieldMapping)
}

// Load загружает config.yaml из каталога path (если есть) и переменные окружения.
// SERVER_PORT, REDIS_ADDR и т.п. переопределяют значения файла.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if len(cfg.Floor.Stations) == 0 {
		cfg.Floor.Stations = stations.DefaultLayout()
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.snapshot_ttl", time.Hour)

	v.SetDefault("processor.workers", 1)
	v.SetDefault("processor.queue_size", 64)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

func (c *Config) validate() error {
	if c.Server.Port == "" {
		return errors.New("server.port must not be empty")
	}
	if c.Processor.Workers <= 0 {
		return fmt.Errorf("processor.workers must be positive, got %d", c.Processor.Workers)
	}
	if c.Processor.QueueSize <= 0 {
		return fmt.Errorf("processor.queue_size must be positive, got %d", c.Processor.QueueSize)
	}
	for name := range c.Floor.FieldMapping {
		if _, ok := stations.ParseField(name); !ok {
			return fmt.Errorf("floor.field_mapping: unknown field %q", name)
		}
	}
	return nil
}
