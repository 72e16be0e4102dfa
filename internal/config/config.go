package config

import (
	"time"
)

type Config struct {
	Relays   []string `mapstructure:"relays"`
	Keys     KeysConfig
	Server   ServerConfig
	Logging  LoggingConfig
	Intake   IntakeConfig
	Cache    CacheConfig
	Publish  PublishConfig
	Metadata MetadataConfig
}

type KeysConfig struct {
	File       string `mapstructure:"file"`
	Generate   bool   `mapstructure:"generate"`
	Identifier string `mapstructure:"identifier"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type IntakeConfig struct {
	MaxConcurrent int         `mapstructure:"max_concurrent"`
	Resubscribe   RetryConfig `mapstructure:"resubscribe"`
}

type RetryConfig struct {
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier"`
}

type CacheConfig struct {
	Enabled    bool        `mapstructure:"enabled"`
	TTLSeconds int         `mapstructure:"ttl_seconds"`
	Redis      RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type PublishConfig struct {
	FeedbackRPS   float64 `mapstructure:"feedback_rps"`
	FeedbackBurst int     `mapstructure:"feedback_burst"`
}

// MetadataConfig feeds the kind-0 profile event published at startup.
type MetadataConfig struct {
	Name        string `mapstructure:"name"`
	About       string `mapstructure:"about"`
	NIP05Domain string `mapstructure:"nip05_domain"`
}

func Load(configFile string) (*Config, error) {
	return LoadConfig(configFile)
}
