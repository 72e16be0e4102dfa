package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

func LoadConfig(configFile string) (*Config, error) {
	viper.Reset()

	viper.SetConfigType("yaml")
	viper.SetConfigFile(configFile)

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	applyDefaults(&cfg)

	if err := ValidateStatic(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func bindEnvVariables() {
	viper.BindEnv("relays", "STALL_RELAYS")

	viper.BindEnv("keys.file", "STALL_KEYS_FILE")
	viper.BindEnv("keys.identifier", "STALL_KEYS_IDENTIFIER")

	viper.BindEnv("cache.redis.host", "CACHE_REDIS_HOST")
	viper.BindEnv("cache.redis.port", "CACHE_REDIS_PORT")
	viper.BindEnv("cache.redis.password", "CACHE_REDIS_PASSWORD")
	viper.BindEnv("cache.redis.db", "CACHE_REDIS_DB")

	viper.BindEnv("server.port", "SERVER_PORT")

	viper.BindEnv("logging.level", "LOGGING_LEVEL")

	viper.BindEnv("metadata.name", "METADATA_NAME")
	viper.BindEnv("metadata.nip05_domain", "METADATA_NIP05_DOMAIN")
}

func applyEnvOverrides(cfg *Config) error {
	if relaysEnv := viper.GetString("STALL_RELAYS"); relaysEnv != "" {
		relays := strings.Split(relaysEnv, ",")
		for i := range relays {
			relays[i] = strings.TrimSpace(relays[i])
		}
		if len(relays) > 0 && relays[0] != "" {
			cfg.Relays = relays
		}
	}

	return nil
}
