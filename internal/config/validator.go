package config

import (
	"fmt"
	"strings"

	"stall/internal/constants"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

func applyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Intake.MaxConcurrent == 0 {
		cfg.Intake.MaxConcurrent = constants.DefaultMaxConcurrentDispatch
	}
	if cfg.Cache.TTLSeconds == 0 {
		cfg.Cache.TTLSeconds = constants.DefaultListingTTLSeconds
	}
	if cfg.Publish.FeedbackRPS == 0 {
		cfg.Publish.FeedbackRPS = constants.DefaultFeedbackRPS
	}
	if cfg.Publish.FeedbackBurst == 0 {
		cfg.Publish.FeedbackBurst = constants.DefaultFeedbackBurst
	}
}

func ValidateStatic(cfg *Config) error {
	var errors []error

	if err := validateRelays(cfg.Relays); err != nil {
		errors = append(errors, err)
	}

	if err := validateKeys(cfg.Keys); err != nil {
		errors = append(errors, err)
	}

	if err := validateServer(cfg.Server); err != nil {
		errors = append(errors, err)
	}

	if err := validateIntake(cfg.Intake); err != nil {
		errors = append(errors, err)
	}

	if err := validateCache(cfg.Cache); err != nil {
		errors = append(errors, err)
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errors)
	}

	return nil
}

func validateRelays(relays []string) error {
	if len(relays) == 0 {
		return &ValidationError{
			Field:   "relays",
			Message: "at least one relay URL is required",
		}
	}

	for i, relay := range relays {
		if !strings.HasPrefix(relay, "ws://") && !strings.HasPrefix(relay, "wss://") {
			return &ValidationError{
				Field:   fmt.Sprintf("relays[%d]", i),
				Message: fmt.Sprintf("relay URL must start with ws:// or wss://, got %q", relay),
			}
		}
	}

	return nil
}

func validateKeys(cfg KeysConfig) error {
	if cfg.File == "" {
		return &ValidationError{
			Field:   "keys.file",
			Message: "key profile file path is required",
		}
	}

	return nil
}

func validateServer(cfg ServerConfig) error {
	if cfg.Port != 0 && (cfg.Port < 1 || cfg.Port > 65535) {
		return &ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	return nil
}

func validateIntake(cfg IntakeConfig) error {
	if cfg.MaxConcurrent < 1 {
		return &ValidationError{
			Field:   "intake.max_concurrent",
			Message: "max_concurrent must be at least 1",
		}
	}

	if cfg.Resubscribe.InitialInterval < 0 {
		return &ValidationError{
			Field:   "intake.resubscribe.initial_interval",
			Message: "initial_interval must be non-negative",
		}
	}

	if cfg.Resubscribe.MaxInterval > 0 && cfg.Resubscribe.InitialInterval > 0 &&
		cfg.Resubscribe.MaxInterval < cfg.Resubscribe.InitialInterval {
		return &ValidationError{
			Field:   "intake.resubscribe.max_interval",
			Message: "max_interval must be greater than or equal to initial_interval",
		}
	}

	if cfg.Resubscribe.Multiplier < 0 {
		return &ValidationError{
			Field:   "intake.resubscribe.multiplier",
			Message: "multiplier must be non-negative",
		}
	}

	return nil
}

func validateCache(cfg CacheConfig) error {
	if !cfg.Enabled {
		return nil
	}

	if cfg.Redis.Host == "" {
		return &ValidationError{
			Field:   "cache.redis.host",
			Message: "Redis host is required when the cache is enabled",
		}
	}

	if cfg.Redis.Port < 1 || cfg.Redis.Port > 65535 {
		return &ValidationError{
			Field:   "cache.redis.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Redis.Port),
		}
	}

	if cfg.TTLSeconds < 0 {
		return &ValidationError{
			Field:   "cache.ttl_seconds",
			Message: "TTL must be non-negative",
		}
	}

	return nil
}
