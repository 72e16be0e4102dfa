package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{
		Relays: []string{"wss://relay.example"},
		Keys:   KeysConfig{File: "keys.json"},
	}
	applyDefaults(cfg)
	return cfg
}

func TestValidateStatic(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(cfg *Config) {},
		},
		{
			name:    "no relays",
			mutate:  func(cfg *Config) { cfg.Relays = nil },
			wantErr: "relays",
		},
		{
			name:    "bad relay scheme",
			mutate:  func(cfg *Config) { cfg.Relays = []string{"https://relay.example"} },
			wantErr: "ws://",
		},
		{
			name:    "missing keys file",
			mutate:  func(cfg *Config) { cfg.Keys.File = "" },
			wantErr: "keys.file",
		},
		{
			name:    "port out of range",
			mutate:  func(cfg *Config) { cfg.Server.Port = 70000 },
			wantErr: "server.port",
		},
		{
			name:   "port zero disables the server",
			mutate: func(cfg *Config) { cfg.Server.Port = 0 },
		},
		{
			name:    "max_concurrent below one",
			mutate:  func(cfg *Config) { cfg.Intake.MaxConcurrent = -1 },
			wantErr: "max_concurrent",
		},
		{
			name: "cache enabled without host",
			mutate: func(cfg *Config) {
				cfg.Cache.Enabled = true
				cfg.Cache.Redis.Port = 6379
			},
			wantErr: "redis.host",
		},
		{
			name: "cache enabled with redis",
			mutate: func(cfg *Config) {
				cfg.Cache.Enabled = true
				cfg.Cache.Redis.Host = "localhost"
				cfg.Cache.Redis.Port = 6379
			},
		},
		{
			name: "max_interval below initial_interval",
			mutate: func(cfg *Config) {
				cfg.Intake.Resubscribe.InitialInterval = 10
				cfg.Intake.Resubscribe.MaxInterval = 5
			},
			wantErr: "max_interval",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := ValidateStatic(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 32, cfg.Intake.MaxConcurrent)
	assert.Equal(t, 900, cfg.Cache.TTLSeconds)
	assert.Equal(t, 5.0, cfg.Publish.FeedbackRPS)
	assert.Equal(t, 10, cfg.Publish.FeedbackBurst)
}
