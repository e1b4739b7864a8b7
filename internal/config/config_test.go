package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	return Config{
		APIKey:           "k",
		APISecret:        "s",
		Interval:         "3m",
		MaxSlices:        10,
		VolumeMultiplier: 18,
		C1DollarMin:      5555,
		Leverage:         5,
		TPPct:            0.03,
		FallbackBalance:  1000,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad interval", func(c *Config) { c.Interval = "2m" }, "unsupported interval"},
		{"zero slices", func(c *Config) { c.MaxSlices = 0 }, "max_slices"},
		{"zero leverage", func(c *Config) { c.Leverage = 0 }, "leverage"},
		{"tp too large", func(c *Config) { c.TPPct = 1.0 }, "tp_pct"},
		{"zero tp", func(c *Config) { c.TPPct = 0 }, "tp_pct"},
		{"zero multiplier", func(c *Config) { c.VolumeMultiplier = 0 }, "volume_multiplier"},
		{"negative dollar floor", func(c *Config) { c.C1DollarMin = -1 }, "c1_dollar_min"},
		{"live without key", func(c *Config) { c.APIKey = "" }, "api key required"},
		{"live without secret", func(c *Config) { c.APISecret = "" }, "api secret required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidate_DryRunNeedsNoCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.APIKey = ""
	cfg.APISecret = ""
	cfg.DryRun = true
	assert.NoError(t, cfg.Validate())
}

func TestValidate_NotificationDelayIsOptional(t *testing.T) {
	cfg := validConfig()
	cfg.NotificationDelay = 0 * time.Second
	assert.NoError(t, cfg.Validate())
}
