// Package config loads and validates settings from the environment and an
// optional .env file using Viper.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"

	"github.com/vaultscribe/vaultscribe/internal/password"
)

// Config holds runtime settings for VaultScribe.
type Config struct {
	// DBPath is the SQLite database file, created on first run. ":memory:"
	// gives a throwaway store.
	DBPath string `mapstructure:"VAULTSCRIBE_DB_PATH"`
	// TOTPIssuer is the issuer label shown in authenticator apps.
	TOTPIssuer string `mapstructure:"VAULTSCRIBE_TOTP_ISSUER"`
	// SessionTTL is the session lifetime as a Go duration string (e.g. "720h").
	SessionTTL string `mapstructure:"VAULTSCRIBE_SESSION_TTL"`
	// LogLevel is the minimum level emitted: debug, info, warn, or error.
	LogLevel string `mapstructure:"VAULTSCRIBE_LOG_LEVEL"`

	// Argon2 cost settings for newly written password hashes. Stored hashes
	// with lower costs are migrated on the next successful sign-in.
	Argon2Memory      uint32 `mapstructure:"VAULTSCRIBE_ARGON2_MEMORY"`
	Argon2Time        uint32 `mapstructure:"VAULTSCRIBE_ARGON2_TIME"`
	Argon2Parallelism uint8  `mapstructure:"VAULTSCRIBE_ARGON2_PARALLELISM"`
}

// Load reads .env (if present), then builds and validates Config from the
// environment. Missing .env is ignored. Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	defaults := password.DefaultParams()
	v.SetDefault("VAULTSCRIBE_DB_PATH", "vaultscribe.db")
	v.SetDefault("VAULTSCRIBE_TOTP_ISSUER", "VaultScribe")
	v.SetDefault("VAULTSCRIBE_SESSION_TTL", "720h")
	v.SetDefault("VAULTSCRIBE_LOG_LEVEL", "info")
	v.SetDefault("VAULTSCRIBE_ARGON2_MEMORY", defaults.Memory)
	v.SetDefault("VAULTSCRIBE_ARGON2_TIME", defaults.Time)
	v.SetDefault("VAULTSCRIBE_ARGON2_PARALLELISM", defaults.Parallelism)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.DBPath == "" {
		return nil, errors.New("config: VAULTSCRIBE_DB_PATH must be set")
	}
	if cfg.TOTPIssuer == "" {
		return nil, errors.New("config: VAULTSCRIBE_TOTP_ISSUER must be set")
	}
	if _, err := password.NewHasher(cfg.HashParams()); err != nil {
		return nil, errors.New("config: argon2 settings below the supported minimums")
	}

	return &cfg, nil
}

// SessionLifetime parses SessionTTL as a time.Duration. Returns 720h if
// unset or invalid.
func (c *Config) SessionLifetime() time.Duration {
	d, err := time.ParseDuration(c.SessionTTL)
	if err != nil || d <= 0 {
		return 720 * time.Hour
	}
	return d
}

// HashParams returns the argon2 parameters for new hashes. Salt and key
// lengths are fixed; only the cost settings are tunable.
func (c *Config) HashParams() password.Params {
	defaults := password.DefaultParams()
	return password.Params{
		Memory:      c.Argon2Memory,
		Time:        c.Argon2Time,
		Parallelism: c.Argon2Parallelism,
		SaltLength:  defaults.SaltLength,
		KeyLength:   defaults.KeyLength,
	}
}
