// Package config loads the settings shared by both binaries from
// configs/config.yml with SMOKEMATE_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"smokemate/internal/poller"
)

// EnvPrefix prefixes every environment override, e.g. SMOKEMATE_HTTP_PORT.
const EnvPrefix = "SMOKEMATE"

// Config holds the settings of one process.
type Config struct {
	LogLevel string

	HTTPPort string

	DeviceBaseURL        string
	DeviceRequestTimeout time.Duration
	// DeviceSimulate replaces the controller with an in-process simulation.
	DeviceSimulate bool

	Poll poller.Intervals

	Relay RelayConfig
	Auth  AuthConfig
}

// RelayConfig is only read by the relay binary.
type RelayConfig struct {
	DBPath          string
	Retention       time.Duration
	CleanupSchedule string
}

// AuthConfig controls operator sign-in. An empty SigningKey disables auth.
type AuthConfig struct {
	Username     string
	PasswordHash string
	SigningKey   string
	TokenTTL     time.Duration
}

// Enabled reports whether control routes require a token.
func (a AuthConfig) Enabled() bool { return a.SigningKey != "" }

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("http.port", "8080")
	v.SetDefault("device.base_url", "http://smoker.local")
	v.SetDefault("device.request_timeout", "2s")
	v.SetDefault("device.simulate", false)
	v.SetDefault("poll.status_interval_ms", 250)
	v.SetDefault("poll.config_interval_ms", 250)
	v.SetDefault("poll.history_interval_ms", 250)
	v.SetDefault("relay.db_path", "smokemate.db")
	v.SetDefault("relay.retention", "2160h")
	v.SetDefault("relay.cleanup_schedule", "@hourly")
	v.SetDefault("auth.username", "operator")
	v.SetDefault("auth.password_hash", "")
	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", "12h")
}

// Load reads configName (without extension) from the given search paths.
// A missing file is not an error; defaults and the environment still apply.
func Load(configName string, paths ...string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(configName)
	v.SetConfigType("yml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		LogLevel:             v.GetString("log.level"),
		HTTPPort:             v.GetString("http.port"),
		DeviceBaseURL:        v.GetString("device.base_url"),
		DeviceRequestTimeout: v.GetDuration("device.request_timeout"),
		DeviceSimulate:       v.GetBool("device.simulate"),
		Poll: poller.Intervals{
			Status:  time.Duration(v.GetInt("poll.status_interval_ms")) * time.Millisecond,
			Config:  time.Duration(v.GetInt("poll.config_interval_ms")) * time.Millisecond,
			History: time.Duration(v.GetInt("poll.history_interval_ms")) * time.Millisecond,
		},
		Relay: RelayConfig{
			DBPath:          v.GetString("relay.db_path"),
			Retention:       v.GetDuration("relay.retention"),
			CleanupSchedule: v.GetString("relay.cleanup_schedule"),
		},
		Auth: AuthConfig{
			Username:     v.GetString("auth.username"),
			PasswordHash: v.GetString("auth.password_hash"),
			SigningKey:   v.GetString("auth.signing_key"),
			TokenTTL:     v.GetDuration("auth.token_ttl"),
		},
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch {
	case c.DeviceBaseURL == "":
		return errors.New("device.base_url must be set")
	case c.DeviceRequestTimeout <= 0:
		return errors.New("device.request_timeout must be positive")
	case c.Poll.Status < 0 || c.Poll.Config < 0 || c.Poll.History < 0:
		return errors.New("poll intervals must not be negative")
	case c.Relay.Retention < 0:
		return errors.New("relay.retention must not be negative")
	case c.Auth.Enabled() && c.Auth.PasswordHash == "":
		return errors.New("auth.password_hash is required when auth.signing_key is set")
	}
	return nil
}
