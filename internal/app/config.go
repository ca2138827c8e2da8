package app

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/charlesng35/sponsorpass/internal/state"
)

// Config represents the runtime configuration for the sponsor pass manager.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Partnerships PartnershipsConfig `mapstructure:"partnerships"`
	Sponsors     SponsorsConfig     `mapstructure:"sponsors"`
	Passes       PassesConfig       `mapstructure:"passes"`
	Monitoring   MonitoringConfig   `mapstructure:"monitoring"`
	Realtime     RealtimeConfig     `mapstructure:"realtime"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port      int             `mapstructure:"port"`
	LogLevel  string          `mapstructure:"log_level"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig bounds mutating API calls per client address.
type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// PartnershipsConfig points at the upstream partnerships service.
type PartnershipsConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	APIToken string        `mapstructure:"api_token"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type SponsorsConfig struct {
	FetchLimit int `mapstructure:"fetch_limit"`
}

// PassesConfig selects the pagination strategy. A zero PageSize means the
// strategy default.
type PassesConfig struct {
	Mode            string `mapstructure:"mode"`
	PageSize        int    `mapstructure:"page_size"`
	FetchLimit      int    `mapstructure:"fetch_limit"`
	RefreshSchedule string `mapstructure:"refresh_schedule"`
}

type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

type RealtimeConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoadConfig reads configuration from config.yaml (searched in ./config and
// the provided paths) and SPONSORPASS_* environment variables.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("SPONSORPASS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.rate_limit.requests", 60)
	v.SetDefault("server.rate_limit.window", "1m")

	v.SetDefault("partnerships.base_url", "")
	v.SetDefault("partnerships.api_token", "")
	v.SetDefault("partnerships.timeout", "10s")

	v.SetDefault("sponsors.fetch_limit", state.DefaultSponsorFetchLimit)

	v.SetDefault("passes.mode", string(state.ModeBulk))
	v.SetDefault("passes.page_size", 0)
	v.SetDefault("passes.fetch_limit", state.DefaultBulkFetchLimit)
	v.SetDefault("passes.refresh_schedule", "")

	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.endpoint", "/metrics")

	v.SetDefault("realtime.enabled", true)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate reports configuration that would prevent the dashboard from starting.
func (c *Config) Validate() error {
	base := strings.TrimSpace(c.Partnerships.BaseURL)
	if base == "" {
		return errors.New("config: partnerships.base_url is required")
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: partnerships.base_url %q is not an absolute URL", base)
	}
	if _, err := state.ParseMode(c.Passes.Mode); err != nil {
		return fmt.Errorf("config: passes.mode: %w", err)
	}
	if c.Passes.PageSize < 0 {
		return errors.New("config: passes.page_size must not be negative")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	return nil
}

// DashboardOptions maps the passes and sponsors sections onto dashboard options.
func (c *Config) DashboardOptions() (state.Options, error) {
	mode, err := state.ParseMode(c.Passes.Mode)
	if err != nil {
		return state.Options{}, err
	}
	return state.Options{
		Mode:              mode,
		PageSize:          c.Passes.PageSize,
		PassFetchLimit:    c.Passes.FetchLimit,
		SponsorFetchLimit: c.Sponsors.FetchLimit,
	}, nil
}

// LoadConfigPath loads configuration from a directory or a config file path. An empty path
// falls back to the default search locations.
func LoadConfigPath(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return LoadConfig()
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config path %q does not exist", path)
		}
		return nil, fmt.Errorf("stat config path: %w", err)
	}
	if info.IsDir() {
		return LoadConfig(path)
	}
	return LoadConfig(filepath.Dir(path))
}
