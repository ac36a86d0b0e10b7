// Package config loads the application configuration (yaml file plus
// PINGMON_* environment overrides) and holds the live monitor settings.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"pingmon/internal/domain"
)

type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Log      LogConfig      `mapstructure:"log"`
	Monitor  Settings       `mapstructure:"monitor"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Database DatabaseConfig `mapstructure:"database"`
	Targets  []TargetConfig `mapstructure:"targets"`
}

type APIConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Dir string `mapstructure:"dir"`
}

type NotifyConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type TargetConfig struct {
	Alias    string `mapstructure:"alias"`
	Host     string `mapstructure:"host"`
	Interval int    `mapstructure:"interval"`
	Timeout  int    `mapstructure:"timeout"`
	Enabled  bool   `mapstructure:"enabled"`
}

// Settings are the monitor options the scheduler reads between cycles. They
// are live-updatable through the settings store below.
type Settings struct {
	Concurrency          int    `mapstructure:"concurrency" json:"concurrency"`
	JitterMinMS          int    `mapstructure:"jitter_min_ms" json:"jitter_min_ms"`
	JitterMaxMS          int    `mapstructure:"jitter_max_ms" json:"jitter_max_ms"`
	DisplayMode          string `mapstructure:"display_mode" json:"display_mode"`
	NotificationsEnabled bool   `mapstructure:"notifications" json:"notifications"`
	SoundOnDown          bool   `mapstructure:"sound_on_down" json:"sound_on_down"`
	ResyncSec            int    `mapstructure:"resync_sec" json:"resync_sec"`
	UpdateBuffer         int    `mapstructure:"update_buffer" json:"update_buffer"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("configs")
	v.SetEnvPrefix("PINGMON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; defaults and env cover everything.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.addr", "127.0.0.1:8080")
	v.SetDefault("log.dir", "logs")

	v.SetDefault("monitor.concurrency", 5)
	v.SetDefault("monitor.jitter_min_ms", 0)
	v.SetDefault("monitor.jitter_max_ms", 300)
	v.SetDefault("monitor.display_mode", string(domain.DisplayLatency))
	v.SetDefault("monitor.notifications", true)
	v.SetDefault("monitor.sound_on_down", true)
	v.SetDefault("monitor.resync_sec", 2)
	v.SetDefault("monitor.update_buffer", 256)

	v.SetDefault("notify.webhook_url", "")
	v.SetDefault("database.url", "")
}

func Validate(cfg *Config) error {
	if err := cfg.Monitor.Validate(); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(cfg.Targets))
	for i := range cfg.Targets {
		t := cfg.Targets[i].Target()
		if t.Host == "" {
			return fmt.Errorf("target %q: host is required", t.Alias)
		}
		if _, dup := seen[t.Alias]; dup {
			return fmt.Errorf("duplicate target alias %q", t.Alias)
		}
		seen[t.Alias] = struct{}{}
	}
	return nil
}

func (s Settings) Validate() error {
	if s.Concurrency < 1 {
		return fmt.Errorf("monitor.concurrency must be >= 1, got %d", s.Concurrency)
	}
	if s.JitterMinMS < 0 || s.JitterMaxMS < s.JitterMinMS {
		return fmt.Errorf("monitor jitter range [%d,%d] is invalid", s.JitterMinMS, s.JitterMaxMS)
	}
	switch domain.DisplayMode(s.DisplayMode) {
	case domain.DisplayLatency, domain.DisplayCodes:
	default:
		return fmt.Errorf("monitor.display_mode must be %q or %q, got %q",
			domain.DisplayLatency, domain.DisplayCodes, s.DisplayMode)
	}
	return nil
}

// Target converts a config entry into a normalized domain target.
func (tc TargetConfig) Target() domain.Target {
	t := domain.Target{
		Alias:       tc.Alias,
		Host:        tc.Host,
		IntervalSec: tc.Interval,
		TimeoutMS:   tc.Timeout,
		Enabled:     tc.Enabled,
	}
	t.Normalize()
	return t
}

// TargetList returns the seeded targets in config order, normalized.
func (c *Config) TargetList() []domain.Target {
	out := make([]domain.Target, 0, len(c.Targets))
	for _, tc := range c.Targets {
		out = append(out, tc.Target())
	}
	return out
}
