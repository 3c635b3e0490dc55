package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	MyJD      MyJDConfig      `toml:"myjd"`
	Downloads DownloadsConfig `toml:"downloads"`
	Server    ServerConfig    `toml:"server"`
	Poller    PollerConfig    `toml:"poller"`
}

type MyJDConfig struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
	AppKey   string `toml:"appkey"`
	DeviceID string `toml:"deviceid"`
}

type DownloadsConfig struct {
	BasePath          string              `toml:"base_path"`
	AllowedCategories []string            `toml:"allowed_categories"`
	CategoryAliases   map[string][]string `toml:"category_aliases"`
}

type ServerConfig struct {
	Port int `toml:"port"`
}

type PollerConfig struct {
	IntervalSeconds int    `toml:"interval_seconds"`
	DBPath          string `toml:"db_path"`
}

// Load reads a TOML config file and applies defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Downloads: DownloadsConfig{
			BasePath:          "/downloads",
			AllowedCategories: []string{"other"},
		},
		Server: ServerConfig{Port: 8080},
		Poller: PollerConfig{
			IntervalSeconds: 5,
			DBPath:          "myjdproxy.db",
		},
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the fields without a usable default are present.
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.MyJD.Username) == "" {
		missing = append(missing, "myjd.username")
	}
	if strings.TrimSpace(c.MyJD.Password) == "" {
		missing = append(missing, "myjd.password")
	}
	if strings.TrimSpace(c.MyJD.AppKey) == "" {
		missing = append(missing, "myjd.appkey")
	}
	if strings.TrimSpace(c.MyJD.DeviceID) == "" {
		missing = append(missing, "myjd.deviceid")
	}
	if strings.TrimSpace(c.Downloads.BasePath) == "" {
		missing = append(missing, "downloads.base_path")
	}
	if len(missing) > 0 {
		return fmt.Errorf("invalid configuration, missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ResolveCategory maps an inbound category name through the configured
// aliases. Unmapped names pass through unchanged; validation against the
// allowed set happens later.
func (d DownloadsConfig) ResolveCategory(category string) string {
	lowered := strings.ToLower(category)
	for canonical, aliases := range d.CategoryAliases {
		for _, alias := range aliases {
			if lowered == strings.ToLower(alias) {
				return canonical
			}
		}
	}
	return category
}
