package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/agozel5/Honeypot/internal/query"
)

type Config struct {
	API       APIConfig       `yaml:"api"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url" validate:"required,url"`
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
}

type DashboardConfig struct {
	View             string            `yaml:"view" validate:"oneof=logs index"`
	PerPage          int               `yaml:"per_page"`
	RefreshMS        int               `yaml:"refresh_ms" validate:"gte=0"`
	RefreshOptionsMS []int             `yaml:"refresh_options_ms" validate:"dive,gte=0"`
	Filters          map[string]string `yaml:"filters"`
	IndexLimit       int               `yaml:"index_limit" validate:"gte=0"`
}

type ServerConfig struct {
	Listen        string          `yaml:"listen" validate:"required"`
	DBPath        string          `yaml:"db_path" validate:"required"`
	RetentionDays int             `yaml:"retention_days" validate:"gte=0"`
	CSRF          bool            `yaml:"csrf"`
	RateLimit     RateLimitConfig `yaml:"rate_limit"`
	Geo           GeoConfig       `yaml:"geo"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps" validate:"gte=0"`
	Burst int     `yaml:"burst" validate:"gte=0"`
}

// GeoConfig enables IP geolocation of recorded clicks.
type GeoConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Provider string        `yaml:"provider" validate:"oneof=ipapi ipinfo"`
	Token    string        `yaml:"token"`
	BaseURL  string        `yaml:"base_url" validate:"omitempty,url"`
	Timeout  time.Duration `yaml:"timeout" validate:"gte=0"`

	// RPS caps lookups against the provider; clicks over the cap are
	// recorded without a location.
	RPS float64 `yaml:"rps" validate:"gte=0"`
}

type LogConfig struct {
	Level      string `yaml:"level" validate:"oneof=debug info warn error"`
	Format     string `yaml:"format" validate:"oneof=text json"`
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

var validate = validator.New()

// Load reads path, fills defaults and validates the result. A missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return Parse(data)
}

// Parse is Load without the file system.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = "http://localhost:5000"
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = 10 * time.Second
	}
	if c.Dashboard.View == "" {
		c.Dashboard.View = "logs"
	}
	if c.Dashboard.PerPage == 0 {
		c.Dashboard.PerPage = query.DefaultPerPage
	}
	c.Dashboard.PerPage = query.ClampPerPage(c.Dashboard.PerPage)
	if len(c.Dashboard.RefreshOptionsMS) == 0 {
		c.Dashboard.RefreshOptionsMS = []int{0, 5000, 10000, 30000, 60000}
	}
	if c.Dashboard.IndexLimit == 0 {
		c.Dashboard.IndexLimit = 20
	}
	if c.Server.Listen == "" {
		c.Server.Listen = ":5000"
	}
	if c.Server.DBPath == "" {
		c.Server.DBPath = "./data/honeypot.db"
	}
	if c.Server.RetentionDays == 0 {
		c.Server.RetentionDays = 90
	}
	if c.Server.RateLimit.RPS == 0 {
		c.Server.RateLimit.RPS = 20
	}
	if c.Server.RateLimit.Burst == 0 {
		c.Server.RateLimit.Burst = 40
	}
	if c.Server.Geo.Provider == "" {
		c.Server.Geo.Provider = "ipapi"
	}
	if c.Server.Geo.Timeout == 0 {
		c.Server.Geo.Timeout = 4 * time.Second
	}
	if c.Server.Geo.RPS == 0 {
		c.Server.Geo.RPS = 1
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 10
	}
}

// RefreshInterval is the configured auto-refresh period; zero disables it.
func (d DashboardConfig) RefreshInterval() time.Duration {
	return time.Duration(d.RefreshMS) * time.Millisecond
}
