// Package config loads the orrery configuration from a YAML file, ORRERY_* environment
// variables and built-in defaults, in increasing order of precedence: defaults, file, env.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"latency.space/orrery/shared/celestial"
)

const envPrefix = "ORRERY"

// Render axis conventions for positions leaving the server.
const (
	AxesYUp      = "y-up"
	AxesEcliptic = "ecliptic"
)

type Config struct {
	LogLevel    string          `mapstructure:"log_level" yaml:"log_level"`
	CatalogFile string          `mapstructure:"catalog_file" yaml:"catalog_file"`
	Clock       ClockConfig     `mapstructure:"clock" yaml:"clock"`
	Server      ServerConfig    `mapstructure:"server" yaml:"server"`
	Ephemeris   EphemerisConfig `mapstructure:"ephemeris" yaml:"ephemeris"`
	Paths       PathsConfig     `mapstructure:"paths" yaml:"paths"`
}

type ClockConfig struct {
	Start  string  `mapstructure:"start" yaml:"start"` // RFC3339, empty means now
	Rate   float64 `mapstructure:"rate" yaml:"rate"`
	Paused bool    `mapstructure:"paused" yaml:"paused"`
}

type ServerConfig struct {
	HTTPAddr       string        `mapstructure:"http_addr" yaml:"http_addr"`
	MetricsAddr    string        `mapstructure:"metrics_addr" yaml:"metrics_addr"`
	Tick           time.Duration `mapstructure:"tick" yaml:"tick"`
	RenderAxes     string        `mapstructure:"render_axes" yaml:"render_axes"`
	AllowedOrigins []string      `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	ControlRate    float64       `mapstructure:"control_rate" yaml:"control_rate"` // requests per second per client
	ControlBurst   int           `mapstructure:"control_burst" yaml:"control_burst"`
	TLS            TLSConfig     `mapstructure:"tls" yaml:"tls"`
}

type TLSConfig struct {
	Enabled  bool     `mapstructure:"enabled" yaml:"enabled"`
	Hosts    []string `mapstructure:"hosts" yaml:"hosts"`
	CacheDir string   `mapstructure:"cache_dir" yaml:"cache_dir"`
}

type EphemerisConfig struct {
	Workers   int `mapstructure:"workers" yaml:"workers"` // 0 means GOMAXPROCS
	CacheSize int `mapstructure:"cache_size" yaml:"cache_size"`
}

type PathsConfig struct {
	MaxRadiusAU float64 `mapstructure:"max_radius_au" yaml:"max_radius_au"`
}

// SetDefaults registers every key with its default so that env overrides and
// Unmarshal see the full tree even without a config file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("catalog_file", "")
	v.SetDefault("clock.start", "")
	v.SetDefault("clock.rate", 1.0)
	v.SetDefault("clock.paused", false)
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.metrics_addr", ":9090")
	v.SetDefault("server.tick", 100*time.Millisecond)
	v.SetDefault("server.render_axes", AxesYUp)
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.control_rate", 5.0)
	v.SetDefault("server.control_burst", 10)
	v.SetDefault("server.tls.enabled", false)
	v.SetDefault("server.tls.hosts", []string{})
	v.SetDefault("server.tls.cache_dir", "certs")
	v.SetDefault("ephemeris.workers", 0)
	v.SetDefault("ephemeris.cache_size", 1024)
	v.SetDefault("paths.max_radius_au", celestial.DefaultMaxRadiusAU)
}

// Load reads the configuration into v. An explicit file must exist; without one,
// orrery.yaml is looked up in the working directory and ~/.orrery and may be absent.
func Load(v *viper.Viper, file string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("orrery")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".orrery"))
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel)
	}
	if _, err := c.Clock.StartTime(time.Now()); err != nil {
		return err
	}
	if math.IsNaN(c.Clock.Rate) || math.IsInf(c.Clock.Rate, 0) {
		return fmt.Errorf("clock.rate must be finite, got %v", c.Clock.Rate)
	}
	if c.Server.Tick <= 0 {
		return fmt.Errorf("server.tick must be positive, got %v", c.Server.Tick)
	}
	if c.Server.RenderAxes != AxesYUp && c.Server.RenderAxes != AxesEcliptic {
		return fmt.Errorf("server.render_axes %q is not one of %s, %s", c.Server.RenderAxes, AxesYUp, AxesEcliptic)
	}
	if c.Server.ControlRate <= 0 || c.Server.ControlBurst < 1 {
		return fmt.Errorf("server.control_rate and server.control_burst must be positive")
	}
	if c.Server.TLS.Enabled && len(c.Server.TLS.Hosts) == 0 {
		return errors.New("server.tls.hosts is required when TLS is enabled")
	}
	if c.Ephemeris.Workers < 0 {
		return fmt.Errorf("ephemeris.workers must not be negative, got %d", c.Ephemeris.Workers)
	}
	if c.Paths.MaxRadiusAU < 0 || math.IsNaN(c.Paths.MaxRadiusAU) {
		return fmt.Errorf("paths.max_radius_au must not be negative, got %v", c.Paths.MaxRadiusAU)
	}
	return nil
}

// StartTime resolves clock.start, falling back to now when it is empty.
func (c ClockConfig) StartTime(now time.Time) (time.Time, error) {
	if c.Start == "" {
		return now.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, c.Start)
	if err != nil {
		return time.Time{}, fmt.Errorf("clock.start: %w", err)
	}
	return t.UTC(), nil
}
