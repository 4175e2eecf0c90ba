// Copyright 2025 James Ross
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Overlay describes the RGBA canvas resolution for both dock states.
type Overlay struct {
	DockedWidth    int `mapstructure:"docked_width"`
	DockedHeight   int `mapstructure:"docked_height"`
	UndockedWidth  int `mapstructure:"undocked_width"`
	UndockedHeight int `mapstructure:"undocked_height"`
}

// Observability controls the metrics/log surface.
type Observability struct {
	MetricsPort int    `mapstructure:"metrics_port"`
	LogLevel    string `mapstructure:"log_level"`
}

// HTTP controls the optional management API an external UI talks to.
type HTTP struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// Config is the plugin host's full configuration.
type Config struct {
	PluginDir      string        `mapstructure:"plugin_dir"`
	RefreshHz      float64       `mapstructure:"refresh_hz"`
	PacingFrames   int           `mapstructure:"pacing_frames"`
	PacingInterval time.Duration `mapstructure:"pacing_interval"`
	Overlay        Overlay       `mapstructure:"overlay"`
	Observability  Observability `mapstructure:"observability"`
	HTTP           HTTP          `mapstructure:"http"`
}

func defaultConfig() *Config {
	return &Config{
		PluginDir:    "./plugins",
		RefreshHz:    60,
		PacingFrames: 4,
		Overlay: Overlay{
			DockedWidth:    1280,
			DockedHeight:   720,
			UndockedWidth:  1920,
			UndockedHeight: 1080,
		},
		Observability: Observability{
			MetricsPort: 9090,
			LogLevel:    "info",
		},
		HTTP: HTTP{
			Enabled: false,
			Addr:    ":8687",
		},
	}
}

// Load reads configuration from a YAML file and env overrides, computing
// PacingInterval from RefreshHz/PacingFrames when not set explicitly.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := defaultConfig()
	v.SetDefault("plugin_dir", def.PluginDir)
	v.SetDefault("refresh_hz", def.RefreshHz)
	v.SetDefault("pacing_frames", def.PacingFrames)
	v.SetDefault("overlay.docked_width", def.Overlay.DockedWidth)
	v.SetDefault("overlay.docked_height", def.Overlay.DockedHeight)
	v.SetDefault("overlay.undocked_width", def.Overlay.UndockedWidth)
	v.SetDefault("overlay.undocked_height", def.Overlay.UndockedHeight)
	v.SetDefault("observability.metrics_port", def.Observability.MetricsPort)
	v.SetDefault("observability.log_level", def.Observability.LogLevel)
	v.SetDefault("http.enabled", def.HTTP.Enabled)
	v.SetDefault("http.addr", def.HTTP.Addr)

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.PacingInterval == 0 {
		if cfg.RefreshHz <= 0 {
			cfg.RefreshHz = def.RefreshHz
		}
		if cfg.PacingFrames <= 0 {
			cfg.PacingFrames = def.PacingFrames
		}
		frameTime := time.Duration(float64(time.Second) / cfg.RefreshHz)
		cfg.PacingInterval = frameTime * time.Duration(cfg.PacingFrames)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks config constraints and returns an error on invalid settings.
func Validate(cfg *Config) error {
	if cfg.PluginDir == "" {
		return fmt.Errorf("plugin_dir is required")
	}
	if cfg.PacingInterval <= 0 {
		return fmt.Errorf("pacing_interval must be positive")
	}
	if cfg.Overlay.DockedWidth <= 0 || cfg.Overlay.DockedHeight <= 0 {
		return fmt.Errorf("overlay.docked_width/height must be positive")
	}
	if cfg.Overlay.UndockedWidth <= 0 || cfg.Overlay.UndockedHeight <= 0 {
		return fmt.Errorf("overlay.undocked_width/height must be positive")
	}
	if cfg.Observability.MetricsPort <= 0 || cfg.Observability.MetricsPort > 65535 {
		return fmt.Errorf("observability.metrics_port must be 1..65535")
	}
	return nil
}
