package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"option-pricer/internal/grid"
	"option-pricer/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logging  logging.Config `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Store    StoreConfig    `mapstructure:"store"`
	Grid     GridConfig     `mapstructure:"grid"`
	History  HistoryConfig  `mapstructure:"history"`
	Export   ExportConfig   `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// StoreConfig tunes history store behaviour.
type StoreConfig struct {
	AdvisoryLockKey int64 `mapstructure:"advisory_lock_key"`
}

// GridConfig bounds sensitivity grid requests.
type GridConfig struct {
	MaxSteps int `mapstructure:"max_steps"`
}

// HistoryConfig governs history listing defaults.
type HistoryConfig struct {
	DefaultLimit int `mapstructure:"default_limit"`
}

// ExportConfig sets heatmap export geometry.
type ExportConfig struct {
	PNGWidth  int `mapstructure:"png_width"`
	PNGHeight int `mapstructure:"png_height"`
	MaxSeries int `mapstructure:"max_series"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BSPRICER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "bspricer")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("database.max_open_conns", 5)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("store.advisory_lock_key", int64(0x62737072))

	v.SetDefault("grid.max_steps", grid.MaxSteps)

	v.SetDefault("history.default_limit", 20)

	v.SetDefault("export.png_width", 1280)
	v.SetDefault("export.png_height", 720)
	v.SetDefault("export.max_series", 8)
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

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Grid.MaxSteps < 2 {
		return fmt.Errorf("grid.max_steps must be at least 2")
	}
	if c.Grid.MaxSteps > grid.MaxSteps {
		return fmt.Errorf("grid.max_steps cannot exceed %d", grid.MaxSteps)
	}
	if c.History.DefaultLimit <= 0 {
		return fmt.Errorf("history.default_limit must be greater than zero")
	}
	if c.Export.PNGWidth <= 0 || c.Export.PNGHeight <= 0 {
		return fmt.Errorf("export.png_width and export.png_height must be greater than zero")
	}
	if c.Export.MaxSeries <= 0 {
		return fmt.Errorf("export.max_series must be greater than zero")
	}
	return nil
}

// ResolveLimit returns either the CLI override or the configured default.
func (c *Config) ResolveLimit(override int) int {
	if override > 0 {
		return override
	}
	return c.History.DefaultLimit
}
