// Package config provides configuration management for the chart tool.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"

	apperrors "pnf-chart/internal/errors"
	"pnf-chart/internal/logging"
	"pnf-chart/internal/pnf"
)

// ConfigFileName is the base name of the main config file.
const ConfigFileName = "config"

// Config holds all application configuration.
type Config struct {
	Chart   ChartConfig   `mapstructure:"chart" json:"chart" yaml:"chart"`
	Data    DataConfig    `mapstructure:"data" json:"data" yaml:"data"`
	Logging LoggingConfig `mapstructure:"logging" json:"logging" yaml:"logging"`
	UI      UIConfig      `mapstructure:"ui" json:"ui" yaml:"ui"`

	// Dir is the directory the config was loaded from.
	Dir string `mapstructure:"-" json:"dir" yaml:"dir"`
}

// ChartConfig holds chart construction defaults.
type ChartConfig struct {
	Construction string  `mapstructure:"construction" json:"construction" yaml:"construction"`
	BoxSizeMode  string  `mapstructure:"box_size_mode" json:"box_size_mode" yaml:"box_size_mode"`
	BoxSize      float64 `mapstructure:"box_size" json:"box_size" yaml:"box_size"`
	Reversal     int     `mapstructure:"reversal" json:"reversal" yaml:"reversal"`
}

// DataConfig holds candle storage and import settings.
type DataConfig struct {
	Database         string `mapstructure:"database" json:"database" yaml:"database"`
	Timezone         string `mapstructure:"timezone" json:"timezone" yaml:"timezone"`
	CSVTimeLayout    string `mapstructure:"csv_time_layout" json:"csv_time_layout" yaml:"csv_time_layout"`
	DefaultTimeframe string `mapstructure:"default_timeframe" json:"default_timeframe" yaml:"default_timeframe"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level" json:"level" yaml:"level"`
	Console    bool   `mapstructure:"console" json:"console" yaml:"console"`
	File       bool   `mapstructure:"file" json:"file" yaml:"file"`
	FilePath   string `mapstructure:"file_path" json:"file_path" yaml:"file_path"`
	MaxSize    int    `mapstructure:"max_size" json:"max_size" yaml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" json:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" json:"max_age" yaml:"max_age"`
}

// UIConfig holds terminal output settings.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled" json:"color_enabled" yaml:"color_enabled"`
	DateFormat   string `mapstructure:"date_format" json:"date_format" yaml:"date_format"`
}

// DefaultConfigDir returns the configuration directory, honouring PNF_CONFIG_DIR.
func DefaultConfigDir() string {
	if dir := os.Getenv("PNF_CONFIG_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/pnf-chart"
	}
	return filepath.Join(home, ".config", "pnf-chart")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing
// config.toml is replaced by a commented template and defaults are used.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{Dir: configDir}
	if err := loadConfigFile(configDir, ConfigFileName, cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if cfg.Data.Database == "" {
		cfg.Data.Database = filepath.Join(configDir, "candles.db")
	}
	if cfg.Logging.FilePath == "" {
		cfg.Logging.FilePath = filepath.Join(configDir, "logs", "pnf.log")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("chart.construction", string(pnf.ConstructionClose))
	v.SetDefault("chart.box_size_mode", string(pnf.BoxSizeAuto))
	v.SetDefault("chart.box_size", 0.0)
	v.SetDefault("chart.reversal", 3)

	v.SetDefault("data.database", "")
	v.SetDefault("data.timezone", "UTC")
	v.SetDefault("data.csv_time_layout", "2006.01.02 15:04:05")
	v.SetDefault("data.default_timeframe", "1d")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", false)
	v.SetDefault("logging.file_path", "")
	v.SetDefault("logging.max_size", 50)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age", 30)

	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.date_format", "2006-01-02")
}

func loadConfigFile(configDir, name string, target interface{}) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
		if _, err := createTemplateConfig(configDir, name); err != nil {
			return err
		}
	}

	return v.Unmarshal(target)
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("PNF_CONSTRUCTION"); v != "" {
		cfg.Chart.Construction = v
	}
	if v := os.Getenv("PNF_BOX_SIZE_MODE"); v != "" {
		cfg.Chart.BoxSizeMode = v
	}
	if v := os.Getenv("PNF_BOX_SIZE"); v != "" {
		size, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return apperrors.ConfigError("PNF_BOX_SIZE", v, "must be a number")
		}
		cfg.Chart.BoxSize = size
	}
	if v := os.Getenv("PNF_REVERSAL"); v != "" {
		reversal, err := strconv.Atoi(v)
		if err != nil {
			return apperrors.ConfigError("PNF_REVERSAL", v, "must be an integer")
		}
		cfg.Chart.Reversal = reversal
	}
	if v := os.Getenv("PNF_DB_PATH"); v != "" {
		cfg.Data.Database = v
	}
	if v := os.Getenv("PNF_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if _, err := c.ChartConfig(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Data.CSVTimeLayout == "" {
		return apperrors.ConfigError("data.csv_time_layout", c.Data.CSVTimeLayout, "must not be empty")
	}
	if !logging.ValidLevel(c.Logging.Level) {
		return apperrors.ConfigError("logging.level", c.Logging.Level, "must be trace, debug, info, warn or error")
	}
	if c.Logging.MaxSize < 0 || c.Logging.MaxBackups < 0 || c.Logging.MaxAge < 0 {
		return apperrors.ConfigError("logging", c.Logging, "rotation limits must be non-negative")
	}
	return nil
}

// ChartConfig converts the [chart] section into validated engine settings.
func (c *Config) ChartConfig() (pnf.Config, error) {
	construction, err := pnf.ParseConstruction(c.Chart.Construction)
	if err != nil {
		return pnf.Config{}, err
	}
	mode, err := pnf.ParseBoxSizeMode(c.Chart.BoxSizeMode)
	if err != nil {
		return pnf.Config{}, err
	}
	chart := pnf.Config{
		Construction: construction,
		BoxSizeMode:  mode,
		BoxSize:      c.Chart.BoxSize,
		Reversal:     c.Chart.Reversal,
	}
	if err := chart.Validate(); err != nil {
		return pnf.Config{}, err
	}
	return chart, nil
}

// Location returns the time zone candle timestamps are interpreted in.
func (c *Config) Location() (*time.Location, error) {
	if c.Data.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Data.Timezone)
	if err != nil {
		return nil, apperrors.ConfigError("data.timezone", c.Data.Timezone, err.Error())
	}
	return loc, nil
}

// LogConfig converts the [logging] section for the logging package.
func (c *Config) LogConfig() logging.LogConfig {
	return logging.LogConfig{
		Level:      c.Logging.Level,
		Console:    c.Logging.Console,
		File:       c.Logging.File,
		FilePath:   c.Logging.FilePath,
		MaxSize:    c.Logging.MaxSize,
		MaxBackups: c.Logging.MaxBackups,
		MaxAge:     c.Logging.MaxAge,
	}
}

// Path returns the full path of the main config file.
func (c *Config) Path() string {
	return filepath.Join(c.Dir, ConfigFileName+".toml")
}
