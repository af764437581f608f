package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/samcharles93/cffkit/internal/logger"
)

// Config represents the cffkit configuration file (~/.config/cffkit/config.yaml).
// Pointer fields distinguish "not set" from zero values.
type Config struct {
	DataFile    string `yaml:"data_file"`
	Catalog     string `yaml:"catalog"`
	GameVersion string `yaml:"game_version"`

	// Editing
	Backup *bool `yaml:"backup"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string `yaml:"server_address"`
	Watch         *bool  `yaml:"watch"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "cffkit", "config.yaml")
}

// applyDataConfig applies config file defaults to the shared data and logging
// flags when the corresponding CLI flag was not explicitly set.
func applyDataConfig(c *cli.Command, cfg Config) {
	if cfg.DataFile != "" && !c.IsSet("data") {
		dataFile = cfg.DataFile
	}
	if cfg.Catalog != "" && !c.IsSet("catalog") {
		catalogFile = cfg.Catalog
	}
	if cfg.GameVersion != "" && !c.IsSet("game-version") {
		gameVersion = cfg.GameVersion
	}
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applySetConfig applies config file defaults to set command variables.
func applySetConfig(c *cli.Command, cfg Config, noBackup *bool) {
	if cfg.Backup != nil && !c.IsSet("no-backup") {
		*noBackup = !*cfg.Backup
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string, watch *bool) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
	if cfg.Watch != nil && !c.IsSet("watch") {
		*watch = *cfg.Watch
	}
}

// LoadConfig reads the config file. Returns a zero Config if the file doesn't exist.
func LoadConfig() Config {
	return loadConfigFrom(configPath())
}

func loadConfigFrom(path string) Config {
	if path == "" {
		return Config{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}
	return cfg
}

// setup applies the config file and installs the logger selected by the logging
// flags into ctx.
func setup(ctx context.Context, c *cli.Command, cfg Config) (context.Context, logger.Logger, error) {
	applyDataConfig(c, cfg)
	level := logLevel
	if debug {
		level = "debug"
	}
	log, err := logger.NewFormat(os.Stderr, logFormat, level)
	if err != nil {
		return ctx, nil, cli.Exit("error: "+err.Error(), 2)
	}
	return logger.WithContext(ctx, log), log, nil
}
