// Copyright 2026 The Callboard Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the Callboard bot.
//
// Configuration is loaded from a single YAML file specified by the
// CALLBOARD_CONFIG environment variable or the --config flag. There
// are no fallbacks or automatic discovery. This ensures deterministic,
// auditable configuration with no hidden overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the master configuration for the Callboard bot.
type Config struct {
	// HomeserverURL is the base URL of the Matrix homeserver
	// (e.g., "https://matrix.example.com").
	HomeserverURL string `yaml:"homeserver_url"`

	// StateDir is the directory containing session.json (user ID and
	// access token, written at registration time).
	StateDir string `yaml:"state_dir"`

	// Room is the job room, as either a room alias
	// ("#jobs:example.com") or a raw room ID ("!abc:example.com").
	// The bot joins it at startup and handles events from it only.
	Room string `yaml:"room"`

	// StorePath is the path of the JSON job store file.
	StorePath string `yaml:"store_path"`

	// SocketPath is the Unix socket for operator queries. Empty
	// disables the socket.
	SocketPath string `yaml:"socket_path"`

	// AccentColor is the hex color applied to rendered display
	// titles (e.g., "#F4C2C2").
	AccentColor string `yaml:"accent_color"`

	// Timezone is the IANA timezone in which job dates and times are
	// interpreted.
	Timezone string `yaml:"timezone"`

	// CommandPrefix introduces bot commands in room messages.
	CommandPrefix string `yaml:"command_prefix"`

	// AdminUsers are Matrix user IDs that are always authorized for
	// privileged commands, regardless of room power level.
	AdminUsers []string `yaml:"admin_users"`

	// AdminPowerLevel is the minimum room power level that grants
	// admin authorization.
	AdminPowerLevel int `yaml:"admin_power_level"`

	// PageSize is the number of jobs per page in job listings.
	PageSize int `yaml:"page_size"`

	// NavigationTimeout is how long a job listing keeps responding to
	// page navigation before its controls are retired.
	NavigationTimeout time.Duration `yaml:"navigation_timeout"`
}

// Default returns the default configuration. These defaults are used
// as a base before loading the config file; homeserver, state
// directory, and room have no usable defaults and must come from the
// file.
func Default() *Config {
	return &Config{
		StorePath:         "jobs.json",
		AccentColor:       "#F4C2C2",
		Timezone:          "America/New_York",
		CommandPrefix:     "!",
		AdminPowerLevel:   50,
		PageSize:          4,
		NavigationTimeout: 60 * time.Second,
	}
}

// Load loads configuration from the CALLBOARD_CONFIG environment
// variable. There are no fallbacks — if CALLBOARD_CONFIG is not set,
// this fails.
func Load() (*Config, error) {
	configPath := os.Getenv("CALLBOARD_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("CALLBOARD_CONFIG environment variable not set; " +
			"set it to the path of your callboard.yaml config file, or use --config flag")
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. The config
// file is the single source of truth; environment variables do not
// override config values. The only expansion performed is ${HOME} and
// similar path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.StateDir = expandVars(c.StateDir, vars)
	c.StorePath = expandVars(c.StorePath, vars)
	c.SocketPath = expandVars(c.SocketPath, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

var accentPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.HomeserverURL == "" {
		errs = append(errs, fmt.Errorf("homeserver_url is required"))
	}
	if c.StateDir == "" {
		errs = append(errs, fmt.Errorf("state_dir is required"))
	}
	if c.Room == "" {
		errs = append(errs, fmt.Errorf("room is required"))
	}
	if c.StorePath == "" {
		errs = append(errs, fmt.Errorf("store_path is required"))
	}
	if !accentPattern.MatchString(c.AccentColor) {
		errs = append(errs, fmt.Errorf("accent_color %q must be a #RRGGBB hex color", c.AccentColor))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %w", c.Timezone, err))
	}
	if c.CommandPrefix == "" {
		errs = append(errs, fmt.Errorf("command_prefix is required"))
	}
	if c.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("page_size must be positive"))
	}
	if c.NavigationTimeout <= 0 {
		errs = append(errs, fmt.Errorf("navigation_timeout must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Location returns the configured timezone. Call Validate first; an
// invalid timezone panics here.
func (c *Config) Location() *time.Location {
	location, err := time.LoadLocation(c.Timezone)
	if err != nil {
		panic(fmt.Sprintf("config: timezone %q: %v", c.Timezone, err))
	}
	return location
}
