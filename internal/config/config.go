// Copyright 2026 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config provides configuration management for sirseer-export with
// support for multiple configuration sources and a well-defined precedence
// order.
//
// Configuration sources (in precedence order, highest to lowest):
//  1. Command-line flags
//  2. Environment variables
//  3. Configuration file
//  4. Built-in defaults
//
// The package supports YAML configuration files and provides automatic
// discovery of configuration in standard locations. Credentials are
// deliberately environment-only: the API token is read from the variable
// named by jira.token_env and never appears in a file or flag.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	exporterrors "github.com/sirseerhq/sirseer-export/internal/errors"
)

// LoadConfig loads configuration from multiple sources and applies them in
// the correct precedence order. If configPath is provided, it loads from
// that specific file. Otherwise, it searches standard locations:
//   - .sirseer-export.yaml (current directory)
//   - .sirseer-export.yml (current directory)
//   - ~/.sirseer/export.yaml
//   - ~/.sirseer/export.yml
//
// Environment variables are applied after loading the config file, allowing
// runtime overrides.
//
// Returns an error if the specified config file cannot be loaded, but will
// succeed with defaults if no config file is found in standard locations.
func LoadConfig(configPath string) (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	// Try to load config file if path is provided
	if configPath != "" {
		if err := loadConfigFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		// Try default locations
		defaultPaths := []string{
			".sirseer-export.yaml",
			".sirseer-export.yml",
			filepath.Join(os.Getenv("HOME"), ".sirseer", "export.yaml"),
			filepath.Join(os.Getenv("HOME"), ".sirseer", "export.yml"),
		}

		for _, path := range defaultPaths {
			if _, err := os.Stat(path); err == nil {
				if err := loadConfigFile(path, cfg); err != nil {
					return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
				}
				break
			}
		}
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	return cfg, nil
}

// loadConfigFile reads and parses a YAML config file
func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(cfg *Config) {
	if baseURL := os.Getenv("JIRA_BASE_URL"); baseURL != "" {
		cfg.Jira.BaseURL = baseURL
	}
	if username := os.Getenv("JIRA_USERNAME"); username != "" {
		cfg.Jira.Username = username
	}
	if workers := os.Getenv("SIRSEER_EXPORT_WORKERS"); workers != "" {
		if n, err := parsePositiveInt(workers); err == nil {
			cfg.Defaults.Workers = n
		}
	}
	if outDir := os.Getenv("SIRSEER_EXPORT_DIR"); outDir != "" {
		cfg.Defaults.OutDir = outDir
	}
}

// Token returns the Jira API token from the environment variable named by
// jira.token_env. An empty return value means no token is configured.
func (c *Config) Token() string {
	return os.Getenv(c.Jira.TokenEnv)
}

// parsePositiveInt parses a string to a positive integer
func parsePositiveInt(s string) (int, error) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("failed to parse integer from '%s': %w", s, err)
	}
	if i <= 0 {
		return 0, fmt.Errorf("value must be positive, got: %d", i)
	}
	return i, nil
}

// Validate checks if the configuration contains valid values. It ensures the
// Jira base URL is present and well-formed, credentials are resolvable, and
// numeric settings are positive. This should be called after loading
// configuration to catch invalid settings early.
func (c *Config) Validate() error {
	if c.Jira.BaseURL == "" {
		return fmt.Errorf("jira base URL is required (set jira.base_url or JIRA_BASE_URL): %w", exporterrors.ErrInvalidConfig)
	}
	u, err := url.Parse(c.Jira.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("jira base URL %q is not a valid absolute URL: %w", c.Jira.BaseURL, exporterrors.ErrInvalidConfig)
	}
	if c.Jira.Username == "" {
		return fmt.Errorf("jira username is required (set jira.username or JIRA_USERNAME): %w", exporterrors.ErrInvalidConfig)
	}
	if c.Jira.TokenEnv == "" {
		return fmt.Errorf("jira token_env cannot be empty: %w", exporterrors.ErrInvalidConfig)
	}
	if c.Defaults.Workers <= 0 {
		return fmt.Errorf("worker count must be positive, got %d: %w", c.Defaults.Workers, exporterrors.ErrInvalidConfig)
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch timeout must be positive, got %d: %w", c.Fetch.TimeoutSeconds, exporterrors.ErrInvalidConfig)
	}
	if c.Fetch.MaxRetries < 0 {
		return fmt.Errorf("fetch max retries cannot be negative, got %d: %w", c.Fetch.MaxRetries, exporterrors.ErrInvalidConfig)
	}
	if c.Render.TimeoutSeconds <= 0 {
		return fmt.Errorf("render timeout must be positive, got %d: %w", c.Render.TimeoutSeconds, exporterrors.ErrInvalidConfig)
	}
	return nil
}
