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

// Package config types define the configuration structures used throughout
// sirseer-export. These types represent settings that can be loaded from
// YAML configuration files, environment variables, or command-line flags.
package config

// Config represents the complete configuration for sirseer-export.
// It consolidates settings from various sources and provides a unified
// interface for accessing configuration values throughout the application.
type Config struct {
	Jira     JiraConfig     `yaml:"jira"`
	Defaults DefaultsConfig `yaml:"defaults"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Render   RenderConfig   `yaml:"render"`
}

// JiraConfig contains Jira-specific settings including the instance base URL
// and authentication configuration. Credentials are never passed on the
// command line: the username lives in the config file or JIRA_USERNAME, and
// the API token is read from the environment variable named by TokenEnv.
type JiraConfig struct {
	BaseURL  string `yaml:"base_url"`
	Username string `yaml:"username"`
	TokenEnv string `yaml:"token_env"`
}

// DefaultsConfig contains default settings that apply to every export run
// unless overridden by command-line flags. These settings control the core
// behavior of the batch.
type DefaultsConfig struct {
	Workers  int    `yaml:"workers"`
	KeysFile string `yaml:"keys_file"`
	OutDir   string `yaml:"out_dir"`
}

// FetchConfig controls HTTP fetch behavior: the per-request timeout, how
// many times transient failures are retried, and which additional hosts
// embedded assets may be fetched from besides the Jira origin itself.
type FetchConfig struct {
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	MaxRetries     int      `yaml:"max_retries"`
	AllowedHosts   []string `yaml:"allowed_hosts"`
}

// RenderConfig controls PDF conversion: which external engine converts the
// assembled pages and how long a single conversion may run.
type RenderConfig struct {
	Engine         string `yaml:"engine"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// DefaultConfig returns a Config with sensible defaults suitable for most
// use cases. The Jira base URL has no meaningful default and must come from
// the config file or the JIRA_BASE_URL environment variable.
func DefaultConfig() *Config {
	return &Config{
		Jira: JiraConfig{
			TokenEnv: "JIRA_API_TOKEN",
		},
		Defaults: DefaultsConfig{
			Workers:  4,
			KeysFile: "keys.txt",
			OutDir:   "exports",
		},
		Fetch: FetchConfig{
			TimeoutSeconds: 30,
			MaxRetries:     3,
		},
		Render: RenderConfig{
			Engine:         "wkhtmltopdf",
			TimeoutSeconds: 120,
		},
	}
}
