// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the mediator's top-level configuration.
type Config struct {
	Environment string            `yaml:"environment" json:"environment"`
	Endpoint    EndpointConfig    `yaml:"endpoint" json:"endpoint"`
	Wallet      WalletConfig      `yaml:"wallet" json:"wallet"`
	Persistence PersistenceConfig `yaml:"persistence" json:"persistence"`
	Logging     LoggingConfig     `yaml:"logging" json:"logging"`
	Metrics     MetricsConfig     `yaml:"metrics" json:"metrics"`
	Health      HealthConfig      `yaml:"health" json:"health"`
}

// EndpointConfig holds where the HTTP server binds and what it
// advertises to clients. BASE_DOMAIN may differ from ENDPOINT_ROOT when
// the process sits behind a reverse proxy or load balancer.
type EndpointConfig struct {
	Root   string `yaml:"root" json:"root"`     // host:port to bind, e.g. "127.0.0.1:8005"
	Domain string `yaml:"domain" json:"domain"` // public-facing endpoint, e.g. "https://mediator.example.com"
}

// DIDCommPath returns the public endpoint clients should pack messages
// toward, advertised in MediateGrant and the out-of-band invitation.
func (e EndpointConfig) DIDCommPath() string {
	return strings.TrimRight(e.Domain, "/") + "/didcomm"
}

// WalletConfig locates the mediator's own signing identity.
type WalletConfig struct {
	SeedEnv string `yaml:"seed_env" json:"seed_env"` // name of the env var holding a base58 Ed25519 seed; empty generates an ephemeral key
}

// PersistenceConfig selects and configures the persistence backend.
type PersistenceConfig struct {
	Backend    string `yaml:"backend" json:"backend"` // "memory" or "postgres"
	PostgresDSN string `yaml:"postgres_dsn" json:"postgres_dsn"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format"` // json, text
	Output string `yaml:"output" json:"output"` // stdout, stderr, file path
}

// MetricsConfig controls the Prometheus exporter.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	Port    int  `yaml:"port" json:"port"`
}

// HealthConfig controls the liveness/readiness server.
type HealthConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	Port    int  `yaml:"port" json:"port"`
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file (tried YAML and JSON): %w", err)
		}
	}

	setDefaults(cfg)
	return cfg, nil
}

// SaveToFile saves configuration to a file, choosing JSON or YAML by
// the file extension.
func SaveToFile(cfg *Config, path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".json") {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// setDefaults fills in the values spec.md §6 mandates.
func setDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.Endpoint.Root == "" {
		cfg.Endpoint.Root = "127.0.0.1:8005"
	}
	if cfg.Endpoint.Domain == "" {
		cfg.Endpoint.Domain = withScheme(cfg.Endpoint.Root)
	}
	if cfg.Persistence.Backend == "" {
		cfg.Persistence.Backend = "memory"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}
	if cfg.Health.Port == 0 {
		cfg.Health.Port = 8006
	}
}

func withScheme(hostport string) string {
	if strings.Contains(hostport, "://") {
		return hostport
	}
	return "http://" + hostport
}

// Validate rejects a configuration that cannot produce a running
// mediator (as opposed to ValidateConfiguration in validation.go, whose
// error- and warning-level findings the loader uses to decide whether to
// fail).
func (c *Config) Validate() error {
	if c.Endpoint.Root == "" {
		return fmt.Errorf("endpoint.root is required")
	}
	if c.Persistence.Backend != "memory" && c.Persistence.Backend != "postgres" {
		return fmt.Errorf("persistence.backend must be \"memory\" or \"postgres\", got %q", c.Persistence.Backend)
	}
	if c.Persistence.Backend == "postgres" && c.Persistence.PostgresDSN == "" {
		return fmt.Errorf("persistence.postgres_dsn is required when persistence.backend is \"postgres\"")
	}
	return nil
}
