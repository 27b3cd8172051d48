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
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	cfg, err := Load(LoaderOptions{
		ConfigDir:      ".",
		Environment:    "development",
		SkipValidation: true,
	})
	if err != nil {
		t.Fatalf("Failed to load development config: %v", err)
	}

	if cfg.Environment != "development" {
		t.Errorf("Environment = %q, want %q", cfg.Environment, "development")
	}
	if cfg.Endpoint.Root == "" {
		t.Error("Endpoint.Root should have a default value")
	}
	if cfg.Persistence.Backend != "memory" {
		t.Errorf("Persistence.Backend = %q, want %q", cfg.Persistence.Backend, "memory")
	}
}

func TestLoadForEnvironment(t *testing.T) {
	tests := []string{"development", "staging", "production", "local"}

	for _, env := range tests {
		t.Run(env, func(t *testing.T) {
			cfg, err := Load(LoaderOptions{
				ConfigDir:      ".",
				Environment:    env,
				SkipValidation: true,
			})
			if err != nil {
				t.Fatalf("Failed to load %s config: %v", env, err)
			}

			if cfg.Environment != env {
				t.Errorf("Environment = %q, want %q", cfg.Environment, env)
			}
		})
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	os.Setenv("ENDPOINT_ROOT", "0.0.0.0:9999")
	os.Setenv("MEDIATOR_LOG_LEVEL", "debug")
	os.Setenv("MEDIATOR_PERSISTENCE", "postgres")
	os.Setenv("MEDIATOR_POSTGRES_DSN", "postgres://localhost/mediator")
	defer os.Unsetenv("ENDPOINT_ROOT")
	defer os.Unsetenv("MEDIATOR_LOG_LEVEL")
	defer os.Unsetenv("MEDIATOR_PERSISTENCE")
	defer os.Unsetenv("MEDIATOR_POSTGRES_DSN")

	cfg, err := Load(LoaderOptions{
		ConfigDir:      ".",
		Environment:    "development",
		SkipValidation: true,
	})
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Endpoint.Root != "0.0.0.0:9999" {
		t.Errorf("Endpoint.Root = %q, want %q", cfg.Endpoint.Root, "0.0.0.0:9999")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Persistence.Backend != "postgres" {
		t.Errorf("Persistence.Backend = %q, want %q", cfg.Persistence.Backend, "postgres")
	}
	if cfg.Persistence.PostgresDSN != "postgres://localhost/mediator" {
		t.Errorf("Persistence.PostgresDSN = %q, want %q", cfg.Persistence.PostgresDSN, "postgres://localhost/mediator")
	}
}

func TestLoadWithCustomConfigDir(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test.yaml")

	testConfig := `
environment: test
logging:
  level: info
  format: json
`
	if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := Load(LoaderOptions{
		ConfigDir:      tmpDir,
		Environment:    "test",
		SkipValidation: true,
	})
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg == nil {
		t.Fatal("Config should not be nil")
	}
}

func TestDefaultLoaderOptions(t *testing.T) {
	opts := DefaultLoaderOptions()

	if opts.ConfigDir != "config" {
		t.Errorf("ConfigDir = %q, want %q", opts.ConfigDir, "config")
	}
	if opts.SkipEnvSubstitution {
		t.Error("SkipEnvSubstitution should be false by default")
	}
	if opts.SkipValidation {
		t.Error("SkipValidation should be false by default")
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	if cfg.Environment != "development" {
		t.Errorf("Default environment = %q, want %q", cfg.Environment, "development")
	}
	if cfg.Endpoint.Root != "127.0.0.1:8005" {
		t.Errorf("Default endpoint root = %q, want %q", cfg.Endpoint.Root, "127.0.0.1:8005")
	}
	if cfg.Endpoint.Domain != "http://127.0.0.1:8005" {
		t.Errorf("Default endpoint domain = %q, want %q", cfg.Endpoint.Domain, "http://127.0.0.1:8005")
	}
	if cfg.Persistence.Backend != "memory" {
		t.Errorf("Default persistence backend = %q, want %q", cfg.Persistence.Backend, "memory")
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := &Config{Endpoint: EndpointConfig{Root: "127.0.0.1:8005"}, Persistence: PersistenceConfig{Backend: "postgres"}}
	if err := cfg.Validate(); err == nil {
		t.Error("expected an error for postgres backend with no DSN")
	}

	cfg.Persistence.PostgresDSN = "postgres://localhost/mediator"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
