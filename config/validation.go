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
	"fmt"
	"net/url"
)

// ValidationError represents a single configuration validation finding.
type ValidationError struct {
	Field   string
	Message string
	Level   string // "error", "warning", "info"
}

// ValidateConfiguration validates the entire configuration. Only
// "error"-level findings stop Load from returning a usable Config;
// "warning" findings are left for the caller to log.
func ValidateConfiguration(cfg *Config) []ValidationError {
	var errors []ValidationError

	errors = append(errors, validateEndpointConfig(cfg.Endpoint)...)
	errors = append(errors, validatePersistenceConfig(cfg.Persistence)...)
	errors = append(errors, validateEnvironment(cfg.Environment)...)

	return errors
}

func validateEndpointConfig(cfg EndpointConfig) []ValidationError {
	var errors []ValidationError

	if cfg.Root == "" {
		errors = append(errors, ValidationError{
			Field:   "Endpoint.Root",
			Message: "ENDPOINT_ROOT is required",
			Level:   "error",
		})
	}

	if cfg.Domain != "" {
		if _, err := url.Parse(cfg.Domain); err != nil {
			errors = append(errors, ValidationError{
				Field:   "Endpoint.Domain",
				Message: fmt.Sprintf("invalid BASE_DOMAIN: %v", err),
				Level:   "error",
			})
		}
	}

	return errors
}

func validatePersistenceConfig(cfg PersistenceConfig) []ValidationError {
	var errors []ValidationError

	switch cfg.Backend {
	case "memory":
		// nothing further to check
	case "postgres":
		if cfg.PostgresDSN == "" {
			errors = append(errors, ValidationError{
				Field:   "Persistence.PostgresDSN",
				Message: "MEDIATOR_POSTGRES_DSN is required when MEDIATOR_PERSISTENCE=postgres",
				Level:   "error",
			})
		}
	case "":
		errors = append(errors, ValidationError{
			Field:   "Persistence.Backend",
			Message: "no persistence backend selected",
			Level:   "warning",
		})
	default:
		errors = append(errors, ValidationError{
			Field:   "Persistence.Backend",
			Message: fmt.Sprintf("unknown backend %q, expected memory or postgres", cfg.Backend),
			Level:   "error",
		})
	}

	return errors
}

func validateEnvironment(env string) []ValidationError {
	var errors []ValidationError

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
		"local":       true,
		"test":        true,
	}

	if env != "" && !validEnvs[env] {
		errors = append(errors, ValidationError{
			Field:   "Environment",
			Message: fmt.Sprintf("unrecognized environment %q", env),
			Level:   "warning",
		})
	}

	return errors
}
