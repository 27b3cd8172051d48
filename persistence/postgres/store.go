// SAGE - Secure Agent Guarantee Engine
// Copyright (C) 2025 SAGE-X-project
//
// This file is part of SAGE.
//
// SAGE is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SAGE is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with SAGE. If not, see <https://www.gnu.org/licenses/>.

package postgres

import (
	"context"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sage-x-project/didcomm-mediator/persistence"
)

// Store implements persistence.Store backed by PostgreSQL via pgx's pool.
type Store struct {
	pool *pgxpool.Pool
}

var _ persistence.Store = (*Store)(nil)

// Config holds PostgreSQL connection configuration.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// NewStore creates a new PostgreSQL-backed store and verifies connectivity.
func NewStore(ctx context.Context, cfg *Config) (*Store, error) {
	connString := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)
	return newStoreFromConnString(ctx, connString)
}

// NewStoreFromDSN creates a new PostgreSQL-backed store from a single
// connection-string/URL, as loaded from config.PersistenceConfig.PostgresDSN.
func NewStoreFromDSN(ctx context.Context, dsn string) (*Store, error) {
	return newStoreFromConnString(ctx, dsn)
}

func newStoreFromConnString(ctx context.Context, connString string) (*Store, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Postgres may still be starting (common in container-orchestrated
	// deploys, e.g. a compose/k8s stack bringing the DB and mediator up
	// together) — retry the initial ping with backoff rather than failing
	// on the first connection race.
	pingBackoff := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5)
	pingErr := backoff.Retry(func() error {
		return pool.Ping(ctx)
	}, backoff.WithContext(pingBackoff, ctx))
	if pingErr != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", pingErr)
	}

	return &Store{pool: pool}, nil
}

// Close closes the database connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
