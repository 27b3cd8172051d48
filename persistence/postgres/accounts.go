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

	"github.com/jackc/pgx/v5"
	"github.com/sage-x-project/didcomm-mediator/persistence"
)

// AccountExists reports whether authPubkey has a registered account.
func (s *Store) AccountExists(ctx context.Context, authPubkey string) (bool, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM accounts WHERE auth_pubkey = $1)`,
		authPubkey,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check account existence: %w", err)
	}
	return exists, nil
}

// CreateAccount registers a new account. It is idempotent only when the
// stored tuple matches exactly.
func (s *Store) CreateAccount(ctx context.Context, authPubkey, signingKey, didDoc string) error {
	query := `
		SELECT signing_key, did_doc FROM accounts WHERE auth_pubkey = $1
	`
	var existingSigningKey, existingDIDDoc string
	err := s.pool.QueryRow(ctx, query, authPubkey).Scan(&existingSigningKey, &existingDIDDoc)
	switch {
	case err == nil:
		if existingSigningKey == signingKey && existingDIDDoc == didDoc {
			return nil
		}
		return persistence.ErrAccountExists
	case err == pgx.ErrNoRows:
		// fall through to insert
	default:
		return fmt.Errorf("failed to check existing account: %w", err)
	}

	insert := `
		INSERT INTO accounts (auth_pubkey, signing_key, did_doc, created_at)
		VALUES ($1, $2, $3, NOW())
	`
	if _, err := s.pool.Exec(ctx, insert, authPubkey, signingKey, didDoc); err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// AddRecipient binds recipientKey to authPubkey. The insert is guarded by
// the unique index on recipient_keys.recipient_key, which is what
// serializes two concurrent claims of the same key to exactly one
// winner (§5's "first writer wins" ordering guarantee).
func (s *Store) AddRecipient(ctx context.Context, authPubkey, recipientKey string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE auth_pubkey = $1)`, authPubkey).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check account: %w", err)
	}
	if !exists {
		return persistence.ErrAccountNotFound
	}

	tag, err := tx.Exec(ctx,
		`INSERT INTO recipient_keys (recipient_key, auth_pubkey, created_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (recipient_key) DO NOTHING`,
		recipientKey, authPubkey,
	)
	if err != nil {
		return fmt.Errorf("failed to add recipient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return persistence.ErrRecipientKeyExists
	}

	return tx.Commit(ctx)
}

// RemoveRecipient unbinds recipientKey from authPubkey.
func (s *Store) RemoveRecipient(ctx context.Context, authPubkey, recipientKey string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM recipient_keys WHERE recipient_key = $1 AND auth_pubkey = $2`,
		recipientKey, authPubkey,
	)
	if err != nil {
		return fmt.Errorf("failed to remove recipient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return persistence.ErrRecipientKeyNotFound
	}
	return nil
}

// ListRecipientKeys returns every recipient key bound to authPubkey.
func (s *Store) ListRecipientKeys(ctx context.Context, authPubkey string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT recipient_key FROM recipient_keys WHERE auth_pubkey = $1`, authPubkey)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipient keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan recipient key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recipient keys: %w", err)
	}
	return keys, nil
}
